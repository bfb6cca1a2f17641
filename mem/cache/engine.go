// Package cache models a set-associative cache that resolves memory
// references to hits, misses and evictions.
package cache

import (
	"github.com/sarchlab/csim/mem/cache/internal/tagging"
	"github.com/sarchlab/csim/sim"
)

// An Engine resolves memory references against a tag array and keeps the
// aggregate counters. It is not safe for concurrent use.
type Engine struct {
	sim.HookableBase

	name         string
	config       Config
	tags         tagging.TagArray
	victimFinder tagging.VictimFinder
	stats        Stats
	seq          uint64
}

// Name returns the name of the engine.
func (e *Engine) Name() string {
	return e.name
}

// Config returns the geometry the engine was built with.
func (e *Engine) Config() Config {
	return e.config
}

// Stats returns the counters accumulated since the engine was built or reset.
func (e *Engine) Stats() Stats {
	return e.stats
}

// Access resolves one reference to addr.
//
// On a hit, the whole set ages by one and the hit line becomes the youngest.
// On a miss, the set ages first, then the block is installed in the first
// invalid way, or in place of the oldest line if the set is full.
func (e *Engine) Access(addr uint64) Outcome {
	tag, setID := e.config.Decompose(addr)
	set := e.tags.GetSet(setID)

	detail := AccessDetail{
		Address: addr,
		Tag:     tag,
		SetID:   setID,
	}

	if wayID, found := set.FindTag(tag); found {
		set.Age()
		set.Touch(wayID)

		detail.WayID = wayID
		detail.Outcome = Hit
	} else {
		set.Age()

		wayID, needEviction := e.victimFinder.FindVictim(set)
		detail.WayID = wayID
		detail.Outcome = Miss

		if needEviction {
			detail.Outcome = MissEviction
			detail.EvictedTag = set.Lines[wayID].Tag
		}

		set.Install(wayID, tag)
	}

	e.stats.count(detail.Outcome)
	e.seq++
	detail.Seq = e.seq

	e.traceAccess(detail)

	return detail.Outcome
}

// Modify resolves a read followed by a write to the same address. The second
// reference always hits.
func (e *Engine) Modify(addr uint64) (read, write Outcome) {
	read = e.Access(addr)
	write = e.Access(addr)

	return read, write
}

// SetSnapshot returns a copy of the lines of a set.
func (e *Engine) SetSnapshot(setID int) []tagging.Line {
	set := e.tags.GetSet(setID)

	lines := make([]tagging.Line, len(set.Lines))
	copy(lines, set.Lines)

	return lines
}

// Reset invalidates every line and clears the counters.
func (e *Engine) Reset() {
	e.tags.Reset()
	e.stats = Stats{}
	e.seq = 0
}

// Release frees the storage of the cache. The engine cannot process
// references afterward, but Stats still reports the final counters.
func (e *Engine) Release() {
	e.tags.Destroy()
}
