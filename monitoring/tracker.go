package monitoring

import (
	"sync/atomic"

	"github.com/sarchlab/csim/mem/cache"
	"github.com/sarchlab/csim/sim"
)

// A StatsTracker is a hook that mirrors the counters of a cache so that they
// can be read from other goroutines.
type StatsTracker struct {
	hits      atomic.Uint64
	misses    atomic.Uint64
	evictions atomic.Uint64
}

// NewStatsTracker creates a StatsTracker with zero counters.
func NewStatsTracker() *StatsTracker {
	return &StatsTracker{}
}

// Func counts the outcome of an access.
func (t *StatsTracker) Func(ctx sim.HookCtx) {
	if ctx.Pos != cache.HookPosAccess {
		return
	}

	detail, ok := ctx.Detail.(cache.AccessDetail)
	if !ok {
		return
	}

	if detail.Outcome.IsHit() {
		t.hits.Add(1)
		return
	}

	t.misses.Add(1)

	if detail.Outcome.IsEviction() {
		t.evictions.Add(1)
	}
}

// Stats returns the counters seen so far.
func (t *StatsTracker) Stats() cache.Stats {
	return cache.Stats{
		Hits:      t.hits.Load(),
		Misses:    t.misses.Load(),
		Evictions: t.evictions.Load(),
	}
}
