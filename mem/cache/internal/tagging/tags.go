// Package tagging holds the tag array of a set-associative cache: the sets,
// the lines in each set, and the policy that picks a line to replace.
package tagging

import "fmt"

// TagArray is the storage of a set-associative cache. It has a fixed shape of
// NumSets sets with NumWays lines each.
type TagArray interface {
	NumSets() int
	NumWays() int
	GetSet(setID int) *Set
	Reset()
	Destroy()
}

// NewTagArray allocates a tag array with all the lines invalid.
func NewTagArray(numSets, numWays int) TagArray {
	if numSets < 1 || numWays < 1 {
		panic(fmt.Sprintf("invalid tag array shape %dx%d", numSets, numWays))
	}

	t := &tagArrayImpl{
		numSets: numSets,
		numWays: numWays,
		lines:   make([]Line, numSets*numWays),
		sets:    make([]Set, numSets),
	}

	for i := range t.sets {
		start := i * numWays
		t.sets[i] = Set{
			ID:    i,
			Lines: t.lines[start : start+numWays : start+numWays],
		}
	}

	return t
}

// A Line is one associative slot of a set. Tag and Recency are meaningless
// when the line is not valid.
type Line struct {
	IsValid bool
	Tag     uint64
	Recency uint64
}

// A Set is the group of lines an address can be stored at.
type Set struct {
	ID    int
	Lines []Line
}

// FindTag returns the way that holds a valid copy of tag.
func (s *Set) FindTag(tag uint64) (wayID int, found bool) {
	for i := range s.Lines {
		if s.Lines[i].IsValid && s.Lines[i].Tag == tag {
			return i, true
		}
	}

	return 0, false
}

// Age makes every line in the set one access older, including the invalid
// ones.
func (s *Set) Age() {
	for i := range s.Lines {
		s.Lines[i].Recency++
	}
}

// Touch marks a line as the most recently used one.
func (s *Set) Touch(wayID int) {
	s.Lines[wayID].Recency = 0
}

// Install stores tag in a way as the most recently used line.
func (s *Set) Install(wayID int, tag uint64) {
	s.Lines[wayID] = Line{
		IsValid: true,
		Tag:     tag,
		Recency: 0,
	}
}

// CountValid returns the number of valid lines in the set.
func (s *Set) CountValid() int {
	n := 0

	for i := range s.Lines {
		if s.Lines[i].IsValid {
			n++
		}
	}

	return n
}

type tagArrayImpl struct {
	numSets int
	numWays int

	lines     []Line
	sets      []Set
	destroyed bool
}

func (t *tagArrayImpl) NumSets() int {
	return t.numSets
}

func (t *tagArrayImpl) NumWays() int {
	return t.numWays
}

// GetSet returns the set with the given ID. The ID must be in range.
func (t *tagArrayImpl) GetSet(setID int) *Set {
	t.mustBeAlive()

	if setID < 0 || setID >= t.numSets {
		panic(fmt.Sprintf("set %d out of range [0, %d)", setID, t.numSets))
	}

	return &t.sets[setID]
}

// Reset marks all the lines invalid and clears their tags and counters.
func (t *tagArrayImpl) Reset() {
	t.mustBeAlive()

	clear(t.lines)
}

// Destroy drops the storage. The tag array cannot be used afterward.
func (t *tagArrayImpl) Destroy() {
	t.mustBeAlive()

	t.lines = nil
	t.sets = nil
	t.destroyed = true
}

func (t *tagArrayImpl) mustBeAlive() {
	if t.destroyed {
		panic("tag array used after being destroyed")
	}
}
