package tagging

// A VictimFinder decides which line of a set receives a block that missed.
type VictimFinder interface {
	// FindVictim returns the way to fill and whether a valid line has to be
	// evicted to make room.
	FindVictim(set *Set) (wayID int, needEviction bool)
}

// AgingLRUVictimFinder picks the least recently used line by the aging
// counters of the set. An invalid line is always preferred. Among valid lines
// the one with the largest counter is chosen, and the lowest way wins a tie.
type AgingLRUVictimFinder struct{}

// NewAgingLRUVictimFinder returns a newly constructed victim finder.
func NewAgingLRUVictimFinder() *AgingLRUVictimFinder {
	return &AgingLRUVictimFinder{}
}

// FindVictim scans the set from way 0. The first invalid way ends the scan.
func (f *AgingLRUVictimFinder) FindVictim(set *Set) (wayID int, needEviction bool) {
	oldest := 0

	for i := range set.Lines {
		if !set.Lines[i].IsValid {
			return i, false
		}

		if set.Lines[i].Recency > set.Lines[oldest].Recency {
			oldest = i
		}
	}

	return oldest, true
}
