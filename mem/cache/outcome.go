package cache

// Outcome is the result of one memory reference.
type Outcome int

// Every reference resolves to exactly one of these.
const (
	Hit Outcome = iota
	Miss
	MissEviction
)

// IsHit returns true if the reference found its block in the cache.
func (o Outcome) IsHit() bool {
	return o == Hit
}

// IsEviction returns true if the reference replaced a valid line.
func (o Outcome) IsEviction() bool {
	return o == MissEviction
}

func (o Outcome) String() string {
	switch o {
	case Hit:
		return "hit"
	case Miss:
		return "miss"
	case MissEviction:
		return "miss eviction"
	default:
		return "unknown"
	}
}

// Stats are the aggregate counters of a run.
type Stats struct {
	Hits      uint64 `json:"hits"`
	Misses    uint64 `json:"misses"`
	Evictions uint64 `json:"evictions"`
}

// References returns the number of references that produced the stats.
func (s Stats) References() uint64 {
	return s.Hits + s.Misses
}

func (s *Stats) count(o Outcome) {
	switch o {
	case Hit:
		s.Hits++
	case Miss:
		s.Misses++
	case MissEviction:
		s.Misses++
		s.Evictions++
	}
}
