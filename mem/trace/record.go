// Package trace reads memory traces and replays them against a cache model.
package trace

import "fmt"

// Kind is the operation of a trace record.
type Kind byte

// The operations that appear in a trace.
const (
	KindInstruction Kind = 'I'
	KindLoad        Kind = 'L'
	KindStore       Kind = 'S'
	KindModify      Kind = 'M'
)

// Kinds lists the known kinds in the order they are reported.
var Kinds = []Kind{KindInstruction, KindLoad, KindStore, KindModify}

// IsKnown returns true if k is one of the kinds a trace may hold.
func (k Kind) IsKnown() bool {
	switch k {
	case KindInstruction, KindLoad, KindStore, KindModify:
		return true
	default:
		return false
	}
}

// References returns how many data cache references a record of kind k
// makes. Instruction fetches make none.
func (k Kind) References() int {
	switch k {
	case KindLoad, KindStore:
		return 1
	case KindModify:
		return 2
	default:
		return 0
	}
}

func (k Kind) String() string {
	return string(rune(k))
}

// A Record is one line of a trace.
type Record struct {
	Kind    Kind
	Address uint64
	Size    int

	// Line is the 1-based line number the record was read from.
	Line int
}

func (r Record) String() string {
	return fmt.Sprintf("%s %x,%d", r.Kind, r.Address, r.Size)
}
