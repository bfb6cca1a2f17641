package cache

import (
	"errors"
	"fmt"
)

// MaxLines bounds the number of lines a cache can be built with. Geometries
// above it are rejected as configuration errors.
const MaxLines = 1 << maxSetBits

const maxSetBits = 26

// ErrInvalidConfig is returned when a cache geometry cannot be built.
var ErrInvalidConfig = errors.New("invalid cache configuration")

// Config is the geometry of a cache. It does not change after the cache is
// built.
type Config struct {
	// SetBits is the number of address bits that select a set (s).
	SetBits int `yaml:"set_bits" json:"set_bits"`

	// BlockBits is the number of address bits of the block offset (b).
	BlockBits int `yaml:"block_bits" json:"block_bits"`

	// Ways is the number of lines per set (E).
	Ways int `yaml:"ways" json:"ways"`
}

// NumSets returns the number of sets (S = 2^s).
func (c Config) NumSets() int {
	return 1 << c.SetBits
}

// BlockSize returns the number of bytes in a block (B = 2^b).
func (c Config) BlockSize() uint64 {
	return 1 << c.BlockBits
}

// Validate reports whether a cache with this geometry can be built.
func (c Config) Validate() error {
	if c.SetBits < 0 {
		return fmt.Errorf("%w: set bits %d is negative", ErrInvalidConfig, c.SetBits)
	}

	if c.BlockBits < 0 {
		return fmt.Errorf("%w: block bits %d is negative",
			ErrInvalidConfig, c.BlockBits)
	}

	if c.Ways < 1 {
		return fmt.Errorf("%w: %d lines per set, need at least 1",
			ErrInvalidConfig, c.Ways)
	}

	if c.SetBits+c.BlockBits > 64 {
		return fmt.Errorf("%w: %d set bits and %d block bits exceed a 64-bit address",
			ErrInvalidConfig, c.SetBits, c.BlockBits)
	}

	// Compared by division so that large geometries cannot wrap around.
	if c.SetBits > maxSetBits || uint64(c.Ways) > MaxLines>>uint(c.SetBits) {
		return fmt.Errorf("%w: 2^%d sets of %d lines exceed %d lines",
			ErrInvalidConfig, c.SetBits, c.Ways, MaxLines)
	}

	return nil
}

// Decompose splits an address into its tag and set index. The block offset is
// dropped.
func (c Config) Decompose(addr uint64) (tag uint64, setID int) {
	tag = addr >> uint(c.SetBits+c.BlockBits)
	setMask := uint64(c.NumSets() - 1)
	setID = int((addr >> uint(c.BlockBits)) & setMask)

	return tag, setID
}

func (c Config) String() string {
	return fmt.Sprintf("s=%d E=%d b=%d", c.SetBits, c.Ways, c.BlockBits)
}
