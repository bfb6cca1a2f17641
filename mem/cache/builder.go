package cache

import (
	"github.com/sarchlab/csim/mem/cache/internal/tagging"
)

// Builder can build cache engines.
type Builder struct {
	setBits      int
	blockBits    int
	ways         int
	victimFinder tagging.VictimFinder
}

// MakeBuilder creates a new builder with a direct-mapped, single-set default
// geometry.
func MakeBuilder() Builder {
	return Builder{
		setBits:   0,
		blockBits: 0,
		ways:      1,
	}
}

// WithSetBits sets the number of set index bits.
func (b Builder) WithSetBits(setBits int) Builder {
	b.setBits = setBits
	return b
}

// WithBlockBits sets the number of block offset bits.
func (b Builder) WithBlockBits(blockBits int) Builder {
	b.blockBits = blockBits
	return b
}

// WithWays sets the number of lines per set.
func (b Builder) WithWays(ways int) Builder {
	b.ways = ways
	return b
}

// WithConfig sets the whole geometry at once.
func (b Builder) WithConfig(config Config) Builder {
	b.setBits = config.SetBits
	b.blockBits = config.BlockBits
	b.ways = config.Ways

	return b
}

// WithVictimFinder replaces the aging LRU victim finder.
func (b Builder) WithVictimFinder(victimFinder tagging.VictimFinder) Builder {
	b.victimFinder = victimFinder
	return b
}

// Build allocates the cache. It fails if the geometry is invalid.
func (b Builder) Build(name string) (*Engine, error) {
	config := Config{
		SetBits:   b.setBits,
		BlockBits: b.blockBits,
		Ways:      b.ways,
	}

	err := config.Validate()
	if err != nil {
		return nil, err
	}

	victimFinder := b.victimFinder
	if victimFinder == nil {
		victimFinder = tagging.NewAgingLRUVictimFinder()
	}

	e := &Engine{
		name:         name,
		config:       config,
		tags:         tagging.NewTagArray(config.NumSets(), config.Ways),
		victimFinder: victimFinder,
	}

	return e, nil
}
