package cache

import (
	"fmt"
	"math/rand/v2"

	akitacache "github.com/sarchlab/akita/v4/mem/cache"
)

// InsertionTicks reports the tick at which a directory block was last
// filled.
type InsertionTicks func(block *akitacache.Block) uint64

// NewVictimFinder returns the directory victim finder for a policy. LRU uses
// the directory's own recency queue; FIFO reads fill times from inserted.
func NewVictimFinder(
	policy Policy,
	seed uint64,
	inserted InsertionTicks,
) (akitacache.VictimFinder, error) {
	switch policy {
	case PolicyRandom:
		return NewRandomVictimFinder(seed), nil
	case PolicyFIFO:
		return NewFIFOVictimFinder(inserted), nil
	case PolicyLRU:
		return akitacache.NewLRUVictimFinder(), nil
	}
	return nil, fmt.Errorf("%w: unknown replacement policy %q", ErrConfiguration, policy)
}

// RandomVictimFinder evicts a uniformly chosen way.
type RandomVictimFinder struct {
	rng *rand.Rand
}

// NewRandomVictimFinder returns a random evictor with a fixed seed.
func NewRandomVictimFinder(seed uint64) *RandomVictimFinder {
	return &RandomVictimFinder{
		rng: rand.New(rand.NewPCG(seed, seed^0x9E3779B97F4A7C15)),
	}
}

// FindVictim returns a random block of the set.
func (e *RandomVictimFinder) FindVictim(set *akitacache.Set) *akitacache.Block {
	return set.Blocks[e.rng.IntN(len(set.Blocks))]
}

// FIFOVictimFinder evicts the block that was filled first.
type FIFOVictimFinder struct {
	inserted InsertionTicks
}

// NewFIFOVictimFinder returns a fifo evictor reading fill times from
// inserted.
func NewFIFOVictimFinder(inserted InsertionTicks) *FIFOVictimFinder {
	return &FIFOVictimFinder{inserted: inserted}
}

// FindVictim returns the block with the oldest fill tick. Ties go to the
// lowest way.
func (e *FIFOVictimFinder) FindVictim(set *akitacache.Set) *akitacache.Block {
	victim := set.Blocks[0]
	for _, block := range set.Blocks[1:] {
		if e.inserted(block) < e.inserted(victim) {
			victim = block
		}
	}
	return victim
}
