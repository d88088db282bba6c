// Package emu provides the processor that workloads run on. It forwards
// loads and stores to a cache and counts the instructions it executes.
package emu

import (
	"github.com/sarchlab/cachesim/timing/cache"
)

// Processor issues memory accesses to a cache and performs arithmetic on
// values already loaded. It is not safe for concurrent use.
type Processor struct {
	cache   *cache.Cache
	decoder *cache.Decoder

	instructions uint64
}

// NewProcessor creates a processor backed by c.
func NewProcessor(c *cache.Cache) *Processor {
	return &Processor{
		cache:   c,
		decoder: c.Decoder(),
	}
}

// Cache returns the cache the processor accesses.
func (p *Processor) Cache() *cache.Cache {
	return p.cache
}

// InstructionCount returns the number of instructions executed.
func (p *Processor) InstructionCount() uint64 {
	return p.instructions
}

// Load reads the word at addr. The error wraps cache.ErrUninitializedRead if
// the address was never stored to.
func (p *Processor) Load(addr uint32) (float64, error) {
	p.instructions++
	return p.cache.GetVal(p.decoder.Decode(addr))
}

// Store writes value at addr.
func (p *Processor) Store(addr uint32, value float64) {
	p.instructions++
	p.cache.SetVal(p.decoder.Decode(addr), value)
}
