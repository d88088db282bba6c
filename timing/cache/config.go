package cache

import (
	"fmt"
	"strings"
)

// Policy names the replacement policy used when a set is full.
type Policy string

// Supported replacement policies. The spellings match the command line.
const (
	PolicyRandom Policy = "random"
	PolicyFIFO   Policy = "FIFO"
	PolicyLRU    Policy = "LRU"
)

// Policies lists every supported policy.
func Policies() []Policy {
	return []Policy{PolicyRandom, PolicyFIFO, PolicyLRU}
}

// ParsePolicy converts a policy name, ignoring case.
func ParsePolicy(name string) (Policy, error) {
	for _, p := range Policies() {
		if strings.EqualFold(name, string(p)) {
			return p, nil
		}
	}
	return "", fmt.Errorf("%w: unknown replacement policy %q", ErrConfiguration, name)
}

// Config holds cache configuration parameters.
type Config struct {
	// Size in bytes
	Size int
	// BlockSize in bytes (cache line size)
	BlockSize int
	// Associativity is the number of ways per set. 1 is direct mapped and
	// NumBlocks() is fully associative.
	Associativity int
	// Policy selects the victim when a set is full.
	Policy Policy
	// Seed feeds the random policy so runs are reproducible.
	Seed uint64
}

// DefaultConfig returns the configuration the command line starts from:
// 64KB, 64B blocks, 2-way, LRU.
func DefaultConfig() Config {
	return Config{
		Size:          64 * 1024,
		BlockSize:     64,
		Associativity: 2,
		Policy:        PolicyLRU,
		Seed:          1,
	}
}

// NumBlocks returns the total number of blocks the cache holds.
func (c Config) NumBlocks() int {
	if c.BlockSize <= 0 {
		return 0
	}
	return c.Size / c.BlockSize
}

// NumSets returns the number of sets.
func (c Config) NumSets() int {
	if c.Associativity <= 0 {
		return 0
	}
	return c.NumBlocks() / c.Associativity
}

// Validate checks that the geometry can be simulated.
func (c Config) Validate() error {
	if !isPowerOfTwo(c.Size) {
		return fmt.Errorf("%w: cache size %d is not a positive power of two",
			ErrConfiguration, c.Size)
	}
	if !isPowerOfTwo(c.BlockSize) {
		return fmt.Errorf("%w: block size %d is not a positive power of two",
			ErrConfiguration, c.BlockSize)
	}
	if c.BlockSize < WordSize {
		return fmt.Errorf("%w: block size %d is smaller than a %d-byte word",
			ErrConfiguration, c.BlockSize, WordSize)
	}
	if c.Size < c.BlockSize {
		return fmt.Errorf("%w: cache size %d is smaller than block size %d",
			ErrConfiguration, c.Size, c.BlockSize)
	}
	if !isPowerOfTwo(c.Associativity) || c.NumBlocks()%c.Associativity != 0 {
		return fmt.Errorf("%w: associativity %d does not divide %d blocks",
			ErrConfiguration, c.Associativity, c.NumBlocks())
	}
	if _, err := ParsePolicy(string(c.Policy)); err != nil {
		return err
	}
	return nil
}
