// Package config holds the configuration of one simulation run.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os"
	"strings"

	"github.com/sarchlab/cachesim/timing/cache"
)

// Algorithm names the workload a run replays.
type Algorithm string

// Supported workloads.
const (
	AlgorithmDaxpy    Algorithm = "daxpy"
	AlgorithmMxM      Algorithm = "mxm"
	AlgorithmMxMBlock Algorithm = "mxm_block"
)

// Algorithms lists every supported workload.
func Algorithms() []Algorithm {
	return []Algorithm{AlgorithmDaxpy, AlgorithmMxM, AlgorithmMxMBlock}
}

// ParseAlgorithm converts a workload name.
func ParseAlgorithm(name string) (Algorithm, error) {
	for _, a := range Algorithms() {
		if strings.EqualFold(name, string(a)) {
			return a, nil
		}
	}
	return "", fmt.Errorf("%w: unknown algorithm %q", cache.ErrConfiguration, name)
}

// IsMatrix reports whether the workload operates on n×n matrices.
func (a Algorithm) IsMatrix() bool {
	return a == AlgorithmMxM || a == AlgorithmMxMBlock
}

// Config holds the cache geometry and the workload of one run.
type Config struct {
	// CacheSize is the cache capacity in bytes. Default: 65536.
	CacheSize int `json:"cache_size"`

	// BlockSize is the size of a block in bytes. Default: 64.
	BlockSize int `json:"block_size"`

	// Associativity is the number of ways per set. 1 is direct mapped.
	// Default: 2.
	Associativity int `json:"associativity"`

	// Replacement is the replacement policy: random, FIFO or LRU.
	// Default: LRU.
	Replacement string `json:"replacement"`

	// Algorithm is the workload: daxpy, mxm or mxm_block.
	// Default: mxm_block.
	Algorithm string `json:"algorithm"`

	// Dimension is the vector length or matrix dimension. Default: 480.
	Dimension int `json:"dimension"`

	// Factor is the blocking factor of mxm_block. Default: 32.
	Factor int `json:"factor"`

	// Seed feeds the random replacement policy. Default: 1.
	Seed uint64 `json:"seed"`

	// Print reads the result back through the cache after the run.
	Print bool `json:"print"`
}

// Default returns the configuration the command line starts from.
func Default() *Config {
	return &Config{
		CacheSize:     65536,
		BlockSize:     64,
		Associativity: 2,
		Replacement:   string(cache.PolicyLRU),
		Algorithm:     string(AlgorithmMxMBlock),
		Dimension:     480,
		Factor:        32,
		Seed:          1,
	}
}

// Load loads a Config from a JSON file. Fields missing from the file keep
// their default values.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := Default()
	if err := json.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	return config, nil
}

// Save writes the Config to a JSON file.
func (c *Config) Save(path string) error {
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to serialize config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// Validate checks the cache geometry and the workload parameters. Every
// failure wraps cache.ErrConfiguration.
func (c *Config) Validate() error {
	var errs []error

	if _, err := c.CacheConfig(); err != nil {
		errs = append(errs, err)
	}

	algorithm, err := ParseAlgorithm(c.Algorithm)
	if err != nil {
		errs = append(errs, err)
	}

	if c.Dimension < 1 {
		errs = append(errs, fmt.Errorf("%w: dimension must be > 0", cache.ErrConfiguration))
	}

	if algorithm == AlgorithmMxMBlock {
		switch {
		case c.Factor < 1:
			errs = append(errs, fmt.Errorf("%w: blocking factor must be > 0", cache.ErrConfiguration))
		case c.Dimension >= 1 && c.Dimension%c.Factor != 0:
			errs = append(errs, fmt.Errorf("%w: blocking factor %d does not divide dimension %d",
				cache.ErrConfiguration, c.Factor, c.Dimension))
		}
	}

	if size := c.ramBytes(); size > 1<<cache.AddressBits {
		errs = append(errs, fmt.Errorf("%w: %d bytes of operands exceed the 32-bit address space",
			cache.ErrConfiguration, size))
	}

	return errors.Join(errs...)
}

// CacheConfig converts the geometry into a cache.Config and validates it.
func (c *Config) CacheConfig() (cache.Config, error) {
	policy, err := cache.ParsePolicy(c.Replacement)
	if err != nil {
		return cache.Config{}, err
	}

	cc := cache.Config{
		Size:          c.CacheSize,
		BlockSize:     c.BlockSize,
		Associativity: c.Associativity,
		Policy:        policy,
		Seed:          c.Seed,
	}
	if err := cc.Validate(); err != nil {
		return cache.Config{}, err
	}

	return cc, nil
}

// NumBlocks returns the number of blocks in the cache.
func (c *Config) NumBlocks() int {
	if c.BlockSize <= 0 {
		return 0
	}
	return c.CacheSize / c.BlockSize
}

// NumSets returns the number of sets in the cache.
func (c *Config) NumSets() int {
	if c.Associativity <= 0 {
		return 0
	}
	return c.NumBlocks() / c.Associativity
}

// RAMSize returns the bytes of memory the workload's operands occupy: three
// vectors of Dimension words, or three Dimension×Dimension matrices. Sizes
// that do not fit an int saturate at math.MaxInt.
func (c *Config) RAMSize() int {
	return clampInt(c.ramBytes())
}

// RAMBlocks returns the number of blocks needed to hold RAMSize bytes.
func (c *Config) RAMBlocks() int {
	if c.BlockSize <= 0 {
		return 0
	}
	size, block := c.ramBytes(), uint64(c.BlockSize)
	return clampInt(size/block + min(size%block, 1))
}

// ramBytes sizes the operands in uint64. Anything past the address space is
// reported as just past it, so the product never wraps.
func (c *Config) ramBytes() uint64 {
	if c.Dimension < 1 {
		return 0
	}

	const limit = uint64(1) << cache.AddressBits
	d := uint64(c.Dimension)
	if d > limit {
		return limit + 1
	}

	size := cache.WordSize * 3 * d
	if a, err := ParseAlgorithm(c.Algorithm); err == nil && a.IsMatrix() {
		if size > limit {
			return limit + 1
		}
		size *= d
	}
	return size
}

func clampInt(v uint64) int {
	if v > math.MaxInt {
		return math.MaxInt
	}
	return int(v)
}

// Clone returns a deep copy of the Config.
func (c *Config) Clone() *Config {
	clone := *c
	return &clone
}
