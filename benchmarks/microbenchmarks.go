package benchmarks

import "github.com/sarchlab/cachesim/config"

func newConfig(
	cacheSize, blockSize, ways int,
	policy string,
	algorithm config.Algorithm,
	dimension, factor int,
) *config.Config {
	cfg := config.Default()
	cfg.CacheSize = cacheSize
	cfg.BlockSize = blockSize
	cfg.Associativity = ways
	cfg.Replacement = policy
	cfg.Algorithm = string(algorithm)
	cfg.Dimension = dimension
	cfg.Factor = factor
	return cfg
}

// GetMicrobenchmarks returns the standard set of cache experiments. Each one
// isolates a single effect: mapping conflicts, associativity, replacement
// policy or blocking.
func GetMicrobenchmarks() []Benchmark {
	return []Benchmark{
		conflictThrash(),
		conflictAssociative(),
		streamingDaxpy(),
		mxmPolicy("LRU"),
		mxmPolicy("FIFO"),
		mxmPolicy("random"),
		mxmBlocked(),
	}
}

// GetCoreBenchmarks returns a small, fast subset for quick validation.
func GetCoreBenchmarks() []Benchmark {
	return []Benchmark{
		conflictThrash(),
		conflictAssociative(),
		mxmBlocked(),
	}
}

// conflictThrash sizes the vectors so that a[i], b[i] and c[i] share a set of
// a direct-mapped cache.
func conflictThrash() Benchmark {
	return Benchmark{
		Name:        "conflict_thrash",
		Description: "daxpy with a, b and c aliasing one set of a direct-mapped cache",
		Config:      newConfig(512, 64, 1, "LRU", config.AlgorithmDaxpy, 64, 0),
	}
}

// conflictAssociative is conflictThrash with enough ways to hold all three
// operands at once.
func conflictAssociative() Benchmark {
	return Benchmark{
		Name:        "conflict_associative",
		Description: "the conflict_thrash layout on a 4-way cache of the same size",
		Config:      newConfig(512, 64, 4, "LRU", config.AlgorithmDaxpy, 64, 0),
	}
}

func streamingDaxpy() Benchmark {
	return Benchmark{
		Name:        "streaming_daxpy",
		Description: "daxpy over vectors much larger than the cache; one miss per block",
		Config:      newConfig(4096, 64, 2, "LRU", config.AlgorithmDaxpy, 4096, 0),
	}
}

func mxmPolicy(policy string) Benchmark {
	return Benchmark{
		Name:        "mxm_" + policy,
		Description: "unblocked 32x32 matrix multiply on a 4 KB 4-way cache with " + policy + " replacement",
		Config:      newConfig(4096, 64, 4, policy, config.AlgorithmMxM, 32, 0),
	}
}

func mxmBlocked() Benchmark {
	return Benchmark{
		Name:        "mxm_block",
		Description: "32x32 matrix multiply in 8x8 tiles on a 4 KB 4-way LRU cache",
		Config:      newConfig(4096, 64, 4, "LRU", config.AlgorithmMxMBlock, 32, 8),
	}
}
