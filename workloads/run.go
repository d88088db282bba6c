// Package workloads replays the daxpy and matrix-multiply kernels against a
// simulated cache and collects the resulting statistics.
package workloads

import (
	"context"
	"fmt"

	"github.com/rs/xid"
	"github.com/sarchlab/akita/v4/sim"
	"go.uber.org/zap"

	"github.com/sarchlab/cachesim/config"
	"github.com/sarchlab/cachesim/emu"
	"github.com/sarchlab/cachesim/report"
	"github.com/sarchlab/cachesim/timing/cache"
)

// Option configures a run.
type Option func(*runOptions)

type runOptions struct {
	logger *zap.Logger
	hooks  []sim.Hook
}

// WithLogger sets the logger used for run lifecycle messages.
func WithLogger(logger *zap.Logger) Option {
	return func(o *runOptions) {
		o.logger = logger
	}
}

// WithHook attaches a hook to the cache of every run. A hook shared by a
// Sweep is invoked from several goroutines.
func WithHook(hook sim.Hook) Option {
	return func(o *runOptions) {
		o.hooks = append(o.hooks, hook)
	}
}

// Execute runs one workload on p.
func Execute(
	p *emu.Processor,
	algorithm config.Algorithm,
	n, factor int,
	readBack bool,
) ([][]float64, error) {
	switch algorithm {
	case config.AlgorithmDaxpy:
		return Daxpy(p, n, readBack)
	case config.AlgorithmMxM:
		return MxM(p, n, readBack)
	case config.AlgorithmMxMBlock:
		return MxMBlock(p, n, factor, readBack)
	default:
		return nil, fmt.Errorf("unknown algorithm %q", algorithm)
	}
}

// Run builds memory, cache and processor for cfg, replays the configured
// workload and returns the report.
func Run(ctx context.Context, cfg *config.Config, opts ...Option) (report.Result, error) {
	o := runOptions{logger: zap.NewNop()}
	for _, opt := range opts {
		opt(&o)
	}

	if err := ctx.Err(); err != nil {
		return report.Result{}, err
	}

	if err := cfg.Validate(); err != nil {
		return report.Result{}, err
	}

	cacheConfig, err := cfg.CacheConfig()
	if err != nil {
		return report.Result{}, err
	}

	algorithm, err := config.ParseAlgorithm(cfg.Algorithm)
	if err != nil {
		return report.Result{}, err
	}

	memory := cache.NewMemory(cfg.RAMBlocks(), cfg.BlockSize)
	c, err := cache.New(cacheConfig, memory)
	if err != nil {
		return report.Result{}, err
	}
	for _, h := range o.hooks {
		c.AcceptHook(h)
	}

	runID := xid.New().String()
	logger := o.logger.With(zap.String("run_id", runID))
	logger.Debug("starting run",
		zap.String("algorithm", string(algorithm)),
		zap.Int("dimension", cfg.Dimension),
		zap.Int("cache_size", cfg.CacheSize),
		zap.Int("block_size", cfg.BlockSize),
		zap.Int("associativity", cfg.Associativity),
		zap.String("replacement", cfg.Replacement),
	)

	p := emu.NewProcessor(c)

	output, err := Execute(p, algorithm, cfg.Dimension, cfg.Factor, cfg.Print)
	if err != nil {
		logger.Error("run failed", zap.Error(err))
		return report.Result{}, err
	}

	stats := c.Stats()
	logger.Debug("finished run",
		zap.Uint64("instructions", p.InstructionCount()),
		zap.Uint64("read_misses", stats.ReadMisses),
		zap.Uint64("write_misses", stats.WriteMisses),
		zap.Uint64("evictions", stats.Evictions),
	)

	return report.Result{
		Inputs:       report.NewInputs(runID, cfg),
		Instructions: p.InstructionCount(),
		Stats:        stats,
		Output:       output,
	}, nil
}
