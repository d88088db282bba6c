// Package benchmarks provides a harness for running named cache experiments
// and comparing their results.
package benchmarks

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"go.uber.org/zap"

	"github.com/sarchlab/cachesim/config"
	"github.com/sarchlab/cachesim/report"
	"github.com/sarchlab/cachesim/workloads"
)

// BenchmarkResult holds the results for a single benchmark run.
type BenchmarkResult struct {
	// Name identifies the benchmark
	Name string `json:"name"`

	// Description explains what the benchmark measures
	Description string `json:"description"`

	report.Result

	WallTime time.Duration `json:"wall_time_ns"`
}

// Benchmark is one cache experiment: a configuration and what it shows.
type Benchmark struct {
	Name string

	Description string

	Config *config.Config
}

// HarnessConfig holds configuration for the benchmark harness.
type HarnessConfig struct {
	// Output is where results are written.
	Output io.Writer

	// Logger receives run lifecycle messages.
	Logger *zap.Logger

	// Options are passed to every run, e.g. hooks.
	Options []workloads.Option
}

// DefaultConfig returns a harness configuration writing to stdout.
func DefaultConfig() HarnessConfig {
	return HarnessConfig{
		Output: os.Stdout,
		Logger: zap.NewNop(),
	}
}

// Harness runs benchmarks and collects results.
type Harness struct {
	config     HarnessConfig
	benchmarks []Benchmark
}

// NewHarness creates a new benchmark harness.
func NewHarness(config HarnessConfig) *Harness {
	if config.Output == nil {
		config.Output = os.Stdout
	}
	if config.Logger == nil {
		config.Logger = zap.NewNop()
	}
	return &Harness{
		config:     config,
		benchmarks: []Benchmark{},
	}
}

// AddBenchmark adds a benchmark to the harness.
func (h *Harness) AddBenchmark(b Benchmark) {
	h.benchmarks = append(h.benchmarks, b)
}

// AddBenchmarks adds multiple benchmarks to the harness.
func (h *Harness) AddBenchmarks(benchmarks []Benchmark) {
	h.benchmarks = append(h.benchmarks, benchmarks...)
}

// Benchmarks returns the registered benchmarks.
func (h *Harness) Benchmarks() []Benchmark {
	return h.benchmarks
}

// RunAll runs every benchmark in the order they were added. It stops at the
// first failure.
func (h *Harness) RunAll(ctx context.Context) ([]BenchmarkResult, error) {
	results := make([]BenchmarkResult, 0, len(h.benchmarks))

	for _, bench := range h.benchmarks {
		result, err := h.runBenchmark(ctx, bench)
		if err != nil {
			return results, fmt.Errorf("benchmark %s: %w", bench.Name, err)
		}
		results = append(results, result)
	}

	return results, nil
}

func (h *Harness) runBenchmark(ctx context.Context, bench Benchmark) (BenchmarkResult, error) {
	opts := append([]workloads.Option{
		workloads.WithLogger(h.config.Logger.With(zap.String("benchmark", bench.Name))),
	}, h.config.Options...)

	start := time.Now()
	r, err := workloads.Run(ctx, bench.Config, opts...)
	wallTime := time.Since(start)
	if err != nil {
		return BenchmarkResult{}, err
	}

	return BenchmarkResult{
		Name:        bench.Name,
		Description: bench.Description,
		Result:      r,
		WallTime:    wallTime,
	}, nil
}

// PrintResults writes a human-readable summary.
func (h *Harness) PrintResults(results []BenchmarkResult) {
	w := h.config.Output

	_, _ = fmt.Fprintln(w, "=== cachesim Benchmark Results ===")
	_, _ = fmt.Fprintln(w, "")

	for _, r := range results {
		in := r.Inputs

		_, _ = fmt.Fprintf(w, "Benchmark: %s\n", r.Name)
		_, _ = fmt.Fprintf(w, "  Description: %s\n", r.Description)
		_, _ = fmt.Fprintf(w, "  Cache: %d B, %d B blocks, %d-way, %s\n",
			in.CacheSize, in.BlockSize, in.Associativity, in.Replacement)
		_, _ = fmt.Fprintf(w, "  Workload: %s, dimension %d\n", in.Algorithm, in.Dimension)
		_, _ = fmt.Fprintln(w, "  --- Results ---")
		_, _ = fmt.Fprintf(w, "  Instructions:    %d\n", r.Instructions)
		_, _ = fmt.Fprintf(w, "  Read Misses:     %d / %d\n", r.Stats.ReadMisses, r.Stats.Reads())
		_, _ = fmt.Fprintf(w, "  Write Misses:    %d / %d\n", r.Stats.WriteMisses, r.Stats.Writes())
		if r.Stats.Evictions > 0 {
			_, _ = fmt.Fprintf(w, "  Evictions:       %d\n", r.Stats.Evictions)
		}
		if rate, ok := r.ReadMissRate(); ok {
			_, _ = fmt.Fprintf(w, "  Read Miss Rate:  %.2f%%\n", rate)
		}
		if rate, ok := r.WriteMissRate(); ok {
			_, _ = fmt.Fprintf(w, "  Write Miss Rate: %.2f%%\n", rate)
		}
		_, _ = fmt.Fprintf(w, "  Wall Time: %v\n", r.WallTime)
		_, _ = fmt.Fprintln(w, "")
	}
}
