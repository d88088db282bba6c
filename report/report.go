// Package report formats the inputs and results of simulation runs.
package report

import (
	"encoding/json"
	"fmt"
	"io"
	"math"

	"github.com/sarchlab/cachesim/config"
	"github.com/sarchlab/cachesim/timing/cache"
)

// Inputs echoes the configuration of a run.
type Inputs struct {
	RunID         string `json:"run_id"`
	RAMSize       int    `json:"ram_size"`
	CacheSize     int    `json:"cache_size"`
	BlockSize     int    `json:"block_size"`
	TotalBlocks   int    `json:"total_blocks"`
	Associativity int    `json:"associativity"`
	NumSets       int    `json:"num_sets"`
	Replacement   string `json:"replacement"`
	Algorithm     string `json:"algorithm"`
	Dimension     int    `json:"dimension"`
	// Factor is only meaningful for mxm_block.
	Factor int `json:"factor,omitempty"`
}

// NewInputs derives the echoed inputs from a configuration.
func NewInputs(runID string, cfg *config.Config) Inputs {
	in := Inputs{
		RunID:         runID,
		RAMSize:       cfg.RAMSize(),
		CacheSize:     cfg.CacheSize,
		BlockSize:     cfg.BlockSize,
		TotalBlocks:   cfg.NumBlocks(),
		Associativity: cfg.Associativity,
		NumSets:       cfg.NumSets(),
		Replacement:   cfg.Replacement,
		Algorithm:     cfg.Algorithm,
		Dimension:     cfg.Dimension,
	}
	if a, err := config.ParseAlgorithm(cfg.Algorithm); err == nil && a == config.AlgorithmMxMBlock {
		in.Factor = cfg.Factor
	}
	return in
}

// Result holds the outcome of one run.
type Result struct {
	Inputs       Inputs           `json:"inputs"`
	Instructions uint64           `json:"instructions"`
	Stats        cache.Statistics `json:"stats"`
	// Output is the result read back through the cache, one row per vector
	// or matrix row. Empty unless the run asked for it.
	Output [][]float64 `json:"output,omitempty"`
}

// MissRate returns misses as a percentage of total rounded to two decimals.
// ok is false when total is zero.
func MissRate(misses, total uint64) (rate float64, ok bool) {
	if total == 0 {
		return 0, false
	}
	return math.Round(float64(misses)/float64(total)*100*100) / 100, true
}

// ReadMissRate returns the read miss rate in percent.
func (r Result) ReadMissRate() (float64, bool) {
	return MissRate(r.Stats.ReadMisses, r.Stats.Reads())
}

// WriteMissRate returns the write miss rate in percent.
func (r Result) WriteMissRate() (float64, bool) {
	return MissRate(r.Stats.WriteMisses, r.Stats.Writes())
}

func formatRate(rate float64, ok bool) string {
	if !ok {
		return "n/a"
	}
	return fmt.Sprintf("%g%%", rate)
}

// PrintText writes results in the INPUTS / RESULTS layout.
func PrintText(w io.Writer, results ...Result) {
	for _, r := range results {
		in := r.Inputs

		_, _ = fmt.Fprintln(w, "------------------INPUTS------------------")
		_, _ = fmt.Fprintf(w, "Run ID = %s\n", in.RunID)
		_, _ = fmt.Fprintf(w, "Ram Size = %d\n", in.RAMSize)
		_, _ = fmt.Fprintf(w, "Cache Size = %d\n", in.CacheSize)
		_, _ = fmt.Fprintf(w, "Block Size = %d\n", in.BlockSize)
		_, _ = fmt.Fprintf(w, "Total Blocks in Cache = %d\n", in.TotalBlocks)
		_, _ = fmt.Fprintf(w, "Associativity = %d\n", in.Associativity)
		_, _ = fmt.Fprintf(w, "Number of Sets = %d\n", in.NumSets)
		_, _ = fmt.Fprintf(w, "Replacement Policy = %s\n", in.Replacement)
		_, _ = fmt.Fprintf(w, "Algorithm = %s\n", in.Algorithm)
		_, _ = fmt.Fprintf(w, "Matrix or Vector Dimension = %d\n", in.Dimension)
		if in.Factor > 0 {
			_, _ = fmt.Fprintf(w, "MXM Blocking Factor = %d\n", in.Factor)
		}

		_, _ = fmt.Fprintln(w, "-----------------RESULTS------------------")
		_, _ = fmt.Fprintf(w, "Instruction Count = %d\n", r.Instructions)
		_, _ = fmt.Fprintf(w, "Read Hits = %d\n", r.Stats.ReadHits)
		_, _ = fmt.Fprintf(w, "Read Misses = %d\n", r.Stats.ReadMisses)
		_, _ = fmt.Fprintf(w, "Read Miss Rate = %s\n", formatRate(r.ReadMissRate()))
		_, _ = fmt.Fprintf(w, "Write Hits = %d\n", r.Stats.WriteHits)
		_, _ = fmt.Fprintf(w, "Write Misses = %d\n", r.Stats.WriteMisses)
		_, _ = fmt.Fprintf(w, "Write Miss Rate = %s\n", formatRate(r.WriteMissRate()))

		for _, row := range r.Output {
			_, _ = fmt.Fprintln(w, row)
		}
	}
}

// PrintCSV writes one line per result for spreadsheet comparison.
func PrintCSV(w io.Writer, results []Result) {
	_, _ = fmt.Fprintln(w,
		"run_id,cache_size,block_size,associativity,num_sets,replacement,algorithm,dimension,factor,instructions,read_hits,read_misses,read_miss_rate,write_hits,write_misses,write_miss_rate,evictions")

	for _, r := range results {
		in := r.Inputs
		_, _ = fmt.Fprintf(w, "%s,%d,%d,%d,%d,%s,%s,%d,%d,%d,%d,%d,%s,%d,%d,%s,%d\n",
			in.RunID,
			in.CacheSize,
			in.BlockSize,
			in.Associativity,
			in.NumSets,
			in.Replacement,
			in.Algorithm,
			in.Dimension,
			in.Factor,
			r.Instructions,
			r.Stats.ReadHits,
			r.Stats.ReadMisses,
			csvRate(r.ReadMissRate()),
			r.Stats.WriteHits,
			r.Stats.WriteMisses,
			csvRate(r.WriteMissRate()),
			r.Stats.Evictions,
		)
	}
}

func csvRate(rate float64, ok bool) string {
	if !ok {
		return ""
	}
	return fmt.Sprintf("%.2f", rate)
}

// PrintJSON writes the results as an indented JSON array.
func PrintJSON(w io.Writer, results []Result) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(results); err != nil {
		return fmt.Errorf("failed to encode results: %w", err)
	}
	return nil
}
