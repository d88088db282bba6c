package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sarchlab/cachesim/benchmarks"
	"github.com/sarchlab/cachesim/report"
)

func newBenchCmd(g *globalFlags) *cobra.Command {
	var core bool

	cmd := &cobra.Command{
		Use:   "bench",
		Short: "Run the built-in cache experiments",
		Long: `Bench runs a fixed set of experiments, each isolating one cache effect:
mapping conflicts, associativity, replacement policy and blocking.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()

			harness := benchmarks.NewHarness(benchmarks.HarnessConfig{
				Output: out,
				Logger: g.logger,
			})
			if core {
				harness.AddBenchmarks(benchmarks.GetCoreBenchmarks())
			} else {
				harness.AddBenchmarks(benchmarks.GetMicrobenchmarks())
			}

			results, err := harness.RunAll(cmd.Context())
			if err != nil {
				return err
			}

			switch g.format {
			case "json":
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				if err := enc.Encode(results); err != nil {
					return fmt.Errorf("failed to encode results: %w", err)
				}
			case "csv":
				plain := make([]report.Result, len(results))
				for i, r := range results {
					plain[i] = r.Result
					plain[i].Inputs.RunID = r.Name
				}
				report.PrintCSV(out, plain)
			default:
				harness.PrintResults(results)
			}

			return nil
		},
	}

	cmd.Flags().BoolVar(&core, "core", false, "run only the quick core subset")

	return cmd
}
