package main

import (
	"runtime"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sarchlab/cachesim/stats"
	"github.com/sarchlab/cachesim/workloads"
)

type sweepFlags struct {
	cacheFlags

	cacheSizes []int
	blockSizes []int
	nways      []int
	policies   []string
	parallel   int
	metrics    bool
}

func newSweepCmd(g *globalFlags) *cobra.Command {
	f := &sweepFlags{}

	cmd := &cobra.Command{
		Use:   "sweep",
		Short: "Simulate every combination of cache parameters for one workload",
		Long: `Sweep runs one workload against the cartesian product of the given cache
sizes, block sizes, associativities and replacement policies. Dimensions left
empty keep the value from the configuration file or the defaults.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSweep(cmd, g, f)
		},
	}

	f.bindWorkload(cmd)
	cmd.Flags().IntSliceVar(&f.cacheSizes, "cachesizes", nil, "cache sizes in bytes")
	cmd.Flags().IntSliceVar(&f.blockSizes, "blocksizes", nil, "block sizes in bytes")
	cmd.Flags().IntSliceVar(&f.nways, "nways", nil, "associativities")
	cmd.Flags().StringSliceVar(&f.policies, "policies", nil, "replacement policies")
	cmd.Flags().IntVar(&f.parallel, "parallel", runtime.NumCPU(), "maximum concurrent runs")
	cmd.Flags().BoolVar(&f.metrics, "metrics", false, "print Prometheus metrics after the report")

	return cmd
}

func runSweep(cmd *cobra.Command, g *globalFlags, f *sweepFlags) error {
	base, err := g.loadConfig()
	if err != nil {
		return err
	}
	f.apply(cmd, base)

	cfgs := workloads.Grid(base, f.cacheSizes, f.blockSizes, f.nways, f.policies)
	g.logger.Info("starting sweep",
		zap.Int("configurations", len(cfgs)),
		zap.Int("parallel", f.parallel),
	)

	opts := []workloads.Option{workloads.WithLogger(g.logger)}

	m := newMetrics(g, f.metrics)
	if m != nil {
		opts = append(opts, workloads.WithHook(stats.NewHook(m.collector)))
	}

	results, err := workloads.Sweep(cmd.Context(), cfgs, f.parallel, opts...)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if err := printResults(out, g.format, results); err != nil {
		return err
	}

	return m.write(out, results...)
}
