package main

import (
	"fmt"
	"io"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sarchlab/cachesim/report"
	"github.com/sarchlab/cachesim/stats"
	statslogger "github.com/sarchlab/cachesim/stats/logger"
	promstats "github.com/sarchlab/cachesim/stats/prometheus"
	"github.com/sarchlab/cachesim/tracing"
	"github.com/sarchlab/cachesim/workloads"
)

type runFlags struct {
	cacheFlags

	trace   string
	metrics bool
}

func newRunCmd(g *globalFlags) *cobra.Command {
	f := &runFlags{}

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Simulate one cache configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSingle(cmd, g, f)
		},
	}

	f.bindGeometry(cmd)
	f.bindWorkload(cmd)
	cmd.Flags().StringVar(&f.trace, "trace", "",
		"write every cache access to this CSV file (\".csv\" is appended)")
	cmd.Flags().BoolVar(&f.metrics, "metrics", false,
		"print Prometheus metrics after the report")

	return cmd
}

func runSingle(cmd *cobra.Command, g *globalFlags, f *runFlags) error {
	cfg, err := g.loadConfig()
	if err != nil {
		return err
	}
	f.apply(cmd, cfg)

	if err := cfg.Validate(); err != nil {
		return err
	}

	opts := []workloads.Option{workloads.WithLogger(g.logger)}

	if f.trace != "" {
		writer := tracing.NewCSVTraceWriter(f.trace)
		if err := writer.Init(); err != nil {
			return fmt.Errorf("creating trace: %w", err)
		}
		defer func() { _ = writer.Close() }()

		g.logger.Info("tracing cache accesses", zap.String("path", writer.Path()))
		opts = append(opts, workloads.WithHook(writer))
	}

	m := newMetrics(g, f.metrics)
	if m != nil {
		opts = append(opts, workloads.WithHook(stats.NewRunHook(m.collector)))
	}

	result, err := workloads.Run(cmd.Context(), cfg, opts...)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if err := printResults(out, g.format, []report.Result{result}); err != nil {
		return err
	}

	return m.write(out, result)
}

func printResults(w io.Writer, format string, results []report.Result) error {
	switch format {
	case "text":
		report.PrintText(w, results...)
	case "csv":
		report.PrintCSV(w, results)
	case "json":
		return report.PrintJSON(w, results)
	default:
		return fmt.Errorf("unknown output format %q", format)
	}
	return nil
}

// metrics bundles a private registry with the collectors that feed it.
type metrics struct {
	registry  *prometheus.Registry
	collector stats.Collector
}

// newMetrics returns nil when metrics are disabled. In verbose mode every
// metric is also logged.
func newMetrics(g *globalFlags, enabled bool) *metrics {
	if !enabled {
		return nil
	}

	registry := prometheus.NewRegistry()
	var collector stats.Collector = promstats.New(registry)
	if g.verbose {
		collector = stats.Multi{collector, statslogger.New(g.logger)}
	}

	return &metrics{registry: registry, collector: collector}
}

func (m *metrics) write(w io.Writer, results ...report.Result) error {
	if m == nil {
		return nil
	}

	for _, r := range results {
		stats.Record(m.collector, r)
	}

	return promstats.WriteText(w, m.registry)
}
