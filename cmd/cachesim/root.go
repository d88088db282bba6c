package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sarchlab/cachesim/config"
)

// envConfig names the environment variable holding the default config file.
const envConfig = "CACHESIM_CONFIG"

type globalFlags struct {
	configPath string
	format     string
	verbose    bool
	profile    profiler

	logger *zap.Logger
}

func newRootCmd() *cobra.Command {
	g := &globalFlags{}

	cmd := &cobra.Command{
		Use:   "cachesim",
		Short: "Set-associative cache simulator",
		Long: `cachesim replays a numeric kernel (daxpy, mxm or blocked mxm) against a
simulated write-through cache and reports instruction counts, hits and misses.

Examples:
  # Blocked matrix multiply on a 64 KB 2-way LRU cache
  cachesim run -c 65536 -b 64 -n 2 -r LRU -a mxm_block -d 480 -f 32

  # Compare replacement policies for daxpy
  cachesim sweep -a daxpy -d 1000 --policies random,FIFO,LRU --format csv

  # Print the default configuration
  cachesim config

  # Run the built-in experiments
  cachesim bench --core`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			switch g.format {
			case "text", "csv", "json":
			default:
				return fmt.Errorf("unknown output format %q", g.format)
			}

			logger, err := newLogger(g.verbose)
			if err != nil {
				return err
			}
			g.logger = logger

			return g.profile.start()
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			g.profile.stop(g.logger)
			_ = g.logger.Sync()
		},
	}

	cmd.PersistentFlags().StringVar(&g.configPath, "config", "",
		"JSON configuration file (default $"+envConfig+")")
	cmd.PersistentFlags().StringVar(&g.format, "format", "text", "output format: text, csv or json")
	cmd.PersistentFlags().BoolVarP(&g.verbose, "verbose", "v", false, "enable verbose logging")
	cmd.PersistentFlags().StringVar(&g.profile.cpuPath, "cpuprofile", "", "write a CPU profile to this file")
	cmd.PersistentFlags().StringVar(&g.profile.memPath, "memprofile", "", "write a heap profile to this file")

	cmd.AddCommand(newRunCmd(g))
	cmd.AddCommand(newSweepCmd(g))
	cmd.AddCommand(newConfigCmd(g))
	cmd.AddCommand(newBenchCmd(g))

	return cmd
}

// newLogger returns a development logger in verbose mode and a production
// logger that only reports warnings and errors otherwise.
func newLogger(verbose bool) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(zap.WarnLevel)
	if verbose {
		cfg = zap.NewDevelopmentConfig()
	}

	logger, err := cfg.Build()
	if err != nil {
		return nil, fmt.Errorf("creating logger: %w", err)
	}
	return logger, nil
}

// loadConfig reads --config, falling back to $CACHESIM_CONFIG and then to
// the defaults.
func (g *globalFlags) loadConfig() (*config.Config, error) {
	path := g.configPath
	if path == "" {
		path = os.Getenv(envConfig)
	}
	if path == "" {
		return config.Default(), nil
	}

	g.logger.Debug("loading configuration", zap.String("path", path))
	return config.Load(path)
}

// cacheFlags are the geometry and workload flags shared by run and sweep.
type cacheFlags struct {
	cacheSize   int
	blockSize   int
	nway        int
	replacement string
	algorithm   string
	dimension   int
	factor      int
	print       bool
	seed        uint64
}

func (f *cacheFlags) bindGeometry(cmd *cobra.Command) {
	d := config.Default()
	cmd.Flags().IntVarP(&f.cacheSize, "cachesize", "c", d.CacheSize, "cache size in bytes")
	cmd.Flags().IntVarP(&f.blockSize, "blocksize", "b", d.BlockSize, "block size in bytes")
	cmd.Flags().IntVarP(&f.nway, "nway", "n", d.Associativity, "associativity (ways per set)")
	cmd.Flags().StringVarP(&f.replacement, "replacement", "r", d.Replacement,
		"replacement policy: random, FIFO or LRU")
}

func (f *cacheFlags) bindWorkload(cmd *cobra.Command) {
	d := config.Default()
	cmd.Flags().StringVarP(&f.algorithm, "algorithm", "a", d.Algorithm,
		"algorithm: daxpy, mxm or mxm_block")
	cmd.Flags().IntVarP(&f.dimension, "dimension", "d", d.Dimension, "vector length or matrix dimension")
	cmd.Flags().IntVarP(&f.factor, "factor", "f", d.Factor, "blocking factor for mxm_block")
	cmd.Flags().BoolVarP(&f.print, "print", "p", false, "print the result vector or matrix")
	cmd.Flags().Uint64Var(&f.seed, "seed", d.Seed, "seed for the random replacement policy")
}

// apply overrides cfg with every flag set on the command line.
func (f *cacheFlags) apply(cmd *cobra.Command, cfg *config.Config) {
	flags := cmd.Flags()

	if flags.Changed("cachesize") {
		cfg.CacheSize = f.cacheSize
	}
	if flags.Changed("blocksize") {
		cfg.BlockSize = f.blockSize
	}
	if flags.Changed("nway") {
		cfg.Associativity = f.nway
	}
	if flags.Changed("replacement") {
		cfg.Replacement = f.replacement
	}
	if flags.Changed("algorithm") {
		cfg.Algorithm = f.algorithm
	}
	if flags.Changed("dimension") {
		cfg.Dimension = f.dimension
	}
	if flags.Changed("factor") {
		cfg.Factor = f.factor
	}
	if flags.Changed("print") {
		cfg.Print = f.print
	}
	if flags.Changed("seed") {
		cfg.Seed = f.seed
	}
}
