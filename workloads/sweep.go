package workloads

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/sarchlab/cachesim/config"
	"github.com/sarchlab/cachesim/report"
)

// Sweep runs every configuration, at most parallelism at a time, and returns
// the results in input order. Runs share nothing but the hooks passed in
// opts. A parallelism of zero or less means no limit. The first failing run
// cancels the runs that have not started yet.
func Sweep(
	ctx context.Context,
	cfgs []*config.Config,
	parallelism int,
	opts ...Option,
) ([]report.Result, error) {
	results := make([]report.Result, len(cfgs))

	g, ctx := errgroup.WithContext(ctx)
	if parallelism > 0 {
		g.SetLimit(parallelism)
	}

	for i, cfg := range cfgs {
		g.Go(func() error {
			r, err := Run(ctx, cfg, opts...)
			if err != nil {
				return fmt.Errorf("configuration %d: %w", i, err)
			}
			results[i] = r
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	return results, nil
}

// Grid expands base into the cartesian product of the given cache sizes,
// block sizes, associativities and policies. Empty dimensions keep the value
// from base.
func Grid(base *config.Config, cacheSizes, blockSizes, ways []int, policies []string) []*config.Config {
	if len(cacheSizes) == 0 {
		cacheSizes = []int{base.CacheSize}
	}
	if len(blockSizes) == 0 {
		blockSizes = []int{base.BlockSize}
	}
	if len(ways) == 0 {
		ways = []int{base.Associativity}
	}
	if len(policies) == 0 {
		policies = []string{base.Replacement}
	}

	var cfgs []*config.Config
	for _, size := range cacheSizes {
		for _, block := range blockSizes {
			for _, w := range ways {
				for _, policy := range policies {
					cfg := base.Clone()
					cfg.CacheSize = size
					cfg.BlockSize = block
					cfg.Associativity = w
					cfg.Replacement = policy
					cfgs = append(cfgs, cfg)
				}
			}
		}
	}

	return cfgs
}
