package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

func newConfigCmd(g *globalFlags) *cobra.Command {
	var (
		f    cacheFlags
		save string
	)

	cmd := &cobra.Command{
		Use:   "config",
		Short: "Print the effective configuration as JSON",
		Long: `Print the configuration a run would use: the defaults, overlaid by the
configuration file and then by any flags given here. With --save the result is
written to a file instead, ready to be passed back with --config.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := g.loadConfig()
			if err != nil {
				return err
			}
			f.apply(cmd, cfg)

			if err := cfg.Validate(); err != nil {
				return err
			}

			if save != "" {
				return cfg.Save(save)
			}

			data, err := json.MarshalIndent(cfg, "", "  ")
			if err != nil {
				return fmt.Errorf("failed to serialize config: %w", err)
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), string(data))
			return err
		},
	}

	f.bindGeometry(cmd)
	f.bindWorkload(cmd)
	cmd.Flags().StringVarP(&save, "save", "o", "", "write the configuration to this file")

	return cmd
}
