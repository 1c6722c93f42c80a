package main

import (
	"fmt"
	"timezone-lookup-service/internal/config"
	"timezone-lookup-service/internal/platform/obs"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func newRootCmd() *cobra.Command {
	var verbose bool

	root := &cobra.Command{
		Use:           "tzctl",
		Short:         "Time zone lookups and cache maintenance",
		SilenceUsage:  true,
		SilenceErrors: false,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			level := "warn"
			if verbose {
				level = "debug"
			}
			logger, err := obs.NewLogger(level, "console")
			if err != nil {
				return err
			}
			zap.ReplaceGlobals(logger)
			return nil
		},
	}
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "log debug output to stderr")

	root.AddCommand(newLookupCmd(), newInitDBCmd(), newPurgeCacheCmd())
	return root
}

func loadConfig() (config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return config.Config{}, fmt.Errorf("tzctl: %w", err)
	}
	return cfg, nil
}
