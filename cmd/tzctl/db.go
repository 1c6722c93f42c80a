package main

import (
	"fmt"
	"timezone-lookup-service/internal/app"

	"github.com/spf13/cobra"
)

func newInitDBCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "init-db",
		Short: "Create the cache and history tables",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			a, err := app.OpenDatabase(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer a.Close()

			_, err = fmt.Fprintf(cmd.OutOrStdout(), "schema ready (%s)\n", a.Dialect)
			return err
		},
	}
}

func newPurgeCacheCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "purge-cache",
		Short: "Delete expired rows from the SQL time zone cache",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			a, err := app.OpenDatabase(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer a.Close()

			n, err := a.SQLCache().Purge(cmd.Context())
			if err != nil {
				return err
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "purged %d expired entries\n", n)
			return err
		},
	}
}
