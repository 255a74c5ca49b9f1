// cmd/paymentsd/admin.go
package main

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"
)

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create the tables of the configured store",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := setup()
			if err != nil {
				return err
			}
			a, err := newApp(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer a.Close()

			if err := a.backend.Migrate(cmd.Context()); err != nil {
				return err
			}
			slog.Info("schema migrated", "driver", cfg.StoreDriver)
			return nil
		},
	}
}

func seedRatesCmd() *cobra.Command {
	var file string
	cmd := &cobra.Command{
		Use:   "seed-rates",
		Short: "Load currency conversion rates from a YAML file",
		Long: `Upsert every currency of the file into the rate table. The file names the
base currency (rate 1) and the units of each currency per base unit:

  base: USD
  currencies:
    - currency: EUR
      rate: "0.85"`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := setup()
			if err != nil {
				return err
			}
			if file == "" {
				file = cfg.RatesSeedFile
			}
			if file == "" {
				return errors.New("no seed file: pass --file or set RATES_SEED_FILE")
			}

			a, err := newApp(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer a.Close()

			if err := a.backend.Migrate(cmd.Context()); err != nil {
				return err
			}
			return a.seed(cmd.Context(), file)
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "", "Seed file (defaults to RATES_SEED_FILE)")
	return cmd
}

func sweepCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "sweep",
		Short: "Expire every pending request whose window has elapsed",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := setup()
			if err != nil {
				return err
			}
			a, err := newApp(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer a.Close()

			n, err := a.service.ExpireOverdue(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "expired %d payment request(s)\n", n)
			return nil
		},
	}
}
