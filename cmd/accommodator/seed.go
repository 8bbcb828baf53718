package main

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/rl1809/accommodator/internal/adapter/storage"
	"github.com/rl1809/accommodator/internal/config"
)

func newSeedCmd(configFile *string) *cobra.Command {
	var migrateFirst bool

	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Insert the sample accommodation catalog into MySQL",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(*configFile)
			if err != nil {
				return err
			}
			log := cfg.NewLogger()

			ctx, cancel := context.WithTimeout(cmd.Context(), cfg.OperationTimeout*4)
			defer cancel()

			db, err := openMySQL(ctx, cfg.MySQLDSN)
			if err != nil {
				return err
			}
			defer db.Close()

			adapter := storage.NewMySQLAdapter(db)
			if migrateFirst {
				if err := adapter.Migrate(ctx); err != nil {
					return err
				}
			}

			units := storage.SampleUnits()
			if err := adapter.SeedUnits(ctx, units); err != nil {
				return err
			}
			log.WithField("units", len(units)).Info("seeded catalog")
			return nil
		},
	}

	cmd.Flags().BoolVar(&migrateFirst, "migrate", true, "create the schema before seeding")
	return cmd
}
