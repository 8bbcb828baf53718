package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/rl1809/accommodator/internal/adapter/storage"
	"github.com/rl1809/accommodator/internal/config"
)

func newMigrateCmd(configFile *string) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create the MySQL schema",
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

			if err := storage.NewMySQLAdapter(db).Migrate(ctx); err != nil {
				return fmt.Errorf("migrate: %w", err)
			}
			log.Info("schema is up to date")
			return nil
		},
	}
}
