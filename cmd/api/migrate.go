package main

import (
	"freightops/internal/database"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply the SQL schema migrations and exit",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, log, err := bootstrap()
		if err != nil {
			return err
		}
		defer func() { _ = log.Sync() }()

		if err := database.Migrate(cfg.Database.DSN(), log); err != nil {
			log.Error("Migration failed", zap.Error(err))
			return err
		}
		return nil
	},
}
