package main

import (
	"freightops/internal/config"
	"freightops/internal/logger"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var rootCmd = &cobra.Command{
	Use:          "freightops",
	Short:        "Freight back-office service",
	Long:         `Shipment registration, delivery approval, labour collection, trip logging and vehicle/party ledgers.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.AddCommand(serveCmd, migrateCmd)
}

// bootstrap loads configuration and builds the process logger
func bootstrap() (*config.Config, *zap.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, err
	}
	log := logger.New(logger.Config{Level: cfg.Log.Level, Format: cfg.Log.Format, Output: cfg.Log.Output})
	return cfg, log.With(zap.String("app", cfg.App.Name), zap.String("env", cfg.App.Env)), nil
}
