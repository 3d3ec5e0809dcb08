package main

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/Shivanand-hulikatti/campus-events/internal/config"
)

var cfg config.Config

var rootCmd = &cobra.Command{
	Use:          "campus-events",
	Short:        "Campus event registration and attendance service",
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		if cfg, err = config.Load(); err != nil {
			return err
		}
		slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: cfg.SlogLevel()})))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(serveCmd, migrateCmd)
}

// migrationURL returns the golang-migrate URL for the configured driver.
func migrationURL(c config.Config) string {
	if c.Driver == config.DriverSQLite {
		return c.SQLite.MigrationURL()
	}
	return c.Postgres.MigrationURL()
}
