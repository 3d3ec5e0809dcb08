package main

import (
	"github.com/spf13/cobra"

	"github.com/Shivanand-hulikatti/campus-events/internal/database"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply database migrations and exit",
	RunE: func(cmd *cobra.Command, args []string) error {
		return database.Migrate(cfg.Driver, migrationURL(cfg))
	},
}
