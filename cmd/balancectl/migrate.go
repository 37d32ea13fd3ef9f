package main

import (
	"errors"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

// migrationRunner applies or rolls back schema migrations.
type migrationRunner struct {
	up   func(databaseURL, migrationsPath string, logger zerolog.Logger) error
	down func(databaseURL, migrationsPath string, logger zerolog.Logger) error
}

var errConfirmRollback = errors.New("rolling back drops data; pass --yes to confirm")

func newMigrateCmd(c *cli) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Manage the database schema",
	}

	upCmd := &cobra.Command{
		Use:   "up",
		Short: "Apply all pending migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.migrations.up(c.cfg.DatabaseURL, c.cfg.MigrationsPath, c.logger)
		},
	}

	var yes bool
	downCmd := &cobra.Command{
		Use:   "down",
		Short: "Roll back the most recent migration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !yes {
				return errConfirmRollback
			}
			return c.migrations.down(c.cfg.DatabaseURL, c.cfg.MigrationsPath, c.logger)
		},
	}
	downCmd.Flags().BoolVar(&yes, "yes", false, "Confirm the rollback")

	cmd.AddCommand(upCmd, downCmd)
	return cmd
}
