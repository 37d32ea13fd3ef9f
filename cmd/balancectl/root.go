package main

import (
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/iho/custbalance/internal/infrastructure/config"
	"github.com/iho/custbalance/internal/infrastructure/logger"
)

// cli carries state shared by subcommands once the root command has run.
type cli struct {
	envFile  string
	logLevel string

	cfg        *config.Config
	logger     zerolog.Logger
	open       serviceFactory
	migrations migrationRunner
}

func newRootCmd(open serviceFactory, migrations migrationRunner) *cobra.Command {
	c := &cli{open: open, migrations: migrations}

	rootCmd := &cobra.Command{
		Use:           "balancectl",
		Short:         "Customer balance maintenance tool",
		Long:          `Regenerates open balance allocation for customers and reports outstanding balances.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadFile(c.envFile)
			if err != nil {
				return err
			}
			if c.logLevel != "" {
				cfg.LogLevel = c.logLevel
			}

			c.cfg = cfg
			c.logger = logger.New(logger.Config{
				Level:  cfg.LogLevel,
				Format: cfg.LogFormat,
				Output: cmd.ErrOrStderr(),
			})
			return nil
		},
	}

	rootCmd.PersistentFlags().StringVar(&c.envFile, "env-file", "", "Path to a dotenv configuration file")
	rootCmd.PersistentFlags().StringVar(&c.logLevel, "log-level", "", "Log level (debug, info, warn, error); overrides LOG_LEVEL")

	rootCmd.AddCommand(
		newRecalculateCmd(c),
		newOutstandingCmd(c),
		newBalanceCmd(c),
		newMigrateCmd(c),
	)

	return rootCmd
}
