package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"ledgerbook/internal/buildinfo"
	"ledgerbook/internal/cli"
	"ledgerbook/internal/config"
	"ledgerbook/internal/log"
)

// NewRootCommand creates the root CLI command with all subcommands registered.
func NewRootCommand() *cobra.Command {
	var configFile string

	rootCmd := &cobra.Command{
		Use:     "ledgerbook",
		Short:   "Income and expense ledger with filtering and a sheet mirror",
		Version: fmt.Sprintf("%s (commit: %s, built: %s)", buildinfo.Version, buildinfo.Commit, buildinfo.Date),
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cli.LoadEnvFile()
			if configFile != "" {
				return os.Setenv(config.EnvConfigFile, configFile)
			}
			return nil
		},
	}

	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "YAML config file (overrides "+config.EnvConfigFile+")")

	rootCmd.AddCommand(newServeCommand())
	rootCmd.AddCommand(newWorkerCommand())
	rootCmd.AddCommand(newMigrateCommand())

	return rootCmd
}

// setup loads configuration and the logger for a subcommand.
func setup() (*config.Config, *log.Logger, error) {
	cfg, err := cli.LoadAndValidateConfig()
	if err != nil {
		return nil, nil, err
	}
	logger, err := cli.SetupLogger(cfg)
	if err != nil {
		return nil, nil, err
	}
	return cfg, logger, nil
}
