// Package commands implements the regmap command line tool.
package commands

import (
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/JonMunkholm/regmap/internal/config"
	_ "github.com/JonMunkholm/regmap/internal/core/backends" // register all backends
	"github.com/JonMunkholm/regmap/internal/logging"
)

var (
	envFile  string
	logLevel string
)

// NewRootCmd builds the command tree. Tests build a fresh tree per case.
func NewRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "regmap",
		Short: "Normalize vendor register maps into the canonical schema",
		Long: `regmap reads register maps exported by device vendors (spreadsheets, CSV,
or tables extracted from HTML and PDF manuals) and writes them in the
canonical 30-column schema.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if envFile != "" {
				if err := godotenv.Load(envFile); err != nil {
					return err
				}
			}
			logging.SetupWriter(cmd.ErrOrStderr(), logLevel, "text")
			return nil
		},
	}

	root.PersistentFlags().StringVar(&envFile, "env-file", "", "load environment variables from this file")
	root.PersistentFlags().StringVar(&logLevel, "log-level", "warn", "log level: debug, info, warn, error")

	root.AddCommand(newConvertCmd())
	root.AddCommand(newBackendsCmd())
	return root
}

// Execute runs the root command.
func Execute() error {
	return NewRootCmd().Execute()
}

// loadConfig reads configuration from the environment. The CLI never needs
// a database, so the history section is ignored.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	cfg.Database.URL = ""
	return cfg, nil
}
