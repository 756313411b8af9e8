package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/mmynk/spendwise/internal/config"
	"github.com/mmynk/spendwise/pkg/logging"
)

var (
	envFile string
	cfg     config.Config
	logger  *slog.Logger
)

// rootCmd runs the server when invoked without a subcommand.
var rootCmd = &cobra.Command{
	Use:   "spendwise",
	Short: "Personal expense tracker with shared expense splitting",
	Long: `Spendwise serves the expense tracking REST API and its browser front end.

Configuration is read from the environment, optionally seeded from a .env file.`,
	SilenceUsage:      true,
	PersistentPreRunE: loadConfig,
	RunE:              runServe,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "path to a .env file (ignored when missing)")
	rootCmd.AddCommand(serveCmd, migrateCmd)
}

func loadConfig(cmd *cobra.Command, args []string) error {
	if err := config.LoadDotEnv(envFile); err != nil {
		return err
	}
	cfg = config.Load()
	if err := cfg.Validate(); err != nil {
		return err
	}
	logger = logging.Setup(os.Stderr, cfg.LogLevel, cfg.LogFormat)
	return nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
