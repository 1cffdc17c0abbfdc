package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/psidex/bmmap/internal/config"
	"github.com/psidex/bmmap/internal/lib"
)

var (
	configPath string
	logLevel   string
	logFormat  string

	cfg    config.Config
	logger *slog.Logger

	rootCmd = &cobra.Command{
		Use:           "bmmap",
		Short:         "Explore the contact graph of a crawled social network",
		Version:       lib.Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			var err error
			cfg, err = config.Load(configPath)
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("log-level") {
				cfg.Logging.Level = logLevel
			}
			if cmd.Flags().Changed("log-format") {
				cfg.Logging.Format = logFormat
			}

			level, err := lib.ParseSLogLevel(cfg.Logging.Level)
			if err != nil {
				return fmt.Errorf("log level: %w", err)
			}
			logger = lib.NiceLogger(os.Stderr, level, cfg.Logging.Format)
			slog.SetDefault(logger)
			return nil
		},
	}
)

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "path to a JSON config file")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "debug, info, warn or error")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "text", "text or json")

	rootCmd.AddCommand(renderCmd, serveCmd, ingestCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
