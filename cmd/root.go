// Package cmd holds the formengine command line.
package cmd

import (
	"errors"
	"io/fs"
	"log/slog"
	"os"

	"github.com/melkeydev/formengine/config"
	"github.com/spf13/cobra"
)

const version = "0.1.0"

var configPath string

var rootCmd = &cobra.Command{
	Use:           "formengine",
	Short:         "Metadata-driven forms and reports over a relational database",
	Version:       version,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "config.yaml", "path to config file")
	rootCmd.AddCommand(serveCmd, mcpCmd)
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		slog.Error("command failed", "error", err)
		os.Exit(1)
	}
}

// loadConfig reads the config file, or the defaults when there is none, and
// installs a JSON logger at the configured level.
func loadConfig() (*config.Config, error) {
	cfg, err := config.LoadConfig(configPath)
	missing := errors.Is(err, fs.ErrNotExist)
	if err != nil && !missing {
		return nil, err
	}
	if missing {
		cfg = config.Default()
	}

	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: cfg.Log.SlogLevel(),
	})))
	if missing {
		slog.Warn("config file not found, using defaults", "path", configPath)
	}
	return cfg, nil
}
