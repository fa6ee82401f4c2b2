// Package main implements the stickies CLI and terminal UI.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/hashicorp/go-hclog"
	"github.com/spf13/cobra"

	"github.com/nhle/stickies/internal/logging"
	"github.com/nhle/stickies/internal/model"
	"github.com/nhle/stickies/internal/store"
)

func main() {
	os.Exit(run())
}

// run executes the root command and returns the process exit code.
func run() int {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		return 1
	}
	return 0
}

var rootCmd = &cobra.Command{
	Use:   "stickies",
	Short: "A sticky note with a nested todo list",
	Long: `stickies keeps one free-form note and a tree of todos in a local
SQLite database. Run without arguments to open the terminal UI.`,
	Args:          cobra.NoArgs,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          runTUI,
}

var (
	flagConfig   string
	flagDB       string
	flagLogLevel string
)

func init() {
	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", "", "config file (default ~/.config/stickies/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&flagDB, "db", "", "database file (overrides database.path)")
	rootCmd.PersistentFlags().StringVar(&flagLogLevel, "log-level", "", "log level: trace, debug, info, warn, error")
}

// loadConfig reads the config file and applies command-line overrides.
func loadConfig() (*model.AppConfig, error) {
	path := flagConfig
	if path == "" {
		path = model.DefaultConfigPath()
	}
	cfg, err := model.LoadConfig(path)
	if err != nil {
		return nil, err
	}
	if flagDB != "" {
		cfg.Database.Path = flagDB
	}
	if flagLogLevel != "" {
		cfg.Log.Level = flagLogLevel
	}
	return cfg, nil
}

// withStore opens the configured store with a stderr logger, runs fn and
// closes the store.
func withStore(fn func(ctx context.Context, s store.Store, cfg *model.AppConfig) error) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	logger, err := logging.NewStderr(cfg.Log.Level)
	if err != nil {
		return err
	}

	s, err := openStore(cfg, logger)
	if err != nil {
		return err
	}
	defer s.Close()

	return fn(context.Background(), s, cfg)
}

func openStore(cfg *model.AppConfig, logger hclog.Logger) (*store.SQLiteStore, error) {
	s, err := store.NewSQLiteStore(cfg.DatabasePath(), store.WithLogger(logger.Named("store")))
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", cfg.DatabasePath(), err)
	}
	return s, nil
}
