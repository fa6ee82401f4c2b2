package main

import (
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/nhle/stickies/internal/app"
	"github.com/nhle/stickies/internal/logging"
	"github.com/nhle/stickies/internal/watch"
)

// runTUI opens the full-screen interface. Logs go to a file so they never
// draw over the screen.
func runTUI(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	logger, closer, err := logging.NewFile(cfg.LogPath(), cfg.Log.Level)
	if err != nil {
		return err
	}
	defer closer.Close()

	s, err := openStore(cfg, logger)
	if err != nil {
		return err
	}
	defer s.Close()

	var w *watch.Watcher
	if cfg.Watch.Enabled {
		debounce := time.Duration(cfg.Watch.DebounceMS) * time.Millisecond
		w, err = watch.New(cfg.DatabasePath(), debounce, logger)
		if err != nil {
			logger.Warn("external changes will not be picked up", "error", err)
			w = nil
		}
	}

	logger.Info("starting", "db", cfg.DatabasePath())
	p := tea.NewProgram(app.New(s, cfg, logger, w), tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("running terminal UI: %w", err)
	}
	if w != nil {
		w.Stop()
	}
	return nil
}
