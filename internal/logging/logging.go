package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/hashicorp/go-hclog"
)

// Name is the root logger name; subsystems use Named children.
const Name = "stickies"

// ParseLevel maps a config string to an hclog level. Empty means info;
// unknown names are an error.
func ParseLevel(s string) (hclog.Level, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return hclog.Info, nil
	}
	lvl := hclog.LevelFromString(s)
	if lvl == hclog.NoLevel {
		return hclog.NoLevel, fmt.Errorf("unknown log level %q", s)
	}
	return lvl, nil
}

// New builds a logger writing to w at the given level.
func New(w io.Writer, level string) (hclog.Logger, error) {
	lvl, err := ParseLevel(level)
	if err != nil {
		return nil, err
	}
	return hclog.New(&hclog.LoggerOptions{
		Name:   Name,
		Level:  lvl,
		Output: w,
	}), nil
}

// NewStderr is the CLI logger.
func NewStderr(level string) (hclog.Logger, error) {
	return New(os.Stderr, level)
}

// NewFile opens path for appending and returns a logger writing to it along
// with the file so the caller can close it.
func NewFile(path, level string) (hclog.Logger, io.Closer, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, nil, fmt.Errorf("creating log directory: %w", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, nil, fmt.Errorf("opening log file %s: %w", path, err)
	}
	logger, err := New(f, level)
	if err != nil {
		f.Close()
		return nil, nil, err
	}
	return logger, f, nil
}
