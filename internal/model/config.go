package model

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// DatabaseConfig locates the SQLite file.
type DatabaseConfig struct {
	// Path is the database file. Empty means DefaultDatabasePath().
	Path string `mapstructure:"path" yaml:"path"`
}

// LogConfig controls the hclog logger.
type LogConfig struct {
	Level string `mapstructure:"level" yaml:"level"`
	// File receives TUI logs; the CLI always logs to stderr.
	File string `mapstructure:"file" yaml:"file"`
}

// DisplayConfig holds UI/rendering preferences.
type DisplayConfig struct {
	Theme         string `mapstructure:"theme" yaml:"theme"`
	Width         int    `mapstructure:"width" yaml:"width"`
	ShowCompleted bool   `mapstructure:"show_completed" yaml:"show_completed"`
}

// WatchConfig controls reloading on external database changes.
type WatchConfig struct {
	Enabled    bool `mapstructure:"enabled" yaml:"enabled"`
	DebounceMS int  `mapstructure:"debounce_ms" yaml:"debounce_ms"`
}

// AppConfig is the top-level application configuration.
type AppConfig struct {
	Database DatabaseConfig `mapstructure:"database" yaml:"database"`
	Log      LogConfig      `mapstructure:"log" yaml:"log"`
	Display  DisplayConfig  `mapstructure:"display" yaml:"display"`
	Watch    WatchConfig    `mapstructure:"watch" yaml:"watch"`
}

// DatabasePath returns the configured database path or the default one.
func (c *AppConfig) DatabasePath() string {
	if strings.TrimSpace(c.Database.Path) != "" {
		return expandHome(c.Database.Path)
	}
	return DefaultDatabasePath()
}

// LogPath returns the configured TUI log file or the default one.
func (c *AppConfig) LogPath() string {
	if strings.TrimSpace(c.Log.File) != "" {
		return expandHome(c.Log.File)
	}
	return filepath.Join(filepath.Dir(c.DatabasePath()), "stickies.log")
}

// DefaultConfigPath returns the default path for the configuration file,
// located at ~/.config/stickies/config.yaml.
func DefaultConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", "config.yaml")
	}
	return filepath.Join(home, ".config", "stickies", "config.yaml")
}

// DefaultDatabasePath returns ~/.local/share/stickies/sticky_notes.db.
func DefaultDatabasePath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", "sticky_notes.db")
	}
	return filepath.Join(home, ".local", "share", "stickies", "sticky_notes.db")
}

// defaultAppConfig returns a sensible default configuration.
func defaultAppConfig() *AppConfig {
	return &AppConfig{
		Log: LogConfig{
			Level: "info",
		},
		Display: DisplayConfig{
			Theme:         "default",
			Width:         48,
			ShowCompleted: true,
		},
		Watch: WatchConfig{
			Enabled:    true,
			DebounceMS: 250,
		},
	}
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("log.level", "info")
	v.SetDefault("display.theme", "default")
	v.SetDefault("display.width", 48)
	v.SetDefault("display.show_completed", true)
	v.SetDefault("watch.enabled", true)
	v.SetDefault("watch.debounce_ms", 250)
}

// LoadConfig reads configuration from the given YAML file path using Viper.
// STICKIES_* environment variables override file values. If the file does
// not exist, defaults are returned.
func LoadConfig(path string) (*AppConfig, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	v.SetEnvPrefix("stickies")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var pathErr *os.PathError
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &pathErr) && !errors.As(err, &notFound) {
			return nil, fmt.Errorf("reading config %s: %w", path, err)
		}
	}

	cfg := defaultAppConfig()
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}
	// AutomaticEnv only applies to keys viper already knows about.
	if p := v.GetString("database.path"); p != "" {
		cfg.Database.Path = p
	}
	if f := v.GetString("log.file"); f != "" {
		cfg.Log.File = f
	}

	if cfg.Display.Width <= 0 {
		cfg.Display.Width = 48
	}
	if cfg.Watch.DebounceMS <= 0 {
		cfg.Watch.DebounceMS = 250
	}

	return cfg, nil
}

// SaveConfig writes the given configuration to a YAML file at path,
// creating parent directories if needed.
func SaveConfig(path string, cfg *AppConfig) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating config directory %s: %w", dir, err)
	}

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	v.Set("database.path", cfg.Database.Path)
	v.Set("log.level", cfg.Log.Level)
	v.Set("log.file", cfg.Log.File)
	v.Set("display.theme", cfg.Display.Theme)
	v.Set("display.width", cfg.Display.Width)
	v.Set("display.show_completed", cfg.Display.ShowCompleted)
	v.Set("watch.enabled", cfg.Watch.Enabled)
	v.Set("watch.debounce_ms", cfg.Watch.DebounceMS)

	if err := v.WriteConfigAs(path); err != nil {
		return fmt.Errorf("writing config to %s: %w", path, err)
	}

	return nil
}

func expandHome(path string) string {
	if path == "~" || strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return path
		}
		return filepath.Join(home, strings.TrimPrefix(path, "~"))
	}
	return path
}
