package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

const (
	defaultListen     = "127.0.0.1:8765"
	defaultUndoLevels = 100

	// IconListSeparator separates icon names in IconsList
	IconListSeparator = ";"
)

// Duration is a wrapper around time.Duration that can be marshaled to/from JSON
type Duration time.Duration

// MarshalJSON implements json.Marshaler interface
func (d Duration) MarshalJSON() ([]byte, error) {
	return json.Marshal(time.Duration(d).String())
}

// UnmarshalJSON implements json.Unmarshaler interface
func (d *Duration) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}

	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid duration format: %w", err)
	}

	*d = Duration(parsed)
	return nil
}

// Duration returns the underlying time.Duration
func (d Duration) Duration() time.Duration {
	return time.Duration(d)
}

// Config represents the main configuration structure
type Config struct {
	DataDir string `json:"data_dir" mapstructure:"data_dir"`
	Listen  string `json:"listen" mapstructure:"listen"`

	// Icon toolbar layout: structured (grouped submenus) or the flat IconsList
	StructuredIconToolbar bool   `json:"structured_icon_toolbar" mapstructure:"structured_icon_toolbar"`
	IconsList             string `json:"icons_list" mapstructure:"icons_list"` // ';' separated icon names

	CatalogPath  string `json:"catalog_path,omitempty" mapstructure:"catalog_path"`     // empty = built-in catalog
	UserIconsDir string `json:"user_icons_dir,omitempty" mapstructure:"user_icons_dir"` // empty = <data_dir>/icons

	UndoLevels      int      `json:"undo_levels" mapstructure:"undo_levels"`
	ShutdownTimeout Duration `json:"shutdown_timeout" mapstructure:"shutdown_timeout"`

	Logging *LogConfig `json:"logging,omitempty" mapstructure:"logging"`
}

// LogConfig represents logging configuration
type LogConfig struct {
	Level         string `json:"level" mapstructure:"level"`
	EnableFile    bool   `json:"enable_file" mapstructure:"enable_file"`
	EnableConsole bool   `json:"enable_console" mapstructure:"enable_console"`
	Filename      string `json:"filename" mapstructure:"filename"`
	LogDir        string `json:"log_dir,omitempty" mapstructure:"log_dir"` // Custom log directory
	MaxSize       int    `json:"max_size" mapstructure:"max_size"`         // MB
	MaxBackups    int    `json:"max_backups" mapstructure:"max_backups"`   // number of backup files
	MaxAge        int    `json:"max_age" mapstructure:"max_age"`           // days
	Compress      bool   `json:"compress" mapstructure:"compress"`
	JSONFormat    bool   `json:"json_format" mapstructure:"json_format"`
}

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	return &Config{
		Listen:                defaultListen,
		StructuredIconToolbar: false,
		IconsList: strings.Join([]string{
			"help", "idea", "button_ok", "button_cancel", "yes",
			"full-1", "full-2", "full-3", "full-4",
			"flag-red", "flag-green", "bookmark", "clock",
		}, IconListSeparator),
		UndoLevels:      defaultUndoLevels,
		ShutdownTimeout: Duration(5 * time.Second),

		Logging: &LogConfig{
			Level:         "info",
			EnableFile:    false,
			EnableConsole: true,
			Filename:      "main.log",
			MaxSize:       10,
			MaxBackups:    5,
			MaxAge:        30,
			Compress:      true,
			JSONFormat:    false,
		},
	}
}

// ToolbarIcons returns the configured flat toolbar icon names in order,
// skipping blanks.
func (c *Config) ToolbarIcons() []string {
	var names []string
	for _, name := range strings.Split(c.IconsList, IconListSeparator) {
		if name = strings.TrimSpace(name); name != "" {
			names = append(names, name)
		}
	}
	return names
}

// UserIconsPath resolves the user icon directory.
func (c *Config) UserIconsPath() string {
	if c.UserIconsDir != "" {
		return c.UserIconsDir
	}
	if c.DataDir == "" {
		return ""
	}
	return filepath.Join(c.DataDir, "icons")
}

// Validate validates the configuration and fills defaults
func (c *Config) Validate() error {
	if c.Listen == "" {
		c.Listen = defaultListen
	}
	if c.UndoLevels < 0 {
		return fmt.Errorf("undo_levels must not be negative, got %d", c.UndoLevels)
	}
	if c.ShutdownTimeout.Duration() <= 0 {
		c.ShutdownTimeout = Duration(5 * time.Second)
	}
	if c.Logging == nil {
		c.Logging = DefaultConfig().Logging
	}
	if c.CatalogPath != "" {
		if _, err := os.Stat(c.CatalogPath); err != nil {
			return fmt.Errorf("icon catalog not accessible: %w", err)
		}
	}
	return nil
}

// DefaultDataDir returns ~/.mindicons
func DefaultDataDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to resolve home directory: %w", err)
	}
	return filepath.Join(home, ".mindicons"), nil
}
