package config

import (
	"errors"
	"fmt"
	"io/fs"
	"reflect"
	"strings"
	"time"

	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes environment overrides, e.g. MINDICONS_STRUCTURED_ICON_TOOLBAR
const EnvPrefix = "MINDICONS"

// LoadFromFile reads configuration from a JSON file, applying environment
// overrides and defaults. A missing file yields the defaults.
func LoadFromFile(path string) (*Config, error) {
	return load(path, true)
}

// loadFileOnly is LoadFromFile without environment overrides: the settings
// the file itself holds.
func loadFileOnly(path string) (*Config, error) {
	return load(path, false)
}

func load(path string, env bool) (*Config, error) {
	v := viper.New()
	v.SetConfigType("json")
	if env {
		v.SetEnvPrefix(EnvPrefix)
		v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
		v.AutomaticEnv()
	}
	setDefaults(v, DefaultConfig())

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) && !errors.Is(err, fs.ErrNotExist) {
				return nil, fmt.Errorf("failed to read config %s: %w", path, err)
			}
		}
	}

	cfg := DefaultConfig()
	hook := viper.DecodeHook(mapstructure.ComposeDecodeHookFunc(
		stringToDurationHook(),
		mapstructure.StringToTimeDurationHookFunc(),
	))
	if err := v.Unmarshal(cfg, hook); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// setDefaults registers every scalar key so AutomaticEnv can override it.
func setDefaults(v *viper.Viper, cfg *Config) {
	v.SetDefault("data_dir", cfg.DataDir)
	v.SetDefault("listen", cfg.Listen)
	v.SetDefault("structured_icon_toolbar", cfg.StructuredIconToolbar)
	v.SetDefault("icons_list", cfg.IconsList)
	v.SetDefault("catalog_path", cfg.CatalogPath)
	v.SetDefault("user_icons_dir", cfg.UserIconsDir)
	v.SetDefault("undo_levels", cfg.UndoLevels)
	v.SetDefault("shutdown_timeout", cfg.ShutdownTimeout.Duration().String())
	v.SetDefault("logging.level", cfg.Logging.Level)
	v.SetDefault("logging.enable_file", cfg.Logging.EnableFile)
	v.SetDefault("logging.enable_console", cfg.Logging.EnableConsole)
	v.SetDefault("logging.filename", cfg.Logging.Filename)
	v.SetDefault("logging.log_dir", cfg.Logging.LogDir)
	v.SetDefault("logging.max_size", cfg.Logging.MaxSize)
	v.SetDefault("logging.max_backups", cfg.Logging.MaxBackups)
	v.SetDefault("logging.max_age", cfg.Logging.MaxAge)
	v.SetDefault("logging.compress", cfg.Logging.Compress)
	v.SetDefault("logging.json_format", cfg.Logging.JSONFormat)
}

// stringToDurationHook decodes "5s" style strings into Duration.
func stringToDurationHook() mapstructure.DecodeHookFuncType {
	return func(from reflect.Type, to reflect.Type, data interface{}) (interface{}, error) {
		if to != reflect.TypeOf(Duration(0)) || from.Kind() != reflect.String {
			return data, nil
		}
		d, err := time.ParseDuration(data.(string))
		if err != nil {
			return nil, fmt.Errorf("invalid duration format: %w", err)
		}
		return Duration(d), nil
	}
}
