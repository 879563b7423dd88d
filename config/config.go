// Package config locates and loads the pick configuration file.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"time"

	"github.com/charmbracelet/log"
	"github.com/pelletier/go-toml/v2"

	"github.com/drake/pick/filter"
)

// FilterLua selects a Lua script filter. The other names come from
// filter.Names.
const FilterLua = "lua"

// File is the on-disk configuration. Zero fields mean "use the default".
type File struct {
	Label       string `toml:"label"`
	Description string `toml:"description"`
	Placeholder string `toml:"placeholder"`

	Multiple   bool `toml:"multiple"`
	DebounceMS int  `toml:"debounce_ms"`

	Filter       string `toml:"filter"`
	FilterScript string `toml:"filter_script"`
	CacheSize    int    `toml:"cache_size"`
	Async        bool   `toml:"async"`
	KeepQuery    bool   `toml:"keep_query"`
	MaxVisible   int    `toml:"max_visible"`

	LogFile  string `toml:"log_file"`
	LogLevel string `toml:"log_level"`
}

// Default returns the built-in configuration.
func Default() File {
	return File{
		Filter:     "substring",
		MaxVisible: 10,
		LogLevel:   "info",
	}
}

// Dir returns the pick configuration directory.
// Respects XDG_CONFIG_HOME on Unix, APPDATA on Windows.
func Dir() string {
	var base string

	if runtime.GOOS == "windows" {
		base = os.Getenv("APPDATA")
		if base == "" {
			base = filepath.Join(os.Getenv("USERPROFILE"), "AppData", "Roaming")
		}
	} else {
		base = os.Getenv("XDG_CONFIG_HOME")
		if base == "" {
			home, _ := os.UserHomeDir()
			base = filepath.Join(home, ".config")
		}
	}

	return filepath.Join(base, "pick")
}

// Path returns the path to config.toml.
func Path() string {
	return filepath.Join(Dir(), "config.toml")
}

// Load reads path over the defaults. A missing file is not an error.
func Load(path string) (File, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return cfg, nil
	}
	if err != nil {
		return cfg, fmt.Errorf("read config: %w", err)
	}
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

// Save writes cfg to path, creating the directory if needed.
func Save(path string, cfg File) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}
	data, err := toml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("encode config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

// Validate checks field ranges and names.
func (f File) Validate() error {
	if f.DebounceMS < 0 {
		return fmt.Errorf("debounce_ms must not be negative, got %d", f.DebounceMS)
	}
	if f.CacheSize < 0 {
		return fmt.Errorf("cache_size must not be negative, got %d", f.CacheSize)
	}
	if f.MaxVisible < 0 {
		return fmt.Errorf("max_visible must not be negative, got %d", f.MaxVisible)
	}
	if f.Filter == FilterLua {
		if f.FilterScript == "" {
			return errors.New("filter = \"lua\" needs filter_script")
		}
	} else if _, err := filter.ByName(f.Filter, filter.Options{}); err != nil {
		return err
	}
	if _, err := f.Level(); err != nil {
		return err
	}
	return nil
}

// Debounce returns the debounce delay.
func (f File) Debounce() time.Duration {
	return time.Duration(f.DebounceMS) * time.Millisecond
}

// Level parses LogLevel. Empty means info.
func (f File) Level() (log.Level, error) {
	if f.LogLevel == "" {
		return log.InfoLevel, nil
	}
	lvl, err := log.ParseLevel(f.LogLevel)
	if err != nil {
		return lvl, fmt.Errorf("log_level: %w", err)
	}
	return lvl, nil
}
