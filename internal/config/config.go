package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/Zuo-Peng/edl-session-search/internal/decode"
	"github.com/Zuo-Peng/edl-session-search/internal/logging"
)

// EnvPath overrides the config file location.
const EnvPath = "EDLS_CONFIG"

type Config struct {
	Roots            []string `toml:"roots"`
	Extensions       []string `toml:"extensions"`
	DBPath           string   `toml:"db_path"`
	Encoding         string   `toml:"encoding"`
	FallbackEncoding string   `toml:"fallback_encoding"`
	Strict           bool     `toml:"strict"`
	Workers          int      `toml:"workers"`
	LogLevel         string   `toml:"log_level"`
	LogFormat        string   `toml:"log_format"`
	ServeAddr        string   `toml:"serve_addr"`
	WatchDebounceMS  int      `toml:"watch_debounce_ms"`

	// Path is the file the config was read from, empty when defaults were used.
	Path string `toml:"-"`
}

// Default returns the configuration used when no file exists.
func Default(home string) *Config {
	return &Config{
		Roots:            []string{filepath.Join(home, "Documents", "Pro Tools")},
		Extensions:       []string{".txt"},
		DBPath:           filepath.Join(home, ".config", "edls", "edls.db"),
		Encoding:         decode.Auto,
		FallbackEncoding: "windows-1252",
		Workers:          4,
		LogLevel:         "info",
		LogFormat:        logging.FormatText,
		ServeAddr:        "127.0.0.1:8765",
		WatchDebounceMS:  500,
	}
}

// Load reads the config file at path, or at $EDLS_CONFIG, or at
// ~/.config/edls/config.toml. A missing default file is not an error; a
// missing explicit file is.
func Load(path string) (*Config, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil, err
	}

	cfg := Default(home)

	explicit := true
	if path == "" {
		path = os.Getenv(EnvPath)
	}
	if path == "" {
		path = filepath.Join(home, ".config", "edls", "config.toml")
		explicit = false
	}
	path = expandHome(path, home)

	if _, err := os.Stat(path); err == nil {
		if _, err := toml.DecodeFile(path, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
		cfg.Path = path
	} else if explicit {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}

	// expand ~ in paths
	for i, r := range cfg.Roots {
		cfg.Roots[i] = expandHome(r, home)
	}
	cfg.DBPath = expandHome(cfg.DBPath, home)

	for i, ext := range cfg.Extensions {
		if ext != "" && !strings.HasPrefix(ext, ".") {
			cfg.Extensions[i] = "." + ext
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

// Validate rejects values the rest of the program cannot use.
func (c *Config) Validate() error {
	var errs []error
	if len(c.Roots) == 0 {
		errs = append(errs, errors.New("roots: at least one root is required"))
	}
	if len(c.Extensions) == 0 {
		errs = append(errs, errors.New("extensions: at least one extension is required"))
	}
	if c.DBPath == "" {
		errs = append(errs, errors.New("db_path: must not be empty"))
	}
	if !decode.Valid(c.Encoding) {
		errs = append(errs, fmt.Errorf("encoding: unknown encoding %q", c.Encoding))
	}
	if _, err := decode.Lookup(c.FallbackEncoding); err != nil {
		errs = append(errs, fmt.Errorf("fallback_encoding: %w", err))
	}
	if c.Workers < 1 {
		errs = append(errs, fmt.Errorf("workers: must be at least 1, got %d", c.Workers))
	}
	if !logging.ValidFormat(c.LogFormat) {
		errs = append(errs, fmt.Errorf("log_format: want text or json, got %q", c.LogFormat))
	}
	if c.WatchDebounceMS < 0 {
		errs = append(errs, fmt.Errorf("watch_debounce_ms: must not be negative, got %d", c.WatchDebounceMS))
	}
	return errors.Join(errs...)
}

// WatchDebounce is WatchDebounceMS as a duration.
func (c *Config) WatchDebounce() time.Duration {
	return time.Duration(c.WatchDebounceMS) * time.Millisecond
}

func expandHome(path, home string) string {
	if path == "~" {
		return home
	}
	if len(path) > 1 && path[0] == '~' && path[1] == '/' {
		return filepath.Join(home, path[2:])
	}
	return path
}
