package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"

	"github.com/dshills/pkgbuilder/internal/history"
	"github.com/dshills/pkgbuilder/internal/logging"
)

// EnvPrefix is the prefix of environment overrides.
const EnvPrefix = "PKGBUILDER_"

// DefaultPath is the config file looked up when none is given.
const DefaultPath = "pkgbuilder.toml"

// Config is the resolved configuration.
type Config struct {
	History HistoryConfig `toml:"history"`
	Logging LoggingConfig `toml:"logging"`
	Catalog CatalogConfig `toml:"catalog"`
}

// HistoryConfig configures undo/redo.
type HistoryConfig struct {
	// MaxEntries is the undo depth. Zero selects the default of 50.
	MaxEntries int `toml:"max_entries"`
}

// LoggingConfig configures logging.
type LoggingConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"`
}

// CatalogConfig configures the course catalog.
type CatalogConfig struct {
	Path       string `toml:"path"`
	Watch      bool   `toml:"watch"`
	DebounceMS int    `toml:"debounce_ms"`
}

// Debounce returns the watch debounce as a duration.
func (c CatalogConfig) Debounce() time.Duration {
	return time.Duration(c.DebounceMS) * time.Millisecond
}

// Default returns the built-in defaults.
func Default() Config {
	return Config{
		History: HistoryConfig{MaxEntries: history.DefaultMaxEntries},
		Logging: LoggingConfig{Level: "info", Format: string(logging.FormatConsole)},
		Catalog: CatalogConfig{DebounceMS: 100},
	}
}

// Load resolves defaults, the TOML file at path, and environment
// overrides, then validates the result. A missing file is not an error
// when path is DefaultPath; an empty path skips the file entirely.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := Decode(path, data, &cfg); err != nil {
				return Config{}, err
			}
		case errors.Is(err, os.ErrNotExist) && path == DefaultPath:
			// Optional file
		default:
			return Config{}, fmt.Errorf("reading config file %s: %w", path, err)
		}
	}

	if err := ApplyEnv(&cfg, os.LookupEnv); err != nil {
		return Config{}, err
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Decode parses TOML data over cfg. Keys absent from data keep their
// current values.
func Decode(source string, data []byte, cfg *Config) error {
	if err := toml.Unmarshal(data, cfg); err != nil {
		perr := &ParseError{Path: source, Err: err}
		var derr *toml.DecodeError
		if errors.As(err, &derr) {
			perr.Line, perr.Column = derr.Position()
		}
		return perr
	}
	return nil
}

// ApplyEnv applies PKGBUILDER_* overrides found through lookup.
func ApplyEnv(cfg *Config, lookup func(string) (string, bool)) error {
	if v, ok := lookup(EnvPrefix + "HISTORY_MAX_ENTRIES"); ok {
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return &ValidationError{Path: "history.max_entries", Message: "must be an integer", Value: v}
		}
		cfg.History.MaxEntries = n
	}
	if v, ok := lookup(EnvPrefix + "LOG_LEVEL"); ok {
		cfg.Logging.Level = v
	}
	if v, ok := lookup(EnvPrefix + "LOG_FORMAT"); ok {
		cfg.Logging.Format = v
	}
	if v, ok := lookup(EnvPrefix + "CATALOG_PATH"); ok {
		cfg.Catalog.Path = v
	}
	if v, ok := lookup(EnvPrefix + "CATALOG_WATCH"); ok {
		b, err := strconv.ParseBool(strings.TrimSpace(v))
		if err != nil {
			return &ValidationError{Path: "catalog.watch", Message: "must be a boolean", Value: v}
		}
		cfg.Catalog.Watch = b
	}
	return nil
}

// Validate checks the configuration for invalid values.
func (c Config) Validate() error {
	if c.History.MaxEntries < 0 {
		return &ValidationError{Path: "history.max_entries", Message: "must not be negative", Value: c.History.MaxEntries}
	}
	if !logging.ValidLevel(c.Logging.Level) {
		return &ValidationError{Path: "logging.level", Message: "must be debug, info, warn, or error", Value: c.Logging.Level}
	}
	switch logging.Format(c.Logging.Format) {
	case logging.FormatConsole, logging.FormatJSON:
	default:
		return &ValidationError{Path: "logging.format", Message: "must be console or json", Value: c.Logging.Format}
	}
	if c.Catalog.DebounceMS < 0 {
		return &ValidationError{Path: "catalog.debounce_ms", Message: "must not be negative", Value: c.Catalog.DebounceMS}
	}
	if c.Catalog.Watch && c.Catalog.Path == "" {
		return &ValidationError{Path: "catalog.watch", Message: "requires catalog.path", Value: c.Catalog.Watch}
	}
	return nil
}

// LoggerConfig returns the logger configuration.
func (c Config) LoggerConfig() logging.Config {
	lc := logging.DefaultConfig()
	lc.Level = c.Logging.Level
	lc.Format = logging.Format(c.Logging.Format)
	return lc
}
