package main

import (
	"fmt"
	"log/slog"
	"os"
	"time"

	highlight "github.com/noclaps/go-tree-sitter-langtree"
)

// Output formats.
const (
	FormatANSI = "ansi"
	FormatHTML = "html"
)

// Config holds all configuration options for tshl.
type Config struct {
	Format          string        `mapstructure:"format"`
	Theme           string        `mapstructure:"theme"`        // path to a YAML theme, empty for the default
	ClassPrefix     string        `mapstructure:"class_prefix"` // class prefix of html spans
	Debounce        time.Duration `mapstructure:"debounce"`
	QueryExpiration time.Duration `mapstructure:"query_expiration"`
	LogLevel        string        `mapstructure:"log_level"`
}

// Defaults returns the default configuration.
func Defaults() Config {
	return Config{
		Format:          FormatANSI,
		ClassPrefix:     "hl-",
		Debounce:        100 * time.Millisecond,
		QueryExpiration: highlight.DefaultQueryExpiration,
		LogLevel:        "warn",
	}
}

// Validate checks the configuration for invalid values.
func (c Config) Validate() error {
	switch c.Format {
	case FormatANSI, FormatHTML:
	default:
		return fmt.Errorf("%w: %q", errUnknownFormat, c.Format)
	}
	if _, err := c.level(); err != nil {
		return err
	}
	if c.Debounce < 0 {
		return fmt.Errorf("debounce must not be negative: %s", c.Debounce)
	}
	return nil
}

func (c Config) level() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return 0, fmt.Errorf("invalid log level %q: %w", c.LogLevel, err)
	}
	return level, nil
}

// Logger returns the logger writing to stderr at the configured level.
func (c Config) Logger() *slog.Logger {
	level, err := c.level()
	if err != nil {
		level = slog.LevelWarn
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

// LoadTheme returns the configured theme.
func (c Config) LoadTheme() (highlight.Theme, error) {
	if c.Theme == "" {
		return highlight.DefaultTheme(), nil
	}

	f, err := os.Open(c.Theme)
	if err != nil {
		return highlight.Theme{}, fmt.Errorf("opening theme: %w", err)
	}
	defer f.Close()

	return highlight.LoadTheme(f)
}
