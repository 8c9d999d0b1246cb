package main

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/rs/zerolog"
)

// Config holds settings read from the environment. Command-line flags take
// precedence over these values.
type Config struct {
	LogLevel  string `env:"KLIMATMODELL_LOG_LEVEL" envDefault:"info"`
	LogFormat string `env:"KLIMATMODELL_LOG_FORMAT" envDefault:"console"`

	// TablesPath points to a calibration YAML document replacing the embedded one.
	TablesPath string `env:"KLIMATMODELL_TABLES_PATH"`

	// ImprovementMode and WindowToWallRatio override the calibration when set.
	ImprovementMode   string  `env:"KLIMATMODELL_IMPROVEMENT_MODE"`
	WindowToWallRatio float64 `env:"KLIMATMODELL_WINDOW_TO_WALL_RATIO"`

	ListenAddr      string        `env:"KLIMATMODELL_LISTEN_ADDR" envDefault:":8080"`
	ShutdownTimeout time.Duration `env:"KLIMATMODELL_SHUTDOWN_TIMEOUT" envDefault:"10s"`

	// Lang selects the report language; LANG is used when unset.
	Lang string `env:"KLIMATMODELL_LANG"`
}

// parseConfig loads Config from environment variables.
func parseConfig() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	if cfg.Lang == "" {
		cfg.Lang = os.Getenv("LANG")
	}
	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) validate() error {
	if _, err := zerolog.ParseLevel(strings.ToLower(c.LogLevel)); err != nil {
		return fmt.Errorf("invalid log level %q: %w", c.LogLevel, err)
	}
	switch c.LogFormat {
	case "console", "json":
	default:
		return fmt.Errorf("invalid log format %q: must be console or json", c.LogFormat)
	}
	if c.WindowToWallRatio < 0 {
		return fmt.Errorf("invalid window to wall ratio %v: must not be negative", c.WindowToWallRatio)
	}
	if c.ShutdownTimeout <= 0 {
		return fmt.Errorf("invalid shutdown timeout %s: must be positive", c.ShutdownTimeout)
	}
	return nil
}

// newLogger builds the process logger writing to w.
func newLogger(cfg Config, w io.Writer) (zerolog.Logger, error) {
	level, err := zerolog.ParseLevel(strings.ToLower(cfg.LogLevel))
	if err != nil {
		return zerolog.Nop(), fmt.Errorf("invalid log level %q: %w", cfg.LogLevel, err)
	}

	out := w
	if cfg.LogFormat == "console" {
		out = zerolog.ConsoleWriter{Out: w, TimeFormat: time.RFC3339}
	}

	return zerolog.New(out).
		Level(level).
		With().
		Timestamp().
		Str("service", "klimatmodell").
		Logger(), nil
}
