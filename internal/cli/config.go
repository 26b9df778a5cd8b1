package cli

import (
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/caarlos0/env/v11"

	"github.com/roach88/breakpoints/internal/engine"
)

// Config is the environment configuration. Command flags override it.
type Config struct {
	Window      time.Duration `env:"BREAKPOINTS_WINDOW"       envDefault:"250ms"`
	LogLevel    string        `env:"BREAKPOINTS_LOG_LEVEL"    envDefault:"info"`
	Database    string        `env:"BREAKPOINTS_DB"           envDefault:"breakpoints.db"`
	MetricsAddr string        `env:"BREAKPOINTS_METRICS_ADDR"`
}

// DefaultConfig returns the configuration of an empty environment.
func DefaultConfig() Config {
	return Config{
		Window:   engine.DefaultWindow,
		LogLevel: "info",
		Database: "breakpoints.db",
	}
}

// LoadConfig reads the configuration from the process environment.
func LoadConfig() (Config, error) {
	return loadConfig(env.Options{})
}

func loadConfig(opts env.Options) (Config, error) {
	var cfg Config
	if err := env.ParseWithOptions(&cfg, opts); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	if cfg.Window <= 0 {
		return Config{}, fmt.Errorf("BREAKPOINTS_WINDOW must be positive, got %s", cfg.Window)
	}
	if _, err := parseLevel(cfg.LogLevel); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// parseLevel accepts slog level names: debug, info, warn, error.
func parseLevel(s string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(s)); err != nil {
		return 0, fmt.Errorf("BREAKPOINTS_LOG_LEVEL: %w", err)
	}
	return level, nil
}

func newLogger(w io.Writer, level slog.Level) *slog.Logger {
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}
