package logger

import (
	"context"
	"log/slog"
	"os"
	"strings"
)

// Subsystem identifies which part of the service a logger belongs to.
type Subsystem string

const (
	SubsystemAPI    Subsystem = "api"
	SubsystemDocker Subsystem = "docker"
	SubsystemSSH    Subsystem = "ssh"
	SubsystemExport Subsystem = "export"
	SubsystemStream Subsystem = "stream"
)

// Config controls logger construction. Loaded once from the environment.
type Config struct {
	Level  slog.Level
	Format string // "json" or "text"
}

// NewConfig loads logger configuration from LOG_LEVEL and LOG_FORMAT.
func NewConfig() Config {
	cfg := Config{
		Level:  slog.LevelInfo,
		Format: "json",
	}

	switch strings.ToLower(os.Getenv("LOG_LEVEL")) {
	case "debug":
		cfg.Level = slog.LevelDebug
	case "warn":
		cfg.Level = slog.LevelWarn
	case "error":
		cfg.Level = slog.LevelError
	}

	if f := strings.ToLower(os.Getenv("LOG_FORMAT")); f == "text" {
		cfg.Format = "text"
	}

	return cfg
}

// NewSubsystemLogger builds a logger tagged with a subsystem attribute.
// If extraHandler is non-nil it is used instead of the default stdout handler,
// which lets callers route records through an exporter bridge.
func NewSubsystemLogger(sub Subsystem, cfg Config, extraHandler slog.Handler) *slog.Logger {
	handler := extraHandler
	if handler == nil {
		opts := &slog.HandlerOptions{Level: cfg.Level}
		if cfg.Format == "text" {
			handler = slog.NewTextHandler(os.Stdout, opts)
		} else {
			handler = slog.NewJSONHandler(os.Stdout, opts)
		}
	}
	return slog.New(handler).With("subsystem", string(sub))
}

type ctxKey struct{}

// AddToContext returns a context carrying the given logger.
func AddToContext(ctx context.Context, log *slog.Logger) context.Context {
	return context.WithValue(ctx, ctxKey{}, log)
}

// FromContext returns the logger stored in ctx, or slog.Default if none was
// injected. Handlers should always go through this so request-scoped
// attributes survive into library code.
func FromContext(ctx context.Context) *slog.Logger {
	if log, ok := ctx.Value(ctxKey{}).(*slog.Logger); ok {
		return log
	}
	return slog.Default()
}
