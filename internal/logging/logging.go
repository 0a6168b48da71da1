// Package logging configures the process-wide slog logger and derives
// request-scoped loggers from it.
//
// ENVIRONMENTS:
//
//	dev      text output, DEBUG and above (human-readable)
//	staging  JSON output, DEBUG and above
//	prod     JSON output, INFO and above
//
// JSON logs are easy to ingest by log aggregators (Loki, CloudWatch, etc.)
package logging

import (
	"context"
	"io"
	"log/slog"
	"os"

	"github.com/go-chi/chi/v5/middleware"
)

// Setup builds the logger for env, writing to stdout, and installs it as
// slog's default so FromContext picks it up.
func Setup(env string) *slog.Logger {
	log := New(env, os.Stdout)
	slog.SetDefault(log)
	return log
}

// New builds the logger for env without touching the default.
func New(env string, w io.Writer) *slog.Logger {
	switch env {
	case "prod":
		return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: slog.LevelInfo}))
	case "staging":
		return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: slog.LevelDebug}))
	default: // "dev" and anything unrecognised
		return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: slog.LevelDebug}))
	}
}

// FromContext returns the default logger, tagged with chi's request id
// when ctx carries one.
//
//	log := logging.FromContext(r.Context())
//	log.Info("student created", slog.String("id", s.ID))
func FromContext(ctx context.Context) *slog.Logger {
	log := slog.Default()
	if id := middleware.GetReqID(ctx); id != "" {
		log = log.With(slog.String("request_id", id))
	}
	return log
}

// WithFields is FromContext plus extra attributes.
func WithFields(ctx context.Context, args ...any) *slog.Logger {
	return FromContext(ctx).With(args...)
}
