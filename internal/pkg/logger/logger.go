// Package logger builds the service's structured logger.
package logger

import (
	"io"
	"log/slog"
	"os"

	"github.com/samber/oops"
)

// ServiceName is attached to every log record
const ServiceName = "hxstudio-auth"

// New returns a text logger in dev mode and a JSON logger otherwise
func New(mode string) *slog.Logger {
	return NewWithWriter(mode, os.Stdout)
}

// NewWithWriter is New with an explicit destination
func NewWithWriter(mode string, w io.Writer) *slog.Logger {
	var handler slog.Handler
	if mode == "dev" {
		handler = slog.NewTextHandler(w, &slog.HandlerOptions{Level: slog.LevelDebug})
	} else {
		handler = slog.NewJSONHandler(w, &slog.HandlerOptions{Level: slog.LevelInfo})
	}
	return slog.New(handler).With("service", ServiceName)
}

// Discard returns a logger that drops everything
func Discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// LogError logs an error with structured context if it's an oops error.
// For standard errors, it logs the error string.
func LogError(logger *slog.Logger, msg string, err error) {
	if oopsErr, ok := oops.AsOops(err); ok {
		attrs := []any{
			"error", oopsErr.Error(),
			"code", oopsErr.Code(),
		}
		if ctx := oopsErr.Context(); len(ctx) > 0 {
			attrs = append(attrs, "context", ctx)
		}
		logger.Error(msg, attrs...)
		return
	}
	logger.Error(msg, "error", err)
}
