package logging

import (
	"context"
	"io"
	"log/slog"

	"github.com/samber/oops"
)

// LogError logs err on the request-scoped logger. Errors built with oops are
// expanded into their code and context attributes.
func LogError(ctx context.Context, msg string, err error, args ...any) {
	logger := FromContext(ctx)
	if oopsErr, ok := oops.AsOops(err); ok {
		attrs := append([]any{"error", oopsErr.Error()}, args...)
		if code := oopsErr.Code(); code != nil {
			attrs = append(attrs, "code", code)
		}
		if fields := oopsErr.Context(); len(fields) > 0 {
			attrs = append(attrs, "context", fields)
		}
		logger.ErrorContext(ctx, msg, attrs...)
		return
	}
	logger.ErrorContext(ctx, msg, append([]any{"error", err}, args...)...)
}

// NewLogger builds the process logger. level accepts debug, info, warn or error;
// anything else falls back to info.
func NewLogger(level string, json bool, w io.Writer) *slog.Logger {
	opts := &slog.HandlerOptions{AddSource: true, Level: parseLevel(level)}
	if json {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

func parseLevel(level string) slog.Level {
	var l slog.Level
	if err := l.UnmarshalText([]byte(level)); err != nil {
		return slog.LevelInfo
	}
	return l
}
