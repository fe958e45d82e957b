package observability

import (
	"io"
	"log/slog"
	"os"
)

func NewLogger(env string) *slog.Logger {
	return newLogger(os.Stdout, env)
}

func newLogger(w io.Writer, env string) *slog.Logger {
	level := slog.LevelInfo

	if env == "dev" {
		level = slog.LevelDebug
	}

	handler := slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level: level,
	})

	// trace/span ids ride along whenever a span is in the context
	return slog.New(NewTraceHandler(handler))
}
