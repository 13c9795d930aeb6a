package observability

import (
	"log/slog"
	"os"
)

// NewLogger builds the process-wide JSON logger. Records are routed
// through the trace handler so log lines carry trace/span ids when a
// span is active.
func NewLogger(env string) *slog.Logger {
	level := slog.LevelInfo

	if env == "dev" {
		level = slog.LevelDebug
	}

	handler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: level,
	})

	return slog.New(NewTraceHandler(handler))
}
