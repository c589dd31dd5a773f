package place

import (
	"context"
	"log/slog"
)

// LevelTrace sits one step above Info, so a handler that shows Info records
// (the slog default) shows trace records too.
const LevelTrace slog.Level = slog.LevelInfo + 1

// Trace emits a structured trace record.
func Trace(msg string, args ...any) {
	slog.Log(context.Background(), LevelTrace, msg, args...)
}
