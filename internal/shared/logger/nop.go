package logger

import (
	"io"
	"log/slog"
)

// NewNopLogger discards everything. Used in tests and by components built without a logger.
func NewNopLogger() Interface {
	return &slogLogger{logger: slog.New(slog.NewTextHandler(io.Discard, nil))}
}
