// Package ctxutil carries pipeline-run metadata through contexts.
package ctxutil

import (
	"context"
	"log/slog"

	"github.com/google/uuid"
)

type ctxKey string

const runIDKey ctxKey = "run_id"

// WithRunID stores a pipeline run ID in the context. Generates a new UUID
// when id is uuid.Nil.
func WithRunID(ctx context.Context, id uuid.UUID) context.Context {
	if id == uuid.Nil {
		id = uuid.New()
	}
	return context.WithValue(ctx, runIDKey, id)
}

// RunIDFromCtx extracts the run ID from the context.
// Returns uuid.Nil and false if the value is missing or the wrong type.
func RunIDFromCtx(ctx context.Context) (uuid.UUID, bool) {
	id, ok := ctx.Value(runIDKey).(uuid.UUID)
	if !ok || id == uuid.Nil {
		return uuid.Nil, false
	}
	return id, true
}

// LoggerWithRunID returns the logger annotated with the context's run ID so
// every line of one pipeline run can be correlated. The logger is returned
// unchanged when the context carries no run ID.
func LoggerWithRunID(ctx context.Context, log *slog.Logger) *slog.Logger {
	id, ok := RunIDFromCtx(ctx)
	if !ok {
		return log
	}
	return log.With(slog.String("run_id", id.String()))
}
