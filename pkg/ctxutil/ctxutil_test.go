package ctxutil

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"

	"github.com/google/uuid"
)

func TestRunID_RoundTrip(t *testing.T) {
	t.Parallel()

	id := uuid.New()
	ctx := WithRunID(context.Background(), id)

	got, ok := RunIDFromCtx(ctx)
	if !ok {
		t.Fatal("RunIDFromCtx: expected ok")
	}
	if got != id {
		t.Errorf("RunIDFromCtx = %s, want %s", got, id)
	}
}

func TestRunID_NilGeneratesNew(t *testing.T) {
	t.Parallel()

	ctx := WithRunID(context.Background(), uuid.Nil)

	got, ok := RunIDFromCtx(ctx)
	if !ok {
		t.Fatal("RunIDFromCtx: expected ok")
	}
	if got == uuid.Nil {
		t.Error("RunIDFromCtx: expected generated UUID, got Nil")
	}
}

func TestRunID_Missing(t *testing.T) {
	t.Parallel()

	if _, ok := RunIDFromCtx(context.Background()); ok {
		t.Error("RunIDFromCtx on empty context: expected !ok")
	}
}

func TestLoggerWithRunID_AnnotatesEveryLine(t *testing.T) {
	t.Parallel()

	id := uuid.New()
	ctx := WithRunID(context.Background(), id)

	var buf bytes.Buffer
	log := LoggerWithRunID(ctx, slog.New(slog.NewTextHandler(&buf, nil)))

	log.Info("stage done")
	log.Info("another stage done")

	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		if !strings.Contains(line, "run_id="+id.String()) {
			t.Errorf("log line missing run_id attr: %s", line)
		}
	}
}

func TestLoggerWithRunID_NoRunID(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	log := LoggerWithRunID(context.Background(), slog.New(slog.NewTextHandler(&buf, nil)))

	log.Info("hello")
	if strings.Contains(buf.String(), "run_id") {
		t.Errorf("unexpected run_id attr: %s", buf.String())
	}
}
