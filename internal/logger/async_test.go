package logger

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"
	"time"
)

func TestAsyncHandlerDeliversRecords(t *testing.T) {
	var buf bytes.Buffer
	inner := slog.NewJSONHandler(&buf, nil)
	h := NewAsyncHandler(inner, 16, 1)

	log := slog.New(h)
	log.Info("hello", "k", "v")
	h.Close()

	if !strings.Contains(buf.String(), "hello") {
		t.Errorf("expected record in output, got %q", buf.String())
	}
}

func TestAsyncHandlerDropsWhenFull(t *testing.T) {
	blocked := make(chan struct{})
	inner := &blockingHandler{release: blocked}
	h := NewAsyncHandler(inner, 1, 1)

	rec := slog.NewRecord(time.Now(), slog.LevelInfo, "msg", 0)
	// First record occupies the worker, second fills the channel,
	// subsequent ones must be dropped.
	for range 10 {
		_ = h.Handle(context.Background(), rec)
	}
	close(blocked)
	h.Close()

	if h.DroppedCount() == 0 {
		t.Error("expected dropped records when channel is full")
	}
}

func TestAsyncHandlerWithAttrsSharesChannel(t *testing.T) {
	var buf bytes.Buffer
	inner := slog.NewJSONHandler(&buf, nil)
	h := NewAsyncHandler(inner, 16, 1)

	child, ok := h.WithAttrs([]slog.Attr{slog.String("svc", "x")}).(*AsyncHandler)
	if !ok {
		t.Fatal("WithAttrs should return *AsyncHandler")
	}
	slog.New(child).Info("attributed")
	h.Close()

	out := buf.String()
	if !strings.Contains(out, "attributed") || !strings.Contains(out, "svc") {
		t.Errorf("expected attributed record, got %q", out)
	}
}

// blockingHandler blocks Handle until release is closed.
type blockingHandler struct {
	release chan struct{}
}

func (b *blockingHandler) Enabled(context.Context, slog.Level) bool { return true }
func (b *blockingHandler) Handle(context.Context, slog.Record) error {
	<-b.release
	return nil
}
func (b *blockingHandler) WithAttrs([]slog.Attr) slog.Handler { return b }
func (b *blockingHandler) WithGroup(string) slog.Handler      { return b }
