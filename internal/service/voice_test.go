package service

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/lawgpt-ru/lawgpt-core/internal/port/messagequeue"
)

var _ messagequeue.Queue = (*mockQueue)(nil)

// mockQueue captures published messages and lets tests inject results
// through the registered handler.
type mockQueue struct {
	mu        sync.Mutex
	published []publishedMsg
	handlers  map[string]messagequeue.Handler
	connected bool
}

type publishedMsg struct {
	subject string
	data    []byte
}

func newMockQueue() *mockQueue {
	return &mockQueue{handlers: make(map[string]messagequeue.Handler), connected: true}
}

func (m *mockQueue) Publish(_ context.Context, subject string, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.published = append(m.published, publishedMsg{subject: subject, data: data})
	return nil
}

func (m *mockQueue) Subscribe(_ context.Context, subject string, handler messagequeue.Handler) (func(), error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.handlers[subject] = handler
	return func() {}, nil
}

func (m *mockQueue) Close() error { return nil }

func (m *mockQueue) IsConnected() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.connected
}

func (m *mockQueue) deliver(t *testing.T, subject string, payload any) {
	t.Helper()
	m.mu.Lock()
	handler, ok := m.handlers[subject]
	m.mu.Unlock()
	if !ok {
		t.Fatalf("no handler for %s", subject)
	}
	data, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if err := handler(context.Background(), subject, data); err != nil {
		t.Fatalf("handler: %v", err)
	}
}

// waitPublished blocks until the service has published at least one
// message.
func waitPublished(t *testing.T, queue *mockQueue) {
	t.Helper()
	deadline := time.After(2 * time.Second)
	for {
		queue.mu.Lock()
		n := len(queue.published)
		queue.mu.Unlock()
		if n > 0 {
			return
		}
		select {
		case <-deadline:
			t.Fatal("transcription request never published")
		case <-time.After(5 * time.Millisecond):
		}
	}
}

func (m *mockQueue) lastPublished(t *testing.T) publishedMsg {
	t.Helper()
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.published) == 0 {
		t.Fatal("nothing published")
	}
	return m.published[len(m.published)-1]
}

func TestVoiceTranscribeRoundTrip(t *testing.T) {
	queue := newMockQueue()
	svc := NewVoiceService(queue, testLogger())
	cancel, err := svc.Start(context.Background())
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	defer cancel()

	type result struct {
		text string
		err  error
	}
	done := make(chan result, 1)
	go func() {
		text, err := svc.Transcribe(context.Background(), "https://example.com/note.ogg", "ru")
		done <- result{text, err}
	}()

	// Wait for the request to go out, then answer it like the worker.
	var req messagequeue.VoiceTranscribeRequestPayload
	waitPublished(t, queue)
	pub := queue.lastPublished(t)
	if pub.subject != messagequeue.SubjectVoiceTranscribeRequest {
		t.Fatalf("unexpected subject %s", pub.subject)
	}
	if err := json.Unmarshal(pub.data, &req); err != nil {
		t.Fatalf("unmarshal request: %v", err)
	}
	if req.AudioURL != "https://example.com/note.ogg" || req.RequestID == "" {
		t.Fatalf("bad request payload %+v", req)
	}

	queue.deliver(t, messagequeue.SubjectVoiceTranscribeResult, messagequeue.VoiceTranscribeResultPayload{
		RequestID: req.RequestID,
		Text:      "какие права у заёмщика",
	})

	r := <-done
	if r.err != nil {
		t.Fatalf("transcribe: %v", r.err)
	}
	if r.text != "какие права у заёмщика" {
		t.Fatalf("unexpected transcript %q", r.text)
	}
}

func TestVoiceTranscribeWorkerError(t *testing.T) {
	queue := newMockQueue()
	svc := NewVoiceService(queue, testLogger())
	if _, err := svc.Start(context.Background()); err != nil {
		t.Fatalf("start: %v", err)
	}

	done := make(chan error, 1)
	go func() {
		_, err := svc.Transcribe(context.Background(), "https://example.com/bad.ogg", "")
		done <- err
	}()

	waitPublished(t, queue)
	var req messagequeue.VoiceTranscribeRequestPayload
	if err := json.Unmarshal(queue.lastPublished(t).data, &req); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	queue.deliver(t, messagequeue.SubjectVoiceTranscribeResult, messagequeue.VoiceTranscribeResultPayload{
		RequestID: req.RequestID,
		Error:     "unsupported codec",
	})

	if err := <-done; err == nil {
		t.Fatal("expected worker error to surface")
	}
}

func TestVoiceTranscribeDisconnectedQueue(t *testing.T) {
	queue := newMockQueue()
	queue.connected = false
	svc := NewVoiceService(queue, testLogger())

	_, err := svc.Transcribe(context.Background(), "https://example.com/note.ogg", "")
	if !errors.Is(err, ErrVoiceUnavailable) {
		t.Fatalf("expected ErrVoiceUnavailable, got %v", err)
	}
}

func TestVoiceTranscribeContextDeadline(t *testing.T) {
	queue := newMockQueue()
	svc := NewVoiceService(queue, testLogger())

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := svc.Transcribe(ctx, "https://example.com/note.ogg", "")
	if !errors.Is(err, ErrVoiceUnavailable) {
		t.Fatalf("expected ErrVoiceUnavailable on deadline, got %v", err)
	}
}
