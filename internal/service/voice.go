package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/lawgpt-ru/lawgpt-core/internal/port/messagequeue"
)

const transcribeTimeout = 60 * time.Second

// ErrVoiceUnavailable is returned when the queue is down or the worker
// does not answer in time.
var ErrVoiceUnavailable = errors.New("voice transcription unavailable")

// VoiceService forwards voice notes to the external Whisper worker over
// the message queue and correlates results by request ID.
type VoiceService struct {
	queue messagequeue.Queue
	log   *slog.Logger

	mu      sync.Mutex
	waiters map[string]chan *messagequeue.VoiceTranscribeResultPayload
}

// NewVoiceService creates a VoiceService.
func NewVoiceService(queue messagequeue.Queue, log *slog.Logger) *VoiceService {
	return &VoiceService{
		queue:   queue,
		log:     log,
		waiters: make(map[string]chan *messagequeue.VoiceTranscribeResultPayload),
	}
}

// Start subscribes to transcription results. The returned cancel stops
// the subscription.
func (s *VoiceService) Start(ctx context.Context) (func(), error) {
	return s.queue.Subscribe(ctx, messagequeue.SubjectVoiceTranscribeResult, s.handleResult)
}

func (s *VoiceService) handleResult(_ context.Context, _ string, data []byte) error {
	var payload messagequeue.VoiceTranscribeResultPayload
	if err := json.Unmarshal(data, &payload); err != nil {
		return fmt.Errorf("unmarshal voice result: %w", err)
	}

	s.mu.Lock()
	ch, ok := s.waiters[payload.RequestID]
	if ok {
		delete(s.waiters, payload.RequestID)
	}
	s.mu.Unlock()

	if !ok {
		// Late result after the waiter timed out; nothing to deliver.
		s.log.Debug("voice result with no waiter", "request_id", payload.RequestID)
		return nil
	}
	ch <- &payload
	return nil
}

// Transcribe publishes a transcription request and waits for the worker
// result.
func (s *VoiceService) Transcribe(ctx context.Context, audioURL, language string) (string, error) {
	if !s.queue.IsConnected() {
		return "", ErrVoiceUnavailable
	}

	requestID := uuid.NewString()
	payload := messagequeue.VoiceTranscribeRequestPayload{
		RequestID: requestID,
		AudioURL:  audioURL,
		Language:  language,
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("marshal voice request: %w", err)
	}

	ch := make(chan *messagequeue.VoiceTranscribeResultPayload, 1)
	s.mu.Lock()
	s.waiters[requestID] = ch
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		delete(s.waiters, requestID)
		s.mu.Unlock()
	}()

	if err := s.queue.Publish(ctx, messagequeue.SubjectVoiceTranscribeRequest, data); err != nil {
		return "", fmt.Errorf("publish voice request: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, transcribeTimeout)
	defer cancel()

	select {
	case result := <-ch:
		if result.Error != "" {
			return "", fmt.Errorf("transcription failed: %s", result.Error)
		}
		return result.Text, nil
	case <-ctx.Done():
		s.log.Warn("voice transcription timed out", "request_id", requestID)
		return "", ErrVoiceUnavailable
	}
}
