package http

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/lawgpt-ru/lawgpt-core/internal/port/database"
	"github.com/lawgpt-ru/lawgpt-core/internal/service"
)

const defaultBodyLimit = 1 << 20 // 1 MiB

// HealthCheck probes one dependency.
type HealthCheck func(ctx context.Context) error

// Handlers bundles the REST endpoints around the streaming chat API:
// conversation history, message feedback, voice transcription, health.
type Handlers struct {
	store  database.Store
	voice  *service.VoiceService
	checks map[string]HealthCheck
	log    *slog.Logger
}

// NewHandlers creates the handler set. checks maps component names to
// their probes; voice may be nil when the queue is not configured.
func NewHandlers(store database.Store, voice *service.VoiceService, checks map[string]HealthCheck, log *slog.Logger) *Handlers {
	return &Handlers{store: store, voice: voice, checks: checks, log: log}
}

// Health reports per-component reachability.
func (h *Handlers) Health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	status := http.StatusOK
	components := make(map[string]string, len(h.checks))
	overall := "ok"
	for name, check := range h.checks {
		if err := check(ctx); err != nil {
			components[name] = err.Error()
			overall = "degraded"
			status = http.StatusServiceUnavailable
		} else {
			components[name] = "ok"
		}
	}

	writeJSON(w, status, map[string]any{
		"status":     overall,
		"components": components,
	})
}

// ListConversations returns the user's conversations, newest first.
func (h *Handlers) ListConversations(w http.ResponseWriter, r *http.Request) {
	userID := r.URL.Query().Get("user_id")
	if !requireField(w, userID, "user_id") {
		return
	}

	conversations, err := h.store.ListConversations(r.Context(), userID)
	if err != nil {
		writeDomainError(w, err, "conversations not found")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"conversations": conversations})
}

type createConversationRequest struct {
	UserID string `json:"user_id"`
	Title  string `json:"title"`
}

// CreateConversation creates an empty conversation.
func (h *Handlers) CreateConversation(w http.ResponseWriter, r *http.Request) {
	req, ok := readJSON[createConversationRequest](w, r, defaultBodyLimit)
	if !ok {
		return
	}
	if !requireField(w, req.UserID, "user_id") {
		return
	}
	if req.Title == "" {
		req.Title = "Новая беседа"
	}

	conv, err := h.store.CreateConversation(r.Context(), req.UserID, req.Title)
	if err != nil {
		writeDomainError(w, err, "conversation not created")
		return
	}
	writeJSON(w, http.StatusCreated, conv)
}

// ListMessages returns all messages in a conversation.
func (h *Handlers) ListMessages(w http.ResponseWriter, r *http.Request) {
	id := urlParam(r, "id")

	if _, err := h.store.GetConversation(r.Context(), id); err != nil {
		writeDomainError(w, err, "conversation not found")
		return
	}

	messages, err := h.store.ListMessages(r.Context(), id)
	if err != nil {
		writeDomainError(w, err, "messages not found")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"messages": messages})
}

type feedbackRequest struct {
	Like bool `json:"like"`
}

// MessageFeedback records a like or dislike on an assistant message.
func (h *Handlers) MessageFeedback(w http.ResponseWriter, r *http.Request) {
	id := urlParam(r, "id")
	req, ok := readJSON[feedbackRequest](w, r, defaultBodyLimit)
	if !ok {
		return
	}

	if err := h.store.AddMessageFeedback(r.Context(), id, req.Like); err != nil {
		writeDomainError(w, err, "message not found")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "recorded"})
}

type transcribeRequest struct {
	AudioURL string `json:"audio_url"`
	Language string `json:"language"`
}

// TranscribeVoice forwards a voice note to the transcription worker and
// returns the transcript.
func (h *Handlers) TranscribeVoice(w http.ResponseWriter, r *http.Request) {
	if h.voice == nil {
		writeError(w, http.StatusServiceUnavailable, "voice transcription is not configured")
		return
	}
	req, ok := readJSON[transcribeRequest](w, r, defaultBodyLimit)
	if !ok {
		return
	}
	if !requireField(w, req.AudioURL, "audio_url") {
		return
	}

	text, err := h.voice.Transcribe(r.Context(), req.AudioURL, req.Language)
	if err != nil {
		h.log.Error("voice transcription failed", "error", err)
		writeError(w, http.StatusBadGateway, "voice transcription failed")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"text": text})
}
