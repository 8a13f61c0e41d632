package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// MountRoutes registers the REST API routes on the given chi router.
// The streaming chat endpoint (/ws/chat) is mounted separately by the
// composition root.
func MountRoutes(r chi.Router, h *Handlers) {
	r.Get("/health", h.Health)

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/", func(w http.ResponseWriter, _ *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"version":"0.1.0"}`))
		})

		// Conversations
		r.Get("/conversations", h.ListConversations)
		r.Post("/conversations", h.CreateConversation)
		r.Get("/conversations/{id}/messages", h.ListMessages)

		// Message feedback
		r.Post("/messages/{id}/feedback", h.MessageFeedback)

		// Voice notes
		r.Post("/voice/transcriptions", h.TranscribeVoice)
	})
}
