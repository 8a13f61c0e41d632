package ws

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/coder/websocket"

	"github.com/lawgpt-ru/lawgpt-core/internal/service"
)

// clientRequest is the first frame a client sends after connecting.
type clientRequest struct {
	UserID         string `json:"user_id"`
	ConversationID string `json:"conversation_id"`
	Message        string `json:"message"`
	ImageURL       string `json:"image_url"`
}

// Handler upgrades /ws/chat requests and runs one query lifecycle per
// connection.
type Handler struct {
	chat *service.ChatService
	log  *slog.Logger
}

// NewHandler creates a chat WebSocket handler.
func NewHandler(chat *service.ChatService, log *slog.Logger) *Handler {
	return &Handler{chat: chat, log: log}
}

// ServeHTTP accepts the WebSocket, reads the query frame and streams
// processing events back until a terminal event is sent.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		InsecureSkipVerify: true, // CORS handled by middleware
	})
	if err != nil {
		h.log.Error("websocket accept failed", "error", err)
		return
	}

	session := NewSession(conn)
	defer session.Close()

	h.log.Info("websocket connected", "remote", r.RemoteAddr)

	_, frame, err := conn.Read(r.Context())
	if err != nil {
		h.log.Debug("websocket closed before query frame", "error", err)
		return
	}

	var req clientRequest
	if err := json.Unmarshal(frame, &req); err != nil {
		h.log.Warn("malformed query frame", "error", err)
		return
	}

	// Disconnects must not abort processing: persistence and agent work
	// finish even when the client is gone, so the pipeline runs on a
	// context detached from the request.
	ctx := context.WithoutCancel(r.Context())

	// Read loop only detects disconnects and consumes pings.
	go func() {
		for {
			if _, _, err := conn.Read(ctx); err != nil {
				session.Detach()
				h.log.Info("websocket disconnected", "remote", r.RemoteAddr)
				return
			}
		}
	}()

	h.chat.ProcessQuery(ctx, service.ChatRequest{
		UserID:         req.UserID,
		ConversationID: req.ConversationID,
		Message:        req.Message,
		ImageURL:       req.ImageURL,
	}, session)
}
