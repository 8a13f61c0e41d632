// Package ws implements the WebSocket adapter for streaming query
// processing. Each accepted connection gets its own Session; there is
// no shared connection registry.
package ws

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"sync"

	"github.com/coder/websocket"

	"github.com/lawgpt-ru/lawgpt-core/internal/domain/event"
)

// ErrSessionClosed is returned by Send after the session detached or a
// terminal event went out.
var ErrSessionClosed = errors.New("ws: session closed")

// Session wraps a single WebSocket connection and implements
// stream.Transport. Sends are serialized; after the first failed write
// the session detaches and all further sends fail fast, while the
// query pipeline keeps running to completion.
type Session struct {
	conn *websocket.Conn

	mu       sync.Mutex
	detached bool
	terminal bool
}

// NewSession wraps an accepted connection.
func NewSession(conn *websocket.Conn) *Session {
	return &Session{conn: conn}
}

// Send marshals the event and writes it as one text frame.
func (s *Session) Send(ctx context.Context, e event.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.detached || s.terminal {
		return ErrSessionClosed
	}

	data, err := json.Marshal(e)
	if err != nil {
		return err
	}

	if err := s.conn.Write(ctx, websocket.MessageText, data); err != nil {
		s.detached = true
		slog.Debug("websocket write failed, detaching session", "error", err)
		return ErrSessionClosed
	}

	if e.Terminal() {
		s.terminal = true
	}
	return nil
}

// Detach marks the session as gone. Safe to call concurrently with Send.
func (s *Session) Detach() {
	s.mu.Lock()
	s.detached = true
	s.mu.Unlock()
}

// Close sends a close frame and releases the connection.
func (s *Session) Close() {
	s.Detach()
	_ = s.conn.Close(websocket.StatusNormalClosure, "")
}
