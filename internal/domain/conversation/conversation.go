// Package conversation defines the persisted chat entities.
package conversation

import (
	"strings"
	"time"
	"unicode/utf8"
)

// Message roles.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Agent log processing statuses.
const (
	LogQueued     = "queued"
	LogProcessing = "processing"
	LogCompleted  = "completed"
	LogError      = "error"
)

// Conversation is one chat thread owned by a user.
type Conversation struct {
	ID            string    `json:"id"`
	UserID        string    `json:"user_id"`
	Title         string    `json:"title"`
	CreatedAt     time.Time `json:"created_at"`
	LastMessageAt time.Time `json:"last_message_at"`
}

// Message is a single user or assistant message. An assistant message is
// created empty, progressively rewritten while the pipeline runs, and
// becomes immutable once finalized.
type Message struct {
	ID             string    `json:"id"`
	ConversationID string    `json:"conversation_id"`
	Role           string    `json:"role"`
	Content        string    `json:"content"`
	Likes          int       `json:"likes"`
	Dislikes       int       `json:"dislikes"`
	CreatedAt      time.Time `json:"created_at"`
}

// AgentLog records one agent's processing step for an assistant message.
type AgentLog struct {
	ID        string    `json:"id"`
	MessageID string    `json:"message_id"`
	AgentType string    `json:"agent_type"`
	Status    string    `json:"status"`
	Output    string    `json:"output,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// TitleFrom derives a conversation title from the first query: the first
// 30 runes, with an ellipsis when truncated.
func TitleFrom(query string) string {
	query = strings.TrimSpace(query)
	if utf8.RuneCountInString(query) <= 30 {
		return query
	}
	runes := []rune(query)
	return string(runes[:30]) + "..."
}
