// Package database defines the database store port (interface).
package database

import (
	"context"

	"github.com/lawgpt-ru/lawgpt-core/internal/domain/conversation"
)

// Store is the port interface for conversation persistence.
type Store interface {
	// Conversations
	CreateConversation(ctx context.Context, userID, title string) (*conversation.Conversation, error)
	GetConversation(ctx context.Context, id string) (*conversation.Conversation, error)
	ListConversations(ctx context.Context, userID string) ([]conversation.Conversation, error)
	TouchConversation(ctx context.Context, id string) error

	// Messages
	AppendMessage(ctx context.Context, conversationID, role, content string) (*conversation.Message, error)
	UpdateMessageContent(ctx context.Context, messageID, content string) error
	ListMessages(ctx context.Context, conversationID string) ([]conversation.Message, error)
	AddMessageFeedback(ctx context.Context, messageID string, like bool) error

	// Agent logs
	CreateAgentLog(ctx context.Context, messageID, agentType, status string) (*conversation.AgentLog, error)
	UpdateAgentLog(ctx context.Context, logID, status, output string) error
}
