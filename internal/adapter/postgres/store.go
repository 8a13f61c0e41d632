package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/lawgpt-ru/lawgpt-core/internal/domain"
	"github.com/lawgpt-ru/lawgpt-core/internal/domain/conversation"
)

// Store implements database.Store using PostgreSQL.
type Store struct {
	pool *pgxpool.Pool
}

// NewStore creates a new Store backed by the given connection pool.
func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

// --- Conversations ---

func (s *Store) CreateConversation(ctx context.Context, userID, title string) (*conversation.Conversation, error) {
	var c conversation.Conversation
	err := s.pool.QueryRow(ctx,
		`INSERT INTO conversations (user_id, title)
		 VALUES ($1, $2)
		 RETURNING id, user_id, title, created_at, last_message_at`,
		userID, title,
	).Scan(&c.ID, &c.UserID, &c.Title, &c.CreatedAt, &c.LastMessageAt)
	if err != nil {
		return nil, fmt.Errorf("create conversation: %w", err)
	}
	return &c, nil
}

func (s *Store) GetConversation(ctx context.Context, id string) (*conversation.Conversation, error) {
	var c conversation.Conversation
	err := s.pool.QueryRow(ctx,
		`SELECT id, user_id, title, created_at, last_message_at
		 FROM conversations WHERE id = $1`, id,
	).Scan(&c.ID, &c.UserID, &c.Title, &c.CreatedAt, &c.LastMessageAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("get conversation %s: %w", id, domain.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get conversation: %w", err)
	}
	return &c, nil
}

func (s *Store) ListConversations(ctx context.Context, userID string) ([]conversation.Conversation, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, user_id, title, created_at, last_message_at
		 FROM conversations WHERE user_id = $1
		 ORDER BY last_message_at DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("list conversations: %w", err)
	}
	defer rows.Close()

	var out []conversation.Conversation
	for rows.Next() {
		var c conversation.Conversation
		if err := rows.Scan(&c.ID, &c.UserID, &c.Title, &c.CreatedAt, &c.LastMessageAt); err != nil {
			return nil, fmt.Errorf("scan conversation: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (s *Store) TouchConversation(ctx context.Context, id string) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE conversations SET last_message_at = now() WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("touch conversation: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("touch conversation %s: %w", id, domain.ErrNotFound)
	}
	return nil
}

// --- Messages ---

func (s *Store) AppendMessage(ctx context.Context, conversationID, role, content string) (*conversation.Message, error) {
	var m conversation.Message
	err := s.pool.QueryRow(ctx,
		`INSERT INTO messages (conversation_id, role, content)
		 VALUES ($1, $2, $3)
		 RETURNING id, conversation_id, role, content, likes, dislikes, created_at`,
		conversationID, role, content,
	).Scan(&m.ID, &m.ConversationID, &m.Role, &m.Content, &m.Likes, &m.Dislikes, &m.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("append message: %w", err)
	}
	return &m, nil
}

func (s *Store) UpdateMessageContent(ctx context.Context, messageID, content string) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE messages SET content = $2 WHERE id = $1`, messageID, content)
	if err != nil {
		return fmt.Errorf("update message content: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("update message %s: %w", messageID, domain.ErrNotFound)
	}
	return nil
}

func (s *Store) ListMessages(ctx context.Context, conversationID string) ([]conversation.Message, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, conversation_id, role, content, likes, dislikes, created_at
		 FROM messages WHERE conversation_id = $1
		 ORDER BY created_at`, conversationID)
	if err != nil {
		return nil, fmt.Errorf("list messages: %w", err)
	}
	defer rows.Close()

	var out []conversation.Message
	for rows.Next() {
		var m conversation.Message
		if err := rows.Scan(&m.ID, &m.ConversationID, &m.Role, &m.Content, &m.Likes, &m.Dislikes, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan message: %w", err)
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

func (s *Store) AddMessageFeedback(ctx context.Context, messageID string, like bool) error {
	column := "dislikes"
	if like {
		column = "likes"
	}
	// column comes from the two literals above, never from user input.
	tag, err := s.pool.Exec(ctx,
		fmt.Sprintf(`UPDATE messages SET %s = %s + 1 WHERE id = $1`, column, column), messageID)
	if err != nil {
		return fmt.Errorf("add message feedback: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("feedback for message %s: %w", messageID, domain.ErrNotFound)
	}
	return nil
}

// --- Agent logs ---

func (s *Store) CreateAgentLog(ctx context.Context, messageID, agentType, status string) (*conversation.AgentLog, error) {
	var l conversation.AgentLog
	err := s.pool.QueryRow(ctx,
		`INSERT INTO agent_logs (message_id, agent_type, status)
		 VALUES ($1, $2, $3)
		 RETURNING id, message_id, agent_type, status, output, created_at`,
		messageID, agentType, status,
	).Scan(&l.ID, &l.MessageID, &l.AgentType, &l.Status, &l.Output, &l.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("create agent log: %w", err)
	}
	return &l, nil
}

func (s *Store) UpdateAgentLog(ctx context.Context, logID, status, output string) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE agent_logs SET status = $2, output = $3 WHERE id = $1`,
		logID, status, output)
	if err != nil {
		return fmt.Errorf("update agent log: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("update agent log %s: %w", logID, domain.ErrNotFound)
	}
	return nil
}
