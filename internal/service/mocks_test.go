package service

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/lawgpt-ru/lawgpt-core/internal/domain"
	"github.com/lawgpt-ru/lawgpt-core/internal/domain/conversation"
	"github.com/lawgpt-ru/lawgpt-core/internal/domain/event"
	"github.com/lawgpt-ru/lawgpt-core/internal/domain/retrieval"
	"github.com/lawgpt-ru/lawgpt-core/internal/port/database"
	"github.com/lawgpt-ru/lawgpt-core/internal/port/llm"
	"github.com/lawgpt-ru/lawgpt-core/internal/port/search"
	"github.com/lawgpt-ru/lawgpt-core/internal/port/stream"
)

// Ensure mock types implement their interfaces at compile time.
var (
	_ search.Searcher  = (*mockSearcher)(nil)
	_ llm.Completer    = (*mockCompleter)(nil)
	_ database.Store   = (*mockStore)(nil)
	_ stream.Transport = (*mockTransport)(nil)
)

func testLogger() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

// mockSearcher returns canned snippets per category and counts calls.
type mockSearcher struct {
	mu       sync.Mutex
	snippets map[retrieval.Category][]retrieval.Snippet
	calls    int
	indexed  []map[string]any
}

func (m *mockSearcher) Search(_ context.Context, _ string, topN int, category retrieval.Category) []retrieval.Snippet {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	out := m.snippets[category]
	if len(out) > topN {
		out = out[:topN]
	}
	return out
}

func (m *mockSearcher) Index(_ context.Context, _ string, doc map[string]any) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.indexed = append(m.indexed, doc)
	return nil
}

func (m *mockSearcher) searchCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

// mockCompleter routes each call through respond and counts calls.
type mockCompleter struct {
	calls   atomic.Int64
	respond func(req llm.Request) llm.Result
}

func (m *mockCompleter) Complete(_ context.Context, req llm.Request) llm.Result {
	m.calls.Add(1)
	if m.respond == nil {
		return llm.Result{Success: true, Text: "ok"}
	}
	return m.respond(req)
}

// mockStore is an in-memory database.Store.
type mockStore struct {
	mu            sync.Mutex
	seq           int
	conversations map[string]*conversation.Conversation
	messages      map[string]*conversation.Message
	agentLogs     map[string]*conversation.AgentLog

	failAppend bool
}

func newMockStore() *mockStore {
	return &mockStore{
		conversations: make(map[string]*conversation.Conversation),
		messages:      make(map[string]*conversation.Message),
		agentLogs:     make(map[string]*conversation.AgentLog),
	}
}

func (m *mockStore) nextID(prefix string) string {
	m.seq++
	return fmt.Sprintf("%s-%d", prefix, m.seq)
}

func (m *mockStore) CreateConversation(_ context.Context, userID, title string) (*conversation.Conversation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c := &conversation.Conversation{ID: m.nextID("conv"), UserID: userID, Title: title}
	m.conversations[c.ID] = c
	return c, nil
}

func (m *mockStore) GetConversation(_ context.Context, id string) (*conversation.Conversation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.conversations[id]
	if !ok {
		return nil, fmt.Errorf("conversation %s: %w", id, domain.ErrNotFound)
	}
	return c, nil
}

func (m *mockStore) ListConversations(_ context.Context, userID string) ([]conversation.Conversation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []conversation.Conversation
	for _, c := range m.conversations {
		if c.UserID == userID {
			out = append(out, *c)
		}
	}
	return out, nil
}

func (m *mockStore) TouchConversation(_ context.Context, id string) error {
	return nil
}

func (m *mockStore) AppendMessage(_ context.Context, conversationID, role, content string) (*conversation.Message, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failAppend {
		return nil, fmt.Errorf("append message: store down")
	}
	msg := &conversation.Message{ID: m.nextID("msg"), ConversationID: conversationID, Role: role, Content: content}
	m.messages[msg.ID] = msg
	return msg, nil
}

func (m *mockStore) UpdateMessageContent(_ context.Context, messageID, content string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	msg, ok := m.messages[messageID]
	if !ok {
		return fmt.Errorf("message %s: %w", messageID, domain.ErrNotFound)
	}
	msg.Content = content
	return nil
}

func (m *mockStore) ListMessages(_ context.Context, conversationID string) ([]conversation.Message, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []conversation.Message
	for _, msg := range m.messages {
		if msg.ConversationID == conversationID {
			out = append(out, *msg)
		}
	}
	return out, nil
}

func (m *mockStore) AddMessageFeedback(_ context.Context, messageID string, like bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	msg, ok := m.messages[messageID]
	if !ok {
		return fmt.Errorf("message %s: %w", messageID, domain.ErrNotFound)
	}
	if like {
		msg.Likes++
	} else {
		msg.Dislikes++
	}
	return nil
}

func (m *mockStore) CreateAgentLog(_ context.Context, messageID, agentType, status string) (*conversation.AgentLog, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	logRow := &conversation.AgentLog{ID: m.nextID("log"), MessageID: messageID, AgentType: agentType, Status: status}
	m.agentLogs[logRow.ID] = logRow
	return logRow, nil
}

func (m *mockStore) UpdateAgentLog(_ context.Context, logID, status, output string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	logRow, ok := m.agentLogs[logID]
	if !ok {
		return fmt.Errorf("agent log %s: %w", logID, domain.ErrNotFound)
	}
	logRow.Status = status
	logRow.Output = output
	return nil
}

func (m *mockStore) message(t *testing.T, id string) conversation.Message {
	t.Helper()
	m.mu.Lock()
	defer m.mu.Unlock()
	msg, ok := m.messages[id]
	if !ok {
		t.Fatalf("message %s not found", id)
	}
	return *msg
}

// mockTransport records every sent event and flags sends after a
// terminal event.
type mockTransport struct {
	mu       sync.Mutex
	events   []event.Event
	terminal bool
	lateSend bool
}

func (m *mockTransport) Send(_ context.Context, e event.Event) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.terminal {
		m.lateSend = true
	}
	m.events = append(m.events, e)
	if e.Terminal() {
		m.terminal = true
	}
	return nil
}

func (m *mockTransport) types() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, len(m.events))
	for i, e := range m.events {
		out[i] = e.Type
	}
	return out
}

func (m *mockTransport) last() event.Event {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.events) == 0 {
		return event.Event{}
	}
	return m.events[len(m.events)-1]
}
