// Package event defines the stream events pushed to a connected client
// while a query is processed.
//
// For one connection the emission order is fixed: conversation_update,
// assistant_message, thinking, zero or more agent_status events, then
// exactly one terminal event (answer or error). Nothing follows the
// terminal event.
package event

import "encoding/json"

// Event types.
const (
	TypeConversationUpdate = "conversation_update"
	TypeAssistantMessage   = "assistant_message"
	TypeThinking           = "thinking"
	TypeAgentStatus        = "agent_status"
	TypeAnswer             = "answer"
	TypeError              = "error"
)

// Event is the envelope sent over the stream transport.
type Event struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// Terminal reports whether no further events may follow e.
func (e Event) Terminal() bool {
	return e.Type == TypeAnswer || e.Type == TypeError
}

// New marshals a typed payload into an Event envelope.
func New(eventType string, payload any) Event {
	data, err := json.Marshal(payload)
	if err != nil {
		// Payload types are value structs below; marshal cannot fail for them.
		data = []byte("{}")
	}
	return Event{Type: eventType, Payload: data}
}

// ConversationUpdatePayload reports the persisted conversation and user
// message identifiers.
type ConversationUpdatePayload struct {
	ConversationID string `json:"conversation_id"`
	UserMessageID  string `json:"user_message_id"`
}

// AssistantMessagePayload announces the in-flight assistant message.
type AssistantMessagePayload struct {
	MessageID string `json:"message_id"`
	Status    string `json:"status"`
}

// ThinkingPayload carries the classification plan.
type ThinkingPayload struct {
	Plan                string   `json:"plan"`
	Agents              []string `json:"agents"`
	ClarifyingQuestions []string `json:"clarifying_questions,omitempty"`
}

// AgentStatusPayload reports one specialist agent's completion or failure.
type AgentStatusPayload struct {
	Agent  string `json:"agent"`
	Status string `json:"status"` // "processing", "completed", "error"
	Error  string `json:"error,omitempty"`
}

// AnswerPayload is the terminal success event.
type AnswerPayload struct {
	MessageID string   `json:"message_id"`
	Answer    string   `json:"answer"`
	Reasoning []string `json:"reasoning,omitempty"`
}

// ErrorPayload is the terminal failure event.
type ErrorPayload struct {
	Content string `json:"content"`
}
