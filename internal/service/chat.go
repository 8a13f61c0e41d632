package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/lawgpt-ru/lawgpt-core/internal/adapter/otel"
	"github.com/lawgpt-ru/lawgpt-core/internal/domain"
	"github.com/lawgpt-ru/lawgpt-core/internal/domain/agent"
	"github.com/lawgpt-ru/lawgpt-core/internal/domain/conversation"
	"github.com/lawgpt-ru/lawgpt-core/internal/domain/event"
	"github.com/lawgpt-ru/lawgpt-core/internal/domain/plan"
	"github.com/lawgpt-ru/lawgpt-core/internal/domain/query"
	"github.com/lawgpt-ru/lawgpt-core/internal/port/database"
	"github.com/lawgpt-ru/lawgpt-core/internal/port/stream"
)

// coordinatorAgentType is the agent_logs row recorded for the
// classification step itself.
const coordinatorAgentType = "coordinator"

// ChatRequest is one incoming user turn.
type ChatRequest struct {
	UserID         string
	ConversationID string
	Message        string
	ImageURL       string
}

// ChatService runs the full query lifecycle: persistence, streaming
// progress events, coordinator pipeline, final answer write. A client
// disconnect never interrupts the lifecycle; only store failures abort
// it, with a terminal error event.
type ChatService struct {
	store       database.Store
	coordinator *CoordinatorService
	metrics     *otel.Metrics
	log         *slog.Logger
}

// NewChatService creates a ChatService. metrics may be nil.
func NewChatService(store database.Store, coordinator *CoordinatorService, metrics *otel.Metrics, log *slog.Logger) *ChatService {
	return &ChatService{store: store, coordinator: coordinator, metrics: metrics, log: log}
}

// ProcessQuery handles one user turn end to end. Exactly one terminal
// event (answer or error) is sent on the transport; nothing follows it.
func (s *ChatService) ProcessQuery(ctx context.Context, req ChatRequest, transport stream.Transport) {
	ctx, span := otel.StartQuerySpan(ctx, req.ConversationID, req.ImageURL != "")
	defer span.End()

	start := time.Now()
	if s.metrics != nil {
		s.metrics.QueriesStarted.Add(ctx, 1)
		defer func() {
			s.metrics.QueryDuration.Record(ctx, time.Since(start).Seconds())
		}()
	}

	q := query.Query{Text: req.Message, ImageURL: req.ImageURL, ConversationID: req.ConversationID}
	if q.TextEmpty() && !q.HasImage() {
		s.fail(ctx, transport, "Пустой запрос. Введите текст вопроса или приложите документ.", domain.ErrValidation)
		return
	}

	conv, err := s.resolveConversation(ctx, req)
	if err != nil {
		s.fail(ctx, transport, "Беседа не найдена", err)
		return
	}
	q.ConversationID = conv.ID

	if err := s.store.TouchConversation(ctx, conv.ID); err != nil {
		s.log.Warn("touch conversation failed", "conversation_id", conv.ID, "error", err)
	}

	userMsg, err := s.store.AppendMessage(ctx, conv.ID, conversation.RoleUser, req.Message)
	if err != nil {
		s.fail(ctx, transport, "Извините, произошла ошибка при обработке вашего запроса", err)
		return
	}

	s.send(ctx, transport, event.New(event.TypeConversationUpdate, event.ConversationUpdatePayload{
		ConversationID: conv.ID,
		UserMessageID:  userMsg.ID,
	}))

	asst, err := s.store.AppendMessage(ctx, conv.ID, conversation.RoleAssistant, "")
	if err != nil {
		s.fail(ctx, transport, "Извините, произошла ошибка при обработке вашего запроса", err)
		return
	}

	s.send(ctx, transport, event.New(event.TypeAssistantMessage, event.AssistantMessagePayload{
		MessageID: asst.ID,
		Status:    conversation.LogProcessing,
	}))

	coordLog, err := s.store.CreateAgentLog(ctx, asst.ID, coordinatorAgentType, conversation.LogProcessing)
	if err != nil {
		s.fail(ctx, transport, "Извините, произошла ошибка при обработке вашего запроса", err)
		return
	}

	p := s.coordinator.Classify(ctx, q)
	s.updateAgentLog(ctx, coordLog.ID, conversation.LogCompleted, marshalForLog(p))

	s.send(ctx, transport, event.New(event.TypeThinking, event.ThinkingPayload{
		Plan:                p.Summary,
		Agents:              kindStrings(p.Agents),
		ClarifyingQuestions: p.ClarifyingQuestions,
	}))

	prog := newProgress(p)
	s.updateContent(ctx, asst.ID, prog.render())

	logIDs := s.createAgentLogs(ctx, asst.ID, p)

	agentCtx := s.coordinator.Dispatch(ctx, q, p, func(kind agent.Kind, r agent.Result) {
		status := conversation.LogCompleted
		if !r.OK {
			status = conversation.LogError
		}
		if logID, ok := logIDs[kind]; ok {
			s.updateAgentLog(ctx, logID, status, marshalForLog(r))
		}

		s.send(ctx, transport, event.New(event.TypeAgentStatus, event.AgentStatusPayload{
			Agent:  string(kind),
			Status: status,
			Error:  r.Err,
		}))

		prog.complete(kind, r)
		s.updateContent(ctx, asst.ID, prog.render())
	})

	prog.synthesizing = true
	s.updateContent(ctx, asst.ID, prog.render())

	answer, reasoning := s.coordinator.Synthesize(ctx, q, p, agentCtx)

	s.updateContent(ctx, asst.ID, answer)

	s.send(ctx, transport, event.New(event.TypeAnswer, event.AnswerPayload{
		MessageID: asst.ID,
		Answer:    answer,
		Reasoning: reasoning,
	}))

	if s.metrics != nil {
		s.metrics.QueriesCompleted.Add(ctx, 1)
	}
	s.log.Info("query completed",
		"conversation_id", conv.ID,
		"message_id", asst.ID,
		"agents", len(p.Agents),
		"failed_agents", len(agentCtx.Failed()),
		"duration", time.Since(start))
}

// resolveConversation loads the referenced conversation or creates a
// new one titled from the query.
func (s *ChatService) resolveConversation(ctx context.Context, req ChatRequest) (*conversation.Conversation, error) {
	if req.ConversationID == "" {
		title := conversation.TitleFrom(req.Message)
		if title == "" {
			title = "Анализ документа"
		}
		return s.store.CreateConversation(ctx, req.UserID, title)
	}

	conv, err := s.store.GetConversation(ctx, req.ConversationID)
	if err != nil {
		return nil, err
	}
	if conv.UserID != req.UserID {
		return nil, fmt.Errorf("conversation %s: %w", req.ConversationID, domain.ErrNotFound)
	}
	return conv, nil
}

// createAgentLogs records a processing row per planned agent and
// returns log IDs by kind.
func (s *ChatService) createAgentLogs(ctx context.Context, messageID string, p *plan.AgentPlan) map[agent.Kind]string {
	out := make(map[agent.Kind]string, len(p.Agents))
	for _, kind := range p.Agents {
		logRow, err := s.store.CreateAgentLog(ctx, messageID, string(kind), conversation.LogProcessing)
		if err != nil {
			s.log.Warn("create agent log failed", "agent", kind, "error", err)
			continue
		}
		out[kind] = logRow.ID
	}
	return out
}

func (s *ChatService) updateAgentLog(ctx context.Context, logID, status, output string) {
	if err := s.store.UpdateAgentLog(ctx, logID, status, output); err != nil {
		s.log.Warn("update agent log failed", "log_id", logID, "error", err)
	}
}

func (s *ChatService) updateContent(ctx context.Context, messageID, content string) {
	if err := s.store.UpdateMessageContent(ctx, messageID, content); err != nil {
		s.log.Warn("update message content failed", "message_id", messageID, "error", err)
	}
}

// send delivers an event best-effort; a detached transport never stops
// the pipeline.
func (s *ChatService) send(ctx context.Context, transport stream.Transport, e event.Event) {
	if err := transport.Send(ctx, e); err != nil {
		s.log.Debug("event send failed", "type", e.Type, "error", err)
	}
}

// fail emits the single terminal error event.
func (s *ChatService) fail(ctx context.Context, transport stream.Transport, userText string, err error) {
	s.log.Error("query aborted", "error", err)
	if s.metrics != nil {
		s.metrics.QueriesFailed.Add(ctx, 1)
	}
	s.send(ctx, transport, event.New(event.TypeError, event.ErrorPayload{Content: userText}))
}

// progress renders the interim assistant message content while agents
// run. The whole text is rebuilt on every change so concurrent agent
// completion order cannot scramble it.
type progress struct {
	plan         *plan.AgentPlan
	results      map[agent.Kind]agent.Result
	synthesizing bool
}

func newProgress(p *plan.AgentPlan) *progress {
	return &progress{plan: p, results: make(map[agent.Kind]agent.Result, len(p.Agents))}
}

func (pr *progress) complete(kind agent.Kind, r agent.Result) {
	pr.results[kind] = r
}

func (pr *progress) render() string {
	var b strings.Builder
	b.WriteString("⏳ Анализ запроса...\n\n")
	if len(pr.plan.ClarifyingQuestions) > 0 {
		b.WriteString("Для более точного ответа, пожалуйста, уточните:\n")
		for _, question := range pr.plan.ClarifyingQuestions {
			fmt.Fprintf(&b, "- %s\n", question)
		}
		b.WriteString("\nПродолжаю анализ на основе имеющейся информации...")
	}
	for _, kind := range pr.plan.Agents {
		fmt.Fprintf(&b, "\n\n⏳ Запрос к агенту: %s...", kind)
		if r, ok := pr.results[kind]; ok {
			if r.OK {
				b.WriteString(" ✓")
			} else {
				fmt.Fprintf(&b, " ❌ (Ошибка: %s)", r.Err)
			}
		}
	}
	if pr.synthesizing {
		b.WriteString("\n\n⏳ Формирование итогового ответа...")
	}
	return b.String()
}

func kindStrings(kinds []agent.Kind) []string {
	out := make([]string, len(kinds))
	for i, k := range kinds {
		out[i] = string(k)
	}
	return out
}

func marshalForLog(v any) string {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprint(v)
	}
	return string(data)
}
