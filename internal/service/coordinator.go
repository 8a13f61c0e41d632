package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/lawgpt-ru/lawgpt-core/internal/adapter/otel"
	"github.com/lawgpt-ru/lawgpt-core/internal/config"
	"github.com/lawgpt-ru/lawgpt-core/internal/domain/agent"
	"github.com/lawgpt-ru/lawgpt-core/internal/domain/plan"
	"github.com/lawgpt-ru/lawgpt-core/internal/domain/query"
	"github.com/lawgpt-ru/lawgpt-core/internal/domain/retrieval"
	"github.com/lawgpt-ru/lawgpt-core/internal/port/llm"
	"github.com/lawgpt-ru/lawgpt-core/internal/port/search"
)

const classifySystemHeader = `Вы - координатор системы из специализированных юридических агентов. Ваша задача - проанализировать запрос пользователя и определить, какие агенты должны быть вовлечены в подготовку ответа и в каком порядке.

Доступные агенты:
`

const classifySystemFooter = `
Проанализируйте запрос пользователя и определите:
1. Какие агенты должны быть вовлечены (не всегда нужны все)
2. В каком порядке они должны работать
3. Какие уточняющие вопросы следует задать пользователю

Ответьте в формате JSON:
{
    "agents": ["agent1", "agent2"],
    "clarifying_questions": ["Вопрос 1?", "Вопрос 2?"],
    "plan": "Краткое описание плана подготовки ответа"
}`

const synthesizeSystem = `Вы - координатор системы из специализированных юридических агентов. Ваша задача - синтезировать финальный ответ на основе результатов работы всех вовлеченных агентов.

Ответ должен быть хорошо структурирован и содержать следующие разделы:
1. Суть запроса
2. Нормативная база
3. Анализ
4. Судебная практика (если применимо)
5. Выводы
6. Рекомендации

Ответ должен быть профессиональным, информативным и полезным для пользователя.`

// CoordinatorService runs the multi-agent pipeline for one query:
// classification, fan-out dispatch, synthesis. Every step degrades
// locally; none of them fails the flow.
type CoordinatorService struct {
	registry *Registry
	searcher search.Searcher
	llm      llm.Completer
	cfg      *config.Coordinator
	metrics  *otel.Metrics
	log      *slog.Logger
}

// NewCoordinatorService creates a CoordinatorService. metrics may be nil.
func NewCoordinatorService(registry *Registry, searcher search.Searcher, completer llm.Completer,
	cfg *config.Coordinator, metrics *otel.Metrics, log *slog.Logger) *CoordinatorService {
	return &CoordinatorService{
		registry: registry,
		searcher: searcher,
		llm:      completer,
		cfg:      cfg,
		metrics:  metrics,
		log:      log,
	}
}

// Classify decides which specialists handle the query. Image-only input
// short-circuits to the document analysis plan without touching the
// search index or the model. Any classification failure falls back to
// the default plan; Classify never fails the flow.
func (s *CoordinatorService) Classify(ctx context.Context, q query.Query) *plan.AgentPlan {
	ctx, span := otel.StartClassifySpan(ctx)
	defer span.End()

	if q.HasImage() && q.TextEmpty() {
		return plan.ImageOnly()
	}

	grounding := s.searcher.Search(ctx, q.Text, s.cfg.ClassifyTopN, retrieval.CategoryLaws)

	res := s.llm.Complete(ctx, llm.Request{
		Prompt:      classifyPrompt(q.Text, grounding),
		System:      classifySystem(),
		MaxTokens:   s.cfg.ClassifyMaxTokens,
		Temperature: s.cfg.Temperature,
	})
	if !res.Success {
		s.log.Error("classification call failed, using default plan", "error", res.Err)
		return plan.Default()
	}

	p, dropped, err := plan.Parse(res.Text)
	if err != nil {
		s.log.Error("classification output unparseable, using default plan", "error", err)
		return plan.Default()
	}
	for _, name := range dropped {
		s.log.Warn("classifier named unknown agent, dropped", "agent", name)
	}
	if len(p.Agents) == 0 {
		s.log.Warn("classifier returned no known agents, using default plan")
		return plan.Default()
	}
	return p
}

// classifySystem builds the classifier system prompt from the agent
// registry descriptions, in registry order.
func classifySystem() string {
	var b strings.Builder
	b.WriteString(classifySystemHeader)
	for i, k := range agent.Kinds() {
		fmt.Fprintf(&b, "%d. %s - %s\n", i+1, k, k.Description())
	}
	b.WriteString(classifySystemFooter)
	return b.String()
}

func classifyPrompt(queryText string, grounding []retrieval.Snippet) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Запрос пользователя: %s\n\n", queryText)
	if len(grounding) > 0 {
		b.WriteString("Найдена следующая релевантная правовая информация:\n")
		for i, sn := range grounding {
			fmt.Fprintf(&b, "%d. %s: %s\n\n", i+1, sn.Title, sn.Content)
		}
	}
	b.WriteString("Проанализируйте запрос и определите агентов и вопросы.")
	return b.String()
}

// Dispatch runs every planned agent concurrently and joins all results.
// One agent's failure, timeout or panic never affects the others: it is
// recorded as a failure-tagged result. onResult, when non-nil, is
// invoked sequentially as each agent finishes, in completion order.
func (s *CoordinatorService) Dispatch(ctx context.Context, q query.Query, p *plan.AgentPlan,
	onResult func(agent.Kind, agent.Result)) agent.Context {

	results := make(chan agent.Result, len(p.Agents))

	g, gctx := errgroup.WithContext(ctx)
	for _, kind := range p.Agents {
		g.Go(func() error {
			results <- s.runAgent(gctx, kind, q)
			return nil
		})
	}
	go func() {
		_ = g.Wait() // agents never return errors

		close(results)
	}()

	out := make(agent.Context, len(p.Agents))
	for r := range results {
		out[r.Agent] = r
		if onResult != nil {
			onResult(r.Agent, r)
		}
	}
	return out
}

// runAgent executes one specialist under the per-agent deadline with
// panic containment.
func (s *CoordinatorService) runAgent(ctx context.Context, kind agent.Kind, q query.Query) (out agent.Result) {
	if s.metrics != nil {
		s.metrics.AgentCalls.Add(ctx, 1)
	}
	defer func() {
		if !out.OK && s.metrics != nil {
			s.metrics.AgentFailures.Add(ctx, 1)
		}
	}()

	spec, ok := s.registry.Lookup(kind)
	if !ok {
		// Classify only emits registered kinds; a miss here means the
		// registry was wired without this specialist.
		s.log.Error("no specialist registered", "agent", kind)
		return agent.Failure(kind, fmt.Sprintf("агент %s недоступен", kind))
	}

	ctx, span := otel.StartAgentSpan(ctx, string(kind))
	defer span.End()

	ctx, cancel := context.WithTimeout(ctx, s.cfg.AgentTimeout)
	defer cancel()

	done := make(chan agent.Result, 1)
	go func() {
		defer func() {
			if rec := recover(); rec != nil {
				s.log.Error("agent panicked", "agent", kind, "panic", rec)
				done <- agent.Failure(kind, fmt.Sprintf("внутренняя ошибка агента: %v", rec))
			}
		}()
		done <- spec.ProcessQuery(ctx, q)
	}()

	select {
	case r := <-done:
		return r
	case <-ctx.Done():
		s.log.Warn("agent deadline exceeded", "agent", kind, "timeout", s.cfg.AgentTimeout)
		return agent.Failure(kind, "превышено время ожидания ответа агента")
	}
}

// Synthesize produces the final answer and the reasoning trace. The
// trace lists the classification rationale, each agent's outcome in
// plan order, then the synthesis step. Synthesize always returns a
// non-empty answer; an LLM failure yields a localized error string.
func (s *CoordinatorService) Synthesize(ctx context.Context, q query.Query, p *plan.AgentPlan,
	agentCtx agent.Context) (answer string, reasoning []string) {

	ctx, span := otel.StartSynthesizeSpan(ctx, len(p.Agents))
	defer span.End()

	reasoning = append(reasoning, "Анализ запроса: "+p.Summary)
	for _, kind := range p.Agents {
		r, ok := agentCtx[kind]
		switch {
		case ok && r.OK:
			reasoning = append(reasoning, fmt.Sprintf("Запрос к агенту %s: ✓", kind))
		case ok:
			reasoning = append(reasoning, fmt.Sprintf("Запрос к агенту %s: ❌ (%s)", kind, r.Err))
		default:
			reasoning = append(reasoning, fmt.Sprintf("Запрос к агенту %s: результат не получен", kind))
		}
	}
	reasoning = append(reasoning, "Формирование итогового ответа")

	grounding := s.searcher.Search(ctx, q.Text, s.cfg.SynthesizeTopN, retrieval.CategoryLaws)

	res := s.llm.Complete(ctx, llm.Request{
		Prompt:      synthesizePrompt(q.Text, grounding, p, agentCtx),
		System:      synthesizeSystem,
		MaxTokens:   s.cfg.AnswerMaxTokens,
		Temperature: s.cfg.Temperature,
	})
	if !res.Success {
		s.log.Error("synthesis call failed", "error", res.Err)
		return fmt.Sprintf("Произошла ошибка при синтезе ответа: %s", res.Err), reasoning
	}
	return res.Text, reasoning
}

func synthesizePrompt(queryText string, grounding []retrieval.Snippet, p *plan.AgentPlan, agentCtx agent.Context) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Запрос пользователя: %s\n\n", queryText)

	if len(grounding) > 0 {
		b.WriteString("Релевантная правовая информация:\n")
		for i, sn := range grounding {
			fmt.Fprintf(&b, "%d. %s: %s\n\n", i+1, sn.Title, sn.Content)
		}
	}

	for _, kind := range p.Agents {
		r, ok := agentCtx[kind]
		if !ok {
			continue
		}
		data, err := json.Marshal(r)
		if err != nil {
			data = []byte(r.Analysis)
		}
		fmt.Fprintf(&b, "Результат работы агента %s:\n%s\n\n", kind, data)
	}

	b.WriteString("Пожалуйста, синтезируйте финальный ответ на запрос пользователя.")
	return b.String()
}
