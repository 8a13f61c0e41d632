// Package service implements the use cases of the LawGPT core: query
// classification, specialist agent dispatch, answer synthesis, chat
// persistence and streaming, voice transcription, web search.
package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/lawgpt-ru/lawgpt-core/internal/domain/agent"
	"github.com/lawgpt-ru/lawgpt-core/internal/domain/query"
	"github.com/lawgpt-ru/lawgpt-core/internal/domain/retrieval"
	"github.com/lawgpt-ru/lawgpt-core/internal/port/llm"
	"github.com/lawgpt-ru/lawgpt-core/internal/port/search"
)

// Specialist is one agent of the closed registry. ProcessQuery never
// returns a Go error: failures come back as failure-tagged results.
type Specialist interface {
	Kind() agent.Kind
	ProcessQuery(ctx context.Context, q query.Query) agent.Result
}

// Registry maps agent kinds to their implementations. Dispatch goes
// through the registry, never through a switch on agent names.
type Registry struct {
	agents map[agent.Kind]Specialist
}

// NewRegistry builds a registry from the given specialists. A duplicate
// kind is a programming error and panics at startup.
func NewRegistry(specs ...Specialist) *Registry {
	r := &Registry{agents: make(map[agent.Kind]Specialist, len(specs))}
	for _, s := range specs {
		if _, dup := r.agents[s.Kind()]; dup {
			panic(fmt.Sprintf("service: duplicate specialist %q", s.Kind()))
		}
		r.agents[s.Kind()] = s
	}
	return r
}

// Lookup returns the specialist registered for k.
func (r *Registry) Lookup(k agent.Kind) (Specialist, bool) {
	s, ok := r.agents[k]
	return s, ok
}

// searchSpecialist is the shared shape of the text agents: retrieve
// snippets for a category, then ask the model to analyze them against
// the query.
type searchSpecialist struct {
	kind      agent.Kind
	category  retrieval.Category
	topN      int
	system    string
	errPrefix string
	maxTokens int

	searcher search.Searcher
	llm      llm.Completer
	log      *slog.Logger

	// enrich supplements thin index results, nil when the agent has no
	// secondary source.
	enrich func(ctx context.Context, q string, have []retrieval.Snippet) []retrieval.Snippet
}

func (s *searchSpecialist) Kind() agent.Kind { return s.kind }

func (s *searchSpecialist) ProcessQuery(ctx context.Context, q query.Query) agent.Result {
	snippets := s.searcher.Search(ctx, q.Text, s.topN, s.category)
	if s.enrich != nil {
		snippets = s.enrich(ctx, q.Text, snippets)
	}

	res := s.llm.Complete(ctx, llm.Request{
		Prompt:      s.buildPrompt(q.Text, snippets),
		System:      s.system,
		MaxTokens:   s.maxTokens,
		Temperature: 0.7,
	})
	if !res.Success {
		s.log.Error("agent completion failed", "agent", s.kind, "error", res.Err)
		return agent.Failure(s.kind, fmt.Sprintf("%s: %s", s.errPrefix, res.Err))
	}
	return agent.Success(s.kind, snippets, res.Text)
}

func (s *searchSpecialist) buildPrompt(queryText string, snippets []retrieval.Snippet) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Запрос пользователя: %s\n\n", queryText)
	b.WriteString("Результаты поиска:\n\n")
	if len(snippets) == 0 {
		b.WriteString("Не найдено релевантных материалов в базе данных.\n\n")
	}
	for i, sn := range snippets {
		fmt.Fprintf(&b, "%d. %s\n%s\n\n", i+1, sn.Title, sn.Content)
	}
	b.WriteString("Проанализируйте материалы, относящиеся к запросу.")
	return b.String()
}
