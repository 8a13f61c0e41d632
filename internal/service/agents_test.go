package service

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/lawgpt-ru/lawgpt-core/internal/config"
	"github.com/lawgpt-ru/lawgpt-core/internal/domain/agent"
	"github.com/lawgpt-ru/lawgpt-core/internal/domain/document"
	"github.com/lawgpt-ru/lawgpt-core/internal/domain/query"
	"github.com/lawgpt-ru/lawgpt-core/internal/domain/retrieval"
	"github.com/lawgpt-ru/lawgpt-core/internal/port/llm"
)

func TestSearchSpecialistCarriesSnippetsIntoPrompt(t *testing.T) {
	searcher := &mockSearcher{snippets: map[retrieval.Category][]retrieval.Snippet{
		retrieval.CategoryLaws: {{Title: "ГК РФ Статья 395", Content: "проценты за просрочку"}},
	}}
	var captured llm.Request
	completer := &mockCompleter{respond: func(req llm.Request) llm.Result {
		captured = req
		return llm.Result{Success: true, Text: "анализ"}
	}}

	spec := NewLegalNormsAgent(searcher, completer, testLogger())
	r := spec.ProcessQuery(context.Background(), query.Query{Text: "просрочка платежа"})

	if !r.OK {
		t.Fatalf("expected success, got %+v", r)
	}
	if len(r.Snippets) != 1 {
		t.Fatalf("result must carry retrieved snippets, got %d", len(r.Snippets))
	}
	if !strings.Contains(captured.Prompt, "ГК РФ Статья 395") {
		t.Fatal("prompt must carry the snippet")
	}
	if captured.System != legalNormsSystem {
		t.Fatal("prompt must use the legal norms system message")
	}
}

func TestSearchSpecialistFailureTagged(t *testing.T) {
	completer := &mockCompleter{respond: func(llm.Request) llm.Result {
		return llm.Result{Success: false, Err: "quota exceeded"}
	}}
	spec := NewJudicialPracticeAgent(&mockSearcher{}, completer, testLogger())

	r := spec.ProcessQuery(context.Background(), query.Query{Text: "вопрос"})

	if r.OK {
		t.Fatal("expected failure result")
	}
	if !strings.Contains(r.Err, "Произошла ошибка при анализе судебной практики") {
		t.Fatalf("failure must carry the localized prefix, got %q", r.Err)
	}
}

func TestAnalyticsAgentEnrichesThinResults(t *testing.T) {
	webCalls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		webCalls++
		if got := r.URL.Query().Get("q"); !strings.Contains(got, "правовой анализ") {
			t.Errorf("web query must carry the legal analysis suffix, got %q", got)
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"items": []map[string]any{
				{"title": "Комментарий к ГК", "snippet": "обзор практики", "link": "https://example.com/a"},
			},
		})
	}))
	defer srv.Close()

	web := NewWebSearchService(config.WebSearch{APIKey: "k", CX: "cx"}, testLogger())
	web.baseURL = srv.URL

	searcher := &mockSearcher{snippets: map[retrieval.Category][]retrieval.Snippet{
		retrieval.CategoryAnalytics: {{Title: "единственный результат", Content: "..."}},
	}}
	var captured llm.Request
	completer := &mockCompleter{respond: func(req llm.Request) llm.Result {
		captured = req
		return llm.Result{Success: true, Text: "анализ"}
	}}

	spec := NewAnalyticsAgent(searcher, completer, web, testLogger())
	r := spec.ProcessQuery(context.Background(), query.Query{Text: "неустойка"})

	if webCalls != 1 {
		t.Fatalf("thin index results must trigger one web search, got %d", webCalls)
	}
	if len(r.Snippets) != 2 {
		t.Fatalf("expected index + web snippets, got %d", len(r.Snippets))
	}
	if !strings.Contains(captured.Prompt, "Комментарий к ГК") {
		t.Fatal("prompt must carry the web snippet")
	}
}

func TestAnalyticsAgentSkipsWebWhenIndexSufficient(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("web search must not be called")
	}))
	defer srv.Close()

	web := NewWebSearchService(config.WebSearch{APIKey: "k", CX: "cx"}, testLogger())
	web.baseURL = srv.URL

	searcher := &mockSearcher{snippets: map[retrieval.Category][]retrieval.Snippet{
		retrieval.CategoryAnalytics: {
			{Title: "a"}, {Title: "b"}, {Title: "c"},
		},
	}}
	spec := NewAnalyticsAgent(searcher, &mockCompleter{}, web, testLogger())

	r := spec.ProcessQuery(context.Background(), query.Query{Text: "вопрос"})
	if len(r.Snippets) != 3 {
		t.Fatalf("expected index snippets untouched, got %d", len(r.Snippets))
	}
}

func TestDocumentAnalysisAgentPostProcesses(t *testing.T) {
	searcher := &mockSearcher{}
	completer := &mockCompleter{respond: func(req llm.Request) llm.Result {
		if req.ImageURL == "" {
			t.Error("analysis call must carry the image URL")
		}
		return llm.Result{Success: true, Text: "Договор аренды. Сторона 1: ООО Ромашка. Сторона 2: ИП Иванов. Сумма 50000 руб."}
	}}

	spec := NewDocumentAnalysisAgent(searcher, completer, testLogger())
	r := spec.ProcessQuery(context.Background(), query.Query{ImageURL: "https://example.com/scan.jpg"})

	if !r.OK {
		t.Fatalf("expected success, got %+v", r)
	}
	if r.Document == nil {
		t.Fatal("result must carry the document analysis")
	}
	if r.Document.Type != document.TypeContract {
		t.Fatalf("expected contract type, got %s", r.Document.Type)
	}
	if len(searcher.indexed) != 1 {
		t.Fatalf("analysis must be written back to the index, got %d", len(searcher.indexed))
	}
}

func TestDocumentAnalysisAgentWithoutImage(t *testing.T) {
	spec := NewDocumentAnalysisAgent(&mockSearcher{}, &mockCompleter{}, testLogger())
	r := spec.ProcessQuery(context.Background(), query.Query{Text: "нет изображения"})
	if r.OK || r.Agent != agent.KindDocumentAnalysis {
		t.Fatalf("expected failure-tagged result, got %+v", r)
	}
}

func TestWebSearchDisabledWithoutCredentials(t *testing.T) {
	web := NewWebSearchService(config.WebSearch{}, testLogger())
	if web.Enabled() {
		t.Fatal("empty credentials must disable web search")
	}
	if got := web.Search(context.Background(), "вопрос", 5); got != nil {
		t.Fatalf("disabled service must return nil, got %v", got)
	}
}

func TestRegistryRejectsDuplicates(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic on duplicate specialist")
		}
	}()
	NewRegistry(
		&fakeSpecialist{kind: agent.KindLegalNorms},
		&fakeSpecialist{kind: agent.KindLegalNorms},
	)
}
