package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/lawgpt-ru/lawgpt-core/internal/domain/agent"
	"github.com/lawgpt-ru/lawgpt-core/internal/domain/document"
	"github.com/lawgpt-ru/lawgpt-core/internal/domain/query"
	"github.com/lawgpt-ru/lawgpt-core/internal/port/llm"
	"github.com/lawgpt-ru/lawgpt-core/internal/port/search"
)

// analysisIndex receives completed document analyses for later retrieval.
const analysisIndex = "document_analysis"

const documentAnalysisPrompt = `Проанализируй детально этот юридический документ и выдели следующую информацию:

1. Тип документа (договор, судебное решение, заявление и т.д.)
2. Основные стороны и их реквизиты (ФИО, организации, адреса, реквизиты)
3. Ключевые положения и обязательства сторон
4. Даты, сроки и временные рамки действия документа
5. Юридически значимые детали (условия, размеры платежей, санкции)
6. Основания возникновения правоотношений
7. Применимое законодательство и нормативно-правовые акты

Предоставь структурированный ответ на русском языке с чётким разделением на разделы.
Если какая-то информация отсутствует или нечитаема, укажи это.`

// documentAnalysisAgent sends the document image through the multimodal
// model, then runs the local post-processing pipeline (type detection,
// structured data extraction, follow-up tips) over the narrative.
type documentAnalysisAgent struct {
	searcher search.Searcher
	llm      llm.Completer
	log      *slog.Logger
}

// NewDocumentAnalysisAgent creates the image analysis specialist.
func NewDocumentAnalysisAgent(searcher search.Searcher, completer llm.Completer, log *slog.Logger) Specialist {
	return &documentAnalysisAgent{searcher: searcher, llm: completer, log: log}
}

func (a *documentAnalysisAgent) Kind() agent.Kind { return agent.KindDocumentAnalysis }

func (a *documentAnalysisAgent) ProcessQuery(ctx context.Context, q query.Query) agent.Result {
	if !q.HasImage() {
		return agent.Failure(agent.KindDocumentAnalysis, "Не передано изображение документа")
	}

	res := a.llm.Complete(ctx, llm.Request{
		Prompt:      documentAnalysisPrompt,
		ImageURL:    q.ImageURL,
		MaxTokens:   4000,
		Temperature: 0.3,
	})
	if !res.Success {
		a.log.Error("document analysis failed", "error", res.Err)
		return agent.Failure(agent.KindDocumentAnalysis,
			fmt.Sprintf("Не удалось проанализировать документ: %s", res.Err))
	}

	analysis := document.Analyze(res.Text)
	a.indexAnalysis(ctx, analysis)

	out := agent.Success(agent.KindDocumentAnalysis, nil, analysis.Text)
	out.Document = analysis
	return out
}

// indexAnalysis writes the analysis back into the search index,
// best-effort.
func (a *documentAnalysisAgent) indexAnalysis(ctx context.Context, analysis *document.Analysis) {
	doc := map[string]any{
		"document_analysis":      analysis.Text,
		"document_type":          string(analysis.Type),
		"document_type_readable": analysis.TypeReadable,
		"has_tables":             analysis.HasTables,
		"is_complex":             analysis.IsComplex,
		"indexed_at":             time.Now().UTC().Format(time.RFC3339),
	}
	if analysis.Structured != nil {
		doc["structured_data"] = analysis.Structured
	}
	if err := a.searcher.Index(ctx, analysisIndex, doc); err != nil {
		a.log.Warn("analysis index write-back failed", "error", err)
	}
}
