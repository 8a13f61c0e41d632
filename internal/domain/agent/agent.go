// Package agent defines the closed set of specialist agents and the
// results they produce.
package agent

import (
	"github.com/lawgpt-ru/lawgpt-core/internal/domain/document"
	"github.com/lawgpt-ru/lawgpt-core/internal/domain/retrieval"
)

// Kind identifies one specialist agent.
type Kind string

// Registered agent kinds. The order is fixed and is the order used when
// the registry is presented to the classifier.
const (
	KindLegalNorms       Kind = "legal_norms_agent"
	KindJudicialPractice Kind = "judicial_practice_agent"
	KindAnalytics        Kind = "analytics_agent"
	KindDocumentPrep     Kind = "document_prep_agent"
	KindDocumentAnalysis Kind = "document_analysis_agent"
)

// kinds lists all registered agents in registry order.
var kinds = []Kind{
	KindLegalNorms,
	KindJudicialPractice,
	KindAnalytics,
	KindDocumentPrep,
	KindDocumentAnalysis,
}

// descriptions are shown to the classifier so it can pick agents.
var descriptions = map[Kind]string{
	KindLegalNorms:       "Специалист по правовым нормам (законы, постановления, кодексы)",
	KindJudicialPractice: "Специалист по судебной практике (решения судов, обзоры практики)",
	KindAnalytics:        "Специалист по аналитике (комментарии, статьи, книги)",
	KindDocumentPrep:     "Специалист по подготовке документов (иски, жалобы, договоры)",
	KindDocumentAnalysis: "Специалист по анализу изображений документов",
}

// Kinds returns all registered agent kinds in registry order.
func Kinds() []Kind {
	out := make([]Kind, len(kinds))
	copy(out, kinds)
	return out
}

// Valid reports whether k is a registered agent kind.
func (k Kind) Valid() bool {
	_, ok := descriptions[k]
	return ok
}

// Description returns the human-readable role of the agent.
func (k Kind) Description() string {
	return descriptions[k]
}

// Result is the outcome of one specialist agent run. It is either a
// success payload (snippets plus narrative analysis) or a failure payload
// carrying the error text. Agents never return Go errors past this type.
type Result struct {
	Agent    Kind                `json:"agent"`
	OK       bool                `json:"ok"`
	Snippets []retrieval.Snippet `json:"snippets,omitempty"`
	Analysis string              `json:"analysis,omitempty"`
	Document *document.Analysis  `json:"document,omitempty"`
	Err      string              `json:"error,omitempty"`
}

// Success builds a success-tagged result.
func Success(kind Kind, snippets []retrieval.Snippet, analysis string) Result {
	return Result{Agent: kind, OK: true, Snippets: snippets, Analysis: analysis}
}

// Failure builds a failure-tagged result.
func Failure(kind Kind, errText string) Result {
	return Result{Agent: kind, Err: errText}
}

// Context maps each dispatched agent to its result. It is built during
// dispatch and is complete once every planned agent has an entry.
type Context map[Kind]Result

// Failed returns the kinds whose results are failure-tagged, in registry order.
func (c Context) Failed() []Kind {
	var out []Kind
	for _, k := range kinds {
		if r, ok := c[k]; ok && !r.OK {
			out = append(out, k)
		}
	}
	return out
}
