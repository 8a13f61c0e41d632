// Package retrieval defines the types returned by the legal search index.
package retrieval

// Category selects which index a search runs against.
type Category string

// Known search categories. Each maps to one index in the search backend.
const (
	CategoryLaws           Category = "laws"
	CategoryCourtDecisions Category = "court_decisions"
	CategoryAnalytics      Category = "analytics"
	CategoryDocAnalysis    Category = "document_analysis"
)

// Snippet is one ranked fragment returned by the search index.
type Snippet struct {
	Title   string         `json:"title"`
	Content string         `json:"content"`
	Score   float64        `json:"score"`
	Source  map[string]any `json:"source,omitempty"`
}
