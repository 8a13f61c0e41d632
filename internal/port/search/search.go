// Package search defines the port for the legal search index.
package search

import (
	"context"

	"github.com/lawgpt-ru/lawgpt-core/internal/domain/retrieval"
)

// Searcher queries the full-text index for ranked snippets.
//
// Search never returns an error to its callers: backend failures and
// empty result sets both yield an empty slice, and the adapter is
// responsible for logging the difference.
type Searcher interface {
	Search(ctx context.Context, query string, topN int, category retrieval.Category) []retrieval.Snippet

	// Index stores a document in the given index, best-effort.
	Index(ctx context.Context, index string, doc map[string]any) error
}
