// Package elastic implements the search port on top of Elasticsearch.
//
// Failures are deliberately swallowed here: the coordinator and the
// specialist agents treat "no snippets" and "search backend down" the
// same way, so Search logs and returns an empty slice instead of an
// error.
package elastic

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/elastic/go-elasticsearch/v8"

	"github.com/lawgpt-ru/lawgpt-core/internal/config"
	"github.com/lawgpt-ru/lawgpt-core/internal/domain/retrieval"
	"github.com/lawgpt-ru/lawgpt-core/internal/port/cache"
)

// Client implements search.Searcher backed by Elasticsearch, with an
// optional snippet cache in front of it.
type Client struct {
	es    *elasticsearch.Client
	cfg   config.Elastic
	cache cache.Cache
	ttl   time.Duration
}

// New creates a search client. snippetCache may be nil to disable caching.
func New(cfg config.Elastic, snippetCache cache.Cache, snippetTTL time.Duration) (*Client, error) {
	es, err := elasticsearch.NewClient(elasticsearch.Config{
		Addresses: cfg.Addresses,
		Username:  cfg.Username,
		Password:  cfg.Password,
	})
	if err != nil {
		return nil, fmt.Errorf("elasticsearch client: %w", err)
	}
	return &Client{es: es, cfg: cfg, cache: snippetCache, ttl: snippetTTL}, nil
}

// Ping checks cluster reachability. Used by the health endpoint only;
// search callers never see backend errors.
func (c *Client) Ping(ctx context.Context) error {
	res, err := c.es.Ping(c.es.Ping.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("elasticsearch ping: %w", err)
	}
	defer func() { _ = res.Body.Close() }()
	if res.IsError() {
		return fmt.Errorf("elasticsearch ping: status %d", res.StatusCode)
	}
	return nil
}

// indexFor maps a search category to its index name.
func (c *Client) indexFor(category retrieval.Category) string {
	switch category {
	case retrieval.CategoryCourtDecisions:
		return c.cfg.CourtIndex
	case retrieval.CategoryAnalytics:
		return c.cfg.AnalyticsIndex
	case retrieval.CategoryDocAnalysis:
		return "document_analysis"
	default:
		return c.cfg.LawsIndex
	}
}

// Search returns up to topN ranked snippets for the query in the given
// category. Empty slice on no matches or backend failure.
func (c *Client) Search(ctx context.Context, query string, topN int, category retrieval.Category) []retrieval.Snippet {
	key := fmt.Sprintf("search:%s:%d:%s", category, topN, query)
	if c.cache != nil {
		if data, ok, err := c.cache.Get(ctx, key); err == nil && ok {
			var cached []retrieval.Snippet
			if json.Unmarshal(data, &cached) == nil {
				return cached
			}
		}
	}

	body := map[string]any{
		"query": map[string]any{
			"multi_match": map[string]any{
				"query":  query,
				"fields": []string{"title^2", "content"},
			},
		},
		"size": topN,
	}
	buf, err := json.Marshal(body)
	if err != nil {
		slog.Warn("search body marshal failed", "error", err)
		return nil
	}

	res, err := c.es.Search(
		c.es.Search.WithContext(ctx),
		c.es.Search.WithIndex(c.indexFor(category)),
		c.es.Search.WithBody(bytes.NewReader(buf)),
	)
	if err != nil {
		slog.Warn("search request failed", "category", category, "error", err)
		return nil
	}
	defer func() { _ = res.Body.Close() }()

	if res.IsError() {
		slog.Warn("search returned error status", "category", category, "status", res.StatusCode)
		return nil
	}

	var parsed struct {
		Hits struct {
			Hits []struct {
				Score  float64        `json:"_score"`
				Source map[string]any `json:"_source"`
			} `json:"hits"`
		} `json:"hits"`
	}
	if err := json.NewDecoder(res.Body).Decode(&parsed); err != nil {
		slog.Warn("search response decode failed", "category", category, "error", err)
		return nil
	}

	snippets := make([]retrieval.Snippet, 0, len(parsed.Hits.Hits))
	for _, hit := range parsed.Hits.Hits {
		title, _ := hit.Source["title"].(string)
		content, _ := hit.Source["content"].(string)
		snippets = append(snippets, retrieval.Snippet{
			Title:   title,
			Content: content,
			Score:   hit.Score,
			Source:  hit.Source,
		})
	}

	if c.cache != nil && len(snippets) > 0 {
		if data, err := json.Marshal(snippets); err == nil {
			_ = c.cache.Set(ctx, key, data, c.ttl)
		}
	}

	return snippets
}

// Index stores a document, best-effort. Used to write analyzed documents
// back into the index so later searches can find them.
func (c *Client) Index(ctx context.Context, index string, doc map[string]any) error {
	buf, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("marshal document: %w", err)
	}

	res, err := c.es.Index(index, bytes.NewReader(buf), c.es.Index.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("index document: %w", err)
	}
	defer func() { _ = res.Body.Close() }()

	if res.IsError() {
		return fmt.Errorf("index document: status %d", res.StatusCode)
	}
	return nil
}
