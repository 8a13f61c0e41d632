package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/lawgpt-ru/lawgpt-core/internal/config"
	"github.com/lawgpt-ru/lawgpt-core/internal/domain/retrieval"
)

const googleSearchURL = "https://www.googleapis.com/customsearch/v1"

// WebSearchService queries Google Programmable Search. It is a
// best-effort enrichment source: every failure is logged and yields an
// empty result, never an error.
type WebSearchService struct {
	apiKey     string
	cx         string
	baseURL    string
	httpClient *http.Client
	log        *slog.Logger
}

// NewWebSearchService creates the web search service. With empty
// credentials the service is disabled and Search always returns nil.
func NewWebSearchService(cfg config.WebSearch, log *slog.Logger) *WebSearchService {
	return &WebSearchService{
		apiKey:     cfg.APIKey,
		cx:         cfg.CX,
		baseURL:    googleSearchURL,
		httpClient: &http.Client{Timeout: 15 * time.Second},
		log:        log,
	}
}

// Enabled reports whether credentials are configured.
func (s *WebSearchService) Enabled() bool {
	return s.apiKey != "" && s.cx != ""
}

// Search returns up to maxResults web snippets for the query.
func (s *WebSearchService) Search(ctx context.Context, query string, maxResults int) []retrieval.Snippet {
	if !s.Enabled() {
		s.log.Warn("web search credentials not configured")
		return nil
	}

	params := url.Values{}
	params.Set("key", s.apiKey)
	params.Set("cx", s.cx)
	params.Set("q", query)
	params.Set("num", fmt.Sprint(maxResults))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		s.log.Error("web search request build failed", "error", err)
		return nil
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		s.log.Error("web search request failed", "error", err)
		return nil
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		s.log.Error("web search returned non-OK status", "status", resp.StatusCode)
		return nil
	}

	var body struct {
		Items []struct {
			Title   string `json:"title"`
			Snippet string `json:"snippet"`
			Link    string `json:"link"`
		} `json:"items"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		s.log.Error("web search decode failed", "error", err)
		return nil
	}

	out := make([]retrieval.Snippet, 0, len(body.Items))
	for _, item := range body.Items {
		out = append(out, retrieval.Snippet{
			Title:   item.Title,
			Content: item.Snippet,
			Source: map[string]any{
				"source": "Google Search",
				"url":    item.Link,
			},
		})
	}
	return out
}
