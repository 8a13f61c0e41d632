// Package openrouter provides an HTTP client for the OpenRouter chat
// completions API, implementing the llm.Completer port.
package openrouter

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/lawgpt-ru/lawgpt-core/internal/config"
	"github.com/lawgpt-ru/lawgpt-core/internal/port/llm"
	"github.com/lawgpt-ru/lawgpt-core/internal/resilience"
)

// Client talks to the OpenRouter chat completions endpoint.
type Client struct {
	baseURL    string
	apiKey     string
	model      string
	referer    string
	title      string
	httpClient *http.Client
	breaker    *resilience.Breaker
}

// NewClient creates an OpenRouter client from config.
func NewClient(cfg config.OpenRouter) *Client {
	return &Client{
		baseURL: cfg.URL,
		apiKey:  cfg.APIKey,
		model:   cfg.Model,
		referer: cfg.Referer,
		title:   cfg.Title,
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
	}
}

// SetBreaker attaches a circuit breaker to all outgoing HTTP calls.
func (c *Client) SetBreaker(b *resilience.Breaker) {
	c.breaker = b
}

// Healthy reports whether the client is usable: an API key is configured
// and the circuit breaker is not rejecting calls. It does not spend a
// completion on the check.
func (c *Client) Healthy(context.Context) error {
	if c.apiKey == "" {
		return fmt.Errorf("openrouter API key not configured")
	}
	if c.breaker != nil && c.breaker.Open() {
		return resilience.ErrCircuitOpen
	}
	return nil
}

// message mirrors the chat completions message schema. Content is either
// a plain string or a multimodal part list.
type message struct {
	Role    string `json:"role"`
	Content any    `json:"content"`
}

type textPart struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

type imagePart struct {
	Type     string   `json:"type"`
	ImageURL imageURL `json:"image_url"`
}

type imageURL struct {
	URL string `json:"url"`
}

// Complete sends one completion request. It always returns an llm.Result;
// transport, API and decode failures become failure-shaped results, never
// Go errors.
func (c *Client) Complete(ctx context.Context, req llm.Request) llm.Result {
	var messages []message
	if req.System != "" {
		messages = append(messages, message{Role: "system", Content: req.System})
	}
	if req.ImageURL != "" {
		messages = append(messages, message{Role: "user", Content: []any{
			textPart{Type: "text", Text: req.Prompt},
			imagePart{Type: "image_url", ImageURL: imageURL{URL: req.ImageURL}},
		}})
	} else {
		messages = append(messages, message{Role: "user", Content: req.Prompt})
	}

	payload := map[string]any{
		"model":       c.model,
		"messages":    messages,
		"max_tokens":  req.MaxTokens,
		"temperature": req.Temperature,
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return llm.Result{Err: fmt.Sprintf("marshal request: %v", err)}
	}

	data, err := c.doRequest(ctx, body)
	if err != nil {
		return llm.Result{Err: err.Error()}
	}

	var parsed struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
		Error *struct {
			Message string `json:"message"`
		} `json:"error"`
	}
	if err := json.Unmarshal(data, &parsed); err != nil {
		return llm.Result{Err: fmt.Sprintf("decode response: %v", err)}
	}
	if parsed.Error != nil {
		return llm.Result{Err: parsed.Error.Message}
	}
	if len(parsed.Choices) == 0 {
		return llm.Result{Err: "empty choices in response"}
	}

	return llm.Result{Success: true, Text: parsed.Choices[0].Message.Content}
}

func (c *Client) doRequest(ctx context.Context, body []byte) ([]byte, error) {
	var result []byte
	call := func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost,
			c.baseURL+"/chat/completions", bytes.NewReader(body))
		if err != nil {
			return fmt.Errorf("create request: %w", err)
		}

		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
		if c.referer != "" {
			req.Header.Set("HTTP-Referer", c.referer)
		}
		if c.title != "" {
			req.Header.Set("X-Title", c.title)
		}

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return fmt.Errorf("http request: %w", err)
		}
		defer func() { _ = resp.Body.Close() }()

		data, err := io.ReadAll(resp.Body)
		if err != nil {
			return fmt.Errorf("read response: %w", err)
		}

		if resp.StatusCode >= 400 {
			return fmt.Errorf("openrouter API error %d: %s", resp.StatusCode, string(data))
		}

		result = data
		return nil
	}

	if c.breaker != nil {
		if err := c.breaker.Execute(call); err != nil {
			return nil, err
		}
		return result, nil
	}

	if err := call(); err != nil {
		return nil, err
	}
	return result, nil
}
