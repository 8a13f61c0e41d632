// Package llm defines the port for the external completion model.
package llm

import "context"

// Request is one completion call. ImageURL may be an https URL or a
// data: URL with base64 content for multimodal calls.
type Request struct {
	Prompt      string
	System      string
	ImageURL    string
	MaxTokens   int
	Temperature float64
}

// Result always carries this shape; a failed call sets Success false and
// Err, it is never surfaced as a Go error.
type Result struct {
	Success bool
	Text    string
	Err     string
}

// Completer sends prompts to the remote completion model.
type Completer interface {
	Complete(ctx context.Context, req Request) Result
}
