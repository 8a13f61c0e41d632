// Package query defines the immutable user query that enters the
// coordinator pipeline.
package query

import "strings"

// Query is one user turn. It is created when the request arrives and
// never mutated afterwards.
type Query struct {
	Text           string `json:"text"`
	ImageURL       string `json:"image_url,omitempty"`
	ConversationID string `json:"conversation_id,omitempty"`
}

// HasImage reports whether the query carries a document image.
func (q Query) HasImage() bool {
	return q.ImageURL != ""
}

// TextEmpty reports whether the query has no usable text.
func (q Query) TextEmpty() bool {
	return strings.TrimSpace(q.Text) == ""
}
