// Package search provides the web-retrieval capability that grounds
// expert answers. Retrieval is best-effort: a backend failure degrades
// to zero results rather than failing the interview.
package search

import (
	"context"
	"errors"
)

// ErrMissingAPIKey is returned when a search backend is constructed
// without a credential. Construction fails fast; runtime never does.
var ErrMissingAPIKey = errors.New("search: api key is required")

// Result is one retrieved document.
type Result struct {
	Title   string `json:"title"`
	Content string `json:"content"`
	URL     string `json:"url"`
}

// Engine is the retrieval port. Search never returns an error: any
// backend failure yields an empty slice so callers proceed ungrounded.
type Engine interface {
	Search(ctx context.Context, query string) []Result
}
