package tool

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// ErrMissingAPIKey is returned when a provider is constructed without credentials.
var ErrMissingAPIKey = errors.New("search api key not set")

// SearchResult is one web search hit.
type SearchResult struct {
	Title   string `json:"title"`
	URL     string `json:"url"`
	Snippet string `json:"snippet"`
}

// WebSearcher runs web searches.
type WebSearcher interface {
	Search(ctx context.Context, query string, maxResults int) ([]SearchResult, error)
}

// StatusError reports a non-success HTTP status from a provider.
type StatusError struct {
	Provider   string
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("%s http %d", e.Provider, e.StatusCode)
	}
	return fmt.Sprintf("%s http %d: %s", e.Provider, e.StatusCode, strings.TrimSpace(e.Body))
}
