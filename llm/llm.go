// Package llm adapts language model backends to the two calls the assistant
// needs: free-text completion and JSON-mode completion.
package llm

import (
	"context"
	"errors"
)

var (
	// ErrEmptyResponse is returned when a backend produces no choices.
	ErrEmptyResponse = errors.New("empty response from language model")

	// ErrMalformedJSON is returned when a completion holds no decodable JSON object.
	ErrMalformedJSON = errors.New("malformed json in completion")
)

// Client is a language model.
type Client interface {
	// Complete returns the completion text for prompt.
	Complete(ctx context.Context, prompt string) (string, error)

	// CompleteJSON asks for a JSON object and returns the raw completion text.
	// Backends that support a JSON response mode enable it.
	CompleteJSON(ctx context.Context, prompt string) (string, error)
}
