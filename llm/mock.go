package llm

import (
	"context"
	"sync"
)

// MockClient answers prompts with a user-supplied function and records them.
type MockClient struct {
	// Respond returns the completion for a prompt; json is true for CompleteJSON.
	Respond func(ctx context.Context, prompt string, json bool) (string, error)

	mu      sync.Mutex
	prompts []string
}

var _ Client = (*MockClient)(nil)

func (m *MockClient) Complete(ctx context.Context, prompt string) (string, error) {
	return m.call(ctx, prompt, false)
}

func (m *MockClient) CompleteJSON(ctx context.Context, prompt string) (string, error) {
	return m.call(ctx, prompt, true)
}

func (m *MockClient) call(ctx context.Context, prompt string, json bool) (string, error) {
	m.mu.Lock()
	m.prompts = append(m.prompts, prompt)
	m.mu.Unlock()
	if m.Respond == nil {
		return "", ErrEmptyResponse
	}
	return m.Respond(ctx, prompt, json)
}

// Prompts returns every prompt received so far.
func (m *MockClient) Prompts() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, len(m.prompts))
	copy(out, m.prompts)
	return out
}
