package prebuilt

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/salaryse/assistant/llm"
	"github.com/salaryse/assistant/upstream"
)

// Router decides whether a question needs retrieval.
type Router struct {
	client  llm.Client
	timeout time.Duration
}

// NewRouter creates a router; timeout bounds each model call.
func NewRouter(client llm.Client, timeout time.Duration) *Router {
	return &Router{client: client, timeout: timeout}
}

// Route classifies question. Output that names neither datasource is
// ErrRoutingAmbiguous; there is no default branch.
func (r *Router) Route(ctx context.Context, question string) (Datasource, error) {
	raw, err := upstream.Call(ctx, "llm", r.timeout, func(ctx context.Context) (string, error) {
		return r.client.CompleteJSON(ctx, routerPrompt(question))
	})
	if err != nil {
		return "", fmt.Errorf("route question: %w", err)
	}

	var out struct {
		Datasource string `json:"datasource"`
	}
	if err := llm.DecodeJSON(raw, &out); err != nil {
		return "", fmt.Errorf("%w: %v", ErrRoutingAmbiguous, err)
	}

	switch Datasource(strings.ToLower(strings.TrimSpace(out.Datasource))) {
	case DatasourceVectorStore:
		return DatasourceVectorStore, nil
	case DatasourceDirectAnswer:
		return DatasourceDirectAnswer, nil
	default:
		return "", fmt.Errorf("%w: datasource %q", ErrRoutingAmbiguous, out.Datasource)
	}
}
