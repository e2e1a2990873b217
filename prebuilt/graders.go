package prebuilt

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/salaryse/assistant/llm"
	"github.com/salaryse/assistant/rag"
	"github.com/salaryse/assistant/upstream"
)

// Grader asks the language model for yes/no verdicts.
type Grader struct {
	client  llm.Client
	timeout time.Duration
}

// NewGrader creates a grader; timeout bounds each model call.
func NewGrader(client llm.Client, timeout time.Duration) *Grader {
	return &Grader{client: client, timeout: timeout}
}

// Relevant reports whether doc is relevant to question.
func (g *Grader) Relevant(ctx context.Context, question string, doc rag.Document) (bool, error) {
	return g.grade(ctx, "relevance", relevancePrompt(question, doc))
}

// Grounded reports whether generation is supported by docs.
func (g *Grader) Grounded(ctx context.Context, docs []rag.Document, generation string) (bool, error) {
	return g.grade(ctx, "groundedness", groundednessPrompt(docs, generation))
}

// Resolves reports whether generation answers question.
func (g *Grader) Resolves(ctx context.Context, question, generation string) (bool, error) {
	return g.grade(ctx, "answer", answerPrompt(question, generation))
}

func (g *Grader) grade(ctx context.Context, kind, prompt string) (bool, error) {
	raw, err := upstream.Call(ctx, "llm", g.timeout, func(ctx context.Context) (string, error) {
		return g.client.CompleteJSON(ctx, prompt)
	})
	if err != nil {
		return false, fmt.Errorf("%s grader: %w", kind, err)
	}

	verdict, err := ParseVerdict(raw)
	if err != nil {
		return false, fmt.Errorf("%s grader: %w", kind, err)
	}
	return verdict, nil
}

// ParseVerdict reads {"score": "yes"|"no"} from a model completion. The
// score is case-insensitive; anything else is ErrGradingFailed.
func ParseVerdict(raw string) (bool, error) {
	var out struct {
		Score string `json:"score"`
	}
	if err := llm.DecodeJSON(raw, &out); err != nil {
		return false, fmt.Errorf("%w: %v", ErrGradingFailed, err)
	}

	switch strings.ToLower(strings.TrimSpace(out.Score)) {
	case "yes":
		return true, nil
	case "no":
		return false, nil
	default:
		return false, fmt.Errorf("%w: score %q", ErrGradingFailed, out.Score)
	}
}
