package llm

import (
	"context"
	"fmt"

	"github.com/tmc/langchaingo/llms"
)

// LangChainClient adapts a langchaingo llms.Model (Ollama, OpenAI, ...) to Client.
type LangChainClient struct {
	model       llms.Model
	temperature float64
}

var _ Client = (*LangChainClient)(nil)

// LangChainOption configures a LangChainClient.
type LangChainOption func(*LangChainClient)

// WithTemperature sets the sampling temperature. The default is 0.
func WithTemperature(t float64) LangChainOption {
	return func(c *LangChainClient) {
		c.temperature = t
	}
}

// NewLangChainClient creates a Client backed by model.
func NewLangChainClient(model llms.Model, opts ...LangChainOption) *LangChainClient {
	c := &LangChainClient{model: model}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *LangChainClient) Complete(ctx context.Context, prompt string) (string, error) {
	return c.generate(ctx, prompt, llms.WithTemperature(c.temperature))
}

func (c *LangChainClient) CompleteJSON(ctx context.Context, prompt string) (string, error) {
	return c.generate(ctx, prompt, llms.WithTemperature(c.temperature), llms.WithJSONMode())
}

func (c *LangChainClient) generate(ctx context.Context, prompt string, options ...llms.CallOption) (string, error) {
	resp, err := c.model.GenerateContent(ctx, []llms.MessageContent{
		llms.TextParts(llms.ChatMessageTypeHuman, prompt),
	}, options...)
	if err != nil {
		return "", fmt.Errorf("generate content: %w", err)
	}
	if resp == nil || len(resp.Choices) == 0 {
		return "", ErrEmptyResponse
	}
	return resp.Choices[0].Content, nil
}
