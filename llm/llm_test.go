package llm

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tmc/langchaingo/llms"
)

type fakeModel struct {
	reply    string
	err      error
	jsonMode bool
	prompt   string
}

func (f *fakeModel) GenerateContent(_ context.Context, messages []llms.MessageContent, options ...llms.CallOption) (*llms.ContentResponse, error) {
	opts := llms.CallOptions{}
	for _, o := range options {
		o(&opts)
	}
	f.jsonMode = opts.JSONMode
	if len(messages) > 0 && len(messages[0].Parts) > 0 {
		if tc, ok := messages[0].Parts[0].(llms.TextContent); ok {
			f.prompt = tc.Text
		}
	}
	if f.err != nil {
		return nil, f.err
	}
	if f.reply == "" {
		return &llms.ContentResponse{}, nil
	}
	return &llms.ContentResponse{Choices: []*llms.ContentChoice{{Content: f.reply}}}, nil
}

func (f *fakeModel) Call(ctx context.Context, prompt string, options ...llms.CallOption) (string, error) {
	return llms.GenerateFromSinglePrompt(ctx, f, prompt, options...)
}

func TestLangChainClient_Complete(t *testing.T) {
	model := &fakeModel{reply: "SalarySe is a financial wellness platform."}
	client := NewLangChainClient(model)

	got, err := client.Complete(context.Background(), "What is SalarySe?")
	require.NoError(t, err)
	assert.Equal(t, "SalarySe is a financial wellness platform.", got)
	assert.Equal(t, "What is SalarySe?", model.prompt)
	assert.False(t, model.jsonMode)
}

func TestLangChainClient_CompleteJSONEnablesJSONMode(t *testing.T) {
	model := &fakeModel{reply: `{"score":"yes"}`}
	client := NewLangChainClient(model, WithTemperature(0.2))

	got, err := client.CompleteJSON(context.Background(), "grade")
	require.NoError(t, err)
	assert.Equal(t, `{"score":"yes"}`, got)
	assert.True(t, model.jsonMode)
}

func TestLangChainClient_Errors(t *testing.T) {
	_, err := NewLangChainClient(&fakeModel{}).Complete(context.Background(), "x")
	assert.ErrorIs(t, err, ErrEmptyResponse)

	down := errors.New("connection refused")
	_, err = NewLangChainClient(&fakeModel{err: down}).Complete(context.Background(), "x")
	assert.ErrorIs(t, err, down)
}

func TestOpenAIClient(t *testing.T) {
	var lastRequest map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))

		body, _ := io.ReadAll(r.Body)
		lastRequest = map[string]any{}
		_ = json.Unmarshal(body, &lastRequest)

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"1","object":"chat.completion","choices":[{"index":0,"message":{"role":"assistant","content":"{\"datasource\":\"vectorstore\"}"},"finish_reason":"stop"}]}`))
	}))
	defer server.Close()

	client := NewOpenAIClient("test-key", server.URL, "gpt-4o-mini")

	got, err := client.CompleteJSON(context.Background(), "route this")
	require.NoError(t, err)
	assert.Equal(t, `{"datasource":"vectorstore"}`, got)
	assert.Equal(t, "gpt-4o-mini", lastRequest["model"])
	format, ok := lastRequest["response_format"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "json_object", format["type"])

	_, err = client.Complete(context.Background(), "hello")
	require.NoError(t, err)
	_, hasFormat := lastRequest["response_format"]
	assert.False(t, hasFormat)
}

func TestOpenAIClient_ServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error":{"message":"overloaded","type":"server_error"}}`))
	}))
	defer server.Close()

	_, err := NewOpenAIClient("k", server.URL, "m").Complete(context.Background(), "x")
	assert.Error(t, err)
}

func TestMockClient(t *testing.T) {
	m := &MockClient{Respond: func(_ context.Context, prompt string, json bool) (string, error) {
		if json {
			return `{"score":"no"}`, nil
		}
		return "text", nil
	}}

	text, err := m.Complete(context.Background(), "a")
	require.NoError(t, err)
	assert.Equal(t, "text", text)

	raw, err := m.CompleteJSON(context.Background(), "b")
	require.NoError(t, err)
	assert.Equal(t, `{"score":"no"}`, raw)
	assert.Equal(t, []string{"a", "b"}, m.Prompts())
}
