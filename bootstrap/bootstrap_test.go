package bootstrap

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/salaryse/assistant/config"
	"github.com/salaryse/assistant/log"
	"github.com/salaryse/assistant/prebuilt"
	"github.com/salaryse/assistant/rag"
	"github.com/salaryse/assistant/store"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	return &config.Config{
		LLM: config.LLMConfig{
			Provider:       config.ProviderOllama,
			Model:          "llama3.1",
			OllamaURL:      "http://localhost:11434",
			EmbeddingModel: "nomic-embed-text",
		},
		Index: config.IndexConfig{
			Backend:      config.VectorSQLite,
			Dir:          filepath.Join(t.TempDir(), "index"),
			TopK:         3,
			ChunkSize:    1000,
			ChunkOverlap: 100,
		},
		Crawl:   config.CrawlConfig{SeedURLs: []string{"https://www.salaryse.com/"}, Depth: 1, MaxPages: 5},
		Search:  config.SearchConfig{Provider: config.SearchTavily, TavilyAPIKey: "tvly-test", MaxResults: 3},
		Session: config.SessionConfig{Backend: config.SessionMemory, MaxHistory: 20},
		Agent: config.AgentConfig{
			MaxRetries:   3,
			Fallback:     prebuilt.FallbackLastGeneration,
			HistoryTurns: 3,
			NodeRetries:  1,
			RetryDelay:   time.Millisecond,
			StepLimit:    50,
		},
		LogLevel: log.LogLevelNone,
	}
}

func TestNewWiresEverything(t *testing.T) {
	cfg := testConfig(t)
	require.NoError(t, cfg.Validate())

	app, err := New(context.Background(), cfg)
	require.NoError(t, err)
	defer app.Close()

	assert.NotNil(t, app.LLM)
	assert.NotNil(t, app.Embedder)
	assert.NotNil(t, app.Retriever)
	assert.NotNil(t, app.Ingestor)
	assert.NotNil(t, app.Searcher)
	assert.NotNil(t, app.Sessions)
	assert.NotNil(t, app.Service)
	assert.Contains(t, app.Agent.Mermaid(), prebuilt.NodeGradeGeneration)

	n, err := app.VectorStore.Count(context.Background())
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.DirExists(t, cfg.Index.Dir)
}

func TestNewLLMOpenAI(t *testing.T) {
	client, err := NewLLM(config.LLMConfig{Provider: config.ProviderOpenAI, OpenAIAPIKey: "sk-test", Model: "gpt-4o-mini"})
	require.NoError(t, err)
	assert.NotNil(t, client)

	_, err = NewLLM(config.LLMConfig{Provider: "bard"})
	assert.Error(t, err)
}

func TestNewEmbedderOpenAI(t *testing.T) {
	embedder, err := NewEmbedder(config.LLMConfig{
		Provider:       config.ProviderOpenAI,
		OpenAIAPIKey:   "sk-test",
		EmbeddingModel: "text-embedding-3-small",
	})
	require.NoError(t, err)
	assert.Implements(t, (*rag.Embedder)(nil), embedder)
}

func TestNewVectorStoreMemory(t *testing.T) {
	vs, closeFn, err := NewVectorStore(context.Background(), config.IndexConfig{Backend: config.VectorMemory})
	require.NoError(t, err)
	assert.Nil(t, closeFn)
	assert.NotNil(t, vs)

	_, _, err = NewVectorStore(context.Background(), config.IndexConfig{Backend: "chroma"})
	assert.Error(t, err)
}

func TestNewSearcher(t *testing.T) {
	s, err := NewSearcher(config.SearchConfig{Provider: config.SearchBrave, BraveAPIKey: "b"})
	require.NoError(t, err)
	assert.NotNil(t, s)

	_, err = NewSearcher(config.SearchConfig{Provider: "bing"})
	assert.Error(t, err)
}

func TestNewSessionStoreBackends(t *testing.T) {
	ctx := context.Background()
	mr := miniredis.RunT(t)

	configs := []config.SessionConfig{
		{Backend: config.SessionMemory, MaxHistory: 2},
		{Backend: config.SessionRedis, RedisAddr: mr.Addr(), MaxHistory: 2},
		{Backend: config.SessionSQLite, SQLitePath: filepath.Join(t.TempDir(), "nested", "sessions.db"), MaxHistory: 2},
	}

	for _, cfg := range configs {
		t.Run(cfg.Backend, func(t *testing.T) {
			sessions, closeFn, err := NewSessionStore(ctx, cfg)
			require.NoError(t, err)
			if closeFn != nil {
				defer closeFn()
			}

			for _, q := range []string{"a", "b", "c"} {
				require.NoError(t, sessions.Append(ctx, "t1", store.Exchange{Question: q, Answer: q, Timestamp: time.Now()}))
			}
			history, err := sessions.History(ctx, "t1")
			require.NoError(t, err)
			require.Len(t, history, 2)
			assert.Equal(t, "b", history[0].Question)
		})
	}
}

func TestNewSessionStoreRedisUnreachable(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	_, _, err := NewSessionStore(ctx, config.SessionConfig{Backend: config.SessionRedis, RedisAddr: "127.0.0.1:1", MaxHistory: 2})
	assert.Error(t, err)
}
