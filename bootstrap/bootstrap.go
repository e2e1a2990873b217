// Package bootstrap builds the assistant's dependencies from configuration.
package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/tmc/langchaingo/embeddings"
	"github.com/tmc/langchaingo/llms/ollama"
	lcopenai "github.com/tmc/langchaingo/llms/openai"

	"github.com/salaryse/assistant/assistant"
	"github.com/salaryse/assistant/config"
	"github.com/salaryse/assistant/llm"
	"github.com/salaryse/assistant/log"
	"github.com/salaryse/assistant/prebuilt"
	"github.com/salaryse/assistant/rag"
	"github.com/salaryse/assistant/rag/loader"
	vectorstore "github.com/salaryse/assistant/rag/store"
	"github.com/salaryse/assistant/store"
	"github.com/salaryse/assistant/store/memory"
	"github.com/salaryse/assistant/store/redis"
	"github.com/salaryse/assistant/store/sqlite"
	"github.com/salaryse/assistant/tool"
)

// App holds every wired component.
type App struct {
	Config      *config.Config
	Logger      log.Logger
	LLM         llm.Client
	Embedder    rag.Embedder
	VectorStore rag.VectorStore
	Retriever   rag.Retriever
	Ingestor    *rag.Ingestor
	Searcher    tool.WebSearcher
	Sessions    store.SessionStore
	Agent       *prebuilt.AdaptiveRAG
	Service     *assistant.Service

	closers []func() error
}

// New wires the application. Callers must Close the returned App.
func New(ctx context.Context, cfg *config.Config) (*App, error) {
	logger := log.NewLogger(os.Stderr, cfg.LogLevel)
	log.SetDefaultLogger(logger)

	app := &App{Config: cfg, Logger: logger}
	if err := app.wire(ctx); err != nil {
		_ = app.Close()
		return nil, err
	}
	return app, nil
}

func (a *App) wire(ctx context.Context) error {
	cfg := a.Config
	var err error

	if a.LLM, err = NewLLM(cfg.LLM); err != nil {
		return err
	}
	if a.Embedder, err = NewEmbedder(cfg.LLM); err != nil {
		return err
	}

	vs, closeStore, err := NewVectorStore(ctx, cfg.Index)
	if err != nil {
		return err
	}
	a.VectorStore = vs
	a.onClose(closeStore)
	a.Retriever = rag.NewVectorRetriever(a.Embedder, vs, cfg.Index.TopK)

	web := loader.NewWebLoader(cfg.Crawl.SeedURLs,
		loader.WithDepth(cfg.Crawl.Depth),
		loader.WithMaxPages(cfg.Crawl.MaxPages),
		loader.WithLogger(log.Named(a.Logger, "crawler")),
	)
	a.Ingestor = rag.NewIngestor(web, rag.NewRecursiveSplitter(cfg.Index.ChunkSize, cfg.Index.ChunkOverlap),
		a.Embedder, vs, rag.WithLogger(log.Named(a.Logger, "ingest")))

	if a.Searcher, err = NewSearcher(cfg.Search); err != nil {
		return err
	}

	sessions, closeSessions, err := NewSessionStore(ctx, cfg.Session)
	if err != nil {
		return err
	}
	a.Sessions = sessions
	a.onClose(closeSessions)

	a.Agent, err = prebuilt.NewAdaptiveRAG(prebuilt.AdaptiveRAGConfig{
		LLM:              a.LLM,
		Retriever:        a.Retriever,
		Searcher:         a.Searcher,
		MaxRetries:       cfg.Agent.MaxRetries,
		Fallback:         cfg.Agent.Fallback,
		SearchMaxResults: cfg.Search.MaxResults,
		HistoryTurns:     cfg.Agent.HistoryTurns,
		LLMTimeout:       cfg.Agent.LLMTimeout,
		SearchTimeout:    cfg.Agent.SearchTimeout,
		StoreTimeout:     cfg.Agent.StoreTimeout,
		NodeRetries:      cfg.Agent.NodeRetries,
		RetryDelay:       cfg.Agent.RetryDelay,
		StepLimit:        cfg.Agent.StepLimit,
		Logger:           log.Named(a.Logger, "agent"),
	})
	if err != nil {
		return fmt.Errorf("build agent: %w", err)
	}

	a.Service = assistant.NewService(a.Agent, sessions,
		assistant.WithLogger(log.Named(a.Logger, "assistant")),
		assistant.WithStoreTimeout(cfg.Agent.StoreTimeout),
	)
	return nil
}

func (a *App) onClose(fn func() error) {
	if fn != nil {
		a.closers = append(a.closers, fn)
	}
}

// EnsureIndexed ingests the website when the index is empty.
func (a *App) EnsureIndexed(ctx context.Context) error {
	ran, err := a.Ingestor.EnsureIndexed(ctx)
	if err != nil {
		return fmt.Errorf("ensure index: %w", err)
	}
	if ran {
		a.Logger.Info("index built from %d seed url(s)", len(a.Config.Crawl.SeedURLs))
	}
	return nil
}

// Close releases stores in reverse order of creation.
func (a *App) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}

// NewLLM creates the chat model client.
func NewLLM(cfg config.LLMConfig) (llm.Client, error) {
	switch cfg.Provider {
	case config.ProviderOllama:
		model, err := ollama.New(ollama.WithModel(cfg.Model), ollama.WithServerURL(cfg.OllamaURL))
		if err != nil {
			return nil, fmt.Errorf("create ollama client: %w", err)
		}
		return llm.NewLangChainClient(model, llm.WithTemperature(cfg.Temperature)), nil
	case config.ProviderOpenAI:
		return llm.NewOpenAIClient(cfg.OpenAIAPIKey, cfg.OpenAIBaseURL, cfg.Model), nil
	default:
		return nil, fmt.Errorf("unknown LLM provider %q", cfg.Provider)
	}
}

// NewEmbedder creates the embedding model from the same provider as the LLM.
func NewEmbedder(cfg config.LLMConfig) (rag.Embedder, error) {
	var client embeddings.EmbedderClient
	switch cfg.Provider {
	case config.ProviderOllama:
		c, err := ollama.New(ollama.WithModel(cfg.EmbeddingModel), ollama.WithServerURL(cfg.OllamaURL))
		if err != nil {
			return nil, fmt.Errorf("create ollama embedder: %w", err)
		}
		client = c
	case config.ProviderOpenAI:
		opts := []lcopenai.Option{lcopenai.WithToken(cfg.OpenAIAPIKey), lcopenai.WithEmbeddingModel(cfg.EmbeddingModel)}
		if cfg.OpenAIBaseURL != "" {
			opts = append(opts, lcopenai.WithBaseURL(cfg.OpenAIBaseURL))
		}
		c, err := lcopenai.New(opts...)
		if err != nil {
			return nil, fmt.Errorf("create openai embedder: %w", err)
		}
		client = c
	default:
		return nil, fmt.Errorf("unknown LLM provider %q", cfg.Provider)
	}

	embedder, err := embeddings.NewEmbedder(client)
	if err != nil {
		return nil, fmt.Errorf("create embedder: %w", err)
	}
	return rag.NewLangChainEmbedder(embedder), nil
}

// NewVectorStore opens the configured index. The returned close function may be nil.
func NewVectorStore(ctx context.Context, cfg config.IndexConfig) (rag.VectorStore, func() error, error) {
	switch cfg.Backend {
	case config.VectorMemory:
		return vectorstore.NewInMemoryVectorStore(), nil, nil
	case config.VectorSQLite:
		s, err := vectorstore.NewSQLiteVectorStore(vectorstore.SQLiteOptions{Dir: cfg.Dir, TableName: cfg.Table})
		if err != nil {
			return nil, nil, fmt.Errorf("open sqlite index: %w", err)
		}
		return s, s.Close, nil
	case config.VectorPGVector:
		s, err := vectorstore.NewPGVectorStore(ctx, vectorstore.PGVectorOptions{
			ConnString: cfg.PostgresURL,
			TableName:  cfg.Table,
			Dimension:  cfg.Dimension,
		})
		if err != nil {
			return nil, nil, fmt.Errorf("open pgvector index: %w", err)
		}
		return s, func() error { s.Close(); return nil }, nil
	default:
		return nil, nil, fmt.Errorf("unknown vector backend %q", cfg.Backend)
	}
}

// NewSearcher creates the web search provider.
func NewSearcher(cfg config.SearchConfig) (tool.WebSearcher, error) {
	switch cfg.Provider {
	case config.SearchTavily:
		s, err := tool.NewTavilySearch(cfg.TavilyAPIKey)
		if err != nil {
			return nil, err
		}
		return s, nil
	case config.SearchBrave:
		s, err := tool.NewBraveSearch(cfg.BraveAPIKey)
		if err != nil {
			return nil, err
		}
		return s, nil
	default:
		return nil, fmt.Errorf("unknown search provider %q", cfg.Provider)
	}
}

// NewSessionStore opens the configured history store. The returned close
// function may be nil.
func NewSessionStore(ctx context.Context, cfg config.SessionConfig) (store.SessionStore, func() error, error) {
	switch cfg.Backend {
	case config.SessionMemory:
		return memory.NewSessionStore(memory.Options{MaxHistory: cfg.MaxHistory, TTL: cfg.TTL}), nil, nil
	case config.SessionRedis:
		s := redis.NewSessionStore(redis.RedisOptions{
			Addr:       cfg.RedisAddr,
			Password:   cfg.RedisPassword,
			DB:         cfg.RedisDB,
			TTL:        cfg.TTL,
			MaxHistory: cfg.MaxHistory,
		})
		if err := s.Ping(ctx); err != nil {
			_ = s.Close()
			return nil, nil, fmt.Errorf("connect to redis: %w", err)
		}
		return s, s.Close, nil
	case config.SessionSQLite:
		if err := os.MkdirAll(filepath.Dir(cfg.SQLitePath), 0o755); err != nil {
			return nil, nil, fmt.Errorf("create session database directory: %w", err)
		}
		s, err := sqlite.NewSessionStore(sqlite.SqliteOptions{Path: cfg.SQLitePath, MaxHistory: cfg.MaxHistory})
		if err != nil {
			return nil, nil, fmt.Errorf("open session database: %w", err)
		}
		return s, s.Close, nil
	default:
		return nil, nil, fmt.Errorf("unknown session backend %q", cfg.Backend)
	}
}
