// Package config loads assistant configuration from the environment, after
// reading an optional .env file.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/salaryse/assistant/log"
	"github.com/salaryse/assistant/prebuilt"
)

// Backend names.
const (
	ProviderOllama = "ollama"
	ProviderOpenAI = "openai"

	VectorSQLite   = "sqlite"
	VectorMemory   = "memory"
	VectorPGVector = "pgvector"

	SessionMemory = "memory"
	SessionRedis  = "redis"
	SessionSQLite = "sqlite"

	SearchTavily = "tavily"
	SearchBrave  = "brave"
)

// Config holds all assistant configuration.
type Config struct {
	LLM      LLMConfig
	Index    IndexConfig
	Crawl    CrawlConfig
	Search   SearchConfig
	Session  SessionConfig
	Agent    AgentConfig
	LogLevel log.LogLevel
}

// LLMConfig selects the language model and embedding backends.
type LLMConfig struct {
	Provider       string // "ollama" or "openai"
	Model          string
	OllamaURL      string
	OpenAIAPIKey   string
	OpenAIBaseURL  string
	EmbeddingModel string
	Temperature    float64
}

// IndexConfig describes the document index.
type IndexConfig struct {
	Backend      string // "sqlite", "memory" or "pgvector"
	Dir          string
	PostgresURL  string
	Table        string
	Dimension    int
	TopK         int
	ChunkSize    int
	ChunkOverlap int
}

// CrawlConfig controls ingestion of the website.
type CrawlConfig struct {
	SeedURLs []string
	Depth    int
	MaxPages int
}

// SearchConfig selects the web search provider.
type SearchConfig struct {
	Provider     string // "tavily" or "brave"
	TavilyAPIKey string
	BraveAPIKey  string
	MaxResults   int
}

// SessionConfig selects where conversation history lives.
type SessionConfig struct {
	Backend       string // "memory", "redis" or "sqlite"
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	SQLitePath    string
	MaxHistory    int
	TTL           time.Duration
}

// AgentConfig holds the limits of the adaptive RAG agent.
type AgentConfig struct {
	MaxRetries    int
	Fallback      prebuilt.FallbackPolicy
	HistoryTurns  int
	NodeRetries   int
	RetryDelay    time.Duration
	StepLimit     int
	LLMTimeout    time.Duration
	SearchTimeout time.Duration
	StoreTimeout  time.Duration
}

// Load reads .env (when present) and the environment, then validates.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}
	return FromEnv()
}

// FromEnv reads configuration from the environment only.
func FromEnv() (*Config, error) {
	fallback, err := prebuilt.ParseFallbackPolicy(getEnv("AGENT_FALLBACK", string(prebuilt.FallbackLastGeneration)))
	if err != nil {
		return nil, fmt.Errorf("invalid configuration: AGENT_FALLBACK: %w", err)
	}
	level, err := log.ParseLevel(getEnv("LOG_LEVEL", "info"))
	if err != nil {
		return nil, fmt.Errorf("invalid configuration: LOG_LEVEL: %w", err)
	}

	env := &envReader{}
	cfg := &Config{
		LLM: LLMConfig{
			Provider:       strings.ToLower(getEnv("LLM_PROVIDER", ProviderOllama)),
			Model:          getEnv("LLM_MODEL", "llama3.1"),
			OllamaURL:      getEnv("OLLAMA_URL", "http://localhost:11434"),
			OpenAIAPIKey:   getEnv("OPENAI_API_KEY", ""),
			OpenAIBaseURL:  getEnv("OPENAI_BASE_URL", ""),
			EmbeddingModel: getEnv("EMBEDDING_MODEL", "nomic-embed-text"),
			Temperature:    env.getFloat("LLM_TEMPERATURE", 0),
		},
		Index: IndexConfig{
			Backend:      strings.ToLower(getEnv("VECTOR_BACKEND", VectorSQLite)),
			Dir:          getEnv("INDEX_DIR", "db/salaryse_index"),
			PostgresURL:  getEnv("POSTGRES_URL", ""),
			Table:        getEnv("VECTOR_TABLE", "chunks"),
			Dimension:    env.getInt("EMBEDDING_DIMENSION", 768),
			TopK:         env.getInt("RETRIEVER_TOP_K", 3),
			ChunkSize:    env.getInt("CHUNK_SIZE", 1000),
			ChunkOverlap: env.getInt("CHUNK_OVERLAP", 100),
		},
		Crawl: CrawlConfig{
			SeedURLs: getEnvList("CRAWL_SEED_URLS", []string{"https://www.salaryse.com/"}),
			Depth:    env.getInt("CRAWL_DEPTH", 1),
			MaxPages: env.getInt("CRAWL_MAX_PAGES", 50),
		},
		Search: SearchConfig{
			Provider:     strings.ToLower(getEnv("SEARCH_PROVIDER", SearchTavily)),
			TavilyAPIKey: getEnv("TAVILY_API_KEY", ""),
			BraveAPIKey:  getEnv("BRAVE_API_KEY", ""),
			MaxResults:   env.getInt("SEARCH_MAX_RESULTS", 3),
		},
		Session: SessionConfig{
			Backend:       strings.ToLower(getEnv("SESSION_BACKEND", SessionMemory)),
			RedisAddr:     getEnv("REDIS_ADDR", "localhost:6379"),
			RedisPassword: getEnv("REDIS_PASSWORD", ""),
			RedisDB:       env.getInt("REDIS_DB", 0),
			SQLitePath:    getEnv("SESSION_DB_PATH", "db/sessions.db"),
			MaxHistory:    env.getInt("SESSION_MAX_HISTORY", 20),
			TTL:           env.getDuration("SESSION_TTL", 0),
		},
		Agent: AgentConfig{
			MaxRetries:    env.getInt("AGENT_MAX_RETRIES", 3),
			Fallback:      fallback,
			HistoryTurns:  env.getInt("AGENT_HISTORY_TURNS", 3),
			NodeRetries:   env.getInt("AGENT_NODE_RETRIES", 1),
			RetryDelay:    env.getDuration("AGENT_RETRY_DELAY", 500*time.Millisecond),
			StepLimit:     env.getInt("AGENT_STEP_LIMIT", 50),
			LLMTimeout:    env.getDuration("LLM_TIMEOUT", 60*time.Second),
			SearchTimeout: env.getDuration("SEARCH_TIMEOUT", 15*time.Second),
			StoreTimeout:  env.getDuration("STORE_TIMEOUT", 10*time.Second),
		},
		LogLevel: level,
	}
	if err := errors.Join(env.errs...); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// Validate checks that backends are known and their required settings present.
func (c *Config) Validate() error {
	switch c.LLM.Provider {
	case ProviderOllama:
		if c.LLM.OllamaURL == "" {
			return fmt.Errorf("OLLAMA_URL cannot be empty")
		}
	case ProviderOpenAI:
		if c.LLM.OpenAIAPIKey == "" {
			return fmt.Errorf("OPENAI_API_KEY is required for LLM_PROVIDER=openai")
		}
	default:
		return fmt.Errorf("unknown LLM_PROVIDER %q", c.LLM.Provider)
	}
	if c.LLM.Model == "" {
		return fmt.Errorf("LLM_MODEL cannot be empty")
	}
	if c.LLM.EmbeddingModel == "" {
		return fmt.Errorf("EMBEDDING_MODEL cannot be empty")
	}

	switch c.Index.Backend {
	case VectorSQLite:
		if c.Index.Dir == "" {
			return fmt.Errorf("INDEX_DIR cannot be empty")
		}
	case VectorMemory:
	case VectorPGVector:
		if c.Index.PostgresURL == "" {
			return fmt.Errorf("POSTGRES_URL is required for VECTOR_BACKEND=pgvector")
		}
	default:
		return fmt.Errorf("unknown VECTOR_BACKEND %q", c.Index.Backend)
	}
	if c.Index.TopK <= 0 {
		return fmt.Errorf("RETRIEVER_TOP_K must be > 0")
	}
	if c.Index.ChunkSize <= 0 || c.Index.ChunkOverlap < 0 || c.Index.ChunkOverlap >= c.Index.ChunkSize {
		return fmt.Errorf("CHUNK_OVERLAP must be in [0, CHUNK_SIZE)")
	}

	if len(c.Crawl.SeedURLs) == 0 {
		return fmt.Errorf("CRAWL_SEED_URLS cannot be empty")
	}
	if c.Crawl.Depth < 0 || c.Crawl.MaxPages <= 0 {
		return fmt.Errorf("CRAWL_DEPTH must be >= 0 and CRAWL_MAX_PAGES > 0")
	}

	switch c.Search.Provider {
	case SearchTavily:
		if c.Search.TavilyAPIKey == "" {
			return fmt.Errorf("TAVILY_API_KEY is required for SEARCH_PROVIDER=tavily")
		}
	case SearchBrave:
		if c.Search.BraveAPIKey == "" {
			return fmt.Errorf("BRAVE_API_KEY is required for SEARCH_PROVIDER=brave")
		}
	default:
		return fmt.Errorf("unknown SEARCH_PROVIDER %q", c.Search.Provider)
	}
	if c.Search.MaxResults <= 0 {
		return fmt.Errorf("SEARCH_MAX_RESULTS must be > 0")
	}

	switch c.Session.Backend {
	case SessionMemory:
	case SessionRedis:
		if c.Session.RedisAddr == "" {
			return fmt.Errorf("REDIS_ADDR is required for SESSION_BACKEND=redis")
		}
	case SessionSQLite:
		if c.Session.SQLitePath == "" {
			return fmt.Errorf("SESSION_DB_PATH is required for SESSION_BACKEND=sqlite")
		}
	default:
		return fmt.Errorf("unknown SESSION_BACKEND %q", c.Session.Backend)
	}
	if c.Session.MaxHistory <= 0 {
		return fmt.Errorf("SESSION_MAX_HISTORY must be > 0")
	}

	if c.Agent.MaxRetries <= 0 {
		return fmt.Errorf("AGENT_MAX_RETRIES must be > 0")
	}
	if c.Agent.NodeRetries < 0 {
		return fmt.Errorf("AGENT_NODE_RETRIES must be >= 0")
	}
	if c.Agent.StepLimit <= 0 {
		return fmt.Errorf("AGENT_STEP_LIMIT must be > 0")
	}
	return nil
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return strings.TrimSpace(value)
	}
	return fallback
}

// envReader parses typed variables and keeps every parse failure, so a typo
// is reported instead of silently replaced by the default.
type envReader struct {
	errs []error
}

func (r *envReader) lookup(key string) (string, bool) {
	value, ok := os.LookupEnv(key)
	return strings.TrimSpace(value), ok
}

func (r *envReader) fail(key, value string, err error) {
	r.errs = append(r.errs, fmt.Errorf("%s=%q: %w", key, value, err))
}

func (r *envReader) getInt(key string, fallback int) int {
	value, ok := r.lookup(key)
	if !ok {
		return fallback
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		r.fail(key, value, err)
		return fallback
	}
	return n
}

func (r *envReader) getFloat(key string, fallback float64) float64 {
	value, ok := r.lookup(key)
	if !ok {
		return fallback
	}
	f, err := strconv.ParseFloat(value, 64)
	if err != nil {
		r.fail(key, value, err)
		return fallback
	}
	return f
}

func (r *envReader) getDuration(key string, fallback time.Duration) time.Duration {
	value, ok := r.lookup(key)
	if !ok {
		return fallback
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		r.fail(key, value, err)
		return fallback
	}
	return d
}

func getEnvList(key string, fallback []string) []string {
	value, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
