package prebuilt

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/salaryse/assistant/graph"
	"github.com/salaryse/assistant/llm"
	"github.com/salaryse/assistant/log"
	"github.com/salaryse/assistant/rag"
	"github.com/salaryse/assistant/store"
	"github.com/salaryse/assistant/tool"
	"github.com/salaryse/assistant/upstream"
)

// Node names of the adaptive RAG graph.
const (
	NodeRoute           = "route"
	NodeRetrieve        = "retrieve"
	NodeGradeDocuments  = "grade_documents"
	NodeWebSearch       = "web_search"
	NodeGenerate        = "generate"
	NodeGenerateDirect  = "generate_direct"
	NodeGradeGeneration = "grade_generation"
)

// FallbackPolicy decides what happens when generation checks exhaust the
// retry budget.
type FallbackPolicy string

const (
	// FallbackLastGeneration returns the last generation marked low confidence.
	FallbackLastGeneration FallbackPolicy = "last_generation"
	// FallbackRefuse fails with ErrRetryBudgetExhausted.
	FallbackRefuse FallbackPolicy = "refuse"
)

// ParseFallbackPolicy validates a policy name.
func ParseFallbackPolicy(s string) (FallbackPolicy, error) {
	switch p := FallbackPolicy(strings.ToLower(strings.TrimSpace(s))); p {
	case FallbackLastGeneration, FallbackRefuse:
		return p, nil
	case "":
		return FallbackLastGeneration, nil
	default:
		return "", fmt.Errorf("unknown fallback policy %q", s)
	}
}

// AdaptiveRAGConfig holds the dependencies and limits of the agent.
type AdaptiveRAGConfig struct {
	LLM       llm.Client
	Retriever rag.Retriever
	Searcher  tool.WebSearcher

	// MaxRetries is the number of failed generation checks tolerated before
	// the fallback policy applies. Default 3.
	MaxRetries int
	Fallback   FallbackPolicy

	// SearchMaxResults is the number of web snippets fetched. Default 3.
	SearchMaxResults int

	// HistoryTurns is the number of prior exchanges included in generation
	// prompts. Default 3; negative disables history.
	HistoryTurns int

	LLMTimeout    time.Duration
	SearchTimeout time.Duration
	StoreTimeout  time.Duration

	// NodeRetries retries a node failing with a retryable error. Default 0.
	NodeRetries int
	RetryDelay  time.Duration

	// StepLimit bounds node executions per question. Default graph.DefaultStepLimit,
	// raised to MinStepLimit(MaxRetries) when that is larger.
	StepLimit int

	Logger log.Logger
}

// DefaultAdaptiveRAGConfig returns the limits used when none are configured.
func DefaultAdaptiveRAGConfig() AdaptiveRAGConfig {
	return AdaptiveRAGConfig{
		MaxRetries:       3,
		Fallback:         FallbackLastGeneration,
		SearchMaxResults: 3,
		HistoryTurns:     3,
		LLMTimeout:       60 * time.Second,
		SearchTimeout:    15 * time.Second,
		StoreTimeout:     10 * time.Second,
		RetryDelay:       500 * time.Millisecond,
		StepLimit:        graph.DefaultStepLimit,
	}
}

// Result is the outcome of one question.
type Result struct {
	Answer        string
	LowConfidence bool
	Datasource    Datasource
	Documents     []rag.Document
	// Path lists the nodes visited, in order.
	Path    []string
	Retries int
}

// AdaptiveRAG routes a question to a direct answer or to retrieval, grades
// evidence, falls back to web search and checks the generated answer.
type AdaptiveRAG struct {
	config   AdaptiveRAGConfig
	router   *Router
	grader   *Grader
	graph    *graph.StateGraph[GraphState]
	runnable *graph.StateRunnable[GraphState]
	logger   log.Logger
}

// MinStepLimit is the number of node executions the longest run can take
// with the given retry budget: six nodes on the first pass, then web search,
// generate and grade again after each tolerated failure.
func MinStepLimit(maxRetries int) int {
	return 6 + 3*maxRetries
}

// NewAdaptiveRAG validates config, applies defaults and compiles the graph.
func NewAdaptiveRAG(config AdaptiveRAGConfig) (*AdaptiveRAG, error) {
	if config.LLM == nil {
		return nil, fmt.Errorf("LLM is required for adaptive RAG")
	}
	if config.Retriever == nil {
		return nil, fmt.Errorf("retriever is required for adaptive RAG")
	}
	if config.Searcher == nil {
		return nil, fmt.Errorf("web searcher is required for adaptive RAG")
	}

	defaults := DefaultAdaptiveRAGConfig()
	if config.MaxRetries <= 0 {
		config.MaxRetries = defaults.MaxRetries
	}
	if config.Fallback == "" {
		config.Fallback = defaults.Fallback
	}
	fallback, err := ParseFallbackPolicy(string(config.Fallback))
	if err != nil {
		return nil, err
	}
	config.Fallback = fallback
	if config.SearchMaxResults <= 0 {
		config.SearchMaxResults = defaults.SearchMaxResults
	}
	if config.HistoryTurns == 0 {
		config.HistoryTurns = defaults.HistoryTurns
	}
	if config.StepLimit <= 0 {
		config.StepLimit = defaults.StepLimit
	}
	if config.Logger == nil {
		config.Logger = log.GetDefaultLogger()
	}
	if floor := MinStepLimit(config.MaxRetries); config.StepLimit < floor {
		config.Logger.Warn("step limit %d cannot fit %d retries, raising to %d", config.StepLimit, config.MaxRetries, floor)
		config.StepLimit = floor
	}

	a := &AdaptiveRAG{
		config: config,
		router: NewRouter(config.LLM, config.LLMTimeout),
		grader: NewGrader(config.LLM, config.LLMTimeout),
		logger: config.Logger,
	}
	if err := a.build(); err != nil {
		return nil, err
	}
	return a, nil
}

func (a *AdaptiveRAG) build() error {
	g := graph.NewStateGraph[GraphState]()

	g.AddNode(NodeRoute, "Route the question to retrieval or a direct answer", a.routeNode)
	g.AddNode(NodeRetrieve, "Retrieve candidate documents", a.retrieveNode)
	g.AddNode(NodeGradeDocuments, "Keep relevant documents", a.gradeDocumentsNode)
	g.AddNode(NodeWebSearch, "Add web search results", a.webSearchNode)
	g.AddNode(NodeGenerate, "Answer from documents", a.generateNode)
	g.AddNode(NodeGenerateDirect, "Answer without documents", a.generateDirectNode)
	g.AddNode(NodeGradeGeneration, "Check groundedness and usefulness", a.gradeGenerationNode)

	g.SetEntryPoint(NodeRoute)
	g.AddConditionalEdge(NodeRoute, func(_ context.Context, s GraphState) string {
		if s.Datasource == DatasourceDirectAnswer {
			return NodeGenerateDirect
		}
		return NodeRetrieve
	}, NodeGenerateDirect, NodeRetrieve)
	g.AddEdge(NodeRetrieve, NodeGradeDocuments)
	g.AddConditionalEdge(NodeGradeDocuments, func(_ context.Context, s GraphState) string {
		if s.WebSearch {
			return NodeWebSearch
		}
		return NodeGenerate
	}, NodeWebSearch, NodeGenerate)
	g.AddEdge(NodeWebSearch, NodeGenerate)
	g.AddEdge(NodeGenerate, NodeGradeGeneration)
	g.AddEdge(NodeGenerateDirect, graph.END)
	g.AddConditionalEdge(NodeGradeGeneration, func(_ context.Context, s GraphState) string {
		switch s.Verdict {
		case VerdictNotSupported:
			return NodeGenerate
		case VerdictNotUseful:
			return NodeWebSearch
		default:
			return graph.END
		}
	}, NodeGenerate, NodeWebSearch, graph.END)

	g.SetStepLimit(a.config.StepLimit)
	if a.config.NodeRetries > 0 {
		g.SetRetryPolicy(&graph.RetryPolicy{
			MaxRetries:      a.config.NodeRetries,
			BackoffStrategy: graph.ExponentialBackoff,
			BaseDelay:       a.config.RetryDelay,
			Retryable:       IsRetryable,
		})
	}

	runnable, err := g.Compile()
	if err != nil {
		return fmt.Errorf("compile adaptive RAG graph: %w", err)
	}
	runnable.AddListener(graph.NewLoggingListener[GraphState](a.logger))

	a.graph = g
	a.runnable = runnable
	return nil
}

// Graph returns the underlying graph for visualization.
func (a *AdaptiveRAG) Graph() *graph.StateGraph[GraphState] {
	return a.graph
}

// Mermaid renders the graph as a Mermaid flowchart.
func (a *AdaptiveRAG) Mermaid() string {
	return graph.NewExporter(a.graph).DrawMermaid()
}

// Run answers question given the thread's prior exchanges.
func (a *AdaptiveRAG) Run(ctx context.Context, question string, history []store.Exchange) (*Result, error) {
	recorder := &graph.PathRecorder[GraphState]{}

	initial := GraphState{
		Question: question,
		History:  a.recentHistory(history),
	}
	final, err := a.runnable.InvokeWithConfig(ctx, initial, &graph.Config[GraphState]{
		Listeners: []graph.NodeListener[GraphState]{recorder},
	})
	if err != nil {
		var nodeErr *graph.NodeError
		if errors.As(err, &nodeErr) {
			return nil, fmt.Errorf("%s: %w", nodeErr.Node, nodeErr.Err)
		}
		return nil, err
	}

	return &Result{
		Answer:        final.Generation,
		LowConfidence: final.LowConfidence,
		Datasource:    final.Datasource,
		Documents:     final.Documents,
		Path:          recorder.Path(),
		Retries:       final.Retries,
	}, nil
}

func (a *AdaptiveRAG) recentHistory(history []store.Exchange) []store.Exchange {
	if a.config.HistoryTurns < 0 {
		return nil
	}
	return store.Trim(history, a.config.HistoryTurns)
}

func (a *AdaptiveRAG) routeNode(ctx context.Context, s GraphState) (GraphState, error) {
	ds, err := a.router.Route(ctx, s.Question)
	if err != nil {
		return s, err
	}
	a.logger.Debug("routed %q to %s", s.Question, ds)
	s.Datasource = ds
	return s, nil
}

func (a *AdaptiveRAG) retrieveNode(ctx context.Context, s GraphState) (GraphState, error) {
	docs, err := upstream.Call(ctx, "document store", a.config.StoreTimeout, func(ctx context.Context) ([]rag.Document, error) {
		return a.config.Retriever.Retrieve(ctx, s.Question)
	})
	if err != nil {
		return s, fmt.Errorf("retrieval failed: %w", err)
	}
	s.Documents = docs
	return s, nil
}

func (a *AdaptiveRAG) gradeDocumentsNode(ctx context.Context, s GraphState) (GraphState, error) {
	relevant := make([]rag.Document, 0, len(s.Documents))
	rejected := 0
	for _, doc := range s.Documents {
		ok, err := a.grader.Relevant(ctx, s.Question, doc)
		if err != nil {
			return s, err
		}
		if ok {
			relevant = append(relevant, doc)
		} else {
			rejected++
		}
	}

	a.logger.Debug("graded %d documents: %d relevant, %d rejected", len(s.Documents), len(relevant), rejected)
	s.WebSearch = rejected > 0 || len(s.Documents) == 0
	s.Documents = relevant
	return s, nil
}

func (a *AdaptiveRAG) webSearchNode(ctx context.Context, s GraphState) (GraphState, error) {
	results, err := upstream.Call(ctx, "web search", a.config.SearchTimeout, func(ctx context.Context) ([]tool.SearchResult, error) {
		return a.config.Searcher.Search(ctx, s.Question, a.config.SearchMaxResults)
	})
	if err != nil {
		return s, fmt.Errorf("web search failed: %w", err)
	}
	if len(results) == 0 {
		a.logger.Warn("web search returned no results for %q", s.Question)
		return s, nil
	}

	snippets := make([]string, 0, len(results))
	urls := make([]string, 0, len(results))
	for _, r := range results {
		snippets = append(snippets, r.Snippet)
		urls = append(urls, r.URL)
	}

	docs := make([]rag.Document, len(s.Documents), len(s.Documents)+1)
	copy(docs, s.Documents)
	s.Documents = append(docs, rag.Document{
		ID:      fmt.Sprintf("web_search_%d", s.Retries),
		Content: strings.Join(snippets, "\n"),
		Metadata: map[string]any{
			rag.MetadataSource: rag.SourceWebSearch,
			rag.MetadataURLs:   urls,
		},
	})
	return s, nil
}

func (a *AdaptiveRAG) generateNode(ctx context.Context, s GraphState) (GraphState, error) {
	answer, err := a.complete(ctx, generatePrompt(s.Question, s.Documents, s.History))
	if err != nil {
		return s, fmt.Errorf("generation failed: %w", err)
	}
	s.Generation = answer
	s.Generations++
	return s, nil
}

func (a *AdaptiveRAG) generateDirectNode(ctx context.Context, s GraphState) (GraphState, error) {
	answer, err := a.complete(ctx, directPrompt(s.Question, s.History))
	if err != nil {
		return s, fmt.Errorf("generation failed: %w", err)
	}
	s.Generation = answer
	s.Generations++
	return s, nil
}

func (a *AdaptiveRAG) complete(ctx context.Context, prompt string) (string, error) {
	answer, err := upstream.Call(ctx, "llm", a.config.LLMTimeout, func(ctx context.Context) (string, error) {
		return a.config.LLM.Complete(ctx, prompt)
	})
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(answer), nil
}

func (a *AdaptiveRAG) gradeGenerationNode(ctx context.Context, s GraphState) (GraphState, error) {
	grounded, err := a.grader.Grounded(ctx, s.Documents, s.Generation)
	if err != nil {
		return s, err
	}

	verdict := VerdictNotSupported
	if grounded {
		resolves, err := a.grader.Resolves(ctx, s.Question, s.Generation)
		if err != nil {
			return s, err
		}
		verdict = VerdictNotUseful
		if resolves {
			verdict = VerdictUseful
		}
	}

	if verdict == VerdictUseful {
		s.Verdict = verdict
		return s, nil
	}

	s.Retries++
	a.logger.Info("generation check failed (%s), retry %d of %d", verdict, s.Retries, a.config.MaxRetries)
	if s.Retries <= a.config.MaxRetries {
		s.Verdict = verdict
		return s, nil
	}

	s.Verdict = VerdictExhausted
	if a.config.Fallback == FallbackRefuse {
		return s, fmt.Errorf("%w: %d failed checks, last %s", ErrRetryBudgetExhausted, s.Retries, verdict)
	}
	a.logger.Warn("retry budget exhausted, returning last generation as low confidence")
	s.LowConfidence = true
	return s, nil
}
