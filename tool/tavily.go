package tool

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"
)

// TavilySearch calls the Tavily search API.
type TavilySearch struct {
	APIKey  string
	BaseURL string
	// Depth is Tavily's search_depth parameter (basic or advanced).
	Depth string

	// MaxRetries bounds the retries of rate-limited (HTTP 429) requests.
	MaxRetries   int
	InitialDelay time.Duration
	MaxDelay     time.Duration

	client *http.Client
}

var _ WebSearcher = (*TavilySearch)(nil)

type TavilyOption func(*TavilySearch)

// WithTavilyBaseURL sets the base URL for the Tavily API.
func WithTavilyBaseURL(baseURL string) TavilyOption {
	return func(t *TavilySearch) {
		t.BaseURL = baseURL
	}
}

// WithTavilyDepth sets the search depth.
func WithTavilyDepth(depth string) TavilyOption {
	return func(t *TavilySearch) {
		if depth != "" {
			t.Depth = depth
		}
	}
}

// WithTavilyBackoff configures 429 handling.
func WithTavilyBackoff(maxRetries int, initial, maxDelay time.Duration) TavilyOption {
	return func(t *TavilySearch) {
		t.MaxRetries = maxRetries
		t.InitialDelay = initial
		t.MaxDelay = maxDelay
	}
}

// WithTavilyHTTPClient sets the HTTP client.
func WithTavilyHTTPClient(c *http.Client) TavilyOption {
	return func(t *TavilySearch) {
		t.client = c
	}
}

// NewTavilySearch creates a Tavily provider.
// If apiKey is empty, it tries to read from TAVILY_API_KEY environment variable.
func NewTavilySearch(apiKey string, opts ...TavilyOption) (*TavilySearch, error) {
	if apiKey == "" {
		apiKey = os.Getenv("TAVILY_API_KEY")
	}
	if strings.TrimSpace(apiKey) == "" {
		return nil, fmt.Errorf("tavily: %w", ErrMissingAPIKey)
	}

	t := &TavilySearch{
		APIKey:       apiKey,
		BaseURL:      "https://api.tavily.com",
		Depth:        "basic",
		MaxRetries:   4,
		InitialDelay: time.Second,
		MaxDelay:     30 * time.Second,
		client:       &http.Client{Timeout: 10 * time.Second},
	}
	for _, opt := range opts {
		opt(t)
	}
	return t, nil
}

type tavilyRequest struct {
	Query       string `json:"query"`
	MaxResults  int    `json:"max_results,omitempty"`
	SearchDepth string `json:"search_depth,omitempty"`
}

type tavilyResponse struct {
	Results []struct {
		Title   string  `json:"title"`
		URL     string  `json:"url"`
		Content string  `json:"content"`
		Score   float64 `json:"score"`
	} `json:"results"`
}

// Search posts a query to Tavily. Rate-limited requests are retried with a
// doubling delay.
func (t *TavilySearch) Search(ctx context.Context, query string, maxResults int) ([]SearchResult, error) {
	payload, err := json.Marshal(tavilyRequest{
		Query:       query,
		MaxResults:  maxResults,
		SearchDepth: t.Depth,
	})
	if err != nil {
		return nil, err
	}

	var resp *http.Response
	delay := t.InitialDelay
	for attempt := 0; ; attempt++ {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, strings.TrimRight(t.BaseURL, "/")+"/search", bytes.NewReader(payload))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Authorization", "Bearer "+t.APIKey)

		resp, err = t.client.Do(req)
		if err != nil {
			return nil, fmt.Errorf("tavily request: %w", err)
		}
		if resp.StatusCode != http.StatusTooManyRequests || attempt >= t.MaxRetries {
			break
		}
		resp.Body.Close()

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(delay):
		}
		if delay < t.MaxDelay {
			delay = min(delay*2, t.MaxDelay)
		}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, &StatusError{Provider: "tavily", StatusCode: resp.StatusCode, Body: string(body)}
	}

	var response tavilyResponse
	if err := json.NewDecoder(resp.Body).Decode(&response); err != nil {
		return nil, fmt.Errorf("tavily: decode response: %w", err)
	}

	results := make([]SearchResult, 0, len(response.Results))
	for _, r := range response.Results {
		results = append(results, SearchResult{Title: r.Title, URL: r.URL, Snippet: r.Content})
		if maxResults > 0 && len(results) >= maxResults {
			break
		}
	}
	return results, nil
}
