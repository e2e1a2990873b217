// Package loader turns web pages into rag documents.
package loader

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/microcosm-cc/bluemonday"
	"golang.org/x/net/html"

	"github.com/salaryse/assistant/log"
	"github.com/salaryse/assistant/rag"
)

const (
	defaultMaxPages  = 50
	defaultUserAgent = "salaryse-assistant/1.0"
	maxPageBytes     = 5 << 20
)

// WebLoader crawls seed URLs breadth-first and returns one document per HTML
// page. Only links on the same host as their seed are followed.
type WebLoader struct {
	seeds     []string
	depth     int
	maxPages  int
	client    *http.Client
	policy    *bluemonday.Policy
	userAgent string
	logger    log.Logger
}

var _ rag.DocumentLoader = (*WebLoader)(nil)

type WebOption func(*WebLoader)

// WithDepth sets how many link hops from a seed are followed. 0 loads only the seeds.
func WithDepth(depth int) WebOption {
	return func(l *WebLoader) {
		if depth >= 0 {
			l.depth = depth
		}
	}
}

// WithMaxPages caps the number of pages fetched per Load.
func WithMaxPages(n int) WebOption {
	return func(l *WebLoader) {
		if n > 0 {
			l.maxPages = n
		}
	}
}

// WithHTTPClient sets the client used for fetching.
func WithHTTPClient(c *http.Client) WebOption {
	return func(l *WebLoader) {
		l.client = c
	}
}

// WithUserAgent sets the User-Agent header.
func WithUserAgent(ua string) WebOption {
	return func(l *WebLoader) {
		l.userAgent = ua
	}
}

// WithLogger sets the crawl logger.
func WithLogger(logger log.Logger) WebOption {
	return func(l *WebLoader) {
		l.logger = logger
	}
}

// NewWebLoader creates a crawler over seeds with depth 1.
func NewWebLoader(seeds []string, opts ...WebOption) *WebLoader {
	l := &WebLoader{
		seeds:     seeds,
		depth:     1,
		maxPages:  defaultMaxPages,
		client:    &http.Client{Timeout: 15 * time.Second},
		policy:    textPolicy(),
		userAgent: defaultUserAgent,
		logger:    log.GetDefaultLogger(),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

type crawlItem struct {
	url   *url.URL
	depth int
	host  string
}

// Load crawls and returns the pages that contained text. A failing seed is
// an error; failures on linked pages are logged and skipped.
func (l *WebLoader) Load(ctx context.Context) ([]rag.Document, error) {
	var queue []crawlItem
	visited := make(map[string]bool)

	for _, seed := range l.seeds {
		u, err := url.Parse(seed)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") {
			return nil, fmt.Errorf("invalid seed url %q", seed)
		}
		u.Fragment = ""
		if !visited[u.String()] {
			visited[u.String()] = true
			queue = append(queue, crawlItem{url: u, depth: 0, host: u.Host})
		}
	}

	var docs []rag.Document
	fetched := 0
	for len(queue) > 0 && fetched < l.maxPages {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		item := queue[0]
		queue = queue[1:]
		fetched++

		page, err := l.fetch(ctx, item.url)
		if err != nil {
			if item.depth == 0 {
				return nil, fmt.Errorf("fetch seed %s: %w", item.url, err)
			}
			l.logger.Warn("skipping %s: %v", item.url, err)
			continue
		}
		if page == nil {
			continue
		}

		if page.text != "" {
			docs = append(docs, rag.Document{
				ID:      item.url.String(),
				Content: page.text,
				Metadata: map[string]any{
					rag.MetadataSource: item.url.String(),
					rag.MetadataTitle:  page.title,
				},
			})
		}
		l.logger.Debug("crawled %s (depth %d, %d links)", item.url, item.depth, len(page.links))

		if item.depth >= l.depth {
			continue
		}
		for _, link := range page.links {
			if link.Host != item.host || visited[link.String()] {
				continue
			}
			visited[link.String()] = true
			queue = append(queue, crawlItem{url: link, depth: item.depth + 1, host: item.host})
		}
	}

	l.logger.Info("crawled %d pages, kept %d documents", fetched, len(docs))
	return docs, nil
}

type page struct {
	title string
	text  string
	links []*url.URL
}

// fetch returns nil, nil for responses that are not HTML.
func (l *WebLoader) fetch(ctx context.Context, u *url.URL) (*page, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", l.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml")

	resp, err := l.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("http %d", resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); ct != "" && !strings.Contains(ct, "html") {
		return nil, nil
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxPageBytes))
	if err != nil {
		return nil, err
	}
	return l.parse(u, body)
}

func (l *WebLoader) parse(base *url.URL, body []byte) (*page, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}

	p := &page{title: strings.TrimSpace(doc.Find("title").First().Text())}

	doc.Find("a[href]").Each(func(_ int, a *goquery.Selection) {
		href, _ := a.Attr("href")
		ref, err := url.Parse(strings.TrimSpace(href))
		if err != nil {
			return
		}
		abs := base.ResolveReference(ref)
		if abs.Scheme != "http" && abs.Scheme != "https" {
			return
		}
		abs.Fragment = ""
		p.links = append(p.links, abs)
	})

	bodyHTML, err := doc.Find("body").Html()
	if err != nil {
		return nil, fmt.Errorf("render body: %w", err)
	}
	clean, err := goquery.NewDocumentFromReader(strings.NewReader(l.policy.Sanitize(bodyHTML)))
	if err != nil {
		return nil, fmt.Errorf("parse sanitized html: %w", err)
	}
	p.text = extractText(clean.Selection)
	return p, nil
}

// textPolicy allows the block elements extractText breaks lines on.
func textPolicy() *bluemonday.Policy {
	p := bluemonday.UGCPolicy()
	for name := range blockElements {
		p.AllowElements(name)
	}
	return p
}

var blockElements = map[string]bool{
	"p": true, "div": true, "section": true, "article": true, "header": true, "footer": true,
	"li": true, "ul": true, "ol": true, "br": true, "tr": true, "table": true,
	"h1": true, "h2": true, "h3": true, "h4": true, "h5": true, "h6": true,
	"blockquote": true, "pre": true, "dd": true, "dt": true,
}

// extractText renders the text of sel with block elements on their own lines.
func extractText(sel *goquery.Selection) string {
	var sb strings.Builder
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		switch n.Type {
		case html.TextNode:
			sb.WriteString(n.Data)
		case html.ElementNode:
			if blockElements[n.Data] {
				sb.WriteString("\n")
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
		if n.Type == html.ElementNode && blockElements[n.Data] {
			sb.WriteString("\n")
		}
	}
	for _, n := range sel.Nodes {
		walk(n)
	}

	var lines []string
	for _, line := range strings.Split(sb.String(), "\n") {
		line = strings.Join(strings.Fields(line), " ")
		if line != "" {
			lines = append(lines, line)
		}
	}
	return strings.Join(lines, "\n")
}
