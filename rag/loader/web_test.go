package loader

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/salaryse/assistant/log"
	"github.com/salaryse/assistant/rag"
)

func newSite(t *testing.T, external string) (*httptest.Server, *int32) {
	var hits int32
	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		if r.URL.Path != "/" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		fmt.Fprintf(w, `<html><head><title>SalarySe</title><style>body{color:red}</style></head>
<body>
<h1>SalarySe</h1>
<p>SalarySe is a financial wellness platform.</p>
<script>alert("x")</script>
<a href="/about#team">About</a>
<a href="/about">About again</a>
<a href="/missing">Broken</a>
<a href="/logo.png">Logo</a>
<a href="mailto:hi@salaryse.com">Mail</a>
<a href="%s/elsewhere">Elsewhere</a>
</body></html>`, external)
	})
	mux.HandleFunc("/about", func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte(`<html><body><div>Early salary access</div><div>for employees</div><a href="/deeper">Deeper</a></body></html>`))
	})
	mux.HandleFunc("/deeper", func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		_, _ = w.Write([]byte(`<html><body>too deep</body></html>`))
	})
	mux.HandleFunc("/logo.png", func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		w.Header().Set("Content-Type", "image/png")
		_, _ = w.Write([]byte{0x89, 0x50})
	})
	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return server, &hits
}

func TestWebLoader_CrawlsSameHostToDepth(t *testing.T) {
	var externalHits int32
	external := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&externalHits, 1)
	}))
	defer external.Close()

	site, _ := newSite(t, external.URL)

	docs, err := NewWebLoader([]string{site.URL + "/"}, WithLogger(&log.NoOpLogger{})).Load(context.Background())
	require.NoError(t, err)
	require.Len(t, docs, 2)

	home := docs[0]
	assert.Equal(t, site.URL+"/", home.ID)
	assert.Equal(t, "SalarySe", home.Metadata[rag.MetadataTitle])
	assert.Equal(t, site.URL+"/", home.Source())
	assert.Contains(t, home.Content, "SalarySe is a financial wellness platform.")
	assert.NotContains(t, home.Content, "alert")
	assert.NotContains(t, home.Content, "color:red")

	about := docs[1]
	assert.Equal(t, site.URL+"/about", about.ID)
	assert.Equal(t, "Early salary access\nfor employees\nDeeper", about.Content)

	assert.Equal(t, int32(0), atomic.LoadInt32(&externalHits))
	for _, d := range docs {
		assert.False(t, strings.Contains(d.ID, "deeper"))
	}
}

func TestWebLoader_DepthZeroAndMaxPages(t *testing.T) {
	site, hits := newSite(t, "http://example.invalid")

	docs, err := NewWebLoader([]string{site.URL + "/"}, WithDepth(0), WithLogger(&log.NoOpLogger{})).Load(context.Background())
	require.NoError(t, err)
	assert.Len(t, docs, 1)
	assert.Equal(t, int32(1), atomic.LoadInt32(hits))

	docs, err = NewWebLoader([]string{site.URL + "/"}, WithDepth(3), WithMaxPages(2), WithLogger(&log.NoOpLogger{})).Load(context.Background())
	require.NoError(t, err)
	assert.Len(t, docs, 2)
}

func TestWebLoader_SeedFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	_, err := NewWebLoader([]string{server.URL}, WithLogger(&log.NoOpLogger{})).Load(context.Background())
	assert.Error(t, err)

	_, err = NewWebLoader([]string{"ftp://nope"}).Load(context.Background())
	assert.Error(t, err)
}
