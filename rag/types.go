package rag

import (
	"context"
	"maps"
)

// Metadata keys used on documents.
const (
	MetadataSource     = "source"
	MetadataTitle      = "title"
	MetadataChunkIndex = "chunk_index"
	MetadataURLs       = "urls"
)

// SourceWebSearch marks documents synthesised from web search results.
const SourceWebSearch = "web_search"

// Document is a chunk of text with optional metadata. Treat documents as
// immutable; use WithMetadata to derive a changed copy.
type Document struct {
	ID       string         `json:"id"`
	Content  string         `json:"content"`
	Metadata map[string]any `json:"metadata,omitempty"`
}

// Source returns the source metadata, if set.
func (d Document) Source() string {
	s, _ := d.Metadata[MetadataSource].(string)
	return s
}

// WithMetadata returns a copy of d with key set to value.
func (d Document) WithMetadata(key string, value any) Document {
	md := make(map[string]any, len(d.Metadata)+1)
	maps.Copy(md, d.Metadata)
	md[key] = value
	d.Metadata = md
	return d
}

// SearchResult is a document and its similarity to the query.
type SearchResult struct {
	Document Document
	Score    float64
}

// Embedder turns text into vectors.
type Embedder interface {
	EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error)
	EmbedQuery(ctx context.Context, text string) ([]float32, error)
}

// TextSplitter splits text into chunks.
type TextSplitter interface {
	SplitText(text string) ([]string, error)
}

// DocumentLoader produces whole documents to be split and indexed.
type DocumentLoader interface {
	Load(ctx context.Context) ([]Document, error)
}

// VectorStore persists embedded documents and searches them by similarity.
type VectorStore interface {
	Add(ctx context.Context, docs []Document, embeddings [][]float32) error
	Search(ctx context.Context, embedding []float32, k int) ([]SearchResult, error)
	Count(ctx context.Context) (int, error)
}

// Retriever returns documents relevant to a query.
type Retriever interface {
	Retrieve(ctx context.Context, query string) ([]Document, error)
}
