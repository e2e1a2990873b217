package rag

import (
	"context"
	"fmt"
)

// DefaultTopK is the number of chunks returned per query.
const DefaultTopK = 3

// VectorRetriever embeds the query and returns the nearest chunks.
type VectorRetriever struct {
	embedder Embedder
	store    VectorStore
	topK     int
}

var _ Retriever = (*VectorRetriever)(nil)

// NewVectorRetriever creates a retriever returning at most topK documents.
func NewVectorRetriever(embedder Embedder, store VectorStore, topK int) *VectorRetriever {
	if topK <= 0 {
		topK = DefaultTopK
	}
	return &VectorRetriever{
		embedder: embedder,
		store:    store,
		topK:     topK,
	}
}

// Retrieve returns up to topK documents ordered by descending similarity.
func (r *VectorRetriever) Retrieve(ctx context.Context, query string) ([]Document, error) {
	embedding, err := r.embedder.EmbedQuery(ctx, query)
	if err != nil {
		return nil, err
	}

	results, err := r.store.Search(ctx, embedding, r.topK)
	if err != nil {
		return nil, fmt.Errorf("vector search: %w", err)
	}

	docs := make([]Document, len(results))
	for i, res := range results {
		docs[i] = res.Document
	}
	return docs, nil
}
