package store

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"github.com/salaryse/assistant/rag"
)

// InMemoryVectorStore keeps documents and embeddings in process memory.
type InMemoryVectorStore struct {
	mu         sync.RWMutex
	documents  []rag.Document
	embeddings [][]float32
}

var _ rag.VectorStore = (*InMemoryVectorStore)(nil)

// NewInMemoryVectorStore creates a new InMemoryVectorStore
func NewInMemoryVectorStore() *InMemoryVectorStore {
	return &InMemoryVectorStore{}
}

// Add stores documents with their embeddings
func (s *InMemoryVectorStore) Add(_ context.Context, docs []rag.Document, embeddings [][]float32) error {
	if len(docs) != len(embeddings) {
		return fmt.Errorf("documents and embeddings must have same length: %d != %d", len(docs), len(embeddings))
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.documents = append(s.documents, docs...)
	s.embeddings = append(s.embeddings, embeddings...)
	return nil
}

// Search returns the k most similar documents by cosine similarity
func (s *InMemoryVectorStore) Search(_ context.Context, embedding []float32, k int) ([]rag.SearchResult, error) {
	if k <= 0 {
		return nil, fmt.Errorf("k must be positive")
	}

	s.mu.RLock()
	results := make([]rag.SearchResult, len(s.documents))
	for i, doc := range s.documents {
		results[i] = rag.SearchResult{
			Document: doc,
			Score:    rag.CosineSimilarity(embedding, s.embeddings[i]),
		}
	}
	s.mu.RUnlock()

	return topK(results, k), nil
}

// Count returns the number of stored documents
func (s *InMemoryVectorStore) Count(_ context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.documents), nil
}

// topK sorts results by descending score, keeping insertion order for ties.
func topK(results []rag.SearchResult, k int) []rag.SearchResult {
	slices.SortStableFunc(results, func(a, b rag.SearchResult) int {
		switch {
		case a.Score > b.Score:
			return -1
		case a.Score < b.Score:
			return 1
		default:
			return 0
		}
	})
	if k < len(results) {
		results = results[:k]
	}
	return results
}
