package rag

import (
	"context"
	"fmt"

	"github.com/tmc/langchaingo/embeddings"
	"github.com/tmc/langchaingo/textsplitter"
)

// LangChainEmbedder adapts langchaingo's embeddings.Embedder to Embedder.
type LangChainEmbedder struct {
	embedder embeddings.Embedder
}

var _ Embedder = (*LangChainEmbedder)(nil)

// NewLangChainEmbedder creates a new adapter for langchaingo embedders
func NewLangChainEmbedder(embedder embeddings.Embedder) *LangChainEmbedder {
	return &LangChainEmbedder{
		embedder: embedder,
	}
}

// EmbedQuery embeds a single query string
func (l *LangChainEmbedder) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	embedding, err := l.embedder.EmbedQuery(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}

	result := make([]float32, len(embedding))
	for i, val := range embedding {
		result[i] = float32(val)
	}
	return result, nil
}

// EmbedDocuments embeds a batch of texts
func (l *LangChainEmbedder) EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error) {
	vectors, err := l.embedder.EmbedDocuments(ctx, texts)
	if err != nil {
		return nil, fmt.Errorf("embed documents: %w", err)
	}
	if len(vectors) != len(texts) {
		return nil, fmt.Errorf("embed documents: got %d vectors for %d texts", len(vectors), len(texts))
	}

	result := make([][]float32, len(vectors))
	for i, vec := range vectors {
		result[i] = make([]float32, len(vec))
		for j, val := range vec {
			result[i][j] = float32(val)
		}
	}
	return result, nil
}

// LangChainSplitter adapts a langchaingo textsplitter.TextSplitter.
type LangChainSplitter struct {
	splitter textsplitter.TextSplitter
}

var _ TextSplitter = (*LangChainSplitter)(nil)

// NewLangChainSplitter wraps splitter.
func NewLangChainSplitter(splitter textsplitter.TextSplitter) *LangChainSplitter {
	return &LangChainSplitter{splitter: splitter}
}

// NewRecursiveSplitter returns a recursive character splitter with the given
// chunk size and overlap, measured in characters.
func NewRecursiveSplitter(chunkSize, chunkOverlap int) *LangChainSplitter {
	return NewLangChainSplitter(textsplitter.NewRecursiveCharacter(
		textsplitter.WithChunkSize(chunkSize),
		textsplitter.WithChunkOverlap(chunkOverlap),
	))
}

func (l *LangChainSplitter) SplitText(text string) ([]string, error) {
	return l.splitter.SplitText(text)
}
