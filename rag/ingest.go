package rag

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/salaryse/assistant/log"
)

const defaultBatchSize = 32

// Ingestor loads documents, splits them into chunks, embeds and stores them.
type Ingestor struct {
	loader    DocumentLoader
	splitter  TextSplitter
	embedder  Embedder
	store     VectorStore
	logger    log.Logger
	batchSize int
}

// IngestorOption configures an Ingestor.
type IngestorOption func(*Ingestor)

// WithLogger sets the ingestion logger.
func WithLogger(logger log.Logger) IngestorOption {
	return func(i *Ingestor) {
		i.logger = logger
	}
}

// WithBatchSize sets how many chunks are embedded per request.
func WithBatchSize(n int) IngestorOption {
	return func(i *Ingestor) {
		if n > 0 {
			i.batchSize = n
		}
	}
}

// NewIngestor creates an Ingestor.
func NewIngestor(loader DocumentLoader, splitter TextSplitter, embedder Embedder, store VectorStore, opts ...IngestorOption) *Ingestor {
	i := &Ingestor{
		loader:    loader,
		splitter:  splitter,
		embedder:  embedder,
		store:     store,
		logger:    log.GetDefaultLogger(),
		batchSize: defaultBatchSize,
	}
	for _, opt := range opts {
		opt(i)
	}
	return i
}

// EnsureIndexed ingests only when the store is empty. It reports whether
// ingestion ran.
func (i *Ingestor) EnsureIndexed(ctx context.Context) (bool, error) {
	n, err := i.store.Count(ctx)
	if err != nil {
		return false, fmt.Errorf("count indexed chunks: %w", err)
	}
	if n > 0 {
		i.logger.Info("index holds %d chunks, skipping ingestion", n)
		return false, nil
	}

	i.logger.Info("index is empty, ingesting")
	if _, err := i.Ingest(ctx); err != nil {
		return false, err
	}
	return true, nil
}

// Ingest loads, splits, embeds and stores every document. It returns the
// number of chunks written.
func (i *Ingestor) Ingest(ctx context.Context) (int, error) {
	docs, err := i.loader.Load(ctx)
	if err != nil {
		return 0, fmt.Errorf("load documents: %w", err)
	}
	i.logger.Info("loaded %d documents", len(docs))

	chunks, err := i.Split(docs)
	if err != nil {
		return 0, err
	}
	if len(chunks) == 0 {
		i.logger.Warn("no chunks produced from %d documents", len(docs))
		return 0, nil
	}

	written := 0
	for start := 0; start < len(chunks); start += i.batchSize {
		end := min(start+i.batchSize, len(chunks))
		batch := chunks[start:end]

		texts := make([]string, len(batch))
		for j, c := range batch {
			texts[j] = c.Content
		}
		vectors, err := i.embedder.EmbedDocuments(ctx, texts)
		if err != nil {
			return written, fmt.Errorf("embed chunks %d-%d: %w", start, end, err)
		}
		if err := i.store.Add(ctx, batch, vectors); err != nil {
			return written, fmt.Errorf("store chunks %d-%d: %w", start, end, err)
		}
		written += len(batch)
		i.logger.Debug("stored chunks %d-%d", start, end)
	}

	i.logger.Info("ingested %d chunks", written)
	return written, nil
}

// Split splits each document into chunk documents that inherit its metadata
// and record their position in chunk_index. Chunk ids derive from the parent
// id and position, so re-ingesting a page overwrites its chunks.
func (i *Ingestor) Split(docs []Document) ([]Document, error) {
	var chunks []Document
	for _, doc := range docs {
		parts, err := i.splitter.SplitText(doc.Content)
		if err != nil {
			return nil, fmt.Errorf("split %s: %w", doc.ID, err)
		}
		for idx, part := range parts {
			chunk := Document{
				ID:      chunkID(doc.ID, idx),
				Content: part,
			}.WithMetadata(MetadataChunkIndex, idx)
			for k, v := range doc.Metadata {
				chunk = chunk.WithMetadata(k, v)
			}
			chunks = append(chunks, chunk)
		}
	}
	return chunks, nil
}

func chunkID(parentID string, idx int) string {
	if parentID == "" {
		return uuid.NewString()
	}
	return uuid.NewSHA1(uuid.NameSpaceURL, []byte(fmt.Sprintf("%s#%d", parentID, idx))).String()
}
