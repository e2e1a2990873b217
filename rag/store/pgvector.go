package store

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pgvector/pgvector-go"
	pgxvec "github.com/pgvector/pgvector-go/pgx"

	"github.com/salaryse/assistant/rag"
)

// DBPool defines the interface for database connection pool
type DBPool interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Begin(ctx context.Context) (pgx.Tx, error)
	Close()
}

// PGVectorStore stores chunks in Postgres using the pgvector extension and
// searches them by cosine distance.
type PGVectorStore struct {
	pool      DBPool
	tableName string
	dimension int
}

var _ rag.VectorStore = (*PGVectorStore)(nil)

// PGVectorOptions configuration for Postgres connection
type PGVectorOptions struct {
	ConnString string
	TableName  string // Default "chunks"
	Dimension  int    // Embedding dimension, default 768
}

// NewPGVectorStore connects to Postgres, registers the vector type on every
// connection and creates the schema.
func NewPGVectorStore(ctx context.Context, opts PGVectorOptions) (*PGVectorStore, error) {
	cfg, err := pgxpool.ParseConfig(opts.ConnString)
	if err != nil {
		return nil, fmt.Errorf("parse connection string: %w", err)
	}

	// The extension must exist before the vector type can be registered.
	bootstrap, err := pgx.Connect(ctx, opts.ConnString)
	if err != nil {
		return nil, fmt.Errorf("unable to connect: %w", err)
	}
	_, err = bootstrap.Exec(ctx, "CREATE EXTENSION IF NOT EXISTS vector")
	bootstrap.Close(ctx)
	if err != nil {
		return nil, fmt.Errorf("create vector extension: %w", err)
	}

	cfg.AfterConnect = func(ctx context.Context, conn *pgx.Conn) error {
		return pgxvec.RegisterTypes(ctx, conn)
	}
	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("unable to create connection pool: %w", err)
	}

	s := NewPGVectorStoreWithPool(pool, opts.TableName, opts.Dimension)
	if err := s.InitSchema(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return s, nil
}

// NewPGVectorStoreWithPool creates a store over an existing pool.
// Useful for testing with mocks
func NewPGVectorStoreWithPool(pool DBPool, tableName string, dimension int) *PGVectorStore {
	if tableName == "" {
		tableName = "chunks"
	}
	if dimension <= 0 {
		dimension = 768
	}
	return &PGVectorStore{
		pool:      pool,
		tableName: tableName,
		dimension: dimension,
	}
}

// InitSchema creates the chunk table if it doesn't exist
func (s *PGVectorStore) InitSchema(ctx context.Context) error {
	query := fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
			id TEXT PRIMARY KEY,
			content TEXT NOT NULL,
			metadata JSONB,
			embedding vector(%d) NOT NULL
		)
	`, s.tableName, s.dimension)

	if _, err := s.pool.Exec(ctx, query); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}
	return nil
}

// Close closes the connection pool
func (s *PGVectorStore) Close() {
	s.pool.Close()
}

// Add upserts documents with their embeddings in one transaction
func (s *PGVectorStore) Add(ctx context.Context, docs []rag.Document, embeddings [][]float32) error {
	if len(docs) != len(embeddings) {
		return fmt.Errorf("documents and embeddings must have same length: %d != %d", len(docs), len(embeddings))
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	query := fmt.Sprintf(`
		INSERT INTO %s (id, content, metadata, embedding)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (id) DO UPDATE SET
			content = EXCLUDED.content,
			metadata = EXCLUDED.metadata,
			embedding = EXCLUDED.embedding
	`, s.tableName)

	for i, doc := range docs {
		metadataJSON, err := json.Marshal(doc.Metadata)
		if err != nil {
			return fmt.Errorf("failed to marshal metadata: %w", err)
		}
		if _, err := tx.Exec(ctx, query, doc.ID, doc.Content, metadataJSON, pgvector.NewVector(embeddings[i])); err != nil {
			return fmt.Errorf("failed to insert chunk %s: %w", doc.ID, err)
		}
	}

	return tx.Commit(ctx)
}

// Search returns the k nearest chunks by cosine distance
func (s *PGVectorStore) Search(ctx context.Context, embedding []float32, k int) ([]rag.SearchResult, error) {
	if k <= 0 {
		return nil, fmt.Errorf("k must be positive")
	}

	query := fmt.Sprintf(`
		SELECT id, content, metadata, 1 - (embedding <=> $1) AS score
		FROM %s
		ORDER BY embedding <=> $1
		LIMIT $2
	`, s.tableName)

	rows, err := s.pool.Query(ctx, query, pgvector.NewVector(embedding), k)
	if err != nil {
		return nil, fmt.Errorf("failed to query chunks: %w", err)
	}
	defer rows.Close()

	var results []rag.SearchResult
	for rows.Next() {
		var (
			doc          rag.Document
			metadataJSON []byte
			score        float64
		)
		if err := rows.Scan(&doc.ID, &doc.Content, &metadataJSON, &score); err != nil {
			return nil, fmt.Errorf("failed to scan chunk: %w", err)
		}
		if len(metadataJSON) > 0 {
			if err := json.Unmarshal(metadataJSON, &doc.Metadata); err != nil {
				return nil, fmt.Errorf("failed to unmarshal metadata: %w", err)
			}
		}
		results = append(results, rag.SearchResult{Document: doc, Score: score})
	}
	return results, rows.Err()
}

// Count returns the number of stored chunks
func (s *PGVectorStore) Count(ctx context.Context) (int, error) {
	var n int64
	if err := s.pool.QueryRow(ctx, fmt.Sprintf("SELECT COUNT(*) FROM %s", s.tableName)).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count chunks: %w", err)
	}
	return int(n), nil
}
