package store

import (
	"context"
	"database/sql"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3"

	"github.com/salaryse/assistant/rag"
)

const sqliteIndexFile = "index.db"

// SQLiteVectorStore is an on-disk index kept in a directory. Similarity is
// computed in process over all stored chunks.
type SQLiteVectorStore struct {
	db        *sql.DB
	dir       string
	tableName string
}

var _ rag.VectorStore = (*SQLiteVectorStore)(nil)

// SQLiteOptions configures a SQLiteVectorStore.
type SQLiteOptions struct {
	// Dir holds the index database; it is created when missing.
	Dir       string
	TableName string // Default "chunks"
}

// NewSQLiteVectorStore opens (or creates) the index under opts.Dir.
func NewSQLiteVectorStore(opts SQLiteOptions) (*SQLiteVectorStore, error) {
	if opts.Dir == "" {
		return nil, fmt.Errorf("index directory is required")
	}
	if err := os.MkdirAll(opts.Dir, 0o755); err != nil {
		return nil, fmt.Errorf("create index directory: %w", err)
	}

	db, err := sql.Open("sqlite3", filepath.Join(opts.Dir, sqliteIndexFile))
	if err != nil {
		return nil, fmt.Errorf("unable to open index: %w", err)
	}

	tableName := opts.TableName
	if tableName == "" {
		tableName = "chunks"
	}

	s := &SQLiteVectorStore{db: db, dir: opts.Dir, tableName: tableName}
	if err := s.InitSchema(context.Background()); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// InitSchema creates the chunk table if it doesn't exist
func (s *SQLiteVectorStore) InitSchema(ctx context.Context) error {
	query := fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
			id TEXT PRIMARY KEY,
			content TEXT NOT NULL,
			metadata TEXT,
			embedding BLOB NOT NULL,
			seq INTEGER NOT NULL
		);
	`, s.tableName)

	if _, err := s.db.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}
	return nil
}

// Dir returns the index directory.
func (s *SQLiteVectorStore) Dir() string {
	return s.dir
}

// Close closes the database connection
func (s *SQLiteVectorStore) Close() error {
	return s.db.Close()
}

// Add stores documents with their embeddings in one transaction
func (s *SQLiteVectorStore) Add(ctx context.Context, docs []rag.Document, embeddings [][]float32) error {
	if len(docs) != len(embeddings) {
		return fmt.Errorf("documents and embeddings must have same length: %d != %d", len(docs), len(embeddings))
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	var next int64
	row := tx.QueryRowContext(ctx, fmt.Sprintf("SELECT COALESCE(MAX(seq), 0) FROM %s", s.tableName))
	if err := row.Scan(&next); err != nil {
		return fmt.Errorf("read sequence: %w", err)
	}

	query := fmt.Sprintf(`
		INSERT INTO %s (id, content, metadata, embedding, seq)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			content = excluded.content,
			metadata = excluded.metadata,
			embedding = excluded.embedding
	`, s.tableName)

	for i, doc := range docs {
		metadataJSON, err := json.Marshal(doc.Metadata)
		if err != nil {
			return fmt.Errorf("failed to marshal metadata: %w", err)
		}
		next++
		if _, err := tx.ExecContext(ctx, query, doc.ID, doc.Content, string(metadataJSON), encodeVector(embeddings[i]), next); err != nil {
			return fmt.Errorf("failed to insert chunk %s: %w", doc.ID, err)
		}
	}

	return tx.Commit()
}

// Search scans every chunk and returns the k most similar
func (s *SQLiteVectorStore) Search(ctx context.Context, embedding []float32, k int) ([]rag.SearchResult, error) {
	if k <= 0 {
		return nil, fmt.Errorf("k must be positive")
	}

	rows, err := s.db.QueryContext(ctx, fmt.Sprintf("SELECT id, content, metadata, embedding FROM %s ORDER BY seq", s.tableName))
	if err != nil {
		return nil, fmt.Errorf("failed to query chunks: %w", err)
	}
	defer rows.Close()

	var results []rag.SearchResult
	for rows.Next() {
		var (
			doc          rag.Document
			metadataJSON sql.NullString
			blob         []byte
		)
		if err := rows.Scan(&doc.ID, &doc.Content, &metadataJSON, &blob); err != nil {
			return nil, fmt.Errorf("failed to scan chunk: %w", err)
		}
		if metadataJSON.Valid && metadataJSON.String != "" && metadataJSON.String != "null" {
			if err := json.Unmarshal([]byte(metadataJSON.String), &doc.Metadata); err != nil {
				return nil, fmt.Errorf("failed to unmarshal metadata: %w", err)
			}
		}
		results = append(results, rag.SearchResult{
			Document: doc,
			Score:    rag.CosineSimilarity(embedding, decodeVector(blob)),
		})
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return topK(results, k), nil
}

// Count returns the number of stored chunks
func (s *SQLiteVectorStore) Count(ctx context.Context) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, fmt.Sprintf("SELECT COUNT(*) FROM %s", s.tableName)).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("failed to count chunks: %w", err)
	}
	return n, nil
}

func encodeVector(v []float32) []byte {
	buf := make([]byte, 4*len(v))
	for i, f := range v {
		binary.LittleEndian.PutUint32(buf[4*i:], math.Float32bits(f))
	}
	return buf
}

func decodeVector(b []byte) []float32 {
	v := make([]float32, len(b)/4)
	for i := range v {
		v[i] = math.Float32frombits(binary.LittleEndian.Uint32(b[4*i:]))
	}
	return v
}
