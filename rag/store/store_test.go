package store

import (
	"context"
	"path/filepath"
	"regexp"
	"testing"

	"github.com/pashagolub/pgxmock/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/salaryse/assistant/rag"
)

func sampleDocs() ([]rag.Document, [][]float32) {
	docs := []rag.Document{
		{ID: "a", Content: "SalarySe is a financial wellness platform", Metadata: map[string]any{"source": "https://www.salaryse.com/"}},
		{ID: "b", Content: "Early salary access for employees"},
		{ID: "c", Content: "Contact us"},
	}
	embeddings := [][]float32{
		{1, 0, 0},
		{0.7, 0.7, 0},
		{0, 0, 1},
	}
	return docs, embeddings
}

func TestInMemoryVectorStore(t *testing.T) {
	ctx := context.Background()
	s := NewInMemoryVectorStore()

	n, err := s.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, n)

	docs, embeddings := sampleDocs()
	require.NoError(t, s.Add(ctx, docs, embeddings))

	n, err = s.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	results, err := s.Search(ctx, []float32{1, 0, 0}, 2)
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, "a", results[0].Document.ID)
	assert.Equal(t, "b", results[1].Document.ID)
	assert.InDelta(t, 1.0, results[0].Score, 1e-6)

	_, err = s.Search(ctx, []float32{1, 0, 0}, 0)
	assert.Error(t, err)

	assert.Error(t, s.Add(ctx, docs, embeddings[:1]))
}

func TestSQLiteVectorStore(t *testing.T) {
	ctx := context.Background()
	dir := filepath.Join(t.TempDir(), "db", "salaryse_index")

	s, err := NewSQLiteVectorStore(SQLiteOptions{Dir: dir})
	require.NoError(t, err)

	n, err := s.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, n)

	docs, embeddings := sampleDocs()
	require.NoError(t, s.Add(ctx, docs, embeddings))

	results, err := s.Search(ctx, []float32{0, 0, 1}, 1)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "c", results[0].Document.ID)
	assert.Equal(t, "Contact us", results[0].Document.Content)
	require.NoError(t, s.Close())

	// Reopen: the index persists on disk.
	reopened, err := NewSQLiteVectorStore(SQLiteOptions{Dir: dir})
	require.NoError(t, err)
	defer reopened.Close()

	n, err = reopened.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	results, err = reopened.Search(ctx, []float32{1, 0, 0}, 3)
	require.NoError(t, err)
	require.Len(t, results, 3)
	assert.Equal(t, "a", results[0].Document.ID)
	assert.Equal(t, "https://www.salaryse.com/", results[0].Document.Source())

	// Upsert by id does not duplicate.
	require.NoError(t, reopened.Add(ctx, docs[:1], embeddings[:1]))
	n, err = reopened.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, n)
}

func TestSQLiteVectorStore_RequiresDir(t *testing.T) {
	_, err := NewSQLiteVectorStore(SQLiteOptions{})
	assert.Error(t, err)
}

func TestPGVectorStore_InitSchema(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	s := NewPGVectorStoreWithPool(mock, "chunks", 3)

	mock.ExpectExec(regexp.QuoteMeta("CREATE TABLE IF NOT EXISTS chunks")).
		WillReturnResult(pgxmock.NewResult("CREATE", 0))

	require.NoError(t, s.InitSchema(context.Background()))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPGVectorStore_Add(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	s := NewPGVectorStoreWithPool(mock, "chunks", 3)
	docs, embeddings := sampleDocs()

	mock.ExpectBegin()
	for _, doc := range docs {
		mock.ExpectExec(regexp.QuoteMeta("INSERT INTO chunks")).
			WithArgs(doc.ID, doc.Content, pgxmock.AnyArg(), pgxmock.AnyArg()).
			WillReturnResult(pgxmock.NewResult("INSERT", 1))
	}
	mock.ExpectCommit()

	require.NoError(t, s.Add(context.Background(), docs, embeddings))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPGVectorStore_Search(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	s := NewPGVectorStoreWithPool(mock, "chunks", 3)

	rows := pgxmock.NewRows([]string{"id", "content", "metadata", "score"}).
		AddRow("a", "SalarySe is a financial wellness platform", []byte(`{"source":"https://www.salaryse.com/"}`), 0.98).
		AddRow("b", "Early salary access", []byte(`{}`), 0.51)

	mock.ExpectQuery(regexp.QuoteMeta("ORDER BY embedding <=> $1")).
		WithArgs(pgxmock.AnyArg(), 2).
		WillReturnRows(rows)

	results, err := s.Search(context.Background(), []float32{1, 0, 0}, 2)
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, "a", results[0].Document.ID)
	assert.Equal(t, "https://www.salaryse.com/", results[0].Document.Source())
	assert.InDelta(t, 0.98, results[0].Score, 1e-9)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPGVectorStore_Count(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	s := NewPGVectorStoreWithPool(mock, "", 0)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM chunks")).
		WillReturnRows(pgxmock.NewRows([]string{"count"}).AddRow(int64(42)))

	n, err := s.Count(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 42, n)
	assert.NoError(t, mock.ExpectationsWereMet())
}
