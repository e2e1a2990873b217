// Package store provides rag.VectorStore implementations: an in-memory
// store, an on-disk SQLite index and a Postgres/pgvector store.
package store
