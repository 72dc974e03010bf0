// Package ingest implements the document ingestion pipeline: directory
// scanning with change detection, per-format extraction and chunking,
// incremental reconciliation against the vector store, and the single-flight
// trigger guarding it all.
package ingest

//go:generate go run go.uber.org/mock/mockgen@latest -destination=mocks/mock_source.go -package=mocks doculens/internal/ingest Source

import "context"

// IngestedDocument is one record per source file known to the vector store.
type IngestedDocument struct {
	// Key is the vector-store primary key for this document record.
	Key string
	// SourceID identifies the directory + scan-mode combination that
	// produced this record; deletion is scoped by it.
	SourceID string
	// DocumentID is a path-derived, filesystem-independent identifier,
	// stable across rescans as long as the file is not moved or renamed.
	DocumentID string
	// DocumentVersion is an opaque token (last-modified time, UTC) compared
	// for equality only, to detect modification.
	DocumentVersion string
}

// IngestedChunk is one retrievable text unit, denormalized with file
// metadata so citations render without a join back to the document record.
type IngestedChunk struct {
	Key        string
	DocumentID string
	PageNumber int
	Text       string
	FileName   string
	FilePath   string
}

// Source produces documents and chunks for one configured origin.
// These interfaces are defined from the ingestor's perspective (consumer-first).
type Source interface {
	// SourceID scopes ownership of documents in the store.
	SourceID() string
	// DiscoverChanged returns documents that are new or modified relative
	// to the supplied previously-ingested records.
	DiscoverChanged(ctx context.Context, existing []IngestedDocument) ([]IngestedDocument, error)
	// DiscoverDeleted returns previously-ingested documents that no longer
	// exist in the source.
	DiscoverDeleted(ctx context.Context, existing []IngestedDocument) ([]IngestedDocument, error)
	// ChunksFor extracts and chunks the file behind a document record.
	ChunksFor(ctx context.Context, doc IngestedDocument) ([]IngestedChunk, error)
}

// DocumentStore is the vector-store collection holding document records.
type DocumentStore interface {
	ListBySource(ctx context.Context, sourceID string) ([]IngestedDocument, error)
	UpsertDocuments(ctx context.Context, docs []IngestedDocument) error
	DeleteDocumentsByKeys(ctx context.Context, keys []string) error
}

// ChunkStore is the vector-store collection holding chunks. The store
// computes and attaches embeddings from chunk text at upsert time; the
// ingestion pipeline never calls an embedding API directly.
type ChunkStore interface {
	UpsertChunks(ctx context.Context, chunks []IngestedChunk) error
	DeleteChunksByDocument(ctx context.Context, documentID string) error
}
