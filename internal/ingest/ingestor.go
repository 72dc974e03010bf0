package ingest

import (
	"context"
	"fmt"

	"doculens/internal/contextutil"
)

// DefaultBatchSize bounds how many chunks go into one store upsert call.
// A tuning knob, not a correctness requirement.
const DefaultBatchSize = 32

// Ingestor drives the incremental sync between a document source and the
// vector store: deleted documents are purged, new or modified documents are
// re-extracted and rewritten, everything else is left alone.
type Ingestor struct {
	documents DocumentStore
	chunks    ChunkStore
	batchSize int
}

// NewIngestor creates an ingestor over the two store collections.
// batchSize <= 0 selects the default.
func NewIngestor(documents DocumentStore, chunks ChunkStore, batchSize int) *Ingestor {
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	return &Ingestor{
		documents: documents,
		chunks:    chunks,
		batchSize: batchSize,
	}
}

// Sync reconciles the source's current file set against the store.
//
// A failure while processing one document aborts only that document's
// update; the remaining documents are still processed and the error count
// is reported at the end. The run as a whole is not transactional: per
// document, old chunks are deleted before new ones are written, so a
// mid-run failure leaves that document pending a retry on the next trigger
// rather than half-merged.
func (ing *Ingestor) Sync(ctx context.Context, source Source) error {
	logger := contextutil.LoggerFromContext(ctx)

	existing, err := ing.documents.ListBySource(ctx, source.SourceID())
	if err != nil {
		return fmt.Errorf("failed to list existing documents: %w", err)
	}

	changed, err := source.DiscoverChanged(ctx, existing)
	if err != nil {
		return fmt.Errorf("failed to discover changed documents: %w", err)
	}
	deleted, err := source.DiscoverDeleted(ctx, existing)
	if err != nil {
		return fmt.Errorf("failed to discover deleted documents: %w", err)
	}

	logger.InfoContext(ctx, "starting ingestion run",
		"source_id", source.SourceID(),
		"existing", len(existing),
		"changed", len(changed),
		"deleted", len(deleted),
	)

	for _, doc := range deleted {
		if err := ing.chunks.DeleteChunksByDocument(ctx, doc.DocumentID); err != nil {
			return fmt.Errorf("failed to delete chunks for %s: %w", doc.DocumentID, err)
		}
		if err := ing.documents.DeleteDocumentsByKeys(ctx, []string{doc.Key}); err != nil {
			return fmt.Errorf("failed to delete document %s: %w", doc.DocumentID, err)
		}
		logger.InfoContext(ctx, "removed deleted document", "document_id", doc.DocumentID)
	}

	existingByID := make(map[string]IngestedDocument, len(existing))
	for _, doc := range existing {
		existingByID[doc.DocumentID] = doc
	}

	var failed int
	for _, doc := range changed {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		if err := ing.ingestDocument(ctx, source, doc, existingByID); err != nil {
			failed++
			logger.ErrorContext(ctx, "failed to ingest document", "document_id", doc.DocumentID, "error", err)
			continue
		}
	}

	logger.InfoContext(ctx, "ingestion run completed",
		"source_id", source.SourceID(),
		"updated", len(changed)-failed,
		"failed", failed,
	)
	if failed > 0 {
		return fmt.Errorf("ingestion completed with %d failed documents", failed)
	}
	return nil
}

// ingestDocument updates one document: stale chunks from a previous version
// are removed first so the store never holds two generations of the same
// document, then fresh chunks and the document record are written.
func (ing *Ingestor) ingestDocument(ctx context.Context, source Source, doc IngestedDocument, existingByID map[string]IngestedDocument) error {
	if _, wasPresent := existingByID[doc.DocumentID]; wasPresent {
		if err := ing.chunks.DeleteChunksByDocument(ctx, doc.DocumentID); err != nil {
			return fmt.Errorf("failed to delete stale chunks: %w", err)
		}
	}

	chunks, err := source.ChunksFor(ctx, doc)
	if err != nil {
		return fmt.Errorf("failed to create chunks: %w", err)
	}

	for start := 0; start < len(chunks); start += ing.batchSize {
		end := start + ing.batchSize
		if end > len(chunks) {
			end = len(chunks)
		}
		if err := ing.chunks.UpsertChunks(ctx, chunks[start:end]); err != nil {
			return fmt.Errorf("failed to upsert chunks: %w", err)
		}
	}

	if err := ing.documents.UpsertDocuments(ctx, []IngestedDocument{doc}); err != nil {
		return fmt.Errorf("failed to upsert document record: %w", err)
	}
	return nil
}
