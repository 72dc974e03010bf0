package ingest_test

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"go.uber.org/mock/gomock"

	"doculens/internal/ingest"
	"doculens/internal/ingest/mocks"
)

// fakeDocumentStore is an in-memory ingest.DocumentStore.
type fakeDocumentStore struct {
	existing []ingest.IngestedDocument
	listErr  error

	upserted []ingest.IngestedDocument
	deleted  []string
}

func (f *fakeDocumentStore) ListBySource(ctx context.Context, sourceID string) ([]ingest.IngestedDocument, error) {
	return f.existing, f.listErr
}

func (f *fakeDocumentStore) UpsertDocuments(ctx context.Context, docs []ingest.IngestedDocument) error {
	f.upserted = append(f.upserted, docs...)
	return nil
}

func (f *fakeDocumentStore) DeleteDocumentsByKeys(ctx context.Context, keys []string) error {
	f.deleted = append(f.deleted, keys...)
	return nil
}

// fakeChunkStore is an in-memory ingest.ChunkStore that records call order.
type fakeChunkStore struct {
	upsertErr error

	upsertBatches [][]ingest.IngestedChunk
	deletedDocs   []string
	callOrder     []string
}

func (f *fakeChunkStore) UpsertChunks(ctx context.Context, chunks []ingest.IngestedChunk) error {
	if f.upsertErr != nil {
		return f.upsertErr
	}
	f.upsertBatches = append(f.upsertBatches, chunks)
	f.callOrder = append(f.callOrder, "upsert")
	return nil
}

func (f *fakeChunkStore) DeleteChunksByDocument(ctx context.Context, documentID string) error {
	f.deletedDocs = append(f.deletedDocs, documentID)
	f.callOrder = append(f.callOrder, "delete:"+documentID)
	return nil
}

func chunksForDoc(documentID string, n int) []ingest.IngestedChunk {
	chunks := make([]ingest.IngestedChunk, n)
	for i := range chunks {
		chunks[i] = ingest.IngestedChunk{
			Key:        fmt.Sprintf("%s_chunk_%d", documentID, i),
			DocumentID: documentID,
			PageNumber: i + 1,
			Text:       fmt.Sprintf("chunk %d", i),
		}
	}
	return chunks
}

func TestIngestor_SyncNewDocuments(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	docStore := &fakeDocumentStore{}
	chunkStore := &fakeChunkStore{}
	ingestor := ingest.NewIngestor(docStore, chunkStore, 2)

	doc := ingest.IngestedDocument{Key: "doc_doc_a", SourceID: "src", DocumentID: "doc_a", DocumentVersion: "v1"}

	source := mocks.NewMockSource(ctrl)
	source.EXPECT().SourceID().Return("src").AnyTimes()
	source.EXPECT().DiscoverChanged(gomock.Any(), gomock.Any()).Return([]ingest.IngestedDocument{doc}, nil)
	source.EXPECT().DiscoverDeleted(gomock.Any(), gomock.Any()).Return(nil, nil)
	source.EXPECT().ChunksFor(gomock.Any(), doc).Return(chunksForDoc("doc_a", 3), nil)

	if err := ingestor.Sync(context.Background(), source); err != nil {
		t.Fatalf("Sync() error = %v", err)
	}

	// 3 chunks with batch size 2 means two upsert calls.
	if len(chunkStore.upsertBatches) != 2 {
		t.Fatalf("chunk upserts = %d batches, want 2", len(chunkStore.upsertBatches))
	}
	if len(chunkStore.upsertBatches[0]) != 2 || len(chunkStore.upsertBatches[1]) != 1 {
		t.Errorf("batch sizes = %d, %d, want 2, 1", len(chunkStore.upsertBatches[0]), len(chunkStore.upsertBatches[1]))
	}
	if len(docStore.upserted) != 1 || docStore.upserted[0].Key != "doc_doc_a" {
		t.Errorf("document upserts = %+v, want one record for doc_doc_a", docStore.upserted)
	}
	// A brand-new document has no stale chunks to delete.
	if len(chunkStore.deletedDocs) != 0 {
		t.Errorf("chunk deletes = %v, want none", chunkStore.deletedDocs)
	}
}

func TestIngestor_SyncModifiedDocumentDeletesStaleChunks(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	previous := ingest.IngestedDocument{Key: "doc_doc_a", SourceID: "src", DocumentID: "doc_a", DocumentVersion: "v1"}
	updated := ingest.IngestedDocument{Key: "doc_doc_a", SourceID: "src", DocumentID: "doc_a", DocumentVersion: "v2"}

	docStore := &fakeDocumentStore{existing: []ingest.IngestedDocument{previous}}
	chunkStore := &fakeChunkStore{}
	ingestor := ingest.NewIngestor(docStore, chunkStore, 0)

	source := mocks.NewMockSource(ctrl)
	source.EXPECT().SourceID().Return("src").AnyTimes()
	source.EXPECT().DiscoverChanged(gomock.Any(), gomock.Any()).Return([]ingest.IngestedDocument{updated}, nil)
	source.EXPECT().DiscoverDeleted(gomock.Any(), gomock.Any()).Return(nil, nil)
	source.EXPECT().ChunksFor(gomock.Any(), updated).Return(chunksForDoc("doc_a", 1), nil)

	if err := ingestor.Sync(context.Background(), source); err != nil {
		t.Fatalf("Sync() error = %v", err)
	}

	if len(chunkStore.callOrder) < 2 || chunkStore.callOrder[0] != "delete:doc_a" || chunkStore.callOrder[1] != "upsert" {
		t.Errorf("call order = %v, want stale delete before upsert", chunkStore.callOrder)
	}
	if len(docStore.upserted) != 1 || docStore.upserted[0].DocumentVersion != "v2" {
		t.Errorf("document upserts = %+v, want updated record", docStore.upserted)
	}
}

func TestIngestor_SyncDeletedDocuments(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	gone := ingest.IngestedDocument{Key: "doc_doc_gone", SourceID: "src", DocumentID: "doc_gone", DocumentVersion: "v1"}

	docStore := &fakeDocumentStore{existing: []ingest.IngestedDocument{gone}}
	chunkStore := &fakeChunkStore{}
	ingestor := ingest.NewIngestor(docStore, chunkStore, 0)

	source := mocks.NewMockSource(ctrl)
	source.EXPECT().SourceID().Return("src").AnyTimes()
	source.EXPECT().DiscoverChanged(gomock.Any(), gomock.Any()).Return(nil, nil)
	source.EXPECT().DiscoverDeleted(gomock.Any(), []ingest.IngestedDocument{gone}).Return([]ingest.IngestedDocument{gone}, nil)

	if err := ingestor.Sync(context.Background(), source); err != nil {
		t.Fatalf("Sync() error = %v", err)
	}

	if len(chunkStore.deletedDocs) != 1 || chunkStore.deletedDocs[0] != "doc_gone" {
		t.Errorf("chunk deletes = %v, want doc_gone", chunkStore.deletedDocs)
	}
	if len(docStore.deleted) != 1 || docStore.deleted[0] != "doc_doc_gone" {
		t.Errorf("document deletes = %v, want doc_doc_gone", docStore.deleted)
	}
}

func TestIngestor_SyncIsolatesPerDocumentFailures(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	bad := ingest.IngestedDocument{Key: "doc_doc_bad", SourceID: "src", DocumentID: "doc_bad", DocumentVersion: "v1"}
	good := ingest.IngestedDocument{Key: "doc_doc_good", SourceID: "src", DocumentID: "doc_good", DocumentVersion: "v1"}

	docStore := &fakeDocumentStore{}
	chunkStore := &fakeChunkStore{}
	ingestor := ingest.NewIngestor(docStore, chunkStore, 0)

	source := mocks.NewMockSource(ctrl)
	source.EXPECT().SourceID().Return("src").AnyTimes()
	source.EXPECT().DiscoverChanged(gomock.Any(), gomock.Any()).Return([]ingest.IngestedDocument{bad, good}, nil)
	source.EXPECT().DiscoverDeleted(gomock.Any(), gomock.Any()).Return(nil, nil)
	source.EXPECT().ChunksFor(gomock.Any(), bad).Return(nil, errors.New("extraction exploded"))
	source.EXPECT().ChunksFor(gomock.Any(), good).Return(chunksForDoc("doc_good", 1), nil)

	err := ingestor.Sync(context.Background(), source)
	if err == nil {
		t.Fatal("Sync() error = nil, want failure report")
	}
	if !strings.Contains(err.Error(), "1 failed") {
		t.Errorf("Sync() error = %v, want it to report 1 failed document", err)
	}

	// The failure must not prevent the good document from being ingested.
	if len(docStore.upserted) != 1 || docStore.upserted[0].Key != "doc_doc_good" {
		t.Errorf("document upserts = %+v, want only doc_doc_good", docStore.upserted)
	}
	// The failed document's record is not written, so the next run retries it.
	for _, doc := range docStore.upserted {
		if doc.Key == "doc_doc_bad" {
			t.Error("failed document record was upserted")
		}
	}
}

func TestIngestor_SyncListError(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	docStore := &fakeDocumentStore{listErr: errors.New("store down")}
	ingestor := ingest.NewIngestor(docStore, &fakeChunkStore{}, 0)

	source := mocks.NewMockSource(ctrl)
	source.EXPECT().SourceID().Return("src").AnyTimes()

	if err := ingestor.Sync(context.Background(), source); err == nil {
		t.Fatal("Sync() error = nil, want list failure to propagate")
	}
}
