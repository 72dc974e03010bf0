package ingest

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"doculens/internal/progress"
)

func writeTestFile(t *testing.T, dir, rel, content string) string {
	t.Helper()
	path := filepath.Join(dir, rel)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestDirectorySource_SourceID(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "docs")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatal(err)
	}

	recursive := NewDirectorySource(dir, true, nil, nil)
	if got, want := recursive.SourceID(), "DocumentDirectory_docs_AllDirectories"; got != want {
		t.Errorf("SourceID() = %q, want %q", got, want)
	}

	flat := NewDirectorySource(dir, false, nil, nil)
	if got, want := flat.SourceID(), "DocumentDirectory_docs_TopDirectoryOnly"; got != want {
		t.Errorf("SourceID() = %q, want %q", got, want)
	}
}

func TestDiscoverChanged(t *testing.T) {
	dir := t.TempDir()
	writeTestFile(t, dir, "a.txt", "alpha content")
	bPath := writeTestFile(t, dir, "b.txt", "beta content")

	source := NewDirectorySource(dir, true, nil, nil)
	ctx := context.Background()

	changed, err := source.DiscoverChanged(ctx, nil)
	if err != nil {
		t.Fatalf("DiscoverChanged() error = %v", err)
	}
	if len(changed) != 2 {
		t.Fatalf("DiscoverChanged() found %d documents, want 2", len(changed))
	}
	for _, doc := range changed {
		if doc.SourceID != source.SourceID() {
			t.Errorf("document %s has source %q", doc.DocumentID, doc.SourceID)
		}
		if doc.DocumentVersion == "" {
			t.Errorf("document %s has empty version", doc.DocumentID)
		}
		if doc.Key != "doc_"+doc.DocumentID {
			t.Errorf("document key = %q, want doc_%s", doc.Key, doc.DocumentID)
		}
	}

	// Nothing changed on a rescan with up-to-date records.
	unchanged, err := source.DiscoverChanged(ctx, changed)
	if err != nil {
		t.Fatalf("DiscoverChanged() error = %v", err)
	}
	if len(unchanged) != 0 {
		t.Errorf("DiscoverChanged() after no modification found %d documents, want 0", len(unchanged))
	}

	// A touched file shows up again with a new version.
	newTime := time.Now().Add(time.Hour)
	if err := os.Chtimes(bPath, newTime, newTime); err != nil {
		t.Fatal(err)
	}
	modified, err := source.DiscoverChanged(ctx, changed)
	if err != nil {
		t.Fatalf("DiscoverChanged() error = %v", err)
	}
	if len(modified) != 1 {
		t.Fatalf("DiscoverChanged() after touch found %d documents, want 1", len(modified))
	}
	if modified[0].DocumentID != "doc_b" {
		t.Errorf("modified document = %q, want doc_b", modified[0].DocumentID)
	}
}

func TestDiscoverChanged_SkipsUnsupportedAndLockFiles(t *testing.T) {
	dir := t.TempDir()
	writeTestFile(t, dir, "real.txt", "content")
	writeTestFile(t, dir, "image.png", "not a document")
	writeTestFile(t, dir, "~$report.docx", "editor lock file")

	source := NewDirectorySource(dir, true, nil, nil)
	changed, err := source.DiscoverChanged(context.Background(), nil)
	if err != nil {
		t.Fatalf("DiscoverChanged() error = %v", err)
	}
	if len(changed) != 1 || changed[0].DocumentID != "doc_real" {
		t.Errorf("DiscoverChanged() = %+v, want only doc_real", changed)
	}
}

func TestDiscoverChanged_SkipsStructurallyInvalidFiles(t *testing.T) {
	dir := t.TempDir()
	// A .docx that is not a zip archive fails the structural check.
	writeTestFile(t, dir, "broken.docx", "plain text, not a zip")
	writeTestFile(t, dir, "fine.txt", "content")

	source := NewDirectorySource(dir, true, nil, nil)
	changed, err := source.DiscoverChanged(context.Background(), nil)
	if err != nil {
		t.Fatalf("DiscoverChanged() error = %v", err)
	}
	if len(changed) != 1 || changed[0].DocumentID != "doc_fine" {
		t.Errorf("DiscoverChanged() = %+v, want only doc_fine", changed)
	}
}

func TestDiscoverChanged_NonRecursive(t *testing.T) {
	dir := t.TempDir()
	writeTestFile(t, dir, "top.txt", "top level")
	writeTestFile(t, dir, filepath.Join("nested", "deep.txt"), "nested")

	source := NewDirectorySource(dir, false, nil, nil)
	changed, err := source.DiscoverChanged(context.Background(), nil)
	if err != nil {
		t.Fatalf("DiscoverChanged() error = %v", err)
	}
	if len(changed) != 1 || changed[0].DocumentID != "doc_top" {
		t.Errorf("non-recursive DiscoverChanged() = %+v, want only doc_top", changed)
	}
}

func TestDiscoverChanged_PublishesWaitingEvents(t *testing.T) {
	dir := t.TempDir()
	writeTestFile(t, dir, "a.txt", "content")

	bus := progress.NewBus()
	events, cancel := bus.Subscribe()
	defer cancel()

	source := NewDirectorySource(dir, true, nil, bus)
	if _, err := source.DiscoverChanged(context.Background(), nil); err != nil {
		t.Fatalf("DiscoverChanged() error = %v", err)
	}

	select {
	case event := <-events:
		if event.FileName != "a.txt" || event.Status != progress.StatusWaiting {
			t.Errorf("event = %+v, want Waiting for a.txt", event)
		}
	default:
		t.Error("no Waiting event published")
	}
}

func TestDiscoverDeleted(t *testing.T) {
	dir := t.TempDir()
	writeTestFile(t, dir, "keep.txt", "content")

	source := NewDirectorySource(dir, true, nil, nil)
	existing := []IngestedDocument{
		{Key: "doc_doc_keep", SourceID: source.SourceID(), DocumentID: "doc_keep"},
		{Key: "doc_doc_gone", SourceID: source.SourceID(), DocumentID: "doc_gone"},
		{Key: "doc_doc_other", SourceID: "DocumentDirectory_other_AllDirectories", DocumentID: "doc_other"},
	}

	deleted, err := source.DiscoverDeleted(context.Background(), existing)
	if err != nil {
		t.Fatalf("DiscoverDeleted() error = %v", err)
	}
	if len(deleted) != 1 || deleted[0].DocumentID != "doc_gone" {
		t.Errorf("DiscoverDeleted() = %+v, want only doc_gone", deleted)
	}
}

func TestDiscoverDeleted_MissingDirectory(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "never-created")

	source := NewDirectorySource(dir, true, nil, nil)
	existing := []IngestedDocument{
		{Key: "doc_doc_a", SourceID: source.SourceID(), DocumentID: "doc_a"},
		{Key: "doc_doc_b", SourceID: "DocumentDirectory_other_AllDirectories", DocumentID: "doc_b"},
	}

	deleted, err := source.DiscoverDeleted(context.Background(), existing)
	if err != nil {
		t.Fatalf("DiscoverDeleted() error = %v", err)
	}
	if len(deleted) != 1 || deleted[0].DocumentID != "doc_a" {
		t.Errorf("DiscoverDeleted() with missing dir = %+v, want only this source's documents", deleted)
	}
}

func TestChunksFor_Txt(t *testing.T) {
	dir := t.TempDir()
	writeTestFile(t, dir, "notes.txt", "First paragraph here.\n\nSecond paragraph follows.")

	bus := progress.NewBus()
	events, cancel := bus.Subscribe()
	defer cancel()

	source := NewDirectorySource(dir, true, nil, bus)
	doc := IngestedDocument{
		Key:        "doc_doc_notes",
		SourceID:   source.SourceID(),
		DocumentID: "doc_notes",
	}

	chunks, err := source.ChunksFor(context.Background(), doc)
	if err != nil {
		t.Fatalf("ChunksFor() error = %v", err)
	}
	if len(chunks) != 2 {
		t.Fatalf("ChunksFor() returned %d chunks, want 2", len(chunks))
	}

	if chunks[0].Key != "doc_notes_chunk_0" || chunks[1].Key != "doc_notes_chunk_1" {
		t.Errorf("chunk keys = %q, %q", chunks[0].Key, chunks[1].Key)
	}
	if chunks[0].Text != "First paragraph here." {
		t.Errorf("chunk 0 text = %q", chunks[0].Text)
	}
	if chunks[1].PageNumber != 2 {
		t.Errorf("chunk 1 page = %d, want 2", chunks[1].PageNumber)
	}
	if chunks[0].FileName != "notes.txt" {
		t.Errorf("chunk file name = %q, want notes.txt", chunks[0].FileName)
	}
	if !filepath.IsAbs(chunks[0].FilePath) {
		t.Errorf("chunk file path %q is not absolute", chunks[0].FilePath)
	}

	var statuses []progress.Status
	for len(events) > 0 {
		statuses = append(statuses, (<-events).Status)
	}
	want := []progress.Status{progress.StatusIngesting, progress.StatusDone}
	if len(statuses) != len(want) {
		t.Fatalf("progress statuses = %v, want %v", statuses, want)
	}
	for i := range want {
		if statuses[i] != want[i] {
			t.Errorf("progress status %d = %q, want %q", i, statuses[i], want[i])
		}
	}
}

func TestChunksFor_MissingFile(t *testing.T) {
	dir := t.TempDir()

	source := NewDirectorySource(dir, true, nil, nil)
	doc := IngestedDocument{DocumentID: "doc_vanished"}

	chunks, err := source.ChunksFor(context.Background(), doc)
	if err != nil {
		t.Fatalf("ChunksFor() error = %v", err)
	}
	if chunks != nil {
		t.Errorf("ChunksFor() for a missing file = %v, want nil", chunks)
	}
}
