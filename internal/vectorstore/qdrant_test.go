package vectorstore

import (
	"testing"

	"github.com/google/uuid"
	"github.com/qdrant/go-client/qdrant"
)

func TestPointIDForKey(t *testing.T) {
	id := pointIDForKey("docx_report_chunk_0")

	if _, err := uuid.Parse(id); err != nil {
		t.Fatalf("pointIDForKey() = %q, not a UUID: %v", id, err)
	}
	// Deterministic: the same key always maps to the same point, so a
	// re-upsert overwrites instead of duplicating.
	if again := pointIDForKey("docx_report_chunk_0"); again != id {
		t.Errorf("pointIDForKey() not deterministic: %q vs %q", id, again)
	}
	if other := pointIDForKey("docx_report_chunk_1"); other == id {
		t.Error("distinct keys mapped to the same point ID")
	}
}

func TestConvertPayloadToMap(t *testing.T) {
	payload := qdrant.NewValueMap(map[string]any{
		"key":         "doc_notes_chunk_0",
		"page_number": 3,
		"score":       0.5,
		"archived":    false,
		"tags":        []any{"a", "b"},
		"nested":      map[string]any{"inner": "value"},
	})

	meta := convertPayloadToMap(payload)

	if stringValue(meta, "key") != "doc_notes_chunk_0" {
		t.Errorf("key = %v", meta["key"])
	}
	if intValue(meta, "page_number") != 3 {
		t.Errorf("page_number = %v", meta["page_number"])
	}
	if meta["score"] != 0.5 {
		t.Errorf("score = %v", meta["score"])
	}
	if meta["archived"] != false {
		t.Errorf("archived = %v", meta["archived"])
	}
	tags, ok := meta["tags"].([]any)
	if !ok || len(tags) != 2 || tags[0] != "a" {
		t.Errorf("tags = %v", meta["tags"])
	}
	nested, ok := meta["nested"].(map[string]any)
	if !ok || nested["inner"] != "value" {
		t.Errorf("nested = %v", meta["nested"])
	}
}

func TestValueHelpers_Missing(t *testing.T) {
	meta := map[string]any{"page_number": "not a number"}

	if got := stringValue(meta, "ghost"); got != "" {
		t.Errorf("stringValue(missing) = %q", got)
	}
	if got := intValue(meta, "page_number"); got != 0 {
		t.Errorf("intValue(non-numeric) = %d", got)
	}
}

func TestNew_InvalidURL(t *testing.T) {
	if _, err := New("://bad", nil, "documents", "chunks", 1536); err == nil {
		t.Error("New() error = nil for malformed URL")
	}
}
