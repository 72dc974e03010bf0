package ingest

import (
	"fmt"
	"path/filepath"
	"strings"
	"unicode"
)

const (
	// DefaultChunkSize is the window size in characters.
	DefaultChunkSize = 1000
	// DefaultChunkOverlap is how many characters adjacent windows share.
	DefaultChunkOverlap = 200

	// snapThreshold is how far into the window a sentence or line break must
	// fall for the window to be truncated there instead of cut mid-word.
	snapThreshold = 0.7
)

// FixedWindowChunker splits one long document-level string into overlapping
// fixed-size windows, snapping window ends to the last sentence or line
// break when one falls late enough in the window. Output is deterministic
// for a given input and configuration.
type FixedWindowChunker struct {
	size    int
	overlap int
}

// NewFixedWindowChunker creates a chunker with the given window size and
// overlap in characters. Non-positive size or negative overlap fall back to
// the defaults.
func NewFixedWindowChunker(size, overlap int) *FixedWindowChunker {
	if size <= 0 {
		size = DefaultChunkSize
	}
	if overlap < 0 {
		overlap = DefaultChunkOverlap
	}
	return &FixedWindowChunker{size: size, overlap: overlap}
}

// Chunk splits content into chunks owned by doc. Chunk keys are
// "{documentId}_chunk_{index}" and page numbers are the 1-based chunk index.
// Empty or whitespace-only windows are never emitted.
func (c *FixedWindowChunker) Chunk(doc IngestedDocument, content, filePath string) []IngestedChunk {
	runes := []rune(content)
	fileName := filepath.Base(filePath)

	var chunks []IngestedChunk
	index := 0
	for offset := 0; offset < len(runes); {
		end := offset + c.size
		if end > len(runes) {
			end = len(runes)
		}

		// Snap back to a clean sentence or line break, but only when the
		// hard cutoff would land mid-word and the break is late enough in
		// the window to keep chunks near full size.
		if end < len(runes) && !unicode.IsSpace(runes[end]) {
			if breakAt := lastBreak(runes[offset:end]); breakAt > int(float64(end-offset)*snapThreshold) {
				end = offset + breakAt + 1
			}
		}

		text := strings.TrimSpace(string(runes[offset:end]))
		if text != "" {
			chunks = append(chunks, IngestedChunk{
				Key:        fmt.Sprintf("%s_chunk_%d", doc.DocumentID, index),
				DocumentID: doc.DocumentID,
				PageNumber: index + 1,
				Text:       text,
				FileName:   fileName,
				FilePath:   filePath,
			})
			index++
		}

		if end >= len(runes) {
			break
		}
		next := end - c.overlap
		if next <= offset {
			// overlap >= window: force forward progress.
			next = offset + 1
		}
		offset = next
	}
	return chunks
}

// lastBreak returns the index of the last '.' or '\n' in window, or -1.
func lastBreak(window []rune) int {
	for i := len(window) - 1; i >= 0; i-- {
		if window[i] == '.' || window[i] == '\n' {
			return i
		}
	}
	return -1
}
