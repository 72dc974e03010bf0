// Package extract converts office documents into plain text. Each supported
// format has its own routine; the ingestion layer dispatches by extension
// and never touches the underlying parsing libraries, so they can be
// swapped without changing chunking or reconciliation logic.
package extract

import (
	"path/filepath"
	"strings"
)

// CanProcess performs a cheap structural sniff for formats whose files are
// commonly corrupt or half-written (DOCX packages, PDFs). Plain-text
// formats are always considered processable.
func CanProcess(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".docx":
		return CanProcessDocx(path)
	case ".pdf":
		return CanProcessPDF(path)
	default:
		return true
	}
}
