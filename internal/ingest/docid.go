package ingest

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Document identifiers are derived from the file's path relative to the
// scanned directory: a type prefix, the extension stripped, and path
// separators flattened to underscores. The result is stable across rescans
// and independent of the absolute location of the directory.

func documentIDForPath(root, path string) string {
	rel, err := filepath.Rel(root, path)
	if err != nil {
		rel = filepath.Base(path)
	}
	ext := strings.ToLower(filepath.Ext(rel))
	noExt := strings.TrimSuffix(rel, filepath.Ext(rel))

	var prefix string
	switch ext {
	case ".docx":
		prefix = "docx_"
	case ".pdf":
		prefix = "pdf_"
	default:
		prefix = "doc_"
	}
	flat := strings.ReplaceAll(filepath.ToSlash(noExt), "/", "_")
	return prefix + flat
}

// documentKeyFor derives the vector-store primary key for a document record.
func documentKeyFor(documentID string) string {
	return fmt.Sprintf("doc_%s", documentID)
}

// pathForDocumentID reverses the id scheme: the prefix is stripped, the
// flattened separators restored, and the known extensions tried in turn,
// picking whichever candidate actually exists. The first candidate is
// returned when none exist so the caller gets a deterministic miss.
func pathForDocumentID(root, documentID string) string {
	clean := documentID
	switch {
	case strings.HasPrefix(documentID, "docx_"):
		clean = documentID[len("docx_"):]
	case strings.HasPrefix(documentID, "pdf_"):
		clean = documentID[len("pdf_"):]
	case strings.HasPrefix(documentID, "doc_"):
		clean = documentID[len("doc_"):]
	}

	rel := strings.ReplaceAll(clean, "_", string(filepath.Separator))
	candidates := []string{
		filepath.Join(root, rel+".docx"),
		filepath.Join(root, rel+".doc"),
		filepath.Join(root, rel+".pdf"),
		filepath.Join(root, rel+".txt"),
		filepath.Join(root, rel+".md"),
		filepath.Join(root, rel),
	}
	for _, candidate := range candidates {
		if _, err := os.Stat(candidate); err == nil {
			return candidate
		}
	}
	return candidates[0]
}
