package extract

import (
	"os"
	"strings"
)

// TxtParagraphs reads a UTF-8 text file and splits it into paragraphs on
// blank-line boundaries. Paragraphs are trimmed and empty ones are dropped.
func TxtParagraphs(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return splitBlankLines(string(data)), nil
}

// splitBlankLines splits text into trimmed, non-empty paragraphs on blank
// lines, accepting both CRLF and LF line endings.
func splitBlankLines(text string) []string {
	normalized := strings.ReplaceAll(text, "\r\n", "\n")
	parts := strings.Split(normalized, "\n\n")

	var paragraphs []string
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part != "" {
			paragraphs = append(paragraphs, part)
		}
	}
	return paragraphs
}
