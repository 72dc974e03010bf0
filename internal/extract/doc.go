package extract

import (
	"fmt"

	"code.sajari.com/docconv"
)

// DocText extracts plain text from a legacy binary .doc file via docconv.
// The binary Word format is not worth parsing by hand; docconv already
// understands it. The result is one document-level string, chunked the same
// way as .docx content.
func DocText(path string) (string, error) {
	res, err := docconv.ConvertPath(path)
	if err != nil {
		return "", fmt.Errorf("failed to convert doc file: %w", err)
	}
	return res.Body, nil
}
