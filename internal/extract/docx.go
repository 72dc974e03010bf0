package extract

import (
	"archive/zip"
	"encoding/xml"
	"fmt"
	"io"
	"strings"
)

// docxDocumentEntry is the archive member holding the document body in an
// OOXML wordprocessing package.
const docxDocumentEntry = "word/document.xml"

// DocxText extracts the plain text of a .docx file.
//
// Body-level elements are walked in document order: each paragraph becomes
// the concatenation of its run texts (formatting ignored), each table is
// rendered with cells joined by " | " and rows joined by newlines, a cell's
// paragraphs joined by single spaces. Non-blank blocks are joined with a
// blank line between them.
func DocxText(path string) (string, error) {
	r, err := zip.OpenReader(path)
	if err != nil {
		return "", fmt.Errorf("failed to open docx package: %w", err)
	}
	defer func() {
		_ = r.Close()
	}()

	entry, err := findDocxEntry(&r.Reader)
	if err != nil {
		return "", err
	}
	rc, err := entry.Open()
	if err != nil {
		return "", fmt.Errorf("failed to open document body: %w", err)
	}
	defer func() {
		_ = rc.Close()
	}()

	return parseDocumentBody(rc)
}

// CanProcessDocx reports whether the file opens as an OOXML package with a
// document body. Used as a cheap structural sniff before ingestion.
func CanProcessDocx(path string) bool {
	r, err := zip.OpenReader(path)
	if err != nil {
		return false
	}
	defer func() {
		_ = r.Close()
	}()

	entry, err := findDocxEntry(&r.Reader)
	if err != nil {
		return false
	}
	rc, err := entry.Open()
	if err != nil {
		return false
	}
	defer func() {
		_ = rc.Close()
	}()

	dec := xml.NewDecoder(rc)
	for {
		tok, err := dec.Token()
		if err != nil {
			return false
		}
		if se, ok := tok.(xml.StartElement); ok && se.Name.Local == "body" {
			return true
		}
	}
}

func findDocxEntry(r *zip.Reader) (*zip.File, error) {
	for _, f := range r.File {
		if f.Name == docxDocumentEntry {
			return f, nil
		}
	}
	return nil, fmt.Errorf("docx package has no %s", docxDocumentEntry)
}

// parseDocumentBody streams the document XML and renders body-level
// paragraphs and tables in order.
func parseDocumentBody(r io.Reader) (string, error) {
	dec := xml.NewDecoder(r)

	var blocks []string
	sawBody := false
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", fmt.Errorf("malformed document xml: %w", err)
		}

		se, ok := tok.(xml.StartElement)
		if !ok {
			continue
		}
		switch se.Name.Local {
		case "body":
			sawBody = true
		case "p":
			text, err := parseParagraph(dec)
			if err != nil {
				return "", err
			}
			if strings.TrimSpace(text) != "" {
				blocks = append(blocks, text)
			}
		case "tbl":
			text, err := parseTable(dec)
			if err != nil {
				return "", err
			}
			if strings.TrimSpace(text) != "" {
				blocks = append(blocks, text)
			}
		}
	}

	if !sawBody {
		return "", fmt.Errorf("document has no body")
	}
	return strings.Join(blocks, "\n\n"), nil
}

// parseParagraph consumes tokens until the enclosing w:p ends, concatenating
// the character data of every w:t run element.
func parseParagraph(dec *xml.Decoder) (string, error) {
	var sb strings.Builder
	depth := 1
	inText := false
	for depth > 0 {
		tok, err := dec.Token()
		if err != nil {
			return "", fmt.Errorf("malformed paragraph xml: %w", err)
		}
		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "p":
				depth++
			case "t":
				inText = true
			}
		case xml.EndElement:
			switch t.Name.Local {
			case "p":
				depth--
			case "t":
				inText = false
			}
		case xml.CharData:
			if inText {
				sb.Write(t)
			}
		}
	}
	return sb.String(), nil
}

// parseTable consumes tokens until the enclosing w:tbl ends, rendering rows
// as " | "-joined cell texts. Nested tables are flattened into their cell.
func parseTable(dec *xml.Decoder) (string, error) {
	var rows []string
	depth := 1
	for depth > 0 {
		tok, err := dec.Token()
		if err != nil {
			return "", fmt.Errorf("malformed table xml: %w", err)
		}
		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "tbl":
				depth++
			case "tr":
				if depth == 1 {
					row, err := parseTableRow(dec)
					if err != nil {
						return "", err
					}
					if strings.TrimSpace(row) != "" {
						rows = append(rows, row)
					}
				}
			}
		case xml.EndElement:
			if t.Name.Local == "tbl" {
				depth--
			}
		}
	}
	return strings.Join(rows, "\n"), nil
}

func parseTableRow(dec *xml.Decoder) (string, error) {
	var cells []string
	depth := 1
	for depth > 0 {
		tok, err := dec.Token()
		if err != nil {
			return "", fmt.Errorf("malformed table row xml: %w", err)
		}
		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "tr":
				depth++
			case "tc":
				if depth == 1 {
					cell, err := parseTableCell(dec)
					if err != nil {
						return "", err
					}
					cells = append(cells, cell)
				}
			}
		case xml.EndElement:
			if t.Name.Local == "tr" {
				depth--
			}
		}
	}
	return strings.Join(cells, " | "), nil
}

func parseTableCell(dec *xml.Decoder) (string, error) {
	var paragraphs []string
	depth := 1
	for depth > 0 {
		tok, err := dec.Token()
		if err != nil {
			return "", fmt.Errorf("malformed table cell xml: %w", err)
		}
		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "tc":
				depth++
			case "p":
				text, err := parseParagraph(dec)
				if err != nil {
					return "", err
				}
				if strings.TrimSpace(text) != "" {
					paragraphs = append(paragraphs, text)
				}
			}
		case xml.EndElement:
			if t.Name.Local == "tc" {
				depth--
			}
		}
	}
	return strings.Join(paragraphs, " "), nil
}
