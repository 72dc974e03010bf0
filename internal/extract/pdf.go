package extract

import (
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/ledongthuc/pdf"
)

// PageParagraph is one retrieval-sized paragraph extracted from a PDF page.
type PageParagraph struct {
	Page int
	Text string
}

// PDFPageParagraphs extracts text from every page of a PDF using positioned
// letters: letters are clustered into words, words into lines, and lines
// into text blocks by vertical spacing, yielding reading-order page text.
// Each page's text is then split into paragraphs of roughly targetWords
// words. Pages that fail to parse are logged and skipped; they never abort
// the document.
func PDFPageParagraphs(path string, targetWords int) ([]PageParagraph, error) {
	f, r, err := pdf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open pdf: %w", err)
	}
	defer func() {
		_ = f.Close()
	}()

	if targetWords <= 0 {
		targetWords = DefaultParagraphWords
	}

	var out []PageParagraph
	for i := 1; i <= r.NumPage(); i++ {
		page := r.Page(i)
		if page.V.IsNull() {
			continue
		}
		text, err := pageLayoutText(page)
		if err != nil {
			slog.Warn("failed to extract pdf page", "path", path, "page", i, "error", err)
			continue
		}
		for _, para := range SplitParagraphs(text, targetWords) {
			out = append(out, PageParagraph{Page: i, Text: para})
		}
	}
	return out, nil
}

// CanProcessPDF reports whether the file opens as a PDF with at least one
// page. Used as a cheap structural sniff before ingestion.
func CanProcessPDF(path string) (ok bool) {
	defer func() {
		if recover() != nil {
			ok = false
		}
	}()
	f, r, err := pdf.Open(path)
	if err != nil {
		return false
	}
	defer func() {
		_ = f.Close()
	}()
	return r.NumPage() > 0
}

// letter is one positioned glyph run from a PDF content stream. Coordinates
// use the PDF convention: origin bottom-left, y grows upward.
type letter struct {
	x, y, w, size float64
	s             string
}

// pageLayoutText renders one page's positioned text in reading order.
func pageLayoutText(page pdf.Page) (text string, err error) {
	// The content-stream parser panics on some malformed PDFs; contain
	// that to this page.
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("pdf content stream: %v", r)
		}
	}()

	content := page.Content()
	letters := make([]letter, 0, len(content.Text))
	for _, t := range content.Text {
		if strings.TrimSpace(t.S) == "" {
			continue
		}
		letters = append(letters, letter{x: t.X, y: t.Y, w: t.W, size: t.FontSize, s: t.S})
	}
	return layoutText(letters), nil
}

type textLine struct {
	y    float64
	size float64
	text string
}

// layoutText groups letters into words, words into lines, and lines into
// blocks. Block text joins its lines with spaces; blocks are joined with
// blank lines, so downstream paragraph splitting sees block boundaries.
func layoutText(letters []letter) string {
	lines := groupLines(letters)
	blocks := groupBlocks(lines)

	parts := make([]string, 0, len(blocks))
	for _, block := range blocks {
		lineTexts := make([]string, 0, len(block))
		for _, line := range block {
			lineTexts = append(lineTexts, line.text)
		}
		parts = append(parts, strings.Join(lineTexts, " "))
	}
	return strings.Join(parts, "\n\n")
}

// groupLines clusters letters by baseline, then joins each line's letters
// into words using a nearest-neighbour horizontal gap threshold.
func groupLines(letters []letter) []textLine {
	if len(letters) == 0 {
		return nil
	}

	// Top of page first, then left to right.
	sorted := make([]letter, len(letters))
	copy(sorted, letters)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].y != sorted[j].y {
			return sorted[i].y > sorted[j].y
		}
		return sorted[i].x < sorted[j].x
	})

	var lines []textLine
	var current []letter
	for _, l := range sorted {
		if len(current) == 0 {
			current = append(current, l)
			continue
		}
		ref := current[len(current)-1]
		tolerance := maxFloat(ref.size, l.size) * 0.5
		if tolerance == 0 {
			tolerance = 2
		}
		if absFloat(ref.y-l.y) <= tolerance {
			current = append(current, l)
		} else {
			lines = append(lines, buildLine(current))
			current = []letter{l}
		}
	}
	lines = append(lines, buildLine(current))
	return lines
}

func buildLine(letters []letter) textLine {
	sort.SliceStable(letters, func(i, j int) bool { return letters[i].x < letters[j].x })

	var sb strings.Builder
	var maxSize float64
	var ySum float64
	prevEnd := 0.0
	for i, l := range letters {
		if i > 0 {
			gap := l.x - prevEnd
			spacing := l.size * 0.3
			if spacing == 0 {
				spacing = 1
			}
			if gap > spacing {
				sb.WriteString(" ")
			}
		}
		sb.WriteString(l.s)
		prevEnd = l.x + l.w
		ySum += l.y
		if l.size > maxSize {
			maxSize = l.size
		}
	}
	return textLine{
		y:    ySum / float64(len(letters)),
		size: maxSize,
		text: sb.String(),
	}
}

// groupBlocks segments consecutive lines into blocks wherever the vertical
// gap exceeds what normal line spacing for the surrounding font size would
// produce.
func groupBlocks(lines []textLine) [][]textLine {
	if len(lines) == 0 {
		return nil
	}

	var blocks [][]textLine
	current := []textLine{lines[0]}
	for _, line := range lines[1:] {
		prev := current[len(current)-1]
		spacing := maxFloat(prev.size, line.size) * 1.8
		if spacing == 0 {
			spacing = 14
		}
		if prev.y-line.y > spacing {
			blocks = append(blocks, current)
			current = []textLine{line}
		} else {
			current = append(current, line)
		}
	}
	blocks = append(blocks, current)
	return blocks
}

func maxFloat(a, b float64) float64 {
	if a > b {
		return a
	}
	return b
}

func absFloat(a float64) float64 {
	if a < 0 {
		return -a
	}
	return a
}
