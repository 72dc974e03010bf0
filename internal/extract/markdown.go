package extract

import (
	"os"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/text"
)

// MarkdownParagraphs extracts the plain text of a markdown file, one string
// per top-level block (heading, paragraph, list, code block, table), with
// formatting stripped. Blank blocks are dropped.
func MarkdownParagraphs(path string) ([]string, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	md := goldmark.New(goldmark.WithExtensions(extension.Table))
	doc := md.Parser().Parse(text.NewReader(content))

	var blocks []string
	for n := doc.FirstChild(); n != nil; n = n.NextSibling() {
		block := strings.TrimSpace(markdownBlockText(n, content))
		if block != "" {
			blocks = append(blocks, block)
		}
	}
	return blocks, nil
}

// markdownBlockText renders one block-level AST node as plain text.
func markdownBlockText(n ast.Node, content []byte) string {
	switch node := n.(type) {
	case *ast.FencedCodeBlock:
		return codeBlockText(node, content)
	case *ast.CodeBlock:
		return codeBlockText(node, content)
	}

	// Table extension nodes are matched by kind name so this package does
	// not depend on the extension AST types directly.
	if strings.Contains(n.Kind().String(), "Table") {
		return tableText(n, content)
	}

	var sb strings.Builder
	_ = ast.Walk(n, func(node ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		switch v := node.(type) {
		case *ast.Text:
			sb.Write(v.Segment.Value(content))
		case *ast.String:
			sb.Write(v.Value)
		case *ast.Paragraph, *ast.ListItem:
			if sb.Len() > 0 && !strings.HasSuffix(sb.String(), "\n") {
				sb.WriteString("\n")
			}
		}
		return ast.WalkContinue, nil
	})
	return sb.String()
}

func codeBlockText(block interface{ Lines() *text.Segments }, content []byte) string {
	var sb strings.Builder
	lines := block.Lines()
	for i := 0; i < lines.Len(); i++ {
		seg := lines.At(i)
		sb.Write(seg.Value(content))
	}
	return sb.String()
}

// tableText renders a markdown table with cells joined by " | " and rows
// joined by newlines, matching how DOCX tables are flattened.
func tableText(table ast.Node, content []byte) string {
	var rows []string
	_ = ast.Walk(table, func(node ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		kind := node.Kind().String()
		if kind == "TableRow" || kind == "TableHeader" {
			var cells []string
			for cell := node.FirstChild(); cell != nil; cell = cell.NextSibling() {
				cells = append(cells, strings.TrimSpace(inlineText(cell, content)))
			}
			rows = append(rows, strings.Join(cells, " | "))
			return ast.WalkSkipChildren, nil
		}
		return ast.WalkContinue, nil
	})
	return strings.Join(rows, "\n")
}

func inlineText(n ast.Node, content []byte) string {
	var sb strings.Builder
	_ = ast.Walk(n, func(node ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		switch v := node.(type) {
		case *ast.Text:
			sb.Write(v.Segment.Value(content))
		case *ast.String:
			sb.Write(v.Value)
		}
		return ast.WalkContinue, nil
	})
	return sb.String()
}
