package extract

import (
	"archive/zip"
	"os"
	"path/filepath"
	"testing"
)

// writeDocx builds a minimal OOXML package holding the given document.xml
// body markup.
func writeDocx(t *testing.T, dir, name, documentXML string) string {
	t.Helper()
	path := filepath.Join(dir, name)

	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	zw := zip.NewWriter(f)
	w, err := zw.Create("word/document.xml")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := w.Write([]byte(documentXML)); err != nil {
		t.Fatal(err)
	}
	if err := zw.Close(); err != nil {
		t.Fatal(err)
	}
	if err := f.Close(); err != nil {
		t.Fatal(err)
	}
	return path
}

const docxParagraphsXML = `<?xml version="1.0" encoding="UTF-8"?>
<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main">
  <w:body>
    <w:p><w:r><w:t>First </w:t></w:r><w:r><w:t>paragraph.</w:t></w:r></w:p>
    <w:p><w:r><w:rPr></w:rPr></w:r></w:p>
    <w:p><w:r><w:t>Second paragraph.</w:t></w:r></w:p>
  </w:body>
</w:document>`

const docxTableXML = `<?xml version="1.0" encoding="UTF-8"?>
<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main">
  <w:body>
    <w:p><w:r><w:t>Intro text.</w:t></w:r></w:p>
    <w:tbl>
      <w:tr>
        <w:tc><w:p><w:r><w:t>Name</w:t></w:r></w:p></w:tc>
        <w:tc><w:p><w:r><w:t>Value</w:t></w:r></w:p></w:tc>
      </w:tr>
      <w:tr>
        <w:tc><w:p><w:r><w:t>alpha</w:t></w:r></w:p></w:tc>
        <w:tc><w:p><w:r><w:t>one</w:t></w:r></w:p><w:p><w:r><w:t>two</w:t></w:r></w:p></w:tc>
      </w:tr>
    </w:tbl>
  </w:body>
</w:document>`

func TestDocxText_Paragraphs(t *testing.T) {
	path := writeDocx(t, t.TempDir(), "doc.docx", docxParagraphsXML)

	got, err := DocxText(path)
	if err != nil {
		t.Fatalf("DocxText() error = %v", err)
	}
	want := "First paragraph.\n\nSecond paragraph."
	if got != want {
		t.Errorf("DocxText() = %q, want %q", got, want)
	}
}

func TestDocxText_Table(t *testing.T) {
	path := writeDocx(t, t.TempDir(), "table.docx", docxTableXML)

	got, err := DocxText(path)
	if err != nil {
		t.Fatalf("DocxText() error = %v", err)
	}
	want := "Intro text.\n\nName | Value\nalpha | one two"
	if got != want {
		t.Errorf("DocxText() = %q, want %q", got, want)
	}
}

func TestDocxText_NotAZip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "fake.docx")
	if err := os.WriteFile(path, []byte("just plain text"), 0o644); err != nil {
		t.Fatal(err)
	}

	if _, err := DocxText(path); err == nil {
		t.Error("DocxText() error = nil, want error for a non-zip file")
	}
}

func TestDocxText_MissingDocumentEntry(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "empty.docx")

	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	zw := zip.NewWriter(f)
	if _, err := zw.Create("unrelated.txt"); err != nil {
		t.Fatal(err)
	}
	if err := zw.Close(); err != nil {
		t.Fatal(err)
	}
	if err := f.Close(); err != nil {
		t.Fatal(err)
	}

	if _, err := DocxText(path); err == nil {
		t.Error("DocxText() error = nil, want error for a package without a document body")
	}
}

func TestCanProcessDocx(t *testing.T) {
	dir := t.TempDir()

	valid := writeDocx(t, dir, "ok.docx", docxParagraphsXML)
	if !CanProcessDocx(valid) {
		t.Error("CanProcessDocx() = false for a valid package")
	}

	invalid := filepath.Join(dir, "bad.docx")
	if err := os.WriteFile(invalid, []byte("not a zip"), 0o644); err != nil {
		t.Fatal(err)
	}
	if CanProcessDocx(invalid) {
		t.Error("CanProcessDocx() = true for a non-zip file")
	}
}
