package extract

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

func TestTxtParagraphs(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "notes.txt")
	content := "First paragraph.\r\n\r\nSecond paragraph\nspanning two lines.\n\n\n\nThird."
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	got, err := TxtParagraphs(path)
	if err != nil {
		t.Fatalf("TxtParagraphs() error = %v", err)
	}
	want := []string{
		"First paragraph.",
		"Second paragraph\nspanning two lines.",
		"Third.",
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("TxtParagraphs() = %q, want %q", got, want)
	}
}

func TestTxtParagraphs_MissingFile(t *testing.T) {
	if _, err := TxtParagraphs(filepath.Join(t.TempDir(), "nope.txt")); err == nil {
		t.Error("TxtParagraphs() error = nil, want error for missing file")
	}
}

func TestSplitBlankLines(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want []string
	}{
		{
			name: "empty input",
			in:   "",
			want: nil,
		},
		{
			name: "whitespace only",
			in:   "  \n\n \t ",
			want: nil,
		},
		{
			name: "single paragraph",
			in:   "just one block",
			want: []string{"just one block"},
		},
		{
			name: "trims surrounding whitespace",
			in:   "  padded  \n\n next ",
			want: []string{"padded", "next"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := splitBlankLines(tt.in)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("splitBlankLines(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}
