package ingest

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"doculens/internal/contextutil"
	"doculens/internal/extract"
	"doculens/internal/progress"
)

// supportedExtensions are the file types a directory scan picks up.
var supportedExtensions = map[string]struct{}{
	".docx": {},
	".doc":  {},
	".pdf":  {},
	".txt":  {},
	".md":   {},
}

// lockFilePrefix marks editor lock/temp files that must never be ingested.
const lockFilePrefix = "~$"

// DirectorySource scans one directory (optionally recursive) for supported
// documents and turns them into chunks. It is the sole producer of
// IngestedDocument and IngestedChunk values during a scan.
type DirectorySource struct {
	dir       string
	recursive bool
	chunker   *FixedWindowChunker
	bus       *progress.Bus
	logger    *slog.Logger
}

// NewDirectorySource creates a source over dir. bus may be nil when no
// progress reporting is wanted (tests, one-off runs).
func NewDirectorySource(dir string, recursive bool, chunker *FixedWindowChunker, bus *progress.Bus) *DirectorySource {
	if chunker == nil {
		chunker = NewFixedWindowChunker(DefaultChunkSize, DefaultChunkOverlap)
	}
	return &DirectorySource{
		dir:       dir,
		recursive: recursive,
		chunker:   chunker,
		bus:       bus,
		logger:    slog.Default(),
	}
}

// SourceID distinguishes this directory + scan-mode combination in the
// store, so recursive and non-recursive scans of the same directory do not
// claim each other's documents.
func (s *DirectorySource) SourceID() string {
	mode := "TopDirectoryOnly"
	if s.recursive {
		mode = "AllDirectories"
	}
	return fmt.Sprintf("DocumentDirectory_%s_%s", filepath.Base(s.dir), mode)
}

// DiscoverChanged returns a document record for every qualifying file that
// is new or whose version token differs from its existing record. Files
// that fail the structural sniff are skipped silently (logged only); a
// Waiting progress event is emitted for every discovered file before any
// processing begins.
func (s *DirectorySource) DiscoverChanged(ctx context.Context, existing []IngestedDocument) ([]IngestedDocument, error) {
	logger := contextutil.LoggerFromContext(ctx)

	files, err := s.listFiles(ctx)
	if err != nil {
		return nil, err
	}

	for _, path := range files {
		s.report(progress.Event{FileName: filepath.Base(path), Status: progress.StatusWaiting})
	}

	existingByID := make(map[string]IngestedDocument, len(existing))
	for _, doc := range existing {
		existingByID[doc.DocumentID] = doc
	}

	var changed []IngestedDocument
	for _, path := range files {
		info, err := os.Stat(path)
		if err != nil {
			logger.WarnContext(ctx, "failed to stat file, skipping", "path", path, "error", err)
			continue
		}

		docID := documentIDForPath(s.dir, path)
		version := info.ModTime().UTC().Format(time.RFC3339Nano)

		prev, known := existingByID[docID]
		if known && prev.DocumentVersion == version {
			continue
		}
		if !extract.CanProcess(path) {
			logger.WarnContext(ctx, "file failed structural check, skipping", "path", path)
			continue
		}

		changed = append(changed, IngestedDocument{
			Key:             documentKeyFor(docID),
			SourceID:        s.SourceID(),
			DocumentID:      docID,
			DocumentVersion: version,
		})
	}
	return changed, nil
}

// DiscoverDeleted returns existing records owned by this source whose files
// no longer appear on disk. A missing directory means every record owned by
// this source is considered deleted.
func (s *DirectorySource) DiscoverDeleted(ctx context.Context, existing []IngestedDocument) ([]IngestedDocument, error) {
	if _, err := os.Stat(s.dir); err != nil {
		var deleted []IngestedDocument
		for _, doc := range existing {
			if doc.SourceID == s.SourceID() {
				deleted = append(deleted, doc)
			}
		}
		return deleted, nil
	}

	files, err := s.listFiles(ctx)
	if err != nil {
		return nil, err
	}
	currentIDs := make(map[string]struct{}, len(files))
	for _, path := range files {
		currentIDs[documentIDForPath(s.dir, path)] = struct{}{}
	}

	var deleted []IngestedDocument
	for _, doc := range existing {
		if doc.SourceID != s.SourceID() {
			continue
		}
		if _, ok := currentIDs[doc.DocumentID]; !ok {
			deleted = append(deleted, doc)
		}
	}
	return deleted, nil
}

// ChunksFor resolves the document back to a file path and extracts its
// chunks, emitting Ingesting and then Done or Failed progress events. A
// failure is reported and returned to the caller; this is the only place a
// per-file error propagates out of the source.
func (s *DirectorySource) ChunksFor(ctx context.Context, doc IngestedDocument) ([]IngestedChunk, error) {
	path := pathForDocumentID(s.dir, doc.DocumentID)
	if _, err := os.Stat(path); err != nil {
		return nil, nil
	}

	fileName := filepath.Base(path)
	start := time.Now()
	s.report(progress.Event{FileName: fileName, Status: progress.StatusIngesting})

	chunks, err := s.buildChunks(ctx, doc, path)
	elapsed := time.Since(start).Milliseconds()
	if err != nil {
		s.report(progress.Event{FileName: fileName, Status: progress.StatusFailed, Error: err.Error(), ElapsedMs: elapsed})
		return nil, err
	}

	s.report(progress.Event{FileName: fileName, Status: progress.StatusDone, ElapsedMs: elapsed})
	return chunks, nil
}

func (s *DirectorySource) buildChunks(ctx context.Context, doc IngestedDocument, path string) ([]IngestedChunk, error) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		absPath = path
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".txt":
		paragraphs, err := extract.TxtParagraphs(path)
		if err != nil {
			return nil, err
		}
		return s.paragraphChunks(doc, paragraphs, absPath), nil

	case ".md":
		paragraphs, err := extract.MarkdownParagraphs(path)
		if err != nil {
			return nil, err
		}
		return s.paragraphChunks(doc, paragraphs, absPath), nil

	case ".docx":
		content, err := extract.DocxText(path)
		if err != nil {
			return nil, err
		}
		if strings.TrimSpace(content) == "" {
			return nil, nil
		}
		return s.chunker.Chunk(doc, content, absPath), nil

	case ".doc":
		content, err := extract.DocText(path)
		if err != nil {
			return nil, err
		}
		if strings.TrimSpace(content) == "" {
			return nil, nil
		}
		return s.chunker.Chunk(doc, content, absPath), nil

	case ".pdf":
		paragraphs, err := extract.PDFPageParagraphs(path, extract.DefaultParagraphWords)
		if err != nil {
			return nil, err
		}
		chunks := make([]IngestedChunk, 0, len(paragraphs))
		for _, para := range paragraphs {
			chunks = append(chunks, IngestedChunk{
				// Paragraph order within a PDF page is not meaningful
				// across runs, so keys are random rather than positional.
				Key:        uuid.NewString(),
				DocumentID: doc.DocumentID,
				PageNumber: para.Page,
				Text:       para.Text,
				FileName:   filepath.Base(path),
				FilePath:   absPath,
			})
		}
		return chunks, nil

	default:
		return nil, nil
	}
}

// paragraphChunks keys already paragraph-sized text units sequentially.
func (s *DirectorySource) paragraphChunks(doc IngestedDocument, paragraphs []string, absPath string) []IngestedChunk {
	chunks := make([]IngestedChunk, 0, len(paragraphs))
	for i, text := range paragraphs {
		chunks = append(chunks, IngestedChunk{
			Key:        fmt.Sprintf("%s_chunk_%d", doc.DocumentID, i),
			DocumentID: doc.DocumentID,
			PageNumber: i + 1,
			Text:       text,
			FileName:   filepath.Base(absPath),
			FilePath:   absPath,
		})
	}
	return chunks
}

// listFiles enumerates qualifying files under the source directory,
// honoring the recursion mode and skipping editor lock files.
func (s *DirectorySource) listFiles(ctx context.Context) ([]string, error) {
	if _, err := os.Stat(s.dir); err != nil {
		return nil, fmt.Errorf("directory not found: %s", s.dir)
	}

	var files []string
	err := filepath.WalkDir(s.dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return fmt.Errorf("failed to access path %s: %w", path, err)
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		if d.IsDir() {
			if !s.recursive && path != s.dir {
				return filepath.SkipDir
			}
			return nil
		}

		name := d.Name()
		if strings.HasPrefix(name, lockFilePrefix) {
			return nil
		}
		if _, ok := supportedExtensions[strings.ToLower(filepath.Ext(name))]; !ok {
			return nil
		}

		files = append(files, path)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return files, nil
}

func (s *DirectorySource) report(e progress.Event) {
	if s.bus != nil {
		s.bus.Publish(e)
	}
}
