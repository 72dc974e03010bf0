package handlers

import (
	"context"
	"errors"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"doculens/internal/contextutil"
	"doculens/internal/ingest"
	"doculens/internal/storage"
)

// DocumentLister lists ingested document records.
// Implemented by vectorstore.Store.
type DocumentLister interface {
	ListDocuments(ctx context.Context) ([]ingest.IngestedDocument, error)
}

// DocumentsHandler exposes the ingested corpus: listing records and
// downloading source files.
type DocumentsHandler struct {
	store   DocumentLister
	configs storage.ConfigStore
}

// NewDocumentsHandler creates a new DocumentsHandler.
func NewDocumentsHandler(store DocumentLister, configs storage.ConfigStore) *DocumentsHandler {
	return &DocumentsHandler{store: store, configs: configs}
}

// DocumentResponse represents one ingested document record.
type DocumentResponse struct {
	DocumentID      string `json:"document_id"`
	SourceID        string `json:"source_id"`
	DocumentVersion string `json:"document_version"`
}

// List handles GET /api/documents.
func (h *DocumentsHandler) List(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	docs, err := h.store.ListDocuments(ctx)
	if err != nil {
		handleServiceError(w, ctx, err, "Failed to list documents")
		return
	}

	resp := make([]DocumentResponse, 0, len(docs))
	for _, doc := range docs {
		resp = append(resp, DocumentResponse{
			DocumentID:      doc.DocumentID,
			SourceID:        doc.SourceID,
			DocumentVersion: doc.DocumentVersion,
		})
	}
	writeJSON(w, http.StatusOK, resp)
}

// Download handles GET /api/documents/download?path=... The path must
// resolve inside the active configuration's documents directory; anything
// else is rejected.
func (h *DocumentsHandler) Download(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := contextutil.LoggerFromContext(ctx)

	requested := r.URL.Query().Get("path")
	if strings.TrimSpace(requested) == "" {
		writeError(w, http.StatusBadRequest, "path query parameter is required")
		return
	}

	cfg, err := h.configs.GetActive(ctx)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			writeError(w, http.StatusNotFound, "No active configuration")
			return
		}
		handleServiceError(w, ctx, err, "Failed to resolve documents path")
		return
	}

	root, err := filepath.Abs(cfg.DocumentsPath)
	if err != nil {
		handleServiceError(w, ctx, err, "Failed to resolve documents path")
		return
	}
	target, err := filepath.Abs(requested)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid path")
		return
	}
	rel, err := filepath.Rel(root, target)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		logger.WarnContext(ctx, "rejected download outside documents directory", "path", requested)
		writeError(w, http.StatusForbidden, "Path is outside the documents directory")
		return
	}

	info, err := os.Stat(target)
	if err != nil || info.IsDir() {
		writeError(w, http.StatusNotFound, "File not found")
		return
	}

	w.Header().Set("Content-Disposition", "attachment; filename=\""+filepath.Base(target)+"\"")
	http.ServeFile(w, r, target)
}
