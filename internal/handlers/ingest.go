package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"doculens/internal/contextutil"
	"doculens/internal/storage"
)

// IngestionTrigger starts ingestion runs and reports whether one is active.
// Implemented by ingest.Manager.
type IngestionTrigger interface {
	TriggerIngestion(ctx context.Context, dir string) error
	InProgress() bool
}

// IngestionHandler handles HTTP requests for triggering and observing
// ingestion.
type IngestionHandler struct {
	manager IngestionTrigger
	configs storage.ConfigStore
}

// NewIngestionHandler creates a new IngestionHandler.
func NewIngestionHandler(manager IngestionTrigger, configs storage.ConfigStore) *IngestionHandler {
	return &IngestionHandler{manager: manager, configs: configs}
}

// TriggerRequest represents the optional request payload for a trigger.
type TriggerRequest struct {
	// Path overrides the active configuration's documents path.
	Path string `json:"path,omitempty"`
}

// TriggerResponse represents the response to an accepted trigger.
type TriggerResponse struct {
	Message string `json:"message"`
	Status  string `json:"status"`
}

// StatusResponse reports whether an ingestion run is active.
type StatusResponse struct {
	IsIngestionInProgress bool `json:"isIngestionInProgress"`
}

// Trigger handles POST /api/ingestion/trigger. The run happens in the
// background; the response only acknowledges the request. A trigger that
// lands while a run is active is silently dropped by the manager.
func (h *IngestionHandler) Trigger(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := contextutil.LoggerFromContext(ctx)

	var req TriggerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		logger.WarnContext(ctx, "invalid request body", "error", err)
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	dir := strings.TrimSpace(req.Path)
	if dir == "" {
		cfg, err := h.configs.GetActive(ctx)
		if err != nil {
			if errors.Is(err, storage.ErrNotFound) {
				writeError(w, http.StatusBadRequest, "No active configuration and no path provided")
				return
			}
			handleServiceError(w, ctx, err, "Failed to resolve documents path")
			return
		}
		dir = cfg.DocumentsPath
	}

	// Detach from the request context so the run survives the response.
	runCtx := contextutil.WithLogger(context.Background(), logger)
	go func() {
		if err := h.manager.TriggerIngestion(runCtx, dir); err != nil {
			logger.Error("background ingestion failed", "path", dir, "error", err)
		}
	}()

	writeJSON(w, http.StatusAccepted, TriggerResponse{
		Message: "Ingestion triggered",
		Status:  "accepted",
	})
}

// Status handles GET /api/ingestion/status.
func (h *IngestionHandler) Status(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, StatusResponse{
		IsIngestionInProgress: h.manager.InProgress(),
	})
}
