package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"doculens/internal/contextutil"
	"doculens/internal/storage"
)

// ConfigHandler handles CRUD over ingestion configurations. Activating a
// configuration kicks off an ingestion run against its documents path.
type ConfigHandler struct {
	configs storage.ConfigStore
	manager IngestionTrigger
}

// NewConfigHandler creates a new ConfigHandler.
func NewConfigHandler(configs storage.ConfigStore, manager IngestionTrigger) *ConfigHandler {
	return &ConfigHandler{configs: configs, manager: manager}
}

// ConfigRequest represents the request payload for create and update.
type ConfigRequest struct {
	Name          string `json:"name"`
	DocumentsPath string `json:"documents_path"`
	Recursive     bool   `json:"recursive"`
}

// List handles GET /api/configurations.
func (h *ConfigHandler) List(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	configs, err := h.configs.List(ctx)
	if err != nil {
		handleServiceError(w, ctx, err, "Failed to list configurations")
		return
	}
	if configs == nil {
		configs = []storage.Configuration{}
	}
	writeJSON(w, http.StatusOK, configs)
}

// Get handles GET /api/configurations/{id}.
func (h *ConfigHandler) Get(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	id, ok := h.parseID(w, r)
	if !ok {
		return
	}
	cfg, err := h.configs.GetByID(ctx, id)
	if err != nil {
		handleServiceError(w, ctx, err, "Failed to load configuration")
		return
	}
	writeJSON(w, http.StatusOK, cfg)
}

// Create handles POST /api/configurations.
func (h *ConfigHandler) Create(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	req, ok := h.decodeRequest(w, r)
	if !ok {
		return
	}
	cfg, err := h.configs.Create(ctx, storage.Configuration{
		Name:          req.Name,
		DocumentsPath: req.DocumentsPath,
		Recursive:     req.Recursive,
	})
	if err != nil {
		handleServiceError(w, ctx, err, "Failed to create configuration")
		return
	}
	writeJSON(w, http.StatusCreated, cfg)
}

// Update handles PUT /api/configurations/{id}. Updating the active
// configuration's documents path triggers re-ingestion.
func (h *ConfigHandler) Update(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	id, ok := h.parseID(w, r)
	if !ok {
		return
	}
	req, ok := h.decodeRequest(w, r)
	if !ok {
		return
	}

	previous, err := h.configs.GetByID(ctx, id)
	if err != nil {
		handleServiceError(w, ctx, err, "Failed to load configuration")
		return
	}

	cfg, err := h.configs.Update(ctx, storage.Configuration{
		ID:            id,
		Name:          req.Name,
		DocumentsPath: req.DocumentsPath,
		Recursive:     req.Recursive,
	})
	if err != nil {
		handleServiceError(w, ctx, err, "Failed to update configuration")
		return
	}

	if cfg.IsActive && previous.DocumentsPath != cfg.DocumentsPath {
		h.triggerInBackground(ctx, cfg.DocumentsPath)
	}
	writeJSON(w, http.StatusOK, cfg)
}

// Activate handles POST /api/configurations/{id}/activate.
func (h *ConfigHandler) Activate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	id, ok := h.parseID(w, r)
	if !ok {
		return
	}
	cfg, err := h.configs.SetActive(ctx, id)
	if err != nil {
		handleServiceError(w, ctx, err, "Failed to activate configuration")
		return
	}

	h.triggerInBackground(ctx, cfg.DocumentsPath)
	writeJSON(w, http.StatusOK, cfg)
}

// Delete handles DELETE /api/configurations/{id}.
func (h *ConfigHandler) Delete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	id, ok := h.parseID(w, r)
	if !ok {
		return
	}
	if err := h.configs.Delete(ctx, id); err != nil {
		handleServiceError(w, ctx, err, "Failed to delete configuration")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *ConfigHandler) parseID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid configuration ID")
		return 0, false
	}
	return id, true
}

func (h *ConfigHandler) decodeRequest(w http.ResponseWriter, r *http.Request) (ConfigRequest, bool) {
	var req ConfigRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return ConfigRequest{}, false
	}
	if strings.TrimSpace(req.Name) == "" {
		writeError(w, http.StatusBadRequest, "Configuration name is required")
		return ConfigRequest{}, false
	}
	if strings.TrimSpace(req.DocumentsPath) == "" {
		writeError(w, http.StatusBadRequest, "Documents path is required")
		return ConfigRequest{}, false
	}
	return req, true
}

func (h *ConfigHandler) triggerInBackground(ctx context.Context, dir string) {
	logger := contextutil.LoggerFromContext(ctx)
	runCtx := contextutil.WithLogger(context.Background(), logger)
	go func() {
		if err := h.manager.TriggerIngestion(runCtx, dir); err != nil {
			logger.Error("background ingestion failed", "path", dir, "error", err)
		}
	}()
}
