package handlers

import (
	"context"
	"database/sql"
	"log/slog"
	"net/http"
	"time"

	"doculens/internal/contextutil"
)

// CollectionChecker reports whether a vector-store collection exists.
// Implemented by vectorstore.Store.
type CollectionChecker interface {
	CollectionExists(ctx context.Context, collection string) (bool, error)
}

// HealthHandler handles HTTP requests for health checks.
type HealthHandler struct {
	store              CollectionChecker
	db                 *sql.DB
	collections        []string
	healthCheckTimeout time.Duration
}

// NewHealthHandler creates a new HealthHandler. collections are the
// vector-store collections whose existence the check requires.
func NewHealthHandler(store CollectionChecker, db *sql.DB, collections ...string) *HealthHandler {
	return &HealthHandler{
		store:              store,
		db:                 db,
		collections:        collections,
		healthCheckTimeout: 5 * time.Second,
	}
}

// HealthResponse represents the health check response.
type HealthResponse struct {
	// Overall health status: "healthy" or "unhealthy"
	Status string `json:"status"`

	// Timestamp of the health check
	Timestamp string `json:"timestamp"`

	// Individual check results
	Checks map[string]string `json:"checks"`

	// List of issues (only present if status is unhealthy)
	Issues []string `json:"issues,omitempty"`
}

// ServeHTTP handles GET /api/health. Returns 200 when every dependency
// check passes, 503 otherwise.
func (h *HealthHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := contextutil.LoggerFromContext(ctx)

	checkCtx, cancel := context.WithTimeout(ctx, h.healthCheckTimeout)
	defer cancel()

	checks := make(map[string]string)
	var issues []string

	if h.checkVectorStore(checkCtx, logger) {
		checks["vector_store"] = "ok"
	} else {
		checks["vector_store"] = "error"
		issues = append(issues, "vector_store_unavailable")
	}

	if err := h.db.PingContext(checkCtx); err != nil {
		logger.WarnContext(ctx, "database health check failed", "error", err)
		checks["database"] = "error"
		issues = append(issues, "database_unavailable")
	} else {
		checks["database"] = "ok"
	}

	status := "healthy"
	httpStatus := http.StatusOK
	if len(issues) > 0 {
		status = "unhealthy"
		httpStatus = http.StatusServiceUnavailable
	}

	writeJSON(w, httpStatus, HealthResponse{
		Status:    status,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Checks:    checks,
		Issues:    issues,
	})
}

func (h *HealthHandler) checkVectorStore(ctx context.Context, logger *slog.Logger) bool {
	for _, collection := range h.collections {
		exists, err := h.store.CollectionExists(ctx, collection)
		if err != nil {
			logger.WarnContext(ctx, "vector store health check failed", "error", err)
			return false
		}
		if !exists {
			logger.WarnContext(ctx, "vector store collection does not exist", "collection", collection)
			return false
		}
	}
	return true
}
