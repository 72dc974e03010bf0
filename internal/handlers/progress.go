package handlers

import (
	"net/http"

	"doculens/internal/contextutil"
	"doculens/internal/progress"
)

// ProgressHandler streams ingestion progress events over Server-Sent
// Events. Each subscriber sees events published after it connected.
type ProgressHandler struct {
	bus *progress.Bus
}

// NewProgressHandler creates a new ProgressHandler.
func NewProgressHandler(bus *progress.Bus) *ProgressHandler {
	return &ProgressHandler{bus: bus}
}

// ServeHTTP handles GET /api/ingestion/progress.
func (h *ProgressHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := contextutil.LoggerFromContext(ctx)

	flusher, ok := w.(http.Flusher)
	if !ok {
		logger.ErrorContext(ctx, "streaming not supported by response writer")
		writeError(w, http.StatusInternalServerError, "Streaming not supported")
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	events, unsubscribe := h.bus.Subscribe()
	defer unsubscribe()

	sse := newSSEWriter(w, flusher)
	for {
		select {
		case <-ctx.Done():
			return
		case event, open := <-events:
			if !open {
				return
			}
			if err := sse.sendJSON(event); err != nil {
				logger.DebugContext(ctx, "progress subscriber write failed", "error", err)
				return
			}
		}
	}
}
