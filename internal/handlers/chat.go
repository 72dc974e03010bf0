package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"doculens/internal/contextutil"
	"doculens/internal/rag"
	"doculens/internal/service"
	"doculens/internal/storage"
)

// ChatHandler handles HTTP requests for chat.
type ChatHandler struct {
	chatService service.ChatService
}

// NewChatHandler creates a new ChatHandler.
func NewChatHandler(chatService service.ChatService) *ChatHandler {
	return &ChatHandler{chatService: chatService}
}

// ChatRequest represents the HTTP request payload for chat.
type ChatRequest struct {
	SessionID string `json:"session_id,omitempty"`
	Message   string `json:"message"`
	K         int    `json:"k,omitempty"`
}

// ChatResponse represents the HTTP response payload for chat.
type ChatResponse struct {
	SessionID string         `json:"session_id"`
	Reply     string         `json:"reply"`
	Sources   []rag.Citation `json:"sources"`
}

// ServeHTTP handles POST /api/chat. Appending ?stream=true switches the
// response to Server-Sent Events.
func (h *ChatHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := contextutil.LoggerFromContext(ctx)

	if r.URL.Query().Get("stream") == "true" {
		h.handleStreamingChat(w, r)
		return
	}

	var req ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.WarnContext(ctx, "invalid request body", "error", err)
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	svcResp, err := h.chatService.ProcessChat(ctx, service.ChatRequest{
		SessionID: req.SessionID,
		Message:   req.Message,
		K:         req.K,
	})
	if err != nil {
		handleServiceError(w, ctx, err, "Failed to process chat request")
		return
	}

	writeJSON(w, http.StatusOK, ChatResponse{
		SessionID: svcResp.SessionID,
		Reply:     svcResp.Reply,
		Sources:   svcResp.Sources,
	})
}

// handleStreamingChat streams the reply using Server-Sent Events. Content
// deltas are sent as data events; the final event carries the session ID
// and citations, followed by a [DONE] marker.
func (h *ChatHandler) handleStreamingChat(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := contextutil.LoggerFromContext(ctx)

	var req ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.WarnContext(ctx, "invalid request body for streaming", "error", err)
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		logger.ErrorContext(ctx, "streaming not supported by response writer")
		writeError(w, http.StatusInternalServerError, "Streaming not supported")
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	sse := newSSEWriter(w, flusher)
	svcResp, err := h.chatService.StreamChat(ctx, service.ChatRequest{
		SessionID: req.SessionID,
		Message:   req.Message,
		K:         req.K,
	}, func(chunk string) error {
		return sse.sendJSON(map[string]string{"delta": chunk})
	})
	if err != nil {
		logger.ErrorContext(ctx, "error streaming chat", "error", err)
		_ = sse.sendJSON(map[string]string{"error": err.Error()})
		return
	}

	_ = sse.sendJSON(map[string]any{
		"session_id": svcResp.SessionID,
		"sources":    svcResp.Sources,
	})
	sse.sendDone()
}

// ChatHistoryHandler returns a session's persisted messages.
type ChatHistoryHandler struct {
	chatService service.ChatService
}

// NewChatHistoryHandler creates a new ChatHistoryHandler.
func NewChatHistoryHandler(chatService service.ChatService) *ChatHistoryHandler {
	return &ChatHistoryHandler{chatService: chatService}
}

// ServeHTTP handles GET /api/chat/history/{sessionID}.
func (h *ChatHistoryHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	sessionID := chi.URLParam(r, "sessionID")
	messages, err := h.chatService.History(ctx, sessionID)
	if err != nil {
		handleServiceError(w, ctx, err, "Failed to load chat history")
		return
	}
	if messages == nil {
		messages = []storage.ChatMessage{}
	}
	writeJSON(w, http.StatusOK, messages)
}
