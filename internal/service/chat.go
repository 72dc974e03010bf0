// Package service holds the domain layer between HTTP handlers and the
// retrieval engine.
package service

//go:generate go run go.uber.org/mock/mockgen@latest -destination=mocks/mock_chat_service.go -package=mocks -mock_names=ChatService=MockChatService doculens/internal/service ChatService

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"doculens/internal/contextutil"
	"doculens/internal/rag"
	"doculens/internal/storage"
)

// ChatRequest represents a chat request in the domain layer.
type ChatRequest struct {
	// SessionID groups messages into a conversation. Blank starts a new
	// session; the assigned ID is returned in the response.
	SessionID string
	Message   string
	// K optionally overrides how many chunks retrieval fetches.
	K int
}

// ChatResponse represents a chat response in the domain layer.
type ChatResponse struct {
	SessionID string
	Reply     string
	Sources   []rag.Citation
}

// ChatService provides document-grounded chat functionality.
type ChatService interface {
	// ProcessChat answers one chat message and persists both turns.
	ProcessChat(ctx context.Context, req ChatRequest) (ChatResponse, error)
	// StreamChat is like ProcessChat but delivers the reply incrementally
	// via callback. The full response, including citations, is returned
	// once the stream completes.
	StreamChat(ctx context.Context, req ChatRequest, callback func(chunk string) error) (ChatResponse, error)
	// History returns a session's persisted messages in order.
	History(ctx context.Context, sessionID string) ([]storage.ChatMessage, error)
}

type chatService struct {
	engine  rag.Engine
	history storage.ChatStore
}

// NewChatService creates a new ChatService.
func NewChatService(engine rag.Engine, history storage.ChatStore) ChatService {
	return &chatService{
		engine:  engine,
		history: history,
	}
}

func (s *chatService) ProcessChat(ctx context.Context, req ChatRequest) (ChatResponse, error) {
	logger := contextutil.LoggerFromContext(ctx)

	sessionID, err := s.begin(ctx, &req)
	if err != nil {
		return ChatResponse{}, err
	}

	answer, err := s.engine.Ask(ctx, rag.AskRequest{Question: req.Message, K: req.K})
	if err != nil {
		logger.ErrorContext(ctx, "failed to answer chat message", "session_id", sessionID, "error", err)
		return ChatResponse{}, WrapError(err, "failed to answer chat message")
	}

	s.recordReply(ctx, sessionID, answer.Answer)

	logger.InfoContext(ctx, "chat request processed successfully",
		"session_id", sessionID,
		"message_length", len(req.Message),
		"reply_length", len(answer.Answer),
		"sources", len(answer.Sources),
	)
	return ChatResponse{
		SessionID: sessionID,
		Reply:     answer.Answer,
		Sources:   answer.Sources,
	}, nil
}

func (s *chatService) StreamChat(ctx context.Context, req ChatRequest, callback func(chunk string) error) (ChatResponse, error) {
	logger := contextutil.LoggerFromContext(ctx)

	sessionID, err := s.begin(ctx, &req)
	if err != nil {
		return ChatResponse{}, err
	}

	var reply strings.Builder
	sources, err := s.engine.StreamAsk(ctx, rag.AskRequest{Question: req.Message, K: req.K}, func(chunk string) error {
		reply.WriteString(chunk)
		return callback(chunk)
	})
	if err != nil {
		logger.ErrorContext(ctx, "failed to stream chat reply", "session_id", sessionID, "error", err)
		return ChatResponse{}, WrapError(err, "failed to stream chat reply")
	}

	s.recordReply(ctx, sessionID, reply.String())

	logger.InfoContext(ctx, "streaming chat request processed successfully",
		"session_id", sessionID,
		"message_length", len(req.Message),
	)
	return ChatResponse{
		SessionID: sessionID,
		Reply:     reply.String(),
		Sources:   sources,
	}, nil
}

func (s *chatService) History(ctx context.Context, sessionID string) ([]storage.ChatMessage, error) {
	if strings.TrimSpace(sessionID) == "" {
		return nil, &ValidationError{Field: "session_id", Message: "cannot be empty"}
	}
	messages, err := s.history.ListBySession(ctx, sessionID)
	if err != nil {
		return nil, WrapError(err, "failed to load chat history")
	}
	return messages, nil
}

// begin validates the request, assigns a session ID when missing and
// persists the user's turn.
func (s *chatService) begin(ctx context.Context, req *ChatRequest) (string, error) {
	logger := contextutil.LoggerFromContext(ctx)

	if strings.TrimSpace(req.Message) == "" {
		logger.WarnContext(ctx, "empty message in chat request")
		return "", &ValidationError{Field: "message", Message: "cannot be empty"}
	}

	sessionID := req.SessionID
	if sessionID == "" {
		sessionID = uuid.NewString()
	}

	if _, err := s.history.Append(ctx, sessionID, "user", req.Message); err != nil {
		return "", WrapError(err, "failed to persist chat message")
	}
	return sessionID, nil
}

// recordReply persists the assistant turn. A history write failure after
// the answer exists is logged, not surfaced; the user already has the
// reply.
func (s *chatService) recordReply(ctx context.Context, sessionID, reply string) {
	logger := contextutil.LoggerFromContext(ctx)
	if _, err := s.history.Append(ctx, sessionID, "assistant", reply); err != nil {
		logger.ErrorContext(ctx, "failed to persist assistant reply", "session_id", sessionID, "error", err)
	}
}
