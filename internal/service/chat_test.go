package service_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"doculens/internal/rag"
	"doculens/internal/service"
	"doculens/internal/storage"
)

type fakeEngine struct {
	answer       rag.AskResponse
	streamChunks []string
	sources      []rag.Citation
	err          error
	gotRequest   rag.AskRequest
}

func (f *fakeEngine) Ask(ctx context.Context, req rag.AskRequest) (rag.AskResponse, error) {
	f.gotRequest = req
	return f.answer, f.err
}

func (f *fakeEngine) StreamAsk(ctx context.Context, req rag.AskRequest, onChunk func(chunk string) error) ([]rag.Citation, error) {
	f.gotRequest = req
	if f.err != nil {
		return nil, f.err
	}
	for _, chunk := range f.streamChunks {
		if err := onChunk(chunk); err != nil {
			return nil, err
		}
	}
	return f.sources, nil
}

type appendedTurn struct {
	sessionID string
	role      string
	content   string
}

type fakeChatStore struct {
	appended  []appendedTurn
	appendErr error
	messages  []storage.ChatMessage
	listErr   error
}

func (f *fakeChatStore) Append(ctx context.Context, sessionID, role, content string) (storage.ChatMessage, error) {
	if f.appendErr != nil {
		return storage.ChatMessage{}, f.appendErr
	}
	f.appended = append(f.appended, appendedTurn{sessionID: sessionID, role: role, content: content})
	return storage.ChatMessage{ID: int64(len(f.appended)), SessionID: sessionID, Role: role, Content: content}, nil
}

func (f *fakeChatStore) ListBySession(ctx context.Context, sessionID string) ([]storage.ChatMessage, error) {
	return f.messages, f.listErr
}

func TestProcessChat(t *testing.T) {
	engine := &fakeEngine{answer: rag.AskResponse{
		Answer:  "Laptops arrive in week one.",
		Sources: []rag.Citation{{FileName: "guide.pdf", PageNumber: 3}},
	}}
	history := &fakeChatStore{}
	svc := service.NewChatService(engine, history)

	resp, err := svc.ProcessChat(context.Background(), service.ChatRequest{
		SessionID: "session-1",
		Message:   "When do laptops arrive?",
		K:         7,
	})
	if err != nil {
		t.Fatalf("ProcessChat() error = %v", err)
	}

	if resp.SessionID != "session-1" {
		t.Errorf("session = %q, want session-1", resp.SessionID)
	}
	if resp.Reply != "Laptops arrive in week one." {
		t.Errorf("reply = %q", resp.Reply)
	}
	if len(resp.Sources) != 1 || resp.Sources[0].FileName != "guide.pdf" {
		t.Errorf("sources = %+v", resp.Sources)
	}
	if engine.gotRequest.Question != "When do laptops arrive?" || engine.gotRequest.K != 7 {
		t.Errorf("engine request = %+v", engine.gotRequest)
	}

	// Both turns were persisted under the session.
	if len(history.appended) != 2 {
		t.Fatalf("persisted %d turns, want 2", len(history.appended))
	}
	if history.appended[0].role != "user" || history.appended[0].content != "When do laptops arrive?" {
		t.Errorf("first turn = %+v", history.appended[0])
	}
	if history.appended[1].role != "assistant" || history.appended[1].content != "Laptops arrive in week one." {
		t.Errorf("second turn = %+v", history.appended[1])
	}
	for _, turn := range history.appended {
		if turn.sessionID != "session-1" {
			t.Errorf("turn session = %q, want session-1", turn.sessionID)
		}
	}
}

func TestProcessChat_AssignsSessionID(t *testing.T) {
	engine := &fakeEngine{answer: rag.AskResponse{Answer: "hi"}}
	svc := service.NewChatService(engine, &fakeChatStore{})

	resp, err := svc.ProcessChat(context.Background(), service.ChatRequest{Message: "hello"})
	if err != nil {
		t.Fatalf("ProcessChat() error = %v", err)
	}
	if resp.SessionID == "" {
		t.Error("blank request session got no assigned ID")
	}
}

func TestProcessChat_EmptyMessage(t *testing.T) {
	history := &fakeChatStore{}
	svc := service.NewChatService(&fakeEngine{}, history)

	_, err := svc.ProcessChat(context.Background(), service.ChatRequest{Message: "   "})

	var validationErr *service.ValidationError
	if !errors.As(err, &validationErr) {
		t.Fatalf("ProcessChat() error = %v, want ValidationError", err)
	}
	if validationErr.Field != "message" {
		t.Errorf("field = %q, want message", validationErr.Field)
	}
	if len(history.appended) != 0 {
		t.Error("invalid request was persisted")
	}
}

func TestProcessChat_EngineError(t *testing.T) {
	engine := &fakeEngine{err: errors.New("llm unreachable")}
	svc := service.NewChatService(engine, &fakeChatStore{})

	_, err := svc.ProcessChat(context.Background(), service.ChatRequest{Message: "hello"})
	if err == nil {
		t.Fatal("ProcessChat() error = nil, want engine failure to propagate")
	}
}

func TestProcessChat_HistoryWriteError(t *testing.T) {
	svc := service.NewChatService(&fakeEngine{}, &fakeChatStore{appendErr: errors.New("disk full")})

	_, err := svc.ProcessChat(context.Background(), service.ChatRequest{Message: "hello"})
	if err == nil {
		t.Fatal("ProcessChat() error = nil, want persistence failure to propagate")
	}
}

func TestStreamChat(t *testing.T) {
	engine := &fakeEngine{
		streamChunks: []string{"Laptops ", "arrive ", "in week one."},
		sources:      []rag.Citation{{FileName: "guide.pdf", PageNumber: 3}},
	}
	history := &fakeChatStore{}
	svc := service.NewChatService(engine, history)

	var streamed strings.Builder
	resp, err := svc.StreamChat(context.Background(), service.ChatRequest{
		SessionID: "session-1",
		Message:   "When do laptops arrive?",
	}, func(chunk string) error {
		streamed.WriteString(chunk)
		return nil
	})
	if err != nil {
		t.Fatalf("StreamChat() error = %v", err)
	}

	want := "Laptops arrive in week one."
	if streamed.String() != want {
		t.Errorf("streamed = %q, want %q", streamed.String(), want)
	}
	if resp.Reply != want {
		t.Errorf("accumulated reply = %q, want %q", resp.Reply, want)
	}
	if len(resp.Sources) != 1 {
		t.Errorf("sources = %+v", resp.Sources)
	}

	// The accumulated reply, not the chunks, lands in history.
	if len(history.appended) != 2 {
		t.Fatalf("persisted %d turns, want 2", len(history.appended))
	}
	if history.appended[1].role != "assistant" || history.appended[1].content != want {
		t.Errorf("assistant turn = %+v", history.appended[1])
	}
}

func TestStreamChat_CallbackError(t *testing.T) {
	engine := &fakeEngine{streamChunks: []string{"a", "b"}}
	svc := service.NewChatService(engine, &fakeChatStore{})

	_, err := svc.StreamChat(context.Background(), service.ChatRequest{Message: "hello"}, func(chunk string) error {
		return errors.New("client went away")
	})
	if err == nil {
		t.Fatal("StreamChat() error = nil, want callback failure to propagate")
	}
}

func TestHistory(t *testing.T) {
	history := &fakeChatStore{messages: []storage.ChatMessage{
		{SessionID: "session-1", Role: "user", Content: "hello"},
		{SessionID: "session-1", Role: "assistant", Content: "hi"},
	}}
	svc := service.NewChatService(&fakeEngine{}, history)

	messages, err := svc.History(context.Background(), "session-1")
	if err != nil {
		t.Fatalf("History() error = %v", err)
	}
	if len(messages) != 2 {
		t.Errorf("History() = %d messages, want 2", len(messages))
	}
}

func TestHistory_EmptySessionID(t *testing.T) {
	svc := service.NewChatService(&fakeEngine{}, &fakeChatStore{})

	_, err := svc.History(context.Background(), "  ")

	var validationErr *service.ValidationError
	if !errors.As(err, &validationErr) {
		t.Fatalf("History() error = %v, want ValidationError", err)
	}
}
