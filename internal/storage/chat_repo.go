package storage

import (
	"context"
	"database/sql"
)

// ChatStore provides access to persisted chat history.
type ChatStore interface {
	Append(ctx context.Context, sessionID, role, content string) (ChatMessage, error)
	ListBySession(ctx context.Context, sessionID string) ([]ChatMessage, error)
}

// ChatRepo provides methods for chat message operations.
type ChatRepo struct {
	db *sql.DB
}

// NewChatRepo creates a new ChatRepo.
func NewChatRepo(db *sql.DB) *ChatRepo {
	return &ChatRepo{db: db}
}

// Append stores one chat turn and returns it with its assigned ID.
func (r *ChatRepo) Append(ctx context.Context, sessionID, role, content string) (ChatMessage, error) {
	result, err := r.db.ExecContext(ctx,
		"INSERT INTO chat_messages (session_id, role, content) VALUES (?, ?, ?)",
		sessionID, role, content,
	)
	if err != nil {
		return ChatMessage{}, err
	}
	id, err := result.LastInsertId()
	if err != nil {
		return ChatMessage{}, err
	}

	row := r.db.QueryRowContext(ctx,
		"SELECT id, session_id, role, content, created_at FROM chat_messages WHERE id = ?", id,
	)
	return scanChatMessage(row)
}

// ListBySession returns a session's messages in insertion order.
func (r *ChatRepo) ListBySession(ctx context.Context, sessionID string) ([]ChatMessage, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT id, session_id, role, content, created_at FROM chat_messages WHERE session_id = ? ORDER BY id",
		sessionID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var messages []ChatMessage
	for rows.Next() {
		msg, err := scanChatMessage(rows)
		if err != nil {
			return nil, err
		}
		messages = append(messages, msg)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return messages, nil
}

func scanChatMessage(row rowScanner) (ChatMessage, error) {
	var msg ChatMessage
	var createdAt string
	if err := row.Scan(&msg.ID, &msg.SessionID, &msg.Role, &msg.Content, &createdAt); err != nil {
		return ChatMessage{}, err
	}
	var err error
	msg.CreatedAt, err = parseTimestamp(createdAt)
	if err != nil {
		return ChatMessage{}, err
	}
	return msg, nil
}
