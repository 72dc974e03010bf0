package storage

import "time"

// Configuration is a named ingestion configuration. At most one
// configuration is active at a time; its documents path is the directory
// ingestion runs against.
type Configuration struct {
	ID            int64     `json:"id"`
	Name          string    `json:"name"`
	DocumentsPath string    `json:"documents_path"`
	Recursive     bool      `json:"recursive"`
	IsActive      bool      `json:"is_active"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// ChatMessage is one persisted turn of a chat session.
type ChatMessage struct {
	ID        int64     `json:"id"`
	SessionID string    `json:"session_id"`
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}
