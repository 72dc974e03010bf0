package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application.
type Config struct {
	APIPort   string
	LogLevel  slog.Level
	LogFormat string

	DBPath string

	QdrantURL                 string
	QdrantDocumentsCollection string
	QdrantChunksCollection    string
	QdrantVectorSize          int

	LLMBaseURL         string
	LLMAPIKey          string
	LLMModelName       string
	EmbeddingModelName string

	DocumentsPath string
	RecursiveScan bool
	ChunkSize     int
	ChunkOverlap  int
	WatchEnabled  bool
}

// Load reads configuration from environment variables and returns a Config struct.
// It applies defaults for optional fields and validates required fields.
// If a .env file exists in the current directory or project root, it will be loaded automatically.
// Environment variables already set take precedence over .env file values.
func Load() (*Config, error) {
	// Try to load .env file (ignore error if it doesn't exist)
	_ = godotenv.Load()

	cfg := &Config{
		APIPort:   getEnv("API_PORT", "9000"),
		LogFormat: getEnv("LOG_FORMAT", "text"),

		DBPath: getEnv("DB_PATH", "./data/doculens.db"),

		QdrantURL:                 getEnv("QDRANT_URL", "http://localhost:6333"),
		QdrantDocumentsCollection: getEnv("QDRANT_DOCUMENTS_COLLECTION", "documents"),
		QdrantChunksCollection:    getEnv("QDRANT_CHUNKS_COLLECTION", "chunks"),

		LLMBaseURL:         getEnv("LLM_BASE_URL", "https://api.openai.com/v1"),
		LLMAPIKey:          getEnv("LLM_API_KEY", ""),
		LLMModelName:       getEnv("LLM_MODEL", "gpt-4o-mini"),
		EmbeddingModelName: getEnv("EMBEDDING_MODEL", "text-embedding-3-small"),

		DocumentsPath: getEnv("DOCUMENTS_PATH", ""),
	}

	cfg.LogLevel = parseLogLevel(getEnv("LOG_LEVEL", "info"))

	var err error
	if cfg.QdrantVectorSize, err = getEnvInt("QDRANT_VECTOR_SIZE", 1536); err != nil {
		return nil, err
	}
	if cfg.QdrantVectorSize <= 0 {
		return nil, fmt.Errorf("QDRANT_VECTOR_SIZE must be greater than 0")
	}
	if cfg.ChunkSize, err = getEnvInt("CHUNK_SIZE", 1000); err != nil {
		return nil, err
	}
	if cfg.ChunkOverlap, err = getEnvInt("CHUNK_OVERLAP", 200); err != nil {
		return nil, err
	}
	if cfg.ChunkSize <= 0 {
		return nil, fmt.Errorf("CHUNK_SIZE must be greater than 0")
	}
	if cfg.ChunkOverlap < 0 {
		return nil, fmt.Errorf("CHUNK_OVERLAP must not be negative")
	}
	cfg.RecursiveScan = getEnvBool("RECURSIVE_SCAN", true)
	cfg.WatchEnabled = getEnvBool("WATCH_DOCUMENTS", false)

	// Create the data directory if it doesn't exist (for the DB file)
	dataDir := filepath.Dir(cfg.DBPath)
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	return cfg, nil
}

// getEnv gets an environment variable or returns a default value.
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) (int, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("%s must be a valid integer: %w", key, err)
	}
	return n, nil
}

func getEnvBool(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	b, err := strconv.ParseBool(value)
	if err != nil {
		return defaultValue
	}
	return b
}

func parseLogLevel(value string) slog.Level {
	switch strings.ToLower(value) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
