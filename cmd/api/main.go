package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	nethttp "net/http"
	"os"

	"doculens/internal/config"
	"doculens/internal/http"
	"doculens/internal/ingest"
	"doculens/internal/llm"
	"doculens/internal/progress"
	"doculens/internal/rag"
	"doculens/internal/service"
	"doculens/internal/storage"
	"doculens/internal/vectorstore"
	"doculens/internal/watch"
)

func main() {
	// Load configuration first (needed for log level)
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Configure structured logging with configurable level and format
	opts := &slog.HandlerOptions{
		Level: cfg.LogLevel,
	}
	var handler slog.Handler
	if cfg.LogFormat == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}
	logger := slog.New(handler)
	slog.SetDefault(logger)
	slog.Debug("Logging configured", "level", cfg.LogLevel.String(), "format", cfg.LogFormat)

	// Initialize database
	db, err := storage.New(cfg.DBPath)
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	defer func() {
		_ = db.Close()
	}()

	if err := storage.Migrate(db); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}
	slog.Info("Database initialized", "path", cfg.DBPath)

	configRepo := storage.NewConfigRepo(db)
	chatRepo := storage.NewChatRepo(db)

	ctx := context.Background()

	// Seed a default configuration from the environment on first start
	if _, err := configRepo.GetActive(ctx); errors.Is(err, storage.ErrNotFound) && cfg.DocumentsPath != "" {
		seeded, err := configRepo.Create(ctx, storage.Configuration{
			Name:          "default",
			DocumentsPath: cfg.DocumentsPath,
			Recursive:     cfg.RecursiveScan,
		})
		if err == nil {
			_, err = configRepo.SetActive(ctx, seeded.ID)
		}
		if err != nil {
			slog.Warn("Failed to seed default configuration", "error", err)
		} else {
			slog.Info("Seeded default configuration", "path", cfg.DocumentsPath)
		}
	}

	// Validate embedding client vector size (fail-fast)
	embedder := llm.NewEmbeddingsClient(cfg.LLMBaseURL, cfg.LLMAPIKey, cfg.EmbeddingModelName, cfg.QdrantVectorSize)
	testEmbeddings, err := embedder.EmbedTexts(ctx, []string{"test"})
	if err != nil {
		log.Fatalf("Failed to validate embedding client: %v", err)
	}
	if len(testEmbeddings) == 0 || len(testEmbeddings[0]) != cfg.QdrantVectorSize {
		log.Fatalf("Embedding vector size mismatch: expected %d, got %d", cfg.QdrantVectorSize, len(testEmbeddings[0]))
	}
	slog.Info("Embedding client validated", "vector_size", cfg.QdrantVectorSize)

	// Initialize Qdrant vector store
	store, err := vectorstore.New(cfg.QdrantURL, embedder, cfg.QdrantDocumentsCollection, cfg.QdrantChunksCollection, cfg.QdrantVectorSize)
	if err != nil {
		log.Fatalf("Failed to create Qdrant client: %v", err)
	}
	if err := store.EnsureCollections(ctx); err != nil {
		log.Fatalf("Failed to ensure Qdrant collections: %v", err)
	}
	slog.Info("Qdrant collections ready",
		"documents", cfg.QdrantDocumentsCollection,
		"chunks", cfg.QdrantChunksCollection,
		"vector_size", cfg.QdrantVectorSize,
	)

	// Create the ingestion pipeline
	bus := progress.NewBus()
	chunker := ingest.NewFixedWindowChunker(cfg.ChunkSize, cfg.ChunkOverlap)
	ingestor := ingest.NewIngestor(store, store, 0)
	newSource := func(dir string) ingest.Source {
		recursive := cfg.RecursiveScan
		if active, err := configRepo.GetActive(context.Background()); err == nil && active.DocumentsPath == dir {
			recursive = active.Recursive
		}
		return ingest.NewDirectorySource(dir, recursive, chunker, bus)
	}
	manager := ingest.NewManager(ingestor, newSource)

	// Create LLM client and RAG engine
	llmClient := llm.NewClient(cfg.LLMBaseURL, cfg.LLMAPIKey, cfg.LLMModelName)
	ragEngine := rag.NewEngine(embedder, store, llmClient)
	chatService := service.NewChatService(ragEngine, chatRepo)
	slog.Info("RAG engine initialized")

	// Create router with dependencies
	deps := &http.Deps{
		ChatService: chatService,
		Manager:     manager,
		Configs:     configRepo,
		Documents:   store,
		Health:      store,
		DB:          db,
		ProgressBus: bus,
		Collections: []string{cfg.QdrantDocumentsCollection, cfg.QdrantChunksCollection},
	}
	router := http.NewRouter(deps)

	// Start initial ingestion in background after router is ready
	go func() {
		runCtx := context.Background()
		active, err := configRepo.GetActive(runCtx)
		if err != nil {
			slog.Info("No active configuration, skipping startup ingestion")
			return
		}
		slog.Info("Starting background ingestion", "path", active.DocumentsPath)
		if err := manager.TriggerIngestion(runCtx, active.DocumentsPath); err != nil {
			slog.Error("Ingestion completed with errors", "error", err)
		} else {
			slog.Info("Ingestion completed successfully")
		}
	}()

	// Watch the documents directory for changes
	if cfg.WatchEnabled {
		if active, err := configRepo.GetActive(ctx); err == nil {
			watcher := watch.New(active.DocumentsPath, active.Recursive, manager)
			go func() {
				if err := watcher.Run(context.Background()); err != nil && !errors.Is(err, context.Canceled) {
					slog.Error("Document watcher stopped", "error", err)
				}
			}()
		}
	}

	// Start API server
	addr := ":" + cfg.APIPort
	slog.Info("Starting API server", "addr", addr)
	slog.Debug("LLM configuration", "base_url", cfg.LLMBaseURL, "model", cfg.LLMModelName)
	if err := nethttp.ListenAndServe(addr, router); err != nil {
		log.Fatalf("API server failed to start: %v", err)
	}
}
