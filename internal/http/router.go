// Package http assembles the chi router for the API surface.
package http

import (
	"database/sql"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"doculens/internal/handlers"
	"doculens/internal/progress"
	"doculens/internal/service"
	"doculens/internal/storage"
)

// Deps holds dependencies for the HTTP router.
type Deps struct {
	ChatService service.ChatService
	Manager     handlers.IngestionTrigger
	Configs     storage.ConfigStore
	Documents   handlers.DocumentLister
	Health      handlers.CollectionChecker
	DB          *sql.DB
	ProgressBus *progress.Bus
	// Collections are the vector-store collections health checks require.
	Collections []string
}

// NewRouter creates a new HTTP router with the provided dependencies.
func NewRouter(deps *Deps) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(LoggerMiddleware)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           3600,
	}))

	chatHandler := handlers.NewChatHandler(deps.ChatService)
	historyHandler := handlers.NewChatHistoryHandler(deps.ChatService)
	ingestionHandler := handlers.NewIngestionHandler(deps.Manager, deps.Configs)
	configHandler := handlers.NewConfigHandler(deps.Configs, deps.Manager)
	documentsHandler := handlers.NewDocumentsHandler(deps.Documents, deps.Configs)
	progressHandler := handlers.NewProgressHandler(deps.ProgressBus)
	healthHandler := handlers.NewHealthHandler(deps.Health, deps.DB, deps.Collections...)

	r.Route("/api", func(r chi.Router) {
		r.Method(http.MethodGet, "/health", healthHandler)

		r.Method(http.MethodPost, "/chat", chatHandler)
		r.Method(http.MethodGet, "/chat/history/{sessionID}", historyHandler)

		r.Route("/ingestion", func(r chi.Router) {
			r.Post("/trigger", ingestionHandler.Trigger)
			r.Get("/status", ingestionHandler.Status)
			r.Method(http.MethodGet, "/progress", progressHandler)
		})

		r.Route("/configurations", func(r chi.Router) {
			r.Get("/", configHandler.List)
			r.Post("/", configHandler.Create)
			r.Get("/{id}", configHandler.Get)
			r.Put("/{id}", configHandler.Update)
			r.Delete("/{id}", configHandler.Delete)
			r.Post("/{id}/activate", configHandler.Activate)
		})

		r.Route("/documents", func(r chi.Router) {
			r.Get("/", documentsHandler.List)
			r.Get("/download", documentsHandler.Download)
		})
	})

	return r
}
