// Package api exposes the HTTP surface: document ingestion, retrieval
// testing, chat with optional answer evaluation, session management and
// service stats.
package api

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/nahidhasan/banglarag/internal/chat"
	"github.com/nahidhasan/banglarag/internal/config"
	"github.com/nahidhasan/banglarag/internal/llm"
	"github.com/nahidhasan/banglarag/internal/memory"
	"github.com/nahidhasan/banglarag/internal/pipeline"
	"github.com/nahidhasan/banglarag/internal/retrieval"
	"github.com/nahidhasan/banglarag/internal/vectorstore"
)

// Server is the HTTP API server.
type Server struct {
	router       chi.Router
	orchestrator *pipeline.Orchestrator
	chat         *chat.Service
	retriever    *retrieval.Retriever
	store        *vectorstore.Store
	mem          *memory.Store
	llm          *llm.Client
	log          *slog.Logger
	cfg          config.Config
}

// NewServer creates and configures the HTTP server.
func NewServer(orch *pipeline.Orchestrator, chatSvc *chat.Service, retriever *retrieval.Retriever, store *vectorstore.Store, mem *memory.Store, client *llm.Client, log *slog.Logger, cfg config.Config) *Server {
	s := &Server{
		orchestrator: orch,
		chat:         chatSvc,
		retriever:    retriever,
		store:        store,
		mem:          mem,
		llm:          client,
		log:          log,
		cfg:          cfg,
	}
	s.setupRoutes()
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) setupRoutes() {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(RequestLogger(s.log))

	// Public endpoints.
	r.Get("/health", s.handleHealth)

	// Authenticated endpoints.
	r.Group(func(r chi.Router) {
		r.Use(AuthMiddleware(s.cfg.APIKey, s.log))

		r.Post("/api/documents/upload", s.handleUpload)
		r.Get("/api/documents/upload/{jobID}/status", s.handleUploadStatus)
		r.Get("/api/documents", s.handleListDocuments)
		r.Delete("/api/documents/{name}", s.handleDeleteDocument)
		r.Post("/api/retrieve", s.handleRetrieve)

		r.Post("/api/chat", s.handleChat)
		r.Post("/api/chat/evaluate", s.handleChatEvaluate)
		r.Get("/api/sessions/{sessionID}", s.handleGetSession)
		r.Delete("/api/sessions/{sessionID}", s.handleDeleteSession)

		r.Get("/api/stats/llm", s.handleLLMStats)
	})

	s.router = r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(`{"status":"ok"}`))
}
