package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"

	"insight-chat-backend/internal/backend"
	"insight-chat-backend/internal/config"
	"insight-chat-backend/internal/db"
	"insight-chat-backend/internal/payload"
	"insight-chat-backend/internal/store"
	"insight-chat-backend/internal/types"
)

// apologyText is the single fixed message shown for any transport failure.
// The underlying cause is logged, never surfaced to the user.
const apologyText = "I'm sorry, I couldn't reach the analytics service. Please try again in a moment."

type Server struct {
	router      *chi.Mux
	memory      *store.MemoryStore
	transcripts store.TranscriptStore
	backends    *backend.Registry
	database    *db.DB
	cfg         config.Config
}

func NewServer(cfg config.Config) (*Server, error) {
	if cfg.BackendTimeout <= 0 {
		cfg.BackendTimeout = 60 * time.Second
	}
	r := chi.NewRouter()
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{cfg.AllowedOrigin},
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Requested-With"},
		ExposedHeaders:   []string{"X-Session-Id"},
		AllowCredentials: true, // Enable credentials for cookies
		MaxAge:           300,
	}))

	backends, err := loadBackends(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to configure backends: %w", err)
	}

	// Persistence: Postgres when DB_URL is provided, transcript files otherwise
	var database *db.DB
	var transcripts store.TranscriptStore
	if cfg.DatabaseURL != "" {
		database, err = db.New(cfg.DatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize database: %w", err)
		}
		log.Println("database connection established")
		if err := database.RunMigrations("./migrations"); err != nil {
			database.Close()
			return nil, fmt.Errorf("failed to run migrations: %w", err)
		}
		transcripts = store.NewDatabaseStore(database)
	} else {
		log.Println("DB_URL not provided, persisting transcripts to " + cfg.TranscriptDir)
		transcripts = store.NewFileStore(cfg.TranscriptDir)
	}

	s := &Server{
		router:      r,
		memory:      store.NewMemoryStore(cfg.MaxTranscriptMessages),
		transcripts: transcripts,
		backends:    backends,
		database:    database,
		cfg:         cfg,
	}
	s.routes()
	return s, nil
}

// loadBackends reads the backends file, or falls back to endpoints from the
// environment when no file exists.
func loadBackends(cfg config.Config) (*backend.Registry, error) {
	reg, err := backend.LoadRegistry(cfg.BackendsFile, cfg.BackendTimeout)
	if err == nil {
		return reg, nil
	}
	if !errors.Is(err, fs.ErrNotExist) {
		return nil, err
	}
	log.Printf("[backend] %s not found, using endpoints from environment", cfg.BackendsFile)
	var providers []backend.Provider
	if cfg.AWSEndpoint != "" {
		providers = append(providers, backend.Provider{
			Name:     "aws",
			Kind:     backend.KindAWS,
			Endpoint: cfg.AWSEndpoint,
			Provider: cfg.AWSProvider,
		})
	}
	if cfg.OCIEndpoint != "" {
		providers = append(providers, backend.Provider{
			Name:     "oci",
			Kind:     backend.KindOCI,
			Endpoint: cfg.OCIEndpoint,
		})
	}
	return backend.NewRegistry(providers, cfg.DefaultProvider, cfg.BackendTimeout)
}

func (s *Server) routes() {
	s.router.Get("/api/health", s.handleHealth)
	s.router.Post("/api/chat", s.handleChat)
	s.router.Get("/api/chat/history", s.handleHistory)
	s.router.Post("/api/chat/new", s.handleNewChat)
}

func (s *Server) Router() http.Handler { return s.router }

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	status := map[string]string{"status": "ok"}
	if s.database != nil {
		if err := s.database.HealthCheck(); err != nil {
			status["status"] = "degraded"
			status["database"] = "unreachable"
		} else {
			status["database"] = "ok"
		}
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(status)
}

// handleChat runs the full pipeline for one user turn: backend call, (OCI)
// normalization, extraction, assembly, transcript append, persistence.
func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	var req types.ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if strings.TrimSpace(req.Query) == "" {
		s.writeError(w, http.StatusBadRequest, "query is required")
		return
	}
	sid := getOrCreateSessionID(r, w)
	s.hydrate(sid)

	client, ok := s.backends.Resolve(req.Provider)
	if !ok {
		s.writeError(w, http.StatusBadRequest, fmt.Sprintf("unknown provider %q", req.Provider))
		return
	}

	// One outstanding call per session
	gen, ok := s.memory.Begin(sid)
	if !ok {
		s.writeError(w, http.StatusConflict, "a request is already in progress for this session")
		return
	}
	defer s.memory.Finish(sid, gen)

	userMsg := types.NewUserMessage(req.Query, time.Now())
	if s.memory.AppendIfCurrent(sid, gen, userMsg) {
		s.persist(sid, userMsg)
	}

	ctx, cancel := context.WithTimeout(r.Context(), s.cfg.BackendTimeout)
	defer cancel()

	var reply types.ChatMessage
	raw, err := client.Query(ctx, req.Query)
	if err != nil {
		log.Printf("[chat] %s backend call failed: %v", client.Name(), err)
		reply = types.ChatMessage{
			Role:      "assistant",
			Text:      apologyText,
			Timestamp: time.Now().UTC().Format(time.RFC3339),
		}
	} else {
		p := raw
		if client.Kind() == backend.KindOCI {
			p = payload.Normalize(raw)
		}
		rows, cols := payload.Extract(p)
		reply = payload.Assemble(p, rows, cols, time.Now())
	}

	if !s.memory.AppendIfCurrent(sid, gen, reply) {
		// The conversation was reset while this call was in flight
		log.Printf("[chat] discarding stale response for session %s (generation %d)", sid, gen)
		s.writeError(w, http.StatusConflict, "conversation was reset while the request was in flight")
		return
	}
	s.persist(sid, reply)

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("X-Session-Id", sid)
	_ = json.NewEncoder(w).Encode(types.ChatResponse{SessionID: sid, Message: reply})
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	sid := getOrCreateSessionID(r, w)
	s.hydrate(sid)
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("X-Session-Id", sid)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"sessionId":  sid,
		"transcript": s.memory.Get(sid),
	})
}

// handleNewChat clears the transcript and erases persisted storage. Bumping
// the generation makes any in-flight backend response a no-op.
func (s *Server) handleNewChat(w http.ResponseWriter, r *http.Request) {
	sid := getOrCreateSessionID(r, w)
	s.memory.Reset(sid)
	if err := s.transcripts.Clear(sid); err != nil {
		log.Printf("[chat] failed to clear persisted transcript for %s: %v", sid, err)
	}
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("X-Session-Id", sid)
	_ = json.NewEncoder(w).Encode(map[string]string{"sessionId": sid, "status": "cleared"})
}

// hydrate lazily restores a session's transcript from persistence the first
// time the session is seen after a restart.
func (s *Server) hydrate(sid string) {
	if s.memory.Has(sid) {
		return
	}
	msgs, err := s.transcripts.Load(sid)
	if err != nil {
		log.Printf("[chat] failed to load persisted transcript for %s: %v", sid, err)
	}
	s.memory.Set(sid, msgs)
}

// persist appends one message to the persisted transcript. Persistence
// failures are logged, not surfaced; the live transcript already holds the
// message.
func (s *Server) persist(sid string, msg types.ChatMessage) {
	if err := s.transcripts.Append(sid, msg); err != nil {
		log.Printf("[chat] failed to persist message for %s: %v", sid, err)
	}
}

func (s *Server) writeError(w http.ResponseWriter, code int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(types.ErrorResponse{Error: msg})
}
