// Package server implements boardd, the development board server: a chi HTTP
// server that mints board-scoped connection tokens and relays board traffic
// between WebSocket clients, with optional Redis fanout across instances.
// State is in-memory; boardd exists for local development and end-to-end
// tests, not durable storage.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"github.com/gosuda/ideaboard/internal/domain"
)

// Config carries the boardd settings.
type Config struct {
	Addr         string
	Secret       string
	TokenTTL     time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// Server is the boardd HTTP server.
type Server struct {
	router     chi.Router
	httpServer *http.Server
	hub        *Hub
	cfg        Config
	log        zerolog.Logger
}

// New creates a Server with all routes wired. fanout may be nil.
func New(cfg Config, fanout *Fanout, log zerolog.Logger) *Server {
	router := chi.NewRouter()
	router.Use(chimw.RequestID)
	router.Use(chimw.RealIP)
	router.Use(chimw.Recoverer)

	hub := NewHub(cfg.Secret, fanout, log)

	s := &Server{
		router: router,
		hub:    hub,
		cfg:    cfg,
		log:    log,
		httpServer: &http.Server{
			Addr:         cfg.Addr,
			Handler:      router,
			ReadTimeout:  cfg.ReadTimeout,
			WriteTimeout: cfg.WriteTimeout,
		},
	}

	router.Get("/healthz", s.handleHealth)
	router.Post("/api/tokens", s.handleMintToken)
	router.Route("/ws", func(r chi.Router) {
		r.Get("/board/{boardID}/{token}", hub.ServeBoard)
	})

	return s
}

// Handler exposes the router, for httptest servers.
func (s *Server) Handler() http.Handler {
	return s.router
}

// HubRef exposes the room registry, for seeding boards in tests and demos.
func (s *Server) HubRef() *Hub {
	return s.hub
}

// Start runs the HTTP server until Shutdown.
func (s *Server) Start(_ context.Context) error {
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("server.Start: %w", err)
	}
	return nil
}

// Shutdown gracefully stops the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("server.Shutdown: %w", err)
	}
	return nil
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

type mintTokenRequest struct {
	BoardID  int64       `json:"board_id"`
	UserID   int64       `json:"user_id"`
	Username string      `json:"username"`
	Color    string      `json:"color"`
	Role     domain.Role `json:"role"`
}

type mintTokenResponse struct {
	Token string `json:"token"`
}

// handleMintToken issues a connection token. boardd has no account system;
// any caller may mint, which is fine for a dev relay.
func (s *Server) handleMintToken(w http.ResponseWriter, r *http.Request) {
	var req mintTokenRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if req.Role == "" {
		req.Role = domain.RoleEditor
	}
	if !req.Role.Valid() {
		http.Error(w, "invalid role", http.StatusBadRequest)
		return
	}
	if req.Username == "" || req.BoardID == 0 {
		http.Error(w, "board_id and username are required", http.StatusBadRequest)
		return
	}

	token, err := MintToken(s.cfg.Secret, req.BoardID, domain.ActiveUser{
		UserID:   req.UserID,
		Username: req.Username,
		Color:    req.Color,
		Role:     req.Role,
	}, s.cfg.TokenTTL)
	if err != nil {
		s.log.Error().Err(err).Msg("mint token")
		http.Error(w, "token signing failed", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(mintTokenResponse{Token: token})
}
