package api

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"time"

	"pitchside/internal/config"

	"github.com/go-chi/chi/v5"
)

// Server is the HTTP API server with WebSocket support.
// It combines the HTTP router with the hub for live updates.
type Server struct {
	match       MatchSource
	cfg         config.ServerConfig
	router      *chi.Mux
	hub         *Hub
	rateLimiter *IPRateLimiter
	http        *http.Server
}

// NewServer creates an API server for src.
//
// IMPORTANT: Background workers do NOT start until Start() is called.
// For testing HTTP endpoints without WebSocket support, use NewRouter() directly.
func NewServer(src MatchSource, cfg config.ServerConfig) *Server {
	s := &Server{
		match:       src,
		cfg:         cfg,
		hub:         NewHub(cfg.AllowedOrigins),
		rateLimiter: NewIPRateLimiter(DefaultRateLimitConfig),
	}

	s.router = NewRouter(RouterConfig{
		Match:       src,
		RateLimiter: s.rateLimiter,
		CORSOrigins: cfg.AllowedOrigins,
		AdminToken:  cfg.AdminToken,
	})

	// Rate limited like every route; the hub adds its own connection caps.
	s.router.Get("/ws", s.hub.HandleWebSocket)

	s.http = &http.Server{
		Addr:              cfg.Addr,
		Handler:           s.router,
		ReadHeaderTimeout: 5 * time.Second,
	}
	return s
}

// Start runs the hub and serves HTTP until Shutdown is called or ctx is
// done. It returns nil on a clean shutdown.
//
// Call this method only once.
func (s *Server) Start(ctx context.Context) error {
	go s.hub.Run(ctx)
	s.hub.Stream(ctx, s.match, s.cfg.BroadcastHz)

	log.Printf("🌐 API server starting on %s", s.cfg.Addr)
	log.Printf("⚽ Live feed: ws://localhost%s/ws", s.cfg.Addr)

	if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("api server: %w", err)
	}
	return nil
}

// Router returns the HTTP handler for use with httptest.
//
// Example:
//
//	server := api.NewServer(engine, config.DefaultServer())
//	ts := httptest.NewServer(server.Router())
//	defer ts.Close()
//	resp, _ := http.Get(ts.URL + "/api/match/score")
func (s *Server) Router() http.Handler {
	return s.router
}

// Hub exposes the live feed hub.
func (s *Server) Hub() *Hub { return s.hub }

// Shutdown stops accepting requests, waits for in-flight ones until ctx
// expires, and stops background workers.
func (s *Server) Shutdown(ctx context.Context) error {
	defer s.rateLimiter.Stop()
	if err := s.http.Shutdown(ctx); err != nil {
		return fmt.Errorf("api shutdown: %w", err)
	}
	return nil
}
