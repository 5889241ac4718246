package api

import (
	"pitchside/internal/match"
	"pitchside/internal/render"
	"pitchside/internal/roster"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// MatchSource is the slice of *match.Engine the API reads.
// Keep this minimal - only include methods the API layer actually calls.
type MatchSource interface {
	// Snapshot returns the latest published state; never blocks the tick loop
	Snapshot() match.Snapshot
	// Result returns the running summary
	Result() match.Result
	// Events returns the append-only event log
	Events() *match.EventLog
	Teams() [2]roster.Team
	Pitch() match.Pitch
	// Stop abandons a live match
	Stop()
}

var _ MatchSource = (*match.Engine)(nil)

// RouterConfig contains all dependencies needed to construct the HTTP router.
//
// Example usage in tests:
//
//	cfg := api.RouterConfig{
//	    Match: engine,
//	    RateLimitConfig: &api.RateLimitConfig{
//	        RequestsPerSecond: 1000, // High limit for tests
//	        Burst:             1000,
//	    },
//	}
//	router := api.NewRouter(cfg)
//	ts := httptest.NewServer(router)
type RouterConfig struct {
	// Match is the match being served (required)
	Match MatchSource

	// RateLimiter is an optional pre-configured rate limiter.
	// If nil, a new one will be created using RateLimitConfig.
	RateLimiter *IPRateLimiter

	// RateLimitConfig is optional configuration for the rate limiter.
	// Only used if RateLimiter is nil. If both are nil, uses DefaultRateLimitConfig.
	RateLimitConfig *RateLimitConfig

	// CORSOrigins lists allowed CORS origins. If nil, only localhost.
	CORSOrigins []string

	// AdminToken guards POST endpoints when set.
	AdminToken string

	// DisableLogging disables the request logger middleware (useful for benchmarks).
	DisableLogging bool
}

// DefaultCORSOrigins allows local dashboards on any port.
var DefaultCORSOrigins = []string{
	"http://localhost:*",
	"http://127.0.0.1:*",
}

// routerHandlers holds the handler functions for the router.
type routerHandlers struct {
	match    MatchSource
	renderer *render.Renderer
}

// NewRouter constructs the HTTP router with all middleware and routes.
//
// Apart from the rate limiter's cleanup goroutine (when none is passed in)
// it has no side effects and opens no listeners, so it is safe to use in
// tests with httptest.NewServer.
func NewRouter(cfg RouterConfig) *chi.Mux {
	r := chi.NewRouter()

	// Middleware - Order matters!
	r.Use(middleware.RequestID)
	if !cfg.DisableLogging {
		r.Use(middleware.Logger)
	}
	r.Use(middleware.Recoverer)
	r.Use(requestMetrics)

	// Rate limiting (BEFORE CORS to reject early and save CPU)
	rateLimiter := cfg.RateLimiter
	if rateLimiter == nil {
		rateLimitCfg := DefaultRateLimitConfig
		if cfg.RateLimitConfig != nil {
			rateLimitCfg = *cfg.RateLimitConfig
		}
		rateLimiter = NewIPRateLimiter(rateLimitCfg)
	}
	r.Use(rateLimiter.Middleware)

	corsOrigins := cfg.CORSOrigins
	if corsOrigins == nil {
		corsOrigins = DefaultCORSOrigins
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: corsOrigins,
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type", AdminTokenHeader},
		MaxAge:         300,
	}))

	h := &routerHandlers{
		match:    cfg.Match,
		renderer: render.New(cfg.Match.Pitch(), cfg.Match.Teams(), render.DefaultOptions()),
	}

	r.Get("/health", h.handleHealth)

	r.Route("/api", func(r chi.Router) {
		r.Get("/teams", h.handleGetTeams)

		r.Route("/match", func(r chi.Router) {
			r.Get("/", h.handleGetMatch)
			r.Get("/score", h.handleGetScore)
			r.Get("/stats", h.handleGetStats)
			r.Get("/events", h.handleGetEvents)
			r.Get("/frame.png", h.handleGetFrame)

			r.With(RequireAdminToken(cfg.AdminToken)).Post("/stop", h.handleStop)
		})
	})

	return r
}
