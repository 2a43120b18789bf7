package api

import (
	"net/http"
	"time"

	"retro-platformer/internal/config"
	"retro-platformer/internal/game"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// EngineInterface defines the game engine methods used by the API.
// This interface enables mocking for tests without spinning up the full
// engine loop. Keep this minimal - only include methods the API layer
// actually calls.
type EngineInterface interface {
	// Snapshot returns the latest lock-free immutable world snapshot
	Snapshot() *game.GameSnapshot
	// Events returns up to limit recent events, oldest first
	Events(limit int) []game.Event
	// TopRuns returns the best recorded runs, best first
	TopRuns() []game.RunRecord
	// SubmitIntent places player input in the engine mailbox
	SubmitIntent(in game.Intent)
	// RequestReset schedules a run reset for the next tick
	RequestReset()
	// Seed returns the world generation seed
	Seed() int64
	// EventLogStats returns event pipeline counters
	EventLogStats() map[string]interface{}
}

// RouterConfig contains all dependencies needed to construct the HTTP
// router. This struct is designed for dependency injection and
// testability.
//
// Example usage in tests:
//
//	cfg := api.RouterConfig{
//	    Engine: mockEngine,
//	    API: config.APIConfig{
//	        RateLimitRPS:   1000, // High limit for tests
//	        RateLimitBurst: 1000,
//	    },
//	}
//	router := api.NewRouter(cfg)
//	ts := httptest.NewServer(router)
type RouterConfig struct {
	// Engine is the game engine (required)
	Engine EngineInterface

	// API carries the HTTP tunables: rate limits, CORS origins, the
	// admin token
	API config.APIConfig

	// App is the full application config served (sanitized) from
	// /api/config. Zero value is fine for tests that skip it.
	App config.AppConfig

	// RateLimiter is an optional pre-configured rate limiter.
	// If nil, a new one is created from the API section.
	RateLimiter *IPRateLimiter

	// DisableLogging disables the request logger middleware (useful
	// for benchmarks and tests)
	DisableLogging bool
}

// routerHandlers holds the handler dependencies for the route tree.
type routerHandlers struct {
	engine EngineInterface
	api    config.APIConfig
	app    config.AppConfig
}

// NewRouter constructs the HTTP router with all middleware and routes.
//
// IMPORTANT: This function is PURE - it has no side effects:
//   - No goroutines are started (the rate limiter's janitor starts
//     only when the caller did not supply one; Stop it via the Server)
//   - No network listeners are opened
//
// This makes it safe to use in tests with httptest.NewServer.
//
// Example:
//
//	router := api.NewRouter(cfg)
//	ts := httptest.NewServer(router)
//	defer ts.Close()
//	resp, _ := http.Get(ts.URL + "/api/state")
func NewRouter(cfg RouterConfig) *chi.Mux {
	r := chi.NewRouter()

	// Middleware - order matters
	if !cfg.DisableLogging {
		r.Use(middleware.Logger)
	}
	r.Use(middleware.Recoverer)

	// Rate limiting before CORS to reject floods early
	rateLimiter := cfg.RateLimiter
	if rateLimiter == nil {
		rateLimiter = NewIPRateLimiter(RateLimitConfigFrom(cfg.API))
	}
	r.Use(rateLimiter.Middleware)

	corsOrigins := cfg.API.AllowedOrigins
	if len(corsOrigins) == 0 {
		corsOrigins = []string{"http://localhost:*", "http://127.0.0.1:*"}
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   corsOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"*"},
		AllowCredentials: false,
	}))

	r.Use(metricsMiddleware)

	h := &routerHandlers{
		engine: cfg.Engine,
		api:    cfg.API,
		app:    cfg.App,
	}

	r.Get("/healthz", h.handleHealthz)

	r.Route("/api", func(r chi.Router) {
		// World observation
		r.Get("/state", h.handleGetState)
		r.Get("/config", h.handleGetConfig)
		r.Get("/events", h.handleGetEvents)
		r.Get("/leaderboard", h.handleGetLeaderboard)

		// Player input
		r.Post("/intent", h.handlePostIntent)

		// Admin
		r.Route("/admin", func(r chi.Router) {
			r.Use(RequireBearer(cfg.API.AdminToken))
			r.Post("/reset", h.handleAdminReset)
		})
	})

	return r
}

// metricsMiddleware records request counts and latency against the chi
// route pattern, keeping metric cardinality bounded.
func metricsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()

		next.ServeHTTP(ww, r)

		pattern := chi.RouteContext(r.Context()).RoutePattern()
		if pattern == "" {
			pattern = "unmatched"
		}
		RecordRequest(r.Method, pattern, ww.Status(), time.Since(start))
	})
}
