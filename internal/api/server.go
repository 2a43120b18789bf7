package api

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"time"

	"retro-platformer/internal/config"

	"github.com/go-chi/chi/v5"
)

// Server is the HTTP API server with WebSocket support. It combines
// the route tree with the WebSocket hub for real-time snapshots.
type Server struct {
	engine      EngineInterface
	cfg         config.APIConfig
	router      *chi.Mux
	wsHub       *WebSocketHub
	rateLimiter *IPRateLimiter
	httpServer  *http.Server
}

// NewServer creates a new API server with production configuration.
//
// IMPORTANT: Background workers do NOT start until Start() is called.
// This lets tests construct the server and use Router() without
// goroutines or network listeners.
//
// For testing HTTP endpoints without WebSocket support, use NewRouter
// directly.
func NewServer(cfg config.AppConfig, engine EngineInterface) *Server {
	s := &Server{
		engine:      engine,
		cfg:         cfg.API,
		wsHub:       NewWebSocketHub(engine, cfg.API.AllowedOrigins),
		rateLimiter: NewIPRateLimiter(RateLimitConfigFrom(cfg.API)),
	}

	s.router = NewRouter(RouterConfig{
		Engine:      engine,
		API:         cfg.API,
		App:         cfg,
		RateLimiter: s.rateLimiter,
	})

	// The WebSocket route needs the hub instance, so it is attached
	// here rather than in the pure NewRouter factory.
	s.router.Get("/ws", s.handleWS)

	return s
}

// Start begins the HTTP server AND starts background workers. This is
// the only method that starts goroutines or opens network listeners.
func (s *Server) Start() error {
	go s.wsHub.Run()
	s.wsHub.StartBroadcastLoop(s.cfg.BroadcastHz)

	addr := fmt.Sprintf(":%d", s.cfg.Port)
	s.httpServer = &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	log.Printf("🌐 API server starting on %s", addr)
	log.Printf("🕹️ WebSocket: ws://localhost%s/ws", addr)

	err := s.httpServer.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

// Router returns the HTTP handler for use with httptest.
//
// Example:
//
//	server := api.NewServer(cfg, engine)
//	ts := httptest.NewServer(server.Router())
//	defer ts.Close()
//	resp, _ := http.Get(ts.URL + "/api/state")
func (s *Server) Router() http.Handler {
	return s.router
}

// Hub returns the WebSocket hub, mainly for tests and shutdown checks.
func (s *Server) Hub() *WebSocketHub {
	return s.wsHub
}

// Stop gracefully shuts down the listener, the hub and the limiter.
func (s *Server) Stop(ctx context.Context) error {
	var err error
	if s.httpServer != nil {
		err = s.httpServer.Shutdown(ctx)
	}
	s.wsHub.Stop()
	s.rateLimiter.Stop()
	return err
}

func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	s.wsHub.HandleWebSocket(w, r)
}
