// Package api provides the JSON HTTP API, the WebSocket chat endpoint,
// and the embedded web UI.
//
// Middleware stack (outermost first):
//
//	Recovery → RequestID → Logging → CORS → RateLimit → Routes
//
// RequestID sits above Logging so the request_id is available in log
// attributes; CORS sits above RateLimit so preflight OPTIONS requests
// get proper headers even when a client is throttled.
package api

import (
	"errors"
	"net/http"

	"github.com/tellerbot/teller/internal/log"
	"github.com/tellerbot/teller/internal/monitoring"
	"github.com/tellerbot/teller/internal/session"
)

// ServerConfig contains configuration for creating the API server.
type ServerConfig struct {
	Logger         log.Logger
	Runner         Runner
	Sessions       session.Service
	Collector      *monitoring.Collector
	Perf           *monitoring.PerformanceTracker
	Alerts         *monitoring.AlertManager
	Analytics      *monitoring.Analytics
	AppName        string
	SessionBackend string
	WelcomeMessage string
	CORSOrigins    []string
	TrustProxy     bool // Trust X-Real-IP/X-Forwarded-For (behind a reverse proxy)
	RateBurst      int  // Per-IP burst size (0 = default 60)
}

// Server is the HTTP server for chat, sessions, metrics, and the UI.
type Server struct {
	mux http.Handler
}

// NewServer creates an API server with all routes configured.
func NewServer(cfg ServerConfig) (*Server, error) {
	if cfg.Runner == nil {
		return nil, errors.New("runner is required")
	}
	if cfg.Sessions == nil {
		return nil, errors.New("session service is required")
	}
	logger := cfg.Logger
	if logger == nil {
		logger = log.NewNop()
	}

	chat := &chatHandler{runner: cfg.Runner, logger: logger}
	sessions := &sessionHandler{sessions: cfg.Sessions, logger: logger}
	ws := &wsHandler{
		runner:         cfg.Runner,
		sessions:       cfg.Sessions,
		welcomeMessage: cfg.WelcomeMessage,
		logger:         logger.With("component", "api.ws"),
	}
	pages := &pagesHandler{
		sessions:       cfg.Sessions,
		welcomeMessage: cfg.WelcomeMessage,
		logger:         logger,
	}

	mux := http.NewServeMux()

	mux.HandleFunc("GET /{$}", index(logger))
	mux.HandleFunc("GET /ui", pages.chat)

	mux.HandleFunc("POST /api/chat", chat.send)

	mux.HandleFunc("POST /api/sessions", sessions.create)
	mux.HandleFunc("GET /api/sessions/{user_id}", sessions.list)
	mux.HandleFunc("GET /api/sessions/{user_id}/{session_id}", sessions.get)
	mux.HandleFunc("PUT /api/sessions/{user_id}/{session_id}", sessions.update)
	mux.HandleFunc("DELETE /api/sessions/{user_id}/{session_id}", sessions.delete)

	if cfg.Collector != nil {
		metrics := &metricsHandler{
			collector: cfg.Collector,
			perf:      cfg.Perf,
			alerts:    cfg.Alerts,
			analytics: cfg.Analytics,
			sessions:  cfg.Sessions,
			logger:    logger,
		}
		mux.HandleFunc("GET /api/metrics", metrics.get)
	}

	mux.HandleFunc("GET /ws/{user_id}/{session_id}", ws.serve)

	burst := cfg.RateBurst
	if burst <= 0 {
		burst = 60
	}
	rl := newRateLimiter(1.0, burst)

	handler := chain(mux,
		recoveryMiddleware(logger),
		requestIDMiddleware(),
		loggingMiddleware(logger),
		corsMiddleware(cfg.CORSOrigins),
		rateLimitMiddleware(rl, cfg.TrustProxy, logger),
	)

	// Health probes bypass the middleware stack so rate limiting can
	// never fail a liveness check.
	health := &healthHandler{
		appName:        cfg.AppName,
		sessionBackend: cfg.SessionBackend,
		logger:         logger,
	}
	topMux := http.NewServeMux()
	topMux.HandleFunc("GET /health", health.get)
	topMux.Handle("/", handler)

	return &Server{mux: topMux}, nil
}

// Handler returns the server as an http.Handler.
func (s *Server) Handler() http.Handler {
	return s.mux
}

// index describes the API at the root path.
func index(logger log.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{
			"name":    "Banking Assistant API",
			"version": "1.0.0",
			"status":  "active",
			"endpoints": map[string]string{
				"POST /api/chat":                              "Send a message to the banking assistant",
				"POST /api/sessions":                          "Create a new session",
				"GET /api/sessions/{user_id}":                 "List user sessions",
				"GET /api/sessions/{user_id}/{session_id}":    "Get session info",
				"PUT /api/sessions/{user_id}/{session_id}":    "Update session state",
				"DELETE /api/sessions/{user_id}/{session_id}": "Delete a session",
				"GET /api/metrics":                            "Operational metrics snapshot",
				"GET /ws/{user_id}/{session_id}":              "WebSocket chat",
				"GET /ui":                                     "Web interface",
			},
		}, logger)
	}
}
