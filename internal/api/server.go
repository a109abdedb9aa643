// Package api exposes the chat service and session store over a JSON HTTP
// API. Routing uses net/http method patterns; cross-cutting concerns are
// small middleware closures stacked in NewServer.
package api

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/aadhi-11/careerguide/internal/chat"
	"github.com/aadhi-11/careerguide/internal/session"
)

// ServerConfig contains configuration for creating the API server.
type ServerConfig struct {
	Logger       *slog.Logger
	ChatService  *chat.Service // Required
	SessionStore session.Store // Required
	Pool         *pgxpool.Pool // Optional: nil skips the DB ping in /ready
	CORSOrigins  []string      // Allowed origins for CORS
	TrustProxy   bool          // Trust X-Real-IP/X-Forwarded-For (behind reverse proxy)
	RateBurst    int           // Rate limiter burst size per IP (0 = default 60)
}

// Server is the JSON API HTTP server.
type Server struct {
	mux *http.ServeMux
}

// NewServer creates an API server with all routes configured.
func NewServer(cfg ServerConfig) (*Server, error) {
	if cfg.SessionStore == nil {
		return nil, errors.New("session store is required")
	}
	if cfg.ChatService == nil {
		return nil, errors.New("chat service is required")
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	sh := &sessionHandler{store: cfg.SessionStore, logger: logger}
	ch := &chatHandler{service: cfg.ChatService, logger: logger}
	hh := &healthHandler{pool: cfg.Pool, logger: logger}

	mux := http.NewServeMux()

	// Session CRUD
	mux.HandleFunc("GET /api/v1/sessions", sh.list)
	mux.HandleFunc("POST /api/v1/sessions", sh.create)
	mux.HandleFunc("GET /api/v1/sessions/{id}", sh.get)
	mux.HandleFunc("GET /api/v1/sessions/{id}/messages", sh.messages)
	mux.HandleFunc("POST /api/v1/sessions/{id}/messages", sh.appendMessage)
	mux.HandleFunc("PATCH /api/v1/sessions/{id}", sh.update)
	mux.HandleFunc("DELETE /api/v1/sessions/{id}", sh.delete)

	// Chat
	mux.HandleFunc("POST /api/v1/chat", ch.send)

	// Rate limiter: per-IP token bucket (1 token/sec refill)
	burst := cfg.RateBurst
	if burst <= 0 {
		burst = 60
	}
	rl := newRateLimiter(1.0, burst)

	// Build middleware stack (outermost first):
	//   Recovery → RequestID → Logging → CORS → RateLimit → Routes
	// RequestID must be before Logging so request_id is available in log
	// attributes. CORS must be before RateLimit so preflight OPTIONS gets
	// proper CORS headers.
	var handler http.Handler = mux
	handler = rateLimitMiddleware(rl, cfg.TrustProxy, logger)(handler)
	handler = corsMiddleware(cfg.CORSOrigins)(handler)
	handler = loggingMiddleware(logger)(handler)
	handler = requestIDMiddleware()(handler)
	handler = recoveryMiddleware(logger)(handler)

	// Top-level mux keeps health probes outside the middleware stack.
	topMux := http.NewServeMux()
	topMux.HandleFunc("GET /health", hh.liveness)
	topMux.HandleFunc("GET /ready", hh.readiness)
	topMux.Handle("/", handler)

	return &Server{mux: topMux}, nil
}

// Handler returns the server as an http.Handler.
func (s *Server) Handler() http.Handler {
	return s.mux
}
