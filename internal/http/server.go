// Package http serves the JSON API over the presentation state holder.
package http

import (
	"context"
	"net/http"
	"time"

	applog "fintrack/internal/log"
	"fintrack/internal/metrics"
	"fintrack/internal/state"
)

// Readiness reports whether the backing store can serve requests.
type Readiness interface {
	Ready(ctx context.Context) error
}

type Options struct {
	Addr               string
	RateLimitPerMinute int
	Logger             *applog.Logger
	Metrics            *metrics.Metrics
}

type Server struct {
	http.Server
	holder      *state.Holder
	ready       Readiness
	metrics     *metrics.Metrics
	logger      *applog.Logger
	access      *applog.StructuredLogger
	rateLimiter *rateLimiter
}

func NewServer(holder *state.Holder, ready Readiness, opts Options) *Server {
	logger := opts.Logger
	if logger == nil {
		logger = applog.New(applog.DefaultConfig())
	}
	logger = logger.WithComponent(applog.ComponentHTTP)

	s := &Server{
		holder:      holder,
		ready:       ready,
		metrics:     opts.Metrics,
		logger:      logger,
		access:      applog.NewStructuredLogger(logger),
		rateLimiter: newRateLimiter(opts.RateLimitPerMinute),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)
	mux.Handle("GET /metrics", s.metrics.Handler())

	mux.HandleFunc("GET /api/snapshot", s.handleSnapshot)
	mux.HandleFunc("PUT /api/view", s.handleSetView)
	mux.HandleFunc("GET /api/operations", s.handleListOperations)
	mux.HandleFunc("POST /api/operations", s.handleCreateOperation)
	mux.HandleFunc("PUT /api/operations/{kind}/{id}", s.handleUpdateOperation)
	mux.HandleFunc("DELETE /api/operations/{kind}/{id}", s.handleDeleteOperation)
	mux.HandleFunc("GET /api/categories", s.handleListCategories)
	mux.HandleFunc("POST /api/categories", s.handleCreateCategory)
	mux.HandleFunc("DELETE /api/categories/{kind}/{name}", s.handleDeleteCategory)

	var handler http.Handler = mux
	handler = s.withRateLimit(handler)
	handler = s.withObservability(handler)
	handler = withSecurityHeaders(handler)
	handler = applog.RequestIDMiddleware(func(r *http.Request) string {
		return RequestIDFromContext(r.Context())
	})(handler)
	handler = applog.Middleware(logger)(handler)
	handler = withRequestID(handler)

	s.Server = http.Server{
		Addr:              opts.Addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	return s
}

// Shutdown stops background work and gracefully drains connections.
func (s *Server) Shutdown(ctx context.Context) error {
	s.rateLimiter.stop()
	return s.Server.Shutdown(ctx)
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if err := s.ready.Ready(r.Context()); err != nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable", "error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}
