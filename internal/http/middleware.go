package http

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	applog "fintrack/internal/log"
)

type contextKey string

const requestIDKey contextKey = "request_id"

const requestIDHeader = "X-Request-ID"

// RequestIDFromContext returns the id assigned by withRequestID.
func RequestIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey).(string)
	return id
}

// withRequestID keeps a well-formed incoming X-Request-ID or assigns a new
// UUID, and echoes it on the response.
func withRequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := strings.TrimSpace(r.Header.Get(requestIDHeader))
		if _, err := uuid.Parse(id); err != nil {
			id = uuid.NewString()
		}
		w.Header().Set(requestIDHeader, id)
		ctx := context.WithValue(r.Context(), requestIDKey, id)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func withSecurityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h := w.Header()
		h.Set("X-Content-Type-Options", "nosniff")
		h.Set("X-Frame-Options", "DENY")
		h.Set("Content-Security-Policy", "default-src 'none'; frame-ancestors 'none'")
		h.Set("Referrer-Policy", "no-referrer")
		h.Set("Cache-Control", "no-store")

		if isSuspiciousRequest(r) {
			applog.FromContext(r.Context()).WarnContext(r.Context(), "Suspicious request",
				applog.FieldClientIP, extractClientIP(r),
				applog.FieldMethod, r.Method,
				applog.FieldPath, r.URL.Path)
		}
		next.ServeHTTP(w, r)
	})
}

// responseWriter captures the status code.
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// withObservability logs each request and counts it by route pattern. The
// request is passed on unchanged so the mux-assigned pattern is visible here
// afterwards.
func (s *Server) withObservability(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}

		next.ServeHTTP(rw, r)

		route := r.Pattern
		if route == "" {
			route = "unmatched"
		}
		s.metrics.ObserveHTTP(r.Method, route, rw.statusCode)
		s.access.LogHTTPEnd(r.Context(), r, rw.statusCode, time.Since(start).Milliseconds(), extractClientIP(r))
	})
}

// withRateLimit limits mutating requests per client IP.
func (s *Server) withRateLimit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodPost, http.MethodPut, http.MethodDelete:
			clientIP := extractClientIP(r)
			if !s.rateLimiter.allow(clientIP, time.Now()) {
				applog.FromContext(r.Context()).WithComponent(applog.ComponentRateLimit).WarnContext(r.Context(), "Rate limit exceeded",
					applog.FieldClientIP, clientIP,
					applog.FieldMethod, r.Method,
					applog.FieldPath, r.URL.Path)
				w.Header().Set("Retry-After", "60")
				writeJSON(w, http.StatusTooManyRequests, errorBody{Error: "rate limit exceeded", Reason: "rate_limited"})
				return
			}
		}
		next.ServeHTTP(w, r)
	})
}
