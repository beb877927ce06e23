// ------------------------------------------------------
// FuzzKit - REST API Server
// Scoring API for automation and tool chaining
// ------------------------------------------------------

package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"
	"golang.org/x/net/http2"

	"github.com/fuzzkit/fuzzkit/pkg/config"
	"github.com/fuzzkit/fuzzkit/pkg/fuzz"
	"github.com/fuzzkit/fuzzkit/pkg/matcher"
)

// Server represents the API server.
type Server struct {
	cfg       *config.Config
	matcher   *matcher.Matcher
	limiter   *RateLimiter
	server    *http.Server
	startTime time.Time
}

// RankRequest represents a ranking request.
type RankRequest struct {
	Needle     string   `json:"needle"`
	Candidates []string `json:"candidates"`
	Limit      int      `json:"limit,omitempty"`
}

// RankResponse represents a ranking response.
type RankResponse struct {
	Success bool            `json:"success"`
	Report  *matcher.Report `json:"report,omitempty"`
}

// DistanceResponse represents a stateless distance response.
type DistanceResponse struct {
	A        string  `json:"a"`
	B        string  `json:"b"`
	Distance float64 `json:"distance"`
}

// ErrorResponse represents an error response.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// NewServer creates a new API server from cfg.
// Returns an error if the configured algorithm is unknown.
func NewServer(cfg *config.Config) (*Server, error) {
	m, err := matcher.NewMatcher(cfg)
	if err != nil {
		return nil, fmt.Errorf("initialise matcher: %w", err)
	}

	return &Server{
		cfg:       cfg,
		matcher:   m,
		limiter:   NewRateLimiter(cfg.RateLimit, cfg.RateLimitBurst),
		startTime: time.Now(),
	}, nil
}

// Handler builds the request router with all middleware attached.
func (s *Server) Handler() http.Handler {
	router := mux.NewRouter()

	api := router.PathPrefix("/api/v1").Subrouter()
	api.HandleFunc("/rank", s.handleRank).Methods(http.MethodPost)
	api.HandleFunc("/distance", s.handleDistance).Methods(http.MethodGet)
	api.HandleFunc("/status", s.handleStatus).Methods(http.MethodGet)
	api.HandleFunc("/health", s.handleHealth).Methods(http.MethodGet)

	router.Use(s.loggingMiddleware)
	router.Use(s.authMiddleware)
	router.Use(s.rateLimitMiddleware)

	return router
}

// Start starts the API server on the given port and blocks until the
// server stops.
func (s *Server) Start(port int) error {
	s.server = &http.Server{
		Addr:         fmt.Sprintf(":%d", port),
		Handler:      s.Handler(),
		ReadTimeout:  s.cfg.ReadTimeout,
		WriteTimeout: s.cfg.WriteTimeout,
		IdleTimeout:  config.DefaultIdleTimeout,
	}

	if err := http2.ConfigureServer(s.server, &http2.Server{}); err != nil {
		return fmt.Errorf("configure HTTP/2: %w", err)
	}

	return s.server.ListenAndServe()
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.server != nil {
		return s.server.Shutdown(ctx)
	}
	return nil
}

// handleRank ranks a needle against a candidate pool.
func (s *Server) handleRank(w http.ResponseWriter, r *http.Request) {
	var req RankRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.sendError(w, http.StatusBadRequest, "Invalid request body", err.Error())
		return
	}

	if len(req.Candidates) == 0 {
		s.sendError(w, http.StatusBadRequest, "No candidates provided", "At least one candidate is required")
		return
	}

	limit := req.Limit
	if limit <= 0 {
		limit = s.cfg.Limit
	}

	ctx, cancel := context.WithTimeout(r.Context(), time.Minute)
	defer cancel()

	report, err := s.matcher.Rank(ctx, req.Needle, req.Candidates, limit)
	if err != nil {
		s.sendError(w, http.StatusServiceUnavailable, "Ranking failed", err.Error())
		return
	}

	s.sendJSON(w, http.StatusOK, RankResponse{
		Success: true,
		Report:  report,
	})
}

// handleDistance computes the stateless normalized distance between the
// a and b query parameters. Empty strings are valid inputs, so only
// missing parameters are rejected.
func (s *Server) handleDistance(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	if !query.Has("a") || !query.Has("b") {
		s.sendError(w, http.StatusBadRequest, "Missing parameters", "Both a and b query parameters are required")
		return
	}

	a := query.Get("a")
	b := query.Get("b")

	s.sendJSON(w, http.StatusOK, DistanceResponse{
		A:        a,
		B:        b,
		Distance: fuzz.NormalizedDistance(a, b),
	})
}

// handleStatus reports version and runtime statistics.
func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	s.sendJSON(w, http.StatusOK, map[string]interface{}{
		"success":    true,
		"version":    config.Version,
		"build":      config.BuildDate,
		"algorithm":  s.matcher.Algorithm(),
		"uptime":     time.Since(s.startTime).String(),
		"statistics": s.matcher.GetStats(),
		"cache_len":  s.matcher.CacheLen(),
		"lifecycle":  fuzz.GetStats(),
	})
}

// handleHealth handles health check requests.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.sendJSON(w, http.StatusOK, map[string]interface{}{
		"status": "healthy",
		"time":   time.Now().Format(time.RFC3339),
	})
}

// loggingMiddleware logs all requests.
func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		// Wrap response writer to capture the status code.
		wrapped := &responseWriter{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(wrapped, r)

		log.WithFields(log.Fields{
			"method":   r.Method,
			"path":     r.URL.Path,
			"status":   wrapped.status,
			"duration": time.Since(start),
		}).Info("api request")
	})
}

// authMiddleware handles API authentication.
func (s *Server) authMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Skip auth for the health endpoint.
		if r.URL.Path == "/api/v1/health" {
			next.ServeHTTP(w, r)
			return
		}

		if s.cfg.APIKey != "" {
			apiKey := r.Header.Get("X-API-Key")
			if apiKey != s.cfg.APIKey {
				s.sendError(w, http.StatusUnauthorized, "Unauthorized", "Invalid API key")
				return
			}
		}

		next.ServeHTTP(w, r)
	})
}

// rateLimitMiddleware rejects requests over the configured budget.
func (s *Server) rateLimitMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !s.limiter.Allow() {
			s.sendError(w, http.StatusTooManyRequests, "Rate limited", "Request budget exceeded, retry later")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// sendJSON sends a JSON response.
func (s *Server) sendJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Errorf("encode response: %v", err)
	}
}

// sendError sends an error response.
func (s *Server) sendError(w http.ResponseWriter, status int, errText, message string) {
	s.sendJSON(w, status, ErrorResponse{
		Error:   errText,
		Message: message,
	})
}

// responseWriter wraps http.ResponseWriter to capture the status code.
type responseWriter struct {
	http.ResponseWriter
	status int
}

func (rw *responseWriter) WriteHeader(status int) {
	rw.status = status
	rw.ResponseWriter.WriteHeader(status)
}
