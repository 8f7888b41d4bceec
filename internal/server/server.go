// Package server provides the HTTP REST API and event stream over an editing session.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/jonathan/resume-editor/internal/editor"
	"github.com/jonathan/resume-editor/internal/server/middleware"
	"github.com/jonathan/resume-editor/internal/server/ratelimit"
)

// maxBodyBytes bounds request bodies, imports included.
const maxBodyBytes = 2 << 20

var validate = validator.New()

// Server represents the HTTP server
type Server struct {
	httpServer  *http.Server
	session     *editor.Session
	rateLimiter *ratelimit.Limiter
	logger      *zap.Logger
	heartbeat   time.Duration
}

// Config holds server configuration
type Config struct {
	Port int
	// RateLimit defaults to ratelimit.LoadConfig().
	RateLimit *ratelimit.Config
	Logger    *zap.Logger
	// Heartbeat is the interval of keep-alive comments on the event stream.
	Heartbeat time.Duration
}

// New creates a new server instance serving session.
func New(cfg Config, session *editor.Session) *Server {
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	rlConfig := cfg.RateLimit
	if rlConfig == nil {
		rlConfig = ratelimit.LoadConfig()
	}
	heartbeat := cfg.Heartbeat
	if heartbeat <= 0 {
		heartbeat = 15 * time.Second
	}

	s := &Server{
		session:     session,
		rateLimiter: ratelimit.NewLimiter(rlConfig),
		logger:      logger,
		heartbeat:   heartbeat,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", s.handleHealth)

	// Document
	mux.HandleFunc("GET /document", s.handleGetDocument)
	mux.HandleFunc("PUT /document/fields", s.handleUpdateField)
	mux.HandleFunc("POST /document/entries/{section}", s.handleAddEntry)
	mux.HandleFunc("DELETE /document/entries/{section}/{id}", s.handleRemoveEntry)
	mux.HandleFunc("POST /document/skills", s.handleAddSkill)
	mux.HandleFunc("DELETE /document/skills/{skill}", s.handleRemoveSkill)
	mux.HandleFunc("POST /document/sections/{id}/toggle", s.handleToggleSection)
	mux.HandleFunc("POST /document/sections/move", s.handleMoveSection)
	mux.HandleFunc("POST /document/custom-sections", s.handleAddCustomSection)
	mux.HandleFunc("PUT /document/custom-sections/{id}", s.handleUpdateCustomSection)
	mux.HandleFunc("DELETE /document/custom-sections/{id}", s.handleDeleteCustomSection)
	mux.HandleFunc("POST /document/custom-fields", s.handleAddCustomField)
	mux.HandleFunc("PUT /document/custom-fields/{id}", s.handleUpdateCustomField)
	mux.HandleFunc("DELETE /document/custom-fields/{id}", s.handleRemoveCustomField)

	// History
	mux.HandleFunc("GET /history", s.handleHistory)
	mux.HandleFunc("POST /history/undo", s.handleUndo)
	mux.HandleFunc("POST /history/redo", s.handleRedo)

	// Versions
	mux.HandleFunc("GET /versions", s.handleListVersions)
	mux.HandleFunc("POST /versions", s.handleCreateVersion)
	mux.HandleFunc("GET /versions/{id}", s.handleGetVersion)
	mux.HandleFunc("DELETE /versions/{id}", s.handleDeleteVersion)
	mux.HandleFunc("POST /versions/{id}/activate", s.handleActivateVersion)
	mux.HandleFunc("GET /versions/{id}/lineage", s.handleLineage)

	// Generation and job matching
	mux.HandleFunc("POST /generations", s.handleGenerate)
	mux.HandleFunc("POST /match", s.handleMatch)
	mux.HandleFunc("POST /match/apply", s.handleApplyRecommendation)

	// Import/export and events
	mux.HandleFunc("POST /import", s.handleImport)
	mux.HandleFunc("GET /export", s.handleExport)
	mux.HandleFunc("GET /events", s.handleEvents)

	s.httpServer = &http.Server{
		Addr: fmt.Sprintf(":%d", cfg.Port),
		Handler: middleware.Chain(mux,
			middleware.RequestID,
			middleware.Logging(logger),
			s.withRateLimit,
			middleware.CORS,
		),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second, // the event stream clears its own deadline
		IdleTimeout:  60 * time.Second,
	}

	return s
}

// Handler returns the fully wrapped HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// Start serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Start(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("server starting", zap.String("addr", s.httpServer.Addr))
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		s.rateLimiter.Stop()
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	s.logger.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 30*time.Second)
	defer cancel()

	err := s.httpServer.Shutdown(shutdownCtx)
	s.rateLimiter.Stop()
	if err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}
	s.logger.Info("server stopped")
	return nil
}

// withRateLimit adds rate limiting middleware
func (s *Server) withRateLimit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		allowed, info := s.rateLimiter.Allow(s.extractClientID(r), r.URL.Path, r.Method)
		s.setRateLimitHeaders(w, info)
		if !allowed {
			s.rateLimitResponse(w, r, info)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// handleHealth returns server health status
func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	s.jsonResponse(w, http.StatusOK, map[string]string{"status": "ok"})
}

// jsonResponse writes a JSON response
func (s *Server) jsonResponse(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.logger.Warn("failed to encode JSON response", zap.Error(err))
	}
}

// errorResponse writes an error JSON response
func (s *Server) errorResponse(w http.ResponseWriter, status int, message string) {
	s.jsonResponse(w, status, ErrorResponse{Error: message})
}

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Error   string         `json:"error"`
	Details []FieldProblem `json:"details,omitempty"`
}

// writeError maps err to a status code and writes it.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := HTTPStatus(err)
	if status >= http.StatusInternalServerError {
		s.logger.Error("request failed",
			zap.String("path", r.URL.Path),
			zap.String("request_id", middleware.GetRequestID(r)),
			zap.Error(err))
	}
	s.jsonResponse(w, status, ErrorResponse{Error: err.Error(), Details: errorDetails(err)})
}

// decodeBody reads a JSON body into dst and validates it.
func (s *Server) decodeBody(w http.ResponseWriter, r *http.Request, dst any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		s.writeError(w, r, &ErrValidation{Field: "body", Message: err.Error()})
		return false
	}
	if err := validate.Struct(dst); err != nil {
		s.writeError(w, r, err)
		return false
	}
	return true
}

// extractClientID extracts the client identifier from the request.
// This uses the IP address from RemoteAddr; X-Forwarded-For is not trusted.
func (s *Server) extractClientID(r *http.Request) string {
	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return ip
}

// setRateLimitHeaders sets standard rate limit headers on the response.
func (s *Server) setRateLimitHeaders(w http.ResponseWriter, info ratelimit.Info) {
	if info.Limit > 0 {
		w.Header().Set("X-RateLimit-Limit", strconv.Itoa(info.Limit))
		w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(info.Remaining))
		w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(info.ResetTime.Unix(), 10))
	}
}

// rateLimitResponse writes a 429 Too Many Requests response with rate limit information.
func (s *Server) rateLimitResponse(w http.ResponseWriter, r *http.Request, info ratelimit.Info) {
	response := map[string]any{
		"error":     "rate_limit_exceeded",
		"message":   "Rate limit exceeded. Please try again later.",
		"limit":     info.Limit,
		"remaining": info.Remaining,
		"reset_at":  info.ResetTime.Format(time.RFC3339),
	}

	if info.RetryAfter > 0 {
		seconds := int(info.RetryAfter.Seconds()) + 1
		response["retry_after"] = seconds
		w.Header().Set("Retry-After", strconv.Itoa(seconds))
	}

	s.logger.Info("rate limit exceeded",
		zap.String("client", s.extractClientID(r)),
		zap.String("path", r.URL.Path),
		zap.Int("limit", info.Limit))

	s.jsonResponse(w, http.StatusTooManyRequests, response)
}
