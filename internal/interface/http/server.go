// Package http exposes the report views, manual refreshes and form
// submissions over a small JSON API, plus health and job endpoints.
package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/halaqat-hub/halaqat-reports/internal/application/aggregation"
	"github.com/halaqat-hub/halaqat-reports/internal/application/sheetsync"
	"github.com/halaqat-hub/halaqat-reports/internal/domain/report"
	"github.com/halaqat-hub/halaqat-reports/internal/domain/sheet"
	"github.com/halaqat-hub/halaqat-reports/internal/infrastructure/scheduler"
	"github.com/halaqat-hub/halaqat-reports/internal/interface/http/handlers"
)

// ══════════════════════════════════════════════════════════════════════════════
// SERVER CONFIGURATION
// ══════════════════════════════════════════════════════════════════════════════

// Config contains HTTP server configuration.
type Config struct {
	Host string
	Port int

	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration

	// MaxHeaderBytes - maximum size of request headers.
	MaxHeaderBytes int

	// MaxBodyBytes - maximum size of submission bodies.
	MaxBodyBytes int64

	// AllowedOrigins - allowed origins for CORS.
	AllowedOrigins []string

	// Version is reported by the root and health endpoints.
	Version string
}

// DefaultConfig returns default server configuration.
func DefaultConfig() Config {
	return Config{
		Host:           "0.0.0.0",
		Port:           8080,
		ReadTimeout:    10 * time.Second,
		WriteTimeout:   60 * time.Second,
		IdleTimeout:    120 * time.Second,
		MaxHeaderBytes: 1 << 20,
		MaxBodyBytes:   1 << 20,
		AllowedOrigins: []string{"*"},
		Version:        "v1",
	}
}

// Address returns the server address string.
func (c Config) Address() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// ══════════════════════════════════════════════════════════════════════════════
// DEPENDENCIES
// ══════════════════════════════════════════════════════════════════════════════

// PageService is the part of the sync orchestrator the API drives.
type PageService interface {
	Load(ctx context.Context, req aggregation.Request, onRefresh func(sheetsync.Outcome)) (aggregation.View, error)
	Refresh(ctx context.Context, req aggregation.Request) (sheetsync.Outcome, error)
	Tag(ctx context.Context, page report.Page) (string, error)
	Submit(ctx context.Context, name sheet.Name, row sheet.Row, page report.Page) (sheetsync.Outcome, error)
	SubmitForm(ctx context.Context, sub sheetsync.Submission) (sheetsync.Outcome, error)
}

// JobRunner lists and triggers background jobs.
type JobRunner interface {
	ListJobs() []scheduler.JobInfo
	RunNow(ctx context.Context, jobName string) (scheduler.JobResult, error)
}

// Dependencies contains all dependencies required by HTTP handlers.
type Dependencies struct {
	Pages  PageService
	Jobs   JobRunner
	Health handlers.HealthChecker
	Logger *slog.Logger

	// Clock stamps form submissions that carry no time of their own.
	Clock func() time.Time
}

// ══════════════════════════════════════════════════════════════════════════════
// SERVER
// ══════════════════════════════════════════════════════════════════════════════

// Server represents the HTTP server.
type Server struct {
	config     Config
	deps       Dependencies
	httpServer *http.Server
	router     *http.ServeMux
	handler    http.Handler
	logger     *slog.Logger

	mu        sync.RWMutex
	running   bool
	startedAt time.Time
}

// NewServer creates a new HTTP server with the given configuration and dependencies.
func NewServer(config Config, deps Dependencies) *Server {
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	if deps.Clock == nil {
		deps.Clock = time.Now
	}
	if config.MaxBodyBytes <= 0 {
		config.MaxBodyBytes = 1 << 20
	}

	s := &Server{
		config: config,
		deps:   deps,
		router: http.NewServeMux(),
		logger: deps.Logger.With(slog.String("component", "http")),
	}

	s.setupRoutes()
	s.handler = s.buildMiddlewareChain(s.router)

	s.httpServer = &http.Server{
		Addr:           config.Address(),
		Handler:        s.handler,
		ReadTimeout:    config.ReadTimeout,
		WriteTimeout:   config.WriteTimeout,
		IdleTimeout:    config.IdleTimeout,
		MaxHeaderBytes: config.MaxHeaderBytes,
	}

	return s
}

// Handler returns the fully wrapped handler, for tests and embedding.
func (s *Server) Handler() http.Handler {
	return s.handler
}

// ══════════════════════════════════════════════════════════════════════════════
// ROUTING
// ══════════════════════════════════════════════════════════════════════════════

func (s *Server) setupRoutes() {
	// ─────────────────────────────────────────────────────────────────────────
	// Health & Status
	// ─────────────────────────────────────────────────────────────────────────
	s.router.HandleFunc("GET /health", s.handleHealth)
	s.router.HandleFunc("GET /healthz", s.handleHealth)
	s.router.HandleFunc("GET /ready", s.handleReady)
	s.router.HandleFunc("GET /live", s.handleLive)
	s.router.HandleFunc("GET /{$}", s.handleRoot)

	// ─────────────────────────────────────────────────────────────────────────
	// Pages
	// ─────────────────────────────────────────────────────────────────────────
	s.router.HandleFunc("GET /api/v1/pages", s.handleListPages)
	s.router.HandleFunc("GET /api/v1/pages/{page}", s.handleGetPage)
	s.router.HandleFunc("POST /api/v1/pages/{page}/refresh", s.handleRefreshPage)

	// ─────────────────────────────────────────────────────────────────────────
	// Writes
	// ─────────────────────────────────────────────────────────────────────────
	s.router.HandleFunc("POST /api/v1/sheets/{sheet}/rows", s.handleAppendRow)
	s.router.HandleFunc("POST /api/v1/forms/teacher-attendance", s.handleTeacherAttendance)
	s.router.HandleFunc("POST /api/v1/forms/supervisor-attendance", s.handleSupervisorAttendance)
	s.router.HandleFunc("POST /api/v1/forms/evaluation", s.handleEvaluation)
	s.router.HandleFunc("POST /api/v1/forms/exam-grade", s.handleExamGrade)
	s.router.HandleFunc("POST /api/v1/forms/settings", s.handleSettings)

	// ─────────────────────────────────────────────────────────────────────────
	// Jobs
	// ─────────────────────────────────────────────────────────────────────────
	s.router.HandleFunc("GET /api/v1/jobs", s.handleListJobs)
	s.router.HandleFunc("POST /api/v1/jobs/{name}/run", s.handleRunJob)
}

// buildMiddlewareChain wraps the router with all middleware.
func (s *Server) buildMiddlewareChain(h http.Handler) http.Handler {
	return handlers.Chain(
		handlers.RequestID(s.logger),
		handlers.Logging,
		handlers.Recovery,
		handlers.CORS(s.config.AllowedOrigins),
		handlers.SecurityHeaders,
		handlers.RequestSizeLimit(s.config.MaxBodyBytes),
	)(h)
}

// ══════════════════════════════════════════════════════════════════════════════
// SERVER LIFECYCLE
// ══════════════════════════════════════════════════════════════════════════════

// Start starts the HTTP server and blocks until it stops.
func (s *Server) Start() error {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return errors.New("server already running")
	}
	s.running = true
	s.startedAt = time.Now()
	s.mu.Unlock()

	s.logger.Info("starting HTTP server", slog.String("address", s.config.Address()))

	err := s.httpServer.ListenAndServe()
	if err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("server error: %w", err)
	}
	return nil
}

// StartAsync starts the server in a goroutine.
func (s *Server) StartAsync() <-chan error {
	errCh := make(chan error, 1)
	go func() {
		if err := s.Start(); err != nil {
			errCh <- err
		}
		close(errCh)
	}()
	return errCh
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return nil
	}
	s.running = false
	s.mu.Unlock()

	s.logger.Info("shutting down HTTP server")
	return s.httpServer.Shutdown(ctx)
}

// Uptime returns the server uptime.
func (s *Server) Uptime() time.Duration {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.running {
		return 0
	}
	return time.Since(s.startedAt)
}

// ══════════════════════════════════════════════════════════════════════════════
// RESPONSE HELPERS
// ══════════════════════════════════════════════════════════════════════════════

// JSONResponse is the envelope of every API response.
type JSONResponse struct {
	Success   bool          `json:"success"`
	Data      any           `json:"data,omitempty"`
	Error     *APIError     `json:"error,omitempty"`
	Notice    *NoticeBody   `json:"notice,omitempty"`
	Meta      *ResponseMeta `json:"meta,omitempty"`
	RequestID string        `json:"request_id,omitempty"`
}

// APIError represents an API error.
type APIError struct {
	Code    string            `json:"code"`
	Message string            `json:"message"`
	Fields  map[string]string `json:"fields,omitempty"`
}

// NoticeBody is the user-facing message that accompanies a sync or write.
type NoticeBody struct {
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

// ResponseMeta contains response metadata.
type ResponseMeta struct {
	Timestamp time.Time `json:"timestamp"`
	Version   string    `json:"version,omitempty"`
	ETag      string    `json:"etag,omitempty"`
}

func (s *Server) writeJSON(w http.ResponseWriter, r *http.Request, status int, data any, notice *NoticeBody) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)

	response := JSONResponse{
		Success:   status >= 200 && status < 300,
		Data:      data,
		Notice:    notice,
		RequestID: handlers.GetRequestID(r.Context()),
		Meta: &ResponseMeta{
			Timestamp: time.Now().UTC(),
			Version:   s.config.Version,
			ETag:      w.Header().Get("ETag"),
		},
	}
	if err := json.NewEncoder(w).Encode(response); err != nil {
		s.logger.Warn("failed to encode response", slog.String("error", err.Error()))
	}
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, status int, apiErr APIError) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)

	response := JSONResponse{
		Success:   false,
		Error:     &apiErr,
		RequestID: handlers.GetRequestID(r.Context()),
		Meta:      &ResponseMeta{Timestamp: time.Now().UTC(), Version: s.config.Version},
	}
	_ = json.NewEncoder(w).Encode(response)
}
