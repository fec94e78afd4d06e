// Package http implements the REST API of the lesson catalog.
package http

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/alem-hub/lesson-catalog/internal/application/command"
	"github.com/alem-hub/lesson-catalog/internal/domain/lesson"
	"github.com/alem-hub/lesson-catalog/internal/interface/http/handlers"
	"github.com/alem-hub/lesson-catalog/pkg/logger"
)

// ══════════════════════════════════════════════════════════════════════════════
// SERVER CONFIGURATION
// ══════════════════════════════════════════════════════════════════════════════

// Config contains HTTP server configuration.
type Config struct {
	// Host - address to bind (default: "0.0.0.0").
	Host string

	// Port - port to listen on (default: 8080).
	Port int

	// ReadTimeout - maximum duration for reading the entire request.
	ReadTimeout time.Duration

	// WriteTimeout - maximum duration for writing the response.
	WriteTimeout time.Duration

	// IdleTimeout - maximum duration for idle connections.
	IdleTimeout time.Duration

	// MaxHeaderBytes - maximum size of request headers.
	MaxHeaderBytes int

	// AllowedOrigins - allowed origins for CORS (empty disables CORS).
	AllowedOrigins []string

	// AdminKeyHash - bcrypt hash of the admin key. Admin routes are not
	// mounted when empty.
	AdminKeyHash string

	// CacheMaxAge - max-age for GET responses.
	CacheMaxAge time.Duration
}

// DefaultConfig returns default server configuration.
func DefaultConfig() Config {
	return Config{
		Host:           "0.0.0.0",
		Port:           8080,
		ReadTimeout:    10 * time.Second,
		WriteTimeout:   15 * time.Second,
		IdleTimeout:    60 * time.Second,
		MaxHeaderBytes: 1 << 20, // 1 MB
		CacheMaxAge:    5 * time.Minute,
	}
}

// Address returns the server address string.
func (c Config) Address() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// ══════════════════════════════════════════════════════════════════════════════
// DEPENDENCIES
// ══════════════════════════════════════════════════════════════════════════════

// Dependencies contains everything the HTTP handlers need.
type Dependencies struct {
	// Manifest is the catalog served by the read API.
	Manifest *lesson.Manifest

	// PublishHandler backs the admin publish endpoint (optional).
	PublishHandler *command.PublishCatalogHandler

	// HealthChecker backs /health (optional).
	HealthChecker handlers.HealthChecker

	// Logger
	Logger *logger.Logger
}

// ══════════════════════════════════════════════════════════════════════════════
// SERVER
// ══════════════════════════════════════════════════════════════════════════════

// Server represents the HTTP server.
type Server struct {
	config     Config
	deps       Dependencies
	httpServer *http.Server
	router     chi.Router
	logger     *logger.Logger

	mu        sync.RWMutex
	running   bool
	startedAt time.Time
}

// NewServer creates a new HTTP server with the given configuration and dependencies.
func NewServer(config Config, deps Dependencies) *Server {
	s := &Server{
		config: config,
		deps:   deps,
		logger: deps.Logger,
	}

	if s.logger == nil {
		s.logger = logger.Default()
	}
	s.logger = s.logger.With(logger.Component("http"))

	if s.deps.Manifest == nil {
		s.deps.Manifest = lesson.Catalog()
	}
	if s.deps.HealthChecker == nil {
		checker := handlers.NewCompositeHealthChecker(handlers.APIVersion)
		checker.AddCheck("catalog", handlers.NewCatalogCheck(s.deps.Manifest))
		s.deps.HealthChecker = checker
	}

	s.router = s.setupRoutes()

	s.httpServer = &http.Server{
		Addr:           config.Address(),
		Handler:        s.router,
		ReadTimeout:    config.ReadTimeout,
		WriteTimeout:   config.WriteTimeout,
		IdleTimeout:    config.IdleTimeout,
		MaxHeaderBytes: config.MaxHeaderBytes,
	}

	return s
}

// ══════════════════════════════════════════════════════════════════════════════
// ROUTING
// ══════════════════════════════════════════════════════════════════════════════

func (s *Server) setupRoutes() chi.Router {
	r := chi.NewRouter()

	// Recovery wraps everything so panics inside logging are caught too.
	r.Use(handlers.Recovery(s.logger))
	r.Use(handlers.RequestID)
	r.Use(handlers.Logging(s.logger))
	r.Use(handlers.SecurityHeaders)
	if len(s.config.AllowedOrigins) > 0 {
		r.Use(handlers.CORS(s.config.AllowedOrigins))
	}

	health := handlers.NewHealthHandler(s.deps.HealthChecker)
	lessons := handlers.NewLessonHandler(s.deps.Manifest)

	r.Get("/health", health.Health)
	r.Get("/healthz", health.Health) // Kubernetes alias

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/lessons", func(r chi.Router) {
			r.Use(handlers.CacheControl(s.config.CacheMaxAge))
			r.Get("/", lessons.List)
			r.Get("/count", lessons.Count)
			r.Get("/{file}", lessons.Get)
		})

		if s.config.AdminKeyHash != "" && s.deps.PublishHandler != nil {
			auth := handlers.NewAdminKeyAuth(s.config.AdminKeyHash, s.logger)
			admin := handlers.NewAdminHandler(s.deps.PublishHandler, s.logger)
			r.Route("/admin", func(r chi.Router) {
				r.Use(auth.Middleware)
				r.Post("/publish", admin.Publish)
			})
		}
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		handlers.WriteError(w, r, http.StatusNotFound, "not_found", "Route not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		handlers.WriteError(w, r, http.StatusMethodNotAllowed, "method_not_allowed", "Method not allowed")
	})

	return r
}

// Handler returns the root handler (used by tests).
func (s *Server) Handler() http.Handler {
	return s.router
}

// ══════════════════════════════════════════════════════════════════════════════
// SERVER LIFECYCLE
// ══════════════════════════════════════════════════════════════════════════════

// Start listens on the configured address and serves until Shutdown.
func (s *Server) Start() error {
	ln, err := net.Listen("tcp", s.config.Address())
	if err != nil {
		return fmt.Errorf("listen %s: %w", s.config.Address(), err)
	}
	return s.Serve(ln)
}

// Serve serves on an existing listener until Shutdown.
func (s *Server) Serve(ln net.Listener) error {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		_ = ln.Close()
		return fmt.Errorf("server already running")
	}
	s.running = true
	s.startedAt = time.Now()
	s.mu.Unlock()

	s.logger.Info("starting HTTP server",
		logger.String("address", ln.Addr().String()),
		logger.LessonCount(s.deps.Manifest.Count()),
		logger.Version(s.deps.Manifest.Fingerprint()),
	)

	err := s.httpServer.Serve(ln)

	s.mu.Lock()
	s.running = false
	s.mu.Unlock()

	if err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("server error: %w", err)
	}
	return nil
}

// Shutdown gracefully shuts down the server. Calling it before Serve makes
// a later Serve return immediately.
func (s *Server) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	wasRunning := s.running
	s.running = false
	s.mu.Unlock()

	if wasRunning {
		s.logger.Info("shutting down HTTP server")
	}
	return s.httpServer.Shutdown(ctx)
}

// IsRunning returns true if the server is running.
func (s *Server) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.running
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
