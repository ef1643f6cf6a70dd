package web

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/kozaktomas/bird-tagger/internal/asset"
	"github.com/kozaktomas/bird-tagger/internal/config"
	"github.com/kozaktomas/bird-tagger/internal/logger"
	"github.com/kozaktomas/bird-tagger/internal/notify"
	"github.com/kozaktomas/bird-tagger/internal/tagging"
	"github.com/kozaktomas/bird-tagger/internal/web/middleware"
)

// Services are the operations exposed over HTTP.
type Services struct {
	Engine   *tagging.Engine
	Mutator  *tagging.Mutator
	Deleter  *tagging.Deleter
	Pipeline *tagging.Pipeline
	Notifier notify.Notifier // optional
	Locator  asset.Locator
	Catalog  []string
	Ready    func(context.Context) error // optional, checked by /health
}

// Server represents the web server
type Server struct {
	services   Services
	router     *chi.Mux
	httpServer *http.Server
	log        *logger.Logger
}

// NewServer creates a new web server
func NewServer(cfg *config.WebConfig, services Services, log *logger.Logger) *Server {
	r := chi.NewRouter()

	s := &Server{
		services: services,
		router:   r,
		log:      log,
	}

	// Set up middleware stack
	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.RealIP)
	r.Use(middleware.RequestLogger(log.With("component", "http")))
	r.Use(chiMiddleware.Recoverer)
	r.Use(chiMiddleware.Timeout(5 * time.Minute))
	r.Use(middleware.CORS(cfg.AllowedOrigins))
	r.Use(middleware.SecurityHeaders())

	s.setupRoutes()

	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Handler:      r,
		ReadTimeout:  2 * time.Minute, // uploads and query files up to 50MB
		WriteTimeout: 5 * time.Minute, // video detection samples frames sequentially
		IdleTimeout:  60 * time.Second,
	}

	return s
}

// Start starts the HTTP server
func (s *Server) Start() error {
	s.log.Info("starting web server", "addr", s.httpServer.Addr)
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("failed to start server: %w", err)
	}
	return nil
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	s.log.Info("shutting down web server")
	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutting down server: %w", err)
	}
	return nil
}

// Router returns the chi router for testing
func (s *Server) Router() *chi.Mux {
	return s.router
}
