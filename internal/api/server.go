package api

import (
	"context"
	"database/sql"
	"net/http"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"

	"github.com/hondana/buyback-mailer/internal/config"
)

// Server represents the API server
type Server struct {
	config   config.ServerConfig
	handler  http.Handler
	handlers *Handlers
	server   *http.Server
	router   *chi.Mux
}

// Deps are the optional infrastructure handles. Any of them can be nil;
// the health endpoint reports nil deps as not configured and the handlers
// that need them return 503.
type Deps struct {
	DB          *sql.DB
	RedisClient *redis.Client
	S3Client    *s3.Client
	S3Bucket    string
}

// NewServer creates a new API server
func NewServer(cfg config.ServerConfig, handlers *Handlers, deps Deps) *Server {
	health := NewHealthChecker(deps.DB, deps.RedisClient, deps.S3Client, deps.S3Bucket)
	router := SetupRoutes(handlers, health)

	return &Server{
		config:   cfg,
		handler:  router,
		handlers: handlers,
		router:   router,
	}
}

// ListenAndServe starts the HTTP server
func (s *Server) ListenAndServe(addr string) error {
	s.server = &http.Server{
		Addr:    addr,
		Handler: s.handler,
		// Plan runs over large rosters can take a while; generation endpoints
		// wait on LLM backends. Individual handlers use context deadlines for
		// tighter control.
		ReadTimeout:       2 * time.Minute,
		ReadHeaderTimeout: 15 * time.Second,
		WriteTimeout:      2 * time.Minute,
		IdleTimeout:       120 * time.Second,
	}

	return s.server.ListenAndServe()
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}

// Handler returns the HTTP handler for testing
func (s *Server) Handler() http.Handler {
	return s.handler
}
