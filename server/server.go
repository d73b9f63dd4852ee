package server

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/poiesic/librarian/core"
	"github.com/poiesic/librarian/ingestion"
)

// Service is the application surface the server exposes over HTTP.
type Service interface {
	// Query executes a retrieval request.
	Query(ctx context.Context, req *core.QueryRequest) (*core.RetrievalResult, error)

	// Ingest stores document fragments, embedding them when needed.
	Ingest(ctx context.Context, fragments ...*ingestion.Fragment) ([]core.ID, error)

	// Stats reports corpus size and embedding dimension.
	Stats(ctx context.Context) (*core.LibraryStats, error)
}

// Server exposes the retrieval service over HTTP.
type Server struct {
	cfg     Config
	service Service
	router  *gin.Engine
	logger  *slog.Logger
}

// Option configures a Server.
type Option func(*Server) error

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) error {
		if logger == nil {
			logger = slog.Default()
		}
		s.logger = logger
		return nil
	}
}

// New creates a Server for the given service.
func New(cfg Config, service Service, opts ...Option) (*Server, error) {
	if service == nil {
		return nil, ErrServiceRequired
	}

	s := &Server{
		cfg:     cfg,
		service: service,
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		if err := opt(s); err != nil {
			return nil, err
		}
	}
	s.router = s.buildRouter()

	return s, nil
}

func (s *Server) buildRouter() *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(s.loggerMiddleware())

	router.POST("/query", s.handleQuery)
	router.POST("/chunks", s.handleIngest)
	router.GET("/healthz", s.handleHealth)

	return router
}

// Handler returns the HTTP handler, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:         s.cfg.Address(),
		Handler:      s.router,
		ReadTimeout:  s.cfg.ReadTimeout,
		WriteTimeout: s.cfg.WriteTimeout,
		IdleTimeout:  s.cfg.IdleTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("starting HTTP server", "address", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	s.logger.Info("shutting down HTTP server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

// loggerMiddleware logs each request through slog instead of gin's default
// writer.
func (s *Server) loggerMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		s.logger.Info("request",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"duration", time.Since(start))
	}
}
