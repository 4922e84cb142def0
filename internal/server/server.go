// Package server exposes the career-record store and the path matcher over HTTP.
package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/rs/cors"
	"go.uber.org/zap"

	"github.com/spigell/career-path/internal/catalog"
	"github.com/spigell/career-path/internal/identity"
	"github.com/spigell/career-path/internal/matching"
	"github.com/spigell/career-path/internal/store"
)

const (
	defaultListen   = ":5000"
	shutdownTimeout = 5 * time.Second
	maxBodyBytes    = 64 << 10
)

// Config holds the HTTP settings.
type Config struct {
	Listen         string   `mapstructure:"listen"`
	AllowedOrigins []string `mapstructure:"allowed-origins"`
}

type Server struct {
	cfg      Config
	store    store.Store
	matcher  *matching.Matcher
	catalog  *catalog.Catalog
	verifier *identity.Verifier
	logger   *zap.Logger
}

// New wires the handlers. verifier may be nil, in which case the authenticated
// endpoint rejects every request.
func New(cfg Config, st store.Store, c *catalog.Catalog, verifier *identity.Verifier, logger *zap.Logger) (*Server, error) {
	if st == nil {
		return nil, errors.New("store is required")
	}
	if c == nil {
		return nil, errors.New("catalog is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.Listen == "" {
		cfg.Listen = defaultListen
	}

	return &Server{
		cfg:      cfg,
		store:    st,
		matcher:  matching.NewMatcher(c, logger.Named("matcher")),
		catalog:  c,
		verifier: verifier,
		logger:   logger,
	}, nil
}

// Handler returns the full middleware chain.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /{$}", s.handleHome)

	mux.HandleFunc("POST /api/user-career", s.handleCreate)
	mux.Handle("POST /api/user-career/me", s.requireAuth(http.HandlerFunc(s.handleCreate)))
	mux.HandleFunc("GET /api/user-career", s.handleList)
	mux.HandleFunc("GET /api/user-career/{id}", s.handleGet)
	mux.HandleFunc("GET /api/user-career/{id}/roadmap", s.handleRecordRoadmap)

	mux.HandleFunc("POST /api/roadmap", s.handleRoadmap)

	mux.HandleFunc("GET /api/catalog/classes", s.handleClasses)
	mux.HandleFunc("GET /api/catalog/jobs", s.handleJobs)

	return s.corsSettings().Handler(s.logRequests(mux))
}

func (s *Server) corsSettings() *cors.Cors {
	origins := s.cfg.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}

	return cors.New(cors.Options{
		AllowedMethods: []string{http.MethodGet, http.MethodPost},
		AllowedOrigins: origins,
		AllowedHeaders: []string{"Content-Type", "Authorization"},
	})
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.cfg.Listen)
	if err != nil {
		return fmt.Errorf("listen %s: %w", s.cfg.Listen, err)
	}
	return s.Serve(ctx, ln)
}

// Serve is Run on an existing listener.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		ErrorLog:          zap.NewStdLog(s.logger.Named("http")),
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("http server started", zap.String("addr", ln.Addr().String()))
		errCh <- srv.Serve(ln)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	s.logger.Info("http server stopping")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}

	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
