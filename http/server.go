// Package http serves the classifier form, its JSON API and the chart feed.
package http

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"go.uber.org/zap"

	"firetype/livereload"
	"firetype/monitoring"
)

// Server owns the listener and the dev-mode reload goroutines.
type Server struct {
	server    *http.Server
	config    ServerConfig
	predictor Predictor
	renderer  *renderer
	percent   percentFormatter
	logger    *zap.Logger
	metrics   *monitoring.Metrics
	hub       *livereload.Hub
	watcher   *livereload.Watcher
	ctx       context.Context
	cancel    context.CancelFunc
	wg        sync.WaitGroup
}

// ServerConfig is the http and ui part of the service configuration.
type ServerConfig struct {
	Port           int
	Timeout        time.Duration
	AllowedOrigins []string
	MaxBodyBytes   int64
	Locale         string
	// DevMode serves templates from TemplateDir and reloads them on change.
	DevMode     bool
	TemplateDir string
}

// DefaultServerConfig matches the config file defaults.
func DefaultServerConfig() ServerConfig {
	return ServerConfig{
		Port:           8501,
		Timeout:        30 * time.Second,
		AllowedOrigins: []string{"*"},
		MaxBodyBytes:   64 << 10,
		Locale:         "en",
	}
}

// Dependencies are shared with the rest of the process. Metrics may be nil.
type Dependencies struct {
	Predictor Predictor
	Logger    *zap.Logger
	Metrics   *monitoring.Metrics
}

// NewServer parses the templates and builds the routes and middleware chain.
func NewServer(config ServerConfig, deps Dependencies) (*Server, error) {
	if deps.Predictor == nil {
		return nil, errors.New("predictor is required")
	}
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	s := &Server{
		config:    config,
		predictor: deps.Predictor,
		percent:   newPercentFormatter(config.Locale),
		logger:    logger.Named("http"),
		metrics:   deps.Metrics,
	}

	templateDir := ""
	if config.DevMode {
		templateDir = config.TemplateDir
	}
	r, err := newRenderer(templateDir)
	if err != nil {
		return nil, err
	}
	s.renderer = r

	if config.DevMode {
		s.hub = livereload.NewHub(logger)
		s.watcher, err = livereload.NewWatcher(config.TemplateDir, logger)
		if err != nil {
			return nil, err
		}
		s.watcher.Reload = s.renderer.Reload
		s.watcher.Notify = s.hub.Broadcast
	}

	mux := http.NewServeMux()
	s.registerRoutes(mux)

	chain := Chain(
		RecoveryMiddleware(s.logger),
		RequestIDMiddleware,
		LoggerMiddleware(s.logger),
		SecurityHeadersMiddleware,
		CORSMiddleware(config.AllowedOrigins),
		TimeoutMiddleware(config.Timeout),
		RequestSizeMiddleware(config.MaxBodyBytes),
		CompressMiddleware,
	)

	s.ctx, s.cancel = context.WithCancel(context.Background())
	s.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", config.Port),
		Handler:           chain(mux),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       config.Timeout,
		WriteTimeout:      config.Timeout,
		IdleTimeout:       120 * time.Second,
	}
	return s, nil
}

// Handler exposes the full middleware stack, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.server.Handler
}

// Start blocks serving requests until Stop is called.
func (s *Server) Start() error {
	ctx := s.ctx
	if s.hub != nil {
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			s.hub.Run(ctx)
		}()
	}
	if s.watcher != nil {
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			if err := s.watcher.Run(ctx); err != nil {
				s.logger.Error("template watcher stopped", zap.Error(err))
			}
		}()
	}

	s.logger.Info("starting http server", zap.String("addr", s.server.Addr), zap.Bool("dev_mode", s.config.DevMode))
	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		s.cancel()
		return fmt.Errorf("server failed: %w", err)
	}
	return nil
}

// Stop drains in-flight requests until ctx expires, then stops the
// live-reload goroutines.
func (s *Server) Stop(ctx context.Context) error {
	s.logger.Info("shutting down http server")
	err := s.server.Shutdown(ctx)
	s.cancel()
	s.wg.Wait()
	if err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}
	return nil
}

// Addr is the listen address.
func (s *Server) Addr() string {
	return s.server.Addr
}
