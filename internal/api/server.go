//
//
package api

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/Bulbulsingh11/smart-temperature-logger/internal/config"
	"github.com/Bulbulsingh11/smart-temperature-logger/internal/telemetry"
)

// Server is the HTTP API server.
type Server struct {
	httpServer *http.Server
	station    StationPort
	metrics    MetricsPort
	log        *zap.Logger
	accessLog  io.Writer
	upgrader   *websocket.Upgrader
	limiter    *ipLimiter
	startTime  time.Time

	server    config.ServerConfig
	history   config.HistoryConfig
	telemetry config.TelemetryConfig
}

// NewServer creates an API server. metrics, log and accessLog may be nil.
func NewServer(cfg *config.Config, st StationPort, m MetricsPort, log *zap.Logger, accessLog io.Writer) *Server {
	if log == nil {
		log = zap.NewNop()
	}
	if accessLog == nil {
		accessLog = io.Discard
	}

	return &Server{
		station:   st,
		metrics:   m,
		log:       log,
		accessLog: accessLog,
		upgrader:  telemetry.NewUpgrader(),
		limiter:   newIPLimiter(cfg.Server.RateLimit),
		startTime: time.Now(),
		server:    cfg.Server,
		history:   cfg.History,
		telemetry: cfg.Telemetry,
	}
}

// Handler returns the fully wrapped HTTP handler.
func (s *Server) Handler() http.Handler {
	router := s.Router()
	return s.wrap(router)
}

// Start listens on the configured address and blocks until the server stops.
func (s *Server) Start() error {
	s.httpServer = &http.Server{
		Addr:         s.server.Addr(),
		Handler:      s.Handler(),
		ReadTimeout:  s.server.ReadTimeout,
		WriteTimeout: s.server.WriteTimeout,
		IdleTimeout:  s.server.IdleTimeout,
	}

	s.log.Info("http server listening",
		zap.String("addr", s.httpServer.Addr),
		zap.String("environment", s.server.Environment))

	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("failed to start HTTP server: %w", err)
	}
	return nil
}

// Stop gracefully stops the HTTP server.
func (s *Server) Stop(ctx context.Context) error {
	if s.httpServer == nil {
		return nil
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to shutdown HTTP server: %w", err)
	}
	return nil
}
