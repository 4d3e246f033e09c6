// Package api provides the HTTP API and WebSocket server for SmartWaste Core.
//
// It exposes reading ingestion, status and history queries, and registry
// management to bin sensors and dashboards. Every route answers both at
// the root (/bin/status) and under /api (/api/bin/status).
//
//	server, err := api.New(deps)
//	server.Start(ctx)
//	defer server.Close()
//
// Thread Safety: All methods are safe for concurrent use from multiple goroutines.
package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/wastemanagement141-bit/garbage-overflow/internal/audit"
	"github.com/wastemanagement141-bit/garbage-overflow/internal/infrastructure/config"
	"github.com/wastemanagement141-bit/garbage-overflow/internal/infrastructure/logging"
	"github.com/wastemanagement141-bit/garbage-overflow/internal/registry"
	"github.com/wastemanagement141-bit/garbage-overflow/internal/telemetry"
)

// gracefulShutdownTimeout bounds how long Close waits for in-flight requests.
const gracefulShutdownTimeout = 10 * time.Second

// Deps holds the dependencies required by the API server.
type Deps struct {
	Config    config.APIConfig
	WS        config.WebSocketConfig
	Logger    *logging.Logger
	Telemetry *telemetry.Service
	Registry  *registry.Service
	Audit     audit.Repository // optional: enables GET /registry/audit
	Metrics   *Metrics         // optional: created when nil
	Version   string
}

// Server is the HTTP API server.
type Server struct {
	cfg       config.APIConfig
	wsCfg     config.WebSocketConfig
	logger    *logging.Logger
	telemetry *telemetry.Service
	registry  *registry.Service
	audit     audit.Repository
	metrics   *Metrics
	version   string
	hub       *Hub
	server    *http.Server
	cancel    context.CancelFunc
}

// New creates a new API server and subscribes it to reading and registry
// events so they reach WebSocket clients and metrics.
//
// Parameters:
//   - deps: Required dependencies (logger, telemetry and registry services)
//
// Returns:
//   - *Server: Configured server ready to start
//   - error: If required dependencies are missing
func New(deps Deps) (*Server, error) {
	if deps.Logger == nil {
		return nil, fmt.Errorf("logger is required")
	}
	if deps.Telemetry == nil {
		return nil, fmt.Errorf("telemetry service is required")
	}
	if deps.Registry == nil {
		return nil, fmt.Errorf("registry service is required")
	}

	s := &Server{
		cfg:       deps.Config,
		wsCfg:     deps.WS,
		logger:    deps.Logger,
		telemetry: deps.Telemetry,
		registry:  deps.Registry,
		audit:     deps.Audit,
		version:   deps.Version,
	}
	s.hub = NewHub(deps.WS, deps.Logger)
	s.metrics = deps.Metrics
	if s.metrics == nil {
		s.metrics = NewMetrics(s.hub.ClientCount)
	}

	s.telemetry.AddObserver(s)
	s.registry.OnChange(s.registryChanged)

	return s, nil
}

// ReadingRecorded counts the reading and pushes it to subscribed dashboards.
func (s *Server) ReadingRecorded(_ context.Context, r telemetry.Reading) {
	s.metrics.ReadingIngested(string(r.Status))
	s.hub.Broadcast(ChannelReading, r)
}

func (s *Server) registryChanged(_ context.Context, c registry.Change) {
	s.metrics.RegistryAction(c.Action)
	s.hub.Broadcast(ChannelRegistryChanged, c)
}

// Handler returns the fully wired HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.buildRouter()
}

// Start launches the HTTP listener and the WebSocket hub in the background.
// Use Close to stop them.
//
// Parameters:
//   - ctx: Parent context for background goroutines
//
// Returns:
//   - error: Always nil; listener errors are logged
func (s *Server) Start(ctx context.Context) error {
	var srvCtx context.Context
	srvCtx, s.cancel = context.WithCancel(ctx)

	go s.hub.Run(srvCtx)

	s.server = &http.Server{
		Addr:              fmt.Sprintf("%s:%d", s.cfg.Host, s.cfg.Port),
		Handler:           s.buildRouter(),
		ReadTimeout:       s.cfg.GetReadTimeout(),
		ReadHeaderTimeout: s.cfg.GetReadTimeout(),
		WriteTimeout:      s.cfg.GetWriteTimeout(),
		IdleTimeout:       s.cfg.GetIdleTimeout(),
	}

	go func() {
		var err error
		if s.cfg.TLS.Enabled {
			s.logger.Info("API server starting with TLS", "address", s.server.Addr)
			err = s.server.ListenAndServeTLS(s.cfg.TLS.CertFile, s.cfg.TLS.KeyFile)
		} else {
			s.logger.Info("API server starting", "address", s.server.Addr)
			err = s.server.ListenAndServe()
		}
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("API server error", "error", err)
		}
	}()

	return nil
}

// Close gracefully shuts down the server, waiting up to 10 seconds for
// in-flight requests.
func (s *Server) Close() error {
	if s.cancel != nil {
		s.cancel()
	}
	if s.server == nil {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), gracefulShutdownTimeout)
	defer cancel()

	s.logger.Info("API server shutting down")
	if err := s.server.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutting down API server: %w", err)
	}
	return nil
}

// HealthCheck reports whether the server has been started.
func (s *Server) HealthCheck(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return fmt.Errorf("api health check: %w", ctx.Err())
	default:
	}
	if s.server == nil {
		return fmt.Errorf("api server not started")
	}
	return nil
}
