// Package adminapi implements the admin/observability surface: one REST
// server and one gRPC server per rank, exposing liveness, Prometheus
// metrics, and a JWT-gated status/abort surface over the Status each
// rank maintains.
package adminapi

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/therealutkarshpriyadarshi/ringknn/pkg/adminapi/middleware"
	"github.com/therealutkarshpriyadarshi/ringknn/pkg/config"
	"github.com/therealutkarshpriyadarshi/ringknn/pkg/observability"
)

// Server is the per-rank REST admin surface.
type Server struct {
	cfg        config.AdminConfig
	status     *Status
	logger     *observability.Logger
	mux        *http.ServeMux
	httpServer *http.Server
}

// NewServer builds the REST admin server for one rank; it does not start
// listening until Start is called.
func NewServer(cfg config.AdminConfig, status *Status, logger *observability.Logger) *Server {
	if logger == nil {
		logger = observability.NewDefaultLogger()
	}

	s := &Server{
		cfg:    cfg,
		status: status,
		logger: logger,
		mux:    http.NewServeMux(),
	}
	s.setupRoutes()

	s.httpServer = &http.Server{
		Addr:         cfg.Address(),
		Handler:      s.withMiddleware(s.mux),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return s
}

func (s *Server) setupRoutes() {
	s.mux.HandleFunc("/healthz", s.handleHealthz)
	s.mux.Handle("/metrics", promhttp.Handler())
	s.mux.HandleFunc("/admin/status", s.handleStatus)
	s.mux.HandleFunc("/admin/abort", s.handleAbort)
}

func (s *Server) withMiddleware(handler http.Handler) http.Handler {
	handler = s.loggingMiddleware(handler)

	limiter := middleware.NewRateLimiter(middleware.RateLimitConfig{
		Enabled:        s.cfg.RateLimitPerSec > 0,
		RequestsPerSec: s.cfg.RateLimitPerSec,
		Burst:          s.cfg.RateLimitBurst,
	})
	handler = middleware.RateLimitMiddleware(limiter)(handler)

	handler = middleware.AuthMiddleware(middleware.AuthConfig{
		Enabled:     s.cfg.JWTSecret != "",
		JWTSecret:   s.cfg.JWTSecret,
		PublicPaths: []string{"/healthz", "/metrics"},
	})(handler)

	return handler
}

func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		s.logger.Info("admin.request", map[string]interface{}{
			"method":   r.Method,
			"path":     r.URL.Path,
			"duration": time.Since(start),
		})
	})
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	fmt.Fprint(w, `{"status":"ok"}`)
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeJSONError(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(s.status.Snapshot()); err != nil {
		s.logger.Errorf("admin: encode status: %v", err)
	}
}

func (s *Server) handleAbort(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeJSONError(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	s.status.RequestAbort()
	s.logger.Warn("admin: abort requested")
	w.Header().Set("Content-Type", "application/json")
	fmt.Fprint(w, `{"aborted":true}`)
}

func writeJSONError(w http.ResponseWriter, message string, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	fmt.Fprintf(w, `{"error":"%s","status":%d}`, message, statusCode)
}

// Start begins serving in a background goroutine; errors other than a
// clean shutdown are logged, mirroring the gRPC server's Serve pattern.
func (s *Server) Start() error {
	s.logger.Infof("admin REST server listening on %s", s.cfg.Address())
	go func() {
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			s.logger.Errorf("admin REST server error: %v", err)
		}
	}()
	return nil
}

// Stop gracefully shuts the server down, bounded by cfg.ShutdownTimeout.
func (s *Server) Stop() error {
	ctx, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownTimeout)
	defer cancel()
	return s.httpServer.Shutdown(ctx)
}
