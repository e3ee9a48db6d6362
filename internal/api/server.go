package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"eventScope/internal/health"
	"eventScope/internal/query"
)

// Server exposes the health and query endpoints over HTTP.
type Server struct {
	httpServer *http.Server
	mux        *http.ServeMux
	monitor    *health.Monitor
	queries    *query.Service
	logger     *zap.Logger
}

func NewServer(port int, monitor *health.Monitor, queries *query.Service, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}

	mux := http.NewServeMux()
	s := &Server{
		mux:     mux,
		monitor: monitor,
		queries: queries,
		logger:  logger,
	}
	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf(":%d", port),
		Handler:      s.logRequests(mux),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	s.registerRoutes()
	return s
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		s.logger.Debug("request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Duration("duration", time.Since(start)),
		)
	})
}

func (s *Server) registerRoutes() {
	s.mux.HandleFunc("/", s.handleIndex)
	s.mux.HandleFunc("/health", s.handleHealth)
	s.mux.HandleFunc("/health/last", s.handleLastHealth)
	s.mux.HandleFunc("/health/history", s.handleHealthHistory)
	s.mux.HandleFunc("/events", s.handleEvents)
	s.mux.HandleFunc("/stats", s.handleStats)
	s.mux.HandleFunc("/stats/health", s.handleHealthStats)
	s.mux.Handle("/metrics", promhttp.Handler())
}

// Handler returns the route mux, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.mux
}

// Start runs the HTTP server in a goroutine and returns immediately.
func (s *Server) Start() {
	go func() {
		s.logger.Info("api server starting", zap.String("addr", s.httpServer.Addr))
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			s.logger.Error("api server error", zap.Error(err))
		}
	}()
}

// Shutdown gracefully stops the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("api server shutting down")
	return s.httpServer.Shutdown(ctx)
}
