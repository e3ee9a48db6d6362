package api

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"go.uber.org/zap"

	"eventScope/internal/query"
)

const defaultLimit = 10

// handleIndex returns service information.
func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		s.sendError(w, "endpoint not found", http.StatusNotFound)
		return
	}

	info := map[string]any{
		"service": "eventScope",
		"endpoints": map[string]string{
			"GET /health":         "run all health probes and return the composite status",
			"GET /health/last":    "last completed health check (404 when none yet)",
			"GET /health/history": "persisted health checks, newest first (?limit=N)",
			"GET /events":         "recent contract events, newest first (?limit=N)",
			"GET /stats":          "event counts grouped by type",
			"GET /stats/health":   "health check counts grouped by status",
			"GET /metrics":        "Prometheus metrics",
		},
	}
	s.sendJSON(w, http.StatusOK, info)
}

// handleHealth runs a fresh aggregation cycle.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.sendError(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	s.sendJSON(w, http.StatusOK, s.monitor.CheckHealth(r.Context()))
}

// handleLastHealth returns the cached status without recomputation.
func (s *Server) handleLastHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.sendError(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	last, ok := s.monitor.GetLastHealthCheck()
	if !ok {
		s.sendError(w, "no health check data available", http.StatusNotFound)
		return
	}
	s.sendJSON(w, http.StatusOK, last)
}

func (s *Server) handleHealthHistory(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.sendError(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	limit, err := parseLimit(r)
	if err != nil {
		s.sendError(w, err.Error(), http.StatusBadRequest)
		return
	}

	checks, err := s.queries.HealthHistory(r.Context(), limit)
	if err != nil {
		s.sendQueryError(w, err)
		return
	}
	s.sendJSON(w, http.StatusOK, checks)
}

func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.sendError(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	limit, err := parseLimit(r)
	if err != nil {
		s.sendError(w, err.Error(), http.StatusBadRequest)
		return
	}

	events, err := s.queries.RecentEvents(r.Context(), limit)
	if err != nil {
		s.sendQueryError(w, err)
		return
	}
	s.sendJSON(w, http.StatusOK, events)
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.sendError(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	stats, err := s.queries.EventStatistics(r.Context())
	if err != nil {
		s.sendQueryError(w, err)
		return
	}
	s.sendJSON(w, http.StatusOK, stats)
}

func (s *Server) handleHealthStats(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.sendError(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	stats, err := s.queries.HealthStatistics(r.Context())
	if err != nil {
		s.sendQueryError(w, err)
		return
	}
	s.sendJSON(w, http.StatusOK, stats)
}

func (s *Server) sendQueryError(w http.ResponseWriter, err error) {
	if errors.Is(err, query.ErrInvalidLimit) {
		s.sendError(w, err.Error(), http.StatusBadRequest)
		return
	}
	s.logger.Error("query failed", zap.Error(err))
	s.sendError(w, "internal server error", http.StatusInternalServerError)
}

func parseLimit(r *http.Request) (int, error) {
	raw := r.URL.Query().Get("limit")
	if raw == "" {
		return defaultLimit, nil
	}
	limit, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid limit: %q", raw)
	}
	return limit, nil
}
