package server

import (
	"context"
	"net/http"
	"time"

	"github.com/jonathan/cover-letter/internal/server/middleware"
)

// HealthResponse is the response of GET /health.
type HealthResponse struct {
	Status   string `json:"status"`
	Upstream string `json:"upstream"`
	Database string `json:"database"`
}

// handleHealth returns server health status
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	resp := HealthResponse{Status: "ok", Upstream: "template", Database: "disabled"}
	if s.generator.HasUpstream() {
		resp.Upstream = "configured"
	}

	status := http.StatusOK
	if s.database != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		resp.Database = "ok"
		if err := s.database.Ping(ctx); err != nil {
			s.sink.LogError(err, "health check database ping")
			resp.Status = "degraded"
			resp.Database = "unavailable"
			status = http.StatusServiceUnavailable
		}
	}
	s.jsonResponse(w, status, resp)
}

// handleMetrics returns the generation counters.
func (s *Server) handleMetrics(w http.ResponseWriter, _ *http.Request) {
	s.jsonResponse(w, http.StatusOK, s.sink.Snapshot())
}

// handleSession returns the signed-in user.
func (s *Server) handleSession(w http.ResponseWriter, r *http.Request) {
	session, ok := middleware.SessionFromContext(r.Context())
	if !ok {
		s.errorResponse(w, http.StatusUnauthorized, "Unauthorized")
		return
	}
	s.jsonResponse(w, http.StatusOK, map[string]any{"user": session.User})
}
