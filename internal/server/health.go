package server

import (
	"context"
	"net/http"
	"time"
)

// handleHealth serves GET /healthz. The model is lazy-loaded, so an unloaded
// model is reported but never unhealthy; an unreachable database is.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	resp := healthResponse{
		Status:      "ok",
		Database:    "not_configured",
		ModelLoaded: s.model.Loaded(),
		Backend:     s.model.BackendName(),
	}

	status := http.StatusOK
	if s.db != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := s.db.Ping(ctx); err != nil {
			s.logger.Warn("health db ping failed", "error", err)
			resp.Status = "degraded"
			resp.Database = "unreachable"
			status = http.StatusServiceUnavailable
		} else {
			resp.Database = "ok"
		}
	}

	s.writeJSON(w, status, resp)
}
