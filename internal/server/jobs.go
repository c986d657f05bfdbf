package server

import (
	"net/http"
	"strconv"

	"github.com/incubatech/proposal-screener/internal/entity"
)

// handleListJobs serves GET /api/v1/jobs: the most recent pipeline
// invocations, newest first. limit defaults to 50.
func (s *Server) handleListJobs(w http.ResponseWriter, r *http.Request) {
	if s.jobs == nil {
		s.writeError(w, http.StatusServiceUnavailable, "job audit not configured", nil)
		return
	}

	limit := 50
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			s.writeError(w, http.StatusBadRequest, "limit must be a positive integer", err)
			return
		}
		limit = n
	}

	jobs, err := s.jobs.Recent(r.Context(), limit)
	if err != nil {
		s.failure(w, "list jobs", err)
		return
	}
	if jobs == nil {
		jobs = []*entity.ClassificationJob{}
	}
	s.writeJSON(w, http.StatusOK, jobs)
}
