package server

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

// handleClassifyText serves POST /api/v1/proposal/classify. Empty text is a
// valid request; the pipeline answers it with the empty-input reject verdict.
func (s *Server) handleClassifyText(w http.ResponseWriter, r *http.Request) {
	var req classifyTextRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid request body", err)
		return
	}

	v, err := s.pipeline.ClassifyText(r.Context(), req.Text)
	if err != nil {
		s.failure(w, "classify text", err)
		return
	}
	s.writeJSON(w, http.StatusOK, v)
}

// handleClassifySections serves POST /api/v1/proposal/classify/sections.
func (s *Server) handleClassifySections(w http.ResponseWriter, r *http.Request) {
	var req classifySectionsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid request body", err)
		return
	}

	v, err := s.pipeline.ClassifySections(r.Context(), req.sectionMap())
	if err != nil {
		s.failure(w, "classify sections", err)
		return
	}
	s.writeJSON(w, http.StatusOK, v)
}

// handleClassifyURL serves POST /api/v1/proposal/classify/url.
func (s *Server) handleClassifyURL(w http.ResponseWriter, r *http.Request) {
	var req classifyURLRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid request body", err)
		return
	}
	if req.URL == "" {
		s.writeError(w, http.StatusBadRequest, "url is required", nil)
		return
	}

	v, err := s.pipeline.ClassifyURL(r.Context(), req.URL)
	if err != nil {
		s.failure(w, "classify url", err)
		return
	}
	s.writeJSON(w, http.StatusOK, v)
}

// handleClassifyTenant serves POST /api/v1/proposal/classify/tenant/{tenantID}.
func (s *Server) handleClassifyTenant(w http.ResponseWriter, r *http.Request) {
	tenantID, err := uuid.Parse(chi.URLParam(r, "tenantID"))
	if err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid tenant id", err)
		return
	}

	v, err := s.pipeline.ClassifyTenant(r.Context(), tenantID)
	if err != nil {
		s.failure(w, "classify tenant", err)
		return
	}
	s.writeJSON(w, http.StatusOK, v)
}

// handleModelReload serves POST /api/v1/model/reload.
func (s *Server) handleModelReload(w http.ResponseWriter, r *http.Request) {
	if err := s.model.Reload(r.Context()); err != nil {
		s.failure(w, "model reload", err)
		return
	}
	s.writeJSON(w, http.StatusOK, reloadResponse{Status: "ok", Backend: s.model.BackendName()})
}
