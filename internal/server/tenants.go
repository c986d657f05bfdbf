package server

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/incubatech/proposal-screener/internal/entity"
)

// requireTenants guards routes that need the tenant registry. The server can
// run without a database; those routes then answer 503.
func (s *Server) requireTenants(w http.ResponseWriter) bool {
	if s.tenants == nil {
		s.writeError(w, http.StatusServiceUnavailable, "tenant registry not configured", nil)
		return false
	}
	return true
}

// handleCreateTenant serves POST /api/v1/tenants.
func (s *Server) handleCreateTenant(w http.ResponseWriter, r *http.Request) {
	if !s.requireTenants(w) {
		return
	}
	var req createTenantRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid request body", err)
		return
	}
	if req.BusinessName == "" {
		s.writeError(w, http.StatusBadRequest, "business_name is required", nil)
		return
	}
	if req.TeamLeadName == "" {
		s.writeError(w, http.StatusBadRequest, "team_lead_name is required", nil)
		return
	}

	t := &entity.Tenant{
		BusinessName: req.BusinessName,
		TeamLeadName: req.TeamLeadName,
	}
	if req.ProposalURL != "" {
		t.ProposalURL = &req.ProposalURL
	}

	created, err := s.tenants.Create(r.Context(), t)
	if err != nil {
		s.failure(w, "create tenant", err)
		return
	}
	s.writeJSON(w, http.StatusCreated, toTenantResponse(created))
}

// handleGetTenant serves GET /api/v1/tenants/{tenantID}.
func (s *Server) handleGetTenant(w http.ResponseWriter, r *http.Request) {
	if !s.requireTenants(w) {
		return
	}
	tenantID, err := uuid.Parse(chi.URLParam(r, "tenantID"))
	if err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid tenant id", err)
		return
	}

	t, err := s.tenants.GetByID(r.Context(), tenantID)
	if err != nil {
		s.failure(w, "get tenant", err)
		return
	}
	s.writeJSON(w, http.StatusOK, toTenantResponse(t))
}

// handleListTenants serves GET /api/v1/tenants.
func (s *Server) handleListTenants(w http.ResponseWriter, r *http.Request) {
	if !s.requireTenants(w) {
		return
	}
	ts, err := s.tenants.List(r.Context())
	if err != nil {
		s.failure(w, "list tenants", err)
		return
	}
	out := make([]tenantResponse, 0, len(ts))
	for _, t := range ts {
		out = append(out, toTenantResponse(t))
	}
	s.writeJSON(w, http.StatusOK, out)
}

// handleSetProposalURL serves PUT /api/v1/tenants/{tenantID}/proposal.
func (s *Server) handleSetProposalURL(w http.ResponseWriter, r *http.Request) {
	if !s.requireTenants(w) {
		return
	}
	tenantID, err := uuid.Parse(chi.URLParam(r, "tenantID"))
	if err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid tenant id", err)
		return
	}
	var req setProposalURLRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid request body", err)
		return
	}
	if req.URL == "" {
		s.writeError(w, http.StatusBadRequest, "url is required", nil)
		return
	}

	if err := s.tenants.SetProposalURL(r.Context(), tenantID, req.URL); err != nil {
		s.failure(w, "set proposal url", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
