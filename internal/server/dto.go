package server

import (
	"time"

	"github.com/incubatech/proposal-screener/constants"
	"github.com/incubatech/proposal-screener/internal/entity"
	"github.com/incubatech/proposal-screener/internal/segment"
)

type errorResponse struct {
	Error  string `json:"error"`
	Detail string `json:"detail,omitempty"`
}

type classifyTextRequest struct {
	Text string `json:"text"`
}

// classifySectionsRequest carries the eight proposal sections by their
// canonical keys. Missing fields classify as empty sections.
type classifySectionsRequest struct {
	LatarBelakang     string `json:"txt_latar_belakang"`
	NoblePurpose      string `json:"txt_noble_purpose"`
	Konsumen          string `json:"txt_konsumen"`
	ProdukInovatif    string `json:"txt_produk_inovatif"`
	StrategiPemasaran string `json:"txt_strategi_pemasaran"`
	SumberDaya        string `json:"txt_sumber_daya"`
	KeuanganNarrative string `json:"txt_keuangan_narrative"`
	RABNarrative      string `json:"txt_rab_narrative"`
}

func (r classifySectionsRequest) sectionMap() segment.SectionMap {
	return segment.SectionMap{
		constants.LatarBelakang:     r.LatarBelakang,
		constants.NoblePurpose:      r.NoblePurpose,
		constants.Konsumen:          r.Konsumen,
		constants.ProdukInovatif:    r.ProdukInovatif,
		constants.StrategiPemasaran: r.StrategiPemasaran,
		constants.SumberDaya:        r.SumberDaya,
		constants.KeuanganNarrative: r.KeuanganNarrative,
		constants.RABNarrative:      r.RABNarrative,
	}
}

type classifyURLRequest struct {
	URL string `json:"url"`
}

type reloadResponse struct {
	Status  string `json:"status"`
	Backend string `json:"backend,omitempty"`
}

type createTenantRequest struct {
	BusinessName string `json:"business_name"`
	TeamLeadName string `json:"team_lead_name"`
	ProposalURL  string `json:"proposal_url,omitempty"`
}

type setProposalURLRequest struct {
	URL string `json:"url"`
}

type tenantResponse struct {
	ID           string  `json:"id"`
	BusinessName string  `json:"business_name"`
	TeamLeadName string  `json:"team_lead_name"`
	ProposalURL  *string `json:"proposal_url,omitempty"`
	CreatedAt    string  `json:"created_at"`
	UpdatedAt    string  `json:"updated_at"`
}

func toTenantResponse(t *entity.Tenant) tenantResponse {
	return tenantResponse{
		ID:           t.ID.String(),
		BusinessName: t.BusinessName,
		TeamLeadName: t.TeamLeadName,
		ProposalURL:  t.ProposalURL,
		CreatedAt:    t.CreatedAt.Format(time.RFC3339Nano),
		UpdatedAt:    t.UpdatedAt.Format(time.RFC3339Nano),
	}
}

type healthResponse struct {
	Status      string `json:"status"`
	Database    string `json:"database"`
	ModelLoaded bool   `json:"model_loaded"`
	Backend     string `json:"backend,omitempty"`
}
