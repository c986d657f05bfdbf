package entity

import (
	"time"

	"github.com/google/uuid"
)

// Tenant represents a registered business team for data transfer between layers.
type Tenant struct {
	ID           uuid.UUID `json:"id"`
	BusinessName string    `json:"business_name"`
	TeamLeadName string    `json:"team_lead_name"`
	ProposalURL  *string   `json:"proposal_url,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}
