package entity

import (
	"time"

	"github.com/google/uuid"

	"github.com/incubatech/proposal-screener/constants"
)

// ClassificationJob represents one pipeline invocation for data transfer
// between layers. Only final outcomes are stored, never intermediate text.
type ClassificationJob struct {
	ID             uuid.UUID           `json:"id"`
	TenantID       *uuid.UUID          `json:"tenant_id,omitempty"`
	Mode           string              `json:"mode"`
	Source         string              `json:"source"`
	Status         constants.JobStatus `json:"status"`
	ExtractMethod  *string             `json:"extract_method,omitempty"`
	ExtractionPath *string             `json:"extraction_path,omitempty"`
	Label          *int                `json:"label,omitempty"`
	Confidence     *float64            `json:"confidence,omitempty"`
	Message        *string             `json:"message,omitempty"`
	ErrorMessage   *string             `json:"error_message,omitempty"`
	TextLength     *int                `json:"text_length,omitempty"`
	StartedAt      time.Time           `json:"started_at"`
	FinishedAt     *time.Time          `json:"finished_at,omitempty"`
}
