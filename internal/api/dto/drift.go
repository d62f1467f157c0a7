package dto

import (
	"time"

	"github.com/toolbridge-io/toolbridge/internal/domain/drift"
	"github.com/toolbridge-io/toolbridge/internal/domain/integration"
)

// DriftRecordDTO represents a drift record in API responses
type DriftRecordDTO struct {
	ID            string                  `json:"id"`
	IntegrationID string                  `json:"integrationId"`
	Severity      string                  `json:"severity"`
	ChangeKind    string                  `json:"changeKind"`
	Action        string                  `json:"action"`
	FieldPath     string                  `json:"fieldPath"`
	Change        integration.FieldChange `json:"change"`
	Detail        string                  `json:"detail,omitempty"`
	DetectedAt    time.Time               `json:"detectedAt"`
	Resolved      bool                    `json:"resolved"`
	ResolvedAt    *time.Time              `json:"resolvedAt,omitempty"`
}

// DriftSummaryDTO represents unresolved drift counts by severity
type DriftSummaryDTO struct {
	Breaking int `json:"breaking"`
	Warning  int `json:"warning"`
	Info     int `json:"info"`
	Total    int `json:"total"`
}

// NewDriftRecordDTO maps a domain drift record to its DTO
func NewDriftRecordDTO(d *drift.Record) DriftRecordDTO {
	return DriftRecordDTO{
		ID:            d.ID,
		IntegrationID: d.IntegrationID,
		Severity:      string(d.Severity),
		ChangeKind:    string(d.ChangeKind),
		Action:        d.Action,
		FieldPath:     d.FieldPath,
		Change:        d.Change,
		Detail:        d.Detail,
		DetectedAt:    d.DetectedAt,
		Resolved:      d.Resolved,
		ResolvedAt:    d.ResolvedAt,
	}
}
