package proposal

import (
	"time"

	"github.com/toolbridge-io/toolbridge/internal/domain/integration"
)

// Proposal bundles related drift into one reviewable maintenance unit.
// DriftRecordIDs and AffectedToolIDs are frozen at creation; only Status and
// the per-suggestion decisions mutate afterwards.
type Proposal struct {
	ID                 string                  `json:"id"`
	TenantID           int64                   `json:"tenant_id"`
	IntegrationID      string                  `json:"integration_id"`
	Status             Status                  `json:"status"`
	DriftRecordIDs     []string                `json:"drift_record_ids"`
	SchemaDiff         integration.Diff        `json:"schema_diff"`
	AffectedToolIDs    []string                `json:"affected_tool_ids"`
	Suggestions        []DescriptionSuggestion `json:"description_suggestions"`
	PriorSchemaVersion *int                    `json:"prior_schema_version,omitempty"`
	CreatedAt          time.Time               `json:"created_at"`
	DecidedAt          *time.Time              `json:"decided_at,omitempty"`
}

// Status is the proposal lifecycle state
type Status string

const (
	StatusPending  Status = "pending"
	StatusApproved Status = "approved"
	StatusRejected Status = "rejected"
	StatusReverted Status = "reverted"
)

// IsValid checks if the status is a known state
func (s Status) IsValid() bool {
	switch s {
	case StatusPending, StatusApproved, StatusRejected, StatusReverted:
		return true
	}
	return false
}

// IsTerminal reports whether no further transitions are possible
func (s Status) IsTerminal() bool {
	return s == StatusRejected || s == StatusReverted
}

// CanTransitionTo encodes the legal state machine:
// pending -> approved|rejected, approved -> reverted.
func (s Status) CanTransitionTo(next Status) bool {
	switch s {
	case StatusPending:
		return next == StatusApproved || next == StatusRejected
	case StatusApproved:
		return next == StatusReverted
	}
	return false
}

// Decision is the review outcome for one description suggestion
type Decision string

const (
	DecisionPending  Decision = "pending"
	DecisionAccepted Decision = "accepted"
	DecisionSkipped  Decision = "skipped"
)

// DescriptionSuggestion is a candidate description for one affected tool
type DescriptionSuggestion struct {
	ToolID       string   `json:"tool_id"`
	ProposedText string   `json:"proposed_text"`
	Decision     Decision `json:"decision"`
}

// DecisionInput is an operator's accept/skip choice for one tool
type DecisionInput struct {
	ToolID string `json:"tool_id" validate:"required"`
	Accept bool   `json:"accept"`
}

// SuggestionFor returns the suggestion for a tool, or nil
func (p *Proposal) SuggestionFor(toolID string) *DescriptionSuggestion {
	for i := range p.Suggestions {
		if p.Suggestions[i].ToolID == toolID {
			return &p.Suggestions[i]
		}
	}
	return nil
}
