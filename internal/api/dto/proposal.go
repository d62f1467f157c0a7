package dto

import (
	"time"

	"github.com/toolbridge-io/toolbridge/internal/domain/integration"
	"github.com/toolbridge-io/toolbridge/internal/domain/proposal"
)

// ProposalDTO represents a maintenance proposal in API responses
type ProposalDTO struct {
	ID                 string                    `json:"id"`
	IntegrationID      string                    `json:"integrationId"`
	Status             string                    `json:"status"`
	DriftRecordIDs     []string                  `json:"driftRecordIds"`
	SchemaDiff         integration.Diff          `json:"schemaDiff"`
	AffectedToolIDs    []string                  `json:"affectedToolIds"`
	Suggestions        []DescriptionSuggestionDTO `json:"descriptionSuggestions"`
	PriorSchemaVersion *int                      `json:"priorSchemaVersion,omitempty"`
	CreatedAt          time.Time                 `json:"createdAt"`
	DecidedAt          *time.Time                `json:"decidedAt,omitempty"`
}

// DescriptionSuggestionDTO is one suggested tool description rewrite
type DescriptionSuggestionDTO struct {
	ToolID       string `json:"toolId"`
	ProposedText string `json:"proposedText"`
	Decision     string `json:"decision"`
}

// DecideDescriptionsRequest carries accept/skip choices for suggestions
type DecideDescriptionsRequest struct {
	Decisions []DecisionInputDTO `json:"decisions" validate:"required,min=1,dive"`
}

// DecisionInputDTO is one accept/skip choice
type DecisionInputDTO struct {
	ToolID string `json:"toolId" validate:"required"`
	Accept bool   `json:"accept"`
}

// ProposalSummaryDTO represents proposal counts by status
type ProposalSummaryDTO struct {
	Pending  int `json:"pending"`
	Approved int `json:"approved"`
	Rejected int `json:"rejected"`
	Reverted int `json:"reverted"`
}

// NewProposalDTO maps a domain proposal to its DTO
func NewProposalDTO(p *proposal.Proposal) ProposalDTO {
	suggestions := make([]DescriptionSuggestionDTO, len(p.Suggestions))
	for i, s := range p.Suggestions {
		suggestions[i] = DescriptionSuggestionDTO{
			ToolID:       s.ToolID,
			ProposedText: s.ProposedText,
			Decision:     string(s.Decision),
		}
	}
	return ProposalDTO{
		ID:                 p.ID,
		IntegrationID:      p.IntegrationID,
		Status:             string(p.Status),
		DriftRecordIDs:     p.DriftRecordIDs,
		SchemaDiff:         p.SchemaDiff,
		AffectedToolIDs:    p.AffectedToolIDs,
		Suggestions:        suggestions,
		PriorSchemaVersion: p.PriorSchemaVersion,
		CreatedAt:          p.CreatedAt,
		DecidedAt:          p.DecidedAt,
	}
}
