package dto

import (
	"time"

	"github.com/toolbridge-io/toolbridge/internal/domain/tool"
)

// ToolDTO represents a tool definition in API responses
type ToolDTO struct {
	ID            string    `json:"id"`
	IntegrationID string    `json:"integrationId"`
	Name          string    `json:"name"`
	Action        string    `json:"action"`
	Description   string    `json:"description"`
	FieldRefs     []string  `json:"fieldRefs"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

// CreateToolRequest represents a tool creation request
type CreateToolRequest struct {
	IntegrationID string   `json:"integrationId" validate:"required"`
	Name          string   `json:"name" validate:"required,min=1,max=255"`
	Action        string   `json:"action" validate:"required,min=1,max=255"`
	Description   string   `json:"description"`
	FieldRefs     []string `json:"fieldRefs"`
}

// UpdateToolDescriptionRequest replaces a tool's description
type UpdateToolDescriptionRequest struct {
	Description string `json:"description" validate:"required"`
}

// NewToolDTO maps a domain tool to its DTO
func NewToolDTO(t *tool.Tool) ToolDTO {
	return ToolDTO{
		ID:            t.ID,
		IntegrationID: t.IntegrationID,
		Name:          t.Name,
		Action:        t.Action,
		Description:   t.Description,
		FieldRefs:     t.FieldRefs,
		CreatedAt:     t.CreatedAt,
		UpdatedAt:     t.UpdatedAt,
	}
}
