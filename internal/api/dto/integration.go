package dto

import (
	"time"

	"github.com/toolbridge-io/toolbridge/internal/domain/integration"
)

// IntegrationDTO represents an integration in API responses
// Uses camelCase for frontend compatibility
type IntegrationDTO struct {
	ID            string    `json:"id"`
	Name          string    `json:"name"`
	Provider      string    `json:"provider"`
	Status        string    `json:"status"`
	SchemaVersion int       `json:"schemaVersion"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

// CreateIntegrationRequest represents an integration registration request.
// Schema is optional; without it the integration starts in pending status.
type CreateIntegrationRequest struct {
	Name     string         `json:"name" validate:"required,min=1,max=255"`
	Provider string         `json:"provider" validate:"required,min=1,max=100"`
	Schema   *SchemaPayload `json:"schema,omitempty"`
}

// SchemaPayload carries a schema's actions in requests and responses
type SchemaPayload struct {
	Actions map[string]integration.ActionSchema `json:"actions" validate:"required"`
}

// SchemaDTO represents a schema snapshot in API responses
type SchemaDTO struct {
	IntegrationID string                              `json:"integrationId"`
	Version       int                                 `json:"version"`
	Actions       map[string]integration.ActionSchema `json:"actions"`
	CapturedAt    time.Time                           `json:"capturedAt"`
}

// RefreshSchemaRequest carries a freshly fetched upstream schema. When the
// body is empty the configured fetcher is used instead.
type RefreshSchemaRequest struct {
	Schema *SchemaPayload `json:"schema,omitempty"`
}

// ConnectSessionDTO represents an issued connect session
type ConnectSessionDTO struct {
	ID        string    `json:"id"`
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// NewIntegrationDTO maps a domain integration to its DTO
func NewIntegrationDTO(i *integration.Integration) IntegrationDTO {
	return IntegrationDTO{
		ID:            i.ID,
		Name:          i.Name,
		Provider:      i.Provider,
		Status:        i.Status,
		SchemaVersion: i.SchemaVersion,
		CreatedAt:     i.CreatedAt,
		UpdatedAt:     i.UpdatedAt,
	}
}
