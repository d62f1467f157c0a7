package tool

import "context"

// Service defines the interface for tool business logic
type Service interface {
	// Create creates a new tool definition
	Create(ctx context.Context, t *Tool) (*Tool, error)

	// GetByID retrieves a tool scoped to a tenant
	GetByID(ctx context.Context, tenantID int64, id string) (*Tool, error)

	// List retrieves tools with filters and pagination
	List(ctx context.Context, tenantID int64, filter Filter, limit, offset int) ([]*Tool, int64, error)

	// UpdateDescription replaces a tool's description
	UpdateDescription(ctx context.Context, tenantID int64, id string, description string) error
}
