package tool

import "context"

// Repository defines the interface for tool data access
type Repository interface {
	// Create creates a new tool definition
	Create(ctx context.Context, t *Tool) error

	// GetByID retrieves a tool scoped to a tenant
	GetByID(ctx context.Context, tenantID int64, id string) (*Tool, error)

	// ListByIntegration retrieves every tool bound to an integration
	ListByIntegration(ctx context.Context, tenantID int64, integrationID string) ([]*Tool, error)

	// ListWithPagination retrieves tools with filters and pagination
	ListWithPagination(ctx context.Context, tenantID int64, filter Filter, limit, offset int) ([]*Tool, int64, error)

	// UpdateDescription replaces a tool's human-readable description
	UpdateDescription(ctx context.Context, tenantID int64, id string, description string) error
}
