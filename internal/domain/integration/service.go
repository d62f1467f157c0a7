package integration

import "context"

// Service defines the interface for integration business logic
type Service interface {
	// Create registers an integration and stores its initial schema snapshot
	Create(ctx context.Context, tenantID int64, name, provider string, initial *Schema) (*Integration, error)

	// GetByID retrieves an integration scoped to a tenant
	GetByID(ctx context.Context, tenantID int64, id string) (*Integration, error)

	// List retrieves integrations with pagination
	List(ctx context.Context, tenantID int64, limit, offset int) ([]*Integration, int64, error)

	// GetCurrentSchema returns the integration's current schema snapshot
	GetCurrentSchema(ctx context.Context, tenantID int64, id string) (*Schema, error)

	// CreateConnectSession issues a short-lived OAuth connect session
	CreateConnectSession(ctx context.Context, tenantID int64, integrationID string) (*ConnectSession, error)
}

// SchemaFetcher retrieves the current upstream schema for an integration.
// Upstream transport is an external collaborator; scheduled scans and manual
// refreshes without an inline schema go through this.
type SchemaFetcher interface {
	Fetch(ctx context.Context, i *Integration) (*Schema, error)
}
