package integration

import "context"

// Repository defines the interface for integration data access
type Repository interface {
	// Create creates a new integration
	Create(ctx context.Context, i *Integration) error

	// GetByID retrieves an integration scoped to a tenant
	GetByID(ctx context.Context, tenantID int64, id string) (*Integration, error)

	// List retrieves integrations with pagination
	List(ctx context.Context, tenantID int64, limit, offset int) ([]*Integration, int64, error)

	// UpdateStatus updates the integration status
	UpdateStatus(ctx context.Context, tenantID int64, id string, status string) error

	// SaveSchema stores a schema version and moves the integration's current
	// version pointer to it
	SaveSchema(ctx context.Context, s *Schema) error

	// GetSchema retrieves a specific schema version
	GetSchema(ctx context.Context, integrationID string, version int) (*Schema, error)

	// SaveObservedSchema records the latest upstream schema seen during
	// detection. It overwrites any previous observation; the snapshot itself
	// only moves through SaveSchema.
	SaveObservedSchema(ctx context.Context, s *Schema) error

	// GetObservedSchema retrieves the last observed upstream schema, or nil
	// when no detection has recorded one yet
	GetObservedSchema(ctx context.Context, integrationID string) (*Schema, error)

	// CreateConnectSession persists a connect session
	CreateConnectSession(ctx context.Context, cs *ConnectSession) error
}
