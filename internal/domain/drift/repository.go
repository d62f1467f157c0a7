package drift

import "context"

// Repository defines the interface for drift record data access. There is
// deliberately no delete: records are an append-only history per integration,
// and resolution happens inside the proposal approval transaction.
type Repository interface {
	// CreateBatch persists a detection pass's records
	CreateBatch(ctx context.Context, records []*Record) error

	// GetByID retrieves a record scoped to a tenant
	GetByID(ctx context.Context, tenantID int64, id string) (*Record, error)

	// ListUnresolved retrieves all unresolved records for an integration,
	// oldest first
	ListUnresolved(ctx context.Context, tenantID int64, integrationID string) ([]*Record, error)

	// ListWithPagination retrieves records with filters and pagination
	ListWithPagination(ctx context.Context, tenantID int64, integrationID string, filter Filter, limit, offset int) ([]*Record, int64, error)

	// CountUnresolvedBySeverity aggregates unresolved records for the summary
	CountUnresolvedBySeverity(ctx context.Context, tenantID int64, integrationID string) (*Summary, error)
}
