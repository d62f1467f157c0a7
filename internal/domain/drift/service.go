package drift

import (
	"context"

	"github.com/toolbridge-io/toolbridge/internal/domain/integration"
)

// Service defines the interface for drift business logic
type Service interface {
	// Detect diffs a freshly fetched upstream schema against the stored
	// snapshot and persists the resulting records. When fetched is nil the
	// configured SchemaFetcher is used.
	Detect(ctx context.Context, tenantID int64, integrationID string, fetched *integration.Schema) ([]*Record, error)

	// List retrieves records with filters and pagination
	List(ctx context.Context, tenantID int64, integrationID string, filter Filter, limit, offset int) ([]*Record, int64, error)

	// GetSummary returns unresolved severity counts for one integration
	GetSummary(ctx context.Context, tenantID int64, integrationID string) (*Summary, error)
}
