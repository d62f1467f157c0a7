package proposal

import (
	"errors"

	"context"

	"github.com/toolbridge-io/toolbridge/internal/domain/integration"
)

// ErrPendingExists is returned by Create when the storage-level uniqueness
// constraint (one pending proposal per integration) rejects the insert. The
// generator treats it as "already exists" and returns the existing proposal.
var ErrPendingExists = errors.New("a pending proposal already exists for this integration")

// Repository defines the interface for proposal data access. The approve,
// reject and revert operations own their transaction boundaries: each does a
// compare-and-set on status so concurrent callers cannot double-apply.
type Repository interface {
	// Create persists a new pending proposal. Returns ErrPendingExists when
	// the integration already has one.
	Create(ctx context.Context, p *Proposal) error

	// GetByID retrieves a proposal scoped to a tenant
	GetByID(ctx context.Context, tenantID int64, id string) (*Proposal, error)

	// GetPendingByIntegration returns the pending proposal for an
	// integration, or nil when there is none
	GetPendingByIntegration(ctx context.Context, tenantID int64, integrationID string) (*Proposal, error)

	// List retrieves proposals for an integration with pagination, newest
	// first
	List(ctx context.Context, tenantID int64, integrationID string, limit, offset int) ([]*Proposal, int64, error)

	// CountByStatus aggregates proposals by status for the summary
	CountByStatus(ctx context.Context, tenantID int64, integrationID string) (map[Status]int, error)

	// Approve atomically writes the new schema version, marks the referenced
	// drift records resolved and flips status pending -> approved. The whole
	// unit commits or nothing does.
	Approve(ctx context.Context, p *Proposal, newSchema *integration.Schema) error

	// Reject flips status pending -> rejected; drift stays unresolved
	Reject(ctx context.Context, p *Proposal) error

	// Revert writes the restored schema as a new version and flips status
	// approved -> reverted; drift records stay resolved
	Revert(ctx context.Context, p *Proposal, restored *integration.Schema) error

	// UpdateDecisions persists suggestion decisions and, for accepted ones,
	// the tool description writes, in one transaction
	UpdateDecisions(ctx context.Context, p *Proposal, acceptedDescriptions map[string]string) error
}
