package proposal

import "context"

// Service owns proposal generation and the pending -> approved|rejected,
// approved -> reverted state machine.
type Service interface {
	// Generate bundles all unresolved drift for an integration into one
	// pending proposal. If a pending proposal already exists it is returned
	// unchanged.
	Generate(ctx context.Context, tenantID int64, integrationID string) (*Proposal, error)

	// GetByID retrieves a proposal scoped to a tenant
	GetByID(ctx context.Context, tenantID int64, id string) (*Proposal, error)

	// List retrieves proposals for an integration with pagination
	List(ctx context.Context, tenantID int64, integrationID string, limit, offset int) ([]*Proposal, int64, error)

	// GetSummary returns proposal counts by status for one integration
	GetSummary(ctx context.Context, tenantID int64, integrationID string) (map[Status]int, error)

	// Approve atomically applies the proposal's schema diff, resolves the
	// referenced drift records and marks the proposal approved
	Approve(ctx context.Context, tenantID int64, id string) (*Proposal, error)

	// Reject discards the proposal; drift stays unresolved
	Reject(ctx context.Context, tenantID int64, id string) (*Proposal, error)

	// Revert restores the schema snapshot that preceded approval
	Revert(ctx context.Context, tenantID int64, id string) (*Proposal, error)

	// ApplyDescriptionDecisions records accept/skip choices for the
	// proposal's description suggestions. Legal only on approved proposals.
	ApplyDescriptionDecisions(ctx context.Context, tenantID int64, id string, decisions []DecisionInput) (*Proposal, error)
}
