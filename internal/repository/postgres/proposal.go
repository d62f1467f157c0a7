package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"strings"
	"time"

	"github.com/lib/pq"
	"github.com/toolbridge-io/toolbridge/internal/domain/integration"
	"github.com/toolbridge-io/toolbridge/internal/domain/proposal"
	"github.com/toolbridge-io/toolbridge/internal/pkg/errors"
)

type ProposalRepository struct {
	db *DB
}

func NewProposalRepository(db *DB) proposal.Repository {
	return &ProposalRepository{db: db}
}

const proposalColumns = `id, tenant_id, integration_id, status, drift_record_ids, schema_diff, affected_tool_ids, suggestions, prior_schema_version, created_at, decided_at`

func (r *ProposalRepository) Create(ctx context.Context, p *proposal.Proposal) error {
	recordIDs, err := json.Marshal(p.DriftRecordIDs)
	if err != nil {
		return errors.Internal("Failed to encode drift record ids", err)
	}
	diff, err := json.Marshal(p.SchemaDiff)
	if err != nil {
		return errors.Internal("Failed to encode schema diff", err)
	}
	toolIDs, err := json.Marshal(p.AffectedToolIDs)
	if err != nil {
		return errors.Internal("Failed to encode affected tool ids", err)
	}
	suggestions, err := json.Marshal(p.Suggestions)
	if err != nil {
		return errors.Internal("Failed to encode suggestions", err)
	}

	query := `INSERT INTO maintenance_proposals (` + proposalColumns + `) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	_, err = r.db.ExecContext(ctx, query,
		p.ID, p.TenantID, p.IntegrationID, p.Status,
		string(recordIDs), string(diff), string(toolIDs), string(suggestions),
		nullableInt(p.PriorSchemaVersion), p.CreatedAt.Format(time.RFC3339), nullableTime(p.DecidedAt))
	if err != nil {
		// The partial unique index allows one pending proposal per integration
		if isUniqueViolation(err) {
			return proposal.ErrPendingExists
		}
		return errors.DatabaseError("Failed to create proposal", err)
	}

	return nil
}

func (r *ProposalRepository) GetByID(ctx context.Context, tenantID int64, id string) (*proposal.Proposal, error) {
	query := `SELECT ` + proposalColumns + ` FROM maintenance_proposals WHERE tenant_id = ? AND id = ?`

	p, err := scanProposal(r.db.QueryRowContext(ctx, query, tenantID, id))
	if err == sql.ErrNoRows {
		return nil, errors.ProposalNotFound()
	}
	if err != nil {
		return nil, err
	}
	return p, nil
}

func (r *ProposalRepository) GetPendingByIntegration(ctx context.Context, tenantID int64, integrationID string) (*proposal.Proposal, error) {
	query := `SELECT ` + proposalColumns + ` FROM maintenance_proposals WHERE tenant_id = ? AND integration_id = ? AND status = ?`

	p, err := scanProposal(r.db.QueryRowContext(ctx, query, tenantID, integrationID, proposal.StatusPending))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return p, nil
}

func (r *ProposalRepository) List(ctx context.Context, tenantID int64, integrationID string, limit, offset int) ([]*proposal.Proposal, int64, error) {
	var total int64
	err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM maintenance_proposals WHERE tenant_id = ? AND integration_id = ?", tenantID, integrationID).Scan(&total)
	if err != nil {
		return nil, 0, errors.DatabaseError("Failed to count proposals", err)
	}

	query := `SELECT ` + proposalColumns + ` FROM maintenance_proposals WHERE tenant_id = ? AND integration_id = ? ORDER BY created_at DESC LIMIT ? OFFSET ?`

	rows, err := r.db.QueryContext(ctx, query, tenantID, integrationID, limit, offset)
	if err != nil {
		return nil, 0, errors.DatabaseError("Failed to list proposals", err)
	}
	defer rows.Close()

	var proposals []*proposal.Proposal
	for rows.Next() {
		p, err := scanProposal(rows)
		if err != nil {
			return nil, 0, err
		}
		proposals = append(proposals, p)
	}

	return proposals, total, rows.Err()
}

func (r *ProposalRepository) CountByStatus(ctx context.Context, tenantID int64, integrationID string) (map[proposal.Status]int, error) {
	query := `SELECT status, COUNT(*) FROM maintenance_proposals WHERE tenant_id = ? AND integration_id = ? GROUP BY status`

	rows, err := r.db.QueryContext(ctx, query, tenantID, integrationID)
	if err != nil {
		return nil, errors.DatabaseError("Failed to count proposals by status", err)
	}
	defer rows.Close()

	counts := make(map[proposal.Status]int)
	for rows.Next() {
		var status string
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return nil, errors.DatabaseError("Failed to scan count", err)
		}
		counts[proposal.Status(status)] = count
	}

	return counts, rows.Err()
}

// Approve flips pending -> approved, writes the new schema version and marks
// the referenced drift records resolved, all in one transaction. The status
// update is a compare-and-set so a concurrent approve or reject loses cleanly.
func (r *ProposalRepository) Approve(ctx context.Context, p *proposal.Proposal, newSchema *integration.Schema) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return errors.DatabaseError("Failed to begin transaction", err)
	}
	defer tx.Rollback()

	if err := r.casStatus(ctx, tx, p, proposal.StatusPending); err != nil {
		return err
	}

	if err := insertSchemaTx(ctx, tx, newSchema); err != nil {
		return err
	}

	if err := resolveDriftRecordsTx(ctx, tx, p.TenantID, p.DriftRecordIDs); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return errors.DatabaseError("Failed to commit approval", err)
	}
	return nil
}

// Reject flips pending -> rejected; the drift records stay unresolved
func (r *ProposalRepository) Reject(ctx context.Context, p *proposal.Proposal) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return errors.DatabaseError("Failed to begin transaction", err)
	}
	defer tx.Rollback()

	if err := r.casStatus(ctx, tx, p, proposal.StatusPending); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return errors.DatabaseError("Failed to commit rejection", err)
	}
	return nil
}

// Revert flips approved -> reverted and writes the restored snapshot as a new
// schema version in the same transaction.
func (r *ProposalRepository) Revert(ctx context.Context, p *proposal.Proposal, restored *integration.Schema) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return errors.DatabaseError("Failed to begin transaction", err)
	}
	defer tx.Rollback()

	if err := r.casStatus(ctx, tx, p, proposal.StatusApproved); err != nil {
		return err
	}

	if err := insertSchemaTx(ctx, tx, restored); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return errors.DatabaseError("Failed to commit revert", err)
	}
	return nil
}

// UpdateDecisions persists the suggestion decisions and the accepted
// description writes together
func (r *ProposalRepository) UpdateDecisions(ctx context.Context, p *proposal.Proposal, acceptedDescriptions map[string]string) error {
	suggestions, err := json.Marshal(p.Suggestions)
	if err != nil {
		return errors.Internal("Failed to encode suggestions", err)
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return errors.DatabaseError("Failed to begin transaction", err)
	}
	defer tx.Rollback()

	result, err := tx.ExecContext(ctx,
		`UPDATE maintenance_proposals SET suggestions = ? WHERE tenant_id = ? AND id = ? AND status = ?`,
		string(suggestions), p.TenantID, p.ID, proposal.StatusApproved)
	if err != nil {
		return errors.DatabaseError("Failed to update suggestions", err)
	}
	rows, err := result.RowsAffected()
	if err != nil || rows == 0 {
		return errors.ProposalNotFound()
	}

	now := time.Now().Format(time.RFC3339)
	for toolID, description := range acceptedDescriptions {
		result, err := tx.ExecContext(ctx,
			`UPDATE tools SET description = ?, updated_at = ? WHERE tenant_id = ? AND id = ?`,
			description, now, p.TenantID, toolID)
		if err != nil {
			return errors.DatabaseError("Failed to update tool description", err)
		}
		rows, err := result.RowsAffected()
		if err != nil || rows == 0 {
			return errors.ToolNotFound()
		}
	}

	if err := tx.Commit(); err != nil {
		return errors.DatabaseError("Failed to commit decisions", err)
	}
	return nil
}

// casStatus writes the proposal's new status guarded by the expected current
// one. On a miss it re-reads the row to distinguish a vanished proposal from
// a concurrent transition.
func (r *ProposalRepository) casStatus(ctx context.Context, tx *Tx, p *proposal.Proposal, from proposal.Status) error {
	result, err := tx.ExecContext(ctx,
		`UPDATE maintenance_proposals SET status = ?, prior_schema_version = ?, decided_at = ? WHERE tenant_id = ? AND id = ? AND status = ?`,
		p.Status, nullableInt(p.PriorSchemaVersion), nullableTime(p.DecidedAt), p.TenantID, p.ID, from)
	if err != nil {
		return errors.DatabaseError("Failed to update proposal status", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return errors.DatabaseError("Failed to update proposal status", err)
	}
	if rows == 0 {
		var current string
		err := tx.QueryRowContext(ctx,
			`SELECT status FROM maintenance_proposals WHERE tenant_id = ? AND id = ?`,
			p.TenantID, p.ID).Scan(&current)
		if err == sql.ErrNoRows {
			return errors.ProposalNotFound()
		}
		if err != nil {
			return errors.DatabaseError("Failed to read proposal status", err)
		}
		return errors.InvalidProposalState(current)
	}
	return nil
}

func resolveDriftRecordsTx(ctx context.Context, tx *Tx, tenantID int64, recordIDs []string) error {
	if len(recordIDs) == 0 {
		return nil
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(recordIDs)), ", ")
	args := []interface{}{true, time.Now().Format(time.RFC3339), tenantID}
	for _, id := range recordIDs {
		args = append(args, id)
	}

	_, err := tx.ExecContext(ctx,
		`UPDATE drift_records SET resolved = ?, resolved_at = ? WHERE tenant_id = ? AND id IN (`+placeholders+`)`,
		args...)
	if err != nil {
		return errors.DatabaseError("Failed to resolve drift records", err)
	}
	return nil
}

func scanProposal(row rowScanner) (*proposal.Proposal, error) {
	var p proposal.Proposal
	var recordIDs, diff, toolIDs, suggestions, createdAt string
	var priorVersion sql.NullInt64
	var decidedAt sql.NullString
	err := row.Scan(&p.ID, &p.TenantID, &p.IntegrationID, &p.Status, &recordIDs, &diff, &toolIDs, &suggestions, &priorVersion, &createdAt, &decidedAt)
	if err == sql.ErrNoRows {
		return nil, err
	}
	if err != nil {
		return nil, errors.DatabaseError("Failed to scan proposal", err)
	}

	if err := json.Unmarshal([]byte(recordIDs), &p.DriftRecordIDs); err != nil {
		return nil, errors.Internal("Failed to decode drift record ids", err)
	}
	if err := json.Unmarshal([]byte(diff), &p.SchemaDiff); err != nil {
		return nil, errors.Internal("Failed to decode schema diff", err)
	}
	if err := json.Unmarshal([]byte(toolIDs), &p.AffectedToolIDs); err != nil {
		return nil, errors.Internal("Failed to decode affected tool ids", err)
	}
	if err := json.Unmarshal([]byte(suggestions), &p.Suggestions); err != nil {
		return nil, errors.Internal("Failed to decode suggestions", err)
	}
	if priorVersion.Valid {
		v := int(priorVersion.Int64)
		p.PriorSchemaVersion = &v
	}
	p.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	if decidedAt.Valid {
		t, _ := time.Parse(time.RFC3339, decidedAt.String)
		p.DecidedAt = &t
	}
	return &p, nil
}

// isUniqueViolation matches the unique constraint error of both drivers
func isUniqueViolation(err error) bool {
	if pqErr, ok := err.(*pq.Error); ok {
		return pqErr.Code == "23505"
	}
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}

func nullableInt(v *int) interface{} {
	if v == nil {
		return nil
	}
	return *v
}

func nullableTime(t *time.Time) interface{} {
	if t == nil {
		return nil
	}
	return t.Format(time.RFC3339)
}
