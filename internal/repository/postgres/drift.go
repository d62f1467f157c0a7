package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/toolbridge-io/toolbridge/internal/domain/drift"
	"github.com/toolbridge-io/toolbridge/internal/pkg/errors"
)

type DriftRepository struct {
	db *DB
}

func NewDriftRepository(db *DB) drift.Repository {
	return &DriftRepository{db: db}
}

// CreateBatch inserts a detection pass's records in one transaction
func (r *DriftRepository) CreateBatch(ctx context.Context, records []*drift.Record) error {
	if len(records) == 0 {
		return nil
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return errors.DatabaseError("Failed to begin transaction", err)
	}
	defer tx.Rollback()

	query := `INSERT INTO drift_records (id, tenant_id, integration_id, severity, change_kind, action, field_path, change, detail, detected_at, resolved, created_at) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	stmt, err := tx.PrepareContext(ctx, query)
	if err != nil {
		return errors.DatabaseError("Failed to prepare drift insert", err)
	}
	defer stmt.Close()

	now := time.Now()
	for _, d := range records {
		d.CreatedAt = now

		change, err := json.Marshal(d.Change)
		if err != nil {
			return errors.Internal("Failed to encode field change", err)
		}

		_, err = stmt.ExecContext(ctx, d.ID, d.TenantID, d.IntegrationID, d.Severity, d.ChangeKind, d.Action, d.FieldPath, string(change), d.Detail, d.DetectedAt.Format(time.RFC3339), d.Resolved, now.Format(time.RFC3339))
		if err != nil {
			return errors.DatabaseError("Failed to create drift record", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return errors.DatabaseError("Failed to commit drift records", err)
	}
	return nil
}

func (r *DriftRepository) GetByID(ctx context.Context, tenantID int64, id string) (*drift.Record, error) {
	query := `SELECT id, tenant_id, integration_id, severity, change_kind, action, field_path, change, detail, detected_at, resolved, resolved_at, created_at FROM drift_records WHERE tenant_id = ? AND id = ?`

	d, err := scanDriftRecord(r.db.QueryRowContext(ctx, query, tenantID, id))
	if err == sql.ErrNoRows {
		return nil, errors.NotFound("NOT_FOUND", "Drift record")
	}
	if err != nil {
		return nil, err
	}
	return d, nil
}

func (r *DriftRepository) ListUnresolved(ctx context.Context, tenantID int64, integrationID string) ([]*drift.Record, error) {
	query := `SELECT id, tenant_id, integration_id, severity, change_kind, action, field_path, change, detail, detected_at, resolved, resolved_at, created_at FROM drift_records WHERE tenant_id = ? AND integration_id = ? AND resolved = ? ORDER BY detected_at ASC, id ASC`

	rows, err := r.db.QueryContext(ctx, query, tenantID, integrationID, false)
	if err != nil {
		return nil, errors.DatabaseError("Failed to list drift records", err)
	}
	defer rows.Close()

	var records []*drift.Record
	for rows.Next() {
		d, err := scanDriftRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, d)
	}

	return records, rows.Err()
}

func (r *DriftRepository) ListWithPagination(ctx context.Context, tenantID int64, integrationID string, filter drift.Filter, limit, offset int) ([]*drift.Record, int64, error) {
	where := []string{"tenant_id = ?", "integration_id = ?"}
	args := []interface{}{tenantID, integrationID}

	if filter.Severity != "" {
		where = append(where, "severity = ?")
		args = append(args, filter.Severity)
	}
	if filter.ChangeKind != "" {
		where = append(where, "change_kind = ?")
		args = append(args, filter.ChangeKind)
	}
	if filter.Resolved != nil {
		where = append(where, "resolved = ?")
		args = append(args, *filter.Resolved)
	}

	whereClause := strings.Join(where, " AND ")

	var total int64
	err := r.db.QueryRowContext(ctx, fmt.Sprintf("SELECT COUNT(*) FROM drift_records WHERE %s", whereClause), args...).Scan(&total)
	if err != nil {
		return nil, 0, errors.DatabaseError("Failed to count drift records", err)
	}

	query := fmt.Sprintf(`SELECT id, tenant_id, integration_id, severity, change_kind, action, field_path, change, detail, detected_at, resolved, resolved_at, created_at FROM drift_records WHERE %s ORDER BY detected_at DESC, id DESC LIMIT ? OFFSET ?`, whereClause)

	args = append(args, limit, offset)
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, errors.DatabaseError("Failed to list drift records", err)
	}
	defer rows.Close()

	var records []*drift.Record
	for rows.Next() {
		d, err := scanDriftRecord(rows)
		if err != nil {
			return nil, 0, err
		}
		records = append(records, d)
	}

	return records, total, rows.Err()
}

func (r *DriftRepository) CountUnresolvedBySeverity(ctx context.Context, tenantID int64, integrationID string) (*drift.Summary, error) {
	query := `SELECT severity, COUNT(*) FROM drift_records WHERE tenant_id = ? AND integration_id = ? AND resolved = ? GROUP BY severity`

	rows, err := r.db.QueryContext(ctx, query, tenantID, integrationID, false)
	if err != nil {
		return nil, errors.DatabaseError("Failed to count drift records by severity", err)
	}
	defer rows.Close()

	var summary drift.Summary
	for rows.Next() {
		var severity string
		var count int
		if err := rows.Scan(&severity, &count); err != nil {
			return nil, errors.DatabaseError("Failed to scan count", err)
		}
		switch drift.Severity(severity) {
		case drift.SeverityBreaking:
			summary.Breaking = count
		case drift.SeverityWarning:
			summary.Warning = count
		case drift.SeverityInfo:
			summary.Info = count
		}
		summary.Total += count
	}

	return &summary, rows.Err()
}

func scanDriftRecord(row rowScanner) (*drift.Record, error) {
	var d drift.Record
	var change, detectedAt, createdAt string
	var resolvedAt sql.NullString
	err := row.Scan(&d.ID, &d.TenantID, &d.IntegrationID, &d.Severity, &d.ChangeKind, &d.Action, &d.FieldPath, &change, &d.Detail, &detectedAt, &d.Resolved, &resolvedAt, &createdAt)
	if err == sql.ErrNoRows {
		return nil, err
	}
	if err != nil {
		return nil, errors.DatabaseError("Failed to scan drift record", err)
	}

	if err := json.Unmarshal([]byte(change), &d.Change); err != nil {
		return nil, errors.Internal("Failed to decode field change", err)
	}
	d.DetectedAt, _ = time.Parse(time.RFC3339, detectedAt)
	d.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	if resolvedAt.Valid {
		t, _ := time.Parse(time.RFC3339, resolvedAt.String)
		d.ResolvedAt = &t
	}
	return &d, nil
}
