package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/toolbridge-io/toolbridge/internal/domain/integration"
	"github.com/toolbridge-io/toolbridge/internal/pkg/errors"
)

type IntegrationRepository struct {
	db *DB
}

func NewIntegrationRepository(db *DB) integration.Repository {
	return &IntegrationRepository{db: db}
}

func (r *IntegrationRepository) Create(ctx context.Context, i *integration.Integration) error {
	now := time.Now()
	i.CreatedAt = now
	i.UpdatedAt = now

	query := `INSERT INTO integrations (id, tenant_id, name, provider, status, schema_version, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`

	_, err := r.db.ExecContext(ctx, query, i.ID, i.TenantID, i.Name, i.Provider, i.Status, i.SchemaVersion, now.Format(time.RFC3339), now.Format(time.RFC3339))
	if err != nil {
		return errors.DatabaseError("Failed to create integration", err)
	}

	return nil
}

func (r *IntegrationRepository) GetByID(ctx context.Context, tenantID int64, id string) (*integration.Integration, error) {
	query := `SELECT id, tenant_id, name, provider, status, schema_version, created_at, updated_at FROM integrations WHERE tenant_id = ? AND id = ?`

	var i integration.Integration
	var createdAt, updatedAt string
	err := r.db.QueryRowContext(ctx, query, tenantID, id).Scan(&i.ID, &i.TenantID, &i.Name, &i.Provider, &i.Status, &i.SchemaVersion, &createdAt, &updatedAt)

	if err == sql.ErrNoRows {
		return nil, errors.IntegrationNotFound()
	}
	if err != nil {
		return nil, errors.DatabaseError("Failed to get integration", err)
	}

	i.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	i.UpdatedAt, _ = time.Parse(time.RFC3339, updatedAt)
	return &i, nil
}

func (r *IntegrationRepository) List(ctx context.Context, tenantID int64, limit, offset int) ([]*integration.Integration, int64, error) {
	var total int64
	err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM integrations WHERE tenant_id = ?", tenantID).Scan(&total)
	if err != nil {
		return nil, 0, errors.DatabaseError("Failed to count integrations", err)
	}

	query := `SELECT id, tenant_id, name, provider, status, schema_version, created_at, updated_at FROM integrations WHERE tenant_id = ? ORDER BY created_at DESC LIMIT ? OFFSET ?`

	rows, err := r.db.QueryContext(ctx, query, tenantID, limit, offset)
	if err != nil {
		return nil, 0, errors.DatabaseError("Failed to list integrations", err)
	}
	defer rows.Close()

	var integrations []*integration.Integration
	for rows.Next() {
		var i integration.Integration
		var createdAt, updatedAt string
		err := rows.Scan(&i.ID, &i.TenantID, &i.Name, &i.Provider, &i.Status, &i.SchemaVersion, &createdAt, &updatedAt)
		if err != nil {
			return nil, 0, errors.DatabaseError("Failed to scan integration", err)
		}
		i.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
		i.UpdatedAt, _ = time.Parse(time.RFC3339, updatedAt)
		integrations = append(integrations, &i)
	}

	return integrations, total, rows.Err()
}

func (r *IntegrationRepository) UpdateStatus(ctx context.Context, tenantID int64, id string, status string) error {
	query := `UPDATE integrations SET status = ?, updated_at = ? WHERE tenant_id = ? AND id = ?`

	result, err := r.db.ExecContext(ctx, query, status, time.Now().Format(time.RFC3339), tenantID, id)
	if err != nil {
		return errors.DatabaseError("Failed to update integration status", err)
	}

	rows, err := result.RowsAffected()
	if err != nil || rows == 0 {
		return errors.IntegrationNotFound()
	}

	return nil
}

// SaveSchema writes the schema version row and moves the integration's
// current version pointer in one transaction.
func (r *IntegrationRepository) SaveSchema(ctx context.Context, s *integration.Schema) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return errors.DatabaseError("Failed to begin transaction", err)
	}
	defer tx.Rollback()

	if err := insertSchemaTx(ctx, tx, s); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return errors.DatabaseError("Failed to commit schema", err)
	}
	return nil
}

// insertSchemaTx is shared with the proposal repository, whose approve and
// revert transactions also write schema versions.
func insertSchemaTx(ctx context.Context, tx *Tx, s *integration.Schema) error {
	actions, err := json.Marshal(s.Actions)
	if err != nil {
		return errors.Internal("Failed to encode schema actions", err)
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO integration_schemas (integration_id, version, actions, captured_at) VALUES (?, ?, ?, ?)`,
		s.IntegrationID, s.Version, string(actions), s.CapturedAt.Format(time.RFC3339))
	if err != nil {
		return errors.DatabaseError("Failed to save schema version", err)
	}

	result, err := tx.ExecContext(ctx,
		`UPDATE integrations SET schema_version = ?, updated_at = ? WHERE id = ?`,
		s.Version, time.Now().Format(time.RFC3339), s.IntegrationID)
	if err != nil {
		return errors.DatabaseError("Failed to update schema version pointer", err)
	}

	rows, err := result.RowsAffected()
	if err != nil || rows == 0 {
		return errors.IntegrationNotFound()
	}
	return nil
}

func (r *IntegrationRepository) GetSchema(ctx context.Context, integrationID string, version int) (*integration.Schema, error) {
	query := `SELECT integration_id, version, actions, captured_at FROM integration_schemas WHERE integration_id = ? AND version = ?`

	var s integration.Schema
	var actions, capturedAt string
	err := r.db.QueryRowContext(ctx, query, integrationID, version).Scan(&s.IntegrationID, &s.Version, &actions, &capturedAt)

	if err == sql.ErrNoRows {
		return nil, errors.NotFound("INTEGRATION_NOT_FOUND", "Schema version")
	}
	if err != nil {
		return nil, errors.DatabaseError("Failed to get schema", err)
	}

	if err := json.Unmarshal([]byte(actions), &s.Actions); err != nil {
		return nil, errors.Internal("Failed to decode schema actions", err)
	}
	s.CapturedAt, _ = time.Parse(time.RFC3339, capturedAt)
	return &s, nil
}

// SaveObservedSchema upserts the single observed row per integration
func (r *IntegrationRepository) SaveObservedSchema(ctx context.Context, s *integration.Schema) error {
	actions, err := json.Marshal(s.Actions)
	if err != nil {
		return errors.Internal("Failed to encode observed schema", err)
	}

	query := `INSERT INTO observed_schemas (integration_id, actions, captured_at) VALUES (?, ?, ?)
		ON CONFLICT (integration_id) DO UPDATE SET actions = excluded.actions, captured_at = excluded.captured_at`

	_, err = r.db.ExecContext(ctx, query, s.IntegrationID, string(actions), s.CapturedAt.Format(time.RFC3339))
	if err != nil {
		return errors.DatabaseError("Failed to save observed schema", err)
	}
	return nil
}

func (r *IntegrationRepository) GetObservedSchema(ctx context.Context, integrationID string) (*integration.Schema, error) {
	query := `SELECT integration_id, actions, captured_at FROM observed_schemas WHERE integration_id = ?`

	var s integration.Schema
	var actions, capturedAt string
	err := r.db.QueryRowContext(ctx, query, integrationID).Scan(&s.IntegrationID, &actions, &capturedAt)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, errors.DatabaseError("Failed to get observed schema", err)
	}

	if err := json.Unmarshal([]byte(actions), &s.Actions); err != nil {
		return nil, errors.Internal("Failed to decode observed schema", err)
	}
	s.CapturedAt, _ = time.Parse(time.RFC3339, capturedAt)
	return &s, nil
}

func (r *IntegrationRepository) CreateConnectSession(ctx context.Context, cs *integration.ConnectSession) error {
	cs.CreatedAt = time.Now()

	query := `INSERT INTO connect_sessions (id, tenant_id, integration_id, token, status, expires_at, created_at) VALUES (?, ?, ?, ?, ?, ?, ?)`

	_, err := r.db.ExecContext(ctx, query, cs.ID, cs.TenantID, cs.IntegrationID, cs.Token, cs.Status, cs.ExpiresAt.Format(time.RFC3339), cs.CreatedAt.Format(time.RFC3339))
	if err != nil {
		return errors.DatabaseError("Failed to create connect session", err)
	}

	return nil
}
