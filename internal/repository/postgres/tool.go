package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/toolbridge-io/toolbridge/internal/domain/tool"
	"github.com/toolbridge-io/toolbridge/internal/pkg/errors"
)

type ToolRepository struct {
	db *DB
}

func NewToolRepository(db *DB) tool.Repository {
	return &ToolRepository{db: db}
}

func (r *ToolRepository) Create(ctx context.Context, t *tool.Tool) error {
	now := time.Now()
	t.CreatedAt = now
	t.UpdatedAt = now

	refs, err := json.Marshal(t.FieldRefs)
	if err != nil {
		return errors.Internal("Failed to encode field refs", err)
	}

	query := `INSERT INTO tools (id, tenant_id, integration_id, name, action, description, field_refs, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`

	_, err = r.db.ExecContext(ctx, query, t.ID, t.TenantID, t.IntegrationID, t.Name, t.Action, t.Description, string(refs), now.Format(time.RFC3339), now.Format(time.RFC3339))
	if err != nil {
		return errors.DatabaseError("Failed to create tool", err)
	}

	return nil
}

func (r *ToolRepository) GetByID(ctx context.Context, tenantID int64, id string) (*tool.Tool, error) {
	query := `SELECT id, tenant_id, integration_id, name, action, description, field_refs, created_at, updated_at FROM tools WHERE tenant_id = ? AND id = ?`

	t, err := scanTool(r.db.QueryRowContext(ctx, query, tenantID, id))
	if err == sql.ErrNoRows {
		return nil, errors.ToolNotFound()
	}
	if err != nil {
		return nil, err
	}
	return t, nil
}

func (r *ToolRepository) ListByIntegration(ctx context.Context, tenantID int64, integrationID string) ([]*tool.Tool, error) {
	query := `SELECT id, tenant_id, integration_id, name, action, description, field_refs, created_at, updated_at FROM tools WHERE tenant_id = ? AND integration_id = ? ORDER BY name`

	rows, err := r.db.QueryContext(ctx, query, tenantID, integrationID)
	if err != nil {
		return nil, errors.DatabaseError("Failed to list tools", err)
	}
	defer rows.Close()

	var tools []*tool.Tool
	for rows.Next() {
		t, err := scanTool(rows)
		if err != nil {
			return nil, err
		}
		tools = append(tools, t)
	}

	return tools, rows.Err()
}

func (r *ToolRepository) ListWithPagination(ctx context.Context, tenantID int64, filter tool.Filter, limit, offset int) ([]*tool.Tool, int64, error) {
	where := []string{"tenant_id = ?"}
	args := []interface{}{tenantID}

	if filter.IntegrationID != "" {
		where = append(where, "integration_id = ?")
		args = append(args, filter.IntegrationID)
	}
	if filter.Action != "" {
		where = append(where, "action = ?")
		args = append(args, filter.Action)
	}

	whereClause := strings.Join(where, " AND ")

	var total int64
	err := r.db.QueryRowContext(ctx, fmt.Sprintf("SELECT COUNT(*) FROM tools WHERE %s", whereClause), args...).Scan(&total)
	if err != nil {
		return nil, 0, errors.DatabaseError("Failed to count tools", err)
	}

	query := fmt.Sprintf(`SELECT id, tenant_id, integration_id, name, action, description, field_refs, created_at, updated_at FROM tools WHERE %s ORDER BY name LIMIT ? OFFSET ?`, whereClause)

	args = append(args, limit, offset)
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, errors.DatabaseError("Failed to list tools", err)
	}
	defer rows.Close()

	var tools []*tool.Tool
	for rows.Next() {
		t, err := scanTool(rows)
		if err != nil {
			return nil, 0, err
		}
		tools = append(tools, t)
	}

	return tools, total, rows.Err()
}

func (r *ToolRepository) UpdateDescription(ctx context.Context, tenantID int64, id string, description string) error {
	query := `UPDATE tools SET description = ?, updated_at = ? WHERE tenant_id = ? AND id = ?`

	result, err := r.db.ExecContext(ctx, query, description, time.Now().Format(time.RFC3339), tenantID, id)
	if err != nil {
		return errors.DatabaseError("Failed to update tool description", err)
	}

	rows, err := result.RowsAffected()
	if err != nil || rows == 0 {
		return errors.ToolNotFound()
	}

	return nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanTool(row rowScanner) (*tool.Tool, error) {
	var t tool.Tool
	var refs, createdAt, updatedAt string
	err := row.Scan(&t.ID, &t.TenantID, &t.IntegrationID, &t.Name, &t.Action, &t.Description, &refs, &createdAt, &updatedAt)
	if err == sql.ErrNoRows {
		return nil, err
	}
	if err != nil {
		return nil, errors.DatabaseError("Failed to scan tool", err)
	}

	if err := json.Unmarshal([]byte(refs), &t.FieldRefs); err != nil {
		return nil, errors.Internal("Failed to decode field refs", err)
	}
	t.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	t.UpdatedAt, _ = time.Parse(time.RFC3339, updatedAt)
	return &t, nil
}
