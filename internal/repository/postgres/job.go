package postgres

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/toolbridge-io/toolbridge/internal/domain/job"
	"github.com/toolbridge-io/toolbridge/internal/pkg/errors"
)

type JobRepository struct {
	db *DB
}

func NewJobRepository(db *DB) job.Repository {
	return &JobRepository{db: db}
}

const jobColumns = `id, tenant_id, integration_id, schedule, is_enabled, last_run, next_run, created_at, updated_at`

func (r *JobRepository) CreateJob(ctx context.Context, j *job.ScheduledJob) error {
	query := `INSERT INTO scheduled_jobs (` + jobColumns + `) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`

	_, err := r.db.ExecContext(ctx, query,
		j.ID, j.TenantID, j.IntegrationID, j.Schedule, j.IsEnabled,
		nullableTime(j.LastRun), nullableTime(j.NextRun),
		j.CreatedAt.Format(time.RFC3339), j.UpdatedAt.Format(time.RFC3339))
	if err != nil {
		return errors.DatabaseError("Failed to create scheduled job", err)
	}

	return nil
}

func (r *JobRepository) GetJobByID(ctx context.Context, tenantID int64, id string) (*job.ScheduledJob, error) {
	query := `SELECT ` + jobColumns + ` FROM scheduled_jobs WHERE tenant_id = ? AND id = ?`

	j, err := scanJob(r.db.QueryRowContext(ctx, query, tenantID, id))
	if err == sql.ErrNoRows {
		return nil, errors.JobNotFound()
	}
	if err != nil {
		return nil, err
	}
	return j, nil
}

func (r *JobRepository) GetJobByIntegration(ctx context.Context, tenantID int64, integrationID string) (*job.ScheduledJob, error) {
	query := `SELECT ` + jobColumns + ` FROM scheduled_jobs WHERE tenant_id = ? AND integration_id = ?`

	j, err := scanJob(r.db.QueryRowContext(ctx, query, tenantID, integrationID))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return j, nil
}

func (r *JobRepository) ListJobs(ctx context.Context, tenantID int64, filter job.Filter) ([]*job.ScheduledJob, error) {
	where := []string{"tenant_id = ?"}
	args := []interface{}{tenantID}

	if filter.IntegrationID != "" {
		where = append(where, "integration_id = ?")
		args = append(args, filter.IntegrationID)
	}
	if filter.IsEnabled != nil {
		where = append(where, "is_enabled = ?")
		args = append(args, *filter.IsEnabled)
	}

	query := `SELECT ` + jobColumns + ` FROM scheduled_jobs WHERE ` + strings.Join(where, " AND ") + ` ORDER BY created_at DESC`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errors.DatabaseError("Failed to list scheduled jobs", err)
	}
	defer rows.Close()

	var jobs []*job.ScheduledJob
	for rows.Next() {
		j, err := scanJob(rows)
		if err != nil {
			return nil, err
		}
		jobs = append(jobs, j)
	}

	return jobs, rows.Err()
}

func (r *JobRepository) ListEnabledJobs(ctx context.Context) ([]*job.ScheduledJob, error) {
	query := `SELECT ` + jobColumns + ` FROM scheduled_jobs WHERE is_enabled = ?`

	rows, err := r.db.QueryContext(ctx, query, true)
	if err != nil {
		return nil, errors.DatabaseError("Failed to list enabled jobs", err)
	}
	defer rows.Close()

	var jobs []*job.ScheduledJob
	for rows.Next() {
		j, err := scanJob(rows)
		if err != nil {
			return nil, err
		}
		jobs = append(jobs, j)
	}

	return jobs, rows.Err()
}

func (r *JobRepository) UpdateJob(ctx context.Context, j *job.ScheduledJob) error {
	query := `UPDATE scheduled_jobs SET schedule = ?, is_enabled = ?, last_run = ?, next_run = ?, updated_at = ? WHERE tenant_id = ? AND id = ?`

	result, err := r.db.ExecContext(ctx, query,
		j.Schedule, j.IsEnabled, nullableTime(j.LastRun), nullableTime(j.NextRun),
		time.Now().Format(time.RFC3339), j.TenantID, j.ID)
	if err != nil {
		return errors.DatabaseError("Failed to update scheduled job", err)
	}

	rows, err := result.RowsAffected()
	if err != nil || rows == 0 {
		return errors.JobNotFound()
	}

	return nil
}

func (r *JobRepository) CreateExecution(ctx context.Context, e *job.Execution) error {
	query := `INSERT INTO job_executions (id, job_id, tenant_id, status, started_at, completed_at, records_found, error_message, retry_count, created_at) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	_, err := r.db.ExecContext(ctx, query,
		e.ID, e.JobID, e.TenantID, e.Status,
		nullableTime(e.StartedAt), nullableTime(e.CompletedAt),
		e.RecordsFound, e.ErrorMessage, e.RetryCount, e.CreatedAt.Format(time.RFC3339))
	if err != nil {
		return errors.DatabaseError("Failed to create job execution", err)
	}

	return nil
}

func (r *JobRepository) GetExecutionByID(ctx context.Context, tenantID int64, id string) (*job.Execution, error) {
	query := `SELECT id, job_id, tenant_id, status, started_at, completed_at, records_found, error_message, retry_count, created_at FROM job_executions WHERE tenant_id = ? AND id = ?`

	e, err := scanExecution(r.db.QueryRowContext(ctx, query, tenantID, id))
	if err == sql.ErrNoRows {
		return nil, errors.NotFound("JOB_NOT_FOUND", "Job execution")
	}
	if err != nil {
		return nil, err
	}
	return e, nil
}

func (r *JobRepository) UpdateExecution(ctx context.Context, e *job.Execution) error {
	query := `UPDATE job_executions SET status = ?, started_at = ?, completed_at = ?, records_found = ?, error_message = ?, retry_count = ? WHERE tenant_id = ? AND id = ?`

	result, err := r.db.ExecContext(ctx, query,
		e.Status, nullableTime(e.StartedAt), nullableTime(e.CompletedAt),
		e.RecordsFound, e.ErrorMessage, e.RetryCount, e.TenantID, e.ID)
	if err != nil {
		return errors.DatabaseError("Failed to update job execution", err)
	}

	rows, err := result.RowsAffected()
	if err != nil || rows == 0 {
		return errors.NotFound("JOB_NOT_FOUND", "Job execution")
	}

	return nil
}

func (r *JobRepository) ListExecutions(ctx context.Context, tenantID int64, jobID string, limit, offset int) ([]*job.Execution, int64, error) {
	var total int64
	err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM job_executions WHERE tenant_id = ? AND job_id = ?", tenantID, jobID).Scan(&total)
	if err != nil {
		return nil, 0, errors.DatabaseError("Failed to count job executions", err)
	}

	query := `SELECT id, job_id, tenant_id, status, started_at, completed_at, records_found, error_message, retry_count, created_at FROM job_executions WHERE tenant_id = ? AND job_id = ? ORDER BY created_at DESC LIMIT ? OFFSET ?`

	rows, err := r.db.QueryContext(ctx, query, tenantID, jobID, limit, offset)
	if err != nil {
		return nil, 0, errors.DatabaseError("Failed to list job executions", err)
	}
	defer rows.Close()

	var executions []*job.Execution
	for rows.Next() {
		e, err := scanExecution(rows)
		if err != nil {
			return nil, 0, err
		}
		executions = append(executions, e)
	}

	return executions, total, rows.Err()
}

func scanJob(row rowScanner) (*job.ScheduledJob, error) {
	var j job.ScheduledJob
	var lastRun, nextRun sql.NullString
	var createdAt, updatedAt string
	err := row.Scan(&j.ID, &j.TenantID, &j.IntegrationID, &j.Schedule, &j.IsEnabled, &lastRun, &nextRun, &createdAt, &updatedAt)
	if err == sql.ErrNoRows {
		return nil, err
	}
	if err != nil {
		return nil, errors.DatabaseError("Failed to scan scheduled job", err)
	}

	if lastRun.Valid {
		t, _ := time.Parse(time.RFC3339, lastRun.String)
		j.LastRun = &t
	}
	if nextRun.Valid {
		t, _ := time.Parse(time.RFC3339, nextRun.String)
		j.NextRun = &t
	}
	j.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	j.UpdatedAt, _ = time.Parse(time.RFC3339, updatedAt)
	return &j, nil
}

func scanExecution(row rowScanner) (*job.Execution, error) {
	var e job.Execution
	var startedAt, completedAt sql.NullString
	var createdAt string
	err := row.Scan(&e.ID, &e.JobID, &e.TenantID, &e.Status, &startedAt, &completedAt, &e.RecordsFound, &e.ErrorMessage, &e.RetryCount, &createdAt)
	if err == sql.ErrNoRows {
		return nil, err
	}
	if err != nil {
		return nil, errors.DatabaseError("Failed to scan job execution", err)
	}

	if startedAt.Valid {
		t, _ := time.Parse(time.RFC3339, startedAt.String)
		e.StartedAt = &t
	}
	if completedAt.Valid {
		t, _ := time.Parse(time.RFC3339, completedAt.String)
		e.CompletedAt = &t
	}
	e.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	return &e, nil
}
