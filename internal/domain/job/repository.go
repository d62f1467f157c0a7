package job

import "context"

// Repository defines the interface for scheduled job data access
type Repository interface {
	CreateJob(ctx context.Context, j *ScheduledJob) error
	GetJobByID(ctx context.Context, tenantID int64, id string) (*ScheduledJob, error)
	GetJobByIntegration(ctx context.Context, tenantID int64, integrationID string) (*ScheduledJob, error)
	ListJobs(ctx context.Context, tenantID int64, filter Filter) ([]*ScheduledJob, error)
	ListEnabledJobs(ctx context.Context) ([]*ScheduledJob, error)
	UpdateJob(ctx context.Context, j *ScheduledJob) error

	CreateExecution(ctx context.Context, e *Execution) error
	GetExecutionByID(ctx context.Context, tenantID int64, id string) (*Execution, error)
	UpdateExecution(ctx context.Context, e *Execution) error
	ListExecutions(ctx context.Context, tenantID int64, jobID string, limit, offset int) ([]*Execution, int64, error)
}
