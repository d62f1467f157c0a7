package job

import "context"

// Service defines the interface for scheduled drift scan jobs
type Service interface {
	// CreateJob schedules recurring drift scans for an integration
	CreateJob(ctx context.Context, tenantID int64, integrationID, schedule string) (*ScheduledJob, error)

	// ListJobs retrieves a tenant's scheduled jobs
	ListJobs(ctx context.Context, tenantID int64, filter Filter) ([]*ScheduledJob, error)

	// ListExecutions retrieves executions for a job with pagination
	ListExecutions(ctx context.Context, tenantID int64, jobID string, limit, offset int) ([]*Execution, int64, error)

	// RetryExecution re-runs a failed execution as a new attempt on the same
	// execution record
	RetryExecution(ctx context.Context, tenantID int64, executionID string) (*Execution, error)

	// Start launches the cron scheduler; Stop drains it
	Start(ctx context.Context) error
	Stop()
}
