package job

import "time"

// ScheduledJob is a recurring drift scan for one integration
type ScheduledJob struct {
	ID            string     `json:"id"`
	TenantID      int64      `json:"tenant_id"`
	IntegrationID string     `json:"integration_id"`
	Schedule      string     `json:"schedule"` // cron expression
	IsEnabled     bool       `json:"is_enabled"`
	LastRun       *time.Time `json:"last_run,omitempty"`
	NextRun       *time.Time `json:"next_run,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at,omitempty"`
}

// Execution is a single run of a scheduled job
type Execution struct {
	ID           string          `json:"id"`
	JobID        string          `json:"job_id"`
	TenantID     int64           `json:"tenant_id"`
	Status       ExecutionStatus `json:"status"`
	StartedAt    *time.Time      `json:"started_at,omitempty"`
	CompletedAt  *time.Time      `json:"completed_at,omitempty"`
	RecordsFound int             `json:"records_found"`
	ErrorMessage string          `json:"error_message,omitempty"`
	RetryCount   int             `json:"retry_count"`
	CreatedAt    time.Time       `json:"created_at"`
}

// ExecutionStatus represents the status of a job execution
type ExecutionStatus string

const (
	ExecutionStatusPending   ExecutionStatus = "pending"
	ExecutionStatusRunning   ExecutionStatus = "running"
	ExecutionStatusCompleted ExecutionStatus = "completed"
	ExecutionStatusFailed    ExecutionStatus = "failed"
)

// Filter contains job filtering options
type Filter struct {
	IntegrationID string
	IsEnabled     *bool
}
