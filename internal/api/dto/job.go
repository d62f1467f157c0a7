package dto

import (
	"time"

	"github.com/toolbridge-io/toolbridge/internal/domain/job"
)

// ScheduledJobDTO represents a scheduled drift scan in API responses
type ScheduledJobDTO struct {
	ID            string     `json:"id"`
	IntegrationID string     `json:"integrationId"`
	Schedule      string     `json:"schedule"`
	IsEnabled     bool       `json:"isEnabled"`
	LastRun       *time.Time `json:"lastRun,omitempty"`
	NextRun       *time.Time `json:"nextRun,omitempty"`
	CreatedAt     time.Time  `json:"createdAt"`
}

// CreateJobRequest represents a scheduled scan creation request
type CreateJobRequest struct {
	IntegrationID string `json:"integrationId" validate:"required"`
	Schedule      string `json:"schedule" validate:"required"`
}

// JobExecutionDTO represents one run of a scheduled job
type JobExecutionDTO struct {
	ID           string     `json:"id"`
	JobID        string     `json:"jobId"`
	Status       string     `json:"status"`
	StartedAt    *time.Time `json:"startedAt,omitempty"`
	CompletedAt  *time.Time `json:"completedAt,omitempty"`
	RecordsFound int        `json:"recordsFound"`
	ErrorMessage string     `json:"errorMessage,omitempty"`
	RetryCount   int        `json:"retryCount"`
	CreatedAt    time.Time  `json:"createdAt"`
}

// NewScheduledJobDTO maps a domain job to its DTO
func NewScheduledJobDTO(j *job.ScheduledJob) ScheduledJobDTO {
	return ScheduledJobDTO{
		ID:            j.ID,
		IntegrationID: j.IntegrationID,
		Schedule:      j.Schedule,
		IsEnabled:     j.IsEnabled,
		LastRun:       j.LastRun,
		NextRun:       j.NextRun,
		CreatedAt:     j.CreatedAt,
	}
}

// NewJobExecutionDTO maps a domain execution to its DTO
func NewJobExecutionDTO(e *job.Execution) JobExecutionDTO {
	return JobExecutionDTO{
		ID:           e.ID,
		JobID:        e.JobID,
		Status:       string(e.Status),
		StartedAt:    e.StartedAt,
		CompletedAt:  e.CompletedAt,
		RecordsFound: e.RecordsFound,
		ErrorMessage: e.ErrorMessage,
		RetryCount:   e.RetryCount,
		CreatedAt:    e.CreatedAt,
	}
}
