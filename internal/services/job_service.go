package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"
	"github.com/toolbridge-io/toolbridge/internal/domain/drift"
	"github.com/toolbridge-io/toolbridge/internal/domain/integration"
	"github.com/toolbridge-io/toolbridge/internal/domain/job"
	"github.com/toolbridge-io/toolbridge/internal/pkg/errors"
	"github.com/toolbridge-io/toolbridge/internal/pkg/logger"
)

const maxExecutionRetries = 3

// JobService implements job.Service using a cron scheduler. Each enabled job
// runs a drift scan for its integration on the configured schedule.
type JobService struct {
	repo            job.Repository
	integrationRepo integration.Repository
	driftService    drift.Service
	logger          *logger.Logger

	cron    *cron.Cron
	parser  cron.Parser
	mu      sync.Mutex
	entries map[string]cron.EntryID // job id -> cron entry
}

// NewJobService creates a new job service
func NewJobService(
	repo job.Repository,
	integrationRepo integration.Repository,
	driftService drift.Service,
	log *logger.Logger,
) *JobService {
	return &JobService{
		repo:            repo,
		integrationRepo: integrationRepo,
		driftService:    driftService,
		logger:          log,
		cron:            cron.New(),
		parser:          cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow),
		entries:         make(map[string]cron.EntryID),
	}
}

// CreateJob schedules recurring drift scans for an integration. One job per
// integration; a second create for the same integration conflicts.
func (s *JobService) CreateJob(ctx context.Context, tenantID int64, integrationID, schedule string) (*job.ScheduledJob, error) {
	i, err := s.integrationRepo.GetByID(ctx, tenantID, integrationID)
	if err != nil {
		return nil, err
	}

	sched, err := s.parser.Parse(schedule)
	if err != nil {
		return nil, errors.InvalidRequest(fmt.Sprintf("Invalid cron schedule: %v", err))
	}

	if existing, err := s.repo.GetJobByIntegration(ctx, tenantID, i.ID); err != nil {
		return nil, err
	} else if existing != nil {
		return nil, errors.Conflict("Integration already has a scheduled scan")
	}

	now := time.Now()
	next := sched.Next(now)
	j := &job.ScheduledJob{
		ID:            uuid.New().String(),
		TenantID:      tenantID,
		IntegrationID: i.ID,
		Schedule:      schedule,
		IsEnabled:     true,
		NextRun:       &next,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	if err := s.repo.CreateJob(ctx, j); err != nil {
		return nil, err
	}

	s.register(j)
	s.logger.WithFields(map[string]interface{}{
		"job_id":         j.ID,
		"integration_id": i.ID,
		"schedule":       schedule,
	}).Info("Scheduled drift scan created")

	return j, nil
}

// ListJobs retrieves a tenant's scheduled jobs
func (s *JobService) ListJobs(ctx context.Context, tenantID int64, filter job.Filter) ([]*job.ScheduledJob, error) {
	return s.repo.ListJobs(ctx, tenantID, filter)
}

// ListExecutions retrieves executions for a job with pagination
func (s *JobService) ListExecutions(ctx context.Context, tenantID int64, jobID string, limit, offset int) ([]*job.Execution, int64, error) {
	if _, err := s.repo.GetJobByID(ctx, tenantID, jobID); err != nil {
		return nil, 0, err
	}
	return s.repo.ListExecutions(ctx, tenantID, jobID, limit, offset)
}

// RetryExecution re-runs a failed execution as a new attempt on the same
// execution record
func (s *JobService) RetryExecution(ctx context.Context, tenantID int64, executionID string) (*job.Execution, error) {
	e, err := s.repo.GetExecutionByID(ctx, tenantID, executionID)
	if err != nil {
		return nil, err
	}
	if e.Status != job.ExecutionStatusFailed {
		return nil, errors.InvalidRequest("Only failed executions can be retried")
	}
	if e.RetryCount >= maxExecutionRetries {
		return nil, errors.InvalidRequest("Execution has exhausted its retries")
	}

	j, err := s.repo.GetJobByID(ctx, tenantID, e.JobID)
	if err != nil {
		return nil, err
	}

	e.RetryCount++
	s.runExecution(ctx, j, e)
	return e, nil
}

// Start restores enabled jobs from storage and launches the scheduler
func (s *JobService) Start(ctx context.Context) error {
	jobs, err := s.repo.ListEnabledJobs(ctx)
	if err != nil {
		return err
	}
	for _, j := range jobs {
		s.register(j)
	}
	s.cron.Start()
	s.logger.WithFields(map[string]interface{}{
		"jobs": len(jobs),
	}).Info("Drift scan scheduler started")
	return nil
}

// Stop drains the scheduler, waiting for in-flight scans
func (s *JobService) Stop() {
	<-s.cron.Stop().Done()
	s.logger.Info("Drift scan scheduler stopped")
}

func (s *JobService) register(j *job.ScheduledJob) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if old, ok := s.entries[j.ID]; ok {
		s.cron.Remove(old)
	}
	id, err := s.cron.AddFunc(j.Schedule, func() { s.runJob(j.ID, j.TenantID) })
	if err != nil {
		// Schedules are validated at create time; a bad one here means a
		// hand-edited row. Skip it rather than fail startup.
		s.logger.WithFields(map[string]interface{}{
			"job_id":   j.ID,
			"schedule": j.Schedule,
		}).WithError(err).Error("Skipping job with unparseable schedule")
		return
	}
	s.entries[j.ID] = id
}

// runJob is the cron callback: it records an execution and runs the scan
func (s *JobService) runJob(jobID string, tenantID int64) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	j, err := s.repo.GetJobByID(ctx, tenantID, jobID)
	if err != nil {
		s.logger.WithError(err).Errorf("Scheduled scan skipped, job %s not loadable", jobID)
		return
	}
	if !j.IsEnabled {
		return
	}

	e := &job.Execution{
		ID:        uuid.New().String(),
		JobID:     j.ID,
		TenantID:  j.TenantID,
		Status:    job.ExecutionStatusPending,
		CreatedAt: time.Now(),
	}
	if err := s.repo.CreateExecution(ctx, e); err != nil {
		s.logger.ErrorWithErr(err, "Failed to record job execution")
		return
	}

	s.runExecution(ctx, j, e)

	now := time.Now()
	j.LastRun = &now
	if sched, err := s.parser.Parse(j.Schedule); err == nil {
		next := sched.Next(now)
		j.NextRun = &next
	}
	j.UpdatedAt = now
	if err := s.repo.UpdateJob(ctx, j); err != nil {
		s.logger.ErrorWithErr(err, "Failed to update job run times")
	}
}

// runExecution performs one drift scan attempt and persists the outcome
func (s *JobService) runExecution(ctx context.Context, j *job.ScheduledJob, e *job.Execution) {
	started := time.Now()
	e.Status = job.ExecutionStatusRunning
	e.StartedAt = &started
	e.CompletedAt = nil
	e.ErrorMessage = ""
	if err := s.repo.UpdateExecution(ctx, e); err != nil {
		s.logger.ErrorWithErr(err, "Failed to mark execution running")
	}

	records, err := s.driftService.Detect(ctx, j.TenantID, j.IntegrationID, nil)
	completed := time.Now()
	e.CompletedAt = &completed
	if err != nil {
		e.Status = job.ExecutionStatusFailed
		e.ErrorMessage = err.Error()
		s.logger.WithFields(map[string]interface{}{
			"job_id":       j.ID,
			"execution_id": e.ID,
			"retry_count":  e.RetryCount,
		}).WithError(err).Error("Scheduled drift scan failed")
	} else {
		e.Status = job.ExecutionStatusCompleted
		e.RecordsFound = len(records)
		s.logger.WithFields(map[string]interface{}{
			"job_id":        j.ID,
			"execution_id":  e.ID,
			"records_found": len(records),
		}).Info("Scheduled drift scan completed")
	}

	if err := s.repo.UpdateExecution(ctx, e); err != nil {
		s.logger.ErrorWithErr(err, "Failed to record execution outcome")
	}
}
