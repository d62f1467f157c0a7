package services

import (
	"context"
	"testing"
	"time"

	"github.com/toolbridge-io/toolbridge/internal/domain/job"
	"github.com/toolbridge-io/toolbridge/internal/pkg/errors"
	"github.com/toolbridge-io/toolbridge/internal/pkg/logger"
	"github.com/toolbridge-io/toolbridge/internal/testutil"
)

type jobFixture struct {
	repo    *testutil.MockJobRepository
	fetcher *testutil.MockSchemaFetcher
	service *JobService
}

func newJobFixture(t *testing.T) *jobFixture {
	t.Helper()
	driftRepo, integrationRepo, toolRepo := seedDetectFixture(t)
	jobRepo := testutil.NewMockJobRepository()
	log := logger.New(logger.Config{Level: "error", Format: "json"})

	fetcher := &testutil.MockSchemaFetcher{Schema: fetchedWithoutMemo()}
	driftService := NewDriftService(driftRepo, integrationRepo, toolRepo, fetcher, log)

	return &jobFixture{
		repo:    jobRepo,
		fetcher: fetcher,
		service: NewJobService(jobRepo, integrationRepo, driftService, log),
	}
}

func TestJobService_CreateJob(t *testing.T) {
	ctx := context.Background()
	f := newJobFixture(t)

	j, err := f.service.CreateJob(ctx, 1, "int-1", "*/15 * * * *")
	if err != nil {
		t.Fatalf("CreateJob() error = %v", err)
	}
	if !j.IsEnabled {
		t.Error("new job not enabled")
	}
	if j.NextRun == nil || !j.NextRun.After(time.Now().Add(-time.Second)) {
		t.Errorf("NextRun = %v, want a future time", j.NextRun)
	}
}

func TestJobService_CreateJob_InvalidSchedule(t *testing.T) {
	ctx := context.Background()
	f := newJobFixture(t)

	_, err := f.service.CreateJob(ctx, 1, "int-1", "not a cron line")
	appErr, ok := err.(*errors.AppError)
	if !ok || appErr.Code != errors.ErrCodeInvalidRequest {
		t.Errorf("CreateJob() error = %v, want INVALID_REQUEST", err)
	}
	if len(f.repo.Jobs) != 0 {
		t.Error("invalid schedule still created a job")
	}
}

func TestJobService_CreateJob_OnePerIntegration(t *testing.T) {
	ctx := context.Background()
	f := newJobFixture(t)

	if _, err := f.service.CreateJob(ctx, 1, "int-1", "0 * * * *"); err != nil {
		t.Fatalf("first CreateJob() error = %v", err)
	}

	_, err := f.service.CreateJob(ctx, 1, "int-1", "30 * * * *")
	appErr, ok := err.(*errors.AppError)
	if !ok || appErr.Code != errors.ErrCodeConflict {
		t.Errorf("second CreateJob() error = %v, want CONFLICT", err)
	}
}

func TestJobService_RetryExecution(t *testing.T) {
	ctx := context.Background()
	f := newJobFixture(t)

	j, err := f.service.CreateJob(ctx, 1, "int-1", "0 * * * *")
	if err != nil {
		t.Fatalf("CreateJob() error = %v", err)
	}

	failed := &job.Execution{
		ID:           "exec-1",
		JobID:        j.ID,
		TenantID:     1,
		Status:       job.ExecutionStatusFailed,
		ErrorMessage: "upstream timed out",
		CreatedAt:    time.Now(),
	}
	if err := f.repo.CreateExecution(ctx, failed); err != nil {
		t.Fatalf("seed execution: %v", err)
	}

	e, err := f.service.RetryExecution(ctx, 1, "exec-1")
	if err != nil {
		t.Fatalf("RetryExecution() error = %v", err)
	}
	if e.Status != job.ExecutionStatusCompleted {
		t.Errorf("Status = %v, want completed", e.Status)
	}
	if e.RetryCount != 1 {
		t.Errorf("RetryCount = %d, want 1", e.RetryCount)
	}
	if e.RecordsFound != 1 {
		t.Errorf("RecordsFound = %d, want 1", e.RecordsFound)
	}
	if f.fetcher.Calls != 1 {
		t.Errorf("fetcher called %d times, want 1", f.fetcher.Calls)
	}
}

func TestJobService_RetryExecution_OnlyFailed(t *testing.T) {
	ctx := context.Background()
	f := newJobFixture(t)

	j, _ := f.service.CreateJob(ctx, 1, "int-1", "0 * * * *")
	done := &job.Execution{
		ID:        "exec-1",
		JobID:     j.ID,
		TenantID:  1,
		Status:    job.ExecutionStatusCompleted,
		CreatedAt: time.Now(),
	}
	if err := f.repo.CreateExecution(ctx, done); err != nil {
		t.Fatalf("seed execution: %v", err)
	}

	_, err := f.service.RetryExecution(ctx, 1, "exec-1")
	appErr, ok := err.(*errors.AppError)
	if !ok || appErr.Code != errors.ErrCodeInvalidRequest {
		t.Errorf("RetryExecution() error = %v, want INVALID_REQUEST", err)
	}
}

func TestJobService_RetryExecution_Exhausted(t *testing.T) {
	ctx := context.Background()
	f := newJobFixture(t)

	j, _ := f.service.CreateJob(ctx, 1, "int-1", "0 * * * *")
	spent := &job.Execution{
		ID:         "exec-1",
		JobID:      j.ID,
		TenantID:   1,
		Status:     job.ExecutionStatusFailed,
		RetryCount: maxExecutionRetries,
		CreatedAt:  time.Now(),
	}
	if err := f.repo.CreateExecution(ctx, spent); err != nil {
		t.Fatalf("seed execution: %v", err)
	}

	_, err := f.service.RetryExecution(ctx, 1, "exec-1")
	appErr, ok := err.(*errors.AppError)
	if !ok || appErr.Code != errors.ErrCodeInvalidRequest {
		t.Errorf("RetryExecution() error = %v, want INVALID_REQUEST", err)
	}
	if spent.RetryCount != maxExecutionRetries {
		t.Errorf("RetryCount = %d, want unchanged %d", spent.RetryCount, maxExecutionRetries)
	}
}

func TestJobService_ListExecutions_UnknownJob(t *testing.T) {
	ctx := context.Background()
	f := newJobFixture(t)

	_, _, err := f.service.ListExecutions(ctx, 1, "no-such-job", 20, 0)
	if err == nil {
		t.Error("ListExecutions() expected error for unknown job")
	}
}
