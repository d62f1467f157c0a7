package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/toolbridge-io/toolbridge/internal/api/dto"
	"github.com/toolbridge-io/toolbridge/internal/api/middleware"
	"github.com/toolbridge-io/toolbridge/internal/domain/job"
	"github.com/toolbridge-io/toolbridge/internal/pkg/errors"
	"github.com/toolbridge-io/toolbridge/internal/pkg/logger"
	"github.com/toolbridge-io/toolbridge/internal/pkg/utils"
	"github.com/toolbridge-io/toolbridge/internal/pkg/validator"
)

type JobHandler struct {
	service   job.Service
	logger    *logger.Logger
	validator *validator.Validator
}

func NewJobHandler(service job.Service, log *logger.Logger, val *validator.Validator) *JobHandler {
	return &JobHandler{service: service, logger: log, validator: val}
}

// Create schedules recurring drift scans for an integration
// @Summary Create scheduled scan
// @Description Schedule a recurring drift scan using a cron expression
// @Tags Jobs
// @Accept json
// @Produce json
// @Param request body dto.CreateJobRequest true "Job details"
// @Success 201 {object} dto.ScheduledJobDTO "Job created"
// @Failure 400 {object} utils.ErrorResponse "Invalid request or validation error"
// @Failure 409 {object} utils.ErrorResponse "Integration already has a scheduled scan"
// @Security BearerAuth
// @Router /jobs [post]
func (h *JobHandler) Create(w http.ResponseWriter, r *http.Request) {
	tenantID, _ := middleware.GetTenantID(r)

	var req dto.CreateJobRequest
	if appErr := decodeJSON(r, &req); appErr != nil {
		utils.WriteError(w, appErr)
		return
	}

	if errs := h.validator.Validate(req); len(errs) > 0 {
		utils.WriteError(w, errors.ValidationError("Validation failed", errs))
		return
	}

	j, err := h.service.CreateJob(r.Context(), tenantID, req.IntegrationID, req.Schedule)
	if err != nil {
		utils.WriteAppError(w, err)
		return
	}

	utils.WriteSuccess(w, http.StatusCreated, dto.NewScheduledJobDTO(j))
}

// List returns the tenant's scheduled jobs
// @Summary List scheduled scans
// @Description Get the tenant's scheduled drift scans
// @Tags Jobs
// @Produce json
// @Param integration_id query string false "Filter by integration ID"
// @Success 200 {object} []dto.ScheduledJobDTO "List of jobs"
// @Security BearerAuth
// @Router /jobs [get]
func (h *JobHandler) List(w http.ResponseWriter, r *http.Request) {
	tenantID, _ := middleware.GetTenantID(r)

	filter := job.Filter{
		IntegrationID: r.URL.Query().Get("integration_id"),
	}

	jobs, err := h.service.ListJobs(r.Context(), tenantID, filter)
	if err != nil {
		utils.WriteAppError(w, err)
		return
	}

	dtos := make([]dto.ScheduledJobDTO, len(jobs))
	for i, j := range jobs {
		dtos[i] = dto.NewScheduledJobDTO(j)
	}

	utils.WriteSuccess(w, http.StatusOK, dtos)
}

// ListExecutions returns executions for one job
// @Summary List job executions
// @Description Get a paginated list of a scheduled scan's executions
// @Tags Jobs
// @Produce json
// @Param id path string true "Job ID"
// @Param page query int false "Page number (default: 1)"
// @Param page_size query int false "Page size (default: 20, max: 100)"
// @Success 200 {object} utils.PaginatedResponse{data=[]dto.JobExecutionDTO} "List of executions"
// @Failure 404 {object} utils.ErrorResponse "Job not found"
// @Security BearerAuth
// @Router /jobs/{id}/executions [get]
func (h *JobHandler) ListExecutions(w http.ResponseWriter, r *http.Request) {
	tenantID, _ := middleware.GetTenantID(r)
	id := chi.URLParam(r, "id")
	p := utils.ParsePaginationParams(r)

	executions, total, err := h.service.ListExecutions(r.Context(), tenantID, id, p.PageSize, p.Offset)
	if err != nil {
		utils.WriteAppError(w, err)
		return
	}

	dtos := make([]dto.JobExecutionDTO, len(executions))
	for i, e := range executions {
		dtos[i] = dto.NewJobExecutionDTO(e)
	}

	utils.WriteSuccess(w, http.StatusOK, utils.NewPaginatedResponse(dtos, p.Page, p.PageSize, total))
}

// RetryExecution re-runs a failed execution
// @Summary Retry execution
// @Description Re-run a failed drift scan execution
// @Tags Jobs
// @Produce json
// @Param id path string true "Execution ID"
// @Success 200 {object} dto.JobExecutionDTO "Retried execution"
// @Failure 400 {object} utils.ErrorResponse "Execution not retryable"
// @Failure 404 {object} utils.ErrorResponse "Execution not found"
// @Security BearerAuth
// @Router /jobs/executions/{id}/retry [post]
func (h *JobHandler) RetryExecution(w http.ResponseWriter, r *http.Request) {
	tenantID, _ := middleware.GetTenantID(r)
	id := chi.URLParam(r, "id")

	e, err := h.service.RetryExecution(r.Context(), tenantID, id)
	if err != nil {
		utils.WriteAppError(w, err)
		return
	}

	utils.WriteSuccess(w, http.StatusOK, dto.NewJobExecutionDTO(e))
}
