package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/toolbridge-io/toolbridge/internal/api/dto"
	"github.com/toolbridge-io/toolbridge/internal/api/middleware"
	"github.com/toolbridge-io/toolbridge/internal/domain/proposal"
	"github.com/toolbridge-io/toolbridge/internal/pkg/errors"
	"github.com/toolbridge-io/toolbridge/internal/pkg/logger"
	"github.com/toolbridge-io/toolbridge/internal/pkg/utils"
	"github.com/toolbridge-io/toolbridge/internal/pkg/validator"
)

type MaintenanceHandler struct {
	service   proposal.Service
	logger    *logger.Logger
	validator *validator.Validator
}

func NewMaintenanceHandler(service proposal.Service, log *logger.Logger, val *validator.Validator) *MaintenanceHandler {
	return &MaintenanceHandler{service: service, logger: log, validator: val}
}

// Generate creates a maintenance proposal from unresolved drift
// @Summary Generate proposal
// @Description Bundle all unresolved drift for an integration into one pending proposal
// @Tags Maintenance
// @Produce json
// @Param id path string true "Integration ID"
// @Success 201 {object} dto.ProposalDTO "Proposal generated (or existing pending proposal)"
// @Failure 404 {object} utils.ErrorResponse "Integration not found"
// @Failure 409 {object} utils.ErrorResponse "No unresolved drift"
// @Security BearerAuth
// @Router /integrations/{id}/maintenance/proposals [post]
func (h *MaintenanceHandler) Generate(w http.ResponseWriter, r *http.Request) {
	tenantID, _ := middleware.GetTenantID(r)
	id := chi.URLParam(r, "id")

	p, err := h.service.Generate(r.Context(), tenantID, id)
	if err != nil {
		utils.WriteAppError(w, err)
		return
	}

	utils.WriteSuccess(w, http.StatusCreated, dto.NewProposalDTO(p))
}

// List returns proposals for an integration
// @Summary List proposals
// @Description Get a paginated list of maintenance proposals for one integration
// @Tags Maintenance
// @Produce json
// @Param id path string true "Integration ID"
// @Param page query int false "Page number (default: 1)"
// @Param page_size query int false "Page size (default: 20, max: 100)"
// @Success 200 {object} utils.PaginatedResponse{data=[]dto.ProposalDTO} "List of proposals"
// @Failure 404 {object} utils.ErrorResponse "Integration not found"
// @Security BearerAuth
// @Router /integrations/{id}/maintenance/proposals [get]
func (h *MaintenanceHandler) List(w http.ResponseWriter, r *http.Request) {
	tenantID, _ := middleware.GetTenantID(r)
	id := chi.URLParam(r, "id")
	p := utils.ParsePaginationParams(r)

	proposals, total, err := h.service.List(r.Context(), tenantID, id, p.PageSize, p.Offset)
	if err != nil {
		utils.WriteAppError(w, err)
		return
	}

	dtos := make([]dto.ProposalDTO, len(proposals))
	for i, pr := range proposals {
		dtos[i] = dto.NewProposalDTO(pr)
	}

	utils.WriteSuccess(w, http.StatusOK, utils.NewPaginatedResponse(dtos, p.Page, p.PageSize, total))
}

// Get returns a single proposal
// @Summary Get proposal
// @Description Get details of one maintenance proposal
// @Tags Maintenance
// @Produce json
// @Param id path string true "Integration ID"
// @Param proposalId path string true "Proposal ID"
// @Success 200 {object} dto.ProposalDTO "Proposal details"
// @Failure 404 {object} utils.ErrorResponse "Proposal not found"
// @Security BearerAuth
// @Router /integrations/{id}/maintenance/proposals/{proposalId} [get]
func (h *MaintenanceHandler) Get(w http.ResponseWriter, r *http.Request) {
	tenantID, _ := middleware.GetTenantID(r)
	proposalID := chi.URLParam(r, "proposalId")

	p, err := h.service.GetByID(r.Context(), tenantID, proposalID)
	if err != nil {
		utils.WriteAppError(w, err)
		return
	}

	utils.WriteSuccess(w, http.StatusOK, dto.NewProposalDTO(p))
}

// GetSummary returns proposal counts by status
// @Summary Maintenance summary
// @Description Get proposal counts by status for one integration
// @Tags Maintenance
// @Produce json
// @Param id path string true "Integration ID"
// @Success 200 {object} dto.ProposalSummaryDTO "Status counts"
// @Failure 404 {object} utils.ErrorResponse "Integration not found"
// @Security BearerAuth
// @Router /integrations/{id}/maintenance/summary [get]
func (h *MaintenanceHandler) GetSummary(w http.ResponseWriter, r *http.Request) {
	tenantID, _ := middleware.GetTenantID(r)
	id := chi.URLParam(r, "id")

	counts, err := h.service.GetSummary(r.Context(), tenantID, id)
	if err != nil {
		utils.WriteAppError(w, err)
		return
	}

	utils.WriteSuccess(w, http.StatusOK, dto.ProposalSummaryDTO{
		Pending:  counts[proposal.StatusPending],
		Approved: counts[proposal.StatusApproved],
		Rejected: counts[proposal.StatusRejected],
		Reverted: counts[proposal.StatusReverted],
	})
}

// Approve applies a pending proposal
// @Summary Approve proposal
// @Description Atomically apply the proposal's schema diff and resolve its drift records
// @Tags Maintenance
// @Produce json
// @Param id path string true "Integration ID"
// @Param proposalId path string true "Proposal ID"
// @Success 200 {object} dto.ProposalDTO "Approved proposal"
// @Failure 404 {object} utils.ErrorResponse "Proposal not found"
// @Failure 409 {object} utils.ErrorResponse "Proposal not pending"
// @Security BearerAuth
// @Router /integrations/{id}/maintenance/proposals/{proposalId}/approve [post]
func (h *MaintenanceHandler) Approve(w http.ResponseWriter, r *http.Request) {
	tenantID, _ := middleware.GetTenantID(r)
	proposalID := chi.URLParam(r, "proposalId")

	p, err := h.service.Approve(r.Context(), tenantID, proposalID)
	if err != nil {
		utils.WriteAppError(w, err)
		return
	}

	utils.WriteSuccess(w, http.StatusOK, dto.NewProposalDTO(p))
}

// Reject discards a pending proposal
// @Summary Reject proposal
// @Description Discard a pending proposal; its drift records stay unresolved
// @Tags Maintenance
// @Produce json
// @Param id path string true "Integration ID"
// @Param proposalId path string true "Proposal ID"
// @Success 200 {object} dto.ProposalDTO "Rejected proposal"
// @Failure 404 {object} utils.ErrorResponse "Proposal not found"
// @Failure 409 {object} utils.ErrorResponse "Proposal not pending"
// @Security BearerAuth
// @Router /integrations/{id}/maintenance/proposals/{proposalId}/reject [post]
func (h *MaintenanceHandler) Reject(w http.ResponseWriter, r *http.Request) {
	tenantID, _ := middleware.GetTenantID(r)
	proposalID := chi.URLParam(r, "proposalId")

	p, err := h.service.Reject(r.Context(), tenantID, proposalID)
	if err != nil {
		utils.WriteAppError(w, err)
		return
	}

	utils.WriteSuccess(w, http.StatusOK, dto.NewProposalDTO(p))
}

// Revert restores the schema that preceded an approved proposal
// @Summary Revert proposal
// @Description Restore the schema snapshot that preceded this proposal's approval
// @Tags Maintenance
// @Produce json
// @Param id path string true "Integration ID"
// @Param proposalId path string true "Proposal ID"
// @Success 200 {object} dto.ProposalDTO "Reverted proposal"
// @Failure 404 {object} utils.ErrorResponse "Proposal not found"
// @Failure 409 {object} utils.ErrorResponse "Proposal not approved"
// @Security BearerAuth
// @Router /integrations/{id}/maintenance/proposals/{proposalId}/revert [post]
func (h *MaintenanceHandler) Revert(w http.ResponseWriter, r *http.Request) {
	tenantID, _ := middleware.GetTenantID(r)
	proposalID := chi.URLParam(r, "proposalId")

	p, err := h.service.Revert(r.Context(), tenantID, proposalID)
	if err != nil {
		utils.WriteAppError(w, err)
		return
	}

	utils.WriteSuccess(w, http.StatusOK, dto.NewProposalDTO(p))
}

// DecideDescriptions records accept/skip choices for description suggestions
// @Summary Decide description suggestions
// @Description Accept or skip the proposal's suggested tool description rewrites
// @Tags Maintenance
// @Accept json
// @Produce json
// @Param id path string true "Integration ID"
// @Param proposalId path string true "Proposal ID"
// @Param request body dto.DecideDescriptionsRequest true "Decisions"
// @Success 200 {object} dto.ProposalDTO "Updated proposal"
// @Failure 400 {object} utils.ErrorResponse "Invalid request or validation error"
// @Failure 409 {object} utils.ErrorResponse "Proposal not approved"
// @Security BearerAuth
// @Router /integrations/{id}/maintenance/proposals/{proposalId}/descriptions [post]
func (h *MaintenanceHandler) DecideDescriptions(w http.ResponseWriter, r *http.Request) {
	tenantID, _ := middleware.GetTenantID(r)
	proposalID := chi.URLParam(r, "proposalId")

	var req dto.DecideDescriptionsRequest
	if appErr := decodeJSON(r, &req); appErr != nil {
		utils.WriteError(w, appErr)
		return
	}

	if errs := h.validator.Validate(req); len(errs) > 0 {
		utils.WriteError(w, errors.ValidationError("Validation failed", errs))
		return
	}

	decisions := make([]proposal.DecisionInput, len(req.Decisions))
	for i, d := range req.Decisions {
		decisions[i] = proposal.DecisionInput{ToolID: d.ToolID, Accept: d.Accept}
	}

	p, err := h.service.ApplyDescriptionDecisions(r.Context(), tenantID, proposalID, decisions)
	if err != nil {
		utils.WriteAppError(w, err)
		return
	}

	utils.WriteSuccess(w, http.StatusOK, dto.NewProposalDTO(p))
}
