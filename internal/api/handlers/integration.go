package handlers

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/toolbridge-io/toolbridge/internal/api/dto"
	"github.com/toolbridge-io/toolbridge/internal/api/middleware"
	"github.com/toolbridge-io/toolbridge/internal/domain/integration"
	"github.com/toolbridge-io/toolbridge/internal/pkg/errors"
	"github.com/toolbridge-io/toolbridge/internal/pkg/logger"
	"github.com/toolbridge-io/toolbridge/internal/pkg/utils"
	"github.com/toolbridge-io/toolbridge/internal/pkg/validator"
)

type IntegrationHandler struct {
	service   integration.Service
	logger    *logger.Logger
	validator *validator.Validator
}

func NewIntegrationHandler(service integration.Service, log *logger.Logger, val *validator.Validator) *IntegrationHandler {
	return &IntegrationHandler{service: service, logger: log, validator: val}
}

// Create registers a new integration
// @Summary Register integration
// @Description Register a third-party integration, optionally with its initial schema snapshot
// @Tags Integrations
// @Accept json
// @Produce json
// @Param request body dto.CreateIntegrationRequest true "Integration details"
// @Success 201 {object} dto.IntegrationDTO "Integration registered"
// @Failure 400 {object} utils.ErrorResponse "Invalid request or validation error"
// @Security BearerAuth
// @Router /integrations [post]
func (h *IntegrationHandler) Create(w http.ResponseWriter, r *http.Request) {
	tenantID, _ := middleware.GetTenantID(r)

	var req dto.CreateIntegrationRequest
	if appErr := decodeJSON(r, &req); appErr != nil {
		utils.WriteError(w, appErr)
		return
	}

	if errs := h.validator.Validate(req); len(errs) > 0 {
		utils.WriteError(w, errors.ValidationError("Validation failed", errs))
		return
	}

	var initial *integration.Schema
	if req.Schema != nil {
		initial = &integration.Schema{
			Actions:    req.Schema.Actions,
			CapturedAt: time.Now(),
		}
	}

	i, err := h.service.Create(r.Context(), tenantID, req.Name, req.Provider, initial)
	if err != nil {
		utils.WriteAppError(w, err)
		return
	}

	utils.WriteSuccess(w, http.StatusCreated, dto.NewIntegrationDTO(i))
}

// List returns the tenant's integrations
// @Summary List integrations
// @Description Get a paginated list of the tenant's integrations
// @Tags Integrations
// @Produce json
// @Param page query int false "Page number (default: 1)"
// @Param page_size query int false "Page size (default: 20, max: 100)"
// @Success 200 {object} utils.PaginatedResponse{data=[]dto.IntegrationDTO} "List of integrations"
// @Security BearerAuth
// @Router /integrations [get]
func (h *IntegrationHandler) List(w http.ResponseWriter, r *http.Request) {
	tenantID, _ := middleware.GetTenantID(r)
	p := utils.ParsePaginationParams(r)

	integrations, total, err := h.service.List(r.Context(), tenantID, p.PageSize, p.Offset)
	if err != nil {
		utils.WriteAppError(w, err)
		return
	}

	dtos := make([]dto.IntegrationDTO, len(integrations))
	for i, in := range integrations {
		dtos[i] = dto.NewIntegrationDTO(in)
	}

	utils.WriteSuccess(w, http.StatusOK, utils.NewPaginatedResponse(dtos, p.Page, p.PageSize, total))
}

// Get returns a single integration
// @Summary Get integration
// @Description Get details of one integration
// @Tags Integrations
// @Produce json
// @Param id path string true "Integration ID"
// @Success 200 {object} dto.IntegrationDTO "Integration details"
// @Failure 404 {object} utils.ErrorResponse "Integration not found"
// @Security BearerAuth
// @Router /integrations/{id} [get]
func (h *IntegrationHandler) Get(w http.ResponseWriter, r *http.Request) {
	tenantID, _ := middleware.GetTenantID(r)
	id := chi.URLParam(r, "id")

	i, err := h.service.GetByID(r.Context(), tenantID, id)
	if err != nil {
		utils.WriteAppError(w, err)
		return
	}

	utils.WriteSuccess(w, http.StatusOK, dto.NewIntegrationDTO(i))
}

// GetSchema returns the integration's current schema snapshot
// @Summary Get current schema
// @Description Get the integration's current schema snapshot
// @Tags Integrations
// @Produce json
// @Param id path string true "Integration ID"
// @Success 200 {object} dto.SchemaDTO "Current schema snapshot"
// @Failure 404 {object} utils.ErrorResponse "Integration not found"
// @Security BearerAuth
// @Router /integrations/{id}/schema [get]
func (h *IntegrationHandler) GetSchema(w http.ResponseWriter, r *http.Request) {
	tenantID, _ := middleware.GetTenantID(r)
	id := chi.URLParam(r, "id")

	s, err := h.service.GetCurrentSchema(r.Context(), tenantID, id)
	if err != nil {
		utils.WriteAppError(w, err)
		return
	}

	utils.WriteSuccess(w, http.StatusOK, dto.SchemaDTO{
		IntegrationID: s.IntegrationID,
		Version:       s.Version,
		Actions:       s.Actions,
		CapturedAt:    s.CapturedAt,
	})
}

// CreateConnectSession issues a short-lived connect session
// @Summary Issue connect session
// @Description Issue a short-lived session token for the OAuth front-channel
// @Tags Integrations
// @Produce json
// @Param id path string true "Integration ID"
// @Success 201 {object} dto.ConnectSessionDTO "Connect session issued"
// @Failure 404 {object} utils.ErrorResponse "Integration not found"
// @Security BearerAuth
// @Router /integrations/{id}/connect-session [post]
func (h *IntegrationHandler) CreateConnectSession(w http.ResponseWriter, r *http.Request) {
	tenantID, _ := middleware.GetTenantID(r)
	id := chi.URLParam(r, "id")

	cs, err := h.service.CreateConnectSession(r.Context(), tenantID, id)
	if err != nil {
		utils.WriteAppError(w, err)
		return
	}

	utils.WriteSuccess(w, http.StatusCreated, dto.ConnectSessionDTO{
		ID:        cs.ID,
		Token:     cs.Token,
		ExpiresAt: cs.ExpiresAt,
	})
}
