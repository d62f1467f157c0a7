package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/toolbridge-io/toolbridge/internal/api/dto"
	"github.com/toolbridge-io/toolbridge/internal/api/middleware"
	"github.com/toolbridge-io/toolbridge/internal/domain/tool"
	"github.com/toolbridge-io/toolbridge/internal/pkg/errors"
	"github.com/toolbridge-io/toolbridge/internal/pkg/logger"
	"github.com/toolbridge-io/toolbridge/internal/pkg/utils"
	"github.com/toolbridge-io/toolbridge/internal/pkg/validator"
)

type ToolHandler struct {
	service   tool.Service
	logger    *logger.Logger
	validator *validator.Validator
}

func NewToolHandler(service tool.Service, log *logger.Logger, val *validator.Validator) *ToolHandler {
	return &ToolHandler{service: service, logger: log, validator: val}
}

// Create registers a new tool definition
// @Summary Create tool
// @Description Register a callable tool bound to an integration action
// @Tags Tools
// @Accept json
// @Produce json
// @Param request body dto.CreateToolRequest true "Tool details"
// @Success 201 {object} dto.ToolDTO "Tool created"
// @Failure 400 {object} utils.ErrorResponse "Invalid request or validation error"
// @Security BearerAuth
// @Router /tools [post]
func (h *ToolHandler) Create(w http.ResponseWriter, r *http.Request) {
	tenantID, _ := middleware.GetTenantID(r)

	var req dto.CreateToolRequest
	if appErr := decodeJSON(r, &req); appErr != nil {
		utils.WriteError(w, appErr)
		return
	}

	if errs := h.validator.Validate(req); len(errs) > 0 {
		utils.WriteError(w, errors.ValidationError("Validation failed", errs))
		return
	}

	t, err := h.service.Create(r.Context(), &tool.Tool{
		TenantID:      tenantID,
		IntegrationID: req.IntegrationID,
		Name:          req.Name,
		Action:        req.Action,
		Description:   req.Description,
		FieldRefs:     req.FieldRefs,
	})
	if err != nil {
		utils.WriteAppError(w, err)
		return
	}

	utils.WriteSuccess(w, http.StatusCreated, dto.NewToolDTO(t))
}

// List returns tools with optional filtering
// @Summary List tools
// @Description Get a paginated list of tool definitions with optional filtering
// @Tags Tools
// @Produce json
// @Param integration_id query string false "Filter by integration ID"
// @Param action query string false "Filter by action"
// @Param page query int false "Page number (default: 1)"
// @Param page_size query int false "Page size (default: 20, max: 100)"
// @Success 200 {object} utils.PaginatedResponse{data=[]dto.ToolDTO} "List of tools"
// @Security BearerAuth
// @Router /tools [get]
func (h *ToolHandler) List(w http.ResponseWriter, r *http.Request) {
	tenantID, _ := middleware.GetTenantID(r)
	p := utils.ParsePaginationParams(r)

	filter := tool.Filter{
		IntegrationID: r.URL.Query().Get("integration_id"),
		Action:        r.URL.Query().Get("action"),
	}

	tools, total, err := h.service.List(r.Context(), tenantID, filter, p.PageSize, p.Offset)
	if err != nil {
		utils.WriteAppError(w, err)
		return
	}

	dtos := make([]dto.ToolDTO, len(tools))
	for i, t := range tools {
		dtos[i] = dto.NewToolDTO(t)
	}

	utils.WriteSuccess(w, http.StatusOK, utils.NewPaginatedResponse(dtos, p.Page, p.PageSize, total))
}

// Get returns a single tool
// @Summary Get tool
// @Description Get details of one tool definition
// @Tags Tools
// @Produce json
// @Param id path string true "Tool ID"
// @Success 200 {object} dto.ToolDTO "Tool details"
// @Failure 404 {object} utils.ErrorResponse "Tool not found"
// @Security BearerAuth
// @Router /tools/{id} [get]
func (h *ToolHandler) Get(w http.ResponseWriter, r *http.Request) {
	tenantID, _ := middleware.GetTenantID(r)
	id := chi.URLParam(r, "id")

	t, err := h.service.GetByID(r.Context(), tenantID, id)
	if err != nil {
		utils.WriteAppError(w, err)
		return
	}

	utils.WriteSuccess(w, http.StatusOK, dto.NewToolDTO(t))
}

// UpdateDescription replaces a tool's description
// @Summary Update tool description
// @Description Replace a tool's human-readable description
// @Tags Tools
// @Accept json
// @Produce json
// @Param id path string true "Tool ID"
// @Param request body dto.UpdateToolDescriptionRequest true "New description"
// @Success 200 {object} dto.ToolDTO "Updated tool"
// @Failure 404 {object} utils.ErrorResponse "Tool not found"
// @Security BearerAuth
// @Router /tools/{id}/description [put]
func (h *ToolHandler) UpdateDescription(w http.ResponseWriter, r *http.Request) {
	tenantID, _ := middleware.GetTenantID(r)
	id := chi.URLParam(r, "id")

	var req dto.UpdateToolDescriptionRequest
	if appErr := decodeJSON(r, &req); appErr != nil {
		utils.WriteError(w, appErr)
		return
	}

	if errs := h.validator.Validate(req); len(errs) > 0 {
		utils.WriteError(w, errors.ValidationError("Validation failed", errs))
		return
	}

	if err := h.service.UpdateDescription(r.Context(), tenantID, id, req.Description); err != nil {
		utils.WriteAppError(w, err)
		return
	}

	t, err := h.service.GetByID(r.Context(), tenantID, id)
	if err != nil {
		utils.WriteAppError(w, err)
		return
	}

	utils.WriteSuccess(w, http.StatusOK, dto.NewToolDTO(t))
}
