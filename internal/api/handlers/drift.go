package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/toolbridge-io/toolbridge/internal/api/dto"
	"github.com/toolbridge-io/toolbridge/internal/api/middleware"
	"github.com/toolbridge-io/toolbridge/internal/domain/drift"
	"github.com/toolbridge-io/toolbridge/internal/domain/integration"
	"github.com/toolbridge-io/toolbridge/internal/pkg/logger"
	"github.com/toolbridge-io/toolbridge/internal/pkg/utils"
)

type DriftHandler struct {
	service drift.Service
	logger  *logger.Logger
}

func NewDriftHandler(service drift.Service, log *logger.Logger) *DriftHandler {
	return &DriftHandler{service: service, logger: log}
}

// Refresh runs drift detection against a freshly fetched schema
// @Summary Refresh schema
// @Description Diff a freshly fetched upstream schema against the stored snapshot and record the drift
// @Tags Drift
// @Accept json
// @Produce json
// @Param id path string true "Integration ID"
// @Param request body dto.RefreshSchemaRequest false "Fetched schema; when omitted the configured fetcher is used"
// @Success 200 {object} []dto.DriftRecordDTO "Newly detected drift records"
// @Failure 404 {object} utils.ErrorResponse "Integration not found"
// @Security BearerAuth
// @Router /integrations/{id}/schema/refresh [post]
func (h *DriftHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	tenantID, _ := middleware.GetTenantID(r)
	id := chi.URLParam(r, "id")

	var fetched *integration.Schema
	if r.ContentLength > 0 {
		var req dto.RefreshSchemaRequest
		if appErr := decodeJSON(r, &req); appErr != nil {
			utils.WriteError(w, appErr)
			return
		}
		if req.Schema != nil {
			fetched = &integration.Schema{
				Actions:    req.Schema.Actions,
				CapturedAt: time.Now(),
			}
		}
	}

	records, err := h.service.Detect(r.Context(), tenantID, id, fetched)
	if err != nil {
		utils.WriteAppError(w, err)
		return
	}

	dtos := make([]dto.DriftRecordDTO, len(records))
	for i, d := range records {
		dtos[i] = dto.NewDriftRecordDTO(d)
	}

	utils.WriteSuccess(w, http.StatusOK, dtos)
}

// List returns drift records for an integration
// @Summary List drift records
// @Description Get a paginated list of drift records with optional filtering
// @Tags Drift
// @Produce json
// @Param id path string true "Integration ID"
// @Param severity query string false "Filter by severity"
// @Param change_kind query string false "Filter by change kind"
// @Param resolved query bool false "Filter by resolution state"
// @Param page query int false "Page number (default: 1)"
// @Param page_size query int false "Page size (default: 20, max: 100)"
// @Success 200 {object} utils.PaginatedResponse{data=[]dto.DriftRecordDTO} "List of drift records"
// @Failure 404 {object} utils.ErrorResponse "Integration not found"
// @Security BearerAuth
// @Router /integrations/{id}/drift [get]
func (h *DriftHandler) List(w http.ResponseWriter, r *http.Request) {
	tenantID, _ := middleware.GetTenantID(r)
	id := chi.URLParam(r, "id")
	p := utils.ParsePaginationParams(r)

	filter := drift.Filter{
		Severity:   drift.Severity(r.URL.Query().Get("severity")),
		ChangeKind: integration.ChangeKind(r.URL.Query().Get("change_kind")),
	}
	if v := r.URL.Query().Get("resolved"); v != "" {
		resolved, err := strconv.ParseBool(v)
		if err == nil {
			filter.Resolved = &resolved
		}
	}

	records, total, err := h.service.List(r.Context(), tenantID, id, filter, p.PageSize, p.Offset)
	if err != nil {
		utils.WriteAppError(w, err)
		return
	}

	dtos := make([]dto.DriftRecordDTO, len(records))
	for i, d := range records {
		dtos[i] = dto.NewDriftRecordDTO(d)
	}

	utils.WriteSuccess(w, http.StatusOK, utils.NewPaginatedResponse(dtos, p.Page, p.PageSize, total))
}

// GetSummary returns unresolved drift counts by severity
// @Summary Drift summary
// @Description Get unresolved drift record counts by severity for one integration
// @Tags Drift
// @Produce json
// @Param id path string true "Integration ID"
// @Success 200 {object} dto.DriftSummaryDTO "Severity counts"
// @Failure 404 {object} utils.ErrorResponse "Integration not found"
// @Security BearerAuth
// @Router /integrations/{id}/drift/summary [get]
func (h *DriftHandler) GetSummary(w http.ResponseWriter, r *http.Request) {
	tenantID, _ := middleware.GetTenantID(r)
	id := chi.URLParam(r, "id")

	summary, err := h.service.GetSummary(r.Context(), tenantID, id)
	if err != nil {
		utils.WriteAppError(w, err)
		return
	}

	utils.WriteSuccess(w, http.StatusOK, dto.DriftSummaryDTO{
		Breaking: summary.Breaking,
		Warning:  summary.Warning,
		Info:     summary.Info,
		Total:    summary.Total,
	})
}
