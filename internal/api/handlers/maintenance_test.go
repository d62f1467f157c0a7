package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/toolbridge-io/toolbridge/internal/api/middleware"
	"github.com/toolbridge-io/toolbridge/internal/domain/drift"
	"github.com/toolbridge-io/toolbridge/internal/domain/integration"
	"github.com/toolbridge-io/toolbridge/internal/pkg/logger"
	"github.com/toolbridge-io/toolbridge/internal/pkg/validator"
	"github.com/toolbridge-io/toolbridge/internal/services"
	"github.com/toolbridge-io/toolbridge/internal/testutil"
)

type maintenanceTestEnv struct {
	handler         *MaintenanceHandler
	proposalRepo    *testutil.MockProposalRepository
	driftRepo       *testutil.MockDriftRepository
	integrationRepo *testutil.MockIntegrationRepository
}

func newMaintenanceTestEnv(t *testing.T) *maintenanceTestEnv {
	t.Helper()
	proposalRepo := testutil.NewMockProposalRepository()
	driftRepo := testutil.NewMockDriftRepository()
	integrationRepo := testutil.NewMockIntegrationRepository()
	toolRepo := testutil.NewMockToolRepository()
	proposalRepo.DriftRepo = driftRepo
	proposalRepo.IntegrationRepo = integrationRepo
	proposalRepo.ToolRepo = toolRepo

	log := logger.New(logger.Config{Level: "error", Format: "json"})
	service := services.NewProposalService(proposalRepo, driftRepo, integrationRepo, toolRepo, &testutil.MockSuggester{}, log)
	handler := NewMaintenanceHandler(service, log, validator.New())

	ctx := context.Background()
	if err := integrationRepo.Create(ctx, &integration.Integration{
		ID:            "int-1",
		TenantID:      1,
		Name:          "Stripe",
		Provider:      "stripe",
		Status:        integration.StatusActive,
		SchemaVersion: 1,
	}); err != nil {
		t.Fatalf("seed integration: %v", err)
	}
	if err := integrationRepo.SaveSchema(ctx, &integration.Schema{
		IntegrationID: "int-1",
		Version:       1,
		Actions: map[string]integration.ActionSchema{
			"create_charge": {Fields: map[string]integration.Field{
				"amount": {Type: integration.TypeInteger, Required: true},
			}},
		},
		CapturedAt: time.Now(),
	}); err != nil {
		t.Fatalf("seed schema: %v", err)
	}

	return &maintenanceTestEnv{
		handler:         handler,
		proposalRepo:    proposalRepo,
		driftRepo:       driftRepo,
		integrationRepo: integrationRepo,
	}
}

func (env *maintenanceTestEnv) seedDrift(t *testing.T) {
	t.Helper()
	change := integration.FieldChange{
		Action:  "create_charge",
		Path:    "amount",
		Kind:    integration.ChangeTypeChanged,
		OldType: integration.TypeInteger,
		NewType: integration.TypeNumber,
	}
	err := env.driftRepo.CreateBatch(context.Background(), []*drift.Record{{
		ID:            "dr-1",
		TenantID:      1,
		IntegrationID: "int-1",
		Severity:      drift.SeverityWarning,
		ChangeKind:    change.Kind,
		Action:        change.Action,
		FieldPath:     change.Path,
		Change:        change,
		DetectedAt:    time.Now(),
	}})
	if err != nil {
		t.Fatalf("seed drift: %v", err)
	}
}

func maintenanceRequest(method, target string, body []byte, params map[string]string) *http.Request {
	var req *http.Request
	if body != nil {
		req = httptest.NewRequest(method, target, bytes.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	req = req.WithContext(context.WithValue(req.Context(), middleware.TenantIDKey, int64(1)))

	rctx := chi.NewRouteContext()
	for k, v := range params {
		rctx.URLParams.Add(k, v)
	}
	return req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))
}

func TestMaintenanceHandler_Generate(t *testing.T) {
	tests := []struct {
		name           string
		seedDrift      bool
		integrationID  string
		expectedStatus int
	}{
		{
			name:           "generate from unresolved drift",
			seedDrift:      true,
			integrationID:  "int-1",
			expectedStatus: http.StatusCreated,
		},
		{
			name:           "no drift conflicts",
			seedDrift:      false,
			integrationID:  "int-1",
			expectedStatus: http.StatusConflict,
		},
		{
			name:           "unknown integration",
			seedDrift:      false,
			integrationID:  "int-missing",
			expectedStatus: http.StatusNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newMaintenanceTestEnv(t)
			if tt.seedDrift {
				env.seedDrift(t)
			}

			req := maintenanceRequest(http.MethodPost,
				"/api/v1/integrations/"+tt.integrationID+"/maintenance/proposals", nil,
				map[string]string{"id": tt.integrationID})
			rr := httptest.NewRecorder()

			env.handler.Generate(rr, req)

			if rr.Code != tt.expectedStatus {
				t.Errorf("status = %d, want %d (body %s)", rr.Code, tt.expectedStatus, rr.Body.String())
			}
		})
	}
}

func TestMaintenanceHandler_ApproveFlow(t *testing.T) {
	env := newMaintenanceTestEnv(t)
	env.seedDrift(t)

	// Generate
	req := maintenanceRequest(http.MethodPost, "/api/v1/integrations/int-1/maintenance/proposals", nil,
		map[string]string{"id": "int-1"})
	rr := httptest.NewRecorder()
	env.handler.Generate(rr, req)
	if rr.Code != http.StatusCreated {
		t.Fatalf("Generate status = %d (body %s)", rr.Code, rr.Body.String())
	}

	var created struct {
		Data struct {
			ID     string `json:"id"`
			Status string `json:"status"`
		} `json:"data"`
	}
	if err := json.NewDecoder(rr.Body).Decode(&created); err != nil {
		t.Fatalf("decode generate response: %v", err)
	}
	if created.Data.Status != "pending" {
		t.Errorf("generated status = %s, want pending", created.Data.Status)
	}

	// Approve
	req = maintenanceRequest(http.MethodPost,
		"/api/v1/integrations/int-1/maintenance/proposals/"+created.Data.ID+"/approve", nil,
		map[string]string{"id": "int-1", "proposalId": created.Data.ID})
	rr = httptest.NewRecorder()
	env.handler.Approve(rr, req)
	if rr.Code != http.StatusOK {
		t.Fatalf("Approve status = %d (body %s)", rr.Code, rr.Body.String())
	}

	// Approving again conflicts
	req = maintenanceRequest(http.MethodPost,
		"/api/v1/integrations/int-1/maintenance/proposals/"+created.Data.ID+"/approve", nil,
		map[string]string{"id": "int-1", "proposalId": created.Data.ID})
	rr = httptest.NewRecorder()
	env.handler.Approve(rr, req)
	if rr.Code != http.StatusConflict {
		t.Errorf("second Approve status = %d, want 409", rr.Code)
	}

	// Schema advanced
	i, err := env.integrationRepo.GetByID(context.Background(), 1, "int-1")
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if i.SchemaVersion != 2 {
		t.Errorf("SchemaVersion = %d, want 2", i.SchemaVersion)
	}
}

func TestMaintenanceHandler_GetSummary(t *testing.T) {
	env := newMaintenanceTestEnv(t)

	req := maintenanceRequest(http.MethodGet, "/api/v1/integrations/int-1/maintenance/summary", nil,
		map[string]string{"id": "int-1"})
	rr := httptest.NewRecorder()
	env.handler.GetSummary(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d (body %s)", rr.Code, rr.Body.String())
	}

	var resp struct {
		Data struct {
			Pending  int `json:"pending"`
			Approved int `json:"approved"`
			Rejected int `json:"rejected"`
			Reverted int `json:"reverted"`
		} `json:"data"`
	}
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Data.Pending != 0 || resp.Data.Approved != 0 {
		t.Errorf("summary = %+v, want zero counts", resp.Data)
	}
}
