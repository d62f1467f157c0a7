package services

import (
	"context"
	"testing"
	"time"

	"github.com/toolbridge-io/toolbridge/internal/domain/drift"
	"github.com/toolbridge-io/toolbridge/internal/domain/integration"
	"github.com/toolbridge-io/toolbridge/internal/domain/tool"
	"github.com/toolbridge-io/toolbridge/internal/pkg/errors"
	"github.com/toolbridge-io/toolbridge/internal/pkg/logger"
	"github.com/toolbridge-io/toolbridge/internal/testutil"
)

func seedDetectFixture(t *testing.T) (*testutil.MockDriftRepository, *testutil.MockIntegrationRepository, *testutil.MockToolRepository) {
	t.Helper()
	integrationRepo := testutil.NewMockIntegrationRepository()
	driftRepo := testutil.NewMockDriftRepository()
	toolRepo := testutil.NewMockToolRepository()

	ctx := context.Background()
	i := &integration.Integration{
		ID:            "int-1",
		TenantID:      1,
		Name:          "Stripe",
		Provider:      "stripe",
		Status:        integration.StatusActive,
		SchemaVersion: 1,
	}
	if err := integrationRepo.Create(ctx, i); err != nil {
		t.Fatalf("seed integration: %v", err)
	}
	s := &integration.Schema{
		IntegrationID: "int-1",
		Version:       1,
		Actions: map[string]integration.ActionSchema{
			"create_charge": {Fields: map[string]integration.Field{
				"amount": {Type: integration.TypeInteger, Required: true},
				"memo":   {Type: integration.TypeString},
			}},
		},
		CapturedAt: time.Now(),
	}
	if err := integrationRepo.SaveSchema(ctx, s); err != nil {
		t.Fatalf("seed schema: %v", err)
	}
	if err := toolRepo.Create(ctx, &tool.Tool{
		ID:            "tool-1",
		TenantID:      1,
		IntegrationID: "int-1",
		Name:          "charge",
		Action:        "create_charge",
		FieldRefs:     []string{"memo"},
	}); err != nil {
		t.Fatalf("seed tool: %v", err)
	}

	return driftRepo, integrationRepo, toolRepo
}

func fetchedWithoutMemo() *integration.Schema {
	return &integration.Schema{
		IntegrationID: "int-1",
		Actions: map[string]integration.ActionSchema{
			"create_charge": {Fields: map[string]integration.Field{
				"amount": {Type: integration.TypeInteger, Required: true},
			}},
		},
	}
}

func TestDriftService_Detect_InlineSchema(t *testing.T) {
	ctx := context.Background()
	driftRepo, integrationRepo, toolRepo := seedDetectFixture(t)
	log := logger.New(logger.Config{Level: "error", Format: "json"})
	service := NewDriftService(driftRepo, integrationRepo, toolRepo, nil, log)

	records, err := service.Detect(ctx, 1, "int-1", fetchedWithoutMemo())
	if err != nil {
		t.Fatalf("Detect() error = %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("Detect() returned %d records, want 1", len(records))
	}

	r := records[0]
	if r.ID == "" {
		t.Error("record id not assigned")
	}
	if r.TenantID != 1 || r.IntegrationID != "int-1" {
		t.Errorf("record scoping = tenant %d integration %s", r.TenantID, r.IntegrationID)
	}
	if r.ChangeKind != integration.ChangeRemoved {
		t.Errorf("ChangeKind = %v, want removed", r.ChangeKind)
	}
	// memo is referenced by tool-1
	if r.Severity != drift.SeverityBreaking {
		t.Errorf("Severity = %v, want breaking", r.Severity)
	}

	if len(driftRepo.Records) != 1 {
		t.Errorf("persisted %d records, want 1", len(driftRepo.Records))
	}
}

func TestDriftService_Detect_FetcherFallback(t *testing.T) {
	ctx := context.Background()
	driftRepo, integrationRepo, toolRepo := seedDetectFixture(t)
	log := logger.New(logger.Config{Level: "error", Format: "json"})

	fetcher := &testutil.MockSchemaFetcher{Schema: fetchedWithoutMemo()}
	service := NewDriftService(driftRepo, integrationRepo, toolRepo, fetcher, log)

	records, err := service.Detect(ctx, 1, "int-1", nil)
	if err != nil {
		t.Fatalf("Detect() error = %v", err)
	}
	if fetcher.Calls != 1 {
		t.Errorf("fetcher called %d times, want 1", fetcher.Calls)
	}
	if len(records) != 1 {
		t.Errorf("Detect() returned %d records, want 1", len(records))
	}
}

func TestDriftService_Detect_NoSchemaNoFetcher(t *testing.T) {
	ctx := context.Background()
	driftRepo, integrationRepo, toolRepo := seedDetectFixture(t)
	log := logger.New(logger.Config{Level: "error", Format: "json"})
	service := NewDriftService(driftRepo, integrationRepo, toolRepo, nil, log)

	_, err := service.Detect(ctx, 1, "int-1", nil)
	appErr, ok := err.(*errors.AppError)
	if !ok || appErr.Code != errors.ErrCodeInvalidRequest {
		t.Errorf("Detect() error = %v, want INVALID_REQUEST", err)
	}
}

func TestDriftService_Detect_FreshIDsAfterResolution(t *testing.T) {
	ctx := context.Background()
	driftRepo, integrationRepo, toolRepo := seedDetectFixture(t)
	log := logger.New(logger.Config{Level: "error", Format: "json"})
	service := NewDriftService(driftRepo, integrationRepo, toolRepo, nil, log)

	first, err := service.Detect(ctx, 1, "int-1", fetchedWithoutMemo())
	if err != nil {
		t.Fatalf("first Detect() error = %v", err)
	}

	driftRepo.Records[first[0].ID].Resolved = true

	second, err := service.Detect(ctx, 1, "int-1", fetchedWithoutMemo())
	if err != nil {
		t.Fatalf("second Detect() error = %v", err)
	}
	if len(second) != 1 {
		t.Fatalf("second Detect() returned %d records, want 1", len(second))
	}
	if first[0].ID == second[0].ID {
		t.Error("re-detection reused a record id")
	}
	if len(driftRepo.Records) != 2 {
		t.Errorf("persisted %d records, want 2", len(driftRepo.Records))
	}
}

func TestDriftService_Detect_RepeatedRefreshNoDuplicates(t *testing.T) {
	ctx := context.Background()
	driftRepo, integrationRepo, toolRepo := seedDetectFixture(t)
	log := logger.New(logger.Config{Level: "error", Format: "json"})
	service := NewDriftService(driftRepo, integrationRepo, toolRepo, nil, log)

	if _, err := service.Detect(ctx, 1, "int-1", fetchedWithoutMemo()); err != nil {
		t.Fatalf("first Detect() error = %v", err)
	}

	// Re-refreshing against the same drifted upstream reports nothing new
	second, err := service.Detect(ctx, 1, "int-1", fetchedWithoutMemo())
	if err != nil {
		t.Fatalf("second Detect() error = %v", err)
	}
	if len(second) != 0 {
		t.Errorf("second Detect() returned %d records, want 0", len(second))
	}
	if len(driftRepo.Records) != 1 {
		t.Errorf("persisted %d records, want 1", len(driftRepo.Records))
	}

	summary, err := service.GetSummary(ctx, 1, "int-1")
	if err != nil {
		t.Fatalf("GetSummary() error = %v", err)
	}
	if summary.Total != 1 {
		t.Errorf("Total = %d after repeated refresh, want 1", summary.Total)
	}
}

func TestDriftService_Detect_PersistsObservedSchema(t *testing.T) {
	ctx := context.Background()
	driftRepo, integrationRepo, toolRepo := seedDetectFixture(t)
	log := logger.New(logger.Config{Level: "error", Format: "json"})
	service := NewDriftService(driftRepo, integrationRepo, toolRepo, nil, log)

	if _, err := service.Detect(ctx, 1, "int-1", fetchedWithoutMemo()); err != nil {
		t.Fatalf("Detect() error = %v", err)
	}

	observed := integrationRepo.Observed["int-1"]
	if observed == nil {
		t.Fatal("observed schema not persisted")
	}
	if _, ok := observed.Actions["create_charge"].Fields["memo"]; ok {
		t.Error("observed schema should reflect the fetched shape, not the snapshot")
	}

	// With no inline schema and no fetcher, detection falls back to the
	// stored observation instead of failing
	records, err := service.Detect(ctx, 1, "int-1", nil)
	if err != nil {
		t.Fatalf("Detect() with observed fallback error = %v", err)
	}
	if len(records) != 0 {
		t.Errorf("fallback Detect() returned %d records, want 0", len(records))
	}
}

func TestDriftService_GetSummary(t *testing.T) {
	ctx := context.Background()
	driftRepo, integrationRepo, toolRepo := seedDetectFixture(t)
	log := logger.New(logger.Config{Level: "error", Format: "json"})
	service := NewDriftService(driftRepo, integrationRepo, toolRepo, nil, log)

	summary, err := service.GetSummary(ctx, 1, "int-1")
	if err != nil {
		t.Fatalf("GetSummary() error = %v", err)
	}
	if summary.Total != 0 {
		t.Errorf("Total = %d, want 0", summary.Total)
	}

	if _, err := service.Detect(ctx, 1, "int-1", fetchedWithoutMemo()); err != nil {
		t.Fatalf("Detect() error = %v", err)
	}

	summary, err = service.GetSummary(ctx, 1, "int-1")
	if err != nil {
		t.Fatalf("GetSummary() error = %v", err)
	}
	if summary.Breaking != 1 || summary.Total != 1 {
		t.Errorf("summary = %+v, want 1 breaking of 1", summary)
	}
}
