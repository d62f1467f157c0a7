package services

import (
	"context"
	"testing"
	"time"

	"github.com/toolbridge-io/toolbridge/internal/domain/drift"
	"github.com/toolbridge-io/toolbridge/internal/domain/integration"
	"github.com/toolbridge-io/toolbridge/internal/domain/proposal"
	"github.com/toolbridge-io/toolbridge/internal/domain/tool"
	"github.com/toolbridge-io/toolbridge/internal/pkg/errors"
	"github.com/toolbridge-io/toolbridge/internal/pkg/logger"
	"github.com/toolbridge-io/toolbridge/internal/testutil"
)

type proposalFixture struct {
	repo            *testutil.MockProposalRepository
	driftRepo       *testutil.MockDriftRepository
	integrationRepo *testutil.MockIntegrationRepository
	toolRepo        *testutil.MockToolRepository
	suggester       *testutil.MockSuggester
	service         proposal.Service
}

func newProposalFixture() *proposalFixture {
	f := &proposalFixture{
		repo:            testutil.NewMockProposalRepository(),
		driftRepo:       testutil.NewMockDriftRepository(),
		integrationRepo: testutil.NewMockIntegrationRepository(),
		toolRepo:        testutil.NewMockToolRepository(),
		suggester:       &testutil.MockSuggester{},
	}
	f.repo.DriftRepo = f.driftRepo
	f.repo.IntegrationRepo = f.integrationRepo
	f.repo.ToolRepo = f.toolRepo

	log := logger.New(logger.Config{Level: "error", Format: "json"})
	f.service = NewProposalService(f.repo, f.driftRepo, f.integrationRepo, f.toolRepo, f.suggester, log)
	return f
}

// seedIntegration stores an integration with a version-1 schema holding a
// create_charge action with amount (integer) and memo fields.
func (f *proposalFixture) seedIntegration(t *testing.T, tenantID int64) *integration.Integration {
	t.Helper()
	i := &integration.Integration{
		ID:            "int-1",
		TenantID:      tenantID,
		Name:          "Stripe",
		Provider:      "stripe",
		Status:        integration.StatusActive,
		SchemaVersion: 1,
	}
	if err := f.integrationRepo.Create(context.Background(), i); err != nil {
		t.Fatalf("seed integration: %v", err)
	}
	s := &integration.Schema{
		IntegrationID: i.ID,
		Version:       1,
		Actions: map[string]integration.ActionSchema{
			"create_charge": {Fields: map[string]integration.Field{
				"amount": {Type: integration.TypeInteger, Required: true},
				"memo":   {Type: integration.TypeString},
			}},
		},
		CapturedAt: time.Now(),
	}
	if err := f.integrationRepo.SaveSchema(context.Background(), s); err != nil {
		t.Fatalf("seed schema: %v", err)
	}
	return i
}

func (f *proposalFixture) seedDrift(t *testing.T, tenantID int64, id string, change integration.FieldChange) *drift.Record {
	t.Helper()
	r := &drift.Record{
		ID:            id,
		TenantID:      tenantID,
		IntegrationID: "int-1",
		Severity:      drift.SeverityWarning,
		ChangeKind:    change.Kind,
		Action:        change.Action,
		FieldPath:     change.Path,
		Change:        change,
		DetectedAt:    time.Now(),
	}
	if err := f.driftRepo.CreateBatch(context.Background(), []*drift.Record{r}); err != nil {
		t.Fatalf("seed drift: %v", err)
	}
	return r
}

func (f *proposalFixture) seedTool(t *testing.T, tenantID int64, id string, refs ...string) *tool.Tool {
	t.Helper()
	tl := &tool.Tool{
		ID:            id,
		TenantID:      tenantID,
		IntegrationID: "int-1",
		Name:          "charge-" + id,
		Action:        "create_charge",
		Description:   "Creates a charge",
		FieldRefs:     refs,
	}
	if err := f.toolRepo.Create(context.Background(), tl); err != nil {
		t.Fatalf("seed tool: %v", err)
	}
	return tl
}

func amountWidened() integration.FieldChange {
	return integration.FieldChange{
		Action:  "create_charge",
		Path:    "amount",
		Kind:    integration.ChangeTypeChanged,
		OldType: integration.TypeInteger,
		NewType: integration.TypeNumber,
	}
}

func memoRemoved() integration.FieldChange {
	return integration.FieldChange{
		Action:  "create_charge",
		Path:    "memo",
		Kind:    integration.ChangeRemoved,
		OldType: integration.TypeString,
	}
}

func TestProposalService_Generate(t *testing.T) {
	ctx := context.Background()
	f := newProposalFixture()
	f.seedIntegration(t, 1)
	f.seedDrift(t, 1, "dr-1", amountWidened())
	f.seedDrift(t, 1, "dr-2", memoRemoved())
	f.seedTool(t, 1, "tool-1", "amount")
	f.seedTool(t, 1, "tool-2", "customer_id")

	p, err := f.service.Generate(ctx, 1, "int-1")
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}

	if p.Status != proposal.StatusPending {
		t.Errorf("Status = %v, want pending", p.Status)
	}
	if len(p.DriftRecordIDs) != 2 {
		t.Errorf("DriftRecordIDs = %d, want 2", len(p.DriftRecordIDs))
	}
	if len(p.SchemaDiff.Changes) != 2 {
		t.Errorf("SchemaDiff.Changes = %d, want 2", len(p.SchemaDiff.Changes))
	}
	if len(p.AffectedToolIDs) != 1 || p.AffectedToolIDs[0] != "tool-1" {
		t.Errorf("AffectedToolIDs = %v, want [tool-1]", p.AffectedToolIDs)
	}
	if len(p.Suggestions) != 1 {
		t.Fatalf("Suggestions = %d, want 1", len(p.Suggestions))
	}
	if p.Suggestions[0].Decision != proposal.DecisionPending {
		t.Errorf("suggestion decision = %v, want pending", p.Suggestions[0].Decision)
	}
}

func TestProposalService_Generate_NoDrift(t *testing.T) {
	ctx := context.Background()
	f := newProposalFixture()
	f.seedIntegration(t, 1)

	_, err := f.service.Generate(ctx, 1, "int-1")
	if err == nil {
		t.Fatal("Generate() expected error for drift-free integration")
	}
	appErr, ok := err.(*errors.AppError)
	if !ok || appErr.Code != errors.ErrCodeNoDriftToPropose {
		t.Errorf("Generate() error = %v, want NO_DRIFT_TO_PROPOSE", err)
	}
}

func TestProposalService_Generate_Idempotent(t *testing.T) {
	ctx := context.Background()
	f := newProposalFixture()
	f.seedIntegration(t, 1)
	f.seedDrift(t, 1, "dr-1", amountWidened())

	first, err := f.service.Generate(ctx, 1, "int-1")
	if err != nil {
		t.Fatalf("first Generate() error = %v", err)
	}

	// New drift lands while the first proposal is still pending
	f.seedDrift(t, 1, "dr-2", memoRemoved())

	second, err := f.service.Generate(ctx, 1, "int-1")
	if err != nil {
		t.Fatalf("second Generate() error = %v", err)
	}
	if second.ID != first.ID {
		t.Errorf("second Generate() created a new proposal %s, want existing %s", second.ID, first.ID)
	}
	if len(second.DriftRecordIDs) != 1 {
		t.Errorf("existing proposal mutated: DriftRecordIDs = %d, want 1", len(second.DriftRecordIDs))
	}
}

func TestProposalService_Generate_DedupesChanges(t *testing.T) {
	ctx := context.Background()
	f := newProposalFixture()
	f.seedIntegration(t, 1)

	// Two detection passes saw the same logical change
	f.seedDrift(t, 1, "dr-1", amountWidened())
	f.seedDrift(t, 1, "dr-2", amountWidened())

	p, err := f.service.Generate(ctx, 1, "int-1")
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	if len(p.DriftRecordIDs) != 2 {
		t.Errorf("DriftRecordIDs = %d, want 2 (both records covered)", len(p.DriftRecordIDs))
	}
	if len(p.SchemaDiff.Changes) != 1 {
		t.Errorf("SchemaDiff.Changes = %d, want 1 after de-duplication", len(p.SchemaDiff.Changes))
	}
}

func TestProposalService_Generate_SuggesterFailure(t *testing.T) {
	ctx := context.Background()
	f := newProposalFixture()
	f.seedIntegration(t, 1)
	f.seedDrift(t, 1, "dr-1", amountWidened())
	f.seedTool(t, 1, "tool-1", "amount")
	f.suggester.Err = context.DeadlineExceeded

	p, err := f.service.Generate(ctx, 1, "int-1")
	if err != nil {
		t.Fatalf("Generate() error = %v, suggestion failure must not abort", err)
	}
	if len(p.AffectedToolIDs) != 1 {
		t.Errorf("AffectedToolIDs = %v, tool must stay affected", p.AffectedToolIDs)
	}
	if len(p.Suggestions) != 0 {
		t.Errorf("Suggestions = %d, want 0 when the suggester fails", len(p.Suggestions))
	}
}

func TestProposalService_Approve(t *testing.T) {
	ctx := context.Background()
	f := newProposalFixture()
	f.seedIntegration(t, 1)
	f.seedDrift(t, 1, "dr-1", amountWidened())

	p, err := f.service.Generate(ctx, 1, "int-1")
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}

	approved, err := f.service.Approve(ctx, 1, p.ID)
	if err != nil {
		t.Fatalf("Approve() error = %v", err)
	}

	if approved.Status != proposal.StatusApproved {
		t.Errorf("Status = %v, want approved", approved.Status)
	}
	if approved.PriorSchemaVersion == nil || *approved.PriorSchemaVersion != 1 {
		t.Errorf("PriorSchemaVersion = %v, want 1", approved.PriorSchemaVersion)
	}
	if approved.DecidedAt == nil {
		t.Error("DecidedAt not set")
	}

	// Schema advanced and the change is applied
	i, _ := f.integrationRepo.GetByID(ctx, 1, "int-1")
	if i.SchemaVersion != 2 {
		t.Errorf("SchemaVersion = %d, want 2", i.SchemaVersion)
	}
	s, err := f.integrationRepo.GetSchema(ctx, "int-1", 2)
	if err != nil {
		t.Fatalf("GetSchema(2) error = %v", err)
	}
	if got := s.Actions["create_charge"].Fields["amount"].Type; got != integration.TypeNumber {
		t.Errorf("amount type after approve = %s, want number", got)
	}

	// Drift resolved
	rec, _ := f.driftRepo.GetByID(ctx, 1, "dr-1")
	if !rec.Resolved {
		t.Error("drift record not resolved by approval")
	}
}

func TestProposalService_Approve_NotPending(t *testing.T) {
	ctx := context.Background()
	f := newProposalFixture()
	f.seedIntegration(t, 1)
	f.seedDrift(t, 1, "dr-1", amountWidened())

	p, _ := f.service.Generate(ctx, 1, "int-1")
	if _, err := f.service.Approve(ctx, 1, p.ID); err != nil {
		t.Fatalf("Approve() error = %v", err)
	}

	_, err := f.service.Approve(ctx, 1, p.ID)
	appErr, ok := err.(*errors.AppError)
	if !ok || appErr.Code != errors.ErrCodeInvalidProposalState {
		t.Errorf("second Approve() error = %v, want INVALID_PROPOSAL_STATE", err)
	}
}

func TestProposalService_Approve_StaleDiff(t *testing.T) {
	ctx := context.Background()
	f := newProposalFixture()
	f.seedIntegration(t, 1)
	f.seedDrift(t, 1, "dr-1", memoRemoved())

	p, err := f.service.Generate(ctx, 1, "int-1")
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}

	// The schema moved underneath the proposal: memo is already gone
	s, _ := f.integrationRepo.GetSchema(ctx, "int-1", 1)
	next := s.Clone()
	next.Version = 2
	delete(next.Actions["create_charge"].Fields, "memo")
	if err := f.integrationRepo.SaveSchema(ctx, next); err != nil {
		t.Fatalf("SaveSchema: %v", err)
	}

	_, err = f.service.Approve(ctx, 1, p.ID)
	appErr, ok := err.(*errors.AppError)
	if !ok || appErr.Code != errors.ErrCodeConflict {
		t.Errorf("Approve() error = %v, want CONFLICT for stale diff", err)
	}

	// Nothing was applied
	stored, _ := f.repo.GetByID(ctx, 1, p.ID)
	if stored.Status != proposal.StatusPending {
		t.Errorf("Status after failed approve = %v, want pending", stored.Status)
	}
}

func TestProposalService_Reject(t *testing.T) {
	ctx := context.Background()
	f := newProposalFixture()
	f.seedIntegration(t, 1)
	f.seedDrift(t, 1, "dr-1", amountWidened())

	p, _ := f.service.Generate(ctx, 1, "int-1")
	rejected, err := f.service.Reject(ctx, 1, p.ID)
	if err != nil {
		t.Fatalf("Reject() error = %v", err)
	}
	if rejected.Status != proposal.StatusRejected {
		t.Errorf("Status = %v, want rejected", rejected.Status)
	}

	// Drift stays unresolved and a fresh proposal can cover it
	rec, _ := f.driftRepo.GetByID(ctx, 1, "dr-1")
	if rec.Resolved {
		t.Error("rejection must not resolve drift records")
	}
	i, _ := f.integrationRepo.GetByID(ctx, 1, "int-1")
	if i.SchemaVersion != 1 {
		t.Errorf("SchemaVersion = %d, want unchanged 1", i.SchemaVersion)
	}

	again, err := f.service.Generate(ctx, 1, "int-1")
	if err != nil {
		t.Fatalf("Generate() after reject error = %v", err)
	}
	if again.ID == p.ID {
		t.Error("Generate() after reject returned the rejected proposal")
	}
}

func TestProposalService_Revert(t *testing.T) {
	ctx := context.Background()
	f := newProposalFixture()
	f.seedIntegration(t, 1)
	f.seedDrift(t, 1, "dr-1", amountWidened())

	p, _ := f.service.Generate(ctx, 1, "int-1")
	if _, err := f.service.Approve(ctx, 1, p.ID); err != nil {
		t.Fatalf("Approve() error = %v", err)
	}

	reverted, err := f.service.Revert(ctx, 1, p.ID)
	if err != nil {
		t.Fatalf("Revert() error = %v", err)
	}
	if reverted.Status != proposal.StatusReverted {
		t.Errorf("Status = %v, want reverted", reverted.Status)
	}

	// Restoration is a new version, never a rollback of the version counter
	i, _ := f.integrationRepo.GetByID(ctx, 1, "int-1")
	if i.SchemaVersion != 3 {
		t.Errorf("SchemaVersion = %d, want 3", i.SchemaVersion)
	}
	s, err := f.integrationRepo.GetSchema(ctx, "int-1", 3)
	if err != nil {
		t.Fatalf("GetSchema(3) error = %v", err)
	}
	if got := s.Actions["create_charge"].Fields["amount"].Type; got != integration.TypeInteger {
		t.Errorf("amount type after revert = %s, want integer restored", got)
	}

	// Drift stays resolved
	rec, _ := f.driftRepo.GetByID(ctx, 1, "dr-1")
	if !rec.Resolved {
		t.Error("revert must not unresolve drift records")
	}

	// A reverted proposal is terminal
	_, err = f.service.Revert(ctx, 1, p.ID)
	appErr, ok := err.(*errors.AppError)
	if !ok || appErr.Code != errors.ErrCodeInvalidProposalState {
		t.Errorf("second Revert() error = %v, want INVALID_PROPOSAL_STATE", err)
	}
}

func TestProposalService_Revert_RequiresApproved(t *testing.T) {
	ctx := context.Background()
	f := newProposalFixture()
	f.seedIntegration(t, 1)
	f.seedDrift(t, 1, "dr-1", amountWidened())

	p, _ := f.service.Generate(ctx, 1, "int-1")
	_, err := f.service.Revert(ctx, 1, p.ID)
	appErr, ok := err.(*errors.AppError)
	if !ok || appErr.Code != errors.ErrCodeInvalidProposalState {
		t.Errorf("Revert() on pending error = %v, want INVALID_PROPOSAL_STATE", err)
	}
}

func TestProposalService_ApplyDescriptionDecisions(t *testing.T) {
	ctx := context.Background()
	f := newProposalFixture()
	f.seedIntegration(t, 1)
	f.seedDrift(t, 1, "dr-1", amountWidened())
	f.seedTool(t, 1, "tool-1", "amount")
	f.seedTool(t, 1, "tool-2", "amount")
	f.suggester.Text = "Creates a charge; amount now accepts decimals"

	p, _ := f.service.Generate(ctx, 1, "int-1")

	// Decisions are refused while pending
	_, err := f.service.ApplyDescriptionDecisions(ctx, 1, p.ID, []proposal.DecisionInput{{ToolID: "tool-1", Accept: true}})
	appErr, ok := err.(*errors.AppError)
	if !ok || appErr.Code != errors.ErrCodeInvalidProposalState {
		t.Errorf("decisions on pending proposal error = %v, want INVALID_PROPOSAL_STATE", err)
	}

	if _, err := f.service.Approve(ctx, 1, p.ID); err != nil {
		t.Fatalf("Approve() error = %v", err)
	}

	updated, err := f.service.ApplyDescriptionDecisions(ctx, 1, p.ID, []proposal.DecisionInput{
		{ToolID: "tool-1", Accept: true},
		{ToolID: "tool-2", Accept: false},
		{ToolID: "no-such-tool", Accept: true},
	})
	if err != nil {
		t.Fatalf("ApplyDescriptionDecisions() error = %v", err)
	}

	if got := updated.SuggestionFor("tool-1").Decision; got != proposal.DecisionAccepted {
		t.Errorf("tool-1 decision = %v, want accepted", got)
	}
	if got := updated.SuggestionFor("tool-2").Decision; got != proposal.DecisionSkipped {
		t.Errorf("tool-2 decision = %v, want skipped", got)
	}

	// Accepted text is written through; skipped tool untouched
	t1, _ := f.toolRepo.GetByID(ctx, 1, "tool-1")
	if t1.Description != f.suggester.Text {
		t.Errorf("tool-1 description = %q, want the accepted suggestion", t1.Description)
	}
	t2, _ := f.toolRepo.GetByID(ctx, 1, "tool-2")
	if t2.Description != "Creates a charge" {
		t.Errorf("tool-2 description = %q, want original", t2.Description)
	}

	// Retrying the same decision set is a no-op
	if _, err := f.service.ApplyDescriptionDecisions(ctx, 1, p.ID, []proposal.DecisionInput{
		{ToolID: "tool-1", Accept: false},
	}); err != nil {
		t.Fatalf("retry error = %v", err)
	}
	final, _ := f.repo.GetByID(ctx, 1, p.ID)
	if got := final.SuggestionFor("tool-1").Decision; got != proposal.DecisionAccepted {
		t.Errorf("tool-1 decision after retry = %v, decided suggestions must not flip", got)
	}
}

func TestProposalService_GetSummary(t *testing.T) {
	ctx := context.Background()
	f := newProposalFixture()
	f.seedIntegration(t, 1)

	counts, err := f.service.GetSummary(ctx, 1, "int-1")
	if err != nil {
		t.Fatalf("GetSummary() error = %v", err)
	}
	for _, st := range []proposal.Status{proposal.StatusPending, proposal.StatusApproved, proposal.StatusRejected, proposal.StatusReverted} {
		if got, ok := counts[st]; !ok || got != 0 {
			t.Errorf("counts[%s] = %d (present %t), want zero-filled", st, got, ok)
		}
	}

	f.seedDrift(t, 1, "dr-1", amountWidened())
	if _, err := f.service.Generate(ctx, 1, "int-1"); err != nil {
		t.Fatalf("Generate() error = %v", err)
	}

	counts, err = f.service.GetSummary(ctx, 1, "int-1")
	if err != nil {
		t.Fatalf("GetSummary() error = %v", err)
	}
	if counts[proposal.StatusPending] != 1 {
		t.Errorf("pending = %d, want 1", counts[proposal.StatusPending])
	}
}
