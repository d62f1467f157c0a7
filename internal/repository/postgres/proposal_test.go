package postgres

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/toolbridge-io/toolbridge/internal/domain/drift"
	"github.com/toolbridge-io/toolbridge/internal/domain/integration"
	"github.com/toolbridge-io/toolbridge/internal/domain/proposal"
	"github.com/toolbridge-io/toolbridge/internal/domain/tool"
	"github.com/toolbridge-io/toolbridge/internal/pkg/errors"
	"github.com/toolbridge-io/toolbridge/internal/testutil"
)

func seedSchemaVersion(t *testing.T, db *DB, integrationID string, version int) *integration.Schema {
	t.Helper()

	s := &integration.Schema{
		IntegrationID: integrationID,
		Version:       version,
		Actions: map[string]integration.ActionSchema{
			"create_charge": {Fields: map[string]integration.Field{
				"amount": {Type: integration.TypeInteger, Required: true},
				"memo":   {Type: integration.TypeString},
			}},
		},
		CapturedAt: time.Now(),
	}
	if err := NewIntegrationRepository(db).SaveSchema(context.Background(), s); err != nil {
		t.Fatalf("SaveSchema() error = %v", err)
	}
	return s
}

func seedDriftRecord(t *testing.T, db *DB, integrationID string) *drift.Record {
	t.Helper()

	d := &drift.Record{
		ID:            uuid.New().String(),
		TenantID:      1,
		IntegrationID: integrationID,
		Severity:      drift.SeverityBreaking,
		ChangeKind:    integration.ChangeRemoved,
		Action:        "create_charge",
		FieldPath:     "memo",
		Change: integration.FieldChange{
			Action:  "create_charge",
			Path:    "memo",
			Kind:    integration.ChangeRemoved,
			OldType: integration.TypeString,
		},
		DetectedAt: time.Now(),
	}
	if err := NewDriftRepository(db).CreateBatch(context.Background(), []*drift.Record{d}); err != nil {
		t.Fatalf("CreateBatch() error = %v", err)
	}
	return d
}

func pendingProposal(integrationID string, recordIDs []string) *proposal.Proposal {
	return &proposal.Proposal{
		ID:             uuid.New().String(),
		TenantID:       1,
		IntegrationID:  integrationID,
		Status:         proposal.StatusPending,
		DriftRecordIDs: recordIDs,
		SchemaDiff: integration.Diff{Changes: []integration.FieldChange{
			{Action: "create_charge", Path: "memo", Kind: integration.ChangeRemoved, OldType: integration.TypeString},
		}},
		AffectedToolIDs: []string{},
		Suggestions:     []proposal.DescriptionSuggestion{},
		CreatedAt:       time.Now(),
	}
}

func TestProposalRepository_OnePendingPerIntegration(t *testing.T) {
	db := newTestDB(t)
	defer testutil.CleanupDB(db.DB)

	repo := NewProposalRepository(db)
	ctx := context.Background()
	seedIntegrationRow(t, db, "int-1")
	d := seedDriftRecord(t, db, "int-1")

	first := pendingProposal("int-1", []string{d.ID})
	if err := repo.Create(ctx, first); err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	// The partial unique index rejects a second pending proposal
	err := repo.Create(ctx, pendingProposal("int-1", []string{d.ID}))
	if err != proposal.ErrPendingExists {
		t.Fatalf("Create() second pending error = %v, want ErrPendingExists", err)
	}

	got, err := repo.GetPendingByIntegration(ctx, 1, "int-1")
	if err != nil {
		t.Fatalf("GetPendingByIntegration() error = %v", err)
	}
	if got == nil || got.ID != first.ID {
		t.Errorf("GetPendingByIntegration() = %v, want %s", got, first.ID)
	}
}

func TestProposalRepository_ApproveTransaction(t *testing.T) {
	db := newTestDB(t)
	defer testutil.CleanupDB(db.DB)

	repo := NewProposalRepository(db)
	intRepo := NewIntegrationRepository(db)
	driftRepo := NewDriftRepository(db)
	ctx := context.Background()

	seedIntegrationRow(t, db, "int-1")
	v1 := seedSchemaVersion(t, db, "int-1", 1)
	d := seedDriftRecord(t, db, "int-1")

	p := pendingProposal("int-1", []string{d.ID})
	if err := repo.Create(ctx, p); err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	v2 := v1.Clone()
	v2.Version = 2
	delete(v2.Actions["create_charge"].Fields, "memo")

	prior := 1
	now := time.Now()
	p.Status = proposal.StatusApproved
	p.PriorSchemaVersion = &prior
	p.DecidedAt = &now
	if err := repo.Approve(ctx, p, v2); err != nil {
		t.Fatalf("Approve() error = %v", err)
	}

	got, err := repo.GetByID(ctx, 1, p.ID)
	if err != nil {
		t.Fatalf("GetByID() error = %v", err)
	}
	if got.Status != proposal.StatusApproved {
		t.Errorf("Status = %s, want approved", got.Status)
	}
	if got.PriorSchemaVersion == nil || *got.PriorSchemaVersion != 1 {
		t.Errorf("PriorSchemaVersion = %v, want 1", got.PriorSchemaVersion)
	}

	i, _ := intRepo.GetByID(ctx, 1, "int-1")
	if i.SchemaVersion != 2 {
		t.Errorf("SchemaVersion = %d, want 2", i.SchemaVersion)
	}

	rec, err := driftRepo.GetByID(ctx, 1, d.ID)
	if err != nil {
		t.Fatalf("GetByID() drift error = %v", err)
	}
	if !rec.Resolved || rec.ResolvedAt == nil {
		t.Errorf("drift record not resolved: %+v", rec)
	}

	// A second approve loses the compare-and-set
	err = repo.Approve(ctx, p, v2)
	if appErr, ok := err.(*errors.AppError); !ok || appErr.Code != errors.ErrCodeInvalidProposalState {
		t.Errorf("Approve() twice error = %v, want %s", err, errors.ErrCodeInvalidProposalState)
	}
}

func TestProposalRepository_ConcurrentApprove(t *testing.T) {
	db := newTestDB(t)
	defer testutil.CleanupDB(db.DB)

	repo := NewProposalRepository(db)
	ctx := context.Background()

	seedIntegrationRow(t, db, "int-1")
	v1 := seedSchemaVersion(t, db, "int-1", 1)
	d := seedDriftRecord(t, db, "int-1")

	p := pendingProposal("int-1", []string{d.ID})
	if err := repo.Create(ctx, p); err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	prior := 1
	now := time.Now()
	errs := make(chan error, 2)
	var wg sync.WaitGroup
	for g := 0; g < 2; g++ {
		wg.Add(1)
		go func(version int) {
			defer wg.Done()

			v2 := v1.Clone()
			v2.Version = version
			attempt := *p
			attempt.Status = proposal.StatusApproved
			attempt.PriorSchemaVersion = &prior
			attempt.DecidedAt = &now
			errs <- repo.Approve(ctx, &attempt, v2)
		}(2 + g)
	}
	wg.Wait()
	close(errs)

	var succeeded, conflicted int
	for err := range errs {
		if err == nil {
			succeeded++
			continue
		}
		if appErr, ok := err.(*errors.AppError); ok && appErr.Code == errors.ErrCodeInvalidProposalState {
			conflicted++
		} else {
			t.Errorf("Approve() unexpected error = %v", err)
		}
	}
	if succeeded != 1 || conflicted != 1 {
		t.Errorf("got %d successes and %d conflicts, want exactly one of each", succeeded, conflicted)
	}

	got, err := repo.GetByID(ctx, 1, p.ID)
	if err != nil {
		t.Fatalf("GetByID() error = %v", err)
	}
	if got.Status != proposal.StatusApproved {
		t.Errorf("Status = %s, want approved", got.Status)
	}
}

func TestProposalRepository_RejectLeavesDriftUnresolved(t *testing.T) {
	db := newTestDB(t)
	defer testutil.CleanupDB(db.DB)

	repo := NewProposalRepository(db)
	driftRepo := NewDriftRepository(db)
	ctx := context.Background()

	seedIntegrationRow(t, db, "int-1")
	d := seedDriftRecord(t, db, "int-1")

	p := pendingProposal("int-1", []string{d.ID})
	if err := repo.Create(ctx, p); err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	now := time.Now()
	p.Status = proposal.StatusRejected
	p.DecidedAt = &now
	if err := repo.Reject(ctx, p); err != nil {
		t.Fatalf("Reject() error = %v", err)
	}

	rec, _ := driftRepo.GetByID(ctx, 1, d.ID)
	if rec.Resolved {
		t.Error("Reject() should not resolve drift records")
	}

	// The index frees up for the next generation
	if err := repo.Create(ctx, pendingProposal("int-1", []string{d.ID})); err != nil {
		t.Fatalf("Create() after reject error = %v", err)
	}
}

func TestProposalRepository_RevertWritesNewVersion(t *testing.T) {
	db := newTestDB(t)
	defer testutil.CleanupDB(db.DB)

	repo := NewProposalRepository(db)
	intRepo := NewIntegrationRepository(db)
	ctx := context.Background()

	seedIntegrationRow(t, db, "int-1")
	v1 := seedSchemaVersion(t, db, "int-1", 1)
	d := seedDriftRecord(t, db, "int-1")

	p := pendingProposal("int-1", []string{d.ID})
	if err := repo.Create(ctx, p); err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	v2 := v1.Clone()
	v2.Version = 2
	prior := 1
	now := time.Now()
	p.Status = proposal.StatusApproved
	p.PriorSchemaVersion = &prior
	p.DecidedAt = &now
	if err := repo.Approve(ctx, p, v2); err != nil {
		t.Fatalf("Approve() error = %v", err)
	}

	restored := v1.Clone()
	restored.Version = 3
	p.Status = proposal.StatusReverted
	if err := repo.Revert(ctx, p, restored); err != nil {
		t.Fatalf("Revert() error = %v", err)
	}

	i, _ := intRepo.GetByID(ctx, 1, "int-1")
	if i.SchemaVersion != 3 {
		t.Errorf("SchemaVersion after revert = %d, want 3", i.SchemaVersion)
	}

	// History stays append-only
	for v := 1; v <= 3; v++ {
		if _, err := intRepo.GetSchema(ctx, "int-1", v); err != nil {
			t.Errorf("GetSchema(%d) error = %v", v, err)
		}
	}

	err := repo.Revert(ctx, p, restored)
	if appErr, ok := err.(*errors.AppError); !ok || appErr.Code != errors.ErrCodeInvalidProposalState {
		t.Errorf("Revert() twice error = %v, want %s", err, errors.ErrCodeInvalidProposalState)
	}
}

func TestProposalRepository_UpdateDecisions(t *testing.T) {
	db := newTestDB(t)
	defer testutil.CleanupDB(db.DB)

	repo := NewProposalRepository(db)
	toolRepo := NewToolRepository(db)
	ctx := context.Background()

	seedIntegrationRow(t, db, "int-1")
	v1 := seedSchemaVersion(t, db, "int-1", 1)
	d := seedDriftRecord(t, db, "int-1")

	tl := &tool.Tool{
		ID:            "tool-1",
		TenantID:      1,
		IntegrationID: "int-1",
		Name:          "Create Charge",
		Action:        "create_charge",
		Description:   "Creates a charge with an optional memo",
		FieldRefs:     []string{"memo"},
	}
	if err := toolRepo.Create(ctx, tl); err != nil {
		t.Fatalf("Create() tool error = %v", err)
	}

	p := pendingProposal("int-1", []string{d.ID})
	p.AffectedToolIDs = []string{"tool-1"}
	p.Suggestions = []proposal.DescriptionSuggestion{
		{ToolID: "tool-1", ProposedText: "Creates a charge", Decision: proposal.DecisionPending},
	}
	if err := repo.Create(ctx, p); err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	v2 := v1.Clone()
	v2.Version = 2
	prior := 1
	now := time.Now()
	p.Status = proposal.StatusApproved
	p.PriorSchemaVersion = &prior
	p.DecidedAt = &now
	if err := repo.Approve(ctx, p, v2); err != nil {
		t.Fatalf("Approve() error = %v", err)
	}

	p.Suggestions[0].Decision = proposal.DecisionAccepted
	accepted := map[string]string{"tool-1": "Creates a charge"}
	if err := repo.UpdateDecisions(ctx, p, accepted); err != nil {
		t.Fatalf("UpdateDecisions() error = %v", err)
	}

	got, _ := repo.GetByID(ctx, 1, p.ID)
	if got.Suggestions[0].Decision != proposal.DecisionAccepted {
		t.Errorf("Decision = %s, want accepted", got.Suggestions[0].Decision)
	}

	updated, err := toolRepo.GetByID(ctx, 1, "tool-1")
	if err != nil {
		t.Fatalf("GetByID() tool error = %v", err)
	}
	if updated.Description != "Creates a charge" {
		t.Errorf("Description = %q, want accepted text", updated.Description)
	}
}
