package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/toolbridge-io/toolbridge/internal/domain/drift"
	"github.com/toolbridge-io/toolbridge/internal/domain/integration"
	"github.com/toolbridge-io/toolbridge/internal/testutil"
)

func TestDriftRepository_CountUnresolvedBySeverity(t *testing.T) {
	db := newTestDB(t)
	defer testutil.CleanupDB(db.DB)

	repo := NewDriftRepository(db)
	ctx := context.Background()
	seedIntegrationRow(t, db, "int-1")

	records := []*drift.Record{
		{ID: uuid.New().String(), TenantID: 1, IntegrationID: "int-1", Severity: drift.SeverityBreaking,
			ChangeKind: integration.ChangeRemoved, Action: "create_charge", FieldPath: "memo", DetectedAt: time.Now()},
		{ID: uuid.New().String(), TenantID: 1, IntegrationID: "int-1", Severity: drift.SeverityWarning,
			ChangeKind: integration.ChangeTypeChanged, Action: "create_charge", FieldPath: "amount", DetectedAt: time.Now()},
		{ID: uuid.New().String(), TenantID: 1, IntegrationID: "int-1", Severity: drift.SeverityWarning,
			ChangeKind: integration.ChangeRequiredChanged, Action: "create_charge", FieldPath: "currency", DetectedAt: time.Now()},
		{ID: uuid.New().String(), TenantID: 1, IntegrationID: "int-1", Severity: drift.SeverityInfo,
			ChangeKind: integration.ChangeAdded, Action: "create_charge", FieldPath: "metadata", DetectedAt: time.Now(), Resolved: true},
	}
	if err := repo.CreateBatch(ctx, records); err != nil {
		t.Fatalf("CreateBatch() error = %v", err)
	}

	summary, err := repo.CountUnresolvedBySeverity(ctx, 1, "int-1")
	if err != nil {
		t.Fatalf("CountUnresolvedBySeverity() error = %v", err)
	}
	if summary.Breaking != 1 || summary.Warning != 2 || summary.Info != 0 || summary.Total != 3 {
		t.Errorf("summary = %+v, want 1 breaking, 2 warning, 0 info", summary)
	}

	// An integration with no records gets a zero-valued summary
	seedIntegrationRow(t, db, "int-2")
	summary, err = repo.CountUnresolvedBySeverity(ctx, 1, "int-2")
	if err != nil {
		t.Fatalf("CountUnresolvedBySeverity() empty error = %v", err)
	}
	if summary.Total != 0 {
		t.Errorf("empty summary = %+v, want zeros", summary)
	}
}

func TestDriftRepository_ListWithPagination(t *testing.T) {
	db := newTestDB(t)
	defer testutil.CleanupDB(db.DB)

	repo := NewDriftRepository(db)
	ctx := context.Background()
	seedIntegrationRow(t, db, "int-1")

	resolved := &drift.Record{ID: uuid.New().String(), TenantID: 1, IntegrationID: "int-1",
		Severity: drift.SeverityInfo, ChangeKind: integration.ChangeAdded, Action: "create_charge",
		FieldPath: "metadata", DetectedAt: time.Now(), Resolved: true}
	open := &drift.Record{ID: uuid.New().String(), TenantID: 1, IntegrationID: "int-1",
		Severity: drift.SeverityBreaking, ChangeKind: integration.ChangeRemoved, Action: "create_charge",
		FieldPath: "memo", DetectedAt: time.Now()}
	if err := repo.CreateBatch(ctx, []*drift.Record{resolved, open}); err != nil {
		t.Fatalf("CreateBatch() error = %v", err)
	}

	unresolvedOnly := false
	tests := []struct {
		name   string
		filter drift.Filter
		want   int
	}{
		{"no filter", drift.Filter{}, 2},
		{"by severity", drift.Filter{Severity: drift.SeverityBreaking}, 1},
		{"by change kind", drift.Filter{ChangeKind: integration.ChangeAdded}, 1},
		{"unresolved only", drift.Filter{Resolved: &unresolvedOnly}, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			records, total, err := repo.ListWithPagination(ctx, 1, "int-1", tt.filter, 10, 0)
			if err != nil {
				t.Fatalf("ListWithPagination() error = %v", err)
			}
			if len(records) != tt.want || total != int64(tt.want) {
				t.Errorf("ListWithPagination() = %d/%d, want %d", len(records), total, tt.want)
			}
		})
	}
}
