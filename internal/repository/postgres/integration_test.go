package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/toolbridge-io/toolbridge/internal/domain/integration"
	"github.com/toolbridge-io/toolbridge/internal/pkg/errors"
	"github.com/toolbridge-io/toolbridge/internal/testutil"
	"github.com/toolbridge-io/toolbridge/migrations"
)

// newTestDB opens an in-memory database with the embedded migrations applied
func newTestDB(t *testing.T) *DB {
	t.Helper()

	sqlDB := testutil.NewTestDB(t)
	if err := RunMigrations(sqlDB, migrations.GetFS()); err != nil {
		t.Fatalf("Failed to run migrations: %v", err)
	}
	return &DB{DB: sqlDB}
}

func seedIntegrationRow(t *testing.T, db *DB, id string) *integration.Integration {
	t.Helper()

	i := &integration.Integration{
		ID:       id,
		TenantID: 1,
		Name:     "Stripe Production",
		Provider: "stripe",
		Status:   integration.StatusActive,
	}
	if err := NewIntegrationRepository(db).Create(context.Background(), i); err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	return i
}

func TestIntegrationRepository_CreateAndGet(t *testing.T) {
	db := newTestDB(t)
	defer testutil.CleanupDB(db.DB)

	repo := NewIntegrationRepository(db)
	ctx := context.Background()
	seeded := seedIntegrationRow(t, db, "int-1")

	got, err := repo.GetByID(ctx, 1, "int-1")
	if err != nil {
		t.Fatalf("GetByID() error = %v", err)
	}
	if got.Name != seeded.Name || got.Provider != seeded.Provider || got.Status != integration.StatusActive {
		t.Errorf("GetByID() = %+v, want %+v", got, seeded)
	}
	if got.SchemaVersion != 0 {
		t.Errorf("SchemaVersion = %d, want 0", got.SchemaVersion)
	}

	// Tenant scoping hides the row from other tenants
	if _, err := repo.GetByID(ctx, 2, "int-1"); err == nil {
		t.Fatal("GetByID() with wrong tenant should fail")
	} else if appErr, ok := err.(*errors.AppError); !ok || appErr.Code != errors.ErrCodeIntegrationNotFound {
		t.Errorf("GetByID() error = %v, want %s", err, errors.ErrCodeIntegrationNotFound)
	}
}

func TestIntegrationRepository_List(t *testing.T) {
	db := newTestDB(t)
	defer testutil.CleanupDB(db.DB)

	repo := NewIntegrationRepository(db)
	ctx := context.Background()
	seedIntegrationRow(t, db, "int-1")
	seedIntegrationRow(t, db, "int-2")

	list, total, err := repo.List(ctx, 1, 10, 0)
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if total != 2 || len(list) != 2 {
		t.Errorf("List() returned %d/%d, want 2/2", len(list), total)
	}

	list, total, err = repo.List(ctx, 2, 10, 0)
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if total != 0 || len(list) != 0 {
		t.Errorf("List() for empty tenant returned %d/%d, want 0/0", len(list), total)
	}
}

func TestIntegrationRepository_SaveSchema(t *testing.T) {
	db := newTestDB(t)
	defer testutil.CleanupDB(db.DB)

	repo := NewIntegrationRepository(db)
	ctx := context.Background()
	seedIntegrationRow(t, db, "int-1")

	v1 := &integration.Schema{
		IntegrationID: "int-1",
		Version:       1,
		Actions: map[string]integration.ActionSchema{
			"create_charge": {
				Fields: map[string]integration.Field{
					"amount": {Type: integration.TypeObject, Required: true, Fields: map[string]integration.Field{
						"value":    {Type: integration.TypeInteger, Required: true},
						"currency": {Type: integration.TypeString, Required: true},
					}},
				},
			},
		},
		CapturedAt: time.Now(),
	}
	if err := repo.SaveSchema(ctx, v1); err != nil {
		t.Fatalf("SaveSchema() error = %v", err)
	}

	// The current version pointer follows the write
	i, err := repo.GetByID(ctx, 1, "int-1")
	if err != nil {
		t.Fatalf("GetByID() error = %v", err)
	}
	if i.SchemaVersion != 1 {
		t.Errorf("SchemaVersion = %d, want 1", i.SchemaVersion)
	}

	got, err := repo.GetSchema(ctx, "int-1", 1)
	if err != nil {
		t.Fatalf("GetSchema() error = %v", err)
	}
	currency, ok := got.Actions["create_charge"].Fields["amount"].Fields["currency"]
	if !ok || currency.Type != integration.TypeString || !currency.Required {
		t.Errorf("GetSchema() lost nested field: %+v", got.Actions)
	}

	v2 := v1.Clone()
	v2.Version = 2
	if err := repo.SaveSchema(ctx, v2); err != nil {
		t.Fatalf("SaveSchema() v2 error = %v", err)
	}
	i, _ = repo.GetByID(ctx, 1, "int-1")
	if i.SchemaVersion != 2 {
		t.Errorf("SchemaVersion after v2 = %d, want 2", i.SchemaVersion)
	}

	// Prior versions stay readable for revert
	if _, err := repo.GetSchema(ctx, "int-1", 1); err != nil {
		t.Errorf("GetSchema(v1) after v2 error = %v", err)
	}

	if _, err := repo.GetSchema(ctx, "int-1", 9); err == nil {
		t.Error("GetSchema() for unknown version should fail")
	}
}

func TestIntegrationRepository_ObservedSchema(t *testing.T) {
	db := newTestDB(t)
	defer testutil.CleanupDB(db.DB)

	repo := NewIntegrationRepository(db)
	ctx := context.Background()
	seedIntegrationRow(t, db, "int-1")

	got, err := repo.GetObservedSchema(ctx, "int-1")
	if err != nil {
		t.Fatalf("GetObservedSchema() error = %v", err)
	}
	if got != nil {
		t.Fatalf("GetObservedSchema() before save = %+v, want nil", got)
	}

	first := &integration.Schema{
		IntegrationID: "int-1",
		Actions: map[string]integration.ActionSchema{
			"create_charge": {
				Fields: map[string]integration.Field{
					"amount": {Type: integration.TypeInteger, Required: true},
				},
			},
		},
		CapturedAt: time.Now(),
	}
	if err := repo.SaveObservedSchema(ctx, first); err != nil {
		t.Fatalf("SaveObservedSchema() error = %v", err)
	}

	got, err = repo.GetObservedSchema(ctx, "int-1")
	if err != nil {
		t.Fatalf("GetObservedSchema() error = %v", err)
	}
	if got == nil {
		t.Fatal("GetObservedSchema() after save returned nil")
	}
	if _, ok := got.Actions["create_charge"].Fields["amount"]; !ok {
		t.Errorf("GetObservedSchema() lost fields: %+v", got.Actions)
	}

	// A newer observation replaces the old one, there is one row per integration
	second := first.Clone()
	second.Actions["create_charge"] = integration.ActionSchema{
		Fields: map[string]integration.Field{
			"total": {Type: integration.TypeNumber, Required: true},
		},
	}
	if err := repo.SaveObservedSchema(ctx, second); err != nil {
		t.Fatalf("SaveObservedSchema() upsert error = %v", err)
	}

	got, err = repo.GetObservedSchema(ctx, "int-1")
	if err != nil {
		t.Fatalf("GetObservedSchema() error = %v", err)
	}
	if _, ok := got.Actions["create_charge"].Fields["amount"]; ok {
		t.Error("stale observation survived the upsert")
	}
	if _, ok := got.Actions["create_charge"].Fields["total"]; !ok {
		t.Errorf("GetObservedSchema() after upsert = %+v", got.Actions)
	}
}
