package services

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/toolbridge-io/toolbridge/internal/detector"
	"github.com/toolbridge-io/toolbridge/internal/domain/drift"
	"github.com/toolbridge-io/toolbridge/internal/domain/integration"
	"github.com/toolbridge-io/toolbridge/internal/domain/tool"
	"github.com/toolbridge-io/toolbridge/internal/pkg/errors"
	"github.com/toolbridge-io/toolbridge/internal/pkg/logger"
	"github.com/toolbridge-io/toolbridge/internal/pkg/metrics"
)

// DriftService implements drift.Service
type DriftService struct {
	repo            drift.Repository
	integrationRepo integration.Repository
	toolRepo        tool.Repository
	detector        *detector.SchemaDriftDetector
	fetcher         integration.SchemaFetcher // may be nil
	logger          *logger.Logger
}

// NewDriftService creates a new drift service
func NewDriftService(
	repo drift.Repository,
	integrationRepo integration.Repository,
	toolRepo tool.Repository,
	fetcher integration.SchemaFetcher,
	log *logger.Logger,
) drift.Service {
	return &DriftService{
		repo:            repo,
		integrationRepo: integrationRepo,
		toolRepo:        toolRepo,
		detector:        detector.NewSchemaDriftDetector(),
		fetcher:         fetcher,
		logger:          log,
	}
}

// Detect diffs a fetched schema against the stored snapshot and persists the
// resulting records. A change already tracked by an unresolved record is
// skipped, so a repeated refresh against the same drifted upstream does not
// multiply the counts. Records still always get fresh ids: a re-detection
// after resolution reports the new movement, it never revives old records.
func (s *DriftService) Detect(ctx context.Context, tenantID int64, integrationID string, fetched *integration.Schema) ([]*drift.Record, error) {
	i, err := s.integrationRepo.GetByID(ctx, tenantID, integrationID)
	if err != nil {
		return nil, err
	}

	fromObserved := false
	if fetched == nil {
		switch {
		case s.fetcher != nil:
			fetched, err = s.fetcher.Fetch(ctx, i)
			if err != nil {
				s.logger.ErrorWithErr(err, "Upstream schema fetch failed")
				return nil, errors.Internal("Failed to fetch upstream schema", err)
			}
		default:
			fetched, err = s.integrationRepo.GetObservedSchema(ctx, i.ID)
			if err != nil {
				return nil, err
			}
			if fetched == nil {
				return nil, errors.InvalidRequest("No schema supplied and no upstream fetcher is configured")
			}
			fromObserved = true
		}
	}
	fetched.IntegrationID = i.ID

	snapshot, err := s.integrationRepo.GetSchema(ctx, i.ID, i.SchemaVersion)
	if err != nil {
		return nil, err
	}

	tools, err := s.toolRepo.ListByIntegration(ctx, tenantID, i.ID)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	detected := s.detector.Detect(snapshot, fetched, tool.NewRefIndex(tools))
	metrics.ObserveDriftDetection(time.Since(start))

	unresolved, err := s.repo.ListUnresolved(ctx, tenantID, i.ID)
	if err != nil {
		return nil, err
	}
	tracked := make(map[string]bool, len(unresolved))
	for _, r := range unresolved {
		tracked[r.Change.Key()] = true
	}

	now := time.Now()
	records := make([]*drift.Record, 0, len(detected))
	for _, d := range detected {
		if tracked[d.Change.Key()] {
			continue
		}
		rec := d
		rec.ID = uuid.New().String()
		rec.TenantID = tenantID
		rec.IntegrationID = i.ID
		rec.DetectedAt = now
		records = append(records, &rec)
		metrics.RecordDriftRecord(string(rec.Severity), string(rec.ChangeKind))
	}

	if len(records) > 0 {
		if err := s.repo.CreateBatch(ctx, records); err != nil {
			s.logger.ErrorWithErr(err, "Failed to persist drift records")
			return nil, err
		}
	}

	// Keep the latest upstream observation around for later detections. The
	// records above are already persisted, so a failed write here only costs
	// the cached copy.
	if !fromObserved {
		if err := s.integrationRepo.SaveObservedSchema(ctx, fetched); err != nil {
			s.logger.ErrorWithErr(err, "Failed to persist observed schema")
		}
	}

	s.logger.WithFields(map[string]interface{}{
		"integration_id": i.ID,
		"tenant_id":      tenantID,
		"records":        len(records),
	}).Info("Drift detection completed")

	return records, nil
}

// List retrieves records with filters and pagination
func (s *DriftService) List(ctx context.Context, tenantID int64, integrationID string, filter drift.Filter, limit, offset int) ([]*drift.Record, int64, error) {
	if _, err := s.integrationRepo.GetByID(ctx, tenantID, integrationID); err != nil {
		return nil, 0, err
	}
	return s.repo.ListWithPagination(ctx, tenantID, integrationID, filter, limit, offset)
}

// GetSummary returns unresolved severity counts for one integration. An
// integration with no drift yields all-zero counts, not an error.
func (s *DriftService) GetSummary(ctx context.Context, tenantID int64, integrationID string) (*drift.Summary, error) {
	if _, err := s.integrationRepo.GetByID(ctx, tenantID, integrationID); err != nil {
		return nil, err
	}
	return s.repo.CountUnresolvedBySeverity(ctx, tenantID, integrationID)
}
