package services

import (
	"context"
	stderrors "errors"
	"time"

	"github.com/google/uuid"
	"github.com/toolbridge-io/toolbridge/internal/domain/drift"
	"github.com/toolbridge-io/toolbridge/internal/domain/integration"
	"github.com/toolbridge-io/toolbridge/internal/domain/proposal"
	"github.com/toolbridge-io/toolbridge/internal/domain/tool"
	"github.com/toolbridge-io/toolbridge/internal/pkg/errors"
	"github.com/toolbridge-io/toolbridge/internal/pkg/logger"
	"github.com/toolbridge-io/toolbridge/internal/pkg/metrics"
	"github.com/toolbridge-io/toolbridge/internal/suggest"
)

// ProposalService implements proposal.Service: it generates maintenance
// proposals from unresolved drift and owns the approval state machine.
type ProposalService struct {
	repo            proposal.Repository
	driftRepo       drift.Repository
	integrationRepo integration.Repository
	toolRepo        tool.Repository
	suggester       suggest.Suggester
	logger          *logger.Logger
}

// NewProposalService creates a new proposal service
func NewProposalService(
	repo proposal.Repository,
	driftRepo drift.Repository,
	integrationRepo integration.Repository,
	toolRepo tool.Repository,
	suggester suggest.Suggester,
	log *logger.Logger,
) proposal.Service {
	return &ProposalService{
		repo:            repo,
		driftRepo:       driftRepo,
		integrationRepo: integrationRepo,
		toolRepo:        toolRepo,
		suggester:       suggester,
		logger:          log,
	}
}

// Generate bundles all unresolved drift for an integration into one pending
// proposal. Idempotent: an existing pending proposal is returned unchanged.
func (s *ProposalService) Generate(ctx context.Context, tenantID int64, integrationID string) (*proposal.Proposal, error) {
	i, err := s.integrationRepo.GetByID(ctx, tenantID, integrationID)
	if err != nil {
		return nil, err
	}

	if existing, err := s.repo.GetPendingByIntegration(ctx, tenantID, i.ID); err != nil {
		return nil, err
	} else if existing != nil {
		return existing, nil
	}

	records, err := s.driftRepo.ListUnresolved(ctx, tenantID, i.ID)
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, errors.NoDriftToPropose()
	}

	diff := unionDiff(records)
	recordIDs := make([]string, 0, len(records))
	for _, r := range records {
		recordIDs = append(recordIDs, r.ID)
	}

	tools, err := s.toolRepo.ListByIntegration(ctx, tenantID, i.ID)
	if err != nil {
		return nil, err
	}

	affected := affectedTools(tools, diff)
	affectedIDs := make([]string, 0, len(affected))
	suggestions := make([]proposal.DescriptionSuggestion, 0, len(affected))
	for _, t := range affected {
		affectedIDs = append(affectedIDs, t.ID)

		text, err := s.suggester.Suggest(ctx, t, diffSliceFor(t, diff))
		if err != nil {
			// One tool's suggestion failure never aborts the proposal; the
			// tool stays in affectedToolIds with no suggestion entry.
			s.logger.WithFields(map[string]interface{}{
				"tool_id":     t.ID,
				"proposal_of": i.ID,
			}).WithError(err).Warn("Description suggestion failed, continuing without one")
			continue
		}
		suggestions = append(suggestions, proposal.DescriptionSuggestion{
			ToolID:       t.ID,
			ProposedText: text,
			Decision:     proposal.DecisionPending,
		})
	}

	p := &proposal.Proposal{
		ID:              uuid.New().String(),
		TenantID:        tenantID,
		IntegrationID:   i.ID,
		Status:          proposal.StatusPending,
		DriftRecordIDs:  recordIDs,
		SchemaDiff:      diff,
		AffectedToolIDs: affectedIDs,
		Suggestions:     suggestions,
		CreatedAt:       time.Now(),
	}

	if err := s.repo.Create(ctx, p); err != nil {
		if stderrors.Is(err, proposal.ErrPendingExists) {
			// Lost the race against a concurrent generation; return the winner
			existing, getErr := s.repo.GetPendingByIntegration(ctx, tenantID, i.ID)
			if getErr != nil {
				return nil, getErr
			}
			if existing != nil {
				return existing, nil
			}
		}
		return nil, err
	}

	metrics.RecordProposalTransition(string(proposal.StatusPending))
	s.logger.WithFields(map[string]interface{}{
		"proposal_id":    p.ID,
		"integration_id": i.ID,
		"tenant_id":      tenantID,
		"drift_records":  len(recordIDs),
		"affected_tools": len(affectedIDs),
	}).Info("Maintenance proposal generated")

	return p, nil
}

// GetByID retrieves a proposal scoped to a tenant
func (s *ProposalService) GetByID(ctx context.Context, tenantID int64, id string) (*proposal.Proposal, error) {
	return s.repo.GetByID(ctx, tenantID, id)
}

// List retrieves proposals for an integration with pagination
func (s *ProposalService) List(ctx context.Context, tenantID int64, integrationID string, limit, offset int) ([]*proposal.Proposal, int64, error) {
	if _, err := s.integrationRepo.GetByID(ctx, tenantID, integrationID); err != nil {
		return nil, 0, err
	}
	return s.repo.List(ctx, tenantID, integrationID, limit, offset)
}

// GetSummary returns proposal counts by status. Integrations without
// proposals yield all-zero counts.
func (s *ProposalService) GetSummary(ctx context.Context, tenantID int64, integrationID string) (map[proposal.Status]int, error) {
	if _, err := s.integrationRepo.GetByID(ctx, tenantID, integrationID); err != nil {
		return nil, err
	}

	counts, err := s.repo.CountByStatus(ctx, tenantID, integrationID)
	if err != nil {
		return nil, err
	}
	for _, st := range []proposal.Status{proposal.StatusPending, proposal.StatusApproved, proposal.StatusRejected, proposal.StatusReverted} {
		if _, ok := counts[st]; !ok {
			counts[st] = 0
		}
	}
	return counts, nil
}

// Approve applies the proposal as one atomic unit: new schema version, drift
// resolution and the status flip commit together or not at all.
func (s *ProposalService) Approve(ctx context.Context, tenantID int64, id string) (*proposal.Proposal, error) {
	p, err := s.repo.GetByID(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	if p.Status != proposal.StatusPending {
		return nil, errors.InvalidProposalState(string(p.Status))
	}

	i, err := s.integrationRepo.GetByID(ctx, tenantID, p.IntegrationID)
	if err != nil {
		return nil, err
	}
	current, err := s.integrationRepo.GetSchema(ctx, i.ID, i.SchemaVersion)
	if err != nil {
		return nil, err
	}

	newSchema, err := integration.ApplyDiff(current, p.SchemaDiff)
	if err != nil {
		s.logger.ErrorWithErr(err, "Schema diff no longer applies cleanly")
		return nil, errors.Conflict("Proposal diff no longer applies to the current schema")
	}

	prior := current.Version
	now := time.Now()
	p.PriorSchemaVersion = &prior
	p.Status = proposal.StatusApproved
	p.DecidedAt = &now

	if err := s.repo.Approve(ctx, p, newSchema); err != nil {
		return nil, err
	}

	metrics.RecordProposalTransition(string(proposal.StatusApproved))
	s.logger.WithFields(map[string]interface{}{
		"proposal_id":    p.ID,
		"integration_id": p.IntegrationID,
		"tenant_id":      tenantID,
		"schema_version": newSchema.Version,
	}).Info("Maintenance proposal approved and applied")

	return p, nil
}

// Reject discards the proposal; its drift records remain unresolved and may
// be re-proposed by a later generation pass.
func (s *ProposalService) Reject(ctx context.Context, tenantID int64, id string) (*proposal.Proposal, error) {
	p, err := s.repo.GetByID(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	if p.Status != proposal.StatusPending {
		return nil, errors.InvalidProposalState(string(p.Status))
	}

	now := time.Now()
	p.Status = proposal.StatusRejected
	p.DecidedAt = &now

	if err := s.repo.Reject(ctx, p); err != nil {
		return nil, err
	}

	metrics.RecordProposalTransition(string(proposal.StatusRejected))
	s.logger.WithFields(map[string]interface{}{
		"proposal_id": p.ID,
		"tenant_id":   tenantID,
	}).Info("Maintenance proposal rejected")

	return p, nil
}

// Revert restores the schema snapshot that preceded this proposal's
// approval. Drift records stay resolved.
func (s *ProposalService) Revert(ctx context.Context, tenantID int64, id string) (*proposal.Proposal, error) {
	p, err := s.repo.GetByID(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	if p.Status != proposal.StatusApproved {
		return nil, errors.InvalidProposalState(string(p.Status))
	}
	if p.PriorSchemaVersion == nil {
		return nil, errors.Internal("Approved proposal is missing its prior schema version", nil)
	}

	i, err := s.integrationRepo.GetByID(ctx, tenantID, p.IntegrationID)
	if err != nil {
		return nil, err
	}
	prior, err := s.integrationRepo.GetSchema(ctx, i.ID, *p.PriorSchemaVersion)
	if err != nil {
		return nil, err
	}

	restored := prior.Clone()
	restored.Version = i.SchemaVersion + 1
	restored.CapturedAt = time.Now()

	p.Status = proposal.StatusReverted

	if err := s.repo.Revert(ctx, p, restored); err != nil {
		return nil, err
	}

	metrics.RecordProposalTransition(string(proposal.StatusReverted))
	s.logger.WithFields(map[string]interface{}{
		"proposal_id":      p.ID,
		"tenant_id":        tenantID,
		"restored_version": *p.PriorSchemaVersion,
	}).Info("Maintenance proposal reverted")

	return p, nil
}

// ApplyDescriptionDecisions records accept/skip choices. Policy: only
// approved proposals accept decisions, so accepted text never comes from
// content that might still be rejected. Unknown tool ids are skipped
// silently to tolerate stale clients; already-decided suggestions are left
// untouched so retries are idempotent.
func (s *ProposalService) ApplyDescriptionDecisions(ctx context.Context, tenantID int64, id string, decisions []proposal.DecisionInput) (*proposal.Proposal, error) {
	p, err := s.repo.GetByID(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	if p.Status != proposal.StatusApproved {
		return nil, errors.InvalidProposalState(string(p.Status))
	}

	accepted := make(map[string]string)
	changed := false
	for _, d := range decisions {
		sug := p.SuggestionFor(d.ToolID)
		if sug == nil || sug.Decision != proposal.DecisionPending {
			continue
		}
		if d.Accept {
			sug.Decision = proposal.DecisionAccepted
			accepted[d.ToolID] = sug.ProposedText
			metrics.RecordSuggestionDecision(string(proposal.DecisionAccepted))
		} else {
			sug.Decision = proposal.DecisionSkipped
			metrics.RecordSuggestionDecision(string(proposal.DecisionSkipped))
		}
		changed = true
	}

	if !changed {
		return p, nil
	}

	if err := s.repo.UpdateDecisions(ctx, p, accepted); err != nil {
		return nil, err
	}

	s.logger.WithFields(map[string]interface{}{
		"proposal_id": p.ID,
		"tenant_id":   tenantID,
		"accepted":    len(accepted),
	}).Info("Description decisions applied")

	return p, nil
}

// unionDiff merges the field changes carried by drift records into one diff,
// de-duplicated by (action, path, kind) with the newest record winning.
func unionDiff(records []*drift.Record) integration.Diff {
	seen := make(map[string]int)
	var changes []integration.FieldChange
	for _, r := range records {
		key := r.Change.Key()
		if idx, ok := seen[key]; ok {
			changes[idx] = r.Change
			continue
		}
		seen[key] = len(changes)
		changes = append(changes, r.Change)
	}
	return integration.Diff{Changes: changes}
}

// affectedTools returns every tool that reaches a changed field path
func affectedTools(tools []*tool.Tool, diff integration.Diff) []*tool.Tool {
	var affected []*tool.Tool
	for _, t := range tools {
		for _, c := range diff.Changes {
			if t.Reaches(c.Action, c.Path) {
				affected = append(affected, t)
				break
			}
		}
	}
	return affected
}

// diffSliceFor narrows a diff to the changes a single tool reaches
func diffSliceFor(t *tool.Tool, diff integration.Diff) []integration.FieldChange {
	var slice []integration.FieldChange
	for _, c := range diff.Changes {
		if t.Reaches(c.Action, c.Path) {
			slice = append(slice, c)
		}
	}
	return slice
}
