package testutil

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/toolbridge-io/toolbridge/internal/domain/drift"
	"github.com/toolbridge-io/toolbridge/internal/domain/integration"
	"github.com/toolbridge-io/toolbridge/internal/domain/job"
	"github.com/toolbridge-io/toolbridge/internal/domain/proposal"
	"github.com/toolbridge-io/toolbridge/internal/domain/tool"
	"github.com/toolbridge-io/toolbridge/internal/pkg/errors"
)

// MockIntegrationRepository is a mock implementation of integration.Repository
type MockIntegrationRepository struct {
	Integrations map[string]*integration.Integration
	Schemas      map[string]*integration.Schema // keyed by "<id>:<version>"
	Observed     map[string]*integration.Schema
	Sessions     []*integration.ConnectSession
	CreateError  error
	GetError     error
	SaveError    error
}

func NewMockIntegrationRepository() *MockIntegrationRepository {
	return &MockIntegrationRepository{
		Integrations: make(map[string]*integration.Integration),
		Schemas:      make(map[string]*integration.Schema),
		Observed:     make(map[string]*integration.Schema),
	}
}

func schemaKey(integrationID string, version int) string {
	return fmt.Sprintf("%s:%d", integrationID, version)
}

func (m *MockIntegrationRepository) Create(ctx context.Context, i *integration.Integration) error {
	if m.CreateError != nil {
		return m.CreateError
	}
	m.Integrations[i.ID] = i
	return nil
}

func (m *MockIntegrationRepository) GetByID(ctx context.Context, tenantID int64, id string) (*integration.Integration, error) {
	if m.GetError != nil {
		return nil, m.GetError
	}
	i, ok := m.Integrations[id]
	if !ok || i.TenantID != tenantID {
		return nil, errors.IntegrationNotFound()
	}
	return i, nil
}

func (m *MockIntegrationRepository) List(ctx context.Context, tenantID int64, limit, offset int) ([]*integration.Integration, int64, error) {
	var result []*integration.Integration
	for _, i := range m.Integrations {
		if i.TenantID == tenantID {
			result = append(result, i)
		}
	}
	sort.Slice(result, func(a, b int) bool { return result[a].ID < result[b].ID })
	return result, int64(len(result)), nil
}

func (m *MockIntegrationRepository) UpdateStatus(ctx context.Context, tenantID int64, id string, status string) error {
	i, ok := m.Integrations[id]
	if !ok || i.TenantID != tenantID {
		return errors.IntegrationNotFound()
	}
	i.Status = status
	return nil
}

func (m *MockIntegrationRepository) SaveSchema(ctx context.Context, s *integration.Schema) error {
	if m.SaveError != nil {
		return m.SaveError
	}
	m.Schemas[schemaKey(s.IntegrationID, s.Version)] = s
	if i, ok := m.Integrations[s.IntegrationID]; ok {
		i.SchemaVersion = s.Version
	}
	return nil
}

func (m *MockIntegrationRepository) GetSchema(ctx context.Context, integrationID string, version int) (*integration.Schema, error) {
	if m.GetError != nil {
		return nil, m.GetError
	}
	s, ok := m.Schemas[schemaKey(integrationID, version)]
	if !ok {
		return nil, errors.NotFound(errors.ErrCodeIntegrationNotFound, "Schema version")
	}
	return s, nil
}

func (m *MockIntegrationRepository) SaveObservedSchema(ctx context.Context, s *integration.Schema) error {
	if m.SaveError != nil {
		return m.SaveError
	}
	m.Observed[s.IntegrationID] = s
	return nil
}

func (m *MockIntegrationRepository) GetObservedSchema(ctx context.Context, integrationID string) (*integration.Schema, error) {
	if m.GetError != nil {
		return nil, m.GetError
	}
	return m.Observed[integrationID], nil
}

func (m *MockIntegrationRepository) CreateConnectSession(ctx context.Context, cs *integration.ConnectSession) error {
	if m.CreateError != nil {
		return m.CreateError
	}
	m.Sessions = append(m.Sessions, cs)
	return nil
}

// MockToolRepository is a mock implementation of tool.Repository
type MockToolRepository struct {
	Tools       map[string]*tool.Tool
	CreateError error
	GetError    error
	UpdateError error
}

func NewMockToolRepository() *MockToolRepository {
	return &MockToolRepository{
		Tools: make(map[string]*tool.Tool),
	}
}

func (m *MockToolRepository) Create(ctx context.Context, t *tool.Tool) error {
	if m.CreateError != nil {
		return m.CreateError
	}
	m.Tools[t.ID] = t
	return nil
}

func (m *MockToolRepository) GetByID(ctx context.Context, tenantID int64, id string) (*tool.Tool, error) {
	if m.GetError != nil {
		return nil, m.GetError
	}
	t, ok := m.Tools[id]
	if !ok || t.TenantID != tenantID {
		return nil, errors.ToolNotFound()
	}
	return t, nil
}

func (m *MockToolRepository) ListByIntegration(ctx context.Context, tenantID int64, integrationID string) ([]*tool.Tool, error) {
	var result []*tool.Tool
	for _, t := range m.Tools {
		if t.TenantID == tenantID && t.IntegrationID == integrationID {
			result = append(result, t)
		}
	}
	sort.Slice(result, func(a, b int) bool { return result[a].ID < result[b].ID })
	return result, nil
}

func (m *MockToolRepository) ListWithPagination(ctx context.Context, tenantID int64, filter tool.Filter, limit, offset int) ([]*tool.Tool, int64, error) {
	var result []*tool.Tool
	for _, t := range m.Tools {
		if t.TenantID != tenantID {
			continue
		}
		if filter.IntegrationID != "" && t.IntegrationID != filter.IntegrationID {
			continue
		}
		if filter.Action != "" && t.Action != filter.Action {
			continue
		}
		result = append(result, t)
	}
	sort.Slice(result, func(a, b int) bool { return result[a].ID < result[b].ID })
	return result, int64(len(result)), nil
}

func (m *MockToolRepository) UpdateDescription(ctx context.Context, tenantID int64, id string, description string) error {
	if m.UpdateError != nil {
		return m.UpdateError
	}
	t, ok := m.Tools[id]
	if !ok || t.TenantID != tenantID {
		return errors.ToolNotFound()
	}
	t.Description = description
	t.UpdatedAt = time.Now()
	return nil
}

// MockDriftRepository is a mock implementation of drift.Repository
type MockDriftRepository struct {
	Records     map[string]*drift.Record
	CreateError error
	GetError    error
}

func NewMockDriftRepository() *MockDriftRepository {
	return &MockDriftRepository{
		Records: make(map[string]*drift.Record),
	}
}

func (m *MockDriftRepository) CreateBatch(ctx context.Context, records []*drift.Record) error {
	if m.CreateError != nil {
		return m.CreateError
	}
	for _, r := range records {
		m.Records[r.ID] = r
	}
	return nil
}

func (m *MockDriftRepository) GetByID(ctx context.Context, tenantID int64, id string) (*drift.Record, error) {
	if m.GetError != nil {
		return nil, m.GetError
	}
	r, ok := m.Records[id]
	if !ok || r.TenantID != tenantID {
		return nil, errors.NotFound(errors.ErrCodeNotFound, "Drift record")
	}
	return r, nil
}

func (m *MockDriftRepository) ListUnresolved(ctx context.Context, tenantID int64, integrationID string) ([]*drift.Record, error) {
	if m.GetError != nil {
		return nil, m.GetError
	}
	var result []*drift.Record
	for _, r := range m.Records {
		if r.TenantID == tenantID && r.IntegrationID == integrationID && !r.Resolved {
			result = append(result, r)
		}
	}
	sort.Slice(result, func(a, b int) bool {
		if result[a].DetectedAt.Equal(result[b].DetectedAt) {
			return result[a].ID < result[b].ID
		}
		return result[a].DetectedAt.Before(result[b].DetectedAt)
	})
	return result, nil
}

func (m *MockDriftRepository) ListWithPagination(ctx context.Context, tenantID int64, integrationID string, filter drift.Filter, limit, offset int) ([]*drift.Record, int64, error) {
	var result []*drift.Record
	for _, r := range m.Records {
		if r.TenantID != tenantID || r.IntegrationID != integrationID {
			continue
		}
		if filter.Severity != "" && r.Severity != filter.Severity {
			continue
		}
		if filter.ChangeKind != "" && r.ChangeKind != filter.ChangeKind {
			continue
		}
		if filter.Resolved != nil && r.Resolved != *filter.Resolved {
			continue
		}
		result = append(result, r)
	}
	sort.Slice(result, func(a, b int) bool { return result[a].ID < result[b].ID })
	return result, int64(len(result)), nil
}

func (m *MockDriftRepository) CountUnresolvedBySeverity(ctx context.Context, tenantID int64, integrationID string) (*drift.Summary, error) {
	summary := &drift.Summary{}
	for _, r := range m.Records {
		if r.TenantID != tenantID || r.IntegrationID != integrationID || r.Resolved {
			continue
		}
		switch r.Severity {
		case drift.SeverityBreaking:
			summary.Breaking++
		case drift.SeverityWarning:
			summary.Warning++
		case drift.SeverityInfo:
			summary.Info++
		}
		summary.Total++
	}
	return summary, nil
}

// MockProposalRepository is a mock implementation of proposal.Repository.
// When DriftRepo and IntegrationRepo are set, Approve and Revert mirror the
// real transaction by writing the schema and resolving drift records.
type MockProposalRepository struct {
	Proposals       map[string]*proposal.Proposal
	DriftRepo       *MockDriftRepository
	IntegrationRepo *MockIntegrationRepository
	ToolRepo        *MockToolRepository
	CreateError     error
	GetError        error
	ApproveError    error
	UpdateError     error
}

func NewMockProposalRepository() *MockProposalRepository {
	return &MockProposalRepository{
		Proposals: make(map[string]*proposal.Proposal),
	}
}

func (m *MockProposalRepository) Create(ctx context.Context, p *proposal.Proposal) error {
	if m.CreateError != nil {
		return m.CreateError
	}
	for _, existing := range m.Proposals {
		if existing.IntegrationID == p.IntegrationID && existing.Status == proposal.StatusPending {
			return proposal.ErrPendingExists
		}
	}
	m.Proposals[p.ID] = p
	return nil
}

func (m *MockProposalRepository) GetByID(ctx context.Context, tenantID int64, id string) (*proposal.Proposal, error) {
	if m.GetError != nil {
		return nil, m.GetError
	}
	p, ok := m.Proposals[id]
	if !ok || p.TenantID != tenantID {
		return nil, errors.ProposalNotFound()
	}
	return p, nil
}

func (m *MockProposalRepository) GetPendingByIntegration(ctx context.Context, tenantID int64, integrationID string) (*proposal.Proposal, error) {
	if m.GetError != nil {
		return nil, m.GetError
	}
	for _, p := range m.Proposals {
		if p.TenantID == tenantID && p.IntegrationID == integrationID && p.Status == proposal.StatusPending {
			return p, nil
		}
	}
	return nil, nil
}

func (m *MockProposalRepository) List(ctx context.Context, tenantID int64, integrationID string, limit, offset int) ([]*proposal.Proposal, int64, error) {
	var result []*proposal.Proposal
	for _, p := range m.Proposals {
		if p.TenantID == tenantID && p.IntegrationID == integrationID {
			result = append(result, p)
		}
	}
	sort.Slice(result, func(a, b int) bool { return result[a].CreatedAt.After(result[b].CreatedAt) })
	return result, int64(len(result)), nil
}

func (m *MockProposalRepository) CountByStatus(ctx context.Context, tenantID int64, integrationID string) (map[proposal.Status]int, error) {
	counts := make(map[proposal.Status]int)
	for _, p := range m.Proposals {
		if p.TenantID == tenantID && p.IntegrationID == integrationID {
			counts[p.Status]++
		}
	}
	return counts, nil
}

func (m *MockProposalRepository) Approve(ctx context.Context, p *proposal.Proposal, newSchema *integration.Schema) error {
	if m.ApproveError != nil {
		return m.ApproveError
	}
	stored, ok := m.Proposals[p.ID]
	if !ok {
		return errors.ProposalNotFound()
	}
	stored.Status = proposal.StatusApproved
	stored.PriorSchemaVersion = p.PriorSchemaVersion
	stored.DecidedAt = p.DecidedAt
	if m.IntegrationRepo != nil {
		if err := m.IntegrationRepo.SaveSchema(ctx, newSchema); err != nil {
			return err
		}
	}
	if m.DriftRepo != nil {
		now := time.Now()
		for _, id := range p.DriftRecordIDs {
			if r, ok := m.DriftRepo.Records[id]; ok {
				r.Resolved = true
				r.ResolvedAt = &now
			}
		}
	}
	return nil
}

func (m *MockProposalRepository) Reject(ctx context.Context, p *proposal.Proposal) error {
	if m.UpdateError != nil {
		return m.UpdateError
	}
	stored, ok := m.Proposals[p.ID]
	if !ok {
		return errors.ProposalNotFound()
	}
	stored.Status = proposal.StatusRejected
	stored.DecidedAt = p.DecidedAt
	return nil
}

func (m *MockProposalRepository) Revert(ctx context.Context, p *proposal.Proposal, restored *integration.Schema) error {
	if m.UpdateError != nil {
		return m.UpdateError
	}
	stored, ok := m.Proposals[p.ID]
	if !ok {
		return errors.ProposalNotFound()
	}
	stored.Status = proposal.StatusReverted
	if m.IntegrationRepo != nil {
		if err := m.IntegrationRepo.SaveSchema(ctx, restored); err != nil {
			return err
		}
	}
	return nil
}

func (m *MockProposalRepository) UpdateDecisions(ctx context.Context, p *proposal.Proposal, acceptedDescriptions map[string]string) error {
	if m.UpdateError != nil {
		return m.UpdateError
	}
	stored, ok := m.Proposals[p.ID]
	if !ok {
		return errors.ProposalNotFound()
	}
	stored.Suggestions = p.Suggestions
	if m.ToolRepo != nil {
		for toolID, desc := range acceptedDescriptions {
			if err := m.ToolRepo.UpdateDescription(ctx, stored.TenantID, toolID, desc); err != nil {
				return err
			}
		}
	}
	return nil
}

// MockJobRepository is a mock implementation of job.Repository
type MockJobRepository struct {
	Jobs        map[string]*job.ScheduledJob
	Executions  map[string]*job.Execution
	CreateError error
	GetError    error
	UpdateError error
}

func NewMockJobRepository() *MockJobRepository {
	return &MockJobRepository{
		Jobs:       make(map[string]*job.ScheduledJob),
		Executions: make(map[string]*job.Execution),
	}
}

func (m *MockJobRepository) CreateJob(ctx context.Context, j *job.ScheduledJob) error {
	if m.CreateError != nil {
		return m.CreateError
	}
	m.Jobs[j.ID] = j
	return nil
}

func (m *MockJobRepository) GetJobByID(ctx context.Context, tenantID int64, id string) (*job.ScheduledJob, error) {
	if m.GetError != nil {
		return nil, m.GetError
	}
	j, ok := m.Jobs[id]
	if !ok || j.TenantID != tenantID {
		return nil, errors.JobNotFound()
	}
	return j, nil
}

func (m *MockJobRepository) GetJobByIntegration(ctx context.Context, tenantID int64, integrationID string) (*job.ScheduledJob, error) {
	for _, j := range m.Jobs {
		if j.TenantID == tenantID && j.IntegrationID == integrationID {
			return j, nil
		}
	}
	return nil, nil
}

func (m *MockJobRepository) ListJobs(ctx context.Context, tenantID int64, filter job.Filter) ([]*job.ScheduledJob, error) {
	var result []*job.ScheduledJob
	for _, j := range m.Jobs {
		if j.TenantID != tenantID {
			continue
		}
		if filter.IntegrationID != "" && j.IntegrationID != filter.IntegrationID {
			continue
		}
		if filter.IsEnabled != nil && j.IsEnabled != *filter.IsEnabled {
			continue
		}
		result = append(result, j)
	}
	sort.Slice(result, func(a, b int) bool { return result[a].ID < result[b].ID })
	return result, nil
}

func (m *MockJobRepository) ListEnabledJobs(ctx context.Context) ([]*job.ScheduledJob, error) {
	var result []*job.ScheduledJob
	for _, j := range m.Jobs {
		if j.IsEnabled {
			result = append(result, j)
		}
	}
	return result, nil
}

func (m *MockJobRepository) UpdateJob(ctx context.Context, j *job.ScheduledJob) error {
	if m.UpdateError != nil {
		return m.UpdateError
	}
	if _, ok := m.Jobs[j.ID]; !ok {
		return errors.JobNotFound()
	}
	m.Jobs[j.ID] = j
	return nil
}

func (m *MockJobRepository) CreateExecution(ctx context.Context, e *job.Execution) error {
	if m.CreateError != nil {
		return m.CreateError
	}
	m.Executions[e.ID] = e
	return nil
}

func (m *MockJobRepository) GetExecutionByID(ctx context.Context, tenantID int64, id string) (*job.Execution, error) {
	if m.GetError != nil {
		return nil, m.GetError
	}
	e, ok := m.Executions[id]
	if !ok || e.TenantID != tenantID {
		return nil, errors.JobNotFound()
	}
	return e, nil
}

func (m *MockJobRepository) UpdateExecution(ctx context.Context, e *job.Execution) error {
	if m.UpdateError != nil {
		return m.UpdateError
	}
	m.Executions[e.ID] = e
	return nil
}

func (m *MockJobRepository) ListExecutions(ctx context.Context, tenantID int64, jobID string, limit, offset int) ([]*job.Execution, int64, error) {
	var result []*job.Execution
	for _, e := range m.Executions {
		if e.TenantID == tenantID && e.JobID == jobID {
			result = append(result, e)
		}
	}
	sort.Slice(result, func(a, b int) bool { return result[a].CreatedAt.After(result[b].CreatedAt) })
	return result, int64(len(result)), nil
}

// MockSuggester is a mock implementation of suggest.Suggester
type MockSuggester struct {
	Text  string
	Err   error
	Calls int
}

func (m *MockSuggester) Suggest(ctx context.Context, t *tool.Tool, diffSlice []integration.FieldChange) (string, error) {
	m.Calls++
	if m.Err != nil {
		return "", m.Err
	}
	if m.Text != "" {
		return m.Text, nil
	}
	return "Updated description for " + t.Name, nil
}

// MockSchemaFetcher is a mock implementation of integration.SchemaFetcher
type MockSchemaFetcher struct {
	Schema *integration.Schema
	Err    error
	Calls  int
}

func (m *MockSchemaFetcher) Fetch(ctx context.Context, i *integration.Integration) (*integration.Schema, error) {
	m.Calls++
	if m.Err != nil {
		return nil, m.Err
	}
	return m.Schema, nil
}
