package services

import (
	"context"

	"github.com/google/uuid"
	"github.com/toolbridge-io/toolbridge/internal/domain/tool"
	"github.com/toolbridge-io/toolbridge/internal/pkg/logger"
)

// ToolService implements tool.Service
type ToolService struct {
	repo   tool.Repository
	logger *logger.Logger
}

// NewToolService creates a new tool service
func NewToolService(repo tool.Repository, log *logger.Logger) tool.Service {
	return &ToolService{repo: repo, logger: log}
}

// Create creates a new tool definition
func (s *ToolService) Create(ctx context.Context, t *tool.Tool) (*tool.Tool, error) {
	if t.ID == "" {
		t.ID = uuid.New().String()
	}

	if err := s.repo.Create(ctx, t); err != nil {
		s.logger.ErrorWithErr(err, "Failed to create tool")
		return nil, err
	}

	s.logger.WithFields(map[string]interface{}{
		"tool_id":        t.ID,
		"tenant_id":      t.TenantID,
		"integration_id": t.IntegrationID,
		"action":         t.Action,
	}).Info("Tool created")

	return t, nil
}

// GetByID retrieves a tool scoped to a tenant
func (s *ToolService) GetByID(ctx context.Context, tenantID int64, id string) (*tool.Tool, error) {
	return s.repo.GetByID(ctx, tenantID, id)
}

// List retrieves tools with filters and pagination
func (s *ToolService) List(ctx context.Context, tenantID int64, filter tool.Filter, limit, offset int) ([]*tool.Tool, int64, error) {
	return s.repo.ListWithPagination(ctx, tenantID, filter, limit, offset)
}

// UpdateDescription replaces a tool's description
func (s *ToolService) UpdateDescription(ctx context.Context, tenantID int64, id string, description string) error {
	if err := s.repo.UpdateDescription(ctx, tenantID, id, description); err != nil {
		s.logger.ErrorWithErr(err, "Failed to update tool description")
		return err
	}

	s.logger.WithFields(map[string]interface{}{
		"tool_id":   id,
		"tenant_id": tenantID,
	}).Info("Tool description updated")

	return nil
}
