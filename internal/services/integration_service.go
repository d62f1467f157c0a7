package services

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/toolbridge-io/toolbridge/internal/domain/integration"
	"github.com/toolbridge-io/toolbridge/internal/pkg/logger"
)

// IntegrationService implements integration.Service
type IntegrationService struct {
	repo       integration.Repository
	sessionTTL time.Duration
	logger     *logger.Logger
}

// NewIntegrationService creates a new integration service
func NewIntegrationService(repo integration.Repository, sessionTTL time.Duration, log *logger.Logger) integration.Service {
	return &IntegrationService{
		repo:       repo,
		sessionTTL: sessionTTL,
		logger:     log,
	}
}

// Create registers an integration and stores its initial schema snapshot
func (s *IntegrationService) Create(ctx context.Context, tenantID int64, name, provider string, initial *integration.Schema) (*integration.Integration, error) {
	i := &integration.Integration{
		ID:       uuid.New().String(),
		TenantID: tenantID,
		Name:     name,
		Provider: provider,
		Status:   integration.StatusPending,
	}
	if initial != nil {
		i.Status = integration.StatusActive
		i.SchemaVersion = 1
	}

	if err := s.repo.Create(ctx, i); err != nil {
		s.logger.ErrorWithErr(err, "Failed to create integration")
		return nil, err
	}

	if initial != nil {
		initial.IntegrationID = i.ID
		initial.Version = 1
		if initial.CapturedAt.IsZero() {
			initial.CapturedAt = time.Now()
		}
		if err := s.repo.SaveSchema(ctx, initial); err != nil {
			s.logger.ErrorWithErr(err, "Failed to store initial schema")
			return nil, err
		}
	}

	s.logger.WithFields(map[string]interface{}{
		"integration_id": i.ID,
		"tenant_id":      tenantID,
		"provider":       provider,
	}).Info("Integration created")

	return i, nil
}

// GetByID retrieves an integration scoped to a tenant
func (s *IntegrationService) GetByID(ctx context.Context, tenantID int64, id string) (*integration.Integration, error) {
	return s.repo.GetByID(ctx, tenantID, id)
}

// List retrieves integrations with pagination
func (s *IntegrationService) List(ctx context.Context, tenantID int64, limit, offset int) ([]*integration.Integration, int64, error) {
	return s.repo.List(ctx, tenantID, limit, offset)
}

// GetCurrentSchema returns the integration's current schema snapshot
func (s *IntegrationService) GetCurrentSchema(ctx context.Context, tenantID int64, id string) (*integration.Schema, error) {
	i, err := s.repo.GetByID(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	return s.repo.GetSchema(ctx, i.ID, i.SchemaVersion)
}

// CreateConnectSession issues a short-lived OAuth connect session
func (s *IntegrationService) CreateConnectSession(ctx context.Context, tenantID int64, integrationID string) (*integration.ConnectSession, error) {
	i, err := s.repo.GetByID(ctx, tenantID, integrationID)
	if err != nil {
		return nil, err
	}

	cs := &integration.ConnectSession{
		ID:            uuid.New().String(),
		TenantID:      tenantID,
		IntegrationID: i.ID,
		Token:         uuid.New().String(),
		Status:        integration.SessionStatusIssued,
		ExpiresAt:     time.Now().Add(s.sessionTTL),
	}

	if err := s.repo.CreateConnectSession(ctx, cs); err != nil {
		s.logger.ErrorWithErr(err, "Failed to create connect session")
		return nil, err
	}

	s.logger.WithFields(map[string]interface{}{
		"session_id":     cs.ID,
		"integration_id": i.ID,
		"tenant_id":      tenantID,
	}).Info("Connect session issued")

	return cs, nil
}
