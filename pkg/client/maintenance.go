package client

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
)

// MaintenanceService handles maintenance proposal API calls
type MaintenanceService struct {
	client *Client
}

// DescriptionDecision is one accept/skip choice for a suggestion
type DescriptionDecision struct {
	ToolID string `json:"toolId"`
	Accept bool   `json:"accept"`
}

// Generate creates a proposal from the integration's unresolved drift
func (s *MaintenanceService) Generate(ctx context.Context, integrationID string) (*Proposal, error) {
	var p Proposal
	path := fmt.Sprintf("/api/v1/integrations/%s/maintenance/proposals", integrationID)
	if err := s.client.doRequest(ctx, "POST", path, nil, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

// List retrieves proposals for an integration
func (s *MaintenanceService) List(ctx context.Context, integrationID string, opts *ListOptions) (*Paginated[Proposal], error) {
	query := url.Values{}
	if opts != nil {
		if opts.Page > 0 {
			query.Set("page", strconv.Itoa(opts.Page))
		}
		if opts.PageSize > 0 {
			query.Set("page_size", strconv.Itoa(opts.PageSize))
		}
	}

	path := fmt.Sprintf("/api/v1/integrations/%s/maintenance/proposals", integrationID)
	if len(query) > 0 {
		path += "?" + query.Encode()
	}

	var page Paginated[Proposal]
	if err := s.client.doRequest(ctx, "GET", path, nil, &page); err != nil {
		return nil, err
	}
	return &page, nil
}

// Get retrieves a single proposal
func (s *MaintenanceService) Get(ctx context.Context, integrationID, proposalID string) (*Proposal, error) {
	var p Proposal
	path := fmt.Sprintf("/api/v1/integrations/%s/maintenance/proposals/%s", integrationID, proposalID)
	if err := s.client.doRequest(ctx, "GET", path, nil, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

// Summary retrieves proposal counts by status
func (s *MaintenanceService) Summary(ctx context.Context, integrationID string) (*ProposalSummary, error) {
	var summary ProposalSummary
	path := fmt.Sprintf("/api/v1/integrations/%s/maintenance/summary", integrationID)
	if err := s.client.doRequest(ctx, "GET", path, nil, &summary); err != nil {
		return nil, err
	}
	return &summary, nil
}

// Approve atomically applies a pending proposal
func (s *MaintenanceService) Approve(ctx context.Context, integrationID, proposalID string) (*Proposal, error) {
	var p Proposal
	path := fmt.Sprintf("/api/v1/integrations/%s/maintenance/proposals/%s/approve", integrationID, proposalID)
	if err := s.client.doRequest(ctx, "POST", path, nil, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

// Reject discards a pending proposal
func (s *MaintenanceService) Reject(ctx context.Context, integrationID, proposalID string) (*Proposal, error) {
	var p Proposal
	path := fmt.Sprintf("/api/v1/integrations/%s/maintenance/proposals/%s/reject", integrationID, proposalID)
	if err := s.client.doRequest(ctx, "POST", path, nil, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

// Revert restores the schema that preceded an approved proposal
func (s *MaintenanceService) Revert(ctx context.Context, integrationID, proposalID string) (*Proposal, error) {
	var p Proposal
	path := fmt.Sprintf("/api/v1/integrations/%s/maintenance/proposals/%s/revert", integrationID, proposalID)
	if err := s.client.doRequest(ctx, "POST", path, nil, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

// DecideDescriptions records accept/skip choices for description suggestions
func (s *MaintenanceService) DecideDescriptions(ctx context.Context, integrationID, proposalID string, decisions []DescriptionDecision) (*Proposal, error) {
	body := map[string]interface{}{"decisions": decisions}

	var p Proposal
	path := fmt.Sprintf("/api/v1/integrations/%s/maintenance/proposals/%s/descriptions", integrationID, proposalID)
	if err := s.client.doRequest(ctx, "POST", path, body, &p); err != nil {
		return nil, err
	}
	return &p, nil
}
