package client

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
)

// IntegrationService handles integration registry API calls
type IntegrationService struct {
	client *Client
}

// CreateIntegrationRequest registers a new integration
type CreateIntegrationRequest struct {
	Name     string         `json:"name"`
	Provider string         `json:"provider"`
	Schema   *SchemaPayload `json:"schema,omitempty"`
}

// SchemaPayload carries a schema's actions
type SchemaPayload struct {
	Actions map[string]ActionSchema `json:"actions"`
}

// List retrieves the tenant's integrations
func (s *IntegrationService) List(ctx context.Context, opts *ListOptions) (*Paginated[Integration], error) {
	query := url.Values{}
	if opts != nil {
		if opts.Page > 0 {
			query.Set("page", strconv.Itoa(opts.Page))
		}
		if opts.PageSize > 0 {
			query.Set("page_size", strconv.Itoa(opts.PageSize))
		}
	}

	path := "/api/v1/integrations"
	if len(query) > 0 {
		path += "?" + query.Encode()
	}

	var page Paginated[Integration]
	if err := s.client.doRequest(ctx, "GET", path, nil, &page); err != nil {
		return nil, err
	}
	return &page, nil
}

// Get retrieves a single integration
func (s *IntegrationService) Get(ctx context.Context, id string) (*Integration, error) {
	var i Integration
	path := fmt.Sprintf("/api/v1/integrations/%s", id)
	if err := s.client.doRequest(ctx, "GET", path, nil, &i); err != nil {
		return nil, err
	}
	return &i, nil
}

// Create registers a new integration
func (s *IntegrationService) Create(ctx context.Context, req *CreateIntegrationRequest) (*Integration, error) {
	var i Integration
	if err := s.client.doRequest(ctx, "POST", "/api/v1/integrations", req, &i); err != nil {
		return nil, err
	}
	return &i, nil
}

// GetSchema retrieves the integration's current schema snapshot
func (s *IntegrationService) GetSchema(ctx context.Context, id string) (*Schema, error) {
	var schema Schema
	path := fmt.Sprintf("/api/v1/integrations/%s/schema", id)
	if err := s.client.doRequest(ctx, "GET", path, nil, &schema); err != nil {
		return nil, err
	}
	return &schema, nil
}

// RefreshSchema runs drift detection against a freshly fetched schema
func (s *IntegrationService) RefreshSchema(ctx context.Context, id string, schema *SchemaPayload) ([]DriftRecord, error) {
	var body interface{}
	if schema != nil {
		body = map[string]*SchemaPayload{"schema": schema}
	}

	var records []DriftRecord
	path := fmt.Sprintf("/api/v1/integrations/%s/schema/refresh", id)
	if err := s.client.doRequest(ctx, "POST", path, body, &records); err != nil {
		return nil, err
	}
	return records, nil
}

// CreateConnectSession issues a short-lived connect session
func (s *IntegrationService) CreateConnectSession(ctx context.Context, id string) (*ConnectSession, error) {
	var cs ConnectSession
	path := fmt.Sprintf("/api/v1/integrations/%s/connect-session", id)
	if err := s.client.doRequest(ctx, "POST", path, nil, &cs); err != nil {
		return nil, err
	}
	return &cs, nil
}
