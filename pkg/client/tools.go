package client

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
)

// ToolService handles tool registry API calls
type ToolService struct {
	client *Client
}

// ToolListOptions contains options for listing tools
type ToolListOptions struct {
	ListOptions
	IntegrationID *string `json:"integration_id,omitempty"`
	Action        *string `json:"action,omitempty"`
}

// CreateToolRequest registers a new tool
type CreateToolRequest struct {
	IntegrationID string   `json:"integrationId"`
	Name          string   `json:"name"`
	Action        string   `json:"action"`
	Description   string   `json:"description,omitempty"`
	FieldRefs     []string `json:"fieldRefs,omitempty"`
}

// List retrieves tool definitions
func (s *ToolService) List(ctx context.Context, opts *ToolListOptions) (*Paginated[Tool], error) {
	query := url.Values{}
	if opts != nil {
		if opts.Page > 0 {
			query.Set("page", strconv.Itoa(opts.Page))
		}
		if opts.PageSize > 0 {
			query.Set("page_size", strconv.Itoa(opts.PageSize))
		}
		if opts.IntegrationID != nil {
			query.Set("integration_id", *opts.IntegrationID)
		}
		if opts.Action != nil {
			query.Set("action", *opts.Action)
		}
	}

	path := "/api/v1/tools"
	if len(query) > 0 {
		path += "?" + query.Encode()
	}

	var page Paginated[Tool]
	if err := s.client.doRequest(ctx, "GET", path, nil, &page); err != nil {
		return nil, err
	}
	return &page, nil
}

// Get retrieves a single tool
func (s *ToolService) Get(ctx context.Context, id string) (*Tool, error) {
	var t Tool
	path := fmt.Sprintf("/api/v1/tools/%s", id)
	if err := s.client.doRequest(ctx, "GET", path, nil, &t); err != nil {
		return nil, err
	}
	return &t, nil
}

// Create registers a new tool
func (s *ToolService) Create(ctx context.Context, req *CreateToolRequest) (*Tool, error) {
	var t Tool
	if err := s.client.doRequest(ctx, "POST", "/api/v1/tools", req, &t); err != nil {
		return nil, err
	}
	return &t, nil
}

// UpdateDescription replaces a tool's description
func (s *ToolService) UpdateDescription(ctx context.Context, id, description string) (*Tool, error) {
	body := map[string]string{"description": description}

	var t Tool
	path := fmt.Sprintf("/api/v1/tools/%s/description", id)
	if err := s.client.doRequest(ctx, "PUT", path, body, &t); err != nil {
		return nil, err
	}
	return &t, nil
}
