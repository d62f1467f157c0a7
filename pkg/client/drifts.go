package client

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
)

// DriftService handles drift record API calls
type DriftService struct {
	client *Client
}

// DriftListOptions contains options for listing drift records
type DriftListOptions struct {
	ListOptions
	Severity   *string `json:"severity,omitempty"`    // breaking, warning, info
	ChangeKind *string `json:"change_kind,omitempty"` // added, removed, type_changed, required_changed
	Resolved   *bool   `json:"resolved,omitempty"`
}

// List retrieves drift records for an integration
func (s *DriftService) List(ctx context.Context, integrationID string, opts *DriftListOptions) (*Paginated[DriftRecord], error) {
	query := url.Values{}
	if opts != nil {
		if opts.Page > 0 {
			query.Set("page", strconv.Itoa(opts.Page))
		}
		if opts.PageSize > 0 {
			query.Set("page_size", strconv.Itoa(opts.PageSize))
		}
		if opts.Severity != nil {
			query.Set("severity", *opts.Severity)
		}
		if opts.ChangeKind != nil {
			query.Set("change_kind", *opts.ChangeKind)
		}
		if opts.Resolved != nil {
			query.Set("resolved", strconv.FormatBool(*opts.Resolved))
		}
	}

	path := fmt.Sprintf("/api/v1/integrations/%s/drift", integrationID)
	if len(query) > 0 {
		path += "?" + query.Encode()
	}

	var page Paginated[DriftRecord]
	if err := s.client.doRequest(ctx, "GET", path, nil, &page); err != nil {
		return nil, err
	}
	return &page, nil
}

// Summary retrieves unresolved drift counts by severity
func (s *DriftService) Summary(ctx context.Context, integrationID string) (*DriftSummary, error) {
	var summary DriftSummary
	path := fmt.Sprintf("/api/v1/integrations/%s/drift/summary", integrationID)
	if err := s.client.doRequest(ctx, "GET", path, nil, &summary); err != nil {
		return nil, err
	}
	return &summary, nil
}
