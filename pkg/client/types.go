package client

import "time"

// Integration represents a registered third-party integration
type Integration struct {
	ID            string    `json:"id"`
	Name          string    `json:"name"`
	Provider      string    `json:"provider"`
	Status        string    `json:"status"` // pending, active, disconnected
	SchemaVersion int       `json:"schemaVersion"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

// Schema is a versioned schema snapshot
type Schema struct {
	IntegrationID string                  `json:"integrationId"`
	Version       int                     `json:"version"`
	Actions       map[string]ActionSchema `json:"actions"`
	CapturedAt    time.Time               `json:"capturedAt"`
}

// ActionSchema describes one callable action
type ActionSchema struct {
	Description string           `json:"description,omitempty"`
	Fields      map[string]Field `json:"fields"`
}

// Field describes one schema field; object fields nest children
type Field struct {
	Type     string           `json:"type"`
	Required bool             `json:"required,omitempty"`
	Fields   map[string]Field `json:"fields,omitempty"`
}

// ConnectSession is a short-lived OAuth front-channel session
type ConnectSession struct {
	ID        string    `json:"id"`
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// Tool represents a callable tool definition
type Tool struct {
	ID            string    `json:"id"`
	IntegrationID string    `json:"integrationId"`
	Name          string    `json:"name"`
	Action        string    `json:"action"`
	Description   string    `json:"description"`
	FieldRefs     []string  `json:"fieldRefs"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

// FieldChange is one field-level schema change
type FieldChange struct {
	Action      string `json:"action"`
	Path        string `json:"path"`
	Kind        string `json:"kind"` // added, removed, type_changed, required_changed
	OldType     string `json:"old_type,omitempty"`
	NewType     string `json:"new_type,omitempty"`
	OldRequired bool   `json:"old_required,omitempty"`
	NewRequired bool   `json:"new_required,omitempty"`
}

// Diff is a set of field changes applied as a unit
type Diff struct {
	Changes []FieldChange `json:"changes"`
}

// DriftRecord represents a detected schema drift
type DriftRecord struct {
	ID            string      `json:"id"`
	IntegrationID string      `json:"integrationId"`
	Severity      string      `json:"severity"` // breaking, warning, info
	ChangeKind    string      `json:"changeKind"`
	Action        string      `json:"action"`
	FieldPath     string      `json:"fieldPath"`
	Change        FieldChange `json:"change"`
	Detail        string      `json:"detail,omitempty"`
	DetectedAt    time.Time   `json:"detectedAt"`
	Resolved      bool        `json:"resolved"`
	ResolvedAt    *time.Time  `json:"resolvedAt,omitempty"`
}

// DriftSummary holds unresolved drift counts by severity
type DriftSummary struct {
	Breaking int `json:"breaking"`
	Warning  int `json:"warning"`
	Info     int `json:"info"`
	Total    int `json:"total"`
}

// Proposal represents a maintenance proposal
type Proposal struct {
	ID                 string                  `json:"id"`
	IntegrationID      string                  `json:"integrationId"`
	Status             string                  `json:"status"` // pending, approved, rejected, reverted
	DriftRecordIDs     []string                `json:"driftRecordIds"`
	SchemaDiff         Diff                    `json:"schemaDiff"`
	AffectedToolIDs    []string                `json:"affectedToolIds"`
	Suggestions        []DescriptionSuggestion `json:"descriptionSuggestions"`
	PriorSchemaVersion *int                    `json:"priorSchemaVersion,omitempty"`
	CreatedAt          time.Time               `json:"createdAt"`
	DecidedAt          *time.Time              `json:"decidedAt,omitempty"`
}

// DescriptionSuggestion is one suggested tool description rewrite
type DescriptionSuggestion struct {
	ToolID       string `json:"toolId"`
	ProposedText string `json:"proposedText"`
	Decision     string `json:"decision"` // pending, accepted, skipped
}

// ProposalSummary holds proposal counts by status
type ProposalSummary struct {
	Pending  int `json:"pending"`
	Approved int `json:"approved"`
	Rejected int `json:"rejected"`
	Reverted int `json:"reverted"`
}

// HealthResponse is the health check response
type HealthResponse struct {
	Status   string `json:"status"`
	Database string `json:"database,omitempty"`
}

// ListOptions contains common pagination options
type ListOptions struct {
	Page     int
	PageSize int
}

// Paginated wraps list responses
type Paginated[T any] struct {
	Data       []T   `json:"data"`
	Page       int   `json:"page"`
	PageSize   int   `json:"page_size"`
	TotalItems int64 `json:"total_items"`
	TotalPages int   `json:"total_pages"`
}
