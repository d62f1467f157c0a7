package drift

import (
	"time"

	"github.com/toolbridge-io/toolbridge/internal/domain/integration"
)

// Record represents one field-level structural difference between an
// integration's upstream schema and its stored snapshot. Records are
// append-only; the only mutation ever applied is Resolved flipping to true
// when an approved proposal references them.
type Record struct {
	ID            string                  `json:"id"`
	TenantID      int64                   `json:"tenant_id"`
	IntegrationID string                  `json:"integration_id"`
	Severity      Severity                `json:"severity"`
	ChangeKind    integration.ChangeKind  `json:"change_kind"`
	Action        string                  `json:"action"`
	FieldPath     string                  `json:"field_path"`
	Change        integration.FieldChange `json:"change"`
	Detail        string                  `json:"detail"`
	DetectedAt    time.Time               `json:"detected_at"`
	Resolved      bool                    `json:"resolved"`
	ResolvedAt    *time.Time              `json:"resolved_at,omitempty"`
	CreatedAt     time.Time               `json:"created_at"`
}

// Severity classifies a drift's potential to break existing tool callers
type Severity string

const (
	SeverityBreaking Severity = "breaking"
	SeverityWarning  Severity = "warning"
	SeverityInfo     Severity = "info"
)

// rank orders severities, highest first
func (s Severity) rank() int {
	switch s {
	case SeverityBreaking:
		return 3
	case SeverityWarning:
		return 2
	case SeverityInfo:
		return 1
	}
	return 0
}

// Max returns the more severe of two severities
func Max(a, b Severity) Severity {
	if a.rank() >= b.rank() {
		return a
	}
	return b
}

// Summary holds unresolved record counts by severity for one integration
type Summary struct {
	Breaking int `json:"breaking"`
	Warning  int `json:"warning"`
	Info     int `json:"info"`
	Total    int `json:"total"`
}

// Filter contains drift record filtering options
type Filter struct {
	Severity   Severity
	ChangeKind integration.ChangeKind
	Resolved   *bool
}
