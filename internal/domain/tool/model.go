package tool

import "time"

// Tool is a callable capability definition bound to one integration action.
// FieldRefs are dot paths into that action's schema; they drive the affected
// tool computation during proposal generation.
type Tool struct {
	ID            string    `json:"id"`
	TenantID      int64     `json:"tenant_id"`
	IntegrationID string    `json:"integration_id"`
	Name          string    `json:"name"`
	Action        string    `json:"action"`
	Description   string    `json:"description"`
	FieldRefs     []string  `json:"field_refs"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at,omitempty"`
}

// Filter contains tool filtering options
type Filter struct {
	IntegrationID string
	Action        string
}
