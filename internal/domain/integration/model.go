package integration

import "time"

// Integration represents a connected third-party API whose capabilities are
// exposed as callable tools
type Integration struct {
	ID            string    `json:"id"`
	TenantID      int64     `json:"tenant_id"`
	Name          string    `json:"name"`
	Provider      string    `json:"provider"`
	Status        string    `json:"status"`
	SchemaVersion int       `json:"schema_version"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at,omitempty"`
}

// Integration status
const (
	StatusPending      = "pending"
	StatusActive       = "active"
	StatusDisconnected = "disconnected"
)

// ConnectSession is a short-lived handle for the OAuth front-channel. The
// platform only issues it; the actual authorization dance happens elsewhere.
type ConnectSession struct {
	ID            string    `json:"id"`
	TenantID      int64     `json:"tenant_id"`
	IntegrationID string    `json:"integration_id"`
	Token         string    `json:"token"`
	Status        string    `json:"status"`
	ExpiresAt     time.Time `json:"expires_at"`
	CreatedAt     time.Time `json:"created_at"`
}

// Connect session status
const (
	SessionStatusIssued   = "issued"
	SessionStatusConsumed = "consumed"
	SessionStatusExpired  = "expired"
)
