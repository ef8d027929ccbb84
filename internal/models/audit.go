package models

import "time"

// AuditAction constants represent actions to be logged.
const (
	AuditActionLogin        = "LOGIN"
	AuditActionTokenRefresh = "TOKEN_REFRESH"
	AuditActionRegister     = "REGISTER"
)

// AuditResourceAccount is the resource name of every account audit entry.
const AuditResourceAccount = "account"

// MaxAuditAddressLength matches audit_logs.ip_address VARCHAR(256).
const MaxAuditAddressLength = 256

// AuditLog represents an audit trail record. IPAddress is the best-effort
// client address; it is never used for access decisions.
type AuditLog struct {
	ID        string    `db:"id" json:"id"`
	UserID    *string   `db:"user_id" json:"user_id,omitempty"`
	Action    string    `db:"action" json:"action"`
	Resource  string    `db:"resource" json:"resource"`
	NewValues []byte    `db:"new_values" json:"new_values,omitempty"`
	IPAddress string    `db:"ip_address" json:"ip_address"`
	UserAgent string    `db:"user_agent" json:"user_agent"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}
