package models

import "time"

// Action enumerates the auditable operations. The set is fixed: new values
// require a code change, which keeps the audit trail queryable.
type Action string

const (
	ActionLogin          Action = "LOGIN"
	ActionLoginFailed    Action = "LOGIN_FAILED"
	ActionBoxCreate      Action = "BOX_CREATE"
	ActionBoxUpdate      Action = "BOX_UPDATE"
	ActionBoxDelete      Action = "BOX_DELETE"
	ActionBoxAssign      Action = "BOX_ASSIGN"
	ActionUserCreate     Action = "USER_CREATE"
	ActionUserDelete     Action = "USER_DELETE"
	ActionUserRoleChange Action = "USER_ROLE_CHANGE"
	ActionUserPINReset   Action = "USER_PIN_RESET"
	ActionInventoryCheck Action = "INVENTORY_CHECK"
)

// Valid reports whether the action belongs to the fixed audit action set.
func (a Action) Valid() bool {
	switch a {
	case ActionLogin, ActionLoginFailed,
		ActionBoxCreate, ActionBoxUpdate, ActionBoxDelete, ActionBoxAssign,
		ActionUserCreate, ActionUserDelete, ActionUserRoleChange,
		ActionUserPINReset, ActionInventoryCheck:
		return true
	}
	return false
}

// AuditEntry is a single append-only audit record. Entries are created once
// per significant action and never mutated afterwards.
type AuditEntry struct {
	ID         string         `json:"id"`
	UserID     string         `json:"userId"`
	Username   string         `json:"username"`
	Action     Action         `json:"action"`
	TargetType string         `json:"targetType"`
	TargetID   string         `json:"targetId,omitempty"`
	Details    map[string]any `json:"details"`
	IPAddress  string         `json:"ipAddress"`
	Success    bool           `json:"success"`
	Timestamp  time.Time      `json:"timestamp"`
}

// AuditFilter narrows an audit-log listing. Zero values mean "no filter".
type AuditFilter struct {
	UserID   string
	Action   Action
	TargetID string
	Limit    int
}

// TableName returns the name of the database table
// associated with the AuditEntry model.
func (e AuditEntry) TableName() string {
	return "audit_logs"
}
