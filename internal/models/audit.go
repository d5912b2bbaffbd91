package models

import (
	"encoding/json"
	"time"
)

// AuditAction labels recorded administrative actions.
type AuditAction string

const (
	AuditActionTeacherCreate AuditAction = "teacher.create"
	AuditActionTeacherUpdate AuditAction = "teacher.update"
	AuditActionTeacherDelete AuditAction = "teacher.delete"
	AuditActionTeacherLink   AuditAction = "teacher.link_user"
	AuditActionUserCreate    AuditAction = "user.create"
	AuditActionUserUpdate    AuditAction = "user.update"
	AuditActionUserDelete    AuditAction = "user.delete"
	AuditActionUserReset     AuditAction = "user.reset_password"
)

// AuditEntry records a single mutating operation against either store.
type AuditEntry struct {
	ID         string          `db:"id" json:"id"`
	ActorID    *string         `db:"actor_id" json:"actor_id,omitempty"`
	Action     AuditAction     `db:"action" json:"action"`
	Resource   string          `db:"resource" json:"resource"`
	ResourceID *string         `db:"resource_id" json:"resource_id,omitempty"`
	Detail     json.RawMessage `db:"detail" json:"detail,omitempty"`
	CreatedAt  time.Time       `db:"created_at" json:"created_at"`
}
