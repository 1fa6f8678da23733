package model

import (
	"database/sql"
	"time"
)

// Audit levels
const (
	AuditLevelInfo    = "info"
	AuditLevelWarning = "warning"
	AuditLevelError   = "error"
)

// Audit categories
const (
	AuditCategoryAuth         = "auth"
	AuditCategoryEvent        = "event"
	AuditCategoryRegistration = "registration"
	AuditCategoryContact      = "contact"
	AuditCategorySystem       = "system"
)

// AuditEntry represents an audit log record.
type AuditEntry struct {
	ID        int64
	Level     string
	Category  string
	Message   string
	UserID    sql.NullInt64
	Metadata  string // JSON string
	CreatedAt time.Time
}
