package model

import (
	"time"

	"gorm.io/datatypes"
)

// AuditLog is one audited client or operator request. Request and Response
// hold the JSON bodies; Outcome is the transition state or a short verdict.
type AuditLog struct {
	ID         int64          `gorm:"primaryKey;autoIncrement" json:"id"`
	TraceID    string         `gorm:"index:idx_audit_trace;size:128" json:"trace_id"`
	SessionID  string         `gorm:"index:idx_audit_session_action,priority:1;size:64" json:"session_id"`
	Action     string         `gorm:"index:idx_audit_session_action,priority:2;size:64;not null" json:"action"`
	Outcome    string         `gorm:"size:32" json:"outcome"`
	Request    datatypes.JSON `json:"request,omitempty"`
	Response   datatypes.JSON `json:"response,omitempty"`
	Error      string         `gorm:"type:text" json:"error,omitempty"`
	IP         string         `gorm:"size:45" json:"ip"`
	DurationMs int            `json:"duration_ms"`
	CreatedAt  time.Time      `gorm:"index:idx_audit_created;autoCreateTime:milli" json:"created_at"`
}

func (AuditLog) TableName() string { return "audit_logs" }
