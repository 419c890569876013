package models

import "time"

// Audit outcomes.
const (
	OutcomeConfirmed = "confirmed"
	OutcomeRejected  = "rejected"
	OutcomeFailed    = "failed"
)

// AuditEntry records one moderation action executed through the console.
type AuditEntry struct {
	ID            uint      `gorm:"primaryKey" json:"id"`
	AdminEmail    string    `gorm:"size:255;index" json:"admin_email"`
	Action        string    `gorm:"size:32;index" json:"action"`
	TargetUserID  int64     `gorm:"index" json:"target_user_id"`
	Outcome       string    `gorm:"size:16" json:"outcome"`
	Message       string    `gorm:"size:512" json:"message"`
	CorrelationID string    `gorm:"size:64" json:"correlation_id"`
	CreatedAt     time.Time `gorm:"index" json:"created_at"`
}

// TableName pins the audit table name.
func (AuditEntry) TableName() string { return "moderation_audit_entries" }
