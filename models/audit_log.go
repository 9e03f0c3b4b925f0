package models

import "time"

// WorkflowAuditLog is the append-only trail of record status changes.
type WorkflowAuditLog struct {
	AuditID      int       `gorm:"primaryKey;column:audit_id" json:"audit_id"`
	EntryID      string    `gorm:"column:entry_id;size:36;uniqueIndex" json:"entry_id"`
	ActorID      int       `gorm:"column:actor_id;index" json:"actor_id"`
	Action       string    `gorm:"column:action;size:50" json:"action"`
	TargetType   string    `gorm:"column:target_type;size:50" json:"target_type"`
	TargetID     int       `gorm:"column:target_id;index" json:"target_id"`
	StatusBefore string    `gorm:"column:status_before;size:32" json:"status_before"`
	StatusAfter  string    `gorm:"column:status_after;size:32" json:"status_after"`
	Details      *string   `gorm:"column:details;type:text" json:"details"`
	IPAddress    string    `gorm:"column:ip_address;size:64" json:"ip_address,omitempty"`
	UserAgent    *string   `gorm:"column:user_agent" json:"user_agent,omitempty"`
	CreatedAt    time.Time `gorm:"column:created_at" json:"created_at"`

	Actor *User `gorm:"foreignKey:ActorID;references:UserID" json:"actor,omitempty"`
}

// TableName specifies the table for WorkflowAuditLog.
func (WorkflowAuditLog) TableName() string {
	return "workflow_audit_logs"
}
