package models

import "time"

// WithdrawalConfig represents one withdrawal policy row per module type.
// AllowedStatuses is stored as a JSON list of status names.
type WithdrawalConfig struct {
	ConfigID        int       `gorm:"primaryKey;column:config_id" json:"config_id"`
	ModuleType      string    `gorm:"column:module_type;size:32;uniqueIndex" json:"module_type"`
	AllowedStatuses []string  `gorm:"column:allowed_statuses;type:text;serializer:json" json:"allowed_statuses"`
	TimeLimitHours  int       `gorm:"column:time_limit_hours;default:0" json:"time_limit_hours"`
	MaxAttempts     int       `gorm:"column:max_attempts;not null" json:"max_attempts"`
	RequireApproval bool      `gorm:"column:require_approval" json:"require_approval"`
	AllowResubmit   bool      `gorm:"column:allow_resubmit" json:"allow_resubmit"`
	IsActive        bool      `gorm:"column:is_active;default:true" json:"is_active"`
	UpdatedBy       *int      `gorm:"column:updated_by" json:"updated_by,omitempty"`
	CreatedAt       time.Time `gorm:"column:created_at" json:"created_at"`
	UpdatedAt       time.Time `gorm:"column:updated_at" json:"updated_at"`
}

// TableName specifies the table name for GORM
func (WithdrawalConfig) TableName() string {
	return "withdrawal_configs"
}
