package models

import "time"

// FundRecord represents the fund_records table: one prediction or actual
// report owned by an organization and driven through the review workflow.
type FundRecord struct {
	RecordID           int        `gorm:"primaryKey;column:record_id" json:"record_id"`
	OrganizationID     int        `gorm:"column:organization_id;index" json:"organization_id"`
	OwnerID            int        `gorm:"column:owner_id;index" json:"owner_id"`
	ModuleType         string     `gorm:"column:module_type;size:32;index" json:"module_type"`
	Title              string     `gorm:"column:title" json:"title"`
	FiscalYear         int        `gorm:"column:fiscal_year" json:"fiscal_year"`
	Status             string     `gorm:"column:status;size:32;index;default:'DRAFT'" json:"status"`
	SubmittedAt        *time.Time `gorm:"column:submitted_at" json:"submitted_at"`
	WithdrawalAttempts int        `gorm:"column:withdrawal_attempts;default:0" json:"withdrawal_attempts"`
	Remark             *string    `gorm:"column:remark" json:"remark"`
	Version            int        `gorm:"column:version;default:1" json:"version"`
	CreatedAt          time.Time  `gorm:"column:created_at" json:"created_at"`
	UpdatedAt          time.Time  `gorm:"column:updated_at" json:"updated_at"`

	Owner *User `gorm:"foreignKey:OwnerID;references:UserID" json:"owner,omitempty"`
}

// TableName specifies the table name for FundRecord.
func (FundRecord) TableName() string {
	return "fund_records"
}
