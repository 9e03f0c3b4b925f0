package models

import (
	"time"
)

type User struct {
	UserID         int        `gorm:"primaryKey;column:user_id" json:"user_id"`
	UserFname      string     `gorm:"column:user_fname" json:"user_fname"`
	UserLname      string     `gorm:"column:user_lname" json:"user_lname"`
	Email          string     `gorm:"column:email;unique;size:191" json:"email"`
	Password       string     `gorm:"column:password" json:"-"`
	RoleID         int        `gorm:"column:role_id" json:"role_id"`
	OrganizationID int        `gorm:"column:organization_id;index" json:"organization_id"`
	CreateAt       *time.Time `gorm:"column:create_at" json:"create_at"`
	UpdateAt       *time.Time `gorm:"column:update_at" json:"update_at"`
	DeleteAt       *time.Time `gorm:"column:delete_at" json:"delete_at,omitempty"`

	// Relations
	Role         Role         `gorm:"foreignKey:RoleID" json:"role,omitempty"`
	Organization Organization `gorm:"foreignKey:OrganizationID" json:"organization,omitempty"`
}

// FullName joins first and last name for notifications.
func (u User) FullName() string {
	if u.UserLname == "" {
		return u.UserFname
	}
	return u.UserFname + " " + u.UserLname
}

type Role struct {
	RoleID   int        `gorm:"primaryKey;column:role_id" json:"role_id"`
	Role     string     `gorm:"column:role" json:"role"`
	CreateAt *time.Time `gorm:"column:create_at" json:"create_at"`
	UpdateAt *time.Time `gorm:"column:update_at" json:"update_at"`
	DeleteAt *time.Time `gorm:"column:delete_at" json:"delete_at,omitempty"`
}

// Role ids seeded with the schema.
const (
	RoleOrganizationUser = 1
	RoleReviewer         = 2
	RoleAdmin            = 3
)

type Organization struct {
	OrganizationID int        `gorm:"primaryKey;column:organization_id" json:"organization_id"`
	Name           string     `gorm:"column:name" json:"name"`
	CreateAt       *time.Time `gorm:"column:create_at" json:"create_at"`
	DeleteAt       *time.Time `gorm:"column:delete_at" json:"delete_at,omitempty"`
}
