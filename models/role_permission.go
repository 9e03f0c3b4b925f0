package models

// Permission scopes stored in role_permissions.scope.
const (
	ScopeOwn          = "own"
	ScopeOrganization = "organization"
	ScopeAll          = "all"
)

// RolePermission grants a role an action on a module's records. Resource "*"
// matches every module.
type RolePermission struct {
	RolePermissionID int    `gorm:"primaryKey;column:role_permission_id" json:"role_permission_id"`
	RoleID           int    `gorm:"column:role_id;index:idx_role_resource_action" json:"role_id"`
	Resource         string `gorm:"column:resource;size:32;index:idx_role_resource_action" json:"resource"`
	Action           string `gorm:"column:action;size:32;index:idx_role_resource_action" json:"action"`
	Scope            string `gorm:"column:scope;size:16;default:'own'" json:"scope"`
}

func (RolePermission) TableName() string { return "role_permissions" }
