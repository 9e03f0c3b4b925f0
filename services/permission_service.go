package services

import (
	"context"
	"fmt"

	"fund-planning-api/models"
	"fund-planning-api/workflow"

	"gorm.io/gorm"
)

// PermissionService answers engine permission checks from role_permissions.
type PermissionService struct {
	db *gorm.DB
}

func NewPermissionService(db *gorm.DB) *PermissionService {
	return &PermissionService{db: db}
}

func (s *PermissionService) CheckPermission(ctx context.Context, actor *workflow.Actor, perm workflow.Permission) (bool, error) {
	if actor == nil || actor.UserID == 0 {
		return false, nil
	}

	var grants []models.RolePermission
	err := s.db.WithContext(ctx).
		Where("role_id = ? AND action = ? AND resource IN ?", actor.RoleID, perm.Action, []string{perm.Resource, "*"}).
		Find(&grants).Error
	if err != nil {
		return false, fmt.Errorf("failed to load role permissions: %w", err)
	}

	for _, grant := range grants {
		if scopeAllows(grant.Scope, actor, perm.Scope) {
			return true, nil
		}
	}
	return false, nil
}

func scopeAllows(scope string, actor *workflow.Actor, target workflow.Scope) bool {
	switch scope {
	case models.ScopeAll:
		return true
	case models.ScopeOrganization:
		return actor.OrganizationID != 0 && actor.OrganizationID == target.OrganizationID
	case models.ScopeOwn:
		return actor.UserID == target.OwnerID
	}
	return false
}
