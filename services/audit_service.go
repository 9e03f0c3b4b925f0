package services

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"fund-planning-api/models"
	"fund-planning-api/workflow"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// AuditService is the append-only workflow audit trail. It has no update or
// delete path.
type AuditService struct {
	db    *gorm.DB
	newID func() string
}

func NewAuditService(db *gorm.DB) *AuditService {
	return &AuditService{db: db, newID: uuid.NewString}
}

func (s *AuditService) Record(ctx context.Context, entry workflow.AuditEntry) error {
	var details *string
	if len(entry.Details) > 0 {
		raw, err := json.Marshal(entry.Details)
		if err != nil {
			return fmt.Errorf("failed to encode audit details: %w", err)
		}
		serialized := string(raw)
		details = &serialized
	}

	meta := requestMetaFrom(ctx)
	row := models.WorkflowAuditLog{
		EntryID:      s.newID(),
		ActorID:      entry.ActorID,
		Action:       entry.Action,
		TargetType:   entry.TargetType,
		TargetID:     entry.TargetID,
		StatusBefore: string(entry.StatusBefore),
		StatusAfter:  string(entry.StatusAfter),
		Details:      details,
		IPAddress:    meta.IPAddress,
		CreatedAt:    entry.Timestamp,
	}
	if ua := strings.TrimSpace(meta.UserAgent); ua != "" {
		row.UserAgent = &ua
	}

	if err := s.db.WithContext(persistentContext(ctx)).Create(&row).Error; err != nil {
		return fmt.Errorf("failed to write audit log: %w", err)
	}
	return nil
}

// ListForTarget returns the trail of one target, oldest first.
func (s *AuditService) ListForTarget(ctx context.Context, targetType string, targetID int) ([]models.WorkflowAuditLog, error) {
	var rows []models.WorkflowAuditLog
	err := s.db.WithContext(ctx).
		Where("target_type = ? AND target_id = ?", targetType, targetID).
		Order("created_at ASC, audit_id ASC").
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load audit log: %w", err)
	}
	return rows, nil
}
