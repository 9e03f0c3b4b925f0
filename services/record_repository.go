package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"fund-planning-api/models"
	"fund-planning-api/workflow"

	"gorm.io/gorm"
)

// RecordRepository stores fund records for the workflow engine.
type RecordRepository struct {
	db *gorm.DB
}

func NewRecordRepository(db *gorm.DB) *RecordRepository {
	return &RecordRepository{db: db}
}

// RecordFilter narrows ListRecords. Zero values mean "any".
type RecordFilter struct {
	Status         workflow.Status
	ModuleType     string
	OrganizationID int
	Limit          int
	Offset         int
}

func (r *RecordRepository) FindByID(ctx context.Context, id int) (*workflow.Record, error) {
	var row models.FundRecord
	err := r.db.WithContext(ctx).Where("record_id = ?", id).First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, workflow.NotFoundError("record", id)
		}
		return nil, fmt.Errorf("failed to load record %d: %w", id, err)
	}
	return toWorkflowRecord(row)
}

// Update writes the workflow-owned columns only if the row still carries
// expectedVersion. The version always changes, so MySQL's changed-rows
// count equals the matched-rows count here.
func (r *RecordRepository) Update(ctx context.Context, rec *workflow.Record, expectedVersion int) error {
	now := time.Now()
	var remark *string
	if rec.Remark != "" {
		remark = &rec.Remark
	}

	result := r.db.WithContext(ctx).Model(&models.FundRecord{}).
		Where("record_id = ? AND version = ?", rec.ID, expectedVersion).
		Updates(map[string]interface{}{
			"status":              string(rec.Status),
			"submitted_at":        rec.SubmittedAt,
			"withdrawal_attempts": rec.WithdrawalAttempts,
			"remark":              remark,
			"version":             expectedVersion + 1,
			"updated_at":          now,
		})
	if result.Error != nil {
		return fmt.Errorf("failed to update record %d: %w", rec.ID, result.Error)
	}
	if result.RowsAffected == 0 {
		return workflow.ConflictError(rec.ID, expectedVersion)
	}

	rec.Version = expectedVersion + 1
	rec.UpdatedAt = now
	return nil
}

// ListRecords backs the reviewer queues.
func (r *RecordRepository) ListRecords(ctx context.Context, filter RecordFilter) ([]workflow.Record, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.FundRecord{})
	if filter.Status != "" {
		query = query.Where("status = ?", string(filter.Status))
	}
	if mt := strings.TrimSpace(filter.ModuleType); mt != "" {
		query = query.Where("module_type = ?", mt)
	}
	if filter.OrganizationID > 0 {
		query = query.Where("organization_id = ?", filter.OrganizationID)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count records: %w", err)
	}

	limit := filter.Limit
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	var rows []models.FundRecord
	if err := query.Order("updated_at DESC").Limit(limit).Offset(filter.Offset).Find(&rows).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to list records: %w", err)
	}

	out := make([]workflow.Record, 0, len(rows))
	for _, row := range rows {
		rec, err := toWorkflowRecord(row)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, *rec)
	}
	return out, total, nil
}

func toWorkflowRecord(row models.FundRecord) (*workflow.Record, error) {
	status, err := workflow.ParseStatus(row.Status)
	if err != nil {
		return nil, fmt.Errorf("record %d: %w", row.RecordID, err)
	}
	rec := &workflow.Record{
		ID:                 row.RecordID,
		OrganizationID:     row.OrganizationID,
		OwnerID:            row.OwnerID,
		ModuleType:         row.ModuleType,
		Title:              row.Title,
		FiscalYear:         row.FiscalYear,
		Status:             status,
		SubmittedAt:        row.SubmittedAt,
		WithdrawalAttempts: row.WithdrawalAttempts,
		Version:            row.Version,
		UpdatedAt:          row.UpdatedAt,
	}
	if row.Remark != nil {
		rec.Remark = *row.Remark
	}
	return rec, nil
}
