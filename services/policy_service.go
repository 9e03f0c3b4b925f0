package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"fund-planning-api/models"
	"fund-planning-api/workflow"

	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"
	"gorm.io/gorm"
)

const defaultPolicyTTL = 5 * time.Minute

const stampKey = "\x00stamp"

type policyCacheEntry struct {
	cfg       *workflow.WithdrawalConfig // nil when no active row exists
	fetchedAt time.Time
}

// policyStamp summarizes the whole table. Any write through Upsert or
// Deactivate, from any process, changes it.
type policyStamp struct {
	total   int64
	updated sql.NullTime
}

func (a policyStamp) equal(b policyStamp) bool {
	if a.total != b.total || a.updated.Valid != b.updated.Valid {
		return false
	}
	return !a.updated.Valid || a.updated.Time.Equal(b.updated.Time)
}

// PolicyService reads withdrawal configs for the engine through a TTL cache
// and offers the administrative write path.
//
// The cache is flushed when the table stamp changes, so edits made by
// another process (the withdrawal-config tool) are seen within one recheck
// interval. A zero interval checks the stamp on every read.
type PolicyService struct {
	db      *gorm.DB
	ttl     time.Duration
	recheck time.Duration
	now     func() time.Time
	log     zerolog.Logger

	mu        sync.RWMutex
	cache     map[string]policyCacheEntry
	stamp     policyStamp
	checkedAt time.Time
	group     singleflight.Group
}

func NewPolicyService(db *gorm.DB, ttl, recheck time.Duration, log zerolog.Logger) *PolicyService {
	if ttl <= 0 {
		ttl = defaultPolicyTTL
	}
	if recheck < 0 {
		recheck = 0
	}
	return &PolicyService{
		db:      db,
		ttl:     ttl,
		recheck: recheck,
		now:     time.Now,
		log:     log,
		cache:   make(map[string]policyCacheEntry),
	}
}

// GetConfig returns the active policy for moduleType or a NotFound workflow
// error. Rows with an unreadable status list count as missing so the engine
// fails closed.
func (s *PolicyService) GetConfig(ctx context.Context, moduleType string) (*workflow.WithdrawalConfig, error) {
	key := strings.TrimSpace(moduleType)
	if key == "" {
		return nil, workflow.NotFoundError("withdrawal config", moduleType)
	}
	// Shared fills must not fail because the first caller went away.
	ctx = persistentContext(ctx)
	if err := s.revalidate(ctx); err != nil {
		return nil, err
	}

	entry, ok := s.cached(key)
	if !ok {
		v, err, _ := s.group.Do(key, func() (interface{}, error) {
			if entry, ok := s.cached(key); ok {
				return entry, nil
			}
			loaded, err := s.load(ctx, key)
			if err != nil {
				return nil, err
			}
			s.mu.Lock()
			s.cache[key] = loaded
			s.mu.Unlock()
			return loaded, nil
		})
		if err != nil {
			return nil, err
		}
		entry = v.(policyCacheEntry)
	}

	if entry.cfg == nil {
		return nil, workflow.NotFoundError("withdrawal config", key)
	}
	cfg := *entry.cfg
	cfg.AllowedStatuses = append([]workflow.Status(nil), entry.cfg.AllowedStatuses...)
	return &cfg, nil
}

// Invalidate drops cached entries; with no arguments the whole cache.
func (s *PolicyService) Invalidate(moduleTypes ...string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(moduleTypes) == 0 {
		s.cache = make(map[string]policyCacheEntry)
		return
	}
	for _, mt := range moduleTypes {
		delete(s.cache, strings.TrimSpace(mt))
	}
}

// revalidate flushes the cache when the table changed since the last check.
func (s *PolicyService) revalidate(ctx context.Context) error {
	s.mu.RLock()
	due := s.checkedAt.IsZero() || s.now().Sub(s.checkedAt) >= s.recheck
	s.mu.RUnlock()
	if !due {
		return nil
	}

	_, err, _ := s.group.Do(stampKey, func() (interface{}, error) {
		var stamp policyStamp
		err := s.db.WithContext(ctx).Model(&models.WithdrawalConfig{}).
			Select("COUNT(*), MAX(updated_at)").
			Row().Scan(&stamp.total, &stamp.updated)
		if err != nil {
			return nil, fmt.Errorf("failed to check withdrawal configs: %w", err)
		}

		s.mu.Lock()
		defer s.mu.Unlock()
		if !s.checkedAt.IsZero() && !stamp.equal(s.stamp) {
			s.cache = make(map[string]policyCacheEntry)
			s.log.Debug().Int64("configs", stamp.total).Msg("withdrawal configs changed, cache flushed")
		}
		s.stamp = stamp
		s.checkedAt = s.now()
		return nil, nil
	})
	return err
}

func (s *PolicyService) cached(key string) (policyCacheEntry, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	entry, ok := s.cache[key]
	if !ok || s.now().Sub(entry.fetchedAt) >= s.ttl {
		return policyCacheEntry{}, false
	}
	return entry, true
}

func (s *PolicyService) load(ctx context.Context, moduleType string) (policyCacheEntry, error) {
	entry := policyCacheEntry{fetchedAt: s.now()}

	var row models.WithdrawalConfig
	err := s.db.WithContext(ctx).
		Where("module_type = ? AND is_active = ?", moduleType, true).
		First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entry, nil
		}
		return entry, fmt.Errorf("failed to load withdrawal config %q: %w", moduleType, err)
	}

	cfg, err := toWorkflowConfig(row)
	if err != nil {
		s.log.Warn().Err(err).Str("module_type", moduleType).Msg("ignoring invalid withdrawal config")
		return entry, nil
	}
	entry.cfg = cfg
	return entry, nil
}

// List returns every stored config, active or not.
func (s *PolicyService) List(ctx context.Context) ([]models.WithdrawalConfig, error) {
	var rows []models.WithdrawalConfig
	if err := s.db.WithContext(ctx).Order("module_type ASC").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to list withdrawal configs: %w", err)
	}
	return rows, nil
}

// Find returns the stored row for one module.
func (s *PolicyService) Find(ctx context.Context, moduleType string) (*models.WithdrawalConfig, error) {
	var row models.WithdrawalConfig
	err := s.db.WithContext(ctx).Where("module_type = ?", strings.TrimSpace(moduleType)).First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, workflow.NotFoundError("withdrawal config", moduleType)
		}
		return nil, fmt.Errorf("failed to load withdrawal config %q: %w", moduleType, err)
	}
	return &row, nil
}

// Upsert validates cfg and creates or replaces the row for its module,
// reactivating it if it was switched off.
func (s *PolicyService) Upsert(ctx context.Context, cfg workflow.WithdrawalConfig, updatedBy int) (*models.WithdrawalConfig, error) {
	cfg.ModuleType = strings.TrimSpace(cfg.ModuleType)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	var saved models.WithdrawalConfig
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Where("module_type = ?", cfg.ModuleType).First(&saved).Error
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}
		saved.ModuleType = cfg.ModuleType
		saved.AllowedStatuses = workflow.StatusNames(cfg.AllowedStatuses)
		saved.TimeLimitHours = cfg.TimeLimitHours
		saved.MaxAttempts = cfg.MaxAttempts
		saved.RequireApproval = cfg.RequireApproval
		saved.AllowResubmit = cfg.AllowResubmit
		saved.IsActive = true
		if updatedBy > 0 {
			saved.UpdatedBy = &updatedBy
		}
		return tx.Save(&saved).Error
	})
	if err != nil {
		return nil, fmt.Errorf("failed to save withdrawal config %q: %w", cfg.ModuleType, err)
	}

	s.Invalidate(cfg.ModuleType)
	return &saved, nil
}

// Deactivate switches a module's policy off, which disables withdrawal for
// it.
func (s *PolicyService) Deactivate(ctx context.Context, moduleType string, updatedBy int) error {
	updates := map[string]interface{}{
		"is_active":  false,
		"updated_at": time.Now(),
	}
	if updatedBy > 0 {
		updates["updated_by"] = updatedBy
	}
	result := s.db.WithContext(ctx).Model(&models.WithdrawalConfig{}).
		Where("module_type = ?", strings.TrimSpace(moduleType)).
		Updates(updates)
	if result.Error != nil {
		return fmt.Errorf("failed to deactivate withdrawal config %q: %w", moduleType, result.Error)
	}
	if result.RowsAffected == 0 {
		return workflow.NotFoundError("withdrawal config", moduleType)
	}
	s.Invalidate(moduleType)
	return nil
}

func toWorkflowConfig(row models.WithdrawalConfig) (*workflow.WithdrawalConfig, error) {
	statuses, err := workflow.ParseStatuses(row.AllowedStatuses)
	if err != nil {
		return nil, fmt.Errorf("allowed_statuses: %w", err)
	}
	return &workflow.WithdrawalConfig{
		ModuleType:      row.ModuleType,
		AllowedStatuses: statuses,
		TimeLimitHours:  row.TimeLimitHours,
		MaxAttempts:     row.MaxAttempts,
		RequireApproval: row.RequireApproval,
		AllowResubmit:   row.AllowResubmit,
	}, nil
}
