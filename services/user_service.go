package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"fund-planning-api/models"
	"fund-planning-api/utils"
	"fund-planning-api/workflow"

	"github.com/rs/zerolog"
	"gorm.io/gorm"
)

// UserService covers the account lookups needed by login and session checks.
type UserService struct {
	db *gorm.DB
}

func NewUserService(db *gorm.DB) *UserService {
	return &UserService{db: db}
}

// FindActiveByEmail loads a non-deleted user by email, case-insensitively.
func (s *UserService) FindActiveByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	err := s.db.WithContext(ctx).
		Where("LOWER(email) = ? AND delete_at IS NULL", strings.ToLower(strings.TrimSpace(email))).
		First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, workflow.NotFoundError("user", email)
		}
		return nil, fmt.Errorf("failed to load user: %w", err)
	}
	return &user, nil
}

// UserActive reports whether the account behind a session still exists.
func (s *UserService) UserActive(ctx context.Context, userID int) (bool, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&models.User{}).
		Where("user_id = ? AND delete_at IS NULL", userID).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("failed to check user %d: %w", userID, err)
	}
	return count > 0, nil
}

// PasswordMigration summarizes a MigratePlaintextPasswords run.
type PasswordMigration struct {
	Hashed  int
	Skipped int
	Failed  int
}

// MigratePlaintextPasswords replaces legacy plaintext passwords with bcrypt
// hashes so the accounts can log in. Rows that already hold a bcrypt hash
// are left alone.
func (s *UserService) MigratePlaintextPasswords(ctx context.Context, dryRun bool, log zerolog.Logger) (PasswordMigration, error) {
	var result PasswordMigration

	var users []models.User
	if err := s.db.WithContext(ctx).Select("user_id", "email", "password").Find(&users).Error; err != nil {
		return result, fmt.Errorf("failed to fetch users: %w", err)
	}

	for _, user := range users {
		if strings.HasPrefix(user.Password, "$2") || user.Password == "" {
			result.Skipped++
			continue
		}
		if dryRun {
			result.Hashed++
			continue
		}

		hashed, err := utils.HashPassword(user.Password)
		if err != nil {
			log.Warn().Err(err).Str("email", user.Email).Msg("failed to hash password")
			result.Failed++
			continue
		}
		err = s.db.WithContext(ctx).Model(&models.User{}).
			Where("user_id = ? AND password = ?", user.UserID, user.Password).
			Update("password", hashed).Error
		if err != nil {
			log.Warn().Err(err).Str("email", user.Email).Msg("failed to update password")
			result.Failed++
			continue
		}
		result.Hashed++
	}
	return result, nil
}
