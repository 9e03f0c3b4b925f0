package services

import (
	"context"
	"errors"
	"fmt"
	"html/template"
	"strings"
	"time"

	"fund-planning-api/models"
	"fund-planning-api/workflow"

	"github.com/rs/zerolog"
	"gorm.io/gorm"
)

// MailSender is satisfied by *config.Mailer.
type MailSender interface {
	Enabled() bool
	SendMail(to []string, subject, html string) error
}

// NotificationService tells record owners about reviewer decisions: an inbox
// row always, an email when SMTP is configured.
type NotificationService struct {
	db     *gorm.DB
	mailer MailSender
	log    zerolog.Logger
}

func NewNotificationService(db *gorm.DB, mailer MailSender, log zerolog.Logger) *NotificationService {
	return &NotificationService{db: db, mailer: mailer, log: log}
}

type notice struct {
	title   string
	message string
	kind    string // info|success|warning|error
}

func noticeFor(rec *workflow.Record, action string) (notice, bool) {
	title := rec.Title
	if title == "" {
		title = fmt.Sprintf("#%d", rec.ID)
	}
	switch {
	case action == workflow.ActionResolveWithdrawal && rec.Status == workflow.PreSubmissionStatus:
		return notice{"Withdrawal approved", fmt.Sprintf("Your withdrawal request for %q was approved. The record is editable again.", title), "success"}, true
	case action == workflow.ActionResolveWithdrawal && rec.Status == workflow.StatusSubmitted:
		return notice{"Withdrawal rejected", fmt.Sprintf("Your withdrawal request for %q was rejected. The record stays submitted.", title), "warning"}, true
	case action == workflow.ActionReview && rec.Status == workflow.StatusApproved:
		return notice{"Record approved", fmt.Sprintf("%q was approved.", title), "success"}, true
	case action == workflow.ActionReview && rec.Status == workflow.StatusRejected:
		msg := fmt.Sprintf("%q was rejected.", title)
		if rec.Remark != "" {
			msg += "\nReviewer remark: " + rec.Remark
		}
		return notice{"Record rejected", msg, "error"}, true
	}
	return notice{}, false
}

// NotifyTransition informs the owner of rec about a decision taken by actor.
// Transitions without a reviewer decision, or made by the owner, are ignored.
func (s *NotificationService) NotifyTransition(ctx context.Context, rec *workflow.Record, action string, actor *workflow.Actor) error {
	if rec == nil || rec.OwnerID == 0 {
		return nil
	}
	if actor != nil && actor.UserID == rec.OwnerID {
		return nil
	}
	n, ok := noticeFor(rec, action)
	if !ok {
		return nil
	}

	ctx = persistentContext(ctx)
	recordID := uint(rec.ID)
	row := models.Notification{
		UserID:          uint(rec.OwnerID),
		Title:           n.title,
		Message:         n.message,
		Type:            n.kind,
		RelatedRecordID: &recordID,
		CreateAt:        time.Now(),
	}
	if err := s.db.WithContext(ctx).Create(&row).Error; err != nil {
		return fmt.Errorf("failed to create notification: %w", err)
	}

	if s.mailer == nil || !s.mailer.Enabled() {
		return nil
	}
	var owner models.User
	if err := s.db.WithContext(ctx).Where("user_id = ? AND delete_at IS NULL", rec.OwnerID).First(&owner).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil
		}
		return fmt.Errorf("failed to load record owner: %w", err)
	}
	if strings.TrimSpace(owner.Email) == "" {
		return nil
	}
	if err := s.mailer.SendMail([]string{owner.Email}, n.title, buildFormalEmailHTML(n.title, owner.FullName(), n.message)); err != nil {
		s.log.Warn().Err(err).Str("subject", n.title).Int("record_id", rec.ID).Msg("notification email send failed")
	}
	return nil
}

// List returns a user's notifications, newest first.
func (s *NotificationService) List(ctx context.Context, userID uint, unreadOnly bool, limit, offset int) ([]models.Notification, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	q := s.db.WithContext(ctx).Model(&models.Notification{}).Where("user_id = ?", userID)
	if unreadOnly {
		q = q.Where("is_read = ?", false)
	}
	var items []models.Notification
	if err := q.Order("create_at DESC").Limit(limit).Offset(offset).Find(&items).Error; err != nil {
		return nil, fmt.Errorf("failed to list notifications: %w", err)
	}
	return items, nil
}

// MarkRead flags one of the user's notifications as read.
func (s *NotificationService) MarkRead(ctx context.Context, userID uint, notificationID uint) error {
	now := time.Now()
	result := s.db.WithContext(ctx).Model(&models.Notification{}).
		Where("notification_id = ? AND user_id = ?", notificationID, userID).
		Updates(map[string]interface{}{"is_read": true, "update_at": &now})
	if result.Error != nil {
		return fmt.Errorf("failed to mark notification read: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return workflow.NotFoundError("notification", notificationID)
	}
	return nil
}

func buildFormalEmailHTML(subject, recipientName, message string) string {
	name := strings.TrimSpace(recipientName)
	if name == "" {
		name = "colleague"
	}

	escapedSubject := template.HTMLEscapeString(subject)
	escapedGreeting := template.HTMLEscapeString(fmt.Sprintf("Dear %s,", name))
	escapedMessage := template.HTMLEscapeString(strings.TrimSpace(message))
	escapedMessage = strings.ReplaceAll(strings.ReplaceAll(escapedMessage, "\r\n", "\n"), "\r", "\n")
	escapedMessage = strings.ReplaceAll(escapedMessage, "\n", "<br />")

	return fmt.Sprintf(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>%s</title>
</head>
<body style="margin:0;padding:0;background-color:#f9fafb;font-family:'Segoe UI',Tahoma,Arial,sans-serif;">
<div style="max-width:640px;margin:0 auto;padding:24px 20px;">
  <div style="background-color:#ffffff;border:1px solid #e5e7eb;border-radius:12px;padding:24px 24px 28px 24px;">
    <p style="margin:0 0 16px 0;font-size:16px;line-height:1.7;color:#111827;">%s</p>
    <p style="margin:0;font-size:16px;line-height:1.7;color:#111827;word-break:break-word;">%s</p>
  </div>
</div>
</body>
</html>`, escapedSubject, escapedGreeting, escapedMessage)
}
