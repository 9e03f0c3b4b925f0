package controllers

import (
	"context"
	"net/http"

	"fund-planning-api/middleware"
	"fund-planning-api/models"
	"fund-planning-api/utils"

	"github.com/gin-gonic/gin"
)

type Inbox interface {
	List(ctx context.Context, userID uint, unreadOnly bool, limit, offset int) ([]models.Notification, error)
	MarkRead(ctx context.Context, userID uint, notificationID uint) error
}

type NotificationController struct {
	inbox Inbox
}

func NewNotificationController(inbox Inbox) *NotificationController {
	return &NotificationController{inbox: inbox}
}

func currentUserID(c *gin.Context) (uint, bool) {
	id := c.GetInt(middleware.ContextUserID)
	if id <= 0 {
		c.JSON(http.StatusUnauthorized, gin.H{"success": false, "error": "unauthorized"})
		return 0, false
	}
	return uint(id), true
}

// GetNotifications lists the caller's inbox. Query: unreadOnly, limit, offset.
func (h *NotificationController) GetNotifications(c *gin.Context) {
	uid, ok := currentUserID(c)
	if !ok {
		return
	}
	limit, offset := utils.ParsePaging(c.Query("limit"), c.Query("offset"))

	items, err := h.inbox.List(c.Request.Context(), uid, utils.ParseBool(c.Query("unreadOnly")), limit, offset)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "items": items})
}

func (h *NotificationController) MarkNotificationRead(c *gin.Context) {
	uid, ok := currentUserID(c)
	if !ok {
		return
	}
	id, ok := utils.ParsePositiveID(c.Param("id"))
	if !ok {
		badRequest(c, "Invalid notification ID")
		return
	}
	if err := h.inbox.MarkRead(c.Request.Context(), uid, uint(id)); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}
