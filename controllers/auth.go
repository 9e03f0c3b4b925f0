package controllers

import (
	"context"
	"net/http"
	"strings"
	"time"

	"fund-planning-api/models"
	"fund-planning-api/utils"
	"fund-planning-api/workflow"

	"github.com/gin-gonic/gin"
)

type LoginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type LoginResponse struct {
	Token     string      `json:"token"`
	ExpiresAt time.Time   `json:"expires_at"`
	User      models.User `json:"user"`
	Message   string      `json:"message"`
}

type UserFinder interface {
	FindActiveByEmail(ctx context.Context, email string) (*models.User, error)
}

// TokenIssuer is satisfied by *middleware.Sessions.
type TokenIssuer interface {
	Issue(userID, roleID, organizationID int, email string) (string, time.Time, error)
}

type AuthController struct {
	users    UserFinder
	sessions TokenIssuer
}

func NewAuthController(users UserFinder, sessions TokenIssuer) *AuthController {
	return &AuthController{users: users, sessions: sessions}
}

// Login handles user authentication
func (h *AuthController) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Email and password are required")
		return
	}
	email := strings.TrimSpace(req.Email)
	if !utils.ValidateEmail(email) {
		badRequest(c, "Invalid email format")
		return
	}

	user, err := h.users.FindActiveByEmail(c.Request.Context(), email)
	if err != nil {
		if workflow.CodeOf(err) == workflow.CodeNotFound {
			c.JSON(http.StatusUnauthorized, gin.H{"success": false, "error": "Invalid email or password"})
			return
		}
		respondError(c, err)
		return
	}
	if !utils.CheckPasswordHash(req.Password, user.Password) {
		c.JSON(http.StatusUnauthorized, gin.H{"success": false, "error": "Invalid email or password"})
		return
	}

	token, expiresAt, err := h.sessions.Issue(user.UserID, user.RoleID, user.OrganizationID, user.Email)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "Failed to generate token"})
		return
	}

	c.JSON(http.StatusOK, LoginResponse{
		Token:     token,
		ExpiresAt: expiresAt,
		User:      *user,
		Message:   "Login successful",
	})
}
