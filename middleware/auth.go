package middleware

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"fund-planning-api/workflow"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

// Context keys set by AuthMiddleware.
const (
	ContextUserID         = "userID"
	ContextEmail          = "email"
	ContextRoleID         = "roleID"
	ContextOrganizationID = "organizationID"
	ContextActor          = "actor"
)

type Claims struct {
	UserID         int    `json:"user_id"`
	Email          string `json:"email"`
	RoleID         int    `json:"role_id"`
	OrganizationID int    `json:"organization_id"`
	jwt.RegisteredClaims
}

// Sessions issues and verifies HS256 session tokens.
type Sessions struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

func NewSessions(secret string, ttl time.Duration) *Sessions {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &Sessions{secret: []byte(secret), ttl: ttl, now: time.Now}
}

// Issue signs a token for the given identity and returns it with its expiry.
func (s *Sessions) Issue(userID, roleID, organizationID int, email string) (string, time.Time, error) {
	issuedAt := s.now()
	expiresAt := issuedAt.Add(s.ttl)
	claims := Claims{
		UserID:         userID,
		Email:          email,
		RoleID:         roleID,
		OrganizationID: organizationID,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			Subject:   fmt.Sprint(userID),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign token: %w", err)
	}
	return token, expiresAt, nil
}

// Parse validates a raw token and returns its claims.
func (s *Sessions) Parse(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		return s.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(s.now))
	if err != nil {
		return nil, err
	}
	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, errors.New("invalid token claims")
	}
	if claims.UserID == 0 {
		return nil, errors.New("token has no user")
	}
	return claims, nil
}

// UserChecker confirms that the account behind a token still exists.
type UserChecker interface {
	UserActive(ctx context.Context, userID int) (bool, error)
}

// AuthMiddleware validates the bearer token and stores the caller as a
// workflow actor on the context.
func AuthMiddleware(sessions *Sessions, users UserChecker) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"success": false, "error": "Authorization header is required"})
			return
		}

		tokenString := strings.TrimPrefix(authHeader, "Bearer ")
		if tokenString == authHeader {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"success": false, "error": "Invalid authorization header format"})
			return
		}

		claims, err := sessions.Parse(tokenString)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"success": false, "error": "Invalid or expired token"})
			return
		}

		if users != nil {
			active, err := users.UserActive(c.Request.Context(), claims.UserID)
			if err != nil {
				c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"success": false, "error": "Failed to verify user"})
				return
			}
			if !active {
				c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"success": false, "error": "User not found"})
				return
			}
		}

		c.Set(ContextUserID, claims.UserID)
		c.Set(ContextEmail, claims.Email)
		c.Set(ContextRoleID, claims.RoleID)
		c.Set(ContextOrganizationID, claims.OrganizationID)
		c.Set(ContextActor, &workflow.Actor{
			UserID:         claims.UserID,
			RoleID:         claims.RoleID,
			OrganizationID: claims.OrganizationID,
			Email:          claims.Email,
		})

		c.Next()
	}
}

// CurrentActor returns the actor stored by AuthMiddleware, or nil.
func CurrentActor(c *gin.Context) *workflow.Actor {
	v, ok := c.Get(ContextActor)
	if !ok {
		return nil
	}
	actor, _ := v.(*workflow.Actor)
	return actor
}

// RequireRole checks if user has specific role
func RequireRole(roleIDs ...int) gin.HandlerFunc {
	return func(c *gin.Context) {
		userRole := c.GetInt(ContextRoleID)
		if userRole == 0 {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"success": false, "error": "Role not found"})
			return
		}

		for _, roleID := range roleIDs {
			if userRole == roleID {
				c.Next()
				return
			}
		}
		c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"success": false, "error": "Insufficient permissions"})
	}
}
