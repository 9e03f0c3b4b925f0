package routes

import (
	"net/http"

	"fund-planning-api/controllers"
	"fund-planning-api/middleware"
	"fund-planning-api/models"
	"fund-planning-api/monitor"

	"github.com/gin-gonic/gin"
)

// Handlers groups everything SetupRoutes mounts.
type Handlers struct {
	Auth              *controllers.AuthController
	Records           *controllers.RecordController
	WithdrawalConfigs *controllers.WithdrawalConfigController
	Notifications     *controllers.NotificationController
	Sessions          *middleware.Sessions
	Users             middleware.UserChecker
	// Health reports dependency state; nil means always healthy.
	Health func() error
	// LogFile is tailed by the admin logs endpoint.
	LogFile string
}

func SetupRoutes(router *gin.Engine, h Handlers) {
	// API v1 group
	v1 := router.Group("/api/v1")
	{
		// Public routes
		public := v1.Group("")
		{
			public.POST("/login", h.Auth.Login)
			public.GET("/health", healthHandler(h.Health))
		}

		// Protected routes (require authentication)
		protected := v1.Group("")
		protected.Use(middleware.AuthMiddleware(h.Sessions, h.Users))
		{
			records := protected.Group("/records/:id")
			{
				records.GET("", h.Records.GetRecord)
				records.GET("/audit", h.Records.AuditHistory)

				// Owner side; the permission gate decides per module
				records.POST("/submit", h.Records.Submit)
				records.POST("/withdrawal", h.Records.RequestWithdrawal)
				records.DELETE("/withdrawal", h.Records.CancelWithdrawal)

				// Reviewer side
				records.POST("/withdrawal/decision", h.Records.ResolveWithdrawal)
				records.POST("/review", h.Records.Review)
			}

			reviews := protected.Group("/reviews", middleware.RequireRole(models.RoleReviewer, models.RoleAdmin))
			{
				reviews.GET("/pending-withdrawals", h.Records.PendingWithdrawals)
			}

			admin := protected.Group("/admin", middleware.RequireRole(models.RoleAdmin))
			{
				configs := admin.Group("/withdrawal-configs")
				configs.GET("", h.WithdrawalConfigs.List)
				configs.GET("/:moduleType", h.WithdrawalConfigs.Get)
				configs.PUT("/:moduleType", h.WithdrawalConfigs.Put)
				configs.DELETE("/:moduleType", h.WithdrawalConfigs.Delete)

				if h.LogFile != "" {
					admin.GET("/logs", monitor.LogsHandler(h.LogFile))
				}
			}

			protected.GET("/notifications", h.Notifications.GetNotifications)
			protected.PATCH("/notifications/:id/read", h.Notifications.MarkNotificationRead)
		}
	}

	router.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"success": false, "error": "Endpoint not found"})
	})
}

func healthHandler(check func() error) gin.HandlerFunc {
	return func(c *gin.Context) {
		if check != nil {
			if err := check(); err != nil {
				c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded", "error": err.Error()})
				return
			}
		}
		c.JSON(http.StatusOK, gin.H{
			"status":  "ok",
			"message": "Fund Planning API is running",
		})
	}
}
