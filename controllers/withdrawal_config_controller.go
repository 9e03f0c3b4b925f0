package controllers

import (
	"context"
	"net/http"
	"strings"

	"fund-planning-api/middleware"
	"fund-planning-api/models"
	"fund-planning-api/workflow"

	"github.com/gin-gonic/gin"
)

// PolicyAdmin is the administrative side of services.PolicyService.
type PolicyAdmin interface {
	List(ctx context.Context) ([]models.WithdrawalConfig, error)
	Find(ctx context.Context, moduleType string) (*models.WithdrawalConfig, error)
	Upsert(ctx context.Context, cfg workflow.WithdrawalConfig, updatedBy int) (*models.WithdrawalConfig, error)
	Deactivate(ctx context.Context, moduleType string, updatedBy int) error
}

type WithdrawalConfigController struct {
	policies PolicyAdmin
}

func NewWithdrawalConfigController(policies PolicyAdmin) *WithdrawalConfigController {
	return &WithdrawalConfigController{policies: policies}
}

type withdrawalConfigRequest struct {
	AllowedStatuses []string `json:"allowed_statuses"`
	TimeLimitHours  int      `json:"time_limit_hours"`
	MaxAttempts     *int     `json:"max_attempts" binding:"required"`
	RequireApproval bool     `json:"require_approval"`
	AllowResubmit   bool     `json:"allow_resubmit"`
}

func (h *WithdrawalConfigController) List(c *gin.Context) {
	rows, err := h.policies.List(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "configs": rows, "total": len(rows)})
}

func (h *WithdrawalConfigController) Get(c *gin.Context) {
	row, err := h.policies.Find(c.Request.Context(), c.Param("moduleType"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "config": row})
}

// Put creates or replaces the policy of one module and re-activates it.
func (h *WithdrawalConfigController) Put(c *gin.Context) {
	moduleType := strings.TrimSpace(c.Param("moduleType"))
	var req withdrawalConfigRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request body: max_attempts is required")
		return
	}

	statuses, err := workflow.ParseStatuses(req.AllowedStatuses)
	if err != nil {
		badRequest(c, err.Error())
		return
	}
	cfg := workflow.WithdrawalConfig{
		ModuleType:      moduleType,
		AllowedStatuses: statuses,
		TimeLimitHours:  req.TimeLimitHours,
		MaxAttempts:     *req.MaxAttempts,
		RequireApproval: req.RequireApproval,
		AllowResubmit:   req.AllowResubmit,
	}
	if err := cfg.Validate(); err != nil {
		badRequest(c, err.Error())
		return
	}

	row, err := h.policies.Upsert(c.Request.Context(), cfg, c.GetInt(middleware.ContextUserID))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "config": row})
}

// Delete switches the module's policy off; withdrawals then fail closed.
func (h *WithdrawalConfigController) Delete(c *gin.Context) {
	if err := h.policies.Deactivate(c.Request.Context(), c.Param("moduleType"), c.GetInt(middleware.ContextUserID)); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Withdrawal config deactivated"})
}
