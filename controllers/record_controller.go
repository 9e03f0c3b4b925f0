package controllers

import (
	"context"
	"net/http"
	"strings"
	"time"

	"fund-planning-api/middleware"
	"fund-planning-api/models"
	"fund-planning-api/services"
	"fund-planning-api/utils"
	"fund-planning-api/workflow"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// WorkflowEngine is the part of *workflow.Engine the handlers drive.
type WorkflowEngine interface {
	Get(ctx context.Context, id int, actor *workflow.Actor) (*workflow.Record, error)
	Submit(ctx context.Context, id int, actor *workflow.Actor) (*workflow.Record, error)
	RequestWithdrawal(ctx context.Context, id int, actor *workflow.Actor) (*workflow.Record, error)
	CancelWithdrawal(ctx context.Context, id int, actor *workflow.Actor) (*workflow.Record, error)
	ResolveWithdrawal(ctx context.Context, id int, actor *workflow.Actor, decision workflow.Decision) (*workflow.Record, error)
	Review(ctx context.Context, id int, actor *workflow.Actor, decision workflow.Decision, remark string) (*workflow.Record, error)
	ListingOrganization(ctx context.Context, actor *workflow.Actor, moduleType, action string, requested int) (int, error)
}

type TransitionNotifier interface {
	NotifyTransition(ctx context.Context, rec *workflow.Record, action string, actor *workflow.Actor) error
}

type AuditReader interface {
	ListForTarget(ctx context.Context, targetType string, targetID int) ([]models.WorkflowAuditLog, error)
}

type RecordLister interface {
	ListRecords(ctx context.Context, filter services.RecordFilter) ([]workflow.Record, int64, error)
}

// RecordController exposes the workflow operations over HTTP.
type RecordController struct {
	engine   WorkflowEngine
	notifier TransitionNotifier
	audit    AuditReader
	records  RecordLister
	log      zerolog.Logger
}

func NewRecordController(engine WorkflowEngine, notifier TransitionNotifier, audit AuditReader, records RecordLister, log zerolog.Logger) *RecordController {
	return &RecordController{engine: engine, notifier: notifier, audit: audit, records: records, log: log}
}

type recordResponse struct {
	ID                 int             `json:"record_id"`
	OrganizationID     int             `json:"organization_id"`
	OwnerID            int             `json:"owner_id"`
	ModuleType         string          `json:"module_type"`
	Title              string          `json:"title"`
	FiscalYear         int             `json:"fiscal_year"`
	Status             workflow.Status `json:"status"`
	SubmittedAt        *time.Time      `json:"submitted_at"`
	WithdrawalAttempts int             `json:"withdrawal_attempts"`
	Remark             string          `json:"remark,omitempty"`
	Version            int             `json:"version"`
	AllowedOperations  []string        `json:"allowed_operations"`
}

func toRecordResponse(rec *workflow.Record) recordResponse {
	ops := workflow.Allowed(rec.Status)
	names := make([]string, 0, len(ops))
	for _, op := range ops {
		names = append(names, string(op))
	}
	resp := recordResponse{
		ID:                 rec.ID,
		OrganizationID:     rec.OrganizationID,
		OwnerID:            rec.OwnerID,
		ModuleType:         rec.ModuleType,
		Title:              rec.Title,
		FiscalYear:         rec.FiscalYear,
		Status:             rec.Status,
		WithdrawalAttempts: rec.WithdrawalAttempts,
		Remark:             rec.Remark,
		Version:            rec.Version,
		AllowedOperations:  names,
	}
	if rec.SubmittedAt != nil {
		at := rec.SubmittedAt.UTC()
		resp.SubmittedAt = &at
	}
	return resp
}

// requestContext carries client details down to the audit trail.
func requestContext(c *gin.Context) context.Context {
	return services.WithRequestMeta(c.Request.Context(), services.RequestMeta{
		IPAddress: c.ClientIP(),
		UserAgent: c.Request.UserAgent(),
	})
}

func recordID(c *gin.Context) (int, bool) {
	id, ok := utils.ParsePositiveID(c.Param("id"))
	if !ok {
		badRequest(c, "Invalid record ID")
	}
	return id, ok
}

// GetRecord returns one record with the operations its status allows.
func (h *RecordController) GetRecord(c *gin.Context) {
	id, ok := recordID(c)
	if !ok {
		return
	}
	rec, err := h.engine.Get(c.Request.Context(), id, middleware.CurrentActor(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "record": toRecordResponse(rec)})
}

func (h *RecordController) Submit(c *gin.Context) {
	h.transition(c, workflow.ActionSubmit, func(ctx context.Context, id int, actor *workflow.Actor) (*workflow.Record, error) {
		return h.engine.Submit(ctx, id, actor)
	})
}

func (h *RecordController) RequestWithdrawal(c *gin.Context) {
	h.transition(c, workflow.ActionWithdraw, func(ctx context.Context, id int, actor *workflow.Actor) (*workflow.Record, error) {
		return h.engine.RequestWithdrawal(ctx, id, actor)
	})
}

func (h *RecordController) CancelWithdrawal(c *gin.Context) {
	h.transition(c, workflow.ActionCancelWithdrawal, func(ctx context.Context, id int, actor *workflow.Actor) (*workflow.Record, error) {
		return h.engine.CancelWithdrawal(ctx, id, actor)
	})
}

// ResolveWithdrawal takes {"decision": "approve"|"reject"} from a reviewer.
func (h *RecordController) ResolveWithdrawal(c *gin.Context) {
	var req struct {
		Decision string `json:"decision" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request body")
		return
	}
	decision, err := workflow.ParseDecision(req.Decision)
	if err != nil {
		badRequest(c, "Decision must be either 'approve' or 'reject'")
		return
	}

	h.transition(c, workflow.ActionResolveWithdrawal, func(ctx context.Context, id int, actor *workflow.Actor) (*workflow.Record, error) {
		return h.engine.ResolveWithdrawal(ctx, id, actor, decision)
	})
}

// Review takes {"decision": "approve"|"reject", "remark": "..."}.
func (h *RecordController) Review(c *gin.Context) {
	var req struct {
		Decision string `json:"decision" binding:"required"`
		Remark   string `json:"remark"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request body")
		return
	}
	decision, err := workflow.ParseDecision(req.Decision)
	if err != nil {
		badRequest(c, "Decision must be either 'approve' or 'reject'")
		return
	}
	remark, err := utils.ValidateRemark(req.Remark)
	if err != nil {
		badRequest(c, err.Error())
		return
	}

	h.transition(c, workflow.ActionReview, func(ctx context.Context, id int, actor *workflow.Actor) (*workflow.Record, error) {
		return h.engine.Review(ctx, id, actor, decision, remark)
	})
}

type transitionFunc func(ctx context.Context, id int, actor *workflow.Actor) (*workflow.Record, error)

func (h *RecordController) transition(c *gin.Context, action string, run transitionFunc) {
	id, ok := recordID(c)
	if !ok {
		return
	}
	actor := middleware.CurrentActor(c)
	ctx := requestContext(c)

	rec, err := run(ctx, id, actor)
	if err != nil && !(rec != nil && workflow.CodeOf(err) == workflow.CodeAuditError) {
		respondError(c, err)
		return
	}

	body := gin.H{"success": true, "record": toRecordResponse(rec)}
	if err != nil {
		// The transition is committed; only its audit entry is missing.
		body["warning"] = err.Error()
		body["code"] = string(workflow.CodeAuditError)
	}

	if h.notifier != nil {
		if nerr := h.notifier.NotifyTransition(ctx, rec, action, actor); nerr != nil {
			h.log.Warn().Err(nerr).Int("record_id", rec.ID).Str("action", action).Msg("notification failed")
		}
	}

	c.JSON(http.StatusOK, body)
}

// AuditHistory lists the transitions of a record the caller may view.
func (h *RecordController) AuditHistory(c *gin.Context) {
	id, ok := recordID(c)
	if !ok {
		return
	}
	ctx := c.Request.Context()
	if _, err := h.engine.Get(ctx, id, middleware.CurrentActor(c)); err != nil {
		respondError(c, err)
		return
	}

	entries, err := h.audit.ListForTarget(ctx, workflow.TargetTypeRecord, id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "entries": entries, "total": len(entries)})
}

// PendingWithdrawals is the reviewer queue. Optional filters: module_type,
// organization_id, limit, offset. Reviewers without a cross-organization
// grant only see their own organization.
func (h *RecordController) PendingWithdrawals(c *gin.Context) {
	limit, offset := utils.ParsePaging(c.Query("limit"), c.Query("offset"))
	filter := services.RecordFilter{
		Status:     workflow.StatusPendingWithdrawal,
		ModuleType: strings.TrimSpace(c.Query("module_type")),
		Limit:      limit,
		Offset:     offset,
	}
	if raw := c.Query("organization_id"); raw != "" {
		orgID, ok := utils.ParsePositiveID(raw)
		if !ok {
			badRequest(c, "Invalid organization_id")
			return
		}
		filter.OrganizationID = orgID
	}

	ctx := c.Request.Context()
	orgID, err := h.engine.ListingOrganization(ctx, middleware.CurrentActor(c), filter.ModuleType, workflow.ActionResolveWithdrawal, filter.OrganizationID)
	if err != nil {
		respondError(c, err)
		return
	}
	filter.OrganizationID = orgID

	records, total, err := h.records.ListRecords(ctx, filter)
	if err != nil {
		respondError(c, err)
		return
	}
	items := make([]recordResponse, 0, len(records))
	for i := range records {
		items = append(items, toRecordResponse(&records[i]))
	}
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"records": items,
		"total":   total,
		"limit":   limit,
		"offset":  offset,
	})
}
