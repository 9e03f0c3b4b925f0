package workflow

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// Engine validates and applies workflow transitions to one record at a time.
// It holds no per-record state; serialization comes from the store's
// versioned Update.
type Engine struct {
	records  RecordStore
	policies PolicyStore
	gate     PermissionGate
	audit    AuditRecorder
	now      func() time.Time
	log      zerolog.Logger
}

// Option configures an Engine.
type Option func(*Engine)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		if now != nil {
			e.now = now
		}
	}
}

// WithLogger sets the logger used for audit failures and transitions.
func WithLogger(logger zerolog.Logger) Option {
	return func(e *Engine) {
		e.log = logger
	}
}

// NewEngine wires the engine to its collaborators.
func NewEngine(records RecordStore, policies PolicyStore, gate PermissionGate, audit AuditRecorder, opts ...Option) *Engine {
	e := &Engine{
		records:  records,
		policies: policies,
		gate:     gate,
		audit:    audit,
		now:      time.Now,
		log:      zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Get returns a record the actor may view.
func (e *Engine) Get(ctx context.Context, id int, actor *Actor) (*Record, error) {
	return e.load(ctx, id, actor, ActionView)
}

// Submit moves an editable (or, when the module allows it, rejected) record
// to SUBMITTED and opens a new submission cycle.
func (e *Engine) Submit(ctx context.Context, id int, actor *Actor) (*Record, error) {
	rec, err := e.load(ctx, id, actor, ActionSubmit)
	if err != nil {
		return nil, err
	}

	before := rec.Status
	switch {
	case before.Editable():
	case before == StatusRejected:
		cfg, err := e.policy(ctx, rec.ModuleType)
		if err != nil {
			return nil, err
		}
		if !cfg.AllowResubmit {
			return nil, newError(CodeInvalidState, "module %s does not allow resubmitting rejected records", rec.ModuleType)
		}
	default:
		return nil, newError(CodeInvalidState, "record %d is %s; only draft or unfilled records can be submitted", rec.ID, before)
	}

	to, ok := Next(before, OpSubmit)
	if !ok {
		return nil, newError(CodeInvalidTransition, "cannot %s from %s", OpSubmit, before)
	}

	now := e.now()
	rec.Status = to
	rec.SubmittedAt = &now
	rec.WithdrawalAttempts = 0

	return e.commit(ctx, actor, rec, before, ActionSubmit, map[string]any{
		"module_type":  rec.ModuleType,
		"resubmission": before == StatusRejected,
	})
}

// RequestWithdrawal recalls a submitted record, either directly to the
// pre-submission status or into PENDING_WITHDRAWAL when the module policy
// requires reviewer approval.
func (e *Engine) RequestWithdrawal(ctx context.Context, id int, actor *Actor) (*Record, error) {
	rec, err := e.load(ctx, id, actor, ActionWithdraw)
	if err != nil {
		return nil, err
	}

	cfg, err := e.policy(ctx, rec.ModuleType)
	if err != nil {
		return nil, err
	}

	before := rec.Status
	if !cfg.Withdrawable(before) {
		return nil, newError(CodeNotWithdrawable, "module %s does not allow withdrawal from %s", rec.ModuleType, before)
	}
	// Read the clock after the record and policy loads so a slow lookup
	// cannot sneak past the window.
	now := e.now()
	if !cfg.WithinWindow(rec.SubmittedAt, now) {
		return nil, newError(CodeWithdrawalWindowExpired, "withdrawal window of %d hours has expired", cfg.TimeLimitHours)
	}
	if !cfg.HasAttemptsLeft(rec.WithdrawalAttempts) {
		return nil, newError(CodeWithdrawalAttemptsExceeded, "%d of %d withdrawal attempts used", rec.WithdrawalAttempts, cfg.MaxAttempts)
	}
	// A policy may list statuses the table has no withdrawal edge for.
	op := cfg.WithdrawOperation()
	to, ok := Next(before, op)
	if !ok {
		return nil, newError(CodeInvalidTransition, "cannot %s from %s", op, before)
	}

	rec.WithdrawalAttempts++
	rec.Status = to

	return e.commit(ctx, actor, rec, before, ActionWithdraw, map[string]any{
		"attempt":          rec.WithdrawalAttempts,
		"max_attempts":     cfg.MaxAttempts,
		"require_approval": cfg.RequireApproval,
	})
}

// CancelWithdrawal returns a pending withdrawal to SUBMITTED. The attempt
// stays consumed.
func (e *Engine) CancelWithdrawal(ctx context.Context, id int, actor *Actor) (*Record, error) {
	rec, err := e.load(ctx, id, actor, ActionCancelWithdrawal)
	if err != nil {
		return nil, err
	}

	before := rec.Status
	if before != StatusPendingWithdrawal {
		return nil, newError(CodeInvalidState, "record %d has no pending withdrawal", rec.ID)
	}
	to, ok := Next(before, OpCancelWithdrawal)
	if !ok {
		return nil, newError(CodeInvalidTransition, "cannot %s from %s", OpCancelWithdrawal, before)
	}
	rec.Status = to

	return e.commit(ctx, actor, rec, before, ActionCancelWithdrawal, map[string]any{
		"attempts_used": rec.WithdrawalAttempts,
	})
}

// ResolveWithdrawal is the reviewer decision on a pending withdrawal.
func (e *Engine) ResolveWithdrawal(ctx context.Context, id int, actor *Actor, decision Decision) (*Record, error) {
	var op Operation
	switch decision {
	case DecisionApprove:
		op = OpApproveWithdrawal
	case DecisionReject:
		op = OpRejectWithdrawal
	default:
		return nil, newError(CodeInvalidTransition, "unknown withdrawal decision %q", decision)
	}

	rec, err := e.load(ctx, id, actor, ActionResolveWithdrawal)
	if err != nil {
		return nil, err
	}

	before := rec.Status
	if before != StatusPendingWithdrawal {
		return nil, newError(CodeInvalidState, "record %d has no pending withdrawal", rec.ID)
	}
	to, ok := Next(before, op)
	if !ok {
		return nil, newError(CodeInvalidTransition, "cannot %s from %s", op, before)
	}
	rec.Status = to

	return e.commit(ctx, actor, rec, before, ActionResolveWithdrawal, map[string]any{
		"decision": string(decision),
	})
}

// Review records the reviewer verdict on a submitted record.
func (e *Engine) Review(ctx context.Context, id int, actor *Actor, decision Decision, remark string) (*Record, error) {
	var op Operation
	switch decision {
	case DecisionApprove:
		op = OpApprove
	case DecisionReject:
		op = OpReject
	default:
		return nil, newError(CodeInvalidTransition, "unknown review decision %q", decision)
	}

	rec, err := e.load(ctx, id, actor, ActionReview)
	if err != nil {
		return nil, err
	}

	before := rec.Status
	if before != StatusSubmitted {
		return nil, newError(CodeInvalidState, "record %d is %s; only submitted records can be reviewed", rec.ID, before)
	}
	to, ok := Next(before, op)
	if !ok {
		return nil, newError(CodeInvalidTransition, "cannot %s from %s", op, before)
	}
	rec.Status = to
	rec.Remark = strings.TrimSpace(remark)

	return e.commit(ctx, actor, rec, before, ActionReview, map[string]any{
		"decision": string(decision),
		"remark":   rec.Remark,
	})
}

// ListingOrganization resolves the organization filter for listing records
// under action. requested is the caller's filter, 0 for none. An actor whose
// grant is not tied to one organization gets requested back; everyone else
// is pinned to their own organization, and asking for another one is
// denied. An empty moduleType checks the wildcard resource.
func (e *Engine) ListingOrganization(ctx context.Context, actor *Actor, moduleType, action string, requested int) (int, error) {
	if actor == nil {
		return 0, newError(CodePermissionDenied, "a session is required")
	}
	resource := moduleType
	if resource == "" {
		resource = "*"
	}

	crossTenant, err := e.gate.CheckPermission(ctx, actor, Permission{Resource: resource, Action: action})
	if err != nil {
		return 0, fmt.Errorf("check permission: %w", err)
	}
	if crossTenant {
		return requested, nil
	}

	if actor.OrganizationID == 0 || (requested != 0 && requested != actor.OrganizationID) {
		return 0, newError(CodePermissionDenied, "user %d may not %s records of organization %d", actor.UserID, action, requested)
	}
	ownOrg, err := e.gate.CheckPermission(ctx, actor, Permission{
		Resource: resource,
		Action:   action,
		Scope:    Scope{OrganizationID: actor.OrganizationID},
	})
	if err != nil {
		return 0, fmt.Errorf("check permission: %w", err)
	}
	if !ownOrg {
		return 0, newError(CodePermissionDenied, "user %d may not %s %s records", actor.UserID, action, resource)
	}
	return actor.OrganizationID, nil
}

func (e *Engine) load(ctx context.Context, id int, actor *Actor, action string) (*Record, error) {
	if actor == nil {
		return nil, newError(CodePermissionDenied, "a session is required")
	}
	rec, err := e.records.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := e.authorize(ctx, actor, rec, action); err != nil {
		return nil, err
	}
	return rec, nil
}

func (e *Engine) authorize(ctx context.Context, actor *Actor, rec *Record, action string) error {
	allowed, err := e.gate.CheckPermission(ctx, actor, Permission{
		Resource: rec.ModuleType,
		Action:   action,
		Scope: Scope{
			OrganizationID: rec.OrganizationID,
			OwnerID:        rec.OwnerID,
		},
	})
	if err != nil {
		return fmt.Errorf("check permission: %w", err)
	}
	if !allowed {
		return newError(CodePermissionDenied, "user %d may not %s %s records", actor.UserID, action, rec.ModuleType)
	}
	return nil
}

// policy fails closed: a missing config never falls back to defaults.
func (e *Engine) policy(ctx context.Context, moduleType string) (*WithdrawalConfig, error) {
	cfg, err := e.policies.GetConfig(ctx, moduleType)
	if err != nil {
		if errors.Is(err, ErrNotFound) || errors.Is(err, ErrPolicyNotConfigured) {
			return nil, newError(CodePolicyNotConfigured, "no withdrawal policy configured for module %q", moduleType)
		}
		return nil, fmt.Errorf("load withdrawal policy: %w", err)
	}
	if cfg == nil {
		return nil, newError(CodePolicyNotConfigured, "no withdrawal policy configured for module %q", moduleType)
	}
	return cfg, nil
}

func (e *Engine) commit(ctx context.Context, actor *Actor, rec *Record, before Status, action string, details map[string]any) (*Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := e.records.Update(ctx, rec, rec.Version); err != nil {
		return nil, err
	}

	e.log.Debug().
		Int("record_id", rec.ID).
		Int("actor_id", actor.UserID).
		Str("action", action).
		Str("from", string(before)).
		Str("to", string(rec.Status)).
		Msg("workflow transition committed")

	entry := AuditEntry{
		ActorID:      actor.UserID,
		Action:       action,
		TargetType:   TargetTypeRecord,
		TargetID:     rec.ID,
		StatusBefore: before,
		StatusAfter:  rec.Status,
		Timestamp:    e.now(),
		Details:      details,
	}
	if err := e.audit.Record(ctx, entry); err != nil {
		e.log.Error().Err(err).
			Int("record_id", rec.ID).
			Str("action", action).
			Msg("audit write failed after commit")
		return rec, &Error{Code: CodeAuditError, Err: err}
	}
	return rec, nil
}
