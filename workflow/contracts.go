package workflow

import (
	"context"
	"time"
)

// Record is the unit under workflow control.
type Record struct {
	ID                 int
	OrganizationID     int
	OwnerID            int
	ModuleType         string
	Title              string
	FiscalYear         int
	Status             Status
	SubmittedAt        *time.Time
	WithdrawalAttempts int
	Remark             string
	Version            int
	UpdatedAt          time.Time
}

// Actor is the authenticated principal behind a request.
type Actor struct {
	UserID         int
	RoleID         int
	OrganizationID int
	Email          string
}

// Permission actions checked by the engine.
const (
	ActionView              = "view"
	ActionSubmit            = "submit"
	ActionWithdraw          = "withdraw"
	ActionCancelWithdrawal  = "cancel_withdrawal"
	ActionResolveWithdrawal = "resolve_withdrawal"
	ActionReview            = "review"
)

// Scope narrows a permission check to the record's tenant and owner.
type Scope struct {
	OrganizationID int
	OwnerID        int
}

// Permission is what the gate is asked about.
type Permission struct {
	Resource string
	Action   string
	Scope    Scope
}

// PermissionGate authorizes an actor for an action on a resource.
type PermissionGate interface {
	CheckPermission(ctx context.Context, actor *Actor, perm Permission) (bool, error)
}

// RecordStore loads and conditionally writes records.
//
// Update must persist rec only if the stored version still equals
// expectedVersion, returning a CodeConcurrentModification error otherwise.
// On success it sets rec.Version to the new version.
type RecordStore interface {
	FindByID(ctx context.Context, id int) (*Record, error)
	Update(ctx context.Context, rec *Record, expectedVersion int) error
}

// PolicyStore returns the active withdrawal config for a module, or a
// CodeNotFound error.
type PolicyStore interface {
	GetConfig(ctx context.Context, moduleType string) (*WithdrawalConfig, error)
}

// AuditEntry is an immutable record of one committed transition.
type AuditEntry struct {
	ActorID      int
	Action       string
	TargetType   string
	TargetID     int
	StatusBefore Status
	StatusAfter  Status
	Timestamp    time.Time
	Details      map[string]any
}

// AuditRecorder appends audit entries.
type AuditRecorder interface {
	Record(ctx context.Context, entry AuditEntry) error
}

// TargetTypeRecord is the audit target type of fund records.
const TargetTypeRecord = "fund_record"
