package workflow

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Module types known to the planning application. Policies are keyed by
// these strings; other values are accepted so new modules only need a
// config row.
const (
	ModulePredict    = "predict"
	ModuleActualUser = "actual_user"
	ModuleActualFin  = "actual_fin"
	ModuleAudit      = "audit"
)

// WithdrawalConfig is the per-module withdrawal policy.
type WithdrawalConfig struct {
	ModuleType      string
	AllowedStatuses []Status
	TimeLimitHours  int
	MaxAttempts     int
	RequireApproval bool
	AllowResubmit   bool
}

// DefaultAllowedStatuses applies when a config leaves the list empty.
var DefaultAllowedStatuses = []Status{StatusSubmitted}

// Validate checks a config before it is stored.
func (c WithdrawalConfig) Validate() error {
	var errs []error
	if strings.TrimSpace(c.ModuleType) == "" {
		errs = append(errs, errors.New("module_type is required"))
	}
	if c.TimeLimitHours < 0 {
		errs = append(errs, errors.New("time_limit_hours must be >= 0"))
	}
	if c.MaxAttempts < 0 {
		errs = append(errs, errors.New("max_attempts must be >= 0"))
	}
	for _, status := range c.AllowedStatuses {
		if !status.Valid() {
			errs = append(errs, fmt.Errorf("allowed_statuses contains unknown status %q", status))
		}
	}
	return errors.Join(errs...)
}

// Withdrawable reports whether a withdrawal may be initiated from status.
func (c WithdrawalConfig) Withdrawable(status Status) bool {
	allowed := c.AllowedStatuses
	if len(allowed) == 0 {
		allowed = DefaultAllowedStatuses
	}
	for _, s := range allowed {
		if s == status {
			return true
		}
	}
	return false
}

// WithinWindow reports whether now is inside the withdrawal window opened
// at submittedAt. Elapsed real time is compared, not calendar days. A
// missing submission time cannot be verified and fails when a limit is set.
func (c WithdrawalConfig) WithinWindow(submittedAt *time.Time, now time.Time) bool {
	if c.TimeLimitHours <= 0 {
		return true
	}
	if submittedAt == nil {
		return false
	}
	return now.Sub(*submittedAt) <= time.Duration(c.TimeLimitHours)*time.Hour
}

// HasAttemptsLeft reports whether another withdrawal request fits in the
// attempt budget.
func (c WithdrawalConfig) HasAttemptsLeft(used int) bool {
	return used < c.MaxAttempts
}

// WithdrawOperation picks the table edge a withdrawal request follows.
func (c WithdrawalConfig) WithdrawOperation() Operation {
	if c.RequireApproval {
		return OpWithdraw
	}
	return OpWithdrawDirect
}

// ParseStatuses converts stored status names, failing on the first unknown
// value.
func ParseStatuses(names []string) ([]Status, error) {
	out := make([]Status, 0, len(names))
	for _, name := range names {
		status, err := ParseStatus(name)
		if err != nil {
			return nil, err
		}
		out = append(out, status)
	}
	return out, nil
}

// StatusNames is the persisted form of a status list.
func StatusNames(statuses []Status) []string {
	out := make([]string, 0, len(statuses))
	for _, s := range statuses {
		out = append(out, string(s))
	}
	return out
}
