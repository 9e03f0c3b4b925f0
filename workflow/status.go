// Package workflow holds the record lifecycle rules for fund-planning
// records: the status vocabulary, withdrawal policy checks and the engine
// that applies transitions.
package workflow

import (
	"fmt"
	"strings"
)

// Status is a record lifecycle state.
type Status string

const (
	StatusDraft             Status = "DRAFT"
	StatusUnfilled          Status = "UNFILLED"
	StatusSubmitted         Status = "SUBMITTED"
	StatusPendingWithdrawal Status = "PENDING_WITHDRAWAL"
	StatusApproved          Status = "APPROVED"
	StatusRejected          Status = "REJECTED"
)

// PreSubmissionStatus is where a withdrawn record lands.
const PreSubmissionStatus = StatusDraft

var allStatuses = []Status{
	StatusDraft,
	StatusUnfilled,
	StatusSubmitted,
	StatusPendingWithdrawal,
	StatusApproved,
	StatusRejected,
}

// Older clients post lowercase or spaced variants of the same names.
var statusAliases = map[string]Status{
	"draft":              StatusDraft,
	"unfilled":           StatusUnfilled,
	"submitted":          StatusSubmitted,
	"pending_withdrawal": StatusPendingWithdrawal,
	"pending-withdrawal": StatusPendingWithdrawal,
	"pendingwithdrawal":  StatusPendingWithdrawal,
	"approved":           StatusApproved,
	"rejected":           StatusRejected,
}

// Statuses returns the full vocabulary in display order.
func Statuses() []Status {
	out := make([]Status, len(allStatuses))
	copy(out, allStatuses)
	return out
}

// ParseStatus resolves a stored or user supplied status name. Unknown values
// are rejected.
func ParseStatus(raw string) (Status, error) {
	key := strings.ToLower(strings.TrimSpace(raw))
	if status, ok := statusAliases[key]; ok {
		return status, nil
	}
	return "", fmt.Errorf("unknown status %q", raw)
}

// Valid reports whether s belongs to the vocabulary.
func (s Status) Valid() bool {
	_, ok := transitions[s]
	return ok
}

// Editable reports whether the owning module may still change the record.
func (s Status) Editable() bool {
	return s == StatusDraft || s == StatusUnfilled
}

func (s Status) String() string { return string(s) }

// Operation is a trigger in the transition table.
type Operation string

const (
	OpSubmit            Operation = "submit"
	OpWithdraw          Operation = "withdraw"
	OpWithdrawDirect    Operation = "withdraw_direct"
	OpCancelWithdrawal  Operation = "cancel_withdrawal"
	OpApproveWithdrawal Operation = "approve_withdrawal"
	OpRejectWithdrawal  Operation = "reject_withdrawal"
	OpApprove           Operation = "approve"
	OpReject            Operation = "reject"
)

var allOperations = []Operation{
	OpSubmit,
	OpWithdraw,
	OpWithdrawDirect,
	OpCancelWithdrawal,
	OpApproveWithdrawal,
	OpRejectWithdrawal,
	OpApprove,
	OpReject,
}

// Operations returns every operation the table knows about.
func Operations() []Operation {
	out := make([]Operation, len(allOperations))
	copy(out, allOperations)
	return out
}

// transitions is the only place legal moves are defined. A status with an
// empty map is terminal for every operation.
var transitions = map[Status]map[Operation]Status{
	StatusDraft: {
		OpSubmit: StatusSubmitted,
	},
	StatusUnfilled: {
		OpSubmit: StatusSubmitted,
	},
	StatusSubmitted: {
		OpWithdraw:       StatusPendingWithdrawal,
		OpWithdrawDirect: PreSubmissionStatus,
		OpApprove:        StatusApproved,
		OpReject:         StatusRejected,
	},
	StatusPendingWithdrawal: {
		OpCancelWithdrawal:  StatusSubmitted,
		OpApproveWithdrawal: PreSubmissionStatus,
		OpRejectWithdrawal:  StatusSubmitted,
	},
	StatusApproved: {},
	StatusRejected: {
		OpSubmit: StatusSubmitted,
	},
}

// Next returns the target of applying op in status from. ok is false when
// the table has no such edge.
func Next(from Status, op Operation) (Status, bool) {
	edges, known := transitions[from]
	if !known {
		return "", false
	}
	to, ok := edges[op]
	return to, ok
}

// Allowed lists the operations legal from a status.
func Allowed(from Status) []Operation {
	out := make([]Operation, 0, len(allOperations))
	for _, op := range allOperations {
		if _, ok := Next(from, op); ok {
			out = append(out, op)
		}
	}
	return out
}

// Decision is a reviewer verdict.
type Decision string

const (
	DecisionApprove Decision = "approve"
	DecisionReject  Decision = "reject"
)

// ParseDecision accepts approve/reject and the agree/disagree wording used
// by reviewer forms.
func ParseDecision(raw string) (Decision, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "approve", "approved", "agree":
		return DecisionApprove, nil
	case "reject", "rejected", "disagree":
		return DecisionReject, nil
	}
	return "", fmt.Errorf("decision must be either 'approve' or 'reject'")
}
