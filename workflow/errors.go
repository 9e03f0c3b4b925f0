package workflow

import (
	"errors"
	"fmt"
)

// Code is the stable identifier of a workflow failure.
type Code string

const (
	CodeInvalidTransition          Code = "INVALID_TRANSITION"
	CodeInvalidState               Code = "INVALID_STATE"
	CodeNotWithdrawable            Code = "NOT_WITHDRAWABLE"
	CodeWithdrawalWindowExpired    Code = "WITHDRAWAL_WINDOW_EXPIRED"
	CodeWithdrawalAttemptsExceeded Code = "WITHDRAWAL_ATTEMPTS_EXCEEDED"
	CodePolicyNotConfigured        Code = "POLICY_NOT_CONFIGURED"
	CodePermissionDenied           Code = "PERMISSION_DENIED"
	CodeConcurrentModification     Code = "CONCURRENT_MODIFICATION"
	CodeAuditError                 Code = "AUDIT_ERROR"
	CodeNotFound                   Code = "NOT_FOUND"
)

// Error is a typed workflow failure. Two Errors match under errors.Is when
// their codes are equal.
type Error struct {
	Code    Code
	Message string
	Err     error
}

func (e *Error) Error() string {
	msg := e.Message
	if msg == "" {
		msg = defaultMessages[e.Code]
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Err }

func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Code == e.Code
}

var defaultMessages = map[Code]string{
	CodeInvalidTransition:          "operation is not legal from the current status",
	CodeInvalidState:               "record is not in the required status",
	CodeNotWithdrawable:            "record cannot be withdrawn from its current status",
	CodeWithdrawalWindowExpired:    "withdrawal window has expired",
	CodeWithdrawalAttemptsExceeded: "withdrawal attempts exhausted for this submission",
	CodePolicyNotConfigured:        "withdrawal policy is not configured for this module",
	CodePermissionDenied:           "permission denied",
	CodeConcurrentModification:     "record was modified concurrently",
	CodeAuditError:                 "transition committed but audit logging failed",
	CodeNotFound:                   "not found",
}

// Sentinels for errors.Is.
var (
	ErrInvalidTransition          = &Error{Code: CodeInvalidTransition}
	ErrInvalidState               = &Error{Code: CodeInvalidState}
	ErrNotWithdrawable            = &Error{Code: CodeNotWithdrawable}
	ErrWithdrawalWindowExpired    = &Error{Code: CodeWithdrawalWindowExpired}
	ErrWithdrawalAttemptsExceeded = &Error{Code: CodeWithdrawalAttemptsExceeded}
	ErrPolicyNotConfigured        = &Error{Code: CodePolicyNotConfigured}
	ErrPermissionDenied           = &Error{Code: CodePermissionDenied}
	ErrConcurrentModification     = &Error{Code: CodeConcurrentModification}
	ErrAudit                      = &Error{Code: CodeAuditError}
	ErrNotFound                   = &Error{Code: CodeNotFound}
)

func newError(code Code, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// NotFoundError builds the error stores return for a missing row.
func NotFoundError(kind string, key any) *Error {
	return newError(CodeNotFound, "%s %v not found", kind, key)
}

// ConflictError builds the error stores return when an optimistic write
// loses.
func ConflictError(id int, expectedVersion int) *Error {
	return newError(CodeConcurrentModification, "record %d changed since version %d", id, expectedVersion)
}

// CodeOf extracts the code of a workflow error, or "" for anything else.
func CodeOf(err error) Code {
	var wfErr *Error
	if errors.As(err, &wfErr) {
		return wfErr.Code
	}
	return ""
}

// Retryable reports whether the caller may simply retry the request.
func Retryable(err error) bool {
	return CodeOf(err) == CodeConcurrentModification
}
