package controllers

import (
	"errors"
	"net/http"

	"fund-planning-api/workflow"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

var workflowStatus = map[workflow.Code]int{
	workflow.CodeNotFound:                   http.StatusNotFound,
	workflow.CodePermissionDenied:           http.StatusForbidden,
	workflow.CodeInvalidTransition:          http.StatusBadRequest,
	workflow.CodeInvalidState:               http.StatusPreconditionFailed,
	workflow.CodeNotWithdrawable:            http.StatusUnprocessableEntity,
	workflow.CodePolicyNotConfigured:        http.StatusUnprocessableEntity,
	workflow.CodeWithdrawalWindowExpired:    http.StatusGone,
	workflow.CodeWithdrawalAttemptsExceeded: http.StatusTooManyRequests,
	workflow.CodeConcurrentModification:     http.StatusConflict,
}

// httpStatusFor maps a failure to its response status. Untyped errors are
// internal failures.
func httpStatusFor(err error) int {
	if status, ok := workflowStatus[workflow.CodeOf(err)]; ok {
		return status
	}
	return http.StatusInternalServerError
}

// respondError writes the failure body. Internal errors are logged and
// replaced with a generic message.
func respondError(c *gin.Context, err error) {
	status := httpStatusFor(err)
	if status == http.StatusInternalServerError {
		zerolog.Ctx(c.Request.Context()).Error().Err(err).Str("path", c.FullPath()).Msg("request failed")
		_ = c.Error(err)
		c.JSON(status, gin.H{"success": false, "error": "Internal server error"})
		return
	}

	var werr *workflow.Error
	message := err.Error()
	if errors.As(err, &werr) {
		message = werr.Error()
	}
	body := gin.H{"success": false, "error": message, "code": string(workflow.CodeOf(err))}
	if workflow.Retryable(err) {
		body["retryable"] = true
	}
	c.JSON(status, body)
}

func badRequest(c *gin.Context, message string) {
	c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": message})
}
