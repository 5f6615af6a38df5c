package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mamadbah2/hamma/internal/domain/models"
)

type errorMapping struct {
	target error
	status int
	code   string
}

// Order matters only where one error wraps another.
var errorMappings = []errorMapping{
	{models.ErrApprovalRequired, http.StatusAccepted, "approval_required"},
	{models.ErrInvalidCredential, http.StatusForbidden, "invalid_credential"},
	{models.ErrTooManyAttempts, http.StatusTooManyRequests, "too_many_attempts"},
	{models.ErrInvalidTransition, http.StatusConflict, "invalid_transition"},
	{models.ErrEmptyCart, http.StatusBadRequest, "empty_cart"},
	{models.ErrInvalidInput, http.StatusBadRequest, "invalid_input"},
	{models.ErrSessionNotFound, http.StatusNotFound, "session_not_found"},
	{models.ErrOrderNotFound, http.StatusNotFound, "order_not_found"},
	{models.ErrNotReportEligible, http.StatusConflict, "not_report_eligible"},
	{models.ErrConsistency, http.StatusConflict, "consistency_error"},
	{models.ErrDuplicateOrderID, http.StatusConflict, "duplicate_order_id"},
	{models.ErrMalformedResponse, http.StatusBadGateway, "malformed_response"},
	{models.ErrBackendUnavailable, http.StatusServiceUnavailable, "backend_unavailable"},
}

// respondError writes the JSON error body for err. Unknown errors are 500s and logged.
func respondError(c *gin.Context, logger *zap.Logger, err error) {
	for _, m := range errorMappings {
		if errors.Is(err, m.target) {
			if m.status >= http.StatusInternalServerError {
				logger.Warn("request failed", zap.String("code", m.code), zap.Error(err))
			}
			c.JSON(m.status, gin.H{"error": m.code, "message": err.Error()})
			return
		}
	}

	logger.Error("unexpected error", zap.Error(err))
	c.JSON(http.StatusInternalServerError, gin.H{"error": "internal", "message": "internal server error"})
}

func badRequest(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_input", "message": err.Error()})
}
