package models

import "errors"

// Sentinel errors shared by the procurement core and its collaborators. Callers compare
// with errors.Is; producers wrap them with context.
var (
	// Collaborator errors
	ErrMalformedResponse  = errors.New("malformed recommendation response")
	ErrBackendUnavailable = errors.New("assistant backend unavailable")

	// Approval errors
	ErrApprovalRequired  = errors.New("admin approval required")
	ErrInvalidCredential = errors.New("invalid admin credential")
	ErrTooManyAttempts   = errors.New("too many approval attempts")
	ErrInvalidTransition = errors.New("invalid order status transition")

	// Ledger and export errors
	ErrEmptyCart         = errors.New("cart is empty")
	ErrOrderNotFound     = errors.New("order not found")
	ErrDuplicateOrderID  = errors.New("duplicate order id")
	ErrNotReportEligible = errors.New("order is not eligible for contract export")
	ErrConsistency       = errors.New("contract total does not match order total")

	ErrSessionNotFound = errors.New("session not found")
	ErrInvalidInput    = errors.New("invalid input")
)
