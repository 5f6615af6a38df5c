package procurement

import (
	"crypto/sha256"
	"crypto/subtle"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/mamadbah2/hamma/internal/domain/models"
)

// Decision is the admin's choice for an order that needs approval.
type Decision string

const (
	DecisionApprove Decision = "approve"
	DecisionDecline Decision = "decline"
)

// ParseDecision maps wire values; empty means approve.
func ParseDecision(value string) (Decision, error) {
	switch Decision(strings.ToLower(strings.TrimSpace(value))) {
	case "", DecisionApprove:
		return DecisionApprove, nil
	case DecisionDecline:
		return DecisionDecline, nil
	default:
		return "", fmt.Errorf("unknown decision %q: %w", value, models.ErrInvalidInput)
	}
}

// transitions lists the status moves allowed after an order exists.
var transitions = map[models.OrderStatus][]models.OrderStatus{
	models.StatusPendingApproval: {models.StatusAdminApproved, models.StatusDeclined},
	models.StatusDeclined:        {models.StatusAdminApproved},
}

// CanTransition reports whether an order may move from one status to another.
func CanTransition(from, to models.OrderStatus) bool {
	for _, allowed := range transitions[from] {
		if allowed == to {
			return true
		}
	}
	return false
}

// Policy decides whether a total needs approval and checks admin credentials.
type Policy struct {
	threshold    decimal.Decimal
	secretDigest [sha256.Size]byte
}

// NewPolicy builds a policy. Only the digest of adminSecret is retained.
func NewPolicy(threshold decimal.Decimal, adminSecret string) *Policy {
	return &Policy{
		threshold:    threshold,
		secretDigest: sha256.Sum256([]byte(adminSecret)),
	}
}

// Threshold returns the configured approval threshold.
func (p *Policy) Threshold() decimal.Decimal {
	return p.threshold
}

// RequiresApproval is true only when total is strictly above the threshold.
func (p *Policy) RequiresApproval(total decimal.Decimal) bool {
	return total.GreaterThan(p.threshold)
}

// Verify compares the credential against the admin secret in constant time.
func (p *Policy) Verify(credential string) bool {
	digest := sha256.Sum256([]byte(credential))
	return subtle.ConstantTimeCompare(digest[:], p.secretDigest[:]) == 1
}

// Resolve returns the commit-time status for total. When approval is needed and no
// credential was supplied it returns StatusPendingApproval with
// models.ErrApprovalRequired; nothing may be committed in that case.
func (p *Policy) Resolve(total decimal.Decimal, credential string, decision Decision) (models.OrderStatus, error) {
	if !p.RequiresApproval(total) {
		return models.StatusAutoApproved, nil
	}
	if credential == "" {
		return models.StatusPendingApproval, fmt.Errorf("total %s above threshold %s: %w",
			total.StringFixed(2), p.threshold.StringFixed(2), models.ErrApprovalRequired)
	}
	if decision == DecisionDecline {
		return models.StatusDeclined, nil
	}
	if p.Verify(credential) {
		return models.StatusAdminApproved, nil
	}
	return models.StatusDeclined, nil
}
