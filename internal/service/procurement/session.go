package procurement

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/mamadbah2/hamma/internal/domain/models"
)

// CartSnapshot is a read-only view of the cart with its display total.
type CartSnapshot struct {
	Items []models.LineItem `json:"items"`
	Total decimal.Decimal   `json:"total"`
}

// CommitRequest carries the optional admin decision for an order above the threshold.
type CommitRequest struct {
	Credential string
	Decision   Decision
}

// Session owns one user's cart, order ledger and approval attempts. All methods are
// safe for concurrent use; operations on one session are serialized.
type Session struct {
	id        string
	createdAt time.Time

	mu       sync.Mutex
	cart     *Cart
	ledger   *Ledger
	attempts *rate.Limiter

	policy    *Policy
	ids       *IDGenerator
	requester string
	observers []OrderObserver
	logger    *zap.Logger
	now       func() time.Time
}

// ID returns the session identifier.
func (s *Session) ID() string {
	return s.id
}

// CreatedAt returns when the session was opened.
func (s *Session) CreatedAt() time.Time {
	return s.createdAt
}

// AddItem adds qty units of item to the cart.
func (s *Session) AddItem(item models.LineItem, qty int, mode AddMode) (CartSnapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.cart.Add(item, qty, mode); err != nil {
		return CartSnapshot{}, err
	}
	return s.snapshotLocked(), nil
}

// AddItems accumulates every item at its own recommended quantity. Either all items
// are added or, on the first rejected item, none are.
func (s *Session) AddItems(items []models.LineItem) (CartSnapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	saved := s.cart.Items()
	for _, item := range items {
		if err := s.cart.Add(item, item.Quantity, ModeAccumulate); err != nil {
			s.cart.items = saved
			return CartSnapshot{}, err
		}
	}
	return s.snapshotLocked(), nil
}

// SetQuantity sets the exact cart quantity for item.
func (s *Session) SetQuantity(item models.LineItem, qty int) (CartSnapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.cart.SetQuantity(item, qty); err != nil {
		return CartSnapshot{}, err
	}
	return s.snapshotLocked(), nil
}

// RemoveItem drops the cart entry with the given ID.
func (s *Session) RemoveItem(id string) CartSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.cart.Remove(id)
	return s.snapshotLocked()
}

// Cart returns the current cart.
func (s *Session) Cart() CartSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.snapshotLocked()
}

// Commit turns the cart into an order. The approval decision uses the unrounded cart
// total; totals at or below the threshold are auto-approved. The stored total is
// rounded to cents. Above it, a missing credential leaves everything untouched and
// returns models.ErrApprovalRequired; a matching credential approves; any other
// credential, or an explicit decline, commits the order as declined. Every commit
// clears the cart.
func (s *Session) Commit(ctx context.Context, req CommitRequest) (models.Order, error) {
	order, err := s.commit(req)
	if err != nil {
		return models.Order{}, err
	}

	s.notifyCommitted(ctx, order)
	return order, nil
}

func (s *Session) commit(req CommitRequest) (models.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cart.Len() == 0 {
		return models.Order{}, models.ErrEmptyCart
	}

	cartTotal := s.cart.Total()
	if s.policy.RequiresApproval(cartTotal) && req.Credential != "" && !s.attempts.Allow() {
		return models.Order{}, models.ErrTooManyAttempts
	}

	status, err := s.policy.Resolve(cartTotal, req.Credential, req.Decision)
	if err != nil {
		s.logger.Info("order awaiting admin decision",
			zap.String("session_id", s.id),
			zap.String("total", cartTotal.String()))
		return models.Order{}, err
	}

	total := cartTotal.Round(2)

	order := models.Order{
		CreatedAt: s.now().UTC(),
		Requester: s.requester,
		Total:     total,
		Status:    status,
		Items:     s.cart.Items(),
	}

	if err := s.appendLocked(&order); err != nil {
		return models.Order{}, err
	}
	if status.ReportEligible() {
		s.ledger.MarkReportEligible(order.ID)
	}
	s.cart.Clear()

	fields := []zap.Field{
		zap.String("session_id", s.id),
		zap.String("order_id", order.ID),
		zap.String("status", string(order.Status)),
		zap.String("total", order.Total.StringFixed(2)),
		zap.Int("items", len(order.Items)),
	}
	if status == models.StatusDeclined && req.Decision != DecisionDecline {
		s.logger.Warn("invalid admin credential, order declined", fields...)
	} else {
		s.logger.Info("order committed", fields...)
	}

	return order.Clone(), nil
}

// appendLocked assigns an ID and stores the order, regenerating the ID if the ledger
// reports a collision.
func (s *Session) appendLocked(order *models.Order) error {
	const maxAttempts = 3

	var err error
	for range maxAttempts {
		order.ID = s.ids.Next(s.ledger.Has)
		if err = s.ledger.Append(*order); err == nil {
			return nil
		}
		s.logger.Debug("order id collision, regenerating", zap.String("order_id", order.ID))
	}
	return fmt.Errorf("commit order: %w", err)
}

// Reapprove moves a declined order to admin-approved and lists it for contract export.
// Re-approving an order that is already admin-approved changes nothing.
func (s *Session) Reapprove(ctx context.Context, orderID, credential string) (models.Order, error) {
	order, previous, changed, err := s.reapprove(orderID, credential)
	if err != nil {
		return models.Order{}, err
	}

	if changed {
		s.notifyStatusChanged(ctx, order, previous)
	}
	return order, nil
}

func (s *Session) reapprove(orderID, credential string) (models.Order, models.OrderStatus, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	order, err := s.ledger.Get(orderID)
	if err != nil {
		return models.Order{}, "", false, err
	}

	switch order.Status {
	case models.StatusDeclined, models.StatusAdminApproved:
	default:
		return models.Order{}, "", false, fmt.Errorf("reapprove order %s in status %q: %w",
			orderID, order.Status, models.ErrInvalidTransition)
	}

	if credential == "" {
		return models.Order{}, "", false, fmt.Errorf("reapprove order %s: %w", orderID, models.ErrApprovalRequired)
	}
	if !s.attempts.Allow() {
		return models.Order{}, "", false, models.ErrTooManyAttempts
	}
	if !s.policy.Verify(credential) {
		s.logger.Warn("invalid admin credential on re-approval",
			zap.String("session_id", s.id),
			zap.String("order_id", orderID))
		return models.Order{}, "", false, fmt.Errorf("reapprove order %s: %w", orderID, models.ErrInvalidCredential)
	}

	if order.Status == models.StatusAdminApproved {
		s.ledger.MarkReportEligible(orderID)
		return order, order.Status, false, nil
	}

	previous, err := s.ledger.SetStatus(orderID, models.StatusAdminApproved)
	if err != nil {
		return models.Order{}, "", false, err
	}
	s.ledger.MarkReportEligible(orderID)

	updated, err := s.ledger.Get(orderID)
	if err != nil {
		return models.Order{}, "", false, err
	}

	s.logger.Info("order re-approved",
		zap.String("session_id", s.id),
		zap.String("order_id", orderID),
		zap.String("previous_status", string(previous)))

	return updated, previous, true, nil
}

// Orders lists committed orders, most recent first.
func (s *Session) Orders() []models.Order {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.ledger.List()
}

// Order returns one committed order.
func (s *Session) Order(id string) (models.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.ledger.Get(id)
}

// Reports lists the orders eligible for contract export.
func (s *Session) Reports() []models.Order {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.ledger.Reports()
}

// ReportOrder returns an order from the export subset.
func (s *Session) ReportOrder(id string) (models.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	order, err := s.ledger.Get(id)
	if err != nil {
		return models.Order{}, err
	}
	if !s.ledger.ReportEligible(id) {
		return models.Order{}, fmt.Errorf("order %s in status %q: %w", id, order.Status, models.ErrNotReportEligible)
	}
	return order, nil
}

// Summary aggregates the ledger.
func (s *Session) Summary() models.SpendSummary {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.ledger.Summary()
}

func (s *Session) snapshotLocked() CartSnapshot {
	return CartSnapshot{
		Items: s.cart.Items(),
		Total: s.cart.Total().Round(2),
	}
}

func (s *Session) notifyCommitted(ctx context.Context, order models.Order) {
	for _, observer := range s.observers {
		if err := observer.OrderCommitted(ctx, s.id, order.Clone()); err != nil {
			s.logger.Warn("order observer failed",
				zap.String("session_id", s.id),
				zap.String("order_id", order.ID),
				zap.Error(err))
		}
	}
}

func (s *Session) notifyStatusChanged(ctx context.Context, order models.Order, previous models.OrderStatus) {
	for _, observer := range s.observers {
		if err := observer.OrderStatusChanged(ctx, s.id, order.Clone(), previous); err != nil {
			s.logger.Warn("order observer failed",
				zap.String("session_id", s.id),
				zap.String("order_id", order.ID),
				zap.Error(err))
		}
	}
}
