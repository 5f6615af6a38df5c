package procurement

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/mamadbah2/hamma/internal/domain/models"
)

// Ledger keeps committed orders most-recent-first together with the subset of orders
// eligible for contract export.
type Ledger struct {
	orders  []*models.Order
	byID    map[string]*models.Order
	reports []string
	listed  map[string]struct{}
}

// NewLedger returns an empty ledger.
func NewLedger() *Ledger {
	return &Ledger{
		byID:   make(map[string]*models.Order),
		listed: make(map[string]struct{}),
	}
}

// Has reports whether an order with the given ID was already committed.
func (l *Ledger) Has(id string) bool {
	_, ok := l.byID[id]
	return ok
}

// Append stores a copy of order at the front of the ledger.
func (l *Ledger) Append(order models.Order) error {
	if l.Has(order.ID) {
		return fmt.Errorf("append order %s: %w", order.ID, models.ErrDuplicateOrderID)
	}

	stored := order.Clone()
	l.orders = append([]*models.Order{&stored}, l.orders...)
	l.byID[stored.ID] = &stored
	return nil
}

// Get returns a copy of the order with the given ID.
func (l *Ledger) Get(id string) (models.Order, error) {
	order, ok := l.byID[id]
	if !ok {
		return models.Order{}, fmt.Errorf("order %s: %w", id, models.ErrOrderNotFound)
	}
	return order.Clone(), nil
}

// SetStatus moves an order to a new status if the state machine allows it and returns
// the previous status.
func (l *Ledger) SetStatus(id string, to models.OrderStatus) (models.OrderStatus, error) {
	order, ok := l.byID[id]
	if !ok {
		return "", fmt.Errorf("order %s: %w", id, models.ErrOrderNotFound)
	}

	from := order.Status
	if !CanTransition(from, to) {
		return from, fmt.Errorf("order %s from %q to %q: %w", id, from, to, models.ErrInvalidTransition)
	}

	order.Status = to
	return from, nil
}

// MarkReportEligible adds the order to the export subset. It returns false when the
// order was already listed or its status does not qualify.
func (l *Ledger) MarkReportEligible(id string) bool {
	order, ok := l.byID[id]
	if !ok || !order.Status.ReportEligible() {
		return false
	}
	if _, seen := l.listed[id]; seen {
		return false
	}

	l.listed[id] = struct{}{}
	l.reports = append(l.reports, id)
	return true
}

// ReportEligible reports whether the order is in the export subset.
func (l *Ledger) ReportEligible(id string) bool {
	_, ok := l.listed[id]
	return ok
}

// List returns copies of all orders, most recent first.
func (l *Ledger) List() []models.Order {
	out := make([]models.Order, 0, len(l.orders))
	for _, order := range l.orders {
		out = append(out, order.Clone())
	}
	return out
}

// Reports returns copies of the export subset in the order entries were added.
func (l *Ledger) Reports() []models.Order {
	out := make([]models.Order, 0, len(l.reports))
	for _, id := range l.reports {
		out = append(out, l.byID[id].Clone())
	}
	return out
}

// TotalSpend sums order totals, excluding declined orders.
func (l *Ledger) TotalSpend() decimal.Decimal {
	total := decimal.Zero
	for _, order := range l.orders {
		if order.Status == models.StatusDeclined {
			continue
		}
		total = total.Add(order.Total)
	}
	return total
}

// CountByStatus tallies orders per status.
func (l *Ledger) CountByStatus() map[models.OrderStatus]int {
	counts := make(map[models.OrderStatus]int)
	for _, order := range l.orders {
		counts[order.Status]++
	}
	return counts
}

// Summary aggregates the ledger for the reports view.
func (l *Ledger) Summary() models.SpendSummary {
	counts := l.CountByStatus()
	return models.SpendSummary{
		TotalOrders:      len(l.orders),
		TotalSpend:       l.TotalSpend(),
		PendingApprovals: counts[models.StatusPendingApproval],
		ByStatus:         counts,
	}
}
