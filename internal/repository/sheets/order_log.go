package sheets

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/mamadbah2/hamma/internal/domain/models"
)

// OrderLogRange is where order log rows live.
const OrderLogRange = "Orders!A:G"

// Column positions of an order log row.
const (
	ColTimestamp = iota
	ColOrderID
	ColSession
	ColRequester
	ColStatus
	ColTotal
	ColItems
)

// OrderLogHeader is the first row of the order log.
var OrderLogHeader = []interface{}{"timestamp", "order_id", "session_id", "requester", "status", "total", "items"}

// OrderLog appends one row per commit and per status change. The latest row of an order
// id carries its current status.
type OrderLog struct {
	repo   Repository
	logger *zap.Logger
	now    func() time.Time
}

// NewOrderLog wires an order log on top of a sheet repository.
func NewOrderLog(repo Repository, logger *zap.Logger) *OrderLog {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &OrderLog{repo: repo, logger: logger, now: time.Now}
}

// EnsureHeader writes the header row when the log is empty.
func (l *OrderLog) EnsureHeader(ctx context.Context) error {
	rows, err := l.repo.ReadRange(ctx, OrderLogRange)
	if err != nil {
		return err
	}
	if len(rows) > 0 {
		return nil
	}
	return l.repo.WriteRow(ctx, OrderLogRange, OrderLogHeader)
}

// OrderCommitted implements procurement.OrderObserver.
func (l *OrderLog) OrderCommitted(ctx context.Context, sessionID string, order models.Order) error {
	return l.append(ctx, order.CreatedAt, sessionID, order)
}

// OrderStatusChanged implements procurement.OrderObserver.
func (l *OrderLog) OrderStatusChanged(ctx context.Context, sessionID string, order models.Order, _ models.OrderStatus) error {
	return l.append(ctx, l.now(), sessionID, order)
}

func (l *OrderLog) append(ctx context.Context, at time.Time, sessionID string, order models.Order) error {
	row := []interface{}{
		at.UTC().Format(time.RFC3339),
		order.ID,
		sessionID,
		order.Requester,
		string(order.Status),
		order.Total.StringFixed(2),
		len(order.Items),
	}
	if err := l.repo.WriteRow(ctx, OrderLogRange, row); err != nil {
		return fmt.Errorf("log order %s: %w", order.ID, err)
	}
	l.logger.Debug("order logged", zap.String("order_id", order.ID), zap.String("status", string(order.Status)))
	return nil
}
