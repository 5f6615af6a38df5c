package procurement

import (
	"context"

	"github.com/mamadbah2/hamma/internal/domain/models"
)

// OrderObserver receives ledger changes after they are applied. Observers run
// synchronously outside the session lock; an error is logged and never rolls back the
// ledger.
type OrderObserver interface {
	OrderCommitted(ctx context.Context, sessionID string, order models.Order) error
	OrderStatusChanged(ctx context.Context, sessionID string, order models.Order, previous models.OrderStatus) error
}
