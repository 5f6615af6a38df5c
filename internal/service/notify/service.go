package notify

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/mamadbah2/hamma/internal/domain/models"
	client "github.com/mamadbah2/hamma/pkg/clients/whatsapp"
)

const sendTimeout = 10 * time.Second

// ApprovalNotifier tells the approver about orders that went through the approval
// branch. Auto-approved orders are not reported.
type ApprovalNotifier struct {
	client     client.Client
	approverID string
	currency   string
	logger     *zap.Logger
}

// NewApprovalNotifier wires a notifier sending to approverID.
func NewApprovalNotifier(c client.Client, approverID, currency string, logger *zap.Logger) *ApprovalNotifier {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ApprovalNotifier{
		client:     c,
		approverID: approverID,
		currency:   currency,
		logger:     logger,
	}
}

// OrderCommitted implements procurement.OrderObserver.
func (n *ApprovalNotifier) OrderCommitted(ctx context.Context, sessionID string, order models.Order) error {
	if order.Status == models.StatusAutoApproved {
		return nil
	}
	return n.SendOutbound(ctx, n.approverID, n.commitMessage(order))
}

// OrderStatusChanged implements procurement.OrderObserver.
func (n *ApprovalNotifier) OrderStatusChanged(ctx context.Context, sessionID string, order models.Order, previous models.OrderStatus) error {
	body := fmt.Sprintf("Order %s: %s -> %s (%s %s)",
		order.ID, previous, order.Status, order.Total.StringFixed(2), n.currency)
	return n.SendOutbound(ctx, n.approverID, body)
}

// SendOutbound pushes a text message to a recipient.
func (n *ApprovalNotifier) SendOutbound(ctx context.Context, to, body string) error {
	ctxWithTimeout, cancel := context.WithTimeout(ctx, sendTimeout)
	defer cancel()

	_, err := n.client.SendTextMessage(ctxWithTimeout, client.SendTextMessageRequest{
		To:   to,
		Body: body,
	})
	if err != nil {
		return fmt.Errorf("notify %s: %w", to, err)
	}

	n.logger.Debug("notification sent", zap.String("to", to))
	return nil
}

func (n *ApprovalNotifier) commitMessage(order models.Order) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Order %s by %s: %s\n", order.ID, order.Requester, order.Status)
	fmt.Fprintf(&b, "Total: %s %s\n", order.Total.StringFixed(2), n.currency)
	for _, item := range order.Items {
		fmt.Fprintf(&b, "- %d x %s (%s)\n", item.Quantity, item.Name, item.ID)
	}
	if order.Status == models.StatusDeclined {
		b.WriteString("Re-approve from the orders view if this was a mistake.")
	}
	return strings.TrimRight(b.String(), "\n")
}
