package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// OrderStatus enumerates the lifecycle states of a committed order.
type OrderStatus string

const (
	StatusAutoApproved    OrderStatus = "Auto-Approved"
	StatusPendingApproval OrderStatus = "Pending Approval"
	StatusAdminApproved   OrderStatus = "Admin Approved"
	StatusDeclined        OrderStatus = "Order Declined"
)

// ReportEligible reports whether orders in this status may be exported as contracts.
func (s OrderStatus) ReportEligible() bool {
	return s == StatusAutoApproved || s == StatusAdminApproved
}

// Order is the snapshot of a cart taken at commit time. Items and Total never change
// after creation; only Status moves.
type Order struct {
	ID        string          `json:"order_id"`
	CreatedAt time.Time       `json:"created_at"`
	Requester string          `json:"requester"`
	Total     decimal.Decimal `json:"total"`
	Status    OrderStatus     `json:"status"`
	Items     []LineItem      `json:"items"`
}

// Clone returns a copy that shares no item storage with the receiver.
func (o Order) Clone() Order {
	out := o
	out.Items = append([]LineItem(nil), o.Items...)
	return out
}

// SpendSummary aggregates a ledger for the reports view.
type SpendSummary struct {
	TotalOrders      int                 `json:"total_orders"`
	TotalSpend       decimal.Decimal     `json:"total_spend"`
	PendingApprovals int                 `json:"pending_approvals"`
	ByStatus         map[OrderStatus]int `json:"by_status"`
}
