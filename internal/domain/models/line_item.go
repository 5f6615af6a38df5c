package models

import (
	"fmt"

	"github.com/shopspring/decimal"
)

const (
	// DefaultLeadTimeDays is applied when a catalog record carries no lead time.
	DefaultLeadTimeDays = 7
	// MaxLineQuantity caps the quantity of a single cart entry.
	MaxLineQuantity = 1_000_000
)

// StockStatus summarizes warehouse availability for a line item.
type StockStatus string

const (
	StockInStock StockStatus = "in_stock"
	StockLow     StockStatus = "low_stock"
	StockOrder   StockStatus = "order"
)

// LineItem is the canonical product line shared by recommendations, carts and orders.
type LineItem struct {
	ID             string          `json:"id"`
	Name           string          `json:"name"`
	Description    string          `json:"description,omitempty"`
	UnitPrice      decimal.Decimal `json:"unit_price"`
	Quantity       int             `json:"quantity"`
	Category       string          `json:"category"`
	Supplier       string          `json:"supplier"`
	Preferred      bool            `json:"preferred"`
	LeadTimeDays   int             `json:"lead_time_days"`
	StockAvailable int             `json:"stock_available"`
	StockNeeded    int             `json:"stock_needed"`
}

// Subtotal returns unit price times quantity without rounding.
func (i LineItem) Subtotal() decimal.Decimal {
	return i.UnitPrice.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

// Validate rejects items carrying negative prices, stock figures or lead times.
func (i LineItem) Validate() error {
	switch {
	case i.UnitPrice.IsNegative():
		return fmt.Errorf("item %s: unit price %s is negative: %w", i.ID, i.UnitPrice, ErrInvalidInput)
	case i.StockAvailable < 0, i.StockNeeded < 0:
		return fmt.Errorf("item %s: stock figures must not be negative: %w", i.ID, ErrInvalidInput)
	case i.LeadTimeDays < 0:
		return fmt.Errorf("item %s: lead time must not be negative: %w", i.ID, ErrInvalidInput)
	}
	return nil
}

// StockStatus reports whether the requested quantity is covered by current stock.
func (i LineItem) StockStatus() StockStatus {
	switch {
	case i.StockAvailable >= i.Quantity:
		return StockInStock
	case i.StockAvailable > 0:
		return StockLow
	default:
		return StockOrder
	}
}

// SumSubtotals adds up the unrounded subtotals of the given items.
func SumSubtotals(items []LineItem) decimal.Decimal {
	total := decimal.Zero
	for _, item := range items {
		total = total.Add(item.Subtotal())
	}
	return total
}
