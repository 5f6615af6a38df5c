package procurement

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/mamadbah2/hamma/internal/domain/models"
)

// AddMode selects how Add treats an item already in the cart.
type AddMode int

const (
	// ModeAccumulate adds the quantity to the existing entry.
	ModeAccumulate AddMode = iota
	// ModeReplace overwrites the existing quantity.
	ModeReplace
)

// ParseAddMode maps the wire names "accumulate" and "replace". Empty means accumulate.
func ParseAddMode(value string) (AddMode, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "", "accumulate", "add":
		return ModeAccumulate, nil
	case "replace", "set":
		return ModeReplace, nil
	default:
		return ModeAccumulate, fmt.Errorf("unknown add mode %q: %w", value, models.ErrInvalidInput)
	}
}

// Cart holds line items keyed by ID in insertion order. It is not safe for concurrent
// use; Session serializes access.
type Cart struct {
	items []models.LineItem
}

// NewCart returns an empty cart.
func NewCart() *Cart {
	return &Cart{}
}

// Add inserts item with quantity qty, or updates the existing entry sharing its ID.
// A non-positive qty removes the entry in replace mode and is ignored otherwise.
// Items failing validation, or quantities above models.MaxLineQuantity, are rejected
// with models.ErrInvalidInput and leave the cart unchanged.
func (c *Cart) Add(item models.LineItem, qty int, mode AddMode) error {
	if qty <= 0 {
		if mode == ModeReplace {
			c.Remove(item.ID)
		}
		return nil
	}
	if err := item.Validate(); err != nil {
		return err
	}

	i := c.index(item.ID)
	want := qty
	if i >= 0 && mode == ModeAccumulate {
		if qty > models.MaxLineQuantity-c.items[i].Quantity {
			return fmt.Errorf("item %s: quantity above %d: %w", item.ID, models.MaxLineQuantity, models.ErrInvalidInput)
		}
		want = c.items[i].Quantity + qty
	}
	if want > models.MaxLineQuantity {
		return fmt.Errorf("item %s: quantity above %d: %w", item.ID, models.MaxLineQuantity, models.ErrInvalidInput)
	}

	if i >= 0 {
		c.items[i].Quantity = want
		return nil
	}

	item.Quantity = want
	c.items = append(c.items, item)
	return nil
}

// SetQuantity sets the exact quantity, removing the entry when qty is not positive.
func (c *Cart) SetQuantity(item models.LineItem, qty int) error {
	if qty <= 0 {
		c.Remove(item.ID)
		return nil
	}
	return c.Add(item, qty, ModeReplace)
}

// Remove deletes the entry with the given ID. Absent IDs are ignored.
func (c *Cart) Remove(id string) {
	i := c.index(id)
	if i < 0 {
		return
	}
	c.items = append(c.items[:i], c.items[i+1:]...)
}

// Total is the unrounded sum of unit price times quantity.
func (c *Cart) Total() decimal.Decimal {
	return models.SumSubtotals(c.items)
}

// Items returns a copy of the entries in insertion order.
func (c *Cart) Items() []models.LineItem {
	return append([]models.LineItem(nil), c.items...)
}

// Len returns the number of distinct entries.
func (c *Cart) Len() int {
	return len(c.items)
}

// Clear empties the cart.
func (c *Cart) Clear() {
	c.items = nil
}

func (c *Cart) index(id string) int {
	for i := range c.items {
		if c.items[i].ID == id {
			return i
		}
	}
	return -1
}
