package procurement

import (
	"math"
	"math/rand"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mamadbah2/hamma/internal/domain/models"
)

func item(id, price string) models.LineItem {
	return models.LineItem{ID: id, Name: "Item " + id, UnitPrice: decimal.RequireFromString(price)}
}

func TestCart_AccumulateMergesByID(t *testing.T) {
	cart := NewCart()
	cart.Add(item("A", "1.00"), 5, ModeAccumulate)
	cart.Add(item("A", "1.00"), 3, ModeAccumulate)

	items := cart.Items()
	require.Len(t, items, 1)
	assert.Equal(t, 8, items[0].Quantity)
}

func TestCart_ReplaceOverwritesQuantity(t *testing.T) {
	cart := NewCart()
	cart.Add(item("A", "1.00"), 5, ModeAccumulate)
	cart.Add(item("A", "1.00"), 2, ModeReplace)

	items := cart.Items()
	require.Len(t, items, 1)
	assert.Equal(t, 2, items[0].Quantity)
}

func TestCart_NonPositiveQuantity(t *testing.T) {
	tests := []struct {
		name string
		mode AddMode
		qty  int
		want int
	}{
		{name: "accumulate zero is a no-op", mode: ModeAccumulate, qty: 0, want: 1},
		{name: "accumulate negative is a no-op", mode: ModeAccumulate, qty: -4, want: 1},
		{name: "replace zero removes", mode: ModeReplace, qty: 0, want: 0},
		{name: "replace negative removes", mode: ModeReplace, qty: -1, want: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cart := NewCart()
			cart.Add(item("A", "1.00"), 5, ModeAccumulate)
			cart.Add(item("A", "1.00"), tt.qty, tt.mode)
			assert.Equal(t, tt.want, cart.Len())
		})
	}
}

func TestCart_SetQuantityZeroRemoves(t *testing.T) {
	cart := NewCart()
	cart.Add(item("A", "1.00"), 5, ModeAccumulate)
	cart.Add(item("B", "1.00"), 1, ModeAccumulate)

	cart.SetQuantity(item("A", "1.00"), 0)

	for _, it := range cart.Items() {
		assert.NotEqual(t, "A", it.ID)
	}
	assert.Equal(t, 1, cart.Len())
}

func TestCart_SetQuantityInserts(t *testing.T) {
	cart := NewCart()
	cart.SetQuantity(item("A", "2.50"), 4)

	require.Equal(t, 1, cart.Len())
	assert.True(t, cart.Total().Equal(decimal.RequireFromString("10")))
}

func TestCart_RemoveIsIdempotent(t *testing.T) {
	cart := NewCart()
	cart.Add(item("A", "1.00"), 1, ModeAccumulate)

	cart.Remove("missing")
	cart.Remove("A")
	cart.Remove("A")

	assert.Equal(t, 0, cart.Len())
}

func TestCart_TotalIsNotRoundedInternally(t *testing.T) {
	cart := NewCart()
	assert.True(t, cart.Total().IsZero())

	cart.Add(item("A", "0.333"), 3, ModeAccumulate)
	cart.Add(item("B", "0.001"), 1, ModeAccumulate)

	assert.Equal(t, "1", cart.Total().String())
}

func TestCart_InsertionOrderPreserved(t *testing.T) {
	cart := NewCart()
	for _, id := range []string{"C", "A", "B"} {
		cart.Add(item(id, "1"), 1, ModeAccumulate)
	}
	cart.Add(item("A", "1"), 1, ModeAccumulate)

	var ids []string
	for _, it := range cart.Items() {
		ids = append(ids, it.ID)
	}
	assert.Equal(t, []string{"C", "A", "B"}, ids)
}

func TestCart_NeverHoldsDuplicateIDs(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	ids := []string{"A", "B", "C", "D"}
	cart := NewCart()

	for range 2000 {
		it := item(ids[rng.Intn(len(ids))], "1")
		qty := rng.Intn(7) - 2
		switch rng.Intn(4) {
		case 0:
			cart.Add(it, qty, ModeAccumulate)
		case 1:
			cart.Add(it, qty, ModeReplace)
		case 2:
			cart.SetQuantity(it, qty)
		default:
			cart.Remove(it.ID)
		}

		seen := make(map[string]bool)
		for _, entry := range cart.Items() {
			require.False(t, seen[entry.ID], "duplicate id %s", entry.ID)
			require.Positive(t, entry.Quantity)
			seen[entry.ID] = true
		}
	}
}

func TestCart_ItemsReturnsCopy(t *testing.T) {
	cart := NewCart()
	cart.Add(item("A", "1"), 1, ModeAccumulate)

	items := cart.Items()
	items[0].Quantity = 99

	assert.Equal(t, 1, cart.Items()[0].Quantity)
}

func TestCart_RejectsInvalidItems(t *testing.T) {
	negativeStock := item("S", "1")
	negativeStock.StockAvailable = -3
	negativeLead := item("L", "1")
	negativeLead.LeadTimeDays = -2

	tests := []struct {
		name string
		item models.LineItem
	}{
		{name: "negative price", item: item("N", "-900")},
		{name: "negative stock", item: negativeStock},
		{name: "negative lead time", item: negativeLead},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cart := NewCart()
			require.NoError(t, cart.Add(item("A", "1000"), 1, ModeAccumulate))

			assert.ErrorIs(t, cart.Add(tt.item, 1, ModeAccumulate), models.ErrInvalidInput)
			assert.ErrorIs(t, cart.SetQuantity(tt.item, 1), models.ErrInvalidInput)

			assert.Equal(t, 1, cart.Len())
			assert.True(t, cart.Total().Equal(decimal.NewFromInt(1000)))
		})
	}
}

func TestCart_QuantityIsCapped(t *testing.T) {
	cart := NewCart()
	require.NoError(t, cart.Add(item("A", "1"), models.MaxLineQuantity-1, ModeAccumulate))

	err := cart.Add(item("A", "1"), math.MaxInt, ModeAccumulate)
	require.ErrorIs(t, err, models.ErrInvalidInput)
	assert.Equal(t, models.MaxLineQuantity-1, cart.Items()[0].Quantity)

	require.NoError(t, cart.Add(item("A", "1"), 1, ModeAccumulate))
	assert.Equal(t, models.MaxLineQuantity, cart.Items()[0].Quantity)

	assert.ErrorIs(t, cart.Add(item("A", "1"), 1, ModeAccumulate), models.ErrInvalidInput)
	assert.ErrorIs(t, cart.SetQuantity(item("B", "1"), models.MaxLineQuantity+1), models.ErrInvalidInput)
	assert.Equal(t, 1, cart.Len())
}

func TestParseAddMode(t *testing.T) {
	mode, err := ParseAddMode("")
	require.NoError(t, err)
	assert.Equal(t, ModeAccumulate, mode)

	mode, err = ParseAddMode("Replace")
	require.NoError(t, err)
	assert.Equal(t, ModeReplace, mode)

	_, err = ParseAddMode("double")
	assert.Error(t, err)
}
