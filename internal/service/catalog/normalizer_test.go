package catalog

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mamadbah2/hamma/internal/domain/models"
)

func TestNormalize_InventoryPayload(t *testing.T) {
	payload := []byte(`[
		{"artikel_id": "C001", "artikelname": "Schraube TX20 4x40", "anzahl": 50, "preis_stk": 0.08,
		 "kategorie": "Befestigung", "lieferant": "Würth", "lagerbestand": 20, "needs_order": 30,
		 "is_preferred": true, "lead_time_days": 3}
	]`)

	items, err := NewNormalizer(DefaultFieldMap, nil).Normalize(payload)
	require.NoError(t, err)
	require.Len(t, items, 1)

	item := items[0]
	assert.Equal(t, "C001", item.ID)
	assert.Equal(t, "Schraube TX20 4x40", item.Name)
	assert.Equal(t, 50, item.Quantity)
	assert.True(t, item.UnitPrice.Equal(decimal.RequireFromString("0.08")))
	assert.Equal(t, "Befestigung", item.Category)
	assert.Equal(t, "Würth", item.Supplier)
	assert.Equal(t, 20, item.StockAvailable)
	assert.Equal(t, 30, item.StockNeeded)
	assert.True(t, item.Preferred)
	assert.Equal(t, 3, item.LeadTimeDays)
	assert.Equal(t, models.StockLow, item.StockStatus())
}

func TestNormalize_Defaults(t *testing.T) {
	payload := []byte(`[{"id": "A", "quantity": 4}]`)

	items, err := NewNormalizer(DefaultFieldMap, nil).Normalize(payload)
	require.NoError(t, err)
	require.Len(t, items, 1)

	item := items[0]
	assert.Equal(t, "A", item.Name, "name falls back to id")
	assert.True(t, item.UnitPrice.IsZero())
	assert.Equal(t, 4, item.StockNeeded, "stock needed falls back to quantity")
	assert.Equal(t, models.DefaultLeadTimeDays, item.LeadTimeDays)
	assert.False(t, item.Preferred)
	assert.Equal(t, models.StockOrder, item.StockStatus())
}

func TestNormalize_BadRecordsDoNotSinkBatch(t *testing.T) {
	payload := []byte(`[
		"not a record",
		{"artikelname": "no id"},
		{"artikel_id": "B", "anzahl": "three", "preis_stk": "abc", "lead_time_days": "soon"},
		{"artikel_id": "C", "anzahl": -5, "preis_stk": -1.5, "lagerbestand": "12"},
		{"artikel_id": "D", "anzahl": 2.9, "preis_stk": "1.25", "is_preferred": "true"}
	]`)

	items, err := NewNormalizer(DefaultFieldMap, nil).Normalize(payload)
	require.NoError(t, err)
	require.Len(t, items, 3)

	assert.Equal(t, "B", items[0].ID)
	assert.Equal(t, 0, items[0].Quantity)
	assert.True(t, items[0].UnitPrice.IsZero())
	assert.Equal(t, models.DefaultLeadTimeDays, items[0].LeadTimeDays)

	assert.Equal(t, "C", items[1].ID)
	assert.Equal(t, 0, items[1].Quantity)
	assert.True(t, items[1].UnitPrice.IsZero())
	assert.Equal(t, 12, items[1].StockAvailable)

	assert.Equal(t, "D", items[2].ID)
	assert.Equal(t, 2, items[2].Quantity)
	assert.True(t, items[2].UnitPrice.Equal(decimal.RequireFromString("1.25")))
	assert.True(t, items[2].Preferred)
}

func TestNormalize_MalformedTopLevel(t *testing.T) {
	tests := []struct {
		name    string
		payload string
	}{
		{name: "object", payload: `{"items": []}`},
		{name: "null", payload: `null`},
		{name: "empty", payload: ``},
		{name: "garbage", payload: `[{"artikel_id": `},
		{name: "string", payload: `"C001"`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			items, err := NewNormalizer(DefaultFieldMap, nil).Normalize([]byte(tt.payload))
			require.ErrorIs(t, err, models.ErrMalformedResponse)
			assert.Nil(t, items)
		})
	}
}

func TestNormalize_EmptyArray(t *testing.T) {
	items, err := NewNormalizer(DefaultFieldMap, nil).Normalize([]byte(`[]`))
	require.NoError(t, err)
	assert.Empty(t, items)
}

func TestNormalize_PricePrecisionPreserved(t *testing.T) {
	items, err := NewNormalizer(DefaultFieldMap, nil).Normalize([]byte(`[{"id": "P", "price": 0.1, "qty": 3}]`))
	require.NoError(t, err)
	require.Len(t, items, 1)

	assert.Equal(t, "0.3", items[0].Subtotal().String())
}
