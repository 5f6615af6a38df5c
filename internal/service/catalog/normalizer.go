package catalog

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/xeipuuv/gojsonschema"
	"go.uber.org/zap"

	"github.com/mamadbah2/hamma/internal/domain/models"
)

// Only the top-level shape is enforced here. Individual records are checked one by one
// so that a single bad record never sinks the batch.
const recordsSchema = `{"type": "array"}`

var recordsLoader = gojsonschema.NewStringLoader(recordsSchema)

// FieldMap lists, for every canonical field, the vendor keys consulted in order.
// The first key present with a non-null value wins.
type FieldMap struct {
	ID             []string
	Name           []string
	Description    []string
	Quantity       []string
	UnitPrice      []string
	Category       []string
	Supplier       []string
	StockAvailable []string
	StockNeeded    []string
	Preferred      []string
	LeadTimeDays   []string
}

// DefaultFieldMap covers the inventory backend (German keys) and plain English payloads.
var DefaultFieldMap = FieldMap{
	ID:             []string{"artikel_id", "id"},
	Name:           []string{"artikelname", "name"},
	Description:    []string{"beschreibung", "description"},
	Quantity:       []string{"anzahl", "quantity", "qty"},
	UnitPrice:      []string{"preis_stk", "unit_price", "price"},
	Category:       []string{"kategorie", "category"},
	Supplier:       []string{"lieferant", "supplier"},
	StockAvailable: []string{"lagerbestand", "stock_available"},
	StockNeeded:    []string{"needs_order", "stock_needed"},
	Preferred:      []string{"is_preferred", "preferred"},
	LeadTimeDays:   []string{"lead_time_days"},
}

// Normalizer turns loosely typed recommendation records into canonical line items.
type Normalizer struct {
	fields FieldMap
	logger *zap.Logger
}

// NewNormalizer builds a normalizer for the given field map.
func NewNormalizer(fields FieldMap, logger *zap.Logger) *Normalizer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Normalizer{fields: fields, logger: logger}
}

// Normalize converts a JSON array of records. A payload that is not an array fails with
// models.ErrMalformedResponse; records that are not objects or carry no identifier are
// dropped, and missing or wrong-typed fields fall back to their defaults.
func (n *Normalizer) Normalize(payload []byte) ([]models.LineItem, error) {
	if err := validateShape(payload); err != nil {
		return nil, err
	}

	dec := json.NewDecoder(bytes.NewReader(payload))
	dec.UseNumber()

	var records []any
	if err := dec.Decode(&records); err != nil {
		return nil, fmt.Errorf("%w: decode records: %v", models.ErrMalformedResponse, err)
	}

	items := make([]models.LineItem, 0, len(records))
	for idx, record := range records {
		fields, ok := record.(map[string]any)
		if !ok {
			n.logger.Debug("drop non-object record", zap.Int("index", idx))
			continue
		}

		item, ok := n.lineItem(fields)
		if !ok {
			n.logger.Debug("drop record without identifier", zap.Int("index", idx))
			continue
		}
		items = append(items, item)
	}

	return items, nil
}

func (n *Normalizer) lineItem(fields map[string]any) (models.LineItem, bool) {
	id := stringField(fields, n.fields.ID)
	if id == "" {
		return models.LineItem{}, false
	}

	quantity := intField(fields, n.fields.Quantity, 0)
	name := stringField(fields, n.fields.Name)
	if name == "" {
		name = id
	}

	return models.LineItem{
		ID:             id,
		Name:           name,
		Description:    stringField(fields, n.fields.Description),
		UnitPrice:      decimalField(fields, n.fields.UnitPrice),
		Quantity:       quantity,
		Category:       stringField(fields, n.fields.Category),
		Supplier:       stringField(fields, n.fields.Supplier),
		Preferred:      boolField(fields, n.fields.Preferred),
		LeadTimeDays:   intField(fields, n.fields.LeadTimeDays, models.DefaultLeadTimeDays),
		StockAvailable: intField(fields, n.fields.StockAvailable, 0),
		StockNeeded:    intField(fields, n.fields.StockNeeded, quantity),
	}, true
}

func validateShape(payload []byte) error {
	if len(bytes.TrimSpace(payload)) == 0 {
		return fmt.Errorf("%w: empty payload", models.ErrMalformedResponse)
	}

	result, err := gojsonschema.Validate(recordsLoader, gojsonschema.NewBytesLoader(payload))
	if err != nil {
		return fmt.Errorf("%w: %v", models.ErrMalformedResponse, err)
	}
	if !result.Valid() {
		var sb strings.Builder
		for _, e := range result.Errors() {
			sb.WriteString(e.String())
			sb.WriteString("; ")
		}
		return fmt.Errorf("%w: %s", models.ErrMalformedResponse, sb.String())
	}
	return nil
}

func lookup(fields map[string]any, keys []string) (any, bool) {
	for _, key := range keys {
		if value, ok := fields[key]; ok && value != nil {
			return value, true
		}
	}
	return nil, false
}

func stringField(fields map[string]any, keys []string) string {
	value, ok := lookup(fields, keys)
	if !ok {
		return ""
	}

	switch v := value.(type) {
	case string:
		return strings.TrimSpace(v)
	case json.Number:
		return v.String()
	default:
		return ""
	}
}

// decimalField never returns a negative price; anything unparseable becomes zero.
func decimalField(fields map[string]any, keys []string) decimal.Decimal {
	value, ok := lookup(fields, keys)
	if !ok {
		return decimal.Zero
	}

	var (
		d   decimal.Decimal
		err error
	)
	switch v := value.(type) {
	case json.Number:
		d, err = decimal.NewFromString(v.String())
	case string:
		d, err = decimal.NewFromString(strings.TrimSpace(v))
	default:
		return decimal.Zero
	}
	if err != nil || d.IsNegative() {
		return decimal.Zero
	}
	return d
}

// intField truncates fractional counts and clamps negatives to zero. Absent or
// wrong-typed values resolve to fallback.
func intField(fields map[string]any, keys []string, fallback int) int {
	value, ok := lookup(fields, keys)
	if !ok {
		return fallback
	}

	var f float64
	switch v := value.(type) {
	case json.Number:
		parsed, err := v.Float64()
		if err != nil {
			return fallback
		}
		f = parsed
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			return fallback
		}
		f = parsed
	default:
		return fallback
	}

	if math.IsNaN(f) || f <= 0 {
		return 0
	}
	if f > math.MaxInt32 {
		return math.MaxInt32
	}
	return int(f)
}

func boolField(fields map[string]any, keys []string) bool {
	value, ok := lookup(fields, keys)
	if !ok {
		return false
	}

	switch v := value.(type) {
	case bool:
		return v
	case string:
		parsed, err := strconv.ParseBool(strings.TrimSpace(v))
		return err == nil && parsed
	case json.Number:
		f, err := v.Float64()
		return err == nil && f != 0
	default:
		return false
	}
}
