package contract

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/mamadbah2/hamma/internal/domain/models"
)

const title = "Supply Contract"

// DefaultPaymentTerms is the boilerplate printed under the totals.
const DefaultPaymentTerms = "Net 30 days from invoice date. Delivery within 5 working days after order confirmation."

var (
	headers   = []string{"Product ID", "Name", "Quantity", "Unit Price", "Line Total"}
	tolerance = decimal.New(1, -2)
)

// Terms holds the fixed parties and boilerplate of every contract.
type Terms struct {
	Sender       models.ContractParty
	Recipient    models.ContractParty
	PaymentTerms string
	Currency     string
}

// Renderer turns a contract document into its binary form.
type Renderer interface {
	RenderContract(ctx context.Context, doc models.ContractDocument) ([]byte, error)
}

// Exporter builds supply contracts for approved orders.
type Exporter struct {
	terms    Terms
	renderer Renderer
	logger   *zap.Logger
	now      func() time.Time
}

// NewExporter wires an exporter. renderer may be nil when only documents are needed.
func NewExporter(terms Terms, renderer Renderer, logger *zap.Logger) *Exporter {
	if logger == nil {
		logger = zap.NewNop()
	}
	if terms.PaymentTerms == "" {
		terms.PaymentTerms = DefaultPaymentTerms
	}
	return &Exporter{terms: terms, renderer: renderer, logger: logger, now: time.Now}
}

// Build creates the document for an auto- or admin-approved order. Rows keep the
// order's item sequence. The grand total must match the stored order total within one
// cent, otherwise models.ErrConsistency is returned and nothing is exported.
func (e *Exporter) Build(order models.Order) (models.ContractDocument, error) {
	if !order.Status.ReportEligible() {
		return models.ContractDocument{}, fmt.Errorf("order %s in status %q: %w", order.ID, order.Status, models.ErrNotReportEligible)
	}

	rows := make([]models.ContractRow, 0, len(order.Items))
	grand := decimal.Zero
	for _, item := range order.Items {
		lineTotal := item.Subtotal()
		rows = append(rows, models.ContractRow{
			ProductID:   item.ID,
			Name:        item.Name,
			Description: item.Description,
			Supplier:    item.Supplier,
			Quantity:    item.Quantity,
			UnitPrice:   item.UnitPrice,
			LineTotal:   lineTotal,
		})
		grand = grand.Add(lineTotal)
	}

	if grand.Sub(order.Total).Abs().GreaterThan(tolerance) {
		e.logger.Error("contract total diverges from order total",
			zap.String("order_id", order.ID),
			zap.String("order_total", order.Total.String()),
			zap.String("contract_total", grand.String()))
		return models.ContractDocument{}, fmt.Errorf("order %s: stored %s, computed %s: %w",
			order.ID, order.Total.StringFixed(2), grand.StringFixed(2), models.ErrConsistency)
	}

	digest, err := digestOf(order.ID, rows, grand, e.terms.Currency)
	if err != nil {
		return models.ContractDocument{}, fmt.Errorf("digest contract %s: %w", order.ID, err)
	}

	return models.ContractDocument{
		OrderID:      order.ID,
		Title:        title,
		Date:         e.now().UTC(),
		Sender:       e.terms.Sender,
		Recipient:    e.terms.Recipient,
		Headers:      append([]string(nil), headers...),
		Rows:         rows,
		GrandTotal:   grand,
		Currency:     e.terms.Currency,
		PaymentTerms: e.terms.PaymentTerms,
		Signatures: []models.SignatureBlock{
			{Role: "Supplier", Name: e.terms.Recipient.Name},
			{Role: "Customer", Name: e.terms.Sender.Name},
		},
		Digest: digest,
	}, nil
}

// Export builds the document and hands it to the renderer.
func (e *Exporter) Export(ctx context.Context, order models.Order) ([]byte, models.ContractDocument, error) {
	doc, err := e.Build(order)
	if err != nil {
		return nil, models.ContractDocument{}, err
	}
	if e.renderer == nil {
		return nil, doc, fmt.Errorf("render contract %s: no renderer configured: %w", order.ID, models.ErrBackendUnavailable)
	}

	rendered, err := e.renderer.RenderContract(ctx, doc)
	if err != nil {
		return nil, doc, fmt.Errorf("render contract %s: %w", order.ID, err)
	}

	e.logger.Info("contract rendered",
		zap.String("order_id", order.ID),
		zap.String("digest", doc.Digest),
		zap.Int("bytes", len(rendered)))
	return rendered, doc, nil
}

// digestOf hashes the parts of the document that derive from the order, so two builds
// of the same order always agree.
func digestOf(orderID string, rows []models.ContractRow, grand decimal.Decimal, currency string) (string, error) {
	b, err := json.Marshal(struct {
		OrderID    string               `json:"order_id"`
		Rows       []models.ContractRow `json:"rows"`
		GrandTotal decimal.Decimal      `json:"grand_total"`
		Currency   string               `json:"currency"`
	}{orderID, rows, grand, currency})
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(b)
	return "sha256:" + hex.EncodeToString(sum[:]), nil
}
