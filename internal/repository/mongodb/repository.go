package mongodb

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"

	"github.com/mamadbah2/hamma/internal/domain/models"
)

const ordersCollection = "orders"

// OrderDocument is the archived form of an order. Order IDs are unique per session
// only, so documents are keyed by session and order ID together. Money is stored as
// decimal strings so nothing is lost to floating point.
type OrderDocument struct {
	OrderID        string         `bson:"order_id"`
	SessionID      string         `bson:"session_id"`
	Requester      string         `bson:"requester"`
	Status         string         `bson:"status"`
	PreviousStatus string         `bson:"previous_status,omitempty"`
	Total          string         `bson:"total"`
	Items          []ItemDocument `bson:"items"`
	CreatedAt      time.Time      `bson:"created_at"`
	UpdatedAt      time.Time      `bson:"updated_at"`
}

// ItemDocument is one archived line item. Subtotal is derived and only kept for
// queries on the archive.
type ItemDocument struct {
	ID             string `bson:"id"`
	Name           string `bson:"name"`
	Description    string `bson:"description,omitempty"`
	Category       string `bson:"category,omitempty"`
	Supplier       string `bson:"supplier,omitempty"`
	Quantity       int    `bson:"quantity"`
	UnitPrice      string `bson:"unit_price"`
	Subtotal       string `bson:"subtotal"`
	Preferred      bool   `bson:"preferred"`
	LeadTimeDays   int    `bson:"lead_time_days"`
	StockAvailable int    `bson:"stock_available"`
	StockNeeded    int    `bson:"stock_needed"`
}

// NewOrderDocument converts an order for storage.
func NewOrderDocument(sessionID string, order models.Order, updatedAt time.Time) OrderDocument {
	doc := OrderDocument{
		OrderID:   order.ID,
		SessionID: sessionID,
		Requester: order.Requester,
		Status:    string(order.Status),
		Total:     order.Total.String(),
		Items:     make([]ItemDocument, 0, len(order.Items)),
		CreatedAt: order.CreatedAt.UTC(),
		UpdatedAt: updatedAt.UTC(),
	}
	for _, item := range order.Items {
		doc.Items = append(doc.Items, ItemDocument{
			ID:             item.ID,
			Name:           item.Name,
			Description:    item.Description,
			Category:       item.Category,
			Supplier:       item.Supplier,
			Quantity:       item.Quantity,
			UnitPrice:      item.UnitPrice.String(),
			Subtotal:       item.Subtotal().String(),
			Preferred:      item.Preferred,
			LeadTimeDays:   item.LeadTimeDays,
			StockAvailable: item.StockAvailable,
			StockNeeded:    item.StockNeeded,
		})
	}
	return doc
}

// Order converts an archived document back into the order it was built from.
func (d OrderDocument) Order() (models.Order, error) {
	total, err := decimal.NewFromString(d.Total)
	if err != nil {
		return models.Order{}, fmt.Errorf("order %s: invalid total %q: %w", d.OrderID, d.Total, err)
	}

	order := models.Order{
		ID:        d.OrderID,
		CreatedAt: d.CreatedAt,
		Requester: d.Requester,
		Total:     total,
		Status:    models.OrderStatus(d.Status),
		Items:     make([]models.LineItem, 0, len(d.Items)),
	}
	for _, item := range d.Items {
		price, err := decimal.NewFromString(item.UnitPrice)
		if err != nil {
			return models.Order{}, fmt.Errorf("order %s item %s: invalid unit price %q: %w", d.OrderID, item.ID, item.UnitPrice, err)
		}
		order.Items = append(order.Items, models.LineItem{
			ID:             item.ID,
			Name:           item.Name,
			Description:    item.Description,
			UnitPrice:      price,
			Quantity:       item.Quantity,
			Category:       item.Category,
			Supplier:       item.Supplier,
			Preferred:      item.Preferred,
			LeadTimeDays:   item.LeadTimeDays,
			StockAvailable: item.StockAvailable,
			StockNeeded:    item.StockNeeded,
		})
	}
	return order, nil
}

// MongoDBRepository archives orders. It is write-only from the service's point of view;
// the in-memory ledger stays authoritative.
type MongoDBRepository struct {
	client   *mongo.Client
	dbName   string
	collName string
	logger   *zap.Logger
	now      func() time.Time
}

// NewMongoDBRepository creates a new MongoDB repository.
func NewMongoDBRepository(ctx context.Context, uri string, dbName string, logger *zap.Logger) (*MongoDBRepository, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	clientOptions := options.Client().ApplyURI(uri)
	client, err := mongo.Connect(ctx, clientOptions)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to mongodb: %w", err)
	}

	if err := client.Ping(ctx, nil); err != nil {
		return nil, fmt.Errorf("failed to ping mongodb: %w", err)
	}

	return &MongoDBRepository{
		client:   client,
		dbName:   dbName,
		collName: ordersCollection,
		logger:   logger,
		now:      time.Now,
	}, nil
}

// OrderCommitted implements procurement.OrderObserver.
func (r *MongoDBRepository) OrderCommitted(ctx context.Context, sessionID string, order models.Order) error {
	return r.save(ctx, NewOrderDocument(sessionID, order, r.now()))
}

// OrderStatusChanged implements procurement.OrderObserver.
func (r *MongoDBRepository) OrderStatusChanged(ctx context.Context, sessionID string, order models.Order, previous models.OrderStatus) error {
	doc := NewOrderDocument(sessionID, order, r.now())
	doc.PreviousStatus = string(previous)
	return r.save(ctx, doc)
}

func (r *MongoDBRepository) save(ctx context.Context, doc OrderDocument) error {
	collection := r.client.Database(r.dbName).Collection(r.collName)
	filter := bson.M{"session_id": doc.SessionID, "order_id": doc.OrderID}
	_, err := collection.ReplaceOne(ctx, filter, doc, options.Replace().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("failed to upsert order %s: %w", doc.OrderID, err)
	}
	r.logger.Debug("order archived", zap.String("order_id", doc.OrderID), zap.String("status", doc.Status))
	return nil
}

// Close closes the MongoDB connection.
func (r *MongoDBRepository) Close(ctx context.Context) error {
	return r.client.Disconnect(ctx)
}
