package handlers

import (
	"time"

	"github.com/mamadbah2/hamma/internal/domain/models"
	"github.com/mamadbah2/hamma/internal/service/procurement"
)

// Money leaves the service as fixed two-decimal strings.

type itemDTO struct {
	ID             string `json:"id"`
	Name           string `json:"name"`
	Description    string `json:"description,omitempty"`
	Category       string `json:"category,omitempty"`
	Supplier       string `json:"supplier,omitempty"`
	UnitPrice      string `json:"unit_price"`
	Quantity       int    `json:"quantity"`
	Subtotal       string `json:"subtotal"`
	Preferred      bool   `json:"preferred"`
	LeadTimeDays   int    `json:"lead_time_days"`
	StockAvailable int    `json:"stock_available"`
	StockNeeded    int    `json:"stock_needed"`
	StockStatus    string `json:"stock_status"`
}

type cartDTO struct {
	Items    []itemDTO `json:"items"`
	Total    string    `json:"total"`
	Currency string    `json:"currency"`
}

type orderDTO struct {
	OrderID   string    `json:"order_id"`
	CreatedAt time.Time `json:"created_at"`
	Requester string    `json:"requester"`
	Status    string    `json:"status"`
	Total     string    `json:"total"`
	Currency  string    `json:"currency"`
	Items     []itemDTO `json:"items"`
}

type summaryDTO struct {
	TotalOrders      int            `json:"total_orders"`
	TotalSpend       string         `json:"total_spend"`
	PendingApprovals int            `json:"pending_approvals"`
	ByStatus         map[string]int `json:"by_status"`
	Currency         string         `json:"currency"`
}

type recommendationsDTO struct {
	Explanation      string    `json:"explanation"`
	Items            []itemDTO `json:"items"`
	RequiresApproval bool      `json:"requires_approval"`
	EstimatedTotal   string    `json:"estimated_total"`
	Currency         string    `json:"currency"`
}

type imageChatDTO struct {
	MediaType       string               `json:"media_type,omitempty"`
	Messages        []models.ChatMessage `json:"messages"`
	Recommendations *recommendationsDTO  `json:"recommendations,omitempty"`
}

type contractRowDTO struct {
	ProductID   string `json:"product_id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Supplier    string `json:"supplier,omitempty"`
	Quantity    int    `json:"quantity"`
	UnitPrice   string `json:"unit_price"`
	LineTotal   string `json:"line_total"`
}

type contractDTO struct {
	OrderID      string                  `json:"order_id"`
	Title        string                  `json:"title"`
	Date         string                  `json:"date"`
	Sender       models.ContractParty    `json:"sender"`
	Recipient    models.ContractParty    `json:"recipient"`
	Headers      []string                `json:"headers"`
	Rows         []contractRowDTO        `json:"rows"`
	GrandTotal   string                  `json:"grand_total"`
	Currency     string                  `json:"currency"`
	PaymentTerms string                  `json:"payment_terms"`
	Signatures   []models.SignatureBlock `json:"signatures"`
	Digest       string                  `json:"digest"`
}

func newItemDTOs(items []models.LineItem) []itemDTO {
	out := make([]itemDTO, 0, len(items))
	for _, item := range items {
		out = append(out, itemDTO{
			ID:             item.ID,
			Name:           item.Name,
			Description:    item.Description,
			Category:       item.Category,
			Supplier:       item.Supplier,
			UnitPrice:      item.UnitPrice.StringFixed(2),
			Quantity:       item.Quantity,
			Subtotal:       item.Subtotal().StringFixed(2),
			Preferred:      item.Preferred,
			LeadTimeDays:   item.LeadTimeDays,
			StockAvailable: item.StockAvailable,
			StockNeeded:    item.StockNeeded,
			StockStatus:    string(item.StockStatus()),
		})
	}
	return out
}

func newCartDTO(cart procurement.CartSnapshot, currency string) cartDTO {
	return cartDTO{Items: newItemDTOs(cart.Items), Total: cart.Total.StringFixed(2), Currency: currency}
}

func newOrderDTO(order models.Order, currency string) orderDTO {
	return orderDTO{
		OrderID:   order.ID,
		CreatedAt: order.CreatedAt,
		Requester: order.Requester,
		Status:    string(order.Status),
		Total:     order.Total.StringFixed(2),
		Currency:  currency,
		Items:     newItemDTOs(order.Items),
	}
}

func newOrderDTOs(orders []models.Order, currency string) []orderDTO {
	out := make([]orderDTO, 0, len(orders))
	for _, order := range orders {
		out = append(out, newOrderDTO(order, currency))
	}
	return out
}

func newSummaryDTO(summary models.SpendSummary, currency string) summaryDTO {
	byStatus := make(map[string]int, len(summary.ByStatus))
	for status, n := range summary.ByStatus {
		byStatus[string(status)] = n
	}
	return summaryDTO{
		TotalOrders:      summary.TotalOrders,
		TotalSpend:       summary.TotalSpend.StringFixed(2),
		PendingApprovals: summary.PendingApprovals,
		ByStatus:         byStatus,
		Currency:         currency,
	}
}

func newRecommendationsDTO(recs models.Recommendations, currency string) recommendationsDTO {
	return recommendationsDTO{
		Explanation:      recs.Explanation,
		Items:            newItemDTOs(recs.Items),
		RequiresApproval: recs.RequiresApproval,
		EstimatedTotal:   recs.EstimatedTotal.StringFixed(2),
		Currency:         currency,
	}
}

func newImageChatDTO(chat models.ImageChat, currency string) imageChatDTO {
	out := imageChatDTO{MediaType: chat.MediaType, Messages: chat.Messages}
	if out.Messages == nil {
		out.Messages = []models.ChatMessage{}
	}
	if chat.Recommendations != nil {
		recs := newRecommendationsDTO(*chat.Recommendations, currency)
		out.Recommendations = &recs
	}
	return out
}

func newContractDTO(doc models.ContractDocument) contractDTO {
	rows := make([]contractRowDTO, 0, len(doc.Rows))
	for _, row := range doc.Rows {
		rows = append(rows, contractRowDTO{
			ProductID:   row.ProductID,
			Name:        row.Name,
			Description: row.Description,
			Supplier:    row.Supplier,
			Quantity:    row.Quantity,
			UnitPrice:   row.UnitPrice.StringFixed(2),
			LineTotal:   row.LineTotal.StringFixed(2),
		})
	}
	return contractDTO{
		OrderID:      doc.OrderID,
		Title:        doc.Title,
		Date:         doc.Date.Format("2006-01-02"),
		Sender:       doc.Sender,
		Recipient:    doc.Recipient,
		Headers:      doc.Headers,
		Rows:         rows,
		GrandTotal:   doc.GrandTotal.StringFixed(2),
		Currency:     doc.Currency,
		PaymentTerms: doc.PaymentTerms,
		Signatures:   doc.Signatures,
		Digest:       doc.Digest,
	}
}
