package handlers

import (
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mamadbah2/hamma/internal/domain/models"
	"github.com/mamadbah2/hamma/internal/service/contract"
	"github.com/mamadbah2/hamma/internal/service/procurement"
)

// SessionForgetter drops per-session state held outside the procurement core.
type SessionForgetter interface {
	Forget(sessionID string)
}

// ProcurementHandler exposes carts, orders, approvals and contracts over HTTP.
type ProcurementHandler struct {
	sessions  *procurement.SessionManager
	exporter  *contract.Exporter
	forgetter SessionForgetter
	currency  string
	logger    *zap.Logger
}

// NewProcurementHandler constructs the HTTP handler adapter. forgetter may be nil.
func NewProcurementHandler(sessions *procurement.SessionManager, exporter *contract.Exporter, forgetter SessionForgetter, currency string, logger *zap.Logger) *ProcurementHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ProcurementHandler{
		sessions:  sessions,
		exporter:  exporter,
		forgetter: forgetter,
		currency:  currency,
		logger:    logger,
	}
}

type addItemRequest struct {
	Item     models.LineItem `json:"item"`
	Quantity *int            `json:"quantity"`
	Mode     string          `json:"mode"`
}

type setQuantityRequest struct {
	Item     *models.LineItem `json:"item"`
	Quantity *int             `json:"quantity" binding:"required"`
}

type commitRequest struct {
	AdminPassword string `json:"admin_password"`
	Decision      string `json:"decision"`
}

type reapproveRequest struct {
	AdminPassword string `json:"admin_password"`
}

// CreateSession opens a new procurement session.
func (h *ProcurementHandler) CreateSession(c *gin.Context) {
	session := h.sessions.Create()
	c.JSON(http.StatusCreated, gin.H{
		"session_id": session.ID(),
		"created_at": session.CreatedAt(),
	})
}

// CloseSession discards a session with its cart, ledger and assistant state.
func (h *ProcurementHandler) CloseSession(c *gin.Context) {
	session := sessionFrom(c)
	h.sessions.Close(session.ID())
	if h.forgetter != nil {
		h.forgetter.Forget(session.ID())
	}
	c.Status(http.StatusNoContent)
}

// GetCart returns the cart with its total.
func (h *ProcurementHandler) GetCart(c *gin.Context) {
	c.JSON(http.StatusOK, newCartDTO(sessionFrom(c).Cart(), h.currency))
}

// AddItem adds an item; quantity defaults to the item's own quantity, then 1.
func (h *ProcurementHandler) AddItem(c *gin.Context) {
	var req addItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	if req.Item.ID == "" {
		badRequest(c, fmt.Errorf("item.id is required"))
		return
	}

	mode, err := procurement.ParseAddMode(req.Mode)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	qty := req.Item.Quantity
	if req.Quantity != nil {
		qty = *req.Quantity
	} else if qty == 0 {
		qty = 1
	}

	cart, err := sessionFrom(c).AddItem(req.Item, qty, mode)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, newCartDTO(cart, h.currency))
}

// SetQuantity sets an exact quantity. Zero or less removes the entry. The item body is
// only needed when the entry is not in the cart yet.
func (h *ProcurementHandler) SetQuantity(c *gin.Context) {
	var req setQuantityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	session := sessionFrom(c)
	itemID := c.Param("itemID")

	var item models.LineItem
	switch {
	case req.Item != nil:
		item = *req.Item
		item.ID = itemID
	default:
		found := false
		for _, existing := range session.Cart().Items {
			if existing.ID == itemID {
				item, found = existing, true
				break
			}
		}
		if !found && *req.Quantity > 0 {
			badRequest(c, fmt.Errorf("item %s is not in the cart; send the item to insert it", itemID))
			return
		}
		item.ID = itemID
	}

	cart, err := session.SetQuantity(item, *req.Quantity)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, newCartDTO(cart, h.currency))
}

// RemoveItem drops a cart entry. Removing an absent entry succeeds.
func (h *ProcurementHandler) RemoveItem(c *gin.Context) {
	c.JSON(http.StatusOK, newCartDTO(sessionFrom(c).RemoveItem(c.Param("itemID")), h.currency))
}

// CommitOrder turns the cart into an order. Above the threshold without a password the
// response is 202 and nothing changes.
func (h *ProcurementHandler) CommitOrder(c *gin.Context) {
	var req commitRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		badRequest(c, err)
		return
	}

	decision, err := procurement.ParseDecision(req.Decision)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	order, err := sessionFrom(c).Commit(c.Request.Context(), procurement.CommitRequest{
		Credential: req.AdminPassword,
		Decision:   decision,
	})
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusCreated, newOrderDTO(order, h.currency))
}

// ListOrders returns the ledger, most recent first.
func (h *ProcurementHandler) ListOrders(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"orders": newOrderDTOs(sessionFrom(c).Orders(), h.currency)})
}

// GetOrder returns one order.
func (h *ProcurementHandler) GetOrder(c *gin.Context) {
	order, err := sessionFrom(c).Order(c.Param("orderID"))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, newOrderDTO(order, h.currency))
}

// Reapprove moves a declined order to admin approved.
func (h *ProcurementHandler) Reapprove(c *gin.Context) {
	var req reapproveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	order, err := sessionFrom(c).Reapprove(c.Request.Context(), c.Param("orderID"), req.AdminPassword)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, newOrderDTO(order, h.currency))
}

// ListReports returns the report-eligible orders and the spend summary.
func (h *ProcurementHandler) ListReports(c *gin.Context) {
	session := sessionFrom(c)
	c.JSON(http.StatusOK, gin.H{
		"reports": newOrderDTOs(session.Reports(), h.currency),
		"summary": newSummaryDTO(session.Summary(), h.currency),
	})
}

// ExportContract renders the supply contract of a reported order. With ?format=json
// only the document payload is returned.
func (h *ProcurementHandler) ExportContract(c *gin.Context) {
	order, err := sessionFrom(c).ReportOrder(c.Param("orderID"))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	if c.Query("format") == "json" {
		doc, err := h.exporter.Build(order)
		if err != nil {
			respondError(c, h.logger, err)
			return
		}
		c.JSON(http.StatusOK, newContractDTO(doc))
		return
	}

	rendered, doc, err := h.exporter.Export(c.Request.Context(), order)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="contract_%s.pdf"`, order.ID))
	c.Header("X-Contract-Digest", doc.Digest)
	c.Data(http.StatusOK, "application/pdf", rendered)
}
