package renderer

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/mamadbah2/hamma/internal/domain/models"
)

// APIClient posts contract documents to the renderer's /generate_contract endpoint.
type APIClient struct {
	httpClient *resty.Client
}

// NewClient builds a renderer client.
func NewClient(baseURL string, timeout time.Duration) *APIClient {
	restyClient := resty.New().
		SetBaseURL(strings.TrimSuffix(baseURL, "/")).
		SetHeader("Content-Type", "application/json").
		SetTimeout(timeout)

	return &APIClient{httpClient: restyClient}
}

type contractItem struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Quantity    int    `json:"quantity"`
	Price       string `json:"price"`
	Supplier    string `json:"supplier"`
}

type contractRequest struct {
	OrderID  string                 `json:"order_id"`
	Items    []contractItem         `json:"items"`
	Document models.ContractDocument `json:"document"`
}

// RenderContract returns the rendered contract bytes.
func (c *APIClient) RenderContract(ctx context.Context, doc models.ContractDocument) ([]byte, error) {
	req := contractRequest{OrderID: doc.OrderID, Document: doc}
	for _, row := range doc.Rows {
		req.Items = append(req.Items, contractItem{
			ID:          row.ProductID,
			Name:        row.Name,
			Description: row.Description,
			Quantity:    row.Quantity,
			Price:       row.UnitPrice.String(),
			Supplier:    row.Supplier,
		})
	}

	resp, err := c.httpClient.R().
		SetContext(ctx).
		SetBody(req).
		Post("/generate_contract")
	if err != nil {
		return nil, fmt.Errorf("generate contract: %v: %w", err, models.ErrBackendUnavailable)
	}

	if resp.StatusCode() >= http.StatusBadRequest {
		return nil, fmt.Errorf("generate contract: status %d: %w", resp.StatusCode(), models.ErrBackendUnavailable)
	}

	if len(resp.Body()) == 0 {
		return nil, fmt.Errorf("generate contract: empty body: %w", models.ErrMalformedResponse)
	}
	return resp.Body(), nil
}
