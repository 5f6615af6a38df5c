package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// ContractRow is one table line of a supply contract.
type ContractRow struct {
	ProductID   string          `json:"product_id"`
	Name        string          `json:"name"`
	Description string          `json:"description,omitempty"`
	Supplier    string          `json:"supplier,omitempty"`
	Quantity    int             `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	LineTotal   decimal.Decimal `json:"line_total"`
}

// ContractParty identifies one side of the contract.
type ContractParty struct {
	Name    string   `json:"name"`
	Address []string `json:"address"`
}

// SignatureBlock is an empty signature line labelled with its signer.
type SignatureBlock struct {
	Role string `json:"role"`
	Name string `json:"name"`
}

// ContractDocument is the structured payload handed to the contract renderer.
type ContractDocument struct {
	OrderID      string           `json:"order_id"`
	Title        string           `json:"title"`
	Date         time.Time        `json:"date"`
	Sender       ContractParty    `json:"sender"`
	Recipient    ContractParty    `json:"recipient"`
	Headers      []string         `json:"headers"`
	Rows         []ContractRow    `json:"rows"`
	GrandTotal   decimal.Decimal  `json:"grand_total"`
	Currency     string           `json:"currency"`
	PaymentTerms string           `json:"payment_terms"`
	Signatures   []SignatureBlock `json:"signatures"`
	Digest       string           `json:"digest"`
}
