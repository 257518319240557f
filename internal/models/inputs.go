package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Request payloads for the ledger surface. Decimal fields accept both JSON
// numbers and strings; dates are RFC3339.

// EntryInput creates a new entry on an operation.
type EntryInput struct {
	EntryType EntryType       `json:"entryType"`
	Quantity  decimal.Decimal `json:"quantity"`
	Price     decimal.Decimal `json:"price"`
	Tax       decimal.Decimal `json:"tax"`
	Date      time.Time       `json:"date"`
}

// NewOperationInput creates an operation, optionally with its first entry.
type NewOperationInput struct {
	SymbolID   string      `json:"symbolId"`
	Product    Product     `json:"product"`
	Direction  Direction   `json:"direction"`
	FirstEntry *EntryInput `json:"firstEntry,omitempty"`
}

// EntryPatch updates entry fields in place. Nil fields are left unchanged.
type EntryPatch struct {
	EntryType *EntryType       `json:"entryType,omitempty"`
	Quantity  *decimal.Decimal `json:"quantity,omitempty"`
	Price     *decimal.Decimal `json:"price,omitempty"`
	Tax       *decimal.Decimal `json:"tax,omitempty"`
	Date      *time.Time       `json:"date,omitempty"`
}

// NewSymbolInput creates a symbol.
type NewSymbolInput struct {
	Code           string  `json:"code"`
	Name           string  `json:"name"`
	Logo           string  `json:"logo,omitempty"`
	Product        Product `json:"product"`
	MarketCode     string  `json:"marketCode,omitempty"`
	MarketProvider string  `json:"marketProvider,omitempty"`
	MarketExchange string  `json:"marketExchange,omitempty"`
}

// SymbolPatch updates symbol fields. Nil fields are left unchanged.
type SymbolPatch struct {
	Code           *string  `json:"code,omitempty"`
	Name           *string  `json:"name,omitempty"`
	Logo           *string  `json:"logo,omitempty"`
	Product        *Product `json:"product,omitempty"`
	MarketCode     *string  `json:"marketCode,omitempty"`
	MarketProvider *string  `json:"marketProvider,omitempty"`
	MarketExchange *string  `json:"marketExchange,omitempty"`
}

// PricePointInput creates or updates a manual price point.
type PricePointInput struct {
	Price decimal.Decimal `json:"price"`
	Date  time.Time       `json:"date"`
}

// NewTransactionInput creates a cash transaction. Positive amounts are
// deposits, negative are withdrawals.
type NewTransactionInput struct {
	Amount decimal.Decimal `json:"amount"`
	Date   time.Time       `json:"date"`
	Origin string          `json:"origin,omitempty"`
}

// AnalyticsQuery is the common scope for every analytics operation.
type AnalyticsQuery struct {
	UserID    string
	AccountID string
	Period    string
	Scope     ProductScope
}
