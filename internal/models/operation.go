// Package models defines data structures for tradevault
package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Product categorizes the tradable instrument behind an operation.
type Product string

const (
	ProductCrypto     Product = "crypto"
	ProductStock      Product = "stock"
	ProductETF        Product = "etf"
	ProductDerivative Product = "derivative"
)

var validProducts = map[Product]bool{
	ProductCrypto:     true,
	ProductStock:      true,
	ProductETF:        true,
	ProductDerivative: true,
}

// ValidProduct returns true if p is a known product code.
func ValidProduct(p Product) bool {
	return validProducts[p]
}

// Direction is the side of an operation. Immutable after creation.
type Direction string

const (
	DirectionLong  Direction = "long"
	DirectionShort Direction = "short"
)

// ValidDirection returns true if d is a known direction.
func ValidDirection(d Direction) bool {
	return d == DirectionLong || d == DirectionShort
}

// OperationStatus is the lifecycle state of an operation.
type OperationStatus string

const (
	StatusOpen   OperationStatus = "open"
	StatusClosed OperationStatus = "closed"
)

// ValidStatus returns true if s is a known operation status.
func ValidStatus(s OperationStatus) bool {
	return s == StatusOpen || s == StatusClosed
}

// EntryType is the side of a single fill.
type EntryType string

const (
	EntryBuy  EntryType = "buy"
	EntrySell EntryType = "sell"
)

// ValidEntryType returns true if t is a known entry type.
func ValidEntryType(t EntryType) bool {
	return t == EntryBuy || t == EntrySell
}

// Operation represents a directional position on one symbol. Balance is set
// only while the operation is closed; status and balance always move together.
type Operation struct {
	ID        string           `json:"id"`
	AccountID string           `json:"accountId"`
	UserID    string           `json:"userId"`
	SymbolID  string           `json:"symbolId"`
	Product   Product          `json:"product"`
	Direction Direction        `json:"direction"`
	Status    OperationStatus  `json:"status"`
	Balance   *decimal.Decimal `json:"balance,omitempty"`
	CreatedAt time.Time        `json:"createdAt"`
	UpdatedAt time.Time        `json:"updatedAt"`
}

// IsClosed returns true when the operation is closed.
func (o *Operation) IsClosed() bool {
	return o.Status == StatusClosed
}

// Entry represents one buy or sell fill within an operation.
type Entry struct {
	ID          string          `json:"id"`
	OperationID string          `json:"operationId"`
	EntryType   EntryType       `json:"entryType"`
	Quantity    decimal.Decimal `json:"quantity"`
	Price       decimal.Decimal `json:"price"`
	Tax         decimal.Decimal `json:"tax"`
	Date        time.Time       `json:"date"`
	CreatedAt   time.Time       `json:"createdAt"`
}

// Validate checks entry invariants: positive quantity and price, non-negative tax.
func (e *Entry) Validate() error {
	if !ValidEntryType(e.EntryType) {
		return NewValidationError("entryType", "must be 'buy' or 'sell'")
	}
	if !e.Quantity.IsPositive() {
		return NewValidationError("quantity", "must be greater than zero")
	}
	if !e.Price.IsPositive() {
		return NewValidationError("price", "must be greater than zero")
	}
	if e.Tax.IsNegative() {
		return NewValidationError("tax", "must not be negative")
	}
	if e.Date.IsZero() {
		return NewValidationError("date", "is required")
	}
	return nil
}

// OperationDetail is an operation with its entries (date asc) and recent
// symbol prices (date desc), as returned by the detail endpoint.
type OperationDetail struct {
	Operation
	Symbol  *Symbol       `json:"symbol,omitempty"`
	Entries []*Entry      `json:"entries"`
	Prices  []*PricePoint `json:"prices"`

	// Metrics is populated for open operations when a current price exists.
	Metrics *OperationMetrics `json:"metrics,omitempty"`
}

// OperationMetrics are point-in-time figures for an open operation.
// UnrealizedPnL and PnLPercentage are nil when the position is flat or no
// current price is known; callers must not conflate nil with zero.
type OperationMetrics struct {
	BuyQty            decimal.Decimal  `json:"buyQty"`
	SellQty           decimal.Decimal  `json:"sellQty"`
	CurrentQty        decimal.Decimal  `json:"currentQty"`
	AvgBuyPrice       decimal.Decimal  `json:"avgBuyPrice"`
	CurrentInvestment decimal.Decimal  `json:"currentInvestment"`
	UnrealizedPnL     *decimal.Decimal `json:"unrealizedPnL"`
	PnLPercentage     *decimal.Decimal `json:"pnlPercentage"`
}

// OperationFilter narrows operation listings.
type OperationFilter struct {
	Status   OperationStatus
	Product  Product
	SymbolID string
}
