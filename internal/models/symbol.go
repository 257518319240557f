package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// SyncStatus records the outcome of the last market price sync for a symbol.
type SyncStatus string

const (
	SyncStatusOK    SyncStatus = "ok"
	SyncStatusError SyncStatus = "error"
)

// Symbol is a tradable instrument identity, scoped to a user and account.
// Code is unique per account.
type Symbol struct {
	ID        string  `json:"id"`
	UserID    string  `json:"userId"`
	AccountID string  `json:"accountId"`
	Code      string  `json:"code"`
	Name      string  `json:"name"`
	Logo      string  `json:"logo,omitempty"`
	Product   Product `json:"product"`
	SortOrder int     `json:"sortOrder"`

	// Market provider linkage. Empty MarketCode means the symbol is manual-only.
	MarketCode     string     `json:"marketCode,omitempty"`
	MarketProvider string     `json:"marketProvider,omitempty"`
	MarketExchange string     `json:"marketExchange,omitempty"`
	MarketSyncAt   *time.Time `json:"marketSyncAt,omitempty"`
	SyncStatus     SyncStatus `json:"marketSyncStatus,omitempty"`
	SyncError      string     `json:"marketSyncError,omitempty"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Validate checks symbol invariants.
func (s *Symbol) Validate() error {
	if s.Code == "" {
		return NewValidationError("code", "is required")
	}
	if s.Name == "" {
		return NewValidationError("name", "is required")
	}
	if !ValidProduct(s.Product) {
		return NewValidationError("product", "must be one of crypto, stock, etf, derivative")
	}
	return nil
}

// PriceSource marks where a price point came from.
type PriceSource string

const (
	PriceSourceManual PriceSource = "manual"
	PriceSourceSync   PriceSource = "sync"
	PriceSourceFill   PriceSource = "fill"
)

// PricePoint is one observed market price for a symbol at a date, scoped to
// user and account so manual overrides stay isolated. The most recent point
// by date acts as the symbol's current price.
type PricePoint struct {
	ID        string          `json:"id"`
	SymbolID  string          `json:"symbolId"`
	UserID    string          `json:"userId"`
	AccountID string          `json:"accountId"`
	Price     decimal.Decimal `json:"price"`
	Date      time.Time       `json:"date"`
	Source    PriceSource     `json:"source,omitempty"`
	CreatedAt time.Time       `json:"createdAt"`
}

// Validate checks price point invariants.
func (p *PricePoint) Validate() error {
	if !p.Price.IsPositive() {
		return NewValidationError("price", "must be greater than zero")
	}
	if p.Date.IsZero() {
		return NewValidationError("date", "is required")
	}
	return nil
}
