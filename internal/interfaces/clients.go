// Package interfaces defines service contracts for tradevault
package interfaces

import (
	"context"
	"time"

	"github.com/dvalverde/tradevault/internal/models"
	"github.com/shopspring/decimal"
)

// Quote is a single market price observation from a provider.
type Quote struct {
	Price decimal.Decimal
	Date  time.Time
}

// QuoteOptions carries optional provider hints.
type QuoteOptions struct {
	Exchange string
}

// MarketDataProvider fetches the latest quote for a symbol from one upstream
// source. A nil quote with nil error means the provider had no data.
type MarketDataProvider interface {
	ProviderKey() string
	GetLatestPrice(ctx context.Context, symbolCode string, product models.Product, opts QuoteOptions) (*Quote, error)
}

// MarketDataService resolves the provider for a product (honoring per-symbol
// overrides) and fetches the latest quote.
type MarketDataService interface {
	GetLatestPrice(ctx context.Context, symbolCode string, product models.Product, providerOverride string, opts QuoteOptions) (*Quote, error)
}
