// Package marketdata resolves which upstream provider serves a symbol's
// quotes and dispatches the fetch.
package marketdata

import (
	"context"
	"fmt"

	"github.com/dvalverde/tradevault/internal/common"
	"github.com/dvalverde/tradevault/internal/interfaces"
	"github.com/dvalverde/tradevault/internal/models"
)

// Service implements MarketDataService over a registry of providers. Each
// product has a default provider; a symbol-level override wins when set.
type Service struct {
	providers map[string]interfaces.MarketDataProvider
	defaults  map[models.Product]string
	logger    *common.Logger
}

// NewService creates a new market data service
func NewService(logger *common.Logger) *Service {
	return &Service{
		providers: make(map[string]interfaces.MarketDataProvider),
		defaults:  make(map[models.Product]string),
		logger:    logger,
	}
}

// Register adds a provider to the registry and makes it the default for the
// given products.
func (s *Service) Register(provider interfaces.MarketDataProvider, products ...models.Product) {
	key := provider.ProviderKey()
	s.providers[key] = provider
	for _, p := range products {
		s.defaults[p] = key
	}
}

// GetLatestPrice resolves the provider for the product, honoring the
// per-symbol override, and fetches the latest quote.
func (s *Service) GetLatestPrice(ctx context.Context, symbolCode string, product models.Product, providerOverride string, opts interfaces.QuoteOptions) (*interfaces.Quote, error) {
	key := providerOverride
	if key == "" {
		key = s.defaults[product]
	}
	if key == "" {
		return nil, fmt.Errorf("no market data provider configured for product %s", product)
	}

	provider := s.providers[key]
	if provider == nil {
		return nil, fmt.Errorf("unknown market data provider %q", key)
	}

	s.logger.Debug().
		Str("symbol", symbolCode).
		Str("provider", key).
		Msg("Fetching latest price")

	return provider.GetLatestPrice(ctx, symbolCode, product, opts)
}
