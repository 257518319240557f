package symbols

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/dvalverde/tradevault/internal/interfaces"
	"github.com/dvalverde/tradevault/internal/models"
)

// SyncMarketPrice fetches the latest quote for one symbol and appends it to
// the price history. A quote matching an existing (date, price) pair is
// skipped so repeated syncs are idempotent. The sync outcome is recorded on
// the symbol either way.
func (s *Service) SyncMarketPrice(ctx context.Context, userID, accountID, symbolID string) (*models.PricePoint, error) {
	ledger := s.storage.LedgerStore()

	symbol, err := ledger.GetSymbol(ctx, userID, accountID, symbolID)
	if err != nil {
		return nil, err
	}
	if symbol.MarketCode == "" {
		return nil, models.NewValidationError("marketCode", "symbol has no market linkage")
	}

	point, err := s.fetchAndStore(ctx, symbol)
	s.recordSyncOutcome(ctx, symbol, err)
	if err != nil {
		return nil, err
	}
	return point, nil
}

// SyncOpenOperationPrices refreshes every symbol referenced by an open
// operation, across all accounts. A failing symbol is recorded and skipped;
// the sweep always visits the rest.
func (s *Service) SyncOpenOperationPrices(ctx context.Context) error {
	ledger := s.storage.LedgerStore()

	ops, err := ledger.ListOpenOperationsAllAccounts(ctx)
	if err != nil {
		return fmt.Errorf("failed to list open operations: %w", err)
	}

	seen := make(map[string]bool)
	var synced, failed int
	for _, op := range ops {
		if seen[op.SymbolID] {
			continue
		}
		seen[op.SymbolID] = true

		symbol, err := ledger.GetSymbol(ctx, op.UserID, op.AccountID, op.SymbolID)
		if err != nil {
			s.logger.Warn().Err(err).Str("symbol_id", op.SymbolID).Msg("Sync skipping unresolvable symbol")
			failed++
			continue
		}
		if symbol.MarketCode == "" {
			continue
		}

		_, err = s.fetchAndStore(ctx, symbol)
		s.recordSyncOutcome(ctx, symbol, err)
		if err != nil {
			s.logger.Warn().Err(err).Str("symbol", symbol.Code).Msg("Market price sync failed")
			failed++
			continue
		}
		synced++
	}

	s.logger.Info().Int("synced", synced).Int("failed", failed).Msg("Open operation price sync complete")
	return nil
}

// fetchAndStore pulls the latest quote and persists it unless the same
// (date, price) pair already exists. Returns the stored or matching point.
func (s *Service) fetchAndStore(ctx context.Context, symbol *models.Symbol) (*models.PricePoint, error) {
	quote, err := s.marketData.GetLatestPrice(ctx, symbol.MarketCode, symbol.Product, symbol.MarketProvider, interfaces.QuoteOptions{
		Exchange: symbol.MarketExchange,
	})
	if err != nil {
		return nil, err
	}
	if quote == nil {
		return nil, fmt.Errorf("no quote available for %s", symbol.Code)
	}

	ledger := s.storage.LedgerStore()
	existing, err := ledger.ListPricePoints(ctx, symbol.UserID, symbol.AccountID, symbol.ID)
	if err != nil {
		return nil, err
	}
	for _, p := range existing {
		if p.Date.Equal(quote.Date) && p.Price.Equal(quote.Price) {
			return p, nil
		}
	}

	point := &models.PricePoint{
		ID:        uuid.New().String(),
		SymbolID:  symbol.ID,
		UserID:    symbol.UserID,
		AccountID: symbol.AccountID,
		Price:     quote.Price,
		Date:      quote.Date,
		Source:    models.PriceSourceSync,
		CreatedAt: time.Now().UTC(),
	}
	if err := ledger.SavePricePoint(ctx, point); err != nil {
		return nil, err
	}
	return point, nil
}

// recordSyncOutcome stamps the sync result on the symbol. Persistence errors
// here are logged, not surfaced; the sync result matters more than the stamp.
func (s *Service) recordSyncOutcome(ctx context.Context, symbol *models.Symbol, syncErr error) {
	now := time.Now().UTC()
	symbol.MarketSyncAt = &now
	if syncErr != nil {
		symbol.SyncStatus = models.SyncStatusError
		symbol.SyncError = syncErr.Error()
	} else {
		symbol.SyncStatus = models.SyncStatusOK
		symbol.SyncError = ""
	}
	symbol.UpdatedAt = now

	if err := s.storage.LedgerStore().SaveSymbol(ctx, symbol); err != nil {
		s.logger.Warn().Err(err).Str("symbol", symbol.Code).Msg("Failed to record sync outcome")
	}
}
