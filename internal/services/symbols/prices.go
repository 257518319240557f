package symbols

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/dvalverde/tradevault/internal/models"
)

// AddPrice appends a manual price point to the symbol's history.
func (s *Service) AddPrice(ctx context.Context, userID, accountID, symbolID string, input models.PricePointInput) (*models.PricePoint, error) {
	ledger := s.storage.LedgerStore()

	symbol, err := ledger.GetSymbol(ctx, userID, accountID, symbolID)
	if err != nil {
		return nil, err
	}

	point := &models.PricePoint{
		ID:        uuid.New().String(),
		SymbolID:  symbol.ID,
		UserID:    userID,
		AccountID: accountID,
		Price:     input.Price,
		Date:      input.Date,
		Source:    models.PriceSourceManual,
		CreatedAt: time.Now().UTC(),
	}
	if err := point.Validate(); err != nil {
		return nil, err
	}

	if err := ledger.SavePricePoint(ctx, point); err != nil {
		return nil, err
	}
	return point, nil
}

// ListPrices returns the symbol's price history, most recent first, bounded
// to the last year.
func (s *Service) ListPrices(ctx context.Context, userID, accountID, symbolID string) ([]*models.PricePoint, error) {
	ledger := s.storage.LedgerStore()

	if _, err := ledger.GetSymbol(ctx, userID, accountID, symbolID); err != nil {
		return nil, err
	}

	points, err := ledger.ListPricePoints(ctx, userID, accountID, symbolID)
	if err != nil {
		return nil, err
	}

	floor := time.Now().UTC().Add(-priceHistoryWindow)
	recent := []*models.PricePoint{}
	for _, p := range points {
		if p.Date.Before(floor) {
			break // date desc, everything after is older
		}
		recent = append(recent, p)
	}
	return recent, nil
}

// UpdatePrice rewrites a manual price point's value and date.
func (s *Service) UpdatePrice(ctx context.Context, userID, accountID, symbolID, priceID string, input models.PricePointInput) (*models.PricePoint, error) {
	ledger := s.storage.LedgerStore()

	if _, err := ledger.GetSymbol(ctx, userID, accountID, symbolID); err != nil {
		return nil, err
	}

	point, err := ledger.GetPricePoint(ctx, symbolID, priceID)
	if err != nil {
		return nil, err
	}

	point.Price = input.Price
	point.Date = input.Date
	if err := point.Validate(); err != nil {
		return nil, err
	}

	if err := ledger.SavePricePoint(ctx, point); err != nil {
		return nil, err
	}
	return point, nil
}

// RemovePrice deletes one price point.
func (s *Service) RemovePrice(ctx context.Context, userID, accountID, symbolID, priceID string) error {
	ledger := s.storage.LedgerStore()

	if _, err := ledger.GetSymbol(ctx, userID, accountID, symbolID); err != nil {
		return err
	}
	return ledger.DeletePricePoint(ctx, symbolID, priceID)
}
