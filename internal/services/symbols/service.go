// Package symbols manages the instrument catalog and its price history,
// including the market price sync.
package symbols

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/dvalverde/tradevault/internal/common"
	"github.com/dvalverde/tradevault/internal/interfaces"
	"github.com/dvalverde/tradevault/internal/models"
)

// priceHistoryWindow bounds how far back the price listing reaches.
const priceHistoryWindow = 365 * 24 * time.Hour

// Service implements SymbolService
type Service struct {
	storage    interfaces.StorageManager
	marketData interfaces.MarketDataService
	logger     *common.Logger
}

// NewService creates a new symbol service
func NewService(storage interfaces.StorageManager, marketData interfaces.MarketDataService, logger *common.Logger) *Service {
	return &Service{
		storage:    storage,
		marketData: marketData,
		logger:     logger,
	}
}

// Create adds a symbol to the account's catalog. Codes are upper-cased and
// unique per account; a duplicate is a conflict, not a silent upsert.
func (s *Service) Create(ctx context.Context, userID, accountID string, input models.NewSymbolInput) (*models.Symbol, error) {
	ledger := s.storage.LedgerStore()
	code := strings.ToUpper(strings.TrimSpace(input.Code))

	now := time.Now().UTC()
	symbol := &models.Symbol{
		ID:             uuid.New().String(),
		UserID:         userID,
		AccountID:      accountID,
		Code:           code,
		Name:           input.Name,
		Logo:           input.Logo,
		Product:        input.Product,
		MarketCode:     input.MarketCode,
		MarketProvider: input.MarketProvider,
		MarketExchange: input.MarketExchange,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err := symbol.Validate(); err != nil {
		return nil, err
	}

	if _, err := ledger.GetSymbolByCode(ctx, userID, accountID, code); err == nil {
		return nil, fmt.Errorf("symbol %s: %w", code, models.ErrConflict)
	}

	existing, err := ledger.ListSymbols(ctx, userID, accountID)
	if err != nil {
		return nil, fmt.Errorf("failed to list symbols: %w", err)
	}
	symbol.SortOrder = len(existing)

	if err := ledger.SaveSymbol(ctx, symbol); err != nil {
		return nil, err
	}

	s.logger.Info().Str("symbol", code).Str("product", string(symbol.Product)).Msg("Symbol created")
	return symbol, nil
}

// List returns the account's symbols in display order.
func (s *Service) List(ctx context.Context, userID, accountID string) ([]*models.Symbol, error) {
	return s.storage.LedgerStore().ListSymbols(ctx, userID, accountID)
}

// Search filters the account's symbols by a case-insensitive match on code
// or name.
func (s *Service) Search(ctx context.Context, userID, accountID, query string) ([]*models.Symbol, error) {
	symbols, err := s.storage.LedgerStore().ListSymbols(ctx, userID, accountID)
	if err != nil {
		return nil, err
	}

	needle := strings.ToLower(strings.TrimSpace(query))
	if needle == "" {
		return symbols, nil
	}

	matched := []*models.Symbol{}
	for _, sym := range symbols {
		if strings.Contains(strings.ToLower(sym.Code), needle) ||
			strings.Contains(strings.ToLower(sym.Name), needle) {
			matched = append(matched, sym)
		}
	}
	return matched, nil
}

// Get returns one symbol in the caller's scope.
func (s *Service) Get(ctx context.Context, userID, accountID, symbolID string) (*models.Symbol, error) {
	return s.storage.LedgerStore().GetSymbol(ctx, userID, accountID, symbolID)
}

// Update patches symbol fields in place. Changing the code re-checks the
// per-account uniqueness.
func (s *Service) Update(ctx context.Context, userID, accountID, symbolID string, patch models.SymbolPatch) (*models.Symbol, error) {
	ledger := s.storage.LedgerStore()

	symbol, err := ledger.GetSymbol(ctx, userID, accountID, symbolID)
	if err != nil {
		return nil, err
	}

	if patch.Code != nil {
		code := strings.ToUpper(strings.TrimSpace(*patch.Code))
		if code != symbol.Code {
			if _, err := ledger.GetSymbolByCode(ctx, userID, accountID, code); err == nil {
				return nil, fmt.Errorf("symbol %s: %w", code, models.ErrConflict)
			}
			symbol.Code = code
		}
	}
	if patch.Name != nil {
		symbol.Name = *patch.Name
	}
	if patch.Logo != nil {
		symbol.Logo = *patch.Logo
	}
	if patch.Product != nil {
		symbol.Product = *patch.Product
	}
	if patch.MarketCode != nil {
		symbol.MarketCode = *patch.MarketCode
	}
	if patch.MarketProvider != nil {
		symbol.MarketProvider = *patch.MarketProvider
	}
	if patch.MarketExchange != nil {
		symbol.MarketExchange = *patch.MarketExchange
	}

	if err := symbol.Validate(); err != nil {
		return nil, err
	}
	symbol.UpdatedAt = time.Now().UTC()

	if err := ledger.SaveSymbol(ctx, symbol); err != nil {
		return nil, err
	}
	return symbol, nil
}

// Remove deletes the symbol and its price history.
func (s *Service) Remove(ctx context.Context, userID, accountID, symbolID string) error {
	return s.storage.LedgerStore().DeleteSymbol(ctx, userID, accountID, symbolID)
}

// Reorder rewrites the display order to match the given ID sequence. IDs not
// listed keep their relative order after the listed ones.
func (s *Service) Reorder(ctx context.Context, userID, accountID string, symbolIDs []string) error {
	ledger := s.storage.LedgerStore()

	symbols, err := ledger.ListSymbols(ctx, userID, accountID)
	if err != nil {
		return err
	}
	byID := make(map[string]*models.Symbol, len(symbols))
	for _, sym := range symbols {
		byID[sym.ID] = sym
	}

	order := 0
	for _, id := range symbolIDs {
		sym := byID[id]
		if sym == nil {
			return fmt.Errorf("symbol %s: %w", id, models.ErrNotFound)
		}
		sym.SortOrder = order
		sym.UpdatedAt = time.Now().UTC()
		if err := ledger.SaveSymbol(ctx, sym); err != nil {
			return err
		}
		delete(byID, id)
		order++
	}

	for _, sym := range symbols {
		if _, remaining := byID[sym.ID]; !remaining {
			continue
		}
		sym.SortOrder = order
		sym.UpdatedAt = time.Now().UTC()
		if err := ledger.SaveSymbol(ctx, sym); err != nil {
			return err
		}
		order++
	}
	return nil
}
