package operations

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/dvalverde/tradevault/internal/common"
	"github.com/dvalverde/tradevault/internal/interfaces"
	"github.com/dvalverde/tradevault/internal/models"
)

// Service implements OperationService
type Service struct {
	storage interfaces.StorageManager
	logger  *common.Logger
}

// NewService creates a new operation service
func NewService(storage interfaces.StorageManager, logger *common.Logger) *Service {
	return &Service{
		storage: storage,
		logger:  logger,
	}
}

// Create opens a new operation, optionally seeding it with a first entry.
// The operation and its first entry commit together.
func (s *Service) Create(ctx context.Context, userID, accountID string, input models.NewOperationInput) (*models.Operation, error) {
	if input.SymbolID == "" {
		return nil, models.NewValidationError("symbolId", "is required")
	}
	if !models.ValidProduct(input.Product) {
		return nil, models.NewValidationError("product", "must be one of crypto, stock, etf, derivative")
	}
	if !models.ValidDirection(input.Direction) {
		return nil, models.NewValidationError("direction", "must be 'long' or 'short'")
	}

	symbol, err := s.storage.LedgerStore().GetSymbol(ctx, userID, accountID, input.SymbolID)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve symbol: %w", err)
	}

	now := time.Now().UTC()
	op := &models.Operation{
		ID:        uuid.New().String(),
		AccountID: accountID,
		UserID:    userID,
		SymbolID:  symbol.ID,
		Product:   input.Product,
		Direction: input.Direction,
		Status:    models.StatusOpen,
		CreatedAt: now,
		UpdatedAt: now,
	}

	err = s.storage.LedgerStore().Update(ctx, func(tx interfaces.LedgerTx) error {
		if err := tx.SaveOperation(op); err != nil {
			return err
		}
		if input.FirstEntry == nil {
			return nil
		}
		entry := newEntry(op.ID, *input.FirstEntry)
		if err := entry.Validate(); err != nil {
			return err
		}
		if err := tx.SaveEntry(entry); err != nil {
			return err
		}
		return recordFillPrice(tx, op, entry)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info().
		Str("operation_id", op.ID).
		Str("symbol", symbol.Code).
		Str("direction", string(op.Direction)).
		Msg("Operation created")

	return op, nil
}

// List returns the account's operations, newest first, optionally filtered.
func (s *Service) List(ctx context.Context, userID, accountID string, filter models.OperationFilter) ([]*models.Operation, error) {
	return s.storage.LedgerStore().ListOperations(ctx, userID, accountID, filter)
}

// Get returns the operation with its entries, recent prices, and metrics.
// Metrics are computed only for open operations with a known current price.
func (s *Service) Get(ctx context.Context, userID, accountID, operationID string) (*models.OperationDetail, error) {
	ledger := s.storage.LedgerStore()

	op, err := ledger.GetOperation(ctx, userID, accountID, operationID)
	if err != nil {
		return nil, err
	}

	entries, err := ledger.ListEntries(ctx, op.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to load entries: %w", err)
	}

	detail := &models.OperationDetail{
		Operation: *op,
		Entries:   entries,
		Prices:    []*models.PricePoint{},
	}

	symbol, err := ledger.GetSymbol(ctx, userID, accountID, op.SymbolID)
	if err == nil {
		detail.Symbol = symbol
	}

	prices, err := ledger.ListPricePoints(ctx, userID, accountID, op.SymbolID)
	if err != nil {
		return nil, fmt.Errorf("failed to load prices: %w", err)
	}
	detail.Prices = prices

	if !op.IsClosed() {
		var current *decimal.Decimal
		if len(prices) > 0 {
			current = &prices[0].Price
		}
		detail.Metrics = ComputeMetrics(entries, op.Direction, current)
	}

	return detail, nil
}

// Remove deletes the operation and all of its entries.
func (s *Service) Remove(ctx context.Context, userID, accountID, operationID string) error {
	if err := s.storage.LedgerStore().DeleteOperation(ctx, userID, accountID, operationID); err != nil {
		return err
	}
	s.logger.Info().Str("operation_id", operationID).Msg("Operation removed")
	return nil
}

// AddEntry appends a fill to an open operation. When the new entry brings the
// bought and sold quantities into exact balance the operation closes with its
// realized balance in the same transaction. Closed operations reject entries.
func (s *Service) AddEntry(ctx context.Context, userID, accountID, operationID string, input models.EntryInput) (*models.Operation, error) {
	op, err := s.storage.LedgerStore().GetOperation(ctx, userID, accountID, operationID)
	if err != nil {
		return nil, err
	}
	if op.IsClosed() {
		return nil, models.ErrClosedPosition
	}

	entry := newEntry(op.ID, input)
	if err := entry.Validate(); err != nil {
		return nil, err
	}

	err = s.storage.LedgerStore().Update(ctx, func(tx interfaces.LedgerTx) error {
		if err := tx.SaveEntry(entry); err != nil {
			return err
		}
		if err := recordFillPrice(tx, op, entry); err != nil {
			return err
		}
		return s.reconcileStatus(tx, op)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info().
		Str("operation_id", op.ID).
		Str("entry_type", string(entry.EntryType)).
		Str("status", string(op.Status)).
		Msg("Entry added")

	return op, nil
}

// UpdateEntry patches an entry in place and re-evaluates closure: the edit can
// close an open operation or reopen a closed one.
func (s *Service) UpdateEntry(ctx context.Context, userID, accountID, operationID, entryID string, patch models.EntryPatch) (*models.Operation, error) {
	op, err := s.storage.LedgerStore().GetOperation(ctx, userID, accountID, operationID)
	if err != nil {
		return nil, err
	}

	err = s.storage.LedgerStore().Update(ctx, func(tx interfaces.LedgerTx) error {
		entries, err := tx.ListEntries(op.ID)
		if err != nil {
			return err
		}
		entry := findEntry(entries, entryID)
		if entry == nil {
			return fmt.Errorf("entry %s: %w", entryID, models.ErrNotFound)
		}

		applyPatch(entry, patch)
		if err := entry.Validate(); err != nil {
			return err
		}
		if err := tx.SaveEntry(entry); err != nil {
			return err
		}
		return s.reconcileStatus(tx, op)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info().
		Str("operation_id", op.ID).
		Str("entry_id", entryID).
		Str("status", string(op.Status)).
		Msg("Entry updated")

	return op, nil
}

// RemoveEntry deletes an entry. A closed operation always reopens: the fills
// that justified the balance no longer exist, so the balance is cleared even
// if the remaining quantities happen to match.
func (s *Service) RemoveEntry(ctx context.Context, userID, accountID, operationID, entryID string) (*models.Operation, error) {
	op, err := s.storage.LedgerStore().GetOperation(ctx, userID, accountID, operationID)
	if err != nil {
		return nil, err
	}

	err = s.storage.LedgerStore().Update(ctx, func(tx interfaces.LedgerTx) error {
		entries, err := tx.ListEntries(op.ID)
		if err != nil {
			return err
		}
		if findEntry(entries, entryID) == nil {
			return fmt.Errorf("entry %s: %w", entryID, models.ErrNotFound)
		}
		if err := tx.DeleteEntry(op.ID, entryID); err != nil {
			return err
		}
		markOpen(op)
		op.UpdatedAt = time.Now().UTC()
		return tx.SaveOperation(op)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info().
		Str("operation_id", op.ID).
		Str("entry_id", entryID).
		Msg("Entry removed")

	return op, nil
}

// SetStatus manually overrides the lifecycle state. Closing computes the
// realized balance from the entries as they stand; reopening clears it.
func (s *Service) SetStatus(ctx context.Context, userID, accountID, operationID string, status models.OperationStatus) (*models.Operation, error) {
	if !models.ValidStatus(status) {
		return nil, models.NewValidationError("status", "must be 'open' or 'closed'")
	}

	op, err := s.storage.LedgerStore().GetOperation(ctx, userID, accountID, operationID)
	if err != nil {
		return nil, err
	}

	err = s.storage.LedgerStore().Update(ctx, func(tx interfaces.LedgerTx) error {
		if status == models.StatusClosed {
			entries, err := tx.ListEntries(op.ID)
			if err != nil {
				return err
			}
			markClosed(op, realizedBalance(entries, op.Direction))
		} else {
			markOpen(op)
		}
		op.UpdatedAt = time.Now().UTC()
		return tx.SaveOperation(op)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info().
		Str("operation_id", op.ID).
		Str("status", string(op.Status)).
		Msg("Operation status set")

	return op, nil
}

// reconcileStatus re-derives the lifecycle state from the entries inside the
// transaction and persists the operation with a fresh UpdatedAt.
func (s *Service) reconcileStatus(tx interfaces.LedgerTx, op *models.Operation) error {
	entries, err := tx.ListEntries(op.ID)
	if err != nil {
		return err
	}
	if shouldClose(entries) {
		markClosed(op, realizedBalance(entries, op.Direction))
	} else {
		markOpen(op)
	}
	op.UpdatedAt = time.Now().UTC()
	return tx.SaveOperation(op)
}

// recordFillPrice appends the fill price to the symbol's price history so the
// ledger has a market observation even before any sync runs.
func recordFillPrice(tx interfaces.LedgerTx, op *models.Operation, entry *models.Entry) error {
	return tx.SavePricePoint(&models.PricePoint{
		ID:        uuid.New().String(),
		SymbolID:  op.SymbolID,
		UserID:    op.UserID,
		AccountID: op.AccountID,
		Price:     entry.Price,
		Date:      entry.Date,
		Source:    models.PriceSourceFill,
		CreatedAt: time.Now().UTC(),
	})
}

func newEntry(operationID string, input models.EntryInput) *models.Entry {
	return &models.Entry{
		ID:          uuid.New().String(),
		OperationID: operationID,
		EntryType:   input.EntryType,
		Quantity:    input.Quantity,
		Price:       input.Price,
		Tax:         input.Tax,
		Date:        input.Date,
		CreatedAt:   time.Now().UTC(),
	}
}

func findEntry(entries []*models.Entry, entryID string) *models.Entry {
	for _, e := range entries {
		if e.ID == entryID {
			return e
		}
	}
	return nil
}

func applyPatch(entry *models.Entry, patch models.EntryPatch) {
	if patch.EntryType != nil {
		entry.EntryType = *patch.EntryType
	}
	if patch.Quantity != nil {
		entry.Quantity = *patch.Quantity
	}
	if patch.Price != nil {
		entry.Price = *patch.Price
	}
	if patch.Tax != nil {
		entry.Tax = *patch.Tax
	}
	if patch.Date != nil {
		entry.Date = *patch.Date
	}
}

func markClosed(op *models.Operation, balance decimal.Decimal) {
	op.Status = models.StatusClosed
	op.Balance = &balance
}

func markOpen(op *models.Operation) {
	op.Status = models.StatusOpen
	op.Balance = nil
}
