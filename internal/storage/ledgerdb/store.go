// Package ledgerdb implements LedgerStore using BadgerHold. It holds the
// ledger proper: operations, entries, price history, transactions, and
// symbols, all scoped by user and account.
package ledgerdb

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"
	"time"

	badger "github.com/dgraph-io/badger/v4"
	"github.com/timshannon/badgerhold/v4"

	"github.com/dvalverde/tradevault/internal/common"
	"github.com/dvalverde/tradevault/internal/interfaces"
	"github.com/dvalverde/tradevault/internal/models"
)

// Store implements interfaces.LedgerStore using BadgerHold.
type Store struct {
	db     *badgerhold.Store
	logger *common.Logger
}

// NewStore creates a new LedgerStore backed by BadgerHold.
func NewStore(logger *common.Logger, path string) (*Store, error) {
	if err := os.MkdirAll(path, 0755); err != nil {
		return nil, fmt.Errorf("failed to create ledger db path %s: %w", path, err)
	}
	opts := badgerhold.DefaultOptions
	opts.Dir = path
	opts.ValueDir = path
	opts.Logger = nil
	db, err := badgerhold.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open ledger db at %s: %w", path, err)
	}
	logger.Info().Str("path", path).Msg("LedgerDB opened")
	return &Store{db: db, logger: logger}, nil
}

// --- Operations ---

func (s *Store) GetOperation(_ context.Context, userID, accountID, operationID string) (*models.Operation, error) {
	var op models.Operation
	if err := s.db.Get(operationID, &op); err != nil {
		if err == badgerhold.ErrNotFound {
			return nil, fmt.Errorf("operation '%s': %w", operationID, models.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get operation '%s': %w", operationID, err)
	}
	// Out-of-scope records behave as absent.
	if op.UserID != userID || op.AccountID != accountID {
		return nil, fmt.Errorf("operation '%s': %w", operationID, models.ErrNotFound)
	}
	return &op, nil
}

func (s *Store) ListOperations(_ context.Context, userID, accountID string, filter models.OperationFilter) ([]*models.Operation, error) {
	query := badgerhold.Where("UserID").Eq(userID).And("AccountID").Eq(accountID)
	if filter.Status != "" {
		query = query.And("Status").Eq(filter.Status)
	}
	if filter.Product != "" {
		query = query.And("Product").Eq(filter.Product)
	}
	if filter.SymbolID != "" {
		query = query.And("SymbolID").Eq(filter.SymbolID)
	}

	var ops []models.Operation
	if err := s.db.Find(&ops, query); err != nil {
		return nil, fmt.Errorf("failed to list operations: %w", err)
	}
	result := make([]*models.Operation, len(ops))
	for i := range ops {
		result[i] = &ops[i]
	}
	// Newest first, matching the listing endpoint contract.
	sort.Slice(result, func(i, j int) bool {
		return result[i].CreatedAt.After(result[j].CreatedAt)
	})
	return result, nil
}

// ListOpenOperationsAllAccounts returns every open operation regardless of
// scope. Used only by the market price sync sweep.
func (s *Store) ListOpenOperationsAllAccounts(_ context.Context) ([]*models.Operation, error) {
	var ops []models.Operation
	if err := s.db.Find(&ops, badgerhold.Where("Status").Eq(models.StatusOpen)); err != nil {
		return nil, fmt.Errorf("failed to list open operations: %w", err)
	}
	result := make([]*models.Operation, len(ops))
	for i := range ops {
		result[i] = &ops[i]
	}
	return result, nil
}

func (s *Store) SaveOperation(_ context.Context, op *models.Operation) error {
	touchOperation(op)
	if err := s.db.Upsert(op.ID, op); err != nil {
		return fmt.Errorf("failed to save operation '%s': %w", op.ID, err)
	}
	return nil
}

// DeleteOperation removes the operation and cascades to its entries.
func (s *Store) DeleteOperation(ctx context.Context, userID, accountID, operationID string) error {
	if _, err := s.GetOperation(ctx, userID, accountID, operationID); err != nil {
		return err
	}
	return s.db.Badger().Update(func(btx *badger.Txn) error {
		var entries []models.Entry
		if err := s.db.TxFind(btx, &entries, badgerhold.Where("OperationID").Eq(operationID)); err != nil {
			return fmt.Errorf("failed to find entries for cascade: %w", err)
		}
		for _, e := range entries {
			if err := s.db.TxDelete(btx, e.ID, models.Entry{}); err != nil && err != badgerhold.ErrNotFound {
				return fmt.Errorf("failed to cascade entry '%s': %w", e.ID, err)
			}
		}
		if err := s.db.TxDelete(btx, operationID, models.Operation{}); err != nil {
			return fmt.Errorf("failed to delete operation '%s': %w", operationID, err)
		}
		return nil
	})
}

// --- Entries ---

func (s *Store) GetEntry(_ context.Context, operationID, entryID string) (*models.Entry, error) {
	var entry models.Entry
	if err := s.db.Get(entryID, &entry); err != nil {
		if err == badgerhold.ErrNotFound {
			return nil, fmt.Errorf("entry '%s': %w", entryID, models.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get entry '%s': %w", entryID, err)
	}
	if entry.OperationID != operationID {
		return nil, fmt.Errorf("entry '%s': %w", entryID, models.ErrNotFound)
	}
	return &entry, nil
}

func (s *Store) ListEntries(_ context.Context, operationID string) ([]*models.Entry, error) {
	var entries []models.Entry
	if err := s.db.Find(&entries, badgerhold.Where("OperationID").Eq(operationID)); err != nil {
		return nil, fmt.Errorf("failed to list entries: %w", err)
	}
	return sortEntries(entries), nil
}

func (s *Store) SaveEntry(_ context.Context, entry *models.Entry) error {
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now()
	}
	if err := s.db.Upsert(entry.ID, entry); err != nil {
		return fmt.Errorf("failed to save entry '%s': %w", entry.ID, err)
	}
	return nil
}

func (s *Store) DeleteEntry(ctx context.Context, operationID, entryID string) error {
	if _, err := s.GetEntry(ctx, operationID, entryID); err != nil {
		return err
	}
	if err := s.db.Delete(entryID, models.Entry{}); err != nil && err != badgerhold.ErrNotFound {
		return fmt.Errorf("failed to delete entry '%s': %w", entryID, err)
	}
	return nil
}

// --- Price history ---

func (s *Store) GetPricePoint(_ context.Context, symbolID, priceID string) (*models.PricePoint, error) {
	var point models.PricePoint
	if err := s.db.Get(priceID, &point); err != nil {
		if err == badgerhold.ErrNotFound {
			return nil, fmt.Errorf("price '%s': %w", priceID, models.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get price '%s': %w", priceID, err)
	}
	if point.SymbolID != symbolID {
		return nil, fmt.Errorf("price '%s': %w", priceID, models.ErrNotFound)
	}
	return &point, nil
}

func (s *Store) ListPricePoints(_ context.Context, userID, accountID, symbolID string) ([]*models.PricePoint, error) {
	var points []models.PricePoint
	query := badgerhold.Where("SymbolID").Eq(symbolID).
		And("UserID").Eq(userID).
		And("AccountID").Eq(accountID)
	if err := s.db.Find(&points, query); err != nil {
		return nil, fmt.Errorf("failed to list prices: %w", err)
	}
	result := make([]*models.PricePoint, len(points))
	for i := range points {
		result[i] = &points[i]
	}
	// Most recent first; the head is the symbol's current price.
	sort.Slice(result, func(i, j int) bool {
		return result[i].Date.After(result[j].Date)
	})
	return result, nil
}

func (s *Store) SavePricePoint(_ context.Context, point *models.PricePoint) error {
	if point.CreatedAt.IsZero() {
		point.CreatedAt = time.Now()
	}
	if err := s.db.Upsert(point.ID, point); err != nil {
		return fmt.Errorf("failed to save price '%s': %w", point.ID, err)
	}
	return nil
}

func (s *Store) DeletePricePoint(ctx context.Context, symbolID, priceID string) error {
	if _, err := s.GetPricePoint(ctx, symbolID, priceID); err != nil {
		return err
	}
	if err := s.db.Delete(priceID, models.PricePoint{}); err != nil && err != badgerhold.ErrNotFound {
		return fmt.Errorf("failed to delete price '%s': %w", priceID, err)
	}
	return nil
}

// --- Transactions ---

func (s *Store) ListTransactions(_ context.Context, userID, accountID string) ([]*models.Transaction, error) {
	var txs []models.Transaction
	query := badgerhold.Where("UserID").Eq(userID).And("AccountID").Eq(accountID)
	if err := s.db.Find(&txs, query); err != nil {
		return nil, fmt.Errorf("failed to list transactions: %w", err)
	}
	result := make([]*models.Transaction, len(txs))
	for i := range txs {
		result[i] = &txs[i]
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].Date.After(result[j].Date)
	})
	return result, nil
}

func (s *Store) SaveTransaction(_ context.Context, tx *models.Transaction) error {
	if tx.CreatedAt.IsZero() {
		tx.CreatedAt = time.Now()
	}
	if err := s.db.Upsert(tx.ID, tx); err != nil {
		return fmt.Errorf("failed to save transaction '%s': %w", tx.ID, err)
	}
	return nil
}

func (s *Store) DeleteTransaction(_ context.Context, userID, accountID, transactionID string) error {
	var tx models.Transaction
	if err := s.db.Get(transactionID, &tx); err != nil {
		if err == badgerhold.ErrNotFound {
			return fmt.Errorf("transaction '%s': %w", transactionID, models.ErrNotFound)
		}
		return fmt.Errorf("failed to get transaction '%s': %w", transactionID, err)
	}
	if tx.UserID != userID || tx.AccountID != accountID {
		return fmt.Errorf("transaction '%s': %w", transactionID, models.ErrNotFound)
	}
	if err := s.db.Delete(transactionID, models.Transaction{}); err != nil && err != badgerhold.ErrNotFound {
		return fmt.Errorf("failed to delete transaction '%s': %w", transactionID, err)
	}
	return nil
}

// --- Symbols ---

func (s *Store) GetSymbol(_ context.Context, userID, accountID, symbolID string) (*models.Symbol, error) {
	var symbol models.Symbol
	if err := s.db.Get(symbolID, &symbol); err != nil {
		if err == badgerhold.ErrNotFound {
			return nil, fmt.Errorf("symbol '%s': %w", symbolID, models.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get symbol '%s': %w", symbolID, err)
	}
	if symbol.UserID != userID || symbol.AccountID != accountID {
		return nil, fmt.Errorf("symbol '%s': %w", symbolID, models.ErrNotFound)
	}
	return &symbol, nil
}

func (s *Store) GetSymbolByCode(_ context.Context, userID, accountID, code string) (*models.Symbol, error) {
	var symbols []models.Symbol
	query := badgerhold.Where("UserID").Eq(userID).
		And("AccountID").Eq(accountID).
		And("Code").Eq(code)
	if err := s.db.Find(&symbols, query); err != nil {
		return nil, fmt.Errorf("failed to find symbol by code: %w", err)
	}
	if len(symbols) == 0 {
		return nil, fmt.Errorf("symbol '%s': %w", code, models.ErrNotFound)
	}
	return &symbols[0], nil
}

func (s *Store) ListSymbols(_ context.Context, userID, accountID string) ([]*models.Symbol, error) {
	var symbols []models.Symbol
	query := badgerhold.Where("UserID").Eq(userID).And("AccountID").Eq(accountID)
	if err := s.db.Find(&symbols, query); err != nil {
		return nil, fmt.Errorf("failed to list symbols: %w", err)
	}
	result := make([]*models.Symbol, len(symbols))
	for i := range symbols {
		result[i] = &symbols[i]
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].SortOrder != result[j].SortOrder {
			return result[i].SortOrder < result[j].SortOrder
		}
		return strings.Compare(result[i].Code, result[j].Code) < 0
	})
	return result, nil
}

func (s *Store) SaveSymbol(_ context.Context, symbol *models.Symbol) error {
	now := time.Now()
	var existing models.Symbol
	if err := s.db.Get(symbol.ID, &existing); err == nil {
		symbol.CreatedAt = existing.CreatedAt
	} else if symbol.CreatedAt.IsZero() {
		symbol.CreatedAt = now
	}
	symbol.UpdatedAt = now
	if err := s.db.Upsert(symbol.ID, symbol); err != nil {
		return fmt.Errorf("failed to save symbol '%s': %w", symbol.ID, err)
	}
	return nil
}

func (s *Store) DeleteSymbol(ctx context.Context, userID, accountID, symbolID string) error {
	if _, err := s.GetSymbol(ctx, userID, accountID, symbolID); err != nil {
		return err
	}
	return s.db.Badger().Update(func(btx *badger.Txn) error {
		var points []models.PricePoint
		if err := s.db.TxFind(btx, &points, badgerhold.Where("SymbolID").Eq(symbolID)); err != nil {
			return fmt.Errorf("failed to find prices for cascade: %w", err)
		}
		for _, p := range points {
			if err := s.db.TxDelete(btx, p.ID, models.PricePoint{}); err != nil && err != badgerhold.ErrNotFound {
				return fmt.Errorf("failed to cascade price '%s': %w", p.ID, err)
			}
		}
		if err := s.db.TxDelete(btx, symbolID, models.Symbol{}); err != nil {
			return fmt.Errorf("failed to delete symbol '%s': %w", symbolID, err)
		}
		return nil
	})
}

// --- Write transactions ---

// Update runs fn inside a single badger write transaction. Badger aborts the
// second of two conflicting writers at commit, so concurrent entry mutations
// against one operation cannot interleave between closure evaluation and the
// balance write. The aborted writer is re-run against the committed state:
// fn is a read-compute-write unit, so replaying it recomputes the closure
// from the latest rows instead of surfacing the conflict to the caller.
func (s *Store) Update(_ context.Context, fn func(tx interfaces.LedgerTx) error) error {
	run := func() error {
		return s.db.Badger().Update(func(btx *badger.Txn) error {
			return fn(&ledgerTx{store: s, btx: btx})
		})
	}
	err := run()
	if errors.Is(err, badger.ErrConflict) {
		err = run()
	}
	return err
}

// ledgerTx implements interfaces.LedgerTx over a badger write transaction.
type ledgerTx struct {
	store *Store
	btx   *badger.Txn
}

func (t *ledgerTx) SaveOperation(op *models.Operation) error {
	touchOperation(op)
	if err := t.store.db.TxUpsert(t.btx, op.ID, op); err != nil {
		return fmt.Errorf("failed to save operation '%s': %w", op.ID, err)
	}
	return nil
}

func (t *ledgerTx) DeleteOperation(userID, accountID, operationID string) error {
	var op models.Operation
	if err := t.store.db.TxGet(t.btx, operationID, &op); err != nil {
		if err == badgerhold.ErrNotFound {
			return fmt.Errorf("operation '%s': %w", operationID, models.ErrNotFound)
		}
		return fmt.Errorf("failed to get operation '%s': %w", operationID, err)
	}
	if op.UserID != userID || op.AccountID != accountID {
		return fmt.Errorf("operation '%s': %w", operationID, models.ErrNotFound)
	}
	if err := t.store.db.TxDelete(t.btx, operationID, models.Operation{}); err != nil {
		return fmt.Errorf("failed to delete operation '%s': %w", operationID, err)
	}
	return nil
}

func (t *ledgerTx) SaveEntry(entry *models.Entry) error {
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now()
	}
	if err := t.store.db.TxUpsert(t.btx, entry.ID, entry); err != nil {
		return fmt.Errorf("failed to save entry '%s': %w", entry.ID, err)
	}
	return nil
}

func (t *ledgerTx) DeleteEntry(operationID, entryID string) error {
	var entry models.Entry
	if err := t.store.db.TxGet(t.btx, entryID, &entry); err != nil {
		if err == badgerhold.ErrNotFound {
			return fmt.Errorf("entry '%s': %w", entryID, models.ErrNotFound)
		}
		return fmt.Errorf("failed to get entry '%s': %w", entryID, err)
	}
	if entry.OperationID != operationID {
		return fmt.Errorf("entry '%s': %w", entryID, models.ErrNotFound)
	}
	if err := t.store.db.TxDelete(t.btx, entryID, models.Entry{}); err != nil {
		return fmt.Errorf("failed to delete entry '%s': %w", entryID, err)
	}
	return nil
}

func (t *ledgerTx) ListEntries(operationID string) ([]*models.Entry, error) {
	var entries []models.Entry
	if err := t.store.db.TxFind(t.btx, &entries, badgerhold.Where("OperationID").Eq(operationID)); err != nil {
		return nil, fmt.Errorf("failed to list entries: %w", err)
	}
	return sortEntries(entries), nil
}

func (t *ledgerTx) SavePricePoint(point *models.PricePoint) error {
	if point.CreatedAt.IsZero() {
		point.CreatedAt = time.Now()
	}
	if err := t.store.db.TxUpsert(t.btx, point.ID, point); err != nil {
		return fmt.Errorf("failed to save price '%s': %w", point.ID, err)
	}
	return nil
}

// --- helpers ---

func touchOperation(op *models.Operation) {
	now := time.Now()
	if op.CreatedAt.IsZero() {
		op.CreatedAt = now
	}
	op.UpdatedAt = now
}

// sortEntries orders entries date ascending (creation time as tiebreaker).
func sortEntries(entries []models.Entry) []*models.Entry {
	result := make([]*models.Entry, len(entries))
	for i := range entries {
		result[i] = &entries[i]
	}
	sort.Slice(result, func(i, j int) bool {
		if !result[i].Date.Equal(result[j].Date) {
			return result[i].Date.Before(result[j].Date)
		}
		return result[i].CreatedAt.Before(result[j].CreatedAt)
	})
	return result
}

func (s *Store) Close() error {
	return s.db.Close()
}
