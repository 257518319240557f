// Package interfaces defines service contracts for tradevault
package interfaces

import (
	"context"

	"github.com/dvalverde/tradevault/internal/models"
)

// StorageManager coordinates the two storage areas.
type StorageManager interface {
	InternalStore() InternalStore
	LedgerStore() LedgerStore

	Close() error
}

// InternalStore manages users, accounts, and system-level KV.
type InternalStore interface {
	// Users
	GetUser(ctx context.Context, userID string) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	SaveUser(ctx context.Context, user *models.User) error
	DeleteUser(ctx context.Context, userID string) error

	// Accounts
	GetAccount(ctx context.Context, userID, accountID string) (*models.Account, error)
	SaveAccount(ctx context.Context, account *models.Account) error
	DeleteAccount(ctx context.Context, userID, accountID string) error
	ListAccounts(ctx context.Context, userID string) ([]*models.Account, error)

	// System key-value
	GetSystemKV(ctx context.Context, key string) (string, error)
	SetSystemKV(ctx context.Context, key, value string) error

	Close() error
}

// LedgerStore manages operations, entries, price history, transactions, and
// symbols. All reads are scoped by user and account; a record outside the
// given scope behaves as absent.
type LedgerStore interface {
	// Operations
	GetOperation(ctx context.Context, userID, accountID, operationID string) (*models.Operation, error)
	ListOperations(ctx context.Context, userID, accountID string, filter models.OperationFilter) ([]*models.Operation, error)
	// ListOpenOperationsAllAccounts is the sync sweep's view: open operations
	// across every user and account.
	ListOpenOperationsAllAccounts(ctx context.Context) ([]*models.Operation, error)
	SaveOperation(ctx context.Context, op *models.Operation) error
	DeleteOperation(ctx context.Context, userID, accountID, operationID string) error

	// Entries
	GetEntry(ctx context.Context, operationID, entryID string) (*models.Entry, error)
	ListEntries(ctx context.Context, operationID string) ([]*models.Entry, error)
	SaveEntry(ctx context.Context, entry *models.Entry) error
	DeleteEntry(ctx context.Context, operationID, entryID string) error

	// Price history
	GetPricePoint(ctx context.Context, symbolID, priceID string) (*models.PricePoint, error)
	ListPricePoints(ctx context.Context, userID, accountID, symbolID string) ([]*models.PricePoint, error)
	SavePricePoint(ctx context.Context, point *models.PricePoint) error
	DeletePricePoint(ctx context.Context, symbolID, priceID string) error

	// Transactions
	ListTransactions(ctx context.Context, userID, accountID string) ([]*models.Transaction, error)
	SaveTransaction(ctx context.Context, tx *models.Transaction) error
	DeleteTransaction(ctx context.Context, userID, accountID, transactionID string) error

	// Symbols
	GetSymbol(ctx context.Context, userID, accountID, symbolID string) (*models.Symbol, error)
	GetSymbolByCode(ctx context.Context, userID, accountID, code string) (*models.Symbol, error)
	ListSymbols(ctx context.Context, userID, accountID string) ([]*models.Symbol, error)
	SaveSymbol(ctx context.Context, symbol *models.Symbol) error
	DeleteSymbol(ctx context.Context, userID, accountID, symbolID string) error

	// Update runs fn inside a single write transaction. Mutations made through
	// the LedgerTx are committed atomically; any error rolls everything back.
	// Entry mutation + closure evaluation + balance write go through this.
	Update(ctx context.Context, fn func(tx LedgerTx) error) error

	Close() error
}

// LedgerTx exposes transactional mutations inside LedgerStore.Update.
type LedgerTx interface {
	SaveOperation(op *models.Operation) error
	DeleteOperation(userID, accountID, operationID string) error
	SaveEntry(entry *models.Entry) error
	DeleteEntry(operationID, entryID string) error
	ListEntries(operationID string) ([]*models.Entry, error)
	SavePricePoint(point *models.PricePoint) error
}
