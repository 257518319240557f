// Package interfaces defines service contracts for tradevault
package interfaces

import (
	"context"

	"github.com/dvalverde/tradevault/internal/models"
)

// OperationService owns the position lifecycle: creation, entry mutations,
// automatic close/reopen, and manual status overrides.
type OperationService interface {
	Create(ctx context.Context, userID, accountID string, input models.NewOperationInput) (*models.Operation, error)
	List(ctx context.Context, userID, accountID string, filter models.OperationFilter) ([]*models.Operation, error)
	Get(ctx context.Context, userID, accountID, operationID string) (*models.OperationDetail, error)
	Remove(ctx context.Context, userID, accountID, operationID string) error

	AddEntry(ctx context.Context, userID, accountID, operationID string, input models.EntryInput) (*models.Operation, error)
	UpdateEntry(ctx context.Context, userID, accountID, operationID, entryID string, patch models.EntryPatch) (*models.Operation, error)
	RemoveEntry(ctx context.Context, userID, accountID, operationID, entryID string) (*models.Operation, error)

	SetStatus(ctx context.Context, userID, accountID, operationID string, status models.OperationStatus) (*models.Operation, error)
}

// AnalyticsService computes the dashboard queries in real time from ledger rows.
type AnalyticsService interface {
	AccountBalance(ctx context.Context, q models.AnalyticsQuery) (*models.AccountBalance, error)
	Performance(ctx context.Context, q models.AnalyticsQuery) (*models.Performance, error)
	SymbolsRanking(ctx context.Context, q models.AnalyticsQuery) ([]*models.SymbolPerformance, error)
	ProductDistribution(ctx context.Context, q models.AnalyticsQuery) ([]*models.ProductDistribution, error)
	PortfolioEvolution(ctx context.Context, q models.AnalyticsQuery) ([]*models.PortfolioPoint, error)
	MonthlyPerformance(ctx context.Context, q models.AnalyticsQuery) ([]*models.MonthlyPerformance, error)
	EquityCurve(ctx context.Context, q models.AnalyticsQuery) ([]*models.EquityPoint, error)
	RiskMetrics(ctx context.Context, q models.AnalyticsQuery) (*models.RiskMetrics, error)

	// Dashboard fans out all queries concurrently and merges the results.
	Dashboard(ctx context.Context, q models.AnalyticsQuery) (*models.Dashboard, error)

	// Chart renders. Raw PNG bytes.
	RenderEquityChart(ctx context.Context, q models.AnalyticsQuery) ([]byte, error)
	RenderEvolutionChart(ctx context.Context, q models.AnalyticsQuery) ([]byte, error)
}

// SymbolService manages symbols and their price history.
type SymbolService interface {
	Create(ctx context.Context, userID, accountID string, input models.NewSymbolInput) (*models.Symbol, error)
	List(ctx context.Context, userID, accountID string) ([]*models.Symbol, error)
	Search(ctx context.Context, userID, accountID, query string) ([]*models.Symbol, error)
	Get(ctx context.Context, userID, accountID, symbolID string) (*models.Symbol, error)
	Update(ctx context.Context, userID, accountID, symbolID string, patch models.SymbolPatch) (*models.Symbol, error)
	Remove(ctx context.Context, userID, accountID, symbolID string) error
	Reorder(ctx context.Context, userID, accountID string, symbolIDs []string) error

	AddPrice(ctx context.Context, userID, accountID, symbolID string, input models.PricePointInput) (*models.PricePoint, error)
	ListPrices(ctx context.Context, userID, accountID, symbolID string) ([]*models.PricePoint, error)
	UpdatePrice(ctx context.Context, userID, accountID, symbolID, priceID string, input models.PricePointInput) (*models.PricePoint, error)
	RemovePrice(ctx context.Context, userID, accountID, symbolID, priceID string) error

	// SyncMarketPrice fetches the latest quote for one symbol and appends it
	// to price history. Duplicate (date, price) pairs are skipped.
	SyncMarketPrice(ctx context.Context, userID, accountID, symbolID string) (*models.PricePoint, error)

	// SyncOpenOperationPrices refreshes every symbol referenced by an open
	// operation. Per-symbol failures are recorded and do not abort the sweep.
	SyncOpenOperationPrices(ctx context.Context) error
}

// TransactionService manages cash deposits and withdrawals.
type TransactionService interface {
	List(ctx context.Context, userID, accountID string) ([]*models.Transaction, error)
	Create(ctx context.Context, userID, accountID string, input models.NewTransactionInput) (*models.Transaction, error)
	Remove(ctx context.Context, userID, accountID, transactionID string) error
}
