package analytics

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/dvalverde/tradevault/internal/models"
	"github.com/dvalverde/tradevault/internal/services/operations"
)

// ledgerView is one query's working set: the account's operations with their
// entries, the symbols they reference with price history, and the cash
// transactions. Loaded once per query so every formula works off the same
// snapshot.
type ledgerView struct {
	operations   []*models.Operation
	entries      map[string][]*models.Entry     // by operation ID, date asc
	symbols      map[string]*models.Symbol      // by symbol ID
	prices       map[string][]*models.PricePoint // by symbol ID, date desc
	transactions []*models.Transaction
}

// loadView reads the account's ledger. The product scope filter applies to
// operations only; transactions are account-level cash and are never scoped.
func (s *Service) loadView(ctx context.Context, q models.AnalyticsQuery) (*ledgerView, error) {
	ledger := s.storage.LedgerStore()

	ops, err := ledger.ListOperations(ctx, q.UserID, q.AccountID, models.OperationFilter{})
	if err != nil {
		return nil, fmt.Errorf("failed to load operations: %w", err)
	}

	view := &ledgerView{
		entries: make(map[string][]*models.Entry),
		symbols: make(map[string]*models.Symbol),
		prices:  make(map[string][]*models.PricePoint),
	}

	for _, op := range ops {
		if !q.Scope.InScope(op.Product) {
			continue
		}
		view.operations = append(view.operations, op)

		entries, err := ledger.ListEntries(ctx, op.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to load entries for %s: %w", op.ID, err)
		}
		view.entries[op.ID] = entries

		if _, seen := view.prices[op.SymbolID]; seen {
			continue
		}
		prices, err := ledger.ListPricePoints(ctx, q.UserID, q.AccountID, op.SymbolID)
		if err != nil {
			return nil, fmt.Errorf("failed to load prices for %s: %w", op.SymbolID, err)
		}
		view.prices[op.SymbolID] = prices
	}

	symbols, err := ledger.ListSymbols(ctx, q.UserID, q.AccountID)
	if err != nil {
		return nil, fmt.Errorf("failed to load symbols: %w", err)
	}
	for _, sym := range symbols {
		view.symbols[sym.ID] = sym
	}

	view.transactions, err = ledger.ListTransactions(ctx, q.UserID, q.AccountID)
	if err != nil {
		return nil, fmt.Errorf("failed to load transactions: %w", err)
	}

	return view, nil
}

// currentPrice is the most recent price point for a symbol, or nil if none.
func (v *ledgerView) currentPrice(symbolID string) *decimal.Decimal {
	points := v.prices[symbolID]
	if len(points) == 0 {
		return nil
	}
	return &points[0].Price
}

// priceAt is the most recent price point with date <= at, or nil.
func (v *ledgerView) priceAt(symbolID string, at time.Time) *decimal.Decimal {
	for _, p := range v.prices[symbolID] {
		if !p.Date.After(at) {
			return &p.Price
		}
	}
	return nil
}

// closeDate is the operation's last-activity date: the most recent entry's
// date, falling back to the updated timestamp for entry-less operations.
func (v *ledgerView) closeDate(op *models.Operation) time.Time {
	entries := v.entries[op.ID]
	if len(entries) == 0 {
		return op.UpdatedAt
	}
	return entries[len(entries)-1].Date
}

// inPeriod reports whether a date falls on or after the cutoff. The zero
// cutoff admits everything.
func inPeriod(date, cutoff time.Time) bool {
	return cutoff.IsZero() || !date.Before(cutoff)
}

// openMetrics runs the metrics calculator for an open operation against the
// symbol's current price. Nil when the price is unknown is carried through.
func (v *ledgerView) openMetrics(op *models.Operation) *models.OperationMetrics {
	return operations.ComputeMetrics(v.entries[op.ID], op.Direction, v.currentPrice(op.SymbolID))
}

// openInvested is the cumulative cost basis of an open operation: buy
// notional minus sell notional, taxes excluded.
func (v *ledgerView) openInvested(op *models.Operation) decimal.Decimal {
	t := operations.Totals(v.entries[op.ID])
	return t.BuyTotal.Sub(t.SellTotal)
}

// earliestActivity is the first entry or transaction date in the view, used
// as the series start for unbounded periods. Zero when the ledger is empty.
func (v *ledgerView) earliestActivity() time.Time {
	var first time.Time
	for _, entries := range v.entries {
		for _, e := range entries {
			if first.IsZero() || e.Date.Before(first) {
				first = e.Date
			}
		}
	}
	for _, tx := range v.transactions {
		if first.IsZero() || tx.Date.Before(first) {
			first = tx.Date
		}
	}
	return first
}

// seriesDates builds the sample dates from start to now at the given step.
// The final sample is always now so the series ends at the present state.
func seriesDates(start, now time.Time, step time.Duration) []time.Time {
	if start.After(now) {
		return nil
	}
	var dates []time.Time
	for d := start; d.Before(now); d = d.Add(step) {
		dates = append(dates, d)
	}
	return append(dates, now)
}
