// Package operations provides the position lifecycle engine: entry mutations,
// automatic close/reopen, and the per-operation metrics calculations.
package operations

import (
	"github.com/shopspring/decimal"

	"github.com/dvalverde/tradevault/internal/models"
)

// LegTotals aggregates the buy and sell legs of an operation's entries.
// Tax convention: tax is netted into each leg (added to buy cost, subtracted
// from sell proceeds) so realized balance always carries the full tax burden.
type LegTotals struct {
	BuyQty  decimal.Decimal
	SellQty decimal.Decimal

	// Raw notional (quantity × price), before tax.
	BuyTotal  decimal.Decimal
	SellTotal decimal.Decimal

	// Tax-netted legs.
	BuyCost      decimal.Decimal // BuyTotal + buy taxes
	SellProceeds decimal.Decimal // SellTotal - sell taxes
}

// Totals walks the entries once and accumulates both legs.
func Totals(entries []*models.Entry) LegTotals {
	var t LegTotals
	for _, e := range entries {
		notional := e.Quantity.Mul(e.Price)
		switch e.EntryType {
		case models.EntryBuy:
			t.BuyQty = t.BuyQty.Add(e.Quantity)
			t.BuyTotal = t.BuyTotal.Add(notional)
			t.BuyCost = t.BuyCost.Add(notional).Add(e.Tax)
		case models.EntrySell:
			t.SellQty = t.SellQty.Add(e.Quantity)
			t.SellTotal = t.SellTotal.Add(notional)
			t.SellProceeds = t.SellProceeds.Add(notional).Sub(e.Tax)
		}
	}
	return t
}

// shouldClose reports whether the operation is fully unwound: bought and sold
// quantities match exactly and are positive. Decimal equality is exact, no
// epsilon, which is why quantities are never floats.
func shouldClose(entries []*models.Entry) bool {
	t := Totals(entries)
	return t.BuyQty.Equal(t.SellQty) && t.BuyQty.IsPositive()
}

// realizedBalance computes the closed P&L for the given direction. Buys open
// the position and sells unwind it regardless of direction; direction flips
// which side is profit. Tax reduces the balance on both legs.
func realizedBalance(entries []*models.Entry, direction models.Direction) decimal.Decimal {
	t := Totals(entries)
	totalTax := t.BuyCost.Sub(t.BuyTotal).Add(t.SellTotal.Sub(t.SellProceeds))
	if direction == models.DirectionShort {
		return t.BuyTotal.Sub(t.SellTotal).Sub(totalTax)
	}
	return t.SellProceeds.Sub(t.BuyCost)
}

// ComputeMetrics derives point-in-time figures for an open operation.
// currentPrice may be nil when no price history exists; the unrealized fields
// stay nil in that case (and when the position is flat), which callers must
// treat as "unknown", not zero.
func ComputeMetrics(entries []*models.Entry, direction models.Direction, currentPrice *decimal.Decimal) *models.OperationMetrics {
	t := Totals(entries)

	m := &models.OperationMetrics{
		BuyQty:     t.BuyQty,
		SellQty:    t.SellQty,
		CurrentQty: t.BuyQty.Sub(t.SellQty),
	}

	if t.BuyQty.IsPositive() {
		m.AvgBuyPrice = t.BuyTotal.Div(t.BuyQty)
	}
	m.CurrentInvestment = m.AvgBuyPrice.Mul(m.CurrentQty)

	if currentPrice == nil || !m.CurrentQty.IsPositive() {
		return m
	}

	var pnl decimal.Decimal
	if direction == models.DirectionShort {
		pnl = m.AvgBuyPrice.Sub(*currentPrice).Mul(m.CurrentQty)
	} else {
		pnl = currentPrice.Sub(m.AvgBuyPrice).Mul(m.CurrentQty)
	}
	m.UnrealizedPnL = &pnl

	if m.CurrentInvestment.IsPositive() {
		pct := pnl.Div(m.CurrentInvestment).Mul(decimal.NewFromInt(100))
		m.PnLPercentage = &pct
	}

	return m
}
