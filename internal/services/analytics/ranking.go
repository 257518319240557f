package analytics

import (
	"context"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/dvalverde/tradevault/internal/models"
)

// SymbolsRanking groups every operation by symbol and ranks the symbols by
// combined P&L, best first. Each row carries a short price sparkline,
// oldest-first, for rendering.
func (s *Service) SymbolsRanking(ctx context.Context, q models.AnalyticsQuery) ([]*models.SymbolPerformance, error) {
	cutoff, err := periodCutoff(q.Period, time.Now().UTC())
	if err != nil {
		return nil, err
	}

	view, err := s.loadView(ctx, q)
	if err != nil {
		return nil, err
	}

	type accum struct {
		realized   decimal.Decimal
		unrealized decimal.Decimal
		invested   decimal.Decimal
		count      int
	}
	bySymbol := make(map[string]*accum)

	for _, op := range view.operations {
		if op.IsClosed() && !inPeriod(view.closeDate(op), cutoff) {
			continue
		}
		acc := bySymbol[op.SymbolID]
		if acc == nil {
			acc = &accum{}
			bySymbol[op.SymbolID] = acc
		}
		acc.count++

		if op.IsClosed() {
			if op.Balance != nil {
				acc.realized = acc.realized.Add(*op.Balance)
			}
			continue
		}

		// Invested is the current exposure (avg buy price × remaining qty),
		// counted only when the position is priceable. It is also the
		// denominator for pnlPercentage.
		if m := view.openMetrics(op); m.UnrealizedPnL != nil {
			acc.invested = acc.invested.Add(m.CurrentInvestment)
			acc.unrealized = acc.unrealized.Add(*m.UnrealizedPnL)
		}
	}

	ranking := make([]*models.SymbolPerformance, 0, len(bySymbol))
	for symbolID, acc := range bySymbol {
		row := &models.SymbolPerformance{
			SymbolID:        symbolID,
			TotalInvested:   acc.invested.InexactFloat64(),
			RealizedPnL:     acc.realized.InexactFloat64(),
			UnrealizedPnL:   acc.unrealized.InexactFloat64(),
			OperationsCount: acc.count,
			SparklineData:   view.sparkline(symbolID, s.config.SparklinePoints),
		}

		total := acc.realized.Add(acc.unrealized)
		row.TotalPnL = total.InexactFloat64()
		if acc.invested.IsPositive() {
			row.PnLPercentage = total.Div(acc.invested).Mul(decimal.NewFromInt(100)).InexactFloat64()
		}

		if sym := view.symbols[symbolID]; sym != nil {
			row.Code = sym.Code
			row.Name = sym.Name
			row.Logo = sym.Logo
			row.Product = sym.Product
		}

		ranking = append(ranking, row)
	}

	sort.Slice(ranking, func(i, j int) bool {
		return ranking[i].TotalPnL > ranking[j].TotalPnL
	})

	return ranking, nil
}

// sparkline returns up to n most recent prices for a symbol, oldest-first.
func (v *ledgerView) sparkline(symbolID string, n int) []float64 {
	points := v.prices[symbolID] // date desc
	if len(points) > n {
		points = points[:n]
	}
	line := make([]float64, len(points))
	for i, p := range points {
		line[len(points)-1-i] = p.Price.InexactFloat64()
	}
	return line
}
