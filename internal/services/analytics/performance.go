package analytics

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/dvalverde/tradevault/internal/models"
)

// Performance is the global P&L summary: realized results from closed
// operations inside the period plus mark-to-market on everything still open.
// Open positions are current state and ignore the period cutoff.
func (s *Service) Performance(ctx context.Context, q models.AnalyticsQuery) (*models.Performance, error) {
	cutoff, err := periodCutoff(q.Period, time.Now().UTC())
	if err != nil {
		return nil, err
	}

	view, err := s.loadView(ctx, q)
	if err != nil {
		return nil, err
	}

	var realized decimal.Decimal
	var wins, losses, closedCount int
	for _, op := range view.operations {
		if !op.IsClosed() || op.Balance == nil {
			continue
		}
		if !inPeriod(view.closeDate(op), cutoff) {
			continue
		}
		closedCount++
		realized = realized.Add(*op.Balance)
		switch {
		case op.Balance.IsPositive():
			wins++
		case op.Balance.IsNegative():
			losses++
		}
	}

	var unrealized, openInvestment decimal.Decimal
	for _, op := range view.operations {
		if op.IsClosed() {
			continue
		}
		m := view.openMetrics(op)
		if m.UnrealizedPnL == nil {
			continue
		}
		unrealized = unrealized.Add(*m.UnrealizedPnL)
		openInvestment = openInvestment.Add(m.CurrentInvestment)
	}

	total := realized.Add(unrealized)

	perf := &models.Performance{
		RealizedPnL:       realized.InexactFloat64(),
		UnrealizedPnL:     unrealized.InexactFloat64(),
		TotalPnL:          total.InexactFloat64(),
		WinningOperations: wins,
		LosingOperations:  losses,
	}
	if closedCount > 0 {
		perf.WinRate = float64(wins) / float64(closedCount) * 100
	}
	if openInvestment.IsPositive() {
		perf.TotalPnLPercentage = total.Div(openInvestment).Mul(decimal.NewFromInt(100)).InexactFloat64()
	}

	return perf, nil
}
