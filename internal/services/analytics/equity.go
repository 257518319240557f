package analytics

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/dvalverde/tradevault/internal/models"
)

// EquityCurve tracks realized equity over time: cumulative cash flow plus
// cumulative closed balances at each sample date, with deposit and
// withdrawal running totals alongside.
func (s *Service) EquityCurve(ctx context.Context, q models.AnalyticsQuery) ([]*models.EquityPoint, error) {
	now := time.Now().UTC()
	cutoff, err := periodCutoff(q.Period, now)
	if err != nil {
		return nil, err
	}

	view, err := s.loadView(ctx, q)
	if err != nil {
		return nil, err
	}

	start := cutoff
	if start.IsZero() {
		start = view.earliestActivity()
		if start.IsZero() {
			start = now
		}
	}

	series := []*models.EquityPoint{}
	for _, at := range seriesDates(start, now, seriesStep(q.Period)) {
		var cash, deposits, withdrawals decimal.Decimal
		for _, tx := range view.transactions {
			if tx.Date.After(at) {
				continue
			}
			cash = cash.Add(tx.Amount)
			if tx.Amount.IsPositive() {
				deposits = deposits.Add(tx.Amount)
			} else {
				withdrawals = withdrawals.Add(tx.Amount.Abs())
			}
		}

		var realized decimal.Decimal
		for _, op := range view.operations {
			if !op.IsClosed() || op.Balance == nil {
				continue
			}
			if view.closeDate(op).After(at) {
				continue
			}
			realized = realized.Add(*op.Balance)
		}

		series = append(series, &models.EquityPoint{
			Date:        at.Format(seriesDateFormat),
			Equity:      cash.Add(realized).InexactFloat64(),
			Deposits:    deposits.InexactFloat64(),
			Withdrawals: withdrawals.InexactFloat64(),
			PnL:         realized.InexactFloat64(),
		})
	}

	return series, nil
}
