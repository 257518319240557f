package analytics

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/dvalverde/tradevault/internal/models"
	"github.com/dvalverde/tradevault/internal/services/operations"
)

const seriesDateFormat = "2006-01-02"

// PortfolioEvolution replays the ledger at each sample date: cost basis from
// the entries dated at or before the step, position value from the most
// recent known price at the step (falling back to average buy price when no
// price point exists yet).
func (s *Service) PortfolioEvolution(ctx context.Context, q models.AnalyticsQuery) ([]*models.PortfolioPoint, error) {
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

	series := []*models.PortfolioPoint{}
	for _, at := range seriesDates(start, now, seriesStep(q.Period)) {
		invested, value := view.replayAt(at)
		series = append(series, &models.PortfolioPoint{
			Date:           at.Format(seriesDateFormat),
			TotalInvested:  invested.InexactFloat64(),
			PortfolioValue: value.InexactFloat64(),
			PnL:            value.Sub(invested).InexactFloat64(),
		})
	}

	return series, nil
}

// replayAt computes the cumulative cost basis and mark-to-market value of
// every operation as of the given date.
func (v *ledgerView) replayAt(at time.Time) (invested, value decimal.Decimal) {
	for _, op := range v.operations {
		var asOf []*models.Entry
		for _, e := range v.entries[op.ID] {
			if !e.Date.After(at) {
				asOf = append(asOf, e)
			}
		}
		if len(asOf) == 0 {
			continue
		}

		t := operations.Totals(asOf)
		invested = invested.Add(t.BuyTotal.Sub(t.SellTotal))

		qty := t.BuyQty.Sub(t.SellQty)
		if !qty.IsPositive() {
			continue
		}

		price := v.priceAt(op.SymbolID, at)
		if price == nil && t.BuyQty.IsPositive() {
			avg := t.BuyTotal.Div(t.BuyQty)
			price = &avg
		}
		if price != nil {
			value = value.Add(price.Mul(qty))
		}
	}
	return invested, value
}
