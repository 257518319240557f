package analytics

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/dvalverde/tradevault/internal/models"
)

// AccountBalance reports the account's cash and open-investment breakdown.
// It always covers the whole ledger: cash and open positions are current
// state, not period-bound flows, and the product scope is reported as the
// trading/etf split rather than used as a filter.
func (s *Service) AccountBalance(ctx context.Context, q models.AnalyticsQuery) (*models.AccountBalance, error) {
	q.Scope = models.ScopeAll
	view, err := s.loadView(ctx, q)
	if err != nil {
		return nil, err
	}

	var fromTransactions decimal.Decimal
	for _, tx := range view.transactions {
		fromTransactions = fromTransactions.Add(tx.Amount)
	}

	var investedTrading, investedEtf decimal.Decimal
	var pnlTrading, pnlEtf decimal.Decimal
	for _, op := range view.operations {
		if op.IsClosed() {
			continue
		}
		invested := view.openInvested(op)

		var pnl decimal.Decimal
		if m := view.openMetrics(op); m.UnrealizedPnL != nil {
			pnl = *m.UnrealizedPnL
		}

		if op.Product == models.ProductETF {
			investedEtf = investedEtf.Add(invested)
			pnlEtf = pnlEtf.Add(pnl)
		} else {
			investedTrading = investedTrading.Add(invested)
			pnlTrading = pnlTrading.Add(pnl)
		}
	}

	totalInvested := investedTrading.Add(investedEtf)
	totalOpenPnL := pnlTrading.Add(pnlEtf)

	return &models.AccountBalance{
		TotalFromTransactions: fromTransactions.InexactFloat64(),
		TotalInvested:         totalInvested.InexactFloat64(),
		AvailableCash:         fromTransactions.Sub(totalInvested).InexactFloat64(),
		InvestedTrading:       investedTrading.InexactFloat64(),
		InvestedEtf:           investedEtf.InexactFloat64(),
		OpenPnLTrading:        pnlTrading.InexactFloat64(),
		OpenPnLEtf:            pnlEtf.InexactFloat64(),
		TotalOpenPnL:          totalOpenPnL.InexactFloat64(),
		TotalOpenValue:        totalInvested.Add(totalOpenPnL).InexactFloat64(),
	}, nil
}
