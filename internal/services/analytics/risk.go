package analytics

import (
	"context"
	"math"
	"sort"
	"time"

	"github.com/dvalverde/tradevault/internal/models"
)

// profitFactorCap stands in for "no losing trades yet": wins divided by zero
// losses has no meaningful value, so the factor saturates.
const profitFactorCap = 999

// RiskMetrics summarizes closed-operation risk for the period. An account
// with no closed operations in the period gets the all-zero struct; that is
// the answer, not an error.
func (s *Service) RiskMetrics(ctx context.Context, q models.AnalyticsQuery) (*models.RiskMetrics, error) {
	cutoff, err := periodCutoff(q.Period, time.Now().UTC())
	if err != nil {
		return nil, err
	}

	view, err := s.loadView(ctx, q)
	if err != nil {
		return nil, err
	}

	type closedOp struct {
		balance float64
		date    time.Time
	}
	var closed []closedOp
	for _, op := range view.operations {
		if !op.IsClosed() || op.Balance == nil {
			continue
		}
		date := view.closeDate(op)
		if !inPeriod(date, cutoff) {
			continue
		}
		closed = append(closed, closedOp{balance: op.Balance.InexactFloat64(), date: date})
	}

	metrics := &models.RiskMetrics{}
	if len(closed) == 0 {
		return metrics, nil
	}

	var totalWins, totalLosses, sum float64
	var winCount, lossCount int
	for _, c := range closed {
		sum += c.balance
		switch {
		case c.balance > 0:
			totalWins += c.balance
			winCount++
			if c.balance > metrics.LargestWin {
				metrics.LargestWin = c.balance
			}
		case c.balance < 0:
			totalLosses += -c.balance
			lossCount++
			if -c.balance > metrics.LargestLoss {
				metrics.LargestLoss = -c.balance
			}
		}
	}

	if winCount > 0 {
		metrics.AvgWin = totalWins / float64(winCount)
	}
	if lossCount > 0 {
		metrics.AvgLoss = totalLosses / float64(lossCount)
	}

	switch {
	case totalWins > 0 && totalLosses == 0:
		metrics.ProfitFactor = profitFactorCap
	case totalLosses > 0:
		metrics.ProfitFactor = totalWins / totalLosses
	}

	mean := sum / float64(len(closed))
	var variance float64
	for _, c := range closed {
		d := c.balance - mean
		variance += d * d
	}
	stddev := math.Sqrt(variance / float64(len(closed)))
	if stddev > 0 {
		metrics.SharpeRatio = mean / stddev
	}

	// Replay in close order, tracking peak-to-trough decline in running
	// equity.
	sort.Slice(closed, func(i, j int) bool { return closed[i].date.Before(closed[j].date) })
	var equity, peak float64
	for _, c := range closed {
		equity += c.balance
		if equity > peak {
			peak = equity
		}
		drawdown := peak - equity
		if drawdown > metrics.MaxDrawdown {
			metrics.MaxDrawdown = drawdown
			if peak > 0 {
				metrics.MaxDrawdownPercentage = drawdown / peak * 100
			}
		}
	}

	return metrics, nil
}
