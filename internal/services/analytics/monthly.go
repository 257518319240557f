package analytics

import (
	"context"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/dvalverde/tradevault/internal/models"
)

// MonthlyPerformance buckets closed operations by the calendar month of
// their close date, oldest month first.
func (s *Service) MonthlyPerformance(ctx context.Context, q models.AnalyticsQuery) ([]*models.MonthlyPerformance, error) {
	cutoff, err := periodCutoff(q.Period, time.Now().UTC())
	if err != nil {
		return nil, err
	}

	view, err := s.loadView(ctx, q)
	if err != nil {
		return nil, err
	}

	type bucket struct {
		pnl   decimal.Decimal
		count int
		wins  int
	}
	byMonth := make(map[string]*bucket)

	for _, op := range view.operations {
		if !op.IsClosed() || op.Balance == nil {
			continue
		}
		closed := view.closeDate(op)
		if !inPeriod(closed, cutoff) {
			continue
		}

		month := closed.Format("2006-01")
		b := byMonth[month]
		if b == nil {
			b = &bucket{}
			byMonth[month] = b
		}
		b.pnl = b.pnl.Add(*op.Balance)
		b.count++
		if op.Balance.IsPositive() {
			b.wins++
		}
	}

	months := make([]*models.MonthlyPerformance, 0, len(byMonth))
	for month, b := range byMonth {
		year, _ := time.Parse("2006-01", month)
		months = append(months, &models.MonthlyPerformance{
			Month:            month,
			Year:             year.Year(),
			PnL:              b.pnl.InexactFloat64(),
			OperationsClosed: b.count,
			WinRate:          float64(b.wins) / float64(b.count) * 100,
		})
	}

	sort.Slice(months, func(i, j int) bool {
		return months[i].Month < months[j].Month
	})

	return months, nil
}
