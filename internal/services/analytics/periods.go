package analytics

import (
	"time"

	"github.com/dvalverde/tradevault/internal/models"
)

// periodCutoff maps a period code to a lower-bound date. The zero time means
// unbounded lookback. Day-based codes subtract whole days; month and year
// codes use calendar arithmetic.
func periodCutoff(period string, now time.Time) (time.Time, error) {
	switch period {
	case "", "all":
		return time.Time{}, nil
	case "7d":
		return now.AddDate(0, 0, -7), nil
	case "30d":
		return now.AddDate(0, 0, -30), nil
	case "90d":
		return now.AddDate(0, 0, -90), nil
	case "1m":
		return now.AddDate(0, -1, 0), nil
	case "3m":
		return now.AddDate(0, -3, 0), nil
	case "6m":
		return now.AddDate(0, -6, 0), nil
	case "1y":
		return now.AddDate(-1, 0, 0), nil
	case "5y":
		return now.AddDate(-5, 0, 0), nil
	}
	return time.Time{}, models.NewValidationError("period", "must be one of 7d, 30d, 90d, 1y, all (or 1m, 3m, 6m, 5y)")
}

// seriesStep is the sampling cadence for the time-series queries: daily for
// short windows, weekly for a quarter, monthly beyond that.
func seriesStep(period string) time.Duration {
	switch period {
	case "7d", "30d", "1m":
		return 24 * time.Hour
	case "90d", "3m":
		return 7 * 24 * time.Hour
	}
	return 30 * 24 * time.Hour
}
