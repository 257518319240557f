package operations

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/dvalverde/tradevault/internal/models"
)

func d(s string) decimal.Decimal {
	v, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return v
}

func fill(entryType models.EntryType, qty, price, tax string) *models.Entry {
	return &models.Entry{
		ID:        qty + price + tax + string(entryType),
		EntryType: entryType,
		Quantity:  d(qty),
		Price:     d(price),
		Tax:       d(tax),
		Date:      time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
	}
}

func TestShouldClose(t *testing.T) {
	tests := []struct {
		name    string
		entries []*models.Entry
		want    bool
	}{
		{
			name: "balanced quantities",
			entries: []*models.Entry{
				fill(models.EntryBuy, "1.5", "50000", "0"),
				fill(models.EntrySell, "1.5", "52000", "0"),
			},
			want: true,
		},
		{
			name: "balanced across multiple fills",
			entries: []*models.Entry{
				fill(models.EntryBuy, "0.1", "100", "0"),
				fill(models.EntryBuy, "0.2", "100", "0"),
				fill(models.EntrySell, "0.3", "110", "0"),
			},
			want: true,
		},
		{
			name: "partial exit",
			entries: []*models.Entry{
				fill(models.EntryBuy, "2", "100", "0"),
				fill(models.EntrySell, "1", "110", "0"),
			},
			want: false,
		},
		{
			name: "buys only",
			entries: []*models.Entry{
				fill(models.EntryBuy, "2", "100", "0"),
			},
			want: false,
		},
		{
			name:    "no entries",
			entries: nil,
			want:    false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := shouldClose(tt.entries); got != tt.want {
				t.Errorf("shouldClose() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestRealizedBalanceLong(t *testing.T) {
	// Buy 1.5 @ 50000 with 10 tax, sell 1.5 @ 52000 with 10 tax.
	// (78000 - 10) - (75000 + 10) = 2980.
	entries := []*models.Entry{
		fill(models.EntryBuy, "1.5", "50000", "10"),
		fill(models.EntrySell, "1.5", "52000", "10"),
	}

	got := realizedBalance(entries, models.DirectionLong)
	if !got.Equal(d("2980")) {
		t.Errorf("realizedBalance() = %s, want 2980", got)
	}
}

func TestRealizedBalanceLongLoss(t *testing.T) {
	entries := []*models.Entry{
		fill(models.EntryBuy, "10", "100", "5"),
		fill(models.EntrySell, "10", "95", "5"),
	}

	got := realizedBalance(entries, models.DirectionLong)
	if !got.Equal(d("-60")) {
		t.Errorf("realizedBalance() = %s, want -60", got)
	}
}

func TestRealizedBalanceShort(t *testing.T) {
	// Short entered at 100, covered at 90: profit on the fall, minus tax on
	// both legs.
	entries := []*models.Entry{
		fill(models.EntryBuy, "2", "100", "1"),
		fill(models.EntrySell, "2", "90", "1"),
	}

	got := realizedBalance(entries, models.DirectionShort)
	if !got.Equal(d("18")) {
		t.Errorf("realizedBalance() = %s, want 18", got)
	}
}

func TestComputeMetricsOpenPosition(t *testing.T) {
	entries := []*models.Entry{
		fill(models.EntryBuy, "10", "100", "5"),
		fill(models.EntrySell, "4", "110", "0"),
	}
	price := d("120")

	m := ComputeMetrics(entries, models.DirectionLong, &price)

	if !m.BuyQty.Equal(d("10")) || !m.SellQty.Equal(d("4")) {
		t.Fatalf("leg quantities = %s/%s, want 10/4", m.BuyQty, m.SellQty)
	}
	if !m.CurrentQty.Equal(d("6")) {
		t.Errorf("CurrentQty = %s, want 6", m.CurrentQty)
	}
	if !m.AvgBuyPrice.Equal(d("100")) {
		t.Errorf("AvgBuyPrice = %s, want 100", m.AvgBuyPrice)
	}
	if !m.CurrentInvestment.Equal(d("600")) {
		t.Errorf("CurrentInvestment = %s, want 600", m.CurrentInvestment)
	}
	if m.UnrealizedPnL == nil || !m.UnrealizedPnL.Equal(d("120")) {
		t.Errorf("UnrealizedPnL = %v, want 120", m.UnrealizedPnL)
	}
	if m.PnLPercentage == nil || !m.PnLPercentage.Equal(d("20")) {
		t.Errorf("PnLPercentage = %v, want 20", m.PnLPercentage)
	}
}

func TestComputeMetricsShortInvertsPnL(t *testing.T) {
	entries := []*models.Entry{
		fill(models.EntryBuy, "6", "100", "0"),
	}
	price := d("120")

	m := ComputeMetrics(entries, models.DirectionShort, &price)

	if m.UnrealizedPnL == nil || !m.UnrealizedPnL.Equal(d("-120")) {
		t.Errorf("UnrealizedPnL = %v, want -120", m.UnrealizedPnL)
	}
}

func TestComputeMetricsNoPrice(t *testing.T) {
	entries := []*models.Entry{
		fill(models.EntryBuy, "10", "100", "0"),
	}

	m := ComputeMetrics(entries, models.DirectionLong, nil)

	if m.UnrealizedPnL != nil || m.PnLPercentage != nil {
		t.Errorf("unrealized fields should be nil without a current price, got %v / %v",
			m.UnrealizedPnL, m.PnLPercentage)
	}
}

func TestComputeMetricsFlatPosition(t *testing.T) {
	entries := []*models.Entry{
		fill(models.EntryBuy, "5", "100", "0"),
		fill(models.EntrySell, "5", "110", "0"),
	}
	price := d("120")

	m := ComputeMetrics(entries, models.DirectionLong, &price)

	if !m.CurrentQty.IsZero() {
		t.Fatalf("CurrentQty = %s, want 0", m.CurrentQty)
	}
	if m.UnrealizedPnL != nil {
		t.Errorf("UnrealizedPnL should be nil for a flat position, got %v", m.UnrealizedPnL)
	}
}
