package analytics

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dvalverde/tradevault/internal/common"
	"github.com/dvalverde/tradevault/internal/models"
	"github.com/dvalverde/tradevault/internal/storage"
)

const (
	testUserID    = "user-1"
	testAccountID = "account-1"
)

func d(s string) decimal.Decimal {
	v, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return v
}

func day(n int) time.Time {
	return time.Date(2026, 8, n, 0, 0, 0, 0, time.UTC)
}

type fixture struct {
	svc     *Service
	manager *storage.Manager
	ctx     context.Context
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	dir := t.TempDir()
	cfg := &common.Config{}
	cfg.Storage.Internal.Path = filepath.Join(dir, "internal")
	cfg.Storage.Ledger.Path = filepath.Join(dir, "ledger")

	logger := common.NewSilentLogger()
	manager, err := storage.NewManager(logger, cfg)
	require.NoError(t, err)
	t.Cleanup(func() { manager.Close() })

	return &fixture{
		svc:     NewService(manager, logger, Config{}),
		manager: manager,
		ctx:     context.Background(),
	}
}

func (f *fixture) query(period string) models.AnalyticsQuery {
	return models.AnalyticsQuery{UserID: testUserID, AccountID: testAccountID, Period: period}
}

func (f *fixture) seedSymbol(t *testing.T, code string, product models.Product) *models.Symbol {
	t.Helper()
	symbol := &models.Symbol{
		ID:        "sym-" + code,
		UserID:    testUserID,
		AccountID: testAccountID,
		Code:      code,
		Name:      code,
		Product:   product,
	}
	require.NoError(t, f.manager.LedgerStore().SaveSymbol(f.ctx, symbol))
	return symbol
}

// seedClosedOp writes a closed long operation with a buy/sell entry pair
// that realizes the given balance on closeDay.
func (f *fixture) seedClosedOp(t *testing.T, symbolID string, product models.Product, balance string, closeDay int) *models.Operation {
	t.Helper()

	bal := d(balance)
	op := &models.Operation{
		ID:        uuid.New().String(),
		AccountID: testAccountID,
		UserID:    testUserID,
		SymbolID:  symbolID,
		Product:   product,
		Direction: models.DirectionLong,
		Status:    models.StatusClosed,
		Balance:   &bal,
		CreatedAt: day(closeDay - 1),
		UpdatedAt: day(closeDay),
	}
	require.NoError(t, f.manager.LedgerStore().SaveOperation(f.ctx, op))

	// Buy 1 @ 500, sell 1 @ 500+balance.
	f.seedEntry(t, op.ID, models.EntryBuy, "1", "500", closeDay-1)
	f.seedEntry(t, op.ID, models.EntrySell, "1", d("500").Add(bal).String(), closeDay)
	return op
}

// seedOpenOp writes an open long operation with a single buy fill plus a
// current price point for the symbol.
func (f *fixture) seedOpenOp(t *testing.T, symbolID string, product models.Product, qty, buyPrice, currentPrice string, buyDay int) *models.Operation {
	t.Helper()

	op := &models.Operation{
		ID:        uuid.New().String(),
		AccountID: testAccountID,
		UserID:    testUserID,
		SymbolID:  symbolID,
		Product:   product,
		Direction: models.DirectionLong,
		Status:    models.StatusOpen,
		CreatedAt: day(buyDay),
		UpdatedAt: day(buyDay),
	}
	require.NoError(t, f.manager.LedgerStore().SaveOperation(f.ctx, op))
	f.seedEntry(t, op.ID, models.EntryBuy, qty, buyPrice, buyDay)

	if currentPrice != "" {
		f.seedPrice(t, symbolID, currentPrice, buyDay+1)
	}
	return op
}

// seedClosedOpAt is seedClosedOp with an explicit close time, for tests that
// need close dates relative to the clock rather than the fixed August grid.
func (f *fixture) seedClosedOpAt(t *testing.T, symbolID string, product models.Product, balance string, closedAt time.Time) *models.Operation {
	t.Helper()

	bal := d(balance)
	op := &models.Operation{
		ID:        uuid.New().String(),
		AccountID: testAccountID,
		UserID:    testUserID,
		SymbolID:  symbolID,
		Product:   product,
		Direction: models.DirectionLong,
		Status:    models.StatusClosed,
		Balance:   &bal,
		CreatedAt: closedAt.AddDate(0, 0, -1),
		UpdatedAt: closedAt,
	}
	require.NoError(t, f.manager.LedgerStore().SaveOperation(f.ctx, op))

	for _, e := range []struct {
		entryType models.EntryType
		price     decimal.Decimal
		date      time.Time
	}{
		{models.EntryBuy, d("500"), closedAt.AddDate(0, 0, -1)},
		{models.EntrySell, d("500").Add(bal), closedAt},
	} {
		require.NoError(t, f.manager.LedgerStore().SaveEntry(f.ctx, &models.Entry{
			ID:          uuid.New().String(),
			OperationID: op.ID,
			EntryType:   e.entryType,
			Quantity:    d("1"),
			Price:       e.price,
			Date:        e.date,
			CreatedAt:   e.date,
		}))
	}
	return op
}

func (f *fixture) seedEntry(t *testing.T, operationID string, entryType models.EntryType, qty, price string, dayN int) {
	t.Helper()
	require.NoError(t, f.manager.LedgerStore().SaveEntry(f.ctx, &models.Entry{
		ID:          uuid.New().String(),
		OperationID: operationID,
		EntryType:   entryType,
		Quantity:    d(qty),
		Price:       d(price),
		Date:        day(dayN),
		CreatedAt:   day(dayN),
	}))
}

func (f *fixture) seedPrice(t *testing.T, symbolID, price string, dayN int) {
	t.Helper()
	require.NoError(t, f.manager.LedgerStore().SavePricePoint(f.ctx, &models.PricePoint{
		ID:        uuid.New().String(),
		SymbolID:  symbolID,
		UserID:    testUserID,
		AccountID: testAccountID,
		Price:     d(price),
		Date:      day(dayN),
		Source:    models.PriceSourceManual,
	}))
}

func (f *fixture) seedTransaction(t *testing.T, amount string, dayN int) {
	t.Helper()
	require.NoError(t, f.manager.LedgerStore().SaveTransaction(f.ctx, &models.Transaction{
		ID:        uuid.New().String(),
		UserID:    testUserID,
		AccountID: testAccountID,
		Amount:    d(amount),
		Date:      day(dayN),
	}))
}

func TestAccountBalance(t *testing.T) {
	f := newFixture(t)
	btc := f.seedSymbol(t, "BTC", models.ProductCrypto)
	spy := f.seedSymbol(t, "SPY", models.ProductETF)

	f.seedTransaction(t, "10000", 1)
	f.seedTransaction(t, "-1000", 2)

	// Trading: 2 @ 100 invested, current price 120 -> +40 open P&L.
	f.seedOpenOp(t, btc.ID, models.ProductCrypto, "2", "100", "120", 3)
	// ETF: 5 @ 50 invested, current price 40 -> -50 open P&L.
	f.seedOpenOp(t, spy.ID, models.ProductETF, "5", "50", "40", 3)

	balance, err := f.svc.AccountBalance(f.ctx, f.query("all"))
	require.NoError(t, err)

	assert.InDelta(t, 9000, balance.TotalFromTransactions, 0.001)
	assert.InDelta(t, 450, balance.TotalInvested, 0.001)
	assert.InDelta(t, 8550, balance.AvailableCash, 0.001)
	assert.InDelta(t, 200, balance.InvestedTrading, 0.001)
	assert.InDelta(t, 250, balance.InvestedEtf, 0.001)
	assert.InDelta(t, 40, balance.OpenPnLTrading, 0.001)
	assert.InDelta(t, -50, balance.OpenPnLEtf, 0.001)
	assert.InDelta(t, -10, balance.TotalOpenPnL, 0.001)
	assert.InDelta(t, 440, balance.TotalOpenValue, 0.001)
}

func TestPerformance(t *testing.T) {
	f := newFixture(t)
	btc := f.seedSymbol(t, "BTC", models.ProductCrypto)

	f.seedClosedOp(t, btc.ID, models.ProductCrypto, "300", 10)
	f.seedClosedOp(t, btc.ID, models.ProductCrypto, "-100", 12)
	f.seedOpenOp(t, btc.ID, models.ProductCrypto, "2", "100", "120", 14)

	perf, err := f.svc.Performance(f.ctx, f.query("all"))
	require.NoError(t, err)

	assert.InDelta(t, 200, perf.RealizedPnL, 0.001)
	assert.InDelta(t, 40, perf.UnrealizedPnL, 0.001)
	assert.InDelta(t, 240, perf.TotalPnL, 0.001)
	assert.Equal(t, 1, perf.WinningOperations)
	assert.Equal(t, 1, perf.LosingOperations)
	assert.InDelta(t, 50, perf.WinRate, 0.001)
	// 240 / 200 invested * 100
	assert.InDelta(t, 120, perf.TotalPnLPercentage, 0.001)
}

func TestPerformanceEmptyLedger(t *testing.T) {
	f := newFixture(t)

	perf, err := f.svc.Performance(f.ctx, f.query("30d"))
	require.NoError(t, err)

	assert.Zero(t, perf.RealizedPnL)
	assert.Zero(t, perf.WinRate)
	assert.Zero(t, perf.TotalPnLPercentage)
}

func TestSymbolsRankingOrder(t *testing.T) {
	f := newFixture(t)
	btc := f.seedSymbol(t, "BTC", models.ProductCrypto)
	eth := f.seedSymbol(t, "ETH", models.ProductCrypto)

	f.seedClosedOp(t, eth.ID, models.ProductCrypto, "150", 10)
	f.seedClosedOp(t, btc.ID, models.ProductCrypto, "700", 11)

	ranking, err := f.svc.SymbolsRanking(f.ctx, f.query("all"))
	require.NoError(t, err)

	require.Len(t, ranking, 2)
	assert.Equal(t, "BTC", ranking[0].Code)
	assert.InDelta(t, 700, ranking[0].TotalPnL, 0.001)
	assert.Equal(t, "ETH", ranking[1].Code)
	assert.InDelta(t, 150, ranking[1].TotalPnL, 0.001)
}

func TestSymbolsRankingPeriodFiltersClosedByCloseDate(t *testing.T) {
	f := newFixture(t)
	btc := f.seedSymbol(t, "BTC", models.ProductCrypto)
	eth := f.seedSymbol(t, "ETH", models.ProductCrypto)
	now := time.Now().UTC()

	f.seedClosedOpAt(t, btc.ID, models.ProductCrypto, "700", now.AddDate(0, 0, -30))
	f.seedClosedOpAt(t, eth.ID, models.ProductCrypto, "150", now.AddDate(0, 0, -2))

	ranking, err := f.svc.SymbolsRanking(f.ctx, f.query("7d"))
	require.NoError(t, err)

	require.Len(t, ranking, 1)
	assert.Equal(t, "ETH", ranking[0].Code)
	assert.InDelta(t, 150, ranking[0].RealizedPnL, 0.001)
	assert.Equal(t, 1, ranking[0].OperationsCount)
}

func TestSymbolsRankingInvestedAfterPartialSell(t *testing.T) {
	f := newFixture(t)
	btc := f.seedSymbol(t, "BTC", models.ProductCrypto)

	// Buy 10 @ 100, sell 4 @ 110, still holding 6 with a current price of 120.
	op := f.seedOpenOp(t, btc.ID, models.ProductCrypto, "10", "100", "", 1)
	f.seedEntry(t, op.ID, models.EntrySell, "4", "110", 2)
	f.seedPrice(t, btc.ID, "120", 3)

	ranking, err := f.svc.SymbolsRanking(f.ctx, f.query("all"))
	require.NoError(t, err)

	require.Len(t, ranking, 1)
	row := ranking[0]
	// Invested is the remaining exposure: avg buy 100 × 6 held.
	assert.InDelta(t, 600, row.TotalInvested, 0.001)
	assert.InDelta(t, 120, row.UnrealizedPnL, 0.001) // (120 - 100) × 6
	assert.InDelta(t, 120, row.TotalPnL, 0.001)
	assert.InDelta(t, 20, row.PnLPercentage, 0.001)
}

func TestSymbolsRankingUnpricedPositionCountsButHasNoInvested(t *testing.T) {
	f := newFixture(t)
	btc := f.seedSymbol(t, "BTC", models.ProductCrypto)

	f.seedOpenOp(t, btc.ID, models.ProductCrypto, "5", "100", "", 1)

	ranking, err := f.svc.SymbolsRanking(f.ctx, f.query("all"))
	require.NoError(t, err)

	require.Len(t, ranking, 1)
	assert.Equal(t, 1, ranking[0].OperationsCount)
	assert.InDelta(t, 0, ranking[0].TotalInvested, 0.001)
	assert.InDelta(t, 0, ranking[0].UnrealizedPnL, 0.001)
}

func TestSymbolsRankingSparklineOldestFirst(t *testing.T) {
	f := newFixture(t)
	btc := f.seedSymbol(t, "BTC", models.ProductCrypto)

	f.seedOpenOp(t, btc.ID, models.ProductCrypto, "1", "100", "", 1)
	f.seedPrice(t, btc.ID, "100", 2)
	f.seedPrice(t, btc.ID, "110", 3)
	f.seedPrice(t, btc.ID, "105", 4)

	ranking, err := f.svc.SymbolsRanking(f.ctx, f.query("all"))
	require.NoError(t, err)

	require.Len(t, ranking, 1)
	assert.Equal(t, []float64{100, 110, 105}, ranking[0].SparklineData)
}

func TestProductDistribution(t *testing.T) {
	f := newFixture(t)
	btc := f.seedSymbol(t, "BTC", models.ProductCrypto)
	spy := f.seedSymbol(t, "SPY", models.ProductETF)

	f.seedOpenOp(t, btc.ID, models.ProductCrypto, "3", "100", "", 1) // 300
	f.seedOpenOp(t, spy.ID, models.ProductETF, "2", "50", "", 1)    // 100

	distribution, err := f.svc.ProductDistribution(f.ctx, f.query("all"))
	require.NoError(t, err)

	require.Len(t, distribution, 2)
	assert.Equal(t, models.ProductCrypto, distribution[0].Product)
	assert.Equal(t, "Criptos", distribution[0].Label)
	assert.InDelta(t, 300, distribution[0].TotalInvested, 0.001)
	assert.InDelta(t, 75, distribution[0].Percentage, 0.001)
	assert.Equal(t, "ETFs", distribution[1].Label)
	assert.InDelta(t, 25, distribution[1].Percentage, 0.001)
}

func TestPortfolioEvolution(t *testing.T) {
	f := newFixture(t)
	btc := f.seedSymbol(t, "BTC", models.ProductCrypto)
	f.seedOpenOp(t, btc.ID, models.ProductCrypto, "2", "100", "120", 1)

	series, err := f.svc.PortfolioEvolution(f.ctx, f.query("7d"))
	require.NoError(t, err)

	require.NotEmpty(t, series)
	for i := 1; i < len(series); i++ {
		assert.LessOrEqual(t, series[i-1].Date, series[i].Date)
	}

	last := series[len(series)-1]
	assert.InDelta(t, 200, last.TotalInvested, 0.001)
	assert.InDelta(t, 240, last.PortfolioValue, 0.001)
	assert.InDelta(t, 40, last.PnL, 0.001)
}

func TestPortfolioEvolutionEmptyLedger(t *testing.T) {
	f := newFixture(t)

	series, err := f.svc.PortfolioEvolution(f.ctx, f.query("all"))
	require.NoError(t, err)

	// A single present-day zero point, never an error.
	require.Len(t, series, 1)
	assert.Zero(t, series[0].PortfolioValue)
}

func TestMonthlyPerformance(t *testing.T) {
	f := newFixture(t)
	btc := f.seedSymbol(t, "BTC", models.ProductCrypto)

	f.seedClosedOp(t, btc.ID, models.ProductCrypto, "100", 5)
	f.seedClosedOp(t, btc.ID, models.ProductCrypto, "-40", 6)

	months, err := f.svc.MonthlyPerformance(f.ctx, f.query("all"))
	require.NoError(t, err)

	require.Len(t, months, 1)
	assert.Equal(t, "2026-08", months[0].Month)
	assert.Equal(t, 2026, months[0].Year)
	assert.InDelta(t, 60, months[0].PnL, 0.001)
	assert.Equal(t, 2, months[0].OperationsClosed)
	assert.InDelta(t, 50, months[0].WinRate, 0.001)
}

func TestEquityCurve(t *testing.T) {
	f := newFixture(t)
	btc := f.seedSymbol(t, "BTC", models.ProductCrypto)

	f.seedTransaction(t, "1000", 1)
	f.seedTransaction(t, "-200", 2)
	f.seedClosedOp(t, btc.ID, models.ProductCrypto, "300", 5)

	series, err := f.svc.EquityCurve(f.ctx, f.query("all"))
	require.NoError(t, err)
	require.NotEmpty(t, series)

	last := series[len(series)-1]
	assert.InDelta(t, 1100, last.Equity, 0.001)
	assert.InDelta(t, 1000, last.Deposits, 0.001)
	assert.InDelta(t, 200, last.Withdrawals, 0.001)
	assert.InDelta(t, 300, last.PnL, 0.001)
}

func TestRiskMetrics(t *testing.T) {
	f := newFixture(t)
	btc := f.seedSymbol(t, "BTC", models.ProductCrypto)

	f.seedClosedOp(t, btc.ID, models.ProductCrypto, "100", 5)
	f.seedClosedOp(t, btc.ID, models.ProductCrypto, "300", 6)
	f.seedClosedOp(t, btc.ID, models.ProductCrypto, "-100", 7)

	metrics, err := f.svc.RiskMetrics(f.ctx, f.query("all"))
	require.NoError(t, err)

	assert.InDelta(t, 200, metrics.AvgWin, 0.001)
	assert.InDelta(t, 100, metrics.AvgLoss, 0.001)
	assert.InDelta(t, 300, metrics.LargestWin, 0.001)
	assert.InDelta(t, 100, metrics.LargestLoss, 0.001)
	assert.InDelta(t, 4, metrics.ProfitFactor, 0.001)
	// Equity path 100 -> 400 -> 300: peak 400, trough 300.
	assert.InDelta(t, 100, metrics.MaxDrawdown, 0.001)
	assert.InDelta(t, 25, metrics.MaxDrawdownPercentage, 0.001)
	assert.Greater(t, metrics.SharpeRatio, 0.0)
}

func TestRiskMetricsNoLosses(t *testing.T) {
	f := newFixture(t)
	btc := f.seedSymbol(t, "BTC", models.ProductCrypto)
	f.seedClosedOp(t, btc.ID, models.ProductCrypto, "100", 5)

	metrics, err := f.svc.RiskMetrics(f.ctx, f.query("all"))
	require.NoError(t, err)
	assert.Equal(t, float64(999), metrics.ProfitFactor)
}

func TestRiskMetricsEmptyPeriod(t *testing.T) {
	f := newFixture(t)

	metrics, err := f.svc.RiskMetrics(f.ctx, f.query("7d"))
	require.NoError(t, err)
	assert.Equal(t, &models.RiskMetrics{}, metrics)
}

func TestProductScopeFiltersOperations(t *testing.T) {
	f := newFixture(t)
	btc := f.seedSymbol(t, "BTC", models.ProductCrypto)
	spy := f.seedSymbol(t, "SPY", models.ProductETF)

	f.seedClosedOp(t, btc.ID, models.ProductCrypto, "100", 5)
	f.seedClosedOp(t, spy.ID, models.ProductETF, "50", 6)

	q := f.query("all")
	q.Scope = models.ScopeEtf
	perf, err := f.svc.Performance(f.ctx, q)
	require.NoError(t, err)
	assert.InDelta(t, 50, perf.RealizedPnL, 0.001)

	q.Scope = models.ScopeTrading
	perf, err = f.svc.Performance(f.ctx, q)
	require.NoError(t, err)
	assert.InDelta(t, 100, perf.RealizedPnL, 0.001)
}

func TestDashboard(t *testing.T) {
	f := newFixture(t)
	btc := f.seedSymbol(t, "BTC", models.ProductCrypto)

	f.seedTransaction(t, "5000", 1)
	f.seedClosedOp(t, btc.ID, models.ProductCrypto, "250", 5)
	f.seedOpenOp(t, btc.ID, models.ProductCrypto, "1", "100", "110", 6)

	dashboard, err := f.svc.Dashboard(f.ctx, f.query("all"))
	require.NoError(t, err)

	require.NotNil(t, dashboard.AccountBalance)
	require.NotNil(t, dashboard.Performance)
	require.NotNil(t, dashboard.RiskMetrics)
	assert.NotEmpty(t, dashboard.SymbolsRanking)
	assert.NotEmpty(t, dashboard.PortfolioEvolution)
	assert.NotEmpty(t, dashboard.EquityCurve)
	assert.NotEmpty(t, dashboard.MonthlyPerformance)

	_, err = time.Parse(time.RFC3339, dashboard.LastUpdated)
	assert.NoError(t, err)
}

func TestUnknownPeriodRejected(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.Performance(f.ctx, f.query("nonsense"))
	require.Error(t, err)
	assert.True(t, models.IsValidation(err))
}
