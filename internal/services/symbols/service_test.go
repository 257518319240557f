package symbols

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dvalverde/tradevault/internal/common"
	"github.com/dvalverde/tradevault/internal/interfaces"
	"github.com/dvalverde/tradevault/internal/models"
	"github.com/dvalverde/tradevault/internal/services/marketdata"
	"github.com/dvalverde/tradevault/internal/services/operations"
	"github.com/dvalverde/tradevault/internal/storage"
)

const (
	testUserID    = "user-1"
	testAccountID = "account-1"
)

// stubProvider returns canned quotes (or errors) keyed by symbol code.
type stubProvider struct {
	quotes map[string]*interfaces.Quote
	errs   map[string]error
	calls  int
}

func (p *stubProvider) ProviderKey() string { return "stub" }

func (p *stubProvider) GetLatestPrice(_ context.Context, symbolCode string, _ models.Product, _ interfaces.QuoteOptions) (*interfaces.Quote, error) {
	p.calls++
	if err := p.errs[symbolCode]; err != nil {
		return nil, err
	}
	return p.quotes[symbolCode], nil
}

func newTestService(t *testing.T, provider *stubProvider) (*Service, *storage.Manager) {
	t.Helper()

	dir := t.TempDir()
	cfg := &common.Config{}
	cfg.Storage.Internal.Path = filepath.Join(dir, "internal")
	cfg.Storage.Ledger.Path = filepath.Join(dir, "ledger")

	logger := common.NewSilentLogger()
	manager, err := storage.NewManager(logger, cfg)
	require.NoError(t, err)
	t.Cleanup(func() { manager.Close() })

	md := marketdata.NewService(logger)
	if provider != nil {
		md.Register(provider, models.ProductCrypto, models.ProductStock, models.ProductETF, models.ProductDerivative)
	}

	return NewService(manager, md, logger), manager
}

func create(t *testing.T, svc *Service, code string, product models.Product) *models.Symbol {
	t.Helper()
	symbol, err := svc.Create(context.Background(), testUserID, testAccountID, models.NewSymbolInput{
		Code:    code,
		Name:    code + " Inc",
		Product: product,
	})
	require.NoError(t, err)
	return symbol
}

func TestCreateNormalizesAndOrders(t *testing.T) {
	svc, _ := newTestService(t, nil)

	first := create(t, svc, "aapl", models.ProductStock)
	assert.Equal(t, "AAPL", first.Code)
	assert.Equal(t, 0, first.SortOrder)

	second := create(t, svc, "MSFT", models.ProductStock)
	assert.Equal(t, 1, second.SortOrder)
}

func TestCreateDuplicateCode(t *testing.T) {
	svc, _ := newTestService(t, nil)
	create(t, svc, "AAPL", models.ProductStock)

	_, err := svc.Create(context.Background(), testUserID, testAccountID, models.NewSymbolInput{
		Code:    "aapl",
		Name:    "Apple again",
		Product: models.ProductStock,
	})
	assert.ErrorIs(t, err, models.ErrConflict)
}

func TestSearch(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t, nil)
	create(t, svc, "AAPL", models.ProductStock)
	create(t, svc, "BTC", models.ProductCrypto)

	matched, err := svc.Search(ctx, testUserID, testAccountID, "aap")
	require.NoError(t, err)
	require.Len(t, matched, 1)
	assert.Equal(t, "AAPL", matched[0].Code)

	all, err := svc.Search(ctx, testUserID, testAccountID, "")
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestReorder(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t, nil)
	a := create(t, svc, "AAPL", models.ProductStock)
	b := create(t, svc, "BTC", models.ProductCrypto)
	c := create(t, svc, "ETH", models.ProductCrypto)

	require.NoError(t, svc.Reorder(ctx, testUserID, testAccountID, []string{c.ID, a.ID}))

	listed, err := svc.List(ctx, testUserID, testAccountID)
	require.NoError(t, err)
	require.Len(t, listed, 3)
	assert.Equal(t, "ETH", listed[0].Code)
	assert.Equal(t, "AAPL", listed[1].Code)
	// Unlisted symbol goes after the reordered ones.
	assert.Equal(t, b.ID, listed[2].ID)
}

func TestSyncMarketPrice(t *testing.T) {
	ctx := context.Background()
	quoteDate := time.Date(2026, 8, 31, 0, 0, 0, 0, time.UTC)
	provider := &stubProvider{quotes: map[string]*interfaces.Quote{
		"BTC-USD": {Price: decimal.NewFromInt(65000), Date: quoteDate},
	}}
	svc, manager := newTestService(t, provider)

	symbol, err := svc.Create(ctx, testUserID, testAccountID, models.NewSymbolInput{
		Code:       "BTC",
		Name:       "Bitcoin",
		Product:    models.ProductCrypto,
		MarketCode: "BTC-USD",
	})
	require.NoError(t, err)

	point, err := svc.SyncMarketPrice(ctx, testUserID, testAccountID, symbol.ID)
	require.NoError(t, err)
	assert.True(t, point.Price.Equal(decimal.NewFromInt(65000)))
	assert.Equal(t, models.PriceSourceSync, point.Source)

	// Second sync with the same quote is a no-op.
	again, err := svc.SyncMarketPrice(ctx, testUserID, testAccountID, symbol.ID)
	require.NoError(t, err)
	assert.Equal(t, point.ID, again.ID)

	points, err := manager.LedgerStore().ListPricePoints(ctx, testUserID, testAccountID, symbol.ID)
	require.NoError(t, err)
	assert.Len(t, points, 1)

	stored, err := svc.Get(ctx, testUserID, testAccountID, symbol.ID)
	require.NoError(t, err)
	assert.Equal(t, models.SyncStatusOK, stored.SyncStatus)
	assert.NotNil(t, stored.MarketSyncAt)
}

func TestSyncMarketPriceRecordsFailure(t *testing.T) {
	ctx := context.Background()
	provider := &stubProvider{errs: map[string]error{"BTC-USD": errors.New("rate limited")}}
	svc, _ := newTestService(t, provider)

	symbol, err := svc.Create(ctx, testUserID, testAccountID, models.NewSymbolInput{
		Code:       "BTC",
		Name:       "Bitcoin",
		Product:    models.ProductCrypto,
		MarketCode: "BTC-USD",
	})
	require.NoError(t, err)

	_, err = svc.SyncMarketPrice(ctx, testUserID, testAccountID, symbol.ID)
	require.Error(t, err)

	stored, err := svc.Get(ctx, testUserID, testAccountID, symbol.ID)
	require.NoError(t, err)
	assert.Equal(t, models.SyncStatusError, stored.SyncStatus)
	assert.Contains(t, stored.SyncError, "rate limited")
}

func TestSyncOpenOperationPricesIsolatesFailures(t *testing.T) {
	ctx := context.Background()
	quoteDate := time.Date(2026, 8, 31, 0, 0, 0, 0, time.UTC)
	provider := &stubProvider{
		quotes: map[string]*interfaces.Quote{
			"ETH-USD": {Price: decimal.NewFromInt(3200), Date: quoteDate},
		},
		errs: map[string]error{"BTC-USD": errors.New("upstream down")},
	}
	svc, manager := newTestService(t, provider)

	btc, err := svc.Create(ctx, testUserID, testAccountID, models.NewSymbolInput{
		Code: "BTC", Name: "Bitcoin", Product: models.ProductCrypto, MarketCode: "BTC-USD",
	})
	require.NoError(t, err)
	eth, err := svc.Create(ctx, testUserID, testAccountID, models.NewSymbolInput{
		Code: "ETH", Name: "Ether", Product: models.ProductCrypto, MarketCode: "ETH-USD",
	})
	require.NoError(t, err)

	ops := operations.NewService(manager, common.NewSilentLogger())
	for _, sym := range []*models.Symbol{btc, eth} {
		_, err := ops.Create(ctx, testUserID, testAccountID, models.NewOperationInput{
			SymbolID:  sym.ID,
			Product:   models.ProductCrypto,
			Direction: models.DirectionLong,
		})
		require.NoError(t, err)
	}

	// The whole sweep succeeds even though one symbol fails.
	require.NoError(t, svc.SyncOpenOperationPrices(ctx))

	points, err := manager.LedgerStore().ListPricePoints(ctx, testUserID, testAccountID, eth.ID)
	require.NoError(t, err)
	assert.Len(t, points, 1)

	failedSym, err := svc.Get(ctx, testUserID, testAccountID, btc.ID)
	require.NoError(t, err)
	assert.Equal(t, models.SyncStatusError, failedSym.SyncStatus)
}
