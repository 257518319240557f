package analytics

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/dvalverde/tradevault/internal/models"
)

// Dashboard runs every analytics query concurrently and merges the results.
// The sub-queries are independent reads, so the first failure surfaces and
// cancels the rest.
func (s *Service) Dashboard(ctx context.Context, q models.AnalyticsQuery) (*models.Dashboard, error) {
	dashboard := &models.Dashboard{}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		dashboard.AccountBalance, err = s.AccountBalance(ctx, q)
		return err
	})
	g.Go(func() error {
		var err error
		dashboard.Performance, err = s.Performance(ctx, q)
		return err
	})
	g.Go(func() error {
		var err error
		dashboard.SymbolsRanking, err = s.SymbolsRanking(ctx, q)
		return err
	})
	g.Go(func() error {
		var err error
		dashboard.ProductDistribution, err = s.ProductDistribution(ctx, q)
		return err
	})
	g.Go(func() error {
		var err error
		dashboard.PortfolioEvolution, err = s.PortfolioEvolution(ctx, q)
		return err
	})
	g.Go(func() error {
		var err error
		dashboard.MonthlyPerformance, err = s.MonthlyPerformance(ctx, q)
		return err
	})
	g.Go(func() error {
		var err error
		dashboard.EquityCurve, err = s.EquityCurve(ctx, q)
		return err
	})
	g.Go(func() error {
		var err error
		dashboard.RiskMetrics, err = s.RiskMetrics(ctx, q)
		return err
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}

	dashboard.LastUpdated = time.Now().UTC().Format(time.RFC3339)
	return dashboard, nil
}
