package analytics

import (
	"context"
	"sort"

	"github.com/shopspring/decimal"

	"github.com/dvalverde/tradevault/internal/models"
)

// ProductDistribution reports how the open investment splits across product
// types, largest share first. Labels come from the configured dictionary,
// falling back to the raw product code.
func (s *Service) ProductDistribution(ctx context.Context, q models.AnalyticsQuery) ([]*models.ProductDistribution, error) {
	view, err := s.loadView(ctx, q)
	if err != nil {
		return nil, err
	}

	type accum struct {
		invested decimal.Decimal
		count    int
	}
	byProduct := make(map[models.Product]*accum)
	var total decimal.Decimal

	for _, op := range view.operations {
		if op.IsClosed() {
			continue
		}
		acc := byProduct[op.Product]
		if acc == nil {
			acc = &accum{}
			byProduct[op.Product] = acc
		}
		invested := view.openInvested(op)
		acc.invested = acc.invested.Add(invested)
		acc.count++
		total = total.Add(invested)
	}

	distribution := make([]*models.ProductDistribution, 0, len(byProduct))
	for product, acc := range byProduct {
		label := s.config.ProductLabels[product]
		if label == "" {
			label = string(product)
		}

		row := &models.ProductDistribution{
			Product:         product,
			Label:           label,
			TotalInvested:   acc.invested.InexactFloat64(),
			OperationsCount: acc.count,
		}
		if total.IsPositive() {
			row.Percentage = acc.invested.Div(total).Mul(decimal.NewFromInt(100)).InexactFloat64()
		}
		distribution = append(distribution, row)
	}

	sort.Slice(distribution, func(i, j int) bool {
		return distribution[i].TotalInvested > distribution[j].TotalInvested
	})

	return distribution, nil
}
