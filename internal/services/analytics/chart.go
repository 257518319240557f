package analytics

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"

	"github.com/dvalverde/tradevault/internal/models"
)

// RenderEquityChart renders the equity curve as a PNG line chart: realized
// equity (green solid) against cumulative deposits (gray dashed).
func (s *Service) RenderEquityChart(ctx context.Context, q models.AnalyticsQuery) ([]byte, error) {
	points, err := s.EquityCurve(ctx, q)
	if err != nil {
		return nil, err
	}
	if len(points) < 2 {
		return nil, fmt.Errorf("need at least 2 data points, got %d", len(points))
	}

	xValues := make([]time.Time, len(points))
	equityY := make([]float64, len(points))
	depositY := make([]float64, len(points))
	for i, p := range points {
		xValues[i], _ = time.Parse(seriesDateFormat, p.Date)
		equityY[i] = p.Equity
		depositY[i] = p.Deposits - p.Withdrawals
	}

	equitySeries := chart.TimeSeries{
		Name: "Equity",
		Style: chart.Style{
			StrokeColor: drawing.ColorFromHex("16a34a"), // green-600
			StrokeWidth: 2.5,
		},
		XValues: xValues,
		YValues: equityY,
	}

	depositSeries := chart.TimeSeries{
		Name: "Net Deposits",
		Style: chart.Style{
			StrokeColor:     drawing.ColorFromHex("9ca3af"), // gray-400
			StrokeWidth:     1.5,
			StrokeDashArray: []float64{5.0, 3.0},
		},
		XValues: xValues,
		YValues: depositY,
	}

	return renderTimeChart("Equity Curve", equitySeries, depositSeries)
}

// RenderEvolutionChart renders the portfolio evolution: mark-to-market value
// (blue solid) against cumulative cost basis (gray dashed).
func (s *Service) RenderEvolutionChart(ctx context.Context, q models.AnalyticsQuery) ([]byte, error) {
	points, err := s.PortfolioEvolution(ctx, q)
	if err != nil {
		return nil, err
	}
	if len(points) < 2 {
		return nil, fmt.Errorf("need at least 2 data points, got %d", len(points))
	}

	xValues := make([]time.Time, len(points))
	valueY := make([]float64, len(points))
	investedY := make([]float64, len(points))
	for i, p := range points {
		xValues[i], _ = time.Parse(seriesDateFormat, p.Date)
		valueY[i] = p.PortfolioValue
		investedY[i] = p.TotalInvested
	}

	valueSeries := chart.TimeSeries{
		Name: "Portfolio Value",
		Style: chart.Style{
			StrokeColor: drawing.ColorFromHex("2563eb"), // blue-600
			StrokeWidth: 2.5,
		},
		XValues: xValues,
		YValues: valueY,
	}

	investedSeries := chart.TimeSeries{
		Name: "Invested",
		Style: chart.Style{
			StrokeColor:     drawing.ColorFromHex("9ca3af"), // gray-400
			StrokeWidth:     1.5,
			StrokeDashArray: []float64{5.0, 3.0},
		},
		XValues: xValues,
		YValues: investedY,
	}

	return renderTimeChart("Portfolio Evolution", valueSeries, investedSeries)
}

func renderTimeChart(title string, series ...chart.Series) ([]byte, error) {
	graph := chart.Chart{
		Title:  title,
		Width:  900,
		Height: 400,
		Background: chart.Style{
			Padding: chart.Box{Top: 40, Left: 10, Right: 20, Bottom: 10},
		},
		XAxis: chart.XAxis{
			TickPosition: chart.TickPositionBetweenTicks,
			ValueFormatter: func(v interface{}) string {
				if t, ok := v.(float64); ok {
					return chart.TimeFromFloat64(t).Format("Jan 02")
				}
				return ""
			},
		},
		YAxis: chart.YAxis{
			ValueFormatter: func(v interface{}) string {
				if f, ok := v.(float64); ok {
					return fmt.Sprintf("%.0f", f)
				}
				return ""
			},
		},
		Series: series,
	}

	graph.Elements = []chart.Renderable{
		chart.LegendLeft(&graph),
	}

	var buf bytes.Buffer
	if err := graph.Render(chart.PNG, &buf); err != nil {
		return nil, fmt.Errorf("chart render failed: %w", err)
	}

	return buf.Bytes(), nil
}
