package server

import (
	"context"
	"net/http"

	"github.com/dvalverde/tradevault/internal/models"
)

// analyticsQuery builds the scoped query from the authenticated user and the
// period/scope query parameters.
func analyticsQuery(r *http.Request, userID, accountID string) models.AnalyticsQuery {
	return models.AnalyticsQuery{
		UserID:    userID,
		AccountID: accountID,
		Period:    r.URL.Query().Get("period"),
		Scope:     models.ProductScope(r.URL.Query().Get("scope")),
	}
}

// handleAnalyticsQuery runs one analytics query with the common method check,
// scope resolution, and error mapping.
func (s *Server) handleAnalyticsQuery(w http.ResponseWriter, r *http.Request, run func(context.Context, models.AnalyticsQuery) (interface{}, error)) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}
	userID, accountID, ok := requireScope(w, r)
	if !ok {
		return
	}

	result, err := run(r.Context(), analyticsQuery(r, userID, accountID))
	if err != nil {
		WriteServiceError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, result)
}

func (s *Server) handleAnalyticsBalance(w http.ResponseWriter, r *http.Request) {
	s.handleAnalyticsQuery(w, r, func(ctx context.Context, q models.AnalyticsQuery) (interface{}, error) {
		return s.app.AnalyticsService.AccountBalance(ctx, q)
	})
}

func (s *Server) handleAnalyticsPerformance(w http.ResponseWriter, r *http.Request) {
	s.handleAnalyticsQuery(w, r, func(ctx context.Context, q models.AnalyticsQuery) (interface{}, error) {
		return s.app.AnalyticsService.Performance(ctx, q)
	})
}

func (s *Server) handleAnalyticsSymbols(w http.ResponseWriter, r *http.Request) {
	s.handleAnalyticsQuery(w, r, func(ctx context.Context, q models.AnalyticsQuery) (interface{}, error) {
		return s.app.AnalyticsService.SymbolsRanking(ctx, q)
	})
}

func (s *Server) handleAnalyticsDistribution(w http.ResponseWriter, r *http.Request) {
	s.handleAnalyticsQuery(w, r, func(ctx context.Context, q models.AnalyticsQuery) (interface{}, error) {
		return s.app.AnalyticsService.ProductDistribution(ctx, q)
	})
}

func (s *Server) handleAnalyticsEvolution(w http.ResponseWriter, r *http.Request) {
	s.handleAnalyticsQuery(w, r, func(ctx context.Context, q models.AnalyticsQuery) (interface{}, error) {
		return s.app.AnalyticsService.PortfolioEvolution(ctx, q)
	})
}

func (s *Server) handleAnalyticsMonthly(w http.ResponseWriter, r *http.Request) {
	s.handleAnalyticsQuery(w, r, func(ctx context.Context, q models.AnalyticsQuery) (interface{}, error) {
		return s.app.AnalyticsService.MonthlyPerformance(ctx, q)
	})
}

func (s *Server) handleAnalyticsEquity(w http.ResponseWriter, r *http.Request) {
	s.handleAnalyticsQuery(w, r, func(ctx context.Context, q models.AnalyticsQuery) (interface{}, error) {
		return s.app.AnalyticsService.EquityCurve(ctx, q)
	})
}

func (s *Server) handleAnalyticsRisk(w http.ResponseWriter, r *http.Request) {
	s.handleAnalyticsQuery(w, r, func(ctx context.Context, q models.AnalyticsQuery) (interface{}, error) {
		return s.app.AnalyticsService.RiskMetrics(ctx, q)
	})
}

func (s *Server) handleAnalyticsDashboard(w http.ResponseWriter, r *http.Request) {
	s.handleAnalyticsQuery(w, r, func(ctx context.Context, q models.AnalyticsQuery) (interface{}, error) {
		return s.app.AnalyticsService.Dashboard(ctx, q)
	})
}

// handleAnalyticsChart renders one chart as PNG.
func (s *Server) handleAnalyticsChart(w http.ResponseWriter, r *http.Request, render func(context.Context, models.AnalyticsQuery) ([]byte, error)) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}
	userID, accountID, ok := requireScope(w, r)
	if !ok {
		return
	}

	png, err := render(r.Context(), analyticsQuery(r, userID, accountID))
	if err != nil {
		WriteServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.WriteHeader(http.StatusOK)
	w.Write(png)
}

func (s *Server) handleAnalyticsEquityChart(w http.ResponseWriter, r *http.Request) {
	s.handleAnalyticsChart(w, r, s.app.AnalyticsService.RenderEquityChart)
}

func (s *Server) handleAnalyticsEvolutionChart(w http.ResponseWriter, r *http.Request) {
	s.handleAnalyticsChart(w, r, s.app.AnalyticsService.RenderEvolutionChart)
}
