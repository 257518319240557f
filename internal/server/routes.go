package server

import (
	"net/http"
	"strings"
	"time"

	"github.com/dvalverde/tradevault/internal/common"
)

// handleShutdown handles POST /api/shutdown (dev mode only).
func (s *Server) handleShutdown(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodPost) {
		return
	}

	if s.app.Config.IsProduction() {
		WriteError(w, http.StatusForbidden, "Shutdown endpoint disabled in production")
		return
	}

	s.logger.Info().Msg("Shutdown requested via HTTP endpoint")

	w.WriteHeader(http.StatusOK)
	w.Write([]byte("Shutting down gracefully...\n"))

	if flusher, ok := w.(http.Flusher); ok {
		flusher.Flush()
	}

	if s.shutdownChan != nil {
		go func() {
			time.Sleep(100 * time.Millisecond)
			s.shutdownChan <- struct{}{}
		}()
	}
}

// registerRoutes sets up all REST API routes on the mux.
func (s *Server) registerRoutes(mux *http.ServeMux) {
	// System
	mux.HandleFunc("/api/health", s.handleHealth)
	mux.HandleFunc("/api/version", s.handleVersion)
	mux.HandleFunc("/api/shutdown", s.handleShutdown)

	// Auth
	mux.HandleFunc("/api/auth/register", s.handleRegister)
	mux.HandleFunc("/api/auth/login", s.handleLogin)
	mux.HandleFunc("/api/auth/me", s.handleMe)

	// Accounts
	mux.HandleFunc("/api/accounts/", s.routeAccounts)
	mux.HandleFunc("/api/accounts", s.handleAccountsRoot)

	// Symbols
	mux.HandleFunc("/api/symbols/search", s.handleSymbolSearch)
	mux.HandleFunc("/api/symbols/reorder", s.handleSymbolReorder)
	mux.HandleFunc("/api/symbols/sync", s.handleSymbolSyncAll)
	mux.HandleFunc("/api/symbols/", s.routeSymbols)
	mux.HandleFunc("/api/symbols", s.handleSymbolsRoot)

	// Operations
	mux.HandleFunc("/api/operations/", s.routeOperations)
	mux.HandleFunc("/api/operations", s.handleOperationsRoot)

	// Transactions
	mux.HandleFunc("/api/transactions/", s.routeTransactions)
	mux.HandleFunc("/api/transactions", s.handleTransactionsRoot)

	// Analytics
	mux.HandleFunc("/api/analytics/", s.routeAnalytics)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet, http.MethodHead) {
		return
	}
	WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleVersion(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet, http.MethodHead) {
		return
	}
	WriteJSON(w, http.StatusOK, map[string]string{
		"version": common.GetVersion(),
		"build":   common.GetBuild(),
	})
}

// routeOperations dispatches /api/operations/{id}[/entries[/{entryId}]|/status].
func (s *Server) routeOperations(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimPrefix(r.URL.Path, "/api/operations/")
	if path == "" {
		s.handleOperationsRoot(w, r)
		return
	}

	parts := strings.SplitN(path, "/", 2)
	operationID := parts[0]
	subpath := ""
	if len(parts) > 1 {
		subpath = parts[1]
	}

	switch {
	case subpath == "":
		s.handleOperation(w, r, operationID)
	case subpath == "status":
		s.handleOperationStatus(w, r, operationID)
	case subpath == "entries":
		s.handleEntryCreate(w, r, operationID)
	case strings.HasPrefix(subpath, "entries/"):
		entryID := strings.TrimPrefix(subpath, "entries/")
		if entryID == "" || strings.Contains(entryID, "/") {
			WriteError(w, http.StatusNotFound, "Not found")
			return
		}
		s.handleEntry(w, r, operationID, entryID)
	default:
		WriteError(w, http.StatusNotFound, "Not found")
	}
}

// routeSymbols dispatches /api/symbols/{id}[/prices[/{priceId}]|/sync].
func (s *Server) routeSymbols(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimPrefix(r.URL.Path, "/api/symbols/")
	if path == "" {
		s.handleSymbolsRoot(w, r)
		return
	}

	parts := strings.SplitN(path, "/", 2)
	symbolID := parts[0]
	subpath := ""
	if len(parts) > 1 {
		subpath = parts[1]
	}

	switch {
	case subpath == "":
		s.handleSymbol(w, r, symbolID)
	case subpath == "sync":
		s.handleSymbolSync(w, r, symbolID)
	case subpath == "prices":
		s.handleSymbolPrices(w, r, symbolID)
	case strings.HasPrefix(subpath, "prices/"):
		priceID := strings.TrimPrefix(subpath, "prices/")
		if priceID == "" || strings.Contains(priceID, "/") {
			WriteError(w, http.StatusNotFound, "Not found")
			return
		}
		s.handleSymbolPrice(w, r, symbolID, priceID)
	default:
		WriteError(w, http.StatusNotFound, "Not found")
	}
}

// routeTransactions dispatches /api/transactions/{id}.
func (s *Server) routeTransactions(w http.ResponseWriter, r *http.Request) {
	transactionID := strings.TrimPrefix(r.URL.Path, "/api/transactions/")
	if transactionID == "" {
		s.handleTransactionsRoot(w, r)
		return
	}
	if strings.Contains(transactionID, "/") {
		WriteError(w, http.StatusNotFound, "Not found")
		return
	}
	s.handleTransaction(w, r, transactionID)
}

// routeAccounts dispatches /api/accounts/{id}[/activate].
func (s *Server) routeAccounts(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimPrefix(r.URL.Path, "/api/accounts/")
	if path == "" {
		s.handleAccountsRoot(w, r)
		return
	}

	parts := strings.SplitN(path, "/", 2)
	accountID := parts[0]
	subpath := ""
	if len(parts) > 1 {
		subpath = parts[1]
	}

	switch subpath {
	case "":
		s.handleAccount(w, r, accountID)
	case "activate":
		s.handleAccountActivate(w, r, accountID)
	default:
		WriteError(w, http.StatusNotFound, "Not found")
	}
}

// routeAnalytics dispatches the dashboard queries and chart renders.
func (s *Server) routeAnalytics(w http.ResponseWriter, r *http.Request) {
	query := strings.TrimPrefix(r.URL.Path, "/api/analytics/")

	switch query {
	case "balance":
		s.handleAnalyticsBalance(w, r)
	case "performance":
		s.handleAnalyticsPerformance(w, r)
	case "symbols":
		s.handleAnalyticsSymbols(w, r)
	case "distribution":
		s.handleAnalyticsDistribution(w, r)
	case "evolution":
		s.handleAnalyticsEvolution(w, r)
	case "monthly":
		s.handleAnalyticsMonthly(w, r)
	case "equity":
		s.handleAnalyticsEquity(w, r)
	case "risk":
		s.handleAnalyticsRisk(w, r)
	case "dashboard":
		s.handleAnalyticsDashboard(w, r)
	case "charts/equity.png":
		s.handleAnalyticsEquityChart(w, r)
	case "charts/evolution.png":
		s.handleAnalyticsEvolutionChart(w, r)
	default:
		WriteError(w, http.StatusNotFound, "Not found")
	}
}
