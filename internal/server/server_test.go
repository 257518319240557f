package server

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dvalverde/tradevault/internal/app"
	"github.com/dvalverde/tradevault/internal/models"
)

// newTestServer spins up the full HTTP stack on fresh badger stores.
func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()

	dir := t.TempDir()
	configPath := filepath.Join(dir, "tradevault.toml")
	config := fmt.Sprintf(`environment = "test"

[server]
host = "127.0.0.1"
port = 0

[storage.internal]
path = %q

[storage.ledger]
path = %q

[logging]
level = "error"

[auth]
jwt_secret = "server-test-secret"
token_expiry = "1h"

[sync]
enabled = false
`, filepath.Join(dir, "internal"), filepath.Join(dir, "ledger"))
	require.NoError(t, os.WriteFile(configPath, []byte(config), 0o644))

	a, err := app.NewApp(configPath)
	require.NoError(t, err)
	t.Cleanup(func() { a.Close() })

	srv := NewServer(a)
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return ts
}

// doJSON issues a request with an optional bearer token and JSON body.
func doJSON(t *testing.T, ts *httptest.Server, method, path, token string, body interface{}) *http.Response {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}

	req, err := http.NewRequest(method, ts.URL+path, &buf)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := ts.Client().Do(req)
	require.NoError(t, err)
	return resp
}

func decodeBody(t *testing.T, resp *http.Response, v interface{}) {
	t.Helper()
	defer resp.Body.Close()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(v))
}

// register creates a user and returns the bearer token.
func register(t *testing.T, ts *httptest.Server, email string) string {
	t.Helper()

	resp := doJSON(t, ts, http.MethodPost, "/api/auth/register", "", map[string]string{
		"email":    email,
		"name":     "Test User",
		"password": "correct-horse",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var auth struct {
		Token string       `json:"token"`
		User  *models.User `json:"user"`
	}
	decodeBody(t, resp, &auth)
	require.NotEmpty(t, auth.Token)
	require.NotEmpty(t, auth.User.ActiveAccountID)
	return auth.Token
}

// createSymbol seeds a symbol over HTTP and returns its ID.
func createSymbol(t *testing.T, ts *httptest.Server, token, code string, product models.Product) string {
	t.Helper()

	resp := doJSON(t, ts, http.MethodPost, "/api/symbols", token, map[string]interface{}{
		"code":    code,
		"name":    code,
		"product": product,
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var symbol models.Symbol
	decodeBody(t, resp, &symbol)
	return symbol.ID
}

func TestHealthAndVersion(t *testing.T) {
	ts := newTestServer(t)

	resp, err := http.Get(ts.URL + "/api/health")
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var health map[string]string
	decodeBody(t, resp, &health)
	assert.Equal(t, "ok", health["status"])

	resp, err = http.Get(ts.URL + "/api/version")
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var version map[string]string
	decodeBody(t, resp, &version)
	assert.NotEmpty(t, version["version"])
}

func TestUnauthenticatedRequestRejected(t *testing.T) {
	ts := newTestServer(t)

	resp, err := http.Get(ts.URL + "/api/operations")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestRegisterLoginAndMe(t *testing.T) {
	ts := newTestServer(t)
	register(t, ts, "alice@example.com")

	// Duplicate email rejected
	resp := doJSON(t, ts, http.MethodPost, "/api/auth/register", "", map[string]string{
		"email":    "alice@example.com",
		"name":     "Alice Again",
		"password": "correct-horse",
	})
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	resp.Body.Close()

	// Login with the right password
	resp = doJSON(t, ts, http.MethodPost, "/api/auth/login", "", map[string]string{
		"email":    "alice@example.com",
		"password": "correct-horse",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var auth struct {
		Token string `json:"token"`
	}
	decodeBody(t, resp, &auth)
	require.NotEmpty(t, auth.Token)

	// Wrong password
	resp = doJSON(t, ts, http.MethodPost, "/api/auth/login", "", map[string]string{
		"email":    "alice@example.com",
		"password": "wrong-password",
	})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	resp.Body.Close()

	// /api/auth/me reflects the authenticated user
	resp = doJSON(t, ts, http.MethodGet, "/api/auth/me", auth.Token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var me models.User
	decodeBody(t, resp, &me)
	assert.Equal(t, "alice@example.com", me.Email)
	assert.NotEmpty(t, me.ActiveAccountID)
}

func TestOperationLifecycleOverHTTP(t *testing.T) {
	ts := newTestServer(t)
	token := register(t, ts, "trader@example.com")
	symbolID := createSymbol(t, ts, token, "BTC", models.ProductCrypto)

	// Create with the first buy: 2 @ 1000 + 20 tax
	resp := doJSON(t, ts, http.MethodPost, "/api/operations", token, map[string]interface{}{
		"symbolId":  symbolID,
		"product":   models.ProductCrypto,
		"direction": models.DirectionLong,
		"firstEntry": map[string]interface{}{
			"entryType": "buy",
			"quantity":  2,
			"price":     1000,
			"tax":       20,
			"date":      "2026-08-01T00:00:00Z",
		},
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var op models.Operation
	decodeBody(t, resp, &op)
	assert.Equal(t, models.StatusOpen, op.Status)

	// Matching sell closes the position: 2 @ 1500 + 20 tax
	resp = doJSON(t, ts, http.MethodPost, "/api/operations/"+op.ID+"/entries", token, map[string]interface{}{
		"entryType": "sell",
		"quantity":  2,
		"price":     1500,
		"tax":       20,
		"date":      "2026-08-02T00:00:00Z",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var closed models.Operation
	decodeBody(t, resp, &closed)
	assert.Equal(t, models.StatusClosed, closed.Status)
	require.NotNil(t, closed.Balance)
	assert.Equal(t, float64(960), closed.Balance.InexactFloat64())

	// Further entries on a closed position are rejected
	resp = doJSON(t, ts, http.MethodPost, "/api/operations/"+op.ID+"/entries", token, map[string]interface{}{
		"entryType": "buy",
		"quantity":  1,
		"price":     1200,
		"tax":       0,
		"date":      "2026-08-03T00:00:00Z",
	})
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	var errBody ErrorResponse
	decodeBody(t, resp, &errBody)
	assert.Equal(t, "closed_position", errBody.Code)

	// Detail endpoint returns entries and symbol
	resp = doJSON(t, ts, http.MethodGet, "/api/operations/"+op.ID, token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var detail models.OperationDetail
	decodeBody(t, resp, &detail)
	assert.Len(t, detail.Entries, 2)
	require.NotNil(t, detail.Symbol)
	assert.Equal(t, "BTC", detail.Symbol.Code)

	// Manual reopen via status override
	resp = doJSON(t, ts, http.MethodPut, "/api/operations/"+op.ID+"/status", token, map[string]string{
		"status": "open",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var reopened models.Operation
	decodeBody(t, resp, &reopened)
	assert.Equal(t, models.StatusOpen, reopened.Status)
	assert.Nil(t, reopened.Balance)
}

func TestSymbolValidationOverHTTP(t *testing.T) {
	ts := newTestServer(t)
	token := register(t, ts, "symbols@example.com")

	resp := doJSON(t, ts, http.MethodPost, "/api/symbols", token, map[string]interface{}{
		"name":    "No Code",
		"product": models.ProductStock,
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	var errBody ErrorResponse
	decodeBody(t, resp, &errBody)
	assert.Equal(t, "validation", errBody.Code)
	assert.Equal(t, "code", errBody.Field)
}

func TestTransactionsOverHTTP(t *testing.T) {
	ts := newTestServer(t)
	token := register(t, ts, "cash@example.com")

	resp := doJSON(t, ts, http.MethodPost, "/api/transactions", token, map[string]interface{}{
		"amount": 1000,
		"date":   "2026-08-01T00:00:00Z",
		"origin": "wire",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var tx models.Transaction
	decodeBody(t, resp, &tx)
	require.NotEmpty(t, tx.ID)

	resp = doJSON(t, ts, http.MethodGet, "/api/transactions", token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var list []*models.Transaction
	decodeBody(t, resp, &list)
	require.Len(t, list, 1)

	resp = doJSON(t, ts, http.MethodDelete, "/api/transactions/"+tx.ID, token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	resp = doJSON(t, ts, http.MethodGet, "/api/transactions", token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	decodeBody(t, resp, &list)
	assert.Empty(t, list)
}

func TestAccountSwitching(t *testing.T) {
	ts := newTestServer(t)
	token := register(t, ts, "accounts@example.com")

	resp := doJSON(t, ts, http.MethodPost, "/api/accounts", token, map[string]string{
		"name":     "Secondary",
		"currency": "USD",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var account models.Account
	decodeBody(t, resp, &account)

	resp = doJSON(t, ts, http.MethodGet, "/api/accounts", token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var accounts []*models.Account
	decodeBody(t, resp, &accounts)
	assert.Len(t, accounts, 2)

	resp = doJSON(t, ts, http.MethodPost, "/api/accounts/"+account.ID+"/activate", token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var user models.User
	decodeBody(t, resp, &user)
	assert.Equal(t, account.ID, user.ActiveAccountID)

	// New tokens are required only for claims; scope is resolved per request,
	// so the existing token now operates on the secondary account.
	resp = doJSON(t, ts, http.MethodGet, "/api/symbols", token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var symbols []*models.Symbol
	decodeBody(t, resp, &symbols)
	assert.Empty(t, symbols)
}

func TestAnalyticsEndpoints(t *testing.T) {
	ts := newTestServer(t)
	token := register(t, ts, "analytics@example.com")

	// Seed cash and a closed trade
	resp := doJSON(t, ts, http.MethodPost, "/api/transactions", token, map[string]interface{}{
		"amount": 5000,
		"date":   "2026-08-01T00:00:00Z",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	resp.Body.Close()

	symbolID := createSymbol(t, ts, token, "ETH", models.ProductCrypto)
	resp = doJSON(t, ts, http.MethodPost, "/api/operations", token, map[string]interface{}{
		"symbolId":  symbolID,
		"product":   models.ProductCrypto,
		"direction": models.DirectionLong,
		"firstEntry": map[string]interface{}{
			"entryType": "buy",
			"quantity":  1,
			"price":     1000,
			"tax":       0,
			"date":      "2026-08-10T00:00:00Z",
		},
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var op models.Operation
	decodeBody(t, resp, &op)

	resp = doJSON(t, ts, http.MethodPost, "/api/operations/"+op.ID+"/entries", token, map[string]interface{}{
		"entryType": "sell",
		"quantity":  1,
		"price":     1300,
		"tax":       0,
		"date":      "2026-08-11T00:00:00Z",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	resp.Body.Close()

	resp = doJSON(t, ts, http.MethodGet, "/api/analytics/balance", token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var balance models.AccountBalance
	decodeBody(t, resp, &balance)
	assert.Equal(t, float64(5000), balance.TotalFromTransactions)

	resp = doJSON(t, ts, http.MethodGet, "/api/analytics/dashboard", token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var dashboard models.Dashboard
	decodeBody(t, resp, &dashboard)
	require.NotNil(t, dashboard.Performance)
	assert.Equal(t, float64(300), dashboard.Performance.RealizedPnL)
	assert.NotEmpty(t, dashboard.LastUpdated)

	// Unknown period is a validation error
	resp = doJSON(t, ts, http.MethodGet, "/api/analytics/performance?period=2w", token, nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	var errBody ErrorResponse
	decodeBody(t, resp, &errBody)
	assert.Equal(t, "validation", errBody.Code)

	// Chart render returns PNG
	resp = doJSON(t, ts, http.MethodGet, "/api/analytics/charts/equity.png?period=30d", token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "image/png", resp.Header.Get("Content-Type"))
	resp.Body.Close()
}
