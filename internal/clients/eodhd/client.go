// Package eodhd provides a client for the EODHD API
package eodhd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/time/rate"

	"github.com/dvalverde/tradevault/internal/common"
	"github.com/dvalverde/tradevault/internal/interfaces"
	"github.com/dvalverde/tradevault/internal/models"
)

// flexFloat64 handles JSON values that may be either a number or a string.
type flexFloat64 float64

func (f *flexFloat64) UnmarshalJSON(data []byte) error {
	var num float64
	if err := json.Unmarshal(data, &num); err == nil {
		*f = flexFloat64(num)
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		if s == "" || s == "N/A" || s == "NA" {
			*f = 0
			return nil
		}
		num, err := strconv.ParseFloat(s, 64)
		if err != nil {
			*f = 0
			return nil
		}
		*f = flexFloat64(num)
		return nil
	}
	return fmt.Errorf("cannot unmarshal %s into float64", string(data))
}

const (
	DefaultBaseURL   = "https://eodhd.com/api"
	DefaultTimeout   = 30 * time.Second
	DefaultRateLimit = 10 // requests per second

	// ProviderKeyEODHD identifies this provider in symbol linkage config.
	ProviderKeyEODHD = "eodhd"
)

// Client implements the MarketDataProvider interface for EODHD.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	logger     *common.Logger
	limiter    *rate.Limiter
}

// ClientOption configures the client
type ClientOption func(*Client)

// WithBaseURL sets the base URL
func WithBaseURL(baseURL string) ClientOption {
	return func(c *Client) {
		c.baseURL = baseURL
	}
}

// WithLogger sets the logger
func WithLogger(logger *common.Logger) ClientOption {
	return func(c *Client) {
		c.logger = logger
	}
}

// WithRateLimit sets the rate limit
func WithRateLimit(requestsPerSecond int) ClientOption {
	return func(c *Client) {
		c.limiter = rate.NewLimiter(rate.Limit(requestsPerSecond), requestsPerSecond)
	}
}

// WithTimeout sets the HTTP timeout
func WithTimeout(timeout time.Duration) ClientOption {
	return func(c *Client) {
		c.httpClient.Timeout = timeout
	}
}

// NewClient creates a new EODHD client
func NewClient(apiKey string, opts ...ClientOption) *Client {
	c := &Client{
		baseURL: DefaultBaseURL,
		apiKey:  apiKey,
		httpClient: &http.Client{
			Timeout: DefaultTimeout,
		},
		limiter: rate.NewLimiter(rate.Limit(DefaultRateLimit), DefaultRateLimit),
		logger:  common.NewSilentLogger(),
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// APIError represents an API error
type APIError struct {
	StatusCode int
	Message    string
	Endpoint   string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("EODHD API error: %s (status: %d, endpoint: %s)", e.Message, e.StatusCode, e.Endpoint)
}

// get performs a rate-limited GET request
func (c *Client) get(ctx context.Context, path string, params url.Values, result interface{}) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limit wait: %w", err)
	}

	if params == nil {
		params = url.Values{}
	}
	params.Set("api_token", c.apiKey)
	params.Set("fmt", "json")

	reqURL := fmt.Sprintf("%s%s?%s", c.baseURL, path, params.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	c.logger.Debug().Str("url", c.baseURL+path).Msg("EODHD API request")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return &APIError{
			StatusCode: resp.StatusCode,
			Message:    string(body),
			Endpoint:   path,
		}
	}

	if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}

	return nil
}

// realTimeResponse is the payload of /real-time/{ticker}.
type realTimeResponse struct {
	Code      string      `json:"code"`
	Timestamp int64       `json:"timestamp"`
	Close     flexFloat64 `json:"close"`
	PrevClose flexFloat64 `json:"previousClose"`
}

// ProviderKey identifies this provider for symbol market linkage.
func (c *Client) ProviderKey() string {
	return ProviderKeyEODHD
}

// GetLatestPrice fetches the most recent quote for a symbol. Returns nil when
// the provider has no usable data for the ticker.
func (c *Client) GetLatestPrice(ctx context.Context, symbolCode string, product models.Product, opts interfaces.QuoteOptions) (*interfaces.Quote, error) {
	ticker := FormatTicker(symbolCode, product, opts.Exchange)

	var rt realTimeResponse
	if err := c.get(ctx, "/real-time/"+url.PathEscape(ticker), nil, &rt); err != nil {
		return nil, err
	}

	price := float64(rt.Close)
	if price == 0 {
		price = float64(rt.PrevClose)
	}
	if price == 0 {
		return nil, nil // no usable quote
	}

	date := time.Now().UTC().Truncate(24 * time.Hour)
	if rt.Timestamp > 0 {
		date = time.Unix(rt.Timestamp, 0).UTC().Truncate(24 * time.Hour)
	}

	return &interfaces.Quote{
		Price: decimal.NewFromFloat(price),
		Date:  date,
	}, nil
}

// FormatTicker builds the EODHD ticker for a symbol code: crypto pairs use
// the .CC pseudo-exchange ("BTC-USD.CC"); equities and ETFs use the exchange
// suffix, defaulting to US.
func FormatTicker(code string, product models.Product, exchange string) string {
	code = strings.ToUpper(strings.TrimSpace(code))
	if strings.Contains(code, ".") {
		return code // already fully qualified
	}

	if product == models.ProductCrypto {
		if !strings.Contains(code, "-") {
			code += "-USD"
		}
		return code + ".CC"
	}

	if exchange == "" {
		exchange = "US"
	}
	return code + "." + strings.ToUpper(exchange)
}
