package twelvedata

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	httpClient "github.com/Alias1177/lpintel/internal/platform/http"
	"github.com/Alias1177/lpintel/models"
)

const (
	defaultBaseURL = "https://api.twelvedata.com"
	sourceName     = "TwelveData"

	// outputsize upper bound accepted by the API
	maxOutputSize = 5000
)

// Client is the TwelveData API client. It implements models.PriceSource.
type Client struct {
	apiKey     string
	baseURL    string
	httpClient *httpClient.Client
	logger     zerolog.Logger
}

// ClientOptions holds options for creating a new TwelveData client
type ClientOptions struct {
	APIKey          string
	BaseURL         string
	RequestTimeout  time.Duration
	RequestsPerSec  int
	MaxRetries      int
	MaxRetryTimeout time.Duration
}

// NewClient creates a new TwelveData API client
func NewClient(options ClientOptions) *Client {
	httpOpts := httpClient.ClientOptions{
		Timeout:         options.RequestTimeout,
		RequestsPerSec:  options.RequestsPerSec,
		MaxRetries:      options.MaxRetries,
		MaxRetryTimeout: options.MaxRetryTimeout,
	}

	baseURL := options.BaseURL
	if baseURL == "" {
		baseURL = defaultBaseURL
	}

	return &Client{
		apiKey:     options.APIKey,
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: httpClient.NewClient(httpOpts),
		logger:     log.With().Str("component", "twelvedata_client").Logger(),
	}
}

// Name returns the source name
func (c *Client) Name() string {
	return sourceName
}

// HealthCheck reports whether the client is usable. It does not spend
// API credits; transport health is tracked by the caller's breaker.
func (c *Client) HealthCheck(_ context.Context) bool {
	return c.apiKey != ""
}

// CurrentPrice fetches the latest traded price
func (c *Client) CurrentPrice(ctx context.Context, symbol string) (float64, error) {
	body, err := c.get(ctx, "/price", url.Values{"symbol": {apiSymbol(symbol)}})
	if err != nil {
		return 0, err
	}

	var data priceResponse
	if err := json.Unmarshal(body, &data); err != nil {
		return 0, fmt.Errorf("parsing JSON: %w", err)
	}
	if data.Price == "" {
		return 0, models.ErrPriceNotFound
	}

	price, err := strconv.ParseFloat(data.Price, 64)
	if err != nil {
		return 0, fmt.Errorf("parsing price %q: %w", data.Price, err)
	}
	return price, nil
}

// HistoricalPrices fetches candles in [start, end], oldest first
func (c *Client) HistoricalPrices(ctx context.Context, symbol string, start, end time.Time, interval string) ([]models.Candle, error) {
	step, err := models.IntervalDuration(interval)
	if err != nil {
		return nil, err
	}
	size := int(end.Sub(start)/step) + 1
	if size < 1 {
		return nil, nil
	}

	query := url.Values{
		"symbol":     {apiSymbol(symbol)},
		"interval":   {interval},
		"start_date": {start.UTC().Format(dateTimeLayout)},
		"end_date":   {end.UTC().Format(dateTimeLayout)},
		"outputsize": {strconv.Itoa(min(size, maxOutputSize))},
		"timezone":   {"UTC"},
	}

	body, err := c.get(ctx, "/time_series", query)
	if err != nil {
		return nil, err
	}

	var data timeSeriesResponse
	if err := json.Unmarshal(body, &data); err != nil {
		c.logger.Error().Err(err).Str("response", string(body)).Msg("Error parsing JSON")
		return nil, fmt.Errorf("parsing JSON: %w", err)
	}

	if len(data.Values) == 0 {
		c.logger.Warn().Str("symbol", symbol).Msg("No candles in response")
		return nil, nil
	}

	candles := make([]models.Candle, 0, len(data.Values))
	for _, v := range data.Values {
		ts, err := parseDatetime(v.Datetime)
		if err != nil {
			return nil, err
		}
		candles = append(candles, models.Candle{
			Timestamp: ts,
			Open:      v.Open,
			High:      v.High,
			Low:       v.Low,
			Close:     v.Close,
		})
	}

	// API returns newest first
	sort.Slice(candles, func(i, j int) bool {
		return candles[i].Timestamp.Before(candles[j].Timestamp)
	})

	c.logger.Debug().Int("count", len(candles)).Str("symbol", symbol).Msg("Fetched candles")
	return candles, nil
}

func (c *Client) get(ctx context.Context, path string, query url.Values) ([]byte, error) {
	c.logger.Debug().Str("path", path).Str("symbol", query.Get("symbol")).Msg("Requesting Twelve Data")

	query.Set("apikey", c.apiKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path+"?"+query.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	resp, err := c.httpClient.DoRequest(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("HTTP request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response body: %w", err)
	}

	var status apiStatus
	if err := json.Unmarshal(body, &status); err == nil && status.Status == "error" {
		c.logger.Error().Int("code", status.Code).Str("message", status.Message).Msg("Twelve Data API error")
		if status.Code == http.StatusNotFound || status.Code == http.StatusBadRequest {
			return nil, fmt.Errorf("%w: %s", models.ErrPriceNotFound, status.Message)
		}
		return nil, fmt.Errorf("twelve data API error %d: %s", status.Code, status.Message)
	}

	return body, nil
}

// apiSymbol converts a pool pair such as SOL-USDC into the API's SOL/USDC form
func apiSymbol(symbol string) string {
	return strings.ReplaceAll(strings.ToUpper(symbol), "-", "/")
}
