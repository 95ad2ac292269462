// Package eodhd implements a price feed over the EOD Historical Data API.
package eodhd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/etnz/microcap"
	"github.com/etnz/microcap/date"
	"github.com/go-resty/resty/v2"
	"github.com/shopspring/decimal"
)

// DefaultBaseURL is the EODHD API root.
const DefaultBaseURL = "https://eodhd.com/api"

// ProviderName is the provider reported in errors.
const ProviderName = "eodhd"

// Client is a microcap.PriceFeed backed by the EODHD end-of-day endpoint.
type Client struct {
	apiKey   string
	currency string
	http     *resty.Client
}

// Option configures a Client.
type Option func(*options)

type options struct {
	baseURL  string
	currency string
	cacheDir string
	noCache  bool
	timeout  time.Duration
}

// WithBaseURL overrides the API root.
func WithBaseURL(u string) Option { return func(o *options) { o.baseURL = u } }

// WithCurrency sets the currency of the returned prices, USD by default.
func WithCurrency(cur string) Option { return func(o *options) { o.currency = cur } }

// WithCacheDir sets where daily responses are cached, the system temp dir by default.
func WithCacheDir(dir string) Option { return func(o *options) { o.cacheDir = dir } }

// WithoutCache disables the daily response cache.
func WithoutCache() Option { return func(o *options) { o.noCache = true } }

// WithTimeout sets the timeout of every request.
func WithTimeout(d time.Duration) Option { return func(o *options) { o.timeout = d } }

// New creates a Client. An empty apiKey falls back to the "demo" key, which
// only serves a handful of tickers.
func New(apiKey string, opts ...Option) *Client {
	o := options{
		baseURL:  DefaultBaseURL,
		currency: "USD",
		cacheDir: os.TempDir(),
		timeout:  30 * time.Second,
	}
	for _, opt := range opts {
		opt(&o)
	}
	if apiKey == "" {
		apiKey = "demo"
	}

	client := resty.New().
		SetBaseURL(o.baseURL).
		SetTimeout(o.timeout).
		SetHeader("Accept", "application/json")
	if !o.noCache {
		client.SetTransport(&diskCache{base: http.DefaultTransport, dir: o.cacheDir})
	}
	return &Client{apiKey: apiKey, currency: o.currency, http: client}
}

// Symbol converts a ticker to its EODHD symbol: indices like "^SPX" go to the
// INDX exchange, tickers without an exchange suffix are assumed to be US.
func Symbol(ticker string) string {
	switch {
	case ticker == "^SPX":
		return "GSPC.INDX"
	case strings.HasPrefix(ticker, "^"):
		return strings.TrimPrefix(ticker, "^") + ".INDX"
	case strings.Contains(ticker, "."):
		return ticker
	default:
		return ticker + ".US"
	}
}

// bar is one item of the eod endpoint response.
//
//	{"date": "2024-02-13", "open": 675.066, "high": 684.219, "low": 648.659,
//	 "close": 668.445, "adjusted_close": 67.705, "volume": 0}
type bar struct {
	Date   date.Date       `json:"date"`
	Open   decimal.Decimal `json:"open"`
	High   decimal.Decimal `json:"high"`
	Low    decimal.Decimal `json:"low"`
	Close  decimal.Decimal `json:"close"`
	Volume int64           `json:"volume"`
}

// Bars implements microcap.PriceFeed. Bounds are included.
//
// An unknown symbol (404) or an empty answer is no data. Transport errors and
// other error statuses are *microcap.ProviderUnavailableError.
func (c *Client) Bars(ctx context.Context, ticker string, from, to date.Date) ([]microcap.Bar, error) {
	resp, err := c.http.R().
		SetContext(ctx).
		SetPathParam("symbol", Symbol(ticker)).
		SetQueryParams(map[string]string{
			"api_token": c.apiKey,
			"fmt":       "json",
			"from":      from.String(),
			"to":        to.String(),
		}).
		Get("/eod/{symbol}")
	if err != nil {
		return nil, &microcap.ProviderUnavailableError{Provider: ProviderName, Err: err}
	}
	if resp.StatusCode() == http.StatusNotFound {
		return nil, nil
	}
	if resp.IsError() {
		return nil, &microcap.ProviderUnavailableError{
			Provider: ProviderName,
			Err:      fmt.Errorf("cannot GET %s: %s", Symbol(ticker), resp.Status()),
		}
	}

	var rows []bar
	if err := json.Unmarshal(resp.Body(), &rows); err != nil {
		return nil, &microcap.ProviderUnavailableError{
			Provider: ProviderName,
			Err:      errors.Join(fmt.Errorf("invalid eod response for %s", Symbol(ticker)), err),
		}
	}

	res := make([]microcap.Bar, 0, len(rows))
	for _, r := range rows {
		res = append(res, microcap.Bar{
			Date:   r.Date,
			Open:   microcap.M(r.Open, c.currency),
			High:   microcap.M(r.High, c.currency),
			Low:    microcap.M(r.Low, c.currency),
			Close:  microcap.M(r.Close, c.currency),
			Volume: r.Volume,
		})
	}
	return res, nil
}
