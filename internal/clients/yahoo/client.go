// Package yahoo provides market quote fetching from the Yahoo Finance v8
// chart API, with persistent caching.
package yahoo

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/johnkiller1245/investment-trading-platform/internal/domain"
	"github.com/johnkiller1245/investment-trading-platform/internal/quotecache"
)

// Client for the Yahoo Finance chart API
type Client struct {
	baseURL   string
	client    *http.Client
	log       zerolog.Logger
	cacheRepo *quotecache.Repository
	quoteTTL  time.Duration
}

// NewClient creates a new Yahoo Finance client.
// cacheRepo is optional - if nil, caching is disabled.
func NewClient(cacheRepo *quotecache.Repository, quoteTTL time.Duration, timeout time.Duration, log zerolog.Logger) *Client {
	if quoteTTL <= 0 {
		quoteTTL = quotecache.TTLQuote
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		baseURL:   "https://query2.finance.yahoo.com/v8/finance/chart",
		client:    &http.Client{Timeout: timeout},
		log:       log.With().Str("client", "yahoo").Logger(),
		cacheRepo: cacheRepo,
		quoteTTL:  quoteTTL,
	}
}

// chartResponse mirrors the subset of the Yahoo v8 chart payload we read.
type chartResponse struct {
	Chart struct {
		Result []struct {
			Meta struct {
				Currency           string  `json:"currency"`
				Symbol             string  `json:"symbol"`
				LongName           string  `json:"longName"`
				ShortName          string  `json:"shortName"`
				RegularMarketPrice float64 `json:"regularMarketPrice"`
				RegularMarketTime  int64   `json:"regularMarketTime"`
			} `json:"meta"`
			Timestamp  []int64 `json:"timestamp"`
			Indicators struct {
				Quote []struct {
					Close []float64 `json:"close"`
				} `json:"quote"`
			} `json:"indicators"`
		} `json:"result"`
		Error interface{} `json:"error"`
	} `json:"chart"`
}

// GetQuote fetches the current market price for a symbol, cache-first.
// If the API fails, returns stale cached data if available (stale data > no data).
// Unknown symbols return domain.ErrQuoteNotFound; provider failures wrap
// domain.ErrQuoteUnavailable.
func (c *Client) GetQuote(symbol string) (*domain.Quote, error) {
	symbol = strings.ToUpper(strings.TrimSpace(symbol))
	if symbol == "" {
		return nil, fmt.Errorf("%w: empty symbol", domain.ErrInvalidRequest)
	}

	// Check persistent cache for fresh data
	if c.cacheRepo != nil {
		data, err := c.cacheRepo.GetIfFresh(symbol)
		if err == nil && data != nil {
			var cached domain.Quote
			if err := json.Unmarshal(data, &cached); err == nil {
				c.log.Debug().Str("symbol", symbol).Str("price", cached.Price.String()).Msg("Cache hit")
				return &cached, nil
			}
		}
	}

	chart, err := c.fetchChart(symbol, "1d", "1m")
	if err != nil {
		// Provider failed - try stale cached data as fallback
		if stale, ok := c.getStaleFromCache(symbol); ok {
			c.log.Warn().Err(err).Str("symbol", symbol).Msg("Provider failed, using stale cached quote")
			return stale, nil
		}
		return nil, err
	}

	quote, err := quoteFromChart(symbol, chart)
	if err != nil {
		return nil, err
	}

	// Cache persistently
	if c.cacheRepo != nil {
		if err := c.cacheRepo.Store(symbol, quote, c.quoteTTL); err != nil {
			c.log.Warn().Err(err).Str("symbol", symbol).Msg("Failed to cache quote")
		}
	}

	c.log.Info().Str("symbol", symbol).Str("price", quote.Price.String()).Msg("Fetched quote")
	return quote, nil
}

// History holds roughly a month of daily closes for a symbol.
type History struct {
	Symbol string    `json:"symbol"`
	Dates  []string  `json:"dates"`
	Closes []float64 `json:"closes"`
}

// GetHistory fetches ~1 month of daily closing prices for a symbol.
func (c *Client) GetHistory(symbol string) (*History, error) {
	symbol = strings.ToUpper(strings.TrimSpace(symbol))
	if symbol == "" {
		return nil, fmt.Errorf("%w: empty symbol", domain.ErrInvalidRequest)
	}

	chart, err := c.fetchChart(symbol, "1mo", "1d")
	if err != nil {
		return nil, err
	}

	if len(chart.Chart.Result) == 0 {
		return nil, fmt.Errorf("%w: %s", domain.ErrQuoteNotFound, symbol)
	}

	r := chart.Chart.Result[0]
	hist := &History{Symbol: symbol}
	if len(r.Indicators.Quote) == 0 {
		return hist, nil
	}

	closes := r.Indicators.Quote[0].Close
	for i, ts := range r.Timestamp {
		if i >= len(closes) || closes[i] <= 0 {
			continue
		}
		hist.Dates = append(hist.Dates, time.Unix(ts, 0).UTC().Format("2006-01-02"))
		hist.Closes = append(hist.Closes, closes[i])
	}

	return hist, nil
}

// fetchChart performs the HTTP request against the chart endpoint.
func (c *Client) fetchChart(symbol, rng, interval string) (*chartResponse, error) {
	url := fmt.Sprintf("%s/%s?interval=%s&range=%s", c.baseURL, symbol, interval, rng)
	c.log.Debug().Str("url", url).Msg("Fetching chart")

	req, err := http.NewRequest(http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrQuoteUnavailable, err)
	}
	req.Header.Set("User-Agent", "investment-trading-platform/1.0")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrQuoteUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, fmt.Errorf("%w: %s", domain.ErrQuoteNotFound, symbol)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: provider returned status %d", domain.ErrQuoteUnavailable, resp.StatusCode)
	}

	var chart chartResponse
	if err := json.NewDecoder(resp.Body).Decode(&chart); err != nil {
		return nil, fmt.Errorf("%w: failed to parse response: %v", domain.ErrQuoteUnavailable, err)
	}

	return &chart, nil
}

// quoteFromChart extracts a quote from a chart payload. The regular market
// price is preferred; if the meta block is missing it, the last non-zero
// close is used instead.
func quoteFromChart(symbol string, chart *chartResponse) (*domain.Quote, error) {
	if len(chart.Chart.Result) == 0 {
		return nil, fmt.Errorf("%w: %s", domain.ErrQuoteNotFound, symbol)
	}

	r := chart.Chart.Result[0]
	price := r.Meta.RegularMarketPrice
	asOf := time.Unix(r.Meta.RegularMarketTime, 0).UTC()

	// Fallback: last non-zero close if meta missing
	if (price <= 0 || r.Meta.RegularMarketTime == 0) && len(r.Timestamp) > 0 && len(r.Indicators.Quote) > 0 {
		closes := r.Indicators.Quote[0].Close
		if len(closes) == len(r.Timestamp) {
			for i := len(r.Timestamp) - 1; i >= 0; i-- {
				if closes[i] > 0 {
					price = closes[i]
					asOf = time.Unix(r.Timestamp[i], 0).UTC()
					break
				}
			}
		}
	}

	if price <= 0 {
		return nil, fmt.Errorf("%w: %s", domain.ErrQuoteNotFound, symbol)
	}
	if asOf.IsZero() || asOf.Unix() <= 0 {
		asOf = time.Now().UTC()
	}

	name := r.Meta.LongName
	if name == "" {
		name = r.Meta.ShortName
	}
	if name == "" {
		name = symbol
	}

	return &domain.Quote{
		Symbol:   symbol,
		Price:    decimal.NewFromFloat(price),
		Name:     name,
		Currency: r.Meta.Currency,
		AsOf:     asOf,
	}, nil
}

// getStaleFromCache retrieves a cached quote even if expired.
// Use this as a fallback when provider calls fail.
func (c *Client) getStaleFromCache(symbol string) (*domain.Quote, bool) {
	if c.cacheRepo == nil {
		return nil, false
	}

	data, err := c.cacheRepo.Get(symbol)
	if err != nil || data == nil {
		return nil, false
	}

	var cached domain.Quote
	if err := json.Unmarshal(data, &cached); err != nil {
		return nil, false
	}

	return &cached, true
}
