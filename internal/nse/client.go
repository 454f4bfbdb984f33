package nse

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"sort"
	"time"

	"github.com/go-resty/resty/v2"
	"golang.org/x/time/rate"

	"github.com/anurag-roy/dv-plot/internal/volatility"
)

// DateFormat is the DD-MM-YYYY form the NSE API expects for range queries.
const DateFormat = "02-01-2006"

// SeriesEquity is the instrument series for regular equity trading.
const SeriesEquity = "EQ"

// fnoIndex is the index whose constituents form the F&O symbol universe.
const fnoIndex = "SECURITIES IN F&O"

// Config holds the NSE client settings.
type Config struct {
	BaseURL           string
	Timeout           time.Duration
	RequestsPerSecond float64
	Burst             int
	ChunkDays         int
	MaxRetries        int
}

// FetchError wraps a transport or API failure for a specific request. The
// pipeline converts it into a per-symbol skip.
type FetchError struct {
	Symbol string
	Err    error
}

func (e *FetchError) Error() string {
	if e.Symbol == "" {
		return fmt.Sprintf("nse fetch: %v", e.Err)
	}
	return fmt.Sprintf("nse fetch %s: %v", e.Symbol, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// Client talks to the NSE public API. The API refuses requests without the
// session cookies handed out on the home page, so the client primes its
// cookie jar before the first call and again whenever access is denied.
type Client struct {
	http      *resty.Client
	limiter   *rate.Limiter
	logger    *slog.Logger
	chunkDays int
	primed    bool
}

// NewClient creates an NSE API client.
func NewClient(cfg Config, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.ChunkDays <= 0 {
		cfg.ChunkDays = 90
	}
	if cfg.Burst <= 0 {
		cfg.Burst = 1
	}
	if cfg.RequestsPerSecond <= 0 {
		cfg.RequestsPerSecond = 2
	}

	httpClient := resty.New().
		SetBaseURL(cfg.BaseURL).
		SetTimeout(cfg.Timeout).
		SetRetryCount(cfg.MaxRetries).
		SetRetryWaitTime(500 * time.Millisecond).
		SetRetryMaxWaitTime(5 * time.Second).
		SetHeaders(map[string]string{
			"User-Agent":      "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0 Safari/537.36",
			"Accept":          "application/json, text/plain, */*",
			"Accept-Language": "en-US,en;q=0.9",
		})
	httpClient.AddRetryCondition(func(r *resty.Response, err error) bool {
		if err != nil {
			return true
		}
		return r.StatusCode() >= http.StatusInternalServerError
	})

	return &Client{
		http:      httpClient,
		limiter:   rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), cfg.Burst),
		logger:    logger,
		chunkDays: cfg.ChunkDays,
	}
}

// prime fetches the home page so the cookie jar holds a valid session.
func (c *Client) prime(ctx context.Context) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}
	resp, err := c.http.R().
		SetContext(ctx).
		SetHeader("Accept", "text/html,application/xhtml+xml").
		Get("/")
	if err != nil {
		return fmt.Errorf("prime session: %w", err)
	}
	if resp.IsError() {
		return fmt.Errorf("prime session: status %d", resp.StatusCode())
	}
	c.primed = true
	return nil
}

// get performs a primed, rate-limited GET, re-priming once if the session
// cookies have gone stale.
func (c *Client) get(ctx context.Context, path string, params map[string]string, out any) error {
	if !c.primed {
		if err := c.prime(ctx); err != nil {
			return err
		}
	}

	for attempt := 0; ; attempt++ {
		if err := c.limiter.Wait(ctx); err != nil {
			return err
		}
		resp, err := c.http.R().
			SetContext(ctx).
			SetQueryParams(params).
			SetResult(out).
			Get(path)
		if err != nil {
			return err
		}
		if resp.StatusCode() == http.StatusUnauthorized || resp.StatusCode() == http.StatusForbidden {
			if attempt == 0 {
				c.logger.DebugContext(ctx, "nse session stale, re-priming", "path", path)
				if err := c.prime(ctx); err != nil {
					return err
				}
				continue
			}
		}
		if resp.IsError() {
			return fmt.Errorf("GET %s: status %d", path, resp.StatusCode())
		}
		return nil
	}
}

type indexConstituent struct {
	Symbol   string `json:"symbol"`
	Priority int    `json:"priority"`
}

type indexResponse struct {
	Data []indexConstituent `json:"data"`
}

// FNOList returns the ordered set of symbols eligible for F&O trading.
// Index pseudo-entries and duplicates are dropped. An empty universe is
// the caller's terminal condition, not an error here.
func (c *Client) FNOList(ctx context.Context) ([]string, error) {
	var out indexResponse
	err := c.get(ctx, "/api/equity-stockIndices", map[string]string{"index": fnoIndex}, &out)
	if err != nil {
		return nil, &FetchError{Err: err}
	}

	symbols := make([]string, 0, len(out.Data))
	seen := make(map[string]bool, len(out.Data))
	for _, entry := range out.Data {
		// The index reports itself as its first constituent.
		if entry.Symbol == "" || entry.Symbol == fnoIndex || entry.Priority > 0 {
			continue
		}
		if seen[entry.Symbol] {
			continue
		}
		seen[entry.Symbol] = true
		symbols = append(symbols, entry.Symbol)
	}
	return symbols, nil
}

type historyResponse struct {
	Data []volatility.RawRecord `json:"data"`
}

// EquityHistory returns the raw daily trading records for a symbol between
// from and to inclusive, ascending by trade date. The endpoint caps the
// range it will answer, so long windows are fetched in chunks and
// concatenated. An empty result means no data for the range and is not an
// error.
func (c *Client) EquityHistory(ctx context.Context, symbol, series string, from, to time.Time) (volatility.RawTable, error) {
	if to.Before(from) {
		return nil, &FetchError{Symbol: symbol, Err: fmt.Errorf("range end %s precedes start %s", to.Format(DateFormat), from.Format(DateFormat))}
	}

	var table volatility.RawTable
	for chunkStart := from; !chunkStart.After(to); {
		chunkEnd := chunkStart.AddDate(0, 0, c.chunkDays-1)
		if chunkEnd.After(to) {
			chunkEnd = to
		}

		var out historyResponse
		params := map[string]string{
			"symbol": symbol,
			"series": fmt.Sprintf("[%q]", series),
			"from":   chunkStart.Format(DateFormat),
			"to":     chunkEnd.Format(DateFormat),
		}
		if err := c.get(ctx, "/api/historical/cm/equity", params, &out); err != nil {
			return nil, &FetchError{Symbol: symbol, Err: err}
		}
		table = append(table, out.Data...)

		chunkStart = chunkEnd.AddDate(0, 0, 1)
	}

	// Chunks arrive newest-first within themselves; present the whole
	// table ascending by trade date.
	sort.SliceStable(table, func(i, j int) bool {
		ti, _ := table[i][volatility.ColTimestamp].(string)
		tj, _ := table[j][volatility.ColTimestamp].(string)
		return ti < tj
	})

	return table, nil
}
