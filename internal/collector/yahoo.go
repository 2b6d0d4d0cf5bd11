package collector

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"time"

	"StockForecast/internal/model"
)

const yahooChartURL = "https://query1.finance.yahoo.com/v8/finance/chart/"

// YahooFetcher reads daily bars from the Yahoo Finance v8 chart endpoint.
type YahooFetcher struct {
	Client  *http.Client
	BaseURL string
	// Aliases maps user-facing names to Yahoo tickers, e.g. IHSG -> ^JKSE.
	Aliases map[string]string
}

// NewYahooFetcher creates a Yahoo fetcher, routed through proxyURL if set.
func NewYahooFetcher(proxyURL string) *YahooFetcher {
	transport := &http.Transport{}
	if proxyURL != "" {
		if u, err := url.Parse(proxyURL); err == nil {
			transport.Proxy = http.ProxyURL(u)
		}
	}
	return &YahooFetcher{
		Client:  &http.Client{Timeout: 30 * time.Second, Transport: transport},
		BaseURL: yahooChartURL,
		Aliases: map[string]string{"IHSG": "^JKSE", "JKSE": "^JKSE"},
	}
}

func (f *YahooFetcher) Name() string { return "yahoo" }

func (f *YahooFetcher) ticker(symbol string) string {
	if t, ok := f.Aliases[symbol]; ok {
		return t
	}
	return symbol
}

// chartResponse mirrors the subset of the chart payload we read. Prices are
// pointers because Yahoo reports missing sessions as null.
type chartResponse struct {
	Chart struct {
		Result []chartResult `json:"result"`
		Error  *struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	} `json:"chart"`
}

type chartResult struct {
	Timestamp  []int64 `json:"timestamp"`
	Indicators struct {
		Quote []chartQuote `json:"quote"`
	} `json:"indicators"`
}

type chartQuote struct {
	Open   []*float64 `json:"open"`
	High   []*float64 `json:"high"`
	Low    []*float64 `json:"low"`
	Close  []*float64 `json:"close"`
	Volume []*float64 `json:"volume"`
}

func at(vals []*float64, i int) (float64, bool) {
	if i >= len(vals) || vals[i] == nil {
		return 0, false
	}
	return *vals[i], true
}

// bars converts the columnar quote into rows, dropping sessions without a
// close and keeping only the last bar per calendar day.
func (r chartResult) bars() []model.OHLCV {
	if len(r.Indicators.Quote) == 0 {
		return nil
	}
	q := r.Indicators.Quote[0]
	byDay := make(map[string]int, len(r.Timestamp))
	out := make([]model.OHLCV, 0, len(r.Timestamp))

	for i, ts := range r.Timestamp {
		c, ok := at(q.Close, i)
		if !ok {
			continue
		}
		bar := model.OHLCV{Time: time.Unix(ts, 0).UTC(), Close: c}
		var has bool
		if bar.Open, has = at(q.Open, i); !has {
			bar.Open = c
		}
		if bar.High, has = at(q.High, i); !has {
			bar.High = c
		}
		if bar.Low, has = at(q.Low, i); !has {
			bar.Low = c
		}
		bar.Volume, _ = at(q.Volume, i)

		day := bar.Time.Format("2006-01-02")
		if j, dup := byDay[day]; dup {
			out[j] = bar
			continue
		}
		byDay[day] = len(out)
		out = append(out, bar)
	}

	sort.Slice(out, func(i, j int) bool { return out[i].Time.Before(out[j].Time) })
	return out
}

func (f *YahooFetcher) chart(ctx context.Context, symbol, interval, rng string) ([]model.OHLCV, error) {
	q := url.Values{}
	q.Set("interval", interval)
	q.Set("range", rng)
	u := f.BaseURL + url.PathEscape(f.ticker(symbol)) + "?" + q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", "Mozilla/5.0")

	resp, err := f.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("yahoo %s: %w", symbol, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("yahoo %s read body: %w", symbol, err)
	}

	var payload chartResponse
	if err := json.Unmarshal(body, &payload); err != nil {
		if resp.StatusCode != http.StatusOK {
			return nil, fmt.Errorf("yahoo %s: status %d", symbol, resp.StatusCode)
		}
		return nil, fmt.Errorf("yahoo %s decode: %w", symbol, err)
	}
	if e := payload.Chart.Error; e != nil {
		return nil, fmt.Errorf("yahoo %s: %s: %s", symbol, e.Code, e.Description)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("yahoo %s: status %d", symbol, resp.StatusCode)
	}
	if len(payload.Chart.Result) == 0 {
		return nil, fmt.Errorf("yahoo %s: empty result", symbol)
	}

	bars := payload.Chart.Result[0].bars()
	if len(bars) == 0 {
		return nil, fmt.Errorf("yahoo %s: no usable bars for range %s", symbol, rng)
	}
	return bars, nil
}

// Fetch returns daily bars for the given period token (1mo .. 5y).
func (f *YahooFetcher) Fetch(ctx context.Context, symbol, period string) ([]model.OHLCV, error) {
	rng, err := NormalizePeriod(period)
	if err != nil {
		return nil, err
	}
	return f.chart(ctx, symbol, "1d", rng)
}
