package collector

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"sort"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/pkg/errors"

	"StockPulse/internal/model"
)

// YahooClient implements CandleSource using the Yahoo Finance chart API.
// No credentials are required.
type YahooClient struct {
	client    *resty.Client
	SymbolMap map[string]string // maps internal symbol to Yahoo ticker
}

// NewYahooClient creates a Yahoo Finance chart client with optional proxy support.
func NewYahooClient(baseURL, proxyURL string, timeout time.Duration) *YahooClient {
	if baseURL == "" {
		baseURL = "https://query1.finance.yahoo.com"
	}
	return &YahooClient{
		client: newRestClient(baseURL, proxyURL, timeout),
		SymbolMap: map[string]string{
			"SPX500": "^GSPC",
			"SPX":    "^GSPC",
			"SP500":  "^GSPC",
		},
	}
}

func (c *YahooClient) Name() string { return "yahoo" }

func (c *YahooClient) yahooSymbol(symbol string) string {
	if mapped, ok := c.SymbolMap[symbol]; ok {
		return mapped
	}
	return symbol
}

// yahooChart is the response structure from Yahoo Finance chart API.
type yahooChart struct {
	Chart struct {
		Result []struct {
			Timestamp  []int64 `json:"timestamp"`
			Indicators struct {
				Quote []struct {
					Open   []interface{} `json:"open"`
					High   []interface{} `json:"high"`
					Low    []interface{} `json:"low"`
					Close  []interface{} `json:"close"`
					Volume []interface{} `json:"volume"`
				} `json:"quote"`
			} `json:"indicators"`
		} `json:"result"`
		Error *struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	} `json:"chart"`
}

func toFloat(values []interface{}, i int) float64 {
	if i >= len(values) || values[i] == nil {
		return 0
	}
	switch n := values[i].(type) {
	case float64:
		return n
	case int:
		return float64(n)
	default:
		return 0
	}
}

func (c *YahooClient) fetchChart(ctx context.Context, symbol, interval, rng string) ([]model.OHLCV, error) {
	resp, err := c.client.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{"interval": interval, "range": rng}).
		Get("/v8/finance/chart/" + url.PathEscape(c.yahooSymbol(symbol)))
	if err != nil {
		return nil, networkError(c.Name(), err, "chart %s", symbol)
	}
	if resp.StatusCode() != http.StatusOK {
		return nil, statusError(c.Name(), resp.StatusCode(), resp.String())
	}

	var chart yahooChart
	if err := json.Unmarshal(resp.Body(), &chart); err != nil {
		return nil, parseError(c.Name(), err, "decode chart %s", symbol)
	}
	if chart.Chart.Error != nil {
		return nil, networkError(c.Name(), errors.New(chart.Chart.Error.Description), "chart %s", symbol)
	}
	if len(chart.Chart.Result) == 0 || len(chart.Chart.Result[0].Timestamp) == 0 ||
		len(chart.Chart.Result[0].Indicators.Quote) == 0 {
		return nil, parseError(c.Name(), errors.New("no data returned"), "chart %s", symbol)
	}

	result := chart.Chart.Result[0]
	quote := result.Indicators.Quote[0]
	bars := make([]model.OHLCV, 0, len(result.Timestamp))

	for i, ts := range result.Timestamp {
		o := toFloat(quote.Open, i)
		h := toFloat(quote.High, i)
		l := toFloat(quote.Low, i)
		cl := toFloat(quote.Close, i)
		if o == 0 && h == 0 && l == 0 && cl == 0 {
			continue // null bars (holidays etc.)
		}
		bars = append(bars, model.OHLCV{
			Time:   time.Unix(ts, 0),
			Open:   o,
			High:   h,
			Low:    l,
			Close:  cl,
			Volume: toFloat(quote.Volume, i),
		})
	}

	sort.Slice(bars, func(i, j int) bool { return bars[i].Time.Before(bars[j].Time) })
	return bars, nil
}

// FetchDailyBars returns up to days daily bars, oldest first.
func (c *YahooClient) FetchDailyBars(ctx context.Context, symbol string, days int) ([]model.OHLCV, error) {
	rng := "2y"
	if days <= 30 {
		rng = "1mo"
	} else if days <= 90 {
		rng = "3mo"
	} else if days <= 180 {
		rng = "6mo"
	} else if days <= 365 {
		rng = "1y"
	}
	bars, err := c.fetchChart(ctx, symbol, "1d", rng)
	if err != nil {
		return nil, err
	}
	if len(bars) > days {
		bars = bars[len(bars)-days:]
	}
	return bars, nil
}
