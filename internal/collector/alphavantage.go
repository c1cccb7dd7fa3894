package collector

import (
	"context"
	"encoding/json"
	"net/http"
	"sort"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"

	"StockPulse/internal/model"
)

// AlphaVantageClient implements IndicatorSource using the Alpha Vantage
// technical indicator endpoints. Only the most recent entry of each series is used.
type AlphaVantageClient struct {
	client *resty.Client
	apiKey string
}

// NewAlphaVantageClient creates an Alpha Vantage client with optional proxy support.
func NewAlphaVantageClient(baseURL, apiKey, proxyURL string, timeout time.Duration) *AlphaVantageClient {
	if baseURL == "" {
		baseURL = "https://www.alphavantage.co"
	}
	return &AlphaVantageClient{
		client: newRestClient(baseURL, proxyURL, timeout),
		apiKey: apiKey,
	}
}

func (c *AlphaVantageClient) Name() string { return "alphavantage" }

// latest fetches one indicator series and returns the values of its most recent date.
func (c *AlphaVantageClient) latest(ctx context.Context, function, symbol string, extra map[string]string) (map[string]float64, error) {
	if c.apiKey == "" {
		return nil, credentialsError(c.Name())
	}
	params := map[string]string{
		"function":    function,
		"symbol":      symbol,
		"interval":    "daily",
		"series_type": "close",
		"apikey":      c.apiKey,
	}
	for k, v := range extra {
		params[k] = v
	}
	resp, err := c.client.R().SetContext(ctx).SetQueryParams(params).Get("/query")
	if err != nil {
		return nil, networkError(c.Name(), err, "query %s", function)
	}
	if resp.StatusCode() != http.StatusOK {
		return nil, statusError(c.Name(), resp.StatusCode(), resp.String())
	}

	var raw map[string]json.RawMessage
	if err := json.Unmarshal(resp.Body(), &raw); err != nil {
		return nil, parseError(c.Name(), err, "decode %s", function)
	}
	// Rate limits and bad keys come back as 200 with a message body.
	for _, key := range []string{"Error Message", "Note", "Information"} {
		if msg, ok := raw[key]; ok {
			return nil, networkError(c.Name(), errors.New(string(msg)), "query %s", function)
		}
	}
	seriesRaw, ok := raw["Technical Analysis: "+function]
	if !ok {
		return nil, parseError(c.Name(), errors.New("missing series"), "query %s", function)
	}
	var series map[string]map[string]string
	if err := json.Unmarshal(seriesRaw, &series); err != nil {
		return nil, parseError(c.Name(), err, "decode %s series", function)
	}
	if len(series) == 0 {
		return nil, parseError(c.Name(), errors.New("empty series"), "query %s", function)
	}

	dates := make([]string, 0, len(series))
	for d := range series {
		dates = append(dates, d)
	}
	sort.Strings(dates)
	entry := series[dates[len(dates)-1]]

	values := make(map[string]float64, len(entry))
	for k, v := range entry {
		d, err := decimal.NewFromString(v)
		if err != nil {
			return nil, parseError(c.Name(), err, "%s value %q", k, v)
		}
		f, _ := d.Round(4).Float64()
		values[k] = f
	}
	return values, nil
}

// FetchIndicators queries RSI(14), MACD, SMA(50), EMA(20) and BBANDS(20).
// Volume average is not available from this source and is left zero.
func (c *AlphaVantageClient) FetchIndicators(ctx context.Context, symbol string, _ float64) (*model.TechnicalIndicators, error) {
	rsi, err := c.latest(ctx, "RSI", symbol, map[string]string{"time_period": "14"})
	if err != nil {
		return nil, err
	}
	macd, err := c.latest(ctx, "MACD", symbol, nil)
	if err != nil {
		return nil, err
	}
	sma, err := c.latest(ctx, "SMA", symbol, map[string]string{"time_period": "50"})
	if err != nil {
		return nil, err
	}
	ema, err := c.latest(ctx, "EMA", symbol, map[string]string{"time_period": "20"})
	if err != nil {
		return nil, err
	}
	bands, err := c.latest(ctx, "BBANDS", symbol, map[string]string{"time_period": "20", "nbdevup": "2", "nbdevdn": "2"})
	if err != nil {
		return nil, err
	}

	return &model.TechnicalIndicators{
		RSI:        rsi["RSI"],
		MACD:       macd["MACD"],
		MACDSignal: macd["MACD_Signal"],
		SMA:        sma["SMA"],
		EMA:        ema["EMA"],
		Bollinger: model.BollingerBands{
			Upper:  bands["Real Upper Band"],
			Middle: bands["Real Middle Band"],
			Lower:  bands["Real Lower Band"],
		},
		Source: c.Name(),
	}, nil
}
