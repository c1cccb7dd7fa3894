package collector

import (
	"context"
	"regexp"
	"strings"
	"time"

	"StockPulse/internal/model"
)

// QuoteSource retrieves a live quote and company profile for a symbol.
type QuoteSource interface {
	FetchQuote(ctx context.Context, symbol string) (*model.Quote, error)
	Name() string
}

// IndicatorSource retrieves the latest technical indicators for a symbol.
type IndicatorSource interface {
	FetchIndicators(ctx context.Context, symbol string, price float64) (*model.TechnicalIndicators, error)
	Name() string
}

// CandleSource retrieves daily bars, oldest first.
type CandleSource interface {
	FetchDailyBars(ctx context.Context, symbol string, days int) ([]model.OHLCV, error)
	Name() string
}

// NewsSource retrieves company and market news.
type NewsSource interface {
	FetchCompanyNews(ctx context.Context, symbol string, from, to time.Time) ([]model.Article, error)
	FetchMarketNews(ctx context.Context) ([]model.Article, error)
	Name() string
}

// TrendingSource retrieves the trending stocks board.
type TrendingSource interface {
	FetchTrending(ctx context.Context) ([]model.TrendingStock, error)
	Name() string
}

var symbolPattern = regexp.MustCompile(`^[A-Z0-9.\-^=]{1,15}$`)

// NormalizeSymbol upper-cases and trims a symbol and validates its shape.
func NormalizeSymbol(symbol string) (string, error) {
	s := strings.ToUpper(strings.TrimSpace(symbol))
	if !symbolPattern.MatchString(s) {
		return "", ErrInvalidSymbol
	}
	return s, nil
}
