package model

import "time"

// OHLCV represents a single candlestick bar.
type OHLCV struct {
	Time   time.Time
	Open   float64
	High   float64
	Low    float64
	Close  float64
	Volume float64
}

// Quote is a point-in-time snapshot of a security's trading price.
type Quote struct {
	Symbol         string    `json:"symbol"`
	Name           string    `json:"name"`
	Price          float64   `json:"price"`
	Change         float64   `json:"change"`
	PercentChange  float64   `json:"percentChange"`
	Volume         int64     `json:"volume"`
	Open           float64   `json:"open"`
	High           float64   `json:"high"`
	Low            float64   `json:"low"`
	PreviousClose  float64   `json:"previousClose"`
	MarketCap      float64   `json:"marketCap"`
	LastUpdated    time.Time `json:"lastUpdated"`
	Source         string    `json:"source"`
	Fallback       bool      `json:"isFallback"`
	FallbackReason string    `json:"fallbackReason,omitempty"`
}

// PercentChange returns change as a percentage of previousClose, or 0 when
// previousClose is not positive.
func PercentChange(change, previousClose float64) float64 {
	if previousClose <= 0 {
		return 0
	}
	return change / previousClose * 100
}

// Recalculate derives PercentChange from Change and PreviousClose.
func (q *Quote) Recalculate() {
	q.PercentChange = PercentChange(q.Change, q.PreviousClose)
}

// TrendingStock is one entry of the trending board.
type TrendingStock struct {
	Symbol        string    `json:"symbol"`
	Name          string    `json:"name"`
	Trend         string    `json:"trend"` // "up" or "down"
	Volume        int64     `json:"volume"`
	Price         float64   `json:"price"`
	ChangePercent float64   `json:"change"`
	ChartData     []float64 `json:"chartData,omitempty"`
}

// Article is a single news item about a company or the market.
type Article struct {
	ID          int64     `json:"id"`
	Symbol      string    `json:"symbol,omitempty"`
	Headline    string    `json:"headline"`
	Summary     string    `json:"summary"`
	Source      string    `json:"source"`
	URL         string    `json:"url"`
	Image       string    `json:"image,omitempty"`
	Category    string    `json:"category,omitempty"`
	PublishedAt time.Time `json:"publishedAt"`
}
