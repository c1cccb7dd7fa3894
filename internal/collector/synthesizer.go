package collector

import (
	"hash/fnv"
	"math"
	"math/rand/v2"
	"sync"
	"time"

	"StockPulse/internal/model"
)

// Directory maps symbols to company display names.
type Directory map[string]string

// DefaultDirectory is the built-in company directory.
var DefaultDirectory = Directory{
	"AAPL":  "Apple Inc.",
	"MSFT":  "Microsoft Corporation",
	"GOOGL": "Alphabet Inc.",
	"AMZN":  "Amazon.com Inc.",
	"META":  "Meta Platforms Inc.",
	"TSLA":  "Tesla Inc.",
	"NVDA":  "NVIDIA Corporation",
	"JPM":   "JPMorgan Chase & Co.",
	"NFLX":  "Netflix Inc.",
	"DIS":   "The Walt Disney Company",
}

// Name returns the display name for symbol, or "<SYMBOL> Inc." when unknown.
func (d Directory) Name(symbol string) string {
	if name, ok := d[symbol]; ok {
		return name
	}
	return symbol + " Inc."
}

const (
	seedPriceMin = 102.0
	seedPriceMax = 980.0
)

// Synthesizer produces plausible quotes and indicators when providers are
// unavailable. It is safe for concurrent use.
type Synthesizer struct {
	mu        sync.Mutex
	rng       *rand.Rand
	directory Directory
	now       func() time.Time
}

// NewSynthesizer creates a Synthesizer with a deterministic random stream.
func NewSynthesizer(seed uint64, directory Directory) *Synthesizer {
	if directory == nil {
		directory = DefaultDirectory
	}
	return &Synthesizer{
		rng:       rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)),
		directory: directory,
		now:       time.Now,
	}
}

// SeedPrice maps a symbol onto a stable base price in [102, 980].
func SeedPrice(symbol string) float64 {
	h := fnv.New64a()
	h.Write([]byte(symbol))
	frac := float64(h.Sum64()%1_000_000) / 1_000_000
	return seedPriceMin + frac*(seedPriceMax-seedPriceMin)
}

// between returns a uniform value in [lo, hi). Callers must hold s.mu.
func (s *Synthesizer) between(lo, hi float64) float64 {
	return lo + s.rng.Float64()*(hi-lo)
}

// Quote synthesizes a quote for symbol. When prev carries a price the new
// price is a ±1% step from it, otherwise it is a ±1% step from the symbol's
// seed price.
func (s *Synthesizer) Quote(symbol string, prev *model.Quote) *model.Quote {
	s.mu.Lock()
	defer s.mu.Unlock()

	base := SeedPrice(symbol)
	if prev != nil && prev.Price > 0 {
		base = prev.Price
	}

	price := base * s.between(0.99, 1.01)
	prevClose := base * s.between(0.98, 1.02)
	open := prevClose * s.between(0.99, 1.01)
	high := math.Max(price*s.between(1.00, 1.02), open)
	low := math.Min(price*s.between(0.98, 0.99), open)

	q := &model.Quote{
		Symbol:        symbol,
		Name:          s.directory.Name(symbol),
		Price:         price,
		Change:        price - prevClose,
		Volume:        int64(s.between(0, 10_000_000)),
		Open:          open,
		High:          high,
		Low:           low,
		PreviousClose: prevClose,
		MarketCap:     price * 1_000_000 * s.between(10, 1000),
		LastUpdated:   s.now(),
		Source:        "simulated",
		Fallback:      true,
	}
	q.Recalculate()
	return q
}

// Indicators synthesizes technical indicators around price.
func (s *Synthesizer) Indicators(price float64) *model.TechnicalIndicators {
	s.mu.Lock()
	defer s.mu.Unlock()

	return &model.TechnicalIndicators{
		RSI:        s.between(1, 99),
		MACD:       s.between(-5, 5),
		MACDSignal: s.between(-5, 5),
		SMA:        price * s.between(0.95, 1.05),
		EMA:        price * s.between(0.96, 1.04),
		Bollinger: model.BollingerBands{
			Upper:  price * 1.05,
			Middle: price,
			Lower:  price * 0.95,
		},
		VolumeAvg: math.Floor(s.between(1_000_000, 6_000_000)),
		Source:    "simulated",
	}
}

// Intn returns a uniform int in [0, n).
func (s *Synthesizer) Intn(n int) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rng.IntN(n)
}
