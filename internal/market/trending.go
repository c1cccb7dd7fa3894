package market

import (
	"context"
	"errors"
	"log"
	"math"
	"sort"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"StockPulse/internal/collector"
	"StockPulse/internal/model"
)

const (
	// DefaultTrendingLimit is the number of stocks on the board.
	DefaultTrendingLimit = 4
	chartPoints          = 12
	rankConcurrency      = 4
)

// ErrNoLiveQuotes is returned by WatchlistRanker when every quote was synthesized.
var ErrNoLiveQuotes = errors.New("no live quotes for watchlist")

// WatchlistRanker implements collector.TrendingSource by ranking a watchlist
// on |percent change| × volume. It keeps a short price history per symbol
// for the board's sparkline.
type WatchlistRanker struct {
	Quotes    *collector.QuoteFetcher
	Watchlist []string
	Limit     int

	mu      sync.Mutex
	history map[string][]float64
}

// NewWatchlistRanker creates a ranker over watchlist.
func NewWatchlistRanker(quotes *collector.QuoteFetcher, watchlist []string) *WatchlistRanker {
	return &WatchlistRanker{
		Quotes:    quotes,
		Watchlist: watchlist,
		Limit:     DefaultTrendingLimit,
		history:   make(map[string][]float64),
	}
}

func (r *WatchlistRanker) Name() string { return "watchlist" }

// FetchTrending quotes the watchlist concurrently and returns the top movers.
// It fails with ErrNoLiveQuotes when no provider data was available.
func (r *WatchlistRanker) FetchTrending(ctx context.Context) ([]model.TrendingStock, error) {
	quotes := make([]*model.Quote, len(r.Watchlist))
	sem := make(chan struct{}, rankConcurrency)

	g, gctx := errgroup.WithContext(ctx)
	for i, sym := range r.Watchlist {
		g.Go(func() error {
			sem <- struct{}{}
			defer func() { <-sem }()

			q, err := r.Quotes.Fetch(gctx, sym, nil)
			if err != nil {
				if errors.Is(err, collector.ErrInvalidSymbol) {
					log.Printf("[WARN] watchlist symbol %q skipped: %v", sym, err)
					return nil
				}
				return err
			}
			quotes[i] = q
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var live []*model.Quote
	for _, q := range quotes {
		if q != nil && !q.Fallback {
			live = append(live, q)
		}
	}
	if len(live) == 0 {
		return nil, ErrNoLiveQuotes
	}

	sort.SliceStable(live, func(i, j int) bool {
		return activity(live[i]) > activity(live[j])
	})
	limit := r.Limit
	if limit <= 0 {
		limit = DefaultTrendingLimit
	}
	if len(live) > limit {
		live = live[:limit]
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	stocks := make([]model.TrendingStock, 0, len(live))
	for _, q := range live {
		hist := append(r.history[q.Symbol], q.Price)
		if len(hist) > chartPoints {
			hist = hist[len(hist)-chartPoints:]
		}
		r.history[q.Symbol] = hist

		trend := "up"
		if q.PercentChange < 0 {
			trend = "down"
		}
		stocks = append(stocks, model.TrendingStock{
			Symbol:        q.Symbol,
			Name:          q.Name,
			Trend:         trend,
			Volume:        q.Volume,
			Price:         q.Price,
			ChangePercent: q.PercentChange,
			ChartData:     append([]float64(nil), hist...),
		})
	}
	return stocks, nil
}

func activity(q *model.Quote) float64 {
	return math.Abs(q.PercentChange) * float64(q.Volume)
}

// TrendingFeed is the trending board plus where it came from.
type TrendingFeed struct {
	Stocks   []model.TrendingStock `json:"stocks"`
	Source   string                `json:"source"`
	Fallback bool                  `json:"isFallback"`
	Updated  time.Time             `json:"updated"`
}

// TrendingBoard caches the first successful board from its sources, in order.
// The last source is treated as the fallback.
type TrendingBoard struct {
	Sources []collector.TrendingSource
	Now     func() time.Time

	mu      sync.RWMutex
	current TrendingFeed
}

// NewTrendingBoard creates a board over sources, tried in order.
func NewTrendingBoard(sources ...collector.TrendingSource) *TrendingBoard {
	return &TrendingBoard{Sources: sources, Now: time.Now}
}

// Refresh reloads the board. When every source fails the previous board is kept.
func (b *TrendingBoard) Refresh(ctx context.Context) (TrendingFeed, error) {
	var lastErr error
	for i, src := range b.Sources {
		stocks, err := src.FetchTrending(ctx)
		if err != nil {
			lastErr = err
			if ctx.Err() != nil {
				break
			}
			log.Printf("[WARN] trending source %s failed: %v", src.Name(), err)
			continue
		}
		feed := TrendingFeed{
			Stocks:   stocks,
			Source:   src.Name(),
			Fallback: i > 0 && i == len(b.Sources)-1,
			Updated:  b.Now(),
		}
		b.mu.Lock()
		b.current = feed
		b.mu.Unlock()
		return feed, nil
	}
	if lastErr == nil {
		lastErr = errors.New("no trending sources configured")
	}

	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.current, lastErr
}

// Current returns the cached board, loading it on first use.
func (b *TrendingBoard) Current(ctx context.Context) TrendingFeed {
	b.mu.RLock()
	feed := b.current
	b.mu.RUnlock()
	if !feed.Updated.IsZero() {
		return feed
	}
	feed, err := b.Refresh(ctx)
	if err != nil {
		log.Printf("[ERROR] trending board unavailable: %v", err)
	}
	return feed
}
