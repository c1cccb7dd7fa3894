package market

import (
	"context"
	"log"
	"sync"
	"time"

	"StockPulse/internal/collector"
	"StockPulse/internal/model"
)

// NewsWindow is how far back company news is requested.
const NewsWindow = 7 * 24 * time.Hour

// DefaultNewsTTL is how long a symbol's company news is served from cache.
const DefaultNewsTTL = 10 * time.Minute

// DefaultMaxCompanyFeeds bounds how many symbols' company news are cached.
const DefaultMaxCompanyFeeds = 256

// NewsFeed is a list of articles plus where they came from.
type NewsFeed struct {
	Articles []model.Article `json:"articles"`
	Fallback bool            `json:"isFallback"`
	Updated  time.Time       `json:"updated"`
}

// NewsDesk serves market and company news from a live source, falling back
// to canned headlines when the source is missing or failing.
type NewsDesk struct {
	Source   collector.NewsSource // nil when no credentials are configured
	Fallback collector.NewsSource
	TTL      time.Duration
	Now      func() time.Time

	// MaxCompanyFeeds caps the company news cache. Zero means DefaultMaxCompanyFeeds.
	MaxCompanyFeeds int

	mu      sync.RWMutex
	market  NewsFeed
	company map[string]NewsFeed
}

// NewNewsDesk creates a NewsDesk. src may be nil.
func NewNewsDesk(src collector.NewsSource) *NewsDesk {
	return &NewsDesk{
		Source:   src,
		Fallback: &collector.StaticNews{},
		TTL:      DefaultNewsTTL,
		Now:      time.Now,
		company:  make(map[string]NewsFeed),
	}
}

// RefreshMarket reloads the market news board.
func (d *NewsDesk) RefreshMarket(ctx context.Context) NewsFeed {
	feed := NewsFeed{Updated: d.Now()}
	var err error
	if d.Source != nil {
		feed.Articles, err = d.Source.FetchMarketNews(ctx)
		if err != nil {
			log.Printf("[WARN] %s market news failed: %v, using static headlines", d.Source.Name(), err)
		}
	}
	if d.Source == nil || err != nil || len(feed.Articles) == 0 {
		feed.Articles, _ = d.Fallback.FetchMarketNews(ctx)
		feed.Fallback = true
	}

	d.mu.Lock()
	d.market = feed
	d.mu.Unlock()
	return feed
}

// MarketNews returns the cached market board, loading it on first use.
func (d *NewsDesk) MarketNews(ctx context.Context) NewsFeed {
	d.mu.RLock()
	feed := d.market
	d.mu.RUnlock()
	if feed.Updated.IsZero() {
		return d.RefreshMarket(ctx)
	}
	return feed
}

// CompanyNews returns up to collector.NewsLimit articles about symbol from
// the trailing NewsWindow.
func (d *NewsDesk) CompanyNews(ctx context.Context, symbol string) (NewsFeed, error) {
	sym, err := collector.NormalizeSymbol(symbol)
	if err != nil {
		return NewsFeed{}, err
	}

	now := d.Now()
	d.mu.RLock()
	cached, ok := d.company[sym]
	d.mu.RUnlock()
	if ok && now.Sub(cached.Updated) < d.TTL {
		return cached, nil
	}

	from := now.Add(-NewsWindow)
	feed := NewsFeed{Updated: now}
	if d.Source != nil {
		feed.Articles, err = d.Source.FetchCompanyNews(ctx, sym, from, now)
		if err != nil {
			if ctx.Err() != nil {
				return NewsFeed{}, ctx.Err()
			}
			log.Printf("[WARN] %s news for %s failed: %v, using static headlines", d.Source.Name(), sym, err)
		}
	}
	if d.Source == nil || err != nil {
		feed.Articles, _ = d.Fallback.FetchCompanyNews(ctx, sym, from, now)
		feed.Fallback = true
	}
	if len(feed.Articles) > collector.NewsLimit {
		feed.Articles = feed.Articles[:collector.NewsLimit]
	}

	d.mu.Lock()
	d.pruneCompany(now)
	d.company[sym] = feed
	d.mu.Unlock()
	return feed, nil
}

// pruneCompany drops expired company feeds and, while the cache is still at
// MaxCompanyFeeds, the oldest one. Callers hold d.mu.
func (d *NewsDesk) pruneCompany(now time.Time) {
	for sym, feed := range d.company {
		if now.Sub(feed.Updated) >= d.TTL {
			delete(d.company, sym)
		}
	}
	for len(d.company) >= d.maxCompanyFeeds() {
		oldest := ""
		for sym, feed := range d.company {
			if oldest == "" || feed.Updated.Before(d.company[oldest].Updated) {
				oldest = sym
			}
		}
		delete(d.company, oldest)
	}
}

func (d *NewsDesk) maxCompanyFeeds() int {
	if d.MaxCompanyFeeds > 0 {
		return d.MaxCompanyFeeds
	}
	return DefaultMaxCompanyFeeds
}
