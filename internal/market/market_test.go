package market

import (
	"context"
	"errors"
	"testing"
	"time"

	"StockPulse/internal/collector"
	"StockPulse/internal/model"
)

type stubNews struct {
	err   error
	calls int
}

func (s *stubNews) Name() string { return "stub" }

func (s *stubNews) FetchCompanyNews(_ context.Context, symbol string, _, to time.Time) ([]model.Article, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	out := make([]model.Article, 12)
	for i := range out {
		out[i] = model.Article{ID: int64(i), Symbol: symbol, Headline: "live", PublishedAt: to}
	}
	return out, nil
}

func (s *stubNews) FetchMarketNews(_ context.Context) ([]model.Article, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	return []model.Article{{ID: 1, Headline: "live market"}}, nil
}

type stubQuotes map[string]model.Quote

func (s stubQuotes) Name() string { return "stub" }

func (s stubQuotes) FetchQuote(_ context.Context, symbol string) (*model.Quote, error) {
	q, ok := s[symbol]
	if !ok {
		return nil, errors.New("unknown symbol")
	}
	q.Symbol = symbol
	return &q, nil
}

func TestNewsDesk_CompanyNews(t *testing.T) {
	now := time.Date(2026, 10, 17, 12, 0, 0, 0, time.UTC)
	src := &stubNews{}
	desk := NewNewsDesk(src)
	desk.Now = func() time.Time { return now }

	feed, err := desk.CompanyNews(context.Background(), "aapl")
	if err != nil {
		t.Fatal(err)
	}
	if feed.Fallback || len(feed.Articles) != collector.NewsLimit {
		t.Errorf("expected %d live articles, got %d (fallback=%v)", collector.NewsLimit, len(feed.Articles), feed.Fallback)
	}

	if _, err := desk.CompanyNews(context.Background(), "AAPL"); err != nil {
		t.Fatal(err)
	}
	if src.calls != 1 {
		t.Errorf("expected cached second read, got %d source calls", src.calls)
	}

	now = now.Add(DefaultNewsTTL)
	if _, err := desk.CompanyNews(context.Background(), "AAPL"); err != nil {
		t.Fatal(err)
	}
	if src.calls != 2 {
		t.Errorf("expected refetch after TTL, got %d source calls", src.calls)
	}

	if _, err := desk.CompanyNews(context.Background(), " "); !errors.Is(err, collector.ErrInvalidSymbol) {
		t.Errorf("expected ErrInvalidSymbol, got %v", err)
	}
}

func TestNewsDesk_CompanyCacheIsBounded(t *testing.T) {
	now := time.Date(2026, 10, 17, 12, 0, 0, 0, time.UTC)
	desk := NewNewsDesk(&stubNews{})
	desk.Now = func() time.Time { return now }
	desk.MaxCompanyFeeds = 3

	read := func(sym string) {
		t.Helper()
		if _, err := desk.CompanyNews(context.Background(), sym); err != nil {
			t.Fatal(err)
		}
	}
	cached := func(sym string) bool {
		desk.mu.RLock()
		defer desk.mu.RUnlock()
		_, ok := desk.company[sym]
		return ok
	}

	for _, sym := range []string{"AAPL", "MSFT", "NVDA", "TSLA", "AMD"} {
		read(sym)
		now = now.Add(time.Second)
	}
	if n := len(desk.company); n != 3 {
		t.Errorf("cache holds %d feeds, want 3", n)
	}
	if cached("AAPL") || cached("MSFT") || !cached("AMD") {
		t.Errorf("expected the oldest feeds evicted, cache = %v", desk.company)
	}

	now = now.Add(DefaultNewsTTL)
	read("META")
	if n := len(desk.company); n != 1 || !cached("META") {
		t.Errorf("expired feeds should be pruned on write, cache = %v", desk.company)
	}
}

func TestNewsDesk_Fallback(t *testing.T) {
	tests := []struct {
		name string
		src  collector.NewsSource
	}{
		{"no source", nil},
		{"failing source", &stubNews{err: errors.New("status 429")}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			desk := NewNewsDesk(tt.src)
			feed, err := desk.CompanyNews(context.Background(), "TSLA")
			if err != nil {
				t.Fatal(err)
			}
			if !feed.Fallback || len(feed.Articles) == 0 {
				t.Errorf("expected static company news, got %+v", feed)
			}
			market := desk.MarketNews(context.Background())
			if !market.Fallback || len(market.Articles) != 6 {
				t.Errorf("expected 6 static market headlines, got %d", len(market.Articles))
			}
		})
	}
}

func TestWatchlistRanker(t *testing.T) {
	src := stubQuotes{
		"AAPL": {Price: 200, PercentChange: 1, Volume: 1_000_000},
		"TSLA": {Price: 250, PercentChange: -4, Volume: 2_000_000},
		"MSFT": {Price: 400, PercentChange: 0.1, Volume: 500_000},
	}
	fetcher := collector.NewQuoteFetcher(src, collector.NewSynthesizer(1, nil))
	r := NewWatchlistRanker(fetcher, []string{"AAPL", "TSLA", "MSFT", "NFLX"})
	r.Limit = 2

	stocks, err := r.FetchTrending(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(stocks) != 2 {
		t.Fatalf("expected 2 stocks, got %d", len(stocks))
	}
	if stocks[0].Symbol != "TSLA" || stocks[0].Trend != "down" {
		t.Errorf("expected TSLA trending down first, got %+v", stocks[0])
	}
	if stocks[1].Symbol != "AAPL" || stocks[1].Trend != "up" {
		t.Errorf("expected AAPL second, got %+v", stocks[1])
	}

	stocks, _ = r.FetchTrending(context.Background())
	if len(stocks[0].ChartData) != 2 {
		t.Errorf("expected chart history to grow, got %v", stocks[0].ChartData)
	}
}

func TestTrendingBoard_FallsBackToStatic(t *testing.T) {
	fetcher := collector.NewQuoteFetcher(nil, collector.NewSynthesizer(1, nil))
	ranker := NewWatchlistRanker(fetcher, []string{"AAPL", "MSFT"})
	board := NewTrendingBoard(ranker, &collector.StaticTrending{})

	if _, err := ranker.FetchTrending(context.Background()); !errors.Is(err, ErrNoLiveQuotes) {
		t.Fatalf("expected ErrNoLiveQuotes, got %v", err)
	}

	feed := board.Current(context.Background())
	if !feed.Fallback || feed.Source != "static" {
		t.Errorf("expected static fallback board, got source %q fallback %v", feed.Source, feed.Fallback)
	}
	if len(feed.Stocks) != len(collector.DefaultTrending) {
		t.Errorf("expected %d stocks, got %d", len(collector.DefaultTrending), len(feed.Stocks))
	}
}
