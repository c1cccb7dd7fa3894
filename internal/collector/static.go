package collector

import (
	"context"
	"time"

	"StockPulse/internal/model"
)

// StaticTrending serves a fixed trending board. It is the fallback when no
// live ranking is possible.
type StaticTrending struct {
	Stocks []model.TrendingStock
}

// DefaultTrending is the built-in trending board.
var DefaultTrending = []model.TrendingStock{
	{Symbol: "TSLA", Name: "Tesla, Inc.", Trend: "up", Volume: 42_300_000, Price: 248.42, ChangePercent: 2.8,
		ChartData: []float64{210, 215, 208, 212, 220, 218, 225, 230, 228, 235, 242, 248}},
	{Symbol: "META", Name: "Meta Platforms, Inc.", Trend: "up", Volume: 37_100_000, Price: 512.74, ChangePercent: 3.5,
		ChartData: []float64{480, 478, 485, 490, 492, 498, 495, 501, 505, 508, 510, 512}},
	{Symbol: "NFLX", Name: "Netflix, Inc.", Trend: "up", Volume: 15_700_000, Price: 675.15, ChangePercent: 1.2,
		ChartData: []float64{650, 655, 660, 658, 657, 662, 664, 668, 670, 672, 673, 675}},
	{Symbol: "SBUX", Name: "Starbucks Corporation", Trend: "down", Volume: 8_300_000, Price: 78.32, ChangePercent: -2.4,
		ChartData: []float64{85, 84, 83, 82, 81, 80, 79.5, 79, 78.8, 78.5, 78.4, 78.3}},
}

func (s *StaticTrending) Name() string { return "static" }

func (s *StaticTrending) FetchTrending(_ context.Context) ([]model.TrendingStock, error) {
	if s.Stocks == nil {
		return DefaultTrending, nil
	}
	return s.Stocks, nil
}

// StaticNews serves canned market headlines and generic company headlines.
type StaticNews struct {
	Now func() time.Time
}

func (s *StaticNews) Name() string { return "static" }

func (s *StaticNews) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

func (s *StaticNews) FetchMarketNews(_ context.Context) ([]model.Article, error) {
	now := s.now()
	items := []struct {
		headline, source, summary string
		age                       time.Duration
	}{
		{"Fed Signals Potential Rate Cut in September", "Financial Times",
			"Federal Reserve officials have indicated they may be prepared to cut interest rates at their September meeting if inflation continues to cool.", 30 * time.Minute},
		{"Tech Stocks Rally on Strong Earnings Reports", "Wall Street Journal",
			"Technology stocks surged in early trading following better-than-expected earnings reports from several major companies.", 105 * time.Minute},
		{"Oil Prices Drop as OPEC+ Considers Production Increase", "Bloomberg",
			"Crude oil prices fell after reports that OPEC+ members are discussing a potential increase in production quotas.", 135 * time.Minute},
		{"Retail Sales Data Shows Unexpected Decline in July", "CNBC",
			"Retail sales fell 0.2% in July, contrary to economist expectations of a 0.3% increase, raising concerns about consumer spending.", 3 * time.Hour},
		{"New AI Chip from Nvidia Exceeds Performance Expectations", "TechCrunch",
			"Nvidia unveiled its latest AI processor, which early benchmarks show outperforms previous models by up to 70%.", 17 * time.Hour},
		{"Housing Market Shows Signs of Cooling as Mortgage Rates Rise", "Reuters",
			"Home sales declined for the third consecutive month as mortgage rates climbed to their highest level in over a decade.", 19 * time.Hour},
	}
	articles := make([]model.Article, 0, len(items))
	for i, it := range items {
		articles = append(articles, model.Article{
			ID:          int64(i + 1),
			Headline:    it.headline,
			Summary:     it.summary,
			Source:      it.source,
			URL:         "#",
			Category:    "general",
			PublishedAt: now.Add(-it.age),
		})
	}
	return articles, nil
}

func (s *StaticNews) FetchCompanyNews(_ context.Context, symbol string, _, to time.Time) ([]model.Article, error) {
	headlines := []string{
		symbol + " Reports Strong Quarterly Earnings",
		"Analyst Upgrades " + symbol + " to Outperform",
		symbol + " Announces New Product Line",
	}
	articles := make([]model.Article, 0, len(headlines))
	for i, h := range headlines {
		articles = append(articles, model.Article{
			ID:          int64(i + 1),
			Symbol:      symbol,
			Headline:    h,
			Source:      "Simulated",
			URL:         "#",
			Category:    "company",
			PublishedAt: to.Add(-time.Duration(i+1) * 24 * time.Hour),
		})
	}
	return articles, nil
}
