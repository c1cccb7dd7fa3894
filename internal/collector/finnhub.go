package collector

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/pkg/errors"

	"StockPulse/internal/model"
)

// NewsLimit caps the number of articles returned per request.
const NewsLimit = 10

// FinnhubClient implements QuoteSource and NewsSource using the Finnhub REST API.
type FinnhubClient struct {
	client *resty.Client
	apiKey string
}

// NewFinnhubClient creates a Finnhub client with optional proxy support.
func NewFinnhubClient(baseURL, apiKey, proxyURL string, timeout time.Duration) *FinnhubClient {
	if baseURL == "" {
		baseURL = "https://finnhub.io/api/v1"
	}
	return &FinnhubClient{
		client: newRestClient(baseURL, proxyURL, timeout),
		apiKey: apiKey,
	}
}

func newRestClient(baseURL, proxyURL string, timeout time.Duration) *resty.Client {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	c := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(timeout).
		SetHeader("User-Agent", "Mozilla/5.0")
	if proxyURL != "" {
		c.SetProxy(proxyURL)
	}
	return c
}

func (c *FinnhubClient) Name() string { return "finnhub" }

type finnhubQuote struct {
	Current       float64 `json:"c"`
	Change        float64 `json:"d"`
	PercentChange float64 `json:"dp"`
	High          float64 `json:"h"`
	Low           float64 `json:"l"`
	Open          float64 `json:"o"`
	PreviousClose float64 `json:"pc"`
	Volume        float64 `json:"v"`
	Timestamp     int64   `json:"t"`
}

type finnhubProfile struct {
	Name                 string  `json:"name"`
	Ticker               string  `json:"ticker"`
	MarketCapitalization float64 `json:"marketCapitalization"` // millions
}

type finnhubNews struct {
	Category string `json:"category"`
	DateTime int64  `json:"datetime"`
	Headline string `json:"headline"`
	ID       int64  `json:"id"`
	Image    string `json:"image"`
	Related  string `json:"related"`
	Source   string `json:"source"`
	Summary  string `json:"summary"`
	URL      string `json:"url"`
}

func (c *FinnhubClient) get(ctx context.Context, path string, params map[string]string, out interface{}) error {
	if c.apiKey == "" {
		return credentialsError(c.Name())
	}
	resp, err := c.client.R().
		SetContext(ctx).
		SetQueryParams(params).
		SetQueryParam("token", c.apiKey).
		Get(path)
	if err != nil {
		return networkError(c.Name(), err, "GET %s", path)
	}
	if resp.StatusCode() != http.StatusOK {
		return statusError(c.Name(), resp.StatusCode(), resp.String())
	}
	if err := json.Unmarshal(resp.Body(), out); err != nil {
		return parseError(c.Name(), err, "decode %s", path)
	}
	return nil
}

// FetchQuote fetches the quote and company profile for symbol. A failed
// profile lookup leaves Name and MarketCap empty rather than failing the quote.
func (c *FinnhubClient) FetchQuote(ctx context.Context, symbol string) (*model.Quote, error) {
	var fq finnhubQuote
	if err := c.get(ctx, "/quote", map[string]string{"symbol": symbol}, &fq); err != nil {
		return nil, err
	}
	if fq.Current == 0 {
		return nil, parseError(c.Name(), errors.New("empty quote"), "symbol %s", symbol)
	}

	var fp finnhubProfile
	if err := c.get(ctx, "/stock/profile2", map[string]string{"symbol": symbol}, &fp); err != nil {
		if ctx.Err() != nil {
			return nil, err
		}
		fp = finnhubProfile{}
	}

	updated := time.Now()
	if fq.Timestamp > 0 {
		updated = time.Unix(fq.Timestamp, 0)
	}
	q := &model.Quote{
		Symbol:        symbol,
		Name:          fp.Name,
		Price:         fq.Current,
		Change:        fq.Change,
		Volume:        int64(fq.Volume),
		Open:          fq.Open,
		High:          fq.High,
		Low:           fq.Low,
		PreviousClose: fq.PreviousClose,
		MarketCap:     fp.MarketCapitalization * 1_000_000,
		LastUpdated:   updated,
		Source:        c.Name(),
	}
	q.Recalculate()
	return q, nil
}

// FetchCompanyNews returns up to NewsLimit articles about symbol published
// between from and to.
func (c *FinnhubClient) FetchCompanyNews(ctx context.Context, symbol string, from, to time.Time) ([]model.Article, error) {
	var items []finnhubNews
	err := c.get(ctx, "/company-news", map[string]string{
		"symbol": symbol,
		"from":   from.Format("2006-01-02"),
		"to":     to.Format("2006-01-02"),
	}, &items)
	if err != nil {
		return nil, err
	}
	return convertNews(items, symbol), nil
}

// FetchMarketNews returns up to NewsLimit general market articles.
func (c *FinnhubClient) FetchMarketNews(ctx context.Context) ([]model.Article, error) {
	var items []finnhubNews
	if err := c.get(ctx, "/news", map[string]string{"category": "general"}, &items); err != nil {
		return nil, err
	}
	return convertNews(items, ""), nil
}

func convertNews(items []finnhubNews, symbol string) []model.Article {
	if len(items) > NewsLimit {
		items = items[:NewsLimit]
	}
	articles := make([]model.Article, 0, len(items))
	for _, n := range items {
		articles = append(articles, model.Article{
			ID:          n.ID,
			Symbol:      symbol,
			Headline:    n.Headline,
			Summary:     n.Summary,
			Source:      n.Source,
			URL:         n.URL,
			Image:       n.Image,
			Category:    n.Category,
			PublishedAt: time.Unix(n.DateTime, 0),
		})
	}
	return articles
}
