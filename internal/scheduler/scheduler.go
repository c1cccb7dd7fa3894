package scheduler

import (
	"context"
	"fmt"
	"log"
	"strings"
	"sync"

	"github.com/robfig/cron/v3"

	"StockPulse/internal/market"
	"StockPulse/internal/model"
	"StockPulse/internal/notifier"
)

// Scheduler manages the cron jobs and answers bot commands.
type Scheduler struct {
	Cron      *cron.Cron
	Quotes    FetchFunc[model.Quote]
	Predict   FetchFunc[model.Prediction]
	News      *market.NewsDesk
	Trending  *market.TrendingBoard
	Notifier  *notifier.TelegramNotifier
	Watchlist []string
	Ctx       context.Context

	mu   sync.Mutex
	last map[string]*model.Prediction
}

// NewScheduler creates a new Scheduler. tn may be nil.
func NewScheduler(ctx context.Context, quotes FetchFunc[model.Quote], predict FetchFunc[model.Prediction],
	news *market.NewsDesk, trending *market.TrendingBoard, tn *notifier.TelegramNotifier, watchlist []string) *Scheduler {
	return &Scheduler{
		Cron:      cron.New(cron.WithSeconds()),
		Quotes:    quotes,
		Predict:   predict,
		News:      news,
		Trending:  trending,
		Notifier:  tn,
		Watchlist: watchlist,
		Ctx:       ctx,
		last:      make(map[string]*model.Prediction),
	}
}

// RegisterAll registers the news, trending and alert jobs.
func (s *Scheduler) RegisterAll(newsCron, trendingCron, alertCron string) error {
	if _, err := s.Cron.AddFunc(newsCron, s.refreshNews); err != nil {
		return fmt.Errorf("register news task: %w", err)
	}
	if _, err := s.Cron.AddFunc(trendingCron, s.refreshTrending); err != nil {
		return fmt.Errorf("register trending task: %w", err)
	}
	if _, err := s.Cron.AddFunc(alertCron, s.checkAlerts); err != nil {
		return fmt.Errorf("register alert task: %w", err)
	}
	return nil
}

// Start starts the cron scheduler.
func (s *Scheduler) Start() {
	s.Cron.Start()
	log.Println("[INFO] scheduler started")
}

// Stop stops the cron scheduler and waits for running jobs.
func (s *Scheduler) Stop() {
	<-s.Cron.Stop().Done()
	log.Println("[INFO] scheduler stopped")
}

// RunNow refreshes the boards and primes the alert baseline immediately.
func (s *Scheduler) RunNow() {
	s.refreshNews()
	s.refreshTrending()
	s.checkAlerts()
}

func (s *Scheduler) refreshNews() {
	feed := s.News.RefreshMarket(s.Ctx)
	log.Printf("[INFO] market news refreshed: %d articles (fallback=%v)", len(feed.Articles), feed.Fallback)
}

func (s *Scheduler) refreshTrending() {
	feed, err := s.Trending.Refresh(s.Ctx)
	if err != nil {
		log.Printf("[ERROR] trending refresh: %v", err)
		return
	}
	log.Printf("[INFO] trending refreshed from %s: %d stocks", feed.Source, len(feed.Stocks))
}

// checkAlerts re-predicts every watchlist symbol and notifies when its
// sentiment differs from the previous run.
func (s *Scheduler) checkAlerts() {
	for _, sym := range s.Watchlist {
		if s.Ctx.Err() != nil {
			return
		}
		s.mu.Lock()
		prev := s.last[sym]
		s.mu.Unlock()

		p, err := s.Predict(s.Ctx, sym, prev)
		if err != nil {
			log.Printf("[ERROR] alert predict %s: %v", sym, err)
			continue
		}

		s.mu.Lock()
		s.last[sym] = p
		s.mu.Unlock()

		if prev != nil && prev.Sentiment != p.Sentiment {
			log.Printf("[INFO] %s sentiment %s -> %s", sym, prev.Sentiment, p.Sentiment)
			s.trySend(notifier.FormatSentimentAlert(prev.Sentiment, p))
		}
	}
}

// HandleCommand processes a user command and returns a reply.
func (s *Scheduler) HandleCommand(ctx context.Context, command string) string {
	fields := strings.Fields(command)
	if len(fields) == 0 {
		return notifier.HelpText
	}
	name := strings.ToLower(fields[0])
	if i := strings.Index(name, "@"); i > 0 {
		name = name[:i] // "/quote@StockPulseBot"
	}
	arg := ""
	if len(fields) > 1 {
		arg = strings.ToUpper(fields[1])
	}

	switch name {
	case "/quote":
		if arg == "" {
			return "Usage: /quote SYMBOL"
		}
		q, err := s.Quotes(ctx, arg, nil)
		if err != nil {
			return notifier.FormatError(arg, err, "/quote")
		}
		return notifier.FormatQuote(q)
	case "/predict":
		if arg == "" {
			return "Usage: /predict SYMBOL"
		}
		p, err := s.Predict(ctx, arg, nil)
		if err != nil {
			return notifier.FormatError(arg, err, "/predict")
		}
		return notifier.FormatPrediction(p)
	case "/news":
		if arg == "" {
			feed := s.News.MarketNews(ctx)
			return notifier.FormatNews("Market news", feed.Articles, feed.Fallback)
		}
		feed, err := s.News.CompanyNews(ctx, arg)
		if err != nil {
			return notifier.FormatError(arg, err, "/news")
		}
		return notifier.FormatNews(arg+" news", feed.Articles, feed.Fallback)
	case "/trending":
		feed := s.Trending.Current(ctx)
		return notifier.FormatTrending(feed.Stocks, feed.Fallback)
	default:
		return notifier.HelpText
	}
}

func (s *Scheduler) trySend(text string) {
	if !s.Notifier.Enabled() {
		return
	}
	if err := s.Notifier.SendWithRetry(s.Ctx, text, 3); err != nil {
		log.Printf("[ERROR] send notification: %v", err)
	}
}
