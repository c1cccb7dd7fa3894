package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"StockPulse/internal/api"
	"StockPulse/internal/collector"
	"StockPulse/internal/config"
	"StockPulse/internal/market"
	"StockPulse/internal/model"
	"StockPulse/internal/notifier"
	"StockPulse/internal/publisher"
	"StockPulse/internal/scheduler"
	"StockPulse/internal/strategy"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)
	log.Println("[INFO] StockPulse starting...")

	// Load config
	cfgPath := "configs/config.yaml"
	if v := os.Getenv("CONFIG_PATH"); v != "" {
		cfgPath = v
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		log.Fatalf("[FATAL] load config: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("[FATAL] config validation: %v", err)
	}

	// Context for graceful shutdown
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	synth := collector.NewSynthesizer(cfg.Seed, collector.DefaultDirectory)
	timeout := cfg.Providers.Timeout

	// Init providers. Missing keys leave the source nil so its path runs on
	// simulated data.
	var quoteSrc collector.QuoteSource
	var newsSrc collector.NewsSource
	if cfg.Providers.FinnhubAPIKey != "" {
		fh := collector.NewFinnhubClient(cfg.Providers.FinnhubBaseURL, cfg.Providers.FinnhubAPIKey, cfg.Proxy, timeout)
		quoteSrc, newsSrc = fh, fh
		log.Println("[INFO] quote source: finnhub")
	} else {
		log.Println("[WARN] FINNHUB_API_KEY not set, quotes and news are simulated")
	}

	var indicatorSrcs []collector.IndicatorSource
	if cfg.Providers.AlphaVantageAPIKey != "" {
		indicatorSrcs = append(indicatorSrcs, collector.NewAlphaVantageClient(
			cfg.Providers.AlphaVantageBaseURL, cfg.Providers.AlphaVantageAPIKey, cfg.Proxy, timeout))
	} else {
		log.Println("[WARN] ALPHA_VANTAGE_API_KEY not set, indicators come from daily candles")
	}
	yahoo := collector.NewYahooClient(cfg.Providers.YahooBaseURL, cfg.Proxy, timeout)
	indicatorSrcs = append(indicatorSrcs, collector.NewCandleIndicators(yahoo))

	// Init collectors and strategy
	quotes := collector.NewQuoteFetcher(quoteSrc, synth)
	indicators := collector.NewIndicatorCollector(synth, indicatorSrcs...)
	predictor := strategy.NewPredictor(quotes, indicators, strategy.NewEngine(synth))

	// Init publisher. Hub listeners run on poller goroutines, so broker calls
	// go through a queue drained in the background.
	var sink publisher.Publisher = publisher.NewNoopPublisher()
	if cfg.Redis.Addr != "" {
		rp, err := publisher.NewRedisPublisher(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB, cfg.Redis.ChannelPrefix)
		if err != nil {
			log.Printf("[WARN] init redis publisher failed, using noop: %v", err)
		} else {
			sink = rp
		}
	}
	pub := publisher.NewAsyncPublisher(sink, 256, timeout)
	defer pub.Close()

	// Init shared pollers
	quoteHub := scheduler.NewHub(ctx, "quote", cfg.Refresh.QuoteInterval, quotes.Fetch, scheduler.WithTimeout(2*timeout))
	defer quoteHub.Close()
	quoteHub.OnSnapshot(func(s scheduler.Snapshot[model.Quote]) {
		if s.Status != model.StatusReady || s.Data == nil {
			return
		}
		if err := pub.PublishQuote(ctx, s.Data); err != nil {
			log.Printf("[WARN] publish quote %s: %v", s.Symbol, err)
		}
	})

	predictionHub := scheduler.NewHub(ctx, "prediction", cfg.Refresh.PredictionInterval, predictor.Predict,
		scheduler.WithTimeout(4*timeout))
	defer predictionHub.Close()
	predictionHub.OnSnapshot(func(s scheduler.Snapshot[model.Prediction]) {
		if s.Status != model.StatusReady || s.Data == nil {
			return
		}
		if err := pub.PublishPrediction(ctx, s.Data); err != nil {
			log.Printf("[WARN] publish prediction %s: %v", s.Symbol, err)
		}
	})

	// Init market boards
	news := market.NewNewsDesk(newsSrc)
	trending := market.NewTrendingBoard(
		market.NewWatchlistRanker(quotes, cfg.Watchlist),
		&collector.StaticTrending{},
	)

	// Init Telegram notifier
	tn := notifier.NewTelegramNotifier("", cfg.Telegram.BotToken, cfg.Telegram.ChatID, cfg.Proxy)

	// Init scheduler
	sched := scheduler.NewScheduler(ctx, quotes.Fetch, predictor.Predict, news, trending, tn, cfg.Watchlist)
	if err := sched.RegisterAll(cfg.Schedule.NewsCron, cfg.Schedule.TrendingCron, cfg.Schedule.AlertCron); err != nil {
		log.Fatalf("[FATAL] register cron tasks: %v", err)
	}
	sched.Start()
	defer sched.Stop()

	// Start Telegram polling
	if tn.Enabled() {
		go tn.StartPolling(ctx, sched.HandleCommand)
		log.Println("[INFO] Telegram polling started")
	}

	// Optional: run immediately on start
	if cfg.Schedule.RunOnStart {
		log.Println("[INFO] run_on_start enabled, refreshing boards now")
		go sched.RunNow()
	}

	srv := api.NewServer(quoteHub, predictionHub, quotes.Fetch, predictor.Predict, news, trending, cfg.Server.AllowedOrigins)
	log.Println("[INFO] StockPulse is running. Press Ctrl+C to stop.")
	if err := srv.ListenAndServe(ctx, cfg.Server.Addr); err != nil {
		log.Printf("[ERROR] api server: %v", err)
		cancel()
	}

	log.Println("[INFO] shutdown signal received, stopping...")
	log.Println("[INFO] StockPulse stopped")
}
