package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"
	"gopkg.in/yaml.v3"
)

// Config holds all application configuration.
type Config struct {
	Server struct {
		Addr           string   `yaml:"addr"`
		AllowedOrigins []string `yaml:"allowed_origins"`
	} `yaml:"server"`
	Providers struct {
		FinnhubAPIKey       string        `yaml:"finnhub_api_key"`
		FinnhubBaseURL      string        `yaml:"finnhub_base_url"`
		AlphaVantageAPIKey  string        `yaml:"alpha_vantage_api_key"`
		AlphaVantageBaseURL string        `yaml:"alpha_vantage_base_url"`
		YahooBaseURL        string        `yaml:"yahoo_base_url"`
		Timeout             time.Duration `yaml:"timeout"`
	} `yaml:"providers"`
	Refresh struct {
		QuoteInterval      time.Duration `yaml:"quote_interval"`
		PredictionInterval time.Duration `yaml:"prediction_interval"`
	} `yaml:"refresh"`
	Watchlist []string `yaml:"watchlist"`
	Schedule  struct {
		NewsCron     string `yaml:"news_cron"`
		TrendingCron string `yaml:"trending_cron"`
		AlertCron    string `yaml:"alert_cron"`
		RunOnStart   bool   `yaml:"run_on_start"`
	} `yaml:"schedule"`
	Telegram struct {
		BotToken string `yaml:"bot_token"`
		ChatID   string `yaml:"chat_id"`
	} `yaml:"telegram"`
	Redis struct {
		Addr          string `yaml:"addr"`
		Password      string `yaml:"password"`
		DB            int    `yaml:"db"`
		ChannelPrefix string `yaml:"channel_prefix"`
	} `yaml:"redis"`
	// Seed drives the fallback data generator. Zero seeds from the clock.
	Seed  uint64 `yaml:"seed"`
	Proxy string `yaml:"proxy"`
}

// DefaultWatchlist is used when no watchlist is configured.
var DefaultWatchlist = []string{"AAPL", "MSFT", "GOOGL", "AMZN", "META", "TSLA", "NVDA", "JPM", "NFLX", "DIS"}

// Load reads config from a YAML file, then applies .env and environment
// variable overrides and fills defaults. A missing file is not an error.
func Load(path string) (*Config, error) {
	cfg := &Config{}

	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if len(data) > 0 {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	// .env never overrides variables already set in the environment.
	_ = godotenv.Load()

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	cfg.applyDefaults()
	return cfg, nil
}

func (c *Config) applyEnv() error {
	strs := map[string]*string{
		"SERVER_ADDR":            &c.Server.Addr,
		"FINNHUB_API_KEY":        &c.Providers.FinnhubAPIKey,
		"FINNHUB_BASE_URL":       &c.Providers.FinnhubBaseURL,
		"ALPHA_VANTAGE_API_KEY":  &c.Providers.AlphaVantageAPIKey,
		"ALPHA_VANTAGE_BASE_URL": &c.Providers.AlphaVantageBaseURL,
		"TELEGRAM_BOT_TOKEN":     &c.Telegram.BotToken,
		"TELEGRAM_CHAT_ID":       &c.Telegram.ChatID,
		"REDIS_ADDR":             &c.Redis.Addr,
		"REDIS_PASSWORD":         &c.Redis.Password,
		"HTTPS_PROXY":            &c.Proxy,
		"CRON_NEWS":              &c.Schedule.NewsCron,
		"CRON_TRENDING":          &c.Schedule.TrendingCron,
		"CRON_ALERT":             &c.Schedule.AlertCron,
	}
	for key, dst := range strs {
		if v := os.Getenv(key); v != "" {
			*dst = v
		}
	}

	durations := map[string]*time.Duration{
		"PROVIDER_TIMEOUT":    &c.Providers.Timeout,
		"QUOTE_INTERVAL":      &c.Refresh.QuoteInterval,
		"PREDICTION_INTERVAL": &c.Refresh.PredictionInterval,
	}
	for key, dst := range durations {
		if v := os.Getenv(key); v != "" {
			d, err := time.ParseDuration(v)
			if err != nil {
				return fmt.Errorf("parse %s: %w", key, err)
			}
			*dst = d
		}
	}

	if v := os.Getenv("WATCHLIST"); v != "" {
		c.Watchlist = splitList(v)
	}
	if v := os.Getenv("ALLOWED_ORIGINS"); v != "" {
		c.Server.AllowedOrigins = splitList(v)
	}
	if v := os.Getenv("RUN_ON_START"); v != "" {
		c.Schedule.RunOnStart = v == "true" || v == "1"
	}
	if v := os.Getenv("FALLBACK_SEED"); v != "" {
		seed, err := strconv.ParseUint(v, 10, 64)
		if err != nil {
			return fmt.Errorf("parse FALLBACK_SEED: %w", err)
		}
		c.Seed = seed
	}
	return nil
}

func (c *Config) applyDefaults() {
	if c.Server.Addr == "" {
		c.Server.Addr = ":8080"
	}
	if len(c.Server.AllowedOrigins) == 0 {
		c.Server.AllowedOrigins = []string{"*"}
	}
	if c.Providers.Timeout == 0 {
		c.Providers.Timeout = 10 * time.Second
	}
	if c.Refresh.QuoteInterval == 0 {
		c.Refresh.QuoteInterval = 20 * time.Second
	}
	if c.Refresh.PredictionInterval == 0 {
		c.Refresh.PredictionInterval = 60 * time.Second
	}
	if len(c.Watchlist) == 0 {
		c.Watchlist = append([]string(nil), DefaultWatchlist...)
	}
	for i, sym := range c.Watchlist {
		c.Watchlist[i] = strings.ToUpper(strings.TrimSpace(sym))
	}
	if c.Schedule.NewsCron == "" {
		c.Schedule.NewsCron = "0 */15 * * * *"
	}
	if c.Schedule.TrendingCron == "" {
		c.Schedule.TrendingCron = "0 */5 * * * *"
	}
	if c.Schedule.AlertCron == "" {
		c.Schedule.AlertCron = "0 0 * * * 1-5"
	}
	if c.Redis.ChannelPrefix == "" {
		c.Redis.ChannelPrefix = "stockpulse"
	}
	if c.Seed == 0 {
		c.Seed = uint64(time.Now().UnixNano())
	}
}

// Validate checks that the configuration is usable. Provider keys, Telegram
// and Redis are all optional.
func (c *Config) Validate() error {
	if c.Server.Addr == "" {
		return fmt.Errorf("server.addr is required")
	}
	if c.Providers.Timeout <= 0 {
		return fmt.Errorf("providers.timeout must be positive")
	}
	if c.Refresh.QuoteInterval < time.Second {
		return fmt.Errorf("refresh.quote_interval must be at least 1s")
	}
	if c.Refresh.PredictionInterval < time.Second {
		return fmt.Errorf("refresh.prediction_interval must be at least 1s")
	}
	for _, sym := range c.Watchlist {
		if sym == "" {
			return fmt.Errorf("watchlist contains an empty symbol")
		}
	}
	if c.Telegram.BotToken != "" && c.Telegram.ChatID == "" {
		return fmt.Errorf("telegram.chat_id is required when telegram.bot_token is set")
	}
	parser := cron.NewParser(cron.Second | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)
	for name, spec := range map[string]string{
		"schedule.news_cron":     c.Schedule.NewsCron,
		"schedule.trending_cron": c.Schedule.TrendingCron,
		"schedule.alert_cron":    c.Schedule.AlertCron,
	} {
		if _, err := parser.Parse(spec); err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}
	}
	return nil
}

func splitList(v string) []string {
	var out []string
	for _, s := range strings.Split(v, ",") {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}
