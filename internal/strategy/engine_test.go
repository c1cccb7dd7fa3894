package strategy

import (
	"context"
	"errors"
	"strings"
	"testing"

	"StockPulse/internal/collector"
	"StockPulse/internal/model"
)

type fixedPicker int

func (p fixedPicker) Intn(n int) int { return int(p) % n }

func TestEvaluate_OverboughtNVDA(t *testing.T) {
	quote := &model.Quote{Symbol: "NVDA", Price: 90, Change: -1, Volume: 1000}
	ind := &model.TechnicalIndicators{RSI: 85, MACD: -1, MACDSignal: 0, SMA: 100}

	p := NewEngine(fixedPicker(2)).Evaluate(quote, ind, false)

	found := false
	for _, r := range p.Reasons {
		if strings.Contains(r, "overbought") {
			found = true
		}
	}
	if !found {
		t.Errorf("expected an overbought reason, got %v", p.Reasons)
	}
	if p.Sentiment != model.Bearish || p.RecommendedAction != model.Sell {
		t.Errorf("expected Bearish/Sell, got %s/%s (pct %.2f)", p.Sentiment, p.RecommendedAction, p.PredictedChangePercent)
	}
	if len(p.Reasons) != 4 {
		t.Errorf("expected 4 reasons without band or volume commentary, got %d", len(p.Reasons))
	}
	if p.Reasons[len(p.Reasons)-1] != Remarks[2] {
		t.Errorf("expected picked remark last, got %q", p.Reasons[len(p.Reasons)-1])
	}
	if p.TimeFrame != "7 days" {
		t.Errorf("unexpected time frame %q", p.TimeFrame)
	}
}

func TestEvaluate_Bullish(t *testing.T) {
	quote := &model.Quote{Symbol: "AAPL", Price: 110, Change: 2, Volume: 4_000_000}
	ind := &model.TechnicalIndicators{
		RSI: 15, MACD: 2, MACDSignal: 1, SMA: 100,
		Bollinger: model.BollingerBands{Upper: 130, Middle: 122.5, Lower: 115},
		VolumeAvg: 2_000_000,
	}
	p := NewEngine(nil).Evaluate(quote, ind, false)

	if p.Sentiment != model.Bullish || p.RecommendedAction != model.Buy {
		t.Fatalf("expected Bullish/Buy, got %s/%s", p.Sentiment, p.RecommendedAction)
	}
	if p.PredictedChangePercent != 4.8 {
		t.Errorf("expected 4.8%% predicted change, got %v", p.PredictedChangePercent)
	}
	if p.PredictedPrice != 115.28 {
		t.Errorf("expected predicted price 115.28, got %v", p.PredictedPrice)
	}
	if len(p.Reasons) != 5 {
		t.Errorf("expected 5 reasons, got %v", p.Reasons)
	}
	if !strings.Contains(p.Reasons[3], "below the lower Bollinger Band") {
		t.Errorf("expected band commentary, got %q", p.Reasons[3])
	}
	if p.ConfidenceScore < 90 || p.ConfidenceScore > 100 {
		t.Errorf("expected high confidence, got %v", p.ConfidenceScore)
	}
}

func TestEvaluate_Neutral(t *testing.T) {
	quote := &model.Quote{Symbol: "MSFT", Price: 100}
	ind := &model.TechnicalIndicators{RSI: 50, MACD: 1, MACDSignal: 1, SMA: 100}
	p := NewEngine(nil).Evaluate(quote, ind, false)

	if p.Sentiment != model.Neutral || p.RecommendedAction != model.Hold {
		t.Errorf("expected Neutral/Hold, got %s/%s", p.Sentiment, p.RecommendedAction)
	}
	if p.ConfidenceScore != 40 {
		t.Errorf("expected base confidence 40, got %v", p.ConfidenceScore)
	}
	if !strings.Contains(p.Reasons[0], "neutral level") {
		t.Errorf("expected neutral RSI commentary, got %q", p.Reasons[0])
	}
}

func TestEvaluate_Invariants(t *testing.T) {
	synth := collector.NewSynthesizer(11, nil)
	engine := NewEngine(synth)
	for i := 0; i < 1000; i++ {
		quote := synth.Quote("TSLA", nil)
		ind := synth.Indicators(quote.Price)
		p := engine.Evaluate(quote, ind, true)

		if p.Sentiment.Action() != p.RecommendedAction {
			t.Fatalf("sentiment %s inconsistent with action %s", p.Sentiment, p.RecommendedAction)
		}
		if p.ConfidenceScore < 40 || p.ConfidenceScore > 95 {
			t.Fatalf("fallback confidence %v outside [40, 95]", p.ConfidenceScore)
		}
		if p.PredictedChangePercent < -5 || p.PredictedChangePercent > 5 {
			t.Fatalf("predicted change %v outside [-5, 5]", p.PredictedChangePercent)
		}
		if n := len(p.Reasons); n < 3 || n > 5 {
			t.Fatalf("expected 3-5 reasons, got %d", n)
		}
		if !p.Fallback {
			t.Fatal("expected fallback prediction")
		}
	}
}

func TestFactorScores(t *testing.T) {
	tests := []struct {
		rsi  float64
		want float64
	}{
		{10, 2.0},
		{25, 1.5},
		{35, 0.5},
		{50, 0},
		{65, -0.5},
		{75, -1.5},
		{90, -2.0},
	}
	for _, tt := range tests {
		got := scoreRSI(&model.TechnicalIndicators{RSI: tt.rsi})
		if got.RawScore != tt.want {
			t.Errorf("scoreRSI(%v) = %v, want %v", tt.rsi, got.RawScore, tt.want)
		}
		if got.Weighted != tt.want*0.30 {
			t.Errorf("scoreRSI(%v) weighted = %v", tt.rsi, got.Weighted)
		}
	}

	if f := scoreSMADeviation(100, &model.TechnicalIndicators{}); f.RawScore != 0 {
		t.Errorf("missing SMA should score 0, got %v", f.RawScore)
	}
	if f := scoreBandPosition(100, &model.TechnicalIndicators{Bollinger: model.BollingerBands{Upper: 90, Lower: 95}}); f.RawScore != 0 {
		t.Errorf("inverted bands should score 0, got %v", f.RawScore)
	}
	down := scoreVolume(&model.Quote{Volume: 300, Change: -1}, &model.TechnicalIndicators{VolumeAvg: 100})
	if down.RawScore != -1 {
		t.Errorf("heavy volume on a down day should score -1, got %v", down.RawScore)
	}
}

func TestPredictor_Fallback(t *testing.T) {
	synth := collector.NewSynthesizer(9, nil)
	p := NewPredictor(collector.NewQuoteFetcher(nil, synth), collector.NewIndicatorCollector(synth), NewEngine(synth))

	pred, err := p.Predict(context.Background(), "aapl", nil)
	if err != nil {
		t.Fatal(err)
	}
	if pred.Symbol != "AAPL" || !pred.Fallback {
		t.Errorf("unexpected prediction: %+v", pred)
	}

	next, err := p.Predict(context.Background(), "AAPL", pred)
	if err != nil {
		t.Fatal(err)
	}
	if next.Price < pred.Price*0.99 || next.Price > pred.Price*1.01 {
		t.Errorf("price %v should walk within ±1%% of %v", next.Price, pred.Price)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := p.Predict(ctx, "AAPL", nil); err == nil {
		t.Error("expected error for cancelled context")
	}
}

type liveQuotes struct{}

func (liveQuotes) Name() string { return "live" }

func (liveQuotes) FetchQuote(_ context.Context, symbol string) (*model.Quote, error) {
	return &model.Quote{Symbol: symbol, Name: "Live Co", Price: 100, Change: 1, PreviousClose: 99, Volume: 5000}, nil
}

type indicatorSource struct {
	ind *model.TechnicalIndicators
	err error
}

func (s indicatorSource) Name() string { return "ind" }

func (s indicatorSource) FetchIndicators(_ context.Context, _ string, _ float64) (*model.TechnicalIndicators, error) {
	if s.err != nil {
		return nil, s.err
	}
	ind := *s.ind
	return &ind, nil
}

func TestPredictor_DegradedIndicatorsMarkFallback(t *testing.T) {
	synth := collector.NewSynthesizer(3, nil)
	down := indicatorSource{err: errors.New("rate limited")}
	up := indicatorSource{ind: &model.TechnicalIndicators{RSI: 50, MACD: 0.1, MACDSignal: 0, SMA: 98, EMA: 99}}

	tests := []struct {
		name         string
		sources      []collector.IndicatorSource
		wantFallback bool
	}{
		{"live quote and indicators", []collector.IndicatorSource{up}, false},
		{"first source fails, second rescues", []collector.IndicatorSource{down, up}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := NewPredictor(collector.NewQuoteFetcher(liveQuotes{}, synth),
				collector.NewIndicatorCollector(synth, tt.sources...), NewEngine(synth))
			pred, err := p.Predict(context.Background(), "NVDA", nil)
			if err != nil {
				t.Fatal(err)
			}
			if pred.Fallback != tt.wantFallback {
				t.Errorf("Fallback = %v, want %v", pred.Fallback, tt.wantFallback)
			}
			if pred.Indicators.RSI != 50 {
				t.Errorf("expected indicators from the live source, got %+v", pred.Indicators)
			}
		})
	}
}
