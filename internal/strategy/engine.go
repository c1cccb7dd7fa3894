package strategy

import (
	"fmt"
	"math"
	"time"

	"StockPulse/internal/calculator"
	"StockPulse/internal/model"
)

// TimeFrame is the horizon every prediction is stated for.
const TimeFrame = "7 days"

const (
	// maxTotalScore is the largest attainable weighted score magnitude, rounded up.
	maxTotalScore = 1.65
	// percentPerScore converts a total score into a predicted percent change.
	percentPerScore = 3.0
	maxChangePct    = 5.0
	// sentimentThreshold is the predicted percent change beyond which a
	// prediction stops being Neutral.
	sentimentThreshold = 2.0
)

// Remarks is the pool of supplementary observations; one is appended to every
// prediction.
var Remarks = []string{
	"Recent sector performance trends align with forecast",
	"Unusual options activity detected",
	"Volume patterns suggest institutional interest",
	"Potential catalyst events within forecast timeframe",
	"Recent earnings data supports outlook",
}

// Picker draws a uniform index in [0, n).
type Picker interface {
	Intn(n int) int
}

// Engine turns a quote and its indicators into a Prediction.
type Engine struct {
	picker Picker
	now    func() time.Time
}

// NewEngine creates an Engine. A nil picker always selects the first remark.
func NewEngine(picker Picker) *Engine {
	return &Engine{picker: picker, now: time.Now}
}

// Evaluate scores the five factors and derives the prediction. The result is
// a fallback when either the indicators or the quote were synthesized.
func (e *Engine) Evaluate(quote *model.Quote, ind *model.TechnicalIndicators, fallback bool) *model.Prediction {
	fallback = fallback || quote.Fallback
	factors := []model.FactorScore{
		scoreRSI(ind),
		scoreMACD(ind),
		scoreSMADeviation(quote.Price, ind),
		scoreBandPosition(quote.Price, ind),
		scoreVolume(quote, ind),
	}

	var total float64
	for _, f := range factors {
		total += f.Weighted
	}

	pct := clamp(total*percentPerScore, -maxChangePct, maxChangePct)
	pct = math.Round(pct*100) / 100

	sentiment := model.Neutral
	switch {
	case pct > sentimentThreshold:
		sentiment = model.Bullish
	case pct < -sentimentThreshold:
		sentiment = model.Bearish
	}

	confidence := 40 + math.Abs(total)/maxTotalScore*40 + agreement(factors, total)*15
	if fallback {
		confidence = clamp(confidence, 40, 95)
	}
	confidence = math.Round(clamp(confidence, 0, 100))

	predicted := quote.Price * (1 + pct/100)

	return &model.Prediction{
		Symbol:                 quote.Symbol,
		Price:                  quote.Price,
		PredictedPrice:         round2(predicted),
		PredictedChange:        round2(predicted - quote.Price),
		PredictedChangePercent: pct,
		TimeFrame:              TimeFrame,
		ConfidenceScore:        confidence,
		Sentiment:              sentiment,
		RecommendedAction:      sentiment.Action(),
		Reasons:                e.reasons(quote, ind),
		Indicators:             *ind,
		Factors:                factors,
		TotalScore:             total,
		LastUpdated:            e.now(),
		Fallback:               fallback,
	}
}

// agreement is the share of non-zero factors pointing the same way as total.
func agreement(factors []model.FactorScore, total float64) float64 {
	if total == 0 {
		return 0
	}
	var voting, agreeing int
	for _, f := range factors {
		if f.RawScore == 0 {
			continue
		}
		voting++
		if (f.RawScore > 0) == (total > 0) {
			agreeing++
		}
	}
	if voting == 0 {
		return 0
	}
	return float64(agreeing) / float64(voting)
}

func (e *Engine) reasons(quote *model.Quote, ind *model.TechnicalIndicators) []string {
	reasons := make([]string, 0, 5)

	switch {
	case ind.RSI > 70:
		reasons = append(reasons, fmt.Sprintf("RSI indicates overbought conditions at %.2f", ind.RSI))
	case ind.RSI < 30:
		reasons = append(reasons, fmt.Sprintf("RSI indicates oversold conditions at %.2f", ind.RSI))
	default:
		reasons = append(reasons, fmt.Sprintf("RSI is at a neutral level of %.2f", ind.RSI))
	}

	switch {
	case ind.MACD > ind.MACDSignal:
		reasons = append(reasons, "MACD is above signal line, indicating bullish momentum")
	case ind.MACD < ind.MACDSignal:
		reasons = append(reasons, "MACD is below signal line, indicating bearish momentum")
	default:
		reasons = append(reasons, "MACD is level with its signal line")
	}

	switch {
	case ind.SMA == 0:
		reasons = append(reasons, "50-day SMA is unavailable")
	case quote.Price > ind.SMA:
		reasons = append(reasons, "Price is above the 50-day SMA, suggesting an uptrend")
	default:
		reasons = append(reasons, "Price is below the 50-day SMA, suggesting a downtrend")
	}

	pos, err := calculator.CalculateBandPosition(quote.Price, ind.Bollinger.Upper, ind.Bollinger.Lower)
	bandsOK := err == nil && ind.Bollinger.Upper > 0
	switch {
	case bandsOK && pos > 1:
		reasons = append(reasons, "Price is trading above the upper Bollinger Band")
	case bandsOK && pos < 0:
		reasons = append(reasons, "Price is trading below the lower Bollinger Band")
	case ind.VolumeAvg > 0 && float64(quote.Volume) > ind.VolumeAvg*1.5:
		reasons = append(reasons, fmt.Sprintf("Trading volume is %.0f%% above average",
			(float64(quote.Volume)/ind.VolumeAvg-1)*100))
	}

	return append(reasons, e.remark())
}

func (e *Engine) remark() string {
	if e.picker == nil {
		return Remarks[0]
	}
	return Remarks[e.picker.Intn(len(Remarks))]
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
