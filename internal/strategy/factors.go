package strategy

import (
	"fmt"

	"StockPulse/internal/calculator"
	"StockPulse/internal/model"
)

// scoreRSI scores the 14-day RSI: oversold is bullish, overbought is bearish.
// Weight: 0.30
func scoreRSI(ind *model.TechnicalIndicators) model.FactorScore {
	rsi := ind.RSI
	var score float64
	switch {
	case rsi <= 20:
		score = 2.0
	case rsi <= 30:
		score = 1.5
	case rsi <= 40:
		score = 0.5
	case rsi <= 60:
		score = 0
	case rsi <= 70:
		score = -0.5
	case rsi <= 80:
		score = -1.5
	default:
		score = -2.0
	}

	return model.FactorScore{
		Name:       "RSI",
		RawScore:   score,
		Weight:     0.30,
		Weighted:   score * 0.30,
		Commentary: fmt.Sprintf("RSI=%.0f", rsi),
	}
}

// scoreMACD scores the MACD line against its signal line.
// Weight: 0.25
func scoreMACD(ind *model.TechnicalIndicators) model.FactorScore {
	diff := ind.MACD - ind.MACDSignal
	var score float64
	switch {
	case diff > 0.5:
		score = 1.5
	case diff > 0:
		score = 0.75
	case diff == 0:
		score = 0
	case diff > -0.5:
		score = -0.75
	default:
		score = -1.5
	}

	return model.FactorScore{
		Name:       "MACD",
		RawScore:   score,
		Weight:     0.25,
		Weighted:   score * 0.25,
		Commentary: fmt.Sprintf("MACD-signal %+.2f", diff),
	}
}

// scoreSMADeviation scores how far price sits from the 50-day SMA.
// Weight: 0.25
func scoreSMADeviation(price float64, ind *model.TechnicalIndicators) model.FactorScore {
	if ind.SMA == 0 {
		return model.FactorScore{Name: "SMA50", RawScore: 0, Weight: 0.25, Weighted: 0, Commentary: "SMA50 unavailable"}
	}
	deviation := (price - ind.SMA) / ind.SMA * 100

	var score float64
	switch {
	case deviation >= 5:
		score = 1.5
	case deviation > 0:
		score = 0.75
	case deviation == 0:
		score = 0
	case deviation > -5:
		score = -0.75
	default:
		score = -1.5
	}

	return model.FactorScore{
		Name:       "SMA50",
		RawScore:   score,
		Weight:     0.25,
		Weighted:   score * 0.25,
		Commentary: fmt.Sprintf("deviation %+.1f%%", deviation),
	}
}

// scoreBandPosition scores where price sits inside the Bollinger bands.
// Breaking above the upper band is treated as stretched, below the lower
// band as a rebound setup.
// Weight: 0.10
func scoreBandPosition(price float64, ind *model.TechnicalIndicators) model.FactorScore {
	pos, err := calculator.CalculateBandPosition(price, ind.Bollinger.Upper, ind.Bollinger.Lower)
	if err != nil || ind.Bollinger.Upper == 0 {
		return model.FactorScore{Name: "Bollinger", RawScore: 0, Weight: 0.10, Weighted: 0, Commentary: "bands unavailable"}
	}

	var score float64
	switch {
	case pos > 1:
		score = -1.5
	case pos > 0.8:
		score = -0.5
	case pos < 0:
		score = 1.5
	case pos < 0.2:
		score = 0.5
	default:
		score = 0
	}

	return model.FactorScore{
		Name:       "Bollinger",
		RawScore:   score,
		Weight:     0.10,
		Weighted:   score * 0.10,
		Commentary: fmt.Sprintf("position=%.0f%%", pos*100),
	}
}

// scoreVolume scores unusual volume in the direction of the day's move.
// Weight: 0.10
func scoreVolume(quote *model.Quote, ind *model.TechnicalIndicators) model.FactorScore {
	if ind.VolumeAvg <= 0 {
		return model.FactorScore{Name: "Volume", RawScore: 0, Weight: 0.10, Weighted: 0, Commentary: "volume average unavailable"}
	}
	ratio := float64(quote.Volume) / ind.VolumeAvg

	var score float64
	switch {
	case ratio > 1.5 && quote.Change > 0:
		score = 1.0
	case ratio > 1.5 && quote.Change < 0:
		score = -1.0
	default:
		score = 0
	}

	return model.FactorScore{
		Name:       "Volume",
		RawScore:   score,
		Weight:     0.10,
		Weighted:   score * 0.10,
		Commentary: fmt.Sprintf("%.1fx average", ratio),
	}
}
