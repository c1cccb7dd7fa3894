package calculator

import (
	"errors"

	"StockPulse/internal/model"
)

// ErrInsufficientData is returned when a series is shorter than the indicator period.
var ErrInsufficientData = errors.New("not enough data for calculation")

// CalculateSMA computes the simple moving average of the given prices over the specified period.
func CalculateSMA(prices []float64, period int) (float64, error) {
	if period <= 0 {
		return 0, errors.New("period must be positive")
	}
	if len(prices) < period {
		return 0, ErrInsufficientData
	}
	sum := 0.0
	for i := len(prices) - period; i < len(prices); i++ {
		sum += prices[i]
	}
	return sum / float64(period), nil
}

// CalculateEMA computes the exponential moving average, seeded with the SMA
// of the first period values.
func CalculateEMA(prices []float64, period int) (float64, error) {
	series, err := emaSeries(prices, period)
	if err != nil {
		return 0, err
	}
	return series[len(series)-1], nil
}

// emaSeries returns the EMA for every index from period-1 onwards.
func emaSeries(prices []float64, period int) ([]float64, error) {
	if period <= 0 {
		return nil, errors.New("period must be positive")
	}
	if len(prices) < period {
		return nil, ErrInsufficientData
	}
	k := 2.0 / float64(period+1)
	seed := 0.0
	for i := 0; i < period; i++ {
		seed += prices[i]
	}
	out := make([]float64, 0, len(prices)-period+1)
	ema := seed / float64(period)
	out = append(out, ema)
	for i := period; i < len(prices); i++ {
		ema = prices[i]*k + ema*(1-k)
		out = append(out, ema)
	}
	return out, nil
}

// CalculateSMA50 returns the 50-day simple moving average from daily bars.
func CalculateSMA50(dailyBars []model.OHLCV) (float64, error) {
	return CalculateSMA(extractCloses(dailyBars), 50)
}

// CalculateEMA20 returns the 20-day exponential moving average from daily bars.
func CalculateEMA20(dailyBars []model.OHLCV) (float64, error) {
	return CalculateEMA(extractCloses(dailyBars), 20)
}

func extractCloses(bars []model.OHLCV) []float64 {
	closes := make([]float64, len(bars))
	for i, b := range bars {
		closes[i] = b.Close
	}
	return closes
}
