package calculator

import (
	"errors"

	"StockPulse/internal/model"
)

// CalculateMACD returns the latest MACD line (fast EMA - slow EMA) and its
// signal line (EMA of the MACD line).
func CalculateMACD(closes []float64, fast, slow, signal int) (macd, signalLine float64, err error) {
	if fast <= 0 || slow <= 0 || signal <= 0 || fast >= slow {
		return 0, 0, errors.New("invalid MACD periods")
	}
	if len(closes) < slow+signal-1 {
		return 0, 0, ErrInsufficientData
	}
	fastSeries, err := emaSeries(closes, fast)
	if err != nil {
		return 0, 0, err
	}
	slowSeries, err := emaSeries(closes, slow)
	if err != nil {
		return 0, 0, err
	}
	// Align both series on the same closing index.
	offset := slow - fast
	line := make([]float64, len(slowSeries))
	for i := range slowSeries {
		line[i] = fastSeries[i+offset] - slowSeries[i]
	}
	sig, err := CalculateEMA(line, signal)
	if err != nil {
		return 0, 0, err
	}
	return line[len(line)-1], sig, nil
}

// CalculateDefaultMACD returns MACD(12, 26, 9) from daily bars.
func CalculateDefaultMACD(dailyBars []model.OHLCV) (macd, signal float64, err error) {
	return CalculateMACD(extractCloses(dailyBars), 12, 26, 9)
}
