package calculator

import (
	"errors"
	"math"

	"StockPulse/internal/model"
)

// CalculateBollinger returns Bollinger bands of the last period closes at k
// standard deviations around the SMA.
func CalculateBollinger(closes []float64, period int, k float64) (model.BollingerBands, error) {
	mid, err := CalculateSMA(closes, period)
	if err != nil {
		return model.BollingerBands{}, err
	}
	variance := 0.0
	for i := len(closes) - period; i < len(closes); i++ {
		d := closes[i] - mid
		variance += d * d
	}
	sd := math.Sqrt(variance / float64(period))
	return model.BollingerBands{Upper: mid + k*sd, Middle: mid, Lower: mid - k*sd}, nil
}

// CalculateBollinger20 returns the standard 20-day, 2-sigma bands from daily bars.
func CalculateBollinger20(dailyBars []model.OHLCV) (model.BollingerBands, error) {
	return CalculateBollinger(extractCloses(dailyBars), 20, 2)
}

// CalculateVolumeAverage returns the mean volume of the most recent period bars.
func CalculateVolumeAverage(bars []model.OHLCV, period int) (float64, error) {
	if len(bars) == 0 {
		return 0, errors.New("no bars provided")
	}
	start := len(bars) - period
	if start < 0 {
		start = 0
	}
	sum := 0.0
	for i := start; i < len(bars); i++ {
		sum += bars[i].Volume
	}
	return sum / float64(len(bars)-start), nil
}

// CalculateBandPosition returns where price sits between lower and upper.
// 0 is the lower band, 1 the upper band; values outside the bands are not clamped.
func CalculateBandPosition(price, upper, lower float64) (float64, error) {
	if upper == lower {
		return 0.5, nil
	}
	if upper < lower {
		return 0, errors.New("upper must be >= lower")
	}
	return (price - lower) / (upper - lower), nil
}
