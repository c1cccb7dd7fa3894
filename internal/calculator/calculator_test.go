package calculator

import (
	"errors"
	"math"
	"testing"
	"time"

	"StockPulse/internal/model"
)

func barsFromCloses(closes []float64) []model.OHLCV {
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	bars := make([]model.OHLCV, len(closes))
	for i, c := range closes {
		bars[i] = model.OHLCV{Time: start.AddDate(0, 0, i), Open: c, High: c, Low: c, Close: c, Volume: 1000}
	}
	return bars
}

func linear(n int, start, step float64) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = start + float64(i)*step
	}
	return out
}

func TestCalculateSMA(t *testing.T) {
	got, err := CalculateSMA([]float64{1, 2, 3, 4, 5}, 3)
	if err != nil {
		t.Fatal(err)
	}
	if got != 4 {
		t.Errorf("expected 4, got %v", got)
	}
	if _, err := CalculateSMA([]float64{1}, 3); !errors.Is(err, ErrInsufficientData) {
		t.Errorf("expected ErrInsufficientData, got %v", err)
	}
	if _, err := CalculateSMA([]float64{1}, 0); err == nil {
		t.Error("expected error for zero period")
	}
}

func TestCalculateEMA_ConstantSeries(t *testing.T) {
	prices := make([]float64, 40)
	for i := range prices {
		prices[i] = 42
	}
	got, err := CalculateEMA(prices, 20)
	if err != nil {
		t.Fatal(err)
	}
	if math.Abs(got-42) > 1e-9 {
		t.Errorf("expected 42, got %v", got)
	}
}

func TestCalculateRSI(t *testing.T) {
	up, err := CalculateRSI(linear(30, 100, 1), 14)
	if err != nil {
		t.Fatal(err)
	}
	if up != 100 {
		t.Errorf("steady gains should give RSI 100, got %v", up)
	}

	down, err := CalculateRSI(linear(30, 100, -1), 14)
	if err != nil {
		t.Fatal(err)
	}
	if down != 0 {
		t.Errorf("steady losses should give RSI 0, got %v", down)
	}

	flat, err := CalculateRSI(linear(30, 100, 0), 14)
	if err != nil {
		t.Fatal(err)
	}
	if flat != 50 {
		t.Errorf("flat series should give RSI 50, got %v", flat)
	}

	if _, err := CalculateRSI(linear(10, 100, 1), 14); !errors.Is(err, ErrInsufficientData) {
		t.Errorf("expected ErrInsufficientData, got %v", err)
	}
}

func TestCalculateMACD_Trend(t *testing.T) {
	macd, signal, err := CalculateMACD(linear(80, 100, 1), 12, 26, 9)
	if err != nil {
		t.Fatal(err)
	}
	if macd <= 0 {
		t.Errorf("rising series should have positive MACD, got %v", macd)
	}
	if math.Abs(macd-signal) > 1e-6 {
		t.Errorf("linear series should converge MACD to signal, got %v vs %v", macd, signal)
	}

	if _, _, err := CalculateMACD(linear(20, 100, 1), 12, 26, 9); !errors.Is(err, ErrInsufficientData) {
		t.Errorf("expected ErrInsufficientData, got %v", err)
	}
	if _, _, err := CalculateMACD(linear(80, 100, 1), 26, 12, 9); err == nil {
		t.Error("expected error when fast >= slow")
	}
}

func TestCalculateBollinger(t *testing.T) {
	closes := []float64{10, 12, 10, 12}
	bands, err := CalculateBollinger(closes, 4, 2)
	if err != nil {
		t.Fatal(err)
	}
	if bands.Middle != 11 || bands.Upper != 13 || bands.Lower != 9 {
		t.Errorf("unexpected bands: %+v", bands)
	}
}

func TestCalculateVolumeAverage(t *testing.T) {
	bars := barsFromCloses(linear(5, 1, 1))
	for i := range bars {
		bars[i].Volume = float64((i + 1) * 100)
	}
	got, err := CalculateVolumeAverage(bars, 2)
	if err != nil {
		t.Fatal(err)
	}
	if got != 450 {
		t.Errorf("expected 450, got %v", got)
	}
	all, _ := CalculateVolumeAverage(bars, 50)
	if all != 300 {
		t.Errorf("expected 300 when period exceeds bars, got %v", all)
	}
	if _, err := CalculateVolumeAverage(nil, 5); err == nil {
		t.Error("expected error for empty bars")
	}
}

func TestCalculateBandPosition(t *testing.T) {
	tests := []struct {
		price, upper, lower, want float64
	}{
		{100, 110, 90, 0.5},
		{115, 110, 90, 1.25},
		{90, 110, 90, 0},
		{50, 50, 50, 0.5},
	}
	for _, tt := range tests {
		got, err := CalculateBandPosition(tt.price, tt.upper, tt.lower)
		if err != nil {
			t.Fatal(err)
		}
		if math.Abs(got-tt.want) > 1e-9 {
			t.Errorf("CalculateBandPosition(%v, %v, %v) = %v, want %v", tt.price, tt.upper, tt.lower, got, tt.want)
		}
	}
	if _, err := CalculateBandPosition(1, 1, 2); err == nil {
		t.Error("expected error when upper < lower")
	}
}

func TestBarHelpers(t *testing.T) {
	bars := barsFromCloses(linear(60, 100, 0.5))
	if _, err := CalculateSMA50(bars); err != nil {
		t.Errorf("SMA50: %v", err)
	}
	if _, err := CalculateEMA20(bars); err != nil {
		t.Errorf("EMA20: %v", err)
	}
	if _, err := CalculateRSI14(bars); err != nil {
		t.Errorf("RSI14: %v", err)
	}
	if _, _, err := CalculateDefaultMACD(bars); err != nil {
		t.Errorf("MACD: %v", err)
	}
	if _, err := CalculateBollinger20(bars); err != nil {
		t.Errorf("Bollinger20: %v", err)
	}
}
