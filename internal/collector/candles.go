package collector

import (
	"context"
	"fmt"

	"StockPulse/internal/calculator"
	"StockPulse/internal/model"
)

// candleLookback is enough daily bars for SMA50 and MACD(12,26,9).
const candleLookback = 120

// CandleIndicators implements IndicatorSource by computing indicators from
// daily bars of a CandleSource.
type CandleIndicators struct {
	Candles CandleSource
}

// NewCandleIndicators creates an IndicatorSource backed by candles.
func NewCandleIndicators(candles CandleSource) *CandleIndicators {
	return &CandleIndicators{Candles: candles}
}

func (c *CandleIndicators) Name() string { return "candles:" + c.Candles.Name() }

// FetchIndicators computes RSI14, MACD, SMA50, EMA20, Bollinger bands and the
// 20-day volume average from daily bars. Any calculation failing fails the
// source.
func (c *CandleIndicators) FetchIndicators(ctx context.Context, symbol string, _ float64) (*model.TechnicalIndicators, error) {
	bars, err := c.Candles.FetchDailyBars(ctx, symbol, candleLookback)
	if err != nil {
		return nil, fmt.Errorf("fetch daily bars: %w", err)
	}
	ind := &model.TechnicalIndicators{Source: c.Name()}

	if ind.RSI, err = calculator.CalculateRSI14(bars); err != nil {
		return nil, fmt.Errorf("RSI: %w", err)
	}
	if ind.MACD, ind.MACDSignal, err = calculator.CalculateDefaultMACD(bars); err != nil {
		return nil, fmt.Errorf("MACD: %w", err)
	}
	if ind.SMA, err = calculator.CalculateSMA50(bars); err != nil {
		return nil, fmt.Errorf("SMA50: %w", err)
	}

	if ind.EMA, err = calculator.CalculateEMA20(bars); err != nil {
		return nil, fmt.Errorf("EMA20: %w", err)
	}
	if ind.Bollinger, err = calculator.CalculateBollinger20(bars); err != nil {
		return nil, fmt.Errorf("Bollinger: %w", err)
	}
	if ind.VolumeAvg, err = calculator.CalculateVolumeAverage(bars, 20); err != nil {
		return nil, fmt.Errorf("volume average: %w", err)
	}

	return ind, nil
}
