package strategy

import (
	"context"

	"StockPulse/internal/collector"
	"StockPulse/internal/model"
)

// Predictor chains the quote fetcher, indicator collector and engine.
type Predictor struct {
	Quotes     *collector.QuoteFetcher
	Indicators *collector.IndicatorCollector
	Engine     *Engine
}

// NewPredictor creates a Predictor.
func NewPredictor(quotes *collector.QuoteFetcher, indicators *collector.IndicatorCollector, engine *Engine) *Predictor {
	return &Predictor{Quotes: quotes, Indicators: indicators, Engine: engine}
}

// Predict fetches a quote for symbol, collects its indicators and evaluates
// them. prev, when set, seeds the fallback random walk from its price.
func (p *Predictor) Predict(ctx context.Context, symbol string, prev *model.Prediction) (*model.Prediction, error) {
	var prevQuote *model.Quote
	if prev != nil {
		prevQuote = &model.Quote{Symbol: prev.Symbol, Price: prev.Price}
	}
	quote, err := p.Quotes.Fetch(ctx, symbol, prevQuote)
	if err != nil {
		return nil, err
	}
	ind, fallback := p.Indicators.Collect(ctx, quote)
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return p.Engine.Evaluate(quote, ind, fallback), nil
}
