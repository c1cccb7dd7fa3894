package collector

import (
	"context"
	"log"
	"time"

	"StockPulse/internal/model"
)

// DefaultTimeout bounds a single provider request.
const DefaultTimeout = 10 * time.Second

// QuoteFetcher retrieves quotes and falls back to synthesized data on any
// provider failure.
type QuoteFetcher struct {
	Source    QuoteSource // nil when no credentials are configured
	Synth     *Synthesizer
	Directory Directory
	Timeout   time.Duration
}

// NewQuoteFetcher creates a QuoteFetcher. src may be nil.
func NewQuoteFetcher(src QuoteSource, synth *Synthesizer) *QuoteFetcher {
	return &QuoteFetcher{
		Source:    src,
		Synth:     synth,
		Directory: DefaultDirectory,
		Timeout:   DefaultTimeout,
	}
}

// Fetch returns a quote for symbol. Provider failures never surface: they
// produce a synthesized quote with Fallback set, continuing from prev when it
// is known. Only an invalid symbol or cancellation of ctx return an error.
func (f *QuoteFetcher) Fetch(ctx context.Context, symbol string, prev *model.Quote) (*model.Quote, error) {
	sym, err := NormalizeSymbol(symbol)
	if err != nil {
		return nil, err
	}
	if prev != nil && prev.Symbol != sym {
		prev = nil
	}

	if f.Source == nil {
		q := f.Synth.Quote(sym, prev)
		q.FallbackReason = credentialsError("quote").Error()
		return q, nil
	}

	timeout := f.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	fctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	q, err := f.Source.FetchQuote(fctx, sym)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		log.Printf("[WARN] %s quote for %s failed: %v, using simulated data", f.Source.Name(), sym, err)
		fq := f.Synth.Quote(sym, prev)
		fq.FallbackReason = err.Error()
		return fq, nil
	}
	if q.Name == "" {
		q.Name = f.Directory.Name(sym)
	}
	return q, nil
}

// IndicatorCollector gathers technical indicators from the first source that
// succeeds, degrading to synthesized values when none does. A source failing
// along the way marks the result as fallback even when a later source
// rescues it.
type IndicatorCollector struct {
	Sources []IndicatorSource
	Synth   *Synthesizer
	Timeout time.Duration
}

// NewIndicatorCollector creates a collector over sources, tried in order.
func NewIndicatorCollector(synth *Synthesizer, sources ...IndicatorSource) *IndicatorCollector {
	return &IndicatorCollector{Sources: sources, Synth: synth, Timeout: 3 * DefaultTimeout}
}

// Collect returns indicators for quote and whether the result is degraded:
// synthesized, or served after at least one source failed.
func (c *IndicatorCollector) Collect(ctx context.Context, quote *model.Quote) (*model.TechnicalIndicators, bool) {
	timeout := c.Timeout
	if timeout <= 0 {
		timeout = 3 * DefaultTimeout
	}

	degraded := false
	for _, src := range c.Sources {
		if ctx.Err() != nil {
			break
		}
		fctx, cancel := context.WithTimeout(ctx, timeout)
		ind, err := src.FetchIndicators(fctx, quote.Symbol, quote.Price)
		cancel()
		if err != nil {
			log.Printf("[WARN] indicator source %s failed for %s: %v", src.Name(), quote.Symbol, err)
			degraded = true
			continue
		}
		if ind.VolumeAvg == 0 {
			ind.VolumeAvg = float64(quote.Volume)
		}
		return ind, degraded
	}

	log.Printf("[WARN] no indicator source available for %s, using simulated indicators", quote.Symbol)
	return c.Synth.Indicators(quote.Price), true
}
