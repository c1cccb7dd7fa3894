package notifier

import (
	"fmt"
	"html"
	"strings"
	"time"

	"StockPulse/internal/model"
)

// View is what a consumer should render for a piece of refresh state.
type View string

const (
	ViewLoading View = "loading"
	ViewError   View = "error"
	ViewReady   View = "ready"
)

// ViewOf picks the view: a loading skeleton while nothing has arrived, an
// error panel when a fetch failed and there is nothing to show, otherwise the
// best data available even if stale or simulated.
func ViewOf(hasData bool, err error) View {
	switch {
	case hasData:
		return ViewReady
	case err != nil:
		return ViewError
	default:
		return ViewLoading
	}
}

const simulatedBadge = "🧪 <i>Simulated data</i>"

// FormatLoading renders the loading placeholder for symbol.
func FormatLoading(symbol string) string {
	return fmt.Sprintf("⏳ Loading <b>%s</b>...", html.EscapeString(symbol))
}

// FormatError renders the error panel with a retry hint.
func FormatError(symbol string, err error, retryCommand string) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("❌ <b>%s</b> unavailable\n\n", html.EscapeString(symbol)))
	b.WriteString(html.EscapeString(err.Error()))
	if retryCommand != "" {
		b.WriteString(fmt.Sprintf("\n\nRetry: %s %s", retryCommand, html.EscapeString(symbol)))
	}
	return b.String()
}

// FormatQuote renders a quote card.
func FormatQuote(q *model.Quote) string {
	var b strings.Builder

	arrow := "🟢"
	if q.Change < 0 {
		arrow = "🔴"
	}
	b.WriteString(fmt.Sprintf("%s <b>%s</b> %s\n\n", arrow, html.EscapeString(q.Symbol), html.EscapeString(q.Name)))
	b.WriteString(fmt.Sprintf("Price: %.2f (%+.2f, %+.2f%%)\n", q.Price, q.Change, q.PercentChange))
	b.WriteString(fmt.Sprintf("Open: %.2f | Prev close: %.2f\n", q.Open, q.PreviousClose))
	b.WriteString(fmt.Sprintf("Day range: %.2f - %.2f\n", q.Low, q.High))
	b.WriteString(fmt.Sprintf("Volume: %s\n", humanize(float64(q.Volume))))
	if q.MarketCap > 0 {
		b.WriteString(fmt.Sprintf("Market cap: %s\n", humanize(q.MarketCap)))
	}
	b.WriteString(fmt.Sprintf("Updated: %s", q.LastUpdated.Format("2006-01-02 15:04:05")))
	if q.Fallback {
		b.WriteString("\n" + simulatedBadge)
	}
	return b.String()
}

// FormatPrediction renders the prediction panel with its factor breakdown.
func FormatPrediction(p *model.Prediction) string {
	var b strings.Builder

	b.WriteString(fmt.Sprintf("🔮 <b>%s</b> outlook | %s\n\n", html.EscapeString(p.Symbol), p.TimeFrame))
	b.WriteString(fmt.Sprintf("Price: %.2f → %.2f (%+.2f%%)\n", p.Price, p.PredictedPrice, p.PredictedChangePercent))
	b.WriteString(fmt.Sprintf("Sentiment: %s %s | Action: <b>%s</b>\n", sentimentIcon(p.Sentiment), p.Sentiment, p.RecommendedAction))
	b.WriteString(fmt.Sprintf("Confidence: %.0f%%\n\n", p.ConfidenceScore))

	ind := p.Indicators
	b.WriteString("📈 <b>Indicators:</b>\n")
	b.WriteString(fmt.Sprintf("  RSI %.1f | MACD %.2f / %.2f\n", ind.RSI, ind.MACD, ind.MACDSignal))
	b.WriteString(fmt.Sprintf("  SMA50 %.2f | EMA20 %.2f\n", ind.SMA, ind.EMA))
	b.WriteString(fmt.Sprintf("  Bands %.2f / %.2f / %.2f\n\n", ind.Bollinger.Lower, ind.Bollinger.Middle, ind.Bollinger.Upper))

	if len(p.Factors) > 0 {
		b.WriteString("🧮 <b>Factors:</b>\n")
		for _, f := range p.Factors {
			b.WriteString(fmt.Sprintf("  %s(%s): %+.2f (×%.2f) = %+.3f\n",
				f.Name, html.EscapeString(f.Commentary), f.RawScore, f.Weight, f.Weighted))
		}
		b.WriteString("  ─────────────────\n")
		b.WriteString(fmt.Sprintf("  Total: %+.3f\n\n", p.TotalScore))
	}

	b.WriteString("💡 <b>Reasons:</b>\n")
	for _, r := range p.Reasons {
		b.WriteString("• " + html.EscapeString(r) + "\n")
	}
	if p.Fallback {
		b.WriteString(simulatedBadge + "\n")
	}
	return strings.TrimRight(b.String(), "\n")
}

// FormatNews renders a headline list.
func FormatNews(title string, articles []model.Article, fallback bool) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("📰 <b>%s</b>\n\n", html.EscapeString(title)))
	if len(articles) == 0 {
		b.WriteString("No recent articles.")
	}
	for _, a := range articles {
		b.WriteString(fmt.Sprintf("• %s <i>(%s, %s)</i>\n",
			html.EscapeString(a.Headline), html.EscapeString(a.Source), timeAgo(a.PublishedAt)))
	}
	if fallback {
		b.WriteString(simulatedBadge)
	}
	return strings.TrimRight(b.String(), "\n")
}

// FormatTrending renders the trending board.
func FormatTrending(stocks []model.TrendingStock, fallback bool) string {
	var b strings.Builder
	b.WriteString("🔥 <b>Trending</b>\n\n")
	for _, s := range stocks {
		icon := "📈"
		if s.Trend == "down" {
			icon = "📉"
		}
		b.WriteString(fmt.Sprintf("%s <b>%s</b> %.2f (%+.2f%%) vol %s\n",
			icon, html.EscapeString(s.Symbol), s.Price, s.ChangePercent, humanize(float64(s.Volume))))
	}
	if fallback {
		b.WriteString(simulatedBadge)
	}
	return strings.TrimRight(b.String(), "\n")
}

// FormatSentimentAlert renders a watchlist alert for a sentiment flip.
func FormatSentimentAlert(from model.Sentiment, p *model.Prediction) string {
	return fmt.Sprintf("🚨 <b>%s</b> sentiment changed: %s → %s %s\n\nAction: <b>%s</b> | Confidence %.0f%%\nPrice %.2f → %.2f (%s)",
		html.EscapeString(p.Symbol), from, sentimentIcon(p.Sentiment), p.Sentiment,
		p.RecommendedAction, p.ConfidenceScore, p.Price, p.PredictedPrice, p.TimeFrame)
}

// HelpText lists the bot commands.
const HelpText = "Available commands:\n" +
	"• /quote SYMBOL\n" +
	"• /predict SYMBOL\n" +
	"• /news [SYMBOL]\n" +
	"• /trending\n" +
	"• /help"

func sentimentIcon(s model.Sentiment) string {
	switch s {
	case model.Bullish:
		return "🐂"
	case model.Bearish:
		return "🐻"
	default:
		return "⚖️"
	}
}

func humanize(v float64) string {
	switch {
	case v >= 1e12:
		return fmt.Sprintf("%.2fT", v/1e12)
	case v >= 1e9:
		return fmt.Sprintf("%.2fB", v/1e9)
	case v >= 1e6:
		return fmt.Sprintf("%.2fM", v/1e6)
	case v >= 1e3:
		return fmt.Sprintf("%.1fK", v/1e3)
	default:
		return fmt.Sprintf("%.0f", v)
	}
}

func timeAgo(t time.Time) string {
	d := time.Since(t)
	switch {
	case d < time.Hour:
		return fmt.Sprintf("%dm ago", int(d.Minutes()))
	case d < 24*time.Hour:
		return fmt.Sprintf("%dh ago", int(d.Hours()))
	default:
		return t.Format("Jan 2")
	}
}
