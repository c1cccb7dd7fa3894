package publisher

import (
	"context"
	"time"

	"StockPulse/internal/model"
)

// Message is the envelope published for every update.
type Message struct {
	Type        string      `json:"type"` // "quote" or "prediction"
	Symbol      string      `json:"symbol"`
	Fallback    bool        `json:"isFallback"`
	Data        interface{} `json:"data"`
	PublishedAt time.Time   `json:"publishedAt"`
}

// Publisher fans quote and prediction updates out to external consumers.
type Publisher interface {
	PublishQuote(ctx context.Context, q *model.Quote) error
	PublishPrediction(ctx context.Context, p *model.Prediction) error
	Close() error
}

func quoteMessage(q *model.Quote, now time.Time) Message {
	return Message{Type: "quote", Symbol: q.Symbol, Fallback: q.Fallback, Data: q, PublishedAt: now}
}

func predictionMessage(p *model.Prediction, now time.Time) Message {
	return Message{Type: "prediction", Symbol: p.Symbol, Fallback: p.Fallback, Data: p, PublishedAt: now}
}
