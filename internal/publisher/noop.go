package publisher

import (
	"context"

	"StockPulse/internal/model"
)

// NoopPublisher is used when Redis is not configured.
type NoopPublisher struct{}

func NewNoopPublisher() *NoopPublisher { return &NoopPublisher{} }

func (n *NoopPublisher) PublishQuote(_ context.Context, _ *model.Quote) error           { return nil }
func (n *NoopPublisher) PublishPrediction(_ context.Context, _ *model.Prediction) error { return nil }
func (n *NoopPublisher) Close() error                                                   { return nil }
