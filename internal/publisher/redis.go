package publisher

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"StockPulse/internal/model"
)

// DefaultChannelPrefix namespaces the pub/sub channels.
const DefaultChannelPrefix = "stockpulse"

// RedisPublisher publishes JSON messages on <prefix>:quotes and
// <prefix>:predictions.
type RedisPublisher struct {
	client *redis.Client
	prefix string
	now    func() time.Time
}

// NewRedisPublisher connects to addr and verifies the connection.
func NewRedisPublisher(ctx context.Context, addr, password string, db int, prefix string) (*RedisPublisher, error) {
	if prefix == "" {
		prefix = DefaultChannelPrefix
	}
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("ping redis %s: %w", addr, err)
	}
	return &RedisPublisher{client: client, prefix: prefix, now: time.Now}, nil
}

// QuoteChannel returns the channel quotes are published on.
func (r *RedisPublisher) QuoteChannel() string { return r.prefix + ":quotes" }

// PredictionChannel returns the channel predictions are published on.
func (r *RedisPublisher) PredictionChannel() string { return r.prefix + ":predictions" }

func (r *RedisPublisher) PublishQuote(ctx context.Context, q *model.Quote) error {
	return r.publish(ctx, r.QuoteChannel(), quoteMessage(q, r.now()))
}

func (r *RedisPublisher) PublishPrediction(ctx context.Context, p *model.Prediction) error {
	return r.publish(ctx, r.PredictionChannel(), predictionMessage(p, r.now()))
}

func (r *RedisPublisher) publish(ctx context.Context, channel string, msg Message) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("marshal %s message: %w", msg.Type, err)
	}
	if err := r.client.Publish(ctx, channel, data).Err(); err != nil {
		return fmt.Errorf("publish to %s: %w", channel, err)
	}
	return nil
}

// Close closes the Redis connection.
func (r *RedisPublisher) Close() error {
	return r.client.Close()
}
