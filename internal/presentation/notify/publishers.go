package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/redis/go-redis/v9"
	"github.com/twmb/franz-go/pkg/kgo"

	"vp-gateway/internal/presentation/models"
)

type producer interface {
	ProduceSync(ctx context.Context, rs ...*kgo.Record) kgo.ProduceResults
}

// KafkaPublisher writes notifications to a Kafka topic keyed by request reference.
type KafkaPublisher struct {
	client producer
	topic  string
}

// NewKafkaPublisher creates a publisher producing to topic. The topic must exist.
func NewKafkaPublisher(client *kgo.Client, topic string) *KafkaPublisher {
	return &KafkaPublisher{client: client, topic: topic}
}

// Name returns the backend label used in metrics.
func (p *KafkaPublisher) Name() string { return "kafka" }

// Publish produces n as JSON and waits for the broker ack.
func (p *KafkaPublisher) Publish(ctx context.Context, n models.Notification) error {
	value, err := json.Marshal(n)
	if err != nil {
		return fmt.Errorf("marshal notification: %w", err)
	}
	rec := &kgo.Record{
		Topic: p.topic,
		Key:   []byte(n.PresentationRequestID),
		Value: value,
		Headers: []kgo.RecordHeader{
			{Key: "kind", Value: []byte(n.Kind)},
			{Key: "version", Value: []byte(n.Version)},
		},
	}
	if err := p.client.ProduceSync(ctx, rec).FirstErr(); err != nil {
		return fmt.Errorf("produce notification: %w", err)
	}
	return nil
}

// RedisClient is the part of go-redis the publisher uses.
type RedisClient interface {
	Publish(ctx context.Context, channel string, message any) *redis.IntCmd
}

// RedisPublisher publishes notifications on a Redis pub/sub channel.
type RedisPublisher struct {
	client  RedisClient
	channel string
}

// NewRedisPublisher creates a publisher for channel.
func NewRedisPublisher(client RedisClient, channel string) *RedisPublisher {
	return &RedisPublisher{client: client, channel: channel}
}

// Name returns the backend label used in metrics.
func (p *RedisPublisher) Name() string { return "redis" }

// Publish sends n as JSON. Messages with no subscriber are lost.
func (p *RedisPublisher) Publish(ctx context.Context, n models.Notification) error {
	payload, err := json.Marshal(n)
	if err != nil {
		return fmt.Errorf("marshal notification: %w", err)
	}
	if err := p.client.Publish(ctx, p.channel, payload).Err(); err != nil {
		return fmt.Errorf("publish notification: %w", err)
	}
	return nil
}

// LogPublisher writes notifications to the log. Used when no broker is configured.
type LogPublisher struct {
	logger *slog.Logger
}

// NewLogPublisher creates a publisher that logs to logger.
func NewLogPublisher(logger *slog.Logger) *LogPublisher {
	return &LogPublisher{logger: logger}
}

// Name returns the backend label used in metrics.
func (p *LogPublisher) Name() string { return "log" }

// Publish logs the notification metadata. It never fails.
func (p *LogPublisher) Publish(ctx context.Context, n models.Notification) error {
	p.logger.InfoContext(ctx, "notification",
		"kind", string(n.Kind),
		"presentation_request_id", n.PresentationRequestID,
		"version", n.Version,
	)
	return nil
}
