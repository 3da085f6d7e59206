//go:build integration

package notify_test

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
	"github.com/twmb/franz-go/pkg/kgo"

	"vp-gateway/internal/platform/config"
	"vp-gateway/internal/platform/kafka"
	"vp-gateway/internal/presentation/models"
	"vp-gateway/internal/presentation/notify"
	"vp-gateway/pkg/testutil/containers"
)

type PublisherSuite struct {
	suite.Suite
	redis    *containers.RedisContainer
	redpanda *containers.RedpandaContainer
}

func TestPublisherSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(PublisherSuite))
}

func (s *PublisherSuite) SetupSuite() {
	mgr := containers.GetManager()
	s.redis = mgr.GetRedis(s.T())
	s.redpanda = mgr.GetRedpanda(s.T())
}

func (s *PublisherSuite) TestRedisPubSub() {
	s.Require().NoError(s.redis.Client.Health(context.Background()))
	sub := s.redis.Subscribe(s.T(), "presentation")
	listeners, err := s.redis.Client.Subscribers(context.Background(), "presentation")
	s.Require().NoError(err)
	s.Equal(int64(1), listeners)
	pub := notify.NewRedisPublisher(s.redis.Client, "presentation")

	err = pub.Publish(context.Background(), models.Notification{
		Kind:                  models.NotificationPresentation,
		PresentationRequestID: "req-redis",
		Version:               "2.0.0",
	})
	s.Require().NoError(err)

	select {
	case msg := <-sub.Channel():
		var n models.Notification
		s.Require().NoError(json.Unmarshal([]byte(msg.Payload), &n))
		s.Equal("req-redis", n.PresentationRequestID)
		s.Equal("2.0.0", n.Version)
	case <-time.After(5 * time.Second):
		s.Fail("no message received")
	}
}

func (s *PublisherSuite) TestKafkaRoundTrip() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	cfg := config.KafkaConfig{
		Brokers:           s.redpanda.Brokers,
		Topic:             "presentations-it",
		ClientID:          "vp-gateway-it",
		Partitions:        1,
		ReplicationFactor: 1,
	}
	producer, err := kafka.NewProducer(ctx, cfg)
	s.Require().NoError(err)
	defer producer.Close()
	s.Require().NoError(kafka.EnsureTopic(ctx, producer, cfg))
	s.Require().NoError(kafka.EnsureTopic(ctx, producer, cfg), "second call must tolerate an existing topic")

	pub := notify.NewKafkaPublisher(producer, cfg.Topic)
	s.Require().NoError(pub.Publish(ctx, models.Notification{
		Kind:                  models.NotificationDeclination,
		PresentationRequestID: "req-kafka",
	}))

	consumer, err := kgo.NewClient(
		kgo.SeedBrokers(cfg.Brokers...),
		kgo.ConsumeTopics(cfg.Topic),
		kgo.ConsumeResetOffset(kgo.NewOffset().AtStart()),
	)
	s.Require().NoError(err)
	defer consumer.Close()

	fetches := consumer.PollFetches(ctx)
	s.Require().Empty(fetches.Errors())
	records := fetches.Records()
	s.Require().NotEmpty(records)
	s.Equal("req-kafka", string(records[0].Key))
}
