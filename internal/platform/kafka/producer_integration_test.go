//go:build integration

package kafka_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"
	"github.com/twmb/franz-go/pkg/kgo"

	"compliancehub/internal/platform/kafka"
	"compliancehub/pkg/testutil/containers"
)

type ProducerSuite struct {
	suite.Suite
	broker string
}

func TestProducerSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(ProducerSuite))
}

func (s *ProducerSuite) SetupSuite() {
	s.broker = containers.GetManager().GetRedpanda(s.T()).Broker
}

func (s *ProducerSuite) newProducer(topic string) *kafka.Producer {
	p, err := kafka.NewProducer(kafka.Config{
		Brokers:  []string{s.broker},
		ClientID: "compliancehub-test",
		Topic:    topic,
	})
	s.Require().NoError(err)
	s.T().Cleanup(p.Close)
	return p
}

func (s *ProducerSuite) TestProduceIsReadableByKey() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	topic := "notifications-" + uuid.NewString()
	p := s.newProducer(topic)
	s.Require().NoError(p.EnsureTopic(ctx, 1, 1))
	s.Require().NoError(p.Produce(ctx, []byte("entity-1"), []byte(`{"type":"DEADLINE"}`)))

	consumer, err := kgo.NewClient(
		kgo.SeedBrokers(s.broker),
		kgo.ConsumeTopics(topic),
		kgo.ConsumeResetOffset(kgo.NewOffset().AtStart()),
	)
	s.Require().NoError(err)
	defer consumer.Close()

	fetches := consumer.PollFetches(ctx)
	s.Require().Empty(fetches.Errors())
	records := fetches.Records()
	s.Require().Len(records, 1)
	s.Equal("entity-1", string(records[0].Key))
	s.JSONEq(`{"type":"DEADLINE"}`, string(records[0].Value))
}

func (s *ProducerSuite) TestEnsureTopicIsIdempotent() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	p := s.newProducer("notifications-" + uuid.NewString())
	s.Require().NoError(p.EnsureTopic(ctx, 1, 1))
	s.NoError(p.EnsureTopic(ctx, 1, 1))
}

func (s *ProducerSuite) TestPing() {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	s.NoError(s.newProducer("ping").Ping(ctx))
}
