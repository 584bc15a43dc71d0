package repository

import (
	"context"

	"QuotePull/internal/domain/models"
	pkgkafka "QuotePull/pkg/kafka"
)

type batchPublisher interface {
	PublishBatch(ctx context.Context, topic string, messages []pkgkafka.Message) error
}

// KafkaQuoteSink publishes quote snapshots as JSON, keyed by canonical symbol
// so one symbol always lands on one partition.
type KafkaQuoteSink struct {
	pub   batchPublisher
	topic string
}

func NewKafkaQuoteSink(pub *pkgkafka.Producer, topic string) *KafkaQuoteSink {
	return &KafkaQuoteSink{pub: pub, topic: topic}
}

func (s *KafkaQuoteSink) PublishQuotes(ctx context.Context, ticks []models.MarketTick) error {
	msgs := make([]pkgkafka.Message, 0, len(ticks))
	for _, t := range ticks {
		msgs = append(msgs, pkgkafka.Message{Key: []byte(t.Symbol.String()), Value: t})
	}
	return s.pub.PublishBatch(ctx, s.topic, msgs)
}
