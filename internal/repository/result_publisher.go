package repository

import (
	"context"

	"github.com/aayeshatech/SYMBOLASTRO/internal/domain/models"
	"github.com/aayeshatech/SYMBOLASTRO/internal/domain/repository"
	pkgkafka "github.com/aayeshatech/SYMBOLASTRO/pkg/kafka"
)

// KafkaPublisher publishes analysis results keyed by symbol, so every
// result of one symbol lands on the same partition.
type KafkaPublisher struct {
	producer *pkgkafka.Producer
	topic    string
}

// NewKafkaPublisher creates Kafka publisher. The producer is owned by the
// caller.
func NewKafkaPublisher(producer *pkgkafka.Producer, topic string) *KafkaPublisher {
	return &KafkaPublisher{producer: producer, topic: topic}
}

func (p *KafkaPublisher) Publish(ctx context.Context, res *models.AnalysisResult) error {
	return p.producer.Publish(ctx, p.topic, []byte(res.Symbol), res)
}

// PublishBatch publishes several results in one write.
func (p *KafkaPublisher) PublishBatch(ctx context.Context, results []*models.AnalysisResult) error {
	if len(results) == 0 {
		return nil
	}
	msgs := make([]pkgkafka.Message, len(results))
	for i, r := range results {
		msgs[i] = pkgkafka.Message{Key: []byte(r.Symbol), Value: r}
	}
	return p.producer.PublishBatch(ctx, p.topic, msgs)
}

// NopPublisher drops every result. Used when Kafka is disabled.
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, *models.AnalysisResult) error { return nil }

var (
	_ repository.ResultPublisher = (*KafkaPublisher)(nil)
	_ repository.ResultPublisher = NopPublisher{}
)
