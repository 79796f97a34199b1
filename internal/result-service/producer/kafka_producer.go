package producer

import (
	"context"

	"github.com/segmentio/kafka-go"

	"github.com/radieske/matka-admin-platform/internal/notice-service/pubsub"
	sharedkafka "github.com/radieske/matka-admin-platform/internal/shared/kafka"
	"github.com/radieske/matka-admin-platform/pkg/contracts/events"
)

// Broadcaster repassa o resultado ao painel ao vivo (notice-service via Redis)
type Broadcaster interface {
	Publish(ctx context.Context, topic string, payload any) error
}

// KafkaPublisher implementa settlement.Publisher com um writer por tópico
type KafkaPublisher struct {
	Results *kafka.Writer
	Settled *kafka.Writer
	Failed  *kafka.Writer
	Live    Broadcaster // opcional
}

func (p *KafkaPublisher) PublishResultPublished(ctx context.Context, e events.ResultPublished) error {
	if err := sharedkafka.WriteJSON(ctx, p.Results, e.Family+":"+e.MarketID, e); err != nil {
		return err
	}
	if p.Live != nil {
		return p.Live.Publish(ctx, pubsub.TopicResults, e)
	}
	return nil
}

// chave = bet_id: reentregas da mesma aposta caem na mesma partição
func (p *KafkaPublisher) PublishBetSettled(ctx context.Context, e events.BetSettled) error {
	return sharedkafka.WriteJSON(ctx, p.Settled, e.BetID, e)
}

func (p *KafkaPublisher) PublishSettlementFailed(ctx context.Context, e events.SettlementFailed) error {
	return sharedkafka.WriteJSON(ctx, p.Failed, e.BetID, e)
}

func (p *KafkaPublisher) Close() error {
	var first error
	for _, w := range []*kafka.Writer{p.Results, p.Settled, p.Failed} {
		if w == nil {
			continue
		}
		if err := w.Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}
