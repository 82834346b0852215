package events

import (
	"context"
	"fmt"

	"github.com/segmentio/kafka-go"

	"github.com/josh-kwaku/gig-wallet/internal/domain"
)

// KafkaPublisher writes every event to one topic keyed by account id, so
// events for an account stay ordered within a partition.
type KafkaPublisher struct {
	writer *kafka.Writer
}

func NewKafkaPublisher(brokers []string, topic string) (*KafkaPublisher, error) {
	if len(brokers) == 0 {
		return nil, fmt.Errorf("NewKafkaPublisher: at least one broker is required")
	}
	if topic == "" {
		return nil, fmt.Errorf("NewKafkaPublisher: topic is required")
	}
	return &KafkaPublisher{
		writer: &kafka.Writer{
			Addr:         kafka.TCP(brokers...),
			Topic:        topic,
			RequiredAcks: kafka.RequireAll,
			Balancer:     &kafka.Hash{},
		},
	}, nil
}

func (p *KafkaPublisher) Publish(ctx context.Context, evt domain.Event) error {
	msg, err := kafkaMessage(evt)
	if err != nil {
		return fmt.Errorf("Publish: %w", err)
	}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("Publish: %w", err)
	}
	return nil
}

func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}

func kafkaMessage(evt domain.Event) (kafka.Message, error) {
	data, err := Encode(evt)
	if err != nil {
		return kafka.Message{}, err
	}
	return kafka.Message{
		Key:   []byte(evt.AccountID),
		Value: data,
		Time:  evt.CreatedAt,
		Headers: []kafka.Header{
			{Key: "event_type", Value: []byte(evt.Type)},
		},
	}, nil
}
