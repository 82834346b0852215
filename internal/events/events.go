// Package events publishes committed ledger changes to a message bus.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/josh-kwaku/gig-wallet/internal/domain"
)

type Publisher interface {
	Publish(ctx context.Context, evt domain.Event) error
	Close() error
}

type envelope struct {
	ID        uuid.UUID       `json:"id"`
	Type      string          `json:"type"`
	AccountID string          `json:"account_id"`
	Actor     string          `json:"actor"`
	Payload   json.RawMessage `json:"payload,omitempty"`
	CreatedAt time.Time       `json:"created_at"`
}

func Encode(evt domain.Event) ([]byte, error) {
	data, err := json.Marshal(envelope{
		ID:        evt.ID,
		Type:      string(evt.Type),
		AccountID: evt.AccountID,
		Actor:     evt.Actor,
		Payload:   evt.Payload,
		CreatedAt: evt.CreatedAt,
	})
	if err != nil {
		return nil, fmt.Errorf("Encode: %w", err)
	}
	return data, nil
}

// New builds the publisher selected by bus: "nats", "kafka", or "none".
func New(bus, natsURL string, kafkaBrokers []string, kafkaTopic string) (Publisher, error) {
	switch bus {
	case "nats":
		return NewNATSPublisher(natsURL, "wallet")
	case "kafka":
		return NewKafkaPublisher(kafkaBrokers, kafkaTopic)
	case "", "none":
		return LogPublisher{}, nil
	default:
		return nil, fmt.Errorf("events.New: unknown bus %q", bus)
	}
}
