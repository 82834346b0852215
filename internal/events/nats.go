package events

import (
	"context"
	"fmt"

	"github.com/nats-io/nats.go"

	"github.com/josh-kwaku/gig-wallet/internal/domain"
)

// NATSPublisher publishes each event on "<prefix>.<event type>".
type NATSPublisher struct {
	nc     *nats.Conn
	prefix string
}

func NewNATSPublisher(url, prefix string) (*NATSPublisher, error) {
	if url == "" {
		return nil, fmt.Errorf("NewNATSPublisher: nats url is required")
	}
	nc, err := nats.Connect(url, nats.Name("gig-wallet"), nats.MaxReconnects(-1))
	if err != nil {
		return nil, fmt.Errorf("NewNATSPublisher: %w", err)
	}
	return &NATSPublisher{nc: nc, prefix: prefix}, nil
}

func (p *NATSPublisher) Subject(t domain.EventType) string {
	return p.prefix + "." + string(t)
}

func (p *NATSPublisher) Publish(_ context.Context, evt domain.Event) error {
	data, err := Encode(evt)
	if err != nil {
		return fmt.Errorf("Publish: %w", err)
	}
	if err := p.nc.Publish(p.Subject(evt.Type), data); err != nil {
		return fmt.Errorf("Publish: %w", err)
	}
	return nil
}

func (p *NATSPublisher) Close() error {
	return p.nc.Drain()
}
