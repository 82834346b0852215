package events

import (
	"context"

	"github.com/josh-kwaku/gig-wallet/internal/domain"
	"github.com/josh-kwaku/gig-wallet/internal/logging"
)

// LogPublisher writes events to the request logger instead of a bus.
type LogPublisher struct{}

func (LogPublisher) Publish(ctx context.Context, evt domain.Event) error {
	logging.FromContext(ctx).Debug("event",
		"event_id", evt.ID,
		"event_type", evt.Type,
		"account_id", evt.AccountID,
		"actor", evt.Actor,
	)
	return nil
}

func (LogPublisher) Close() error { return nil }
