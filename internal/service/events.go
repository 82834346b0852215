package service

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/josh-kwaku/gig-wallet/internal/domain"
	"github.com/josh-kwaku/gig-wallet/internal/logging"
)

// publish runs after commit; a failed publish is logged and never undoes the
// committed change.
func publish(ctx context.Context, pub eventPublisher, typ domain.EventType, accountID, actor string, payload any, at time.Time) {
	if pub == nil {
		return
	}
	log := logging.FromContext(ctx)

	raw, err := json.Marshal(payload)
	if err != nil {
		log.Error("failed to encode event payload", "event_type", typ, "error", err)
		return
	}

	evt := domain.Event{
		ID:        uuid.New(),
		Type:      typ,
		AccountID: accountID,
		Actor:     actor,
		Payload:   raw,
		CreatedAt: at,
	}
	if err := pub.Publish(ctx, evt); err != nil {
		log.Warn("failed to publish event", "event_type", typ, "event_id", evt.ID, "account_id", accountID, "error", err)
	}
}

type requestEventPayload struct {
	RequestID uuid.UUID            `json:"request_id"`
	Kind      domain.RequestKind   `json:"kind"`
	Amount    string               `json:"amount"`
	Status    domain.RequestStatus `json:"status"`
	Balance   string               `json:"balance,omitempty"`
}

type adjustmentEventPayload struct {
	Kind    domain.AdjustmentKind `json:"kind"`
	Amount  string                `json:"amount"`
	Balance string                `json:"balance"`
	Note    string                `json:"note,omitempty"`
}
