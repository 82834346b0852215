package domain

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

type EventType string

const (
	EventFundingRequestCreated  EventType = "funding_request.created"
	EventFundingRequestApproved EventType = "funding_request.approved"
	EventFundingRequestRejected EventType = "funding_request.rejected"
	EventBalanceAdjusted        EventType = "balance.adjusted"
)

// Event is published after the change it describes has been committed.
type Event struct {
	ID        uuid.UUID
	Type      EventType
	AccountID string
	Actor     string
	Payload   json.RawMessage
	CreatedAt time.Time
}
