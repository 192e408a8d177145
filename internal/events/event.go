package events

import (
	"time"

	"github.com/and161185/gamewallet/internal/model"
	"github.com/oklog/ulid/v2"
	"github.com/shopspring/decimal"
)

// New builds an event stamped with at. Event ids sort by creation time.
func New(eventType model.EventType, referenceType, referenceID, userID string, amount decimal.Decimal, at time.Time) model.Event {
	return model.Event{
		ID:            ulid.MustNew(ulid.Timestamp(at), ulid.DefaultEntropy()).String(),
		Type:          eventType,
		ReferenceID:   referenceID,
		ReferenceType: referenceType,
		UserID:        userID,
		Amount:        amount,
		Extra:         map[string]interface{}{},
		CreatedAt:     at,
	}
}
