package events

import (
	"strconv"
	"time"

	"github.com/google/uuid"
)

// Envelope is the canonical event shape published on the bus. Consumers key on
// EventType and EntityID; Payload carries the versioned ledger-specific body.
type Envelope struct {
	EventID        string    `json:"event_id"`
	EventType      string    `json:"event_type"`
	SourceService  string    `json:"source_service"`
	OccurredAtUTC  time.Time `json:"occurred_at_utc"`
	EntityType     string    `json:"entity_type"`
	EntityID       string    `json:"entity_id"`
	PayloadVersion int       `json:"payload_version"`
	Payload        any       `json:"payload"`
}

// TokenEventPayload is the version-1 body for every ledger event. Amount is a
// decimal string so consumers never lose precision on 256-bit values.
type TokenEventPayload struct {
	Sequence     uint64 `json:"sequence"`
	TokenID      uint64 `json:"token_id"`
	Actor        string `json:"actor"`
	Counterparty string `json:"counterparty,omitempty"`
	Amount       string `json:"amount"`
}

// NewTokenEvent builds the canonical envelope for a committed ledger event.
func NewTokenEvent(source string, eventType string, occurredAt time.Time, payload TokenEventPayload) Envelope {
	return Envelope{
		EventID:        uuid.NewString(),
		EventType:      eventType,
		SourceService:  source,
		OccurredAtUTC:  occurredAt.UTC(),
		EntityType:     "token",
		EntityID:       strconv.FormatUint(payload.TokenID, 10),
		PayloadVersion: 1,
		Payload:        payload,
	}
}
