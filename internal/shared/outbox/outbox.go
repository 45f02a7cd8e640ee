package outbox

import "time"

// Message is an outbox row ready to relay. Rows are written in the same store
// mutation as the ledger state change that produced them; the worker publishes
// pending rows in created-at order and acknowledges each one.
type Message struct {
	OutboxID     string
	EventType    string
	PartitionKey string
	Payload      []byte
	CreatedAt    time.Time
}
