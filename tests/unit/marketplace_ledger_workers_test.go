package unit

import (
	"context"
	"testing"

	"curio/contexts/marketplace/ledger-service/application/workers"
	"curio/contexts/marketplace/ledger-service/domain/entities"
	"curio/contexts/marketplace/ledger-service/ports"
)

type capturingPublisher struct {
	topics    []string
	envelopes []ports.EventEnvelope
}

func (p *capturingPublisher) Publish(ctx context.Context, topic string, event ports.EventEnvelope) error {
	p.topics = append(p.topics, topic)
	p.envelopes = append(p.envelopes, event)
	return nil
}

func TestOutboxRelayPublishesCommittedEvents(t *testing.T) {
	f := newLedgerFixture(t, 100, 10)
	f.deposit(t, "creator", 100, "idem-dep-creator")
	f.mint(t, "creator", 100, "idem-mint")

	publisher := &capturingPublisher{}
	relay := workers.OutboxRelay{
		Outbox:    f.store,
		Publisher: publisher,
		Clock:     f.clock,
	}

	if err := relay.RunOnce(context.Background()); err != nil {
		t.Fatalf("relay run should succeed: %v", err)
	}
	if len(publisher.envelopes) != 1 {
		t.Fatalf("expected one published event, got %d", len(publisher.envelopes))
	}
	if publisher.topics[0] != "marketplace.ledger" {
		t.Fatalf("expected default topic, got %s", publisher.topics[0])
	}
	if publisher.envelopes[0].EventType != entities.EventTokenMinted {
		t.Fatalf("expected token.minted, got %s", publisher.envelopes[0].EventType)
	}

	// A second cycle finds nothing pending.
	publisher.envelopes = nil
	if err := relay.RunOnce(context.Background()); err != nil {
		t.Fatalf("idle relay run should succeed: %v", err)
	}
	if len(publisher.envelopes) != 0 {
		t.Fatalf("sent rows must not be republished, got %d", len(publisher.envelopes))
	}
}
