package messaging

import (
	"context"
	"log/slog"
	"sync"

	"curio/contexts/marketplace/ledger-service/ports"
)

const memberBuffer = 128

type member struct {
	ch    chan ports.EventEnvelope
	group string
}

type topicState struct {
	members []*member
	next    map[string]int
}

// Kafka is the event bus adapter used by the outbox relay. The current
// implementation is in-process while runtime wiring for external brokers is
// finalized, but it keeps Kafka delivery semantics: every consumer group
// receives each event once, round-robin across the group's members.
type Kafka struct {
	mu     sync.Mutex
	topics map[string]*topicState
	logger *slog.Logger
}

func NewKafka(_ []string, logger *slog.Logger) (*Kafka, error) {
	return &Kafka{
		topics: make(map[string]*topicState),
		logger: logger,
	}, nil
}

func (k *Kafka) Publish(ctx context.Context, topic string, event ports.EventEnvelope) error {
	targets := k.pickTargets(topic)

	for _, m := range targets {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case m.ch <- event:
		default:
			if k.logger != nil {
				k.logger.Warn("dropping event for slow consumer group",
					"event", "kafka_publish_drop",
					"module", "internal/platform/messaging",
					"layer", "platform",
					"topic", topic,
					"consumer_group", m.group,
					"event_id", event.EventID,
				)
			}
		}
	}

	if k.logger != nil {
		k.logger.Info("event published",
			"event", "kafka_publish",
			"module", "internal/platform/messaging",
			"layer", "platform",
			"topic", topic,
			"event_id", event.EventID,
			"event_type", event.EventType,
			"groups", len(targets),
		)
	}
	return nil
}

// pickTargets selects one member per consumer group, advancing each group's
// round-robin cursor.
func (k *Kafka) pickTargets(topic string) []*member {
	k.mu.Lock()
	defer k.mu.Unlock()

	state, ok := k.topics[topic]
	if !ok {
		return nil
	}

	byGroup := make(map[string][]*member)
	for _, m := range state.members {
		byGroup[m.group] = append(byGroup[m.group], m)
	}

	targets := make([]*member, 0, len(byGroup))
	for group, members := range byGroup {
		idx := state.next[group] % len(members)
		state.next[group] = idx + 1
		targets = append(targets, members[idx])
	}
	return targets
}

func (k *Kafka) Subscribe(
	ctx context.Context,
	topic string,
	consumerGroup string,
	handler func(context.Context, ports.EventEnvelope) error,
) error {
	m := &member{
		ch:    make(chan ports.EventEnvelope, memberBuffer),
		group: consumerGroup,
	}

	k.mu.Lock()
	state, ok := k.topics[topic]
	if !ok {
		state = &topicState{next: make(map[string]int)}
		k.topics[topic] = state
	}
	state.members = append(state.members, m)
	k.mu.Unlock()

	go func() {
		for {
			select {
			case <-ctx.Done():
				k.removeMember(topic, m)
				return
			case event := <-m.ch:
				if err := handler(ctx, event); err != nil && k.logger != nil {
					k.logger.Error("consumer handler failed",
						"event", "kafka_consume_failed",
						"module", "internal/platform/messaging",
						"layer", "platform",
						"topic", topic,
						"consumer_group", consumerGroup,
						"event_id", event.EventID,
						"event_type", event.EventType,
						"error", err.Error(),
					)
				}
			}
		}
	}()
	return nil
}

func (k *Kafka) removeMember(topic string, target *member) {
	k.mu.Lock()
	defer k.mu.Unlock()

	state, ok := k.topics[topic]
	if !ok || len(state.members) == 0 {
		return
	}
	filtered := make([]*member, 0, len(state.members))
	for _, m := range state.members {
		if m != target {
			filtered = append(filtered, m)
		}
	}
	state.members = filtered
}
