package messaging

import (
	"context"
	"errors"
	"fmt"
	"hash/fnv"
	"log/slog"
	"sync"

	"inkwell/internal/shared/events"
)

var ErrGroupAlreadySubscribed = errors.New("consumer group already subscribed to topic")

// Memory is an in-process partitioned log. It keeps the broker contract the
// services rely on: records with the same key share a partition and are
// delivered in order, partitions are consumed concurrently, and each
// consumer group tracks its own committed offsets.
type Memory struct {
	partitions int
	retry      RetryPolicy
	logger     *slog.Logger

	mu     sync.Mutex
	topics map[string]*memoryTopic
	wg     sync.WaitGroup
}

type memoryTopic struct {
	partitions []*memoryPartition
	groups     map[string]bool
}

type memoryPartition struct {
	mu        sync.Mutex
	cond      *sync.Cond
	records   []events.Delivery
	committed map[string]int
}

func NewMemory(partitions int, retry RetryPolicy, logger *slog.Logger) *Memory {
	if partitions <= 0 {
		partitions = 4
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Memory{
		partitions: partitions,
		retry:      retry,
		logger:     logger,
		topics:     make(map[string]*memoryTopic),
	}
}

func (m *Memory) topic(name string) *memoryTopic {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.topics[name]
	if !ok {
		t = &memoryTopic{groups: make(map[string]bool)}
		for i := 0; i < m.partitions; i++ {
			p := &memoryPartition{committed: make(map[string]int)}
			p.cond = sync.NewCond(&p.mu)
			t.partitions = append(t.partitions, p)
		}
		m.topics[name] = t
	}
	return t
}

func (m *Memory) Publish(ctx context.Context, topic string, partitionKey string, envelope events.Envelope) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	value, err := events.Encode(envelope)
	if err != nil {
		return err
	}
	index := partitionFor(partitionKey, m.partitions)
	p := m.topic(topic).partitions[index]

	p.mu.Lock()
	p.records = append(p.records, events.Delivery{
		Topic:     topic,
		Partition: index,
		Offset:    int64(len(p.records)),
		Key:       partitionKey,
		Value:     value,
	})
	p.cond.Broadcast()
	p.mu.Unlock()

	m.logger.Debug("event published",
		"event", "memory_broker_publish",
		"module", "internal/platform/messaging",
		"layer", "platform",
		"topic", topic,
		"partition", index,
		"event_id", envelope.EventID,
		"event_type", envelope.EventType,
	)
	return nil
}

// PublishRaw appends undecoded bytes, for feeding arbitrary input to consumers.
func (m *Memory) PublishRaw(topic string, partitionKey string, value []byte) {
	index := partitionFor(partitionKey, m.partitions)
	p := m.topic(topic).partitions[index]
	p.mu.Lock()
	p.records = append(p.records, events.Delivery{
		Topic:     topic,
		Partition: index,
		Offset:    int64(len(p.records)),
		Key:       partitionKey,
		Value:     append([]byte(nil), value...),
	})
	p.cond.Broadcast()
	p.mu.Unlock()
}

// Subscribe starts one goroutine per partition for the group. A group
// starts from the earliest record.
func (m *Memory) Subscribe(
	ctx context.Context,
	topic string,
	consumerGroup string,
	handler events.DeliveryHandler,
) error {
	t := m.topic(topic)
	m.mu.Lock()
	if t.groups[consumerGroup] {
		m.mu.Unlock()
		return fmt.Errorf("%w: %s/%s", ErrGroupAlreadySubscribed, topic, consumerGroup)
	}
	t.groups[consumerGroup] = true
	m.mu.Unlock()

	for _, p := range t.partitions {
		m.wg.Add(1)
		go m.consume(ctx, p, consumerGroup, handler)
	}
	return nil
}

func (m *Memory) consume(ctx context.Context, p *memoryPartition, group string, handler events.DeliveryHandler) {
	defer m.wg.Done()
	stop := context.AfterFunc(ctx, func() {
		p.mu.Lock()
		p.cond.Broadcast()
		p.mu.Unlock()
	})
	defer stop()

	for {
		p.mu.Lock()
		for p.committed[group] >= len(p.records) && ctx.Err() == nil {
			p.cond.Wait()
		}
		if ctx.Err() != nil {
			p.mu.Unlock()
			return
		}
		delivery := p.records[p.committed[group]]
		p.mu.Unlock()

		if !deliver(ctx, m.retry, m.logger, group, handler, delivery) {
			return
		}

		p.mu.Lock()
		p.committed[group]++
		p.mu.Unlock()
	}
}

// Lag is the number of records on topic not yet committed by group.
func (m *Memory) Lag(topic string, consumerGroup string) int {
	lag := 0
	for _, p := range m.topic(topic).partitions {
		p.mu.Lock()
		lag += len(p.records) - p.committed[consumerGroup]
		p.mu.Unlock()
	}
	return lag
}

// Records returns every record on topic, partition by partition.
func (m *Memory) Records(topic string) []events.Delivery {
	var out []events.Delivery
	for _, p := range m.topic(topic).partitions {
		p.mu.Lock()
		out = append(out, p.records...)
		p.mu.Unlock()
	}
	return out
}

// Wait blocks until every consumer goroutine has exited.
func (m *Memory) Wait() {
	m.wg.Wait()
}

func partitionFor(key string, partitions int) int {
	h := fnv.New32a()
	_, _ = h.Write([]byte(key))
	return int(h.Sum32() % uint32(partitions))
}
