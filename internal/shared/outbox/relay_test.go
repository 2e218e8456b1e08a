package outbox

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	eventsv1 "inkwell/contracts/gen/events/v1"
	"inkwell/internal/shared/events"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type published struct {
	topic   string
	key     string
	eventID string
}

type flakyPublisher struct {
	mu       sync.Mutex
	failures int
	sent     []published
}

func (p *flakyPublisher) Publish(_ context.Context, topic string, key string, envelope events.Envelope) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.failures > 0 {
		p.failures--
		return errors.New("broker unreachable")
	}
	p.sent = append(p.sent, published{topic: topic, key: key, eventID: envelope.EventID})
	return nil
}

type countingPurger struct {
	mu    sync.Mutex
	calls int
}

func (p *countingPurger) PurgeExpired(context.Context, time.Time) (int64, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls++
	return 1, nil
}

func (p *countingPurger) count() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.calls
}

func message(t *testing.T, eventID string, postID string) Message {
	t.Helper()
	envelope, err := events.NewEnvelope(eventID, eventsv1.EventPostDeleted, time.Now(), eventsv1.PostDeleted{PostID: postID})
	require.NoError(t, err)
	msg, err := NewMessage(eventsv1.TopicPostEvents, postID, envelope)
	require.NoError(t, err)
	return msg
}

func TestRelayRetriesWithSameEventIDAndKeepsOrder(t *testing.T) {
	store := NewMemoryStore()
	store.Append(message(t, "e1", "p1"), message(t, "e2", "p1"))
	publisher := &flakyPublisher{failures: 1}
	relay := NewRelay(store, publisher, "test", nil)
	ctx := context.Background()

	sent, err := relay.RunOnce(ctx)
	require.Error(t, err)
	assert.Zero(t, sent)
	assert.Empty(t, publisher.sent)

	pending, err := store.ListPending(ctx, 10)
	require.NoError(t, err)
	require.Len(t, pending, 2)
	assert.Equal(t, 1, pending[0].Attempts)

	sent, err = relay.RunOnce(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, sent)
	assert.Equal(t, []published{
		{topic: eventsv1.TopicPostEvents, key: "p1", eventID: "e1"},
		{topic: eventsv1.TopicPostEvents, key: "p1", eventID: "e2"},
	}, publisher.sent)

	pending, err = store.ListPending(ctx, 10)
	require.NoError(t, err)
	assert.Empty(t, pending)
}

func TestRelayParksUndecodableRows(t *testing.T) {
	store := NewMemoryStore()
	store.Append(Message{ID: "bad", Topic: eventsv1.TopicPostEvents, Payload: []byte("{")}, message(t, "e1", "p1"))
	publisher := &flakyPublisher{}
	relay := NewRelay(store, publisher, "test", nil)

	sent, err := relay.RunOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, sent)

	all := store.All()
	require.Len(t, all, 2)
	assert.Equal(t, StatusDead, all[0].Status)
	assert.Equal(t, StatusSent, all[1].Status)
}

func TestRelayRunStopsOnCancelAndPurges(t *testing.T) {
	store := NewMemoryStore()
	old := message(t, "old", "p0")
	store.Append(old)
	require.NoError(t, store.MarkSent(context.Background(), "old", time.Now().Add(-100*time.Hour)))
	store.Append(message(t, "e1", "p1"))

	publisher := &flakyPublisher{}
	expired := &countingPurger{}
	relay := NewRelay(store, publisher, "test", nil)
	relay.Purgers = []Purger{expired}
	relay.Notify()
	relay.Notify()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- relay.Run(ctx, 10*time.Millisecond) }()

	require.Eventually(t, func() bool {
		publisher.mu.Lock()
		defer publisher.mu.Unlock()
		return len(publisher.sent) == 1 && len(store.All()) == 1
	}, time.Second, 5*time.Millisecond)
	cancel()
	require.NoError(t, <-done)

	all := store.All()
	require.Len(t, all, 1)
	assert.Equal(t, "e1", all[0].ID)
	assert.Equal(t, StatusSent, all[0].Status)
	assert.Equal(t, 1, expired.count())
}

func TestNewMessageCarriesEnvelopeIdentity(t *testing.T) {
	msg := message(t, "e7", "p3")
	assert.Equal(t, "e7", msg.ID)
	assert.Equal(t, "p3", msg.PartitionKey)
	assert.Equal(t, eventsv1.EventPostDeleted, msg.EventType)
	assert.Equal(t, StatusPending, msg.Status)

	decoded, err := events.Decode(msg.Payload)
	require.NoError(t, err)
	assert.Equal(t, "e7", decoded.EventID)
}
