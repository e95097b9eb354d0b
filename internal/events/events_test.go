package events

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPublishDeliversToSubscriber(t *testing.T) {
	b := NewBroker()
	b.Start()
	defer b.Stop()

	sub := b.Subscribe()
	defer b.Unsubscribe(sub)

	b.Publish(&Event{Type: EventActorStarted, Asset: "PLATFORM-7", Message: "spawned"})

	select {
	case ev := <-sub:
		assert.Equal(t, EventActorStarted, ev.Type)
		assert.Equal(t, "PLATFORM-7", ev.Asset)
		assert.False(t, ev.Timestamp.IsZero())
	case <-time.After(time.Second):
		t.Fatal("expected event was not delivered")
	}
}

func TestPublishStampsTimestampOnlyWhenZero(t *testing.T) {
	b := NewBroker()
	b.Start()
	defer b.Stop()

	fixed := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	sub := b.Subscribe()
	defer b.Unsubscribe(sub)

	b.Publish(&Event{Type: EventConfigReloaded, Timestamp: fixed})

	ev := <-sub
	assert.Equal(t, fixed, ev.Timestamp)
}

func TestUnsubscribeStopsDelivery(t *testing.T) {
	b := NewBroker()
	b.Start()
	defer b.Stop()

	sub := b.Subscribe()
	require.Equal(t, 1, b.SubscriberCount())
	b.Unsubscribe(sub)
	assert.Equal(t, 0, b.SubscriberCount())

	b.Publish(&Event{Type: EventSnapshotPublished})

	select {
	case _, ok := <-sub:
		assert.False(t, ok, "channel should be closed after unsubscribe")
	case <-time.After(100 * time.Millisecond):
	}
}

func TestBroadcastDoesNotBlockOnFullSubscriber(t *testing.T) {
	b := NewBroker()
	b.Start()
	defer b.Stop()

	sub := b.Subscribe() // buffered channel, never drained
	defer b.Unsubscribe(sub)

	for i := 0; i < 300; i++ {
		b.Publish(&Event{Type: EventWorkOrderScheduled})
	}
	// Publish must not deadlock even once the subscriber's buffer is full.
}
