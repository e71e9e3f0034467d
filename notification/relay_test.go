package notification

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestPublishDeliversToSubscribers(t *testing.T) {
	c := context.Background()
	relay := NewRelay(time.Minute)
	ch, cancel := relay.Subscribe()
	defer cancel()

	relay.Publish(c, LevelSuccess, "Added to cart")

	select {
	case n := <-ch:
		assert.Equal(t, LevelSuccess, n.Level)
		assert.Equal(t, "Added to cart", n.Message)
	case <-time.After(time.Second):
		t.Fatal("expected a delivered notification")
	}
}

func TestCanceledSubscriberStopsReceiving(t *testing.T) {
	c := context.Background()
	relay := NewRelay(time.Minute)
	ch, cancel := relay.Subscribe()
	cancel()

	relay.Publish(c, LevelInfo, "stale")

	select {
	case n := <-ch:
		t.Fatalf("expected no delivery, got %q", n.Message)
	default:
	}
}

func TestPublishToleratesFullSubscriber(t *testing.T) {
	c := context.Background()
	relay := NewRelay(time.Minute)
	ch, cancel := relay.Subscribe()
	defer cancel()

	for i := 0; i < 32; i++ {
		relay.Publish(c, LevelInfo, "burst")
	}

	assert.Len(t, ch, 16, "the overflow is dropped, not blocked on")
	assert.Len(t, relay.Active(), 32)
}

func TestActiveExpiresByTtl(t *testing.T) {
	c := context.Background()
	relay := NewRelay(5 * time.Second)
	current := time.Date(2025, 3, 14, 10, 0, 0, 0, time.UTC)
	relay.now = func() time.Time { return current }

	relay.Publish(c, LevelError, "out of stock")
	assert.Len(t, relay.Active(), 1)

	current = current.Add(4 * time.Second)
	relay.Publish(c, LevelSuccess, "order placed")
	assert.Len(t, relay.Active(), 2)

	current = current.Add(2 * time.Second)
	active := relay.Active()
	assert.Len(t, active, 1, "the older notification aged out")
	assert.Equal(t, "order placed", active[0].Message)
}

func TestDismiss(t *testing.T) {
	c := context.Background()
	relay := NewRelay(time.Minute)

	relay.Publish(c, LevelInfo, "first")
	relay.Publish(c, LevelInfo, "second")
	active := relay.Active()
	assert.Len(t, active, 2)

	relay.Dismiss(active[0].ID)

	remaining := relay.Active()
	assert.Len(t, remaining, 1)
	assert.Equal(t, "second", remaining[0].Message)
}
