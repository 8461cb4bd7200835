package queue

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInMemoryPublishConsume(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	q := NewInMemory(4)
	events, err := q.Consume(ctx)
	require.NoError(t, err)

	sent := NewTapEvent(KindLogin, "card-1", 1, time.Date(2026, 3, 2, 8, 0, 0, 0, time.UTC))
	require.NoError(t, q.Publish(ctx, sent))

	got := <-events
	assert.Equal(t, sent, got)
	assert.NotEmpty(t, got.ID)
}

func TestInMemoryPublishHonorsCancel(t *testing.T) {
	q := NewInMemory(0)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := q.Publish(ctx, NewTapEvent(KindLogout, "card-1", 1, time.Now()))
	assert.ErrorIs(t, err, context.Canceled)
}

// Cancelling the consumer context must unblock the forwarding goroutine
// even when an event has been dequeued and nobody is reading.
func TestInMemoryConsumeExitsOnCancelWithPendingEvent(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	q := NewInMemory(1)
	events, err := q.Consume(ctx)
	require.NoError(t, err)

	require.NoError(t, q.Publish(ctx, NewTapEvent(KindLogin, "card-1", 1, time.Now())))
	cancel()

	deadline := time.After(2 * time.Second)
	for {
		select {
		case _, ok := <-events:
			if !ok {
				return
			}
		case <-deadline:
			t.Fatal("consume channel never closed after cancel")
		}
	}
}

func TestNewTapEventAssignsUniqueIDs(t *testing.T) {
	a := NewTapEvent(KindLogin, "card-1", 1, time.Now())
	b := NewTapEvent(KindLogin, "card-1", 1, time.Now())
	assert.NotEqual(t, a.ID, b.ID)
}
