package pubsub_test

import (
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/avelichko/go-taskboard/internal/models"
	"github.com/avelichko/go-taskboard/internal/pubsub"
)

func createdEvent(id int64) pubsub.TaskEvent {
	return pubsub.TaskEvent{
		Type: pubsub.EventTaskCreated,
		Task: &models.Task{ID: id, Title: "task", Status: models.StatusTodo},
	}
}

func receive(t *testing.T, sub *pubsub.Subscription) pubsub.TaskEvent {
	t.Helper()
	select {
	case event, ok := <-sub.Events():
		require.True(t, ok, "subscription channel closed unexpectedly")
		return event
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for event")
		return pubsub.TaskEvent{}
	}
}

func TestBrokerDeliversToAllSubscribers(t *testing.T) {
	broker := pubsub.NewBroker(zerolog.Nop())

	first := broker.Subscribe()
	defer first.Close()
	second := broker.Subscribe()
	defer second.Close()

	broker.Publish(createdEvent(1))

	assert.Equal(t, int64(1), receive(t, first).Task.ID)
	assert.Equal(t, int64(1), receive(t, second).Task.ID)
}

func TestBrokerLateSubscriberMissesEarlierEvents(t *testing.T) {
	broker := pubsub.NewBroker(zerolog.Nop())

	broker.Publish(createdEvent(1))

	sub := broker.Subscribe()
	defer sub.Close()

	broker.Publish(createdEvent(2))

	// Only the event published after registration arrives.
	assert.Equal(t, int64(2), receive(t, sub).Task.ID)
	assert.Empty(t, sub.Events())
}

func TestBrokerClosedSubscriptionReceivesNothing(t *testing.T) {
	broker := pubsub.NewBroker(zerolog.Nop())

	sub := broker.Subscribe()
	sub.Close()
	require.Equal(t, 0, broker.Len())

	broker.Publish(createdEvent(1))

	_, ok := <-sub.Events()
	assert.False(t, ok, "channel should be closed")
}

func TestBrokerCloseIsIdempotent(t *testing.T) {
	broker := pubsub.NewBroker(zerolog.Nop())

	sub := broker.Subscribe()
	sub.Close()
	sub.Close()

	assert.Equal(t, 0, broker.Len())
}

func TestBrokerFullBufferNeverBlocksPublish(t *testing.T) {
	broker := pubsub.NewBroker(zerolog.Nop())

	sub := broker.Subscribe()
	defer sub.Close()

	// Publish well past the buffer without draining; every call
	// must return immediately, overflow is dropped.
	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 100; i++ {
			broker.Publish(createdEvent(int64(i)))
		}
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("publish blocked on a slow subscriber")
	}

	// The earliest events survive, the rest were dropped.
	assert.Equal(t, int64(0), receive(t, sub).Task.ID)
}
