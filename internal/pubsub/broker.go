package pubsub

import (
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/avelichko/go-taskboard/internal/models"
)

type EventType string

const (
	EventTaskCreated       EventType = "created"
	EventTaskStatusChanged EventType = "status_changed"
	EventTaskRemoved       EventType = "removed"
)

// TaskEvent is broadcast after every mutation. For EventTaskRemoved
// the task carries only the deleted id.
type TaskEvent struct {
	Type EventType
	Task *models.Task
}

type Publisher interface {
	Publish(event TaskEvent)
}

// subscriptionBuffer bounds how far a slow listener may fall
// behind before its events are dropped.
const subscriptionBuffer = 16

// Broker fans every published event out to the currently
// registered subscriptions. Delivery is fire-and-forget: a
// subscription with a full buffer is skipped, never waited on,
// and nothing is replayed to late subscribers.
type Broker struct {
	logger zerolog.Logger

	mu   sync.RWMutex
	subs map[string]*Subscription
}

func NewBroker(logger zerolog.Logger) *Broker {
	return &Broker{
		logger: logger,
		subs:   make(map[string]*Subscription),
	}
}

func (b *Broker) Subscribe() *Subscription {
	sub := &Subscription{
		id:     uuid.NewString(),
		broker: b,
		events: make(chan TaskEvent, subscriptionBuffer),
	}

	b.mu.Lock()
	b.subs[sub.id] = sub
	b.mu.Unlock()

	b.logger.Debug().
		Str("subscription_id", sub.id).
		Msg("registered subscription")
	return sub
}

// Len reports how many subscriptions are currently registered.
func (b *Broker) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs)
}

func (b *Broker) Publish(event TaskEvent) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	for _, sub := range b.subs {
		select {
		case sub.events <- event:
		default:
			b.logger.Warn().
				Str("subscription_id", sub.id).
				Str("event_type", string(event.Type)).
				Msg("subscription buffer full, dropping event")
		}
	}
}

func (b *Broker) unsubscribe(sub *Subscription) {
	b.mu.Lock()
	delete(b.subs, sub.id)
	b.mu.Unlock()

	// The channel is closed under no lock, which is safe because
	// Publish can no longer see this subscription.
	close(sub.events)

	b.logger.Debug().
		Str("subscription_id", sub.id).
		Msg("removed subscription")
}

type Subscription struct {
	id     string
	broker *Broker
	events chan TaskEvent
	once   sync.Once
}

func (s *Subscription) Events() <-chan TaskEvent {
	return s.events
}

// Close unregisters the subscription and closes its event channel.
// Safe to call more than once.
func (s *Subscription) Close() {
	s.once.Do(func() {
		s.broker.unsubscribe(s)
	})
}
