package events

import (
	"context"
	"errors"
	"fmt"
	"sync"
)

// EventHandler reacts to one ticket lifecycle event.
type EventHandler func(context.Context, Event) error

// Dispatcher fans ticket lifecycle events out to in-process subscribers.
type Dispatcher interface {
	Publish(ctx context.Context, event Event) error
	Subscribe(eventType EventType, handler EventHandler)
}

// ErrUntypedEvent is returned when an event without a type is published.
var ErrUntypedEvent = errors.New("ticket event has no type")

// SubscribeTicketEvents registers handler for every ticket event type.
func SubscribeTicketEvents(dispatcher Dispatcher, handler EventHandler) {
	for _, eventType := range AllEventTypes {
		dispatcher.Subscribe(eventType, handler)
	}
}

type ticketEventBus struct {
	mu          sync.RWMutex
	subscribers map[EventType][]EventHandler
}

// NewInMemoryDispatcher returns a dispatcher that delivers on the
// publisher's goroutine.
func NewInMemoryDispatcher() Dispatcher {
	return &ticketEventBus{subscribers: make(map[EventType][]EventHandler)}
}

// Publish runs the subscribers of event.Type in registration order. A failing
// subscriber does not stop the rest; failures are joined and tagged with the
// event type.
func (b *ticketEventBus) Publish(ctx context.Context, event Event) error {
	if event.Type == "" {
		return ErrUntypedEvent
	}
	b.mu.RLock()
	subscribers := b.subscribers[event.Type]
	b.mu.RUnlock()

	var errs []error
	for i, handler := range subscribers {
		if err := handler(ctx, event); err != nil {
			errs = append(errs, fmt.Errorf("%s subscriber %d: %w", event.Type, i, err))
		}
	}
	return errors.Join(errs...)
}

func (b *ticketEventBus) Subscribe(eventType EventType, handler EventHandler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.subscribers[eventType] = append(b.subscribers[eventType], handler)
}
