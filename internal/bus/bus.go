// Package bus provides the in-process fan-out of inbound push events.
//
// Every message read off the real-time connection is delivered to every
// currently registered subscriber, in arrival order, exactly once per
// subscriber. The bus never interprets payloads; each subscriber filters by
// event type and shape.
package bus

import (
	"log/slog"
	"runtime/debug"
	"sync"

	"github.com/google/uuid"

	"feedsync/internal/models"
	"feedsync/internal/observability"
)

// Handler consumes one push event.
type Handler func(models.PushEvent)

// Subscription is the opaque token returned by Subscribe and consumed by
// Unsubscribe.
type Subscription string

// Bus fans inbound push events out to subscribers.
type Bus struct {
	mu       sync.RWMutex
	handlers map[Subscription]Handler
	order    []Subscription
}

// New creates an empty bus.
func New() *Bus {
	return &Bus{handlers: make(map[Subscription]Handler)}
}

// Subscribe registers a handler and returns its subscription token. Multiple
// concurrent subscribers are expected; a handler registered during a dispatch
// sees only later events.
func (b *Bus) Subscribe(h Handler) Subscription {
	b.mu.Lock()
	defer b.mu.Unlock()
	token := Subscription(uuid.NewString())
	b.handlers[token] = h
	b.order = append(b.order, token)
	return token
}

// Unsubscribe removes a handler. Safe to call during dispatch, including from
// inside the handler being dispatched.
func (b *Bus) Unsubscribe(token Subscription) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, ok := b.handlers[token]; !ok {
		return
	}
	delete(b.handlers, token)
	for i, t := range b.order {
		if t == token {
			b.order = append(b.order[:i], b.order[i+1:]...)
			break
		}
	}
}

// SubscriberCount returns the number of registered handlers.
func (b *Bus) SubscriberCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.handlers)
}

// Publish fans the event out synchronously, in subscribe order. A handler
// that panics does not prevent delivery to the remaining handlers; the panic
// is logged and swallowed, never propagated to the transport.
func (b *Bus) Publish(ev models.PushEvent) {
	observability.PushEventsTotal.WithLabelValues(ev.Type).Inc()

	b.mu.RLock()
	snapshot := make([]Subscription, len(b.order))
	copy(snapshot, b.order)
	b.mu.RUnlock()

	for _, token := range snapshot {
		b.mu.RLock()
		h, ok := b.handlers[token]
		b.mu.RUnlock()
		if !ok {
			// Unsubscribed while this event was being fanned out.
			continue
		}
		safeCall(h, ev)
	}
}

func safeCall(h Handler, ev models.PushEvent) {
	defer func() {
		if r := recover(); r != nil {
			observability.BusHandlerPanics.Inc()
			observability.GlobalLogger.Error("panic in bus subscriber",
				slog.Any("panic", r),
				slog.String("event_type", ev.Type),
				slog.String("stack", string(debug.Stack())),
			)
		}
	}()
	h(ev)
}
