// Package signals implements the local invalidation channel: a volatile,
// in-process broadcast that lets one store tell unrelated surfaces "a shared
// fact changed, recompute your view".
//
// Emission is fire-and-forget. There is no acknowledgement, no ordering
// guarantee relative to network events, and no delivery to listeners that
// subscribe after emission.
package signals

import (
	"log/slog"
	"runtime/debug"
	"sync"

	"github.com/google/uuid"

	"feedsync/internal/observability"
)

// Topic names a local invalidation signal.
type Topic string

const (
	// TopicFriendshipChanged fires when a request was sent, accepted,
	// rejected, or a friend was removed. Every surface showing friend buttons
	// or lists re-derives its view.
	TopicFriendshipChanged Topic = "friendship-changed"
	// TopicFriendshipStatusChanged fires when the cached per-peer status must
	// be re-verified.
	TopicFriendshipStatusChanged Topic = "friendship-status-changed"
	// TopicChatClosed fires when a chat panel closes; the contact list
	// refreshes its unread badges.
	TopicChatClosed Topic = "chat-closed"
	// TopicAppFocus fires when the application regains focus.
	TopicAppFocus Topic = "app-focus"
)

// HandlerFunc consumes one signal. Payload is usually nil.
type HandlerFunc func(payload any)

// Token identifies one registered listener.
type Token struct {
	topic Topic
	id    string
}

// Broadcaster is the process-wide local signal channel. Its lifecycle is tied
// to the application session.
type Broadcaster struct {
	mu       sync.RWMutex
	handlers map[Topic]map[string]HandlerFunc
}

// New creates an empty broadcaster.
func New() *Broadcaster {
	return &Broadcaster{handlers: make(map[Topic]map[string]HandlerFunc)}
}

// On registers a listener for the topic.
func (b *Broadcaster) On(topic Topic, h HandlerFunc) Token {
	b.mu.Lock()
	defer b.mu.Unlock()
	m, ok := b.handlers[topic]
	if !ok {
		m = make(map[string]HandlerFunc)
		b.handlers[topic] = m
	}
	id := uuid.NewString()
	m[id] = h
	return Token{topic: topic, id: id}
}

// Off removes a listener.
func (b *Broadcaster) Off(token Token) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if m, ok := b.handlers[token.topic]; ok {
		delete(m, token.id)
		if len(m) == 0 {
			delete(b.handlers, token.topic)
		}
	}
}

// Emit broadcasts the topic with no payload.
func (b *Broadcaster) Emit(topic Topic) {
	b.EmitPayload(topic, nil)
}

// EmitPayload broadcasts the topic with a payload. Listener panics are logged
// and swallowed.
func (b *Broadcaster) EmitPayload(topic Topic, payload any) {
	observability.SignalEmitsTotal.WithLabelValues(string(topic)).Inc()

	b.mu.RLock()
	snapshot := make([]HandlerFunc, 0, len(b.handlers[topic]))
	for _, h := range b.handlers[topic] {
		snapshot = append(snapshot, h)
	}
	b.mu.RUnlock()

	for _, h := range snapshot {
		func() {
			defer func() {
				if r := recover(); r != nil {
					observability.GlobalLogger.Error("panic in signal listener",
						slog.Any("panic", r),
						slog.String("topic", string(topic)),
						slog.String("stack", string(debug.Stack())),
					)
				}
			}()
			h(payload)
		}()
	}
}
