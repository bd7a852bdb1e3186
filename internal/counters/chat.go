package counters

import (
	"context"
	"sync"
	"time"

	"feedsync/internal/api"
	"feedsync/internal/observability"
	"feedsync/internal/signals"
)

const chatRefreshTimeout = 5 * time.Second

// ChatUnread tracks unread direct messages per sender. Opening a sender's
// thread clears that key; closing any chat panel triggers a full
// authoritative refresh to correct for messages that arrived while the panel
// was open.
type ChatUnread struct {
	mu        sync.Mutex
	backend   api.Backend
	log       *observability.StoreLogger
	perSender map[string]int

	sig    *signals.Broadcaster
	sigTok signals.Token
	bound  bool
}

// NewChatUnread creates an empty map.
func NewChatUnread(backend api.Backend) *ChatUnread {
	return &ChatUnread{
		backend:   backend,
		log:       observability.NewStoreLogger("chat_unread"),
		perSender: make(map[string]int),
	}
}

// Bind subscribes the store to the chat-closed signal.
func (c *ChatUnread) Bind(sig *signals.Broadcaster) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.bound {
		return
	}
	c.sig = sig
	c.sigTok = sig.On(signals.TopicChatClosed, func(any) {
		ctx, cancel := context.WithTimeout(context.Background(), chatRefreshTimeout)
		defer cancel()
		observability.LogBackgroundError(ctx, "chat_unread_refresh", c.Refresh(ctx))
	})
	c.bound = true
}

// Unbind detaches the store from the chat-closed signal.
func (c *ChatUnread) Unbind() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.bound {
		c.sig.Off(c.sigTok)
		c.bound = false
	}
}

// ApplyMessage counts one pushed chat message from the sender.
func (c *ChatUnread) ApplyMessage(senderID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.perSender[senderID]++
}

// OpenThread clears the sender's badge. The key is removed, not set to zero.
func (c *ChatUnread) OpenThread(senderID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.perSender, senderID)
}

// CountFor returns the badge for one sender.
func (c *ChatUnread) CountFor(senderID string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.perSender[senderID]
}

// Counts returns a copy of the whole map.
func (c *ChatUnread) Counts() map[string]int {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make(map[string]int, len(c.perSender))
	for k, v := range c.perSender {
		out[k] = v
	}
	return out
}

// Refresh replaces the map with the authoritative bulk read.
func (c *ChatUnread) Refresh(ctx context.Context) error {
	counts, err := c.backend.GetChatUnreadBySenders(ctx)
	if err != nil {
		return err
	}
	c.mu.Lock()
	c.perSender = make(map[string]int, len(counts))
	for k, v := range counts {
		c.perSender[k] = v
	}
	c.mu.Unlock()
	c.log.LogReconcile(ctx, map[string]interface{}{"senders": len(counts)})
	return nil
}
