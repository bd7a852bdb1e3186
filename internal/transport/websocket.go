// Package transport feeds the bus from a push source. Two sources are
// supported: a persistent websocket connection and redis pub/sub channels.
// Neither interprets payloads; frames are decoded into events and published.
package transport

import (
	"context"
	"log/slog"
	"time"

	"github.com/gorilla/websocket"

	"feedsync/internal/bus"
	"feedsync/internal/models"
	"feedsync/internal/observability"
)

const (
	reconnectDelay = time.Second
	readWait       = 60 * time.Second
	pingInterval   = 30 * time.Second
)

// WebsocketSource reads push frames from a websocket connection and publishes
// them to the bus, reconnecting until the context is cancelled.
type WebsocketSource struct {
	url string
	bus *bus.Bus
}

// NewWebsocketSource creates a source dialing the given url.
func NewWebsocketSource(url string, b *bus.Bus) *WebsocketSource {
	return &WebsocketSource{url: url, bus: b}
}

// Run blocks, dialing and reading until ctx is cancelled. Delivery is
// at-least-once with no ordering guarantee across reconnects; subscribers
// must apply events idempotently.
func (s *WebsocketSource) Run(ctx context.Context) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		conn, _, err := websocket.DefaultDialer.DialContext(ctx, s.url, nil)
		if err != nil {
			observability.GlobalLogger.Warn("websocket dial failed",
				slog.String("url", s.url), slog.String("error", err.Error()))
			if !sleepCtx(ctx, reconnectDelay) {
				return ctx.Err()
			}
			continue
		}
		s.readLoop(ctx, conn)
		_ = conn.Close()
		if !sleepCtx(ctx, reconnectDelay) {
			return ctx.Err()
		}
	}
}

func (s *WebsocketSource) readLoop(ctx context.Context, conn *websocket.Conn) {
	done := make(chan struct{})
	defer close(done)

	go func() {
		ticker := time.NewTicker(pingInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				_ = conn.Close()
				return
			case <-done:
				return
			case <-ticker.C:
				_ = conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(time.Second))
			}
		}
	}()

	_ = conn.SetReadDeadline(time.Now().Add(readWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(readWait))
	})

	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			if ctx.Err() == nil {
				observability.GlobalLogger.Warn("websocket read failed",
					slog.String("error", err.Error()))
			}
			return
		}
		_ = conn.SetReadDeadline(time.Now().Add(readWait))
		publishFrame(ctx, s.bus, raw)
	}
}

// publishFrame decodes one raw frame and fans it out. A frame the decoder
// cannot interpret is dropped without affecting the connection.
func publishFrame(ctx context.Context, b *bus.Bus, raw []byte) {
	ev, err := models.DecodePushEvent(raw)
	if err != nil {
		observability.LogDroppedPayload(ctx, "", err)
		return
	}
	b.Publish(ev)
}

func sleepCtx(ctx context.Context, d time.Duration) bool {
	select {
	case <-ctx.Done():
		return false
	case <-time.After(d):
		return true
	}
}
