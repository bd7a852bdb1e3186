package transport

import (
	"context"
	"log"
	"runtime/debug"

	"github.com/redis/go-redis/v9"

	"feedsync/internal/bus"
)

// RedisSource reads push frames from redis pub/sub channels and publishes
// them to the bus. The backend publishes per-user channels of the form
// notifications:user:<id>.
type RedisSource struct {
	rdb      *redis.Client
	bus      *bus.Bus
	patterns []string
}

// NewRedisSource creates a source subscribed to the given channel patterns.
// With no patterns it defaults to notifications:user:*.
func NewRedisSource(rdb *redis.Client, b *bus.Bus, patterns ...string) *RedisSource {
	if len(patterns) == 0 {
		patterns = []string{"notifications:user:*"}
	}
	return &RedisSource{rdb: rdb, bus: b, patterns: patterns}
}

// Start subscribes and forwards messages until ctx is cancelled.
func (s *RedisSource) Start(ctx context.Context) error {
	if s.rdb == nil {
		return nil
	}
	sub := s.rdb.PSubscribe(ctx, s.patterns...)
	ch := sub.Channel()

	go func() {
		defer func() { _ = sub.Close() }()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}
				func() {
					defer func() {
						if r := recover(); r != nil {
							log.Printf("PANIC in RedisSource: %v\n%s", r, debug.Stack())
						}
					}()
					publishFrame(ctx, s.bus, []byte(msg.Payload))
				}()
			}
		}
	}()

	return nil
}
