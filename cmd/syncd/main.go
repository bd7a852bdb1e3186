// Command syncd runs the client-side sync core as a standalone process: it
// connects the configured push source to the bus and keeps the session
// stores current until interrupted.
package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"feedsync/internal/api"
	"feedsync/internal/config"
	"feedsync/internal/observability"
	"feedsync/internal/session"
	"feedsync/internal/transport"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	shutdownTracing, err := observability.InitTracing(observability.TracingConfig{
		ServiceName:    "feedsync",
		ServiceVersion: "1.0",
		Environment:    cfg.Env,
		Enabled:        cfg.TracingEnabled,
		Exporter:       cfg.TracingExporter,
		OTLPEndpoint:   cfg.OTLPEndpoint,
		SamplerRatio:   cfg.TracingSamplerRatio,
	})
	if err != nil {
		log.Fatalf("Failed to initialize tracing: %v", err)
	}

	backend := api.NewHTTPBackend(cfg.APIBaseURL, cfg.APIToken, cfg.APITimeout())
	sess := session.New(cfg.UserID, backend, session.Options{
		FeedPageSize:  cfg.FeedPageSize,
		ReverifyDelay: cfg.ReverifyDelay(),
	})

	ctx, cancel := context.WithCancel(context.Background())
	sess.Start(ctx)

	switch cfg.PushSource {
	case "redis":
		opts := &redis.Options{Addr: cfg.RedisURL}
		if parsed, perr := redis.ParseURL(cfg.RedisURL); perr == nil {
			opts = parsed
		}
		src := transport.NewRedisSource(redis.NewClient(opts), sess.Bus, cfg.PushChannelPattern)
		if err := src.Start(ctx); err != nil {
			log.Fatalf("Failed to start redis push source: %v", err)
		}
	default:
		src := transport.NewWebsocketSource(cfg.PushWSURL, sess.Bus)
		go func() {
			if err := src.Run(ctx); err != nil && ctx.Err() == nil {
				log.Printf("websocket push source stopped: %v", err)
			}
		}()
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	log.Println("Shutting down...")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := sess.Shutdown(shutdownCtx); err != nil {
		log.Printf("Session shutdown error: %v", err)
	}
	if err := shutdownTracing(shutdownCtx); err != nil {
		log.Printf("Tracing shutdown error: %v", err)
	}
}
