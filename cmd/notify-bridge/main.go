package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/sponsorwall/backend/internal/config"
	"github.com/sponsorwall/backend/internal/db"
	"github.com/sponsorwall/backend/internal/events"
	"github.com/sponsorwall/backend/internal/services"
	"go.uber.org/zap"
)

// Notify Bridge subscribes to sponsorship events on redis and forwards
// them to the notification service at NOTIFY_URL.

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	log, err := config.NewLogger(cfg.LogLevel)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	defer log.Sync()

	if cfg.NotifyURL == "" {
		log.Fatal("NOTIFY_URL is required")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	rdb, err := db.NewRedisClient(ctx, cfg.RedisURL, log)
	if err != nil {
		log.Fatal("failed to connect to redis", zap.Error(err))
	}
	defer rdb.Close()

	subscriber := events.NewRedisSubscriber(rdb, log)
	notifier := services.NewNotifyClient(cfg.NotifyURL, log)

	err = subscriber.Subscribe(ctx, events.StreamSponsorship, func(event events.Event) {
		notifier.Forward(ctx, event)
	})
	if err != nil {
		log.Fatal("failed to subscribe to sponsorship events", zap.Error(err))
	}

	log.Info("notify-bridge started", zap.String("notify_url", cfg.NotifyURL))

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	log.Info("shutting down notify-bridge")
	cancel()
}
