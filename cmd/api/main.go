package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"github.com/sponsorwall/backend/internal/config"
	"github.com/sponsorwall/backend/internal/db"
	"github.com/sponsorwall/backend/internal/events"
	apphttp "github.com/sponsorwall/backend/internal/http"
	"github.com/sponsorwall/backend/internal/http/handlers"
	"github.com/sponsorwall/backend/internal/metrics"
	"github.com/sponsorwall/backend/internal/payments"
	"github.com/sponsorwall/backend/internal/services"
	"github.com/sponsorwall/backend/internal/storage"
	"go.uber.org/zap"
)

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

	cfg.Validate(log)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Storage
	store, closeStore, err := storage.Open(ctx, cfg, log)
	if err != nil {
		log.Fatal("failed to open storage", zap.Error(err))
	}
	defer closeStore()

	// Redis
	rdb, err := db.NewRedisClient(ctx, cfg.RedisURL, log)
	if err != nil {
		log.Fatal("failed to connect to redis", zap.Error(err))
	}
	defer rdb.Close()

	// Events
	publisher := events.NewRedisPublisher(rdb, log)
	subscriber := events.NewRedisSubscriber(rdb, log)

	m := metrics.New()

	// Payments
	provider := payments.NewStripeProvider(cfg.Stripe.SecretKey, cfg.Stripe.WebhookSecret, log)
	ledger := payments.NewRedisEventLedger(rdb, cfg.WebhookEventTTL)

	// Services
	layoutService := services.NewLayoutService(store, publisher, m, log)
	sponsorshipService := services.NewSponsorshipService(store, layoutService, publisher, log)
	campaignService := services.NewCampaignService(store, layoutService, cfg.StripeConfigured(), log)
	paymentService := services.NewPaymentService(store, sponsorshipService, layoutService, provider, ledger,
		cfg.StripeConfigured(), publisher, m, log)

	// Handlers
	campaignHandler := handlers.NewCampaignHandler(campaignService, layoutService, sponsorshipService, log)
	layoutHandler := handlers.NewLayoutHandler(campaignService, layoutService, log)
	sponsorshipHandler := handlers.NewSponsorshipHandler(sponsorshipService, log)
	paymentHandler := handlers.NewPaymentHandler(paymentService, log)
	wsHub := handlers.NewWSHub(subscriber, log)

	// Start WS hub
	if err := wsHub.Start(ctx); err != nil {
		log.Fatal("failed to subscribe to layout events", zap.Error(err))
	}

	// Fiber app
	app := fiber.New(fiber.Config{
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			code := fiber.StatusInternalServerError
			if e, ok := err.(*fiber.Error); ok {
				code = e.Code
			}
			return c.Status(code).JSON(fiber.Map{"error": err.Error()})
		},
	})

	apphttp.SetupRouter(app, cfg, log, rdb, m, campaignHandler, layoutHandler, sponsorshipHandler, paymentHandler, wsHub)

	// Graceful shutdown
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh
		log.Info("shutting down...")
		cancel()
		_ = app.Shutdown()
	}()

	addr := fmt.Sprintf(":%s", cfg.APIPort)
	log.Info("starting API server",
		zap.String("addr", addr),
		zap.String("storage", cfg.StorageDriver),
		zap.Bool("card_payments", cfg.StripeConfigured()),
	)
	if err := app.Listen(addr); err != nil {
		log.Fatal("server error", zap.Error(err))
	}
}
