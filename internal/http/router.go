package http

import (
	"strings"
	"time"

	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/redis/go-redis/v9"
	"github.com/sponsorwall/backend/internal/config"
	"github.com/sponsorwall/backend/internal/http/handlers"
	"github.com/sponsorwall/backend/internal/metrics"
	"github.com/sponsorwall/backend/internal/middleware"
	"go.uber.org/zap"
)

func SetupRouter(
	app *fiber.App,
	cfg *config.Config,
	log *zap.Logger,
	rdb *redis.Client,
	m *metrics.Metrics,
	campaignHandler *handlers.CampaignHandler,
	layoutHandler *handlers.LayoutHandler,
	sponsorshipHandler *handlers.SponsorshipHandler,
	paymentHandler *handlers.PaymentHandler,
	wsHub *handlers.WSHub,
) {
	// Global middleware
	app.Use(recover.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: strings.Join(cfg.CORSAllowOrigins, ","),
		AllowHeaders: "Origin, Content-Type, Accept, Authorization, " + middleware.HeaderRequestID,
	}))
	app.Use(middleware.RequestIDMiddleware())
	app.Use(middleware.LoggerMiddleware(log))
	app.Use(middleware.MetricsMiddleware(m))

	// Health check
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})
	app.Get("/metrics", adaptor.HTTPHandler(m.Handler()))

	api := app.Group("/api/v1")

	// Payment provider webhook (signed, never rate limited)
	api.Post("/payments/webhook", paymentHandler.Webhook)

	// Rate-limited public endpoints
	api.Use(middleware.RateLimitMiddleware(rdb, cfg.RateLimitPerMinute, time.Minute, log))

	metaHandler := handlers.NewMetaHandler()
	api.Get("/meta/campaign-types", metaHandler.GetCampaignTypes)
	api.Get("/meta/payment-methods", metaHandler.GetPaymentMethods)
	api.Get("/meta/size-tiers", metaHandler.GetSizeTiers)

	api.Get("/public/campaigns/:slug", campaignHandler.GetPublicCampaign)
	api.Get("/campaigns/:id/layout", layoutHandler.GetLayout)
	api.Post("/campaigns/:id/sponsorships", sponsorshipHandler.CreateSponsorship)
	api.Post("/campaigns/:id/payment-intents", paymentHandler.CreatePaymentIntent)

	// Protected endpoints
	protected := api.Group("", middleware.AuthMiddleware(cfg.JWTSecret, log))

	// Campaigns
	protected.Post("/campaigns", campaignHandler.CreateCampaign)
	protected.Get("/campaigns", campaignHandler.ListCampaigns)
	protected.Get("/campaigns/:id", campaignHandler.GetCampaign)
	protected.Patch("/campaigns/:id", campaignHandler.UpdateCampaign)
	protected.Put("/campaigns/:id/pricing", campaignHandler.UpdatePricing)
	protected.Post("/campaigns/:id/close", campaignHandler.CloseCampaign)
	protected.Delete("/campaigns/:id", campaignHandler.DeleteCampaign)

	// Layout
	protected.Post("/campaigns/:id/layout", layoutHandler.CreateLayout)

	// Sponsorships
	protected.Get("/campaigns/:id/sponsorships", sponsorshipHandler.ListSponsorships)
	protected.Get("/sponsorships/:id", sponsorshipHandler.GetSponsorship)
	protected.Post("/sponsorships/:id/mark-paid", sponsorshipHandler.MarkPaid)

	// Transactions
	protected.Get("/campaigns/:id/transactions", paymentHandler.ListTransactions)

	// WebSocket
	app.Use("/ws", handlers.WSUpgradeMiddleware())
	app.Get("/ws", websocket.New(wsHub.HandleWS))
}
