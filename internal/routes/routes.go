package routes

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"gorm.io/gorm"

	"github.com/example/foodorder/internal/config"
	"github.com/example/foodorder/internal/events"
	"github.com/example/foodorder/internal/handlers"
	"github.com/example/foodorder/internal/metrics"
	"github.com/example/foodorder/internal/middleware"
	"github.com/example/foodorder/internal/services"
)

// Infra carries the optional collaborators built in main.
type Infra struct {
	Metrics   *metrics.Metrics
	Gatherer  prometheus.Gatherer
	Publisher events.Publisher
	Dedup     services.Deduplicator
	Telegram  *services.TelegramService
}

// Register wires up all HTTP routes.
func Register(app *fiber.App, db *gorm.DB, cfg *config.Config, infra Infra) {
	momo := services.NewMomoService(services.MomoConfig{
		Endpoint:    cfg.MomoEndpoint,
		PartnerCode: cfg.MomoPartnerCode,
		AccessKey:   cfg.MomoAccessKey,
		SecretKey:   cfg.MomoSecretKey,
		RedirectURL: cfg.MomoRedirectURL,
		IPNURL:      cfg.MomoIPNURL,
		RequestType: cfg.MomoRequestType,
		Timeout:     cfg.MomoTimeout,
	}, infra.Metrics)

	telegram := infra.Telegram
	if telegram == nil {
		telegram = services.NewTelegramService(cfg.TelegramBotToken, cfg.TelegramAdminChat)
	}

	orders := services.NewOrderStore()
	ledger := services.NewInventoryLedger(services.NewRecipeService(), infra.Metrics)
	checkout := services.NewCheckoutService(db, orders, ledger, momo, infra.Publisher, telegram, infra.Metrics)
	reconciler := services.NewReconcileService(db, orders, ledger, momo, infra.Dedup, infra.Publisher, telegram, infra.Metrics)

	checkoutHandler := handlers.NewCheckoutHandler(checkout)
	paymentHandler := handlers.NewPaymentHandler(reconciler)
	cartHandler := handlers.NewCartHandler(services.NewCartStore(db))
	adminHandler := handlers.NewAdminHandler(reconciler)
	healthHandler := handlers.NewHealthHandler(db)

	app.Get("/healthz", healthHandler.Health)
	if infra.Gatherer != nil {
		app.Get("/metrics", adaptor.HTTPHandler(promhttp.HandlerFor(infra.Gatherer, promhttp.HandlerOpts{})))
	}

	api := app.Group("/api")

	// Guests may check out and confirm; a token, when sent, must be valid.
	optional := middleware.OptionalAuth(cfg.JWTSecret)
	api.Post("/checkout", optional, checkoutHandler.Checkout)
	api.Post("/orders/confirm", optional, paymentHandler.ConfirmOrder)

	api.Post("/payments/momo/ipn", middleware.MomoSignatureMiddleware(momo), paymentHandler.MomoIPN)

	// Protected routes
	protected := api.Group("", middleware.AuthMiddleware(cfg.JWTSecret))
	protected.Get("/cart", cartHandler.GetCart)
	protected.Post("/cart/items", cartHandler.AddItem)

	admin := protected.Group("/admin", middleware.RequireStaff())
	admin.Put("/orders/:id/status", adminHandler.UpdateOrderStatus)
}
