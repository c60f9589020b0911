package main

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"

	"github.com/example/foodorder/internal/config"
	"github.com/example/foodorder/internal/database"
	"github.com/example/foodorder/internal/events"
	"github.com/example/foodorder/internal/logging"
	"github.com/example/foodorder/internal/metrics"
	"github.com/example/foodorder/internal/middleware"
	"github.com/example/foodorder/internal/redisx"
	"github.com/example/foodorder/internal/routes"
)

func main() {
	cfg := config.Load()

	logger := logging.MustNewLogger(cfg.ServiceName, cfg.AppEnv)
	defer logger.Sync() //nolint:errcheck
	zap.ReplaceGlobals(logger)

	db, err := database.Connect(cfg.DatabaseURL)
	if err != nil {
		logger.Fatal("database unavailable", zap.Error(err))
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	infra := routes.Infra{
		Metrics:   metrics.New(registry),
		Gatherer:  registry,
		Publisher: events.NopPublisher(),
	}

	if cfg.RedisAddr != "" {
		rdb := redisx.New(cfg.RedisAddr)
		defer rdb.Close()

		pingCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		if err := rdb.Ping(pingCtx).Err(); err != nil {
			logger.Warn("redis unreachable, notification dedup falls back to the database", zap.Error(err))
		}
		cancel()
		infra.Dedup = redisx.NewDedupStore(rdb, "momo-ipn")
	}

	if len(cfg.KafkaBrokers) > 0 {
		publisher := events.NewKafkaPublisher(cfg.KafkaBrokers, cfg.KafkaOrderTopic, cfg.ServiceName)
		defer publisher.Close()
		infra.Publisher = publisher
		logger.Info("order events enabled", zap.Strings("brokers", cfg.KafkaBrokers), zap.String("topic", cfg.KafkaOrderTopic))
	}

	app := fiber.New(fiber.Config{
		AppName: "Food Order Backend",
	})

	app.Use(recover.New())
	app.Use(requestid.New())
	app.Use(middleware.RequestLogger(logger))

	routes.Register(app, db, cfg, infra)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		<-ctx.Done()
		logger.Info("shutting down")
		if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
			logger.Error("fiber shutdown error", zap.Error(err))
		}
	}()

	logger.Info("starting server", zap.String("port", cfg.AppPort))
	if err := app.Listen(":" + cfg.AppPort); err != nil {
		logger.Fatal("fiber.Listen error", zap.Error(err))
	}
}
