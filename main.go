package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"
	_ "time/tzdata"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/MelannyAlzate/VinsBakery/internal/access"
	"github.com/MelannyAlzate/VinsBakery/internal/activity"
	"github.com/MelannyAlzate/VinsBakery/internal/auth"
	"github.com/MelannyAlzate/VinsBakery/internal/config"
	deliveryhttp "github.com/MelannyAlzate/VinsBakery/internal/delivery/http"
	"github.com/MelannyAlzate/VinsBakery/internal/entity"
	"github.com/MelannyAlzate/VinsBakery/internal/messaging"
	"github.com/MelannyAlzate/VinsBakery/internal/messaging/kafka"
	"github.com/MelannyAlzate/VinsBakery/internal/metrics"
	"github.com/MelannyAlzate/VinsBakery/internal/repository/postgres"
	"github.com/MelannyAlzate/VinsBakery/internal/service"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("Failed to load config", "err", err)
		os.Exit(1)
	}
	slog.SetLogLoggerLevel(cfg.LogLevel)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// --- Database ---
	db, err := postgres.InitDB(ctx, cfg.DatabaseURL)
	if err != nil {
		slog.Error("Failed to init database", "err", err)
		os.Exit(1)
	}
	defer db.Close()

	users := postgres.NewUserRepository(db)
	customers := postgres.NewCustomerRepository(db)
	products := postgres.NewProductRepository(db)
	orders := postgres.NewOrderRepository(db)
	alerts := postgres.NewStockAlertRepository(db)
	permissions := postgres.NewPermissionRepository(db)
	activityLog := postgres.NewActivityRepository(db)
	stats := postgres.NewStatsRepository(db)

	// --- Access control ---
	defaults, err := access.DefaultPermissions()
	if err != nil {
		slog.Error("Failed to load default permissions", "err", err)
		os.Exit(1)
	}
	if err := permissions.Seed(ctx, defaults); err != nil {
		slog.Error("Failed to seed permissions", "err", err)
		os.Exit(1)
	}
	perms, err := permissions.FindAll(ctx)
	if err != nil {
		slog.Error("Failed to load permissions", "err", err)
		os.Exit(1)
	}
	gate, err := access.NewGate(perms)
	if err != nil {
		slog.Error("Invalid permission table", "err", err)
		os.Exit(1)
	}

	// --- Kafka ---
	var (
		publisher messaging.Publisher = messaging.NoopPublisher{}
		broker    *kafka.Broker
	)
	if len(cfg.KafkaBrokers) > 0 {
		broker = kafka.NewKafkaBroker(cfg.KafkaBrokers)
		defer broker.Close()
		publisher = broker
	} else {
		slog.Warn("KAFKA_BROKERS not set, domain events are disabled")
	}

	// --- Activity log ---
	wmLogger := watermill.NewSlogLogger(slog.Default())
	bus := gochannel.NewGoChannel(gochannel.Config{OutputChannelBuffer: 256}, wmLogger)
	router, err := message.NewRouter(message.RouterConfig{CloseTimeout: 10 * time.Second}, wmLogger)
	if err != nil {
		slog.Error("Failed to create activity router", "err", err)
		os.Exit(1)
	}
	router.AddMiddleware(activity.RetryThenDrop(3, 100*time.Millisecond))
	activity.Register(router, bus, activityLog)
	go func() {
		if err := router.Run(ctx); err != nil {
			slog.Error("Activity router stopped", "err", err)
		}
	}()
	<-router.Running()
	sink := activity.NewSink(bus)

	// --- Metrics ---
	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(registry)

	// --- Services ---
	tokens := auth.NewTokens(cfg.JWTSecret, cfg.TokenTTL)
	discounts := entity.DiscountPolicy{BirthdayBonus: cfg.BirthdayBonus, Location: cfg.Location}

	svc := deliveryhttp.Services{
		Auth:      service.NewAuthService(users, tokens, sink),
		Catalog:   service.NewCatalogService(products, publisher, sink),
		Customers: service.NewCustomerService(customers, sink),
		Orders:    service.NewOrderService(orders, customers, publisher, sink, discounts, m),
		Alerts:    service.NewAlertService(alerts, products, sink, cfg.LowStockThreshold),
		Reports:   service.NewReportService(stats, activityLog),
	}

	if cfg.SeedDemoData {
		if err := svc.Catalog.SeedDemo(ctx); err != nil {
			slog.Error("Failed to seed products", "err", err)
			os.Exit(1)
		}
	}
	if cfg.AdminEmail != "" {
		if err := svc.Auth.EnsureAdmin(ctx, cfg.AdminEmail, cfg.AdminPassword); err != nil {
			slog.Error("Failed to create admin account", "err", err)
			os.Exit(1)
		}
	}

	// Consumer: inventory.stock_updated → stock alerts
	if broker != nil {
		go broker.Consume(ctx, entity.TopicInventoryStockLevel, "bakery-stock-alerts", svc.Alerts.HandleStockUpdated)
		slog.Info("Kafka consumers started")
	}

	// --- HTTP API ---
	handler := deliveryhttp.NewHandler(svc, gate, tokens, m, registry, deliveryhttp.Options{
		CORSOrigin:        cfg.CORSOrigin,
		LoginRateRPS:      cfg.LoginRateRPS,
		LoginRateBurst:    cfg.LoginRateBurst,
		TrustProxyHeaders: cfg.TrustProxyHeaders,
	})
	httpServer := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           handler.Routes(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		slog.Info("HTTP server starting", "addr", httpServer.Addr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("HTTP server error", "err", err)
			cancel()
		}
	}()

	<-ctx.Done()
	slog.Info("Shutting down...")

	shutdownCtx, stop := context.WithTimeout(context.Background(), 10*time.Second)
	defer stop()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		slog.Error("HTTP shutdown error", "err", err)
	}
	if err := router.Close(); err != nil {
		slog.Error("Activity router close error", "err", err)
	}
	if err := bus.Close(); err != nil {
		slog.Error("Activity bus close error", "err", err)
	}
}
