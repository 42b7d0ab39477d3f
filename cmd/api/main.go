package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/fabguard/storefront-backend/api/controllers"
	"github.com/fabguard/storefront-backend/api/routes"
	"github.com/fabguard/storefront-backend/internal/catalog"
	"github.com/fabguard/storefront-backend/internal/checkout"
	"github.com/fabguard/storefront-backend/internal/coupons"
	"github.com/fabguard/storefront-backend/internal/leads"
	"github.com/fabguard/storefront-backend/internal/memberships"
	"github.com/fabguard/storefront-backend/internal/notifications"
	"github.com/fabguard/storefront-backend/internal/orders"
	"github.com/fabguard/storefront-backend/internal/sessions"
	"github.com/fabguard/storefront-backend/pkg/config"
	"github.com/fabguard/storefront-backend/pkg/db"
	"github.com/fabguard/storefront-backend/pkg/instance"
	"github.com/fabguard/storefront-backend/pkg/logger"
	"github.com/fabguard/storefront-backend/pkg/metrics"
	"github.com/fabguard/storefront-backend/pkg/migrate"
	"github.com/fabguard/storefront-backend/pkg/outbox"
	"github.com/fabguard/storefront-backend/pkg/redis"
)

const shutdownTimeout = 20 * time.Second

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logg); err != nil {
		logg.Error(context.Background(), "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, logg *logger.Logger) error {
	dbClient, err := db.New(ctx, cfg.DB, logg)
	if err != nil {
		return err
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(ctx, cfg, logg, dbClient); err != nil {
		return err
	}

	redisClient, err := redis.New(ctx, cfg.Redis, logg)
	if err != nil {
		return err
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	pingers := map[string]controllers.Pinger{
		"database": dbClient,
		"redis":    redisClient,
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	checkoutMetrics := metrics.NewCheckoutMetrics(registry)

	catalogService, err := catalog.NewService(catalog.NewRepository(dbClient.DB()), redisClient, cfg.Checkout.CatalogCacheTTL, logg)
	if err != nil {
		return err
	}

	orderService, err := orders.NewService(dbClient, orders.NewRepository(dbClient.DB()), nil, logg)
	if err != nil {
		return err
	}

	whatsapp, err := notifications.NewWhatsAppNotifier(cfg.Notification.AdminWhatsAppNumber)
	if err != nil {
		return err
	}
	channels := []notifications.Channel{whatsapp}
	var contactNotifier leads.ContactNotifier
	if cfg.Notification.QueuesToOutbox() {
		// events and emails are queued in the outbox; cmd/outbox-publisher delivers them
		writer, err := outbox.NewWriter(outbox.NewRepository(dbClient.DB()), logg)
		if err != nil {
			return err
		}
		if cfg.Notification.PubSubEnabled {
			events, err := notifications.NewEventNotifier(writer, cfg.Notification.OrdersTopic)
			if err != nil {
				return err
			}
			channels = append(channels, events)
		}
		if cfg.Notification.EmailEnabled {
			emails, err := notifications.NewEmailNotifier(writer, cfg.Notification.EmailTopic, notifications.EmailOptions{
				From:            cfg.Notification.EmailFrom,
				ReplyTo:         cfg.Notification.EmailReplyTo,
				AdminRecipients: cfg.Notification.AdminEmails,
			})
			if err != nil {
				return err
			}
			channels = append(channels, emails)
			contactNotifier = emails
		}
	}
	notifier, err := notifications.NewFanout(logg, checkoutMetrics, channels...)
	if err != nil {
		return err
	}

	pipeline, err := checkout.NewPipeline(orderService, notifier, checkout.PipelineOptions{
		OrderIDPrefix: cfg.Checkout.OrderIDPrefix,
		Timeout:       cfg.Checkout.SubmitTimeout,
		FeedbackURL:   cfg.Checkout.FeedbackURL,
		Logger:        logg,
		Metrics:       checkoutMetrics,
	})
	if err != nil {
		return err
	}

	sessionRegistry, err := sessions.NewRegistry(sessions.Deps{
		Catalog:   catalogService,
		Submitter: pipeline,
		Coupons:   coupons.DefaultTable(),
		Snapshots: sessions.NewRedisSnapshots(redisClient),
		Logger:    logg,
	}, sessions.Options{
		TTL:  cfg.Session.TTL,
		Flow: checkout.FlowOptions{RequireItemSelection: cfg.Checkout.RequireItemSelection},
	})
	if err != nil {
		return err
	}
	go sessionRegistry.Run(ctx, cfg.Session.SweepInterval)

	membershipService, err := memberships.NewService(dbClient, catalogService, logg)
	if err != nil {
		return err
	}
	leadService, err := leads.NewService(dbClient.DB(), contactNotifier, logg)
	if err != nil {
		return err
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	logCtx := logg.WithFields(ctx, map[string]any{
		"env":      cfg.App.Env,
		"addr":     addr,
		"instance": instance.GetID(),
		"db":       dbClient.Driver(),
	})
	logg.Info(logCtx, "starting api server")

	server := &http.Server{
		Addr: addr,
		Handler: routes.NewRouter(cfg, logg, routes.Services{
			Catalog:     catalogService,
			Sessions:    sessionRegistry,
			Memberships: membershipService,
			Leads:       leadService,
			Orders:      orderService,
			RateLimiter: redisClient,
			Pingers:     pingers,
			Metrics:     checkoutMetrics,
			Gatherer:    registry,
		}),
		ReadHeaderTimeout: 10 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		serveErr <- server.ListenAndServe()
	}()

	select {
	case err := <-serveErr:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	logg.Info(logCtx, "shutting down api server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}
