package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/parlakisik/event-escrow/internal/clients"
	"github.com/parlakisik/event-escrow/internal/config"
	"github.com/parlakisik/event-escrow/internal/events"
	"github.com/parlakisik/event-escrow/internal/httpapi"
	"github.com/parlakisik/event-escrow/internal/httpclient"
	"github.com/parlakisik/event-escrow/internal/middleware"
	"github.com/parlakisik/event-escrow/internal/service"
	"github.com/parlakisik/event-escrow/internal/store"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	logLevel := slog.LevelInfo
	if cfg.Environment == "development" || cfg.LogLevel == "debug" {
		logLevel = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel})))

	slog.Info("starting event-escrow",
		"environment", cfg.Environment,
		"port", cfg.Port,
		"store", cfg.StoreType,
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	st, closeStore := openStore(ctx, cfg)
	defer closeStore()

	if cfg.VendorSeedFile != "" {
		seedVendors(ctx, st, cfg.VendorSeedFile)
	}

	publisher := events.NewPublisher("event-escrow")
	if cfg.NotifyWebhookURL != "" {
		publisher.AddSink(events.NewWebhookSink(cfg.NotifyWebhookURL,
			events.EventNotification,
			events.EventDisputeFiled,
			events.EventDisputeResolved,
			events.EventPayoutDecided,
		))
	}
	if cfg.AMQPURL != "" {
		sink, err := events.NewAMQPSink(cfg.AMQPURL, cfg.AMQPExchange)
		if err != nil {
			slog.Error("failed to connect to amqp", "error", err)
			os.Exit(1)
		}
		defer sink.Close()
		publisher.AddSink(sink)
		slog.Info("publishing events to amqp", "exchange", cfg.AMQPExchange)
	}

	settings, err := cfg.Settings()
	if err != nil {
		slog.Error("invalid business settings", "error", err)
		os.Exit(1)
	}

	opts := []service.Option{service.WithPublisher(publisher)}
	var auth httpclient.AuthProvider
	if cfg.CollaboratorToken != "" {
		auth = &httpclient.BearerTokenAuth{Token: cfg.CollaboratorToken}
	}
	if cfg.VendorDirectoryURL != "" {
		opts = append(opts, service.WithVendorDirectory(
			clients.NewVendorDirectoryClient(cfg.VendorDirectoryURL, cfg.CollaboratorTimeout, auth)))
		slog.Info("using remote vendor directory", "url", cfg.VendorDirectoryURL)
	}
	if cfg.ChatServiceURL != "" {
		opts = append(opts, service.WithChatLogs(
			clients.NewChatLogClient(cfg.ChatServiceURL, cfg.CollaboratorTimeout, auth)))
	}
	svc := service.New(st, settings, opts...)

	if len(cfg.APIKeys) == 0 {
		slog.Warn("no API_KEYS configured, every /v1 request will be rejected")
	}
	keys := middleware.NewKeyRing(cfg.APIKeys)

	var limiter *middleware.RateLimiter
	if cfg.RateLimitPerMinute > 0 {
		limiter = middleware.NewRateLimiter(cfg.RateLimitPerMinute)
		go limiter.Run(ctx)
	}

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      httpapi.NewRouter(svc, keys, limiter),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: settings.CallTimeout + 5*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		slog.Info("http server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("http server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("shutting down server...")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("server forced to shutdown", "error", err)
	}
	slog.Info("server stopped")
}

// openStore returns the configured store and its cleanup.
func openStore(ctx context.Context, cfg *config.Config) (store.Store, func()) {
	switch cfg.StoreType {
	case "mongo":
		connectCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
		defer cancel()

		client, err := mongo.Connect(connectCtx, options.Client().ApplyURI(cfg.MongoURI))
		if err != nil {
			slog.Error("failed to connect to mongodb", "error", err)
			os.Exit(1)
		}
		if err := client.Ping(connectCtx, nil); err != nil {
			slog.Error("failed to ping mongodb", "error", err)
			os.Exit(1)
		}

		ms := store.NewMongoStore(client, cfg.MongoDB)
		if err := ms.EnsureIndexes(connectCtx); err != nil {
			slog.Warn("failed to create indexes", "error", err)
		}
		slog.Info("using mongodb store", "db", cfg.MongoDB)
		return ms, func() {
			dctx, dcancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer dcancel()
			if err := client.Disconnect(dctx); err != nil {
				slog.Error("failed to disconnect mongodb", "error", err)
			}
		}

	case "firestore":
		fs, err := store.NewFirestoreStore(ctx, cfg.FirestoreProjectID, cfg.FirestorePrefix)
		if err != nil {
			slog.Error("failed to initialize firestore", "error", err)
			os.Exit(1)
		}
		slog.Info("using firestore store", "project", cfg.FirestoreProjectID, "prefix", cfg.FirestorePrefix)
		return fs, func() {
			if err := fs.Close(); err != nil {
				slog.Error("failed to close firestore", "error", err)
			}
		}
	}

	slog.Info("using in-memory store")
	ms := store.NewMemoryStore()
	return ms, func() {}
}

func seedVendors(ctx context.Context, st store.VendorStore, path string) {
	f, err := os.Open(path)
	if err != nil {
		slog.Error("failed to open vendor seed", "path", path, "error", err)
		os.Exit(1)
	}
	defer f.Close()

	n, err := store.LoadVendors(ctx, st, f)
	if err != nil {
		slog.Error("failed to seed vendors", "path", path, "error", err)
		os.Exit(1)
	}
	slog.Info("vendors seeded", "count", n, "path", path)
}
