package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"storefront/config"
	"storefront/internal/api"
	"storefront/internal/broker"
	"storefront/internal/redisclient"
	"storefront/internal/service"
	"storefront/internal/store"
	"storefront/internal/util"
	"storefront/internal/worker"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func main() {

	cfg := config.Load()

	if err := util.InitLogger(cfg.Server.Env, util.LogFileOptions{
		Path:       cfg.Log.File,
		MaxSizeMB:  cfg.Log.MaxSizeMB,
		MaxBackups: cfg.Log.MaxBackups,
		MaxAgeDays: cfg.Log.MaxAgeDays,
	}); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer util.SyncLogger()

	logger := util.GetLogger()
	logger.Info("Starting storefront service")

	tp, err := util.InitTracer("storefront", cfg.Observ.JaegerEndpoint, cfg.Observ.TracingEnabled)
	if err != nil {
		logger.Fatal("Failed to initialize tracer", zap.Error(err))
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := tp.Shutdown(ctx); err != nil {
			logger.Warn("Error shutting down tracer", zap.Error(err))
		}
	}()

	db, err := store.NewStore(cfg.Database.URL)
	if err != nil {
		logger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer db.Close()

	migrateCtx, migrateCancel := context.WithTimeout(context.Background(), 30*time.Second)
	if err := db.Migrate(migrateCtx); err != nil {
		migrateCancel()
		logger.Fatal("Failed to apply schema", zap.Error(err))
	}
	migrateCancel()
	logger.Info("Database connected")

	redisClient, err := redisclient.NewClient(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
	if err != nil {
		logger.Fatal("Failed to connect to Redis", zap.Error(err))
	}
	defer redisClient.Close()
	logger.Info("Redis connected")

	producer := broker.NewProducer(cfg.Kafka.Brokers, cfg.Kafka.TopicOrder)
	defer producer.Close()
	logger.Info("Kafka producer initialized", zap.String("topic", cfg.Kafka.TopicOrder))

	eventPublisher := broker.NewEventPublisher(producer)

	ledgerStorage, err := service.OpenPebbleLedgerStorage(cfg.Storage.LedgerDir)
	if err != nil {
		logger.Fatal("Failed to open order ledger", zap.Error(err))
	}
	defer ledgerStorage.Close()

	ledger, err := service.NewOrderLedger(ledgerStorage, service.SeedOrders())
	if err != nil {
		logger.Fatal("Failed to load order ledger", zap.Error(err))
	}

	catalog := service.NewCatalog(db)
	catalog.Refresh(context.Background())
	if err := catalog.Err(); err != nil {
		logger.Warn("Initial catalog load failed, serving empty catalog", zap.Error(err))
	}

	carts := service.NewCartRegistry()
	checkout := service.NewCheckoutFlow(carts, ledger, eventPublisher,
		cfg.Business.CheckoutDelay, cfg.Business.DeliveryDays,
		service.WithMirror(db),
		service.WithLocker(redisClient, cfg.Business.CheckoutLockTTL),
	)
	auth := service.NewAuthService(db, redisClient, cfg.Auth.JWTSecret, cfg.Auth.TokenTTL)
	ai := service.NewAIClient(cfg.AI.Endpoint, cfg.AI.APIKey, cfg.AI.Model, cfg.AI.Timeout)
	if !ai.Enabled() {
		logger.Warn("AI_API_KEY not set, AI search and descriptions disabled")
	}
	admin := service.NewAdminConsole(catalog, ledger, redisClient, ai, eventPublisher, db, service.AdminConfig{
		Username:         cfg.Admin.Username,
		Password:         cfg.Admin.Password,
		SessionTTL:       cfg.Admin.SessionTTL,
		DeleteConfirmTTL: cfg.Business.DeleteConfirmTTL,
	})

	workerCtx, workerCancel := context.WithCancel(context.Background())
	defer workerCancel()

	var catalogWorker *worker.CatalogWorker
	if cfg.Kafka.ChangesEnabled {
		changeConsumer := broker.NewConsumer(cfg.Kafka.Brokers, cfg.Kafka.TopicChanges, cfg.Kafka.ConsumerGroup)
		catalogWorker = worker.NewCatalogWorker(changeConsumer, catalog)
		go func() {
			if err := catalogWorker.Start(workerCtx); err != nil && workerCtx.Err() == nil {
				logger.Error("Catalog worker error", zap.Error(err))
			}
		}()
	}

	janitor := worker.NewSessionJanitor(cfg.Business.SessionIdleTTL, cfg.Business.SessionSweep,
		map[string]worker.IdleEvictor{
			"cart":     carts,
			"checkout": checkout,
		})
	go janitor.Start(workerCtx)

	if cfg.Server.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	handler := api.NewHandler(api.Services{
		Catalog:  catalog,
		Carts:    carts,
		Checkout: checkout,
		Ledger:   ledger,
		Auth:     auth,
		Admin:    admin,
		AI:       ai,
		Checks: map[string]api.ReadinessCheck{
			"database": db.Ping,
			"redis":    redisClient.Ping,
		},
	})
	handler.SetupRoutes(router)

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%s", cfg.Server.Port),
		Handler: router,
	}

	go func() {
		logger.Info("Starting HTTP server", zap.String("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Warn("Server forced to shutdown", zap.Error(err))
	}

	workerCancel()
	if catalogWorker != nil {
		if err := catalogWorker.Stop(); err != nil {
			logger.Warn("Error stopping catalog worker", zap.Error(err))
		}
	}

	logger.Info("Server exited")
}
