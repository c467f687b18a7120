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

	"commerce-dashboard/config"
	"commerce-dashboard/internal/api"
	"commerce-dashboard/internal/broker"
	"commerce-dashboard/internal/redisclient"
	"commerce-dashboard/internal/service"
	"commerce-dashboard/internal/store"
	"commerce-dashboard/internal/upstream"
	"commerce-dashboard/internal/util"
	"commerce-dashboard/internal/worker"

	"github.com/gin-gonic/gin"
	"github.com/go-faster/errors"
	"go.uber.org/zap"
)

const serviceName = "commerce-dashboard"

func main() {

	cfg := config.Load()

	if err := util.InitLogger(cfg.Server.Env, cfg.Server.LogLevel, serviceName); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer util.SyncLogger()

	logger := util.GetLogger()
	logger.Info("Starting commerce dashboard", zap.String("upstream", cfg.UpstreamBaseURL()))
	if cfg.Upstream.AccessToken == "" {
		logger.Warn("SHOPIFY_ACCESS_TOKEN is empty, upstream calls will be rejected")
	}

	tp, err := util.InitTracer(serviceName, cfg.Observ.JaegerEndpoint)
	if err != nil {
		logger.Fatal("Failed to initialize tracer", zap.Error(err))
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := tp.Shutdown(ctx); err != nil {
			logger.Error("Error shutting down tracer", zap.Error(err))
		}
	}()

	client := upstream.NewClient(cfg.UpstreamBaseURL(), cfg.Upstream.AccessToken, cfg.Upstream.Timeout)
	dashboard := service.NewDashboardService(client, service.Options{
		Location:          cfg.Business.Location,
		WindowDays:        cfg.Business.RevenueWindowDays,
		LowStockThreshold: cfg.Business.LowStockThreshold,
	})

	workerCtx, workerCancel := context.WithCancel(context.Background())
	defer workerCancel()

	deps := map[string]api.Pinger{}
	var exports *service.ExportService
	var exportWorker *worker.ExportWorker

	if cfg.Business.AsyncExports {
		db, err := store.NewStore(cfg.Database.URL)
		if err != nil {
			logger.Fatal("Failed to connect to database", zap.Error(err))
		}
		defer db.Close()

		migrateCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		err = db.Migrate(migrateCtx)
		cancel()
		if err != nil {
			logger.Fatal("Failed to migrate database", zap.Error(err))
		}
		logger.Info("Database connected")

		redisClient, err := redisclient.NewClient(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		if err != nil {
			logger.Fatal("Failed to connect to Redis", zap.Error(err))
		}
		defer redisClient.Close()
		logger.Info("Redis connected")

		producer := broker.NewProducer(cfg.Kafka.Brokers, cfg.Kafka.TopicExports)
		defer producer.Close()
		logger.Info("Kafka producer initialized", zap.String("topic", cfg.Kafka.TopicExports))

		exports = service.NewExportService(dashboard, db, redisClient, broker.NewEventPublisher(producer), cfg.Business.ExportTTL)
		deps["postgres"] = db
		deps["redis"] = redisClient

		consumer := broker.NewConsumer(cfg.Kafka.Brokers, cfg.Kafka.TopicExports, cfg.Kafka.ConsumerGroup)
		exportWorker = worker.NewExportWorker(consumer, exports)
		go func() {
			if err := exportWorker.Start(workerCtx); err != nil && !errors.Is(err, context.Canceled) {
				logger.Error("Export worker error", zap.Error(err))
			}
		}()
	} else {
		logger.Info("Async exports disabled, export job routes will answer 503")
	}

	if cfg.Server.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	handler := api.NewHandler(dashboard, exports, deps)
	handler.SetupRoutes(router)

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%s", cfg.Server.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("Starting HTTP server", zap.String("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server forced to shutdown", zap.Error(err))
	}

	workerCancel()
	if exportWorker != nil {
		if err := exportWorker.Stop(); err != nil {
			logger.Error("Error stopping export worker", zap.Error(err))
		}
	}

	logger.Info("Server exited")
}
