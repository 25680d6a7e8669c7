package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/luzatrade/findmiss-sub000/internal/config"
	"github.com/luzatrade/findmiss-sub000/internal/repository"
	"github.com/luzatrade/findmiss-sub000/internal/service"
	"github.com/luzatrade/findmiss-sub000/pkg/db"
	"github.com/luzatrade/findmiss-sub000/pkg/logger"
	"github.com/luzatrade/findmiss-sub000/pkg/metrics"
)

func main() {
	// .env is optional in containerized deployments
	_ = godotenv.Load()

	log := logger.NewLogger("exposure-service")
	log.Info("Starting Exposure Service...")

	cfg := config.LoadConfig()

	// Initialize database connection
	conn, err := db.NewConnection(db.Config{
		Host:     cfg.Database.Host,
		Port:     cfg.Database.Port,
		User:     cfg.Database.User,
		Password: cfg.Database.Password,
		Database: cfg.Database.Database,
	})
	if err != nil {
		log.WithField("error", err).Fatal("Failed to connect to database")
	}
	defer conn.Close()
	database := conn.DB

	// Validate schema
	schemaGuard := db.NewSchemaGuard(database)
	if err := schemaGuard.ValidateTables([]db.TableSchema{
		{
			Name: "listings",
			Columns: []db.ColumnType{
				{Name: "id", DataType: "bigint"},
				{Name: "status", DataType: "varchar"},
				{Name: "premium_level", DataType: "varchar"},
				{Name: "daily_exits", DataType: "int"},
				{Name: "daily_exits_used", DataType: "int"},
				{Name: "boost_active", DataType: "tinyint"},
			},
		},
		{
			Name: "daily_spots",
			Columns: []db.ColumnType{
				{Name: "id", DataType: "bigint"},
				{Name: "listing_id", DataType: "bigint"},
				{Name: "spot_date", DataType: "date"},
				{Name: "spot_time", DataType: "datetime"},
				{Name: "position", DataType: "int"},
			},
		},
		{
			Name: "top_page_boosts",
			Columns: []db.ColumnType{
				{Name: "id", DataType: "bigint"},
				{Name: "listing_id", DataType: "bigint"},
				{Name: "start_date", DataType: "datetime"},
				{Name: "end_date", DataType: "datetime"},
				{Name: "position", DataType: "int"},
			},
		},
		{
			Name: "premium_plans",
			Columns: []db.ColumnType{
				{Name: "id", DataType: "bigint"},
				{Name: "plan_type", DataType: "varchar"},
				{Name: "duration", DataType: "int"},
				{Name: "daily_exits", DataType: "int"},
			},
		},
	}); err != nil {
		log.WithField("error", err).Warn("Schema validation warning")
	}

	log.Info("Database connected and schema validated")

	// Optional redis cache for the top page boost set
	var cacheRepo repository.BoostCacheRepository
	if cfg.Redis.Addr != "" {
		redisClient := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err := redisClient.Ping(context.Background()).Err(); err != nil {
			log.WithField("error", err).Warn("Redis unavailable; boost cache disabled")
		} else {
			cacheRepo = repository.NewBoostCacheRepository(redisClient)
			log.WithField("addr", cfg.Redis.Addr).Info("Boost cache enabled")
		}
	}

	// Initialize repositories
	listingRepo := repository.NewListingRepository(database)
	spotRepo := repository.NewSpotRepository(database)
	boostRepo := repository.NewBoostRepository(database)

	// Initialize services. The feed, reel and purchase surfaces are
	// consumed in-process by the surrounding application; this binary hosts
	// the recurring jobs and the boost selector warmup.
	serviceMetrics := metrics.NewMetrics("exposure")

	schedulerService := service.NewSchedulerService(listingRepo, spotRepo, boostRepo, cacheRepo, serviceMetrics, log)
	boostService := service.NewBoostService(boostRepo, cacheRepo, cfg.Scheduler.TopPageMax, cfg.Scheduler.BoostCacheTTL, log)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if _, err := boostService.CurrentTopPage(ctx, time.Now()); err != nil {
		log.WithField("error", err).Warn("Top page warmup failed")
	}

	// Start the recurring jobs unless an external cron drives them
	if cfg.Scheduler.Enabled {
		go schedulerService.Run(ctx, cfg.Scheduler.DistributeInterval)
	} else {
		log.Info("In-process scheduler disabled; waiting for external trigger")
	}

	// Record DB pool stats periodically
	go func() {
		ticker := time.NewTicker(30 * time.Second)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				stats := database.Stats()
				serviceMetrics.RecordDBPoolStats(
					stats.OpenConnections, stats.InUse, stats.Idle,
					stats.WaitCount, stats.WaitDuration,
				)
			}
		}
	}()

	// Metrics and health endpoints
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		if err := database.Ping(); err != nil {
			w.WriteHeader(http.StatusServiceUnavailable)
			fmt.Fprintln(w, "db unavailable")
			return
		}
		fmt.Fprintln(w, "ok")
	})

	metricsServer := &http.Server{
		Addr:    ":" + cfg.Server.MetricsPort,
		Handler: mux,
	}

	go func() {
		log.WithField("port", cfg.Server.MetricsPort).Info("Metrics server started")
		if err := metricsServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.WithField("error", err).Fatal("Metrics server failed")
		}
	}()

	log.WithField("scheduler_enabled", cfg.Scheduler.Enabled).
		WithField("top_page_max", cfg.Scheduler.TopPageMax).
		Info("Exposure Service started")

	// Graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	log.Info("Shutting down gracefully...")
	cancel() // Stop background jobs

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := metricsServer.Shutdown(shutdownCtx); err != nil {
		log.WithField("error", err).Error("Metrics server shutdown failed")
	}

	log.Info("Shutdown complete")
}
