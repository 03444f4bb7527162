// Package main provides the entry point for the estately dashboard API
package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dimpinis9/estately/app/handlers"
	"github.com/dimpinis9/estately/app/logger"
	"github.com/dimpinis9/estately/app/middleware"
	"github.com/dimpinis9/estately/app/router"
	"github.com/dimpinis9/estately/app/services"
	businessflow "github.com/dimpinis9/estately/business_flow"
	"github.com/dimpinis9/estately/config"
	"github.com/dimpinis9/estately/repository"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// Application holds the wired components and what must be released on shutdown
type Application struct {
	router    router.Router
	config    *config.ProductionConfig
	logger    *zap.Logger
	stopFuncs []func()
}

func main() {
	cfg, err := config.LoadProductionConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	zl, err := logger.New(cfg.Logging, cfg.IsDevelopment())
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer func() { _ = zl.Sync() }()

	app, err := initializeApplication(cfg, zl)
	if err != nil {
		zl.Fatal("failed to initialize application", zap.Error(err))
	}

	app.router.SetupRoutes()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		address := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
		if err := app.router.Start(address); err != nil {
			zl.Fatal("failed to start server", zap.Error(err))
		}
	}()

	<-sigChan
	zl.Info("shutting down gracefully")

	if err := app.router.Shutdown(); err != nil {
		zl.Error("error during shutdown", zap.Error(err))
	}

	for _, fn := range app.stopFuncs {
		fn()
	}

	zl.Info("server stopped")
}

// initializeDatabase opens the postgres pool and verifies connectivity
func initializeDatabase(cfg config.DatabaseConfig, zl *zap.Logger) (*gorm.DB, error) {
	dsn := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.Name, cfg.SSLMode)

	gormCfg := &gorm.Config{
		Logger: gormlogger.Discard,
	}
	if cfg.SlowQueryLog {
		gormCfg.Logger = gormlogger.New(zap.NewStdLog(zl.Named("gorm")), gormlogger.Config{
			SlowThreshold:             cfg.SlowQueryTime,
			LogLevel:                  gormlogger.Warn,
			IgnoreRecordNotFoundError: true,
		})
	}

	db, err := gorm.Open(postgres.Open(dsn), gormCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}

	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	sqlDB.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)

	if err := sqlDB.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	zl.Info("database connection established",
		zap.Int("max_open_conns", cfg.MaxOpenConns),
		zap.Int("max_idle_conns", cfg.MaxIdleConns),
	)

	return db, nil
}

// initializeCache connects to redis when caching is enabled. A nil client disables the dashboard cache.
func initializeCache(cfg config.CacheConfig, zl *zap.Logger) (*redis.Client, error) {
	if !cfg.Enabled {
		return nil, nil
	}

	opt, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		return nil, fmt.Errorf("invalid redis url: %w", err)
	}
	opt.DB = cfg.RedisDB

	rc := redis.NewClient(opt)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rc.Ping(ctx).Err(); err != nil {
		_ = rc.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	zl.Info("redis connection established", zap.Int("db", cfg.RedisDB))
	return rc, nil
}

// startCacheHealthMonitor pings redis periodically so connectivity loss shows up in the logs.
// The returned function stops the monitor.
func startCacheHealthMonitor(parent context.Context, client *redis.Client, interval time.Duration, zl *zap.Logger) func() {
	monitorCtx, cancel := context.WithCancel(parent)
	if interval <= 0 {
		interval = 30 * time.Second
	}
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-monitorCtx.Done():
				return
			case <-ticker.C:
				ctx, c := context.WithTimeout(monitorCtx, 3*time.Second)
				if err := client.Ping(ctx).Err(); err != nil {
					zl.Warn("redis healthcheck failed", zap.Error(err))
				}
				c()
			}
		}
	}()
	return cancel
}

// initializePublisher dials RabbitMQ when the queue is enabled, otherwise events are dropped
func initializePublisher(cfg config.QueueConfig, zl *zap.Logger) (services.EventPublisher, error) {
	if !cfg.Enabled {
		zl.Info("lifecycle events disabled")
		return services.NewNoopEventPublisher(), nil
	}

	publisher, err := services.NewRabbitMQPublisher(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to rabbitmq: %w", err)
	}

	zl.Info("rabbitmq publisher ready", zap.String("exchange", cfg.Exchange))
	return publisher, nil
}

func initializeApplication(cfg *config.ProductionConfig, zl *zap.Logger) (*Application, error) {
	var stopFuncs []func()

	db, err := initializeDatabase(cfg.Database, zl)
	if err != nil {
		return nil, err
	}
	stopFuncs = append(stopFuncs, func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})

	rc, err := initializeCache(cfg.Cache, zl)
	if err != nil {
		return nil, err
	}
	if rc != nil {
		stopMonitor := startCacheHealthMonitor(context.Background(), rc, cfg.Cache.HealthInterval, zl)
		stopFuncs = append(stopFuncs, stopMonitor, func() { _ = rc.Close() })
	}

	publisher, err := initializePublisher(cfg.Queue, zl)
	if err != nil {
		return nil, err
	}
	stopFuncs = append(stopFuncs, func() {
		if err := publisher.Close(); err != nil {
			zl.Warn("failed to close publisher", zap.Error(err))
		}
	})

	tokenService, err := services.NewTokenService(cfg.JWT)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize token service: %w", err)
	}

	// Initialize repositories
	leadRepo := repository.NewLeadRepository(db)
	propertyRepo := repository.NewPropertyRepository(db)
	appointmentRepo := repository.NewAppointmentRepository(db)
	auditRepo := repository.NewAuditLogRepository(db)
	store := repository.NewEntityStore(leadRepo, propertyRepo, appointmentRepo)

	// A nil client leaves the cache disabled
	var dashboardCache businessflow.DashboardCache
	if rc != nil {
		dashboardCache = businessflow.NewRedisDashboardCache(rc, cfg.Cache.RedisPrefix, cfg.Dashboard.CacheTTL)
	}

	// Initialize flows
	bulkFlow := businessflow.NewBulkOperationFlow(store, auditRepo, publisher, dashboardCache, cfg.Bulk, zl)
	dashboardFlow := businessflow.NewDashboardMetricsFlow(store, store, dashboardCache, cfg.Dashboard, zl)

	// Initialize handlers
	h := router.Handlers{
		BulkOperation:    handlers.NewBulkOperationHandler(bulkFlow, zl),
		Dashboard:        handlers.NewDashboardHandler(dashboardFlow, zl),
		StatusTransition: handlers.NewStatusTransitionHandler(),
	}

	authMiddleware := middleware.NewAuthMiddleware(tokenService)

	zl.Info("application initialized",
		zap.String("environment", cfg.Deployment.Environment),
		zap.Int("bulk_workers", cfg.Bulk.Workers),
		zap.Bool("cache_enabled", dashboardCache != nil),
		zap.Bool("queue_enabled", cfg.Queue.Enabled),
	)

	return &Application{
		router:    router.NewFiberRouter(cfg, h, authMiddleware, zl),
		config:    cfg,
		logger:    zl,
		stopFuncs: stopFuncs,
	}, nil
}
