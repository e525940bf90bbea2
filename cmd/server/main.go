// Package main is the entry point for the settlement engine API.
// It initializes all dependencies, sets up the HTTP server,
// the expiration worker and starts the application.
package main

import (
	"context"
	"database/sql"
	"os/signal"
	"syscall"
	"time"

	"swapledger/internal/config"
	"swapledger/internal/handlers"
	"swapledger/internal/repositories"
	"swapledger/internal/repositories/cache"
	"swapledger/internal/routes"
	"swapledger/internal/services/audit"
	"swapledger/internal/services/auth"
	"swapledger/internal/services/ledger"
	"swapledger/internal/services/payment"
	"swapledger/internal/services/settlement"
	"swapledger/internal/workers"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/jonboulle/clockwork"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

func main() {
	config.LoadEnv()

	log, err := config.NewLogger()
	if err != nil {
		panic(err)
	}
	defer func() { _ = log.Sync() }()

	clock := clockwork.NewRealClock()

	// Cancelled on SIGINT or SIGTERM; background loops and the server
	// shutdown below key off it.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// PostgreSQL
	db, err := repositories.OpenDB(repositories.DBConfigFromEnv())
	if err != nil {
		log.Fatal("failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := repositories.CloseDB(db); err != nil {
			log.Warn("failed to close database connection", zap.Error(err))
		}
	}()
	if err := repositories.Migrate(db); err != nil {
		log.Fatal("failed to migrate database", zap.Error(err))
	}
	sqlDB, err := db.DB()
	if err != nil {
		log.Fatal("failed to get database instance", zap.Error(err))
	}

	// Redis
	redisClient := cache.NewRedisClient(cache.RedisConfigFromEnv())
	cacheService := cache.NewCacheService(redisClient, config.GetDurationEnv("WALLET_CACHE_TTL", 5*time.Minute))
	defer func() {
		if err := cacheService.Close(); err != nil {
			log.Warn("failed to close redis connection", zap.Error(err))
		}
	}()
	if err := cacheService.HealthCheck(ctx); err != nil {
		log.Warn("redis unavailable, wallet reads will fall through to postgres", zap.Error(err))
	}

	// Periodic connection pool stats
	go logPoolStats(ctx, time.Minute, sqlDB.Stats, cacheService.GetStats, log)

	// Audit sinks
	settingRepo := repositories.NewSettingRepository(db)
	auditRepo := repositories.NewAuditRepository(db)
	sinks := []audit.Sink{audit.NewLogSink(log), audit.NewDBSink(auditRepo)}
	if brokers := config.GetListEnv("KAFKA_BROKERS"); len(brokers) > 0 {
		kafkaSink, err := audit.NewKafkaSink(brokers, config.GetEnv("AUDIT_KAFKA_TOPIC", audit.DefaultTopic), log)
		if err != nil {
			log.Warn("kafka audit sink disabled", zap.Error(err))
		} else {
			sinks = append(sinks, kafkaSink)
		}
	}
	recorder := audit.NewRecorder(log, clock, sinks...)
	defer func() {
		if err := recorder.Close(); err != nil {
			log.Warn("failed to close audit sinks", zap.Error(err))
		}
	}()

	// Metrics
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		collectors.NewDBStatsCollector(sqlDB, "swapledger"),
	)
	metrics := ledger.NewPrometheusMetrics(registry)

	// Services
	ledgerService := ledger.NewService(
		repositories.NewLedgerRepository(db),
		cacheService,
		settingRepo,
		recorder,
		clock,
		log,
		ledger.Config{
			ExpirationMonths:    config.GetIntEnv("CREDIT_EXPIRATION_MONTHS", ledger.DefaultExpirationMonths),
			WarningWindow:       time.Duration(config.GetIntEnv("EXPIRATION_WARNING_DAYS", 30)) * 24 * time.Hour,
			BoundRefundsToSpend: config.GetEnv("BOUND_REFUNDS_TO_SPEND", "false") == "true",
			ExpireBatchSize:     config.GetIntEnv("EXPIRE_BATCH_SIZE", ledger.DefaultExpireBatchSize),
		},
		metrics,
	)

	stripeKey := config.GetEnv("STRIPE_SECRET_KEY", "")
	if stripeKey == "" {
		log.Warn("STRIPE_SECRET_KEY not set, settlement completion will fail at the gateway")
	}
	swapFee := config.GetEnv("SWAP_FEE", settlement.DefaultSwapFee)
	settlementService := settlement.NewService(
		repositories.NewSettlementRepository(db),
		payment.NewStripeGateway(stripeKey, log),
		settingRepo,
		recorder,
		clock,
		log,
		settlement.Config{
			Currency: config.GetEnv("SWAP_FEE_CURRENCY", settlement.DefaultCurrency),
			Fee:      swapFee,
		},
		metrics,
	)

	jwtSecret := config.GetEnv("JWT_SECRET", "")
	if jwtSecret == "" {
		log.Fatal("JWT_SECRET must be set")
	}
	authService := auth.NewService(
		repositories.NewOperatorRepository(db),
		jwtSecret,
		config.GetDurationEnv("JWT_TTL", auth.DefaultTokenTTL),
		clock,
		log,
	)

	// Expiration worker
	worker, err := workers.NewExpirationWorker(ledgerService, config.GetEnv("EXPIRATION_CRON", workers.DefaultExpirationCron), clock, log)
	if err != nil {
		log.Fatal("failed to create expiration worker", zap.Error(err))
	}
	if err := worker.Start(); err != nil {
		log.Fatal("failed to start expiration worker", zap.Error(err))
	}
	defer func() {
		if err := worker.Stop(); err != nil {
			log.Warn("failed to stop expiration worker", zap.Error(err))
		}
	}()

	// Create Fiber app
	app := fiber.New(fiber.Config{
		AppName:      "swapledger",
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
	})

	app.Use(cors.New(cors.Config{
		AllowOrigins: config.GetEnv("CORS_ORIGINS", "http://localhost:5173"),
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
		AllowMethods: "GET,POST,PUT,HEAD",
	}))

	app.Use(logger.New(logger.Config{
		Format: "[${time}] ${status} - ${latency} ${method} ${path}\n",
	}))

	app.Use("/api/auth/login", limiter.New(limiter.Config{
		Max:        5,
		Expiration: 1 * time.Minute,
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP()
		},
		LimitReached: func(c *fiber.Ctx) error {
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
				"error": "Too many requests. Please try again later.",
			})
		},
	}))

	app.Get("/metrics", adaptor.HTTPHandler(promhttp.HandlerFor(registry, promhttp.HandlerOpts{})))

	routes.SetupRoutes(app, routes.Dependencies{
		Auth:        authService,
		Ledger:      ledgerService,
		Settlements: settlementService,
		Settings:    settingRepo,
		Audits:      auditRepo,
		Auditor:     recorder,
		DefaultFee:  swapFee,
		Health: map[string]handlers.Pinger{
			"database": sqlDB.PingContext,
			"redis":    cacheService.HealthCheck,
		},
		Logger: log,
	})

	go func() {
		if err := app.Listen(":" + config.GetEnv("PORT", "3000")); err != nil {
			log.Error("server stopped", zap.Error(err))
		}
	}()

	<-ctx.Done()

	log.Info("shutting down")
	if err := app.ShutdownWithTimeout(30 * time.Second); err != nil {
		log.Warn("graceful shutdown failed", zap.Error(err))
	}
}

// logPoolStats logs database and Redis pool usage every interval until ctx
// is done.
func logPoolStats(ctx context.Context, every time.Duration, dbStats func() sql.DBStats, redisStats func() *redis.PoolStats, log *zap.Logger) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			stats := dbStats()
			rs := redisStats()
			log.Debug("pool stats",
				zap.Int("db_open", stats.OpenConnections),
				zap.Int("db_in_use", stats.InUse),
				zap.Int64("db_wait_count", stats.WaitCount),
				zap.Uint32("redis_hits", rs.Hits),
				zap.Uint32("redis_misses", rs.Misses),
				zap.Uint32("redis_total_conns", rs.TotalConns),
			)
		}
	}
}
