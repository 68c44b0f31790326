// Package main starts the credit intelligence API: HTTP server, gateway
// webhook and the scheduled scoring and early warning jobs.
package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"paybaba/internal/config"
	"paybaba/internal/handlers"
	"paybaba/internal/logger"
	"paybaba/internal/middleware"
	"paybaba/internal/monitoring"
	"paybaba/internal/repositories"
	"paybaba/internal/repositories/cache"
	"paybaba/internal/routes"
	"paybaba/internal/scheduler"
	"paybaba/internal/services/aggregate"
	"paybaba/internal/services/explain"
	"paybaba/internal/services/gateway"
	"paybaba/internal/services/scoring"
	"paybaba/internal/services/signing"
	"paybaba/internal/services/transaction"
	"paybaba/internal/services/warning"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

func main() {
	config.LoadEnv()
	cfg := config.Load()
	logger.Init(cfg.Logging)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg); err != nil {
		logrus.WithError(err).Fatal("Server stopped with error")
	}
}

func run(ctx context.Context, cfg *config.Config) error {
	metrics := monitoring.New()

	signer, err := loadSigner(cfg.Gateway)
	if err != nil {
		return err
	}
	gatewayCfg := gateway.Config{
		PartnerID:   cfg.Gateway.PartnerID,
		Environment: gateway.Environment(cfg.Gateway.Environment),
		BaseURL:     cfg.Gateway.BaseURL,
		APIVersion:  cfg.Gateway.APIVersion,
		Location:    gateway.LoadLocation(cfg.Gateway.Timezone),
		Timeout:     cfg.Gateway.Timeout,
	}
	gw, err := gateway.NewClient(gatewayCfg, signer, gateway.WithMetrics(metrics))
	if err != nil {
		return err
	}
	loc := gatewayCfg.Location

	db, err := repositories.Open(cfg.Database)
	if err != nil {
		return err
	}
	defer func() {
		if err := repositories.Close(db); err != nil {
			logrus.WithError(err).Warn("Failed to close database connection")
		}
	}()
	if err := repositories.Migrate(db); err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}
	store := repositories.NewStore(db)

	cacheService := cache.NewCacheService(cache.NewRedisClient(cfg.Redis), cfg.Redis.ScoreTTL)
	defer func() {
		if err := cacheService.Close(); err != nil {
			logrus.WithError(err).Warn("Failed to close redis connection")
		}
	}()
	if err := cacheService.Ping(ctx); err != nil {
		logrus.WithError(err).Warn("Redis unavailable, latest scores will be read from postgres")
	}
	go logPoolStats(ctx, db, cacheService)

	explainer := explain.NewGuard(newTextGenerator(cfg.LLM), cfg.LLM.Timeout, metrics)

	aggregator := aggregate.NewAggregator(store, loc)
	transactions := transaction.NewService(store, loc)
	scores := scoring.NewService(aggregator, store, cacheService, explainer, metrics, loc)
	warnings := warning.NewService(aggregator, store, store, explainer, metrics, loc)

	if cfg.Scheduler.Enabled {
		jobs := scheduler.New(store, scores, warnings, metrics, loc)
		if err := jobs.Register(cfg.Scheduler); err != nil {
			return err
		}
		jobs.Start()
		defer func() {
			stopCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()
			jobs.Stop(stopCtx)
		}()
	}

	app := newApp(cfg, metrics)
	routes.SetupRoutes(app, routes.Handlers{
		Health: handlers.NewHealthHandler(map[string]handlers.Pinger{
			"database": store,
			"redis":    cacheService,
		}),
		Gateway:      handlers.NewGatewayHandler(gw, transactions, loc),
		Payments:     handlers.NewPaymentHandler(gw, transactions, cfg.Server.PublicBaseURL+cfg.Server.CallbackPath),
		Transactions: handlers.NewTransactionHandler(transactions, loc),
		CreditScores: handlers.NewCreditScoreHandler(scores),
		Alerts:       handlers.NewAlertHandler(warnings),
		Metrics:      metrics.Handler(),
	}, middleware.NewAuthMiddleware(cfg.Server.JWTSecret), cfg.Server.CallbackPath)

	errCh := make(chan error, 1)
	go func() {
		logrus.WithField("port", cfg.Server.Port).Info("HTTP server listening")
		errCh <- app.Listen(":" + cfg.Server.Port)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logrus.Info("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	return app.ShutdownWithContext(shutdownCtx)
}

func newApp(cfg *config.Config, metrics *monitoring.Metrics) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:      "paybaba",
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
	})

	app.Use(recover.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: cfg.Server.CORSOrigins,
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
		AllowMethods: "GET,POST,HEAD,OPTIONS",
	}))
	app.Use(fiberlogger.New(fiberlogger.Config{
		Format: "[${time}] ${status} - ${latency} ${method} ${path}\n",
	}))
	app.Use(middleware.Metrics(metrics))

	app.Use("/api/credit-score/calculate", limiter.New(limiter.Config{
		Max:        5,
		Expiration: 1 * time.Minute,
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.Get(fiber.HeaderAuthorization, c.IP())
		},
		LimitReached: func(c *fiber.Ctx) error {
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
				"error": "Too many requests. Please try again later.",
			})
		},
	}))
	return app
}

// loadSigner fails when either key is missing: signing and callback
// verification are both required to run.
func loadSigner(cfg config.GatewayConfig) (*signing.Signer, error) {
	privPEM, err := signing.LoadKeyMaterial(cfg.PrivateKey, cfg.PrivateKeyFile)
	if err != nil {
		return nil, err
	}
	pubPEM, err := signing.LoadKeyMaterial(cfg.PublicKey, cfg.PublicKeyFile)
	if err != nil {
		return nil, err
	}
	if privPEM == nil {
		return nil, signing.ErrNoPrivateKey
	}
	if pubPEM == nil {
		return nil, signing.ErrNoPublicKey
	}

	priv, err := signing.ParsePrivateKey(privPEM)
	if err != nil {
		return nil, err
	}
	pub, err := signing.ParsePublicKey(pubPEM)
	if err != nil {
		return nil, err
	}
	return signing.NewSigner(priv, pub), nil
}

// newTextGenerator returns nil without an API key, which the guard treats as
// always falling back.
func newTextGenerator(cfg config.LLMConfig) explain.TextGenerator {
	if cfg.APIKey == "" {
		logrus.Info("Text generation disabled, using fallback explanations")
		return nil
	}
	client, err := explain.NewClient(explain.ClientConfig{
		URL:     cfg.URL,
		APIKey:  cfg.APIKey,
		Model:   cfg.Model,
		Timeout: cfg.Timeout,
	}, nil)
	if err != nil {
		logrus.WithError(err).Warn("Text generation disabled")
		return nil
	}
	return client
}

func logPoolStats(ctx context.Context, db *gorm.DB, c *cache.CacheService) {
	sqlDB, err := db.DB()
	if err != nil {
		return
	}
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			dbStats := sqlDB.Stats()
			redisStats := c.GetStats()
			logrus.WithFields(logrus.Fields{
				"db_open":       dbStats.OpenConnections,
				"db_in_use":     dbStats.InUse,
				"db_idle":       dbStats.Idle,
				"db_wait_count": dbStats.WaitCount,
				"redis_hits":    redisStats.Hits,
				"redis_misses":  redisStats.Misses,
				"redis_total":   redisStats.TotalConns,
			}).Debug("Connection pool stats")
		}
	}
}
