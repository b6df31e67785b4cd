package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	httptransport "github.com/spec-kit/shop-service/internal/api/http"
	"github.com/spec-kit/shop-service/internal/api/http/handlers"
	"github.com/spec-kit/shop-service/internal/auth"
	"github.com/spec-kit/shop-service/internal/config"
	"github.com/spec-kit/shop-service/internal/events"
	"github.com/spec-kit/shop-service/internal/notify"
	"github.com/spec-kit/shop-service/internal/observability"
	"github.com/spec-kit/shop-service/internal/persistence"
	"github.com/spec-kit/shop-service/internal/repository"
	"github.com/spec-kit/shop-service/internal/repository/memory"
	"github.com/spec-kit/shop-service/internal/service"
	"github.com/spec-kit/shop-service/internal/worker"
)

type stores struct {
	users    repository.UserRepository
	products repository.ProductRepository
	orders   repository.OrderRepository
	carts    repository.CartRepository
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logger)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pg, err := persistence.NewPostgres(ctx, cfg.Postgres, logger)
	if err != nil {
		logger.Fatal("failed to connect postgres", zap.Error(err))
	}
	defer pg.Close()

	if pg.Enabled() && cfg.Postgres.RunMigrations {
		if err := persistence.RunMigrations(ctx, pg.PoolHandle(), cfg.Postgres.MigrationsDir, logger); err != nil {
			logger.Fatal("failed to run migrations", zap.Error(err))
		}
	}

	redis := persistence.NewRedis(ctx, cfg.Redis, logger)
	defer redis.Close()

	repos := buildStores(pg)
	metrics := observability.NewMetrics()

	dispatcher := events.NewInMemoryDispatcher()
	if relay := buildRelay(cfg.Events, logger); relay != nil {
		events.Attach(dispatcher, relay)
		defer relay.Close() //nolint:errcheck
	}

	mailWorker := worker.NewMailWorker(buildMailer(cfg.Notification, logger), logger, cfg.Notification.QueueSize)
	mailWorker.Start(ctx, cfg.Notification.Workers)
	defer mailWorker.Stop()

	notificationService := service.NewNotificationService(dispatcher, repos.users, mailWorker, logger, cfg.Notification)
	worker.StartNotificationWorker(notificationService)

	tokens := auth.NewTokenManager(cfg.Auth.JWTSecret, repos.users, auth.TokenOptions{
		TTL:         cfg.Auth.TokenTTL(),
		MaxSessions: cfg.Auth.MaxSessions,
	})
	authService := service.NewAuthService(cfg.Auth, service.AuthDependencies{
		UserRepo:   repos.users,
		Tokens:     tokens,
		Dispatcher: dispatcher,
		Logger:     logger,
	})
	userService := service.NewUserService(cfg.Auth, repos.users, logger)
	productService := service.NewProductService(repos.products, logger)
	inventory := service.NewInventoryService(repos.products, metrics, logger)
	orderService := service.NewOrderService(service.OrderDependencies{
		OrderRepo:  repos.orders,
		Inventory:  inventory,
		Dispatcher: dispatcher,
		Logger:     logger,
	})
	cartService := service.NewCartService(service.CartDependencies{
		CartRepo:    repos.carts,
		ProductRepo: repos.products,
		Orders:      orderService,
		Logger:      logger,
	})

	app := fiber.New(fiber.Config{AppName: cfg.App.Name})
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout())

	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:         handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, pg, redis),
		Metrics:        handlers.NewMetricsHandler(metrics),
		Users:          handlers.NewUsersHandler(authService, userService),
		Products:       handlers.NewProductsHandler(productService),
		Cart:           handlers.NewCartHandler(cartService),
		Orders:         handlers.NewOrdersHandler(orderService),
		AuthMiddleware: auth.NewAuthMiddleware(tokens),
		RateLimit:      httptransport.RateLimit(cfg.RateLimit, redis.Limiter(), logger),
	})

	go func() {
		if err := app.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	waitForShutdown(logger)

	if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
		logger.Warn("http shutdown", zap.Error(err))
	}
}

func buildStores(pg *persistence.Postgres) stores {
	if !pg.Enabled() {
		return stores{
			users:    memory.NewUserStore(),
			products: memory.NewProductStore(),
			orders:   memory.NewOrderStore(),
			carts:    memory.NewCartStore(),
		}
	}
	pool := pg.PoolHandle()
	return stores{
		users:    repository.NewUserRepository(pool),
		products: repository.NewProductRepository(pool),
		orders:   repository.NewOrderRepository(pool),
		carts:    repository.NewCartRepository(pool),
	}
}

func buildRelay(cfg config.EventsConfig, logger *zap.Logger) events.Relay {
	switch cfg.Broker {
	case "amqp":
		relay, err := events.NewAMQPRelay(cfg.AMQPURL, cfg.AMQPQueue)
		if err != nil {
			logger.Fatal("failed to connect amqp", zap.Error(err))
		}
		logger.Info("relaying events to amqp", zap.String("queue", cfg.AMQPQueue))
		return relay
	case "kafka":
		logger.Info("relaying events to kafka", zap.Strings("brokers", cfg.KafkaBrokers), zap.String("topic", cfg.KafkaTopic))
		return events.NewKafkaRelay(cfg.KafkaBrokers, cfg.KafkaTopic)
	default:
		return nil
	}
}

func buildMailer(cfg config.NotificationConfig, logger *zap.Logger) notify.Mailer {
	if cfg.SendGridAPIKey == "" {
		logger.Warn("SENDGRID_API_KEY not provided; mail is logged only")
		return notify.NewLogMailer(logger)
	}
	return notify.NewSendGridMailer(cfg.SendGridAPIKey, cfg.EmailFrom)
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}
