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

	httptransport "github.com/shopdesk/ticket-service/internal/api/http"
	"github.com/shopdesk/ticket-service/internal/api/http/handlers"
	"github.com/shopdesk/ticket-service/internal/auth"
	"github.com/shopdesk/ticket-service/internal/config"
	"github.com/shopdesk/ticket-service/internal/events"
	"github.com/shopdesk/ticket-service/internal/observability"
	"github.com/shopdesk/ticket-service/internal/persistence"
	"github.com/shopdesk/ticket-service/internal/repository"
	"github.com/shopdesk/ticket-service/internal/service"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logger, cfg.App)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ticketRepo, closeStore := openTicketStore(ctx, cfg, logger)
	defer closeStore()

	redis := persistence.NewRedis(cfg.Redis, logger)
	defer redis.Close()

	metrics := observability.NewMetrics("ticket_service")
	dispatcher := events.NewInMemoryDispatcher()
	metrics.ObserveTicketEvents(dispatcher)

	var forwarder service.EventForwarder
	if publisher := events.NewRedisPublisher(redis.Client, cfg.Events.RedisChannel); publisher != nil {
		forwarder = publisher
		logger.Info("forwarding ticket events", zap.String("channel", publisher.Channel()))
	}
	service.NewNotificationService(dispatcher, forwarder, logger).RegisterHandlers()

	ticketService := service.NewTicketService(service.TicketDependencies{
		TicketRepo: ticketRepo,
		Dispatcher: dispatcher,
		Logger:     logger,
	})
	queryService := service.NewTicketQueryService(ticketRepo, logger)

	app := fiber.New(fiber.Config{
		AppName:      cfg.App.Name,
		ErrorHandler: httptransport.ErrorHandler,
	})
	httptransport.RegisterMiddlewares(app, logger, metrics, httptransport.MiddlewareConfig{
		Timeout:        cfg.App.RequestTimeout(),
		AllowedOrigins: cfg.App.CORSAllowedOrigins,
	})

	dependencies := map[string]handlers.Pinger{"store": ticketRepo}
	if redis.Enabled() {
		dependencies["redis"] = redis
	}

	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:   handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, dependencies),
		Tickets:  handlers.NewTicketsHandler(ticketService, queryService),
		Identity: auth.NewIdentityMiddleware(auth.NewTokenManager(cfg.Auth.JWTSecret)),
		Metrics:  metrics,
	})

	go func() {
		if err := app.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	waitForShutdown(logger)

	if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
		logger.Warn("shutdown", zap.Error(err))
	}
}

// openTicketStore connects the configured document store and returns the
// repository with its cleanup function.
func openTicketStore(ctx context.Context, cfg *config.Config, logger *zap.Logger) (repository.TicketRepository, func()) {
	switch cfg.Store.Driver {
	case config.StoreDriverPostgres:
		pg, err := persistence.NewPostgres(ctx, cfg.Postgres, logger)
		if err != nil {
			logger.Fatal("failed to connect postgres", zap.Error(err))
		}
		if cfg.Postgres.RunMigrations {
			if err := persistence.RunMigrations(ctx, pg.PoolHandle(), logger); err != nil {
				logger.Fatal("failed to run migrations", zap.Error(err))
			}
		}
		return repository.NewPostgresTicketRepository(pg.PoolHandle()), pg.Close

	case config.StoreDriverMemory:
		logger.Warn("using in-memory ticket store; data is lost on restart")
		return repository.NewMemoryTicketRepository(), func() {}

	default:
		mongo, err := persistence.NewMongo(ctx, cfg.Mongo, logger)
		if err != nil {
			logger.Fatal("failed to connect mongo", zap.Error(err))
		}
		if err := repository.EnsureMongoIndexes(ctx, mongo.DB); err != nil {
			logger.Fatal("failed to create mongo indexes", zap.Error(err))
		}
		return repository.NewMongoTicketRepository(mongo.DB), func() {
			closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			mongo.Close(closeCtx)
		}
	}
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}
