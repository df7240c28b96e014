package cmd

import (
	"context"
	"fmt"
	"time"

	"wagerengine/api"
	"wagerengine/application"
	"wagerengine/config"
	"wagerengine/database"
	"wagerengine/domain/events"
	"wagerengine/infrastructure"
	"wagerengine/infrastructure/observability"

	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"
)

// Run initializes and starts the engine service
func Run(ctx context.Context) error {
	log.Info("Starting wager engine...")

	// Load configuration
	cfg := config.Get()

	// Apply schema migrations before anything touches the database
	log.Info("Running database migrations...")
	if err := database.RunMigrationsWithURL(cfg.GetDatabaseURL()); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	// Initialize database connection
	log.Info("Connecting to database...")
	db, err := database.NewConnection(ctx, cfg.GetDatabaseURL())
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	log.Info("Database connection established successfully")

	// Initialize metrics
	log.Info("Initializing metrics...")
	if err := observability.InitializeGlobalMetrics(ctx, cfg); err != nil {
		db.Close()
		return fmt.Errorf("failed to initialize metrics: %w", err)
	}

	// Initialize message bus
	var natsClient *infrastructure.NATSClient
	var messagePublisher infrastructure.MessagePublisher
	if cfg.NATSEnabled {
		log.WithField("servers", cfg.NATSServers).Info("Connecting to NATS...")
		natsClient = infrastructure.NewNATSClient(cfg.NATSServers)
		if err := natsClient.Connect(ctx); err != nil {
			db.Close()
			return fmt.Errorf("failed to connect to NATS: %w", err)
		}
		if err := natsClient.EnsureWagerEventStream(); err != nil {
			_ = natsClient.Close()
			db.Close()
			return fmt.Errorf("failed to ensure wager event stream: %w", err)
		}
		messagePublisher = natsClient
		log.Info("NATS connection established successfully")
	} else {
		log.Info("NATS disabled, events will only reach local handlers")
	}

	eventBus := infrastructure.NewNATSEventPublisher(messagePublisher, infrastructure.NewEventSubjectMapper())
	eventBus.OnPublished(observability.GetMetrics().RecordNATSMessagePublished)

	// Initialize summary cache
	var redisClient *redis.Client
	var summaryCache application.SummaryCache = infrastructure.NoopSummaryCache{}
	if cfg.RedisAddr != "" {
		log.Info("Connecting to Redis...")
		redisClient, err = infrastructure.ConnectRedis(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		if err != nil {
			log.WithError(err).Warn("Redis unavailable, wager summaries will not be cached")
		} else {
			summaryCache = infrastructure.NewRedisSummaryCache(redisClient, cfg.RedisSummaryTTL)
		}
	}

	// Committed transitions invalidate summaries and notify participants
	changeFeed := application.NewChangeFeedHandler(summaryCache, infrastructure.NewNotificationDispatcher(messagePublisher))
	eventBus.RegisterLocalHandler(events.EventTypeWagerTransition, changeFeed.HandleWagerTransition)

	// Initialize unit of work factory
	log.Info("Initializing unit of work factory...")
	uowFactory := infrastructure.NewUnitOfWorkFactory(db, eventBus)

	// Initialize services
	log.Info("Initializing services...")
	engine := application.NewEngine(uowFactory, infrastructure.NewLoggingAlertSink())
	queries := application.NewQueryService(uowFactory, summaryCache)
	sweeper := application.NewSweeper(engine, uowFactory)
	stopSweeper := sweeper.Start(ctx, cfg.SweepInterval)
	log.Info("Services initialized successfully")

	server := api.NewServer(engine, queries, db.Health)

	log.WithFields(log.Fields{
		"environment": cfg.Environment,
		"addr":        cfg.HTTPAddr,
	}).Info("Wager engine is running")
	serveErr := server.ListenAndServe(ctx, cfg.HTTPAddr)

	// Cleanup resources
	log.Info("Shutting down wager engine...")
	stopSweeper()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := observability.ShutdownGlobalMetrics(shutdownCtx); err != nil {
		log.WithError(err).Error("Error shutting down metrics")
	}
	if natsClient != nil {
		if err := natsClient.Close(); err != nil {
			log.WithError(err).Error("Error closing NATS connection")
		}
	}
	if redisClient != nil {
		if err := redisClient.Close(); err != nil {
			log.WithError(err).Error("Error closing Redis connection")
		}
	}

	log.Info("Closing database connection...")
	db.Close()
	log.Info("Shutdown completed")

	return serveErr
}
