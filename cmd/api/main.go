package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/straye-as/crm-api/docs"
	"github.com/straye-as/crm-api/internal/auth"
	"github.com/straye-as/crm-api/internal/config"
	"github.com/straye-as/crm-api/internal/database"
	"github.com/straye-as/crm-api/internal/events"
	"github.com/straye-as/crm-api/internal/http/handler"
	"github.com/straye-as/crm-api/internal/http/middleware"
	"github.com/straye-as/crm-api/internal/http/router"
	"github.com/straye-as/crm-api/internal/lock"
	"github.com/straye-as/crm-api/internal/logger"
	"github.com/straye-as/crm-api/internal/repository"
	"github.com/straye-as/crm-api/internal/service"
	"go.uber.org/zap"
)

// @title Straye CRM API
// @version 1.0
// @description CRM API for accounts, contacts, opportunities and lead conversion

// @contact.name API Support
// @contact.email support@straye.io

// @host localhost:8080
// @BasePath /api/v1

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	ctx := context.Background()

	// Load basic configuration first (for logging setup)
	basicCfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	log, err := logger.NewLogger(&basicCfg.Logging, &basicCfg.App)
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	defer func() { _ = log.Sync() }()

	log.Info("Starting application",
		zap.String("app", basicCfg.App.Name),
		zap.String("env", basicCfg.App.Environment),
		zap.Int("port", basicCfg.App.Port),
	)

	docs.SwaggerInfo.Host = fmt.Sprintf("localhost:%d", basicCfg.App.Port)

	// In development secrets come from the environment; elsewhere from Azure Key Vault
	cfg, err := config.LoadWithSecrets(ctx, log)
	if err != nil {
		return fmt.Errorf("failed to load secrets: %w", err)
	}

	db, err := database.NewDatabase(&cfg.Database)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	log.Info("Database connected", zap.String("driver", cfg.Database.Driver))

	if cfg.Database.AutoMigrate {
		if err := database.AutoMigrate(db); err != nil {
			return fmt.Errorf("failed to auto-migrate database: %w", err)
		}
		log.Info("Database schema auto-migrated")
	}

	readiness := make(map[string]router.ReadinessCheck)

	var locker lock.Locker
	var rdb *redis.Client
	switch cfg.Lock.Mode {
	case "redis":
		rdb, err = lock.NewRedisClient(ctx, &cfg.Redis)
		if err != nil {
			return fmt.Errorf("failed to connect to redis: %w", err)
		}
		locker = lock.NewRedisLocker(rdb, &cfg.Lock, log)
		readiness["redis"] = func() error {
			pingCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			return rdb.Ping(pingCtx).Err()
		}
		log.Info("Using redis locks for account reconciliation", zap.String("addr", cfg.Redis.Addr))
	default:
		locker = lock.NewLocalLocker(cfg.Lock.WaitTimeoutDuration())
		log.Info("Using in-process locks for account reconciliation")
	}

	var publisher events.Publisher = events.NoopPublisher{}
	if cfg.Messaging.Enabled {
		rabbit, err := events.NewRabbitMQPublisher(&cfg.Messaging, log)
		if err != nil {
			return fmt.Errorf("failed to connect to message broker: %w", err)
		}
		publisher = rabbit
		readiness["messaging"] = rabbit.HealthCheck
		log.Info("Publishing domain events", zap.String("exchange", cfg.Messaging.Exchange))
	}

	defaults := service.Defaults{
		Owner:           cfg.CRM.DefaultOwner,
		ConvertedStatus: cfg.CRM.DefaultConvertedStatus,
	}

	// Repositories
	accountRepo := repository.NewAccountRepository(db)
	contactRepo := repository.NewContactRepository(db)
	opportunityRepo := repository.NewOpportunityRepository(db)
	leadRepo := repository.NewLeadRepository(db)
	activityRepo := repository.NewActivityRepository(db)

	// Services
	activityService := service.NewActivityService(activityRepo, log)
	accountService := service.NewAccountService(accountRepo, activityService, locker, publisher, defaults, log)
	contactService := service.NewContactService(contactRepo, accountRepo, accountService, activityService, defaults, log)
	opportunityService := service.NewOpportunityService(opportunityRepo, accountRepo, accountService, activityService, defaults, log)
	leadService := service.NewLeadService(db, leadRepo, accountRepo, contactRepo, opportunityRepo, activityService, publisher, defaults, log)

	// Handlers
	accountHandler := handler.NewAccountHandler(accountService, contactService, opportunityService, log)
	contactHandler := handler.NewContactHandler(contactService, log)
	opportunityHandler := handler.NewOpportunityHandler(opportunityService, log)
	leadHandler := handler.NewLeadHandler(leadService, log)
	activityHandler := handler.NewActivityHandler(activityService, log)

	authMiddleware := auth.NewMiddleware(&cfg.CRM, log)
	rateLimiter := middleware.NewRateLimiter(&cfg.RateLimit, log)

	rt := router.NewRouter(
		cfg,
		log,
		db,
		authMiddleware,
		rateLimiter,
		accountHandler,
		contactHandler,
		opportunityHandler,
		leadHandler,
		activityHandler,
	)
	for name, check := range readiness {
		rt.AddReadinessCheck(name, check)
	}

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.App.Port),
		Handler:      http.TimeoutHandler(rt.Setup(), cfg.Server.RequestTimeoutDuration(), `{"type":"internal_error","title":"Service Unavailable","status":503,"detail":"Request timed out"}`),
		ReadTimeout:  cfg.Server.ReadTimeoutDuration(),
		WriteTimeout: cfg.Server.WriteTimeoutDuration(),
	}

	serverErrors := make(chan error, 1)
	go func() {
		log.Info("Server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErrors <- err
		}
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		return fmt.Errorf("server error: %w", err)
	case sig := <-shutdown:
		log.Info("Shutdown signal received", zap.String("signal", sig.String()))

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			log.Error("Failed to shutdown gracefully", zap.Error(err))
			return err
		}

		if err := publisher.Close(); err != nil {
			log.Warn("Error closing event publisher", zap.Error(err))
		}
		if rdb != nil {
			if err := rdb.Close(); err != nil {
				log.Warn("Error closing redis connection", zap.Error(err))
			}
		}

		log.Info("Server stopped gracefully")
	}

	return nil
}
