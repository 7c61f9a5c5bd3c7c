package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/intellibotic/bot-api/docs"
	"github.com/intellibotic/bot-api/internal/auth"
	"github.com/intellibotic/bot-api/internal/config"
	"github.com/intellibotic/bot-api/internal/database"
	"github.com/intellibotic/bot-api/internal/http/handler"
	"github.com/intellibotic/bot-api/internal/http/middleware"
	"github.com/intellibotic/bot-api/internal/http/router"
	"github.com/intellibotic/bot-api/internal/jobs"
	"github.com/intellibotic/bot-api/internal/logger"
	"github.com/intellibotic/bot-api/internal/mirror"
	"github.com/intellibotic/bot-api/internal/repository"
	"github.com/intellibotic/bot-api/internal/service"
	"go.uber.org/zap"
)

// @title Intellibotic Bot API
// @version 1.0
// @description Backend for managing chatbot definitions with per-bot JSON mirror files

// @contact.name API Support
// @contact.email support@intellibotic.io

// @license.name MIT
// @license.url https://opensource.org/licenses/MIT

// @host localhost:8080
// @BasePath /api/v1

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description JWT Bearer token

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

	// Initialize logger
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

	// Configure Swagger host based on environment
	switch basicCfg.App.Environment {
	case "staging":
		docs.SwaggerInfo.Host = "bot-api-staging.intellibotic.io"
	case "production":
		docs.SwaggerInfo.Host = "api.intellibotic.io"
	default:
		docs.SwaggerInfo.Host = fmt.Sprintf("localhost:%d", basicCfg.App.Port)
	}

	// Load full configuration with secrets
	// In development: uses environment variables
	// In staging/production: fetches from Azure Key Vault
	cfg, err := config.LoadWithSecrets(ctx, log)
	if err != nil {
		return fmt.Errorf("failed to load secrets: %w", err)
	}

	// The admin identity and signing key must be supplied by the deployment
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	// Connect to database
	db, err := database.NewDatabase(&cfg.Database)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}

	// Schema migrations run via cmd/migrate in deployed environments;
	// AutoMigrate keeps local development friction-free
	if cfg.App.Environment == "development" {
		if err := database.AutoMigrate(db); err != nil {
			return fmt.Errorf("failed to auto-migrate schema: %w", err)
		}
	}

	// Initialize mirror store (local filesystem or Azure blob container)
	mirrorStore, err := mirror.NewStore(&cfg.Mirror, log)
	if err != nil {
		return fmt.Errorf("failed to initialize mirror store: %w", err)
	}

	log.Info("Mirror store initialized", zap.String("mode", cfg.Mirror.Mode))

	// Initialize repositories and services
	botRepo := repository.NewBotRepository(db)
	botService := service.NewBotService(botRepo, mirrorStore, log)

	// Initialize auth components
	credentials := auth.NewCredentials(&cfg.Auth)
	tokenIssuer := auth.NewTokenIssuer(&cfg.Auth)
	authMiddleware := auth.NewMiddleware(tokenIssuer, log)
	rateLimiter := middleware.NewRateLimiter(&cfg.RateLimit, log)

	// Initialize handlers
	authHandler := handler.NewAuthHandler(credentials, tokenIssuer, log)
	botHandler := handler.NewBotHandler(botService, log)

	// Setup router
	rt := router.NewRouter(
		cfg,
		log,
		db,
		authMiddleware,
		rateLimiter,
		authHandler,
		botHandler,
	)

	// Initialize and start scheduler for the periodic mirror reconcile job.
	// runOnStartup=true converges the mirror directory immediately so a crash
	// between a row commit and a mirror write heals on the next boot.
	var scheduler *jobs.Scheduler
	if cfg.Jobs.ReconcileEnabled {
		scheduler = jobs.NewScheduler(log)

		if err := jobs.RegisterReconcileJob(
			scheduler,
			botService,
			log,
			cfg.Jobs.ReconcileCron,
			true,
		); err != nil {
			log.Error("Failed to register mirror reconcile job", zap.Error(err))
		} else {
			scheduler.Start()
			log.Info("Scheduler started with mirror reconcile job",
				zap.String("cron_expr", cfg.Jobs.ReconcileCron),
			)
		}
	} else {
		log.Info("Mirror reconcile job disabled")
	}

	// Create HTTP server
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.App.Port),
		Handler:      rt.Setup(),
		ReadTimeout:  cfg.Server.ReadTimeoutDuration(),
		WriteTimeout: cfg.Server.WriteTimeoutDuration(),
	}

	// Start server in goroutine
	serverErrors := make(chan error, 1)
	go func() {
		log.Info("Server starting", zap.String("addr", srv.Addr))
		serverErrors <- srv.ListenAndServe()
	}()

	// Wait for interrupt signal
	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		return fmt.Errorf("server error: %w", err)
	case sig := <-shutdown:
		log.Info("Shutdown signal received", zap.String("signal", sig.String()))

		// Stop scheduler if running
		if scheduler != nil {
			ctx := scheduler.Stop()
			<-ctx.Done()
			log.Info("Scheduler stopped")
		}

		// Graceful shutdown with timeout
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			log.Error("Failed to shutdown gracefully", zap.Error(err))
			return err
		}

		log.Info("Server stopped gracefully")
	}

	return nil
}
