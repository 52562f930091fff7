package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"backend/internal/config"
	"backend/internal/dispatch"
	"backend/internal/escalation"
	"backend/internal/profile"
	"backend/internal/repository"
	"backend/internal/scheduler"
	"backend/internal/server"
	"backend/internal/telegram_bot"
	"backend/internal/workflow"
)

func main() {
	logger, err := zap.NewDevelopment()
	if err != nil {
		panic(err) // Should not happen in development
	}
	defer func() {
		_ = logger.Sync() // Flushes buffer, if any
	}()

	// Load configuration
	cfgPath := "configs/config.yml"
	cfg, err := config.LoadConfig(cfgPath)
	if err != nil {
		logger.Fatal("Failed to load config", zap.Error(err))
	}

	// Database connection
	db, err := repository.NewPostgresDB(cfg.Database.URL, logger)
	if err != nil {
		logger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer db.Close()

	// Run migrations
	repository.MigrateDB(db, logger)

	// Initialize repositories
	alertRepo := repository.NewAlertRepository(db, logger)
	prefRepo := repository.NewPreferenceRepository(db, logger)
	notificationRepo := repository.NewNotificationRepository(db, logger)

	// In-memory profile store; histories are rebuilt from live traffic.
	store := profile.NewMemoryStore(logger)

	// Telegram bot for registration and alert acknowledgments
	bot, err := telegram_bot.NewBot(cfg, prefRepo, alertRepo, logger)
	if err != nil {
		logger.Warn("Failed to initialize Telegram bot, continuing without it", zap.Error(err))
		bot = nil
	}

	// Delivery channels. A disabled bot leaves the channel list empty and
	// dispatch becomes a no-op that keeps alerts pending.
	var channels []dispatch.Channel
	if api := bot.API(); api != nil {
		telegramChannel := dispatch.NewTelegramChannel(api, notificationRepo, logger)
		channels = append(channels, dispatch.WithRetry(telegramChannel, cfg.Dispatch.MaxRetries, logger))
	} else {
		logger.Warn("No delivery channels configured, crisis alerts will stay pending")
	}

	dispatcher := dispatch.NewDispatcher(channels, alertRepo, logger)
	pool := dispatch.NewPool(cfg.Dispatch.Workers, cfg.Dispatch.QueueSize, logger)
	defer pool.Shutdown()

	// Workflow trigger gateway (optional)
	var workflowClient *workflow.Client
	if cfg.Workflow.CrisisWebhookURL != "" {
		workflowClient = workflow.NewClient(cfg.Workflow.CrisisWebhookURL, logger)
	} else {
		logger.Info("Workflow trigger webhook not configured")
	}

	coordinator := escalation.NewCoordinator(alertRepo, logger)

	defaultTZ, err := time.LoadLocation(cfg.Scheduler.DefaultTimezone)
	if err != nil {
		logger.Fatal("Failed to load default timezone", zap.Error(err))
	}
	sched := scheduler.New(prefRepo, store, dispatcher, pool, defaultTZ, cfg.TickInterval(), logger)

	// Context for graceful shutdown
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	// Run Telegram bot in a goroutine (if enabled)
	if bot != nil {
		go func() {
			if err := bot.Start(ctx); err != nil {
				logger.Error("Telegram bot failed", zap.Error(err))
			}
		}()
	}

	// Run the notification scheduler in a goroutine
	go sched.Run(ctx)

	// Initialize and run the server
	srv := server.NewServer(server.Deps{
		Store:         store,
		Coordinator:   coordinator,
		Dispatcher:    dispatcher,
		Pool:          pool,
		Workflow:      workflowClient,
		Prefs:         prefRepo,
		Notifications: notificationRepo,
	}, logger)
	srv.Run(cfg.Server.Port)

	<-ctx.Done()
	logger.Info("Application stopped.")
}
