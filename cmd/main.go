package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
	gormlogger "gorm.io/gorm/logger"

	"streamvault/internal/auth"
	"streamvault/internal/bootstrap"
	"streamvault/internal/config"
	cronpkg "streamvault/internal/cron"
	"streamvault/internal/handler/api"
	"streamvault/internal/mailer"
	"streamvault/internal/middleware"
	"streamvault/internal/notify"
	"streamvault/internal/payment"
	"streamvault/internal/repository"
	"streamvault/internal/router"
	"streamvault/internal/service"
)

func main() {
	// --- Logger ---
	logger, err := zap.NewProduction()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	// --- Config ---
	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("Failed to load config", zap.Error(err))
	}

	if cfg.Server.Env == "development" {
		if dev, err := zap.NewDevelopment(); err == nil {
			logger = dev
		}
	}

	// --- Database ---
	dbLogLevel := gormlogger.Warn
	if cfg.Server.Env == "development" {
		dbLogLevel = gormlogger.Info
	}
	db, err := config.NewDatabaseWithLogLevel(&cfg.Database, dbLogLevel)
	if err != nil {
		logger.Fatal("Failed to connect to database", zap.Error(err))
	}
	if err := bootstrap.MigrateAndSeed(db, cfg.Admin.Email, cfg.Admin.Password); err != nil {
		logger.Fatal("Failed to bootstrap database schema", zap.Error(err))
	}

	if hasArg("--bootstrap-db") {
		logger.Info("Database bootstrap completed")
		return
	}

	// --- Repositories ---
	userRepo := repository.NewUserRepository(db)
	planRepo := repository.NewPlanRepository(db)
	optionRepo := repository.NewPaymentOptionRepository(db)
	orderRepo := repository.NewOrderRepository(db)
	credentialRepo := repository.NewCredentialRepository(db)
	activityRepo := repository.NewActivityRepository(db)

	// --- Outbound integrations ---
	mail := mailer.New(cfg.Mail.APIKey, cfg.Mail.BaseURL, cfg.Mail.From, cfg.Mail.AdminEmail, logger)

	telegramNotifier := notify.NewTelegramNotifier(cfg.Telegram.Token, cfg.Telegram.ChatID)
	var notifier service.Notifier
	if telegramNotifier != nil {
		notifier = telegramNotifier
	} else {
		logger.Info("Telegram notifier disabled (no token configured)")
	}

	var processor payment.InvoiceProcessor
	if cfg.Payment.NOWPayments.APIKey != "" {
		processor = payment.NewNOWPaymentsProcessor(cfg.Payment.NOWPayments.APIKey, cfg.Payment.NOWPayments.IPNCallback)
	} else {
		logger.Info("Payment widget invoicing disabled (no processor API key)")
	}

	// --- Services ---
	tokens := auth.NewTokenManager(cfg.JWT.Secret, cfg.JWT.Expiry)
	planService := service.NewPlanService(planRepo, activityRepo, logger)
	optionService := service.NewPaymentOptionService(optionRepo, activityRepo, processor, logger)
	orderService := service.NewOrderService(orderRepo, planRepo, optionRepo, userRepo, activityRepo, mail, notifier, logger)
	credentialService := service.NewCredentialService(credentialRepo, orderRepo, userRepo, activityRepo, mail, logger)
	checkoutService := service.NewCheckoutService(userRepo, orderService, activityRepo, tokens, logger)

	// --- Submission guard (Redis with in-memory fallback) ---
	guard, guardErr := middleware.NewSubmissionGuard(cfg.Redis.Addr, cfg.Redis.Pass, cfg.Redis.DB, cfg.Checkout.GuardTTL)
	if guardErr != nil {
		logger.Warn("Redis unavailable for checkout guard, using in-memory fallback", zap.Error(guardErr))
	}

	// --- Echo ---
	e := echo.New()
	e.HideBanner = true

	router.Setup(e, router.Deps{
		Services: &api.Services{
			Plans:       planService,
			Options:     optionService,
			Orders:      orderService,
			Credentials: credentialService,
		},
		Checkout:  checkoutService,
		Users:     userRepo,
		Tokens:    tokens,
		Guard:     guard,
		IPNSecret: cfg.Payment.NOWPayments.IPNSecret,
		Logger:    logger,
	})

	// --- Cron Scheduler ---
	scheduler := cronpkg.New(&cronpkg.CronRepos{
		User:       userRepo,
		Order:      orderRepo,
		Credential: credentialRepo,
	}, mail, telegramNotifier, logger)
	scheduler.Start()

	// --- Start Server ---
	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	go func() {
		logger.Info("Starting StreamVault server", zap.String("addr", addr))
		if err := e.Start(addr); err != nil {
			logger.Info("Server stopped", zap.Error(err))
		}
	}()

	// --- Graceful Shutdown ---
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down...")

	// Stop cron
	ctx := scheduler.Stop()
	<-ctx.Done()

	// Stop HTTP server
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server forced to shutdown", zap.Error(err))
	}

	logger.Info("Server exited")
}

func hasArg(name string) bool {
	for _, arg := range os.Args[1:] {
		if arg == name {
			return true
		}
	}
	return false
}
