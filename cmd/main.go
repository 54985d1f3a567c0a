package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/tmb8080/nova-sub001/internal/api/handlers"
	"github.com/tmb8080/nova-sub001/internal/api/routes"
	"github.com/tmb8080/nova-sub001/internal/domain/entities"
	"github.com/tmb8080/nova-sub001/internal/domain/services"
	"github.com/tmb8080/nova-sub001/internal/infrastructure/adapters"
	"github.com/tmb8080/nova-sub001/internal/infrastructure/blockchain"
	"github.com/tmb8080/nova-sub001/internal/infrastructure/cache"
	"github.com/tmb8080/nova-sub001/internal/infrastructure/config"
	"github.com/tmb8080/nova-sub001/internal/infrastructure/database"
	"github.com/tmb8080/nova-sub001/internal/infrastructure/repositories"
	reconciliationsweep "github.com/tmb8080/nova-sub001/internal/workers/reconciliation_sweep"
	"github.com/tmb8080/nova-sub001/pkg/logger"
	"github.com/tmb8080/nova-sub001/pkg/metrics"
	"github.com/tmb8080/nova-sub001/pkg/tracing"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(fmt.Sprintf("Failed to load config: %v", err))
	}

	log := logger.New(cfg.LogLevel, cfg.Environment)
	defer log.Sync()

	tracingShutdown, err := tracing.InitTracer(context.Background(), tracing.Config{
		Enabled:      cfg.Tracing.Enabled,
		CollectorURL: cfg.Tracing.CollectorURL,
		Environment:  cfg.Environment,
		SampleRate:   cfg.Tracing.SampleRate,
		Insecure:     cfg.Environment == "development",
	}, log.Zap())
	if err != nil {
		log.Fatal("Failed to initialize tracing", "error", err)
	}
	defer tracingShutdown(context.Background())

	db, err := database.NewConnection(cfg.Database)
	if err != nil {
		log.Fatal("Failed to connect to database", "error", err)
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Warn("Failed to close database connection", "error", err)
		}
	}()

	if err := database.RunMigrations(cfg.Database.URL); err != nil {
		log.Fatal("Failed to run migrations", "error", err)
	}

	redisClient, err := cache.NewRedisClient(&cfg.Redis, log.Zap())
	if err != nil {
		log.Fatal("Failed to connect to redis", "error", err)
	}
	defer redisClient.Close()

	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	// Repositories
	ledgerRepo := repositories.NewLedgerRepository(db)
	walletRepo := repositories.NewWalletRepository(db)
	sessionRepo := repositories.NewSessionRepository(db)
	vipRepo := repositories.NewVipRepository(db, ledgerRepo)
	referralRepo := repositories.NewReferralRepository(db)
	settingsRepo := repositories.NewSettingsRepository(db)
	depositRepo := repositories.NewDepositRepository(db, ledgerRepo)
	withdrawalRepo := repositories.NewWithdrawalRepository(db, ledgerRepo)
	adminRepo := repositories.NewAdminRepository(db)
	userRepo := repositories.NewUserRepository(db)

	// Blockchain clients and collection addresses
	clients, err := blockchain.NewClients(cfg.Blockchain, log.Zap())
	if err != nil {
		log.Fatal("Failed to build blockchain clients", "error", err)
	}
	collectionAddresses := make(map[entities.Network]string, len(cfg.Blockchain.Networks))
	for _, netCfg := range cfg.Blockchain.Networks {
		collectionAddresses[entities.Network(netCfg.Name)] = netCfg.CollectionAddress
	}

	notifier, err := adapters.NewEmailNotifier(cfg.Email, log.Zap())
	if err != nil {
		log.Fatal("Failed to build email notifier", "error", err)
	}

	locker := cache.NewRedisLocker(redisClient.Client(), "nova")
	settingsSource := cache.NewCachedSettings(settingsRepo, redisClient, 30*time.Second, log.Zap())

	// Services
	walletService := services.NewWalletService(ledgerRepo, walletRepo, locker, log)
	ledgerService := services.NewLedgerService(ledgerRepo, log)
	feeService := services.NewFeeService(settingsRepo, log)
	referralService := services.NewReferralService(referralRepo, ledgerRepo, settingsSource, walletService, log)
	earningService := services.NewEarningService(
		sessionRepo, vipRepo, ledgerRepo, walletService, referralService, locker,
		cfg.Earning.DurationSeconds, cfg.Earning.CycleHours, log)
	verificationService := services.NewVerificationService(
		clients, collectionAddresses,
		time.Duration(cfg.Blockchain.LookupTimeout)*time.Second, log)
	depositService := services.NewDepositService(
		depositRepo, verificationService, settingsSource, walletService,
		referralService, userRepo, notifier, log)
	withdrawalService := services.NewWithdrawalService(
		withdrawalRepo, feeService, settingsSource, walletService,
		adminRepo, userRepo, notifier, log)
	vipService := services.NewVipService(vipRepo, walletService, log)
	settingsService := services.NewSettingsService(settingsSource, log)

	router := routes.Setup(routes.Handlers{
		Health:       handlers.NewHealthHandlers(db, redisClient),
		Wallet:       handlers.NewWalletHandlers(walletService, ledgerService, log),
		Earning:      handlers.NewEarningHandlers(earningService, log),
		Deposit:      handlers.NewDepositHandlers(depositService, log),
		Withdrawal:   handlers.NewWithdrawalHandlers(withdrawalService, log),
		Fee:          handlers.NewFeeHandlers(feeService, log),
		Vip:          handlers.NewVipHandlers(vipService, log),
		Verification: handlers.NewVerificationHandlers(verificationService, log),
		Settings:     handlers.NewSettingsHandlers(settingsService, log),
	}, cfg.JWT.Secret, log)

	// Drift sweep is an audit; the write paths reconcile on their own
	var sweep *reconciliationsweep.Worker
	if cfg.Reconciliation.Enabled {
		sweep = reconciliationsweep.New(ledgerRepo, walletRepo, walletService, cfg.Reconciliation.Schedule, log)
		if err := sweep.Start(); err != nil {
			log.Fatal("Failed to start reconciliation sweep", "error", err)
		}
	}

	server := &http.Server{
		Addr:           fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:        router,
		ReadTimeout:    time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout:   time.Duration(cfg.Server.WriteTimeout) * time.Second,
		IdleTimeout:    120 * time.Second,
		MaxHeaderBytes: 1 << 20,
	}

	go func() {
		log.Info("Starting server",
			"port", cfg.Server.Port,
			"environment", cfg.Environment)

		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("Failed to start server", "error", err)
		}
	}()

	go func() {
		ticker := time.NewTicker(30 * time.Second)
		defer ticker.Stop()

		for range ticker.C {
			stats := db.Stats()
			metrics.DatabaseConnectionsGauge.WithLabelValues("open").Set(float64(stats.OpenConnections))
			metrics.DatabaseConnectionsGauge.WithLabelValues("idle").Set(float64(stats.Idle))
			metrics.DatabaseConnectionsGauge.WithLabelValues("in_use").Set(float64(stats.InUse))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down server...")

	if sweep != nil {
		sweep.Stop()
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		log.Error("Server forced to shutdown", "error", err)
	}

	log.Info("Server exited")
}
