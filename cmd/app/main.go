// File: cmd/app/main.go
package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"telegram-subscription-payments/internal/config"
	"telegram-subscription-payments/internal/domain/ports/adapter"
	tele "telegram-subscription-payments/internal/infra/adapters/telegram"
	pg "telegram-subscription-payments/internal/infra/db/postgres"
	"telegram-subscription-payments/internal/infra/logging"
	"telegram-subscription-payments/internal/infra/metrics"
	red "telegram-subscription-payments/internal/infra/redis"
	"telegram-subscription-payments/internal/infra/sched"
	"telegram-subscription-payments/internal/infra/security"
	"telegram-subscription-payments/internal/infra/web"
	"telegram-subscription-payments/internal/usecase"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	logger := logging.New(cfg.Log, cfg.Runtime.Dev)
	if cfg.Runtime.Dev {
		logger.Warn().Msg("developer mode enabled")
	}

	// ---- Postgres ----
	pool, err := pg.NewPgxPool(ctx, cfg.Database.URL, 10)
	if err != nil {
		logger.Fatal().Err(err).Msg("postgres connect failed")
	}
	defer pool.Close()
	go pg.ReportPoolStats(ctx, pool, 15*time.Second)

	// ---- Redis ----
	redisClient, err := red.NewClient(ctx, &cfg.Redis)
	if err != nil {
		logger.Fatal().Err(err).Msg("redis connect failed")
	}
	defer redisClient.Close()
	rateLimiter := red.NewRateLimiter(redisClient)

	// ---- Repositories ----
	userRepo := pg.NewUserRepo(pool)
	planRepo := pg.NewPlanRepoCacheDecorator(pg.NewPostgresPlanRepo(pool), redisClient)
	txnRepo := pg.NewTransactionRepo(pool)
	grantRepo := pg.NewGrantRepo(pool)
	txManager := pg.NewTxManager(pool)

	// ---- Telegram ----
	var notifier adapter.Notifier
	var gate adapter.ChannelGate
	if cfg.Runtime.Dev {
		noop := tele.NewNoopBotAdapter()
		notifier, gate = noop, noop
	} else {
		bot, err := tele.NewRealBotAdapter(&cfg.Bot, logger)
		if err != nil {
			logger.Fatal().Err(err).Msg("telegram bot init failed")
		}
		notifier, gate = bot, bot
	}

	// ---- Use cases ----
	activator := usecase.NewSubscriptionActivator(userRepo, planRepo, grantRepo, txManager, logger)
	paymeUC := usecase.NewPaymeUseCase(txnRepo, planRepo, userRepo, activator, notifier, gate, logger)
	clickSigner := security.NewClickSigner(cfg.Click.Secret)
	clickUC := usecase.NewClickUseCase(txnRepo, planRepo, userRepo, activator, notifier, gate, clickSigner, logger)
	planUC := usecase.NewPlanUseCase(planRepo, txnRepo, logger)
	monitor := usecase.NewSubscriptionMonitor(userRepo, txnRepo, notifier, gate, redisClient, cfg.Scheduler.WarnDaysBefore, logger)

	// ---- Metrics ----
	metrics.MustRegister()

	// ---- HTTP server ----
	creds := security.NewBasicCredentials(cfg.Payme.Login, cfg.Payme.Password)
	auth := web.NewAuthManager(cfg.Admin.JWTSecret, !cfg.Runtime.Dev, "", 30*time.Minute)
	srv := web.NewServer(paymeUC, clickUC, planUC, creds, auth, cfg.Admin.APIKey, rateLimiter, logger)

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      srv.Router(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}
	go func() {
		logger.Info().Str("addr", server.Addr).Msg("http server listening")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error().Err(err).Msg("http server stopped")
		}
	}()

	// ---- Expiry worker ----
	worker := sched.NewExpiryWorker(cfg.Scheduler.ExpiryCheckInterval, monitor, logger)
	go func() { _ = worker.Run(ctx) }()

	// ---- Graceful shutdown ----
	sigc := make(chan os.Signal, 1)
	signal.Notify(sigc, syscall.SIGINT, syscall.SIGTERM)
	<-sigc
	logger.Info().Msg("shutdown requested")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("http shutdown failed")
	}
}
