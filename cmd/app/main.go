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

	"ai-creative-suite/internal/config"
	"ai-creative-suite/internal/domain/ports/adapter"
	aiAdapters "ai-creative-suite/internal/infra/adapters/ai"
	payAdapters "ai-creative-suite/internal/infra/adapters/payment"
	tele "ai-creative-suite/internal/infra/adapters/telegram"
	pg "ai-creative-suite/internal/infra/db/postgres"
	"ai-creative-suite/internal/infra/logging"
	"ai-creative-suite/internal/infra/metrics"
	red "ai-creative-suite/internal/infra/redis"
	"ai-creative-suite/internal/infra/sched"
	"ai-creative-suite/internal/infra/web"
	"ai-creative-suite/internal/infra/worker"
	"ai-creative-suite/internal/usecase"

	"ai-creative-suite/internal/domain/model"
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
		logger.Info().Msg("developer mode enabled")
	}
	metrics.MustRegister()

	// ---- Postgres ----
	pool, err := pg.NewPgxPool(ctx, cfg.Database.URL, cfg.Database.MaxConns)
	if err != nil {
		logger.Fatal().Err(err).Msg("postgres")
	}
	defer pool.Close()

	// ---- Redis ----
	var (
		rateLimiter  *red.RateLimiter
		balanceCache usecase.BalanceCache = red.NoopBalanceCache{}
		locker       usecase.Locker
	)
	if cfg.Redis.Addr != "" {
		redisClient, err := red.NewClient(ctx, &cfg.Redis)
		if err != nil {
			logger.Fatal().Err(err).Msg("redis")
		}
		defer redisClient.Close()
		rateLimiter = red.NewRateLimiter(redisClient)
		balanceCache = red.NewBalanceCache(redisClient, cfg.Redis.BalanceTTL)
		locker = red.NewLocker(redisClient)
	} else {
		logger.Warn().Msg("redis not configured; balance cache, webhook rate limiting and poll locking disabled")
	}

	// ---- Repositories ----
	tm := pg.NewTxManager(pool)
	ledgerRepo := pg.NewLedgerRepo(pool)
	payRepo := pg.NewPaymentRepo(pool)
	planRepo := pg.NewPlanRepo(pool)
	packageRepo := pg.NewPackageRepo(pool)
	subRepo := pg.NewSubscriptionRepo(pool)
	genRepo := pg.NewGenerationRepo(pool)

	// ---- Gateway ----
	var gateway adapter.PaymentGateway
	if cfg.Payment.MerchantID == "" || cfg.Payment.SaltKey == "" {
		logger.Warn().Msg("payment gateway not configured; using noop gateway")
		gateway = payAdapters.NewNoopPaymentGateway()
	} else {
		gw, err := payAdapters.NewPhonePeGateway(
			cfg.Payment.BaseURL,
			cfg.Payment.MerchantID,
			cfg.Payment.SaltKey,
			cfg.Payment.SaltIndex,
			cfg.Payment.RedirectURL,
		)
		if err != nil {
			logger.Fatal().Err(err).Msg("payment gateway")
		}
		gateway = gw
	}

	// ---- Generation providers ----
	var providers []adapter.GenerationProvider
	if cfg.AI.OpenAIKey != "" {
		p, err := aiAdapters.NewOpenAIAdapter(cfg.AI.OpenAIKey, cfg.AI.OpenAIImageModel)
		if err != nil {
			logger.Fatal().Err(err).Msg("openai adapter")
		}
		providers = append(providers, p)
	}
	if cfg.AI.GeminiKey != "" {
		p, err := aiAdapters.NewGeminiAdapter(ctx, cfg.AI.GeminiKey, cfg.AI.GeminiImageModel, cfg.AI.GeminiVideoModel)
		if err != nil {
			logger.Fatal().Err(err).Msg("gemini adapter")
		}
		providers = append(providers, p)
	}
	if len(providers) == 0 {
		logger.Warn().Msg("no AI provider configured; using noop provider")
		providers = append(providers, aiAdapters.NewNoopProvider())
	}
	provider := aiAdapters.NewMultiProvider(cfg.AI.DefaultProvider, providers...)

	// ---- Admin alerts ----
	var notifier adapter.AdminNotifier = tele.NoopNotifier{}
	if cfg.Telegram.Token != "" {
		n, err := tele.NewNotifier(&cfg.Telegram, logger)
		if err != nil {
			logger.Warn().Err(err).Msg("telegram notifier unavailable")
		} else {
			notifier = n
		}
	}

	// ---- Use cases ----
	creditUC := usecase.NewCreditUseCase(ledgerRepo, tm, balanceCache, logger)
	subUC := usecase.NewSubscriptionUseCase(subRepo, planRepo, logger)
	paymentUC := usecase.NewPaymentUseCase(payRepo, planRepo, packageRepo, creditUC, subUC, gateway, locker, cfg.Payment.PollTimeout, logger)
	planUC := usecase.NewPlanUseCase(planRepo, packageRepo)
	statsUC := usecase.NewStatsUseCase(payRepo)

	pool2 := worker.NewPool(cfg.AI.Workers, logger)
	pool2.Start(ctx)
	defer pool2.Stop()

	costs := map[model.GenerationKind]int64{
		model.GenerationKindImage:   cfg.Costs.Image,
		model.GenerationKindVideo:   cfg.Costs.Video,
		model.GenerationKindUpscale: cfg.Costs.Upscale,
	}
	genUC := usecase.NewGenerationUseCase(genRepo, creditUC, provider, pool2, costs, 5*time.Minute, logger)

	// ---- Background workers ----
	go sched.NewPaymentReconciler(paymentUC, payRepo, cfg.Scheduler.ReconcileInterval, cfg.Scheduler.StaleAfter, logger).Start(ctx)
	go sched.NewGrantSweeper(payRepo, packageRepo, creditUC, subUC, notifier, cfg.Scheduler.GrantInterval, logger).Start(ctx)
	go sched.NewExpiryWorker(subUC, cfg.Scheduler.ExpiryInterval, logger).Start(ctx)

	// ---- HTTP ----
	auth := web.NewAuthManager(cfg.Security.JWTSecret)
	srv := web.NewServer(paymentUC, creditUC, planUC, subUC, genUC, statsUC, auth, cfg.Security.APIKey, rateLimiter, cfg.Payment.WebhookRate, logger)
	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           srv.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		logger.Info().Str("addr", server.Addr).Msg("http listening")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error().Err(err).Msg("http server")
			cancel()
		}
	}()

	// ---- Shutdown ----
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	select {
	case s := <-sig:
		logger.Info().Str("signal", s.String()).Msg("shutting down")
	case <-ctx.Done():
	}
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("http shutdown")
	}
}
