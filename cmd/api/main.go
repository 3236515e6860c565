package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"staked-report-gateway/config"
	httpHandler "staked-report-gateway/internal/adapter/http/handler"
	pgStorage "staked-report-gateway/internal/adapter/storage/postgres"
	redisStorage "staked-report-gateway/internal/adapter/storage/redis"
	"staked-report-gateway/internal/adapter/walletprovider"
	"staked-report-gateway/internal/core/domain"
	"staked-report-gateway/internal/core/ports"
	"staked-report-gateway/internal/service"
	"staked-report-gateway/pkg/logger"
)

func main() {
	// Load configuration
	cfg, err := config.Load("")
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	log := logger.New(cfg.Log.Level, cfg.Log.Pretty)

	log.Info().
		Str("mode", cfg.Server.Mode).
		Int("port", cfg.Server.Port).
		Msg("Starting Staked Report Gateway")

	ctx := context.Background()

	// Initialize PostgreSQL pool
	pool, err := pgStorage.NewPool(ctx, cfg.Database, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to PostgreSQL")
	}
	defer pool.Close()
	log.Info().Msg("PostgreSQL connected")

	// Initialize Redis client
	rdb, err := redisStorage.NewClient(ctx, cfg.Redis, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to Redis")
	}
	defer rdb.Close()
	log.Info().Msg("Redis connected")

	// Initialize repositories
	userRepo := pgStorage.NewUserRepo(pool)
	stakeRepo := pgStorage.NewStakeRepo(pool)
	reportRepo := pgStorage.NewReportRepo(pool)
	activityRepo := pgStorage.NewActivityRepository(pool)
	transactor := pgStorage.NewTransactor(pool)

	// Initialize Redis stores
	sessionStore := redisStorage.NewSessionStore(rdb)
	rateLimitStore := redisStorage.NewRateLimitStore(rdb)

	// Initialize core services
	hashSvc := service.NewArgon2HashService()
	tokenSvc := service.NewJWTTokenService(cfg.JWT.Secret, cfg.JWT.Expiry, cfg.JWT.Issuer)

	// Wallet provider; only the simulated provider is implemented today.
	requiredNetwork := domain.NetworkID(cfg.Gate.RequiredNetworkID)
	var provider ports.WalletProvider
	switch cfg.Provider.Mode {
	case "simulated", "":
		provider = walletprovider.NewSimulatedProvider(cfg.Provider.Latency, domain.NetworkID(cfg.Provider.NetworkID), log)
	default:
		log.Fatal().Str("mode", cfg.Provider.Mode).Msg("Unknown wallet provider mode")
	}

	// Initialize business services
	authSvc := service.NewAuthService(userRepo, hashSvc, tokenSvc)
	gateSvc := service.NewGateService(
		provider,
		sessionStore,
		requiredNetwork,
		cfg.Gate.ConnectTimeout,
		cfg.Gate.SwitchTimeout,
		cfg.Gate.SessionTTL,
		log,
	)
	defer gateSvc.Close()
	stakingSvc := service.NewStakingService(userRepo, stakeRepo, transactor, gateSvc, cfg.Staking.Amount, cfg.Staking.FaucetAmount, log)
	reportSvc := service.NewReportService(reportRepo, stakeRepo, gateSvc, log)
	activitySvc := service.NewActivityService(activityRepo, log)

	// Initialize health checkers
	pgHealth := pgStorage.NewHealthCheck(pool)
	redisHealth := redisStorage.NewHealthCheck(rdb)

	// Setup Gin router with all routes
	router, err := httpHandler.SetupRouter(httpHandler.RouterDeps{
		AuthSvc:         authSvc,
		GateSvc:         gateSvc,
		StakingSvc:      stakingSvc,
		ReportSvc:       reportSvc,
		UserRepo:        userRepo,
		TokenSvc:        tokenSvc,
		RateLimitStore:  rateLimitStore,
		HealthCheckers:  []ports.HealthChecker{pgHealth, redisHealth},
		ActivitySvc:     activitySvc,
		RequiredNetwork: requiredNetwork,
		Logger:          log,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("Invalid route configuration")
	}

	// HTTP Server with graceful shutdown
	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:    addr,
		Handler: router,
	}

	// Start server in goroutine
	go func() {
		log.Info().Str("addr", addr).Msg("HTTP server listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("HTTP server failed")
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server exited")
}
