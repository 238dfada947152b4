package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"xbin/internal/auth"
	"xbin/internal/booking"
	"xbin/internal/cache"
	"xbin/internal/config"
	"xbin/internal/httpserver"
	"xbin/internal/logging"
	"xbin/internal/machine"
	"xbin/internal/metrics"
	"xbin/internal/middleware"
	"xbin/internal/pricefeed"
	"xbin/internal/repo"
	"xbin/internal/wallet"
	"xbin/migrations"

	"github.com/joho/godotenv"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger := logging.NewLogger(cfg.LogLevel, cfg.AppEnv)
	logger.Info("starting xbin", "env", cfg.AppEnv)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	metricRegistry := metrics.Registry(cfg.MetricsNamespace)

	repository, err := repo.New(ctx, cfg.DatabaseURL, cfg.DatabaseSchema, logger)
	if err != nil {
		return fmt.Errorf("init repository: %w", err)
	}
	defer repository.Close()

	if err := repository.RunMigrations(ctx, migrations.Files); err != nil {
		return fmt.Errorf("run migrations: %w", err)
	}
	logger.Info("database migrated")

	redisClient := cache.New(cache.Config{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
		UseTLS:   cfg.RedisTLS,
	}, logger)
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Warn("failed closing redis", "error", err)
		}
	}()
	if err := redisClient.Ping(ctx); err != nil {
		logger.Warn("redis ping failed", "error", err)
	}

	tokens := auth.NewTokenManager(cfg.JWTSecret, cfg.JWTTTL)
	authService := auth.New(repository, tokens, metricRegistry, logger, cfg.ResetTokenTTL)
	bookingService := booking.New(repository, metricRegistry, logger)
	machineService := machine.New(repository, logger)
	walletService := wallet.New(repository, logger)

	if err := authService.EnsureAdmin(ctx, cfg.AdminEmail, cfg.AdminPassword); err != nil {
		return fmt.Errorf("ensure admin: %w", err)
	}

	priceFetcher := pricefeed.NewHTTPFetcher(cfg.PriceAPIBaseURL, cfg.PriceAPITimeout)
	priceService := pricefeed.New(priceFetcher, redisClient, metricRegistry, logger, cfg.PriceCacheTTL)
	priceRefresher := pricefeed.NewRefresher(priceService, logger, cfg.PriceRefreshInterval)
	priceRefresher.Start(ctx)
	defer func() {
		stopCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := priceRefresher.Stop(stopCtx); err != nil {
			logger.Warn("price refresher stop timed out", "error", err)
		}
	}()

	authLimiter := middleware.NewRateLimiter(cfg.AuthRateLimitPerSec, cfg.AuthRateLimitBurst)

	httpSrv := httpserver.New(cfg.HTTPListenAddr, logger, metricRegistry, httpserver.Dependencies{
		Repository: repository,
		Redis:      redisClient,
		Auth:       authService,
		Bookings:   bookingService,
		Machines:   machineService,
		Wallets:    walletService,
		Prices:     priceService,
		Tokens:     tokens,
	}, cfg.PublicBasePath, authLimiter)

	errCh := make(chan error, 1)
	go func() {
		if err := httpSrv.Start(); err != nil {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("http server error: %w", err)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}

	return nil
}
