// File: cmd/app/main.go
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"telegram-offer-relay/internal/config"
	"telegram-offer-relay/internal/infra/adapters/checkout"
	"telegram-offer-relay/internal/infra/adapters/telegram"
	"telegram-offer-relay/internal/infra/db/postgres"
	"telegram-offer-relay/internal/infra/i18n"
	"telegram-offer-relay/internal/infra/logging"
	"telegram-offer-relay/internal/infra/metrics"
	rds "telegram-offer-relay/internal/infra/redis"
	"telegram-offer-relay/internal/infra/web"
	"telegram-offer-relay/internal/usecase"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to the YAML config file")
	mode := flag.String("mode", config.ModeDev, "execution mode: dev|prod")
	flag.Parse()

	if err := run(*configPath, *mode); err != nil {
		fmt.Fprintln(os.Stderr, "fatal:", err)
		os.Exit(1)
	}
}

func run(configPath, mode string) error {
	cfg, err := config.LoadConfig(configPath, mode)
	if err != nil {
		return err
	}

	log := logging.New(cfg.Log, cfg.Dev())
	log.Info().Str("mode", cfg.Runtime.Mode).Msg("starting offer relay")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pool, err := postgres.NewPgxPool(ctx, cfg.Database.URL, 0)
	if err != nil {
		return err
	}
	defer pool.Close()
	if err := postgres.EnsureSchema(ctx, pool); err != nil {
		return fmt.Errorf("ensure schema: %w", err)
	}

	botRepo := postgres.NewPostgresBotRepo(pool)
	offerRepo := postgres.NewPostgresOfferRepo(pool)
	guardRepo := postgres.NewPostgresGuardRepo(pool)
	purchaseRepo := postgres.NewPostgresPurchaseRepo(pool)
	maintenanceRepo := postgres.NewMaintenanceRepo(pool)

	var limiter usecase.CommandLimiter
	if cfg.Redis.URL != "" {
		redisClient, err := rds.NewClient(ctx, &cfg.Redis)
		if err != nil {
			return fmt.Errorf("connect redis: %w", err)
		}
		defer redisClient.Close()
		limiter = rds.NewRateLimiter(redisClient)
		log.Info().Msg("command rate limiting enabled")
	}

	bundle, err := i18n.NewBundle(i18n.LocalesFS)
	if err != nil {
		return fmt.Errorf("load locales: %w", err)
	}

	gateway, err := checkout.NewGopayGateway(cfg.Checkout.BaseURL)
	if err != nil {
		return err
	}

	guard := usecase.NewGuard(nil, guardRepo, false, log)
	if cfg.Prod() {
		guardClient, err := telegram.NewBotClient(cfg.Guard.Token)
		if err != nil {
			return fmt.Errorf("create guard bot: %w", err)
		}
		guard = usecase.NewGuard(guardClient, guardRepo, true, log)
	}
	if err := guard.Start(ctx); err != nil {
		return fmt.Errorf("start guard: %w", err)
	}

	purchaseFlow := usecase.NewPurchaseFlow(offerRepo, purchaseRepo, gateway, bundle, guard, log)
	registry := usecase.NewRegistry(ctx, telegram.NewBotClient, botRepo, purchaseFlow, guard, limiter, log, cfg.Dev())
	publisher := usecase.NewPublisher(registry, offerRepo, bundle, guard, log)

	if err := registry.Rebuild(ctx); err != nil {
		return fmt.Errorf("rebuild bot registry: %w", err)
	}
	log.Info().Int("bots", registry.Len()).Msg("bot registry rebuilt")

	metrics.MustRegister()

	server := web.NewServer(
		cfg.HTTP.Port,
		registry,
		publisher,
		guard,
		maintenanceRepo,
		log,
		cfg.Dev(),
		cfg.HTTP.APIKey,
	)

	errCh := make(chan error, 1)
	go func() {
		log.Info().Int("port", cfg.HTTP.Port).Msg("http front door listening")
		errCh <- server.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		log.Info().Msg("shutdown signal received")
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("http shutdown")
	}
	log.Info().Msg("stopped")
	return nil
}
