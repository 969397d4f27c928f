package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/menuboard/api/internal/billing"
	"github.com/menuboard/api/internal/config"
	"github.com/menuboard/api/internal/database"
	"github.com/menuboard/api/internal/logging"
	"github.com/menuboard/api/internal/router"
	"github.com/menuboard/api/internal/service"
	"github.com/menuboard/api/internal/worker"
	"github.com/menuboard/api/internal/ws"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const shutdownTimeout = 15 * time.Second

func main() {
	cfg := config.Load()

	logger, err := logging.New(cfg.LogLevel, cfg.IsProduction())
	if err != nil {
		log.Fatalf("init logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck
	zap.ReplaceGlobals(logger)

	if err := run(cfg, logger); err != nil {
		logger.Error("server stopped", zap.Error(err))
		os.Exit(1)
	}
}

func run(cfg *config.Config, logger *zap.Logger) error {
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("config: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.MigrateOnStart {
		if err := database.MigrateUp(cfg.DatabaseURL); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
		logger.Info("migrations applied")
	}

	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	defer pool.Close()
	if err := pool.Ping(ctx); err != nil {
		return fmt.Errorf("ping database: %w", err)
	}

	queries := database.New(pool)
	hub := ws.NewHub()
	subs := service.NewSubscriptionService(
		queries,
		billing.NewStripeGateway(cfg.Billing.StripeSecretKey),
		hub,
		service.BillingURLs{
			SuccessURL:      cfg.Billing.SuccessURL,
			CancelURL:       cfg.Billing.CancelURL,
			PortalReturnURL: cfg.Billing.PortalReturnURL,
		},
		cfg.Billing.TrialDays,
	)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router.New(cfg, queries, pool, hub, subs),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		hub.Run(gctx)
		return nil
	})

	g.Go(func() error {
		return worker.NewTrialSweeper(subs, cfg.Billing.TrialSweepInterval, logger).Run(gctx)
	})

	g.Go(func() error {
		logger.Info("starting server", zap.String("addr", srv.Addr), zap.String("env", cfg.AppEnv))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("listen: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}
