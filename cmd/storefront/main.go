package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/nikolayk812/storefront/internal/api"
	"github.com/nikolayk812/storefront/internal/auth"
	"github.com/nikolayk812/storefront/internal/client"
	"github.com/nikolayk812/storefront/internal/config"
	"github.com/nikolayk812/storefront/internal/metrics"
	"golang.org/x/sync/errgroup"
)

var configPath = flag.String("config", "", "config file path, environment only when empty")

func main() {
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger := newLogger(cfg.Log)
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Error("storefront exited with error", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg config.Config, logger *slog.Logger) error {
	rates, err := cfg.Shipping.Rates()
	if err != nil {
		return fmt.Errorf("cfg.Shipping.Rates: %w", err)
	}

	carts, closeCarts, err := openCartRepository(ctx, cfg.Storage, logger)
	if err != nil {
		return fmt.Errorf("openCartRepository: %w", err)
	}
	defer closeCarts()

	catalog, err := client.NewCatalog(cfg.Catalog.BaseURL, rates.Currency)
	if err != nil {
		return fmt.Errorf("client.NewCatalog: %w", err)
	}

	orders, err := client.NewOrders(cfg.Orders.BaseURL, rates.Currency)
	if err != nil {
		return fmt.Errorf("client.NewOrders: %w", err)
	}

	deps := api.Deps{
		Logger:         logger,
		Metrics:        metrics.New(),
		Carts:          carts,
		Catalog:        catalog,
		Orders:         orders,
		History:        orders,
		Rates:          rates,
		RequestTimeout: cfg.Server.RequestTimeout,
		SaveTimeout:    cfg.Storage.SaveTimeout,
		SubmitTimeout:  cfg.Orders.SubmitTimeout,
		SessionTTL:     cfg.Server.SessionTTL,
		MaxUploadSize:  cfg.Upload.MaxSize,
		SecureCookies:  cfg.Server.SecureCookies,
	}

	if cfg.Upload.BaseURL != "" {
		deps.Uploader, err = client.NewUploader(cfg.Upload.BaseURL, cfg.Upload.MaxSize)
		if err != nil {
			return fmt.Errorf("client.NewUploader: %w", err)
		}
	}

	notifier, closeNotifier, err := openNotifier(cfg.Mail, cfg.Kafka, cfg.AMQP)
	if err != nil {
		return fmt.Errorf("openNotifier: %w", err)
	}
	defer closeNotifier()
	deps.Notifier = notifier

	if cfg.Auth.Secret != "" {
		deps.Verifier, err = auth.NewVerifier(cfg.Auth.Secret, cfg.Auth.Issuer)
		if err != nil {
			return fmt.Errorf("auth.NewVerifier: %w", err)
		}
	} else {
		logger.Warn("auth.secret is empty, every request is anonymous and orders cannot be placed")
	}

	srv := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           api.NewRouter(deps),
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("storefront starting", "addr", cfg.Server.Addr, "storage", cfg.Storage.Backend)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("srv.ListenAndServe: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-ctx.Done()
		logger.Info("shutting down server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("srv.Shutdown: %w", err)
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		return err
	}

	logger.Info("server exited")
	return nil
}

func newLogger(cfg config.LogConfig) *slog.Logger {
	level, err := cfg.SlogLevel()
	if err != nil {
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}
	if cfg.Format == "text" {
		return slog.New(slog.NewTextHandler(os.Stdout, opts))
	}
	return slog.New(slog.NewJSONHandler(os.Stdout, opts))
}
