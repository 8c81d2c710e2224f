package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/MimoJanra/StatusPulse/internal/api"
	"github.com/MimoJanra/StatusPulse/internal/board"
	"github.com/MimoJanra/StatusPulse/internal/cache"
	"github.com/MimoJanra/StatusPulse/internal/notifications"
)

func newServeCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the status API with the periodic refresh loop",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := newApp(*configPath)
			if err != nil {
				return err
			}
			defer func() { _ = a.logger.Sync() }()

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			return serve(ctx, a)
		},
	}
}

func serve(ctx context.Context, a *app) error {
	cfg, logger := a.cfg, a.logger

	notifier := notifications.NewNotificationSender(notifications.Settings{
		Type:       cfg.NotifyType,
		WebhookURL: cfg.NotifyWebhookURL,
		Token:      cfg.NotifyToken,
		ChatID:     cfg.NotifyChatID,
	}, logger)

	b := board.New(a.aggregator, cfg.DefaultWindowDays, notifier, logger)

	opts := api.Options{
		AllowedWindows:       cfg.AllowedWindows,
		RefreshRatePerMinute: cfg.RefreshRatePerMinute,
	}
	if cfg.CacheEnabled() {
		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		rc, err := cache.NewRedisCache(pingCtx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB, cfg.CacheTTL)
		cancel()
		if err != nil {
			logger.Warn("snapshot cache disabled", zap.String("redis_addr", cfg.RedisAddr), zap.Error(err))
		} else {
			defer rc.Close()
			opts.Cache = rc
		}
	}

	srv := &http.Server{
		Addr:         cfg.ServerAddr,
		Handler:      api.SetupRouter(api.NewServer(a.aggregator, b, opts, logger)),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 2*cfg.BackendTimeout + 15*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	if cfg.RefreshInterval > 0 {
		b.Start(cfg.RefreshInterval)
		defer b.Stop()
	} else {
		go func() {
			if _, err := b.Refresh(ctx, cfg.DefaultWindowDays); err != nil && ctx.Err() == nil {
				logger.Warn("initial refresh failed", zap.Error(err))
			}
		}()
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server started",
			zap.String("addr", cfg.ServerAddr),
			zap.String("backend", cfg.BackendURL),
			zap.Int("window_days", cfg.DefaultWindowDays),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err, ok := <-errCh:
		if ok {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", zap.Error(err))
		return err
	}
	logger.Info("server stopped")
	return nil
}
