package main

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/artel-team/artel/internal/config"
	"github.com/artel-team/artel/internal/infra/cache"
	"github.com/artel-team/artel/internal/infra/db"
	"github.com/artel-team/artel/internal/telemetry"
	"github.com/redis/go-redis/v9"
	"github.com/samber/do"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const shutdownTimeout = 10 * time.Second

// setupTelemetry starts tracing and metrics export and returns the matching shutdown.
func setupTelemetry(cfg *config.Config, log *zap.Logger) func() {
	if _, err := telemetry.SetupTracing(cfg); err != nil {
		log.Warn("tracing disabled", zap.Error(err))
	}
	if _, err := telemetry.SetupMetrics(cfg); err != nil {
		log.Warn("otlp metrics disabled", zap.Error(err))
	}
	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		_ = telemetry.Shutdown(ctx)
		_ = telemetry.ShutdownMetrics(ctx)
	}
}

// instrumentStores attaches the tracing plugins once a tracer provider exists.
func instrumentStores(inj *do.Injector, cfg *config.Config, log *zap.Logger) {
	if !cfg.Telemetry.Enabled {
		return
	}
	if d, err := do.Invoke[*gorm.DB](inj); err == nil {
		if err := db.RegisterOpenTelemetryPlugin(d); err != nil {
			log.Warn("gorm tracing plugin", zap.Error(err))
		}
	}
	if rdb, err := do.Invoke[*redis.Client](inj); err == nil {
		if err := cache.RegisterOpenTelemetryPlugin(rdb); err != nil {
			log.Warn("redis tracing plugin", zap.Error(err))
		}
	}
}

// serveHTTP runs srv until ctx is done, then shuts it down gracefully.
func serveHTTP(ctx context.Context, srv *http.Server, log *zap.Logger) error {
	errCh := make(chan error, 1)
	go func() {
		log.Info("listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
