package main

import (
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/artel-team/artel/internal/bootstrap"
	"github.com/artel-team/artel/internal/config"
	"github.com/artel-team/artel/internal/modules/handler"
	"github.com/artel-team/artel/internal/pkg/ratelimit"
	"github.com/artel-team/artel/internal/router"
	"github.com/gin-gonic/gin"
	"github.com/samber/do"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var relayCmd = &cobra.Command{
	Use:   "relay",
	Short: "Run the push topic relay",
	RunE: func(cmd *cobra.Command, args []string) error {
		inj := bootstrap.BuildContainer()
		defer func() { _ = inj.Shutdown() }()

		cfg := do.MustInvoke[*config.Config](inj)
		if err := cfg.ValidateRelay(); err != nil {
			return err
		}
		log := do.MustInvoke[*zap.Logger](inj)
		defer func() { _ = log.Sync() }()
		if cfg.App.Env != "local" {
			gin.SetMode(gin.ReleaseMode)
		}

		stopTelemetry := setupTelemetry(cfg, log)
		defer stopTelemetry()

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		limiter := do.MustInvokeNamed[*ratelimit.Keyed](inj, bootstrap.LimiterRelay)
		limiter.StartSweeper(time.Minute, 10*time.Minute, ctx.Done())

		engine := router.NewRelayRouter(router.RelayDeps{
			Config:  cfg,
			Log:     log,
			Limiter: limiter,
			Handler: do.MustInvoke[*handler.RelayHandler](inj),
		})
		srv := &http.Server{
			Addr:              cfg.Push.RelayAddr,
			Handler:           engine,
			ReadHeaderTimeout: 10 * time.Second,
		}
		return serveHTTP(ctx, srv, log)
	},
}
