package main

import (
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/artel-team/artel/internal/bootstrap"
	"github.com/artel-team/artel/internal/config"
	"github.com/artel-team/artel/internal/infra/gotrue"
	"github.com/artel-team/artel/internal/modules/handler"
	"github.com/artel-team/artel/internal/modules/service"
	"github.com/artel-team/artel/internal/pkg/ratelimit"
	"github.com/artel-team/artel/internal/realtime"
	"github.com/artel-team/artel/internal/router"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/samber/do"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the REST and websocket API",
	RunE: func(cmd *cobra.Command, args []string) error {
		inj := bootstrap.BuildContainer()
		defer func() { _ = inj.Shutdown() }()

		cfg := do.MustInvoke[*config.Config](inj)
		if err := cfg.ValidateServe(); err != nil {
			return err
		}
		log := do.MustInvoke[*zap.Logger](inj)
		defer func() { _ = log.Sync() }()
		if cfg.App.Env != "local" {
			gin.SetMode(gin.ReleaseMode)
		}

		stopTelemetry := setupTelemetry(cfg, log)
		defer stopTelemetry()
		instrumentStores(inj, cfg, log)

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		hub := do.MustInvoke[*realtime.Hub](inj)
		go func() {
			if err := hub.Run(ctx); err != nil && ctx.Err() == nil {
				log.Error("realtime hub stopped", zap.Error(err))
			}
		}()

		limiter := do.MustInvokeNamed[*ratelimit.Keyed](inj, bootstrap.LimiterMessages)
		limiter.StartSweeper(time.Minute, 10*time.Minute, ctx.Done())

		engine := router.NewRouter(router.RouterDeps{
			Config:            cfg,
			Log:               log,
			Redis:             do.MustInvoke[*redis.Client](inj),
			Verifier:          do.MustInvoke[*gotrue.Verifier](inj),
			Profiles:          do.MustInvoke[service.ProfileService](inj),
			AuthHandler:       do.MustInvoke[*handler.AuthHandler](inj),
			ProfileHandler:    do.MustInvoke[*handler.ProfileHandler](inj),
			SkillHandler:      do.MustInvoke[*handler.SkillHandler](inj),
			ProjectHandler:    do.MustInvoke[*handler.ProjectHandler](inj),
			InvitationHandler: do.MustInvoke[*handler.InvitationHandler](inj),
			ChatHandler:       do.MustInvoke[*handler.ChatHandler](inj),
			DeviceHandler:     do.MustInvoke[*handler.DeviceHandler](inj),
			RealtimeHandler:   do.MustInvoke[*handler.RealtimeHandler](inj),
		})

		srv := &http.Server{
			Addr:              fmt.Sprintf("%s:%d", cfg.App.Host, cfg.App.Port),
			Handler:           engine,
			ReadHeaderTimeout: 10 * time.Second,
		}
		return serveHTTP(ctx, srv, log)
	},
}

