package main

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/artel-team/artel/internal/bootstrap"
	"github.com/artel-team/artel/internal/config"
	mq "github.com/artel-team/artel/internal/infra/queue"
	"github.com/artel-team/artel/internal/modules/service"
	"github.com/artel-team/artel/internal/push"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/robfig/cron/v3"
	"github.com/samber/do"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

var workerCmd = &cobra.Command{
	Use:   "worker",
	Short: "Deliver queued push notifications and clean up stale responses",
	RunE: func(cmd *cobra.Command, args []string) error {
		inj := bootstrap.BuildContainer()
		defer func() { _ = inj.Shutdown() }()

		cfg := do.MustInvoke[*config.Config](inj)
		log := do.MustInvoke[*zap.Logger](inj)
		defer func() { _ = log.Sync() }()

		stopTelemetry := setupTelemetry(cfg, log)
		defer stopTelemetry()
		instrumentStores(inj, cfg, log)

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		invitations := do.MustInvoke[service.InvitationService](inj)
		c := cron.New()
		if _, err := c.AddFunc(cfg.Reconcile.Schedule, func() {
			n, err := invitations.ReconcileAll(ctx)
			if err != nil {
				log.Error("reconcile responses", zap.Error(err))
				return
			}
			log.Info("reconciled responses", zap.Int("deleted", n))
		}); err != nil {
			return err
		}
		c.Start()
		defer func() { <-c.Stop().Done() }()

		g, gctx := errgroup.WithContext(ctx)
		g.Go(func() error {
			return consumePush(gctx, inj, cfg, log)
		})
		err := g.Wait()
		if ctx.Err() != nil {
			return nil
		}
		return err
	},
}

// consumePush delivers queued notifications until ctx is done. Without a
// service account there is nothing to deliver with, so it only waits.
func consumePush(ctx context.Context, inj *do.Injector, cfg *config.Config, log *zap.Logger) error {
	sender, err := do.Invoke[push.Sender](inj)
	if err != nil {
		log.Warn("push delivery disabled", zap.Error(err))
		<-ctx.Done()
		return ctx.Err()
	}

	conn := do.MustInvoke[*amqp.Connection](inj)
	consumer, err := mq.NewConsumer(conn, cfg, log)
	if err != nil {
		return err
	}
	defer consumer.Close()

	log.Info("consuming push jobs", zap.String("queue", cfg.RabbitMQ.Queue))
	return consumer.Handle(ctx, push.NewDeliverer(sender, log).Handle)
}
