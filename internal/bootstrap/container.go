package bootstrap

import (
	"context"
	"errors"
	"time"

	"github.com/artel-team/artel/internal/config"
	"github.com/artel-team/artel/internal/infra/blob"
	"github.com/artel-team/artel/internal/infra/cache"
	"github.com/artel-team/artel/internal/infra/db"
	"github.com/artel-team/artel/internal/infra/gotrue"
	"github.com/artel-team/artel/internal/infra/httpclient"
	"github.com/artel-team/artel/internal/infra/logger"
	mq "github.com/artel-team/artel/internal/infra/queue"
	"github.com/artel-team/artel/internal/modules/handler"
	"github.com/artel-team/artel/internal/modules/repo"
	"github.com/artel-team/artel/internal/modules/service"
	"github.com/artel-team/artel/internal/pkg/ratelimit"
	"github.com/artel-team/artel/internal/push"
	"github.com/artel-team/artel/internal/realtime"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/redis/go-redis/v9"
	"github.com/samber/do"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const (
	LimiterMessages = "limiter.messages"
	LimiterRelay    = "limiter.relay"

	// a device that has not resynced for this long is treated as fresh
	deviceTopicTTL  = 90 * 24 * time.Hour
	outboundTimeout = 15 * time.Second
)

// PushCredentials is the service account, or why none is usable.
type PushCredentials struct {
	Account *push.ServiceAccount
	Err     error
}

func BuildContainer() *do.Injector {
	inj := do.New()

	// config
	do.Provide(inj, func(i *do.Injector) (*config.Config, error) {
		return config.Load()
	})

	// logger
	do.Provide(inj, func(i *do.Injector) (*zap.Logger, error) {
		cfg := do.MustInvoke[*config.Config](i)
		return logger.New(cfg.Log.Level, cfg.App.Env)
	})

	// DB
	do.Provide(inj, func(i *do.Injector) (*gorm.DB, error) {
		cfg := do.MustInvoke[*config.Config](i)
		d, err := db.New(cfg)
		if err != nil {
			return nil, err
		}
		// [optional] auto migrate
		if cfg.Database.AutoMigrate {
			if err := db.Migrate(d); err != nil {
				return nil, err
			}
		}
		return d, nil
	})

	// Redis
	do.Provide(inj, func(i *do.Injector) (*redis.Client, error) {
		cfg := do.MustInvoke[*config.Config](i)
		return cache.New(cfg)
	})

	// RabbitMQ DialFunc for connection and reconnection
	do.Provide(inj, func(i *do.Injector) (mq.DialFunc, error) {
		return mq.NewDialFunc(do.MustInvoke[*config.Config](i)), nil
	})

	// RabbitMQ Connection
	do.Provide(inj, func(i *do.Injector) (*amqp.Connection, error) {
		dialFn := do.MustInvoke[mq.DialFunc](i)
		return dialFn()
	})

	// RabbitMQ Publisher
	do.Provide(inj, func(i *do.Injector) (*mq.Publisher, error) {
		cfg := do.MustInvoke[*config.Config](i)
		conn := do.MustInvoke[*amqp.Connection](i)
		log := do.MustInvoke[*zap.Logger](i)
		dialFn := do.MustInvoke[mq.DialFunc](i)
		return mq.NewPublisher(conn, log, cfg, dialFn)
	})

	// push jobs are best-effort: without a broker the API still serves
	do.Provide(inj, func(i *do.Injector) (push.Enqueuer, error) {
		cfg := do.MustInvoke[*config.Config](i)
		log := do.MustInvoke[*zap.Logger](i)
		pub, err := do.Invoke[*mq.Publisher](i)
		if err != nil {
			log.Warn("rabbitmq unavailable, push notifications disabled", zap.Error(err))
			return push.NopQueue{}, nil
		}
		return push.NewQueue(pub, cfg), nil
	})

	// S3
	do.Provide(inj, func(i *do.Injector) (*blob.S3Deps, error) {
		cfg := do.MustInvoke[*config.Config](i)
		return blob.NewS3(context.Background(), cfg)
	})

	// outbound HTTP (OAuth token endpoint, FCM, Instance ID)
	do.Provide(inj, func(i *do.Injector) (*httpclient.Client, error) {
		return httpclient.New(outboundTimeout, do.MustInvoke[*zap.Logger](i)), nil
	})

	// push credentials; a missing account is not fatal
	do.Provide(inj, func(i *do.Injector) (*PushCredentials, error) {
		sa, err := push.LoadServiceAccount(do.MustInvoke[*config.Config](i))
		return &PushCredentials{Account: sa, Err: err}, nil
	})
	do.Provide(inj, func(i *do.Injector) (*push.TokenSource, error) {
		creds := do.MustInvoke[*PushCredentials](i)
		if creds.Err != nil {
			return nil, creds.Err
		}
		return push.NewTokenSource(creds.Account, do.MustInvoke[*httpclient.Client](i)), nil
	})
	do.Provide(inj, func(i *do.Injector) (push.Sender, error) {
		cfg := do.MustInvoke[*config.Config](i)
		creds := do.MustInvoke[*PushCredentials](i)
		tokens, err := do.Invoke[*push.TokenSource](i)
		if err != nil {
			return nil, err
		}
		return push.NewClient(creds.Account, tokens, do.MustInvoke[*httpclient.Client](i), cfg.Push.GatewayBaseURL), nil
	})
	do.Provide(inj, func(i *do.Injector) (push.Messaging, error) {
		cfg := do.MustInvoke[*config.Config](i)
		log := do.MustInvoke[*zap.Logger](i)
		tokens, err := do.Invoke[*push.TokenSource](i)
		if err != nil {
			if !errors.Is(err, push.ErrNoServiceAccount) {
				log.Warn("push service account unusable, topic sync disabled", zap.Error(err))
			}
			return push.NopMessaging{}, nil
		}
		return push.NewIIDMessaging(tokens, do.MustInvoke[*httpclient.Client](i), cfg.Push.IIDBaseURL), nil
	})
	do.Provide(inj, func(i *do.Injector) (push.TopicStore, error) {
		return push.NewRedisTopicStore(do.MustInvoke[*redis.Client](i), deviceTopicTTL), nil
	})
	do.Provide(inj, func(i *do.Injector) (*push.TopicSyncer, error) {
		cfg := do.MustInvoke[*config.Config](i)
		return push.NewTopicSyncer(
			do.MustInvoke[push.Messaging](i),
			do.MustInvoke[push.TopicStore](i),
			cfg.Push.TopicPrefix,
			do.MustInvoke[*zap.Logger](i),
		), nil
	})

	// realtime
	do.Provide(inj, func(i *do.Injector) (*realtime.Publisher, error) {
		return realtime.NewPublisher(do.MustInvoke[*redis.Client](i), do.MustInvoke[*config.Config](i)), nil
	})
	do.Provide(inj, func(i *do.Injector) (*realtime.Hub, error) {
		return realtime.NewHub(
			do.MustInvoke[*redis.Client](i),
			do.MustInvoke[*config.Config](i),
			do.MustInvoke[*zap.Logger](i),
		), nil
	})

	// rate limiters
	do.ProvideNamed(inj, LimiterMessages, func(i *do.Injector) (*ratelimit.Keyed, error) {
		cfg := do.MustInvoke[*config.Config](i)
		return ratelimit.New(cfg.RateLimit.MessagesPerSec, cfg.RateLimit.MessagesBurst), nil
	})
	do.ProvideNamed(inj, LimiterRelay, func(i *do.Injector) (*ratelimit.Keyed, error) {
		cfg := do.MustInvoke[*config.Config](i)
		return ratelimit.New(cfg.Push.RelayRatePerSec, cfg.Push.RelayBurst), nil
	})

	// auth provider
	do.Provide(inj, func(i *do.Injector) (gotrue.Provider, error) {
		return gotrue.New(do.MustInvoke[*config.Config](i))
	})
	do.Provide(inj, func(i *do.Injector) (*gotrue.Verifier, error) {
		cfg := do.MustInvoke[*config.Config](i)
		return gotrue.NewVerifier(cfg.Auth.JWTSecret, do.MustInvoke[gotrue.Provider](i)), nil
	})

	// Repo
	do.Provide(inj, func(i *do.Injector) (repo.ProfileRepo, error) {
		return repo.NewProfileRepo(do.MustInvoke[*gorm.DB](i)), nil
	})
	do.Provide(inj, func(i *do.Injector) (repo.SkillRepo, error) {
		return repo.NewSkillRepo(do.MustInvoke[*gorm.DB](i)), nil
	})
	do.Provide(inj, func(i *do.Injector) (repo.ProjectRepo, error) {
		return repo.NewProjectRepo(do.MustInvoke[*gorm.DB](i)), nil
	})
	do.Provide(inj, func(i *do.Injector) (repo.ResponseRepo, error) {
		return repo.NewResponseRepo(do.MustInvoke[*gorm.DB](i)), nil
	})
	do.Provide(inj, func(i *do.Injector) (repo.InvitationRepo, error) {
		return repo.NewInvitationRepo(do.MustInvoke[*gorm.DB](i)), nil
	})
	do.Provide(inj, func(i *do.Injector) (repo.ChatRepo, error) {
		return repo.NewChatRepo(do.MustInvoke[*gorm.DB](i)), nil
	})

	// Service
	do.Provide(inj, func(i *do.Injector) (*service.Events, error) {
		cfg := do.MustInvoke[*config.Config](i)
		return service.NewEvents(
			do.MustInvoke[*realtime.Publisher](i),
			do.MustInvoke[push.Enqueuer](i),
			cfg.Push.TopicPrefix,
			do.MustInvoke[*zap.Logger](i),
		), nil
	})
	do.Provide(inj, func(i *do.Injector) (service.ProfileService, error) {
		cfg := do.MustInvoke[*config.Config](i)
		return service.NewProfileService(
			do.MustInvoke[repo.ProfileRepo](i),
			do.MustInvoke[repo.SkillRepo](i),
			do.MustInvoke[*blob.S3Deps](i),
			cfg.S3.AvatarBucket,
			do.MustInvoke[*service.Events](i),
			do.MustInvoke[*zap.Logger](i),
		), nil
	})
	do.Provide(inj, func(i *do.Injector) (service.SkillService, error) {
		return service.NewSkillService(
			do.MustInvoke[repo.SkillRepo](i),
			do.MustInvoke[*service.Events](i),
		), nil
	})
	do.Provide(inj, func(i *do.Injector) (service.InvitationService, error) {
		return service.NewInvitationService(
			do.MustInvoke[repo.InvitationRepo](i),
			do.MustInvoke[repo.ChatRepo](i),
			do.MustInvoke[repo.ProfileRepo](i),
			do.MustInvoke[repo.ProjectRepo](i),
			do.MustInvoke[repo.ResponseRepo](i),
			do.MustInvoke[*service.Events](i),
			do.MustInvoke[*zap.Logger](i),
		), nil
	})
	do.Provide(inj, func(i *do.Injector) (service.ProjectService, error) {
		cfg := do.MustInvoke[*config.Config](i)
		return service.NewProjectService(
			do.MustInvoke[repo.ProjectRepo](i),
			do.MustInvoke[repo.SkillRepo](i),
			do.MustInvoke[repo.ResponseRepo](i),
			do.MustInvoke[repo.ChatRepo](i),
			do.MustInvoke[repo.InvitationRepo](i),
			do.MustInvoke[service.InvitationService](i),
			do.MustInvoke[*blob.S3Deps](i),
			cfg.S3.ProjectBucket,
			do.MustInvoke[*service.Events](i),
			do.MustInvoke[*zap.Logger](i),
		), nil
	})
	do.Provide(inj, func(i *do.Injector) (service.ChatService, error) {
		return service.NewChatService(
			do.MustInvoke[repo.ChatRepo](i),
			do.MustInvoke[repo.ProfileRepo](i),
			do.MustInvokeNamed[*ratelimit.Keyed](i, LimiterMessages),
			do.MustInvoke[*service.Events](i),
			do.MustInvoke[*zap.Logger](i),
		), nil
	})
	do.Provide(inj, func(i *do.Injector) (service.SessionObserver, error) {
		return service.NewSessionObserver(
			do.MustInvoke[service.ProfileService](i),
			do.MustInvoke[*push.TopicSyncer](i),
			do.MustInvoke[*zap.Logger](i),
		), nil
	})
	do.Provide(inj, func(i *do.Injector) (service.AuthService, error) {
		cfg := do.MustInvoke[*config.Config](i)
		return service.NewAuthService(
			do.MustInvoke[gotrue.Provider](i),
			do.MustInvoke[service.SessionObserver](i),
			do.MustInvoke[service.ProfileService](i),
			do.MustInvoke[*redis.Client](i),
			cfg.Auth.OAuthFlowTTL,
			do.MustInvoke[*zap.Logger](i),
		), nil
	})

	// Handler
	do.Provide(inj, func(i *do.Injector) (*handler.AuthHandler, error) {
		return handler.NewAuthHandler(
			do.MustInvoke[service.AuthService](i),
			do.MustInvoke[service.ProfileService](i),
		), nil
	})
	do.Provide(inj, func(i *do.Injector) (*handler.ProfileHandler, error) {
		return handler.NewProfileHandler(do.MustInvoke[service.ProfileService](i)), nil
	})
	do.Provide(inj, func(i *do.Injector) (*handler.SkillHandler, error) {
		return handler.NewSkillHandler(do.MustInvoke[service.SkillService](i)), nil
	})
	do.Provide(inj, func(i *do.Injector) (*handler.ProjectHandler, error) {
		return handler.NewProjectHandler(do.MustInvoke[service.ProjectService](i)), nil
	})
	do.Provide(inj, func(i *do.Injector) (*handler.InvitationHandler, error) {
		return handler.NewInvitationHandler(do.MustInvoke[service.InvitationService](i)), nil
	})
	do.Provide(inj, func(i *do.Injector) (*handler.ChatHandler, error) {
		return handler.NewChatHandler(do.MustInvoke[service.ChatService](i)), nil
	})
	do.Provide(inj, func(i *do.Injector) (*handler.DeviceHandler, error) {
		return handler.NewDeviceHandler(do.MustInvoke[*push.TopicSyncer](i)), nil
	})
	do.Provide(inj, func(i *do.Injector) (*handler.RealtimeHandler, error) {
		return handler.NewRealtimeHandler(do.MustInvoke[*realtime.Hub](i)), nil
	})
	do.Provide(inj, func(i *do.Injector) (*handler.RelayHandler, error) {
		cfg := do.MustInvoke[*config.Config](i)
		log := do.MustInvoke[*zap.Logger](i)
		sender, err := do.Invoke[push.Sender](i)
		if err != nil {
			log.Warn("push relay has no usable service account", zap.Error(err))
		}
		return handler.NewRelayHandler(cfg.Push.SharedSecret, sender, err, log), nil
	})

	return inj
}
