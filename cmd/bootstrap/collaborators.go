package bootstrap

import (
	"context"

	"github.com/redis/go-redis/v9"
	"go.uber.org/fx"

	"support-center/internal/infra/mail"
	"support-center/internal/infra/sweeplock"
	"support-center/internal/infra/ticket"
	"support-center/internal/pkg/config"
	"support-center/internal/usecase/shared"
)

// CollaboratorsModule wires the outbound adapters: redis for the sweep
// lock, kafka for ticket events, SMTP for customer mail.
var CollaboratorsModule = fx.Module("collaborators",
	fx.Provide(
		NewRedisClient,
		NewSweepLock,
		fx.Annotate(
			NewTicketGateway,
			fx.As(new(shared.TicketGateway)),
		),
		fx.Annotate(
			func(cfg config.Config) *mail.SMTPMailer { return mail.NewSMTPMailer(cfg.SMTP) },
			fx.As(new(shared.Mailer)),
		),
	),
)

func NewRedisClient(lc fx.Lifecycle, cfg config.Config) *redis.Client {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})

	lc.Append(fx.Hook{
		OnStop: func(_ context.Context) error {
			return client.Close()
		},
	})

	return client
}

func NewSweepLock(client *redis.Client, cfg config.Config) *sweeplock.RedisLock {
	return sweeplock.NewRedisLock(client, cfg.Scheduler.SweepLockTTL)
}

func NewTicketGateway(lc fx.Lifecycle, cfg config.Config) *ticket.KafkaGateway {
	gateway := ticket.NewKafkaGateway(cfg.Kafka)

	lc.Append(fx.Hook{
		OnStop: func(_ context.Context) error {
			return gateway.Close()
		},
	})

	return gateway
}
