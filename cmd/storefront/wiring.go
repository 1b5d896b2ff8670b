package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/nikolayk812/storefront/internal/config"
	"github.com/nikolayk812/storefront/internal/notify"
	"github.com/nikolayk812/storefront/internal/port"
	"github.com/nikolayk812/storefront/internal/repository"
)

// openCartRepository connects the configured cart backend. The returned func
// releases its connections.
func openCartRepository(ctx context.Context, cfg config.StorageConfig, logger *slog.Logger) (port.CartRepository, func(), error) {
	noop := func() {}

	switch cfg.Backend {
	case "memory":
		logger.Warn("carts are kept in memory and are lost on restart")
		return repository.NewMemory(), noop, nil

	case "file":
		repo, err := repository.NewFile(cfg.File.Dir)
		if err != nil {
			return nil, nil, fmt.Errorf("repository.NewFile: %w", err)
		}
		return repo, noop, nil

	case "postgres":
		if err := repository.Migrate(cfg.Postgres.URL); err != nil {
			return nil, nil, fmt.Errorf("repository.Migrate: %w", err)
		}

		pool, err := repository.ConnectPostgres(ctx, cfg.Postgres.URL)
		if err != nil {
			return nil, nil, fmt.Errorf("repository.ConnectPostgres: %w", err)
		}
		return repository.NewCart(pool), pool.Close, nil

	case "redis":
		client, err := repository.ConnectRedis(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		if err != nil {
			return nil, nil, fmt.Errorf("repository.ConnectRedis: %w", err)
		}
		return repository.NewRedis(client, cfg.Redis.TTL), func() { _ = client.Close() }, nil

	case "mongo":
		db, err := repository.ConnectMongo(ctx, cfg.Mongo.URI, cfg.Mongo.Database)
		if err != nil {
			return nil, nil, fmt.Errorf("repository.ConnectMongo: %w", err)
		}
		closeMongo := func() { _ = db.Client().Disconnect(context.Background()) }

		if cfg.Mongo.TTL > 0 {
			if err := repository.CreateMongoIndexes(ctx, db, cfg.Mongo.TTL); err != nil {
				closeMongo()
				return nil, nil, fmt.Errorf("repository.CreateMongoIndexes: %w", err)
			}
		}
		return repository.NewMongo(db), closeMongo, nil

	default:
		return nil, nil, fmt.Errorf("storage backend[%s] is not supported", cfg.Backend)
	}
}

// openNotifier combines the configured confirmation channels. It returns a nil
// notifier when none is configured.
func openNotifier(mail config.MailConfig, kafka config.KafkaConfig, mq config.AMQPConfig) (port.Notifier, func(), error) {
	var (
		notifiers notify.Multi
		closers   []func()
	)
	closeAll := func() {
		for _, c := range closers {
			c()
		}
	}

	if mail.URL != "" {
		mailer, err := notify.NewMailer(mail.URL)
		if err != nil {
			return nil, nil, fmt.Errorf("notify.NewMailer: %w", err)
		}
		notifiers = append(notifiers, mailer)
	}

	if len(kafka.Brokers) > 0 {
		publisher, err := notify.NewKafkaPublisher(kafka.Topic, kafka.Brokers...)
		if err != nil {
			return nil, nil, fmt.Errorf("notify.NewKafkaPublisher: %w", err)
		}
		notifiers = append(notifiers, publisher)
		closers = append(closers, func() { _ = publisher.Close() })
	}

	if mq.URL != "" {
		publisher, err := notify.NewAMQPPublisher(mq.URL, mq.Queue)
		if err != nil {
			closeAll()
			return nil, nil, fmt.Errorf("notify.NewAMQPPublisher: %w", err)
		}
		notifiers = append(notifiers, publisher)
		closers = append(closers, func() { _ = publisher.Close() })
	}

	switch len(notifiers) {
	case 0:
		return nil, closeAll, nil
	case 1:
		return notifiers[0], closeAll, nil
	default:
		return notifiers, closeAll, nil
	}
}
