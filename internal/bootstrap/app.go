package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"eventhub/internal/config"
	"eventhub/internal/platform/database"
	rabbitmqClient "eventhub/internal/platform/rabbitmq"
	redisClient "eventhub/internal/platform/redis"
	"eventhub/internal/repository"
	"eventhub/internal/worker"
)

type App struct {
	Config         *config.Config
	Logger         zerolog.Logger
	DB             *gorm.DB
	Redis          *redis.Client
	MQConn         *amqp.Connection
	ActivityWorker *worker.ActivityPersistWorker

	StartedAt time.Time
}

// New connects every backing service, migrates the schema and starts the
// activity worker. On failure everything opened so far is closed.
func New(ctx context.Context, cfg *config.Config, logger zerolog.Logger) (*App, error) {
	app := &App{Config: cfg, Logger: logger, StartedAt: time.Now()}
	if err := app.connect(ctx); err != nil {
		_ = app.Close()
		return nil, err
	}

	logger.Info().
		Str("database", cfg.DatabaseDriver()).
		Str("redis", cfg.Redis.Addr).
		Str("queue", cfg.RabbitMQ.ActivityQueue).
		Msg("dependencies ready")
	return app, nil
}

func (a *App) connect(ctx context.Context) error {
	cfg := a.Config

	db, err := OpenDatabase(ctx, cfg)
	if err != nil {
		return err
	}
	a.DB = db
	if err := database.Migrate(db); err != nil {
		return err
	}

	a.Redis, err = redisClient.New(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
	if err != nil {
		return err
	}

	a.MQConn, err = rabbitmqClient.New(ctx, cfg.RabbitMQ.URL)
	if err != nil {
		return err
	}

	activityRepo := repository.NewActivityRepository(db)
	a.ActivityWorker = worker.NewActivityPersistWorker(a.MQConn, activityRepo, cfg.RabbitMQ.ActivityQueue, a.Logger)
	if err := a.ActivityWorker.Start(ctx); err != nil {
		return fmt.Errorf("start activity worker failed: %w", err)
	}
	return nil
}

// OpenDatabase opens only the SQL handle, for commands that need nothing else.
func OpenDatabase(ctx context.Context, cfg *config.Config) (*gorm.DB, error) {
	return database.New(ctx, cfg.DatabaseDriver(), cfg.DatabaseDSN())
}

func (a *App) Close() error {
	var errs []error
	if a.ActivityWorker != nil {
		a.ActivityWorker.Close()
	}
	if a.MQConn != nil && !a.MQConn.IsClosed() {
		if err := a.MQConn.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close rabbitmq failed: %w", err))
		}
	}
	if a.Redis != nil {
		if err := a.Redis.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close redis failed: %w", err))
		}
	}
	if a.DB != nil {
		if sqlDB, err := a.DB.DB(); err == nil {
			if err := sqlDB.Close(); err != nil {
				errs = append(errs, fmt.Errorf("close database failed: %w", err))
			}
		}
	}
	return errors.Join(errs...)
}
