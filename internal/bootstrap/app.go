package bootstrap

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"identity-service/internal/config"
	"identity-service/internal/logging"
	"identity-service/internal/platform/database"
	rabbitmqClient "identity-service/internal/platform/rabbitmq"
	redisClient "identity-service/internal/platform/redis"
)

// App owns the process-wide handles. Redis and MQConn are nil when their
// section is not configured.
type App struct {
	Config *config.Config
	Logger *slog.Logger
	DB     *gorm.DB
	Redis  *redis.Client
	MQConn *amqp.Connection

	StartedAt time.Time
}

func New(ctx context.Context, args []string) (*App, error) {
	cfg, err := config.Load(args)
	if err != nil {
		return nil, fmt.Errorf("load config failed: %w", err)
	}
	return NewWithConfig(ctx, cfg, logging.New(os.Stdout, cfg.App.LogLevel, cfg.App.LogFormat))
}

// NewWithConfig opens every configured dependency. Resources opened before
// a failure are released.
func NewWithConfig(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	app := &App{
		Config:    cfg,
		Logger:    logger,
		StartedAt: time.Now(),
	}

	db, err := database.New(ctx, cfg.Storage)
	if err != nil {
		return nil, err
	}
	app.DB = db
	logger.Info("storage ready", "driver", cfg.Storage.Driver)

	if cfg.Redis.Addr != "" {
		redisCli, err := redisClient.New(ctx, cfg.Redis)
		if err != nil {
			_ = app.Close()
			return nil, err
		}
		app.Redis = redisCli
		logger.Info("redis user cache enabled", "addr", cfg.Redis.Addr)
	}

	if cfg.RabbitMQ.URL != "" {
		mqConn, err := rabbitmqClient.New(ctx, cfg.RabbitMQ.URL, cfg.RabbitMQ.Exchange)
		if err != nil {
			_ = app.Close()
			return nil, err
		}
		app.MQConn = mqConn
		logger.Info("rabbitmq user events enabled", "exchange", cfg.RabbitMQ.Exchange)
	}

	return app, nil
}

func (a *App) Close() error {
	var closeErr error
	if a.Redis != nil {
		if err := a.Redis.Close(); err != nil {
			closeErr = err
		}
	}
	if a.MQConn != nil {
		if err := a.MQConn.Close(); err != nil {
			closeErr = err
		}
	}
	if a.DB != nil {
		if err := database.Close(a.DB); err != nil {
			closeErr = err
		}
	}
	return closeErr
}
