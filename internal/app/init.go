package app

import (
	"context"
	"fmt"

	"github.com/nurlyy/contract_manager/internal/messaging"
	"github.com/nurlyy/contract_manager/internal/repository/cache"
	"github.com/nurlyy/contract_manager/internal/repository/postgres"
	redisClient "github.com/nurlyy/contract_manager/pkg/cache"
	"github.com/nurlyy/contract_manager/pkg/config"
	"github.com/nurlyy/contract_manager/pkg/database"
	"github.com/nurlyy/contract_manager/pkg/logger"
	kafkawrap "github.com/nurlyy/contract_manager/pkg/messaging"
	"github.com/nurlyy/contract_manager/pkg/metrics"
)

// Repositories содержит все репозитории для работы с хранилищами данных
type Repositories struct {
	ContractRepository     *postgres.ContractRepository
	CounterpartyRepository *postgres.CounterpartyRepository
	UserRepository         *postgres.UserRepository
	NotificationRepository *postgres.NotificationRepository
	CacheRepository        *cache.RedisRepository
}

// Messaging содержит все клиенты для работы с сообщениями
type Messaging struct {
	Producer *messaging.KafkaProducer
}

// Application содержит все компоненты приложения
type Application struct {
	Config       *config.Config
	Postgres     *database.Postgres
	Redis        *redisClient.Redis
	Logger       logger.Logger
	Metrics      *metrics.Metrics
	Repositories *Repositories
	Messaging    *Messaging
}

// NewApplication создает новое приложение с инициализированными компонентами
func NewApplication(ctx context.Context, cfg *config.Config, log logger.Logger) (*Application, error) {
	postgresDB, err := initPostgres(ctx, &cfg.Database, log)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize PostgreSQL: %w", err)
	}

	redisCache, err := initRedis(ctx, &cfg.Redis, log)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize Redis: %w", err)
	}

	appMetrics := metrics.NewMetrics(&cfg.Monitoring)

	repos := initRepositories(postgresDB, redisCache, log, cfg)

	msgClients := initMessaging(cfg, appMetrics, log)

	return &Application{
		Config:       cfg,
		Postgres:     postgresDB,
		Redis:        redisCache,
		Logger:       log,
		Metrics:      appMetrics,
		Repositories: repos,
		Messaging:    msgClients,
	}, nil
}

// Close закрывает все соединения с внешними сервисами
func (app *Application) Close() {
	if app.Messaging != nil && app.Messaging.Producer != nil {
		if err := app.Messaging.Producer.Close(); err != nil {
			app.Logger.Error("Error closing Kafka producer", err)
		}
	}

	if app.Redis != nil {
		if err := app.Redis.Close(); err != nil {
			app.Logger.Error("Error closing Redis connection", err)
		}
	}

	if app.Postgres != nil {
		if err := app.Postgres.Close(); err != nil {
			app.Logger.Error("Error closing PostgreSQL connection", err)
		}
	}
}

// Инициализация PostgreSQL
func initPostgres(ctx context.Context, cfg *config.DatabaseConfig, log logger.Logger) (*database.Postgres, error) {
	return database.NewPostgres(ctx, cfg, log)
}

// Инициализация Redis
func initRedis(ctx context.Context, cfg *config.RedisConfig, log logger.Logger) (*redisClient.Redis, error) {
	return redisClient.NewRedis(ctx, cfg, log)
}

// Инициализация репозиториев
func initRepositories(db *database.Postgres, redis *redisClient.Redis, log logger.Logger, cfg *config.Config) *Repositories {
	contractRepo := postgres.NewContractRepository(db, log)
	counterpartyRepo := postgres.NewCounterpartyRepository(db, log)
	userRepo := postgres.NewUserRepository(db, log)
	notificationRepo := postgres.NewNotificationRepository(db, log)

	cacheRepo := cache.NewRedisRepository(redis.Client, log, cfg.Redis.DefaultTTL)

	return &Repositories{
		ContractRepository:     contractRepo,
		CounterpartyRepository: counterpartyRepo,
		UserRepository:         userRepo,
		NotificationRepository: notificationRepo,
		CacheRepository:        cacheRepo,
	}
}

// Инициализация Kafka
func initMessaging(cfg *config.Config, appMetrics *metrics.Metrics, log logger.Logger) *Messaging {
	producer := kafkawrap.NewKafkaProducer(&cfg.Kafka, log)

	return &Messaging{
		Producer: messaging.NewKafkaProducer(producer, cfg.Kafka.Topics, appMetrics, log),
	}
}
