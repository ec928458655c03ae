package config

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config содержит все конфигурационные параметры приложения
type Config struct {
	App        AppConfig
	HTTP       HTTPConfig
	Database   DatabaseConfig
	Redis      RedisConfig
	Kafka      KafkaConfig
	JWT        JWTConfig
	Scheduler  SchedulerConfig
	Notifier   NotifierConfig
	Monitoring MonitoringConfig
}

// AppConfig содержит общие настройки приложения
type AppConfig struct {
	Name        string
	Context     context.Context
	Environment string
	LogLevel    string
	Debug       bool
}

// HTTPConfig содержит настройки HTTP-сервера
type HTTPConfig struct {
	Port            string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
	BasePath        string
}

// DatabaseConfig содержит настройки подключения к базе данных
type DatabaseConfig struct {
	Host         string
	Port         string
	Username     string
	Password     string
	Database     string
	SSLMode      string
	MaxOpenConns int
	MaxIdleConns int
	ConnMaxLife  time.Duration
}

// RedisConfig содержит настройки подключения к Redis
type RedisConfig struct {
	Host       string
	Port       string
	Password   string
	DB         int
	DefaultTTL time.Duration
}

// KafkaConfig содержит настройки для работы с Kafka
type KafkaConfig struct {
	Brokers []string
	Topics  KafkaTopics
}

// KafkaTopics содержит названия топиков Kafka
type KafkaTopics struct {
	ContractCreated       string
	ContractUpdated       string
	ContractDeleted       string
	ContractStatusChanged string
	ContractExpiring      string
	Counterparties        string
	Notifications         string
}

// JWTConfig содержит настройки JWT-аутентификации
type JWTConfig struct {
	Secret           string
	AccessExpiresIn  time.Duration
	RefreshExpiresIn time.Duration
	Issuer           string
}

// SchedulerConfig содержит настройки для планировщика.
// Cron-выражения шестипольные (с секундами).
type SchedulerConfig struct {
	ExpirySweepCron      string
	ExpiringReminderCron string
	WeeklyDigestCron     string
	ExpiryWarningDays    int
}

// NotifierConfig содержит настройки для сервиса уведомлений
type NotifierConfig struct {
	GroupID string
}

// MonitoringConfig содержит настройки мониторинга
type MonitoringConfig struct {
	MetricsEnabled bool
	MetricsPath    string
}

// Load загружает конфигурацию из переменных окружения
func Load() (*Config, error) {
	// Загружаем .env файл, если он существует
	_ = godotenv.Load()

	config := &Config{
		App: AppConfig{
			Name:        getEnv("APP_NAME", "contract-manager"),
			Environment: getEnv("APP_ENV", "development"),
			LogLevel:    getEnv("LOG_LEVEL", "info"),
			Debug:       getEnvAsBool("APP_DEBUG", true),
		},
		HTTP: HTTPConfig{
			Port:            getEnv("HTTP_PORT", "8080"),
			ReadTimeout:     getEnvAsDuration("HTTP_READ_TIMEOUT", 10*time.Second),
			WriteTimeout:    getEnvAsDuration("HTTP_WRITE_TIMEOUT", 20*time.Second),
			ShutdownTimeout: getEnvAsDuration("HTTP_SHUTDOWN_TIMEOUT", 5*time.Second),
			BasePath:        getEnv("HTTP_BASE_PATH", ""),
		},
		Database: DatabaseConfig{
			Host:         getEnv("DB_HOST", "localhost"),
			Port:         getEnv("DB_PORT", "5432"),
			Username:     getEnv("DB_USER", "contractuser"),
			Password:     getEnv("DB_PASSWORD", "contractpass"),
			Database:     getEnv("DB_NAME", "contracts"),
			SSLMode:      getEnv("DB_SSLMODE", "disable"),
			MaxOpenConns: getEnvAsInt("DB_MAX_OPEN_CONNS", 25),
			MaxIdleConns: getEnvAsInt("DB_MAX_IDLE_CONNS", 10),
			ConnMaxLife:  getEnvAsDuration("DB_CONN_MAX_LIFETIME", 5*time.Minute),
		},
		Redis: RedisConfig{
			Host:       getEnv("REDIS_HOST", "localhost"),
			Port:       getEnv("REDIS_PORT", "6379"),
			Password:   getEnv("REDIS_PASSWORD", ""),
			DB:         getEnvAsInt("REDIS_DB", 0),
			DefaultTTL: getEnvAsDuration("REDIS_DEFAULT_TTL", 24*time.Hour),
		},
		Kafka: KafkaConfig{
			Brokers: strings.Split(getEnv("KAFKA_BROKERS", "localhost:9092"), ","),
			Topics: KafkaTopics{
				ContractCreated:       getEnv("KAFKA_TOPIC_CONTRACT_CREATED", "contract_created"),
				ContractUpdated:       getEnv("KAFKA_TOPIC_CONTRACT_UPDATED", "contract_updated"),
				ContractDeleted:       getEnv("KAFKA_TOPIC_CONTRACT_DELETED", "contract_deleted"),
				ContractStatusChanged: getEnv("KAFKA_TOPIC_CONTRACT_STATUS_CHANGED", "contract_status_changed"),
				ContractExpiring:      getEnv("KAFKA_TOPIC_CONTRACT_EXPIRING", "contract_expiring"),
				Counterparties:        getEnv("KAFKA_TOPIC_COUNTERPARTIES", "counterparty_events"),
				Notifications:         getEnv("KAFKA_TOPIC_NOTIFICATIONS", "notifications"),
			},
		},
		JWT: JWTConfig{
			Secret:           getEnv("JWT_SECRET", "your-secret-key-change-in-production"),
			AccessExpiresIn:  getEnvAsDuration("JWT_ACCESS_EXPIRES_IN", 15*time.Minute),
			RefreshExpiresIn: getEnvAsDuration("JWT_REFRESH_EXPIRES_IN", 7*24*time.Hour),
			Issuer:           getEnv("JWT_ISSUER", "contract-manager"),
		},
		Scheduler: SchedulerConfig{
			ExpirySweepCron:      getEnv("SCHEDULER_EXPIRY_SWEEP_CRON", "0 0 * * * *"),
			ExpiringReminderCron: getEnv("SCHEDULER_EXPIRING_REMINDER_CRON", "0 0 9 * * *"),
			WeeklyDigestCron:     getEnv("SCHEDULER_WEEKLY_DIGEST_CRON", "0 0 9 * * 1"),
			ExpiryWarningDays:    getEnvAsInt("SCHEDULER_EXPIRY_WARNING_DAYS", 14),
		},
		Notifier: NotifierConfig{
			GroupID: getEnv("NOTIFIER_GROUP_ID", "notifier-group"),
		},
		Monitoring: MonitoringConfig{
			MetricsEnabled: getEnvAsBool("METRICS_ENABLED", true),
			MetricsPath:    getEnv("METRICS_PATH", "/metrics"),
		},
	}

	return config, nil
}

// DSN возвращает строку подключения к PostgreSQL
func (c *DatabaseConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.Username, c.Password, c.Database, c.SSLMode)
}

// RedisAddr возвращает адрес подключения к Redis
func (c *RedisConfig) RedisAddr() string {
	return fmt.Sprintf("%s:%s", c.Host, c.Port)
}

// Утилитарные функции для получения переменных окружения

func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseBool(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := getEnv(key, "")
	if value, err := time.ParseDuration(valueStr); err == nil {
		return value
	}
	return defaultValue
}
