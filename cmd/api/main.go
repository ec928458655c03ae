package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/nurlyy/contract_manager/internal/api"
	"github.com/nurlyy/contract_manager/internal/app"
	"github.com/nurlyy/contract_manager/internal/service"
	"github.com/nurlyy/contract_manager/pkg/auth"
	"github.com/nurlyy/contract_manager/pkg/config"
	"github.com/nurlyy/contract_manager/pkg/logger"
	kafkawrap "github.com/nurlyy/contract_manager/pkg/messaging"
	"github.com/nurlyy/contract_manager/pkg/validator"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}
	cfg.App.Context = ctx

	log := logger.NewLogger(cfg.App.LogLevel, cfg.App.Environment == "production")
	log.Info("Starting API server", map[string]interface{}{
		"app_name": cfg.App.Name,
		"env":      cfg.App.Environment,
	})

	application, err := app.NewApplication(ctx, cfg, log)
	if err != nil {
		log.Fatal("Failed to initialize application", err)
	}
	defer application.Close()

	if err := application.Postgres.Ping(ctx); err != nil {
		log.Fatal("Failed to ping database", err)
	}

	// Топики должны существовать до первой публикации
	topics := []string{
		cfg.Kafka.Topics.ContractCreated,
		cfg.Kafka.Topics.ContractUpdated,
		cfg.Kafka.Topics.ContractDeleted,
		cfg.Kafka.Topics.ContractStatusChanged,
		cfg.Kafka.Topics.ContractExpiring,
		cfg.Kafka.Topics.Counterparties,
		cfg.Kafka.Topics.Notifications,
	}
	if err := kafkawrap.CreateTopics(ctx, cfg.Kafka.Brokers, topics, log); err != nil {
		log.Warn("Failed to create Kafka topics", map[string]interface{}{
			"error": err.Error(),
		})
	}

	jwtManager := auth.NewJWTManager(&cfg.JWT)
	customValidator := validator.NewValidator()
	appMetrics := application.Metrics

	repos := application.Repositories
	producer := application.Messaging.Producer

	userService := service.NewUserService(repos.UserRepository, jwtManager, repos.CacheRepository, log)
	contractService := service.NewContractService(
		repos.ContractRepository,
		repos.CounterpartyRepository,
		repos.UserRepository,
		repos.CacheRepository,
		producer,
		appMetrics,
		log,
	)
	counterpartyService := service.NewCounterpartyService(
		repos.CounterpartyRepository,
		repos.ContractRepository,
		repos.CacheRepository,
		producer,
		log,
	)
	notificationService := service.NewNotificationService(
		repos.NotificationRepository,
		repos.UserRepository,
		repos.CacheRepository,
		log,
	)

	server := api.NewServer(cfg, log, jwtManager, customValidator, appMetrics, application.Redis.Client, &api.Services{
		UserService:         userService,
		ContractService:     contractService,
		CounterpartyService: counterpartyService,
		NotificationService: notificationService,
	})

	go func() {
		if err := server.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("HTTP server error", err)
			cancel()
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-quit:
		log.Info("Shutting down server...")
	case <-ctx.Done():
		log.Info("Shutting down server due to context cancellation...")
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("Server shutdown error", err)
	}

	log.Info("Server gracefully stopped")
}
