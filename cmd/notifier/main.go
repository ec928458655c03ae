package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/nurlyy/contract_manager/internal/app"
	"github.com/nurlyy/contract_manager/internal/messaging"
	"github.com/nurlyy/contract_manager/internal/service"
	"github.com/nurlyy/contract_manager/pkg/config"
	"github.com/nurlyy/contract_manager/pkg/logger"
	kafkawrap "github.com/nurlyy/contract_manager/pkg/messaging"
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
	log.Info("Starting notifier service", map[string]interface{}{
		"app_name": cfg.App.Name,
		"env":      cfg.App.Environment,
	})

	application, err := app.NewApplication(ctx, cfg, log)
	if err != nil {
		log.Fatal("Failed to initialize application", err)
	}
	defer application.Close()

	// Топик должен существовать до подключения consumer group
	topics := []string{cfg.Kafka.Topics.Notifications}
	if err := kafkawrap.CreateTopics(ctx, cfg.Kafka.Brokers, topics, log); err != nil {
		log.Warn("Failed to create Kafka topics", map[string]interface{}{
			"error": err.Error(),
		})
	}

	consumer := messaging.NewKafkaConsumer(
		kafkawrap.NewKafkaConsumer(cfg.Kafka.Topics.Notifications, cfg.Notifier.GroupID, &cfg.Kafka, log),
		log,
	)

	notifierService := service.NewNotifierService(
		application.Repositories.NotificationRepository,
		application.Repositories.UserRepository,
		application.Repositories.ContractRepository,
		application.Repositories.CacheRepository,
		consumer,
		log,
	)

	if err := notifierService.Start(ctx); err != nil {
		log.Fatal("Failed to start notifier service", err)
	}

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	<-stop
	log.Info("Shutting down notifier service")

	cancel()

	if err := notifierService.Stop(); err != nil {
		log.Error("Error stopping notifier service", err)
	}

	log.Info("Notifier service stopped")
}
