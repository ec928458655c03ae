package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/nurlyy/contract_manager/internal/app"
	"github.com/nurlyy/contract_manager/internal/service"
	"github.com/nurlyy/contract_manager/pkg/config"
	"github.com/nurlyy/contract_manager/pkg/logger"
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
	log.Info("Starting scheduler service", map[string]interface{}{
		"app_name": cfg.App.Name,
		"env":      cfg.App.Environment,
	})

	application, err := app.NewApplication(ctx, cfg, log)
	if err != nil {
		log.Fatal("Failed to initialize application", err)
	}
	defer application.Close()

	appMetrics := application.Metrics

	schedulerService := service.NewSchedulerService(
		application.Repositories.ContractRepository,
		application.Repositories.UserRepository,
		application.Repositories.NotificationRepository,
		application.Repositories.CacheRepository,
		application.Messaging.Producer,
		&cfg.Scheduler,
		appMetrics,
		log,
	)

	if err := schedulerService.Start(ctx); err != nil {
		log.Fatal("Failed to start scheduler service", err)
	}

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	<-stop
	log.Info("Shutting down scheduler service")

	// Даем запущенным задачам время завершиться
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := schedulerService.Stop(shutdownCtx); err != nil {
		log.Error("Scheduler shutdown error", err)
	}

	log.Info("Scheduler service stopped")
}
