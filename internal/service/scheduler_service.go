package service

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/nurlyy/contract_manager/internal/domain"
	"github.com/nurlyy/contract_manager/internal/messaging"
	"github.com/nurlyy/contract_manager/internal/repository"
	"github.com/nurlyy/contract_manager/internal/repository/cache"
	"github.com/nurlyy/contract_manager/pkg/config"
	"github.com/nurlyy/contract_manager/pkg/logger"
	"github.com/nurlyy/contract_manager/pkg/metrics"
)

// schedulerActor - идентификатор планировщика в событиях и аудите
const schedulerActor = "scheduler"

// expirySweepLockTTL - время удержания блокировки на время прохода по контрактам
const expirySweepLockTTL = 10 * time.Minute

// SchedulerService выполняет периодические задачи по контрактам
type SchedulerService struct {
	contractRepo     repository.ContractRepository
	userRepo         repository.UserRepository
	notificationRepo repository.NotificationRepository
	cacheRepo        *cache.RedisRepository
	producer         *messaging.KafkaProducer
	cron             *cron.Cron
	config           *config.SchedulerConfig
	metrics          *metrics.Metrics
	logger           logger.Logger
}

// NewSchedulerService создает новый экземпляр сервиса планировщика
func NewSchedulerService(
	contractRepo repository.ContractRepository,
	userRepo repository.UserRepository,
	notificationRepo repository.NotificationRepository,
	cacheRepo *cache.RedisRepository,
	producer *messaging.KafkaProducer,
	cfg *config.SchedulerConfig,
	metrics *metrics.Metrics,
	logger logger.Logger,
) *SchedulerService {
	return &SchedulerService{
		contractRepo:     contractRepo,
		userRepo:         userRepo,
		notificationRepo: notificationRepo,
		cacheRepo:        cacheRepo,
		producer:         producer,
		cron:             cron.New(cron.WithSeconds()),
		config:           cfg,
		metrics:          metrics,
		logger:           logger,
	}
}

// Start запускает планировщик
func (s *SchedulerService) Start(ctx context.Context) error {
	s.logger.Info("Starting scheduler service")

	if err := s.registerJobs(); err != nil {
		return err
	}

	s.cron.Start()

	go func() {
		<-ctx.Done()
		s.cron.Stop()
	}()

	return nil
}

// Stop останавливает планировщик и дожидается завершения запущенных задач
func (s *SchedulerService) Stop(ctx context.Context) error {
	s.logger.Info("Stopping scheduler service")

	stopCtx := s.cron.Stop()
	select {
	case <-stopCtx.Done():
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// registerJobs регистрирует периодические задачи
func (s *SchedulerService) registerJobs() error {
	if _, err := s.cron.AddFunc(s.config.ExpirySweepCron, s.markExpiredContracts); err != nil {
		return fmt.Errorf("failed to schedule expiry sweep: %w", err)
	}

	if _, err := s.cron.AddFunc(s.config.ExpiringReminderCron, s.sendExpiringReminders); err != nil {
		return fmt.Errorf("failed to schedule expiring reminders: %w", err)
	}

	if _, err := s.cron.AddFunc(s.config.WeeklyDigestCron, s.sendWeeklyDigests); err != nil {
		return fmt.Errorf("failed to schedule weekly digest: %w", err)
	}

	return nil
}

// markExpiredContracts переводит действующие контракты с истекшим сроком в статус expired
func (s *SchedulerService) markExpiredContracts() {
	ctx := context.Background()
	s.logger.Info("Running contract expiry sweep")

	// Одновременно проход выполняет только один экземпляр планировщика
	acquired, err := s.cacheRepo.AcquireLock(ctx, "expiry_sweep", expirySweepLockTTL)
	if err != nil {
		s.logger.Error("Failed to acquire expiry sweep lock", err)
		return
	}
	if !acquired {
		s.logger.Info("Expiry sweep is already running, skipping")
		return
	}
	defer func() {
		if err := s.cacheRepo.ReleaseLock(ctx, "expiry_sweep"); err != nil {
			s.logger.Warn("Failed to release expiry sweep lock", map[string]interface{}{
				"error": err.Error(),
			})
		}
	}()

	contracts, err := s.contractRepo.GetExpired(ctx)
	if err != nil {
		s.logger.Error("Failed to get expired contracts", err)
		return
	}

	expired := 0
	for _, contract := range contracts {
		updated, err := s.contractRepo.UpdateStatus(ctx, contract.ID, domain.ContractStatusExpired, schedulerActor)
		if err != nil {
			s.logger.Error("Failed to mark contract as expired", err, map[string]interface{}{
				"contract_id": contract.ID,
			})
			continue
		}
		expired++

		if s.metrics != nil {
			s.metrics.IncContractsExpired()
		}

		if err := s.cacheRepo.InvalidateContract(ctx, contract.ID); err != nil {
			s.logger.Warn("Failed to invalidate contract cache", map[string]interface{}{
				"contract_id": contract.ID,
				"error":       err.Error(),
			})
		}

		if err := s.producer.PublishContractExpired(ctx, updated); err != nil {
			s.logger.Warn("Failed to publish contract expired event", map[string]interface{}{
				"contract_id": contract.ID,
				"error":       err.Error(),
			})
		}

		s.notifyContractExpired(ctx, updated)
	}

	if err := s.cacheRepo.InvalidateContractLists(ctx); err != nil {
		s.logger.Warn("Failed to invalidate contract list cache", map[string]interface{}{
			"error": err.Error(),
		})
	}

	s.logger.Info("Contract expiry sweep completed", map[string]interface{}{
		"checked": len(contracts),
		"expired": expired,
	})
}

// sendExpiringReminders отправляет напоминания о контрактах, срок которых скоро истечет
func (s *SchedulerService) sendExpiringReminders() {
	ctx := context.Background()
	s.logger.Info("Running expiring contracts check")

	contracts, err := s.contractRepo.GetExpiring(ctx, s.config.ExpiryWarningDays)
	if err != nil {
		s.logger.Error("Failed to get expiring contracts", err)
		return
	}

	sent := 0
	for _, contract := range contracts {
		if contract.EndDate == nil {
			continue
		}

		recipient := contract.CreatedBy
		if contract.ManagerID != nil {
			recipient = *contract.ManagerID
		}

		exists, err := s.hasNotification(ctx, recipient, contract.ID, domain.NotificationTypeContractExpiring)
		if err != nil {
			s.logger.Error("Failed to check existing notifications", err, map[string]interface{}{
				"contract_id": contract.ID,
			})
			continue
		}
		if exists {
			continue
		}

		daysLeft := int(time.Until(*contract.EndDate).Hours() / 24)

		if err := s.producer.PublishContractExpiring(ctx, contract, daysLeft); err != nil {
			s.logger.Warn("Failed to publish contract expiring event", map[string]interface{}{
				"contract_id": contract.ID,
				"error":       err.Error(),
			})
		}

		event := &messaging.NotificationEvent{
			UserIDs:    []string{recipient},
			Title:      "Contract is expiring soon",
			Content:    fmt.Sprintf("Contract \"%s\" expires in %d days", contract.Name, daysLeft),
			Type:       string(domain.NotificationTypeContractExpiring),
			EntityID:   strconv.FormatInt(contract.ID, 10),
			EntityType: "contract",
			CreatedAt:  time.Now(),
			MetaData: map[string]string{
				"contract_id":   strconv.FormatInt(contract.ID, 10),
				"contract_name": contract.Name,
				"end_date":      contract.EndDate.Format(time.RFC3339),
				"days_left":     strconv.Itoa(daysLeft),
			},
		}

		if err := s.producer.PublishNotification(ctx, event); err != nil {
			s.logger.Warn("Failed to publish expiring notification", map[string]interface{}{
				"contract_id": contract.ID,
				"error":       err.Error(),
			})
			continue
		}
		sent++
	}

	s.logger.Info("Expiring contracts check completed", map[string]interface{}{
		"expiring": len(contracts),
		"notified": sent,
	})
}

// sendWeeklyDigests отправляет менеджерам еженедельную сводку по их контрактам
func (s *SchedulerService) sendWeeklyDigests() {
	ctx := context.Background()
	s.logger.Info("Running weekly digest task")

	managers, err := s.userRepo.GetByRoles(ctx, []domain.UserRole{domain.UserRoleManager, domain.UserRoleLawyer})
	if err != nil {
		s.logger.Error("Failed to get managers for weekly digest", err)
		return
	}

	sent := 0
	for _, manager := range managers {
		contracts, err := s.contractRepo.GetByManager(ctx, manager.ID, repository.ContractFilter{})
		if err != nil {
			s.logger.Error("Failed to get manager contracts", err, map[string]interface{}{
				"user_id": manager.ID,
			})
			continue
		}
		if len(contracts) == 0 {
			continue
		}

		content := formatWeeklyDigest(contracts, s.config.ExpiryWarningDays)

		event := &messaging.NotificationEvent{
			UserIDs:    []string{manager.ID},
			Title:      "Weekly contracts digest",
			Content:    content,
			Type:       string(domain.NotificationTypeDigest),
			EntityID:   manager.ID,
			EntityType: "user",
			CreatedAt:  time.Now(),
			MetaData: map[string]string{
				"contract_count": strconv.Itoa(len(contracts)),
			},
		}

		if err := s.producer.PublishNotification(ctx, event); err != nil {
			s.logger.Warn("Failed to publish digest notification", map[string]interface{}{
				"user_id": manager.ID,
				"error":   err.Error(),
			})
			continue
		}
		sent++
	}

	s.logger.Info("Weekly digest task completed", map[string]interface{}{
		"managers": len(managers),
		"sent":     sent,
	})
}

// hasNotification проверяет, было ли уже отправлено уведомление данного типа по контракту
func (s *SchedulerService) hasNotification(ctx context.Context, userID string, contractID int64, notificationType domain.NotificationType) (bool, error) {
	entityID := strconv.FormatInt(contractID, 10)
	entityType := "contract"

	filter := repository.NotificationFilter{
		Types:      []domain.NotificationType{notificationType},
		EntityID:   &entityID,
		EntityType: &entityType,
		Limit:      1,
	}

	existing, err := s.notificationRepo.GetUserNotifications(ctx, userID, filter)
	if err != nil {
		return false, err
	}

	return len(existing) > 0, nil
}

// notifyContractExpired отправляет уведомление об истечении срока контракта
func (s *SchedulerService) notifyContractExpired(ctx context.Context, contract *domain.Contract) {
	recipients := []string{contract.CreatedBy}
	if contract.ManagerID != nil && *contract.ManagerID != contract.CreatedBy {
		recipients = append(recipients, *contract.ManagerID)
	}

	endDate := ""
	if contract.EndDate != nil {
		endDate = contract.EndDate.Format(time.RFC3339)
	}

	event := &messaging.NotificationEvent{
		UserIDs:    recipients,
		Title:      "Contract expired",
		Content:    fmt.Sprintf("Contract \"%s\" has expired", contract.Name),
		Type:       string(domain.NotificationTypeContractExpired),
		EntityID:   strconv.FormatInt(contract.ID, 10),
		EntityType: "contract",
		CreatedAt:  time.Now(),
		MetaData: map[string]string{
			"contract_id":   strconv.FormatInt(contract.ID, 10),
			"contract_name": contract.Name,
			"end_date":      endDate,
		},
	}

	if err := s.producer.PublishNotification(ctx, event); err != nil {
		s.logger.Warn("Failed to publish expired notification", map[string]interface{}{
			"contract_id": contract.ID,
			"error":       err.Error(),
		})
	}
}

// formatWeeklyDigest формирует текст еженедельной сводки по контрактам
func formatWeeklyDigest(contracts []*domain.Contract, warningDays int) string {
	var active, expiring, expired, draft int

	for _, contract := range contracts {
		switch contract.Status {
		case domain.ContractStatusActive:
			active++
			if contract.ExpiresWithin(warningDays) {
				expiring++
			}
		case domain.ContractStatusExpired:
			expired++
		case domain.ContractStatusDraft, domain.ContractStatusOnReview:
			draft++
		}
	}

	digest := fmt.Sprintf("You manage %d contracts:\n", len(contracts))
	digest += fmt.Sprintf("- %d active\n", active)
	digest += fmt.Sprintf("- %d expiring within %d days\n", expiring, warningDays)
	digest += fmt.Sprintf("- %d expired\n", expired)
	digest += fmt.Sprintf("- %d in draft or review\n", draft)

	return digest
}
