package service

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/nurlyy/contract_manager/internal/domain"
	"github.com/nurlyy/contract_manager/internal/messaging"
	"github.com/nurlyy/contract_manager/internal/repository"
	"github.com/nurlyy/contract_manager/internal/repository/cache"
	"github.com/nurlyy/contract_manager/pkg/logger"
)

// NotifierService превращает события из Kafka в сохраненные уведомления
type NotifierService struct {
	notificationRepo repository.NotificationRepository
	userRepo         repository.UserRepository
	contractRepo     repository.ContractRepository
	cacheRepo        *cache.RedisRepository
	consumer         *messaging.KafkaConsumer
	logger           logger.Logger
}

// NewNotifierService создает новый экземпляр сервиса уведомлений
func NewNotifierService(
	notificationRepo repository.NotificationRepository,
	userRepo repository.UserRepository,
	contractRepo repository.ContractRepository,
	cacheRepo *cache.RedisRepository,
	consumer *messaging.KafkaConsumer,
	logger logger.Logger,
) *NotifierService {
	return &NotifierService{
		notificationRepo: notificationRepo,
		userRepo:         userRepo,
		contractRepo:     contractRepo,
		cacheRepo:        cacheRepo,
		consumer:         consumer,
		logger:           logger,
	}
}

// Start запускает чтение событий уведомлений
func (s *NotifierService) Start(ctx context.Context) error {
	s.logger.Info("Starting notifier service")

	go s.consume(ctx)

	return nil
}

// Stop останавливает сервис уведомлений
func (s *NotifierService) Stop() error {
	s.logger.Info("Stopping notifier service")
	return s.consumer.Close()
}

// consume читает события уведомлений из Kafka до отмены контекста
func (s *NotifierService) consume(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			s.logger.Info("Notification consumer stopped")
			return
		default:
		}

		message, err := s.consumer.ReadMessage(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) {
				return
			}
			s.logger.Error("Failed to read notification message", err)
			continue
		}

		if err := s.processEvent(ctx, message); err != nil {
			s.logger.Error("Failed to process notification event", err, map[string]interface{}{
				"partition": message.Partition,
				"offset":    message.Offset,
			})
		}
	}
}

// processEvent сохраняет уведомления для всех получателей события
func (s *NotifierService) processEvent(ctx context.Context, message *messaging.Message) error {
	var event messaging.NotificationEvent
	if err := s.consumer.ParseMessage(message, &event); err != nil {
		return err
	}

	notificationType := domain.NotificationType(event.Type)
	createdAt := event.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}

	notifications := make([]*domain.Notification, 0, len(event.UserIDs))
	for _, userID := range event.UserIDs {
		user, err := s.userRepo.GetByID(ctx, userID)
		if err != nil {
			s.logger.Error("Failed to get notification recipient", err, map[string]interface{}{
				"user_id": userID,
			})
			continue
		}
		if user == nil || !user.IsActive {
			continue
		}

		enabled, err := s.webEnabledFor(ctx, userID, notificationType)
		if err != nil {
			s.logger.Error("Failed to get notification settings", err, map[string]interface{}{
				"user_id": userID,
			})
			continue
		}
		if !enabled {
			continue
		}

		notifications = append(notifications, &domain.Notification{
			ID:         uuid.New().String(),
			UserID:     userID,
			Type:       notificationType,
			Title:      event.Title,
			Content:    event.Content,
			Status:     domain.NotificationStatusUnread,
			EntityID:   event.EntityID,
			EntityType: event.EntityType,
			MetaData:   s.enrichMetaData(ctx, &event),
			CreatedAt:  createdAt,
		})
	}

	if len(notifications) == 0 {
		return nil
	}

	if err := s.notificationRepo.CreateBatch(ctx, notifications); err != nil {
		return err
	}

	for _, notification := range notifications {
		if err := s.cacheRepo.InvalidateNotifications(ctx, notification.UserID); err != nil {
			s.logger.Warn("Failed to invalidate notifications cache", map[string]interface{}{
				"user_id": notification.UserID,
				"error":   err.Error(),
			})
		}
	}

	s.logger.Debug("Notifications stored", map[string]interface{}{
		"type":  event.Type,
		"count": len(notifications),
	})

	return nil
}

// webEnabledFor проверяет, включена ли web-доставка уведомлений данного типа.
// При отсутствии сохраненных настроек доставка включена.
func (s *NotifierService) webEnabledFor(ctx context.Context, userID string, notificationType domain.NotificationType) (bool, error) {
	settings, err := s.notificationRepo.GetUserNotificationSettings(ctx, userID)
	if err != nil {
		return false, err
	}

	for _, setting := range settings {
		if setting.NotificationType == notificationType {
			return setting.WebEnabled, nil
		}
	}

	return true, nil
}

// enrichMetaData дополняет метаданные события актуальными данными контракта
func (s *NotifierService) enrichMetaData(ctx context.Context, event *messaging.NotificationEvent) map[string]string {
	metaData := event.MetaData
	if metaData == nil {
		metaData = make(map[string]string)
	}

	if event.EntityType != "contract" || event.EntityID == "" {
		return metaData
	}

	contractID, err := strconv.ParseInt(event.EntityID, 10, 64)
	if err != nil {
		return metaData
	}

	contract, err := s.contractRepo.GetByID(ctx, contractID)
	if err != nil || contract == nil {
		return metaData
	}

	metaData["contract_name"] = contract.Name
	metaData["contract_status"] = string(contract.Status)

	return metaData
}
