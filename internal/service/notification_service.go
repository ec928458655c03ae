package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/nurlyy/contract_manager/internal/domain"
	"github.com/nurlyy/contract_manager/internal/repository"
	"github.com/nurlyy/contract_manager/internal/repository/cache"
	"github.com/nurlyy/contract_manager/pkg/logger"
)

// defaultNotificationPageSize - размер страницы уведомлений по умолчанию
const defaultNotificationPageSize = 20

// NotificationService представляет бизнес-логику для работы с уведомлениями
type NotificationService struct {
	repo      repository.NotificationRepository
	userRepo  repository.UserRepository
	cacheRepo *cache.RedisRepository
	logger    logger.Logger
}

// NewNotificationService создает новый экземпляр NotificationService.
// Кэш опционален: при nil сервис работает только с хранилищем.
func NewNotificationService(
	repo repository.NotificationRepository,
	userRepo repository.UserRepository,
	cacheRepo *cache.RedisRepository,
	logger logger.Logger,
) *NotificationService {
	return &NotificationService{
		repo:      repo,
		userRepo:  userRepo,
		cacheRepo: cacheRepo,
		logger:    logger,
	}
}

// Create создает новое уведомление
func (s *NotificationService) Create(ctx context.Context, req domain.NotificationCreateRequest) (*domain.NotificationResponse, error) {
	user, err := s.userRepo.GetByID(ctx, req.UserID)
	if err != nil {
		s.logger.Error("Failed to get user for notification", err, map[string]interface{}{
			"user_id": req.UserID,
		})
		return nil, err
	}
	if user == nil {
		return nil, domain.ErrUserNotFound
	}

	notification := &domain.Notification{
		ID:         uuid.New().String(),
		UserID:     req.UserID,
		Type:       req.Type,
		Title:      req.Title,
		Content:    req.Content,
		Status:     domain.NotificationStatusUnread,
		EntityID:   req.EntityID,
		EntityType: req.EntityType,
		MetaData:   req.MetaData,
		CreatedAt:  time.Now(),
	}

	if err := s.repo.Create(ctx, notification); err != nil {
		s.logger.Error("Failed to create notification", err, map[string]interface{}{
			"user_id": req.UserID,
		})
		return nil, err
	}

	s.invalidateUserCache(ctx, req.UserID)

	resp := notification.ToResponse()
	return &resp, nil
}

// CreateBatch создает несколько уведомлений за раз
func (s *NotificationService) CreateBatch(ctx context.Context, requests []domain.NotificationCreateRequest) error {
	if len(requests) == 0 {
		return nil
	}

	now := time.Now()
	notifications := make([]*domain.Notification, len(requests))
	userIDs := make(map[string]struct{})

	for i, req := range requests {
		userIDs[req.UserID] = struct{}{}

		notifications[i] = &domain.Notification{
			ID:         uuid.New().String(),
			UserID:     req.UserID,
			Type:       req.Type,
			Title:      req.Title,
			Content:    req.Content,
			Status:     domain.NotificationStatusUnread,
			EntityID:   req.EntityID,
			EntityType: req.EntityType,
			MetaData:   req.MetaData,
			CreatedAt:  now,
		}
	}

	if err := s.repo.CreateBatch(ctx, notifications); err != nil {
		s.logger.Error("Failed to create batch notifications", err, map[string]interface{}{
			"count": len(notifications),
		})
		return err
	}

	for userID := range userIDs {
		s.invalidateUserCache(ctx, userID)
	}

	return nil
}

// GetByID возвращает уведомление пользователя по ID
func (s *NotificationService) GetByID(ctx context.Context, id string, userID string) (*domain.NotificationResponse, error) {
	notification, err := s.getOwned(ctx, id, userID)
	if err != nil {
		return nil, err
	}

	resp := notification.ToResponse()
	return &resp, nil
}

// MarkAsRead отмечает уведомление как прочитанное
func (s *NotificationService) MarkAsRead(ctx context.Context, id string, userID string) error {
	notification, err := s.getOwned(ctx, id, userID)
	if err != nil {
		return err
	}

	if notification.IsRead() {
		return nil
	}

	if err := s.repo.MarkAsRead(ctx, id); err != nil {
		s.logger.Error("Failed to mark notification as read", err, map[string]interface{}{
			"notification_id": id,
		})
		return err
	}

	s.invalidateUserCache(ctx, userID)
	return nil
}

// MarkAllAsRead отмечает все уведомления пользователя как прочитанные
func (s *NotificationService) MarkAllAsRead(ctx context.Context, userID string) error {
	if err := s.repo.MarkAllAsRead(ctx, userID); err != nil {
		s.logger.Error("Failed to mark all notifications as read", err, map[string]interface{}{
			"user_id": userID,
		})
		return err
	}

	s.invalidateUserCache(ctx, userID)
	return nil
}

// Delete удаляет уведомление пользователя
func (s *NotificationService) Delete(ctx context.Context, id string, userID string) error {
	if _, err := s.getOwned(ctx, id, userID); err != nil {
		return err
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		s.logger.Error("Failed to delete notification", err, map[string]interface{}{
			"notification_id": id,
		})
		return err
	}

	s.invalidateUserCache(ctx, userID)
	return nil
}

// GetUserNotifications возвращает страницу уведомлений пользователя
func (s *NotificationService) GetUserNotifications(ctx context.Context, userID string, opts domain.NotificationFilterOptions) (*domain.PagedResponse[domain.NotificationResponse], error) {
	page := opts.Page
	if page < 1 {
		page = 1
	}
	pageSize := opts.Size
	if pageSize < 1 || pageSize > 100 {
		pageSize = defaultNotificationPageSize
	}

	filter := repository.NotificationFilter{
		Status:     opts.Status,
		EntityID:   opts.EntityID,
		EntityType: opts.EntityType,
		StartDate:  opts.StartDate,
		EndDate:    opts.EndDate,
		Limit:      pageSize,
		Offset:     (page - 1) * pageSize,
	}
	if opts.Type != nil {
		filter.Types = []domain.NotificationType{*opts.Type}
	}

	// Кэшируем только первую страницу без фильтров
	defaultView := s.cacheRepo != nil && isDefaultNotificationView(opts, page, pageSize)

	var notifications []*domain.Notification
	if defaultView {
		cached, err := s.cacheRepo.GetNotifications(ctx, userID)
		if err == nil {
			notifications = cached
		} else if !errors.Is(err, cache.ErrCacheMiss) {
			s.logger.Warn("Failed to get notifications from cache", map[string]interface{}{
				"user_id": userID,
				"error":   err.Error(),
			})
		}
	}

	if notifications == nil {
		loaded, err := s.repo.GetUserNotifications(ctx, userID, filter)
		if err != nil {
			s.logger.Error("Failed to get user notifications", err, map[string]interface{}{
				"user_id": userID,
			})
			return nil, err
		}
		notifications = loaded

		if defaultView {
			if err := s.cacheRepo.CacheNotifications(ctx, userID, notifications); err != nil {
				s.logger.Warn("Failed to cache notifications", map[string]interface{}{
					"user_id": userID,
					"error":   err.Error(),
				})
			}
		}
	}

	total, err := s.repo.CountUserNotifications(ctx, userID, filter)
	if err != nil {
		s.logger.Error("Failed to count user notifications", err, map[string]interface{}{
			"user_id": userID,
		})
		return nil, err
	}

	responses := make([]domain.NotificationResponse, 0, len(notifications))
	for _, notification := range notifications {
		responses = append(responses, notification.ToResponse())
	}

	result := domain.NewPagedResponse(responses, total, page, pageSize)
	return &result, nil
}

// GetUnreadCount возвращает количество непрочитанных уведомлений пользователя
func (s *NotificationService) GetUnreadCount(ctx context.Context, userID string) (int64, error) {
	if s.cacheRepo != nil {
		count, err := s.cacheRepo.GetUnreadCount(ctx, userID)
		if err == nil {
			return count, nil
		}
		if !errors.Is(err, cache.ErrCacheMiss) {
			s.logger.Warn("Failed to get unread count from cache", map[string]interface{}{
				"user_id": userID,
				"error":   err.Error(),
			})
		}
	}

	count, err := s.repo.GetUserUnreadCount(ctx, userID)
	if err != nil {
		s.logger.Error("Failed to get unread notification count", err, map[string]interface{}{
			"user_id": userID,
		})
		return 0, err
	}

	if s.cacheRepo != nil {
		if err := s.cacheRepo.CacheUnreadCount(ctx, userID, count); err != nil {
			s.logger.Warn("Failed to cache unread count", map[string]interface{}{
				"user_id": userID,
				"error":   err.Error(),
			})
		}
	}

	return count, nil
}

// GetUserNotificationSettings возвращает настройки уведомлений пользователя.
// Если настройки не сохранялись, возвращаются значения по умолчанию.
func (s *NotificationService) GetUserNotificationSettings(ctx context.Context, userID string) ([]*repository.NotificationSetting, error) {
	settings, err := s.repo.GetUserNotificationSettings(ctx, userID)
	if err != nil {
		s.logger.Error("Failed to get user notification settings", err, map[string]interface{}{
			"user_id": userID,
		})
		return nil, err
	}

	if len(settings) == 0 {
		return defaultNotificationSettings(userID), nil
	}

	return settings, nil
}

// UpdateUserNotificationSettings обновляет настройки уведомлений пользователя
func (s *NotificationService) UpdateUserNotificationSettings(ctx context.Context, userID string, settings []*repository.NotificationSetting) error {
	for _, setting := range settings {
		setting.UserID = userID
	}

	if err := s.repo.UpdateUserNotificationSettings(ctx, userID, settings); err != nil {
		s.logger.Error("Failed to update user notification settings", err, map[string]interface{}{
			"user_id": userID,
		})
		return err
	}

	return nil
}

// IsWebEnabled проверяет, включена ли web-доставка уведомлений данного типа
func (s *NotificationService) IsWebEnabled(ctx context.Context, userID string, notificationType domain.NotificationType) (bool, error) {
	settings, err := s.GetUserNotificationSettings(ctx, userID)
	if err != nil {
		return false, err
	}

	for _, setting := range settings {
		if setting.NotificationType == notificationType {
			return setting.WebEnabled, nil
		}
	}

	// Неизвестный тип доставляется по умолчанию
	return true, nil
}

// getOwned возвращает уведомление, если оно принадлежит пользователю
func (s *NotificationService) getOwned(ctx context.Context, id string, userID string) (*domain.Notification, error) {
	notification, err := s.repo.GetByID(ctx, id)
	if err != nil {
		s.logger.Error("Failed to get notification by ID", err, map[string]interface{}{
			"notification_id": id,
		})
		return nil, err
	}
	if notification == nil || notification.UserID != userID {
		return nil, domain.ErrNotificationNotFound
	}

	return notification, nil
}

// invalidateUserCache сбрасывает кэш уведомлений и счетчика непрочитанных
func (s *NotificationService) invalidateUserCache(ctx context.Context, userID string) {
	if s.cacheRepo == nil {
		return
	}
	if err := s.cacheRepo.InvalidateNotifications(ctx, userID); err != nil {
		s.logger.Warn("Failed to invalidate notifications cache", map[string]interface{}{
			"user_id": userID,
			"error":   err.Error(),
		})
	}
}

// isDefaultNotificationView проверяет, запрошено ли представление по умолчанию
func isDefaultNotificationView(opts domain.NotificationFilterOptions, page, pageSize int) bool {
	return page == 1 &&
		pageSize == defaultNotificationPageSize &&
		opts.Type == nil &&
		opts.Status == nil &&
		opts.EntityID == nil &&
		opts.EntityType == nil &&
		opts.StartDate == nil &&
		opts.EndDate == nil
}

// defaultNotificationSettings возвращает настройки по умолчанию для всех типов уведомлений
func defaultNotificationSettings(userID string) []*repository.NotificationSetting {
	settings := make([]*repository.NotificationSetting, 0, len(domain.NotificationTypes))
	for _, notificationType := range domain.NotificationTypes {
		settings = append(settings, &repository.NotificationSetting{
			UserID:           userID,
			NotificationType: notificationType,
			EmailEnabled:     true,
			WebEnabled:       true,
		})
	}
	return settings
}
