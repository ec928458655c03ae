package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/nurlyy/contract_manager/internal/domain"
	"github.com/nurlyy/contract_manager/internal/repository"
	"github.com/nurlyy/contract_manager/pkg/database"
	"github.com/nurlyy/contract_manager/pkg/logger"
)

// NotificationRepository реализует репозиторий уведомлений с использованием PostgreSQL
type NotificationRepository struct {
	db     *database.Postgres
	logger logger.Logger
}

// NewNotificationRepository создает новый экземпляр NotificationRepository
func NewNotificationRepository(db *database.Postgres, logger logger.Logger) *NotificationRepository {
	return &NotificationRepository{
		db:     db,
		logger: logger,
	}
}

// Create создает новое уведомление
func (r *NotificationRepository) Create(ctx context.Context, notification *domain.Notification) error {
	query := `
		INSERT INTO notifications (
			id, user_id, type, title, content, status, entity_id, entity_type, meta_data, created_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10
		) RETURNING id
	`

	// Сериализуем метаданные в JSON
	metaDataJSON, err := json.Marshal(notification.MetaData)
	if err != nil {
		r.logger.Error("Failed to marshal meta data", err, map[string]interface{}{
			"notification_id": notification.ID,
		})
		return fmt.Errorf("failed to marshal meta data: %w", err)
	}

	err = r.db.DB.QueryRowxContext(
		ctx,
		query,
		notification.ID,
		notification.UserID,
		notification.Type,
		notification.Title,
		notification.Content,
		notification.Status,
		notification.EntityID,
		notification.EntityType,
		metaDataJSON,
		notification.CreatedAt,
	).Scan(&notification.ID)

	if err != nil {
		r.logger.Error("Failed to create notification", err, map[string]interface{}{
			"user_id": notification.UserID,
			"type":    notification.Type,
		})
		return fmt.Errorf("failed to create notification: %w", err)
	}

	return nil
}

// CreateBatch создает несколько уведомлений за раз
func (r *NotificationRepository) CreateBatch(ctx context.Context, notifications []*domain.Notification) error {
	if len(notifications) == 0 {
		return nil
	}

	query := `
		INSERT INTO notifications (
			id, user_id, type, title, content, status, entity_id, entity_type, meta_data, created_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10
		)
	`

	return r.db.ExecTx(ctx, func(tx *sqlx.Tx) error {
		stmt, err := tx.PrepareContext(ctx, query)
		if err != nil {
			return fmt.Errorf("failed to prepare statement: %w", err)
		}
		defer stmt.Close()

		for _, notification := range notifications {
			metaDataJSON, err := json.Marshal(notification.MetaData)
			if err != nil {
				return fmt.Errorf("failed to marshal meta data: %w", err)
			}

			_, err = stmt.ExecContext(
				ctx,
				notification.ID,
				notification.UserID,
				notification.Type,
				notification.Title,
				notification.Content,
				notification.Status,
				notification.EntityID,
				notification.EntityType,
				metaDataJSON,
				notification.CreatedAt,
			)

			if err != nil {
				r.logger.Error("Failed to create notification in batch", err, map[string]interface{}{
					"user_id": notification.UserID,
					"type":    notification.Type,
				})
				return fmt.Errorf("failed to create notification in batch: %w", err)
			}
		}

		return nil
	})
}

// GetByID возвращает уведомление по ID
func (r *NotificationRepository) GetByID(ctx context.Context, id string) (*domain.Notification, error) {
	query := `
		SELECT
			id, user_id, type, title, content, status, entity_id, entity_type, meta_data, created_at, read_at
		FROM notifications
		WHERE id = $1
	`

	var notification domain.Notification
	var metaDataJSON []byte

	err := r.db.DB.QueryRowxContext(ctx, query, id).Scan(
		&notification.ID,
		&notification.UserID,
		&notification.Type,
		&notification.Title,
		&notification.Content,
		&notification.Status,
		&notification.EntityID,
		&notification.EntityType,
		&metaDataJSON,
		&notification.CreatedAt,
		&notification.ReadAt,
	)

	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		r.logger.Error("Failed to get notification by ID", err, map[string]interface{}{
			"id": id,
		})
		return nil, fmt.Errorf("failed to get notification by ID: %w", err)
	}

	// Десериализуем метаданные из JSON
	if metaDataJSON != nil {
		notification.MetaData = make(map[string]string)
		if err := json.Unmarshal(metaDataJSON, &notification.MetaData); err != nil {
			r.logger.Error("Failed to unmarshal meta data", err, map[string]interface{}{
				"id": id,
			})
			return nil, fmt.Errorf("failed to unmarshal meta data: %w", err)
		}
	}

	return &notification, nil
}

// Delete удаляет уведомление по ID (soft delete)
func (r *NotificationRepository) Delete(ctx context.Context, id string) error {
	query := `UPDATE notifications SET status = 'deleted' WHERE id = $1`

	result, err := r.db.DB.ExecContext(ctx, query, id)
	if err != nil {
		r.logger.Error("Failed to delete notification", err, map[string]interface{}{
			"id": id,
		})
		return fmt.Errorf("failed to delete notification: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return domain.ErrNotificationNotFound
	}

	return nil
}

// GetUserNotifications возвращает уведомления пользователя
func (r *NotificationRepository) GetUserNotifications(ctx context.Context, userID string, filter repository.NotificationFilter) ([]*domain.Notification, error) {
	whereClause, args := r.buildUserWhereClause(userID, filter)
	orderClause := r.buildOrderClause(filter)

	limitOffset := ""
	if filter.Limit > 0 {
		limitOffset = fmt.Sprintf("LIMIT %d OFFSET %d", filter.Limit, filter.Offset)
	}

	query := fmt.Sprintf(`
		SELECT
			id, user_id, type, title, content, status, entity_id, entity_type, meta_data, created_at, read_at
		FROM notifications
		%s
		%s
		%s
	`, whereClause, orderClause, limitOffset)

	rows, err := r.db.DB.QueryContext(ctx, query, args...)
	if err != nil {
		r.logger.Error("Failed to get user notifications", err, map[string]interface{}{
			"user_id": userID,
		})
		return nil, fmt.Errorf("failed to get user notifications: %w", err)
	}
	defer rows.Close()

	notifications := []*domain.Notification{}
	for rows.Next() {
		var notification domain.Notification
		var metaDataJSON []byte

		err := rows.Scan(
			&notification.ID,
			&notification.UserID,
			&notification.Type,
			&notification.Title,
			&notification.Content,
			&notification.Status,
			&notification.EntityID,
			&notification.EntityType,
			&metaDataJSON,
			&notification.CreatedAt,
			&notification.ReadAt,
		)

		if err != nil {
			r.logger.Error("Failed to scan notification", err)
			return nil, fmt.Errorf("failed to scan notification: %w", err)
		}

		if metaDataJSON != nil {
			notification.MetaData = make(map[string]string)
			if err := json.Unmarshal(metaDataJSON, &notification.MetaData); err != nil {
				r.logger.Error("Failed to unmarshal meta data", err, map[string]interface{}{
					"id": notification.ID,
				})
				return nil, fmt.Errorf("failed to unmarshal meta data: %w", err)
			}
		}

		notifications = append(notifications, &notification)
	}

	if err := rows.Err(); err != nil {
		r.logger.Error("Error iterating through notifications", err)
		return nil, fmt.Errorf("error iterating through notifications: %w", err)
	}

	return notifications, nil
}

// CountUserNotifications возвращает количество уведомлений пользователя
func (r *NotificationRepository) CountUserNotifications(ctx context.Context, userID string, filter repository.NotificationFilter) (int64, error) {
	whereClause, args := r.buildUserWhereClause(userID, filter)

	query := fmt.Sprintf(`
		SELECT COUNT(*)
		FROM notifications
		%s
	`, whereClause)

	var count int64
	err := r.db.DB.GetContext(ctx, &count, query, args...)
	if err != nil {
		r.logger.Error("Failed to count user notifications", err, map[string]interface{}{
			"user_id": userID,
		})
		return 0, fmt.Errorf("failed to count user notifications: %w", err)
	}

	return count, nil
}

// MarkAsRead отмечает уведомление как прочитанное
func (r *NotificationRepository) MarkAsRead(ctx context.Context, id string) error {
	query := `UPDATE notifications SET status = 'read', read_at = $1 WHERE id = $2`

	result, err := r.db.DB.ExecContext(ctx, query, time.Now(), id)
	if err != nil {
		r.logger.Error("Failed to mark notification as read", err, map[string]interface{}{
			"id": id,
		})
		return fmt.Errorf("failed to mark notification as read: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return domain.ErrNotificationNotFound
	}

	return nil
}

// MarkAllAsRead отмечает все уведомления пользователя как прочитанные
func (r *NotificationRepository) MarkAllAsRead(ctx context.Context, userID string) error {
	query := `UPDATE notifications SET status = 'read', read_at = $1 WHERE user_id = $2 AND status = 'unread'`

	_, err := r.db.DB.ExecContext(ctx, query, time.Now(), userID)
	if err != nil {
		r.logger.Error("Failed to mark all notifications as read", err, map[string]interface{}{
			"user_id": userID,
		})
		return fmt.Errorf("failed to mark all notifications as read: %w", err)
	}

	return nil
}

// GetUserUnreadCount возвращает количество непрочитанных уведомлений пользователя
func (r *NotificationRepository) GetUserUnreadCount(ctx context.Context, userID string) (int64, error) {
	query := `SELECT COUNT(*) FROM notifications WHERE user_id = $1 AND status = 'unread'`

	var count int64
	err := r.db.DB.GetContext(ctx, &count, query, userID)
	if err != nil {
		r.logger.Error("Failed to get unread count", err, map[string]interface{}{
			"user_id": userID,
		})
		return 0, fmt.Errorf("failed to get unread count: %w", err)
	}

	return count, nil
}

// GetUserNotificationSettings возвращает настройки уведомлений пользователя
func (r *NotificationRepository) GetUserNotificationSettings(ctx context.Context, userID string) ([]*repository.NotificationSetting, error) {
	query := `
		SELECT
			user_id, notification_type, email_enabled, web_enabled
		FROM user_notification_settings
		WHERE user_id = $1
		ORDER BY notification_type
	`

	settings := []*repository.NotificationSetting{}
	err := r.db.DB.SelectContext(ctx, &settings, query, userID)
	if err != nil {
		r.logger.Error("Failed to get notification settings", err, map[string]interface{}{
			"user_id": userID,
		})
		return nil, fmt.Errorf("failed to get notification settings: %w", err)
	}

	return settings, nil
}

// UpdateUserNotificationSettings заменяет настройки уведомлений пользователя
func (r *NotificationRepository) UpdateUserNotificationSettings(ctx context.Context, userID string, settings []*repository.NotificationSetting) error {
	query := `
		INSERT INTO user_notification_settings (
			user_id, notification_type, email_enabled, web_enabled
		) VALUES (
			$1, $2, $3, $4
		)
	`

	return r.db.ExecTx(ctx, func(tx *sqlx.Tx) error {
		_, err := tx.ExecContext(ctx, "DELETE FROM user_notification_settings WHERE user_id = $1", userID)
		if err != nil {
			r.logger.Error("Failed to delete notification settings", err, map[string]interface{}{
				"user_id": userID,
			})
			return fmt.Errorf("failed to delete notification settings: %w", err)
		}

		stmt, err := tx.PrepareContext(ctx, query)
		if err != nil {
			return fmt.Errorf("failed to prepare statement: %w", err)
		}
		defer stmt.Close()

		for _, setting := range settings {
			_, err = stmt.ExecContext(
				ctx,
				userID,
				setting.NotificationType,
				setting.EmailEnabled,
				setting.WebEnabled,
			)
			if err != nil {
				r.logger.Error("Failed to insert notification setting", err, map[string]interface{}{
					"user_id": userID,
					"type":    setting.NotificationType,
				})
				return fmt.Errorf("failed to insert notification setting: %w", err)
			}
		}

		return nil
	})
}

// Вспомогательные функции

// buildUserWhereClause строит условие выборки уведомлений пользователя.
// Удаленные уведомления исключаются, если статус не запрошен явно.
func (r *NotificationRepository) buildUserWhereClause(userID string, filter repository.NotificationFilter) (string, []interface{}) {
	conditions := []string{"user_id = $1"}
	args := []interface{}{userID}
	argIndex := 2

	if filter.Status != nil {
		conditions = append(conditions, fmt.Sprintf("status = $%d", argIndex))
		args = append(args, *filter.Status)
		argIndex++
	} else {
		conditions = append(conditions, "status != 'deleted'")
	}

	if len(filter.Types) > 0 {
		placeholders := make([]string, len(filter.Types))
		for i, t := range filter.Types {
			placeholders[i] = fmt.Sprintf("$%d", argIndex)
			args = append(args, t)
			argIndex++
		}
		conditions = append(conditions, fmt.Sprintf("type IN (%s)", strings.Join(placeholders, ", ")))
	}

	if filter.EntityID != nil {
		conditions = append(conditions, fmt.Sprintf("entity_id = $%d", argIndex))
		args = append(args, *filter.EntityID)
		argIndex++
	}

	if filter.EntityType != nil {
		conditions = append(conditions, fmt.Sprintf("entity_type = $%d", argIndex))
		args = append(args, *filter.EntityType)
		argIndex++
	}

	if filter.StartDate != nil {
		conditions = append(conditions, fmt.Sprintf("created_at >= $%d", argIndex))
		args = append(args, *filter.StartDate)
		argIndex++
	}

	if filter.EndDate != nil {
		conditions = append(conditions, fmt.Sprintf("created_at <= $%d", argIndex))
		args = append(args, *filter.EndDate)
		argIndex++
	}

	return "WHERE " + strings.Join(conditions, " AND "), args
}

func (r *NotificationRepository) buildOrderClause(filter repository.NotificationFilter) string {
	if filter.OrderBy != nil {
		direction := "ASC"
		if filter.OrderDir != nil && strings.ToUpper(*filter.OrderDir) == "DESC" {
			direction = "DESC"
		}

		// Проверяем, что поле сортировки допустимо
		allowedFields := map[string]bool{
			"id":         true,
			"user_id":    true,
			"type":       true,
			"status":     true,
			"entity_id":  true,
			"created_at": true,
			"read_at":    true,
		}

		if allowedFields[*filter.OrderBy] {
			return fmt.Sprintf("ORDER BY %s %s", *filter.OrderBy, direction)
		}
	}

	// По умолчанию сортируем по дате создания
	return "ORDER BY created_at DESC"
}
