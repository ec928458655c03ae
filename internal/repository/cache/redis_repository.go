package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/nurlyy/contract_manager/internal/domain"
	"github.com/nurlyy/contract_manager/pkg/logger"
)

// ErrCacheMiss возвращается, когда ключ отсутствует в кэше
var ErrCacheMiss = errors.New("cache: key not found")

// Префиксы ключей для разных типов данных
const (
	keyPrefixUser             = "user:"
	keyPrefixContract         = "contract:"
	keyPrefixCounterparty     = "counterparty:"
	keyPrefixContractList     = "contract:list:"
	keyPrefixCounterpartyList = "counterparty:list:"
	keyPrefixNotifications    = "notifications:"
	keyPrefixUnreadCount      = "unread:count:"
	keyPrefixLock             = "lock:"
)

// RedisRepository реализует репозиторий кэширования с использованием Redis
type RedisRepository struct {
	client *redis.Client
	logger logger.Logger
	ttl    time.Duration
}

// NewRedisRepository создает новый экземпляр RedisRepository
func NewRedisRepository(client *redis.Client, logger logger.Logger, ttl time.Duration) *RedisRepository {
	return &RedisRepository{
		client: client,
		logger: logger,
		ttl:    ttl,
	}
}

// CacheContract сохраняет контракт в кэш
func (r *RedisRepository) CacheContract(ctx context.Context, contract *domain.Contract) error {
	key := fmt.Sprintf("%s%d", keyPrefixContract, contract.ID)
	return r.cacheValue(ctx, key, contract)
}

// GetContract получает контракт из кэша
func (r *RedisRepository) GetContract(ctx context.Context, id int64) (*domain.Contract, error) {
	key := fmt.Sprintf("%s%d", keyPrefixContract, id)
	var contract domain.Contract
	if err := r.getValue(ctx, key, &contract); err != nil {
		return nil, err
	}
	return &contract, nil
}

// InvalidateContract удаляет контракт из кэша
func (r *RedisRepository) InvalidateContract(ctx context.Context, id int64) error {
	key := fmt.Sprintf("%s%d", keyPrefixContract, id)
	return r.deleteValue(ctx, key)
}

// CacheCounterparty сохраняет контрагента в кэш
func (r *RedisRepository) CacheCounterparty(ctx context.Context, counterparty *domain.Counterparty) error {
	key := fmt.Sprintf("%s%s", keyPrefixCounterparty, counterparty.ID)
	return r.cacheValue(ctx, key, counterparty)
}

// GetCounterparty получает контрагента из кэша
func (r *RedisRepository) GetCounterparty(ctx context.Context, id string) (*domain.Counterparty, error) {
	key := fmt.Sprintf("%s%s", keyPrefixCounterparty, id)
	var counterparty domain.Counterparty
	if err := r.getValue(ctx, key, &counterparty); err != nil {
		return nil, err
	}
	return &counterparty, nil
}

// InvalidateCounterparty удаляет контрагента из кэша
func (r *RedisRepository) InvalidateCounterparty(ctx context.Context, id string) error {
	key := fmt.Sprintf("%s%s", keyPrefixCounterparty, id)
	return r.deleteValue(ctx, key)
}

// CacheUser сохраняет пользователя в кэш
func (r *RedisRepository) CacheUser(ctx context.Context, user *domain.User) error {
	key := fmt.Sprintf("%s%s", keyPrefixUser, user.ID)
	return r.cacheValue(ctx, key, user)
}

// GetUser получает пользователя из кэша
func (r *RedisRepository) GetUser(ctx context.Context, id string) (*domain.User, error) {
	key := fmt.Sprintf("%s%s", keyPrefixUser, id)
	var user domain.User
	if err := r.getValue(ctx, key, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// InvalidateUser удаляет пользователя из кэша
func (r *RedisRepository) InvalidateUser(ctx context.Context, id string) error {
	key := fmt.Sprintf("%s%s", keyPrefixUser, id)
	return r.deleteValue(ctx, key)
}

// CacheContractList сохраняет список контрактов в кэш
func (r *RedisRepository) CacheContractList(ctx context.Context, filter string, contracts []*domain.Contract) error {
	key := fmt.Sprintf("%s%s", keyPrefixContractList, filter)
	return r.cacheValue(ctx, key, contracts)
}

// GetContractList получает список контрактов из кэша
func (r *RedisRepository) GetContractList(ctx context.Context, filter string) ([]*domain.Contract, error) {
	key := fmt.Sprintf("%s%s", keyPrefixContractList, filter)
	var contracts []*domain.Contract
	if err := r.getValue(ctx, key, &contracts); err != nil {
		return nil, err
	}
	return contracts, nil
}

// InvalidateContractLists удаляет все кэшированные списки контрактов
func (r *RedisRepository) InvalidateContractLists(ctx context.Context) error {
	return r.InvalidateAll(ctx, keyPrefixContractList)
}

// CacheNotifications сохраняет уведомления пользователя в кэш
func (r *RedisRepository) CacheNotifications(ctx context.Context, userID string, notifications []*domain.Notification) error {
	key := fmt.Sprintf("%s%s", keyPrefixNotifications, userID)
	return r.cacheValue(ctx, key, notifications)
}

// GetNotifications получает уведомления пользователя из кэша
func (r *RedisRepository) GetNotifications(ctx context.Context, userID string) ([]*domain.Notification, error) {
	key := fmt.Sprintf("%s%s", keyPrefixNotifications, userID)
	var notifications []*domain.Notification
	if err := r.getValue(ctx, key, &notifications); err != nil {
		return nil, err
	}
	return notifications, nil
}

// InvalidateNotifications удаляет уведомления пользователя из кэша
func (r *RedisRepository) InvalidateNotifications(ctx context.Context, userID string) error {
	key := fmt.Sprintf("%s%s", keyPrefixNotifications, userID)
	if err := r.deleteValue(ctx, key); err != nil {
		return err
	}
	return r.deleteValue(ctx, fmt.Sprintf("%s%s", keyPrefixUnreadCount, userID))
}

// CacheUnreadCount сохраняет количество непрочитанных уведомлений пользователя
func (r *RedisRepository) CacheUnreadCount(ctx context.Context, userID string, count int64) error {
	key := fmt.Sprintf("%s%s", keyPrefixUnreadCount, userID)
	return r.client.Set(ctx, key, count, r.ttl).Err()
}

// GetUnreadCount получает количество непрочитанных уведомлений пользователя
func (r *RedisRepository) GetUnreadCount(ctx context.Context, userID string) (int64, error) {
	key := fmt.Sprintf("%s%s", keyPrefixUnreadCount, userID)
	val, err := r.client.Get(ctx, key).Int64()
	if err == redis.Nil {
		return 0, ErrCacheMiss
	}
	if err != nil {
		r.logger.Error("Failed to get unread count from Redis", err, map[string]interface{}{
			"user_id": userID,
		})
		return 0, fmt.Errorf("failed to get unread count: %w", err)
	}
	return val, nil
}

// AcquireLock получает блокировку с таймаутом
func (r *RedisRepository) AcquireLock(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	lockKey := fmt.Sprintf("%s%s", keyPrefixLock, key)
	ok, err := r.client.SetNX(ctx, lockKey, 1, ttl).Result()
	if err != nil {
		r.logger.Error("Failed to acquire lock", err, map[string]interface{}{
			"key": key,
		})
		return false, fmt.Errorf("failed to acquire lock: %w", err)
	}
	return ok, nil
}

// ReleaseLock освобождает блокировку
func (r *RedisRepository) ReleaseLock(ctx context.Context, key string) error {
	lockKey := fmt.Sprintf("%s%s", keyPrefixLock, key)
	return r.deleteValue(ctx, lockKey)
}

// InvalidateAll удаляет все данные из кэша для указанного префикса
func (r *RedisRepository) InvalidateAll(ctx context.Context, prefix string) error {
	pattern := fmt.Sprintf("%s*", prefix)
	keys, err := r.client.Keys(ctx, pattern).Result()
	if err != nil {
		r.logger.Error("Failed to get keys for pattern", err, map[string]interface{}{
			"pattern": pattern,
		})
		return fmt.Errorf("failed to get keys for pattern: %w", err)
	}

	if len(keys) > 0 {
		if err := r.client.Del(ctx, keys...).Err(); err != nil {
			r.logger.Error("Failed to delete keys", err, map[string]interface{}{
				"count": len(keys),
			})
			return fmt.Errorf("failed to delete keys: %w", err)
		}
	}

	return nil
}

// Вспомогательные методы

// cacheValue сохраняет значение в кэш
func (r *RedisRepository) cacheValue(ctx context.Context, key string, value interface{}) error {
	data, err := json.Marshal(value)
	if err != nil {
		r.logger.Error("Failed to marshal value", err, map[string]interface{}{
			"key": key,
		})
		return fmt.Errorf("failed to marshal value: %w", err)
	}

	if err := r.client.Set(ctx, key, data, r.ttl).Err(); err != nil {
		r.logger.Error("Failed to set value in Redis", err, map[string]interface{}{
			"key": key,
		})
		return fmt.Errorf("failed to set value in Redis: %w", err)
	}

	return nil
}

// getValue получает значение из кэша
func (r *RedisRepository) getValue(ctx context.Context, key string, dest interface{}) error {
	data, err := r.client.Get(ctx, key).Bytes()
	if err == redis.Nil {
		return ErrCacheMiss
	}
	if err != nil {
		r.logger.Error("Failed to get value from Redis", err, map[string]interface{}{
			"key": key,
		})
		return fmt.Errorf("failed to get value from Redis: %w", err)
	}

	if err := json.Unmarshal(data, dest); err != nil {
		r.logger.Error("Failed to unmarshal value", err, map[string]interface{}{
			"key": key,
		})
		return fmt.Errorf("failed to unmarshal value: %w", err)
	}

	return nil
}

// deleteValue удаляет значение из кэша
func (r *RedisRepository) deleteValue(ctx context.Context, key string) error {
	if err := r.client.Del(ctx, key).Err(); err != nil {
		r.logger.Error("Failed to delete value from Redis", err, map[string]interface{}{
			"key": key,
		})
		return fmt.Errorf("failed to delete value from Redis: %w", err)
	}
	return nil
}
