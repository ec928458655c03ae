package middleware

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/nurlyy/contract_manager/pkg/logger"
	"github.com/nurlyy/contract_manager/pkg/metrics"
)

// RateLimitStrategy определяет стратегию ограничения запросов
type RateLimitStrategy string

const (
	// RateLimitIP ограничивает запросы по IP-адресу
	RateLimitIP RateLimitStrategy = "ip"
	// RateLimitUser ограничивает запросы по ID пользователя
	RateLimitUser RateLimitStrategy = "user"
	// RateLimitCombined ограничивает запросы по комбинации IP и ID пользователя
	RateLimitCombined RateLimitStrategy = "combined"
)

// RateLimiterConfig содержит настройки для ограничителя запросов
type RateLimiterConfig struct {
	// Максимальное количество запросов в период
	Limit int
	// Период времени для ограничения (в секундах)
	Period int
	// Стратегия ограничения
	Strategy RateLimitStrategy
}

// RateLimiter предоставляет middleware для ограничения частоты запросов.
// Счетчики живут в Redis; без Redis используется in-memory fallback.
type RateLimiter struct {
	config     RateLimiterConfig
	logger     logger.Logger
	redis      *redis.Client
	metrics    *metrics.Metrics
	inMemLimit map[string]*limitInfo
	mu         sync.Mutex
}

// limitInfo хранит информацию о лимитах для in-memory реализации
type limitInfo struct {
	count     int
	resetTime time.Time
}

// NewRateLimiter создает новый экземпляр RateLimiter
func NewRateLimiter(config RateLimiterConfig, redisClient *redis.Client, metrics *metrics.Metrics, logger logger.Logger) *RateLimiter {
	return &RateLimiter{
		config:     config,
		redis:      redisClient,
		metrics:    metrics,
		logger:     logger,
		inMemLimit: make(map[string]*limitInfo),
	}
}

// Limit применяет ограничение частоты запросов
func (m *RateLimiter) Limit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := m.getKey(r)

		remaining, resetTime, limited, err := m.isLimited(r.Context(), key)
		if err != nil {
			// Недоступный Redis не должен ронять запросы
			m.logger.Warn("Rate limiter check failed", map[string]interface{}{
				"key":   key,
				"error": err.Error(),
			})
			next.ServeHTTP(w, r)
			return
		}

		w.Header().Set("X-RateLimit-Limit", strconv.Itoa(m.config.Limit))
		w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(remaining))
		w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(resetTime.Unix(), 10))

		if limited {
			if m.metrics != nil {
				m.metrics.IncRateLimitRejected()
			}
			w.Header().Set("Retry-After", strconv.Itoa(int(time.Until(resetTime).Seconds())))
			http.Error(w, "Rate limit exceeded", http.StatusTooManyRequests)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// getKey формирует ключ для ограничения в зависимости от стратегии
func (m *RateLimiter) getKey(r *http.Request) string {
	var key string
	ip := getClientIP(r)

	switch m.config.Strategy {
	case RateLimitUser:
		// Если пользователь аутентифицирован, используем его ID
		if userID, ok := r.Context().Value("user_id").(string); ok && userID != "" {
			key = fmt.Sprintf("rate_limit:user:%s", userID)
		} else {
			key = fmt.Sprintf("rate_limit:ip:%s", ip)
		}
	case RateLimitCombined:
		if userID, ok := r.Context().Value("user_id").(string); ok && userID != "" {
			key = fmt.Sprintf("rate_limit:combined:%s:%s", ip, userID)
		} else {
			key = fmt.Sprintf("rate_limit:ip:%s", ip)
		}
	default:
		key = fmt.Sprintf("rate_limit:ip:%s", ip)
	}

	return key
}

// isLimited проверяет, превышен ли лимит для данного ключа
func (m *RateLimiter) isLimited(ctx context.Context, key string) (int, time.Time, bool, error) {
	if m.redis != nil {
		return m.isLimitedRedis(ctx, key)
	}
	return m.isLimitedInMemory(key)
}

// isLimitedRedis проверяет лимит с использованием Redis (fixed window)
func (m *RateLimiter) isLimitedRedis(ctx context.Context, key string) (int, time.Time, bool, error) {
	now := time.Now()
	windowKey := fmt.Sprintf("%s:%d", key, now.Unix()/int64(m.config.Period))

	// Инкремент и выставление TTL атомарно, в одной транзакции
	pipe := m.redis.TxPipeline()
	incr := pipe.Incr(ctx, windowKey)
	pipe.Expire(ctx, windowKey, time.Duration(m.config.Period)*time.Second)
	_, err := pipe.Exec(ctx)
	if err != nil {
		return 0, now, false, err
	}

	count, err := incr.Result()
	if err != nil {
		return 0, now, false, err
	}

	resetTime := now.Add(time.Duration(m.config.Period) * time.Second)
	remaining := m.config.Limit - int(count)
	if remaining < 0 {
		remaining = 0
	}

	return remaining, resetTime, count > int64(m.config.Limit), nil
}

// isLimitedInMemory проверяет лимит с использованием in-memory хранилища
func (m *RateLimiter) isLimitedInMemory(key string) (int, time.Time, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := time.Now()

	info, exists := m.inMemLimit[key]
	if exists {
		// Если время сброса прошло, начинаем новое окно
		if now.After(info.resetTime) {
			info.count = 1
			info.resetTime = now.Add(time.Duration(m.config.Period) * time.Second)
		} else {
			info.count++
		}
	} else {
		info = &limitInfo{
			count:     1,
			resetTime: now.Add(time.Duration(m.config.Period) * time.Second),
		}
		m.inMemLimit[key] = info
	}

	remaining := m.config.Limit - info.count
	if remaining < 0 {
		remaining = 0
	}

	return remaining, info.resetTime, info.count > m.config.Limit, nil
}

// cleanupExpired удаляет устаревшие записи in-memory хранилища
func (m *RateLimiter) cleanupExpired() {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := time.Now()
	for key, info := range m.inMemLimit {
		if now.After(info.resetTime) {
			delete(m.inMemLimit, key)
		}
	}
}

// StartCleanupTask запускает периодическую очистку устаревших записей
func (m *RateLimiter) StartCleanupTask(ctx context.Context) {
	ticker := time.NewTicker(time.Minute)
	go func() {
		for {
			select {
			case <-ticker.C:
				m.cleanupExpired()
			case <-ctx.Done():
				ticker.Stop()
				return
			}
		}
	}()
}

// getClientIP возвращает IP-адрес клиента
func getClientIP(r *http.Request) string {
	// X-Forwarded-For: берем первый IP в цепочке
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		ips := strings.Split(xff, ",")
		return strings.TrimSpace(ips[0])
	}

	if xrip := r.Header.Get("X-Real-IP"); xrip != "" {
		return xrip
	}

	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return ip
}
