package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/nurlyy/contract_manager/pkg/config"
)

// Metrics содержит метрики Prometheus приложения
type Metrics struct {
	registry *prometheus.Registry
	config   *config.MonitoringConfig

	httpRequestsTotal   *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	contractsCreated  prometheus.Counter
	contractsDeleted  prometheus.Counter
	contractsExpired  prometheus.Counter
	eventsPublished   *prometheus.CounterVec
	cacheHits         prometheus.Counter
	cacheMisses       prometheus.Counter
	rateLimitRejected prometheus.Counter
}

// NewMetrics создает новый набор метрик с собственным реестром
func NewMetrics(cfg *config.MonitoringConfig) *Metrics {
	registry := prometheus.NewRegistry()
	auto := promauto.With(registry)

	return &Metrics{
		registry: registry,
		config:   cfg,

		httpRequestsTotal: auto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "contract_manager",
				Name:      "http_requests_total",
				Help:      "Total number of HTTP requests by route, method and status code",
			},
			[]string{"route", "method", "status"},
		),
		httpRequestDuration: auto.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "contract_manager",
				Name:      "http_request_duration_seconds",
				Help:      "HTTP request duration in seconds by route and method",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"route", "method"},
		),

		contractsCreated: auto.NewCounter(prometheus.CounterOpts{
			Namespace: "contract_manager",
			Name:      "contracts_created_total",
			Help:      "Total number of contracts created",
		}),
		contractsDeleted: auto.NewCounter(prometheus.CounterOpts{
			Namespace: "contract_manager",
			Name:      "contracts_deleted_total",
			Help:      "Total number of contracts deleted",
		}),
		contractsExpired: auto.NewCounter(prometheus.CounterOpts{
			Namespace: "contract_manager",
			Name:      "contracts_expired_total",
			Help:      "Total number of contracts moved to the expired status",
		}),
		eventsPublished: auto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "contract_manager",
				Name:      "events_published_total",
				Help:      "Total number of domain events published to Kafka by event type",
			},
			[]string{"event_type"},
		),
		cacheHits: auto.NewCounter(prometheus.CounterOpts{
			Namespace: "contract_manager",
			Name:      "cache_hits_total",
			Help:      "Total number of cache hits",
		}),
		cacheMisses: auto.NewCounter(prometheus.CounterOpts{
			Namespace: "contract_manager",
			Name:      "cache_misses_total",
			Help:      "Total number of cache misses",
		}),
		rateLimitRejected: auto.NewCounter(prometheus.CounterOpts{
			Namespace: "contract_manager",
			Name:      "rate_limit_rejected_total",
			Help:      "Total number of requests rejected by the rate limiter",
		}),
	}
}

// Handler возвращает HTTP-обработчик для эндпоинта метрик
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// ObserveHTTPRequest фиксирует выполненный HTTP-запрос
func (m *Metrics) ObserveHTTPRequest(route, method, status string, duration time.Duration) {
	m.httpRequestsTotal.WithLabelValues(route, method, status).Inc()
	m.httpRequestDuration.WithLabelValues(route, method).Observe(duration.Seconds())
}

// IncContractsCreated увеличивает счетчик созданных контрактов
func (m *Metrics) IncContractsCreated() {
	m.contractsCreated.Inc()
}

// IncContractsDeleted увеличивает счетчик удаленных контрактов
func (m *Metrics) IncContractsDeleted() {
	m.contractsDeleted.Inc()
}

// IncContractsExpired увеличивает счетчик контрактов, переведенных в expired
func (m *Metrics) IncContractsExpired() {
	m.contractsExpired.Inc()
}

// IncEventsPublished увеличивает счетчик опубликованных событий
func (m *Metrics) IncEventsPublished(eventType string) {
	m.eventsPublished.WithLabelValues(eventType).Inc()
}

// IncCacheHit увеличивает счетчик попаданий в кэш
func (m *Metrics) IncCacheHit() {
	m.cacheHits.Inc()
}

// IncCacheMiss увеличивает счетчик промахов кэша
func (m *Metrics) IncCacheMiss() {
	m.cacheMisses.Inc()
}

// IncRateLimitRejected увеличивает счетчик отклоненных лимитером запросов
func (m *Metrics) IncRateLimitRejected() {
	m.rateLimitRejected.Inc()
}
