package middleware

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/nurlyy/contract_manager/pkg/metrics"
)

// MetricsMiddleware собирает Prometheus-метрики по HTTP запросам
type MetricsMiddleware struct {
	metrics *metrics.Metrics
}

// NewMetricsMiddleware создает новый экземпляр MetricsMiddleware
func NewMetricsMiddleware(metrics *metrics.Metrics) *MetricsMiddleware {
	return &MetricsMiddleware{
		metrics: metrics,
	}
}

// Measure фиксирует количество и длительность запросов по шаблону маршрута
func (m *MetricsMiddleware) Measure(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if m.metrics == nil {
			next.ServeHTTP(w, r)
			return
		}

		rwWithStatus := newResponseWriterWithStatus(w)
		startTime := time.Now()

		next.ServeHTTP(rwWithStatus, r)

		// Шаблон маршрута известен только после роутинга chi
		route := chi.RouteContext(r.Context()).RoutePattern()
		if route == "" {
			route = r.URL.Path
		}

		m.metrics.ObserveHTTPRequest(
			route,
			r.Method,
			strconv.Itoa(rwWithStatus.statusCode),
			time.Since(startTime),
		)
	})
}
