package middleware

import (
	"bufio"
	"fmt"
	"net"
	"net/http"
	"time"

	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"

	"github.com/nurlyy/contract_manager/pkg/logger"
)

// LoggingMiddleware предоставляет middleware для логирования HTTP запросов
type LoggingMiddleware struct {
	logger logger.Logger
}

// NewLoggingMiddleware создает новый экземпляр LoggingMiddleware
func NewLoggingMiddleware(logger logger.Logger) *LoggingMiddleware {
	return &LoggingMiddleware{
		logger: logger,
	}
}

// LogRequest логирует информацию о входящих HTTP запросах и ответах
func (m *LoggingMiddleware) LogRequest(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// ID запроса берем из chi middleware.RequestID, если он включен
		requestID := chimiddleware.GetReqID(r.Context())
		if requestID == "" {
			requestID = uuid.New().String()
		}

		rwWithStatus := newResponseWriterWithStatus(w)
		startTime := time.Now()

		m.logger.Debug("Incoming request", map[string]interface{}{
			"request_id":  requestID,
			"method":      r.Method,
			"path":        r.URL.Path,
			"query":       r.URL.RawQuery,
			"remote_addr": r.RemoteAddr,
			"user_agent":  r.UserAgent(),
		})

		w.Header().Set("X-Request-ID", requestID)

		next.ServeHTTP(rwWithStatus, r)

		duration := time.Since(startTime)

		fields := map[string]interface{}{
			"request_id":  requestID,
			"method":      r.Method,
			"path":        r.URL.Path,
			"status":      rwWithStatus.statusCode,
			"duration_ms": duration.Milliseconds(),
		}

		// user_id появляется в контексте только после аутентификации
		if userID, ok := r.Context().Value("user_id").(string); ok {
			fields["user_id"] = userID
		}

		// Уровень логирования зависит от кода статуса
		switch {
		case rwWithStatus.statusCode >= 500:
			m.logger.Error("Request completed with server error", nil, fields)
		case rwWithStatus.statusCode >= 400:
			m.logger.Warn("Request completed with client error", fields)
		default:
			m.logger.Info("Request completed", fields)
		}
	})
}

// responseWriterWithStatus - обертка для http.ResponseWriter, которая отслеживает код статуса
type responseWriterWithStatus struct {
	http.ResponseWriter
	statusCode int
}

func newResponseWriterWithStatus(w http.ResponseWriter) *responseWriterWithStatus {
	return &responseWriterWithStatus{
		ResponseWriter: w,
		statusCode:     http.StatusOK,
	}
}

// WriteHeader переопределяет метод для отслеживания кода статуса
func (rw *responseWriterWithStatus) WriteHeader(statusCode int) {
	rw.statusCode = statusCode
	rw.ResponseWriter.WriteHeader(statusCode)
}

// Hijack и Flush пробрасываются к базовому ResponseWriter, если он их поддерживает
func (rw *responseWriterWithStatus) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	if hijacker, ok := rw.ResponseWriter.(http.Hijacker); ok {
		return hijacker.Hijack()
	}
	return nil, nil, fmt.Errorf("underlying ResponseWriter does not support Hijack")
}

func (rw *responseWriterWithStatus) Flush() {
	if flusher, ok := rw.ResponseWriter.(http.Flusher); ok {
		flusher.Flush()
	}
}
