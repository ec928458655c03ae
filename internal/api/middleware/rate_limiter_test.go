package middleware_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nurlyy/contract_manager/internal/api/middleware"
	"github.com/nurlyy/contract_manager/pkg/logger"
)

func newInMemoryLimiter(limit int) *middleware.RateLimiter {
	return middleware.NewRateLimiter(middleware.RateLimiterConfig{
		Limit:    limit,
		Period:   60,
		Strategy: middleware.RateLimitIP,
	}, nil, nil, logger.NewLogger("error", false))
}

func limitedHandler(limiter *middleware.RateLimiter) http.Handler {
	return limiter.Limit(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
}

func sendFrom(handler http.Handler, clientIP string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Forwarded-For", clientIP)

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func TestRateLimiterAllowsUpToLimit(t *testing.T) {
	handler := limitedHandler(newInMemoryLimiter(3))

	for i, wantRemaining := range []string{"2", "1", "0"} {
		rec := sendFrom(handler, "203.0.113.10")
		require.Equal(t, http.StatusOK, rec.Code, "request %d", i+1)
		assert.Equal(t, "3", rec.Header().Get("X-RateLimit-Limit"))
		assert.Equal(t, wantRemaining, rec.Header().Get("X-RateLimit-Remaining"))
		assert.NotEmpty(t, rec.Header().Get("X-RateLimit-Reset"))
	}
}

func TestRateLimiterRejectsOverLimit(t *testing.T) {
	handler := limitedHandler(newInMemoryLimiter(2))

	sendFrom(handler, "203.0.113.10")
	sendFrom(handler, "203.0.113.10")

	rec := sendFrom(handler, "203.0.113.10")
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("Retry-After"))
	assert.Contains(t, rec.Body.String(), "Rate limit exceeded")
}

func TestRateLimiterCountsClientsSeparately(t *testing.T) {
	handler := limitedHandler(newInMemoryLimiter(1))

	rec := sendFrom(handler, "203.0.113.10")
	require.Equal(t, http.StatusOK, rec.Code)

	rec = sendFrom(handler, "203.0.113.10")
	require.Equal(t, http.StatusTooManyRequests, rec.Code)

	// Другой клиент со своим счетчиком
	rec = sendFrom(handler, "203.0.113.11")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRateLimiterUsesFirstForwardedAddress(t *testing.T) {
	handler := limitedHandler(newInMemoryLimiter(1))

	rec := sendFrom(handler, "203.0.113.10, 10.0.0.1")
	require.Equal(t, http.StatusOK, rec.Code)

	// Тот же клиент за другим прокси попадает в тот же счетчик
	rec = sendFrom(handler, "203.0.113.10, 10.0.0.2")
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
}
