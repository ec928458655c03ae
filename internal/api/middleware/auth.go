package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/nurlyy/contract_manager/pkg/auth"
	"github.com/nurlyy/contract_manager/pkg/logger"
)

// AuthMiddleware предоставляет middleware для аутентификации пользователей
type AuthMiddleware struct {
	jwtManager *auth.JWTManager
	logger     logger.Logger
}

// NewAuthMiddleware создает новый экземпляр AuthMiddleware
func NewAuthMiddleware(jwtManager *auth.JWTManager, logger logger.Logger) *AuthMiddleware {
	return &AuthMiddleware{
		jwtManager: jwtManager,
		logger:     logger,
	}
}

// Authenticate проверяет наличие и валидность JWT токена
func (m *AuthMiddleware) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			http.Error(w, "Authorization header required", http.StatusUnauthorized)
			return
		}

		// Ожидаемый формат: "Bearer <token>"
		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || parts[0] != "Bearer" {
			http.Error(w, "Invalid Authorization header format", http.StatusUnauthorized)
			return
		}
		tokenString := parts[1]

		claims, err := m.jwtManager.VerifyToken(tokenString)
		if err != nil {
			m.logger.Warn("Invalid JWT token", map[string]interface{}{
				"error": err.Error(),
			})
			http.Error(w, "Invalid or expired token", http.StatusUnauthorized)
			return
		}

		// Для доступа к API годится только access-токен
		if claims.Type != string(auth.AccessToken) {
			http.Error(w, "Invalid token type", http.StatusUnauthorized)
			return
		}

		// Добавляем информацию о пользователе в контекст запроса
		ctx := context.WithValue(r.Context(), "user_id", claims.UserID)
		ctx = context.WithValue(ctx, "user_email", claims.Email)
		ctx = context.WithValue(ctx, "user_role", claims.Role)

		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// Optional проверяет JWT токен, если он есть, но не требует его наличия
func (m *AuthMiddleware) Optional(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			next.ServeHTTP(w, r)
			return
		}

		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || parts[0] != "Bearer" {
			next.ServeHTTP(w, r)
			return
		}
		tokenString := parts[1]

		claims, err := m.jwtManager.VerifyToken(tokenString)
		if err != nil || claims.Type != string(auth.AccessToken) {
			// Невалидный токен, но продолжаем как неаутентифицированный запрос
			next.ServeHTTP(w, r)
			return
		}

		ctx := context.WithValue(r.Context(), "user_id", claims.UserID)
		ctx = context.WithValue(ctx, "user_email", claims.Email)
		ctx = context.WithValue(ctx, "user_role", claims.Role)

		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequireRole проверяет, имеет ли пользователь одну из требуемых ролей.
// Ставится после Authenticate. Администраторы проходят любую проверку.
func (m *AuthMiddleware) RequireRole(roles ...string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			userRole, ok := r.Context().Value("user_role").(string)
			if !ok || userRole == "" {
				http.Error(w, "Authentication required", http.StatusUnauthorized)
				return
			}

			if userRole == "admin" {
				next.ServeHTTP(w, r)
				return
			}

			for _, role := range roles {
				if userRole == role {
					next.ServeHTTP(w, r)
					return
				}
			}

			http.Error(w, "Insufficient permissions", http.StatusForbidden)
		})
	}
}
