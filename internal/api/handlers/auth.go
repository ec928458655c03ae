package handlers

import (
	"errors"
	"net/http"

	"github.com/nurlyy/contract_manager/internal/domain"
	"github.com/nurlyy/contract_manager/internal/service"
	"github.com/nurlyy/contract_manager/pkg/auth"
)

// AuthHandler обрабатывает запросы, связанные с аутентификацией
type AuthHandler struct {
	BaseHandler
	userService *service.UserService
}

// NewAuthHandler создает новый экземпляр AuthHandler
func NewAuthHandler(base BaseHandler, userService *service.UserService) *AuthHandler {
	return &AuthHandler{
		BaseHandler: base,
		userService: userService,
	}
}

// Register обрабатывает запрос на регистрацию нового пользователя
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req domain.UserCreateRequest
	if err := h.ParseJSON(r, &req); err != nil {
		h.RespondWithError(w, http.StatusBadRequest, "Invalid request format", "invalid_format")
		return
	}

	// Самостоятельная регистрация дает только роль viewer.
	// Пользователей с другими ролями заводит администратор.
	req.Role = domain.UserRoleViewer

	if !h.ValidateRequest(w, req) {
		return
	}

	user, err := h.userService.Create(r.Context(), req)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.Respond(w, http.StatusCreated, user)
}

// Login обрабатывает запрос на вход пользователя
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req domain.LoginRequest
	if err := h.ParseJSON(r, &req); err != nil {
		h.RespondWithError(w, http.StatusBadRequest, "Invalid request format", "invalid_format")
		return
	}

	if !h.ValidateRequest(w, req) {
		return
	}

	response, err := h.userService.Login(r.Context(), req)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.Respond(w, http.StatusOK, response)
}

// RefreshToken обрабатывает запрос на обновление токена доступа
func (h *AuthHandler) RefreshToken(w http.ResponseWriter, r *http.Request) {
	var req domain.RefreshTokenRequest
	if err := h.ParseJSON(r, &req); err != nil {
		h.RespondWithError(w, http.StatusBadRequest, "Invalid request format", "invalid_format")
		return
	}

	if !h.ValidateRequest(w, req) {
		return
	}

	response, err := h.userService.RefreshToken(r.Context(), req)
	if err != nil {
		// Любая причина отказа в обновлении для клиента выглядит одинаково
		if errors.Is(err, auth.ErrInvalidToken) || errors.Is(err, auth.ErrExpiredToken) ||
			errors.Is(err, auth.ErrInvalidClaims) || errors.Is(err, domain.ErrUserNotFound) ||
			errors.Is(err, domain.ErrInvalidCredentials) {
			h.RespondWithError(w, http.StatusUnauthorized, "Invalid refresh token", "invalid_token")
			return
		}
		h.HandleServiceError(w, err)
		return
	}

	h.Respond(w, http.StatusOK, response)
}

// ChangePassword обрабатывает запрос на изменение пароля
func (h *AuthHandler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	userID := h.GetUserIDFromContext(r)
	if userID == "" {
		h.RespondWithError(w, http.StatusUnauthorized, "Unauthorized", "unauthorized")
		return
	}

	var req domain.ChangePasswordRequest
	if err := h.ParseJSON(r, &req); err != nil {
		h.RespondWithError(w, http.StatusBadRequest, "Invalid request format", "invalid_format")
		return
	}

	if !h.ValidateRequest(w, req) {
		return
	}

	if err := h.userService.ChangePassword(r.Context(), userID, req); err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.Respond(w, http.StatusOK, map[string]bool{"success": true})
}

// GetCurrentUser возвращает информацию о текущем пользователе
func (h *AuthHandler) GetCurrentUser(w http.ResponseWriter, r *http.Request) {
	userID := h.GetUserIDFromContext(r)
	if userID == "" {
		h.RespondWithError(w, http.StatusUnauthorized, "Unauthorized", "unauthorized")
		return
	}

	user, err := h.userService.GetByID(r.Context(), userID)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.Respond(w, http.StatusOK, user)
}
