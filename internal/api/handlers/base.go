package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/nurlyy/contract_manager/internal/domain"
	apperrors "github.com/nurlyy/contract_manager/pkg/errors"
	"github.com/nurlyy/contract_manager/pkg/logger"
	"github.com/nurlyy/contract_manager/pkg/validator"
)

// ErrorResponse представляет структуру ответа с ошибкой
type ErrorResponse struct {
	ErrorMessage string      `json:"error"`
	ErrorCode    string      `json:"error_code,omitempty"`
	Details      interface{} `json:"details,omitempty"`
}

// BaseHandler содержит общие зависимости и хелперы для всех обработчиков
type BaseHandler struct {
	Logger    logger.Logger
	Validator *validator.CustomValidator
}

// NewBaseHandler создает новый экземпляр BaseHandler
func NewBaseHandler(logger logger.Logger, validator *validator.CustomValidator) BaseHandler {
	return BaseHandler{
		Logger:    logger,
		Validator: validator,
	}
}

// Respond отправляет JSON-ответ с указанным статусом.
// Тела ответов отдаются как есть: ресурс, массив или страница.
func (h BaseHandler) Respond(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	if data != nil {
		if err := json.NewEncoder(w).Encode(data); err != nil {
			h.Logger.Error("Failed to encode response", err)
		}
	}
}

// RespondWithError отправляет ответ с ошибкой
func (h BaseHandler) RespondWithError(w http.ResponseWriter, statusCode int, message, code string) {
	h.Respond(w, statusCode, ErrorResponse{
		ErrorMessage: message,
		ErrorCode:    code,
	})
}

// RespondWithValidationErrors отправляет ответ с ошибками валидации
func (h BaseHandler) RespondWithValidationErrors(w http.ResponseWriter, validationErrors validator.ValidationErrors) {
	h.Respond(w, http.StatusUnprocessableEntity, ErrorResponse{
		ErrorMessage: "Validation failed",
		ErrorCode:    "validation_error",
		Details:      validationErrors.Errors,
	})
}

// HandleServiceError переводит ошибки сервисного слоя в HTTP-ответы
func (h BaseHandler) HandleServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrContractNotFound):
		h.RespondWithError(w, http.StatusNotFound, "Contract not found", "contract_not_found")
	case errors.Is(err, domain.ErrCounterpartyNotFound):
		h.RespondWithError(w, http.StatusNotFound, "Counterparty not found", "counterparty_not_found")
	case errors.Is(err, domain.ErrUserNotFound):
		h.RespondWithError(w, http.StatusNotFound, "User not found", "user_not_found")
	case errors.Is(err, domain.ErrNotificationNotFound):
		h.RespondWithError(w, http.StatusNotFound, "Notification not found", "notification_not_found")
	case errors.Is(err, domain.ErrInvalidStatusTransition):
		h.RespondWithError(w, http.StatusConflict, err.Error(), "invalid_status_transition")
	case errors.Is(err, domain.ErrContractTerminated):
		h.RespondWithError(w, http.StatusConflict, "Contract is terminated", "contract_terminated")
	case errors.Is(err, domain.ErrCounterpartyInUse):
		h.RespondWithError(w, http.StatusConflict, "Counterparty is referenced by contracts", "counterparty_in_use")
	case errors.Is(err, domain.ErrEmailAlreadyExists):
		h.RespondWithError(w, http.StatusConflict, "User with this email already exists", "email_exists")
	case errors.Is(err, domain.ErrInvalidCredentials):
		h.RespondWithError(w, http.StatusUnauthorized, "Invalid email or password", "invalid_credentials")
	case errors.Is(err, domain.ErrInvalidPassword):
		h.RespondWithError(w, http.StatusBadRequest, "Invalid current password", "invalid_password")
	default:
		appErr := apperrors.FromError(err)
		if appErr.StatusCode >= http.StatusInternalServerError {
			h.Logger.Error("Unhandled service error", err)
		}
		h.Respond(w, appErr.StatusCode, ErrorResponse{
			ErrorMessage: appErr.Message,
			ErrorCode:    appErr.Code,
			Details:      appErr.Data,
		})
	}
}

// ParseJSON разбирает тело запроса в указанную структуру
func (h BaseHandler) ParseJSON(r *http.Request, dest interface{}) error {
	defer r.Body.Close()
	return json.NewDecoder(r.Body).Decode(dest)
}

// ValidateRequest проверяет структуру запроса и отправляет ответ с ошибками,
// если валидация не прошла. Возвращает true, если запрос валиден.
func (h BaseHandler) ValidateRequest(w http.ResponseWriter, req interface{}) bool {
	if err := h.Validator.Validate(req); err != nil {
		var validationErrors validator.ValidationErrors
		if errors.As(err, &validationErrors) {
			h.RespondWithValidationErrors(w, validationErrors)
		} else {
			h.RespondWithError(w, http.StatusBadRequest, err.Error(), "bad_request")
		}
		return false
	}
	return true
}

// GetPaginationParams извлекает параметры пагинации из запроса
func (h BaseHandler) GetPaginationParams(r *http.Request) (page, size int) {
	page = 1
	size = 20

	if pageStr := r.URL.Query().Get("page"); pageStr != "" {
		if p, err := strconv.Atoi(pageStr); err == nil && p > 0 {
			page = p
		}
	}

	if sizeStr := r.URL.Query().Get("size"); sizeStr != "" {
		if s, err := strconv.Atoi(sizeStr); err == nil && s > 0 {
			size = s
		}
	}

	if size > 100 {
		size = 100
	}

	return page, size
}

// GetUserIDFromContext возвращает ID аутентифицированного пользователя
func (h BaseHandler) GetUserIDFromContext(r *http.Request) string {
	userID, _ := r.Context().Value("user_id").(string)
	return userID
}

// GetUserRoleFromContext возвращает роль аутентифицированного пользователя
func (h BaseHandler) GetUserRoleFromContext(r *http.Request) string {
	userRole, _ := r.Context().Value("user_role").(string)
	return userRole
}

// GetURLParam возвращает строковый параметр маршрута
func (h BaseHandler) GetURLParam(r *http.Request, name string) string {
	return chi.URLParam(r, name)
}

// GetIDParam разбирает целочисленный параметр маршрута.
// Нечисловой сегмент пути это ошибка запроса, а не сервера.
func (h BaseHandler) GetIDParam(r *http.Request, name string) (int64, error) {
	return strconv.ParseInt(chi.URLParam(r, name), 10, 64)
}
