package handlers

import (
	"net/http"

	"github.com/nurlyy/contract_manager/internal/domain"
	"github.com/nurlyy/contract_manager/internal/repository"
	"github.com/nurlyy/contract_manager/internal/service"
)

// UserHandler обрабатывает запросы, связанные с пользователями
type UserHandler struct {
	BaseHandler
	userService     *service.UserService
	contractService *service.ContractService
}

// NewUserHandler создает новый экземпляр UserHandler
func NewUserHandler(base BaseHandler, userService *service.UserService, contractService *service.ContractService) *UserHandler {
	return &UserHandler{
		BaseHandler:     base,
		userService:     userService,
		contractService: contractService,
	}
}

// CreateUser создает нового пользователя с произвольной ролью.
// Маршрут доступен только администраторам.
func (h *UserHandler) CreateUser(w http.ResponseWriter, r *http.Request) {
	var req domain.UserCreateRequest
	if err := h.ParseJSON(r, &req); err != nil {
		h.RespondWithError(w, http.StatusBadRequest, "Invalid request format", "invalid_format")
		return
	}

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

// GetUser возвращает информацию о пользователе по ID
func (h *UserHandler) GetUser(w http.ResponseWriter, r *http.Request) {
	userID := h.GetURLParam(r, "user_id")
	if userID == "" {
		h.RespondWithError(w, http.StatusBadRequest, "User ID is required", "missing_id")
		return
	}

	user, err := h.userService.GetByID(r.Context(), userID)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.Respond(w, http.StatusOK, user)
}

// UpdateUser обновляет информацию о пользователе
func (h *UserHandler) UpdateUser(w http.ResponseWriter, r *http.Request) {
	currentUserID := h.GetUserIDFromContext(r)
	if currentUserID == "" {
		h.RespondWithError(w, http.StatusUnauthorized, "Unauthorized", "unauthorized")
		return
	}

	userID := h.GetURLParam(r, "user_id")
	if userID == "" {
		h.RespondWithError(w, http.StatusBadRequest, "User ID is required", "missing_id")
		return
	}

	// Обновлять чужой профиль может только администратор
	isAdmin := h.GetUserRoleFromContext(r) == string(domain.UserRoleAdmin)
	if userID != currentUserID && !isAdmin {
		h.RespondWithError(w, http.StatusForbidden, "Permission denied", "permission_denied")
		return
	}

	var req domain.UserUpdateRequest
	if err := h.ParseJSON(r, &req); err != nil {
		h.RespondWithError(w, http.StatusBadRequest, "Invalid request format", "invalid_format")
		return
	}

	if !h.ValidateRequest(w, req) {
		return
	}

	// Роль и активность меняет только администратор
	if (req.Role != nil || req.IsActive != nil) && !isAdmin {
		h.RespondWithError(w, http.StatusForbidden, "Permission denied to change role", "permission_denied")
		return
	}

	user, err := h.userService.Update(r.Context(), userID, req)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.Respond(w, http.StatusOK, user)
}

// DeleteUser деактивирует пользователя
func (h *UserHandler) DeleteUser(w http.ResponseWriter, r *http.Request) {
	userID := h.GetURLParam(r, "user_id")
	if userID == "" {
		h.RespondWithError(w, http.StatusBadRequest, "User ID is required", "missing_id")
		return
	}

	if err := h.userService.Delete(r.Context(), userID); err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.Respond(w, http.StatusOK, map[string]bool{"success": true})
}

// ListUsers возвращает страницу пользователей с фильтрацией
func (h *UserHandler) ListUsers(w http.ResponseWriter, r *http.Request) {
	page, size := h.GetPaginationParams(r)

	filter := repository.UserFilter{}

	if role := r.URL.Query().Get("role"); role != "" {
		userRole := domain.UserRole(role)
		filter.Role = &userRole
	}

	if isActive := r.URL.Query().Get("is_active"); isActive != "" {
		active := isActive == "true"
		filter.IsActive = &active
	}

	if department := r.URL.Query().Get("department"); department != "" {
		filter.Department = &department
	}

	if search := r.URL.Query().Get("search"); search != "" {
		filter.SearchText = &search
	}

	result, err := h.userService.List(r.Context(), filter, page, size)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.Respond(w, http.StatusOK, result)
}

// ListUserContracts возвращает контракты, за которые отвечает пользователь
func (h *UserHandler) ListUserContracts(w http.ResponseWriter, r *http.Request) {
	userID := h.GetURLParam(r, "user_id")
	if userID == "" {
		h.RespondWithError(w, http.StatusBadRequest, "User ID is required", "missing_id")
		return
	}

	contracts, err := h.contractService.ListByManager(r.Context(), userID)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.Respond(w, http.StatusOK, contracts)
}
