package handlers

import (
	"net/http"

	"github.com/nurlyy/contract_manager/internal/domain"
	"github.com/nurlyy/contract_manager/internal/repository"
	"github.com/nurlyy/contract_manager/internal/service"
)

// NotificationHandler обрабатывает запросы, связанные с уведомлениями
type NotificationHandler struct {
	BaseHandler
	notificationService *service.NotificationService
}

// NewNotificationHandler создает новый экземпляр NotificationHandler
func NewNotificationHandler(base BaseHandler, notificationService *service.NotificationService) *NotificationHandler {
	return &NotificationHandler{
		BaseHandler:         base,
		notificationService: notificationService,
	}
}

// ListNotifications возвращает страницу уведомлений текущего пользователя
func (h *NotificationHandler) ListNotifications(w http.ResponseWriter, r *http.Request) {
	userID := h.GetUserIDFromContext(r)
	if userID == "" {
		h.RespondWithError(w, http.StatusUnauthorized, "Unauthorized", "unauthorized")
		return
	}

	page, size := h.GetPaginationParams(r)

	filter := domain.NotificationFilterOptions{
		Page: page,
		Size: size,
	}

	if nType := r.URL.Query().Get("type"); nType != "" {
		notificationType := domain.NotificationType(nType)
		filter.Type = &notificationType
	}

	if status := r.URL.Query().Get("status"); status != "" {
		notificationStatus := domain.NotificationStatus(status)
		filter.Status = &notificationStatus
	}

	if r.URL.Query().Get("unread_only") == "true" {
		unread := domain.NotificationStatusUnread
		filter.Status = &unread
	}

	result, err := h.notificationService.GetUserNotifications(r.Context(), userID, filter)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.Respond(w, http.StatusOK, result)
}

// GetNotification возвращает информацию об уведомлении по ID
func (h *NotificationHandler) GetNotification(w http.ResponseWriter, r *http.Request) {
	userID := h.GetUserIDFromContext(r)
	if userID == "" {
		h.RespondWithError(w, http.StatusUnauthorized, "Unauthorized", "unauthorized")
		return
	}

	notificationID := h.GetURLParam(r, "notification_id")
	if notificationID == "" {
		h.RespondWithError(w, http.StatusBadRequest, "Notification ID is required", "missing_id")
		return
	}

	notification, err := h.notificationService.GetByID(r.Context(), notificationID, userID)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.Respond(w, http.StatusOK, notification)
}

// GetUnreadCount возвращает количество непрочитанных уведомлений
func (h *NotificationHandler) GetUnreadCount(w http.ResponseWriter, r *http.Request) {
	userID := h.GetUserIDFromContext(r)
	if userID == "" {
		h.RespondWithError(w, http.StatusUnauthorized, "Unauthorized", "unauthorized")
		return
	}

	count, err := h.notificationService.GetUnreadCount(r.Context(), userID)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.Respond(w, http.StatusOK, map[string]int64{"count": count})
}

// MarkAsRead отмечает уведомление как прочитанное
func (h *NotificationHandler) MarkAsRead(w http.ResponseWriter, r *http.Request) {
	userID := h.GetUserIDFromContext(r)
	if userID == "" {
		h.RespondWithError(w, http.StatusUnauthorized, "Unauthorized", "unauthorized")
		return
	}

	notificationID := h.GetURLParam(r, "notification_id")
	if notificationID == "" {
		h.RespondWithError(w, http.StatusBadRequest, "Notification ID is required", "missing_id")
		return
	}

	if err := h.notificationService.MarkAsRead(r.Context(), notificationID, userID); err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.Respond(w, http.StatusOK, map[string]bool{"success": true})
}

// MarkAllAsRead отмечает все уведомления пользователя как прочитанные
func (h *NotificationHandler) MarkAllAsRead(w http.ResponseWriter, r *http.Request) {
	userID := h.GetUserIDFromContext(r)
	if userID == "" {
		h.RespondWithError(w, http.StatusUnauthorized, "Unauthorized", "unauthorized")
		return
	}

	if err := h.notificationService.MarkAllAsRead(r.Context(), userID); err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.Respond(w, http.StatusOK, map[string]bool{"success": true})
}

// DeleteNotification удаляет уведомление
func (h *NotificationHandler) DeleteNotification(w http.ResponseWriter, r *http.Request) {
	userID := h.GetUserIDFromContext(r)
	if userID == "" {
		h.RespondWithError(w, http.StatusUnauthorized, "Unauthorized", "unauthorized")
		return
	}

	notificationID := h.GetURLParam(r, "notification_id")
	if notificationID == "" {
		h.RespondWithError(w, http.StatusBadRequest, "Notification ID is required", "missing_id")
		return
	}

	if err := h.notificationService.Delete(r.Context(), notificationID, userID); err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.Respond(w, http.StatusOK, map[string]bool{"success": true})
}

// GetSettings возвращает настройки уведомлений пользователя
func (h *NotificationHandler) GetSettings(w http.ResponseWriter, r *http.Request) {
	userID := h.GetUserIDFromContext(r)
	if userID == "" {
		h.RespondWithError(w, http.StatusUnauthorized, "Unauthorized", "unauthorized")
		return
	}

	settings, err := h.notificationService.GetUserNotificationSettings(r.Context(), userID)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.Respond(w, http.StatusOK, settings)
}

// UpdateSettings обновляет настройки уведомлений пользователя
func (h *NotificationHandler) UpdateSettings(w http.ResponseWriter, r *http.Request) {
	userID := h.GetUserIDFromContext(r)
	if userID == "" {
		h.RespondWithError(w, http.StatusUnauthorized, "Unauthorized", "unauthorized")
		return
	}

	var req struct {
		Settings []*repository.NotificationSetting `json:"settings" validate:"required,min=1,dive,required"`
	}
	if err := h.ParseJSON(r, &req); err != nil {
		h.RespondWithError(w, http.StatusBadRequest, "Invalid request format", "invalid_format")
		return
	}

	if !h.ValidateRequest(w, req) {
		return
	}

	if err := h.notificationService.UpdateUserNotificationSettings(r.Context(), userID, req.Settings); err != nil {
		h.HandleServiceError(w, err)
		return
	}

	settings, err := h.notificationService.GetUserNotificationSettings(r.Context(), userID)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.Respond(w, http.StatusOK, settings)
}
