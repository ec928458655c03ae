package handlers

import (
	"net/http"

	"github.com/nurlyy/contract_manager/internal/domain"
	"github.com/nurlyy/contract_manager/internal/service"
)

// CounterpartyHandler обрабатывает запросы, связанные с контрагентами
type CounterpartyHandler struct {
	BaseHandler
	counterpartyService *service.CounterpartyService
	contractService     *service.ContractService
}

// NewCounterpartyHandler создает новый экземпляр CounterpartyHandler
func NewCounterpartyHandler(base BaseHandler, counterpartyService *service.CounterpartyService, contractService *service.ContractService) *CounterpartyHandler {
	return &CounterpartyHandler{
		BaseHandler:         base,
		counterpartyService: counterpartyService,
		contractService:     contractService,
	}
}

// CreateCounterparty обрабатывает запрос на создание нового контрагента
func (h *CounterpartyHandler) CreateCounterparty(w http.ResponseWriter, r *http.Request) {
	userID := h.GetUserIDFromContext(r)
	if userID == "" {
		h.RespondWithError(w, http.StatusUnauthorized, "Unauthorized", "unauthorized")
		return
	}

	var req domain.CounterpartyCreateRequest
	if err := h.ParseJSON(r, &req); err != nil {
		h.RespondWithError(w, http.StatusBadRequest, "Invalid request format", "invalid_format")
		return
	}

	if !h.ValidateRequest(w, req) {
		return
	}

	counterparty, err := h.counterpartyService.Create(r.Context(), req, userID)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.Respond(w, http.StatusCreated, counterparty)
}

// GetCounterparty возвращает контрагента по ID
func (h *CounterpartyHandler) GetCounterparty(w http.ResponseWriter, r *http.Request) {
	counterpartyID := h.GetURLParam(r, "counterparty_id")
	if counterpartyID == "" {
		h.RespondWithError(w, http.StatusBadRequest, "Counterparty ID is required", "missing_id")
		return
	}

	counterparty, err := h.counterpartyService.GetByID(r.Context(), counterpartyID)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.Respond(w, http.StatusOK, counterparty)
}

// UpdateCounterparty обновляет данные контрагента
func (h *CounterpartyHandler) UpdateCounterparty(w http.ResponseWriter, r *http.Request) {
	counterpartyID := h.GetURLParam(r, "counterparty_id")
	if counterpartyID == "" {
		h.RespondWithError(w, http.StatusBadRequest, "Counterparty ID is required", "missing_id")
		return
	}

	var req domain.CounterpartyUpdateRequest
	if err := h.ParseJSON(r, &req); err != nil {
		h.RespondWithError(w, http.StatusBadRequest, "Invalid request format", "invalid_format")
		return
	}

	if !h.ValidateRequest(w, req) {
		return
	}

	counterparty, err := h.counterpartyService.Update(r.Context(), counterpartyID, req)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.Respond(w, http.StatusOK, counterparty)
}

// DeleteCounterparty удаляет контрагента.
// Контрагент, на которого ссылаются контракты, не удаляется.
func (h *CounterpartyHandler) DeleteCounterparty(w http.ResponseWriter, r *http.Request) {
	counterpartyID := h.GetURLParam(r, "counterparty_id")
	if counterpartyID == "" {
		h.RespondWithError(w, http.StatusBadRequest, "Counterparty ID is required", "missing_id")
		return
	}

	if err := h.counterpartyService.Delete(r.Context(), counterpartyID); err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.Respond(w, http.StatusOK, map[string]bool{"success": true})
}

// ListCounterparties возвращает страницу контрагентов с фильтрацией
func (h *CounterpartyHandler) ListCounterparties(w http.ResponseWriter, r *http.Request) {
	page, size := h.GetPaginationParams(r)

	filter := domain.CounterpartyFilterOptions{
		Page: page,
		Size: size,
	}

	if cType := r.URL.Query().Get("type"); cType != "" {
		counterpartyType := domain.CounterpartyType(cType)
		filter.Type = &counterpartyType
	}

	if search := r.URL.Query().Get("search"); search != "" {
		filter.SearchText = &search
	}

	if sortBy := r.URL.Query().Get("sort_by"); sortBy != "" {
		filter.SortBy = &sortBy
		if sortOrder := r.URL.Query().Get("sort_order"); sortOrder != "" {
			filter.SortOrder = &sortOrder
		}
	}

	result, err := h.counterpartyService.List(r.Context(), filter)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.Respond(w, http.StatusOK, result)
}

// ListCounterpartyContracts возвращает контракты контрагента
func (h *CounterpartyHandler) ListCounterpartyContracts(w http.ResponseWriter, r *http.Request) {
	counterpartyID := h.GetURLParam(r, "counterparty_id")
	if counterpartyID == "" {
		h.RespondWithError(w, http.StatusBadRequest, "Counterparty ID is required", "missing_id")
		return
	}

	contracts, err := h.contractService.ListByCounterparty(r.Context(), counterpartyID)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.Respond(w, http.StatusOK, contracts)
}
