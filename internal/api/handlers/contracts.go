package handlers

import (
	"net/http"
	"time"

	"github.com/nurlyy/contract_manager/internal/domain"
	"github.com/nurlyy/contract_manager/internal/service"
)

// ContractHandler обрабатывает запросы, связанные с контрактами
type ContractHandler struct {
	BaseHandler
	contractService *service.ContractService
}

// NewContractHandler создает новый экземпляр ContractHandler
func NewContractHandler(base BaseHandler, contractService *service.ContractService) *ContractHandler {
	return &ContractHandler{
		BaseHandler:     base,
		contractService: contractService,
	}
}

// CreateContract обрабатывает запрос на создание нового контракта
func (h *ContractHandler) CreateContract(w http.ResponseWriter, r *http.Request) {
	userID := h.GetUserIDFromContext(r)
	if userID == "" {
		h.RespondWithError(w, http.StatusUnauthorized, "Unauthorized", "unauthorized")
		return
	}

	var req domain.ContractCreateRequest
	if err := h.ParseJSON(r, &req); err != nil {
		h.RespondWithError(w, http.StatusBadRequest, "Invalid request format", "invalid_format")
		return
	}

	if !h.ValidateRequest(w, req) {
		return
	}

	contract, err := h.contractService.Create(r.Context(), req, userID)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.Respond(w, http.StatusCreated, contract)
}

// GetContract возвращает контракт по ID
func (h *ContractHandler) GetContract(w http.ResponseWriter, r *http.Request) {
	contractID, err := h.GetIDParam(r, "contract_id")
	if err != nil {
		h.RespondWithError(w, http.StatusBadRequest, "Invalid contract ID", "invalid_id")
		return
	}

	contract, err := h.contractService.GetByID(r.Context(), contractID)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.Respond(w, http.StatusOK, contract)
}

// UpdateContract полностью заменяет данные контракта
func (h *ContractHandler) UpdateContract(w http.ResponseWriter, r *http.Request) {
	userID := h.GetUserIDFromContext(r)
	if userID == "" {
		h.RespondWithError(w, http.StatusUnauthorized, "Unauthorized", "unauthorized")
		return
	}

	contractID, err := h.GetIDParam(r, "contract_id")
	if err != nil {
		h.RespondWithError(w, http.StatusBadRequest, "Invalid contract ID", "invalid_id")
		return
	}

	var req domain.ContractCreateRequest
	if err := h.ParseJSON(r, &req); err != nil {
		h.RespondWithError(w, http.StatusBadRequest, "Invalid request format", "invalid_format")
		return
	}

	if !h.ValidateRequest(w, req) {
		return
	}

	contract, err := h.contractService.Update(r.Context(), contractID, req, userID)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.Respond(w, http.StatusOK, contract)
}

// DeleteContract удаляет контракт и возвращает снимок удаленной записи
func (h *ContractHandler) DeleteContract(w http.ResponseWriter, r *http.Request) {
	userID := h.GetUserIDFromContext(r)
	if userID == "" {
		h.RespondWithError(w, http.StatusUnauthorized, "Unauthorized", "unauthorized")
		return
	}

	contractID, err := h.GetIDParam(r, "contract_id")
	if err != nil {
		h.RespondWithError(w, http.StatusBadRequest, "Invalid contract ID", "invalid_id")
		return
	}

	contract, err := h.contractService.Delete(r.Context(), contractID, userID)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.Respond(w, http.StatusOK, contract)
}

// ListContracts возвращает все контракты без пагинации
func (h *ContractHandler) ListContracts(w http.ResponseWriter, r *http.Request) {
	contracts, err := h.contractService.List(r.Context())
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.Respond(w, http.StatusOK, contracts)
}

// SearchContracts возвращает страницу контрактов с фильтрацией
func (h *ContractHandler) SearchContracts(w http.ResponseWriter, r *http.Request) {
	userID := h.GetUserIDFromContext(r)
	page, size := h.GetPaginationParams(r)

	filter := domain.ContractFilterOptions{
		Page: page,
		Size: size,
	}

	if status := r.URL.Query().Get("status"); status != "" {
		contractStatus := domain.ContractStatus(status)
		filter.Status = &contractStatus
	}

	if counterpartyID := r.URL.Query().Get("counterparty_id"); counterpartyID != "" {
		filter.CounterpartyID = &counterpartyID
	}

	if managerID := r.URL.Query().Get("manager_id"); managerID != "" {
		filter.ManagerID = &managerID
	}

	// Фильтр только мои контракты
	if r.URL.Query().Get("my_contracts") == "true" && userID != "" {
		filter.ManagerID = &userID
	}

	if r.URL.Query().Get("created_by_me") == "true" && userID != "" {
		filter.CreatedBy = &userID
	}

	if search := r.URL.Query().Get("search"); search != "" {
		filter.SearchText = &search
	}

	// Окно по дате окончания, RFC3339
	if endBefore := r.URL.Query().Get("end_before"); endBefore != "" {
		t, err := time.Parse(time.RFC3339, endBefore)
		if err != nil {
			h.RespondWithError(w, http.StatusBadRequest, "Invalid end_before value", "invalid_date")
			return
		}
		filter.EndBefore = &t
	}

	if endAfter := r.URL.Query().Get("end_after"); endAfter != "" {
		t, err := time.Parse(time.RFC3339, endAfter)
		if err != nil {
			h.RespondWithError(w, http.StatusBadRequest, "Invalid end_after value", "invalid_date")
			return
		}
		filter.EndAfter = &t
	}

	if sortBy := r.URL.Query().Get("sort_by"); sortBy != "" {
		filter.SortBy = &sortBy
		if sortOrder := r.URL.Query().Get("sort_order"); sortOrder != "" {
			filter.SortOrder = &sortOrder
		}
	}

	result, err := h.contractService.Search(r.Context(), filter)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.Respond(w, http.StatusOK, result)
}

// UpdateContractStatus переводит контракт в новый статус
func (h *ContractHandler) UpdateContractStatus(w http.ResponseWriter, r *http.Request) {
	userID := h.GetUserIDFromContext(r)
	if userID == "" {
		h.RespondWithError(w, http.StatusUnauthorized, "Unauthorized", "unauthorized")
		return
	}

	contractID, err := h.GetIDParam(r, "contract_id")
	if err != nil {
		h.RespondWithError(w, http.StatusBadRequest, "Invalid contract ID", "invalid_id")
		return
	}

	var req domain.ContractStatusUpdateRequest
	if err := h.ParseJSON(r, &req); err != nil {
		h.RespondWithError(w, http.StatusBadRequest, "Invalid request format", "invalid_format")
		return
	}

	if !h.ValidateRequest(w, req) {
		return
	}

	contract, err := h.contractService.UpdateStatus(r.Context(), contractID, req, userID)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.Respond(w, http.StatusOK, contract)
}

// UpdateContractManager назначает или снимает ответственного менеджера
func (h *ContractHandler) UpdateContractManager(w http.ResponseWriter, r *http.Request) {
	userID := h.GetUserIDFromContext(r)
	if userID == "" {
		h.RespondWithError(w, http.StatusUnauthorized, "Unauthorized", "unauthorized")
		return
	}

	contractID, err := h.GetIDParam(r, "contract_id")
	if err != nil {
		h.RespondWithError(w, http.StatusBadRequest, "Invalid contract ID", "invalid_id")
		return
	}

	var req struct {
		ManagerID *string `json:"manager_id" validate:"omitempty,uuid"`
	}
	if err := h.ParseJSON(r, &req); err != nil {
		h.RespondWithError(w, http.StatusBadRequest, "Invalid request format", "invalid_format")
		return
	}

	if !h.ValidateRequest(w, req) {
		return
	}

	contract, err := h.contractService.AssignManager(r.Context(), contractID, req.ManagerID, userID)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.Respond(w, http.StatusOK, contract)
}
