package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"github.com/nurlyy/contract_manager/internal/domain"
	"github.com/nurlyy/contract_manager/internal/messaging"
	"github.com/nurlyy/contract_manager/internal/repository"
	"github.com/nurlyy/contract_manager/internal/repository/cache"
	apperrors "github.com/nurlyy/contract_manager/pkg/errors"
	"github.com/nurlyy/contract_manager/pkg/logger"
	"github.com/nurlyy/contract_manager/pkg/metrics"
)

// contractListCacheKey - ключ кэша для полного списка контрактов
const contractListCacheKey = "all"

// ContractService предоставляет методы для работы с контрактами
type ContractService struct {
	contractRepo     repository.ContractRepository
	counterpartyRepo repository.CounterpartyRepository
	userRepo         repository.UserRepository
	cacheRepo        *cache.RedisRepository
	producer         *messaging.KafkaProducer
	metrics          *metrics.Metrics
	logger           logger.Logger
}

// NewContractService создает новый экземпляр ContractService.
// Кэш, продюсер событий и метрики опциональны: при nil сервис работает только с хранилищем.
func NewContractService(
	contractRepo repository.ContractRepository,
	counterpartyRepo repository.CounterpartyRepository,
	userRepo repository.UserRepository,
	cacheRepo *cache.RedisRepository,
	producer *messaging.KafkaProducer,
	metrics *metrics.Metrics,
	logger logger.Logger,
) *ContractService {
	return &ContractService{
		contractRepo:     contractRepo,
		counterpartyRepo: counterpartyRepo,
		userRepo:         userRepo,
		cacheRepo:        cacheRepo,
		producer:         producer,
		metrics:          metrics,
		logger:           logger,
	}
}

// Create создает новый контракт в статусе draft
func (s *ContractService) Create(ctx context.Context, req domain.ContractCreateRequest, userID string) (*domain.ContractResponse, error) {
	if err := validateContractDates(req.StartDate, req.EndDate); err != nil {
		return nil, err
	}
	if err := s.checkReferences(ctx, req); err != nil {
		return nil, err
	}

	now := time.Now()
	contract := &domain.Contract{
		Name:           req.Name,
		Description:    req.Description,
		Number:         req.Number,
		CounterpartyID: req.CounterpartyID,
		Status:         domain.ContractStatusDraft,
		Amount:         req.Amount,
		Currency:       req.Currency,
		StartDate:      req.StartDate,
		EndDate:        req.EndDate,
		SignedAt:       req.SignedAt,
		CreatedBy:      userID,
		ManagerID:      req.ManagerID,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	if err := s.contractRepo.Create(ctx, contract); err != nil {
		s.logger.Error("Failed to create contract", err, map[string]interface{}{
			"name": req.Name,
		})
		return nil, err
	}

	if s.metrics != nil {
		s.metrics.IncContractsCreated()
	}

	s.refreshCache(ctx, contract)

	if s.producer != nil {
		if err := s.producer.PublishContractCreated(ctx, contract); err != nil {
			s.logger.Warn("Failed to publish contract created event", map[string]interface{}{
				"contract_id": contract.ID,
				"error":       err.Error(),
			})
		}
	}

	if contract.ManagerID != nil && *contract.ManagerID != userID {
		s.notifyContractAssigned(ctx, contract, userID)
	}

	resp := contract.ToResponse()
	return &resp, nil
}

// GetByID возвращает контракт по ID
func (s *ContractService) GetByID(ctx context.Context, id int64) (*domain.ContractResponse, error) {
	if s.cacheRepo != nil {
		cached, err := s.cacheRepo.GetContract(ctx, id)
		if err == nil {
			if s.metrics != nil {
				s.metrics.IncCacheHit()
			}
			resp := cached.ToResponse()
			return &resp, nil
		}
		if !errors.Is(err, cache.ErrCacheMiss) {
			s.logger.Warn("Failed to get contract from cache", map[string]interface{}{
				"contract_id": id,
				"error":       err.Error(),
			})
		}
		if s.metrics != nil {
			s.metrics.IncCacheMiss()
		}
	}

	contract, err := s.contractRepo.GetByID(ctx, id)
	if err != nil {
		s.logger.Error("Failed to get contract", err, map[string]interface{}{
			"contract_id": id,
		})
		return nil, err
	}
	if contract == nil {
		return nil, domain.ErrContractNotFound
	}

	if s.cacheRepo != nil {
		if err := s.cacheRepo.CacheContract(ctx, contract); err != nil {
			s.logger.Warn("Failed to cache contract", map[string]interface{}{
				"contract_id": contract.ID,
				"error":       err.Error(),
			})
		}
	}

	resp := contract.ToResponse()
	return &resp, nil
}

// Update полностью заменяет изменяемые поля контракта
func (s *ContractService) Update(ctx context.Context, id int64, req domain.ContractCreateRequest, userID string) (*domain.ContractResponse, error) {
	if err := validateContractDates(req.StartDate, req.EndDate); err != nil {
		return nil, err
	}

	contract, err := s.contractRepo.GetByID(ctx, id)
	if err != nil {
		s.logger.Error("Failed to get contract for update", err, map[string]interface{}{
			"contract_id": id,
		})
		return nil, err
	}
	if contract == nil {
		return nil, domain.ErrContractNotFound
	}
	if contract.IsTerminal() {
		return nil, domain.ErrContractTerminated
	}

	if err := s.checkReferences(ctx, req); err != nil {
		return nil, err
	}

	changes := contractChanges(contract, req)
	managerChanged := stringPtrChanged(contract.ManagerID, req.ManagerID)

	contract.Name = req.Name
	contract.Description = req.Description
	contract.Number = req.Number
	contract.CounterpartyID = req.CounterpartyID
	contract.Amount = req.Amount
	contract.Currency = req.Currency
	contract.StartDate = req.StartDate
	contract.EndDate = req.EndDate
	contract.SignedAt = req.SignedAt
	contract.ManagerID = req.ManagerID

	if err := s.contractRepo.Update(ctx, contract); err != nil {
		s.logger.Error("Failed to update contract", err, map[string]interface{}{
			"contract_id": id,
		})
		return nil, err
	}

	s.refreshCache(ctx, contract)

	if len(changes) > 0 && s.producer != nil {
		if err := s.producer.PublishContractUpdated(ctx, contract, userID, changes); err != nil {
			s.logger.Warn("Failed to publish contract updated event", map[string]interface{}{
				"contract_id": contract.ID,
				"error":       err.Error(),
			})
		}
	}

	if managerChanged && contract.ManagerID != nil && *contract.ManagerID != userID {
		s.notifyContractAssigned(ctx, contract, userID)
	}

	resp := contract.ToResponse()
	return &resp, nil
}

// UpdateStatus меняет статус контракта с проверкой допустимости перехода
func (s *ContractService) UpdateStatus(ctx context.Context, id int64, req domain.ContractStatusUpdateRequest, userID string) (*domain.ContractResponse, error) {
	current, err := s.contractRepo.GetByID(ctx, id)
	if err != nil {
		s.logger.Error("Failed to get contract for status update", err, map[string]interface{}{
			"contract_id": id,
		})
		return nil, err
	}
	if current == nil {
		return nil, domain.ErrContractNotFound
	}
	if current.IsTerminal() {
		return nil, domain.ErrContractTerminated
	}
	if !current.CanTransitionTo(req.Status) {
		return nil, fmt.Errorf("%w: %s -> %s", domain.ErrInvalidStatusTransition, current.Status, req.Status)
	}

	updated, err := s.contractRepo.UpdateStatus(ctx, id, req.Status, userID)
	if err != nil {
		s.logger.Error("Failed to update contract status", err, map[string]interface{}{
			"contract_id": id,
			"status":      req.Status,
		})
		return nil, err
	}

	if s.metrics != nil && req.Status == domain.ContractStatusExpired {
		s.metrics.IncContractsExpired()
	}

	s.refreshCache(ctx, updated)

	if s.producer != nil {
		if err := s.producer.PublishContractStatusChanged(ctx, updated, current.Status, userID); err != nil {
			s.logger.Warn("Failed to publish contract status changed event", map[string]interface{}{
				"contract_id": updated.ID,
				"error":       err.Error(),
			})
		}
	}

	s.notifyStatusChanged(ctx, updated, current.Status, userID)

	resp := updated.ToResponse()
	return &resp, nil
}

// Delete удаляет контракт и возвращает снимок удаленной записи
func (s *ContractService) Delete(ctx context.Context, id int64, userID string) (*domain.ContractResponse, error) {
	deleted, err := s.contractRepo.Delete(ctx, id)
	if err != nil {
		s.logger.Error("Failed to delete contract", err, map[string]interface{}{
			"contract_id": id,
		})
		return nil, err
	}
	if deleted == nil {
		return nil, domain.ErrContractNotFound
	}

	if s.metrics != nil {
		s.metrics.IncContractsDeleted()
	}

	if s.cacheRepo != nil {
		if err := s.cacheRepo.InvalidateContract(ctx, id); err != nil {
			s.logger.Warn("Failed to invalidate contract cache", map[string]interface{}{
				"contract_id": id,
				"error":       err.Error(),
			})
		}
	}
	s.invalidateLists(ctx)

	if s.producer != nil {
		if err := s.producer.PublishContractDeleted(ctx, deleted, userID); err != nil {
			s.logger.Warn("Failed to publish contract deleted event", map[string]interface{}{
				"contract_id": deleted.ID,
				"error":       err.Error(),
			})
		}
	}

	resp := deleted.ToResponse()
	return &resp, nil
}

// List возвращает все контракты без пагинации
func (s *ContractService) List(ctx context.Context) ([]domain.ContractResponse, error) {
	if s.cacheRepo != nil {
		cached, err := s.cacheRepo.GetContractList(ctx, contractListCacheKey)
		if err == nil {
			if s.metrics != nil {
				s.metrics.IncCacheHit()
			}
			return toContractResponses(cached), nil
		}
		if !errors.Is(err, cache.ErrCacheMiss) {
			s.logger.Warn("Failed to get contract list from cache", map[string]interface{}{
				"error": err.Error(),
			})
		}
		if s.metrics != nil {
			s.metrics.IncCacheMiss()
		}
	}

	contracts, err := s.contractRepo.List(ctx, repository.ContractFilter{})
	if err != nil {
		s.logger.Error("Failed to list contracts", err)
		return nil, err
	}

	if s.cacheRepo != nil {
		if err := s.cacheRepo.CacheContractList(ctx, contractListCacheKey, contracts); err != nil {
			s.logger.Warn("Failed to cache contract list", map[string]interface{}{
				"error": err.Error(),
			})
		}
	}

	return toContractResponses(contracts), nil
}

// Search возвращает страницу контрактов по фильтру
func (s *ContractService) Search(ctx context.Context, opts domain.ContractFilterOptions) (*domain.PagedResponse[domain.ContractResponse], error) {
	page := opts.Page
	if page < 1 {
		page = 1
	}
	size := opts.Size
	if size < 1 {
		size = 20
	}
	if size > 100 {
		size = 100
	}

	filter := buildContractFilter(opts)
	filter.Limit = size
	filter.Offset = (page - 1) * size

	var (
		contracts []*domain.Contract
		total     int64
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		contracts, err = s.contractRepo.List(gctx, filter)
		return err
	})
	g.Go(func() error {
		var err error
		total, err = s.contractRepo.Count(gctx, filter)
		return err
	})
	if err := g.Wait(); err != nil {
		s.logger.Error("Failed to search contracts", err, map[string]interface{}{
			"page": page,
			"size": size,
		})
		return nil, err
	}

	result := domain.NewPagedResponse(toContractResponses(contracts), total, page, size)
	return &result, nil
}

// ListByCounterparty возвращает контракты указанного контрагента
func (s *ContractService) ListByCounterparty(ctx context.Context, counterpartyID string) ([]domain.ContractResponse, error) {
	counterparty, err := s.counterpartyRepo.GetByID(ctx, counterpartyID)
	if err != nil {
		return nil, err
	}
	if counterparty == nil {
		return nil, domain.ErrCounterpartyNotFound
	}

	contracts, err := s.contractRepo.GetByCounterparty(ctx, counterpartyID, repository.ContractFilter{})
	if err != nil {
		s.logger.Error("Failed to list counterparty contracts", err, map[string]interface{}{
			"counterparty_id": counterpartyID,
		})
		return nil, err
	}

	return toContractResponses(contracts), nil
}

// ListByManager возвращает контракты, закрепленные за менеджером
func (s *ContractService) ListByManager(ctx context.Context, managerID string) ([]domain.ContractResponse, error) {
	contracts, err := s.contractRepo.GetByManager(ctx, managerID, repository.ContractFilter{})
	if err != nil {
		s.logger.Error("Failed to list manager contracts", err, map[string]interface{}{
			"manager_id": managerID,
		})
		return nil, err
	}

	return toContractResponses(contracts), nil
}

// AssignManager закрепляет контракт за менеджером
func (s *ContractService) AssignManager(ctx context.Context, id int64, managerID *string, userID string) (*domain.ContractResponse, error) {
	contract, err := s.contractRepo.GetByID(ctx, id)
	if err != nil {
		s.logger.Error("Failed to get contract for assignment", err, map[string]interface{}{
			"contract_id": id,
		})
		return nil, err
	}
	if contract == nil {
		return nil, domain.ErrContractNotFound
	}
	if contract.IsTerminal() {
		return nil, domain.ErrContractTerminated
	}

	if managerID != nil {
		manager, err := s.userRepo.GetByID(ctx, *managerID)
		if err != nil {
			return nil, err
		}
		if manager == nil {
			return nil, domain.ErrUserNotFound
		}
	}

	if !stringPtrChanged(contract.ManagerID, managerID) {
		resp := contract.ToResponse()
		return &resp, nil
	}

	contract.ManagerID = managerID
	if err := s.contractRepo.Update(ctx, contract); err != nil {
		s.logger.Error("Failed to assign contract manager", err, map[string]interface{}{
			"contract_id": id,
		})
		return nil, err
	}

	s.refreshCache(ctx, contract)

	if s.producer != nil {
		if err := s.producer.PublishContractAssigned(ctx, contract, userID); err != nil {
			s.logger.Warn("Failed to publish contract assigned event", map[string]interface{}{
				"contract_id": contract.ID,
				"error":       err.Error(),
			})
		}
	}

	if contract.ManagerID != nil && *contract.ManagerID != userID {
		s.notifyContractAssigned(ctx, contract, userID)
	}

	resp := contract.ToResponse()
	return &resp, nil
}

// checkReferences проверяет существование контрагента и менеджера из запроса
func (s *ContractService) checkReferences(ctx context.Context, req domain.ContractCreateRequest) error {
	if req.CounterpartyID != nil {
		counterparty, err := s.counterpartyRepo.GetByID(ctx, *req.CounterpartyID)
		if err != nil {
			return err
		}
		if counterparty == nil {
			return domain.ErrCounterpartyNotFound
		}
	}

	if req.ManagerID != nil {
		manager, err := s.userRepo.GetByID(ctx, *req.ManagerID)
		if err != nil {
			return err
		}
		if manager == nil {
			return domain.ErrUserNotFound
		}
	}

	return nil
}

// refreshCache обновляет кэш контракта и сбрасывает кэшированные списки
func (s *ContractService) refreshCache(ctx context.Context, contract *domain.Contract) {
	if s.cacheRepo == nil {
		return
	}
	if err := s.cacheRepo.CacheContract(ctx, contract); err != nil {
		s.logger.Warn("Failed to cache contract", map[string]interface{}{
			"contract_id": contract.ID,
			"error":       err.Error(),
		})
	}
	s.invalidateLists(ctx)
}

// invalidateLists сбрасывает кэшированные списки контрактов
func (s *ContractService) invalidateLists(ctx context.Context) {
	if s.cacheRepo == nil {
		return
	}
	if err := s.cacheRepo.InvalidateContractLists(ctx); err != nil {
		s.logger.Warn("Failed to invalidate contract list cache", map[string]interface{}{
			"error": err.Error(),
		})
	}
}

// notifyContractAssigned отправляет уведомление о назначении контракта менеджеру
func (s *ContractService) notifyContractAssigned(ctx context.Context, contract *domain.Contract, assignerID string) {
	if s.producer == nil || contract.ManagerID == nil {
		return
	}

	event := &messaging.NotificationEvent{
		UserIDs:    []string{*contract.ManagerID},
		Title:      "Contract assigned",
		Content:    fmt.Sprintf("You have been assigned to contract \"%s\"", contract.Name),
		Type:       string(domain.NotificationTypeContractAssigned),
		EntityID:   strconv.FormatInt(contract.ID, 10),
		EntityType: "contract",
		CreatedAt:  time.Now(),
		MetaData: map[string]string{
			"contract_id":   strconv.FormatInt(contract.ID, 10),
			"contract_name": contract.Name,
			"assigner_id":   assignerID,
		},
	}

	if err := s.producer.PublishNotification(ctx, event); err != nil {
		s.logger.Warn("Failed to publish assignment notification", map[string]interface{}{
			"contract_id": contract.ID,
			"error":       err.Error(),
		})
	}
}

// notifyStatusChanged отправляет уведомление о смене статуса контракта
func (s *ContractService) notifyStatusChanged(ctx context.Context, contract *domain.Contract, oldStatus domain.ContractStatus, updatedBy string) {
	if s.producer == nil {
		return
	}
	recipients := make([]string, 0, 2)
	if contract.CreatedBy != updatedBy {
		recipients = append(recipients, contract.CreatedBy)
	}
	if contract.ManagerID != nil && *contract.ManagerID != updatedBy && *contract.ManagerID != contract.CreatedBy {
		recipients = append(recipients, *contract.ManagerID)
	}
	if len(recipients) == 0 {
		return
	}

	event := &messaging.NotificationEvent{
		UserIDs:    recipients,
		Title:      "Contract status changed",
		Content:    fmt.Sprintf("Contract \"%s\" moved from %s to %s", contract.Name, oldStatus, contract.Status),
		Type:       string(domain.NotificationTypeContractStatusChanged),
		EntityID:   strconv.FormatInt(contract.ID, 10),
		EntityType: "contract",
		CreatedAt:  time.Now(),
		MetaData: map[string]string{
			"contract_id": strconv.FormatInt(contract.ID, 10),
			"old_status":  string(oldStatus),
			"new_status":  string(contract.Status),
			"updated_by":  updatedBy,
		},
	}

	if err := s.producer.PublishNotification(ctx, event); err != nil {
		s.logger.Warn("Failed to publish status change notification", map[string]interface{}{
			"contract_id": contract.ID,
			"error":       err.Error(),
		})
	}
}

// validateContractDates проверяет согласованность дат контракта
func validateContractDates(startDate, endDate *time.Time) error {
	if startDate != nil && endDate != nil && endDate.Before(*startDate) {
		return apperrors.BadRequest("contract end date must not be before start date")
	}
	return nil
}

// buildContractFilter преобразует параметры фильтрации в фильтр репозитория
func buildContractFilter(opts domain.ContractFilterOptions) repository.ContractFilter {
	filter := repository.ContractFilter{
		ManagerID:  opts.ManagerID,
		CreatedBy:  opts.CreatedBy,
		EndBefore:  opts.EndBefore,
		EndAfter:   opts.EndAfter,
		SearchText: opts.SearchText,
		OrderBy:    opts.SortBy,
		OrderDir:   opts.SortOrder,
	}
	if opts.Status != nil {
		filter.Statuses = []domain.ContractStatus{*opts.Status}
	}
	if opts.CounterpartyID != nil {
		filter.CounterpartyIDs = []string{*opts.CounterpartyID}
	}
	return filter
}

// contractChanges собирает карту изменений полей контракта для события
func contractChanges(contract *domain.Contract, req domain.ContractCreateRequest) map[string]interface{} {
	changes := make(map[string]interface{})

	if contract.Name != req.Name {
		changes["name"] = fieldChange(contract.Name, req.Name)
	}
	if stringPtrChanged(contract.Description, req.Description) {
		changes["description"] = fieldChange(contract.Description, req.Description)
	}
	if stringPtrChanged(contract.Number, req.Number) {
		changes["number"] = fieldChange(contract.Number, req.Number)
	}
	if stringPtrChanged(contract.CounterpartyID, req.CounterpartyID) {
		changes["counterparty_id"] = fieldChange(contract.CounterpartyID, req.CounterpartyID)
	}
	if decimalPtrChanged(contract.Amount, req.Amount) {
		changes["amount"] = fieldChange(contract.Amount, req.Amount)
	}
	if stringPtrChanged(contract.Currency, req.Currency) {
		changes["currency"] = fieldChange(contract.Currency, req.Currency)
	}
	if timePtrChanged(contract.StartDate, req.StartDate) {
		changes["start_date"] = fieldChange(contract.StartDate, req.StartDate)
	}
	if timePtrChanged(contract.EndDate, req.EndDate) {
		changes["end_date"] = fieldChange(contract.EndDate, req.EndDate)
	}
	if timePtrChanged(contract.SignedAt, req.SignedAt) {
		changes["signed_at"] = fieldChange(contract.SignedAt, req.SignedAt)
	}
	if stringPtrChanged(contract.ManagerID, req.ManagerID) {
		changes["manager_id"] = fieldChange(contract.ManagerID, req.ManagerID)
	}

	return changes
}

func fieldChange(oldValue, newValue interface{}) map[string]interface{} {
	return map[string]interface{}{
		"old": oldValue,
		"new": newValue,
	}
}

func stringPtrChanged(oldValue, newValue *string) bool {
	if oldValue == nil && newValue == nil {
		return false
	}
	if oldValue == nil || newValue == nil {
		return true
	}
	return *oldValue != *newValue
}

func timePtrChanged(oldValue, newValue *time.Time) bool {
	if oldValue == nil && newValue == nil {
		return false
	}
	if oldValue == nil || newValue == nil {
		return true
	}
	return !oldValue.Equal(*newValue)
}

func decimalPtrChanged(oldValue, newValue *decimal.Decimal) bool {
	if oldValue == nil && newValue == nil {
		return false
	}
	if oldValue == nil || newValue == nil {
		return true
	}
	return !oldValue.Equal(*newValue)
}

// toContractResponses преобразует список контрактов в ответы API
func toContractResponses(contracts []*domain.Contract) []domain.ContractResponse {
	responses := make([]domain.ContractResponse, 0, len(contracts))
	for _, contract := range contracts {
		responses = append(responses, contract.ToResponse())
	}
	return responses
}
