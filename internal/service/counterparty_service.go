package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/nurlyy/contract_manager/internal/domain"
	"github.com/nurlyy/contract_manager/internal/messaging"
	"github.com/nurlyy/contract_manager/internal/repository"
	"github.com/nurlyy/contract_manager/internal/repository/cache"
	apperrors "github.com/nurlyy/contract_manager/pkg/errors"
	"github.com/nurlyy/contract_manager/pkg/logger"
)

// CounterpartyService предоставляет методы для работы с контрагентами
type CounterpartyService struct {
	counterpartyRepo repository.CounterpartyRepository
	contractRepo     repository.ContractRepository
	cacheRepo        *cache.RedisRepository
	producer         *messaging.KafkaProducer
	logger           logger.Logger
}

// NewCounterpartyService создает новый экземпляр CounterpartyService.
// Кэш и продюсер событий опциональны: при nil сервис работает только с хранилищем.
func NewCounterpartyService(
	counterpartyRepo repository.CounterpartyRepository,
	contractRepo repository.ContractRepository,
	cacheRepo *cache.RedisRepository,
	producer *messaging.KafkaProducer,
	logger logger.Logger,
) *CounterpartyService {
	return &CounterpartyService{
		counterpartyRepo: counterpartyRepo,
		contractRepo:     contractRepo,
		cacheRepo:        cacheRepo,
		producer:         producer,
		logger:           logger,
	}
}

// Create создает нового контрагента
func (s *CounterpartyService) Create(ctx context.Context, req domain.CounterpartyCreateRequest, userID string) (*domain.CounterpartyResponse, error) {
	if req.TaxID != nil {
		existing, err := s.counterpartyRepo.GetByTaxID(ctx, *req.TaxID)
		if err != nil {
			return nil, err
		}
		if existing != nil {
			return nil, apperrors.Conflict("Counterparty", "tax_id", *req.TaxID)
		}
	}

	now := time.Now()
	counterparty := &domain.Counterparty{
		ID:           uuid.New().String(),
		Name:         req.Name,
		Type:         req.Type,
		TaxID:        req.TaxID,
		Address:      req.Address,
		ContactName:  req.ContactName,
		ContactEmail: req.ContactEmail,
		ContactPhone: req.ContactPhone,
		CreatedBy:    userID,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.counterpartyRepo.Create(ctx, counterparty); err != nil {
		s.logger.Error("Failed to create counterparty", err, map[string]interface{}{
			"name": req.Name,
		})
		return nil, err
	}

	s.cacheCounterparty(ctx, counterparty)

	if s.producer != nil {
		if err := s.producer.PublishCounterpartyCreated(ctx, counterparty); err != nil {
			s.logger.Warn("Failed to publish counterparty created event", map[string]interface{}{
				"counterparty_id": counterparty.ID,
				"error":           err.Error(),
			})
		}
	}

	resp := counterparty.ToResponse()
	return &resp, nil
}

// GetByID возвращает контрагента по ID
func (s *CounterpartyService) GetByID(ctx context.Context, id string) (*domain.CounterpartyResponse, error) {
	if s.cacheRepo != nil {
		cached, err := s.cacheRepo.GetCounterparty(ctx, id)
		if err == nil {
			resp := cached.ToResponse()
			return &resp, nil
		}
		if !errors.Is(err, cache.ErrCacheMiss) {
			s.logger.Warn("Failed to get counterparty from cache", map[string]interface{}{
				"counterparty_id": id,
				"error":           err.Error(),
			})
		}
	}

	counterparty, err := s.counterpartyRepo.GetByID(ctx, id)
	if err != nil {
		s.logger.Error("Failed to get counterparty", err, map[string]interface{}{
			"counterparty_id": id,
		})
		return nil, err
	}
	if counterparty == nil {
		return nil, domain.ErrCounterpartyNotFound
	}

	s.cacheCounterparty(ctx, counterparty)

	resp := counterparty.ToResponse()
	return &resp, nil
}

// Update обновляет данные контрагента
func (s *CounterpartyService) Update(ctx context.Context, id string, req domain.CounterpartyUpdateRequest) (*domain.CounterpartyResponse, error) {
	counterparty, err := s.counterpartyRepo.GetByID(ctx, id)
	if err != nil {
		s.logger.Error("Failed to get counterparty for update", err, map[string]interface{}{
			"counterparty_id": id,
		})
		return nil, err
	}
	if counterparty == nil {
		return nil, domain.ErrCounterpartyNotFound
	}

	if req.TaxID != nil && stringPtrChanged(counterparty.TaxID, req.TaxID) {
		existing, err := s.counterpartyRepo.GetByTaxID(ctx, *req.TaxID)
		if err != nil {
			return nil, err
		}
		if existing != nil && existing.ID != id {
			return nil, apperrors.Conflict("Counterparty", "tax_id", *req.TaxID)
		}
	}

	changes := make(map[string]interface{})

	if req.Name != nil && *req.Name != counterparty.Name {
		changes["name"] = fieldChange(counterparty.Name, *req.Name)
		counterparty.Name = *req.Name
	}
	if req.Type != nil && *req.Type != counterparty.Type {
		changes["type"] = fieldChange(counterparty.Type, *req.Type)
		counterparty.Type = *req.Type
	}
	if req.TaxID != nil && stringPtrChanged(counterparty.TaxID, req.TaxID) {
		changes["tax_id"] = fieldChange(counterparty.TaxID, req.TaxID)
		counterparty.TaxID = req.TaxID
	}
	if req.Address != nil && stringPtrChanged(counterparty.Address, req.Address) {
		changes["address"] = fieldChange(counterparty.Address, req.Address)
		counterparty.Address = req.Address
	}
	if req.ContactName != nil && stringPtrChanged(counterparty.ContactName, req.ContactName) {
		changes["contact_name"] = fieldChange(counterparty.ContactName, req.ContactName)
		counterparty.ContactName = req.ContactName
	}
	if req.ContactEmail != nil && stringPtrChanged(counterparty.ContactEmail, req.ContactEmail) {
		changes["contact_email"] = fieldChange(counterparty.ContactEmail, req.ContactEmail)
		counterparty.ContactEmail = req.ContactEmail
	}
	if req.ContactPhone != nil && stringPtrChanged(counterparty.ContactPhone, req.ContactPhone) {
		changes["contact_phone"] = fieldChange(counterparty.ContactPhone, req.ContactPhone)
		counterparty.ContactPhone = req.ContactPhone
	}

	if len(changes) == 0 {
		resp := counterparty.ToResponse()
		return &resp, nil
	}

	if err := s.counterpartyRepo.Update(ctx, counterparty); err != nil {
		s.logger.Error("Failed to update counterparty", err, map[string]interface{}{
			"counterparty_id": id,
		})
		return nil, err
	}

	s.cacheCounterparty(ctx, counterparty)

	if s.producer != nil {
		if err := s.producer.PublishCounterpartyUpdated(ctx, counterparty, changes); err != nil {
			s.logger.Warn("Failed to publish counterparty updated event", map[string]interface{}{
				"counterparty_id": id,
				"error":           err.Error(),
			})
		}
	}

	resp := counterparty.ToResponse()
	return &resp, nil
}

// Delete удаляет контрагента, на которого не ссылаются контракты
func (s *CounterpartyService) Delete(ctx context.Context, id string) error {
	counterparty, err := s.counterpartyRepo.GetByID(ctx, id)
	if err != nil {
		s.logger.Error("Failed to get counterparty for deletion", err, map[string]interface{}{
			"counterparty_id": id,
		})
		return err
	}
	if counterparty == nil {
		return domain.ErrCounterpartyNotFound
	}

	contractCount, err := s.contractRepo.CountByCounterparty(ctx, id)
	if err != nil {
		return err
	}
	if contractCount > 0 {
		return domain.ErrCounterpartyInUse
	}

	if err := s.counterpartyRepo.Delete(ctx, id); err != nil {
		s.logger.Error("Failed to delete counterparty", err, map[string]interface{}{
			"counterparty_id": id,
		})
		return err
	}

	if s.cacheRepo != nil {
		if err := s.cacheRepo.InvalidateCounterparty(ctx, id); err != nil {
			s.logger.Warn("Failed to invalidate counterparty cache", map[string]interface{}{
				"counterparty_id": id,
				"error":           err.Error(),
			})
		}
	}

	if s.producer != nil {
		if err := s.producer.PublishCounterpartyDeleted(ctx, counterparty); err != nil {
			s.logger.Warn("Failed to publish counterparty deleted event", map[string]interface{}{
				"counterparty_id": id,
				"error":           err.Error(),
			})
		}
	}

	return nil
}

// List возвращает страницу контрагентов по фильтру
func (s *CounterpartyService) List(ctx context.Context, opts domain.CounterpartyFilterOptions) (*domain.PagedResponse[domain.CounterpartyResponse], error) {
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

	filter := repository.CounterpartyFilter{
		Type:       opts.Type,
		SearchText: opts.SearchText,
		OrderBy:    opts.SortBy,
		OrderDir:   opts.SortOrder,
		Limit:      size,
		Offset:     (page - 1) * size,
	}

	var (
		counterparties []*domain.Counterparty
		total          int64
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		counterparties, err = s.counterpartyRepo.List(gctx, filter)
		return err
	})
	g.Go(func() error {
		var err error
		total, err = s.counterpartyRepo.Count(gctx, filter)
		return err
	})
	if err := g.Wait(); err != nil {
		s.logger.Error("Failed to list counterparties", err, map[string]interface{}{
			"page": page,
			"size": size,
		})
		return nil, err
	}

	responses := make([]domain.CounterpartyResponse, 0, len(counterparties))
	for _, counterparty := range counterparties {
		responses = append(responses, counterparty.ToResponse())
	}

	result := domain.NewPagedResponse(responses, total, page, size)
	return &result, nil
}

// cacheCounterparty сохраняет контрагента в кэше
func (s *CounterpartyService) cacheCounterparty(ctx context.Context, counterparty *domain.Counterparty) {
	if s.cacheRepo == nil {
		return
	}
	if err := s.cacheRepo.CacheCounterparty(ctx, counterparty); err != nil {
		s.logger.Warn("Failed to cache counterparty", map[string]interface{}{
			"counterparty_id": counterparty.ID,
			"error":           err.Error(),
		})
	}
}
