// Package repotest содержит in-memory реализации репозиториев для тестов.
package repotest

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/nurlyy/contract_manager/internal/domain"
	"github.com/nurlyy/contract_manager/internal/repository"
)

// ContractRepository хранит контракты в памяти, повторяя семантику
// PostgreSQL-репозитория: отсутствующая запись возвращается как (nil, nil).
type ContractRepository struct {
	mu        sync.Mutex
	nextID    int64
	contracts map[int64]*domain.Contract
}

// NewContractRepository создает пустое in-memory хранилище контрактов
func NewContractRepository() *ContractRepository {
	return &ContractRepository{contracts: make(map[int64]*domain.Contract)}
}

// Create создает контракт и присваивает ему следующий ID
func (r *ContractRepository) Create(_ context.Context, contract *domain.Contract) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.nextID++
	contract.ID = r.nextID
	stored := *contract
	r.contracts[stored.ID] = &stored
	return nil
}

// GetByID возвращает копию контракта или (nil, nil), если его нет
func (r *ContractRepository) GetByID(_ context.Context, id int64) (*domain.Contract, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	contract, ok := r.contracts[id]
	if !ok {
		return nil, nil
	}
	found := *contract
	return &found, nil
}

// Update полностью заменяет сохраненный контракт
func (r *ContractRepository) Update(_ context.Context, contract *domain.Contract) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.contracts[contract.ID]; !ok {
		return domain.ErrContractNotFound
	}
	contract.UpdatedAt = time.Now()
	stored := *contract
	r.contracts[stored.ID] = &stored
	return nil
}

// UpdateStatus меняет статус с той же проверкой перехода, что и база данных
func (r *ContractRepository) UpdateStatus(_ context.Context, id int64, status domain.ContractStatus, _ string) (*domain.Contract, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	contract, ok := r.contracts[id]
	if !ok {
		return nil, domain.ErrContractNotFound
	}
	if contract.Status == domain.ContractStatusTerminated {
		return nil, domain.ErrContractTerminated
	}
	if !domain.CanTransition(contract.Status, status) {
		return nil, fmt.Errorf("%w: %s -> %s", domain.ErrInvalidStatusTransition, contract.Status, status)
	}

	contract.Status = status
	contract.UpdatedAt = time.Now()
	updated := *contract
	return &updated, nil
}

// Delete удаляет контракт и возвращает снимок удаленной записи
func (r *ContractRepository) Delete(_ context.Context, id int64) (*domain.Contract, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	contract, ok := r.contracts[id]
	if !ok {
		return nil, nil
	}
	delete(r.contracts, id)
	deleted := *contract
	return &deleted, nil
}

// List возвращает контракты по фильтру в порядке возрастания ID
func (r *ContractRepository) List(_ context.Context, filter repository.ContractFilter) ([]*domain.Contract, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	matched := r.match(filter)
	if filter.Offset > 0 {
		if filter.Offset >= len(matched) {
			return []*domain.Contract{}, nil
		}
		matched = matched[filter.Offset:]
	}
	if filter.Limit > 0 && len(matched) > filter.Limit {
		matched = matched[:filter.Limit]
	}
	return matched, nil
}

// Count возвращает количество контрактов по фильтру без учета Limit и Offset
func (r *ContractRepository) Count(_ context.Context, filter repository.ContractFilter) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	return int64(len(r.match(filter))), nil
}

// GetByCounterparty возвращает контракты контрагента
func (r *ContractRepository) GetByCounterparty(ctx context.Context, counterpartyID string, filter repository.ContractFilter) ([]*domain.Contract, error) {
	filter.CounterpartyIDs = []string{counterpartyID}
	return r.List(ctx, filter)
}

// GetByManager возвращает контракты, закрепленные за менеджером
func (r *ContractRepository) GetByManager(ctx context.Context, managerID string, filter repository.ContractFilter) ([]*domain.Contract, error) {
	filter.ManagerID = &managerID
	return r.List(ctx, filter)
}

// CountByCounterparty возвращает количество контрактов контрагента
func (r *ContractRepository) CountByCounterparty(ctx context.Context, counterpartyID string) (int64, error) {
	return r.Count(ctx, repository.ContractFilter{CounterpartyIDs: []string{counterpartyID}})
}

// GetExpiring возвращает действующие контракты, истекающие в ближайшие daysThreshold дней
func (r *ContractRepository) GetExpiring(_ context.Context, daysThreshold int) ([]*domain.Contract, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var expiring []*domain.Contract
	for _, contract := range r.contracts {
		if contract.ExpiresWithin(daysThreshold) {
			found := *contract
			expiring = append(expiring, &found)
		}
	}
	return expiring, nil
}

// GetExpired возвращает действующие контракты с истекшим сроком
func (r *ContractRepository) GetExpired(_ context.Context) ([]*domain.Contract, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var expired []*domain.Contract
	for _, contract := range r.contracts {
		if contract.IsExpired() {
			found := *contract
			expired = append(expired, &found)
		}
	}
	return expired, nil
}

func (r *ContractRepository) match(filter repository.ContractFilter) []*domain.Contract {
	matched := make([]*domain.Contract, 0, len(r.contracts))
	for _, contract := range r.contracts {
		if !contractMatches(contract, filter) {
			continue
		}
		found := *contract
		matched = append(matched, &found)
	}
	sort.Slice(matched, func(i, j int) bool { return matched[i].ID < matched[j].ID })
	return matched
}

func contractMatches(contract *domain.Contract, filter repository.ContractFilter) bool {
	if len(filter.Statuses) > 0 && !containsStatus(filter.Statuses, contract.Status) {
		return false
	}
	if len(filter.CounterpartyIDs) > 0 {
		if contract.CounterpartyID == nil || !containsString(filter.CounterpartyIDs, *contract.CounterpartyID) {
			return false
		}
	}
	if filter.ManagerID != nil {
		if contract.ManagerID == nil || *contract.ManagerID != *filter.ManagerID {
			return false
		}
	}
	if filter.CreatedBy != nil && contract.CreatedBy != *filter.CreatedBy {
		return false
	}
	if filter.EndBefore != nil {
		if contract.EndDate == nil || contract.EndDate.After(*filter.EndBefore) {
			return false
		}
	}
	if filter.EndAfter != nil {
		if contract.EndDate == nil || contract.EndDate.Before(*filter.EndAfter) {
			return false
		}
	}
	if filter.SearchText != nil {
		text := strings.ToLower(*filter.SearchText)
		if !strings.Contains(strings.ToLower(contract.Name), text) {
			return false
		}
	}
	return true
}

func containsStatus(statuses []domain.ContractStatus, status domain.ContractStatus) bool {
	for _, s := range statuses {
		if s == status {
			return true
		}
	}
	return false
}

func containsString(values []string, value string) bool {
	for _, v := range values {
		if v == value {
			return true
		}
	}
	return false
}
