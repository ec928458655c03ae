package repotest

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/nurlyy/contract_manager/internal/domain"
	"github.com/nurlyy/contract_manager/internal/repository"
)

// CounterpartyRepository хранит контрагентов в памяти
type CounterpartyRepository struct {
	mu             sync.Mutex
	counterparties map[string]*domain.Counterparty
}

// NewCounterpartyRepository создает пустое in-memory хранилище контрагентов
func NewCounterpartyRepository() *CounterpartyRepository {
	return &CounterpartyRepository{counterparties: make(map[string]*domain.Counterparty)}
}

// Create сохраняет контрагента
func (r *CounterpartyRepository) Create(_ context.Context, counterparty *domain.Counterparty) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored := *counterparty
	r.counterparties[stored.ID] = &stored
	return nil
}

// GetByID возвращает копию контрагента или (nil, nil), если его нет
func (r *CounterpartyRepository) GetByID(_ context.Context, id string) (*domain.Counterparty, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	counterparty, ok := r.counterparties[id]
	if !ok {
		return nil, nil
	}
	found := *counterparty
	return &found, nil
}

// GetByTaxID ищет контрагента по ИНН
func (r *CounterpartyRepository) GetByTaxID(_ context.Context, taxID string) (*domain.Counterparty, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, counterparty := range r.counterparties {
		if counterparty.TaxID != nil && *counterparty.TaxID == taxID {
			found := *counterparty
			return &found, nil
		}
	}
	return nil, nil
}

// Update полностью заменяет сохраненного контрагента
func (r *CounterpartyRepository) Update(_ context.Context, counterparty *domain.Counterparty) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.counterparties[counterparty.ID]; !ok {
		return domain.ErrCounterpartyNotFound
	}
	counterparty.UpdatedAt = time.Now()
	stored := *counterparty
	r.counterparties[stored.ID] = &stored
	return nil
}

// Delete удаляет контрагента
func (r *CounterpartyRepository) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.counterparties, id)
	return nil
}

// List возвращает контрагентов по фильтру в порядке возрастания ID
func (r *CounterpartyRepository) List(_ context.Context, filter repository.CounterpartyFilter) ([]*domain.Counterparty, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	matched := r.match(filter)
	if filter.Offset > 0 {
		if filter.Offset >= len(matched) {
			return []*domain.Counterparty{}, nil
		}
		matched = matched[filter.Offset:]
	}
	if filter.Limit > 0 && len(matched) > filter.Limit {
		matched = matched[:filter.Limit]
	}
	return matched, nil
}

// Count возвращает количество контрагентов по фильтру без учета Limit и Offset
func (r *CounterpartyRepository) Count(_ context.Context, filter repository.CounterpartyFilter) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	return int64(len(r.match(filter))), nil
}

func (r *CounterpartyRepository) match(filter repository.CounterpartyFilter) []*domain.Counterparty {
	matched := make([]*domain.Counterparty, 0, len(r.counterparties))
	for _, counterparty := range r.counterparties {
		if filter.Type != nil && counterparty.Type != *filter.Type {
			continue
		}
		if filter.SearchText != nil {
			text := strings.ToLower(*filter.SearchText)
			if !strings.Contains(strings.ToLower(counterparty.Name), text) {
				continue
			}
		}
		found := *counterparty
		matched = append(matched, &found)
	}
	sort.Slice(matched, func(i, j int) bool { return matched[i].ID < matched[j].ID })
	return matched
}
