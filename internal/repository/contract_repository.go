package repository

import (
	"context"
	"time"

	"github.com/nurlyy/contract_manager/internal/domain"
)

// ContractRepository определяет интерфейс для работы с хранилищем контрактов
type ContractRepository interface {
	// Create создает новый контракт и заполняет сгенерированные поля
	Create(ctx context.Context, contract *domain.Contract) error

	// GetByID возвращает контракт по ID
	GetByID(ctx context.Context, id int64) (*domain.Contract, error)

	// Update полностью заменяет изменяемые поля контракта
	Update(ctx context.Context, contract *domain.Contract) error

	// UpdateStatus атомарно меняет статус контракта с проверкой допустимости перехода
	UpdateStatus(ctx context.Context, id int64, status domain.ContractStatus, updatedBy string) (*domain.Contract, error)

	// Delete удаляет контракт и возвращает удаленную запись
	Delete(ctx context.Context, id int64) (*domain.Contract, error)

	// List возвращает список контрактов с фильтрацией
	List(ctx context.Context, filter ContractFilter) ([]*domain.Contract, error)

	// Count возвращает количество контрактов с фильтрацией
	Count(ctx context.Context, filter ContractFilter) (int64, error)

	// GetByCounterparty возвращает контракты контрагента
	GetByCounterparty(ctx context.Context, counterpartyID string, filter ContractFilter) ([]*domain.Contract, error)

	// GetByManager возвращает контракты, закрепленные за менеджером
	GetByManager(ctx context.Context, managerID string, filter ContractFilter) ([]*domain.Contract, error)

	// CountByCounterparty возвращает количество контрактов контрагента
	CountByCounterparty(ctx context.Context, counterpartyID string) (int64, error)

	// GetExpiring возвращает действующие контракты, срок которых истекает в ближайшие daysThreshold дней
	GetExpiring(ctx context.Context, daysThreshold int) ([]*domain.Contract, error)

	// GetExpired возвращает действующие контракты с уже истекшим сроком
	GetExpired(ctx context.Context) ([]*domain.Contract, error)
}

// ContractFilter содержит параметры для фильтрации контрактов
type ContractFilter struct {
	IDs             []int64                 `json:"ids,omitempty"`
	Statuses        []domain.ContractStatus `json:"statuses,omitempty"`
	CounterpartyIDs []string                `json:"counterparty_ids,omitempty"`
	ManagerID       *string                 `json:"manager_id,omitempty"`
	CreatedBy       *string                 `json:"created_by,omitempty"`
	EndBefore       *time.Time              `json:"end_before,omitempty"`
	EndAfter        *time.Time              `json:"end_after,omitempty"`
	SearchText      *string                 `json:"search_text,omitempty"`
	OrderBy         *string                 `json:"order_by,omitempty"`
	OrderDir        *string                 `json:"order_dir,omitempty"`
	Limit           int                     `json:"limit"`
	Offset          int                     `json:"offset"`
}
