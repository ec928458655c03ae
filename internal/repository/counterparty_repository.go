package repository

import (
	"context"

	"github.com/nurlyy/contract_manager/internal/domain"
)

// CounterpartyRepository определяет интерфейс для работы с хранилищем контрагентов
type CounterpartyRepository interface {
	// Create создает нового контрагента
	Create(ctx context.Context, counterparty *domain.Counterparty) error

	// GetByID возвращает контрагента по ID
	GetByID(ctx context.Context, id string) (*domain.Counterparty, error)

	// GetByTaxID возвращает контрагента по налоговому идентификатору
	GetByTaxID(ctx context.Context, taxID string) (*domain.Counterparty, error)

	// Update обновляет данные контрагента
	Update(ctx context.Context, counterparty *domain.Counterparty) error

	// Delete удаляет контрагента по ID
	Delete(ctx context.Context, id string) error

	// List возвращает список контрагентов с фильтрацией
	List(ctx context.Context, filter CounterpartyFilter) ([]*domain.Counterparty, error)

	// Count возвращает количество контрагентов с фильтрацией
	Count(ctx context.Context, filter CounterpartyFilter) (int64, error)
}

// CounterpartyFilter содержит параметры для фильтрации контрагентов
type CounterpartyFilter struct {
	IDs        []string                 `json:"ids,omitempty"`
	Type       *domain.CounterpartyType `json:"type,omitempty"`
	CreatedBy  *string                  `json:"created_by,omitempty"`
	SearchText *string                  `json:"search_text,omitempty"`
	OrderBy    *string                  `json:"order_by,omitempty"`
	OrderDir   *string                  `json:"order_dir,omitempty"`
	Limit      int                      `json:"limit"`
	Offset     int                      `json:"offset"`
}
