package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// ContractStatus определяет статус контракта
type ContractStatus string

const (
	// ContractStatusDraft - черновик контракта
	ContractStatusDraft ContractStatus = "draft"
	// ContractStatusOnReview - контракт на согласовании
	ContractStatusOnReview ContractStatus = "on_review"
	// ContractStatusActive - действующий контракт
	ContractStatusActive ContractStatus = "active"
	// ContractStatusExpired - контракт с истекшим сроком действия
	ContractStatusExpired ContractStatus = "expired"
	// ContractStatusTerminated - расторгнутый контракт
	ContractStatusTerminated ContractStatus = "terminated"
)

// statusTransitions описывает допустимые переходы между статусами контракта
var statusTransitions = map[ContractStatus][]ContractStatus{
	ContractStatusDraft:      {ContractStatusOnReview, ContractStatusTerminated},
	ContractStatusOnReview:   {ContractStatusDraft, ContractStatusActive, ContractStatusTerminated},
	ContractStatusActive:     {ContractStatusExpired, ContractStatusTerminated},
	ContractStatusExpired:    {ContractStatusActive, ContractStatusTerminated},
	ContractStatusTerminated: {},
}

// CanTransition проверяет, допустим ли переход контракта из статуса from в статус to
func CanTransition(from, to ContractStatus) bool {
	for _, allowed := range statusTransitions[from] {
		if allowed == to {
			return true
		}
	}
	return false
}

// Contract представляет модель контракта
type Contract struct {
	ID             int64            `json:"id" db:"id"`
	Name           string           `json:"name" db:"name"`
	Description    *string          `json:"description,omitempty" db:"description"`
	Number         *string          `json:"number,omitempty" db:"number"`
	CounterpartyID *string          `json:"counterparty_id,omitempty" db:"counterparty_id"`
	Status         ContractStatus   `json:"status" db:"status"`
	Amount         *decimal.Decimal `json:"amount,omitempty" db:"amount"`
	Currency       *string          `json:"currency,omitempty" db:"currency"`
	StartDate      *time.Time       `json:"start_date,omitempty" db:"start_date"`
	EndDate        *time.Time       `json:"end_date,omitempty" db:"end_date"`
	SignedAt       *time.Time       `json:"signed_at,omitempty" db:"signed_at"`
	CreatedBy      string           `json:"created_by" db:"created_by"`
	ManagerID      *string          `json:"manager_id,omitempty" db:"manager_id"`
	CreatedAt      time.Time        `json:"created_at" db:"created_at"`
	UpdatedAt      time.Time        `json:"updated_at" db:"updated_at"`
}

// ContractCreateRequest представляет данные для создания контракта.
// Этот же тип используется при полной замене полей контракта (PUT).
type ContractCreateRequest struct {
	Name           string           `json:"name" validate:"required,min=3,max=200"`
	Description    *string          `json:"description,omitempty"`
	Number         *string          `json:"number,omitempty" validate:"omitempty,max=100"`
	CounterpartyID *string          `json:"counterparty_id,omitempty" validate:"omitempty,uuid"`
	Amount         *decimal.Decimal `json:"amount,omitempty"`
	Currency       *string          `json:"currency,omitempty" validate:"omitempty,len=3"`
	StartDate      *time.Time       `json:"start_date,omitempty"`
	EndDate        *time.Time       `json:"end_date,omitempty"`
	SignedAt       *time.Time       `json:"signed_at,omitempty"`
	ManagerID      *string          `json:"manager_id,omitempty" validate:"omitempty,uuid"`
}

// ContractStatusUpdateRequest представляет запрос на смену статуса контракта
type ContractStatusUpdateRequest struct {
	Status  ContractStatus `json:"status" validate:"required,contract_status"`
	Comment *string        `json:"comment,omitempty" validate:"omitempty,max=500"`
}

// ContractResponse представляет данные контракта для API-ответов
type ContractResponse struct {
	ID             int64            `json:"id"`
	Name           string           `json:"name"`
	Description    *string          `json:"description,omitempty"`
	Number         *string          `json:"number,omitempty"`
	CounterpartyID *string          `json:"counterparty_id,omitempty"`
	Status         ContractStatus   `json:"status"`
	Amount         *decimal.Decimal `json:"amount,omitempty"`
	Currency       *string          `json:"currency,omitempty"`
	StartDate      *time.Time       `json:"start_date,omitempty"`
	EndDate        *time.Time       `json:"end_date,omitempty"`
	SignedAt       *time.Time       `json:"signed_at,omitempty"`
	CreatedBy      string           `json:"created_by"`
	ManagerID      *string          `json:"manager_id,omitempty"`
	CreatedAt      time.Time        `json:"created_at"`
	UpdatedAt      time.Time        `json:"updated_at"`
}

// ToResponse преобразует Contract в ContractResponse
func (c *Contract) ToResponse() ContractResponse {
	return ContractResponse{
		ID:             c.ID,
		Name:           c.Name,
		Description:    c.Description,
		Number:         c.Number,
		CounterpartyID: c.CounterpartyID,
		Status:         c.Status,
		Amount:         c.Amount,
		Currency:       c.Currency,
		StartDate:      c.StartDate,
		EndDate:        c.EndDate,
		SignedAt:       c.SignedAt,
		CreatedBy:      c.CreatedBy,
		ManagerID:      c.ManagerID,
		CreatedAt:      c.CreatedAt,
		UpdatedAt:      c.UpdatedAt,
	}
}

// IsActive проверяет, является ли контракт действующим
func (c *Contract) IsActive() bool {
	return c.Status == ContractStatusActive
}

// IsTerminal проверяет, находится ли контракт в конечном статусе
func (c *Contract) IsTerminal() bool {
	return c.Status == ContractStatusTerminated
}

// CanTransitionTo проверяет, допустим ли переход контракта в указанный статус
func (c *Contract) CanTransitionTo(to ContractStatus) bool {
	return CanTransition(c.Status, to)
}

// IsExpired проверяет, истек ли срок действия контракта
func (c *Contract) IsExpired() bool {
	if c.EndDate == nil {
		return false
	}
	return c.IsActive() && time.Now().After(*c.EndDate)
}

// ExpiresWithin проверяет, истекает ли действующий контракт в ближайшие days дней
func (c *Contract) ExpiresWithin(days int) bool {
	if c.EndDate == nil || !c.IsActive() {
		return false
	}
	deadline := time.Now().AddDate(0, 0, days)
	return c.EndDate.After(time.Now()) && c.EndDate.Before(deadline)
}

// ContractFilterOptions представляет параметры для фильтрации контрактов
type ContractFilterOptions struct {
	Status         *ContractStatus `json:"status,omitempty"`
	CounterpartyID *string         `json:"counterparty_id,omitempty"`
	ManagerID      *string         `json:"manager_id,omitempty"`
	CreatedBy      *string         `json:"created_by,omitempty"`
	EndBefore      *time.Time      `json:"end_before,omitempty"`
	EndAfter       *time.Time      `json:"end_after,omitempty"`
	SearchText     *string         `json:"search_text,omitempty"`
	SortBy         *string         `json:"sort_by,omitempty"`
	SortOrder      *string         `json:"sort_order,omitempty"`
	Page           int             `json:"page"`
	Size           int             `json:"size"`
}
