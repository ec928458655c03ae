package messaging

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/nurlyy/contract_manager/internal/domain"
)

// Типы событий
const (
	EventTypeContractCreated       = "contract_created"
	EventTypeContractUpdated       = "contract_updated"
	EventTypeContractDeleted       = "contract_deleted"
	EventTypeContractStatusChanged = "contract_status_changed"
	EventTypeContractAssigned      = "contract_assigned"
	EventTypeContractExpiring      = "contract_expiring"
	EventTypeContractExpired       = "contract_expired"
	EventTypeCounterpartyCreated   = "counterparty_created"
	EventTypeCounterpartyUpdated   = "counterparty_updated"
	EventTypeCounterpartyDeleted   = "counterparty_deleted"
	EventTypeNotification          = "notification"
)

// ContractEvent представляет событие, связанное с контрактом
type ContractEvent struct {
	ID             int64                  `json:"id"`
	Name           string                 `json:"name"`
	Number         *string                `json:"number,omitempty"`
	Status         string                 `json:"status"`
	CounterpartyID *string                `json:"counterparty_id,omitempty"`
	ManagerID      *string                `json:"manager_id,omitempty"`
	Amount         *decimal.Decimal       `json:"amount,omitempty"`
	Currency       *string                `json:"currency,omitempty"`
	EndDate        *time.Time             `json:"end_date,omitempty"`
	CreatedBy      string                 `json:"created_by,omitempty"`
	UpdatedBy      string                 `json:"updated_by,omitempty"`
	CreatedAt      time.Time              `json:"created_at,omitempty"`
	UpdatedAt      time.Time              `json:"updated_at"`
	Type           string                 `json:"type"`
	Changes        map[string]interface{} `json:"changes,omitempty"`
	DaysLeft       int                    `json:"days_left,omitempty"`
}

// newContractEvent строит событие из модели контракта
func newContractEvent(contract *domain.Contract, eventType string) ContractEvent {
	return ContractEvent{
		ID:             contract.ID,
		Name:           contract.Name,
		Number:         contract.Number,
		Status:         string(contract.Status),
		CounterpartyID: contract.CounterpartyID,
		ManagerID:      contract.ManagerID,
		Amount:         contract.Amount,
		Currency:       contract.Currency,
		EndDate:        contract.EndDate,
		CreatedBy:      contract.CreatedBy,
		CreatedAt:      contract.CreatedAt,
		UpdatedAt:      contract.UpdatedAt,
		Type:           eventType,
	}
}

// CounterpartyEvent представляет событие, связанное с контрагентом
type CounterpartyEvent struct {
	ID               string                 `json:"id"`
	Name             string                 `json:"name"`
	CounterpartyType string                 `json:"counterparty_type"`
	CreatedBy        string                 `json:"created_by,omitempty"`
	UpdatedAt        time.Time              `json:"updated_at"`
	Type             string                 `json:"type"`
	Changes          map[string]interface{} `json:"changes,omitempty"`
}

// newCounterpartyEvent строит событие из модели контрагента
func newCounterpartyEvent(counterparty *domain.Counterparty, eventType string) CounterpartyEvent {
	return CounterpartyEvent{
		ID:               counterparty.ID,
		Name:             counterparty.Name,
		CounterpartyType: string(counterparty.Type),
		CreatedBy:        counterparty.CreatedBy,
		UpdatedAt:        counterparty.UpdatedAt,
		Type:             eventType,
	}
}

// NotificationEvent представляет событие уведомления
type NotificationEvent struct {
	UserIDs    []string          `json:"user_ids"`
	Title      string            `json:"title"`
	Content    string            `json:"content"`
	Type       string            `json:"type"`
	EntityID   string            `json:"entity_id"`
	EntityType string            `json:"entity_type"`
	CreatedAt  time.Time         `json:"created_at"`
	MetaData   map[string]string `json:"meta_data,omitempty"`
}
