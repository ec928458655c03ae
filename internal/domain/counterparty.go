package domain

import (
	"time"
)

// CounterpartyType определяет тип контрагента
type CounterpartyType string

const (
	// CounterpartyTypeLegalEntity - юридическое лицо
	CounterpartyTypeLegalEntity CounterpartyType = "legal_entity"
	// CounterpartyTypeSoleProprietor - индивидуальный предприниматель
	CounterpartyTypeSoleProprietor CounterpartyType = "sole_proprietor"
	// CounterpartyTypeIndividual - физическое лицо
	CounterpartyTypeIndividual CounterpartyType = "individual"
	// CounterpartyTypeGovernment - государственная организация
	CounterpartyTypeGovernment CounterpartyType = "government"
)

// Counterparty представляет модель контрагента
type Counterparty struct {
	ID           string           `json:"id" db:"id"`
	Name         string           `json:"name" db:"name"`
	Type         CounterpartyType `json:"type" db:"type"`
	TaxID        *string          `json:"tax_id,omitempty" db:"tax_id"`
	Address      *string          `json:"address,omitempty" db:"address"`
	ContactName  *string          `json:"contact_name,omitempty" db:"contact_name"`
	ContactEmail *string          `json:"contact_email,omitempty" db:"contact_email"`
	ContactPhone *string          `json:"contact_phone,omitempty" db:"contact_phone"`
	CreatedBy    string           `json:"created_by" db:"created_by"`
	CreatedAt    time.Time        `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time        `json:"updated_at" db:"updated_at"`
}

// CounterpartyCreateRequest представляет данные для создания контрагента
type CounterpartyCreateRequest struct {
	Name         string           `json:"name" validate:"required,min=2,max=200"`
	Type         CounterpartyType `json:"type" validate:"required,oneof=legal_entity sole_proprietor individual government"`
	TaxID        *string          `json:"tax_id,omitempty" validate:"omitempty,min=8,max=20"`
	Address      *string          `json:"address,omitempty" validate:"omitempty,max=500"`
	ContactName  *string          `json:"contact_name,omitempty" validate:"omitempty,max=200"`
	ContactEmail *string          `json:"contact_email,omitempty" validate:"omitempty,email"`
	ContactPhone *string          `json:"contact_phone,omitempty" validate:"omitempty,max=30"`
}

// CounterpartyUpdateRequest представляет данные для обновления контрагента
type CounterpartyUpdateRequest struct {
	Name         *string           `json:"name,omitempty" validate:"omitempty,min=2,max=200"`
	Type         *CounterpartyType `json:"type,omitempty" validate:"omitempty,oneof=legal_entity sole_proprietor individual government"`
	TaxID        *string           `json:"tax_id,omitempty" validate:"omitempty,min=8,max=20"`
	Address      *string           `json:"address,omitempty" validate:"omitempty,max=500"`
	ContactName  *string           `json:"contact_name,omitempty" validate:"omitempty,max=200"`
	ContactEmail *string           `json:"contact_email,omitempty" validate:"omitempty,email"`
	ContactPhone *string           `json:"contact_phone,omitempty" validate:"omitempty,max=30"`
}

// CounterpartyResponse представляет данные контрагента для API-ответов
type CounterpartyResponse struct {
	ID           string           `json:"id"`
	Name         string           `json:"name"`
	Type         CounterpartyType `json:"type"`
	TaxID        *string          `json:"tax_id,omitempty"`
	Address      *string          `json:"address,omitempty"`
	ContactName  *string          `json:"contact_name,omitempty"`
	ContactEmail *string          `json:"contact_email,omitempty"`
	ContactPhone *string          `json:"contact_phone,omitempty"`
	CreatedBy    string           `json:"created_by"`
	CreatedAt    time.Time        `json:"created_at"`
	UpdatedAt    time.Time        `json:"updated_at"`
}

// ToResponse преобразует Counterparty в CounterpartyResponse
func (c *Counterparty) ToResponse() CounterpartyResponse {
	return CounterpartyResponse{
		ID:           c.ID,
		Name:         c.Name,
		Type:         c.Type,
		TaxID:        c.TaxID,
		Address:      c.Address,
		ContactName:  c.ContactName,
		ContactEmail: c.ContactEmail,
		ContactPhone: c.ContactPhone,
		CreatedBy:    c.CreatedBy,
		CreatedAt:    c.CreatedAt,
		UpdatedAt:    c.UpdatedAt,
	}
}

// IsOrganization проверяет, является ли контрагент организацией
func (c *Counterparty) IsOrganization() bool {
	return c.Type == CounterpartyTypeLegalEntity || c.Type == CounterpartyTypeGovernment
}

// CounterpartyFilterOptions представляет параметры для фильтрации контрагентов
type CounterpartyFilterOptions struct {
	Type       *CounterpartyType `json:"type,omitempty"`
	SearchText *string           `json:"search_text,omitempty"`
	SortBy     *string           `json:"sort_by,omitempty"`
	SortOrder  *string           `json:"sort_order,omitempty"`
	Page       int               `json:"page"`
	Size       int               `json:"size"`
}
