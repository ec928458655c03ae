package domain_test

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/nurlyy/contract_manager/internal/domain"
)

func TestCanTransition(t *testing.T) {
	tests := []struct {
		from domain.ContractStatus
		to   domain.ContractStatus
		want bool
	}{
		{domain.ContractStatusDraft, domain.ContractStatusOnReview, true},
		{domain.ContractStatusDraft, domain.ContractStatusTerminated, true},
		{domain.ContractStatusDraft, domain.ContractStatusActive, false},
		{domain.ContractStatusDraft, domain.ContractStatusExpired, false},
		{domain.ContractStatusOnReview, domain.ContractStatusDraft, true},
		{domain.ContractStatusOnReview, domain.ContractStatusActive, true},
		{domain.ContractStatusOnReview, domain.ContractStatusTerminated, true},
		{domain.ContractStatusOnReview, domain.ContractStatusExpired, false},
		{domain.ContractStatusActive, domain.ContractStatusExpired, true},
		{domain.ContractStatusActive, domain.ContractStatusTerminated, true},
		{domain.ContractStatusActive, domain.ContractStatusDraft, false},
		{domain.ContractStatusActive, domain.ContractStatusOnReview, false},
		{domain.ContractStatusExpired, domain.ContractStatusActive, true},
		{domain.ContractStatusExpired, domain.ContractStatusTerminated, true},
		{domain.ContractStatusExpired, domain.ContractStatusDraft, false},
		{domain.ContractStatusTerminated, domain.ContractStatusDraft, false},
		{domain.ContractStatusTerminated, domain.ContractStatusOnReview, false},
		{domain.ContractStatusTerminated, domain.ContractStatusActive, false},
		{domain.ContractStatusTerminated, domain.ContractStatusExpired, false},
		{domain.ContractStatusDraft, domain.ContractStatusDraft, false},
	}

	for _, tt := range tests {
		t.Run(string(tt.from)+"_to_"+string(tt.to), func(t *testing.T) {
			assert.Equal(t, tt.want, domain.CanTransition(tt.from, tt.to))
		})
	}
}

func TestContractIsTerminal(t *testing.T) {
	contract := &domain.Contract{Status: domain.ContractStatusTerminated}
	assert.True(t, contract.IsTerminal())

	for _, status := range []domain.ContractStatus{
		domain.ContractStatusDraft,
		domain.ContractStatusOnReview,
		domain.ContractStatusActive,
		domain.ContractStatusExpired,
	} {
		contract := &domain.Contract{Status: status}
		assert.False(t, contract.IsTerminal(), "status %s", status)
	}
}

func TestContractIsExpired(t *testing.T) {
	past := time.Now().Add(-24 * time.Hour)
	future := time.Now().Add(24 * time.Hour)

	tests := []struct {
		name     string
		contract domain.Contract
		want     bool
	}{
		{
			name:     "active with past end date",
			contract: domain.Contract{Status: domain.ContractStatusActive, EndDate: &past},
			want:     true,
		},
		{
			name:     "active with future end date",
			contract: domain.Contract{Status: domain.ContractStatusActive, EndDate: &future},
			want:     false,
		},
		{
			name:     "active without end date",
			contract: domain.Contract{Status: domain.ContractStatusActive},
			want:     false,
		},
		{
			name:     "draft with past end date",
			contract: domain.Contract{Status: domain.ContractStatusDraft, EndDate: &past},
			want:     false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.contract.IsExpired())
		})
	}
}

func TestContractExpiresWithin(t *testing.T) {
	soon := time.Now().Add(3 * 24 * time.Hour)
	far := time.Now().Add(60 * 24 * time.Hour)

	active := domain.Contract{Status: domain.ContractStatusActive, EndDate: &soon}
	assert.True(t, active.ExpiresWithin(7))
	assert.False(t, active.ExpiresWithin(1))

	distant := domain.Contract{Status: domain.ContractStatusActive, EndDate: &far}
	assert.False(t, distant.ExpiresWithin(7))

	draft := domain.Contract{Status: domain.ContractStatusDraft, EndDate: &soon}
	assert.False(t, draft.ExpiresWithin(7))

	open := domain.Contract{Status: domain.ContractStatusActive}
	assert.False(t, open.ExpiresWithin(7))
}

func TestContractToResponse(t *testing.T) {
	number := "CTR-2024-001"
	counterpartyID := "7b8a1f3e-9c4d-4e2a-b1f0-5a6c7d8e9f0a"
	managerID := "1a2b3c4d-5e6f-4a7b-8c9d-0e1f2a3b4c5d"
	amount := decimal.NewFromFloat(150000.50)
	currency := "USD"
	now := time.Now()

	contract := &domain.Contract{
		ID:             42,
		Name:           "Supply agreement",
		Number:         &number,
		CounterpartyID: &counterpartyID,
		Status:         domain.ContractStatusActive,
		Amount:         &amount,
		Currency:       &currency,
		StartDate:      &now,
		CreatedBy:      "creator-id",
		ManagerID:      &managerID,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	resp := contract.ToResponse()

	assert.Equal(t, int64(42), resp.ID)
	assert.Equal(t, "Supply agreement", resp.Name)
	assert.Equal(t, &number, resp.Number)
	assert.Equal(t, &counterpartyID, resp.CounterpartyID)
	assert.Equal(t, domain.ContractStatusActive, resp.Status)
	assert.True(t, resp.Amount.Equal(amount))
	assert.Equal(t, &currency, resp.Currency)
	assert.Equal(t, "creator-id", resp.CreatedBy)
	assert.Equal(t, &managerID, resp.ManagerID)
	assert.Nil(t, resp.Description)
	assert.Nil(t, resp.EndDate)
}
