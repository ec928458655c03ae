package service_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nurlyy/contract_manager/internal/domain"
	"github.com/nurlyy/contract_manager/internal/repository/repotest"
	"github.com/nurlyy/contract_manager/internal/service"
	apperrors "github.com/nurlyy/contract_manager/pkg/errors"
	"github.com/nurlyy/contract_manager/pkg/logger"
)

func newCounterpartyService() (*service.CounterpartyService, *repotest.CounterpartyRepository, *repotest.ContractRepository) {
	counterpartyRepo := repotest.NewCounterpartyRepository()
	contractRepo := repotest.NewContractRepository()
	log := logger.NewLogger("error", false)

	svc := service.NewCounterpartyService(counterpartyRepo, contractRepo, nil, nil, log)
	return svc, counterpartyRepo, contractRepo
}

func TestCounterpartyServiceCreate(t *testing.T) {
	svc, _, _ := newCounterpartyService()

	taxID := "7701234567"
	created, err := svc.Create(context.Background(), domain.CounterpartyCreateRequest{
		Name:  "Acme LLC",
		Type:  domain.CounterpartyTypeLegalEntity,
		TaxID: &taxID,
	}, testUserID)

	require.NoError(t, err)
	assert.NotEmpty(t, created.ID)
	assert.Equal(t, "Acme LLC", created.Name)
	assert.Equal(t, domain.CounterpartyTypeLegalEntity, created.Type)
	assert.Equal(t, &taxID, created.TaxID)
}

func TestCounterpartyServiceCreateDuplicateTaxID(t *testing.T) {
	svc, _, _ := newCounterpartyService()

	taxID := "7701234567"
	_, err := svc.Create(context.Background(), domain.CounterpartyCreateRequest{
		Name:  "Acme LLC",
		Type:  domain.CounterpartyTypeLegalEntity,
		TaxID: &taxID,
	}, testUserID)
	require.NoError(t, err)

	_, err = svc.Create(context.Background(), domain.CounterpartyCreateRequest{
		Name:  "Acme clone",
		Type:  domain.CounterpartyTypeLegalEntity,
		TaxID: &taxID,
	}, testUserID)
	assert.ErrorIs(t, err, apperrors.ErrConflict)
}

func TestCounterpartyServiceGetByID(t *testing.T) {
	svc, _, _ := newCounterpartyService()

	created, err := svc.Create(context.Background(), domain.CounterpartyCreateRequest{
		Name: "Globex",
		Type: domain.CounterpartyTypeGovernment,
	}, testUserID)
	require.NoError(t, err)

	found, err := svc.GetByID(context.Background(), created.ID)
	require.NoError(t, err)
	assert.Equal(t, created.ID, found.ID)

	_, err = svc.GetByID(context.Background(), "00000000-0000-4000-8000-000000000002")
	assert.ErrorIs(t, err, domain.ErrCounterpartyNotFound)
}

func TestCounterpartyServiceUpdateIsPartial(t *testing.T) {
	svc, _, _ := newCounterpartyService()

	address := "1 Main St"
	created, err := svc.Create(context.Background(), domain.CounterpartyCreateRequest{
		Name:    "Initech",
		Type:    domain.CounterpartyTypeLegalEntity,
		Address: &address,
	}, testUserID)
	require.NoError(t, err)

	// Не переданные поля сохраняют прежние значения
	newName := "Initech Global"
	updated, err := svc.Update(context.Background(), created.ID, domain.CounterpartyUpdateRequest{
		Name: &newName,
	})
	require.NoError(t, err)
	assert.Equal(t, "Initech Global", updated.Name)
	assert.Equal(t, &address, updated.Address)
	assert.Equal(t, domain.CounterpartyTypeLegalEntity, updated.Type)
}

func TestCounterpartyServiceDeleteBlockedByContracts(t *testing.T) {
	svc, _, contractRepo := newCounterpartyService()

	created, err := svc.Create(context.Background(), domain.CounterpartyCreateRequest{
		Name: "Referenced party",
		Type: domain.CounterpartyTypeLegalEntity,
	}, testUserID)
	require.NoError(t, err)

	contract := &domain.Contract{
		Name:           "Active deal",
		CounterpartyID: &created.ID,
		Status:         domain.ContractStatusDraft,
		CreatedBy:      testUserID,
	}
	require.NoError(t, contractRepo.Create(context.Background(), contract))

	err = svc.Delete(context.Background(), created.ID)
	assert.ErrorIs(t, err, domain.ErrCounterpartyInUse)

	_, err = contractRepo.Delete(context.Background(), contract.ID)
	require.NoError(t, err)

	err = svc.Delete(context.Background(), created.ID)
	require.NoError(t, err)

	_, err = svc.GetByID(context.Background(), created.ID)
	assert.ErrorIs(t, err, domain.ErrCounterpartyNotFound)
}

func TestCounterpartyServiceList(t *testing.T) {
	svc, _, _ := newCounterpartyService()

	for _, name := range []string{"Acme", "Globex", "Initech"} {
		_, err := svc.Create(context.Background(), domain.CounterpartyCreateRequest{
			Name: name,
			Type: domain.CounterpartyTypeLegalEntity,
		}, testUserID)
		require.NoError(t, err)
	}

	page, err := svc.List(context.Background(), domain.CounterpartyFilterOptions{Page: 1, Size: 2})
	require.NoError(t, err)
	assert.Len(t, page.Items, 2)
	assert.Equal(t, int64(3), page.Total)
	assert.Equal(t, 2, page.Pages)
}
