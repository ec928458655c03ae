package service_test

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nurlyy/contract_manager/internal/domain"
	"github.com/nurlyy/contract_manager/internal/repository/repotest"
	"github.com/nurlyy/contract_manager/internal/service"
	apperrors "github.com/nurlyy/contract_manager/pkg/errors"
	"github.com/nurlyy/contract_manager/pkg/logger"
)

const testUserID = "3f2a1b0c-4d5e-4f6a-8b9c-0d1e2f3a4b5c"

func newContractService() (*service.ContractService, *repotest.ContractRepository, *repotest.CounterpartyRepository, *repotest.UserRepository) {
	contractRepo := repotest.NewContractRepository()
	counterpartyRepo := repotest.NewCounterpartyRepository()
	userRepo := repotest.NewUserRepository()
	log := logger.NewLogger("error", false)

	svc := service.NewContractService(contractRepo, counterpartyRepo, userRepo, nil, nil, nil, log)
	return svc, contractRepo, counterpartyRepo, userRepo
}

func strPtr(s string) *string { return &s }

func seedContract(t *testing.T, svc *service.ContractService, name string) *domain.ContractResponse {
	t.Helper()

	created, err := svc.Create(context.Background(), domain.ContractCreateRequest{Name: name}, testUserID)
	require.NoError(t, err)
	require.NotNil(t, created)
	return created
}

func TestContractServiceCreate(t *testing.T) {
	svc, _, _, _ := newContractService()

	description := "Annual supply agreement"
	amount := decimal.NewFromInt(250000)
	currency := "EUR"
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2024, 12, 31, 0, 0, 0, 0, time.UTC)

	created, err := svc.Create(context.Background(), domain.ContractCreateRequest{
		Name:        "Supply agreement",
		Description: &description,
		Amount:      &amount,
		Currency:    &currency,
		StartDate:   &start,
		EndDate:     &end,
	}, testUserID)

	require.NoError(t, err)
	assert.NotZero(t, created.ID)
	assert.Equal(t, "Supply agreement", created.Name)
	assert.Equal(t, domain.ContractStatusDraft, created.Status)
	assert.Equal(t, testUserID, created.CreatedBy)
	assert.Equal(t, &description, created.Description)
	assert.True(t, created.Amount.Equal(amount))
}

func TestContractServiceCreateRejectsInvertedDates(t *testing.T) {
	svc, _, _, _ := newContractService()

	start := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	_, err := svc.Create(context.Background(), domain.ContractCreateRequest{
		Name:      "Backwards contract",
		StartDate: &start,
		EndDate:   &end,
	}, testUserID)

	assert.ErrorIs(t, err, apperrors.ErrBadRequest)
}

func TestContractServiceCreateUnknownReferences(t *testing.T) {
	svc, _, counterpartyRepo, userRepo := newContractService()

	_, err := svc.Create(context.Background(), domain.ContractCreateRequest{
		Name:           "Orphan counterparty",
		CounterpartyID: strPtr("d3b07384-d9a0-4c5e-9b1a-111111111111"),
	}, testUserID)
	assert.ErrorIs(t, err, domain.ErrCounterpartyNotFound)

	_, err = svc.Create(context.Background(), domain.ContractCreateRequest{
		Name:      "Orphan manager",
		ManagerID: strPtr("d3b07384-d9a0-4c5e-9b1a-222222222222"),
	}, testUserID)
	assert.ErrorIs(t, err, domain.ErrUserNotFound)

	// С существующими ссылками контракт создается
	counterparty := &domain.Counterparty{ID: "d3b07384-d9a0-4c5e-9b1a-111111111111", Name: "Acme LLC", Type: domain.CounterpartyTypeLegalEntity}
	require.NoError(t, counterpartyRepo.Create(context.Background(), counterparty))
	manager := &domain.User{ID: "d3b07384-d9a0-4c5e-9b1a-222222222222", Email: "manager@example.com", Role: domain.UserRoleManager, IsActive: true}
	require.NoError(t, userRepo.Create(context.Background(), manager))

	created, err := svc.Create(context.Background(), domain.ContractCreateRequest{
		Name:           "Linked contract",
		CounterpartyID: &counterparty.ID,
		ManagerID:      &manager.ID,
	}, testUserID)
	require.NoError(t, err)
	assert.Equal(t, &counterparty.ID, created.CounterpartyID)
	assert.Equal(t, &manager.ID, created.ManagerID)
}

func TestContractServiceGetByID(t *testing.T) {
	svc, _, _, _ := newContractService()

	created := seedContract(t, svc, "Lookup target")

	found, err := svc.GetByID(context.Background(), created.ID)
	require.NoError(t, err)
	assert.Equal(t, created.ID, found.ID)
	assert.Equal(t, "Lookup target", found.Name)

	_, err = svc.GetByID(context.Background(), created.ID+100)
	assert.ErrorIs(t, err, domain.ErrContractNotFound)
}

func TestContractServiceUpdateReplacesAllFields(t *testing.T) {
	svc, _, _, _ := newContractService()

	description := "Initial description"
	number := "CTR-0001"
	created, err := svc.Create(context.Background(), domain.ContractCreateRequest{
		Name:        "Original name",
		Description: &description,
		Number:      &number,
	}, testUserID)
	require.NoError(t, err)

	// Не переданные в запросе поля очищаются: замена полная, а не частичная
	updated, err := svc.Update(context.Background(), created.ID, domain.ContractCreateRequest{
		Name: "Renamed contract",
	}, testUserID)
	require.NoError(t, err)

	assert.Equal(t, created.ID, updated.ID)
	assert.Equal(t, "Renamed contract", updated.Name)
	assert.Nil(t, updated.Description)
	assert.Nil(t, updated.Number)
	assert.Equal(t, domain.ContractStatusDraft, updated.Status)
	assert.Equal(t, testUserID, updated.CreatedBy)
	assert.Equal(t, created.CreatedAt, updated.CreatedAt)
}

func TestContractServiceUpdateMissing(t *testing.T) {
	svc, _, _, _ := newContractService()

	_, err := svc.Update(context.Background(), 9001, domain.ContractCreateRequest{Name: "Ghost"}, testUserID)
	assert.ErrorIs(t, err, domain.ErrContractNotFound)
}

func TestContractServiceUpdateTerminated(t *testing.T) {
	svc, _, _, _ := newContractService()

	created := seedContract(t, svc, "Doomed contract")
	_, err := svc.UpdateStatus(context.Background(), created.ID, domain.ContractStatusUpdateRequest{
		Status: domain.ContractStatusTerminated,
	}, testUserID)
	require.NoError(t, err)

	_, err = svc.Update(context.Background(), created.ID, domain.ContractCreateRequest{Name: "Revived"}, testUserID)
	assert.ErrorIs(t, err, domain.ErrContractTerminated)
}

func TestContractServiceUpdateStatus(t *testing.T) {
	svc, _, _, _ := newContractService()

	created := seedContract(t, svc, "Status subject")

	reviewed, err := svc.UpdateStatus(context.Background(), created.ID, domain.ContractStatusUpdateRequest{
		Status: domain.ContractStatusOnReview,
	}, testUserID)
	require.NoError(t, err)
	assert.Equal(t, domain.ContractStatusOnReview, reviewed.Status)

	activated, err := svc.UpdateStatus(context.Background(), created.ID, domain.ContractStatusUpdateRequest{
		Status: domain.ContractStatusActive,
	}, testUserID)
	require.NoError(t, err)
	assert.Equal(t, domain.ContractStatusActive, activated.Status)
}

func TestContractServiceUpdateStatusInvalidTransition(t *testing.T) {
	svc, _, _, _ := newContractService()

	created := seedContract(t, svc, "Impatient contract")

	// Из черновика нельзя сразу в active, только через согласование
	_, err := svc.UpdateStatus(context.Background(), created.ID, domain.ContractStatusUpdateRequest{
		Status: domain.ContractStatusActive,
	}, testUserID)
	assert.ErrorIs(t, err, domain.ErrInvalidStatusTransition)
}

func TestContractServiceDelete(t *testing.T) {
	svc, _, _, _ := newContractService()

	created := seedContract(t, svc, "Disposable contract")

	deleted, err := svc.Delete(context.Background(), created.ID, testUserID)
	require.NoError(t, err)
	assert.Equal(t, created.ID, deleted.ID)
	assert.Equal(t, "Disposable contract", deleted.Name)

	_, err = svc.GetByID(context.Background(), created.ID)
	assert.ErrorIs(t, err, domain.ErrContractNotFound)

	_, err = svc.Delete(context.Background(), created.ID, testUserID)
	assert.ErrorIs(t, err, domain.ErrContractNotFound)
}

func TestContractServiceList(t *testing.T) {
	svc, _, _, _ := newContractService()

	seedContract(t, svc, "First")
	seedContract(t, svc, "Second")
	seedContract(t, svc, "Third")

	contracts, err := svc.List(context.Background())
	require.NoError(t, err)
	assert.Len(t, contracts, 3)
}

func TestContractServiceSearch(t *testing.T) {
	svc, _, _, _ := newContractService()

	for _, name := range []string{"Alpha", "Beta", "Gamma", "Delta", "Epsilon"} {
		seedContract(t, svc, name)
	}

	page, err := svc.Search(context.Background(), domain.ContractFilterOptions{Page: 2, Size: 2})
	require.NoError(t, err)
	assert.Len(t, page.Items, 2)
	assert.Equal(t, int64(5), page.Total)
	assert.Equal(t, 2, page.Page)
	assert.Equal(t, 2, page.Size)
	assert.Equal(t, 3, page.Pages)
}

func TestContractServiceSearchDefaults(t *testing.T) {
	svc, _, _, _ := newContractService()

	seedContract(t, svc, "Lonely contract")

	page, err := svc.Search(context.Background(), domain.ContractFilterOptions{})
	require.NoError(t, err)
	assert.Equal(t, 1, page.Page)
	assert.Equal(t, 20, page.Size)
	assert.Equal(t, int64(1), page.Total)
	assert.Equal(t, 1, page.Pages)
}

func TestContractServiceSearchByStatus(t *testing.T) {
	svc, _, _, _ := newContractService()

	seedContract(t, svc, "Stays draft")
	moved := seedContract(t, svc, "Goes to review")
	_, err := svc.UpdateStatus(context.Background(), moved.ID, domain.ContractStatusUpdateRequest{
		Status: domain.ContractStatusOnReview,
	}, testUserID)
	require.NoError(t, err)

	status := domain.ContractStatusOnReview
	page, err := svc.Search(context.Background(), domain.ContractFilterOptions{Status: &status})
	require.NoError(t, err)
	require.Len(t, page.Items, 1)
	assert.Equal(t, moved.ID, page.Items[0].ID)
	assert.Equal(t, int64(1), page.Total)
}

func TestContractServiceAssignManager(t *testing.T) {
	svc, _, _, userRepo := newContractService()

	manager := &domain.User{ID: "5a6b7c8d-9e0f-4a1b-b2c3-d4e5f6a7b8c9", Email: "lead@example.com", Role: domain.UserRoleManager, IsActive: true}
	require.NoError(t, userRepo.Create(context.Background(), manager))

	created := seedContract(t, svc, "Assignable contract")

	assigned, err := svc.AssignManager(context.Background(), created.ID, &manager.ID, testUserID)
	require.NoError(t, err)
	assert.Equal(t, &manager.ID, assigned.ManagerID)

	cleared, err := svc.AssignManager(context.Background(), created.ID, nil, testUserID)
	require.NoError(t, err)
	assert.Nil(t, cleared.ManagerID)

	_, err = svc.AssignManager(context.Background(), created.ID, strPtr("00000000-0000-4000-8000-000000000000"), testUserID)
	assert.ErrorIs(t, err, domain.ErrUserNotFound)
}

func TestContractServiceListByCounterparty(t *testing.T) {
	svc, _, counterpartyRepo, _ := newContractService()

	counterparty := &domain.Counterparty{ID: "9f8e7d6c-5b4a-4f3e-8d2c-1b0a9f8e7d6c", Name: "Globex", Type: domain.CounterpartyTypeLegalEntity}
	require.NoError(t, counterpartyRepo.Create(context.Background(), counterparty))

	_, err := svc.Create(context.Background(), domain.ContractCreateRequest{
		Name:           "Globex deal",
		CounterpartyID: &counterparty.ID,
	}, testUserID)
	require.NoError(t, err)
	seedContract(t, svc, "Unrelated deal")

	contracts, err := svc.ListByCounterparty(context.Background(), counterparty.ID)
	require.NoError(t, err)
	require.Len(t, contracts, 1)
	assert.Equal(t, "Globex deal", contracts[0].Name)

	_, err = svc.ListByCounterparty(context.Background(), "00000000-0000-4000-8000-000000000001")
	assert.ErrorIs(t, err, domain.ErrCounterpartyNotFound)
}
