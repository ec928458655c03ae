package api_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nurlyy/contract_manager/internal/api"
	"github.com/nurlyy/contract_manager/internal/api/handlers"
	"github.com/nurlyy/contract_manager/internal/domain"
	"github.com/nurlyy/contract_manager/internal/repository/repotest"
	"github.com/nurlyy/contract_manager/internal/service"
	"github.com/nurlyy/contract_manager/pkg/auth"
	"github.com/nurlyy/contract_manager/pkg/config"
	"github.com/nurlyy/contract_manager/pkg/logger"
	"github.com/nurlyy/contract_manager/pkg/validator"
)

const (
	testLawyerID = "5b8d1f3e-9c2a-4e7b-b1d4-6f0a8c3e5d72"
	testViewerID = "a1c3e5f7-2b4d-4f6a-9c8e-0d2f4a6b8c1e"
)

// newTestServer собирает сервер с in-memory репозиториями,
// без Redis, Kafka и метрик.
func newTestServer(t *testing.T) (*api.Server, *auth.JWTManager) {
	t.Helper()

	log := logger.NewLogger("error", false)
	jwtManager := auth.NewJWTManager(&config.JWTConfig{
		Secret:           "test-secret",
		AccessExpiresIn:  15 * time.Minute,
		RefreshExpiresIn: 24 * time.Hour,
		Issuer:           "contract-manager-test",
	})

	contractRepo := repotest.NewContractRepository()
	counterpartyRepo := repotest.NewCounterpartyRepository()
	userRepo := repotest.NewUserRepository()

	services := &api.Services{
		UserService:         service.NewUserService(userRepo, jwtManager, nil, log),
		ContractService:     service.NewContractService(contractRepo, counterpartyRepo, userRepo, nil, nil, nil, log),
		CounterpartyService: service.NewCounterpartyService(counterpartyRepo, contractRepo, nil, nil, log),
		NotificationService: service.NewNotificationService(nil, userRepo, nil, log),
	}

	server := api.NewServer(&config.Config{}, log, jwtManager, validator.NewValidator(), nil, nil, services)
	return server, jwtManager
}

func bearerToken(t *testing.T, jwtManager *auth.JWTManager, userID, email, role string) string {
	t.Helper()

	token, _, err := jwtManager.GenerateToken(userID, email, role, auth.AccessToken)
	require.NoError(t, err)
	return "Bearer " + token
}

func doRequest(t *testing.T, server http.Handler, method, target, authHeader string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}

	req := httptest.NewRequest(method, target, &buf)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}

	rec := httptest.NewRecorder()
	server.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder, dest interface{}) {
	t.Helper()
	require.NoError(t, json.NewDecoder(rec.Body).Decode(dest))
}

func createContractViaAPI(t *testing.T, server http.Handler, authHeader, name string) domain.ContractResponse {
	t.Helper()

	rec := doRequest(t, server, http.MethodPost, "/api/v1/contracts", authHeader,
		domain.ContractCreateRequest{Name: name})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var created domain.ContractResponse
	decodeBody(t, rec, &created)
	return created
}

func TestHealthEndpoint(t *testing.T) {
	server, _ := newTestServer(t)

	rec := doRequest(t, server, http.MethodGet, "/health", "", nil)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"OK"}`, rec.Body.String())
}

func TestContractsRequireAuthentication(t *testing.T) {
	server, _ := newTestServer(t)

	rec := doRequest(t, server, http.MethodGet, "/api/v1/contracts", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = doRequest(t, server, http.MethodGet, "/api/v1/contracts", "Bearer not-a-token", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRefreshTokenRejectedForAPIAccess(t *testing.T) {
	server, jwtManager := newTestServer(t)

	refresh, _, err := jwtManager.GenerateToken(testLawyerID, "lawyer@example.com", "lawyer", auth.RefreshToken)
	require.NoError(t, err)

	rec := doRequest(t, server, http.MethodGet, "/api/v1/contracts", "Bearer "+refresh, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestCreateContract(t *testing.T) {
	server, jwtManager := newTestServer(t)
	authHeader := bearerToken(t, jwtManager, testLawyerID, "lawyer@example.com", "lawyer")

	created := createContractViaAPI(t, server, authHeader, "Supply agreement")

	assert.NotZero(t, created.ID)
	assert.Equal(t, "Supply agreement", created.Name)
	assert.Equal(t, domain.ContractStatusDraft, created.Status)
	assert.Equal(t, testLawyerID, created.CreatedBy)
}

func TestCreateContractTrailingSlash(t *testing.T) {
	server, jwtManager := newTestServer(t)
	authHeader := bearerToken(t, jwtManager, testLawyerID, "lawyer@example.com", "lawyer")

	rec := doRequest(t, server, http.MethodPost, "/api/v1/contracts/", authHeader,
		domain.ContractCreateRequest{Name: "Supply agreement"})

	assert.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
}

func TestCreateContractValidation(t *testing.T) {
	server, jwtManager := newTestServer(t)
	authHeader := bearerToken(t, jwtManager, testLawyerID, "lawyer@example.com", "lawyer")

	rec := doRequest(t, server, http.MethodPost, "/api/v1/contracts", authHeader,
		map[string]string{"name": "ab"})

	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	var errResp handlers.ErrorResponse
	decodeBody(t, rec, &errResp)
	assert.Equal(t, "validation_error", errResp.ErrorCode)
	assert.NotNil(t, errResp.Details)
}

func TestGetContract(t *testing.T) {
	server, jwtManager := newTestServer(t)
	authHeader := bearerToken(t, jwtManager, testLawyerID, "lawyer@example.com", "lawyer")
	created := createContractViaAPI(t, server, authHeader, "Supply agreement")

	rec := doRequest(t, server, http.MethodGet, contractPath(created.ID), authHeader, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var fetched domain.ContractResponse
	decodeBody(t, rec, &fetched)
	assert.Equal(t, created.ID, fetched.ID)
	assert.Equal(t, "Supply agreement", fetched.Name)
}

func TestGetContractInvalidID(t *testing.T) {
	server, jwtManager := newTestServer(t)
	authHeader := bearerToken(t, jwtManager, testLawyerID, "lawyer@example.com", "lawyer")

	rec := doRequest(t, server, http.MethodGet, "/api/v1/contracts/not-a-number", authHeader, nil)

	assert.Equal(t, http.StatusBadRequest, rec.Code)

	var errResp handlers.ErrorResponse
	decodeBody(t, rec, &errResp)
	assert.Equal(t, "invalid_id", errResp.ErrorCode)
}

func TestGetContractNotFound(t *testing.T) {
	server, jwtManager := newTestServer(t)
	authHeader := bearerToken(t, jwtManager, testLawyerID, "lawyer@example.com", "lawyer")

	rec := doRequest(t, server, http.MethodGet, "/api/v1/contracts/9999", authHeader, nil)

	assert.Equal(t, http.StatusNotFound, rec.Code)

	var errResp handlers.ErrorResponse
	decodeBody(t, rec, &errResp)
	assert.Equal(t, "contract_not_found", errResp.ErrorCode)
}

func TestUpdateContractReplacesFields(t *testing.T) {
	server, jwtManager := newTestServer(t)
	authHeader := bearerToken(t, jwtManager, testLawyerID, "lawyer@example.com", "lawyer")

	description := "Initial description"
	rec := doRequest(t, server, http.MethodPost, "/api/v1/contracts", authHeader,
		domain.ContractCreateRequest{Name: "Supply agreement", Description: &description})
	require.Equal(t, http.StatusCreated, rec.Code)

	var created domain.ContractResponse
	decodeBody(t, rec, &created)

	rec = doRequest(t, server, http.MethodPut, contractPath(created.ID), authHeader,
		domain.ContractCreateRequest{Name: "Renamed agreement"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var updated domain.ContractResponse
	decodeBody(t, rec, &updated)
	assert.Equal(t, created.ID, updated.ID)
	assert.Equal(t, "Renamed agreement", updated.Name)
	// Замена полная: не переданное описание очищается
	assert.Nil(t, updated.Description)
	assert.Equal(t, domain.ContractStatusDraft, updated.Status)
}

func TestUpdateContractStatus(t *testing.T) {
	server, jwtManager := newTestServer(t)
	authHeader := bearerToken(t, jwtManager, testLawyerID, "lawyer@example.com", "lawyer")
	created := createContractViaAPI(t, server, authHeader, "Supply agreement")

	rec := doRequest(t, server, http.MethodPut, contractPath(created.ID)+"/status", authHeader,
		domain.ContractStatusUpdateRequest{Status: domain.ContractStatusOnReview})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var updated domain.ContractResponse
	decodeBody(t, rec, &updated)
	assert.Equal(t, domain.ContractStatusOnReview, updated.Status)
}

func TestUpdateContractStatusInvalidTransition(t *testing.T) {
	server, jwtManager := newTestServer(t)
	authHeader := bearerToken(t, jwtManager, testLawyerID, "lawyer@example.com", "lawyer")
	created := createContractViaAPI(t, server, authHeader, "Supply agreement")

	// Из черновика нельзя сразу в active
	rec := doRequest(t, server, http.MethodPut, contractPath(created.ID)+"/status", authHeader,
		domain.ContractStatusUpdateRequest{Status: domain.ContractStatusActive})

	assert.Equal(t, http.StatusConflict, rec.Code)

	var errResp handlers.ErrorResponse
	decodeBody(t, rec, &errResp)
	assert.Equal(t, "invalid_status_transition", errResp.ErrorCode)
}

func TestUpdateContractStatusUnknownValue(t *testing.T) {
	server, jwtManager := newTestServer(t)
	authHeader := bearerToken(t, jwtManager, testLawyerID, "lawyer@example.com", "lawyer")
	created := createContractViaAPI(t, server, authHeader, "Supply agreement")

	rec := doRequest(t, server, http.MethodPut, contractPath(created.ID)+"/status", authHeader,
		map[string]string{"status": "archived"})

	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	var errResp handlers.ErrorResponse
	decodeBody(t, rec, &errResp)
	assert.Equal(t, "validation_error", errResp.ErrorCode)
}

func TestDeleteContractRequiresLawyerOrAdmin(t *testing.T) {
	server, jwtManager := newTestServer(t)
	lawyerHeader := bearerToken(t, jwtManager, testLawyerID, "lawyer@example.com", "lawyer")
	viewerHeader := bearerToken(t, jwtManager, testViewerID, "viewer@example.com", "viewer")
	created := createContractViaAPI(t, server, lawyerHeader, "Supply agreement")

	rec := doRequest(t, server, http.MethodDelete, contractPath(created.ID), viewerHeader, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = doRequest(t, server, http.MethodDelete, contractPath(created.ID), lawyerHeader, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	// В ответе снимок удаленного контракта
	var deleted domain.ContractResponse
	decodeBody(t, rec, &deleted)
	assert.Equal(t, created.ID, deleted.ID)
	assert.Equal(t, "Supply agreement", deleted.Name)

	rec = doRequest(t, server, http.MethodGet, contractPath(created.ID), lawyerHeader, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestDeleteContractAdminBypassesRoleCheck(t *testing.T) {
	server, jwtManager := newTestServer(t)
	lawyerHeader := bearerToken(t, jwtManager, testLawyerID, "lawyer@example.com", "lawyer")
	adminHeader := bearerToken(t, jwtManager, "admin-user-id", "admin@example.com", "admin")
	created := createContractViaAPI(t, server, lawyerHeader, "Supply agreement")

	rec := doRequest(t, server, http.MethodDelete, contractPath(created.ID), adminHeader, nil)
	assert.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
}

func TestListContracts(t *testing.T) {
	server, jwtManager := newTestServer(t)
	authHeader := bearerToken(t, jwtManager, testLawyerID, "lawyer@example.com", "lawyer")
	createContractViaAPI(t, server, authHeader, "First agreement")
	createContractViaAPI(t, server, authHeader, "Second agreement")

	rec := doRequest(t, server, http.MethodGet, "/api/v1/contracts", authHeader, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var contracts []domain.ContractResponse
	decodeBody(t, rec, &contracts)
	assert.Len(t, contracts, 2)
}

func TestSearchContractsReturnsPage(t *testing.T) {
	server, jwtManager := newTestServer(t)
	authHeader := bearerToken(t, jwtManager, testLawyerID, "lawyer@example.com", "lawyer")
	for _, name := range []string{"First agreement", "Second agreement", "Third agreement"} {
		createContractViaAPI(t, server, authHeader, name)
	}

	rec := doRequest(t, server, http.MethodGet, "/api/v1/contracts/search?page=1&size=2", authHeader, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var page domain.PagedResponse[domain.ContractResponse]
	decodeBody(t, rec, &page)
	assert.Len(t, page.Items, 2)
	assert.EqualValues(t, 3, page.Total)
	assert.Equal(t, 1, page.Page)
	assert.Equal(t, 2, page.Size)
	assert.Equal(t, 2, page.Pages)
}

func TestSearchContractsByStatus(t *testing.T) {
	server, jwtManager := newTestServer(t)
	authHeader := bearerToken(t, jwtManager, testLawyerID, "lawyer@example.com", "lawyer")
	created := createContractViaAPI(t, server, authHeader, "First agreement")
	createContractViaAPI(t, server, authHeader, "Second agreement")

	rec := doRequest(t, server, http.MethodPut, contractPath(created.ID)+"/status", authHeader,
		domain.ContractStatusUpdateRequest{Status: domain.ContractStatusOnReview})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doRequest(t, server, http.MethodGet, "/api/v1/contracts/search?status=on_review", authHeader, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var page domain.PagedResponse[domain.ContractResponse]
	decodeBody(t, rec, &page)
	require.Len(t, page.Items, 1)
	assert.Equal(t, created.ID, page.Items[0].ID)
}

func TestRegisterLoginAndCurrentUser(t *testing.T) {
	server, _ := newTestServer(t)

	rec := doRequest(t, server, http.MethodPost, "/api/v1/auth/register", "", map[string]string{
		"email":      "new.user@example.com",
		"password":   "strong-password",
		"first_name": "New",
		"last_name":  "User",
		// Роль из запроса игнорируется, самостоятельная регистрация дает viewer
		"role": "admin",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var registered domain.UserResponse
	decodeBody(t, rec, &registered)
	assert.Equal(t, domain.UserRoleViewer, registered.Role)

	rec = doRequest(t, server, http.MethodPost, "/api/v1/auth/login", "", map[string]string{
		"email":    "new.user@example.com",
		"password": "strong-password",
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var login domain.LoginResponse
	decodeBody(t, rec, &login)
	require.NotEmpty(t, login.AccessToken)
	assert.Equal(t, "new.user@example.com", login.User.Email)

	rec = doRequest(t, server, http.MethodGet, "/api/v1/auth/me", "Bearer "+login.AccessToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var current domain.UserResponse
	decodeBody(t, rec, &current)
	assert.Equal(t, registered.ID, current.ID)
	assert.Equal(t, "new.user@example.com", current.Email)
}

func TestUserRoutesRequireAdmin(t *testing.T) {
	server, jwtManager := newTestServer(t)
	viewerHeader := bearerToken(t, jwtManager, testViewerID, "viewer@example.com", "viewer")

	rec := doRequest(t, server, http.MethodGet, "/api/v1/users", viewerHeader, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func contractPath(id int64) string {
	return "/api/v1/contracts/" + strconv.FormatInt(id, 10)
}
