package service_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nurlyy/contract_manager/internal/domain"
	"github.com/nurlyy/contract_manager/internal/repository"
	"github.com/nurlyy/contract_manager/internal/repository/repotest"
	"github.com/nurlyy/contract_manager/internal/service"
	"github.com/nurlyy/contract_manager/pkg/auth"
	"github.com/nurlyy/contract_manager/pkg/config"
	"github.com/nurlyy/contract_manager/pkg/logger"
)

func newUserService() (*service.UserService, *repotest.UserRepository) {
	userRepo := repotest.NewUserRepository()
	jwtManager := auth.NewJWTManager(&config.JWTConfig{
		Secret:           "test-secret",
		AccessExpiresIn:  15 * time.Minute,
		RefreshExpiresIn: 24 * time.Hour,
		Issuer:           "contract-manager-test",
	})
	log := logger.NewLogger("error", false)

	svc := service.NewUserService(userRepo, jwtManager, nil, log)
	return svc, userRepo
}

func registerUser(t *testing.T, svc *service.UserService, email, password string) *domain.UserResponse {
	t.Helper()

	created, err := svc.Create(context.Background(), domain.UserCreateRequest{
		Email:     email,
		Password:  password,
		FirstName: "Test",
		LastName:  "User",
		Role:      domain.UserRoleViewer,
	})
	require.NoError(t, err)
	return created
}

func TestUserServiceCreate(t *testing.T) {
	svc, _ := newUserService()

	created := registerUser(t, svc, "user@example.com", "secret-password")

	assert.NotEmpty(t, created.ID)
	assert.Equal(t, "user@example.com", created.Email)
	assert.Equal(t, domain.UserRoleViewer, created.Role)
	assert.True(t, created.IsActive)

	_, err := svc.Create(context.Background(), domain.UserCreateRequest{
		Email:     "user@example.com",
		Password:  "another-password",
		FirstName: "Second",
		LastName:  "User",
		Role:      domain.UserRoleViewer,
	})
	assert.ErrorIs(t, err, domain.ErrEmailAlreadyExists)
}

func TestUserServiceLogin(t *testing.T) {
	svc, _ := newUserService()

	created := registerUser(t, svc, "login@example.com", "secret-password")

	resp, err := svc.Login(context.Background(), domain.LoginRequest{
		Email:    "login@example.com",
		Password: "secret-password",
	})
	require.NoError(t, err)
	assert.Equal(t, created.ID, resp.User.ID)
	assert.NotEmpty(t, resp.AccessToken)
	assert.NotEmpty(t, resp.RefreshToken)
	assert.True(t, resp.ExpiresAt.After(time.Now()))

	_, err = svc.Login(context.Background(), domain.LoginRequest{
		Email:    "login@example.com",
		Password: "wrong-password",
	})
	assert.ErrorIs(t, err, domain.ErrInvalidCredentials)

	_, err = svc.Login(context.Background(), domain.LoginRequest{
		Email:    "nobody@example.com",
		Password: "secret-password",
	})
	assert.ErrorIs(t, err, domain.ErrInvalidCredentials)
}

func TestUserServiceLoginDeactivated(t *testing.T) {
	svc, _ := newUserService()

	created := registerUser(t, svc, "gone@example.com", "secret-password")
	require.NoError(t, svc.Delete(context.Background(), created.ID))

	_, err := svc.Login(context.Background(), domain.LoginRequest{
		Email:    "gone@example.com",
		Password: "secret-password",
	})
	assert.ErrorIs(t, err, domain.ErrInvalidCredentials)
}

func TestUserServiceRefreshToken(t *testing.T) {
	svc, _ := newUserService()

	registerUser(t, svc, "refresh@example.com", "secret-password")
	login, err := svc.Login(context.Background(), domain.LoginRequest{
		Email:    "refresh@example.com",
		Password: "secret-password",
	})
	require.NoError(t, err)

	refreshed, err := svc.RefreshToken(context.Background(), domain.RefreshTokenRequest{
		RefreshToken: login.RefreshToken,
	})
	require.NoError(t, err)
	assert.Equal(t, login.User.ID, refreshed.User.ID)
	assert.NotEmpty(t, refreshed.AccessToken)
	assert.NotEmpty(t, refreshed.RefreshToken)

	// Access токен нельзя использовать вместо refresh
	_, err = svc.RefreshToken(context.Background(), domain.RefreshTokenRequest{
		RefreshToken: login.AccessToken,
	})
	assert.ErrorIs(t, err, auth.ErrInvalidToken)

	_, err = svc.RefreshToken(context.Background(), domain.RefreshTokenRequest{
		RefreshToken: "not-a-token",
	})
	assert.Error(t, err)
}

func TestUserServiceChangePassword(t *testing.T) {
	svc, _ := newUserService()

	created := registerUser(t, svc, "rotate@example.com", "old-password-1")

	err := svc.ChangePassword(context.Background(), created.ID, domain.ChangePasswordRequest{
		OldPassword: "wrong-password",
		NewPassword: "new-password-1",
	})
	assert.ErrorIs(t, err, domain.ErrInvalidPassword)

	err = svc.ChangePassword(context.Background(), created.ID, domain.ChangePasswordRequest{
		OldPassword: "old-password-1",
		NewPassword: "new-password-1",
	})
	require.NoError(t, err)

	_, err = svc.Login(context.Background(), domain.LoginRequest{
		Email:    "rotate@example.com",
		Password: "old-password-1",
	})
	assert.ErrorIs(t, err, domain.ErrInvalidCredentials)

	_, err = svc.Login(context.Background(), domain.LoginRequest{
		Email:    "rotate@example.com",
		Password: "new-password-1",
	})
	assert.NoError(t, err)
}

func TestUserServiceUpdate(t *testing.T) {
	svc, _ := newUserService()

	created := registerUser(t, svc, "promote@example.com", "secret-password")

	role := domain.UserRoleLawyer
	department := "Legal"
	updated, err := svc.Update(context.Background(), created.ID, domain.UserUpdateRequest{
		Role:       &role,
		Department: &department,
	})
	require.NoError(t, err)
	assert.Equal(t, domain.UserRoleLawyer, updated.Role)
	assert.Equal(t, &department, updated.Department)
	assert.Equal(t, "promote@example.com", updated.Email)

	_, err = svc.Update(context.Background(), "00000000-0000-4000-8000-000000000003", domain.UserUpdateRequest{})
	assert.ErrorIs(t, err, domain.ErrUserNotFound)
}

func TestUserServiceList(t *testing.T) {
	svc, _ := newUserService()

	registerUser(t, svc, "first@example.com", "secret-password")
	registerUser(t, svc, "second@example.com", "secret-password")
	registerUser(t, svc, "third@example.com", "secret-password")

	page, err := svc.List(context.Background(), repository.UserFilter{}, 1, 2)
	require.NoError(t, err)
	assert.Len(t, page.Items, 2)
	assert.Equal(t, int64(3), page.Total)
	assert.Equal(t, 2, page.Pages)
}
