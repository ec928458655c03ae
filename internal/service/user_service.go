package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/nurlyy/contract_manager/internal/domain"
	"github.com/nurlyy/contract_manager/internal/repository"
	"github.com/nurlyy/contract_manager/internal/repository/cache"
	"github.com/nurlyy/contract_manager/pkg/auth"
	"github.com/nurlyy/contract_manager/pkg/logger"
)

// UserService представляет бизнес-логику для работы с пользователями
type UserService struct {
	repo       repository.UserRepository
	jwtManager *auth.JWTManager
	cacheRepo  *cache.RedisRepository
	logger     logger.Logger
}

// NewUserService создает новый экземпляр UserService.
// Кэш опционален: при nil сервис работает только с хранилищем.
func NewUserService(repo repository.UserRepository, jwtManager *auth.JWTManager,
	cacheRepo *cache.RedisRepository, logger logger.Logger) *UserService {
	return &UserService{
		repo:       repo,
		jwtManager: jwtManager,
		cacheRepo:  cacheRepo,
		logger:     logger,
	}
}

// Create создает нового пользователя
func (s *UserService) Create(ctx context.Context, req domain.UserCreateRequest) (*domain.UserResponse, error) {
	existing, err := s.repo.GetByEmail(ctx, req.Email)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, domain.ErrEmailAlreadyExists
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		s.logger.Error("Failed to hash password", err)
		return nil, err
	}

	now := time.Now()
	user := &domain.User{
		ID:             uuid.New().String(),
		Email:          req.Email,
		HashedPassword: string(hashedPassword),
		FirstName:      req.FirstName,
		LastName:       req.LastName,
		Role:           req.Role,
		Position:       req.Position,
		Department:     req.Department,
		IsActive:       true,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	if err := s.repo.Create(ctx, user); err != nil {
		s.logger.Error("Failed to create user", err, map[string]interface{}{
			"email": req.Email,
		})
		return nil, err
	}

	response := user.ToResponse()
	return &response, nil
}

// GetByID возвращает пользователя по ID
func (s *UserService) GetByID(ctx context.Context, id string) (*domain.UserResponse, error) {
	if s.cacheRepo != nil {
		cached, err := s.cacheRepo.GetUser(ctx, id)
		if err == nil {
			response := cached.ToResponse()
			return &response, nil
		}
		if !errors.Is(err, cache.ErrCacheMiss) {
			s.logger.Warn("Failed to get user from cache", map[string]interface{}{
				"user_id": id,
				"error":   err.Error(),
			})
		}
	}

	user, err := s.repo.GetByID(ctx, id)
	if err != nil {
		s.logger.Error("Failed to get user by ID", err, map[string]interface{}{
			"user_id": id,
		})
		return nil, err
	}
	if user == nil {
		return nil, domain.ErrUserNotFound
	}

	if s.cacheRepo != nil {
		if err := s.cacheRepo.CacheUser(ctx, user); err != nil {
			s.logger.Warn("Failed to cache user", map[string]interface{}{
				"user_id": id,
				"error":   err.Error(),
			})
		}
	}

	response := user.ToResponse()
	return &response, nil
}

// GetByEmail возвращает пользователя по email
func (s *UserService) GetByEmail(ctx context.Context, email string) (*domain.UserResponse, error) {
	user, err := s.repo.GetByEmail(ctx, email)
	if err != nil {
		s.logger.Error("Failed to get user by email", err, map[string]interface{}{
			"email": email,
		})
		return nil, err
	}
	if user == nil {
		return nil, domain.ErrUserNotFound
	}

	response := user.ToResponse()
	return &response, nil
}

// Update обновляет данные пользователя
func (s *UserService) Update(ctx context.Context, id string, req domain.UserUpdateRequest) (*domain.UserResponse, error) {
	user, err := s.repo.GetByID(ctx, id)
	if err != nil {
		s.logger.Error("Failed to get user for update", err, map[string]interface{}{
			"user_id": id,
		})
		return nil, err
	}
	if user == nil {
		return nil, domain.ErrUserNotFound
	}

	if req.FirstName != nil {
		user.FirstName = *req.FirstName
	}
	if req.LastName != nil {
		user.LastName = *req.LastName
	}
	if req.Role != nil {
		user.Role = *req.Role
	}
	if req.Position != nil {
		user.Position = req.Position
	}
	if req.Department != nil {
		user.Department = req.Department
	}
	if req.IsActive != nil {
		user.IsActive = *req.IsActive
	}

	user.UpdatedAt = time.Now()

	if err := s.repo.Update(ctx, user); err != nil {
		s.logger.Error("Failed to update user", err, map[string]interface{}{
			"user_id": id,
		})
		return nil, err
	}

	s.invalidateUserCache(ctx, id)

	response := user.ToResponse()
	return &response, nil
}

// Delete деактивирует пользователя
func (s *UserService) Delete(ctx context.Context, id string) error {
	user, err := s.repo.GetByID(ctx, id)
	if err != nil {
		s.logger.Error("Failed to get user for deletion", err, map[string]interface{}{
			"user_id": id,
		})
		return err
	}
	if user == nil {
		return domain.ErrUserNotFound
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		s.logger.Error("Failed to delete user", err, map[string]interface{}{
			"user_id": id,
		})
		return err
	}

	s.invalidateUserCache(ctx, id)

	return nil
}

// List возвращает страницу пользователей по фильтру
func (s *UserService) List(ctx context.Context, filter repository.UserFilter, page, pageSize int) (*domain.PagedResponse[domain.UserResponse], error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 100 {
		pageSize = 20
	}

	filter.Limit = pageSize
	filter.Offset = (page - 1) * pageSize

	users, err := s.repo.List(ctx, filter)
	if err != nil {
		s.logger.Error("Failed to list users", err)
		return nil, err
	}

	total, err := s.repo.Count(ctx, filter)
	if err != nil {
		s.logger.Error("Failed to count users", err)
		return nil, err
	}

	responses := make([]domain.UserResponse, 0, len(users))
	for _, user := range users {
		responses = append(responses, user.ToResponse())
	}

	result := domain.NewPagedResponse(responses, total, page, pageSize)
	return &result, nil
}

// Login выполняет вход пользователя
func (s *UserService) Login(ctx context.Context, req domain.LoginRequest) (*domain.LoginResponse, error) {
	user, err := s.repo.GetByEmail(ctx, req.Email)
	if err != nil {
		s.logger.Error("Failed to get user during login", err, map[string]interface{}{
			"email": req.Email,
		})
		return nil, err
	}
	if user == nil {
		return nil, domain.ErrInvalidCredentials
	}

	if !user.IsActive {
		s.logger.Warn("Inactive user attempted to login", map[string]interface{}{
			"email": req.Email,
		})
		return nil, domain.ErrInvalidCredentials
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.HashedPassword), []byte(req.Password)); err != nil {
		s.logger.Warn("Invalid password during login", map[string]interface{}{
			"email": req.Email,
		})
		return nil, domain.ErrInvalidCredentials
	}

	accessToken, expiresAt, err := s.jwtManager.GenerateToken(user.ID, user.Email, string(user.Role), auth.AccessToken)
	if err != nil {
		s.logger.Error("Failed to generate access token", err, map[string]interface{}{
			"user_id": user.ID,
		})
		return nil, err
	}

	refreshToken, _, err := s.jwtManager.GenerateToken(user.ID, user.Email, string(user.Role), auth.RefreshToken)
	if err != nil {
		s.logger.Error("Failed to generate refresh token", err, map[string]interface{}{
			"user_id": user.ID,
		})
		return nil, err
	}

	if err := s.repo.UpdateLastLogin(ctx, user.ID); err != nil {
		s.logger.Warn("Failed to update last login time", map[string]interface{}{
			"user_id": user.ID,
			"error":   err.Error(),
		})
	}

	return &domain.LoginResponse{
		User:         user.ToResponse(),
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		ExpiresAt:    expiresAt,
	}, nil
}

// RefreshToken обновляет пару токенов
func (s *UserService) RefreshToken(ctx context.Context, req domain.RefreshTokenRequest) (*domain.LoginResponse, error) {
	accessToken, refreshToken, err := s.jwtManager.RefreshTokens(req.RefreshToken)
	if err != nil {
		s.logger.Warn("Failed to refresh tokens", map[string]interface{}{
			"error": err.Error(),
		})
		return nil, err
	}

	claims, err := s.jwtManager.VerifyToken(accessToken)
	if err != nil {
		s.logger.Error("Failed to verify refreshed token", err)
		return nil, err
	}

	user, err := s.repo.GetByID(ctx, claims.UserID)
	if err != nil {
		s.logger.Error("Failed to get user during token refresh", err, map[string]interface{}{
			"user_id": claims.UserID,
		})
		return nil, err
	}
	if user == nil {
		return nil, domain.ErrUserNotFound
	}
	if !user.IsActive {
		return nil, domain.ErrInvalidCredentials
	}

	return &domain.LoginResponse{
		User:         user.ToResponse(),
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		ExpiresAt:    claims.ExpiresAt.Time,
	}, nil
}

// ChangePassword изменяет пароль пользователя
func (s *UserService) ChangePassword(ctx context.Context, userID string, req domain.ChangePasswordRequest) error {
	user, err := s.repo.GetByID(ctx, userID)
	if err != nil {
		s.logger.Error("Failed to get user during password change", err, map[string]interface{}{
			"user_id": userID,
		})
		return err
	}
	if user == nil {
		return domain.ErrUserNotFound
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.HashedPassword), []byte(req.OldPassword)); err != nil {
		s.logger.Warn("Invalid old password during password change", map[string]interface{}{
			"user_id": userID,
		})
		return domain.ErrInvalidPassword
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.NewPassword), bcrypt.DefaultCost)
	if err != nil {
		s.logger.Error("Failed to hash new password", err)
		return err
	}

	if err := s.repo.UpdatePassword(ctx, userID, string(hashedPassword)); err != nil {
		s.logger.Error("Failed to update password", err, map[string]interface{}{
			"user_id": userID,
		})
		return err
	}

	s.invalidateUserCache(ctx, userID)

	return nil
}

// invalidateUserCache сбрасывает кэшированную запись пользователя
func (s *UserService) invalidateUserCache(ctx context.Context, id string) {
	if s.cacheRepo == nil {
		return
	}
	if err := s.cacheRepo.InvalidateUser(ctx, id); err != nil {
		s.logger.Warn("Failed to invalidate user cache", map[string]interface{}{
			"user_id": id,
			"error":   err.Error(),
		})
	}
}
