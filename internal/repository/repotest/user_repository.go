package repotest

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/nurlyy/contract_manager/internal/domain"
	"github.com/nurlyy/contract_manager/internal/repository"
)

// UserRepository хранит пользователей в памяти
type UserRepository struct {
	mu    sync.Mutex
	users map[string]*domain.User
}

// NewUserRepository создает пустое in-memory хранилище пользователей
func NewUserRepository() *UserRepository {
	return &UserRepository{users: make(map[string]*domain.User)}
}

// Create сохраняет пользователя
func (r *UserRepository) Create(_ context.Context, user *domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored := *user
	r.users[stored.ID] = &stored
	return nil
}

// GetByID возвращает копию пользователя или (nil, nil), если его нет
func (r *UserRepository) GetByID(_ context.Context, id string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	user, ok := r.users[id]
	if !ok {
		return nil, nil
	}
	found := *user
	return &found, nil
}

// GetByEmail ищет пользователя по email
func (r *UserRepository) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, user := range r.users {
		if user.Email == email {
			found := *user
			return &found, nil
		}
	}
	return nil, nil
}

// GetByIDs возвращает пользователей по списку ID, пропуская отсутствующих
func (r *UserRepository) GetByIDs(_ context.Context, ids []string) ([]*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	users := make([]*domain.User, 0, len(ids))
	for _, id := range ids {
		if user, ok := r.users[id]; ok {
			found := *user
			users = append(users, &found)
		}
	}
	return users, nil
}

// Update полностью заменяет сохраненного пользователя
func (r *UserRepository) Update(_ context.Context, user *domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.users[user.ID]; !ok {
		return domain.ErrUserNotFound
	}
	stored := *user
	r.users[stored.ID] = &stored
	return nil
}

// UpdatePassword меняет хэш пароля
func (r *UserRepository) UpdatePassword(_ context.Context, id, hashedPassword string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	user, ok := r.users[id]
	if !ok {
		return domain.ErrUserNotFound
	}
	user.HashedPassword = hashedPassword
	user.UpdatedAt = time.Now()
	return nil
}

// UpdateLastLogin отмечает время последнего входа
func (r *UserRepository) UpdateLastLogin(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	user, ok := r.users[id]
	if !ok {
		return domain.ErrUserNotFound
	}
	now := time.Now()
	user.LastLoginAt = &now
	return nil
}

// Delete деактивирует пользователя, запись остается
func (r *UserRepository) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	user, ok := r.users[id]
	if !ok {
		return domain.ErrUserNotFound
	}
	user.IsActive = false
	return nil
}

// List возвращает пользователей по фильтру в порядке возрастания ID
func (r *UserRepository) List(_ context.Context, filter repository.UserFilter) ([]*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	matched := r.match(filter)
	if filter.Offset > 0 {
		if filter.Offset >= len(matched) {
			return []*domain.User{}, nil
		}
		matched = matched[filter.Offset:]
	}
	if filter.Limit > 0 && len(matched) > filter.Limit {
		matched = matched[:filter.Limit]
	}
	return matched, nil
}

// Count возвращает количество пользователей по фильтру без учета Limit и Offset
func (r *UserRepository) Count(_ context.Context, filter repository.UserFilter) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	return int64(len(r.match(filter))), nil
}

// GetByRoles возвращает активных пользователей с одной из указанных ролей
func (r *UserRepository) GetByRoles(_ context.Context, roles []domain.UserRole) ([]*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var users []*domain.User
	for _, user := range r.users {
		if !user.IsActive {
			continue
		}
		for _, role := range roles {
			if user.Role == role {
				found := *user
				users = append(users, &found)
				break
			}
		}
	}
	return users, nil
}

func (r *UserRepository) match(filter repository.UserFilter) []*domain.User {
	matched := make([]*domain.User, 0, len(r.users))
	for _, user := range r.users {
		if filter.Role != nil && user.Role != *filter.Role {
			continue
		}
		if filter.IsActive != nil && user.IsActive != *filter.IsActive {
			continue
		}
		if filter.Department != nil {
			if user.Department == nil || *user.Department != *filter.Department {
				continue
			}
		}
		if filter.SearchText != nil {
			text := strings.ToLower(*filter.SearchText)
			if !strings.Contains(strings.ToLower(user.Email), text) &&
				!strings.Contains(strings.ToLower(user.FullName()), text) {
				continue
			}
		}
		found := *user
		matched = append(matched, &found)
	}
	sort.Slice(matched, func(i, j int) bool { return matched[i].ID < matched[j].ID })
	return matched
}
