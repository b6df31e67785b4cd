// Package memory provides in-process implementations of the repository ports.
// They back the service when no Postgres DSN is configured and serve as fakes in tests.
// Every method copies documents in and out, so callers never share state with the store.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/spec-kit/shop-service/internal/domain"
	"github.com/spec-kit/shop-service/internal/repository"
)

// UserStore is an in-memory repository.UserRepository.
type UserStore struct {
	mu    sync.RWMutex
	users map[string]domain.User
}

// NewUserStore returns an empty store.
func NewUserStore() *UserStore {
	return &UserStore{users: make(map[string]domain.User)}
}

var _ repository.UserRepository = (*UserStore)(nil)

func (s *UserStore) Create(_ context.Context, user *domain.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.users {
		if existing.Email == user.Email {
			return repository.ErrDuplicate
		}
	}
	now := time.Now().UTC()
	user.ID = uuid.NewString()
	user.CreatedAt = now
	user.UpdatedAt = now
	if user.Tokens == nil {
		user.Tokens = []string{}
	}
	s.users[user.ID] = copyUser(*user)
	return nil
}

func (s *UserStore) Save(_ context.Context, user *domain.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[user.ID]; !ok {
		return repository.ErrNotFound
	}
	for id, existing := range s.users {
		if id != user.ID && existing.Email == user.Email {
			return repository.ErrDuplicate
		}
	}
	user.UpdatedAt = time.Now().UTC()
	s.users[user.ID] = copyUser(*user)
	return nil
}

func (s *UserStore) GetByID(_ context.Context, id string) (*domain.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	user, ok := s.users[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	out := copyUser(user)
	return &out, nil
}

func (s *UserStore) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, user := range s.users {
		if user.Email == email {
			out := copyUser(user)
			return &out, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (s *UserStore) List(_ context.Context, filter repository.UserFilter) ([]domain.User, error) {
	s.mu.RLock()
	result := make([]domain.User, 0, len(s.users))
	for _, user := range s.users {
		if filter.Active != nil && user.Active != *filter.Active {
			continue
		}
		if filter.Role != nil && user.Role != *filter.Role {
			continue
		}
		result = append(result, copyUser(user))
	}
	s.mu.RUnlock()

	less := func(a, b domain.User) bool { return a.CreatedAt.Before(b.CreatedAt) }
	switch filter.SortBy {
	case "name":
		less = func(a, b domain.User) bool { return a.Name < b.Name }
	case "email":
		less = func(a, b domain.User) bool { return a.Email < b.Email }
	case "role":
		less = func(a, b domain.User) bool { return a.Role < b.Role }
	case "updated_at":
		less = func(a, b domain.User) bool { return a.UpdatedAt.Before(b.UpdatedAt) }
	}
	sort.SliceStable(result, func(i, j int) bool {
		if filter.SortDesc {
			return less(result[j], result[i])
		}
		return less(result[i], result[j])
	})
	return page(result, filter.Limit, filter.Offset), nil
}

func (s *UserStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[id]; !ok {
		return repository.ErrNotFound
	}
	delete(s.users, id)
	return nil
}

func copyUser(u domain.User) domain.User {
	u.Tokens = append([]string{}, u.Tokens...)
	return u
}

func page[T any](items []T, limit, offset int) []T {
	if limit <= 0 {
		limit = 20
	}
	if limit > 100 {
		limit = 100
	}
	if offset < 0 {
		offset = 0
	}
	if offset >= len(items) {
		return []T{}
	}
	end := offset + limit
	if end > len(items) {
		end = len(items)
	}
	return items[offset:end]
}
