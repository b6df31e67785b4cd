package service

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"

	"github.com/spec-kit/shop-service/internal/auth"
	"github.com/spec-kit/shop-service/internal/config"
	"github.com/spec-kit/shop-service/internal/domain"
	"github.com/spec-kit/shop-service/internal/repository"
	apperrors "github.com/spec-kit/shop-service/pkg/util/errorutil"
)

// UserService manages profiles and administrative account actions.
// Role checks for the administrative operations happen at the route.
type UserService struct {
	users      repository.UserRepository
	bcryptCost int
	logger     *zap.Logger
}

// UserUpdate lists the fields a user may change on their own profile.
type UserUpdate struct {
	Name     *string
	Email    *string
	Password *string
	Role     *domain.Role
}

// AdminUserUpdate adds the activation flag to UserUpdate.
type AdminUserUpdate struct {
	UserUpdate
	Active *bool
}

// NewUserService constructs the service.
func NewUserService(cfg config.AuthConfig, users repository.UserRepository, logger *zap.Logger) *UserService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &UserService{users: users, bcryptCost: cfg.BcryptCost, logger: logger}
}

// UpdateSelf applies a profile update to the caller.
func (s *UserService) UpdateSelf(ctx context.Context, caller *domain.User, in UserUpdate) (*domain.User, error) {
	user, err := s.users.GetByID(ctx, caller.ID)
	if err != nil {
		return nil, storeError(err, "user")
	}
	if err := s.apply(user, in); err != nil {
		return nil, err
	}
	if err := s.users.Save(ctx, user); err != nil {
		return nil, saveError(err)
	}
	return user, nil
}

// List returns accounts matching filter.
func (s *UserService) List(ctx context.Context, filter repository.UserFilter) ([]domain.User, error) {
	if filter.Role != nil && !filter.Role.Valid() {
		return nil, apperrors.NewValidationError("invalid role", map[string]any{"role": *filter.Role})
	}
	users, err := s.users.List(ctx, filter)
	if err != nil {
		return nil, storeError(err, "user")
	}
	return users, nil
}

// Get returns one account.
func (s *UserService) Get(ctx context.Context, id string) (*domain.User, error) {
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		return nil, storeError(err, "user")
	}
	return user, nil
}

// Update applies an administrative update. Deactivating an account ends its sessions.
func (s *UserService) Update(ctx context.Context, id string, in AdminUserUpdate) (*domain.User, error) {
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		return nil, storeError(err, "user")
	}
	if err := s.apply(user, in.UserUpdate); err != nil {
		return nil, err
	}
	if in.Active != nil {
		setActive(user, *in.Active)
	}
	if err := s.users.Save(ctx, user); err != nil {
		return nil, saveError(err)
	}
	return user, nil
}

// Apply runs an administrative action against the account id.
// The returned user is nil for UserActionDelete.
func (s *UserService) Apply(ctx context.Context, id, action string) (*domain.User, error) {
	act, ok := domain.ParseUserAction(action)
	if !ok {
		return nil, apperrors.NewValidationError("invalid action", map[string]any{"action": action})
	}

	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		return nil, storeError(err, "user")
	}

	switch act {
	case domain.UserActionActivate:
		setActive(user, true)
	case domain.UserActionDeactivate:
		setActive(user, false)
	case domain.UserActionDelete:
		if err := s.users.Delete(ctx, id); err != nil {
			return nil, storeError(err, "user")
		}
		s.logger.Info("user deleted", zap.String("user_id", id))
		return nil, nil
	}

	if err := s.users.Save(ctx, user); err != nil {
		return nil, storeError(err, "user")
	}
	s.logger.Info("user action applied", zap.String("user_id", id), zap.String("action", string(act)))
	return user, nil
}

func (s *UserService) apply(user *domain.User, in UserUpdate) error {
	if in.Name != nil {
		name := strings.TrimSpace(*in.Name)
		if name == "" {
			return apperrors.NewValidationError("name required", nil)
		}
		user.Name = name
	}
	if in.Email != nil {
		email, err := normalizeEmail(*in.Email)
		if err != nil {
			return err
		}
		user.Email = email
	}
	if in.Password != nil {
		if err := auth.ValidatePassword(*in.Password); err != nil {
			return err
		}
		hash, err := auth.HashPassword(strings.TrimSpace(*in.Password), s.bcryptCost)
		if err != nil {
			return apperrors.NewInternalError(err)
		}
		user.PasswordHash = hash
	}
	if in.Role != nil {
		if !in.Role.SelfAssignable() {
			return apperrors.NewValidationError("role must be buyer or seller", map[string]any{"role": *in.Role})
		}
		user.Role = *in.Role
	}
	return nil
}

// setActive flips the activation flag. An inactive account holds no sessions.
func setActive(user *domain.User, active bool) {
	user.Active = active
	if !active {
		user.Tokens = []string{}
	}
}

func saveError(err error) error {
	if errors.Is(err, repository.ErrDuplicate) {
		return apperrors.NewConflict("email already registered", nil)
	}
	return storeError(err, "user")
}
