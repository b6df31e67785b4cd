package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/spec-kit/shop-service/internal/auth"
	"github.com/spec-kit/shop-service/internal/domain"
	"github.com/spec-kit/shop-service/internal/events"
	apperrors "github.com/spec-kit/shop-service/pkg/util/errorutil"
)

func newAuthService(f *fixture) *AuthService {
	return NewAuthService(f.authCfg, AuthDependencies{
		UserRepo:   f.users,
		Tokens:     f.tokens,
		Dispatcher: f.dispatcher,
		Logger:     zap.NewNop(),
	})
}

func TestRegister_CreatesInactiveBuyer(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	svc := newAuthService(f)

	user, err := svc.Register(context.Background(), RegisterInput{Name: " Ada ", Email: " Ada@Example.com ", Password: "correct-horse"})
	require.NoError(t, err)
	assert.Equal(t, "Ada", user.Name)
	assert.Equal(t, "ada@example.com", user.Email)
	assert.Equal(t, domain.RoleBuyer, user.Role)
	assert.False(t, user.Active)
	assert.Empty(t, user.Tokens)
	assert.NotEqual(t, "correct-horse", user.PasswordHash)

	registered := f.recorder.ofType(events.EventUserRegistered)
	require.Len(t, registered, 1)
	assert.Equal(t, user.ID, registered[0].SubjectID)

	_, err = svc.Register(context.Background(), RegisterInput{Name: "Ada", Email: "ada@example.com", Password: "correct-horse"})
	assert.True(t, errors.Is(err, apperrors.ErrConflict))
}

func TestRegister_Validation(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	svc := newAuthService(f)

	tests := []struct {
		name string
		in   RegisterInput
	}{
		{name: "missing name", in: RegisterInput{Email: "a@example.com", Password: "correct-horse"}},
		{name: "bad email", in: RegisterInput{Name: "A", Email: "not-an-email", Password: "correct-horse"}},
		{name: "short password", in: RegisterInput{Name: "A", Email: "a@example.com", Password: "abc"}},
		{name: "password contains password", in: RegisterInput{Name: "A", Email: "a@example.com", Password: "myPassword1"}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.Register(context.Background(), tc.in)
			require.Error(t, err)
			assert.True(t, errors.Is(err, apperrors.ErrValidation))
		})
	}
}

func TestLogin_InactiveAccountGetsNoToken(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	svc := newAuthService(f)
	user := f.user(t, "idle@example.com", domain.RoleBuyer, false)

	_, token, err := svc.Login(context.Background(), "idle@example.com", "s3cret-pass")
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrAccountInactive))
	assert.Empty(t, token)

	stored, err := f.users.GetByID(context.Background(), user.ID)
	require.NoError(t, err)
	assert.Empty(t, stored.Tokens)
}

func TestLogin_BadCredentials(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	svc := newAuthService(f)
	f.user(t, "ada@example.com", domain.RoleBuyer, true)

	_, _, err := svc.Login(context.Background(), "ada@example.com", "wrong-pass")
	assert.True(t, errors.Is(err, apperrors.ErrUnauthenticated))

	_, _, err = svc.Login(context.Background(), "nobody@example.com", "s3cret-pass")
	assert.True(t, errors.Is(err, apperrors.ErrUnauthenticated))
}

func TestSession_RoundTrip(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	svc := newAuthService(f)
	f.user(t, "ada@example.com", domain.RoleBuyer, true)

	user, first, err := svc.Login(context.Background(), "ADA@example.com", "s3cret-pass")
	require.NoError(t, err)
	_, second, err := svc.Login(context.Background(), "ada@example.com", "s3cret-pass")
	require.NoError(t, err)
	assert.NotEqual(t, first, second)

	authed, err := svc.Authenticate(context.Background(), first)
	require.NoError(t, err)
	assert.Equal(t, user.ID, authed.ID)

	require.NoError(t, svc.Logout(context.Background(), authed, first))
	require.NoError(t, svc.Logout(context.Background(), authed, first))

	_, err = svc.Authenticate(context.Background(), first)
	assert.ErrorIs(t, err, auth.ErrRevokedToken)

	current, err := svc.Authenticate(context.Background(), second)
	require.NoError(t, err)
	require.NoError(t, svc.LogoutAll(context.Background(), current))

	_, err = svc.Authenticate(context.Background(), second)
	assert.ErrorIs(t, err, auth.ErrRevokedToken)
	assert.True(t, errors.Is(err, apperrors.ErrUnauthenticated))
}
