package auth

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/spec-kit/shop-service/internal/domain"
	"github.com/spec-kit/shop-service/internal/repository"
	apperrors "github.com/spec-kit/shop-service/pkg/util/errorutil"
)

var (
	// ErrMalformedToken means the signature did not verify or required claims are missing.
	ErrMalformedToken = errors.New("malformed token")
	// ErrRevokedToken means the token is well formed but no longer in the owner's active set.
	ErrRevokedToken = errors.New("revoked token")
)

// TokenManager issues, verifies and revokes bearer session tokens.
// A token is valid only while its fingerprint is listed on the owning user.
type TokenManager struct {
	secret      []byte
	ttl         time.Duration
	maxSessions int
	users       repository.UserRepository
	now         func() time.Time
}

// TokenOptions holds the optional hardening knobs. Zero values disable them.
type TokenOptions struct {
	TTL         time.Duration
	MaxSessions int
}

// NewTokenManager builds a new manager.
func NewTokenManager(secret string, users repository.UserRepository, opts TokenOptions) *TokenManager {
	return &TokenManager{
		secret:      []byte(secret),
		ttl:         opts.TTL,
		maxSessions: opts.MaxSessions,
		users:       users,
		now:         time.Now,
	}
}

// Claims describes JWT payload.
type Claims struct {
	jwt.RegisteredClaims
}

// Issue signs a token for user, appends its fingerprint to the active set and saves the user.
func (tm *TokenManager) Issue(ctx context.Context, user *domain.User) (string, error) {
	if !user.Active {
		return "", apperrors.ErrAccountInactive
	}

	now := tm.now()
	claims := &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:       uuid.NewString(),
			Subject:  user.ID,
			IssuedAt: jwt.NewNumericDate(now),
		},
	}
	if tm.ttl > 0 {
		claims.ExpiresAt = jwt.NewNumericDate(now.Add(tm.ttl))
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(tm.secret)
	if err != nil {
		return "", apperrors.NewInternalError(err)
	}

	tokens := append(append(make([]string, 0, len(user.Tokens)+1), user.Tokens...), Fingerprint(token))
	if tm.maxSessions > 0 && len(tokens) > tm.maxSessions {
		tokens = tokens[len(tokens)-tm.maxSessions:]
	}
	if err := tm.saveTokens(ctx, user, tokens); err != nil {
		return "", err
	}
	return token, nil
}

// Verify resolves the user owning token.
func (tm *TokenManager) Verify(ctx context.Context, token string) (*domain.User, error) {
	claims, err := tm.parse(token)
	if err != nil {
		return nil, unauthenticated("invalid token", ErrMalformedToken)
	}

	user, err := tm.users.GetByID(ctx, claims.Subject)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, unauthenticated("token revoked", ErrRevokedToken)
		}
		return nil, storeError(err)
	}
	if !user.HasToken(Fingerprint(token)) {
		return nil, unauthenticated("token revoked", ErrRevokedToken)
	}
	return user, nil
}

// Revoke removes token from the user's active set. Revoking an absent token is a no-op.
func (tm *TokenManager) Revoke(ctx context.Context, user *domain.User, token string) error {
	fp := Fingerprint(token)
	if !user.HasToken(fp) {
		return nil
	}
	return tm.saveTokens(ctx, user, user.WithoutToken(fp))
}

// RevokeAll clears every active session of user.
func (tm *TokenManager) RevokeAll(ctx context.Context, user *domain.User) error {
	return tm.saveTokens(ctx, user, []string{})
}

// saveTokens persists tokens as the user's session set. user is only updated once the save succeeds.
func (tm *TokenManager) saveTokens(ctx context.Context, user *domain.User, tokens []string) error {
	updated := *user
	updated.Tokens = tokens
	if err := tm.users.Save(ctx, &updated); err != nil {
		return storeError(err)
	}
	*user = updated
	return nil
}

func (tm *TokenManager) parse(tokenStr string) (*Claims, error) {
	parsed, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if token.Method != jwt.SigningMethodHS256 {
			return nil, errors.New("unexpected signing method")
		}
		return tm.secret, nil
	}, jwt.WithTimeFunc(tm.now))
	if err != nil {
		return nil, err
	}

	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid || claims.Subject == "" || claims.ID == "" {
		return nil, errors.New("invalid token claims")
	}
	return claims, nil
}

// Fingerprint is the form in which a token is stored on its owner.
func Fingerprint(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

func unauthenticated(message string, cause error) error {
	err := apperrors.NewUnauthorized(message).(*apperrors.DomainError)
	err.Err = cause
	return err
}

func storeError(err error) error {
	var domainErr *apperrors.DomainError
	if errors.As(err, &domainErr) {
		return err
	}
	return apperrors.NewStoreUnavailable(err)
}
