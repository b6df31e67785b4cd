package auth

import (
	"strings"

	"golang.org/x/crypto/bcrypt"

	apperrors "github.com/spec-kit/shop-service/pkg/util/errorutil"
)

const minPasswordLength = 7

// ValidatePassword enforces the account password policy.
func ValidatePassword(password string) error {
	password = strings.TrimSpace(password)
	if len(password) < minPasswordLength {
		return apperrors.NewValidationError("password too short", map[string]any{"min_length": minPasswordLength})
	}
	if strings.Contains(strings.ToLower(password), "password") {
		return apperrors.NewValidationError(`password cannot contain "password"`, nil)
	}
	return nil
}

// HashPassword hashes a plaintext password with configured cost.
func HashPassword(password string, cost int) (string, error) {
	if cost < bcrypt.MinCost {
		cost = bcrypt.DefaultCost
	}
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if err != nil {
		return "", err
	}
	return string(hashed), nil
}

// ComparePassword verifies a password against its hashed value.
func ComparePassword(hashed, plain string) error {
	return bcrypt.CompareHashAndPassword([]byte(hashed), []byte(plain))
}
