package auth

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/shop-service/internal/domain"
	apperrors "github.com/spec-kit/shop-service/pkg/util/errorutil"
)

// Authorize reports whether role is one of allowed.
func Authorize(role domain.Role, allowed ...domain.Role) bool {
	for _, candidate := range allowed {
		if role == candidate {
			return true
		}
	}
	return false
}

// RequireRoles ensures the authenticated caller has one of the allowed roles.
// It must run after AuthMiddleware.Handle.
func RequireRoles(allowed ...domain.Role) fiber.Handler {
	return func(c *fiber.Ctx) error {
		principal, ok := PrincipalFromContext(c)
		if !ok {
			return apperrors.NewUnauthorized("authentication required")
		}
		if !Authorize(principal.User.Role, allowed...) {
			return apperrors.NewForbidden("insufficient role")
		}
		return c.Next()
	}
}

// Staff lists the roles allowed to manage orders.
var Staff = []domain.Role{domain.RoleOwner, domain.RoleAdmin, domain.RoleSeller}

// Administrators lists the roles allowed to manage accounts.
var Administrators = []domain.Role{domain.RoleOwner, domain.RoleAdmin}
