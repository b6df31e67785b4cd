package handlers

import (
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/shop-service/internal/auth"
	"github.com/spec-kit/shop-service/internal/domain"
	apperrors "github.com/spec-kit/shop-service/pkg/util/errorutil"
)

func parseBoolQuery(c *fiber.Ctx, key string) *bool {
	if val := c.Query(key); val != "" {
		if parsed, err := strconv.ParseBool(val); err == nil {
			return &parsed
		}
	}
	return nil
}

func parseIntQuery(c *fiber.Ctx, key string, defaultVal int) int {
	if val := c.Query(key); val != "" {
		if parsed, err := strconv.Atoi(val); err == nil && parsed > 0 {
			return parsed
		}
	}
	return defaultVal
}

// parsePage reads page/limit and returns limit, offset.
func parsePage(c *fiber.Ctx) (int, int) {
	page := parseIntQuery(c, "page", 1)
	limit := parseIntQuery(c, "limit", 20)
	return limit, (page - 1) * limit
}

// parseSort accepts "field" or "field:desc".
func parseSort(c *fiber.Ctx) (string, bool) {
	field, dir, _ := strings.Cut(c.Query("sortBy"), ":")
	return field, dir == "desc"
}

func caller(c *fiber.Ctx) (*auth.Principal, error) {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return nil, apperrors.NewUnauthorized("user required")
	}
	return principal, nil
}

func callerUser(c *fiber.Ctx) (*domain.User, error) {
	principal, err := caller(c)
	if err != nil {
		return nil, err
	}
	return principal.User, nil
}
