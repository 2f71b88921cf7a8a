package auth

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/pharmat-audit/internal/domain"
	apperrors "github.com/spec-kit/pharmat-audit/pkg/util"
)

// RequireAuthenticated fails with 401 when no verified claim is present.
func RequireAuthenticated(claim *Claim) error {
	if claim == nil {
		return apperrors.NewUnauthorized("unauthorized")
	}
	return nil
}

// RequireRole fails with 401 when claim is absent and with 403 when its role does not
// match role case-insensitively.
func RequireRole(claim *Claim, role domain.Role) error {
	if err := RequireAuthenticated(claim); err != nil {
		return err
	}
	if !claim.Role.Is(role) {
		return apperrors.NewForbidden("forbidden")
	}
	return nil
}

// Authenticated ensures the request carries a verified session.
func Authenticated() fiber.Handler {
	return func(c *fiber.Ctx) error {
		claim, _ := ClaimFromContext(c)
		if err := RequireAuthenticated(claim); err != nil {
			return err
		}
		return c.Next()
	}
}

// HasRole ensures the session belongs to the given role.
func HasRole(role domain.Role) fiber.Handler {
	return func(c *fiber.Ctx) error {
		claim, _ := ClaimFromContext(c)
		if err := RequireRole(claim, role); err != nil {
			return err
		}
		return c.Next()
	}
}
