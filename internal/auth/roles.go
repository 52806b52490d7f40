package auth

import (
	"github.com/gofiber/fiber/v2"

	apperrors "github.com/spec-kit/activity-service/pkg/util/errorutil"
)

// RequireScope ensures the caller's token grants scope.
func RequireScope(scope string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		principal, ok := PrincipalFromContext(c)
		if !ok {
			return apperrors.NewUnauthorized("authentication required")
		}
		if !principal.HasScope(scope) {
			return apperrors.NewForbidden("token lacks scope " + scope)
		}
		return c.Next()
	}
}

// RequireCustomer ensures the token was issued for the customer named by the
// route parameter.
func RequireCustomer(param string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		principal, ok := PrincipalFromContext(c)
		if !ok {
			return apperrors.NewUnauthorized("authentication required")
		}
		customerID := c.Params(param)
		if principal.CustomerID != AnyCustomer && principal.CustomerID != customerID {
			return apperrors.NewForbidden("token not valid for customer " + customerID)
		}
		return c.Next()
	}
}
