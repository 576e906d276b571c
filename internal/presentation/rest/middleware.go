package rest

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/sitepilot/crm-backend/internal/application/dto"
	"github.com/sitepilot/crm-backend/internal/infra/auth"
)

const identityKey = "identity"

// IdentityMiddleware resolves the bearer token to a caller identity and
// stores it on the request. Authorization decisions are made upstream;
// a request reaching these routes is assumed permitted.
func IdentityMiddleware(provider auth.IdentityProvider) fiber.Handler {
	return func(c *fiber.Ctx) error {
		header := c.Get("Authorization")
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || token == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Error: "missing bearer token"})
		}

		identity, err := provider.GetIdentity(token)
		if err != nil {
			return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Error: err.Error()})
		}

		c.Locals(identityKey, identity)
		return c.Next()
	}
}

func Identity(c *fiber.Ctx) *auth.Identity {
	identity, _ := c.Locals(identityKey).(*auth.Identity)
	return identity
}
