package middleware

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/example/foodorder/internal/utils"
)

const identityContextKey = "currentIdentity"

// AuthMiddleware validates JWT tokens and loads the caller identity into context.
func AuthMiddleware(secret string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		authHeader := c.Get("Authorization")
		if authHeader == "" {
			return fiber.NewError(fiber.StatusUnauthorized, "missing authorization header")
		}

		identity, err := parseBearer(secret, authHeader)
		if err != nil {
			return err
		}

		c.Locals(identityContextKey, identity)
		return c.Next()
	}
}

// OptionalAuth loads the identity when a bearer token is present and lets guests through.
// A malformed or invalid token is still rejected.
func OptionalAuth(secret string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		authHeader := c.Get("Authorization")
		if authHeader == "" {
			return c.Next()
		}

		identity, err := parseBearer(secret, authHeader)
		if err != nil {
			return err
		}

		c.Locals(identityContextKey, identity)
		return c.Next()
	}
}

// RequireStaff rejects callers whose token does not carry the staff role.
// It must run after AuthMiddleware.
func RequireStaff() fiber.Handler {
	return func(c *fiber.Ctx) error {
		identity, ok := GetIdentity(c)
		if !ok {
			return fiber.NewError(fiber.StatusUnauthorized, "unauthorized")
		}
		if identity.Role != utils.RoleStaff {
			return fiber.NewError(fiber.StatusForbidden, "staff only")
		}
		return c.Next()
	}
}

func parseBearer(secret, header string) (utils.Identity, error) {
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return utils.Identity{}, fiber.NewError(fiber.StatusUnauthorized, "invalid authorization header")
	}

	identity, err := utils.ParseToken(secret, parts[1])
	if err != nil {
		return utils.Identity{}, fiber.NewError(fiber.StatusUnauthorized, "invalid token")
	}
	return identity, nil
}

// GetIdentity extracts the authenticated caller from context.
func GetIdentity(c *fiber.Ctx) (utils.Identity, bool) {
	identity, ok := c.Locals(identityContextKey).(utils.Identity)
	return identity, ok
}

// GetCurrentCustomerID returns the caller's customer id, if authenticated.
func GetCurrentCustomerID(c *fiber.Ctx) (*uint, bool) {
	identity, ok := GetIdentity(c)
	if !ok {
		return nil, false
	}
	id := identity.CustomerID
	return &id, true
}
