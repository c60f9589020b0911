package middleware

import (
	"encoding/json"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/example/foodorder/internal/logging"
	"github.com/example/foodorder/internal/services"
)

const momoCallbackKey = "momoCallback"

// MomoSignatureMiddleware parses a MoMo IPN and rejects it unless its signature verifies.
// The gateway only ever sees a generic message.
func MomoSignatureMiddleware(verifier services.CallbackVerifier) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var cb services.MomoCallback
		if err := json.Unmarshal(c.Body(), &cb); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": "invalid payload"})
		}

		if err := verifier.VerifyCallback(cb); err != nil {
			logging.FromContext(c.UserContext()).Warn("rejected momo callback with bad signature",
				zap.String("gateway_order_id", cb.OrderID),
				zap.String("ip", c.IP()),
			)
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": "invalid signature"})
		}

		c.Locals(momoCallbackKey, cb)
		return c.Next()
	}
}

// GetMomoCallback returns the verified callback stored by MomoSignatureMiddleware.
func GetMomoCallback(c *fiber.Ctx) (services.MomoCallback, bool) {
	cb, ok := c.Locals(momoCallbackKey).(services.MomoCallback)
	return cb, ok
}
