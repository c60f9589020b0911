package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/example/foodorder/internal/logging"
	"github.com/example/foodorder/internal/services"
)

func statusFor(kind services.ErrorKind) int {
	switch kind {
	case services.KindValidation, services.KindConflict, services.KindSignature:
		return fiber.StatusBadRequest
	case services.KindGateway:
		return fiber.StatusBadGateway
	case services.KindNotFound:
		return fiber.StatusNotFound
	case services.KindForbidden:
		return fiber.StatusForbidden
	}
	return fiber.StatusInternalServerError
}

// writeServiceError renders a service failure. Internal errors never leak their cause.
func writeServiceError(c *fiber.Ctx, err error) error {
	var svcErr *services.Error
	if !errors.As(err, &svcErr) {
		logging.FromContext(c.UserContext()).Error("request failed", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"error":   "internal server error",
		})
	}

	if svcErr.Kind == services.KindGateway && svcErr.Err != nil {
		logging.FromContext(c.UserContext()).Warn("payment gateway error", zap.Error(svcErr.Err))
	}

	body := fiber.Map{
		"success": false,
		"error":   svcErr.Message,
	}
	var stockErr *services.StockError
	if errors.As(err, &stockErr) {
		body["ingredient"] = fiber.Map{
			"id":        stockErr.IngredientID,
			"name":      stockErr.Ingredient(),
			"required":  stockErr.Required,
			"available": stockErr.Available,
		}
	}
	return c.Status(statusFor(svcErr.Kind)).JSON(body)
}
