package handlers

import (
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/example/foodorder/internal/logging"
	"github.com/example/foodorder/internal/middleware"
	"github.com/example/foodorder/internal/services"
)

// PaymentHandler receives payment outcomes from the gateway and from clients.
type PaymentHandler struct {
	reconciler *services.ReconcileService
}

func NewPaymentHandler(reconciler *services.ReconcileService) *PaymentHandler {
	return &PaymentHandler{reconciler: reconciler}
}

// MomoIPN acknowledges every verified notification. Failures are logged and
// never described to the gateway.
func (h *PaymentHandler) MomoIPN(c *fiber.Ctx) error {
	cb, ok := middleware.GetMomoCallback(c)
	if !ok {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": "invalid payload"})
	}

	logger := logging.FromContext(c.UserContext())
	result, err := h.reconciler.HandleCallback(c.UserContext(), cb)
	if err != nil {
		switch services.KindOf(err) {
		case services.KindSignature:
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": "invalid signature"})
		case services.KindInternal:
			logger.Error("momo ipn processing failed", zap.String("gateway_order_id", cb.OrderID), zap.Error(err))
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"message": "retry later"})
		default:
			logger.Warn("momo ipn not applied", zap.String("gateway_order_id", cb.OrderID), zap.Error(err))
			return c.Status(fiber.StatusOK).JSON(fiber.Map{"message": "received"})
		}
	}

	if result.AlreadyProcessed {
		return c.Status(fiber.StatusOK).JSON(fiber.Map{"message": "already processed"})
	}
	return c.Status(fiber.StatusOK).JSON(fiber.Map{"message": "ok"})
}

type confirmOrderRequest struct {
	OrderID uint `json:"orderId"`
	CartID  uint `json:"cartId"`
}

// ConfirmOrder lets the client finalize a paid order when the notification is late.
func (h *PaymentHandler) ConfirmOrder(c *fiber.Ctx) error {
	var req confirmOrderRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	if req.OrderID == 0 {
		return fiber.NewError(fiber.StatusBadRequest, "orderId is required")
	}

	customerID, _ := middleware.GetCurrentCustomerID(c)
	result, err := h.reconciler.ConfirmOrder(c.UserContext(), req.OrderID, req.CartID, customerID)
	if err != nil {
		return writeServiceError(c, err)
	}

	return c.JSON(fiber.Map{"success": true, "data": result})
}
