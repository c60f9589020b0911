package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/example/foodorder/internal/models"
	"github.com/example/foodorder/internal/services"
)

// AdminHandler manages staff-only endpoints.
type AdminHandler struct {
	reconciler *services.ReconcileService
}

// NewAdminHandler constructs AdminHandler.
func NewAdminHandler(reconciler *services.ReconcileService) *AdminHandler {
	return &AdminHandler{reconciler: reconciler}
}

type updateStatusRequest struct {
	Status models.OrderStatus `json:"status"`
}

// UpdateOrderStatus moves an order to a new status along the allowed transitions.
func (h *AdminHandler) UpdateOrderStatus(c *fiber.Ctx) error {
	orderID, err := c.ParamsInt("id")
	if err != nil || orderID <= 0 {
		return fiber.NewError(fiber.StatusBadRequest, "invalid order id")
	}

	var req updateStatusRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	order, err := h.reconciler.UpdateStatus(c.UserContext(), uint(orderID), req.Status)
	if err != nil {
		return writeServiceError(c, err)
	}
	return c.JSON(fiber.Map{"success": true, "data": fiber.Map{
		"orderId": order.ID,
		"status":  order.StatusOrder,
		"message": "Order status updated",
	}})
}
