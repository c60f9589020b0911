package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"

	"github.com/example/foodorder/internal/middleware"
	"github.com/example/foodorder/internal/models"
	"github.com/example/foodorder/internal/services"
)

// CartHandler manages the caller's cart.
type CartHandler struct {
	carts *services.CartStore
}

func NewCartHandler(carts *services.CartStore) *CartHandler {
	return &CartHandler{carts: carts}
}

type addCartItemRequest struct {
	ProductID *uint           `json:"productId"`
	ComboID   *uint           `json:"comboId"`
	BowlID    *uint           `json:"bowlId"`
	Quantity  int             `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unitPrice"`
}

func (h *CartHandler) AddItem(c *fiber.Ctx) error {
	customerID, ok := middleware.GetCurrentCustomerID(c)
	if !ok {
		return fiber.NewError(fiber.StatusUnauthorized, "unauthorized")
	}

	var req addCartItemRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	ref, err := models.NewLineRef(req.ProductID, req.ComboID, req.BowlID)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"success": false, "error": err.Error()})
	}

	cart, err := h.carts.AddItem(c.UserContext(), *customerID, ref, req.Quantity, req.UnitPrice)
	if err != nil {
		return writeServiceError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"success": true, "data": cart})
}

func (h *CartHandler) GetCart(c *fiber.Ctx) error {
	customerID, ok := middleware.GetCurrentCustomerID(c)
	if !ok {
		return fiber.NewError(fiber.StatusUnauthorized, "unauthorized")
	}

	cart, err := h.carts.GetCart(c.UserContext(), *customerID)
	if err != nil {
		if services.KindOf(err) == services.KindNotFound {
			return c.JSON(fiber.Map{"success": true, "data": models.Cart{CustomerID: *customerID, Items: []models.CartItem{}}})
		}
		return writeServiceError(c, err)
	}
	return c.JSON(fiber.Map{"success": true, "data": cart})
}
