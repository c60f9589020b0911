package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"

	"github.com/example/foodorder/internal/middleware"
	"github.com/example/foodorder/internal/models"
	"github.com/example/foodorder/internal/services"
)

// CheckoutHandler manages order placement.
type CheckoutHandler struct {
	checkout *services.CheckoutService
}

// NewCheckoutHandler constructs CheckoutHandler.
func NewCheckoutHandler(checkout *services.CheckoutService) *CheckoutHandler {
	return &CheckoutHandler{checkout: checkout}
}

type lineItemRequest struct {
	ProductID *uint           `json:"productId"`
	ComboID   *uint           `json:"comboId"`
	BowlID    *uint           `json:"bowlId"`
	Quantity  int             `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unitPrice"`
}

type checkoutRequest struct {
	StoreID           *uint             `json:"storeId"`
	VoucherID         *uint             `json:"voucherId"`
	PromotionID       *uint             `json:"promotionId"`
	Discount          decimal.Decimal   `json:"discount"`
	OrderType         string            `json:"orderType"`
	PaymentMethod     string            `json:"paymentMethod"`
	Items             []lineItemRequest `json:"items"`
	ShippingAddressID *uint             `json:"shippingAddressId"`
	CourierName       string            `json:"courierName"`
	ShipDate          string            `json:"shipDate"`
	ShipTime          string            `json:"shipTime"`
	ShippingCost      decimal.Decimal   `json:"shippingCost"`
	Note              string            `json:"note"`
}

// Checkout places an order for the caller, or for a guest when no token is sent.
func (h *CheckoutHandler) Checkout(c *fiber.Ctx) error {
	var req checkoutRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	customerID, _ := middleware.GetCurrentCustomerID(c)

	items := make([]services.CheckoutItem, 0, len(req.Items))
	for _, line := range req.Items {
		ref, err := models.NewLineRef(line.ProductID, line.ComboID, line.BowlID)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"success": false, "error": err.Error()})
		}
		items = append(items, services.CheckoutItem{
			Ref:       ref,
			Quantity:  line.Quantity,
			UnitPrice: line.UnitPrice,
		})
	}

	result, err := h.checkout.Checkout(c.UserContext(), services.CheckoutRequest{
		CustomerID:        customerID,
		StoreID:           req.StoreID,
		VoucherID:         req.VoucherID,
		PromotionID:       req.PromotionID,
		Discount:          req.Discount,
		OrderType:         req.OrderType,
		PaymentMethod:     req.PaymentMethod,
		Items:             items,
		ShippingAddressID: req.ShippingAddressID,
		CourierName:       req.CourierName,
		ShipDate:          req.ShipDate,
		ShipTime:          req.ShipTime,
		ShippingCost:      req.ShippingCost,
		Note:              req.Note,
	})
	if err != nil {
		return writeServiceError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"success": true, "data": result})
}
