package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// OrderType values.
const (
	OrderTypeShipping = "Shipping"
	OrderTypePickup   = "Pickup"
)

// Payment methods accepted at checkout.
const (
	PaymentMethodCOD  = "COD"
	PaymentMethodMomo = "MOMO"
)

// Payment status values.
const (
	PaymentStatusPending = "Pending"
	PaymentStatusSuccess = "Success"
	PaymentStatusFailed  = "Failed"
	PaymentStatusPaid    = "Paid"
)

type Order struct {
	BaseModel
	CustomerID        *uint           `gorm:"index" json:"customerId"`
	StoreID           *uint           `gorm:"index" json:"storeId"`
	VoucherID         *uint           `json:"voucherId"`
	PromotionID       *uint           `json:"promotionId"`
	TotalPrice        decimal.Decimal `gorm:"type:numeric(14,2);not null" json:"totalPrice"`
	DiscountApplied   decimal.Decimal `gorm:"type:numeric(14,2);not null" json:"discountApplied"`
	FinalPrice        decimal.Decimal `gorm:"type:numeric(14,2);not null" json:"finalPrice"`
	StatusOrder       OrderStatus     `gorm:"size:32;index;not null" json:"statusOrder"`
	OrderType         string          `gorm:"size:16;not null" json:"orderType"`
	InventoryDeducted bool            `gorm:"not null;default:false" json:"inventoryDeducted"`
	Note              string          `json:"note"`
	Items             []OrderItem     `json:"items,omitempty"`
	Payments          []Payment       `json:"payments,omitempty"`
	ShippingDetail    *ShippingDetail `json:"shippingDetail,omitempty"`
}

type OrderItem struct {
	BaseModel
	OrderID     uint `gorm:"index;not null" json:"orderId"`
	LineRef     `gorm:"embedded"`
	Quantity    int                   `gorm:"not null" json:"quantity"`
	UnitPrice   decimal.Decimal       `gorm:"type:numeric(14,2);not null" json:"unitPrice"`
	TotalPrice  decimal.Decimal       `gorm:"type:numeric(14,2);not null" json:"totalPrice"`
	Ingredients []OrderItemIngredient `json:"ingredients,omitempty"`
}

// OrderItemIngredient records how much of an ingredient a line actually consumed.
type OrderItemIngredient struct {
	BaseModel
	OrderItemID  uint            `gorm:"uniqueIndex:idx_item_ingredient,priority:1;not null" json:"orderItemId"`
	IngredientID uint            `gorm:"uniqueIndex:idx_item_ingredient,priority:2;not null" json:"ingredientId"`
	QuantityUsed decimal.Decimal `gorm:"type:numeric(14,4);not null" json:"quantityUsed"`
}

type Payment struct {
	BaseModel
	OrderID          uint            `gorm:"index;not null" json:"orderId"`
	Method           string          `gorm:"size:16;not null" json:"method"`
	Status           string          `gorm:"size:16;index;not null" json:"status"`
	Amount           decimal.Decimal `gorm:"type:numeric(14,2);not null" json:"amount"`
	GatewayOrderID   string          `gorm:"size:64;index" json:"gatewayOrderId,omitempty"`
	GatewayRequestID string          `gorm:"size:64" json:"gatewayRequestId,omitempty"`
	GatewayTransID   string          `gorm:"size:64" json:"gatewayTransId,omitempty"`
	PaidAt           *time.Time      `json:"paidAt,omitempty"`
}

type ShippingDetail struct {
	BaseModel
	OrderID           uint            `gorm:"uniqueIndex;not null" json:"orderId"`
	ShippingAddressID *uint           `json:"shippingAddressId"`
	CourierName       string          `json:"courierName"`
	ShipDate          string          `gorm:"size:16" json:"shipDate"`
	ShipTime          string          `gorm:"size:16" json:"shipTime"`
	ShippingCost      decimal.Decimal `gorm:"type:numeric(14,2);not null" json:"shippingCost"`
}

// LineRefs returns the distinct references of an order's items, in item order.
func (o *Order) LineRefs() []LineRef {
	seen := make(map[LineRef]struct{}, len(o.Items))
	refs := make([]LineRef, 0, len(o.Items))
	for _, item := range o.Items {
		if _, ok := seen[item.LineRef]; ok {
			continue
		}
		seen[item.LineRef] = struct{}{}
		refs = append(refs, item.LineRef)
	}
	return refs
}
