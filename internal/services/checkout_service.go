package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/example/foodorder/internal/events"
	"github.com/example/foodorder/internal/logging"
	"github.com/example/foodorder/internal/metrics"
	"github.com/example/foodorder/internal/models"
)

// PaymentGateway opens asynchronous wallet payments.
type PaymentGateway interface {
	CreatePayment(ctx context.Context, req PaymentRequest) (*PaymentResult, error)
}

type CheckoutItem struct {
	Ref       models.LineRef
	Quantity  int
	UnitPrice decimal.Decimal
}

type CheckoutRequest struct {
	CustomerID        *uint
	StoreID           *uint
	VoucherID         *uint
	PromotionID       *uint
	Discount          decimal.Decimal
	OrderType         string
	PaymentMethod     string
	Items             []CheckoutItem
	ShippingAddressID *uint
	CourierName       string
	ShipDate          string
	ShipTime          string
	ShippingCost      decimal.Decimal
	Note              string
}

type CheckoutResult struct {
	OrderID  uint   `json:"orderId"`
	PayURL   string `json:"payUrl,omitempty"`
	Deeplink string `json:"deeplink,omitempty"`
	Message  string `json:"message"`
}

// CheckoutService turns a checkout request into a committed order.
type CheckoutService struct {
	db        *gorm.DB
	orders    *OrderStore
	ledger    *InventoryLedger
	gateway   PaymentGateway
	publisher events.Publisher
	telegram  *TelegramService
	metrics   *metrics.Metrics
}

func NewCheckoutService(db *gorm.DB, orders *OrderStore, ledger *InventoryLedger, gateway PaymentGateway,
	publisher events.Publisher, telegram *TelegramService, m *metrics.Metrics) *CheckoutService {
	if publisher == nil {
		publisher = events.NopPublisher()
	}
	return &CheckoutService{
		db:        db,
		orders:    orders,
		ledger:    ledger,
		gateway:   gateway,
		publisher: publisher,
		telegram:  telegram,
		metrics:   m,
	}
}

// Checkout validates the request, persists the order and completes it
// according to the payment method.
func (s *CheckoutService) Checkout(ctx context.Context, req CheckoutRequest) (*CheckoutResult, error) {
	ctx, span := tracer.Start(ctx, "CheckoutService.Checkout")
	defer span.End()
	method := methodLabel(req.PaymentMethod)
	span.SetAttributes(attribute.String("payment.method", method))

	res, err := s.checkout(ctx, req)
	if err != nil {
		s.metrics.Checkout(method, KindOf(err).String())
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	s.metrics.Checkout(method, "ok")
	span.SetAttributes(attribute.Int64("order.id", int64(res.OrderID)))
	return res, nil
}

// methodLabel keeps the payment_method label set closed; the raw value comes from the client.
func methodLabel(method string) string {
	switch method {
	case models.PaymentMethodCOD, models.PaymentMethodMomo:
		return method
	}
	return "unsupported"
}

func (s *CheckoutService) checkout(ctx context.Context, req CheckoutRequest) (*CheckoutResult, error) {
	order, err := buildOrder(req)
	if err != nil {
		return nil, err
	}

	switch req.PaymentMethod {
	case models.PaymentMethodCOD:
		return s.checkoutCOD(ctx, order)
	case models.PaymentMethodMomo:
		return s.checkoutMomo(ctx, order)
	}
	return nil, validationError("unsupported payment method")
}

func buildOrder(req CheckoutRequest) (*models.Order, error) {
	if len(req.Items) == 0 {
		return nil, validationError("order must contain at least one item")
	}
	if req.OrderType != models.OrderTypeShipping && req.OrderType != models.OrderTypePickup {
		return nil, validationError("order type must be %s or %s", models.OrderTypeShipping, models.OrderTypePickup)
	}
	if req.PaymentMethod != models.PaymentMethodCOD && req.PaymentMethod != models.PaymentMethodMomo {
		return nil, validationError("unsupported payment method")
	}
	if req.Discount.IsNegative() {
		return nil, validationError("discount must not be negative")
	}

	total := decimal.Zero
	items := make([]models.OrderItem, 0, len(req.Items))
	for i, line := range req.Items {
		if !line.Ref.Kind.Valid() || line.Ref.ItemID == 0 {
			return nil, validationError("item %d must reference exactly one product, combo or bowl", i+1)
		}
		if line.Quantity <= 0 {
			return nil, validationError("item %d quantity must be positive", i+1)
		}
		if line.UnitPrice.IsNegative() {
			return nil, validationError("item %d unit price must not be negative", i+1)
		}
		lineTotal := line.UnitPrice.Mul(decimal.NewFromInt(int64(line.Quantity)))
		total = total.Add(lineTotal)
		items = append(items, models.OrderItem{
			LineRef:    line.Ref,
			Quantity:   line.Quantity,
			UnitPrice:  line.UnitPrice,
			TotalPrice: lineTotal,
		})
	}

	final := total.Sub(req.Discount)
	if final.IsNegative() {
		return nil, validationError("discount exceeds order total")
	}

	order := &models.Order{
		CustomerID:      req.CustomerID,
		StoreID:         req.StoreID,
		VoucherID:       req.VoucherID,
		PromotionID:     req.PromotionID,
		TotalPrice:      total,
		DiscountApplied: req.Discount,
		FinalPrice:      final,
		StatusOrder:     models.OrderStatusPending,
		OrderType:       req.OrderType,
		Note:            strings.TrimSpace(req.Note),
		Items:           items,
		Payments: []models.Payment{{
			Method: req.PaymentMethod,
			Status: models.PaymentStatusPending,
			Amount: final,
		}},
	}
	if req.OrderType == models.OrderTypeShipping {
		order.ShippingDetail = &models.ShippingDetail{
			ShippingAddressID: req.ShippingAddressID,
			CourierName:       req.CourierName,
			ShipDate:          req.ShipDate,
			ShipTime:          req.ShipTime,
			ShippingCost:      req.ShippingCost,
		}
	}
	return order, nil
}

func (s *CheckoutService) checkoutCOD(ctx context.Context, order *models.Order) (*CheckoutResult, error) {
	logger := logging.FromContext(ctx)

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.orders.Create(tx, order); err != nil {
			return err
		}

		if err := s.ledger.Deduct(ctx, tx, order.ID, order.StoreID); err != nil {
			var stockErr *StockError
			if errors.As(err, &stockErr) {
				return conflictFromStock(stockErr)
			}
			return err
		}

		if order.CustomerID != nil {
			if _, err := ClearForOrder(tx, *order.CustomerID, order.LineRefs()); err != nil {
				return err
			}
		}

		if err := s.orders.MarkDeducted(tx, order.ID); err != nil {
			return err
		}
		order.InventoryDeducted = true
		return s.orders.SetStatus(tx, order, models.OrderStatusConfirmed)
	})
	if err != nil {
		if KindOf(err) == KindInternal {
			logger.Error("cod checkout failed", zap.Error(err))
		}
		return nil, err
	}

	logger.Info("cod order placed", zap.Uint("order_id", order.ID), zap.String("final_price", order.FinalPrice.String()))

	s.publish(ctx, events.EventOrderPlaced, order.ID, placedPayload(order))
	s.publish(ctx, events.EventOrderConfirmed, order.ID, events.OrderConfirmedPayload{
		OrderID:       order.ID,
		PaymentMethod: models.PaymentMethodCOD,
		Source:        "checkout",
	})
	s.telegram.notifyAsync(ctx, "new_order", func(ctx context.Context) error {
		return s.telegram.NotifyNewOrder(ctx, orderNotification(order))
	})

	return &CheckoutResult{
		OrderID: order.ID,
		Message: "Order placed successfully",
	}, nil
}

func (s *CheckoutService) checkoutMomo(ctx context.Context, order *models.Order) (*CheckoutResult, error) {
	logger := logging.FromContext(ctx)

	if err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return s.orders.Create(tx, order)
	}); err != nil {
		logger.Error("momo checkout failed", zap.Error(err))
		return nil, err
	}

	s.publish(ctx, events.EventOrderPlaced, order.ID, placedPayload(order))

	if s.gateway == nil {
		return nil, gatewayError("wallet payments are not configured", nil)
	}

	payment, err := s.gateway.CreatePayment(ctx, PaymentRequest{
		OrderID:   order.ID,
		Amount:    order.FinalPrice,
		OrderInfo: fmt.Sprintf("Payment for order #%d", order.ID),
	})
	if err != nil {
		logger.Warn("momo create payment failed, order left pending",
			zap.Uint("order_id", order.ID),
			zap.Error(err),
		)
		var svcErr *Error
		if errors.As(err, &svcErr) && svcErr.Kind == KindGateway {
			return nil, err
		}
		return nil, gatewayError("payment gateway unavailable", err)
	}

	if err := s.orders.AttachGatewayRefs(s.db.WithContext(ctx), order.ID, payment.GatewayOrderID, payment.RequestID); err != nil {
		logger.Error("store gateway refs failed", zap.Uint("order_id", order.ID), zap.Error(err))
	}

	return &CheckoutResult{
		OrderID:  order.ID,
		PayURL:   payment.PayURL,
		Deeplink: payment.Deeplink,
		Message:  "Redirect to MoMo to complete the payment",
	}, nil
}

func (s *CheckoutService) publish(ctx context.Context, eventType string, orderID uint, payload any) {
	publishEvent(ctx, s.publisher, eventType, orderID, payload)
}

func publishEvent(ctx context.Context, publisher events.Publisher, eventType string, orderID uint, payload any) {
	if err := publisher.Publish(ctx, eventType, orderID, payload); err != nil {
		logging.FromContext(ctx).Warn("publish order event failed",
			zap.String("event_type", eventType),
			zap.Uint("order_id", orderID),
			zap.Error(err),
		)
	}
}

func placedPayload(order *models.Order) events.OrderPlacedPayload {
	method := ""
	if len(order.Payments) > 0 {
		method = order.Payments[0].Method
	}
	return events.OrderPlacedPayload{
		OrderID:       order.ID,
		CustomerID:    order.CustomerID,
		StoreID:       order.StoreID,
		PaymentMethod: method,
		FinalPrice:    order.FinalPrice.StringFixed(2),
		Status:        string(order.StatusOrder),
	}
}

func orderNotification(order *models.Order) OrderNotification {
	n := OrderNotification{
		OrderID:     order.ID,
		OrderType:   order.OrderType,
		TotalAmount: order.FinalPrice,
		Status:      string(order.StatusOrder),
	}
	if len(order.Payments) > 0 {
		n.PaymentMethod = order.Payments[0].Method
	}
	for _, item := range order.Items {
		n.Items = append(n.Items, OrderItemNotification{
			Name:     item.LineRef.String(),
			Quantity: item.Quantity,
			Price:    item.UnitPrice,
		})
	}
	return n
}
