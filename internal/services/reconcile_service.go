package services

import (
	"context"
	"errors"
	"fmt"

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

// CallbackVerifier authenticates gateway notifications.
type CallbackVerifier interface {
	VerifyCallback(cb MomoCallback) error
}

// Deduplicator remembers notifications whose outcome is already committed.
type Deduplicator interface {
	Seen(ctx context.Context, id string) (bool, error)
	Mark(ctx context.Context, id string) error
}

type nopDedup struct{}

func (nopDedup) Seen(context.Context, string) (bool, error) { return false, nil }
func (nopDedup) Mark(context.Context, string) error         { return nil }

type ReconcileResult struct {
	OrderID          uint               `json:"orderId"`
	Status           models.OrderStatus `json:"status"`
	AlreadyProcessed bool               `json:"alreadyProcessed"`
	Message          string             `json:"message"`
}

// ReconcileService applies payment outcomes to orders exactly once.
type ReconcileService struct {
	db        *gorm.DB
	orders    *OrderStore
	ledger    *InventoryLedger
	verifier  CallbackVerifier
	dedup     Deduplicator
	publisher events.Publisher
	telegram  *TelegramService
	metrics   *metrics.Metrics
}

func NewReconcileService(db *gorm.DB, orders *OrderStore, ledger *InventoryLedger, verifier CallbackVerifier,
	dedup Deduplicator, publisher events.Publisher, telegram *TelegramService, m *metrics.Metrics) *ReconcileService {
	if publisher == nil {
		publisher = events.NopPublisher()
	}
	if dedup == nil {
		dedup = nopDedup{}
	}
	return &ReconcileService{
		db:        db,
		orders:    orders,
		ledger:    ledger,
		verifier:  verifier,
		dedup:     dedup,
		publisher: publisher,
		telegram:  telegram,
		metrics:   m,
	}
}

// HandleCallback reconciles a MoMo IPN against its order.
func (s *ReconcileService) HandleCallback(ctx context.Context, cb MomoCallback) (*ReconcileResult, error) {
	ctx, span := tracer.Start(ctx, "ReconcileService.HandleCallback")
	defer span.End()
	span.SetAttributes(
		attribute.String("gateway.order_id", cb.OrderID),
		attribute.Int("gateway.result_code", cb.ResultCode),
	)

	res, err := s.handleCallback(ctx, cb)
	outcome := "ok"
	switch {
	case err != nil:
		outcome = KindOf(err).String()
		var stockErr *StockError
		if errors.As(err, &stockErr) {
			outcome = "insufficient_stock"
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	case res.AlreadyProcessed:
		outcome = "duplicate"
	}
	s.metrics.Callback("momo_ipn", outcome)
	return res, err
}

func (s *ReconcileService) handleCallback(ctx context.Context, cb MomoCallback) (*ReconcileResult, error) {
	logger := logging.FromContext(ctx)

	if err := s.verifier.VerifyCallback(cb); err != nil {
		logger.Warn("momo callback signature mismatch, possible forgery",
			zap.String("gateway_order_id", cb.OrderID),
			zap.String("request_id", cb.RequestID),
		)
		return nil, err
	}

	orderID, err := DecodeOrderID(cb.ExtraData)
	if err != nil {
		return nil, err
	}
	logger = logger.With(zap.Uint("order_id", orderID), zap.Int64("trans_id", cb.TransID))
	ctx = logging.ContextWithLogger(ctx, logger)

	transID := cb.TransIDString()
	if seen, err := s.dedup.Seen(ctx, transID); err != nil {
		logger.Warn("dedup lookup failed", zap.Error(err))
	} else if seen {
		logger.Info("momo callback already processed")
		return &ReconcileResult{OrderID: orderID, AlreadyProcessed: true, Message: "already processed"}, nil
	}

	var (
		result   ReconcileResult
		stockErr *StockError
		closed   bool
		order    *models.Order
		payment  *models.Payment
	)
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		order, err = s.orders.Lock(tx, orderID)
		if err != nil {
			return err
		}
		payment, err = s.orders.LockPayment(tx, orderID)
		if err != nil {
			return err
		}
		result = ReconcileResult{OrderID: order.ID, Status: order.StatusOrder}

		switch payment.Status {
		case models.PaymentStatusSuccess, models.PaymentStatusPaid, models.PaymentStatusFailed:
			result.AlreadyProcessed = true
			result.Message = "already processed"
			return nil
		}

		if !decimal.NewFromInt(cb.Amount).Equal(payment.Amount.Round(0)) {
			return validationError("callback amount %d does not match payment amount %s", cb.Amount, payment.Amount.String())
		}

		if cb.ResultCode != 0 {
			if err := s.failOrder(tx, order, payment, transID); err != nil {
				return err
			}
			result.Status = order.StatusOrder
			result.Message = "payment failed"
			return nil
		}

		// Money arrived for an order staff already closed: keep the payment
		// record for refund, leave stock and cart alone.
		if order.StatusOrder.Terminal() {
			if err := s.orders.SettlePayment(tx, payment, models.PaymentStatusSuccess, transID); err != nil {
				return err
			}
			closed = true
			result.Message = "payment received for closed order"
			return nil
		}

		if !order.InventoryDeducted {
			if err := s.ledger.Deduct(ctx, tx, order.ID, order.StoreID); err != nil {
				if !errors.As(err, &stockErr) {
					return err
				}
				if err := s.failOrder(tx, order, payment, transID); err != nil {
					return err
				}
				result.Status = order.StatusOrder
				result.Message = "payment received but stock is insufficient"
				return nil
			}

			if order.CustomerID != nil {
				if err := s.orders.Items(tx, order); err != nil {
					return err
				}
				if _, err := ClearForOrder(tx, *order.CustomerID, order.LineRefs()); err != nil {
					return err
				}
			}
			if err := s.orders.MarkDeducted(tx, order.ID); err != nil {
				return err
			}
			order.InventoryDeducted = true
		}

		if err := s.orders.SettlePayment(tx, payment, models.PaymentStatusSuccess, transID); err != nil {
			return err
		}
		if models.CanTransition(order.StatusOrder, models.OrderStatusConfirmed) {
			if err := s.orders.SetStatus(tx, order, models.OrderStatusConfirmed); err != nil {
				return err
			}
		}
		result.Status = order.StatusOrder
		result.Message = "payment confirmed"
		return nil
	})
	if err != nil {
		if KindOf(err) == KindInternal {
			logger.Error("momo callback reconciliation failed", zap.Error(err))
		}
		return nil, err
	}

	if result.AlreadyProcessed {
		logger.Info("momo callback already processed", zap.String("payment_status", payment.Status))
		return &result, nil
	}

	if err := s.dedup.Mark(ctx, transID); err != nil {
		logger.Warn("dedup mark failed", zap.Error(err))
	}

	if closed {
		logger.Warn("momo payment received for closed order, refund required",
			zap.String("order_status", string(order.StatusOrder)),
			zap.String("amount", payment.Amount.String()),
		)
		return &result, &Error{Kind: KindConflict, Message: fmt.Sprintf("order is %s, payment recorded without fulfilment", order.StatusOrder)}
	}

	if stockErr != nil {
		logger.Warn("momo payment cancelled for insufficient stock", zap.Uint("ingredient_id", stockErr.IngredientID))
		s.publishCancelled(ctx, order.ID, stockErr.Error())
		return &result, conflictFromStock(stockErr)
	}

	if cb.ResultCode != 0 {
		logger.Info("momo payment failed", zap.Int("result_code", cb.ResultCode), zap.String("message", cb.Message))
		s.publishCancelled(ctx, order.ID, fmt.Sprintf("payment failed: %s", cb.Message))
		return &result, nil
	}

	logger.Info("momo payment confirmed")
	publishEvent(ctx, s.publisher, events.EventOrderConfirmed, order.ID, events.OrderConfirmedPayload{
		OrderID:       order.ID,
		PaymentMethod: models.PaymentMethodMomo,
		Source:        "momo_ipn",
	})
	s.telegram.notifyAsync(ctx, "payment_success", func(ctx context.Context) error {
		return s.telegram.NotifyPaymentSuccess(ctx, PaymentSuccessNotification{
			OrderID:        order.ID,
			GatewayTransID: transID,
			Amount:         payment.Amount,
		})
	})
	return &result, nil
}

func (s *ReconcileService) failOrder(tx *gorm.DB, order *models.Order, payment *models.Payment, transID string) error {
	if err := s.orders.SettlePayment(tx, payment, models.PaymentStatusFailed, transID); err != nil {
		return err
	}
	if models.CanTransition(order.StatusOrder, models.OrderStatusCancelled) {
		return s.orders.SetStatus(tx, order, models.OrderStatusCancelled)
	}
	return nil
}

func (s *ReconcileService) publishCancelled(ctx context.Context, orderID uint, reason string) {
	publishEvent(ctx, s.publisher, events.EventOrderCancelled, orderID, events.OrderCancelledPayload{
		OrderID: orderID,
		Reason:  reason,
	})
}

// ConfirmOrder is the client-side fallback for when the gateway notification is
// late or lost. It deducts inventory at most once and clears the named cart.
func (s *ReconcileService) ConfirmOrder(ctx context.Context, orderID, cartID uint, customerID *uint) (*ReconcileResult, error) {
	ctx, span := tracer.Start(ctx, "ReconcileService.ConfirmOrder")
	defer span.End()
	span.SetAttributes(attribute.Int64("order.id", int64(orderID)))

	res, err := s.confirmOrder(ctx, orderID, cartID, customerID)
	outcome := "ok"
	switch {
	case err != nil:
		outcome = KindOf(err).String()
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	case res.AlreadyProcessed:
		outcome = "duplicate"
	}
	s.metrics.Callback("client_confirm", outcome)
	return res, err
}

func (s *ReconcileService) confirmOrder(ctx context.Context, orderID, cartID uint, customerID *uint) (*ReconcileResult, error) {
	logger := logging.FromContext(ctx).With(zap.Uint("order_id", orderID))

	var (
		result    ReconcileResult
		confirmed bool
		method    string
	)
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		order, err := s.orders.Lock(tx, orderID)
		if err != nil {
			return err
		}
		if order.CustomerID != nil && (customerID == nil || *customerID != *order.CustomerID) {
			return &Error{Kind: KindForbidden, Message: "order belongs to another customer"}
		}
		if order.StatusOrder == models.OrderStatusCancelled {
			return &Error{Kind: KindConflict, Message: "order is cancelled"}
		}
		result = ReconcileResult{OrderID: order.ID, Status: order.StatusOrder}

		if order.InventoryDeducted {
			result.AlreadyProcessed = true
		} else {
			if err := s.ledger.Deduct(ctx, tx, order.ID, order.StoreID); err != nil {
				var stockErr *StockError
				if errors.As(err, &stockErr) {
					return conflictFromStock(stockErr)
				}
				return err
			}
			if order.CustomerID != nil && cartID != 0 {
				if err := s.orders.Items(tx, order); err != nil {
					return err
				}
				if _, err := ClearCartForOrder(tx, cartID, *order.CustomerID, order.LineRefs()); err != nil {
					return err
				}
			}
			if err := s.orders.MarkDeducted(tx, order.ID); err != nil {
				return err
			}
		}

		if err := s.orders.MarkPaymentsPaid(tx, order.ID); err != nil {
			return err
		}
		if order.StatusOrder == models.OrderStatusPending {
			if err := s.orders.SetStatus(tx, order, models.OrderStatusConfirmed); err != nil {
				return err
			}
			confirmed = true
		}

		var payment models.Payment
		if err := tx.Select("method").Where("order_id = ?", order.ID).Order("id DESC").First(&payment).Error; err == nil {
			method = payment.Method
		}

		result.Status = order.StatusOrder
		if result.AlreadyProcessed {
			result.Message = "Order already confirmed"
		} else {
			result.Message = "Order confirmed"
		}
		return nil
	})
	if err != nil {
		if KindOf(err) == KindInternal {
			logger.Error("confirm order failed", zap.Error(err))
		}
		return nil, err
	}

	logger.Info("order confirmed by client", zap.Bool("already_processed", result.AlreadyProcessed))
	if confirmed {
		publishEvent(ctx, s.publisher, events.EventOrderConfirmed, orderID, events.OrderConfirmedPayload{
			OrderID:       orderID,
			PaymentMethod: method,
			Source:        "client_confirm",
		})
	}
	return &result, nil
}

// UpdateStatus moves an order along the state machine on behalf of staff.
func (s *ReconcileService) UpdateStatus(ctx context.Context, orderID uint, to models.OrderStatus) (*models.Order, error) {
	if !to.Valid() {
		return nil, validationError("unknown order status %q", to)
	}

	var order *models.Order
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		order, err = s.orders.Lock(tx, orderID)
		if err != nil {
			return err
		}
		return s.orders.SetStatus(tx, order, to)
	})
	if err != nil {
		return nil, err
	}

	logging.FromContext(ctx).Info("order status updated",
		zap.Uint("order_id", orderID),
		zap.String("status", string(to)),
	)

	switch to {
	case models.OrderStatusCancelled:
		s.publishCancelled(ctx, orderID, "cancelled by staff")
	case models.OrderStatusConfirmed:
		publishEvent(ctx, s.publisher, events.EventOrderConfirmed, orderID, events.OrderConfirmedPayload{
			OrderID: orderID,
			Source:  "staff",
		})
	}
	return order, nil
}
