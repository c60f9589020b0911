package services

import (
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/example/foodorder/internal/models"
)

// OrderStore persists orders and payments. Every method runs on the caller's
// handle so it can take part in a wider transaction.
type OrderStore struct{}

func NewOrderStore() *OrderStore {
	return &OrderStore{}
}

// Create inserts the order together with its items, payments and shipping detail.
func (s *OrderStore) Create(tx *gorm.DB, order *models.Order) error {
	if err := tx.Create(order).Error; err != nil {
		return fmt.Errorf("create order: %w", err)
	}
	return nil
}

// Lock loads an order row with FOR UPDATE.
func (s *OrderStore) Lock(tx *gorm.DB, orderID uint) (*models.Order, error) {
	var order models.Order
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&order, orderID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, notFoundError("order", err)
	}
	if err != nil {
		return nil, fmt.Errorf("lock order %d: %w", orderID, err)
	}
	return &order, nil
}

// LockPayment loads the most recent payment of an order with FOR UPDATE.
func (s *OrderStore) LockPayment(tx *gorm.DB, orderID uint) (*models.Payment, error) {
	var payment models.Payment
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("order_id = ?", orderID).
		Order("id DESC").
		First(&payment).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, notFoundError("payment", err)
	}
	if err != nil {
		return nil, fmt.Errorf("lock payment of order %d: %w", orderID, err)
	}
	return &payment, nil
}

// Items loads the order lines so their references can drive cart cleanup.
func (s *OrderStore) Items(tx *gorm.DB, order *models.Order) error {
	if err := tx.Where("order_id = ?", order.ID).Order("id").Find(&order.Items).Error; err != nil {
		return fmt.Errorf("load items of order %d: %w", order.ID, err)
	}
	return nil
}

// MarkDeducted flips inventory_deducted from false to true. A row that already
// carries the flag means another unit of work deducted first, and the caller
// must roll back.
func (s *OrderStore) MarkDeducted(tx *gorm.DB, orderID uint) error {
	res := tx.Model(&models.Order{}).
		Where("id = ? AND inventory_deducted = ?", orderID, false).
		Update("inventory_deducted", true)
	if res.Error != nil {
		return fmt.Errorf("mark order %d deducted: %w", orderID, res.Error)
	}
	if res.RowsAffected != 1 {
		return &Error{Kind: KindConflict, Message: fmt.Sprintf("inventory for order %d already deducted", orderID)}
	}
	return nil
}

// SetStatus applies a state machine transition and persists it.
func (s *OrderStore) SetStatus(tx *gorm.DB, order *models.Order, to models.OrderStatus) error {
	from := order.StatusOrder
	if err := order.Transition(to); err != nil {
		return &Error{
			Kind:    KindConflict,
			Message: fmt.Sprintf("order cannot move from %s to %s", from, to),
			Err:     err,
		}
	}
	if err := tx.Model(&models.Order{}).
		Where("id = ?", order.ID).
		Update("status_order", to).Error; err != nil {
		return fmt.Errorf("update status of order %d: %w", order.ID, err)
	}
	return nil
}

// SettlePayment records the gateway outcome on a payment.
func (s *OrderStore) SettlePayment(tx *gorm.DB, payment *models.Payment, status, transID string) error {
	updates := map[string]any{"status": status}
	if transID != "" {
		updates["gateway_trans_id"] = transID
	}
	if status == models.PaymentStatusSuccess || status == models.PaymentStatusPaid {
		now := time.Now()
		updates["paid_at"] = &now
		payment.PaidAt = &now
	}
	if err := tx.Model(&models.Payment{}).Where("id = ?", payment.ID).Updates(updates).Error; err != nil {
		return fmt.Errorf("update payment %d: %w", payment.ID, err)
	}
	payment.Status = status
	if transID != "" {
		payment.GatewayTransID = transID
	}
	return nil
}

// MarkPaymentsPaid sets every payment of the order to Paid.
func (s *OrderStore) MarkPaymentsPaid(tx *gorm.DB, orderID uint) error {
	now := time.Now()
	if err := tx.Model(&models.Payment{}).
		Where("order_id = ? AND status <> ?", orderID, models.PaymentStatusPaid).
		Updates(map[string]any{"status": models.PaymentStatusPaid, "paid_at": &now}).Error; err != nil {
		return fmt.Errorf("mark payments of order %d paid: %w", orderID, err)
	}
	return nil
}

// AttachGatewayRefs stores the identifiers the wallet gateway issued for a payment.
func (s *OrderStore) AttachGatewayRefs(tx *gorm.DB, orderID uint, gatewayOrderID, requestID string) error {
	if err := tx.Model(&models.Payment{}).
		Where("order_id = ? AND method = ?", orderID, models.PaymentMethodMomo).
		Updates(map[string]any{
			"gateway_order_id":   gatewayOrderID,
			"gateway_request_id": requestID,
		}).Error; err != nil {
		return fmt.Errorf("attach gateway refs to order %d: %w", orderID, err)
	}
	return nil
}

// Get returns an order with its items, payments and shipping detail.
func (s *OrderStore) Get(db *gorm.DB, orderID uint) (*models.Order, error) {
	var order models.Order
	err := db.Preload("Items.Ingredients").
		Preload("Payments").
		Preload("ShippingDetail").
		First(&order, orderID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, notFoundError("order", err)
	}
	if err != nil {
		return nil, fmt.Errorf("load order %d: %w", orderID, err)
	}
	return &order, nil
}
