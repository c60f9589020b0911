package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/example/foodorder/internal/models"
)

// CartStore keeps one cart per customer.
type CartStore struct {
	db *gorm.DB
}

func NewCartStore(db *gorm.DB) *CartStore {
	return &CartStore{db: db}
}

// AddItem puts a line into the customer's cart, creating the cart on first use.
// Adding a reference that is already in the cart raises its quantity.
func (s *CartStore) AddItem(ctx context.Context, customerID uint, ref models.LineRef, quantity int, unitPrice decimal.Decimal) (*models.Cart, error) {
	if quantity <= 0 {
		return nil, validationError("quantity must be positive")
	}
	if unitPrice.IsNegative() {
		return nil, validationError("unit price must not be negative")
	}
	if !ref.Kind.Valid() || ref.ItemID == 0 {
		return nil, validationError("invalid item reference")
	}

	var cartID uint
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "customer_id"}},
			DoNothing: true,
		}).Create(&models.Cart{CustomerID: customerID}).Error; err != nil {
			return fmt.Errorf("ensure cart: %w", err)
		}

		var cart models.Cart
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("customer_id = ?", customerID).
			First(&cart).Error; err != nil {
			return fmt.Errorf("lock cart: %w", err)
		}
		cartID = cart.ID

		var item models.CartItem
		err := tx.Where("cart_id = ? AND item_kind = ? AND item_id = ?", cart.ID, ref.Kind, ref.ItemID).
			First(&item).Error
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			return tx.Create(&models.CartItem{
				CartID:    cart.ID,
				LineRef:   ref,
				Quantity:  quantity,
				UnitPrice: unitPrice,
			}).Error
		case err != nil:
			return fmt.Errorf("load cart item: %w", err)
		}

		return tx.Model(&models.CartItem{}).
			Where("id = ?", item.ID).
			Updates(map[string]any{
				"quantity":   gorm.Expr("quantity + ?", quantity),
				"unit_price": unitPrice,
			}).Error
	})
	if err != nil {
		return nil, err
	}

	return s.load(s.db.WithContext(ctx), "id = ?", cartID)
}

// GetCart returns the customer's cart.
func (s *CartStore) GetCart(ctx context.Context, customerID uint) (*models.Cart, error) {
	return s.load(s.db.WithContext(ctx), "customer_id = ?", customerID)
}

func (s *CartStore) load(db *gorm.DB, query string, arg any) (*models.Cart, error) {
	var cart models.Cart
	err := db.Preload("Items", func(tx *gorm.DB) *gorm.DB {
		return tx.Order("id")
	}).Where(query, arg).First(&cart).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, notFoundError("cart", err)
	}
	if err != nil {
		return nil, fmt.Errorf("load cart: %w", err)
	}
	return &cart, nil
}

// ClearForOrder removes the lines of the customer's cart that the order bought
// and drops the cart once it is empty. Call it inside the fulfilling transaction.
func ClearForOrder(tx *gorm.DB, customerID uint, refs []models.LineRef) (int64, error) {
	return clearCarts(tx, tx.Model(&models.Cart{}).Where("customer_id = ?", customerID), refs)
}

// ClearCartForOrder is ClearForOrder for one named cart, which must belong to customerID.
func ClearCartForOrder(tx *gorm.DB, cartID, customerID uint, refs []models.LineRef) (int64, error) {
	return clearCarts(tx, tx.Model(&models.Cart{}).Where("id = ? AND customer_id = ?", cartID, customerID), refs)
}

func clearCarts(tx *gorm.DB, carts *gorm.DB, refs []models.LineRef) (int64, error) {
	if len(refs) == 0 {
		return 0, nil
	}

	var cartIDs []uint
	if err := carts.Pluck("id", &cartIDs).Error; err != nil {
		return 0, fmt.Errorf("find carts: %w", err)
	}
	if len(cartIDs) == 0 {
		return 0, nil
	}

	conds := make([]string, 0, len(refs))
	args := make([]any, 0, len(refs)*2)
	for _, ref := range refs {
		conds = append(conds, "(item_kind = ? AND item_id = ?)")
		args = append(args, ref.Kind, ref.ItemID)
	}

	res := tx.Where("cart_id IN ?", cartIDs).
		Where("("+strings.Join(conds, " OR ")+")", args...).
		Delete(&models.CartItem{})
	if res.Error != nil {
		return 0, fmt.Errorf("delete cart items: %w", res.Error)
	}

	if err := tx.Where("id IN ?", cartIDs).
		Where("NOT EXISTS (SELECT 1 FROM cart_items WHERE cart_items.cart_id = carts.id)").
		Delete(&models.Cart{}).Error; err != nil {
		return 0, fmt.Errorf("delete empty carts: %w", err)
	}
	return res.RowsAffected, nil
}
