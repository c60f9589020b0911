package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/example/foodorder/internal/logging"
	"github.com/example/foodorder/internal/metrics"
	"github.com/example/foodorder/internal/models"
)

// StockEpsilon absorbs rounding noise when comparing stock against usage.
var StockEpsilon = decimal.New(1, -4)

var tracer = otel.Tracer("github.com/example/foodorder/internal/services")

// InventoryLedger converts sold order lines into store inventory decrements.
type InventoryLedger struct {
	recipes *RecipeService
	metrics *metrics.Metrics
}

func NewInventoryLedger(recipes *RecipeService, m *metrics.Metrics) *InventoryLedger {
	return &InventoryLedger{recipes: recipes, metrics: m}
}

// Deduct consumes the ingredients of every product line of the order from the
// store's inventory and records what each line used. It runs in a savepoint of
// tx: on any error no decrement survives, and the caller still owns tx.
//
// Combo and bowl lines carry no recipe and are not deducted.
func (l *InventoryLedger) Deduct(ctx context.Context, tx *gorm.DB, orderID uint, storeID *uint) error {
	ctx, span := tracer.Start(ctx, "InventoryLedger.Deduct")
	defer span.End()
	span.SetAttributes(attribute.Int64("order.id", int64(orderID)))

	err := tx.Transaction(func(inner *gorm.DB) error {
		var items []models.OrderItem
		if err := inner.Where("order_id = ?", orderID).Order("id").Find(&items).Error; err != nil {
			return fmt.Errorf("load order items: %w", err)
		}

		for _, item := range items {
			if item.Kind != models.LineItemProduct {
				continue
			}
			if err := l.deductItem(inner, item, storeID); err != nil {
				return err
			}
		}
		return nil
	})

	logger := logging.FromContext(ctx)
	if err != nil {
		var stockErr *StockError
		if errors.As(err, &stockErr) {
			l.metrics.Deduction("insufficient_stock")
			logger.Info("inventory deduction rejected",
				zap.Uint("order_id", orderID),
				zap.Uint("ingredient_id", stockErr.IngredientID),
				zap.String("required", stockErr.Required.String()),
				zap.String("available", stockErr.Available.String()),
			)
		} else {
			l.metrics.Deduction("error")
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}

	l.metrics.Deduction("ok")
	logger.Debug("inventory deducted", zap.Uint("order_id", orderID))
	return nil
}

func (l *InventoryLedger) deductItem(tx *gorm.DB, item models.OrderItem, storeID *uint) error {
	recipe, err := l.recipes.Ingredients(tx, item.ItemID)
	if err != nil {
		return err
	}

	qty := decimal.NewFromInt(int64(item.Quantity))
	for _, line := range recipe {
		used := line.Quantity.Mul(qty).Round(2)

		if storeID == nil {
			return l.stockError(tx, line.IngredientID, used, decimal.Zero, true)
		}

		var inv models.StoreInventory
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("store_id = ? AND ingredient_id = ?", *storeID, line.IngredientID).
			First(&inv).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return l.stockError(tx, line.IngredientID, used, decimal.Zero, true)
		}
		if err != nil {
			return fmt.Errorf("lock inventory for ingredient %d: %w", line.IngredientID, err)
		}

		if inv.StockQuantity.Add(StockEpsilon).LessThan(used) {
			return l.stockError(tx, line.IngredientID, used, inv.StockQuantity, false)
		}

		res := tx.Model(&models.StoreInventory{}).
			Where("id = ? AND stock_quantity >= ?", inv.ID, used.Sub(StockEpsilon)).
			Updates(map[string]any{
				"stock_quantity": gorm.Expr("stock_quantity - ?", used),
				"last_updated":   time.Now(),
			})
		if res.Error != nil {
			return fmt.Errorf("decrement inventory %d: %w", inv.ID, res.Error)
		}
		if res.RowsAffected == 0 {
			return l.stockError(tx, line.IngredientID, used, inv.StockQuantity, false)
		}

		if err := tx.Create(&models.OrderItemIngredient{
			OrderItemID:  item.ID,
			IngredientID: line.IngredientID,
			QuantityUsed: used,
		}).Error; err != nil {
			return fmt.Errorf("record ingredient usage: %w", err)
		}
	}
	return nil
}

func (l *InventoryLedger) stockError(tx *gorm.DB, ingredientID uint, required, available decimal.Decimal, missing bool) error {
	return &StockError{
		IngredientID:   ingredientID,
		IngredientName: l.recipes.IngredientName(tx, ingredientID),
		Required:       required,
		Available:      available,
		Missing:        missing,
	}
}
