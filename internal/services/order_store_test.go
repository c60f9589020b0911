package services

import (
	"context"
	"testing"

	"github.com/example/foodorder/internal/models"
)

func TestMarkDeductedOnlyOnce(t *testing.T) {
	k := newKitchen(t)
	order := k.placeMomoOrder(t, 1)
	orders := NewOrderStore()

	if err := orders.MarkDeducted(k.db, order.ID); err != nil {
		t.Fatalf("first MarkDeducted() error = %v", err)
	}
	if err := orders.MarkDeducted(k.db, order.ID); KindOf(err) != KindConflict {
		t.Fatalf("second MarkDeducted() error = %v, want conflict", err)
	}
	if got := loadOrder(t, k.db, order.ID); !got.InventoryDeducted {
		t.Error("inventory_deducted = false, want true")
	}
}

func TestConfirmOrderSkipsDeductionWhenFlagSet(t *testing.T) {
	k := newKitchen(t)
	order := k.placeMomoOrder(t, 1)

	// Flag set behind the reconciler's back, as a concurrent writer would.
	if err := k.db.Model(&models.Order{}).Where("id = ?", order.ID).Update("inventory_deducted", true).Error; err != nil {
		t.Fatalf("set flag: %v", err)
	}

	res, err := k.reconciler(nil).ConfirmOrder(context.Background(), order.ID, 0, uintPtr(9))
	if err != nil {
		t.Fatalf("ConfirmOrder() error = %v", err)
	}
	if !res.AlreadyProcessed {
		t.Errorf("ConfirmOrder() = %+v, want already processed", res)
	}
	assertStock(t, k.db, k.storeID, k.rice.ID, "10")
}
