package services

import (
	"errors"
	"fmt"
	"strings"
	"testing"
)

func TestKindOfUnwrapsChains(t *testing.T) {
	stock := &StockError{IngredientID: 3, IngredientName: "Rice", Required: dec("2"), Available: dec("1.5")}
	wrapped := fmt.Errorf("checkout: %w", conflictFromStock(stock))

	if got := KindOf(wrapped); got != KindConflict {
		t.Errorf("KindOf() = %v, want conflict", got)
	}
	var target *StockError
	if !errors.As(wrapped, &target) || target != stock {
		t.Error("stock error not reachable through the chain")
	}
	if !strings.Contains(wrapped.Error(), "Rice") {
		t.Errorf("message %q does not name the ingredient", wrapped.Error())
	}
	if got := KindOf(errors.New("boom")); got != KindInternal {
		t.Errorf("KindOf(plain) = %v, want internal", got)
	}
}

func TestStockErrorMessage(t *testing.T) {
	missing := &StockError{IngredientID: 9, Missing: true}
	if got := missing.Error(); got != "ingredient #9 is not stocked at this store" {
		t.Errorf("Error() = %q", got)
	}
	short := &StockError{IngredientID: 9, IngredientName: "Basil", Required: dec("3"), Available: dec("1")}
	if got := short.Error(); got != "insufficient stock for ingredient Basil: required 3, available 1" {
		t.Errorf("Error() = %q", got)
	}
}
