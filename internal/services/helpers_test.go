package services

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/example/foodorder/internal/database"
	"github.com/example/foodorder/internal/models"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	name := strings.Map(func(r rune) rune {
		if r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || r >= '0' && r <= '9' {
			return r
		}
		return '_'
	}, t.Name())
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", name)
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("sql db: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	if err := database.Migrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func uintPtr(v uint) *uint {
	return &v
}

func seedIngredient(t *testing.T, db *gorm.DB, name string) models.Ingredient {
	t.Helper()
	ing := models.Ingredient{Name: name, Unit: "g"}
	if err := db.Create(&ing).Error; err != nil {
		t.Fatalf("seed ingredient: %v", err)
	}
	return ing
}

func seedRecipe(t *testing.T, db *gorm.DB, productID, ingredientID uint, qty string) {
	t.Helper()
	if err := db.Create(&models.ProductIngredient{
		ProductID:    productID,
		IngredientID: ingredientID,
		Quantity:     dec(qty),
	}).Error; err != nil {
		t.Fatalf("seed recipe: %v", err)
	}
}

func seedStock(t *testing.T, db *gorm.DB, storeID, ingredientID uint, qty string) {
	t.Helper()
	if err := db.Create(&models.StoreInventory{
		StoreID:       storeID,
		IngredientID:  ingredientID,
		StockQuantity: dec(qty),
		ReorderLevel:  dec("1"),
	}).Error; err != nil {
		t.Fatalf("seed stock: %v", err)
	}
}

func stockOf(t *testing.T, db *gorm.DB, storeID, ingredientID uint) decimal.Decimal {
	t.Helper()
	var inv models.StoreInventory
	if err := db.Where("store_id = ? AND ingredient_id = ?", storeID, ingredientID).First(&inv).Error; err != nil {
		t.Fatalf("load stock: %v", err)
	}
	return inv.StockQuantity
}

func assertStock(t *testing.T, db *gorm.DB, storeID, ingredientID uint, want string) {
	t.Helper()
	got := stockOf(t, db, storeID, ingredientID)
	if !got.Sub(dec(want)).Abs().LessThan(StockEpsilon) {
		t.Errorf("stock of ingredient %d = %s, want %s", ingredientID, got, want)
	}
}

func countRows(t *testing.T, db *gorm.DB, model any) int64 {
	t.Helper()
	var n int64
	if err := db.Model(model).Count(&n).Error; err != nil {
		t.Fatalf("count: %v", err)
	}
	return n
}

func loadOrder(t *testing.T, db *gorm.DB, id uint) *models.Order {
	t.Helper()
	order, err := NewOrderStore().Get(db, id)
	if err != nil {
		t.Fatalf("load order %d: %v", id, err)
	}
	return order
}

func productRef(id uint) models.LineRef {
	return models.LineRef{Kind: models.LineItemProduct, ItemID: id}
}

func seedCart(t *testing.T, db *gorm.DB, customerID uint, refs ...models.LineRef) models.Cart {
	t.Helper()
	carts := NewCartStore(db)
	var cart *models.Cart
	for _, ref := range refs {
		var err error
		cart, err = carts.AddItem(context.Background(), customerID, ref, 1, dec("10000"))
		if err != nil {
			t.Fatalf("seed cart: %v", err)
		}
	}
	return *cart
}

// fakeGateway records wallet payment requests.
type fakeGateway struct {
	mu       sync.Mutex
	requests []PaymentRequest
	err      error
}

func (g *fakeGateway) CreatePayment(_ context.Context, req PaymentRequest) (*PaymentResult, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.requests = append(g.requests, req)
	if g.err != nil {
		return nil, g.err
	}
	return &PaymentResult{
		GatewayOrderID: fmt.Sprintf("%d_1700000000000", req.OrderID),
		RequestID:      "req-1",
		PayURL:         "https://pay.example/" + fmt.Sprint(req.OrderID),
		Deeplink:       "momo://pay",
	}, nil
}

// kitchen seeds a store with a two-ingredient recipe for product 1 and a
// one-ingredient recipe for product 2.
type kitchen struct {
	db      *gorm.DB
	storeID uint
	rice    models.Ingredient
	chicken models.Ingredient
	sauce   models.Ingredient
}

func newKitchen(t *testing.T) *kitchen {
	t.Helper()
	db := newTestDB(t)
	k := &kitchen{
		db:      db,
		storeID: 1,
		rice:    seedIngredient(t, db, "Rice"),
		chicken: seedIngredient(t, db, "Chicken"),
		sauce:   seedIngredient(t, db, "Sauce"),
	}
	seedRecipe(t, db, 1, k.rice.ID, "0.5")
	seedRecipe(t, db, 1, k.chicken.ID, "2")
	seedRecipe(t, db, 2, k.sauce.ID, "0.25")
	seedStock(t, db, k.storeID, k.rice.ID, "10")
	seedStock(t, db, k.storeID, k.chicken.ID, "10")
	seedStock(t, db, k.storeID, k.sauce.ID, "10")
	return k
}

func (k *kitchen) ledger() *InventoryLedger {
	return NewInventoryLedger(NewRecipeService(), nil)
}

func (k *kitchen) checkout(gateway PaymentGateway) *CheckoutService {
	return NewCheckoutService(k.db, NewOrderStore(), k.ledger(), gateway, nil, nil, nil)
}

func (k *kitchen) request(method string, customerID *uint, items ...CheckoutItem) CheckoutRequest {
	return CheckoutRequest{
		CustomerID:    customerID,
		StoreID:       uintPtr(k.storeID),
		OrderType:     models.OrderTypePickup,
		PaymentMethod: method,
		Items:         items,
	}
}

func line(ref models.LineRef, qty int, price string) CheckoutItem {
	return CheckoutItem{Ref: ref, Quantity: qty, UnitPrice: dec(price)}
}
