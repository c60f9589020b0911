package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type Ingredient struct {
	BaseModel
	Name string `gorm:"size:128;not null" json:"name"`
	Unit string `gorm:"size:16" json:"unit"`
}

// ProductIngredient is one recipe line: how much of an ingredient one unit of a product uses.
type ProductIngredient struct {
	BaseModel
	ProductID    uint            `gorm:"uniqueIndex:idx_product_ingredient,priority:1;not null" json:"productId"`
	IngredientID uint            `gorm:"uniqueIndex:idx_product_ingredient,priority:2;not null" json:"ingredientId"`
	Quantity     decimal.Decimal `gorm:"type:numeric(14,4);not null" json:"quantity"`
}

type StoreInventory struct {
	BaseModel
	StoreID       uint            `gorm:"uniqueIndex:idx_store_ingredient,priority:1;not null" json:"storeId"`
	IngredientID  uint            `gorm:"uniqueIndex:idx_store_ingredient,priority:2;not null" json:"ingredientId"`
	StockQuantity decimal.Decimal `gorm:"type:numeric(14,4);not null" json:"stockQuantity"`
	ReorderLevel  decimal.Decimal `gorm:"type:numeric(14,4);not null" json:"reorderLevel"`
	LastUpdated   time.Time       `json:"lastUpdated"`
}
