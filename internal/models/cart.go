package models

import "github.com/shopspring/decimal"

type Cart struct {
	BaseModel
	CustomerID uint       `gorm:"uniqueIndex;not null" json:"customerId"`
	Items      []CartItem `json:"items"`
}

type CartItem struct {
	BaseModel
	CartID    uint `gorm:"index;not null" json:"cartId"`
	LineRef   `gorm:"embedded"`
	Quantity  int             `gorm:"not null" json:"quantity"`
	UnitPrice decimal.Decimal `gorm:"type:numeric(14,2);not null" json:"unitPrice"`
}
