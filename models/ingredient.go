package models

import "time"

// TransactionType is the direction of a stock movement
type TransactionType string

const (
	TransactionIn  TransactionType = "IN"
	TransactionOut TransactionType = "OUT"
)

// StockReason explains why a stock movement happened
type StockReason string

const (
	ReasonPurchase   StockReason = "PURCHASE"
	ReasonSale       StockReason = "SALE"
	ReasonAdjustment StockReason = "ADJUSTMENT"
	ReasonWaste      StockReason = "WASTE"
	ReasonTransfer   StockReason = "TRANSFER"
)

type Ingredient struct {
	ID           uint      `json:"id" gorm:"primaryKey"`
	Name         string    `json:"name" gorm:"uniqueIndex;not null"`
	Category     string    `json:"category"`
	Unit         string    `json:"unit" gorm:"not null"` // g, kg, ml, l, pcs
	CurrentStock float64   `json:"current_stock" gorm:"not null;default:0"`
	MinStock     float64   `json:"min_stock" gorm:"not null;default:0"`
	PricePerUnit float64   `json:"price_per_unit"`
	IsActive     bool      `json:"is_active" gorm:"default:true"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// StockTransaction is one immutable entry in the stock ledger. Rows are
// created once and never updated or deleted; current stock is always
// derivable by replaying them.
type StockTransaction struct {
	ID            uint            `json:"id" gorm:"primaryKey"`
	IngredientID  uint            `json:"ingredient_id" gorm:"not null;index"`
	Ingredient    Ingredient      `json:"ingredient,omitempty" gorm:"foreignKey:IngredientID"`
	Type          TransactionType `json:"type" gorm:"not null"`
	Quantity      float64         `json:"quantity" gorm:"not null"`
	UnitPrice     float64         `json:"unit_price"`
	TotalAmount   float64         `json:"total_amount"`
	Reason        StockReason     `json:"reason" gorm:"not null"`
	Reference     string          `json:"reference"` // order id on SALE deductions
	PerformedBy   uint            `json:"performed_by"`
	PreviousStock float64         `json:"previous_stock"`
	NewStock      float64         `json:"new_stock"`
	CreatedAt     time.Time       `json:"created_at" gorm:"index"`
}
