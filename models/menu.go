package models

import "time"

type MenuItem struct {
	ID          uint         `json:"id" gorm:"primaryKey"`
	ItemCode    string       `json:"item_code" gorm:"uniqueIndex;not null"`
	Name        string       `json:"name" gorm:"not null"`
	Category    string       `json:"category"`
	Price       float64      `json:"price" gorm:"not null"`
	TaxRate     float64      `json:"tax_rate" gorm:"default:0"`
	Discount    float64      `json:"discount" gorm:"default:0"`
	IsAvailable bool         `json:"is_available" gorm:"default:true"`
	Recipe      []RecipeItem `json:"recipe,omitempty" gorm:"foreignKey:MenuItemID"`
	CreatedAt   time.Time    `json:"created_at"`
	UpdatedAt   time.Time    `json:"updated_at"`
}

// RecipeItem is one line of a menu item's recipe: the quantity of an
// ingredient consumed per single unit of the menu item produced.
type RecipeItem struct {
	ID           uint       `json:"id" gorm:"primaryKey"`
	MenuItemID   uint       `json:"menu_item_id" gorm:"not null;index"`
	IngredientID uint       `json:"ingredient_id" gorm:"not null;index"`
	Ingredient   Ingredient `json:"ingredient,omitempty" gorm:"foreignKey:IngredientID"`
	Quantity     float64    `json:"quantity" gorm:"not null"`
	Position     int        `json:"position"` // preserves recipe ordering
}
