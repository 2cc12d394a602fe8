package models

import "time"

// OrderStatus represents all possible states of a dine-in order
type OrderStatus string

const (
	StatusBooked     OrderStatus = "Booked"
	StatusPending    OrderStatus = "Pending"
	StatusInProgress OrderStatus = "In Progress"
	StatusReady      OrderStatus = "Ready"
	StatusCompleted  OrderStatus = "Completed"
)

// IsOpen reports whether the order still owns its table.
func (s OrderStatus) IsOpen() bool { return s != StatusCompleted }

type Order struct {
	ID            uint        `json:"id" gorm:"primaryKey"`
	CustomerName  string      `json:"customer_name"`
	CustomerPhone string      `json:"customer_phone"`
	Guests        int         `json:"guests"`
	Status        OrderStatus `json:"status" gorm:"not null;default:'Pending';index"`
	Items         []OrderItem `json:"items,omitempty" gorm:"foreignKey:OrderID"`
	Total         float64     `json:"total"`
	Tax           float64     `json:"tax"`
	TotalWithTax  float64     `json:"total_with_tax"`
	TableID       uint        `json:"table_id" gorm:"not null;index"`
	Table         *Table      `json:"table,omitempty" gorm:"foreignKey:TableID"`
	ExternalRef   string      `json:"external_ref" gorm:"index"` // payment-gateway order reference
	CreatedAt     time.Time   `json:"created_at"`
	UpdatedAt     time.Time   `json:"updated_at"`
}

type OrderItem struct {
	ID         uint    `json:"id" gorm:"primaryKey"`
	OrderID    uint    `json:"order_id" gorm:"not null;index"`
	MenuItemID uint    `json:"menu_item_id" gorm:"not null"`
	Name       string  `json:"name"` // snapshot name at time of order
	Quantity   int     `json:"quantity" gorm:"not null"`
	UnitPrice  float64 `json:"unit_price" gorm:"not null"` // snapshot price
	TotalPrice float64 `json:"total_price" gorm:"not null"`
}
