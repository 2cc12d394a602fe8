package models

import "time"

// TableStatus represents the occupancy state of a dining table
type TableStatus string

const (
	TableAvailable TableStatus = "Available"
	TableOccupied  TableStatus = "Occupied"
	TableBooked    TableStatus = "Booked"
)

type Table struct {
	ID      uint        `json:"id" gorm:"primaryKey"`
	TableNo int         `json:"table_no" gorm:"uniqueIndex;not null"`
	Seats   int         `json:"seats" gorm:"not null"`
	Status  TableStatus `json:"status" gorm:"not null;default:'Available'"`
	// CurrentOrderID is a non-authoritative cache of the active order.
	// The authoritative relation is the open Order whose TableID matches.
	CurrentOrderID *uint     `json:"current_order_id"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}
