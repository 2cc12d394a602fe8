package models

import "time"

// PaymentStatus mirrors the gateway vocabulary after mapping
type PaymentStatus string

const (
	PaymentPending   PaymentStatus = "pending"
	PaymentCompleted PaymentStatus = "completed"
	PaymentFailed    PaymentStatus = "failed"
	PaymentCancelled PaymentStatus = "cancelled"
)

type Payment struct {
	ID            uint          `json:"id" gorm:"primaryKey"`
	OrderID       uint          `json:"order_id" gorm:"not null;index"`
	Order         *Order        `json:"order,omitempty" gorm:"foreignKey:OrderID"`
	Amount        float64       `json:"amount" gorm:"not null"`
	Currency      string        `json:"currency" gorm:"not null;default:'INR'"`
	Status        PaymentStatus `json:"status" gorm:"not null;default:'pending'"`
	Method        string        `json:"method"` // cash, card, upi, gateway
	TransactionID string        `json:"transaction_id" gorm:"index"`
	CreatedAt     time.Time     `json:"created_at"`
	UpdatedAt     time.Time     `json:"updated_at"`
}

// WebhookEvent records every gateway webhook delivery, including ones
// dropped because no internal order matched the external reference.
type WebhookEvent struct {
	ID          uint      `json:"id" gorm:"primaryKey"`
	EventID     string    `json:"event_id" gorm:"uniqueIndex"`
	ExternalRef string    `json:"external_ref" gorm:"index"`
	Amount      float64   `json:"amount"`
	Currency    string    `json:"currency"`
	RawStatus   string    `json:"raw_status"`
	Dropped     bool      `json:"dropped"`
	DropReason  string    `json:"drop_reason"`
	CreatedAt   time.Time `json:"created_at"`
}
