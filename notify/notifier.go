package notify

import "restaurant-pos-api/models"

// KitchenTicket is the payload pushed to kitchen displays. On a merge
// into an existing order only the newly added items are listed; the
// full item list is always reachable through the order snapshot.
type KitchenTicket struct {
	Order      *models.Order      `json:"order"`
	IsNewOrder bool               `json:"is_new_order"`
	AddedItems []models.OrderItem `json:"added_items"`
}

// Notifier pushes real-time updates to kitchen and management clients.
// All methods are fire-and-forget: at-most-once, never retried, and a
// failed delivery must never fail the operation that triggered it.
type Notifier interface {
	NotifyKitchen(ticket KitchenTicket)
	NotifyOrderUpdate(order *models.Order)
	NotifyTableUpdate(table *models.Table)
}
