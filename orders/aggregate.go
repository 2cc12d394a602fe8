package orders

import (
	"errors"

	"gorm.io/gorm"

	"restaurant-pos-api/apperr"
	"restaurant-pos-api/models"
	"restaurant-pos-api/statemachine"
)

// CustomerDetails carries the guest information attached to an order.
// On a merge, non-zero fields win per-field; the rest are retained.
type CustomerDetails struct {
	Name   string `json:"name"`
	Phone  string `json:"phone"`
	Guests int    `json:"guests"`
}

// findOpenOrder returns the single non-Completed order for a table, or
// nil if the table has none. The invariant allows at most one, but ties
// are broken newest-first in case a bug ever left two open.
func findOpenOrder(tx *gorm.DB, tableID uint) (*models.Order, error) {
	var order models.Order
	err := tx.Preload("Items").
		Where("table_id = ? AND status <> ?", tableID, models.StatusCompleted).
		Order("created_at desc, id desc").
		First(&order).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, apperr.Wrap(apperr.KindInternal, err, "failed to look up open order")
	}
	return &order, nil
}

// mergeCustomer overlays non-zero incoming fields onto the order.
func mergeCustomer(order *models.Order, details CustomerDetails) {
	if details.Name != "" {
		order.CustomerName = details.Name
	}
	if details.Phone != "" {
		order.CustomerPhone = details.Phone
	}
	if details.Guests > 0 {
		order.Guests = details.Guests
	}
}

// billContribution is the subtotal and tax a batch of line items adds
// to an order's bills.
type billContribution struct {
	total float64
	tax   float64
}

// placeOrUpdate merges line items into the table's open order, creating
// the order when none exists. It must run inside the caller's store
// transaction so the lookup and the write form one serialization point
// per table. Returns the order, whether it was created, and the rows
// that were newly added.
func placeOrUpdate(tx *gorm.DB, tableID uint, details CustomerDetails, items []models.OrderItem, contrib billContribution) (*models.Order, bool, []models.OrderItem, error) {
	order, err := findOpenOrder(tx, tableID)
	if err != nil {
		return nil, false, nil, err
	}

	if order == nil {
		status := models.StatusPending
		if len(items) == 0 {
			status = models.StatusBooked
		}
		created := models.Order{
			CustomerName:  details.Name,
			CustomerPhone: details.Phone,
			Guests:        details.Guests,
			Status:        status,
			TableID:       tableID,
			Items:         items,
			Total:         contrib.total,
			Tax:           contrib.tax,
			TotalWithTax:  contrib.total + contrib.tax,
		}
		if err := tx.Create(&created).Error; err != nil {
			return nil, false, nil, apperr.Wrap(apperr.KindInternal, err, "failed to create order")
		}
		return &created, true, created.Items, nil
	}

	mergeCustomer(order, details)

	added := make([]models.OrderItem, len(items))
	copy(added, items)
	for i := range added {
		added[i].OrderID = order.ID
	}
	if len(added) > 0 {
		if err := tx.Create(&added).Error; err != nil {
			return nil, false, nil, apperr.Wrap(apperr.KindInternal, err, "failed to append order items")
		}
		order.Items = append(order.Items, added...)
		// The customer has arrived: a pre-booked order becomes live
		if order.Status == models.StatusBooked {
			order.Status = models.StatusPending
		}
	}

	order.Total += contrib.total
	order.Tax += contrib.tax
	order.TotalWithTax = order.Total + order.Tax

	if err := tx.Model(&models.Order{}).Where("id = ?", order.ID).
		Updates(map[string]interface{}{
			"customer_name":  order.CustomerName,
			"customer_phone": order.CustomerPhone,
			"guests":         order.Guests,
			"status":         order.Status,
			"total":          order.Total,
			"tax":            order.Tax,
			"total_with_tax": order.TotalWithTax,
		}).Error; err != nil {
		return nil, false, nil, apperr.Wrap(apperr.KindInternal, err, "failed to update order")
	}
	return order, false, added, nil
}

// UpdateStatus transitions an order through its lifecycle. Transitions
// outside the allowed table are rejected; reaching Completed releases
// the order's table as a best-effort side effect and notifies
// management clients.
func (s *Service) UpdateStatus(orderID uint, newStatus models.OrderStatus) (*models.Order, error) {
	var order models.Order
	if err := s.db.Preload("Items").First(&order, orderID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.New(apperr.KindNotFound, "order %d not found", orderID)
		}
		return nil, apperr.Wrap(apperr.KindInternal, err, "failed to load order")
	}

	if err := statemachine.CanTransition(order.Status, newStatus); err != nil {
		return nil, err
	}

	if err := s.db.Model(&models.Order{}).Where("id = ?", order.ID).
		Update("status", newStatus).Error; err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, err, "failed to update order status")
	}
	order.Status = newStatus

	s.notifier.NotifyOrderUpdate(&order)

	if newStatus == models.StatusCompleted {
		if table := s.tables.Release(order.TableID); table != nil {
			s.notifier.NotifyTableUpdate(table)
		}
	}
	return &order, nil
}

// GetOrder loads an order with its items and table.
func (s *Service) GetOrder(orderID uint) (*models.Order, error) {
	var order models.Order
	err := s.db.Preload("Items").Preload("Table").First(&order, orderID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.New(apperr.KindNotFound, "order %d not found", orderID)
		}
		return nil, apperr.Wrap(apperr.KindInternal, err, "failed to load order")
	}
	return &order, nil
}
