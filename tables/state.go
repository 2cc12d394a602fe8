package tables

import (
	"errors"
	"log/slog"

	"gorm.io/gorm"

	"restaurant-pos-api/apperr"
	"restaurant-pos-api/models"
)

// Machine drives table occupancy: Available -> Occupied -> Available,
// or Available -> Booked -> Occupied -> Available for reservations.
//
// MarkOccupied and Release are best-effort side effects of order
// operations: when the table cannot be resolved they log and return nil
// instead of failing the caller.
type Machine struct {
	db  *gorm.DB
	log *slog.Logger
}

func NewMachine(db *gorm.DB, log *slog.Logger) *Machine {
	return &Machine{db: db, log: log}
}

// FindByNo resolves a table by its unique number.
func (m *Machine) FindByNo(tableNo int) (*models.Table, error) {
	var table models.Table
	if err := m.db.Where("table_no = ?", tableNo).First(&table).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.New(apperr.KindNotFound, "table %d not found", tableNo)
		}
		return nil, apperr.Wrap(apperr.KindInternal, err, "failed to load table %d", tableNo)
	}
	return &table, nil
}

// MarkOccupied transitions Available|Booked -> Occupied and links the
// order. Idempotent when the table is already Occupied with the same
// order.
func (m *Machine) MarkOccupied(tableID, orderID uint) *models.Table {
	var table models.Table
	if err := m.db.First(&table, tableID).Error; err != nil {
		m.log.Warn("table occupancy sync skipped",
			slog.Uint64("table_id", uint64(tableID)),
			slog.Any("error", err))
		return nil
	}

	if table.Status == models.TableOccupied &&
		table.CurrentOrderID != nil && *table.CurrentOrderID == orderID {
		return &table
	}

	table.Status = models.TableOccupied
	table.CurrentOrderID = &orderID
	if err := m.db.Model(&models.Table{}).Where("id = ?", table.ID).
		Updates(map[string]interface{}{
			"status":           models.TableOccupied,
			"current_order_id": orderID,
		}).Error; err != nil {
		m.log.Warn("failed to mark table occupied",
			slog.Uint64("table_id", uint64(tableID)),
			slog.Any("error", err))
		return nil
	}
	return &table
}

// Release transitions any state back to Available and clears the order
// link.
func (m *Machine) Release(tableID uint) *models.Table {
	var table models.Table
	if err := m.db.First(&table, tableID).Error; err != nil {
		m.log.Warn("table release skipped",
			slog.Uint64("table_id", uint64(tableID)),
			slog.Any("error", err))
		return nil
	}

	table.Status = models.TableAvailable
	table.CurrentOrderID = nil
	if err := m.db.Model(&models.Table{}).Where("id = ?", table.ID).
		Updates(map[string]interface{}{
			"status":           models.TableAvailable,
			"current_order_id": nil,
		}).Error; err != nil {
		m.log.Warn("failed to release table",
			slog.Uint64("table_id", uint64(tableID)),
			slog.Any("error", err))
		return nil
	}
	return &table
}

// ReleaseByNo frees a table explicitly, closing any open placeholder
// order along the way. Used for no-show reservations and manual floor
// corrections; a table whose open order already holds items must be
// settled through the order lifecycle instead.
func (m *Machine) ReleaseByNo(tableNo int) (*models.Table, error) {
	var table *models.Table
	err := m.db.Transaction(func(tx *gorm.DB) error {
		var t models.Table
		if err := tx.Where("table_no = ?", tableNo).First(&t).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperr.New(apperr.KindNotFound, "table %d not found", tableNo)
			}
			return apperr.Wrap(apperr.KindInternal, err, "failed to load table %d", tableNo)
		}
		if t.Status == models.TableAvailable {
			return apperr.New(apperr.KindConflict, "table %d is already available", tableNo)
		}

		var open models.Order
		err := tx.Preload("Items").
			Where("table_id = ? AND status <> ?", t.ID, models.StatusCompleted).
			Order("created_at desc, id desc").
			First(&open).Error
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return apperr.Wrap(apperr.KindInternal, err, "failed to look up open order")
		}
		if err == nil {
			if len(open.Items) > 0 {
				return apperr.New(apperr.KindConflict,
					"table %d has an active order with items; settle order %d instead", tableNo, open.ID)
			}
			if err := tx.Model(&models.Order{}).Where("id = ?", open.ID).
				Update("status", models.StatusCompleted).Error; err != nil {
				return apperr.Wrap(apperr.KindInternal, err, "failed to close booking order")
			}
		}

		if err := tx.Model(&models.Table{}).Where("id = ?", t.ID).
			Updates(map[string]interface{}{
				"status":           models.TableAvailable,
				"current_order_id": nil,
			}).Error; err != nil {
			return apperr.Wrap(apperr.KindInternal, err, "failed to release table")
		}
		t.Status = models.TableAvailable
		t.CurrentOrderID = nil
		table = &t
		return nil
	})
	if err != nil {
		return nil, err
	}
	return table, nil
}

// Book reserves an Available table: the table moves to Booked and a
// placeholder order (status Booked, no items) is created and linked.
func (m *Machine) Book(tableNo int, customerName, customerPhone string, guests int) (*models.Order, *models.Table, error) {
	var (
		order models.Order
		table *models.Table
	)
	err := m.db.Transaction(func(tx *gorm.DB) error {
		var t models.Table
		if err := tx.Where("table_no = ?", tableNo).First(&t).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperr.New(apperr.KindNotFound, "table %d not found", tableNo)
			}
			return apperr.Wrap(apperr.KindInternal, err, "failed to load table %d", tableNo)
		}
		if t.Status != models.TableAvailable {
			return apperr.New(apperr.KindConflict, "table %d is %s and cannot be booked", tableNo, t.Status)
		}

		order = models.Order{
			CustomerName:  customerName,
			CustomerPhone: customerPhone,
			Guests:        guests,
			Status:        models.StatusBooked,
			TableID:       t.ID,
		}
		if err := tx.Create(&order).Error; err != nil {
			return apperr.Wrap(apperr.KindInternal, err, "failed to create booking order")
		}

		if err := tx.Model(&models.Table{}).Where("id = ?", t.ID).
			Updates(map[string]interface{}{
				"status":           models.TableBooked,
				"current_order_id": order.ID,
			}).Error; err != nil {
			return apperr.Wrap(apperr.KindInternal, err, "failed to book table")
		}
		t.Status = models.TableBooked
		t.CurrentOrderID = &order.ID
		table = &t
		return nil
	})
	if err != nil {
		return nil, nil, err
	}
	return &order, table, nil
}
