package notify

import (
	"log/slog"

	"restaurant-pos-api/models"
)

// LogNotifier writes notifications to the structured log. It is the
// default sink when no broker is configured and the fallback target
// in tests.
type LogNotifier struct {
	log *slog.Logger
}

func NewLogNotifier(log *slog.Logger) *LogNotifier {
	return &LogNotifier{log: log}
}

func (n *LogNotifier) NotifyKitchen(ticket KitchenTicket) {
	n.log.Info("kitchen notification",
		slog.Uint64("order_id", uint64(ticket.Order.ID)),
		slog.Bool("is_new_order", ticket.IsNewOrder),
		slog.Int("added_items", len(ticket.AddedItems)),
	)
}

func (n *LogNotifier) NotifyOrderUpdate(order *models.Order) {
	n.log.Info("order update notification",
		slog.Uint64("order_id", uint64(order.ID)),
		slog.String("status", string(order.Status)),
	)
}

func (n *LogNotifier) NotifyTableUpdate(table *models.Table) {
	n.log.Info("table update notification",
		slog.Uint64("table_id", uint64(table.ID)),
		slog.Int("table_no", table.TableNo),
		slog.String("status", string(table.Status)),
	)
}
