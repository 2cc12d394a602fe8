package handlers

import (
	"net/http"

	"restaurant-pos-api/config"
	"restaurant-pos-api/models"

	"github.com/gin-gonic/gin"
)

// GetDashboardSummary aggregates orders, revenue and stock alerts for
// the management dashboard. Read-only rollup, no invariants.
func GetDashboardSummary(c *gin.Context) {
	var orders []models.Order
	config.DB.Find(&orders)

	summary := map[string]int{}
	var totalRevenue float64
	for _, o := range orders {
		summary[string(o.Status)]++
		if o.Status == models.StatusCompleted {
			totalRevenue += o.TotalWithTax
		}
	}

	var occupied, booked, available int64
	config.DB.Model(&models.Table{}).Where("status = ?", models.TableOccupied).Count(&occupied)
	config.DB.Model(&models.Table{}).Where("status = ?", models.TableBooked).Count(&booked)
	config.DB.Model(&models.Table{}).Where("status = ?", models.TableAvailable).Count(&available)

	lowStock, err := ledgerSvc.LowStock()
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"order_summary": summary,
		"total_revenue": totalRevenue,
		"order_count":   len(orders),
		"tables": gin.H{
			"occupied":  occupied,
			"booked":    booked,
			"available": available,
		},
		"low_stock_count": len(lowStock),
		"low_stock":       lowStock,
	})
}

// GetSalesByItem rolls up completed-order line items by menu item
func GetSalesByItem(c *gin.Context) {
	type row struct {
		MenuItemID uint    `json:"menu_item_id"`
		Name       string  `json:"name"`
		Quantity   int     `json:"quantity"`
		Revenue    float64 `json:"revenue"`
	}
	var rows []row
	config.DB.Model(&models.OrderItem{}).
		Select("order_items.menu_item_id, order_items.name, SUM(order_items.quantity) as quantity, SUM(order_items.total_price) as revenue").
		Joins("JOIN orders ON orders.id = order_items.order_id").
		Where("orders.status = ?", models.StatusCompleted).
		Group("order_items.menu_item_id, order_items.name").
		Order("revenue desc").
		Scan(&rows)

	c.JSON(http.StatusOK, gin.H{"count": len(rows), "items": rows})
}
