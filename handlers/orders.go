package handlers

import (
	"net/http"
	"strconv"

	"restaurant-pos-api/config"
	"restaurant-pos-api/middleware"
	"restaurant-pos-api/models"
	"restaurant-pos-api/orders"
	"restaurant-pos-api/statemachine"

	"github.com/gin-gonic/gin"
)

// PlaceOrder creates or extends the open order for a table
func PlaceOrder(c *gin.Context) {
	var req orders.PlaceOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	req.ActorID = middleware.GetUserID(c)

	result, err := orderSvc.PlaceOrder(req)
	if err != nil {
		respondError(c, err)
		return
	}

	status := http.StatusOK
	message := "Items added to existing order"
	if result.IsNewOrder {
		status = http.StatusCreated
		message = "Order placed successfully"
	}
	c.JSON(status, gin.H{
		"message":      message,
		"order":        result.Order,
		"is_new_order": result.IsNewOrder,
		"added_items":  result.AddedItems,
	})
}

type UpdateOrderStatusRequest struct {
	Status models.OrderStatus `json:"status" binding:"required"`
}

// UpdateOrderStatus transitions an order through its lifecycle
func UpdateOrderStatus(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid order id"})
		return
	}

	var req UpdateOrderStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	order, uerr := orderSvc.UpdateStatus(uint(id), req.Status)
	if uerr != nil {
		respondError(c, uerr)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"message":           "Order status updated",
		"order":             order,
		"valid_next_states": statemachine.ValidTransitionsFrom(order.Status),
	})
}

// ListOrders returns orders newest first, optionally filtered
func ListOrders(c *gin.Context) {
	var orderRows []models.Order
	query := config.DB.Preload("Items").Preload("Table")

	if status := c.Query("status"); status != "" {
		query = query.Where("status = ?", status)
	}
	if open := c.Query("open"); open == "true" {
		query = query.Where("status <> ?", models.StatusCompleted)
	}
	if tableNo := c.Query("table_no"); tableNo != "" {
		query = query.Joins("JOIN tables ON tables.id = orders.table_id").
			Where("tables.table_no = ?", tableNo)
	}
	query.Order("created_at desc").Find(&orderRows)

	// Dashboard summary: counts grouped by status
	summary := map[string]int{}
	for _, o := range orderRows {
		summary[string(o.Status)]++
	}

	c.JSON(http.StatusOK, gin.H{
		"order_summary": summary,
		"count":         len(orderRows),
		"orders":        orderRows,
	})
}

// GetOrderDetail returns a single order with items and table
func GetOrderDetail(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid order id"})
		return
	}
	order, gerr := orderSvc.GetOrder(uint(id))
	if gerr != nil {
		respondError(c, gerr)
		return
	}
	c.JSON(http.StatusOK, gin.H{"order": order})
}

// GetStateMachineInfo returns the order lifecycle for documentation
func GetStateMachineInfo(c *gin.Context) {
	var info []gin.H
	for _, t := range statemachine.GetAllTransitions() {
		info = append(info, gin.H{"from": t.From, "to": t.To})
	}
	c.JSON(http.StatusOK, gin.H{
		"state_machine":   info,
		"terminal_states": []models.OrderStatus{models.StatusCompleted},
		"description":     "Dine-in Order Lifecycle State Machine",
	})
}
