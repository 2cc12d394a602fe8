package handlers

import (
	"net/http"
	"strconv"
	"time"

	"restaurant-pos-api/config"
	"restaurant-pos-api/middleware"
	"restaurant-pos-api/models"
	"restaurant-pos-api/stock"

	"github.com/gin-gonic/gin"
)

type CreateIngredientRequest struct {
	Name         string  `json:"name" binding:"required"`
	Category     string  `json:"category"`
	Unit         string  `json:"unit" binding:"required"`
	InitialStock float64 `json:"initial_stock" binding:"min=0"`
	MinStock     float64 `json:"min_stock" binding:"min=0"`
	PricePerUnit float64 `json:"price_per_unit" binding:"min=0"`
}

// CreateIngredient registers a new ingredient, seeding any initial
// stock through the ledger
func CreateIngredient(c *gin.Context) {
	var req CreateIngredientRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ingredient := models.Ingredient{
		Name:         req.Name,
		Category:     req.Category,
		Unit:         req.Unit,
		MinStock:     req.MinStock,
		PricePerUnit: req.PricePerUnit,
		IsActive:     true,
	}
	txn, err := ledgerSvc.CreateIngredient(&ingredient, req.InitialStock, middleware.GetUserID(c))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message":     "Ingredient created",
		"ingredient":  ingredient,
		"transaction": txn,
	})
}

// ListIngredients returns all ingredients, optionally filtered
func ListIngredients(c *gin.Context) {
	var ingredients []models.Ingredient
	query := config.DB.Order("name asc")
	if category := c.Query("category"); category != "" {
		query = query.Where("category = ?", category)
	}
	if active := c.Query("active"); active == "true" {
		query = query.Where("is_active = ?", true)
	}
	query.Find(&ingredients)
	c.JSON(http.StatusOK, gin.H{"count": len(ingredients), "ingredients": ingredients})
}

type AdjustStockRequest struct {
	Type      models.TransactionType `json:"type" binding:"required"`
	Quantity  float64                `json:"quantity" binding:"required,gt=0"`
	Reason    models.StockReason     `json:"reason" binding:"required"`
	Reference string                 `json:"reference"`
	UnitPrice float64                `json:"unit_price"`
}

// AdjustStock applies a manual IN/OUT stock movement through the ledger
func AdjustStock(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid ingredient id"})
		return
	}

	var req AdjustStockRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ingredient, txn, aerr := ledgerSvc.ApplyAdjustment(stock.Adjustment{
		IngredientID: uint(id),
		Type:         req.Type,
		Quantity:     req.Quantity,
		Reason:       req.Reason,
		Reference:    req.Reference,
		PerformedBy:  middleware.GetUserID(c),
		UnitPrice:    req.UnitPrice,
	})
	if aerr != nil {
		respondError(c, aerr)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message":     "Stock adjusted",
		"ingredient":  ingredient,
		"transaction": txn,
	})
}

// ListStockTransactions returns ledger entries newest first
func ListStockTransactions(c *gin.Context) {
	filter := stock.TransactionFilter{}
	if v := c.Query("ingredient_id"); v != "" {
		if id, err := strconv.ParseUint(v, 10, 32); err == nil {
			filter.IngredientID = uint(id)
		}
	}
	if v := c.Query("type"); v != "" {
		filter.Type = models.TransactionType(v)
	}
	if v := c.Query("from"); v != "" {
		if t, err := time.Parse(time.RFC3339, v); err == nil {
			filter.From = t
		}
	}
	if v := c.Query("to"); v != "" {
		if t, err := time.Parse(time.RFC3339, v); err == nil {
			filter.To = t
		}
	}
	if v := c.Query("limit"); v != "" {
		filter.Limit, _ = strconv.Atoi(v)
	}
	if v := c.Query("offset"); v != "" {
		filter.Offset, _ = strconv.Atoi(v)
	}

	txns, err := ledgerSvc.Query(filter)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"count": len(txns), "transactions": txns})
}

// LowStock lists ingredients at or below their minimum level
func LowStock(c *gin.Context) {
	ingredients, err := ledgerSvc.LowStock()
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"count": len(ingredients), "ingredients": ingredients})
}
