package handlers

import (
	"net/http"
	"strconv"

	"restaurant-pos-api/config"
	"restaurant-pos-api/models"

	"github.com/gin-gonic/gin"
)

type RecipeLineRequest struct {
	IngredientID uint    `json:"ingredient_id" binding:"required"`
	Quantity     float64 `json:"quantity" binding:"required,gt=0"`
}

type CreateMenuItemRequest struct {
	ItemCode string              `json:"item_code" binding:"required"`
	Name     string              `json:"name" binding:"required"`
	Category string              `json:"category"`
	Price    float64             `json:"price" binding:"required,gt=0"`
	TaxRate  float64             `json:"tax_rate" binding:"min=0"`
	Discount float64             `json:"discount" binding:"min=0"`
	Recipe   []RecipeLineRequest `json:"recipe"`
}

// AddMenuItem creates a menu item together with its recipe
func AddMenuItem(c *gin.Context) {
	var req CreateMenuItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var existing models.MenuItem
	if result := config.DB.Where("item_code = ?", req.ItemCode).First(&existing); result.Error == nil {
		c.JSON(http.StatusConflict, gin.H{"error": "Item code already in use"})
		return
	}

	item := models.MenuItem{
		ItemCode:    req.ItemCode,
		Name:        req.Name,
		Category:    req.Category,
		Price:       req.Price,
		TaxRate:     req.TaxRate,
		Discount:    req.Discount,
		IsAvailable: true,
	}
	for i, line := range req.Recipe {
		item.Recipe = append(item.Recipe, models.RecipeItem{
			IngredientID: line.IngredientID,
			Quantity:     line.Quantity,
			Position:     i,
		})
	}

	if err := config.DB.Create(&item).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create menu item"})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": "Menu item added", "item": item})
}

// GetMenu returns the menu, optionally filtered by category
func GetMenu(c *gin.Context) {
	var items []models.MenuItem
	query := config.DB.Preload("Recipe.Ingredient")
	if category := c.Query("category"); category != "" {
		query = query.Where("category = ?", category)
	}
	if available := c.Query("available"); available == "true" {
		query = query.Where("is_available = ?", true)
	}
	query.Order("category asc, name asc").Find(&items)
	c.JSON(http.StatusOK, gin.H{"count": len(items), "menu": items})
}

// UpdateMenuItem updates safe fields of a menu item
func UpdateMenuItem(c *gin.Context) {
	var item models.MenuItem
	if err := config.DB.First(&item, c.Param("id")).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Menu item not found"})
		return
	}

	var req map[string]interface{}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	// Only allow safe fields
	allowed := map[string]bool{"name": true, "category": true, "price": true, "tax_rate": true, "discount": true, "is_available": true}
	update := map[string]interface{}{}
	for k, v := range req {
		if allowed[k] {
			update[k] = v
		}
	}
	config.DB.Model(&item).Updates(update)
	c.JSON(http.StatusOK, gin.H{"message": "Menu item updated", "item": item})
}

// CheckMenuItemAvailability evaluates whether current stock can prepare
// the requested quantity. Pure read, reserves nothing.
func CheckMenuItemAvailability(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid menu item id"})
		return
	}
	quantity := 1
	if v := c.Query("quantity"); v != "" {
		if q, err := strconv.Atoi(v); err == nil {
			quantity = q
		}
	}

	availability, aerr := resolverSvc.CheckAvailability(uint(id), quantity)
	if aerr != nil {
		respondError(c, aerr)
		return
	}
	c.JSON(http.StatusOK, availability)
}
