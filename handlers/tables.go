package handlers

import (
	"net/http"
	"strconv"

	"restaurant-pos-api/config"
	"restaurant-pos-api/models"

	"github.com/gin-gonic/gin"
)

type CreateTableRequest struct {
	TableNo int `json:"table_no" binding:"required,gt=0"`
	Seats   int `json:"seats" binding:"required,gt=0"`
}

// CreateTable registers a new dining table
func CreateTable(c *gin.Context) {
	var req CreateTableRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var existing models.Table
	if result := config.DB.Where("table_no = ?", req.TableNo).First(&existing); result.Error == nil {
		c.JSON(http.StatusConflict, gin.H{"error": "Table number already in use"})
		return
	}

	table := models.Table{
		TableNo: req.TableNo,
		Seats:   req.Seats,
		Status:  models.TableAvailable,
	}
	if err := config.DB.Create(&table).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create table"})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": "Table created", "table": table})
}

// ListTables returns all tables with their occupancy state
func ListTables(c *gin.Context) {
	var tableRows []models.Table
	query := config.DB.Order("table_no asc")
	if status := c.Query("status"); status != "" {
		query = query.Where("status = ?", status)
	}
	query.Find(&tableRows)
	c.JSON(http.StatusOK, gin.H{"count": len(tableRows), "tables": tableRows})
}

type BookTableRequest struct {
	CustomerName  string `json:"customer_name" binding:"required"`
	CustomerPhone string `json:"customer_phone"`
	Guests        int    `json:"guests" binding:"min=0"`
}

// BookTable reserves an available table with a placeholder order
func BookTable(c *gin.Context) {
	tableNo, err := strconv.Atoi(c.Param("no"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid table number"})
		return
	}

	var req BookTableRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	order, table, berr := tableSvc.Book(tableNo, req.CustomerName, req.CustomerPhone, req.Guests)
	if berr != nil {
		respondError(c, berr)
		return
	}
	c.JSON(http.StatusCreated, gin.H{
		"message": "Table booked",
		"table":   table,
		"order":   order,
	})
}

// ReleaseTable frees a booked or occupied table that has no active
// order, closing the booking placeholder if one exists
func ReleaseTable(c *gin.Context) {
	tableNo, err := strconv.Atoi(c.Param("no"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid table number"})
		return
	}

	table, rerr := tableSvc.ReleaseByNo(tableNo)
	if rerr != nil {
		respondError(c, rerr)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Table released", "table": table})
}
