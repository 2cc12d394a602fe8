package handlers

import (
	"io"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
)

type CreatePaymentRequest struct {
	OrderID  uint    `json:"order_id" binding:"required"`
	Amount   float64 `json:"amount" binding:"required,gt=0"`
	Currency string  `json:"currency"`
	Method   string  `json:"method" binding:"required"`
}

// CreatePayment records a manual payment against an order
func CreatePayment(c *gin.Context) {
	var req CreatePaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	payment, err := paymentSvc.Create(req.OrderID, req.Amount, req.Currency, req.Method)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": "Payment recorded", "payment": payment})
}

// ListOrderPayments returns payments recorded for one order
func ListOrderPayments(c *gin.Context) {
	orderID, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid order id"})
		return
	}
	payments, perr := paymentSvc.ListByOrder(uint(orderID))
	if perr != nil {
		respondError(c, perr)
		return
	}
	c.JSON(http.StatusOK, gin.H{"count": len(payments), "payments": payments})
}

// PaymentWebhook ingests signature-verified gateway events. Events with
// no matching internal order are recorded as dropped and acknowledged.
func PaymentWebhook(c *gin.Context) {
	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Failed to read request body"})
		return
	}

	payment, werr := paymentSvc.HandleWebhook(body, c.GetHeader("X-Webhook-Signature"))
	if werr != nil {
		respondError(c, werr)
		return
	}
	if payment == nil {
		c.JSON(http.StatusOK, gin.H{"message": "Event recorded, no matching order"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Payment recorded", "payment": payment})
}
