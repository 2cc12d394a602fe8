package handlers

import (
	"github.com/gin-gonic/gin"

	"restaurant-pos-api/apperr"
	"restaurant-pos-api/orders"
	"restaurant-pos-api/payments"
	"restaurant-pos-api/recipe"
	"restaurant-pos-api/stock"
	"restaurant-pos-api/tables"
)

var (
	ledgerSvc   *stock.Ledger
	resolverSvc *recipe.Resolver
	tableSvc    *tables.Machine
	orderSvc    *orders.Service
	paymentSvc  *payments.Service
)

// Init binds the domain services the handlers delegate to. Called once
// at startup, before routes are registered.
func Init(ledger *stock.Ledger, resolver *recipe.Resolver, tm *tables.Machine, os *orders.Service, ps *payments.Service) {
	ledgerSvc = ledger
	resolverSvc = resolver
	tableSvc = tm
	orderSvc = os
	paymentSvc = ps
}

// respondError maps a structured failure to its HTTP status.
func respondError(c *gin.Context, err error) {
	c.JSON(apperr.HTTPStatus(err), gin.H{
		"error": err.Error(),
		"kind":  string(apperr.KindOf(err)),
	})
}
