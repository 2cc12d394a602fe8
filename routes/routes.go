package routes

import (
	"restaurant-pos-api/handlers"
	"restaurant-pos-api/middleware"
	"restaurant-pos-api/models"

	"github.com/gin-gonic/gin"
)

func SetupRoutes(r *gin.Engine) {
	// ── Public routes ──────────────────────────────────────────────
	public := r.Group("/api")
	{
		// Auth
		public.POST("/auth/register", handlers.Register)
		public.POST("/auth/login", handlers.Login)

		// Menu browsing (no auth needed)
		public.GET("/menu", handlers.GetMenu)

		// State machine info (great for docs/Postman)
		public.GET("/state-machine", handlers.GetStateMachineInfo)

		// Payment gateway webhook (verified by signature, not JWT)
		public.POST("/payments/webhook", handlers.PaymentWebhook)
	}

	// ── Authenticated routes ───────────────────────────────────────
	auth := r.Group("/api")
	auth.Use(middleware.AuthRequired())
	{
		auth.GET("/profile", handlers.GetProfile)
		auth.GET("/tables", handlers.ListTables)
		auth.GET("/orders", handlers.ListOrders)
		auth.GET("/orders/:id", handlers.GetOrderDetail)
		auth.GET("/menu/:id/availability", handlers.CheckMenuItemAvailability)
	}

	// ── Waiter routes ──────────────────────────────────────────────
	waiter := r.Group("/api")
	waiter.Use(middleware.AuthRequired(), middleware.RoleRequired(models.RoleWaiter, models.RoleManager, models.RoleAdmin))
	{
		waiter.POST("/orders", handlers.PlaceOrder)
		waiter.POST("/tables/:no/book", handlers.BookTable)
		waiter.POST("/tables/:no/release", handlers.ReleaseTable)
		waiter.POST("/payments", handlers.CreatePayment)
		waiter.GET("/orders/:id/payments", handlers.ListOrderPayments)
	}

	// ── Kitchen routes ─────────────────────────────────────────────
	kitchen := r.Group("/api")
	kitchen.Use(middleware.AuthRequired(), middleware.RoleRequired(models.RoleKitchen, models.RoleWaiter, models.RoleManager, models.RoleAdmin))
	{
		kitchen.PUT("/orders/:id/status", handlers.UpdateOrderStatus)
	}

	// ── Manager routes ─────────────────────────────────────────────
	manager := r.Group("/api")
	manager.Use(middleware.AuthRequired(), middleware.RoleRequired(models.RoleManager, models.RoleAdmin))
	{
		// Inventory management
		manager.POST("/ingredients", handlers.CreateIngredient)
		manager.GET("/ingredients", handlers.ListIngredients)
		manager.POST("/ingredients/:id/adjust", handlers.AdjustStock)
		manager.GET("/ingredients/transactions", handlers.ListStockTransactions)
		manager.GET("/ingredients/low-stock", handlers.LowStock)

		// Menu management
		manager.POST("/menu", handlers.AddMenuItem)
		manager.PUT("/menu/:id", handlers.UpdateMenuItem)

		// Floor management
		manager.POST("/tables", handlers.CreateTable)

		// Analytics
		manager.GET("/analytics/summary", handlers.GetDashboardSummary)
		manager.GET("/analytics/sales-by-item", handlers.GetSalesByItem)
	}
}
