package main

import (
	"log"
	"log/slog"
	"net/http"
	"os"
	"time"

	"restaurant-pos-api/config"
	"restaurant-pos-api/handlers"
	"restaurant-pos-api/notify"
	"restaurant-pos-api/orders"
	"restaurant-pos-api/payments"
	"restaurant-pos-api/recipe"
	"restaurant-pos-api/routes"
	"restaurant-pos-api/stock"
	"restaurant-pos-api/tables"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

func main() {
	// Set Gin mode
	mode := os.Getenv("GIN_MODE")
	if mode == "" {
		gin.SetMode(gin.DebugMode)
	}

	// Load configuration and initialize database
	cfg := config.Load()
	config.InitDB()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	// Notification sink: broker-backed when configured, log otherwise.
	// Bound once here and injected; lives for the process lifetime.
	var notifier notify.Notifier
	if cfg.AMQPURL != "" {
		amqpNotifier, err := notify.NewAMQPNotifier(cfg.AMQPURL, logger)
		if err != nil {
			log.Fatal("Failed to connect to notification broker:", err)
		}
		defer amqpNotifier.Close()
		notifier = amqpNotifier
	} else {
		notifier = notify.NewLogNotifier(logger)
	}

	// Wire domain services
	ledger := stock.NewLedger(config.DB)
	resolver := recipe.NewResolver(config.DB)
	tableMachine := tables.NewMachine(config.DB, logger)
	orderService := orders.NewService(config.DB, ledger, resolver, tableMachine, notifier, logger)
	paymentService := payments.NewService(config.DB, cfg.WebhookSecret, logger)
	handlers.Init(ledger, resolver, tableMachine, orderService, paymentService)

	// Create Gin router with default middleware (logger + recovery)
	r := gin.Default()

	// CORS middleware for frontend integration
	r.Use(cors.New(cors.Config{
		AllowAllOrigins:  true,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", "X-Webhook-Signature"},
		AllowCredentials: false,
		MaxAge:           12 * time.Hour,
	}))

	// Health check endpoint
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "healthy",
			"service": "Restaurant POS API",
			"version": "1.0.0",
		})
	})

	// Welcome
	r.GET("/", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"message": "🍽️ Welcome to the Restaurant POS API",
			"docs":    "/api/state-machine",
			"health":  "/health",
			"roles":   []string{"waiter", "kitchen", "manager", "admin"},
		})
	})

	// Register all routes
	routes.SetupRoutes(r)

	// Start server
	log.Printf("🚀 Server running on http://localhost:%s", cfg.Port)
	if err := r.Run(":" + cfg.Port); err != nil {
		log.Fatal("Failed to start server:", err)
	}
}
