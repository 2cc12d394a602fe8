package config

import (
	"log"

	"restaurant-pos-api/models"

	"github.com/glebarez/sqlite"
	"github.com/spf13/viper"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type Config struct {
	Port          string
	DBPath        string
	JWTSecret     string
	WebhookSecret string
	AMQPURL       string
}

var (
	DB  *gorm.DB
	App *Config
)

// JWTSecret returns the token signing key as bytes
func JWTSecret() []byte { return []byte(App.JWTSecret) }

// Load reads configuration from .env / environment variables
func Load() *Config {
	viper.SetConfigFile(".env")
	viper.SetConfigType("env")
	viper.AddConfigPath(".")

	if err := viper.ReadInConfig(); err != nil {
		log.Printf("No .env file found, using environment variables: %v", err)
	}
	viper.AutomaticEnv()

	viper.SetDefault("PORT", "8080")
	viper.SetDefault("DB_PATH", "restaurant_pos.db")
	viper.SetDefault("JWT_SECRET", "restaurant_pos_super_secret_2024")

	App = &Config{
		Port:          viper.GetString("PORT"),
		DBPath:        viper.GetString("DB_PATH"),
		JWTSecret:     viper.GetString("JWT_SECRET"),
		WebhookSecret: viper.GetString("WEBHOOK_SECRET"),
		AMQPURL:       viper.GetString("AMQP_URL"),
	}
	return App
}

func InitDB() {
	var err error
	DB, err = gorm.Open(sqlite.Open(App.DBPath), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Warn),
		TranslateError: true,
	})
	if err != nil {
		log.Fatal("Failed to connect to database:", err)
	}

	// Auto-migrate all models
	err = DB.AutoMigrate(
		&models.User{},
		&models.Ingredient{},
		&models.StockTransaction{},
		&models.MenuItem{},
		&models.RecipeItem{},
		&models.Table{},
		&models.Order{},
		&models.OrderItem{},
		&models.Payment{},
		&models.WebhookEvent{},
	)
	if err != nil {
		log.Fatal("Failed to migrate database:", err)
	}

	log.Println("✅ Database connected and migrated successfully")
}
