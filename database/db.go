package database

import (
	"fmt"
	"os"

	"milkrun-backend/models"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

var DB *gorm.DB

// Connect opens the Postgres connection from DB_* env vars. main loads the
// optional .env file before this runs.
func Connect() {
	host := os.Getenv("DB_HOST")
	if host == "" {
		host = "db"
	}
	port := os.Getenv("DB_PORT")
	if port == "" {
		port = "5432"
	}

	dsn := fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=disable TimeZone=UTC",
		host, os.Getenv("DB_USER"), os.Getenv("DB_PASSWORD"), os.Getenv("DB_NAME"), port)

	var err error
	DB, err = gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		panic("Could not connect to database: " + err.Error())
	}
}

// AutoMigrate creates/updates all tables. Column hardening (money types,
// composite indexes, CHECK constraints) happens in Harden.
func AutoMigrate() {
	if err := DB.AutoMigrate(
		&models.User{},
		&models.Address{},
		&models.Product{},
		&models.Order{},
		&models.OrderItem{},
		&models.Subscription{},
		&models.SubscriptionDelivery{},
		&models.Route{},
		&models.RouteStop{},
		&models.Invoice{},
		&models.InvoiceItem{},
		&models.Payment{},
		&models.LedgerEntry{},
		&models.IdempotencyKey{},
	); err != nil {
		panic("automigrate failed: " + err.Error())
	}
}
