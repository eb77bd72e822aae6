package services

import (
	"testing"

	"milkrun-backend/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// newTestDB opens a private in-memory sqlite database and migrates the
// schema. Each call gets its own database, so tests never share state.
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := "file:" + uuid.NewString() + "?mode=memory&cache=shared"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)

	require.NoError(t, db.AutoMigrate(
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
	))
	return db
}

func testLogger() *zap.Logger {
	return zap.NewNop()
}

func ptrFloat(v float64) *float64 { return &v }
