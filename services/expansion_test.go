package services

import (
	"strconv"
	"testing"
	"time"

	"milkrun-backend/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func newTestExpander(t *testing.T) *Expander {
	t.Helper()
	return &Expander{DB: newTestDB(t), Log: testLogger()}
}

func seedCatalogProduct(t *testing.T, db *gorm.DB, name string, price float64) models.Product {
	t.Helper()
	p := models.Product{Name: name, Unit: "1L", UnitPrice: price, Active: true}
	require.NoError(t, db.Create(&p).Error)
	return p
}

func TestExpandDeliveries(t *testing.T) {
	day := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC) // a Tuesday

	seedSubscription := func(t *testing.T, e *Expander, phone string, product models.Product, frequency string, weekday int, start time.Time) models.Subscription {
		user := models.User{Name: "Sub " + phone, Phone: phone, Active: true}
		require.NoError(t, e.DB.Create(&user).Error)
		sub := models.Subscription{
			UserId: user.Id, AddressId: "addr-1", ProductId: product.Id,
			Quantity: 2, Frequency: frequency, Weekday: weekday,
			BillingCycle: models.CycleMonthly, Status: models.SubscriptionActive,
			StartDate: start,
		}
		require.NoError(t, e.DB.Create(&sub).Error)
		return sub
	}

	t.Run("daily subscription materializes with a price snapshot", func(t *testing.T) {
		e := newTestExpander(t)
		product := seedCatalogProduct(t, e.DB, "Milk 1L", 32.5)
		sub := seedSubscription(t, e, "+912200000001", product, models.FrequencyDaily, 0, day.AddDate(0, 0, -10))

		created, err := e.ExpandDeliveries(day)
		require.NoError(t, err)
		assert.Equal(t, 1, created)

		var d models.SubscriptionDelivery
		require.NoError(t, e.DB.First(&d, "subscription_id = ?", sub.Id).Error)
		assert.True(t, d.DeliveryDate.Equal(day))
		assert.Equal(t, 2, d.Quantity)
		assert.Equal(t, 32.5, d.UnitPrice)
		assert.Equal(t, 65.0, d.LineTotal)
		assert.Equal(t, models.DeliveryScheduled, d.Status)
	})

	t.Run("frequencies gate which subscriptions are due", func(t *testing.T) {
		e := newTestExpander(t)
		product := seedCatalogProduct(t, e.DB, "Milk 1L", 30)

		seedSubscription(t, e, "+912200000010", product, models.FrequencyDaily, 0, day.AddDate(0, 0, -5))
		// Started 3 days before: odd offset, not due on day.
		seedSubscription(t, e, "+912200000011", product, models.FrequencyAlternateDays, 0, day.AddDate(0, 0, -3))
		// Started 4 days before: even offset, due.
		seedSubscription(t, e, "+912200000012", product, models.FrequencyAlternateDays, 0, day.AddDate(0, 0, -4))
		// Weekly on Tuesday: due. Weekly on Friday: not.
		seedSubscription(t, e, "+912200000013", product, models.FrequencyWeekly, int(time.Tuesday), day.AddDate(0, 0, -20))
		seedSubscription(t, e, "+912200000014", product, models.FrequencyWeekly, int(time.Friday), day.AddDate(0, 0, -20))

		created, err := e.ExpandDeliveries(day)
		require.NoError(t, err)
		assert.Equal(t, 3, created)
	})

	t.Run("paused and future subscriptions are skipped", func(t *testing.T) {
		e := newTestExpander(t)
		product := seedCatalogProduct(t, e.DB, "Milk 1L", 30)

		paused := seedSubscription(t, e, "+912200000020", product, models.FrequencyDaily, 0, day.AddDate(0, 0, -5))
		require.NoError(t, e.DB.Model(&models.Subscription{}).
			Where("id = ?", paused.Id).Update("status", models.SubscriptionPaused).Error)
		seedSubscription(t, e, "+912200000021", product, models.FrequencyDaily, 0, day.AddDate(0, 0, 5))

		created, err := e.ExpandDeliveries(day)
		require.NoError(t, err)
		assert.Zero(t, created)
	})

	t.Run("re-running creates nothing new", func(t *testing.T) {
		e := newTestExpander(t)
		product := seedCatalogProduct(t, e.DB, "Milk 1L", 30)
		seedSubscription(t, e, "+912200000030", product, models.FrequencyDaily, 0, day.AddDate(0, 0, -5))

		created, err := e.ExpandDeliveries(day)
		require.NoError(t, err)
		assert.Equal(t, 1, created)

		created, err = e.ExpandDeliveries(day)
		require.NoError(t, err)
		assert.Zero(t, created)

		var count int64
		require.NoError(t, e.DB.Model(&models.SubscriptionDelivery{}).Count(&count).Error)
		assert.EqualValues(t, 1, count)
	})

	t.Run("placed orders expand into deliveries once", func(t *testing.T) {
		e := newTestExpander(t)
		product := seedCatalogProduct(t, e.DB, "Paneer 500g", 120)

		user := models.User{Name: "Buyer", Phone: "+912200000040", Active: true}
		require.NoError(t, e.DB.Create(&user).Error)
		order := models.Order{
			UserId: user.Id, AddressId: "addr-1",
			Items: []models.OrderItem{{
				ProductId: product.Id, Quantity: 2, UnitPrice: 120, LineTotal: 240,
			}},
			Total: 240, Status: models.OrderStatusPlaced, DeliveryDate: day,
		}
		require.NoError(t, e.DB.Create(&order).Error)

		created, err := e.ExpandDeliveries(day)
		require.NoError(t, err)
		assert.Equal(t, 1, created)

		var d models.SubscriptionDelivery
		require.NoError(t, e.DB.First(&d, "order_id = ?", order.Id).Error)
		assert.Equal(t, 240.0, d.LineTotal)
		assert.Nil(t, d.SubscriptionId)

		created, err = e.ExpandDeliveries(day)
		require.NoError(t, err)
		assert.Zero(t, created)
	})
}

func TestCleanupOldRoutes(t *testing.T) {
	e := newTestExpander(t)
	asOf := time.Date(2026, 6, 1, 3, 0, 0, 0, time.UTC)

	mkRoute := func(daysAgo int, status string) models.Route {
		route := models.Route{
			AgentId: "agent-" + strconv.Itoa(daysAgo),
			Date:    asOf.AddDate(0, 0, -daysAgo),
			Status:  status,
		}
		require.NoError(t, e.DB.Create(&route).Error)
		stop := models.RouteStop{RouteId: route.Id, DeliveryId: "d", UserId: "u", Status: models.StopDelivered}
		require.NoError(t, e.DB.Create(&stop).Error)
		return route
	}

	old := mkRoute(120, models.RouteCompleted)
	oldPlanned := mkRoute(121, models.RoutePlanned)
	recent := mkRoute(10, models.RouteCompleted)

	n, err := e.CleanupOldRoutes(asOf, 90)
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)

	var count int64
	require.NoError(t, e.DB.Model(&models.Route{}).Count(&count).Error)
	assert.EqualValues(t, 2, count)

	require.Error(t, e.DB.First(&models.Route{}, "id = ?", old.Id).Error)
	require.NoError(t, e.DB.First(&models.Route{}, "id = ?", oldPlanned.Id).Error)
	require.NoError(t, e.DB.First(&models.Route{}, "id = ?", recent.Id).Error)

	// Stops went with the route.
	var stops int64
	require.NoError(t, e.DB.Model(&models.RouteStop{}).
		Where("route_id = ?", old.Id).Count(&stops).Error)
	assert.Zero(t, stops)
}
