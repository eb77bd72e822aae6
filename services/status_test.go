package services

import (
	"testing"
	"time"

	"milkrun-backend/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCanTransitionStop(t *testing.T) {
	cases := []struct {
		from, to string
		ok       bool
	}{
		{models.StopPending, models.StopInTransit, true},
		{models.StopInTransit, models.StopDelivered, true},
		{models.StopInTransit, models.StopMissed, true},
		{models.StopPending, models.StopDelivered, false},
		{models.StopDelivered, models.StopInTransit, false},
		{models.StopMissed, models.StopPending, false},
		{models.StopDelivered, models.StopMissed, false},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.ok, CanTransitionStop(tc.from, tc.to), "%s -> %s", tc.from, tc.to)
	}
}

func TestUpdateStopStatus(t *testing.T) {
	day := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)

	setup := func(t *testing.T) (*StatusUpdater, models.Route, []models.RouteStop, []models.SubscriptionDelivery) {
		db := newTestDB(t)
		updater := &StatusUpdater{DB: db, Log: testLogger()}

		user := models.User{Name: "Asha", Phone: "+911234500001"}
		require.NoError(t, db.Create(&user).Error)

		route := models.Route{AgentId: "agent-1", Date: day, Status: models.RoutePlanned}
		require.NoError(t, db.Create(&route).Error)

		deliveries := make([]models.SubscriptionDelivery, 2)
		stops := make([]models.RouteStop, 2)
		for i := range deliveries {
			deliveries[i] = models.SubscriptionDelivery{
				UserId:       user.Id,
				AddressId:    "addr-1",
				ProductId:    "prod-1",
				ProductName:  "Milk 1L",
				Quantity:     1,
				UnitPrice:    30,
				LineTotal:    30,
				DeliveryDate: day,
				Status:       models.DeliveryScheduled,
				RouteId:      &route.Id,
			}
			require.NoError(t, db.Create(&deliveries[i]).Error)

			stops[i] = models.RouteStop{
				RouteId:       route.Id,
				DeliveryId:    deliveries[i].Id,
				UserId:        user.Id,
				SequenceIndex: i,
				Status:        models.StopPending,
			}
			require.NoError(t, db.Create(&stops[i]).Error)
		}
		return updater, route, stops, deliveries
	}

	t.Run("in_transit stamps arrival and starts the route", func(t *testing.T) {
		updater, route, stops, _ := setup(t)

		got, err := updater.UpdateStopStatus(stops[0].Id, models.StopInTransit)
		require.NoError(t, err)
		assert.Equal(t, models.StopInTransit, got.Status)
		require.NotNil(t, got.ArrivedAt)

		var r models.Route
		require.NoError(t, updater.DB.First(&r, "id = ?", route.Id).Error)
		assert.Equal(t, models.RouteInProgress, r.Status)
	})

	t.Run("delivered syncs the delivery record", func(t *testing.T) {
		updater, _, stops, deliveries := setup(t)

		_, err := updater.UpdateStopStatus(stops[0].Id, models.StopInTransit)
		require.NoError(t, err)
		got, err := updater.UpdateStopStatus(stops[0].Id, models.StopDelivered)
		require.NoError(t, err)
		require.NotNil(t, got.DeliveredAt)

		var d models.SubscriptionDelivery
		require.NoError(t, updater.DB.First(&d, "id = ?", deliveries[0].Id).Error)
		assert.Equal(t, models.DeliveryDelivered, d.Status)
		require.NotNil(t, d.DeliveredAt)
	})

	t.Run("missed marks the delivery failed", func(t *testing.T) {
		updater, _, stops, deliveries := setup(t)

		_, err := updater.UpdateStopStatus(stops[0].Id, models.StopInTransit)
		require.NoError(t, err)
		_, err = updater.UpdateStopStatus(stops[0].Id, models.StopMissed)
		require.NoError(t, err)

		var d models.SubscriptionDelivery
		require.NoError(t, updater.DB.First(&d, "id = ?", deliveries[0].Id).Error)
		assert.Equal(t, models.DeliveryFailed, d.Status)
		assert.Nil(t, d.DeliveredAt)
	})

	t.Run("route completes when every stop is terminal", func(t *testing.T) {
		updater, route, stops, _ := setup(t)

		for _, stop := range stops {
			_, err := updater.UpdateStopStatus(stop.Id, models.StopInTransit)
			require.NoError(t, err)
		}
		_, err := updater.UpdateStopStatus(stops[0].Id, models.StopDelivered)
		require.NoError(t, err)

		var r models.Route
		require.NoError(t, updater.DB.First(&r, "id = ?", route.Id).Error)
		assert.Equal(t, models.RouteInProgress, r.Status)

		_, err = updater.UpdateStopStatus(stops[1].Id, models.StopMissed)
		require.NoError(t, err)
		require.NoError(t, updater.DB.First(&r, "id = ?", route.Id).Error)
		assert.Equal(t, models.RouteCompleted, r.Status)
	})

	t.Run("invalid transition is rejected", func(t *testing.T) {
		updater, _, stops, deliveries := setup(t)

		_, err := updater.UpdateStopStatus(stops[0].Id, models.StopDelivered)
		assert.ErrorIs(t, err, ErrInvalidTransition)

		// Nothing changed.
		var d models.SubscriptionDelivery
		require.NoError(t, updater.DB.First(&d, "id = ?", deliveries[0].Id).Error)
		assert.Equal(t, models.DeliveryScheduled, d.Status)
	})

	t.Run("unknown stop", func(t *testing.T) {
		updater, _, _, _ := setup(t)
		_, err := updater.UpdateStopStatus("no-such-stop", models.StopInTransit)
		assert.ErrorIs(t, err, ErrNotFound)
	})
}
