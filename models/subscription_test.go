package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestSubscriptionDueOn(t *testing.T) {
	start := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC) // a Monday

	t.Run("daily", func(t *testing.T) {
		sub := Subscription{Frequency: FrequencyDaily, Status: SubscriptionActive, StartDate: start}
		assert.True(t, sub.DueOn(start))
		assert.True(t, sub.DueOn(start.AddDate(0, 0, 1)))
		assert.True(t, sub.DueOn(start.AddDate(0, 0, 17)))
	})

	t.Run("alternate days anchor to the start date", func(t *testing.T) {
		sub := Subscription{Frequency: FrequencyAlternateDays, Status: SubscriptionActive, StartDate: start}
		assert.True(t, sub.DueOn(start))
		assert.False(t, sub.DueOn(start.AddDate(0, 0, 1)))
		assert.True(t, sub.DueOn(start.AddDate(0, 0, 2)))
		assert.False(t, sub.DueOn(start.AddDate(0, 0, 3)))
		assert.True(t, sub.DueOn(start.AddDate(0, 0, 10)))
	})

	t.Run("weekly on the configured weekday", func(t *testing.T) {
		sub := Subscription{
			Frequency: FrequencyWeekly, Weekday: int(time.Thursday),
			Status: SubscriptionActive, StartDate: start,
		}
		assert.False(t, sub.DueOn(start))                  // Monday
		assert.True(t, sub.DueOn(start.AddDate(0, 0, 3)))  // Thursday
		assert.True(t, sub.DueOn(start.AddDate(0, 0, 10))) // next Thursday
		assert.False(t, sub.DueOn(start.AddDate(0, 0, 4)))
	})

	t.Run("never before the start date", func(t *testing.T) {
		sub := Subscription{Frequency: FrequencyDaily, Status: SubscriptionActive, StartDate: start}
		assert.False(t, sub.DueOn(start.AddDate(0, 0, -1)))
	})

	t.Run("only active subscriptions are due", func(t *testing.T) {
		for _, status := range []string{SubscriptionPaused, SubscriptionCancelled} {
			sub := Subscription{Frequency: FrequencyDaily, Status: status, StartDate: start}
			assert.False(t, sub.DueOn(start), status)
		}
	})
}
