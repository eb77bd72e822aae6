package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	FrequencyDaily         = "daily"
	FrequencyAlternateDays = "alternate_days"
	FrequencyWeekly        = "weekly"
)

const (
	CycleWeekly  = "weekly"
	CycleMonthly = "monthly"
)

const (
	SubscriptionActive    = "active"
	SubscriptionPaused    = "paused"
	SubscriptionCancelled = "cancelled"
)

type Subscription struct {
	Id        string `json:"id" gorm:"primaryKey"`
	UserId    string `json:"user_id" gorm:"not null;index"`
	AddressId string `json:"address_id" gorm:"not null"`
	ProductId string `json:"product_id" gorm:"not null"`
	Quantity  int    `json:"quantity" gorm:"not null"`

	// daily | alternate_days | weekly; Weekday applies to weekly only.
	Frequency string `json:"frequency" gorm:"not null"`
	Weekday   int    `json:"weekday"` // 0=Sunday, per time.Weekday

	BillingCycle string    `json:"billing_cycle" gorm:"not null;index"` // weekly | monthly
	Status       string    `json:"status" gorm:"not null;default:active;index"`
	StartDate    time.Time `json:"start_date"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (subscription *Subscription) BeforeCreate(tx *gorm.DB) (err error) {
	// UUID version 4
	if subscription.Id == "" {
		subscription.Id = uuid.NewString()
	}
	return
}

// DueOn reports whether the subscription produces a delivery on the given
// date. Alternate-day parity is anchored to StartDate.
func (subscription *Subscription) DueOn(date time.Time) bool {
	if subscription.Status != SubscriptionActive {
		return false
	}
	day := date.Truncate(24 * time.Hour)
	start := subscription.StartDate.Truncate(24 * time.Hour)
	if day.Before(start) {
		return false
	}
	switch subscription.Frequency {
	case FrequencyDaily:
		return true
	case FrequencyAlternateDays:
		days := int(day.Sub(start).Hours() / 24)
		return days%2 == 0
	case FrequencyWeekly:
		return int(date.Weekday()) == subscription.Weekday
	}
	return false
}
