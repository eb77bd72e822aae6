package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	DeliveryScheduled = "scheduled"
	DeliveryDelivered = "delivered"
	DeliveryFailed    = "failed"
)

// SubscriptionDelivery is one scheduled drop, materialized daily from
// subscriptions (and one-off orders). RouteId binds it to a generated route;
// InvoiceId is set exactly once when the delivery is billed.
type SubscriptionDelivery struct {
	Id             string  `json:"id" gorm:"primaryKey"`
	UserId         string  `json:"user_id" gorm:"not null;index"`
	SubscriptionId *string `json:"subscription_id" gorm:"index"`
	OrderId        *string `json:"order_id" gorm:"index"`
	AddressId      string  `json:"address_id" gorm:"not null"`
	ProductId      string  `json:"product_id" gorm:"not null"`
	ProductName    string  `json:"product_name"`
	Quantity       int     `json:"quantity"`
	UnitPrice      float64 `json:"unit_price" gorm:"type:numeric(12,2)"`
	LineTotal      float64 `json:"line_total" gorm:"type:numeric(12,2)"`

	DeliveryDate time.Time  `json:"delivery_date" gorm:"not null;index"`
	Status       string     `json:"status" gorm:"not null;default:scheduled;index"`
	DeliveredAt  *time.Time `json:"delivered_at"`

	RouteId   *string `json:"route_id" gorm:"index"`
	InvoiceId *string `json:"invoice_id" gorm:"index"` // at most one invoice ever claims a delivery

	CreatedAt time.Time `json:"created_at"`
}

func (delivery *SubscriptionDelivery) BeforeCreate(tx *gorm.DB) (err error) {
	// UUID version 4
	if delivery.Id == "" {
		delivery.Id = uuid.NewString()
	}
	return
}
