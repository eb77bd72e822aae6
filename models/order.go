package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	OrderStatusPlaced    = "placed"
	OrderStatusDelivered = "delivered"
	OrderStatusCancelled = "cancelled"
)

// Order is a one-off purchase, delivered on DeliveryDate alongside
// subscription deliveries.
type Order struct {
	Id           string      `json:"id" gorm:"primaryKey"`
	UserId       string      `json:"user_id" gorm:"not null;index"`
	AddressId    string      `json:"address_id" gorm:"not null"`
	Items        []OrderItem `json:"items" gorm:"foreignKey:OrderId;constraint:OnDelete:CASCADE"`
	Total        float64     `json:"total" gorm:"type:numeric(12,2)"`
	Status       string      `json:"status" gorm:"not null;default:placed"`
	DeliveryDate time.Time   `json:"delivery_date" gorm:"index"`
	CreatedAt    time.Time   `json:"created_at"`
}

// OrderItem carries a price snapshot taken at order time so later catalog
// edits never change what was billed.
type OrderItem struct {
	Id        string  `json:"id" gorm:"primaryKey"`
	OrderId   string  `json:"-" gorm:"index"`
	ProductId string  `json:"product_id" gorm:"not null"`
	Quantity  int     `json:"quantity"`
	UnitPrice float64 `json:"unit_price" gorm:"type:numeric(12,2)"`
	LineTotal float64 `json:"line_total" gorm:"type:numeric(12,2)"`
}

func (order *Order) BeforeCreate(tx *gorm.DB) (err error) {
	// UUID version 4
	if order.Id == "" {
		order.Id = uuid.NewString()
	}
	return
}

func (item *OrderItem) BeforeCreate(tx *gorm.DB) (err error) {
	if item.Id == "" {
		item.Id = uuid.NewString()
	}
	return
}
