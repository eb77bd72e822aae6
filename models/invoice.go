package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	InvoiceDraft     = "draft"
	InvoiceSent      = "sent"
	InvoicePaid      = "paid"
	InvoiceOverdue   = "overdue"
	InvoiceCancelled = "cancelled"
)

// Invoice bills one user for one period. It does not own the deliveries it
// covers; they point back via SubscriptionDelivery.InvoiceId.
type Invoice struct {
	Id            string `json:"id" gorm:"primaryKey"`
	InvoiceNumber string `json:"invoice_number" gorm:"uniqueIndex"`
	UserId        string `json:"user_id" gorm:"not null;index"`

	PeriodStart time.Time `json:"period_start"`
	PeriodEnd   time.Time `json:"period_end"`
	Cycle       string    `json:"cycle"` // weekly | monthly

	Items []InvoiceItem `json:"items" gorm:"foreignKey:InvoiceId;constraint:OnDelete:CASCADE"`

	Subtotal   float64 `json:"subtotal" gorm:"type:numeric(12,2)"`
	Tax        float64 `json:"tax" gorm:"type:numeric(12,2)"`
	Total      float64 `json:"total" gorm:"type:numeric(12,2)"`
	PaidAmount float64 `json:"paid_amount" gorm:"type:numeric(12,2)"`
	Balance    float64 `json:"balance" gorm:"type:numeric(12,2)"`

	Status      string    `json:"status" gorm:"not null;default:draft;index"`
	InvoiceDate time.Time `json:"invoice_date"`
	DueDate     time.Time `json:"due_date" gorm:"index"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type InvoiceItem struct {
	Id        string `json:"id" gorm:"primaryKey"`
	InvoiceId string `json:"-" gorm:"index"`

	DeliveryId   string    `json:"delivery_id" gorm:"not null"`
	ProductName  string    `json:"product_name"`
	Quantity     int       `json:"quantity"`
	UnitPrice    float64   `json:"unit_price" gorm:"type:numeric(12,2)"`
	LineTotal    float64   `json:"line_total" gorm:"type:numeric(12,2)"`
	DeliveryDate time.Time `json:"delivery_date"`
}

func (invoice *Invoice) BeforeCreate(tx *gorm.DB) (err error) {
	// UUID version 4
	if invoice.Id == "" {
		invoice.Id = uuid.NewString()
	}
	return
}

func (item *InvoiceItem) BeforeCreate(tx *gorm.DB) (err error) {
	if item.Id == "" {
		item.Id = uuid.NewString()
	}
	return
}
