package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	PaymentTypeInvoice = "invoice_payment"
	PaymentTypeTopup   = "prepaid_topup"
)

const (
	PaymentPending   = "pending"
	PaymentCompleted = "completed"
	PaymentFailed    = "failed"
)

// Payment survives invoice lifecycle changes; linked to an invoice for
// invoice payments, standalone for prepaid top-ups.
type Payment struct {
	Id        string  `json:"id" gorm:"primaryKey"`
	UserId    string  `json:"user_id" gorm:"not null;index"`
	InvoiceId *string `json:"invoice_id" gorm:"index:idx_payments_invoice_paid_at,priority:1"`
	Amount    float64 `json:"amount" gorm:"type:numeric(12,2)"`
	Method    string  `json:"method"` // cash | upi | card | prepaid_balance
	Type      string  `json:"type" gorm:"not null"`
	Status    string  `json:"status" gorm:"not null;default:completed"`
	Reference string  `json:"reference"`

	PaidAt    time.Time `json:"paid_at" gorm:"index:idx_payments_invoice_paid_at,priority:2"`
	CreatedAt time.Time `json:"created_at"`
}

func (payment *Payment) BeforeCreate(tx *gorm.DB) (err error) {
	// UUID version 4
	if payment.Id == "" {
		payment.Id = uuid.NewString()
	}
	return
}
