package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	LedgerDebit  = "debit"  // increases the amount the user owes
	LedgerCredit = "credit" // decreases it
)

// LedgerEntry is append-only. RunningBalance is the prior entry's balance
// plus/minus Amount; replaying a user's entries in Sequence order must
// reproduce every stored balance, so entries are never updated or deleted.
type LedgerEntry struct {
	Id     string `json:"id" gorm:"primaryKey"`
	UserId string `json:"user_id" gorm:"not null;index:idx_ledger_user_created,priority:1;uniqueIndex:idx_ledger_user_seq,priority:1"`

	// Sequence is a per-user monotonic counter assigned at append time.
	// Timestamps can collide inside one transaction; the chain orders on
	// this, and the unique (user, sequence) index makes a concurrent
	// append conflict instead of forking the chain.
	Sequence int64 `json:"sequence" gorm:"not null;uniqueIndex:idx_ledger_user_seq,priority:2"`

	EntryType      string  `json:"entry_type" gorm:"not null"`
	Amount         float64 `json:"amount" gorm:"type:numeric(12,2)"`
	RunningBalance float64 `json:"running_balance" gorm:"type:numeric(12,2)"`

	Description     string  `json:"description"`
	ReferenceNumber string  `json:"reference_number" gorm:"uniqueIndex"`
	InvoiceId       *string `json:"invoice_id" gorm:"index"`
	PaymentId       *string `json:"payment_id"`
	OrderId         *string `json:"order_id"`

	CreatedAt time.Time `json:"created_at" gorm:"index:idx_ledger_user_created,priority:2"`
}

func (entry *LedgerEntry) BeforeCreate(tx *gorm.DB) (err error) {
	// UUID version 4
	if entry.Id == "" {
		entry.Id = uuid.NewString()
	}
	return
}
