package services

import (
	"fmt"
	"strings"
	"time"

	"milkrun-backend/config"
	"milkrun-backend/models"
	"milkrun-backend/utils"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Biller generates invoices from delivered-but-unbilled deliveries and
// maintains the running-balance ledger.
type Biller struct {
	DB  *gorm.DB
	Cfg config.Config
	Log *zap.Logger
}

// Settlement describes what prepaid balance application did to a fresh
// invoice. A shortfall is an explicit outcome, not an error: the invoice
// stays partially unpaid and nothing follows up automatically.
type Settlement struct {
	Applied   float64 `json:"applied"`
	Shortfall float64 `json:"shortfall"`
	Settled   bool    `json:"settled"`
}

// InvoiceResult pairs a generated invoice with its prepaid settlement
// outcome (zero-valued for postpaid users).
type InvoiceResult struct {
	Invoice    *models.Invoice `json:"invoice"`
	Settlement Settlement      `json:"settlement"`
}

// GenerateInvoice bills one user for delivered, not-yet-invoiced deliveries
// inside [periodStart, periodEnd]. Returns (nil, nil) when nothing qualifies;
// that absence is the idempotency guard, since billed deliveries carry an
// invoice link and never qualify again. The whole unit runs in one
// transaction.
func (b *Biller) GenerateInvoice(userID string, periodStart, periodEnd time.Time, cycle string) (*InvoiceResult, error) {
	var result *InvoiceResult

	err := b.DB.Transaction(func(tx *gorm.DB) error {
		var deliveries []models.SubscriptionDelivery
		if err := tx.
			Where("user_id = ? AND status = ? AND invoice_id IS NULL", userID, models.DeliveryDelivered).
			Where("delivery_date >= ? AND delivery_date <= ?", periodStart, periodEnd).
			Order("delivery_date asc").
			Find(&deliveries).Error; err != nil {
			return err
		}
		if len(deliveries) == 0 {
			return nil
		}

		items := make([]models.InvoiceItem, 0, len(deliveries))
		subtotal := 0.0
		for _, d := range deliveries {
			items = append(items, models.InvoiceItem{
				DeliveryId:   d.Id,
				ProductName:  d.ProductName,
				Quantity:     d.Quantity,
				UnitPrice:    d.UnitPrice,
				LineTotal:    d.LineTotal,
				DeliveryDate: d.DeliveryDate,
			})
			subtotal += d.LineTotal
		}
		subtotal = utils.Round2(subtotal)
		tax := utils.Round2(subtotal * b.Cfg.TaxRate)
		total := utils.Round2(subtotal + tax)

		now := time.Now().UTC()
		dueDays := b.Cfg.MonthlyDueDays
		if cycle == models.CycleWeekly {
			dueDays = b.Cfg.WeeklyDueDays
		}

		invoice := models.Invoice{
			InvoiceNumber: newInvoiceNumber(now),
			UserId:        userID,
			PeriodStart:   periodStart,
			PeriodEnd:     periodEnd,
			Cycle:         cycle,
			Items:         items,
			Subtotal:      subtotal,
			Tax:           tax,
			Total:         total,
			Balance:       total,
			Status:        models.InvoiceSent,
			InvoiceDate:   now,
			DueDate:       now.AddDate(0, 0, dueDays),
		}
		if err := tx.Create(&invoice).Error; err != nil {
			return fmt.Errorf("create invoice: %w", err)
		}

		// Claim the deliveries. After this they never qualify again.
		ids := make([]string, len(deliveries))
		for i, d := range deliveries {
			ids[i] = d.Id
		}
		if err := tx.Model(&models.SubscriptionDelivery{}).
			Where("id IN ?", ids).
			Update("invoice_id", invoice.Id).Error; err != nil {
			return fmt.Errorf("link deliveries: %w", err)
		}

		if err := b.appendLedger(tx, userID, models.LedgerDebit, total,
			"Invoice "+invoice.InvoiceNumber, &invoice.Id, nil); err != nil {
			return err
		}

		settlement, err := b.settlePrepaid(tx, &invoice)
		if err != nil {
			return err
		}

		result = &InvoiceResult{Invoice: &invoice, Settlement: settlement}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// settlePrepaid applies the user's stored balance to the invoice. Full cover
// marks the invoice paid; partial cover zeroes the balance and leaves the
// shortfall outstanding with no automatic follow-up.
func (b *Biller) settlePrepaid(tx *gorm.DB, invoice *models.Invoice) (Settlement, error) {
	var user models.User
	if err := tx.First(&user, "id = ?", invoice.UserId).Error; err != nil {
		return Settlement{}, err
	}
	if user.PaymentMode != models.PaymentModePrepaid || user.PrepaidBalance <= 0 {
		return Settlement{Shortfall: invoice.Total}, nil
	}

	applied := invoice.Total
	settled := true
	if user.PrepaidBalance < invoice.Total {
		applied = user.PrepaidBalance
		settled = false
	}
	applied = utils.Round2(applied)

	newBalance := utils.Round2(user.PrepaidBalance - applied)
	if err := tx.Model(&models.User{}).Where("id = ?", user.Id).
		Update("prepaid_balance", newBalance).Error; err != nil {
		return Settlement{}, err
	}

	invoice.PaidAmount = applied
	invoice.Balance = utils.Round2(invoice.Total - applied)
	if settled {
		invoice.Status = models.InvoicePaid
	}
	if err := tx.Model(&models.Invoice{}).Where("id = ?", invoice.Id).
		Updates(map[string]any{
			"paid_amount": invoice.PaidAmount,
			"balance":     invoice.Balance,
			"status":      invoice.Status,
		}).Error; err != nil {
		return Settlement{}, err
	}

	payment := models.Payment{
		UserId:    user.Id,
		InvoiceId: &invoice.Id,
		Amount:    applied,
		Method:    "prepaid_balance",
		Type:      models.PaymentTypeInvoice,
		Status:    models.PaymentCompleted,
		PaidAt:    time.Now().UTC(),
	}
	if err := tx.Create(&payment).Error; err != nil {
		return Settlement{}, err
	}

	if err := b.appendLedger(tx, user.Id, models.LedgerCredit, applied,
		"Prepaid settlement for "+invoice.InvoiceNumber, &invoice.Id, &payment.Id); err != nil {
		return Settlement{}, err
	}

	return Settlement{
		Applied:   applied,
		Shortfall: invoice.Balance,
		Settled:   settled,
	}, nil
}

// RecordPayment registers an external payment (cash/upi/card) against an
// invoice and appends the matching credit entry.
func (b *Biller) RecordPayment(invoiceID string, amount float64, method, reference string) (*models.Payment, error) {
	var payment models.Payment

	err := b.DB.Transaction(func(tx *gorm.DB) error {
		var invoice models.Invoice
		if err := tx.First(&invoice, "id = ?", invoiceID).Error; err != nil {
			if err == gorm.ErrRecordNotFound {
				return ErrNotFound
			}
			return err
		}

		amount = utils.Round2(amount)
		invoice.PaidAmount = utils.Round2(invoice.PaidAmount + amount)
		invoice.Balance = utils.Round2(invoice.Balance - amount)
		if invoice.Balance <= 0 {
			invoice.Status = models.InvoicePaid
		}
		if err := tx.Model(&models.Invoice{}).Where("id = ?", invoice.Id).
			Updates(map[string]any{
				"paid_amount": invoice.PaidAmount,
				"balance":     invoice.Balance,
				"status":      invoice.Status,
			}).Error; err != nil {
			return err
		}

		payment = models.Payment{
			UserId:    invoice.UserId,
			InvoiceId: &invoice.Id,
			Amount:    amount,
			Method:    method,
			Type:      models.PaymentTypeInvoice,
			Status:    models.PaymentCompleted,
			Reference: reference,
			PaidAt:    time.Now().UTC(),
		}
		if err := tx.Create(&payment).Error; err != nil {
			return err
		}

		return b.appendLedger(tx, invoice.UserId, models.LedgerCredit, amount,
			"Payment for "+invoice.InvoiceNumber, &invoice.Id, &payment.Id)
	})
	if err != nil {
		return nil, err
	}
	return &payment, nil
}

// TopUpBalance adds prepaid credit to a user and records both the payment
// and the credit ledger entry.
func (b *Biller) TopUpBalance(userID string, amount float64, method, reference string) (*models.Payment, error) {
	var payment models.Payment

	err := b.DB.Transaction(func(tx *gorm.DB) error {
		var user models.User
		if err := tx.First(&user, "id = ?", userID).Error; err != nil {
			if err == gorm.ErrRecordNotFound {
				return ErrNotFound
			}
			return err
		}

		amount = utils.Round2(amount)
		if err := tx.Model(&models.User{}).Where("id = ?", userID).
			Update("prepaid_balance", utils.Round2(user.PrepaidBalance+amount)).Error; err != nil {
			return err
		}

		payment = models.Payment{
			UserId:    userID,
			Amount:    amount,
			Method:    method,
			Type:      models.PaymentTypeTopup,
			Status:    models.PaymentCompleted,
			Reference: reference,
			PaidAt:    time.Now().UTC(),
		}
		if err := tx.Create(&payment).Error; err != nil {
			return err
		}

		return b.appendLedger(tx, userID, models.LedgerCredit, amount,
			"Prepaid balance top-up", nil, &payment.Id)
	})
	if err != nil {
		return nil, err
	}
	return &payment, nil
}

// GenerateWeeklyInvoices bills every user holding an active weekly-cycle
// subscription for the 7 days ending yesterday (relative to asOf). One
// user's failure is logged and skipped; the batch continues.
func (b *Biller) GenerateWeeklyInvoices(asOf time.Time) []InvoiceResult {
	end := asOf.Truncate(24 * time.Hour).Add(-time.Nanosecond)
	start := asOf.Truncate(24 * time.Hour).AddDate(0, 0, -7)
	return b.generateBatch(models.CycleWeekly, start, end)
}

// GenerateMonthlyInvoices bills monthly-cycle subscribers for the previous
// calendar month.
func (b *Biller) GenerateMonthlyInvoices(asOf time.Time) []InvoiceResult {
	firstOfThis := time.Date(asOf.Year(), asOf.Month(), 1, 0, 0, 0, 0, time.UTC)
	start := firstOfThis.AddDate(0, -1, 0)
	end := firstOfThis.Add(-time.Nanosecond)
	return b.generateBatch(models.CycleMonthly, start, end)
}

func (b *Biller) generateBatch(cycle string, periodStart, periodEnd time.Time) []InvoiceResult {
	var userIDs []string
	if err := b.DB.Model(&models.Subscription{}).
		Where("billing_cycle = ? AND status = ?", cycle, models.SubscriptionActive).
		Distinct("user_id").
		Pluck("user_id", &userIDs).Error; err != nil {
		b.Log.Error("invoice batch: listing subscribers failed",
			zap.String("cycle", cycle), zap.Error(err))
		return nil
	}

	var results []InvoiceResult
	for _, uid := range userIDs {
		res, err := b.GenerateInvoice(uid, periodStart, periodEnd, cycle)
		if err != nil {
			// Partial-failure isolation: this user is skipped, the rest
			// of the batch proceeds.
			b.Log.Error("invoice generation failed",
				zap.String("user_id", uid), zap.String("cycle", cycle), zap.Error(err))
			continue
		}
		if res != nil {
			results = append(results, *res)
		}
	}
	b.Log.Info("invoice batch finished",
		zap.String("cycle", cycle), zap.Int("invoices", len(results)))
	return results
}

// MarkOverdueInvoices flips sent invoices past their due date to overdue.
func (b *Biller) MarkOverdueInvoices(asOf time.Time) (int64, error) {
	res := b.DB.Model(&models.Invoice{}).
		Where("status = ? AND due_date < ?", models.InvoiceSent, asOf).
		Update("status", models.InvoiceOverdue)
	return res.RowsAffected, res.Error
}

// appendLedger writes the next ledger entry for a user. The running balance
// chains off the highest-sequence entry; debits increase what the user owes,
// credits decrease it. Must run inside the caller's transaction so the
// read-back and the append are atomic.
func (b *Biller) appendLedger(tx *gorm.DB, userID, entryType string, amount float64, description string, invoiceID, paymentID *string) error {
	var last models.LedgerEntry
	prior := 0.0
	seq := int64(1)
	err := tx.Where("user_id = ?", userID).
		Order("sequence desc").
		First(&last).Error
	if err == nil {
		prior = last.RunningBalance
		seq = last.Sequence + 1
	} else if err != gorm.ErrRecordNotFound {
		return err
	}

	running := prior + amount
	if entryType == models.LedgerCredit {
		running = prior - amount
	}

	entry := models.LedgerEntry{
		UserId:          userID,
		Sequence:        seq,
		EntryType:       entryType,
		Amount:          utils.Round2(amount),
		RunningBalance:  utils.Round2(running),
		Description:     description,
		ReferenceNumber: newLedgerReference(),
		InvoiceId:       invoiceID,
		PaymentId:       paymentID,
		CreatedAt:       time.Now().UTC(),
	}
	if err := tx.Create(&entry).Error; err != nil {
		return fmt.Errorf("append ledger entry: %w", err)
	}
	return nil
}

func newInvoiceNumber(now time.Time) string {
	suffix := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:8])
	return "INV-" + now.Format("20060102") + "-" + suffix
}

func newLedgerReference() string {
	return "LED-" + strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:12])
}
