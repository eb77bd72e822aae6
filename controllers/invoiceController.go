package controllers

import (
	"errors"

	"milkrun-backend/middlewares"
	"milkrun-backend/models"
	"milkrun-backend/services"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

type topUpDTO struct {
	Amount    float64 `json:"amount" validate:"required,gt=0"`
	Method    string  `json:"method" validate:"required,oneof=cash upi card"`
	Reference string  `json:"reference"`
}

type recordPaymentDTO struct {
	Amount    float64 `json:"amount" validate:"required,gt=0"`
	Method    string  `json:"method" validate:"required,oneof=cash upi card"`
	Reference string  `json:"reference"`
}

func GetInvoices(c *fiber.Ctx) error {
	var invoices []models.Invoice
	if err := middlewares.RequestDB(c).
		Where("user_id = ?", currentUserID(c)).
		Order("invoice_date desc").
		Find(&invoices).Error; err != nil {
		return err
	}
	return c.JSON(invoices)
}

func GetInvoice(c *fiber.Ctx) error {
	query := middlewares.RequestDB(c).Preload("Items")
	role, _ := c.Locals("role").(string)
	if role != models.RoleAdmin {
		query = query.Where("user_id = ?", currentUserID(c))
	}

	var invoice models.Invoice
	err := query.First(&invoice, "id = ?", c.Params("id")).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return services.ErrNotFound
	}
	if err != nil {
		return err
	}
	return c.JSON(invoice)
}

// GetLedger returns the caller's statement in sequence order, oldest first,
// so the running balance reads top to bottom.
func GetLedger(c *fiber.Ctx) error {
	var entries []models.LedgerEntry
	if err := middlewares.RequestDB(c).
		Where("user_id = ?", currentUserID(c)).
		Order("sequence asc").
		Find(&entries).Error; err != nil {
		return err
	}
	return c.JSON(entries)
}

// TopUpBalance adds prepaid credit for the caller.
func TopUpBalance(c *fiber.Ctx) error {
	var dto topUpDTO
	if err := middlewares.BindAndValidate(c, &dto); err != nil {
		return err
	}

	payment, err := Bill.TopUpBalance(currentUserID(c), dto.Amount, dto.Method, dto.Reference)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(payment)
}

// RecordInvoicePayment registers an offline payment against an invoice.
// Admin-only; agents collect cash, the office records it.
func RecordInvoicePayment(c *fiber.Ctx) error {
	var dto recordPaymentDTO
	if err := middlewares.BindAndValidate(c, &dto); err != nil {
		return err
	}

	payment, err := Bill.RecordPayment(c.Params("id"), dto.Amount, dto.Method, dto.Reference)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(payment)
}
