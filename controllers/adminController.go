package controllers

import (
	"time"

	"milkrun-backend/middlewares"
	"milkrun-backend/models"

	"github.com/gofiber/fiber/v2"
)

// Manual triggers mirroring the scheduled jobs. Each calls the same
// underlying function the scheduler does, synchronously within the request.
// All sit behind the Idempotency middleware so a retried trigger replays
// its stored response instead of running twice.

type jobDateDTO struct {
	// Optional; defaults to tomorrow for expansion, now for the rest.
	Date string `json:"date"`
}

func TriggerExpandDeliveries(c *fiber.Ctx) error {
	var dto jobDateDTO
	_ = c.BodyParser(&dto)

	date := time.Now().UTC().AddDate(0, 0, 1)
	if dto.Date != "" {
		var err error
		if date, err = parseDate(dto.Date); err != nil {
			return err
		}
	}

	created, err := Exp.ExpandDeliveries(date)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"created": created, "date": date.Format("2006-01-02")})
}

func TriggerWeeklyInvoices(c *fiber.Ctx) error {
	results := Bill.GenerateWeeklyInvoices(time.Now().UTC())
	return c.JSON(fiber.Map{"generated": len(results), "invoices": results})
}

func TriggerMonthlyInvoices(c *fiber.Ctx) error {
	results := Bill.GenerateMonthlyInvoices(time.Now().UTC())
	return c.JSON(fiber.Map{"generated": len(results), "invoices": results})
}

func TriggerMarkOverdue(c *fiber.Ctx) error {
	marked, err := Bill.MarkOverdueInvoices(time.Now().UTC())
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"marked": marked})
}

func TriggerCleanup(c *fiber.Ctx) error {
	deleted, err := Exp.CleanupOldRoutes(time.Now().UTC(), Cfg.CleanupRetainDays)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"deleted_routes": deleted})
}

type createAgentDTO struct {
	Name     string `json:"name" validate:"required"`
	Email    string `json:"email" validate:"required,email"`
	Phone    string `json:"phone" validate:"required,min=10,max=15"`
	Password string `json:"password" validate:"required,min=8"`
}

// CreateAgent registers a delivery-agent account.
func CreateAgent(c *fiber.Ctx) error {
	var dto createAgentDTO
	if err := middlewares.BindAndValidate(c, &dto); err != nil {
		return err
	}

	agent := models.User{
		Name:   dto.Name,
		Email:  dto.Email,
		Phone:  dto.Phone,
		Role:   models.RoleDeliveryAgent,
		Active: true,
	}
	agent.SetPassword(dto.Password)
	if err := middlewares.RequestDB(c).Create(&agent).Error; err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(agent)
}
