package controllers

import (
	"milkrun-backend/middlewares"
	"milkrun-backend/models"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

type generateRoutesDTO struct {
	Date string `json:"date" validate:"required"`
}

// GenerateRoutes builds routes for a date. Fails with 409 when the date is
// already routed and 422 when no active agents exist; the response carries
// the unrouted/ungeocoded counts so dropped deliveries are visible.
func GenerateRoutes(c *fiber.Ctx) error {
	var dto generateRoutesDTO
	if err := middlewares.BindAndValidate(c, &dto); err != nil {
		return err
	}
	date, err := parseDate(dto.Date)
	if err != nil {
		return err
	}

	result, err := Gen.GenerateRoutes(date)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(result)
}

// GetRoutes lists a day's routes with ordered stops.
func GetRoutes(c *fiber.Ctx) error {
	date, err := parseDate(c.Query("date"))
	if err != nil {
		return err
	}

	var routes []models.Route
	if err := middlewares.RequestDB(c).
		Preload("Stops", func(db *gorm.DB) *gorm.DB { return db.Order("sequence_index asc") }).
		Where("date = ?", date).
		Find(&routes).Error; err != nil {
		return err
	}
	return c.JSON(routes)
}

// DeleteRoutes removes a day's routes and unbinds their deliveries so the
// date can be regenerated. Stops cascade with the routes.
func DeleteRoutes(c *fiber.Ctx) error {
	date, err := parseDate(c.Query("date"))
	if err != nil {
		return err
	}

	db := middlewares.RequestDB(c)

	var ids []string
	if err := db.Model(&models.Route{}).Where("date = ?", date).Pluck("id", &ids).Error; err != nil {
		return err
	}
	if len(ids) == 0 {
		return c.JSON(fiber.Map{"deleted": 0})
	}

	if err := db.Model(&models.SubscriptionDelivery{}).
		Where("route_id IN ?", ids).
		Update("route_id", nil).Error; err != nil {
		return err
	}
	if err := db.Where("route_id IN ?", ids).Delete(&models.RouteStop{}).Error; err != nil {
		return err
	}
	if err := db.Where("id IN ?", ids).Delete(&models.Route{}).Error; err != nil {
		return err
	}
	return c.JSON(fiber.Map{"deleted": len(ids)})
}
