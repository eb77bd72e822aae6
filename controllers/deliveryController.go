package controllers

import (
	"errors"

	"milkrun-backend/middlewares"
	"milkrun-backend/models"
	"milkrun-backend/services"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

type stopStatusDTO struct {
	Status string `json:"status" validate:"required,oneof=in_transit delivered missed"`
}

// GetAgentRoute returns the calling agent's route for a date with stops in
// visit order.
func GetAgentRoute(c *fiber.Ctx) error {
	date, err := parseDate(c.Query("date"))
	if err != nil {
		return err
	}

	var route models.Route
	err = middlewares.RequestDB(c).
		Preload("Stops", func(db *gorm.DB) *gorm.DB { return db.Order("sequence_index asc") }).
		First(&route, "agent_id = ? AND date = ?", currentUserID(c), date).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return services.ErrNotFound
	}
	if err != nil {
		return err
	}
	return c.JSON(route)
}

// UpdateStopStatus records a stop outcome. Only the agent owning the route
// may move its stops; transition rules live in the status service.
func UpdateStopStatus(c *fiber.Ctx) error {
	var dto stopStatusDTO
	if err := middlewares.BindAndValidate(c, &dto); err != nil {
		return err
	}

	stopID := c.Params("id")
	db := middlewares.RequestDB(c)

	// Ownership check before any mutation.
	var stop models.RouteStop
	if err := db.First(&stop, "id = ?", stopID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return services.ErrNotFound
		}
		return err
	}
	var route models.Route
	if err := db.First(&route, "id = ?", stop.RouteId).Error; err != nil {
		return err
	}
	if route.AgentId != currentUserID(c) {
		return fiber.NewError(fiber.StatusForbidden, "stop belongs to another agent's route")
	}

	updated, err := Status.UpdateStopStatus(stopID, dto.Status)
	if err != nil {
		return err
	}
	return c.JSON(updated)
}
