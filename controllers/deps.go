package controllers

import (
	"time"

	"milkrun-backend/config"
	"milkrun-backend/services"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// Shared service instances, wired once from main.
var (
	Cfg    config.Config
	Log    *zap.Logger
	OTP    *services.OTPService
	Gen    *services.RouteGenerator
	Bill   *services.Biller
	Exp    *services.Expander
	Status *services.StatusUpdater
)

// Init wires the controller package. Must run before routes are registered.
func Init(cfg config.Config, log *zap.Logger, otp *services.OTPService,
	gen *services.RouteGenerator, bill *services.Biller,
	exp *services.Expander, status *services.StatusUpdater,
) {
	Cfg = cfg
	Log = log
	OTP = otp
	Gen = gen
	Bill = bill
	Exp = exp
	Status = status
}

// parseDate reads a YYYY-MM-DD query/body value.
func parseDate(value string) (time.Time, error) {
	t, err := time.Parse("2006-01-02", value)
	if err != nil {
		return time.Time{}, fiber.NewError(fiber.StatusBadRequest, "invalid date, expected YYYY-MM-DD")
	}
	return t.UTC(), nil
}

// currentUserID pulls the authenticated subject set by the auth middleware.
func currentUserID(c *fiber.Ctx) string {
	id, _ := c.Locals("userID").(string)
	return id
}
