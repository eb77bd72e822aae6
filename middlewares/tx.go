package middlewares

import (
	"log"

	"milkrun-backend/database"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

// RequestTx opens a per-request DB transaction for mutating verbs so a
// handler's multi-row writes commit or roll back as one unit. Read verbs
// pass through on the shared connection. Run AFTER IsAuthenticated and
// AFTER Idempotency (so idempotency records aren't tied to the handler TX).
func RequestTx() fiber.Handler {
	return func(c *fiber.Ctx) (err error) {
		switch c.Method() {
		case fiber.MethodPost, fiber.MethodPut, fiber.MethodPatch, fiber.MethodDelete:
		default:
			return c.Next()
		}

		tx := database.DB.Begin()
		if tx.Error != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "failed to begin transaction")
		}

		// Ensure we always cleanup.
		defer func() {
			if r := recover(); r != nil {
				_ = tx.Rollback()
				panic(r) // re-panic after rollback so Fiber's handler can catch
			}
			if err != nil {
				_ = tx.Rollback()
				return
			}
			if e := tx.Commit().Error; e != nil {
				log.Printf("tx commit failed: %v", e)
				err = fiber.NewError(fiber.StatusInternalServerError, "transaction commit failed")
			}
		}()

		// Make the TX available to handlers via RequestDB(c).
		c.Locals("tx", tx)

		err = c.Next()
		return err
	}
}

// RequestDB returns the per-request transaction when one exists, else the
// shared connection.
func RequestDB(c *fiber.Ctx) *gorm.DB {
	if v := c.Locals("tx"); v != nil {
		if tx, ok := v.(*gorm.DB); ok && tx != nil {
			return tx
		}
	}
	return database.DB
}
