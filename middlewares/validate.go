package middlewares

import (
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

var validate = validator.New()

// BindAndValidate parses the JSON body into dst and runs its validation
// tags. A parse failure is a 400; rule failures come back as
// validator.ValidationErrors, which the central error handler renders as
// 422 with per-field tags.
func BindAndValidate(c *fiber.Ctx, dst interface{}) error {
	if err := c.BodyParser(dst); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	// Slice fields are not validated element-wise here; handlers taking
	// item lists (order creation) run ValidateStruct per element.
	return validate.Struct(dst)
}

// ValidateStruct runs the shared validator over a single value.
func ValidateStruct(v interface{}) error {
	return validate.Struct(v)
}
