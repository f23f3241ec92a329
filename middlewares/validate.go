package middlewares

import (
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

// One shared instance; validator caches struct metadata per type.
var validate = validator.New()

// BindAndValidate parses the JSON body into dst and checks its validate tags.
// Parse failures surface as 400; validator.ValidationErrors flow through to
// the central ErrorHandler, which renders them as 422 with per-field tags.
func BindAndValidate(c *fiber.Ctx, dst any) error {
	if err := c.BodyParser(dst); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	return validate.Struct(dst)
}

// ValidateStruct checks a single value against its validate tags. Controllers
// with slice DTOs (pharmacy checkout items) call this per element.
func ValidateStruct(v any) error {
	return validate.Struct(v)
}
