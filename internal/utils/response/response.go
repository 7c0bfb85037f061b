package response

import (
	"github.com/gofiber/fiber/v2"
)

func Success(c *fiber.Ctx, data interface{}) error {
	return c.JSON(fiber.Map{"data": data})
}

func Created(c *fiber.Ctx, data interface{}) error {
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"data": data})
}

func Error(c *fiber.Ctx, status int, code, message string) error {
	return c.Status(status).JSON(fiber.Map{
		"error": message,
		"code":  code,
	})
}

func BadRequest(c *fiber.Ctx, code, message string) error {
	return Error(c, fiber.StatusBadRequest, code, message)
}

func Conflict(c *fiber.Ctx, code, message string) error {
	return Error(c, fiber.StatusConflict, code, message)
}

func Unauthorized(c *fiber.Ctx) error {
	return Error(c, fiber.StatusUnauthorized, "UNAUTHORIZED", "invalid or missing api key")
}

func ServerError(c *fiber.Ctx, code, message string) error {
	return Error(c, fiber.StatusInternalServerError, code, message)
}
