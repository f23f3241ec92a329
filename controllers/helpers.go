package controllers

import "github.com/gofiber/fiber/v2"

func currentUser(c *fiber.Ctx) string {
	id, _ := c.Locals("userID").(string)
	return id
}

func currentRole(c *fiber.Ctx) string {
	role, _ := c.Locals("role").(string)
	return role
}
