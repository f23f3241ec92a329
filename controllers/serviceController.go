package controllers

import (
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"

	"uhcare-backend/database"
	"uhcare-backend/middlewares"
	"uhcare-backend/models"
	"uhcare-backend/utils"
)

type createServiceDTO struct {
	Name        string          `json:"name" validate:"required"`
	Description string          `json:"description"`
	Category    string          `json:"category"`
	PriceMin    decimal.Decimal `json:"price_min"`
	PriceMax    decimal.Decimal `json:"price_max"`
}

func CreateService(c *fiber.Ctx) error {
	var data createServiceDTO
	if err := middlewares.BindAndValidate(c, &data); err != nil {
		return err
	}
	utils.NormalizeDTO(&data)

	if data.PriceMin.IsNegative() || data.PriceMax.LessThan(data.PriceMin) {
		return fiber.NewError(fiber.StatusBadRequest, "invalid price range")
	}

	tx, err := database.GetRequestDB(c)
	if err != nil {
		return err
	}

	service := models.Service{
		ProviderId:  currentUser(c),
		Name:        data.Name,
		Description: data.Description,
		Category:    data.Category,
		PriceMin:    data.PriceMin,
		PriceMax:    data.PriceMax,
		Active:      true,
	}
	if err := tx.Create(&service).Error; err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "could not create service")
	}
	return c.JSON(service)
}

func GetServices(c *fiber.Ctx) error {
	tx, err := database.GetRequestDB(c)
	if err != nil {
		return err
	}

	q := tx.Where("active = ?", true)
	if cat := c.Query("category"); cat != "" {
		q = q.Where("category = ?", cat)
	}

	var services []models.Service
	if err := q.Order("name").Find(&services).Error; err != nil {
		return err
	}
	return c.JSON(fiber.Map{"services": services})
}

type patchServiceDTO struct {
	Name        *string          `json:"name"`
	Description *string          `json:"description"`
	Category    *string          `json:"category"`
	PriceMin    *decimal.Decimal `json:"price_min"`
	PriceMax    *decimal.Decimal `json:"price_max"`
	Active      *bool            `json:"active"`
}

// UpdateService patches the provider's own service; only fields present in the
// body are written.
func UpdateService(c *fiber.Ctx) error {
	id, err := strconv.Atoi(c.Params("id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid service id")
	}

	var data patchServiceDTO
	if err := c.BodyParser(&data); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	utils.NormalizePtrDTO(&data)

	tx, err := database.GetRequestDB(c)
	if err != nil {
		return err
	}

	var service models.Service
	q := tx.Where("id = ?", id)
	if currentRole(c) != models.RoleStaff {
		q = q.Where("provider_id = ?", currentUser(c))
	}
	if err := q.First(&service).Error; err != nil {
		return err
	}

	updates := utils.UpdatesFromPtrDTO(&data, nil)
	if len(updates) == 0 {
		return c.JSON(service)
	}
	if err := tx.Model(&service).Updates(updates).Error; err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "could not update service")
	}
	return c.JSON(service)
}
