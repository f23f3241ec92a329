package controllers

import (
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"uhcare-backend/database"
	"uhcare-backend/ledger"
	"uhcare-backend/middlewares"
	"uhcare-backend/models"
)

func GetEquipment(c *fiber.Ctx) error {
	tx, err := database.GetRequestDB(c)
	if err != nil {
		return err
	}

	q := tx.Where("active = ? AND available_units > 0", true)
	if cat := c.Query("category"); cat != "" {
		q = q.Where("category = ?", cat)
	}

	var equipment []models.Equipment
	if err := q.Order("name").Find(&equipment).Error; err != nil {
		return err
	}
	return c.JSON(fiber.Map{"equipment": equipment})
}

func loadEquipment(tx *gorm.DB, id int) (*models.Equipment, error) {
	var eq models.Equipment
	if err := tx.Where("id = ? AND active = ?", id, true).First(&eq).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, fiber.NewError(fiber.StatusNotFound, "equipment not found")
		}
		return nil, err
	}
	return &eq, nil
}

// decrementUnits reserves quantity units or fails the request (and therefore
// the whole transaction) when availability ran out.
func decrementUnits(tx *gorm.DB, equipmentID uint, quantity int) error {
	res := tx.Model(&models.Equipment{}).
		Where("id = ? AND available_units >= ?", equipmentID, quantity).
		Update("available_units", gorm.Expr("available_units - ?", quantity))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return fiber.NewError(fiber.StatusConflict, "not enough units available")
	}
	return nil
}

func restoreUnits(tx *gorm.DB, equipmentID uint, quantity int) error {
	return tx.Model(&models.Equipment{}).
		Where("id = ?", equipmentID).
		Update("available_units", gorm.Expr("available_units + ?", quantity)).Error
}

// rentalPrice computes the rental charge for the period type over the booked
// date range, rounding partial weeks/months up.
func rentalPrice(eq *models.Equipment, period string, days, quantity int) decimal.Decimal {
	qty := decimal.NewFromInt(int64(quantity))
	switch period {
	case models.RentalPeriodWeekly:
		weeks := (days + 6) / 7
		return eq.RentPriceWeekly.Mul(decimal.NewFromInt(int64(weeks))).Mul(qty)
	case models.RentalPeriodMonthly:
		months := (days + 29) / 30
		return eq.RentPriceMonthly.Mul(decimal.NewFromInt(int64(months))).Mul(qty)
	default:
		return eq.PricePerDay.Mul(decimal.NewFromInt(int64(days))).Mul(qty)
	}
}

type rentEquipmentDTO struct {
	RentalPeriod    string          `json:"rental_period" validate:"required,oneof=daily weekly monthly"`
	Quantity        int             `json:"quantity" validate:"required,gt=0"`
	StartDate       string          `json:"start_date" validate:"required"`
	EndDate         string          `json:"end_date" validate:"required"`
	DeliveryAddress string          `json:"delivery_address" validate:"required"`
	DeliveryPhone   string          `json:"delivery_phone" validate:"required"`
	CustomerNotes   string          `json:"customer_notes"`
	DeliveryCharge  decimal.Decimal `json:"delivery_charge"`
}

// RentEquipment creates a rental: unit reservation, rental row and payment row
// commit or roll back together.
func RentEquipment(c *fiber.Ctx) error {
	var data rentEquipmentDTO
	if err := middlewares.BindAndValidate(c, &data); err != nil {
		return err
	}

	id, err := strconv.Atoi(c.Params("id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid equipment id")
	}
	start, err := time.Parse("2006-01-02", data.StartDate)
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid start date")
	}
	end, err := time.Parse("2006-01-02", data.EndDate)
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid end date")
	}
	if end.Before(start) {
		return fiber.NewError(fiber.StatusBadRequest, "end date is before start date")
	}

	tx, err := database.GetRequestDB(c)
	if err != nil {
		return err
	}
	eq, err := loadEquipment(tx, id)
	if err != nil {
		return err
	}
	if err := decrementUnits(tx, eq.Id, data.Quantity); err != nil {
		return err
	}

	days := int(end.Sub(start).Hours()/24) + 1
	rental := models.EquipmentRental{
		CustomerID:      currentUser(c),
		EquipmentID:     eq.Id,
		RentalPeriod:    data.RentalPeriod,
		Quantity:        data.Quantity,
		StartDate:       start,
		EndDate:         end,
		RentalPrice:     rentalPrice(eq, data.RentalPeriod, days, data.Quantity),
		SecurityDeposit: eq.SecurityDeposit.Mul(decimal.NewFromInt(int64(data.Quantity))),
		DeliveryCharge:  data.DeliveryCharge,
		Status:          models.StatusPending,
		DeliveryAddress: data.DeliveryAddress,
		DeliveryPhone:   data.DeliveryPhone,
		CustomerNotes:   data.CustomerNotes,
	}
	if err := tx.Create(&rental).Error; err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "could not create rental")
	}

	payment, err := createPaymentFor(tx, rental.CustomerID, models.KindEquipmentRental, rental.ID, rental.TotalAmount)
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{"rental": rental, "payment": payment})
}

type purchaseEquipmentDTO struct {
	Quantity        int             `json:"quantity" validate:"required,gt=0"`
	DeliveryAddress string          `json:"delivery_address" validate:"required"`
	DeliveryPhone   string          `json:"delivery_phone" validate:"required"`
	CustomerNotes   string          `json:"customer_notes"`
	DeliveryCharge  decimal.Decimal `json:"delivery_charge"`
}

// PurchaseEquipment creates a purchase order under the same atomicity rules as
// rentals.
func PurchaseEquipment(c *fiber.Ctx) error {
	var data purchaseEquipmentDTO
	if err := middlewares.BindAndValidate(c, &data); err != nil {
		return err
	}

	id, err := strconv.Atoi(c.Params("id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid equipment id")
	}

	tx, err := database.GetRequestDB(c)
	if err != nil {
		return err
	}
	eq, err := loadEquipment(tx, id)
	if err != nil {
		return err
	}
	if err := decrementUnits(tx, eq.Id, data.Quantity); err != nil {
		return err
	}

	purchase := models.EquipmentPurchase{
		CustomerID:      currentUser(c),
		EquipmentID:     eq.Id,
		Quantity:        data.Quantity,
		UnitPrice:       eq.PurchasePrice,
		DeliveryCharge:  data.DeliveryCharge,
		Status:          models.StatusPending,
		DeliveryAddress: data.DeliveryAddress,
		DeliveryPhone:   data.DeliveryPhone,
		CustomerNotes:   data.CustomerNotes,
	}
	if err := tx.Create(&purchase).Error; err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "could not create purchase")
	}

	payment, err := createPaymentFor(tx, purchase.CustomerID, models.KindEquipmentPurchase, purchase.ID, purchase.TotalAmount)
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{"purchase": purchase, "payment": payment})
}

func loadRental(c *fiber.Ctx, tx *gorm.DB) (*models.EquipmentRental, error) {
	var rental models.EquipmentRental
	q := tx.Where("rental_number = ?", c.Params("number"))
	if currentRole(c) != models.RoleStaff {
		q = q.Where("customer_id = ?", currentUser(c))
	}
	if err := q.First(&rental).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, ledger.ErrNotFound
		}
		return nil, err
	}
	return &rental, nil
}

func loadPurchase(c *fiber.Ctx, tx *gorm.DB) (*models.EquipmentPurchase, error) {
	var purchase models.EquipmentPurchase
	q := tx.Where("order_number = ?", c.Params("number"))
	if currentRole(c) != models.RoleStaff {
		q = q.Where("customer_id = ?", currentUser(c))
	}
	if err := q.First(&purchase).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, ledger.ErrNotFound
		}
		return nil, err
	}
	return &purchase, nil
}

// CancelRental cancels a pending/confirmed rental, releases the reserved
// units and voids the linked payment.
func CancelRental(c *fiber.Ctx) error {
	tx, err := database.GetRequestDB(c)
	if err != nil {
		return err
	}
	rental, err := loadRental(c, tx)
	if err != nil {
		return err
	}
	if rental.Status != models.StatusPending && rental.Status != models.StatusConfirmed {
		return fiber.NewError(fiber.StatusUnprocessableEntity, "this rental can no longer be cancelled")
	}

	now := time.Now().UTC()
	rental.Status = models.StatusCancelled
	rental.CancelledAt = &now
	if err := tx.Save(rental).Error; err != nil {
		return err
	}
	if err := restoreUnits(tx, rental.EquipmentID, rental.Quantity); err != nil {
		return err
	}
	if err := refundPaymentsFor(tx, models.KindEquipmentRental, rental.ID, currentUser(c)); err != nil {
		return err
	}
	return c.JSON(rental)
}

// ReturnRental closes out an active/confirmed rental and releases the units.
func ReturnRental(c *fiber.Ctx) error {
	tx, err := database.GetRequestDB(c)
	if err != nil {
		return err
	}
	rental, err := loadRental(c, tx)
	if err != nil {
		return err
	}
	if rental.Status != models.StatusActive && rental.Status != models.StatusConfirmed {
		return fiber.NewError(fiber.StatusUnprocessableEntity, "only active rentals can be returned")
	}

	now := time.Now().UTC()
	rental.Status = models.StatusReturned
	rental.ActualReturnDate = &now
	if err := tx.Save(rental).Error; err != nil {
		return err
	}
	if err := restoreUnits(tx, rental.EquipmentID, rental.Quantity); err != nil {
		return err
	}
	return c.JSON(rental)
}

type rentalStatusDTO struct {
	Status string `json:"status" validate:"required,oneof=confirmed active"`
}

// UpdateRentalStatus is the staff fulfilment endpoint for rentals.
func UpdateRentalStatus(c *fiber.Ctx) error {
	var data rentalStatusDTO
	if err := middlewares.BindAndValidate(c, &data); err != nil {
		return err
	}

	tx, err := database.GetRequestDB(c)
	if err != nil {
		return err
	}
	rental, err := loadRental(c, tx)
	if err != nil {
		return err
	}
	if rental.Status == models.StatusCancelled || rental.Status == models.StatusReturned {
		return fiber.NewError(fiber.StatusUnprocessableEntity, "rental is already "+rental.Status)
	}

	rental.Status = data.Status
	if err := tx.Save(rental).Error; err != nil {
		return err
	}
	return c.JSON(rental)
}

// CancelPurchase cancels a pending/confirmed purchase, restores inventory and
// voids the linked payment.
func CancelPurchase(c *fiber.Ctx) error {
	tx, err := database.GetRequestDB(c)
	if err != nil {
		return err
	}
	purchase, err := loadPurchase(c, tx)
	if err != nil {
		return err
	}
	if purchase.Status != models.StatusPending && purchase.Status != models.StatusConfirmed {
		return fiber.NewError(fiber.StatusUnprocessableEntity, "this purchase can no longer be cancelled")
	}

	purchase.Status = models.StatusCancelled
	if err := tx.Save(purchase).Error; err != nil {
		return err
	}
	if err := restoreUnits(tx, purchase.EquipmentID, purchase.Quantity); err != nil {
		return err
	}
	if err := refundPaymentsFor(tx, models.KindEquipmentPurchase, purchase.ID, currentUser(c)); err != nil {
		return err
	}
	return c.JSON(purchase)
}

type purchaseStatusDTO struct {
	Status string `json:"status" validate:"required,oneof=confirmed shipped delivered"`
}

// UpdatePurchaseStatus is the staff fulfilment endpoint for purchases.
func UpdatePurchaseStatus(c *fiber.Ctx) error {
	var data purchaseStatusDTO
	if err := middlewares.BindAndValidate(c, &data); err != nil {
		return err
	}

	tx, err := database.GetRequestDB(c)
	if err != nil {
		return err
	}
	purchase, err := loadPurchase(c, tx)
	if err != nil {
		return err
	}
	if purchase.Status == models.StatusCancelled || purchase.Status == models.StatusDelivered {
		return fiber.NewError(fiber.StatusUnprocessableEntity, "purchase is already "+purchase.Status)
	}

	purchase.Status = data.Status
	if err := tx.Save(purchase).Error; err != nil {
		return err
	}
	return c.JSON(purchase)
}
