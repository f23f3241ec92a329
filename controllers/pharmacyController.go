package controllers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"uhcare-backend/database"
	"uhcare-backend/ledger"
	"uhcare-backend/middlewares"
	"uhcare-backend/models"
)

func GetMedicines(c *fiber.Ctx) error {
	tx, err := database.GetRequestDB(c)
	if err != nil {
		return err
	}

	q := tx.Where("active = ? AND stock_quantity > 0", true)
	if cat := c.Query("category"); cat != "" {
		q = q.Where("category = ?", cat)
	}

	var medicines []models.Medicine
	if err := q.Order("name").Find(&medicines).Error; err != nil {
		return err
	}
	return c.JSON(fiber.Map{"medicines": medicines})
}

type checkoutItemDTO struct {
	MedicineID uint `json:"medicine_id" validate:"required"`
	Quantity   int  `json:"quantity" validate:"required,gt=0"`
}

type pharmacyCheckoutDTO struct {
	Items           []checkoutItemDTO `json:"items" validate:"required,min=1"`
	DeliveryAddress string            `json:"delivery_address" validate:"required"`
	DeliveryPhone   string            `json:"delivery_phone" validate:"required"`
	CustomerNotes   string            `json:"customer_notes"`
	DeliveryCharge  decimal.Decimal   `json:"delivery_charge"`
}

// PharmacyCheckout creates the order, decrements stock and writes the payment
// row as one atomic unit: any failure (including insufficient stock) rolls the
// whole checkout back.
func PharmacyCheckout(c *fiber.Ctx) error {
	var data pharmacyCheckoutDTO
	if err := middlewares.BindAndValidate(c, &data); err != nil {
		return err
	}
	for _, item := range data.Items {
		if err := middlewares.ValidateStruct(item); err != nil {
			return err
		}
	}

	tx, err := database.GetRequestDB(c)
	if err != nil {
		return err
	}

	subtotal := decimal.Zero
	items := make([]models.PharmacyOrderItem, 0, len(data.Items))
	for _, item := range data.Items {
		var med models.Medicine
		if err := tx.Where("id = ? AND active = ?", item.MedicineID, true).First(&med).Error; err != nil {
			if err == gorm.ErrRecordNotFound {
				return fiber.NewError(fiber.StatusNotFound, "medicine not found")
			}
			return err
		}

		// Guarded decrement: fails the whole checkout when stock ran out
		// between listing and ordering.
		res := tx.Model(&models.Medicine{}).
			Where("id = ? AND stock_quantity >= ?", med.Id, item.Quantity).
			Update("stock_quantity", gorm.Expr("stock_quantity - ?", item.Quantity))
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return fiber.NewError(fiber.StatusConflict, "insufficient stock for "+med.Name)
		}

		lineTotal := med.UnitPrice.Mul(decimal.NewFromInt(int64(item.Quantity)))
		subtotal = subtotal.Add(lineTotal)
		items = append(items, models.PharmacyOrderItem{
			MedicineID: med.Id,
			Quantity:   item.Quantity,
			UnitPrice:  med.UnitPrice,
			LineTotal:  lineTotal,
		})
	}

	order := models.PharmacyOrder{
		CustomerID:      currentUser(c),
		Items:           items,
		Subtotal:        subtotal,
		DeliveryCharge:  data.DeliveryCharge,
		Status:          models.StatusPending,
		DeliveryAddress: data.DeliveryAddress,
		DeliveryPhone:   data.DeliveryPhone,
		CustomerNotes:   data.CustomerNotes,
	}
	if err := tx.Create(&order).Error; err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "could not create order")
	}

	payment, err := createPaymentFor(tx, order.CustomerID, models.KindPharmacyOrder, order.ID, order.TotalAmount)
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{"order": order, "payment": payment})
}

func GetPharmacyOrders(c *fiber.Ctx) error {
	tx, err := database.GetRequestDB(c)
	if err != nil {
		return err
	}

	q := tx.Preload("Items").Order("created_at DESC")
	if currentRole(c) != models.RoleStaff {
		q = q.Where("customer_id = ?", currentUser(c))
	}

	var orders []models.PharmacyOrder
	if err := q.Find(&orders).Error; err != nil {
		return err
	}
	return c.JSON(fiber.Map{"orders": orders})
}

func loadPharmacyOrder(c *fiber.Ctx, tx *gorm.DB) (*models.PharmacyOrder, error) {
	var order models.PharmacyOrder
	q := tx.Preload("Items").Where("order_number = ?", c.Params("number"))
	if currentRole(c) != models.RoleStaff {
		q = q.Where("customer_id = ?", currentUser(c))
	}
	if err := q.First(&order).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, ledger.ErrNotFound
		}
		return nil, err
	}
	return &order, nil
}

// CancelPharmacyOrder cancels a pending/confirmed order, restores stock and
// voids the linked payment, all in the request transaction.
func CancelPharmacyOrder(c *fiber.Ctx) error {
	tx, err := database.GetRequestDB(c)
	if err != nil {
		return err
	}
	order, err := loadPharmacyOrder(c, tx)
	if err != nil {
		return err
	}
	if order.Status != models.StatusPending && order.Status != models.StatusConfirmed {
		return fiber.NewError(fiber.StatusUnprocessableEntity, "this order can no longer be cancelled")
	}

	order.Status = models.StatusCancelled
	if err := tx.Save(order).Error; err != nil {
		return err
	}

	for _, item := range order.Items {
		if err := tx.Model(&models.Medicine{}).
			Where("id = ?", item.MedicineID).
			Update("stock_quantity", gorm.Expr("stock_quantity + ?", item.Quantity)).Error; err != nil {
			return err
		}
	}

	if err := refundPaymentsFor(tx, models.KindPharmacyOrder, order.ID, currentUser(c)); err != nil {
		return err
	}
	return c.JSON(order)
}

type orderStatusDTO struct {
	Status string `json:"status" validate:"required,oneof=confirmed processing shipped delivered"`
}

// UpdatePharmacyOrderStatus is the staff fulfilment endpoint.
func UpdatePharmacyOrderStatus(c *fiber.Ctx) error {
	var data orderStatusDTO
	if err := middlewares.BindAndValidate(c, &data); err != nil {
		return err
	}

	tx, err := database.GetRequestDB(c)
	if err != nil {
		return err
	}
	order, err := loadPharmacyOrder(c, tx)
	if err != nil {
		return err
	}
	if order.Status == models.StatusCancelled || order.Status == models.StatusDelivered {
		return fiber.NewError(fiber.StatusUnprocessableEntity, "order is already "+order.Status)
	}

	order.Status = data.Status
	if err := tx.Save(order).Error; err != nil {
		return err
	}
	return c.JSON(order)
}
